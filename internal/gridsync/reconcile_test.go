package gridsync

import (
	"testing"
)

func testReconciler() *Reconciler {
	return NewReconciler(ReplicationConfig{
		PositionErrorThreshold:  0.5,
		RotationErrorThreshold:  10,
		CorrectionBlendDuration: 0.3,
	}, testLogger())
}

func TestReconcile(t *testing.T) {
	reconcileTests := []struct {
		name      string
		predicted Pose
		server    Snapshot
		wantKind  CorrectionKind
	}{
		{
			name:      "within thresholds",
			predicted: Pose{Position: Vector3F{X: 0.3}},
			server:    Snapshot{},
			wantKind:  CorrectionNone,
		},
		{
			name:      "position divergence blends",
			predicted: Pose{Position: Vector3F{X: 1.2}},
			server:    Snapshot{},
			wantKind:  CorrectionBlend,
		},
		{
			name:      "rotation-only divergence blends",
			predicted: Pose{Rotation: Vector3F{Y: 15}},
			server:    Snapshot{},
			wantKind:  CorrectionBlend,
		},
		{
			name:      "rotation through the wrap seam stays small",
			predicted: Pose{Rotation: Vector3F{Y: 178}},
			server:    Snapshot{Rotation: Vector3F{Y: -178}},
			wantKind:  CorrectionNone,
		},
		{
			name:      "large divergence snaps",
			predicted: Pose{Position: Vector3F{X: 3}},
			server:    Snapshot{},
			wantKind:  CorrectionSnap,
		},
		{
			name:      "exactly at threshold is tolerated",
			predicted: Pose{Position: Vector3F{X: 0.5}},
			server:    Snapshot{},
			wantKind:  CorrectionNone,
		},
	}

	for _, test := range reconcileTests {
		t.Run(test.name, func(t *testing.T) {
			correction := testReconciler().Reconcile(test.predicted, test.server)

			if correction.Kind != test.wantKind {
				t.Fatalf("expected correction %s, got: %s (position error: %.2f, rotation error: %.1f)",
					test.wantKind, correction.Kind, correction.PositionError, correction.RotationError)
			}

			switch correction.Kind {
			case CorrectionBlend:
				if correction.BlendDuration != 0.3 {
					t.Errorf("expected blend duration 0.3, got: %f", correction.BlendDuration)
				}
			case CorrectionSnap, CorrectionNone:
				if correction.BlendDuration != 0 {
					t.Errorf("expected no blend duration, got: %f", correction.BlendDuration)
				}
			}
		})
	}
}

func TestReconcileTargetsAuthoritativePose(t *testing.T) {
	authoritative := Snapshot{
		Position:       Vector3F{X: 50, Y: 1, Z: -3},
		Rotation:       Vector3F{Y: 90},
		LinearVelocity: Vector3F{X: 12},
	}

	correction := testReconciler().Reconcile(Pose{}, authoritative)

	if correction.Kind != CorrectionSnap {
		t.Fatalf("expected snap, got: %s", correction.Kind)
	}

	if correction.Target != authoritative.Pose() {
		t.Errorf("correction must target the authoritative pose, got: %+v", correction.Target)
	}
}
