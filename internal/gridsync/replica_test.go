package gridsync

import (
	"math"
	"testing"
)

func testReplicationConfig(mode string) ReplicationConfig {
	return ReplicationConfig{
		SendRateHz:             10,
		InterpolationDelay:     0.1,
		InterpolationMode:      mode,
		SnapshotBufferCapacity: 16,
		MaxExtrapolation:       0.25,
	}
}

func TestReplicaInvisibleUntilFirstSnapshot(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("linear"), testLogger())

	if _, visible := replica.SampleAt(1.0); visible {
		t.Error("replica must not be visible before any snapshot arrives")
	}
}

func TestReplicaInterpolatesBehindPresent(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("linear"), testLogger())

	replica.Receive(Snapshot{Sequence: 1, Timestamp: 1.0, Position: Vector3F{X: 0}})
	replica.Receive(Snapshot{Sequence: 2, Timestamp: 1.1, Position: Vector3F{X: 10}})

	// render time = 1.15 − 0.1 = 1.05, the bracket midpoint
	pose, visible := replica.SampleAt(1.15)

	if !visible {
		t.Fatal("expected replica to be visible")
	}

	if math.Abs(float64(pose.Position.X-5)) > 1e-3 {
		t.Errorf("expected interpolated x 5, got: %f", pose.Position.X)
	}
}

// A snapshot gap shorter than the extrapolation cap: predictive mode projects
// the newest snapshot forward along its velocity.
func TestReplicaPredictiveExtrapolation(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("predictive"), testLogger())

	replica.Receive(Snapshot{Sequence: 1, Timestamp: 0.0, Position: Vector3F{X: 0}, LinearVelocity: Vector3F{X: 100}})
	replica.Receive(Snapshot{Sequence: 2, Timestamp: 0.10, Position: Vector3F{X: 10}, LinearVelocity: Vector3F{X: 100}})

	// render time 0.15: 0.05s past the newest snapshot
	pose, visible := replica.SampleAt(0.25)

	if !visible {
		t.Fatal("expected replica to be visible")
	}

	if math.Abs(float64(pose.Position.X-15)) > 1e-3 {
		t.Errorf("expected extrapolated x 15, got: %f", pose.Position.X)
	}

	if replica.IsStale() {
		t.Error("replica must not be stale within the extrapolation window")
	}
}

func TestReplicaExtrapolationCap(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("predictive"), testLogger())

	replica.Receive(Snapshot{Sequence: 1, Timestamp: 0.0, Position: Vector3F{X: 0}, LinearVelocity: Vector3F{X: 100}})

	// render time is 1.9s past the snapshot, far beyond the 0.25s cap
	pose, visible := replica.SampleAt(2.0)

	if !visible {
		t.Fatal("expected replica to stay visible when stale")
	}

	if math.Abs(float64(pose.Position.X-25)) > 1e-3 {
		t.Errorf("expected position held at the cap (x 25), got: %f", pose.Position.X)
	}

	if !replica.IsStale() {
		t.Error("expected replica to be stale past the extrapolation cap")
	}

	// a fresh snapshot clears staleness
	replica.Receive(Snapshot{Sequence: 2, Timestamp: 2.0, Position: Vector3F{X: 30}})

	if replica.IsStale() {
		t.Error("expected staleness to clear on a fresh snapshot")
	}
}

func TestReplicaHoldsNewestWithoutPrediction(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("hermite"), testLogger())

	replica.Receive(Snapshot{Sequence: 1, Timestamp: 0.0, Position: Vector3F{X: 7}, LinearVelocity: Vector3F{X: 100}})

	pose, visible := replica.SampleAt(5.0)

	if !visible {
		t.Fatal("expected replica to stay visible")
	}

	if pose.Position.X != 7 {
		t.Errorf("expected non-predictive replica to hold the newest pose, got x: %f", pose.Position.X)
	}

	if !replica.IsStale() {
		t.Error("expected replica to be stale after a long overrun")
	}
}

func TestReplicaCountsDroppedSnapshots(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("linear"), testLogger())

	replica.Receive(Snapshot{Sequence: 1, Timestamp: 1.0})
	replica.Receive(Snapshot{Sequence: 2, Timestamp: 0.9})
	replica.Receive(Snapshot{Sequence: 3, Timestamp: 1.0})

	if replica.DroppedSnapshots() != 2 {
		t.Errorf("expected 2 dropped snapshots, got: %d", replica.DroppedSnapshots())
	}
}

// Diagnostics are read from the HTTP goroutine while snapshots keep
// arriving; this only fails under the race detector.
func TestReplicaDiagnosticsAreSafeToReadConcurrently(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("predictive"), testLogger())

	done := make(chan struct{})

	go func() {
		defer close(done)

		for i := 0; i < 1000; i++ {
			replica.Receive(snapshotAt(uint32(i), float64(i)*0.03))
			replica.Receive(snapshotAt(uint32(i), float64(i)*0.03)) // duplicate, dropped
		}
	}()

	for i := 0; i < 1000; i++ {
		replica.IsStale()
		replica.DroppedSnapshots()
	}

	<-done

	if replica.DroppedSnapshots() == 0 {
		t.Error("expected duplicate snapshots to be counted as dropped")
	}
}

func TestReplicaUnknownModeFallsBackToHermite(t *testing.T) {
	replica := NewReplica(1, testReplicationConfig("catmull-rom"), testLogger())

	if replica.Mode() != ModeHermite {
		t.Errorf("expected fallback to hermite, got: %s", replica.Mode())
	}
}
