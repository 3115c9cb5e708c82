package gridsync

type CorrectionKind uint8

const (
	CorrectionNone CorrectionKind = iota
	CorrectionBlend
	CorrectionSnap
)

func (k CorrectionKind) String() string {
	switch k {
	case CorrectionNone:
		return "none"
	case CorrectionBlend:
		return "blend"
	case CorrectionSnap:
		return "snap"
	default:
		return "unknown"
	}
}

// Correction describes how the owning peer's locally predicted state must be
// adjusted toward the authoritative one. Corrections are deliberately
// visible so higher layers can trigger feedback.
type Correction struct {
	Kind          CorrectionKind
	PositionError float64 // metres
	RotationError float64 // degrees
	Target        Pose
	BlendDuration float64 // seconds, zero for snaps
}

// hardSnapFactor: divergence beyond this multiple of the position threshold
// snaps instead of blending; a hard snap beats a long, confusing slide.
const hardSnapFactor = 4.0

// Reconciler compares the owning peer's predicted pose against the server's
// authoritative snapshot for the same timestamp. This is the only path by
// which a client's own displayed position can be forcibly corrected.
type Reconciler struct {
	positionThreshold float64 // metres
	rotationThreshold float64 // degrees
	blendDuration     float64 // seconds

	logger Logger
}

func NewReconciler(config ReplicationConfig, logger Logger) *Reconciler {
	return &Reconciler{
		positionThreshold: config.PositionErrorThreshold,
		rotationThreshold: config.RotationErrorThreshold,
		blendDuration:     config.CorrectionBlendDuration,
		logger:            logger,
	}
}

// Reconcile measures the divergence between the locally predicted pose and
// the authoritative snapshot at the same timestamp. Divergence is never
// fatal; it is corrected and logged with magnitude for anti-cheat review.
func (rc *Reconciler) Reconcile(predicted Pose, authoritative Snapshot) Correction {
	positionError := predicted.Position.DistanceTo(authoritative.Position)
	rotationError := maxAngleError(predicted.Rotation, authoritative.Rotation)

	correction := Correction{
		PositionError: positionError,
		RotationError: rotationError,
		Target:        authoritative.Pose(),
	}

	if positionError <= rc.positionThreshold && rotationError <= rc.rotationThreshold {
		correction.Kind = CorrectionNone

		return correction
	}

	if positionError > rc.positionThreshold*hardSnapFactor {
		correction.Kind = CorrectionSnap
	} else {
		correction.Kind = CorrectionBlend
		correction.BlendDuration = rc.blendDuration
	}

	rc.logger.Warnf(
		"Reconciliation divergence at t: %.3f (position: %.2fm, rotation: %.1f°, correction: %s)",
		authoritative.Timestamp, positionError, rotationError, correction.Kind,
	)

	metricCorrections.WithLabelValues(correction.Kind.String()).Inc()

	return correction
}

func maxAngleError(a, b Vector3F) float64 {
	err := angleDistance(a.X, b.X)

	if e := angleDistance(a.Y, b.Y); e > err {
		err = e
	}

	if e := angleDistance(a.Z, b.Z); e > err {
		err = e
	}

	return err
}
