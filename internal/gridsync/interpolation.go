package gridsync

import "fmt"

// InterpolationMode selects how a replica reconstructs poses between (or
// beyond) buffered snapshots. The mode is chosen once per entity.
type InterpolationMode uint8

const (
	// ModeLinear blends position and rotation in a straight line between the
	// bracketing snapshots. Cheap, visibly robotic through curves.
	ModeLinear InterpolationMode = iota
	// ModeHermite fits a cubic through position and velocity at both
	// endpoints. Preferred for vehicles following curved paths.
	ModeHermite
	// ModePredictive extrapolates from the newest snapshot when no bracket
	// exists, capped at the configured maximum extrapolation duration.
	ModePredictive
)

func (m InterpolationMode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeHermite:
		return "hermite"
	case ModePredictive:
		return "predictive"
	default:
		return "unknown"
	}
}

func ParseInterpolationMode(s string) (InterpolationMode, error) {
	switch s {
	case "linear":
		return ModeLinear, nil
	case "hermite", "":
		return ModeHermite, nil
	case "predictive":
		return ModePredictive, nil
	default:
		return ModeLinear, fmt.Errorf("gridsync: unknown interpolation mode: %q", s)
	}
}

// Pose is the reconstructed render state for a remote entity at a given
// sample time.
type Pose struct {
	Position Vector3F
	Rotation Vector3F
	Velocity Vector3F
}

// lerpSnapshots blends two bracketing snapshots by time fraction t in [0, 1].
func lerpSnapshots(from, to Snapshot, t float32) Pose {
	return Pose{
		Position: lerpVector(from.Position, to.Position, t),
		Rotation: lerpRotation(from.Rotation, to.Rotation, t),
		Velocity: lerpVector(from.LinearVelocity, to.LinearVelocity, t),
	}
}

// hermiteSnapshots fits a cubic hermite curve through the endpoint positions
// using the endpoint velocities as tangents, scaled by the bracket duration.
func hermiteSnapshots(from, to Snapshot, t float32) Pose {
	duration := float32(to.Timestamp - from.Timestamp)

	if duration <= 0 {
		return from.Pose()
	}

	t2 := t * t
	t3 := t2 * t

	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + t
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	position := from.Position.Scale(h00).
		Add(from.LinearVelocity.Scale(h10 * duration)).
		Add(to.Position.Scale(h01)).
		Add(to.LinearVelocity.Scale(h11 * duration))

	return Pose{
		Position: position,
		Rotation: lerpRotation(from.Rotation, to.Rotation, t),
		Velocity: lerpVector(from.LinearVelocity, to.LinearVelocity, t),
	}
}

// extrapolateSnapshot projects a snapshot forward by dt seconds using its
// linear and angular velocity. Callers must cap dt.
func extrapolateSnapshot(s Snapshot, dt float64) Pose {
	return Pose{
		Position: s.Position.Add(s.LinearVelocity.Scale(float32(dt))),
		Rotation: Vector3F{
			X: wrapAngle(s.Rotation.X + s.AngularVelocity.X*float32(dt)),
			Y: wrapAngle(s.Rotation.Y + s.AngularVelocity.Y*float32(dt)),
			Z: wrapAngle(s.Rotation.Z + s.AngularVelocity.Z*float32(dt)),
		},
		Velocity: s.LinearVelocity,
	}
}
