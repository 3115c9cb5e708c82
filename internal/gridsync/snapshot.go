package gridsync

// Snapshot state flag bits.
const (
	FlagDrifting uint32 = 1 << iota
	FlagBoostActive
)

// Snapshot is one timestamped sample of an entity's kinematic and input
// state. Snapshots are values; once captured they are never mutated.
type Snapshot struct {
	Sequence        uint32
	Timestamp       float64 // seconds since session epoch
	Position        Vector3F
	Rotation        Vector3F // euler degrees
	LinearVelocity  Vector3F
	AngularVelocity Vector3F // degrees per second
	Throttle        float32
	Brake           float32
	Steering        float32
	Gear            int32
	Flags           uint32
}

func (s Snapshot) IsDrifting() bool {
	return s.Flags&FlagDrifting != 0
}

func (s Snapshot) IsBoostActive() bool {
	return s.Flags&FlagBoostActive != 0
}

// Pose returns the snapshot's own kinematic state as a render pose.
func (s Snapshot) Pose() Pose {
	return Pose{
		Position: s.Position,
		Rotation: s.Rotation,
		Velocity: s.LinearVelocity,
	}
}
