package gridsync

import (
	"testing"
)

func TestPacketUTF32String(t *testing.T) {
	p := NewPacket(nil)
	p.WriteUTF32String("Søren 北")

	decoded := NewPacket(p.buf.Bytes()).ReadUTF32String()

	if decoded != "Søren 北" {
		t.Errorf("expected round-tripped string, got: %q", decoded)
	}
}

func TestSnapshotWireFormat(t *testing.T) {
	in := Snapshot{
		Sequence:        77,
		Timestamp:       123.456,
		Position:        Vector3F{X: 1, Y: 2, Z: 3},
		Rotation:        Vector3F{Y: 90},
		LinearVelocity:  Vector3F{X: -4.5},
		AngularVelocity: Vector3F{Z: 0.25},
		Throttle:        1,
		Brake:           0.5,
		Steering:        -0.25,
		Gear:            3,
		Flags:           FlagDrifting | FlagBoostActive,
	}

	p := NewPacket(nil)
	writeSnapshot(p, in)

	out := readSnapshot(NewPacket(p.buf.Bytes()))

	if out != in {
		t.Errorf("snapshot did not survive the wire:\n in: %+v\nout: %+v", in, out)
	}

	if !out.IsDrifting() || !out.IsBoostActive() {
		t.Error("expected state flags to survive the wire")
	}
}
