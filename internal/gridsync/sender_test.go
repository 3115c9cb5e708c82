package gridsync

import (
	"testing"
)

func TestSenderCaptureStampsAndLaysOutPacket(t *testing.T) {
	local := Snapshot{
		Position:       Vector3F{X: 12, Y: 0.5, Z: -3},
		LinearVelocity: Vector3F{X: 40},
		Throttle:       0.8,
		Gear:           4,
	}

	sender := NewSnapshotSender(nil, func() Snapshot {
		return local
	}, func() float64 {
		return 62.5
	}, 30, testLogger())

	before := currentTimeSecond()

	for want := uint32(1); want <= 3; want++ {
		p := sender.capture()

		var messageType MessageType
		p.Read(&messageType)

		if messageType != UDPMessageSnapshot {
			t.Fatalf("expected snapshot message type, got: 0x%x", messageType)
		}

		out := readSnapshot(p)

		if out.Sequence != want {
			t.Errorf("expected sequence %d, got: %d", want, out.Sequence)
		}

		if out.Timestamp < before {
			t.Errorf("expected a fresh session-clock stamp, got: %f (captured before %f)", out.Timestamp, before)
		}

		if out.Position != local.Position || out.LinearVelocity != local.LinearVelocity || out.Gear != local.Gear {
			t.Errorf("captured state does not match the source: %+v", out)
		}

		if progress := p.ReadFloat64(); progress != 62.5 {
			t.Errorf("expected lap progress 62.5 after the snapshot, got: %f", progress)
		}
	}
}
