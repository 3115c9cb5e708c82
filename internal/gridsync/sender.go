package gridsync

import (
	"context"
	"net"
	"time"
)

// StateSource returns the entity state as the local simulation currently
// has it. It is polled on the send ticker, never between ticks.
type StateSource func() Snapshot

// ProgressSource returns the distance in metres the local entity has covered
// into its current lap.
type ProgressSource func() float64

// SnapshotSender is the owning side of replication. It captures the local
// simulation at a fixed rate, stamps each capture with a sequence number and
// the session clock, and sends it unreliably. Lost sends are never retried,
// the next tick supersedes them.
type SnapshotSender struct {
	conn     *net.UDPConn
	state    StateSource
	progress ProgressSource
	rate     int
	logger   Logger

	sequence uint32
}

func NewSnapshotSender(conn *net.UDPConn, state StateSource, progress ProgressSource, sendRateHz int, logger Logger) *SnapshotSender {
	return &SnapshotSender{
		conn:     conn,
		state:    state,
		progress: progress,
		rate:     sendRateHz,
		logger:   logger,
	}
}

func (sn *SnapshotSender) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(sn.rate)

	sn.logger.Infof("Snapshot sender running at %dHz (every %s)", sn.rate, interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sn.sendOnce(); err != nil {
				sn.logger.WithError(err).Error("Could not send snapshot")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// capture polls the local state, stamps it and lays out the outbound packet.
func (sn *SnapshotSender) capture() *Packet {
	snapshot := sn.state()

	sn.sequence++
	snapshot.Sequence = sn.sequence
	snapshot.Timestamp = currentTimeSecond()

	p := NewPacket(nil)
	p.Write(UDPMessageSnapshot)
	writeSnapshot(p, snapshot)
	p.Write(sn.progress())

	return p
}

func (sn *SnapshotSender) sendOnce() error {
	return sn.capture().WriteToUDPConn(sn.conn)
}
