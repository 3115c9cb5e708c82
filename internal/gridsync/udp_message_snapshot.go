package gridsync

import (
	"net"
)

type SnapshotMessageHandler struct {
	state     *ServerState
	authority *RaceAuthority
	plugin    Plugin
	logger    Logger
}

func NewSnapshotMessageHandler(state *ServerState, authority *RaceAuthority, plugin Plugin, logger Logger) *SnapshotMessageHandler {
	return &SnapshotMessageHandler{
		state:     state,
		authority: authority,
		plugin:    plugin,
		logger:    logger,
	}
}

func (smh SnapshotMessageHandler) OnMessage(_ net.PacketConn, addr net.Addr, p *Packet) error {
	participant := smh.authority.EntryList().GetByUDPAddress(addr)

	if participant == nil {
		return nil
	}

	snapshot := readSnapshot(p)
	distanceIntoLap := p.ReadFloat64()

	participant.MarkActive(currentTimeSecond())

	// progress only advances the standings mid-race, outside of that the
	// authority rejects it and the snapshot is still replicated.
	if err := smh.authority.ReportProgress(participant.ID, distanceIntoLap); err != nil && err != ErrNotAcceptingCheckpoints {
		return err
	}

	replica := smh.state.Replica(participant.ID)

	if !replica.Receive(snapshot) {
		return nil
	}

	metricSnapshotsReceived.Inc()

	smh.state.BroadcastSnapshot(participant, snapshot)

	go func() {
		err := smh.plugin.OnSnapshot(participant.ID, snapshot)

		if err != nil {
			smh.logger.WithError(err).Error("On snapshot plugin returned an error")
		}
	}()

	return nil
}

func (smh SnapshotMessageHandler) MessageType() MessageType {
	return UDPMessageSnapshot
}
