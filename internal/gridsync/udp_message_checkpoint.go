package gridsync

import (
	"net"
)

type CheckpointMessageHandler struct {
	state     *ServerState
	authority *RaceAuthority
	logger    Logger
}

func NewCheckpointMessageHandler(state *ServerState, authority *RaceAuthority, logger Logger) *CheckpointMessageHandler {
	return &CheckpointMessageHandler{
		state:     state,
		authority: authority,
		logger:    logger,
	}
}

func (cmh CheckpointMessageHandler) OnMessage(_ net.PacketConn, addr net.Addr, p *Packet) error {
	participant := cmh.authority.EntryList().GetByUDPAddress(addr)

	if participant == nil {
		return nil
	}

	ev := CheckpointEvent{
		ParticipantID:   participant.ID,
		CheckpointIndex: int(p.ReadUint8()),
		LapNumber:       int(p.ReadUint16()),
		Timestamp:       p.ReadFloat64(),
	}

	participant.MarkActive(currentTimeSecond())

	err := cmh.authority.HandleCheckpoint(ev)

	switch err {
	case nil, ErrNotAcceptingCheckpoints:
		// a checkpoint raced against a phase change, nothing to do
		return nil
	case ErrCheckpointRegression:
		// already logged and surfaced as a suspicious-progress event,
		// the sender is not told, so it cannot map out the validator
		return nil
	default:
		return err
	}
}

func (cmh CheckpointMessageHandler) MessageType() MessageType {
	return UDPMessageCheckpoint
}
