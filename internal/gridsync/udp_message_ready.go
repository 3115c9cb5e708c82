package gridsync

import (
	"net"
)

type ReadyMessageHandler struct {
	state     *ServerState
	authority *RaceAuthority
}

func NewReadyMessageHandler(state *ServerState, authority *RaceAuthority) *ReadyMessageHandler {
	return &ReadyMessageHandler{
		state:     state,
		authority: authority,
	}
}

func (rmh ReadyMessageHandler) OnMessage(_ net.PacketConn, addr net.Addr, _ *Packet) error {
	participant := rmh.authority.EntryList().GetByUDPAddress(addr)

	if participant == nil {
		return nil
	}

	participant.MarkActive(currentTimeSecond())

	return rmh.authority.MarkReady(participant.ID)
}

func (rmh ReadyMessageHandler) MessageType() MessageType {
	return UDPMessageReady
}
