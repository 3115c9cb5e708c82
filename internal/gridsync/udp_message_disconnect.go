package gridsync

import (
	"net"
)

type DisconnectMessageHandler struct {
	state     *ServerState
	authority *RaceAuthority
}

func NewDisconnectMessageHandler(state *ServerState, authority *RaceAuthority) *DisconnectMessageHandler {
	return &DisconnectMessageHandler{
		state:     state,
		authority: authority,
	}
}

func (dmh DisconnectMessageHandler) OnMessage(_ net.PacketConn, addr net.Addr, _ *Packet) error {
	participant := dmh.authority.EntryList().GetByUDPAddress(addr)

	if participant == nil {
		return nil
	}

	return dmh.state.DisconnectParticipant(participant)
}

func (dmh DisconnectMessageHandler) MessageType() MessageType {
	return UDPMessageDisconnect
}
