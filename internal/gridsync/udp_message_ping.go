package gridsync

import (
	"net"
	"time"
)

type PingMessageHandler struct {
	state     *ServerState
	authority *RaceAuthority
}

func NewPingMessageHandler(state *ServerState, authority *RaceAuthority) *PingMessageHandler {
	return &PingMessageHandler{
		state:     state,
		authority: authority,
	}
}

// OnMessage closes the ping loop: the echoed pong stamp against the current
// server clock is one round trip.
func (pmh PingMessageHandler) OnMessage(_ net.PacketConn, addr net.Addr, p *Packet) error {
	participant := pmh.authority.EntryList().GetByUDPAddress(addr)

	if participant == nil {
		return nil
	}

	pongSentAt := p.ReadFloat64()

	rttMillis := int64((currentTimeSecond() - pongSentAt) * 1000)

	if rttMillis < 0 {
		return nil
	}

	pmh.state.Replica(participant.ID).Quality().ObservePing(rttMillis)

	participant.Connection.LastPingTime = time.Now()
	participant.MarkActive(currentTimeSecond())

	return nil
}

func (pmh PingMessageHandler) MessageType() MessageType {
	return UDPMessagePing
}
