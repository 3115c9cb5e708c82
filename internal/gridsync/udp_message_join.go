package gridsync

import (
	"net"

	"github.com/google/uuid"
)

type JoinMessageHandler struct {
	state     *ServerState
	authority *RaceAuthority
	plugin    Plugin
	logger    Logger
}

func NewJoinMessageHandler(state *ServerState, authority *RaceAuthority, plugin Plugin, logger Logger) *JoinMessageHandler {
	return &JoinMessageHandler{
		state:     state,
		authority: authority,
		plugin:    plugin,
		logger:    logger,
	}
}

func (jmh JoinMessageHandler) OnMessage(_ net.PacketConn, addr net.Addr, p *Packet) error {
	rawGUID := p.ReadString()
	name := p.ReadUTF32String()

	guid, err := uuid.Parse(rawGUID)

	if err != nil {
		jmh.logger.WithError(err).Errorf("Join from %s carried an invalid GUID", addr.String())

		return jmh.state.SendJoinRefused(addr, "invalid participant GUID")
	}

	participant, err := jmh.authority.Join(name, guid, false)

	if err != nil {
		jmh.logger.WithError(err).Infof("Refused join for %s (%s)", name, addr.String())

		return jmh.state.SendJoinRefused(addr, err.Error())
	}

	participant.AssociateUDPAddress(addr)
	participant.MarkActive(currentTimeSecond())

	jmh.logger.Infof("Participant: %s joined from %s", participant.String(), addr.String())

	go func() {
		err := jmh.plugin.OnNewConnection(participant.ID, participant.Name)

		if err != nil {
			jmh.logger.WithError(err).Error("On new connection plugin returned an error")
		}
	}()

	return jmh.state.SendJoinAck(participant)
}

func (jmh JoinMessageHandler) MessageType() MessageType {
	return UDPMessageJoin
}
