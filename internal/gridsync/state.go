package gridsync

import (
	"net"
	"sync"
)

// ServerState ties the race authority to the wire: it owns the UDP packet
// connection, one Replica per remote participant, and the broadcast helpers
// the tick loop and message handlers use.
type ServerState struct {
	serverConfig      *ServerConfig
	replicationConfig *ReplicationConfig
	authority         *RaceAuthority
	plugin            Plugin
	logger            Logger

	udp writerTo

	mutex    sync.RWMutex
	replicas map[ParticipantID]*Replica
}

func NewServerState(config *Config, authority *RaceAuthority, plugin Plugin, logger Logger) *ServerState {
	return &ServerState{
		serverConfig:      &config.Server,
		replicationConfig: &config.Replication,
		authority:         authority,
		plugin:            plugin,
		logger:            logger,
		replicas:          make(map[ParticipantID]*Replica),
	}
}

func (ss *ServerState) Replica(id ParticipantID) *Replica {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	replica, ok := ss.replicas[id]

	if !ok {
		replica = NewReplica(id, *ss.replicationConfig, ss.logger)
		ss.replicas[id] = replica
	}

	return replica
}

func (ss *ServerState) Replicas() map[ParticipantID]*Replica {
	ss.mutex.RLock()
	defer ss.mutex.RUnlock()

	out := make(map[ParticipantID]*Replica, len(ss.replicas))

	for id, replica := range ss.replicas {
		out[id] = replica
	}

	return out
}

func (ss *ServerState) removeReplica(id ParticipantID) {
	ss.mutex.Lock()
	defer ss.mutex.Unlock()

	delete(ss.replicas, id)
}

func (ss *ServerState) BroadcastAllUDP(p *Packet) {
	for _, participant := range ss.authority.EntryList() {
		if !participant.IsConnected() {
			continue
		}

		if err := p.WriteUDP(ss.udp, participant.UDPAddress()); err != nil {
			ss.logger.WithError(err).Errorf("Could not send broadcast to %s", participant.String())
		}
	}
}

func (ss *ServerState) BroadcastOthersUDP(p *Packet, ignoreParticipantID ParticipantID) {
	for _, participant := range ss.authority.EntryList() {
		if participant.ID == ignoreParticipantID || !participant.IsConnected() {
			continue
		}

		if err := p.WriteUDP(ss.udp, participant.UDPAddress()); err != nil {
			ss.logger.WithError(err).Errorf("Could not send broadcast to %s", participant.String())
		}
	}
}

// BroadcastSnapshot relays an authoritative snapshot for one participant to
// every other connected participant. Snapshots are fire and forget, a lost
// relay is recovered by the next one.
func (ss *ServerState) BroadcastSnapshot(from *Participant, snapshot Snapshot) {
	p := NewPacket(nil)
	p.Write(UDPMessageSnapshot)
	p.Write(from.ID)
	writeSnapshot(p, snapshot)

	ss.BroadcastOthersUDP(p, from.ID)
}

func (ss *ServerState) BroadcastPhase(change PhaseChange) {
	p := NewPacket(nil)
	p.Write(UDPMessagePhase)
	p.Write(uint8(change.Previous))
	p.Write(uint8(change.Current))

	ss.BroadcastAllUDP(p)
}

func (ss *ServerState) BroadcastCountdown(tick CountdownTick) {
	p := NewPacket(nil)
	p.Write(UDPMessageCountdown)
	p.Write(uint8(tick.SecondsRemaining))

	ss.BroadcastAllUDP(p)
}

func (ss *ServerState) BroadcastRaceStart(start RaceStart) {
	p := NewPacket(nil)
	p.Write(UDPMessageRaceStart)
	p.Write(start.RaceStartTime)

	ss.BroadcastAllUDP(p)
}

func (ss *ServerState) BroadcastRanking(table RankingTable) {
	p := NewPacket(nil)
	p.Write(UDPMessageRanking)
	p.Write(uint8(len(table)))

	for _, line := range table {
		p.Write(uint8(line.Rank))
		p.Write(line.ParticipantID)
		p.Write(uint16(line.Lap))
		p.Write(line.TotalDistance)
	}

	ss.BroadcastAllUDP(p)
}

func (ss *ServerState) BroadcastDNF(result ParticipantResult) {
	p := NewPacket(nil)
	p.Write(UDPMessageParticipantDNF)
	p.Write(result.ParticipantID)

	ss.BroadcastAllUDP(p)
}

func (ss *ServerState) SendJoinAck(participant *Participant) error {
	p := NewPacket(nil)
	p.Write(UDPMessageJoinAck)
	p.Write(participant.ID)
	p.WriteUTF32String(ss.serverConfig.Name)
	p.Write(uint8(ss.authority.Phase()))

	return p.WriteUDP(ss.udp, participant.UDPAddress())
}

func (ss *ServerState) SendJoinRefused(addr net.Addr, reason string) error {
	p := NewPacket(nil)
	p.Write(UDPMessageJoinRefused)
	p.WriteUTF32String(reason)

	return p.WriteUDP(ss.udp, addr)
}

// SendPong stamps the server clock. The client echoes the stamp back in its
// next ping, which lets the server measure round trip time without any clock
// synchronisation between the two.
func (ss *ServerState) SendPong(participant *Participant) error {
	p := NewPacket(nil)
	p.Write(UDPMessagePong)
	p.Write(currentTimeSecond())

	return p.WriteUDP(ss.udp, participant.UDPAddress())
}

func (ss *ServerState) DisconnectParticipant(participant *Participant) error {
	if participant == nil {
		return nil
	}

	if err := ss.authority.MarkDisconnected(participant.ID); err != nil {
		return err
	}

	ss.removeReplica(participant.ID)

	ss.logger.Infof("Participant: %s disconnected from the server", participant)

	go func() {
		err := ss.plugin.OnConnectionClosed(participant.ID, participant.Name)

		if err != nil {
			ss.logger.WithError(err).Error("On connection closed plugin returned an error")
		}
	}()

	return nil
}

func writeSnapshot(p *Packet, s Snapshot) {
	p.Write(s.Sequence)
	p.Write(s.Timestamp)
	p.Write(s.Position)
	p.Write(s.Rotation)
	p.Write(s.LinearVelocity)
	p.Write(s.AngularVelocity)
	p.Write(s.Throttle)
	p.Write(s.Brake)
	p.Write(s.Steering)
	p.Write(s.Gear)
	p.Write(s.Flags)
}

func readSnapshot(p *Packet) Snapshot {
	var s Snapshot

	s.Sequence = p.ReadUint32()
	s.Timestamp = p.ReadFloat64()
	p.Read(&s.Position)
	p.Read(&s.Rotation)
	p.Read(&s.LinearVelocity)
	p.Read(&s.AngularVelocity)
	s.Throttle = p.ReadFloat32()
	s.Brake = p.ReadFloat32()
	s.Steering = p.ReadFloat32()
	s.Gear = p.ReadInt32()
	s.Flags = p.ReadUint32()

	return s
}
