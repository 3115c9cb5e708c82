package gridsync

import "net"

type MessageType uint8

const (
	// Receive
	UDPMessageJoin       MessageType = 0x3D
	UDPMessageReady      MessageType = 0x3F
	UDPMessageSnapshot   MessageType = 0x46
	UDPMessageCheckpoint MessageType = 0x52
	UDPMessagePing       MessageType = 0xF8
	UDPMessageDisconnect MessageType = 0x43

	// Send
	UDPMessageJoinAck        MessageType = 0x3E
	UDPMessageJoinRefused    MessageType = 0x45
	UDPMessagePong           MessageType = 0xF9
	UDPMessagePhase          MessageType = 0x4A
	UDPMessageCountdown      MessageType = 0x4C
	UDPMessageRanking        MessageType = 0x4B
	UDPMessageRaceStart      MessageType = 0x57
	UDPMessageParticipantDNF MessageType = 0x58
)

type UDPMessageHandler interface {
	OnMessage(conn net.PacketConn, addr net.Addr, p *Packet) error
	MessageType() MessageType
}
