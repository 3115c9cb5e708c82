package plugins

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/gridrace/gridsync/internal/gridsync"
)

type UDPPluginEvent uint8

const (
	// Send
	EventPhaseChanged        UDPPluginEvent = 50
	EventNewConnection       UDPPluginEvent = 51
	EventConnectionClosed    UDPPluginEvent = 52
	EventCountdown           UDPPluginEvent = 53
	EventRaceStarted         UDPPluginEvent = 54
	EventRankChanged         UDPPluginEvent = 55
	EventParticipantFinished UDPPluginEvent = 56
	EventParticipantDNF      UDPPluginEvent = 57
	EventSuspiciousProgress  UDPPluginEvent = 58

	// Receive
	EventStartCountdown UDPPluginEvent = 200
	EventContinue       UDPPluginEvent = 201
	EventResetMatch     UDPPluginEvent = 202
)

// UDPPlugin relays race change events to an external process over UDP and
// accepts the explicit race commands back, so race direction can live
// outside the server process.
type UDPPlugin struct {
	localAddress  *net.UDPAddr
	remoteAddress *net.UDPAddr
	packetConn    *net.UDPConn

	server gridsync.ServerPlugin
	logger gridsync.Logger
	ctx    context.Context
	cfn    context.CancelFunc
}

func NewUDPPlugin(listenPort int, sendAddress string) (gridsync.Plugin, error) {
	remoteAddress, err := net.ResolveUDPAddr("udp", sendAddress)

	if err != nil {
		return nil, err
	}

	localAddress, err := net.ResolveUDPAddr("udp", fmt.Sprintf(":%d", listenPort))

	if err != nil {
		return nil, err
	}

	ctx, cfn := context.WithCancel(context.Background())

	return &UDPPlugin{
		localAddress:  localAddress,
		remoteAddress: remoteAddress,
		ctx:           ctx,
		cfn:           cfn,
	}, nil
}

func (u *UDPPlugin) Init(server gridsync.ServerPlugin, logger gridsync.Logger) error {
	u.server = server
	u.logger = logger

	var err error

	u.packetConn, err = net.DialUDP("udp", u.localAddress, u.remoteAddress)

	if err != nil {
		return err
	}

	go u.listen()

	return nil
}

func (u *UDPPlugin) Shutdown() error {
	u.logger.Infof("Shutting down UDP plugin")

	u.cfn()

	return u.packetConn.Close()
}

func (u *UDPPlugin) listen() {
	for {
		select {
		case <-u.ctx.Done():
			return
		default:
			buf := make([]byte, 1024)

			_ = u.packetConn.SetDeadline(time.Now().Add(time.Minute))

			n, _, err := u.packetConn.ReadFrom(buf)

			if err != nil {
				if e, ok := err.(*net.OpError); ok && !e.Temporary() {
					u.logger.WithError(err).Errorf("udp plugin: fatal error. udp plugin will not run for this session.")
					return
				}

				u.logger.WithError(err).Error("udp plugin: could not read from udp buffer")
				continue
			}

			if err := u.handleConnection(buf[:n]); err != nil {
				u.logger.WithError(err).Error("udp plugin: could not handle udp connection")
			}
		}
	}
}

func (u *UDPPlugin) handleConnection(data []byte) error {
	p := gridsync.NewPacket(data)

	var messageType UDPPluginEvent

	p.Read(&messageType)

	switch messageType {
	case EventStartCountdown:
		return u.server.StartCountdown()
	case EventContinue:
		return u.server.Continue()
	case EventResetMatch:
		u.server.ResetMatch()
	default:
		u.logger.Errorf("udp plugin: unknown message type: %d", messageType)
	}

	return nil
}

func (u *UDPPlugin) write(p *gridsync.Packet) error {
	return p.WriteToUDPConn(u.packetConn)
}

func (u *UDPPlugin) OnPhaseChange(change gridsync.PhaseChange) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventPhaseChanged)
	p.Write(uint8(change.Previous))
	p.Write(uint8(change.Current))

	return u.write(p)
}

func (u *UDPPlugin) OnCountdown(tick gridsync.CountdownTick) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventCountdown)
	p.Write(uint8(tick.SecondsRemaining))

	return u.write(p)
}

func (u *UDPPlugin) OnRaceStart(start gridsync.RaceStart) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventRaceStarted)
	p.Write(start.RaceStartTime)

	return u.write(p)
}

func (u *UDPPlugin) OnRankChange(change gridsync.RankChange) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventRankChanged)
	p.Write(change.ParticipantID)
	p.Write(uint8(change.OldRank))
	p.Write(uint8(change.NewRank))
	p.WriteUTF32String(change.Name)

	return u.write(p)
}

func (u *UDPPlugin) OnParticipantFinished(result gridsync.ParticipantResult) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventParticipantFinished)
	p.Write(result.ParticipantID)
	p.Write(result.FinishTime)
	p.WriteUTF32String(result.Name)

	return u.write(p)
}

func (u *UDPPlugin) OnParticipantDNF(result gridsync.ParticipantResult) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventParticipantDNF)
	p.Write(result.ParticipantID)
	p.WriteUTF32String(result.Name)

	return u.write(p)
}

func (u *UDPPlugin) OnSuspiciousProgress(report gridsync.SuspiciousProgress) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventSuspiciousProgress)
	p.Write(report.Event.ParticipantID)
	p.Write(uint8(report.Event.CheckpointIndex))
	p.Write(uint16(report.Event.LapNumber))
	p.WriteUTF32String(report.Reason)

	return u.write(p)
}

func (u *UDPPlugin) OnNewConnection(id gridsync.ParticipantID, name string) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventNewConnection)
	p.Write(id)
	p.WriteUTF32String(name)

	return u.write(p)
}

func (u *UDPPlugin) OnConnectionClosed(id gridsync.ParticipantID, name string) error {
	p := gridsync.NewPacket(nil)
	p.Write(EventConnectionClosed)
	p.Write(id)
	p.WriteUTF32String(name)

	return u.write(p)
}

func (u *UDPPlugin) OnSnapshot(_ gridsync.ParticipantID, _ gridsync.Snapshot) error {
	// the snapshot stream is too hot to relay per-message; consumers that
	// need it should subscribe to the websocket feed instead.
	return nil
}
