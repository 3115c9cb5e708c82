package gridsync

import (
	"context"
	"strconv"
	"time"
)

const idleSleepTime = time.Millisecond * 500

type Server struct {
	config    *Config
	state     *ServerState
	authority *RaceAuthority
	plugin    Plugin
	logger    Logger

	udp  *UDP
	http *HTTP
	live *LiveHub

	resultStore *BoltResultStore

	cfn context.CancelFunc
	ctx context.Context

	stopped chan error
}

func NewServer(ctx context.Context, config *Config, logger Logger, plugin Plugin) (*Server, error) {
	if plugin == nil {
		plugin = nilPlugin{}
	}

	config.ApplyDefaults()

	authority := NewRaceAuthority(config.Race, logger)
	state := NewServerState(config, authority, plugin, logger)

	ctx, cfn := context.WithCancel(ctx)

	server := &Server{
		config:    config,
		state:     state,
		authority: authority,
		plugin:    plugin,
		logger:    logger,
		live:      NewLiveHub(logger),
		stopped:   make(chan error, 1),
		ctx:       ctx,
		cfn:       cfn,
	}

	if config.Server.ResultsStorePath != "" {
		resultStore, err := NewBoltResultStore(config.Server.ResultsStorePath)

		if err != nil {
			cfn()
			return nil, err
		}

		server.resultStore = resultStore
	}

	return server, nil
}

func (s *Server) Start() error {
	s.logger.Infof("Initialising gridSync server: %s (track: %s, laps: %d)", s.config.Server.Name, s.config.Race.TrackName, s.config.Race.Laps)

	clearStatistics()

	s.udp = NewUDP(s.config.Server.UDPPort, s)
	s.http = NewHTTP(s.config.Server.HTTPPort, s.state, s.authority, s.live, s.logger)

	errCh := make(chan error)

	go func() {
		errCh <- s.udp.Listen(s.ctx)
	}()

	if err := s.plugin.Init(s, s.logger); err != nil {
		return err
	}

	s.state.udp = s.udp

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	default:
	}

	go s.loop()

	return s.http.Listen()
}

func (s *Server) Stop() (err error) {
	defer func() {
		s.stopped <- err
	}()

	s.logger.Infof("Shutting down gridSync server")

	s.cfn()
	s.live.Close()

	printStatistics(s.logger)

	var storeErr error

	if s.resultStore != nil {
		storeErr = s.resultStore.Close()
	}

	err = errorGroup(storeErr, s.http.Close())

	return err
}

func (s *Server) Run() error {
	if err := s.Start(); err != nil {
		return err
	}

	return <-s.stopped
}

func (s *Server) loop() {
	activeSleepTime := time.Millisecond * time.Duration(s.config.Server.SleepTime)
	sleepTime := activeSleepTime

	lastGaugeUpdate := int64(0)

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Debugf("Stopping main server loop")
			return
		default:
			currentTime := currentTimeMillisecond()

			if s.authority.Phase() == PhasePreRace {
				// everyone is loaded and ready, lights out
				if err := s.authority.StartCountdown(); err != nil {
					s.logger.WithError(err).Error("Could not start race countdown")
				}
			}

			s.handleEvents(s.authority.Tick())

			for _, participant := range s.authority.EntryList() {
				if !participant.IsConnected() {
					continue
				}

				if time.Since(participant.Connection.LastPingTime) > time.Second {
					participant.Connection.LastPingTime = time.Now()

					if err := s.state.SendPong(participant); err != nil {
						s.logger.WithError(err).Error("Could not write pong")
					}
				}
			}

			if currentTime-lastGaugeUpdate >= 1000 {
				s.updateNetworkGauges()
				lastGaugeUpdate = currentTime
			}

			if s.authority.EntryList().NumConnected() == 0 {
				if sleepTime != idleSleepTime {
					s.logger.Infof("No participants connected. Switching to idle sleep mode")
					sleepTime = idleSleepTime
				}
			} else {
				if sleepTime == idleSleepTime {
					s.logger.Infof("Participants connected, waking from idle")
					sleepTime = activeSleepTime
				}
			}

			time.Sleep(sleepTime)
		}
	}
}

// handleEvents fans one tick's change records out to the wire, the live feed
// and the plugin. An overtake moves at least two ranks, so the ranking table
// goes out once per tick no matter how many ranks changed.
func (s *Server) handleEvents(events []Event) {
	rankingChanged := false

	for _, event := range events {
		if event.Type == EventRankChanged {
			rankingChanged = true
		}

		s.handleEvent(event)
	}

	if rankingChanged {
		s.state.BroadcastRanking(s.authority.Ranking())
	}
}

func (s *Server) handleEvent(event Event) {
	switch data := event.Data.(type) {
	case PhaseChange:
		s.state.BroadcastPhase(data)

		if data.Current == PhaseResults {
			s.saveRaceResults()
		}
	case CountdownTick:
		s.state.BroadcastCountdown(data)
	case RaceStart:
		s.state.BroadcastRaceStart(data)
	case ParticipantResult:
		if data.DNF {
			s.state.BroadcastDNF(data)
		}
	}

	s.live.Broadcast(event)

	go func() {
		if err := dispatchEvent(s.plugin, event); err != nil {
			s.logger.WithError(err).Errorf("Plugin returned an error for event: %s", event.Type)
		}
	}()
}

func (s *Server) saveRaceResults() {
	results := s.state.GenerateResults()

	if err := saveResults(s.config.Server.ResultsDirectory, results, s.logger); err != nil {
		s.logger.WithError(err).Error("Could not save race results")
	}

	if s.resultStore != nil {
		if err := s.resultStore.Save(results); err != nil {
			s.logger.WithError(err).Error("Could not archive race results")
		}
	}
}

func (s *Server) updateNetworkGauges() {
	for id, replica := range s.state.Replicas() {
		info := replica.QualityInfo()
		label := strconv.Itoa(int(id))

		metricLatency.WithLabelValues(label).Set(info.LatencyMillis)
		metricPacketLoss.WithLabelValues(label).Set(info.PacketLossPercent)
	}
}

// ServerPlugin implementation

func (s *Server) GetPhase() RacePhase {
	return s.authority.Phase()
}

func (s *Server) GetRankingTable() RankingTable {
	return s.authority.Ranking()
}

func (s *Server) GetNetworkQuality(id ParticipantID) (NetworkQualityInfo, error) {
	if _, err := s.authority.EntryList().GetByID(id); err != nil {
		return NetworkQualityInfo{}, err
	}

	return s.state.Replica(id).QualityInfo(), nil
}

func (s *Server) ElapsedRaceTime() time.Duration {
	return s.authority.ElapsedRaceTime()
}

func (s *Server) CountdownRemaining() float64 {
	return s.authority.CountdownRemaining()
}

func (s *Server) StartCountdown() error {
	return s.authority.StartCountdown()
}

func (s *Server) Continue() error {
	return s.authority.Continue()
}

func (s *Server) ResetMatch() {
	s.authority.Reset()
}
