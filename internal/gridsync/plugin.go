package gridsync

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

type Plugin interface {
	Init(server ServerPlugin, logger Logger) error

	OnPhaseChange(change PhaseChange) error
	OnCountdown(tick CountdownTick) error
	OnRaceStart(start RaceStart) error
	OnRankChange(change RankChange) error
	OnParticipantFinished(result ParticipantResult) error
	OnParticipantDNF(result ParticipantResult) error
	OnSuspiciousProgress(report SuspiciousProgress) error

	OnNewConnection(id ParticipantID, name string) error
	OnConnectionClosed(id ParticipantID, name string) error
	OnSnapshot(id ParticipantID, snapshot Snapshot) error
}

// ServerPlugin is the server-side surface handed to plugins at Init. Reads
// return copies of match state; the only mutations offered are the explicit
// commands the authority already accepts.
type ServerPlugin interface {
	GetPhase() RacePhase
	GetRankingTable() RankingTable
	GetNetworkQuality(id ParticipantID) (NetworkQualityInfo, error)
	ElapsedRaceTime() time.Duration
	CountdownRemaining() float64

	StartCountdown() error
	Continue() error
	ResetMatch()
}

// dispatchEvent fans one authority change record out to a plugin.
func dispatchEvent(plugin Plugin, event Event) error {
	switch data := event.Data.(type) {
	case PhaseChange:
		return plugin.OnPhaseChange(data)
	case CountdownTick:
		return plugin.OnCountdown(data)
	case RaceStart:
		return plugin.OnRaceStart(data)
	case RankChange:
		return plugin.OnRankChange(data)
	case ParticipantResult:
		if data.DNF {
			return plugin.OnParticipantDNF(data)
		}

		return plugin.OnParticipantFinished(data)
	case SuspiciousProgress:
		return plugin.OnSuspiciousProgress(data)
	default:
		return nil
	}
}

type multiPlugin struct {
	plugins []Plugin
}

func MultiPlugin(plugins ...Plugin) Plugin {
	return &multiPlugin{plugins: plugins}
}

func (mp *multiPlugin) Init(server ServerPlugin, logger Logger) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.Init(server, logger)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnPhaseChange(change PhaseChange) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnPhaseChange(change)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnCountdown(tick CountdownTick) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnCountdown(tick)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnRaceStart(start RaceStart) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnRaceStart(start)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnRankChange(change RankChange) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnRankChange(change)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnParticipantFinished(result ParticipantResult) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnParticipantFinished(result)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnParticipantDNF(result ParticipantResult) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnParticipantDNF(result)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnSuspiciousProgress(report SuspiciousProgress) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnSuspiciousProgress(report)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnNewConnection(id ParticipantID, name string) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnNewConnection(id, name)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnConnectionClosed(id ParticipantID, name string) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnConnectionClosed(id, name)
		})
	}

	return g.Wait()
}

func (mp *multiPlugin) OnSnapshot(id ParticipantID, snapshot Snapshot) error {
	g, _ := errgroup.WithContext(context.Background())

	for _, plugin := range mp.plugins {
		plugin := plugin
		g.Go(func() error {
			return plugin.OnSnapshot(id, snapshot)
		})
	}

	return g.Wait()
}

type nilPlugin struct{}

func (n nilPlugin) Init(_ ServerPlugin, _ Logger) error {
	return nil
}

func (n nilPlugin) OnPhaseChange(_ PhaseChange) error {
	return nil
}

func (n nilPlugin) OnCountdown(_ CountdownTick) error {
	return nil
}

func (n nilPlugin) OnRaceStart(_ RaceStart) error {
	return nil
}

func (n nilPlugin) OnRankChange(_ RankChange) error {
	return nil
}

func (n nilPlugin) OnParticipantFinished(_ ParticipantResult) error {
	return nil
}

func (n nilPlugin) OnParticipantDNF(_ ParticipantResult) error {
	return nil
}

func (n nilPlugin) OnSuspiciousProgress(_ SuspiciousProgress) error {
	return nil
}

func (n nilPlugin) OnNewConnection(_ ParticipantID, _ string) error {
	return nil
}

func (n nilPlugin) OnConnectionClosed(_ ParticipantID, _ string) error {
	return nil
}

func (n nilPlugin) OnSnapshot(_ ParticipantID, _ Snapshot) error {
	return nil
}
