package gridsync

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

type RacePhase uint8

const (
	PhaseLobby RacePhase = iota
	PhasePreRace
	PhaseCountdown
	PhaseRacing
	PhaseFinishing
	PhaseResults
	PhasePostRace
)

func (p RacePhase) String() string {
	switch p {
	case PhaseLobby:
		return "Lobby"
	case PhasePreRace:
		return "PreRace"
	case PhaseCountdown:
		return "Countdown"
	case PhaseRacing:
		return "Racing"
	case PhaseFinishing:
		return "Finishing"
	case PhaseResults:
		return "Results"
	case PhasePostRace:
		return "PostRace"
	default:
		return "Unknown"
	}
}

// CheckpointEvent is a crossing reported by the track-trigger layer. The
// finish line is the distinguished checkpoint index RaceConfig.Checkpoints−1.
type CheckpointEvent struct {
	ParticipantID   ParticipantID `json:"participant_id"`
	CheckpointIndex int           `json:"checkpoint_index"`
	LapNumber       int           `json:"lap_number"`
	Timestamp       float64       `json:"timestamp"` // seconds since session epoch
}

// RaceAuthority is the server-owned state machine that tracks per-participant
// progress, computes total-distance ranking and drives the race-phase
// lifecycle. It is the single writer of the race phase and of every
// participant record; everything else observes.
type RaceAuthority struct {
	config RaceConfig
	logger Logger

	mutex sync.Mutex

	entryList EntryList
	phase     RacePhase

	countdownEndsAt      float64
	lastCountdownSeconds int
	raceStartTime        float64 // seconds since session epoch, valid from Racing onward
	finishingDeadline    float64
	resultsDeadline      float64

	ranking      RankingTable
	rankingDirty bool

	pending []Event

	now func() float64
}

func NewRaceAuthority(config RaceConfig, logger Logger) *RaceAuthority {
	return &RaceAuthority{
		config: config,
		logger: logger,
		phase:  PhaseLobby,
		now:    currentTimeSecond,
	}
}

// Join registers a participant while the race has not started. IDs are
// assigned densely in join order.
func (a *RaceAuthority) Join(name string, guid uuid.UUID, isAI bool) (*Participant, error) {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.phase != PhaseLobby && a.phase != PhasePreRace {
		return nil, fmt.Errorf("gridsync: cannot join during phase: %s", a.phase)
	}

	if existing := a.entryList.GetByGUID(guid); existing != nil {
		// rejoining participants keep their slot
		return existing, nil
	}

	if len(a.entryList) >= a.config.MaxParticipants {
		return nil, ErrEntryListFull
	}

	participant := &Participant{
		ID:             ParticipantID(len(a.entryList)),
		GUID:           guid,
		Name:           name,
		IsAI:           isAI,
		CurrentLap:     1,
		LastCheckpoint: -1,
		BestLapTime:    maximumLapTime,
	}

	participant.MarkActive(a.now())

	a.entryList = append(a.entryList, participant)

	a.logger.Infof("Participant joined: %s", participant)

	return participant, nil
}

func (a *RaceAuthority) EntryList() EntryList {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make(EntryList, len(a.entryList))
	copy(out, a.entryList)

	return out
}

func (a *RaceAuthority) Phase() RacePhase {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.phase
}

// setPhase advances the race phase. Phases only ever move forward; a new
// lifecycle starts via Reset, never by transitioning backward.
func (a *RaceAuthority) setPhase(next RacePhase) {
	if next <= a.phase {
		a.logger.Errorf("Refusing phase regression: %s -> %s", a.phase, next)
		return
	}

	previous := a.phase
	a.phase = next

	a.logger.Infof("Race phase advanced: %s -> %s", previous, next)

	a.pending = append(a.pending, Event{
		Type: EventPhaseChanged,
		Data: PhaseChange{Previous: previous, Current: next},
	})
}

// MarkReady acknowledges that a participant finished loading. When every
// human participant is ready the race advances from Lobby to PreRace.
func (a *RaceAuthority) MarkReady(id ParticipantID) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	participant, err := a.entryList.GetByID(id)

	if err != nil {
		return err
	}

	participant.SetReady(true)
	participant.MarkActive(a.now())

	if a.phase == PhaseLobby && a.entryList.AllReady() {
		a.setPhase(PhasePreRace)
	}

	return nil
}

// StartCountdown is the explicit start command. Only valid from PreRace.
func (a *RaceAuthority) StartCountdown() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.phase != PhasePreRace {
		return ErrInvalidPhaseTransition
	}

	a.countdownEndsAt = a.now() + a.config.CountdownDuration
	a.lastCountdownSeconds = -1
	a.setPhase(PhaseCountdown)

	return nil
}

// Continue is the explicit return command from the results screen.
func (a *RaceAuthority) Continue() error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.phase != PhaseResults {
		return ErrInvalidPhaseTransition
	}

	a.setPhase(PhasePostRace)

	return nil
}

// CountdownRemaining reports whole and fractional seconds until green light.
func (a *RaceAuthority) CountdownRemaining() float64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.phase != PhaseCountdown {
		return 0
	}

	remaining := a.countdownEndsAt - a.now()

	if remaining < 0 {
		return 0
	}

	return remaining
}

// RaceStartTime is the canonical instant the race clock started, in seconds
// since the session epoch.
func (a *RaceAuthority) RaceStartTime() float64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.raceStartTime
}

// ElapsedRaceTime is always serverNow − raceStartTime, never an accumulated
// per-frame delta sum, so frame hitches and reconnects cannot drift it.
func (a *RaceAuthority) ElapsedRaceTime() time.Duration {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	return a.elapsedRaceTimeLocked()
}

func (a *RaceAuthority) elapsedRaceTimeLocked() time.Duration {
	if a.phase < PhaseRacing {
		return 0
	}

	return time.Duration((a.now() - a.raceStartTime) * float64(time.Second))
}

// HandleCheckpoint applies one checkpoint crossing. Progress is monotonic
// non-decreasing by contract: regressions are rejected, logged as suspicious
// and leave the participant unchanged. Re-crossing the finish line after
// completion is ignored.
func (a *RaceAuthority) HandleCheckpoint(ev CheckpointEvent) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.phase != PhaseRacing && a.phase != PhaseFinishing {
		return ErrNotAcceptingCheckpoints
	}

	participant, err := a.entryList.GetByID(ev.ParticipantID)

	if err != nil {
		return err
	}

	if participant.Finished || participant.DNF {
		// finish handling is idempotent; late crossings change nothing
		return nil
	}

	if reason := a.validateCheckpoint(participant, ev); reason != "" {
		a.rejectCheckpoint(ev, reason)

		return ErrCheckpointRegression
	}

	participant.MarkActive(a.now())
	participant.LastCheckpoint = ev.CheckpointIndex
	participant.LastCheckpointAt = ev.Timestamp
	participant.InLapDistance = a.checkpointDistance(ev.CheckpointIndex)

	if ev.CheckpointIndex == a.config.FinishCheckpointIndex() {
		a.completeLap(participant)
	}

	participant.TotalDistance = float64(participant.CurrentLap-1)*a.config.TrackLength + participant.InLapDistance
	a.rankingDirty = true

	return nil
}

func (a *RaceAuthority) validateCheckpoint(participant *Participant, ev CheckpointEvent) string {
	switch {
	case ev.CheckpointIndex < 0 || ev.CheckpointIndex >= a.config.Checkpoints:
		return "checkpoint index out of range"
	case ev.LapNumber < participant.CurrentLap:
		return "lap regression"
	case ev.LapNumber > participant.CurrentLap:
		return "lap ahead of recorded progress"
	case ev.CheckpointIndex <= participant.LastCheckpoint:
		return "checkpoint regression"
	case ev.Timestamp < participant.LastCheckpointAt:
		return "timestamp regression"
	default:
		return ""
	}
}

func (a *RaceAuthority) rejectCheckpoint(ev CheckpointEvent, reason string) {
	a.logger.Warnf("Rejected checkpoint report for participant: %d (checkpoint: %d, lap: %d): %s",
		ev.ParticipantID, ev.CheckpointIndex, ev.LapNumber, reason)

	metricSuspiciousProgress.Inc()

	a.pending = append(a.pending, Event{
		Type: EventSuspiciousProgress,
		Data: SuspiciousProgress{Event: ev, Reason: reason},
	})
}

// checkpointDistance is the in-lap distance credited for crossing a
// checkpoint, assuming evenly spaced triggers. Interpolated progress between
// checkpoints arrives separately via ReportProgress.
func (a *RaceAuthority) checkpointDistance(index int) float64 {
	return a.config.TrackLength * float64(index+1) / float64(a.config.Checkpoints)
}

func (a *RaceAuthority) completeLap(participant *Participant) {
	lapStart := participant.currentLapStart

	if lapStart == 0 {
		lapStart = a.raceStartTime
	}

	lapTime := time.Duration((a.now() - lapStart) * float64(time.Second))

	participant.LapCount++
	participant.LastLapTime = lapTime
	participant.currentLapStart = a.now()

	if lapTime < participant.BestLapTime {
		participant.BestLapTime = lapTime
	}

	a.logger.Infof("Participant: %d completed lap %d in %s", participant.ID, participant.LapCount, lapTime)

	if participant.CurrentLap >= a.config.Laps {
		a.finishParticipant(participant)
		return
	}

	participant.CurrentLap++
	participant.LastCheckpoint = -1
	participant.InLapDistance = 0
}

// finishParticipant records the finish exactly once; finish time is race
// time at the instant the final crossing is processed.
func (a *RaceAuthority) finishParticipant(participant *Participant) {
	participant.Finished = true
	participant.FinishTime = a.elapsedRaceTimeLocked()
	participant.InLapDistance = a.config.TrackLength

	a.logger.Infof("Participant: %d finished the race in %s", participant.ID, participant.FinishTime)

	a.pending = append(a.pending, Event{
		Type: EventParticipantFinished,
		Data: ParticipantResult{
			ParticipantID: participant.ID,
			Name:          participant.Name,
			FinishTime:    participant.FinishTime.Seconds(),
		},
	})

	if a.phase == PhaseRacing {
		// the leader has crossed the line; racing continues for everyone
		// else until the finish window closes.
		a.finishingDeadline = a.now() + a.config.FinishTimeLimit
		a.setPhase(PhaseFinishing)
	}
}

// ReportProgress supplies interpolated distance toward the next checkpoint,
// derived by the track layer from the authoritative position stream. It only
// ever moves a participant forward within the current lap.
func (a *RaceAuthority) ReportProgress(id ParticipantID, distanceIntoLap float64) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	if a.phase != PhaseRacing && a.phase != PhaseFinishing {
		return ErrNotAcceptingCheckpoints
	}

	participant, err := a.entryList.GetByID(id)

	if err != nil {
		return err
	}

	if participant.Finished || participant.DNF {
		return nil
	}

	distanceIntoLap = math.Min(distanceIntoLap, a.config.TrackLength)

	if distanceIntoLap <= participant.InLapDistance {
		return nil
	}

	participant.InLapDistance = distanceIntoLap
	participant.TotalDistance = float64(participant.CurrentLap-1)*a.config.TrackLength + participant.InLapDistance
	participant.MarkActive(a.now())
	a.rankingDirty = true

	return nil
}

// MarkDisconnected flags a participant whose connection closed. During a
// race this is an immediate DNF; in the lobby the slot is simply released.
func (a *RaceAuthority) MarkDisconnected(id ParticipantID) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	participant, err := a.entryList.GetByID(id)

	if err != nil {
		return err
	}

	participant.CloseConnection()
	participant.SetReady(false)

	if a.phase >= PhaseRacing && a.phase <= PhaseFinishing && !participant.Finished && !participant.DNF {
		a.markDNFLocked(participant)
	}

	return nil
}

func (a *RaceAuthority) markDNFLocked(participant *Participant) {
	participant.DNF = true
	a.rankingDirty = true

	a.logger.Warnf("Participant: %d (%s) marked DNF", participant.ID, participant.Name)

	a.pending = append(a.pending, Event{
		Type: EventParticipantDNF,
		Data: ParticipantResult{
			ParticipantID: participant.ID,
			Name:          participant.Name,
			DNF:           true,
		},
	})
}

// Tick advances deadline-driven state and returns the discrete changes since
// the previous tick. Ranking rebuilds are atomic with respect to the tick
// that triggered them.
func (a *RaceAuthority) Tick() []Event {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	now := a.now()

	switch a.phase {
	case PhaseCountdown:
		a.tickCountdownLocked(now)
	case PhaseRacing, PhaseFinishing:
		a.tickRaceLocked(now)
	case PhaseResults:
		if now >= a.resultsDeadline {
			a.setPhase(PhasePostRace)
		}
	}

	if a.rankingDirty {
		a.rebuildRankingLocked()
	}

	events := a.pending
	a.pending = nil

	return events
}

func (a *RaceAuthority) tickCountdownLocked(now float64) {
	if now >= a.countdownEndsAt {
		// the countdown instant, not the tick instant, is the canonical
		// race start time.
		a.raceStartTime = a.countdownEndsAt

		for _, participant := range a.entryList {
			participant.currentLapStart = a.raceStartTime
			participant.MarkActive(now)
		}

		a.setPhase(PhaseRacing)

		a.pending = append(a.pending, Event{
			Type: EventRaceStarted,
			Data: RaceStart{RaceStartTime: a.raceStartTime},
		})

		return
	}

	seconds := int(math.Ceil(a.countdownEndsAt - now))

	if seconds != a.lastCountdownSeconds {
		a.lastCountdownSeconds = seconds

		a.pending = append(a.pending, Event{
			Type: EventCountdown,
			Data: CountdownTick{SecondsRemaining: seconds},
		})
	}
}

func (a *RaceAuthority) tickRaceLocked(now float64) {
	for _, participant := range a.entryList {
		if participant.Finished || participant.DNF || participant.IsAI {
			continue
		}

		if lastActivity := participant.LastActivityAt(); lastActivity > 0 && now-lastActivity > a.config.InactivityTimeout {
			a.markDNFLocked(participant)
		}
	}

	// Normally the first finisher moves the race into Finishing. A field
	// that is entirely DNF has no finisher, so the race closes out here.
	if a.phase == PhaseRacing && a.entryList.AllSettled() {
		a.finishingDeadline = now
		a.setPhase(PhaseFinishing)
	}

	if a.phase != PhaseFinishing {
		return
	}

	if a.entryList.AllSettled() || now >= a.finishingDeadline {
		a.resultsDeadline = now + a.config.ResultsTimeout
		a.setPhase(PhaseResults)
	}
}

func (a *RaceAuthority) rebuildRankingLocked() {
	previous := a.ranking
	a.ranking = BuildRankingTable(a.entryList)
	a.rankingDirty = false

	for _, change := range DiffRanking(previous, a.ranking) {
		a.pending = append(a.pending, Event{
			Type: EventRankChanged,
			Data: change,
		})
	}
}

// Ranking returns the current table. The table is a read-only projection;
// callers receive their own copy.
func (a *RaceAuthority) Ranking() RankingTable {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	out := make(RankingTable, len(a.ranking))
	copy(out, a.ranking)

	return out
}

// Reset begins a fresh lifecycle for a rematch. This is not a phase
// transition: all participant progress is cleared and the phase returns to
// Lobby.
func (a *RaceAuthority) Reset() {
	a.mutex.Lock()
	defer a.mutex.Unlock()

	a.logger.Infof("Resetting race authority for a new match")

	for _, participant := range a.entryList {
		participant.SetReady(false)
		participant.CurrentLap = 1
		participant.LastCheckpoint = -1
		participant.LastCheckpointAt = 0
		participant.InLapDistance = 0
		participant.TotalDistance = 0
		participant.LapCount = 0
		participant.BestLapTime = maximumLapTime
		participant.LastLapTime = 0
		participant.Finished = false
		participant.FinishTime = 0
		participant.DNF = false
		participant.currentLapStart = 0
	}

	a.phase = PhaseLobby
	a.countdownEndsAt = 0
	a.raceStartTime = 0
	a.finishingDeadline = 0
	a.resultsDeadline = 0
	a.ranking = nil
	a.rankingDirty = false
	a.pending = nil
}

// maximumLapTime is the sentinel best-lap value before any lap completes.
const maximumLapTime = 999999999 * time.Millisecond
