package gridsync

// Change events are computed by diffing match state across authority ticks,
// never fired synchronously mid-mutation. Consumers poll Tick results,
// subscribe via the websocket feed, or implement Plugin.

type EventType string

const (
	EventPhaseChanged        EventType = "phase_changed"
	EventCountdown           EventType = "countdown"
	EventRaceStarted         EventType = "race_started"
	EventRankChanged         EventType = "rank_changed"
	EventParticipantFinished EventType = "participant_finished"
	EventParticipantDNF      EventType = "participant_dnf"
	EventSuspiciousProgress  EventType = "suspicious_progress"
)

type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

type PhaseChange struct {
	Previous RacePhase `json:"previous"`
	Current  RacePhase `json:"current"`
}

type CountdownTick struct {
	SecondsRemaining int `json:"seconds_remaining"`
}

type RaceStart struct {
	RaceStartTime float64 `json:"race_start_time"` // seconds since session epoch
}

// ParticipantResult reports a participant reaching a terminal race state,
// either finished or DNF.
type ParticipantResult struct {
	ParticipantID ParticipantID `json:"participant_id"`
	Name          string        `json:"name"`
	FinishTime    float64       `json:"finish_time,omitempty"` // seconds of race time
	DNF           bool          `json:"dnf"`
}

// SuspiciousProgress records a rejected checkpoint report, kept for
// anti-cheat and telemetry review.
type SuspiciousProgress struct {
	Event  CheckpointEvent `json:"event"`
	Reason string          `json:"reason"`
}
