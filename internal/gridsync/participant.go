package gridsync

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
)

type ParticipantID uint8

const ServerID ParticipantID = 0xFF

type Connection struct {
	udpAddr net.Addr

	LastPingTime time.Time
}

func (c *Connection) Close() {
	c.udpAddr = nil
}

// Participant is one connected player or AI racer. The record is owned
// exclusively by the RaceAuthority; only the server mutates it, in response
// to checkpoint-crossing events and clock ticks.
type Participant struct {
	ID   ParticipantID `json:"id"`
	GUID uuid.UUID     `json:"guid"`
	Name string        `json:"name"`
	IsAI bool          `json:"is_ai"`

	Ready bool `json:"-"`

	CurrentLap       int     `json:"current_lap"`
	LastCheckpoint   int     `json:"last_checkpoint"`    // -1 before the first crossing of a lap
	LastCheckpointAt float64 `json:"last_checkpoint_at"` // seconds since session epoch
	InLapDistance    float64 `json:"in_lap_distance"`    // metres along track this lap
	TotalDistance    float64 `json:"total_distance"`     // metres, the canonical ranking key

	LapCount    int           `json:"lap_count"`
	BestLapTime time.Duration `json:"best_lap_time"`
	LastLapTime time.Duration `json:"last_lap_time"`

	Finished   bool          `json:"finished"`
	FinishTime time.Duration `json:"finish_time"`
	DNF        bool          `json:"dnf"`

	Connection Connection `json:"-"`

	currentLapStart float64
	lastActivityAt  float64 // seconds since session epoch

	mutex sync.RWMutex
}

func (p *Participant) String() string {
	return fmt.Sprintf("ID: %d, Name: %s, GUID: %s", p.ID, p.Name, p.GUID)
}

func (p *Participant) IsConnected() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.IsAI || p.Connection.udpAddr != nil
}

func (p *Participant) AssociateUDPAddress(addr net.Addr) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.Connection.udpAddr = addr
}

func (p *Participant) UDPAddress() net.Addr {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.Connection.udpAddr
}

func (p *Participant) MarkActive(at float64) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.lastActivityAt = at
}

func (p *Participant) LastActivityAt() float64 {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.lastActivityAt
}

func (p *Participant) SetReady(ready bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.Ready = ready
}

func (p *Participant) IsReady() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return p.Ready
}

func (p *Participant) CloseConnection() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.Connection.Close()
}

// IsActive reports whether the participant still competes for ranking.
func (p *Participant) IsActive() bool {
	return !p.DNF
}

// EntryList is a dense arena of participants addressed by ParticipantID.
// IDs are assigned contiguously at join time; lookups are bounds-checked
// rather than dereferenced through live object pointers.
type EntryList []*Participant

func (e EntryList) GetByID(id ParticipantID) (*Participant, error) {
	if int(id) >= len(e) {
		return nil, ErrParticipantNotFound
	}

	return e[id], nil
}

func (e EntryList) GetByGUID(guid uuid.UUID) *Participant {
	for _, participant := range e {
		if participant.GUID == guid {
			return participant
		}
	}

	return nil
}

func (e EntryList) GetByUDPAddress(addr net.Addr) *Participant {
	for _, participant := range e {
		participantAddr := participant.UDPAddress()

		if participantAddr != nil && participantAddr.String() == addr.String() {
			return participant
		}
	}

	return nil
}

func (e EntryList) NumConnected() int {
	connected := 0

	for _, participant := range e {
		if participant.IsConnected() {
			connected++
		}
	}

	return connected
}

func (e EntryList) AllReady() bool {
	if len(e) == 0 {
		return false
	}

	for _, participant := range e {
		if !participant.IsAI && !participant.IsReady() {
			return false
		}
	}

	return true
}

// AllSettled reports whether every participant has either finished or is DNF.
func (e EntryList) AllSettled() bool {
	for _, participant := range e {
		if !participant.Finished && !participant.DNF {
			return false
		}
	}

	return len(e) > 0
}
