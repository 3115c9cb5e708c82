package gridsync

import (
	"net"
	"testing"

	"github.com/google/uuid"
)

type recordingWriter struct {
	packets [][]byte
}

func (w *recordingWriter) WriteTo(b []byte, addr net.Addr) (int, error) {
	buf := make([]byte, len(b))
	copy(buf, b)
	w.packets = append(w.packets, buf)

	return len(b), nil
}

func (w *recordingWriter) countByType(messageType MessageType) int {
	count := 0

	for _, packet := range w.packets {
		if len(packet) > 0 && MessageType(packet[0]) == messageType {
			count++
		}
	}

	return count
}

func TestRankingBroadcastsOncePerTick(t *testing.T) {
	config := &Config{Race: testRaceConfig()}
	config.ApplyDefaults()

	authority := NewRaceAuthority(config.Race, testLogger())
	state := NewServerState(config, authority, nilPlugin{}, testLogger())

	writer := &recordingWriter{}
	state.udp = writer

	participant, err := authority.Join("A", uuid.New(), false)

	if err != nil {
		t.Fatalf("could not join: %v", err)
	}

	participant.AssociateUDPAddress(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9600})

	server := &Server{
		config:    config,
		state:     state,
		authority: authority,
		plugin:    nilPlugin{},
		logger:    testLogger(),
		live:      NewLiveHub(testLogger()),
	}

	// an overtake always moves at least two ranks in the same tick
	server.handleEvents([]Event{
		{Type: EventRankChanged, Data: RankChange{ParticipantID: 0, Name: "A", OldRank: 2, NewRank: 1}},
		{Type: EventRankChanged, Data: RankChange{ParticipantID: 1, Name: "B", OldRank: 1, NewRank: 2}},
		{Type: EventRankChanged, Data: RankChange{ParticipantID: 2, Name: "C", OldRank: 0, NewRank: 3}},
	})

	if got := writer.countByType(UDPMessageRanking); got != 1 {
		t.Errorf("expected exactly one ranking broadcast for the tick, got: %d", got)
	}

	server.handleEvents(nil)

	if got := writer.countByType(UDPMessageRanking); got != 1 {
		t.Errorf("expected no ranking broadcast on a quiet tick, got: %d", got)
	}
}
