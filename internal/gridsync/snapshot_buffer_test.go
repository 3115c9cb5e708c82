package gridsync

import (
	"testing"
)

func snapshotAt(sequence uint32, timestamp float64) Snapshot {
	return Snapshot{
		Sequence:  sequence,
		Timestamp: timestamp,
		Position:  Vector3F{X: float32(timestamp) * 10},
	}
}

func TestSnapshotBufferInsertRejectsStale(t *testing.T) {
	buffer := NewSnapshotBuffer(8)

	if !buffer.Insert(snapshotAt(1, 1.0)) {
		t.Error("expected first insert to be accepted")
	}

	if !buffer.Insert(snapshotAt(2, 1.1)) {
		t.Error("expected newer insert to be accepted")
	}

	if buffer.Insert(snapshotAt(3, 1.05)) {
		t.Error("expected out-of-order insert to be rejected")
	}

	if buffer.Insert(snapshotAt(4, 1.1)) {
		t.Error("expected duplicate-timestamp insert to be rejected")
	}

	if buffer.Len() != 2 {
		t.Errorf("expected buffer length 2, got: %d", buffer.Len())
	}

	if buffer.Dropped() != 2 {
		t.Errorf("expected 2 dropped snapshots, got: %d", buffer.Dropped())
	}
}

func TestSnapshotBufferEvictsOldest(t *testing.T) {
	buffer := NewSnapshotBuffer(4)

	for i := 1; i <= 6; i++ {
		buffer.Insert(snapshotAt(uint32(i), float64(i)))
	}

	if buffer.Len() != 4 {
		t.Fatalf("expected buffer length 4, got: %d", buffer.Len())
	}

	oldest, _ := buffer.Oldest()
	newest, _ := buffer.Newest()

	if oldest.Sequence != 3 {
		t.Errorf("expected oldest sequence 3, got: %d", oldest.Sequence)
	}

	if newest.Sequence != 6 {
		t.Errorf("expected newest sequence 6, got: %d", newest.Sequence)
	}

	for i := 0; i < buffer.Len()-1; i++ {
		if buffer.At(i).Timestamp >= buffer.At(i+1).Timestamp {
			t.Errorf("buffer not ordered at index %d", i)
		}
	}
}

type bracketTest struct {
	name         string
	t            float64
	wantOK       bool
	wantFrom     uint32
	wantTo       uint32
	wantFraction float64
}

func TestSnapshotBufferBracket(t *testing.T) {
	buffer := NewSnapshotBuffer(8)
	buffer.Insert(snapshotAt(1, 1.0))
	buffer.Insert(snapshotAt(2, 1.1))
	buffer.Insert(snapshotAt(3, 1.2))

	bracketTests := []bracketTest{
		{name: "between entries", t: 1.15, wantOK: true, wantFrom: 2, wantTo: 3, wantFraction: 0.5},
		{name: "exactly on entry", t: 1.1, wantOK: true, wantFrom: 1, wantTo: 2, wantFraction: 1.0},
		{name: "older than oldest clamps", t: 0.5, wantOK: true, wantFrom: 1, wantTo: 1, wantFraction: 0},
		{name: "newer than newest overruns", t: 1.3, wantOK: false},
	}

	for _, test := range bracketTests {
		t.Run(test.name, func(t *testing.T) {
			from, to, fraction, ok := buffer.Bracket(test.t)

			if ok != test.wantOK {
				t.Fatalf("expected ok: %v, got: %v", test.wantOK, ok)
			}

			if !ok {
				return
			}

			if from.Sequence != test.wantFrom || to.Sequence != test.wantTo {
				t.Errorf("expected bracket %d..%d, got: %d..%d", test.wantFrom, test.wantTo, from.Sequence, to.Sequence)
			}

			if diff := fraction - test.wantFraction; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("expected fraction: %f, got: %f", test.wantFraction, fraction)
			}
		})
	}
}

func TestSnapshotBufferEmpty(t *testing.T) {
	buffer := NewSnapshotBuffer(8)

	if _, _, _, ok := buffer.Bracket(1.0); ok {
		t.Error("expected bracket on empty buffer to report not ok")
	}

	if _, ok := buffer.Newest(); ok {
		t.Error("expected no newest snapshot on empty buffer")
	}

	if _, ok := buffer.Oldest(); ok {
		t.Error("expected no oldest snapshot on empty buffer")
	}
}
