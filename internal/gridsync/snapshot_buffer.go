package gridsync

import "sync/atomic"

// SnapshotBuffer is a fixed-capacity ring of the most recent snapshots for
// one remote entity, ordered by timestamp. Inserting a snapshot whose
// timestamp is not strictly newer than the newest buffered entry is a
// stale-packet drop. The drop counter is read from the diagnostics endpoint
// off the receive goroutine, so it is kept atomic.
type SnapshotBuffer struct {
	snapshots []Snapshot
	head      int // index of the next write
	size      int

	dropped uint64
}

const DefaultSnapshotBufferCapacity = 64

func NewSnapshotBuffer(capacity int) *SnapshotBuffer {
	if capacity <= 0 {
		capacity = DefaultSnapshotBufferCapacity
	}

	return &SnapshotBuffer{
		snapshots: make([]Snapshot, capacity),
	}
}

// Insert appends a snapshot, evicting the oldest entry if at capacity.
// It reports false for out-of-order or duplicate timestamps.
func (b *SnapshotBuffer) Insert(s Snapshot) bool {
	if newest, ok := b.Newest(); ok && s.Timestamp <= newest.Timestamp {
		atomic.AddUint64(&b.dropped, 1)
		return false
	}

	b.snapshots[b.head] = s
	b.head = (b.head + 1) % len(b.snapshots)

	if b.size < len(b.snapshots) {
		b.size++
	}

	return true
}

func (b *SnapshotBuffer) Len() int {
	return b.size
}

// Dropped reports how many stale or duplicate snapshots have been rejected.
func (b *SnapshotBuffer) Dropped() uint64 {
	return atomic.LoadUint64(&b.dropped)
}

// At returns the i-th buffered snapshot, oldest first.
func (b *SnapshotBuffer) At(i int) Snapshot {
	oldest := (b.head - b.size + len(b.snapshots)) % len(b.snapshots)

	return b.snapshots[(oldest+i)%len(b.snapshots)]
}

func (b *SnapshotBuffer) Oldest() (Snapshot, bool) {
	if b.size == 0 {
		return Snapshot{}, false
	}

	return b.At(0), true
}

func (b *SnapshotBuffer) Newest() (Snapshot, bool) {
	if b.size == 0 {
		return Snapshot{}, false
	}

	return b.At(b.size - 1), true
}

// Bracket finds the two buffered snapshots surrounding time t and the
// interpolation fraction between them. It reports false if t is newer than
// the newest buffered entry or the buffer is empty; times older than the
// oldest entry clamp to it.
func (b *SnapshotBuffer) Bracket(t float64) (from, to Snapshot, fraction float64, ok bool) {
	if b.size == 0 {
		return Snapshot{}, Snapshot{}, 0, false
	}

	oldest := b.At(0)

	if t <= oldest.Timestamp {
		return oldest, oldest, 0, true
	}

	newest := b.At(b.size - 1)

	if t > newest.Timestamp {
		return Snapshot{}, Snapshot{}, 0, false
	}

	for i := b.size - 1; i > 0; i-- {
		hi := b.At(i)
		lo := b.At(i - 1)

		if t > lo.Timestamp && t <= hi.Timestamp {
			fraction = (t - lo.Timestamp) / (hi.Timestamp - lo.Timestamp)

			return lo, hi, fraction, true
		}
	}

	return oldest, oldest, 0, true
}
