package gridsync

import (
	"sync/atomic"
	"time"
)

// Replica reconstructs a smooth, second-order-plausible approximation of one
// remotely-simulated entity's motion. Each replica exclusively owns its
// snapshot buffer; snapshots arrive via Receive and poses leave via SampleAt.
type Replica struct {
	id     ParticipantID
	mode   InterpolationMode
	logger Logger

	interpolationDelay float64
	maxExtrapolation   float64

	buffer  *SnapshotBuffer
	quality *NetworkQuality

	// read from the diagnostics endpoint off the receive goroutine
	stale uint32
}

func NewReplica(id ParticipantID, config ReplicationConfig, logger Logger) *Replica {
	mode, err := ParseInterpolationMode(config.InterpolationMode)

	if err != nil {
		logger.WithError(err).Warnf("Falling back to hermite interpolation for participant: %d", id)
		mode = ModeHermite
	}

	return &Replica{
		id:                 id,
		mode:               mode,
		logger:             logger,
		interpolationDelay: config.InterpolationDelay,
		maxExtrapolation:   config.MaxExtrapolation,
		buffer:             NewSnapshotBuffer(config.SnapshotBufferCapacity),
		quality:            NewNetworkQuality(),
	}
}

func (r *Replica) ID() ParticipantID {
	return r.id
}

func (r *Replica) Mode() InterpolationMode {
	return r.mode
}

// Receive validates and buffers an incoming snapshot. Stale and duplicate
// snapshots are dropped and counted; arrival is always recorded for the
// network-quality estimates.
func (r *Replica) Receive(s Snapshot) bool {
	r.quality.ObserveArrival(s.Sequence, time.Now())

	if !r.buffer.Insert(s) {
		r.logger.Debugf("Dropped stale snapshot (seq: %d, t: %.3f) for participant: %d", s.Sequence, s.Timestamp, r.id)
		metricSnapshotsDropped.WithLabelValues("stale").Inc()

		return false
	}

	atomic.StoreUint32(&r.stale, 0)

	return true
}

// SampleAt reconstructs the pose for the render time now−interpolationDelay.
// It reports false while no snapshots have been received: an uninitialised
// entity must not be rendered at a default pose.
func (r *Replica) SampleAt(now float64) (Pose, bool) {
	if r.buffer.Len() == 0 {
		return Pose{}, false
	}

	renderTime := now - r.interpolationDelay

	from, to, fraction, ok := r.buffer.Bracket(renderTime)

	if ok {
		return r.interpolate(from, to, fraction), true
	}

	// no newer snapshot exists; renderTime is past the newest entry.
	newest, _ := r.buffer.Newest()

	overrun := renderTime - newest.Timestamp

	if r.mode != ModePredictive {
		if overrun > r.maxExtrapolation {
			r.markStale()
		}

		return newest.Pose(), true
	}

	if overrun > r.maxExtrapolation {
		// hold at the cap rather than overshooting further.
		r.markStale()
		overrun = r.maxExtrapolation
	}

	return extrapolateSnapshot(newest, overrun), true
}

func (r *Replica) interpolate(from, to Snapshot, fraction float64) Pose {
	if from.Timestamp == to.Timestamp {
		return from.Pose()
	}

	switch r.mode {
	case ModeHermite:
		return hermiteSnapshots(from, to, float32(fraction))
	default:
		return lerpSnapshots(from, to, float32(fraction))
	}
}

func (r *Replica) markStale() {
	if atomic.CompareAndSwapUint32(&r.stale, 0, 1) {
		r.logger.Debugf("Participant: %d is stale, freezing at last extrapolated pose", r.id)
	}
}

// IsStale reports whether the replica has overrun its extrapolation window
// and should be rendered frozen/faded until a fresh snapshot arrives.
func (r *Replica) IsStale() bool {
	return atomic.LoadUint32(&r.stale) == 1
}

func (r *Replica) DroppedSnapshots() uint64 {
	return r.buffer.Dropped()
}

func (r *Replica) Quality() *NetworkQuality {
	return r.quality
}

func (r *Replica) QualityInfo() NetworkQualityInfo {
	return r.quality.Info()
}
