package gridsync

import (
	"math"
	"sync"
	"time"
)

const (
	numberOfPingsForAverage = 50
	numberOfArrivalSamples  = 32
	packetLossWindowSize    = 120
)

// NetworkQuality maintains running estimates of latency, jitter and packet
// loss for one connection. All estimates are read-only for consumers and are
// never used to gate gameplay.
type NetworkQuality struct {
	mutex sync.Mutex

	pingCache        []int64
	currentPingIndex int

	lastArrival   time.Time
	arrivalGaps   []float64
	currentGapIdx int
	gapCount      int

	lastSequence   uint32
	haveSequence   bool
	windowExpected uint64
	windowReceived uint64
	lossPercent    float64
}

// NetworkQualityInfo is a point-in-time copy of the running estimates,
// suitable for diagnostic HUDs.
type NetworkQualityInfo struct {
	LatencyMillis     float64 `json:"latency_ms"`
	JitterMillis      float64 `json:"jitter_ms"`
	PacketLossPercent float64 `json:"packet_loss_percent"`
}

func NewNetworkQuality() *NetworkQuality {
	return &NetworkQuality{
		pingCache:   make([]int64, numberOfPingsForAverage),
		arrivalGaps: make([]float64, numberOfArrivalSamples),
	}
}

// ObservePing records one round-trip sample in milliseconds.
func (q *NetworkQuality) ObservePing(rttMillis int64) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if q.currentPingIndex >= numberOfPingsForAverage {
		q.currentPingIndex = 0
	}

	q.pingCache[q.currentPingIndex] = rttMillis
	q.currentPingIndex++
}

// ObserveArrival records the arrival of a snapshot carrying the given
// sequence number, updating the jitter and loss estimates.
func (q *NetworkQuality) ObserveArrival(sequence uint32, at time.Time) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	if !q.lastArrival.IsZero() {
		gap := float64(at.Sub(q.lastArrival).Microseconds()) / 1000.0

		if q.currentGapIdx >= numberOfArrivalSamples {
			q.currentGapIdx = 0
		}

		q.arrivalGaps[q.currentGapIdx] = gap
		q.currentGapIdx++

		if q.gapCount < numberOfArrivalSamples {
			q.gapCount++
		}
	}

	q.lastArrival = at

	if !q.haveSequence {
		q.lastSequence = sequence
		q.haveSequence = true
		q.windowExpected = 1
		q.windowReceived = 1

		return
	}

	if sequence > q.lastSequence {
		q.windowExpected += uint64(sequence - q.lastSequence)
		q.lastSequence = sequence
	}

	// late arrivals still count as received; their gap was already counted
	// as expected when the newer sequence arrived.
	q.windowReceived++

	if q.windowExpected >= packetLossWindowSize {
		if q.windowReceived > q.windowExpected {
			q.windowReceived = q.windowExpected
		}

		q.lossPercent = 100 * float64(q.windowExpected-q.windowReceived) / float64(q.windowExpected)
		q.windowExpected = 0
		q.windowReceived = 0
	}
}

func (q *NetworkQuality) Info() NetworkQualityInfo {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	return NetworkQualityInfo{
		LatencyMillis:     q.averagePingLocked(),
		JitterMillis:      q.jitterLocked(),
		PacketLossPercent: q.lossPercentLocked(),
	}
}

func (q *NetworkQuality) averagePingLocked() float64 {
	pingSum := int64(0)
	numPings := int64(0)

	for _, ping := range q.pingCache {
		if ping > 0 {
			pingSum += ping
			numPings++
		}
	}

	if numPings <= 0 {
		return 0
	}

	return float64(pingSum) / float64(numPings)
}

// jitterLocked is the mean absolute deviation of inter-arrival spacing.
func (q *NetworkQuality) jitterLocked() float64 {
	if q.gapCount < 2 {
		return 0
	}

	mean := 0.0

	for i := 0; i < q.gapCount; i++ {
		mean += q.arrivalGaps[i]
	}

	mean /= float64(q.gapCount)

	deviation := 0.0

	for i := 0; i < q.gapCount; i++ {
		deviation += math.Abs(q.arrivalGaps[i] - mean)
	}

	return deviation / float64(q.gapCount)
}

func (q *NetworkQuality) lossPercentLocked() float64 {
	// blend the completed window with the partial one so short sessions
	// still report something useful.
	if q.windowExpected > 0 {
		received := q.windowReceived

		if received > q.windowExpected {
			received = q.windowExpected
		}

		partial := 100 * float64(q.windowExpected-received) / float64(q.windowExpected)

		if q.lossPercent == 0 {
			return partial
		}

		return (q.lossPercent + partial) / 2
	}

	return q.lossPercent
}
