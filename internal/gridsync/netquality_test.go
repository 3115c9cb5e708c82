package gridsync

import (
	"math"
	"testing"
	"time"
)

func TestNetworkQualityLatencyAverage(t *testing.T) {
	quality := NewNetworkQuality()

	if info := quality.Info(); info.LatencyMillis != 0 {
		t.Errorf("expected zero latency before any ping, got: %f", info.LatencyMillis)
	}

	for _, rtt := range []int64{40, 50, 60} {
		quality.ObservePing(rtt)
	}

	if info := quality.Info(); math.Abs(info.LatencyMillis-50) > 1e-9 {
		t.Errorf("expected smoothed latency 50ms, got: %f", info.LatencyMillis)
	}
}

func TestNetworkQualityLatencyRollsOver(t *testing.T) {
	quality := NewNetworkQuality()

	// fill the cache twice over; only the most recent window may count
	for i := 0; i < numberOfPingsForAverage; i++ {
		quality.ObservePing(100)
	}

	for i := 0; i < numberOfPingsForAverage; i++ {
		quality.ObservePing(20)
	}

	if info := quality.Info(); math.Abs(info.LatencyMillis-20) > 1e-9 {
		t.Errorf("expected latency 20ms after rollover, got: %f", info.LatencyMillis)
	}
}

func TestNetworkQualityJitter(t *testing.T) {
	quality := NewNetworkQuality()

	base := time.Now()

	// perfectly regular arrivals: zero jitter
	for i := 0; i < 10; i++ {
		quality.ObserveArrival(uint32(i+1), base.Add(time.Duration(i)*33*time.Millisecond))
	}

	if info := quality.Info(); info.JitterMillis > 1e-9 {
		t.Errorf("expected zero jitter for regular arrivals, got: %f", info.JitterMillis)
	}

	// alternating 20ms/40ms spacing: mean 30ms, mean absolute deviation 10ms
	jittery := NewNetworkQuality()
	at := base

	for i := 0; i < 10; i++ {
		if i%2 == 0 {
			at = at.Add(20 * time.Millisecond)
		} else {
			at = at.Add(40 * time.Millisecond)
		}

		jittery.ObserveArrival(uint32(i+1), at)
	}

	info := jittery.Info()

	if math.Abs(info.JitterMillis-10) > 1.5 {
		t.Errorf("expected jitter near 10ms, got: %f", info.JitterMillis)
	}
}

func TestNetworkQualityPacketLoss(t *testing.T) {
	quality := NewNetworkQuality()

	at := time.Now()

	// every second sequence number is missing: 50% loss
	sequence := uint32(0)

	for i := 0; i < packetLossWindowSize; i++ {
		sequence += 2
		at = at.Add(33 * time.Millisecond)

		quality.ObserveArrival(sequence, at)
	}

	info := quality.Info()

	if math.Abs(info.PacketLossPercent-50) > 5 {
		t.Errorf("expected packet loss near 50%%, got: %f", info.PacketLossPercent)
	}
}

func TestNetworkQualityNoLossForContiguousSequences(t *testing.T) {
	quality := NewNetworkQuality()

	at := time.Now()

	for i := 1; i <= packetLossWindowSize+10; i++ {
		at = at.Add(33 * time.Millisecond)

		quality.ObserveArrival(uint32(i), at)
	}

	if info := quality.Info(); info.PacketLossPercent != 0 {
		t.Errorf("expected zero packet loss, got: %f", info.PacketLossPercent)
	}
}
