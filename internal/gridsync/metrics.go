package gridsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricSnapshotsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridsync_snapshots_received_total",
		Help: "Snapshots accepted into replica buffers.",
	})

	metricSnapshotsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridsync_snapshots_dropped_total",
		Help: "Snapshots rejected before buffering.",
	}, []string{"reason"})

	metricCorrections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gridsync_reconciliation_corrections_total",
		Help: "Reconciliation corrections applied to owned entities.",
	}, []string{"kind"})

	metricSuspiciousProgress = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gridsync_suspicious_progress_total",
		Help: "Checkpoint reports rejected for violating monotonic progress.",
	})

	metricLatency = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridsync_participant_latency_ms",
		Help: "Smoothed round-trip latency per participant.",
	}, []string{"participant"})

	metricPacketLoss = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gridsync_participant_packet_loss_percent",
		Help: "Packet loss percentage per participant over a rolling window.",
	}, []string{"participant"})
)
