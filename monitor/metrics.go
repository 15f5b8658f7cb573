package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PendingRecordsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "bridge",
		Subsystem: "monitor",
		Name:      "pending_records",
	}, []string{"bridge_id"})
	StatusRegressionsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bridge",
		Subsystem: "monitor",
		Name:      "status_regressions_total",
	}, []string{"bridge_id"})
	PollDurationHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bridge",
		Subsystem: "monitor",
		Name:      "poll_duration_seconds",
		Buckets:   []float64{0.1, 0.2, 0.5, 1, 2, 5, 10, 30},
	}, []string{"bridge_id"})
)
