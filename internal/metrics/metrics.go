package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Poll loop metrics
var (
	// FetchTotal counts tally fetches by outcome (ok, status_error, parse_error, connection_error)
	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "results_fetch_total",
			Help: "Tally fetches against the votes API by outcome",
		},
		[]string{"outcome"},
	)

	// FetchDuration tracks tally fetch latency in seconds
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "results_fetch_duration_seconds",
			Help:    "Tally fetch duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	// ConsecutiveFetchFailures is reset to zero on every successful fetch
	ConsecutiveFetchFailures = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "results_fetch_consecutive_failures",
			Help: "Failed tally fetches since the last success",
		},
	)
)

// Fan-out metrics
var (
	// BroadcastsTotal counts published events by event name
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "results_broadcasts_total",
			Help: "Events published to viewers by event name",
		},
		[]string{"event"},
	)

	ViewersConnected = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "results_viewers_connected",
			Help: "Currently connected viewer sessions",
		},
	)

	// ViewersEvicted counts viewers disconnected because their send queue was full
	ViewersEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "results_viewers_evicted_total",
			Help: "Viewer sessions disconnected for falling behind",
		},
	)

	// ViewersRejected counts upgrades refused at the connection limit
	ViewersRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "results_viewers_rejected_total",
			Help: "Viewer connections rejected at the connection limit",
		},
	)

	// ViewerFramesDropped counts inbound frames discarded by the per-viewer rate limiter
	ViewerFramesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "results_viewer_frames_dropped_total",
			Help: "Inbound viewer frames dropped by rate limiting",
		},
	)
)
