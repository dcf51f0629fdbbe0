// Package observability registers the Prometheus metrics exposed on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the audio service.
type Metrics struct {
	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsOpened  prometheus.Counter
	WebsocketErrors prometheus.Counter

	// Pipeline metrics
	ChunksProcessed prometheus.Counter
	ChunkDuration   prometheus.Histogram

	// Capture metrics
	RecordingsSaved  prometheus.Counter
	RecordingsPurged prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "acoustics_active_sessions",
			Help: "Current number of active audio sessions",
		}),
		SessionsOpened: factory.NewCounter(prometheus.CounterOpts{
			Name: "acoustics_sessions_opened_total",
			Help: "Total number of audio sessions accepted",
		}),
		WebsocketErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "acoustics_websocket_errors_total",
			Help: "Total number of websocket processing errors",
		}),
		ChunksProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "acoustics_chunks_processed_total",
			Help: "Total number of audio chunks run through the pipeline",
		}),
		ChunkDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "acoustics_chunk_processing_seconds",
			Help:    "Time spent processing a single audio chunk",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		RecordingsSaved: factory.NewCounter(prometheus.CounterOpts{
			Name: "acoustics_recordings_saved_total",
			Help: "Total number of recordings finalized and cataloged",
		}),
		RecordingsPurged: factory.NewCounter(prometheus.CounterOpts{
			Name: "acoustics_recordings_purged_total",
			Help: "Total number of recordings removed by session cleanup",
		}),
	}
}
