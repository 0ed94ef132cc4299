// Package metrics exposes Prometheus instrumentation for the live session
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the wardrobe guide.
type Metrics struct {
	// Outbound media metrics
	AudioBlocksSent    prometheus.Counter
	AudioBlocksDropped prometheus.Counter
	FramesSent         prometheus.Counter

	// Playback metrics
	ChunksScheduled    prometheus.Counter
	PlaybackInterrupts prometheus.Counter

	// Conversation metrics
	TurnsCommitted prometheus.Counter
	SessionErrors  prometheus.Counter
	SessionActive  prometheus.Gauge
}

// New creates and registers all Prometheus metrics on the default registry.
// Call it at most once per process.
func New() *Metrics {
	return &Metrics{
		AudioBlocksSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_audio_blocks_sent_total",
			Help: "Total number of microphone audio blocks sent to the model",
		}),
		AudioBlocksDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_audio_blocks_dropped_total",
			Help: "Total number of microphone audio blocks dropped outside an open session",
		}),
		FramesSent: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_video_frames_sent_total",
			Help: "Total number of camera frames sent to the model",
		}),
		ChunksScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_playback_chunks_scheduled_total",
			Help: "Total number of model audio chunks queued for playback",
		}),
		PlaybackInterrupts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_playback_interrupts_total",
			Help: "Total number of barge-in interruptions that flushed playback",
		}),
		TurnsCommitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_turns_committed_total",
			Help: "Total number of conversation turns committed to the transcript",
		}),
		SessionErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "wardrobe_session_errors_total",
			Help: "Total number of sessions ended by an error",
		}),
		SessionActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "wardrobe_session_active",
			Help: "Whether a live session is currently open (0 or 1)",
		}),
	}
}
