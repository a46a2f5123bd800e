package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betmc_sessions_total",
		Help: "Total number of generation sessions, by outcome",
	}, []string{"outcome"})

	SessionFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betmc_session_failures_total",
		Help: "Total number of failed sessions, by error kind",
	}, []string{"kind"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "betmc_stage_duration_seconds",
		Help:    "Duration of each pipeline stage",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betmc_frames_extracted_total",
		Help: "Total number of frames extracted across all sessions",
	})

	SourceDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "betmc_source_duration_seconds",
		Help:    "Duration of source videos as probed before extraction",
		Buckets: []float64{1, 5, 10, 15, 30, 60, 120, 300},
	})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "betmc_active_sessions",
		Help: "Number of sessions currently running the pipeline",
	})

	QueuedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "betmc_queued_sessions",
		Help: "Number of sessions waiting for an admission slot",
	})

	ToolInvocationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betmc_tool_invocations_total",
		Help: "External tool invocations, by tool and result",
	}, []string{"tool", "result"})

	ToolDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "betmc_tool_duration_seconds",
		Help:    "Wall time of external tool invocations",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
	}, []string{"tool"})

	ProgressEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betmc_progress_events_total",
		Help: "Progress bus events, by type",
	}, []string{"type"})

	ProgressDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "betmc_progress_dropped_total",
		Help: "Progress events dropped because a subscriber queue was full",
	})

	CleanupRemovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "betmc_cleanup_removed_total",
		Help: "Expired files and directories removed by the retention sweep",
	}, []string{"dir"})
)
