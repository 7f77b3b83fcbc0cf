package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OrchestratorPassesTotal counts orchestration passes.
	OrchestratorPassesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seda_orchestrator_passes_total",
		Help: "Number of orchestrator scheduling passes.",
	})

	// OrchestratorErrorsTotal counts per-stage orchestration failures.
	OrchestratorErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seda_orchestrator_errors_total",
		Help: "Number of orchestrator errors by stage.",
	}, []string{"stage"})

	// TimersArmed tracks the number of currently armed one-shot timers.
	TimersArmed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seda_timers_armed",
		Help: "Currently armed playback timers.",
	})

	// PlaybacksStartedTotal counts playback starts handed to the player.
	PlaybacksStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seda_playbacks_started_total",
		Help: "Number of playlist playbacks started.",
	})

	// ReloadsTotal counts materializer reloads by scope (all/one).
	ReloadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seda_schedule_reloads_total",
		Help: "Number of schedule reloads by scope.",
	}, []string{"scope"})

	// MaterializeDuration observes full materialization latency.
	MaterializeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "seda_materialize_duration_seconds",
		Help:    "Time spent materializing the live item set.",
		Buckets: prometheus.DefBuckets,
	})

	// ItemsLive tracks the size of the live item set.
	ItemsLive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seda_items_live",
		Help: "Number of live runtime schedule items.",
	})

	// TriggersFiredTotal counts trigger assertions by source.
	TriggersFiredTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seda_triggers_fired_total",
		Help: "Number of trigger assertions by source.",
	}, []string{"source"})

	// APIRequestsTotal counts API requests.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seda_api_requests_total",
		Help: "Number of API requests.",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration observes API request latency.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "seda_api_request_duration_seconds",
		Help:    "API request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint", "status"})

	// APIActiveConnections tracks in-flight API requests.
	APIActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "seda_api_active_connections",
		Help: "In-flight API requests.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
