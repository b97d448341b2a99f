// Package metrics exports turn-loop counters and stage latencies to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voicechat/internal/domain"
)

type Metrics struct {
	registry *prometheus.Registry

	TurnsTotal       *prometheus.CounterVec
	StageFailures    *prometheus.CounterVec
	EmptyTranscripts prometheus.Counter
	StageDurations   *prometheus.HistogramVec
}

// New registers all collectors on a private registry, plus the Go runtime
// and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		TurnsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicechat_turns_total",
			Help: "Turns appended to the conversation log",
		}, []string{"speaker"}),
		StageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "voicechat_stage_failures_total",
			Help: "Failed turn-cycle stages",
		}, []string{"stage"}),
		EmptyTranscripts: factory.NewCounter(prometheus.CounterOpts{
			Name: "voicechat_empty_transcripts_total",
			Help: "Cycles that produced no speech",
		}),
		StageDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voicechat_stage_duration_seconds",
			Help:    "Time spent in each turn-cycle stage",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms to ~25s
		}, []string{"stage"}),
	}
}

func (m *Metrics) TurnAppended(speaker domain.Speaker) {
	m.TurnsTotal.WithLabelValues(string(speaker)).Inc()
}

func (m *Metrics) StageFailed(stage domain.Stage) {
	m.StageFailures.WithLabelValues(string(stage)).Inc()
}

func (m *Metrics) EmptyTranscript() {
	m.EmptyTranscripts.Inc()
}

func (m *Metrics) StageDuration(stage domain.Stage, d time.Duration) {
	m.StageDurations.WithLabelValues(string(stage)).Observe(d.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
