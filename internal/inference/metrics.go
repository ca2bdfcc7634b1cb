package inference

import (
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"askcmd/internal/events"
)

// Metrics turns lifecycle events into Prometheus series. It is an
// events.Publisher so it never sits on the token path.
type Metrics struct {
	tokens      prometheus.Counter
	diagnostics *prometheus.CounterVec
	generations *prometheus.CounterVec
	genDuration prometheus.Histogram
	loadSeconds prometheus.Histogram
	spawns      *prometheus.CounterVec
}

// NewMetrics creates the series and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		tokens: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "askcmd",
			Subsystem: "inference",
			Name:      "tokens_total",
			Help:      "Tokens streamed to the caller",
		}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askcmd",
			Subsystem: "inference",
			Name:      "diagnostic_events_total",
			Help:      "Engine diagnostic events by name",
		}, []string{"name"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askcmd",
			Subsystem: "inference",
			Name:      "generations_total",
			Help:      "Generations by terminal state",
		}, []string{"state"}),
		genDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "askcmd",
			Subsystem: "inference",
			Name:      "generation_duration_seconds",
			Help:      "Duration of the generation loop",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "askcmd",
			Subsystem: "engine",
			Name:      "model_load_duration_seconds",
			Help:      "Time to load the model and get a session",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		spawns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "askcmd",
			Subsystem: "engine",
			Name:      "server_events_total",
			Help:      "llama-server lifecycle events",
		}, []string{"event"}),
	}
	reg.MustRegister(m.tokens, m.diagnostics, m.generations, m.genDuration, m.loadSeconds, m.spawns)
	return m
}

// Publish updates the series matching e. A nil receiver ignores the event.
func (m *Metrics) Publish(e events.Event) {
	if m == nil {
		return
	}
	switch e.Name {
	case events.Diagnostic:
		name, _ := e.Fields["name"].(string)
		if name == "" {
			name = "unnamed"
		}
		m.diagnostics.WithLabelValues(name).Inc()
	case events.GenerationEnded:
		state, _ := e.Fields["state"].(string)
		m.generations.WithLabelValues(state).Inc()
		if n, ok := e.Fields["tokens"].(int); ok && n > 0 {
			m.tokens.Add(float64(n))
		}
		if s, ok := e.Fields["seconds"].(float64); ok {
			m.genDuration.Observe(s)
		}
	case events.ModelLoaded:
		if s, ok := e.Fields["seconds"].(float64); ok {
			m.loadSeconds.Observe(s)
		}
	case events.SpawnStart, events.SpawnReady, events.SpawnExit, events.SpawnStop:
		m.spawns.WithLabelValues(e.Name).Inc()
	}
}

// LogMetrics writes every gathered sample to log at debug level.
func LogMetrics(log zerolog.Logger, g prometheus.Gatherer) {
	if log.GetLevel() > zerolog.DebugLevel {
		return
	}
	mfs, err := g.Gather()
	if err != nil {
		log.Warn().Err(err).Msg("gather metrics")
		return
	}
	for _, mf := range mfs {
		for _, mt := range mf.GetMetric() {
			pairs := make([]string, 0, len(mt.GetLabel()))
			for _, lp := range mt.GetLabel() {
				pairs = append(pairs, lp.GetName()+"="+lp.GetValue())
			}
			sort.Strings(pairs)
			ev := log.Debug().Str("metric", mf.GetName()).Str("labels", strings.Join(pairs, ","))
			switch {
			case mt.GetCounter() != nil:
				ev = ev.Float64("value", mt.GetCounter().GetValue())
			case mt.GetGauge() != nil:
				ev = ev.Float64("value", mt.GetGauge().GetValue())
			case mt.GetHistogram() != nil:
				ev = ev.Uint64("count", mt.GetHistogram().GetSampleCount()).Float64("sum", mt.GetHistogram().GetSampleSum())
			}
			ev.Msg("metric")
		}
	}
}
