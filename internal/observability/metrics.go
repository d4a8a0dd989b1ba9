// Package observability exposes Prometheus metrics for a synthesis session.
package observability

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cienet/speakctl/tts"
)

const namespace = "speakctl"

// Metrics groups the instruments of one session on a dedicated registry.
type Metrics struct {
	Commands          *prometheus.CounterVec
	Events            *prometheus.CounterVec
	EngineErrors      *prometheus.CounterVec
	FirstAudioLatency prometheus.Histogram

	registry *prometheus.Registry

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the instruments and registers them on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Commands: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Session commands by name and outcome kind.",
		}, []string{"command", "kind"}),
		Events: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_total",
			Help:      "Engine callback events by type.",
		}, []string{"type"}),
		EngineErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "engine_errors_total",
			Help:      "Nonzero engine result codes by command and code.",
		}, []string{"command", "code"}),
		FirstAudioLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_audio_latency_ms",
			Help:      "Time from synthesis start to the first audio chunk in milliseconds.",
			Buckets:   []float64{50, 100, 200, 300, 500, 700, 900, 1200, 2000, 6000},
		}),
		registry: reg,
		started:  make(map[string]time.Time),
	}
}

// ObserveOutcome records a command outcome. Use it as the controller's
// outcome hook.
func (m *Metrics) ObserveOutcome(o tts.Outcome) {
	m.Commands.WithLabelValues(o.Command, o.Kind.String()).Inc()
	if o.Kind == tts.KindEngine {
		m.EngineErrors.WithLabelValues(o.Command, strconv.Itoa(o.Code)).Inc()
	}
}

// ObserveEvent records an engine event.
func (m *Metrics) ObserveEvent(ev tts.CallbackEvent) {
	m.Events.WithLabelValues(string(ev.Type)).Inc()

	m.mu.Lock()
	defer m.mu.Unlock()
	switch ev.Type {
	case tts.EventSynthesizeStart:
		m.started[ev.Utterance] = ev.At
	case tts.EventDataArrived:
		if start, ok := m.started[ev.Utterance]; ok {
			m.FirstAudioLatency.Observe(float64(ev.At.Sub(start).Milliseconds()))
			delete(m.started, ev.Utterance)
		}
	case tts.EventSynthesizeFinish, tts.EventError:
		delete(m.started, ev.Utterance)
	}
}

// Sink returns a sink that counts every event before passing it to next.
func (m *Metrics) Sink(next tts.Sink) tts.Sink {
	return tts.SinkFunc(func(ev tts.CallbackEvent) {
		m.ObserveEvent(ev)
		if next != nil {
			next.Deliver(ev)
		}
	})
}

// Registry returns the registry holding the instruments.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
