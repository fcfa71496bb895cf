package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Decode outcomes used as the "result" label
const (
	ResultDecoded = "decoded"
	ResultUnknown = "unknown"
	ResultError   = "error"
)

// DecoderMetrics collects decoding counters on its own registry
type DecoderMetrics struct {
	registry           *prometheus.Registry
	callsDecoded       *prometheus.CounterVec
	logsDecoded        *prometheus.CounterVec
	registeredSelector prometheus.Gauge
	abiCommands        *prometheus.CounterVec
}

// NewDecoderMetrics creates decoder metrics under the given namespace
func NewDecoderMetrics(namespace string) *DecoderMetrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &DecoderMetrics{
		registry: registry,
		callsDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "calls_decoded_total",
				Help:      "Total number of call payloads processed, by result",
			},
			[]string{"result"},
		),
		logsDecoded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "logs_decoded_total",
				Help:      "Total number of event logs processed, by result",
			},
			[]string{"result"},
		),
		registeredSelector: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "registered_selectors",
				Help:      "Number of selectors currently indexed",
			},
		),
		abiCommands: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "decoder",
				Name:      "abi_commands_total",
				Help:      "Total number of ABI add/remove commands applied, by action",
			},
			[]string{"action"},
		),
	}
}

// ObserveCall records the outcome of one call decode
func (m *DecoderMetrics) ObserveCall(result string) {
	m.callsDecoded.WithLabelValues(result).Inc()
}

// ObserveLog records the outcome of one log decode
func (m *DecoderMetrics) ObserveLog(result string) {
	m.logsDecoded.WithLabelValues(result).Inc()
}

// ObserveABICommand records an applied ABI command
func (m *DecoderMetrics) ObserveABICommand(action string) {
	m.abiCommands.WithLabelValues(action).Inc()
}

// SetRegisteredSelectors records the selector index size
func (m *DecoderMetrics) SetRegisteredSelectors(n int) {
	m.registeredSelector.Set(float64(n))
}

// CallsDecoded exposes the call counter for the given result
func (m *DecoderMetrics) CallsDecoded(result string) prometheus.Counter {
	return m.callsDecoded.WithLabelValues(result)
}

// LogsDecoded exposes the log counter for the given result
func (m *DecoderMetrics) LogsDecoded(result string) prometheus.Counter {
	return m.logsDecoded.WithLabelValues(result)
}

// RegisteredSelectors exposes the selector gauge
func (m *DecoderMetrics) RegisteredSelectors() prometheus.Gauge {
	return m.registeredSelector
}

// Handler serves the registry in the Prometheus exposition format
func (m *DecoderMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
