package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "agendabot"

// Metrics exposes counters and histograms for the conversation pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	webhookMessages *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	handlerDuration *prometheus.HistogramVec
	handlerErrors   *prometheus.CounterVec
	bookings        *prometheus.CounterVec
	lockAcquire     *prometheus.CounterVec
	kafkaPublished  *prometheus.CounterVec
	kafkaConsumed   *prometheus.CounterVec
	kafkaDuration   *prometheus.HistogramVec
	deliveries      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. A nil reg uses the default registry.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		webhookMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "webhook",
			Name:      "messages_total",
			Help:      "Inbound channel messages by processing result",
		}, []string{"result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "transitions_total",
			Help:      "Conversation state transitions",
		}, []string{"from", "to"}),
		handlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "handler_duration_seconds",
			Help:      "Latency of state handler execution",
			Buckets:   prometheus.DefBuckets,
		}, []string{"state"}),
		handlerErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "conversation",
			Name:      "handler_errors_total",
			Help:      "State handler failures recovered by the orchestrator",
		}, []string{"state"}),
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		lockAcquire: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduling",
			Name:      "slot_lock_acquire_total",
			Help:      "Slot lock acquisition attempts",
		}, []string{"backend", "acquired"}),
		kafkaPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "published_total",
			Help:      "Kafka publish attempts",
		}, []string{"topic", "status"}),
		kafkaConsumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "consumed_total",
			Help:      "Kafka messages handled",
		}, []string{"topic", "status"}),
		kafkaDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "operation_duration_seconds",
			Help:      "Latency of Kafka publish and consume handlers",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "delivery",
			Name:      "messages_total",
			Help:      "Outbound channel messages by kind and status",
		}, []string{"kind", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.webhookMessages,
		m.transitions,
		m.handlerDuration,
		m.handlerErrors,
		m.bookings,
		m.lockAcquire,
		m.kafkaPublished,
		m.kafkaConsumed,
		m.kafkaDuration,
		m.deliveries,
	)
	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveWebhook(result string) {
	if m == nil {
		return
	}
	m.webhookMessages.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveHandler(state string, seconds float64, failed bool) {
	if m == nil {
		return
	}
	m.handlerDuration.WithLabelValues(state).Observe(seconds)
	if failed {
		m.handlerErrors.WithLabelValues(state).Inc()
	}
}

func (m *Metrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveLock(backend string, acquired bool) {
	if m == nil {
		return
	}
	m.lockAcquire.WithLabelValues(backend, boolLabel(acquired)).Inc()
}

func (m *Metrics) ObservePublish(topic string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.kafkaPublished.WithLabelValues(topic, statusLabel(err)).Inc()
	m.kafkaDuration.WithLabelValues("publish").Observe(seconds)
}

func (m *Metrics) ObserveConsume(topic string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.kafkaConsumed.WithLabelValues(topic, statusLabel(err)).Inc()
	m.kafkaDuration.WithLabelValues("consume").Observe(seconds)
}

func (m *Metrics) ObserveDelivery(kind string, err error) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(kind, statusLabel(err)).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
