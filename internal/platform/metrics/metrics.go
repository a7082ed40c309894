package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the broadcast orchestrator.
type Metrics struct {
	registry           *prometheus.Registry
	requestsTotal      prometheus.Counter
	errorsTotal        prometheus.Counter
	attachTotal        prometheus.Counter
	detachTotal        prometheus.Counter
	sessionState       *prometheus.GaugeVec
	eventsTotal        *prometheus.CounterVec
	sessionErrorsTotal *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	eventClients       prometheus.Gauge
}

// New creates and registers Prometheus metrics for the orchestrator.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	errorsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_http_errors_total",
		Help: "Total number of HTTP responses with error status (4xx or 5xx)",
	})
	attachTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_attach_total",
		Help: "Total number of attachment cycles that created a session",
	})
	detachTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "broadcast_detach_total",
		Help: "Total number of attachment cycles torn down",
	})
	sessionState := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "broadcast_session_state",
		Help: "1 for the current session lifecycle state, 0 otherwise",
	}, []string{"state"})
	eventsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_events_total",
		Help: "Total number of events emitted to the host, by kind",
	}, []string{"kind"})
	sessionErrorsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_errors_total",
		Help: "Total number of errors reported to the host, by class",
	}, []string{"class"})
	notificationsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_notifications_total",
		Help: "Total number of OS notifications mapped to events, by event kind",
	}, []string{"kind"})
	eventClients := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "broadcast_event_clients",
		Help: "Number of connected event stream clients",
	})

	registry.MustRegister(
		requestsTotal,
		errorsTotal,
		attachTotal,
		detachTotal,
		sessionState,
		eventsTotal,
		sessionErrorsTotal,
		notificationsTotal,
		eventClients,
	)

	return &Metrics{
		registry:           registry,
		requestsTotal:      requestsTotal,
		errorsTotal:        errorsTotal,
		attachTotal:        attachTotal,
		detachTotal:        detachTotal,
		sessionState:       sessionState,
		eventsTotal:        eventsTotal,
		sessionErrorsTotal: sessionErrorsTotal,
		notificationsTotal: notificationsTotal,
		eventClients:       eventClients,
	}
}

// IncRequests increments the total request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncErrors increments the HTTP errors counter.
func (m *Metrics) IncErrors() {
	m.errorsTotal.Inc()
}

// IncAttach increments the attach counter.
func (m *Metrics) IncAttach() {
	m.attachTotal.Inc()
}

// IncDetach increments the detach counter.
func (m *Metrics) IncDetach() {
	m.detachTotal.Inc()
}

// SetState moves the session state gauge from one state to another.
func (m *Metrics) SetState(from, to string) {
	m.sessionState.WithLabelValues(from).Set(0)
	m.sessionState.WithLabelValues(to).Set(1)
}

// IncEvent counts an emitted event.
func (m *Metrics) IncEvent(kind string) {
	m.eventsTotal.WithLabelValues(kind).Inc()
}

// IncSessionError counts an error reported to the host.
func (m *Metrics) IncSessionError(class string) {
	m.sessionErrorsTotal.WithLabelValues(class).Inc()
}

// IncNotification counts a mapped OS notification.
func (m *Metrics) IncNotification(kind string) {
	m.notificationsTotal.WithLabelValues(kind).Inc()
}

// SetEventClients sets the connected event stream clients gauge.
func (m *Metrics) SetEventClients(n int) {
	m.eventClients.Set(float64(n))
}

// Handler returns an http.Handler that serves Prometheus metrics.
// updateGauges is called before each scrape to refresh gauge values (e.g. event clients).
func (m *Metrics) Handler(updateGauges func()) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if updateGauges != nil {
			updateGauges()
		}
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
	})
}
