package metrics

import (
	"net/http"

	"github.com/Marketen/epoch-clock/internal/application/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "epochclock"

// Metrics owns a private registry so tests and multiple servers never collide.
type Metrics struct {
	registry *prometheus.Registry

	currentEpoch     *prometheus.GaugeVec
	transitions      *prometheus.CounterVec
	scheduleLookups  *prometheus.CounterVec
	wsSubscribers    prometheus.Gauge
	requestsByStatus *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		currentEpoch: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "current_epoch_id",
			Help:      "Latest epoch id observed by the watcher.",
		}, []string{"kind", "network"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "epoch_transitions_total",
			Help:      "Epoch transitions observed by the watcher.",
		}, []string{"kind", "network"}),
		scheduleLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_lookups_total",
			Help:      "Schedule lookups by where they were answered from.",
		}, []string{"kind", "network", "origin"}),
		wsSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_subscribers",
			Help:      "Open epoch stream subscriptions.",
		}),
		requestsByStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.currentEpoch,
		m.transitions,
		m.scheduleLookups,
		m.wsSubscribers,
		m.requestsByStatus,
	)
	return m
}

// Publish implements ports.EpochPublisher.
func (m *Metrics) Publish(event domain.EpochEvent) {
	labels := prometheus.Labels{"kind": string(event.Key.Kind), "network": string(event.Key.Network)}
	m.currentEpoch.With(labels).Set(float64(event.Current.ID))
	m.transitions.With(labels).Inc()
}

// ObserveEpoch sets the current epoch gauge without counting a transition.
func (m *Metrics) ObserveEpoch(key domain.ScheduleKey, id domain.EpochID) {
	m.currentEpoch.WithLabelValues(string(key.Kind), string(key.Network)).Set(float64(id))
}

// RecordLookup implements ports.LookupRecorder.
func (m *Metrics) RecordLookup(key domain.ScheduleKey, origin string) {
	m.scheduleLookups.WithLabelValues(string(key.Kind), string(key.Network), origin).Inc()
}

func (m *Metrics) SubscriberAdded()   { m.wsSubscribers.Inc() }
func (m *Metrics) SubscriberRemoved() { m.wsSubscribers.Dec() }

func (m *Metrics) RecordRequest(method, route, code string) {
	m.requestsByStatus.WithLabelValues(method, route, code).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
