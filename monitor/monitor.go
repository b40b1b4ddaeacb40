// monitor/monitor.go
package monitor

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	MessagesReceived     *prometheus.CounterVec
	MessagesSent         *prometheus.CounterVec
	SendsDropped         prometheus.Counter
	ReconnectAttempts    prometheus.Counter
	ConnectionState      prometheus.Gauge
	DispatchLatency      prometheus.Histogram
	ValidationRejections *prometheus.CounterVec
}

func NewMetrics(namespace string, registry prometheus.Registerer) *Metrics {
	m := &Metrics{
		MessagesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound server messages by type",
		}, []string{"type"}),
		MessagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Outbound actions by type",
		}, []string{"type"}),
		SendsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_dropped_total",
			Help:      "Outbound actions dropped because the connection was not open",
		}),
		ReconnectAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnect_attempts_total",
			Help:      "Scheduled reconnection attempts",
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connection_state",
			Help:      "0 disconnected, 1 connecting, 2 open",
		}),
		DispatchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_latency_seconds",
			Help:      "Time spent applying one inbound message",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 12),
		}),
		ValidationRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validation_rejections_total",
			Help:      "Local rejections of card selections by rule",
		}, []string{"rule"}),
	}

	registry.MustRegister(
		m.MessagesReceived,
		m.MessagesSent,
		m.SendsDropped,
		m.ReconnectAttempts,
		m.ConnectionState,
		m.DispatchLatency,
		m.ValidationRejections,
	)

	return m
}

type Monitor struct {
	metrics   *Metrics
	registry  *prometheus.Registry
	startTime time.Time
}

// NewMonitor registers its metrics on a private registry so several clients can coexist in one process.
func NewMonitor(namespace string) *Monitor {
	registry := prometheus.NewRegistry()
	return &Monitor{
		metrics:   NewMetrics(namespace, registry),
		registry:  registry,
		startTime: time.Now(),
	}
}

func (m *Monitor) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Monitor) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (m *Monitor) Uptime() time.Duration {
	return time.Since(m.startTime)
}

func (m *Monitor) IncMessagesReceived(msgType string) {
	m.metrics.MessagesReceived.WithLabelValues(msgType).Inc()
}

func (m *Monitor) IncMessagesSent(msgType string) {
	m.metrics.MessagesSent.WithLabelValues(msgType).Inc()
}

func (m *Monitor) IncSendsDropped() {
	m.metrics.SendsDropped.Inc()
}

func (m *Monitor) IncReconnectAttempts() {
	m.metrics.ReconnectAttempts.Inc()
}

func (m *Monitor) SetConnectionState(state int) {
	m.metrics.ConnectionState.Set(float64(state))
}

func (m *Monitor) ObserveDispatchLatency(duration time.Duration) {
	m.metrics.DispatchLatency.Observe(duration.Seconds())
}

func (m *Monitor) IncValidationRejections(rule string) {
	m.metrics.ValidationRejections.WithLabelValues(rule).Inc()
}
