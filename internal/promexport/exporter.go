// Package promexport exposes live run metrics in the Prometheus text format.
package promexport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nai-labs/nai/internal/metrics"
)

const namespace = "nai"

// Exporter is a metrics.Recorder that mirrors every outcome into Prometheus
// collectors before passing it on.
type Exporter struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	transport *prometheus.CounterVec
	latency   prometheus.Histogram
	workers   prometheus.Gauge
	next      metrics.Recorder

	server   *http.Server
	listener net.Listener
	logger   *zap.Logger
}

var _ metrics.Recorder = (*Exporter)(nil)

// New creates an exporter with its own registry that forwards to next.
func New(next metrics.Recorder, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests completed, by outcome and status code.",
		}, []string{"outcome", "code"}),
		transport: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transport_errors_total",
			Help:      "Requests that received no response, by error kind.",
		}, []string{"kind"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Latency of successful requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		}),
		workers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_active",
			Help:      "Workers currently running.",
		}),
		next:   next,
		logger: logger,
	}
	e.registry.MustRegister(e.requests, e.transport, e.latency, e.workers)
	return e
}

// Record updates the collectors and forwards o.
func (e *Exporter) Record(o metrics.Outcome) {
	outcome := "failure"
	if o.Success {
		outcome = "success"
		e.latency.Observe(o.Latency.Seconds())
	}

	code := "none"
	if o.HasStatus() {
		code = strconv.Itoa(o.StatusCode)
	} else if !o.Success {
		kind := o.ErrorKind
		if kind == "" {
			kind = metrics.KindOther
		}
		e.transport.WithLabelValues(kind).Inc()
	}
	e.requests.WithLabelValues(outcome, code).Inc()

	if e.next != nil {
		e.next.Record(o)
	}
}

// Workers returns the running-worker gauge.
func (e *Exporter) Workers() prometheus.Gauge {
	return e.workers
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Serve binds addr and serves /metrics in the background.
func (e *Exporter) Serve(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	e.listener = ln
	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	e.logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))
	go func() {
		if err := e.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("metrics server stopped", zap.Error(err))
		}
	}()
	return nil
}

// Addr returns the bound address, or "" before Serve.
func (e *Exporter) Addr() string {
	if e.listener == nil {
		return ""
	}
	return e.listener.Addr().String()
}

// Shutdown stops the metrics server.
func (e *Exporter) Shutdown(ctx context.Context) error {
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
