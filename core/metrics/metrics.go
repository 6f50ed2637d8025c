// Package metrics exposes Prometheus collectors for dispatch and delivery.
package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/meetsy/core/logger"
)

var (
	// EventsDispatched counts inbound events by kind and outcome.
	EventsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetsy_events_dispatched_total",
		Help: "Inbound Slack events dispatched, labelled by kind and outcome.",
	}, []string{"kind", "outcome"})

	// DispatchDuration tracks handler latency per event kind.
	DispatchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meetsy_dispatch_duration_ms",
		Help:    "Handler latency in milliseconds, labelled by kind.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500},
	}, []string{"kind"})

	// HandlerPanics counts panics recovered by the router.
	HandlerPanics = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetsy_handler_panics_total",
		Help: "Handler panics recovered at the dispatch boundary.",
	})

	// AckEncodeFailures counts acks the encoder could not build or deliver.
	AckEncodeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetsy_ack_encode_failures_total",
		Help: "Acks that could not be encoded or delivered, labelled by kind.",
	}, []string{"kind"})

	// OutboundSent counts sender deliveries by status: ok, fail or dropped.
	OutboundSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetsy_outbound_messages_total",
		Help: "Out-of-band messages handled by the sender, labelled by status.",
	}, []string{"status"})

	// OutboundQueueDepth is the current sender backlog.
	OutboundQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "meetsy_outbound_queue_depth",
		Help: "Messages waiting in the sender queue.",
	})

	// Enrollments counts enrollment attempts by result.
	Enrollments = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetsy_enrollments_total",
		Help: "Enrollment attempts, labelled by result.",
	}, []string{"result"})
)

// ObserveDispatch records one dispatch.
func ObserveDispatch(kind, outcome string, d time.Duration) {
	EventsDispatched.WithLabelValues(kind, outcome).Inc()
	DispatchDuration.WithLabelValues(kind).Observe(float64(d) / float64(time.Millisecond))
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics on addr until ctx is cancelled. An empty addr is a no-op.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "metrics", "metrics.listen", slog.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
