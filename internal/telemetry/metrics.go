// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "rigchat"

// Outcome labels a finished completion request.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeConfig       Outcome = "config_error"
	OutcomeTransient    Outcome = "exhausted"
	OutcomeUnrecognized Outcome = "unrecognized"
	OutcomeCancelled    Outcome = "cancelled"
)

// Metrics groups the collectors rigchat records into.
type Metrics struct {
	registry *prometheus.Registry

	attempts    prometheus.Counter
	retries     prometheus.Counter
	completions *prometheus.CounterVec
	latency     prometheus.Histogram
	throttled   prometheus.Counter
	messages    *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_attempts_total",
			Help:      "HTTP attempts made against the completion endpoint.",
		}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completion_retries_total",
			Help:      "Attempts that were retries of a failed attempt.",
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Completion requests by final outcome.",
		}, []string{"outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_duration_seconds",
			Help:      "Wall time of completion requests including retries.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 32, 64},
		}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sends_throttled_total",
			Help:      "Send attempts rejected by the cooldown or in-flight gate.",
		}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages appended to conversations by role.",
		}, []string{"role"}),
	}
	m.registry.MustRegister(m.attempts, m.retries, m.completions, m.latency, m.throttled, m.messages)
	return m
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveAttempt counts one HTTP attempt.
func (m *Metrics) ObserveAttempt() {
	if m == nil {
		return
	}
	m.attempts.Inc()
}

// ObserveRetry counts one retry.
func (m *Metrics) ObserveRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// ObserveCompletion records a finished request.
func (m *Metrics) ObserveCompletion(outcome Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(string(outcome)).Inc()
	m.latency.Observe(elapsed.Seconds())
}

// ObserveThrottled counts a rejected send.
func (m *Metrics) ObserveThrottled() {
	if m == nil {
		return
	}
	m.throttled.Inc()
}

// ObserveMessage counts an appended message.
func (m *Metrics) ObserveMessage(role string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(role).Inc()
}

// Handler returns an HTTP handler serving the registry in the Prometheus
// text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics listener started", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
