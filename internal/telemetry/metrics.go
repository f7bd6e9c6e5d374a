package telemetry

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/storefront"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Gatekeeper metrics
	GatekeeperDecisionsTotal metric.Int64Counter

	// Client runtime metrics
	CookieMirrorWritesTotal  metric.Int64Counter
	NavigationFallbacksTotal metric.Int64Counter
	SessionsClearedTotal     metric.Int64Counter

	// API metrics
	APIRequestDuration   metric.Float64Histogram
	APIUnauthorizedTotal metric.Int64Counter
	LoginAttemptsTotal   metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.GatekeeperDecisionsTotal, _ = meter.Int64Counter(
		"storefront.gatekeeper.decisions.total",
		metric.WithDescription("Total number of route gatekeeper decisions"),
		metric.WithUnit("{request}"),
	)

	m.CookieMirrorWritesTotal, _ = meter.Int64Counter(
		"storefront.cookie_mirror.writes.total",
		metric.WithDescription("Total number of credential cookie writes and expiries"),
		metric.WithUnit("{write}"),
	)

	m.NavigationFallbacksTotal, _ = meter.Int64Counter(
		"storefront.navigation.fallbacks.total",
		metric.WithDescription("Total number of in-app transitions replaced by a full navigation"),
		metric.WithUnit("{navigation}"),
	)

	m.SessionsClearedTotal, _ = meter.Int64Counter(
		"storefront.sessions.cleared.total",
		metric.WithDescription("Total number of sessions cleared"),
		metric.WithUnit("{session}"),
	)

	m.APIRequestDuration, _ = meter.Float64Histogram(
		"storefront.api.request.duration",
		metric.WithDescription("Duration of API requests"),
		metric.WithUnit("ms"),
	)

	m.APIUnauthorizedTotal, _ = meter.Int64Counter(
		"storefront.api.unauthorized.total",
		metric.WithDescription("Total number of API responses rejecting the credential"),
		metric.WithUnit("{response}"),
	)

	m.LoginAttemptsTotal, _ = meter.Int64Counter(
		"storefront.login.attempts.total",
		metric.WithDescription("Total number of login attempts"),
		metric.WithUnit("{attempt}"),
	)

	return m
}

// RecordDecision counts a gatekeeper decision.
func (m *Metrics) RecordDecision(ctx context.Context, decision, reason string) {
	m.GatekeeperDecisionsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
		attribute.String("reason", reason),
	))
}

// RecordCookieWrite counts a cookie mirror write, op is "set" or "expire".
func (m *Metrics) RecordCookieWrite(ctx context.Context, op string) {
	m.CookieMirrorWritesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}

func (m *Metrics) RecordNavigationFallback(ctx context.Context) {
	m.NavigationFallbacksTotal.Add(ctx, 1)
}

// RecordSessionCleared counts a cleared session, reason is "logout" or "unauthorized".
func (m *Metrics) RecordSessionCleared(ctx context.Context, reason string) {
	m.SessionsClearedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// RecordAPIRequest records the duration of an API call and counts rejected credentials.
func (m *Metrics) RecordAPIRequest(ctx context.Context, method string, status int, durationMs float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.Int("status", status),
	)
	m.APIRequestDuration.Record(ctx, durationMs, attrs)
}

func (m *Metrics) RecordUnauthorized(ctx context.Context, path string) {
	m.APIUnauthorizedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("path", path)))
}

func (m *Metrics) RecordLogin(ctx context.Context, outcome string) {
	m.LoginAttemptsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
