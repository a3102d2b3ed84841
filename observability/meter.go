package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/loomworks/authcore/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment.
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider and installs it
// globally. The returned provider must be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	log.Info("meter initialized", map[string]interface{}{
		"service":  config.ServiceName,
		"endpoint": config.Endpoint,
		"interval": config.Interval.String(),
	})
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// AuthMetrics holds the instruments for authentication activity.
type AuthMetrics struct {
	loginTotal       metric.Int64Counter
	loginDuration    metric.Float64Histogram
	tokenVerifyTotal metric.Int64Counter
	limitRejected    metric.Int64Counter
	sessionKicked    metric.Int64Counter
	ipBlocked        metric.Int64Counter
}

// NewAuthMetrics creates the authentication instruments on the meter.
func NewAuthMetrics(meter metric.Meter) (*AuthMetrics, error) {
	loginTotal, err := meter.Int64Counter("auth.login.total",
		metric.WithDescription("Login attempts by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.login.total counter: %w", err)
	}

	loginDuration, err := meter.Float64Histogram("auth.login.duration",
		metric.WithDescription("Duration of login handling in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.login.duration histogram: %w", err)
	}

	tokenVerifyTotal, err := meter.Int64Counter("auth.token.verify.total",
		metric.WithDescription("Token verifications by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.token.verify.total counter: %w", err)
	}

	limitRejected, err := meter.Int64Counter("auth.ratelimit.rejected.total",
		metric.WithDescription("Requests rejected by rate limiting, by class"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.ratelimit.rejected.total counter: %w", err)
	}

	sessionKicked, err := meter.Int64Counter("auth.session.kicked.total",
		metric.WithDescription("Sessions evicted for the concurrent-session cap"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.session.kicked.total counter: %w", err)
	}

	ipBlocked, err := meter.Int64Counter("auth.ip.blocked.total",
		metric.WithDescription("IP addresses blocked by reputation or manual action"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating auth.ip.blocked.total counter: %w", err)
	}

	return &AuthMetrics{
		loginTotal:       loginTotal,
		loginDuration:    loginDuration,
		tokenVerifyTotal: tokenVerifyTotal,
		limitRejected:    limitRejected,
		sessionKicked:    sessionKicked,
		ipBlocked:        ipBlocked,
	}, nil
}

// RecordLogin records a completed login attempt.
func (m *AuthMetrics) RecordLogin(ctx context.Context, outcome string, duration time.Duration) {
	m.loginTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
	m.loginDuration.Record(ctx, duration.Seconds())
}

// RecordTokenVerify records a token verification.
func (m *AuthMetrics) RecordTokenVerify(ctx context.Context, outcome string) {
	m.tokenVerifyTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordLimitRejected records a rate-limit rejection.
func (m *AuthMetrics) RecordLimitRejected(ctx context.Context, class string) {
	m.limitRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("class", class),
	))
}

// RecordSessionKicked records an eviction for the concurrency cap.
func (m *AuthMetrics) RecordSessionKicked(ctx context.Context) {
	m.sessionKicked.Add(ctx, 1)
}

// RecordIPBlocked records an IP block.
func (m *AuthMetrics) RecordIPBlocked(ctx context.Context, reason string) {
	m.ipBlocked.Add(ctx, 1, metric.WithAttributes(
		attribute.String("reason", reason),
	))
}
