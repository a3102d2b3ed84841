package observability

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMeter(t *testing.T) (*AuthMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { provider.Shutdown(context.Background()) })

	metrics, err := NewAuthMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewAuthMetrics failed: %v", err)
	}
	return metrics, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect failed: %v", err)
	}
	return rm
}

func metricNames(rm metricdata.ResourceMetrics) map[string]bool {
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestAuthMetrics_RecordsInstruments(t *testing.T) {
	metrics, reader := newTestMeter(t)
	ctx := context.Background()

	metrics.RecordLogin(ctx, "success", 30*time.Millisecond)
	metrics.RecordLogin(ctx, "credential_mismatch", 25*time.Millisecond)
	metrics.RecordTokenVerify(ctx, "valid")
	metrics.RecordLimitRejected(ctx, "LOGIN")
	metrics.RecordSessionKicked(ctx)
	metrics.RecordIPBlocked(ctx, "suspicion_threshold_exceeded")

	names := metricNames(collect(t, reader))
	for _, want := range []string{
		"auth.login.total",
		"auth.login.duration",
		"auth.token.verify.total",
		"auth.ratelimit.rejected.total",
		"auth.session.kicked.total",
		"auth.ip.blocked.total",
	} {
		if !names[want] {
			t.Errorf("missing metric %s", want)
		}
	}
}

func TestServiceHealth_Aggregation(t *testing.T) {
	sh := NewServiceHealth("authcore", "1.2.3")
	if sh.Status != HealthStatusUp {
		t.Fatalf("expected up, got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "redis", Status: HealthStatusUp})
	if sh.Status != HealthStatusUp {
		t.Errorf("healthy component should not degrade, got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "sweeper", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}

	sh.AddComponent(Health{Name: "store", Status: HealthStatusDown})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected down, got %s", sh.Status)
	}

	// Down is terminal even if later components are healthy.
	sh.AddComponent(Health{Name: "tokens", Status: HealthStatusUp})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected down to stick, got %s", sh.Status)
	}
}

type fixedChecker struct {
	health Health
}

func (f fixedChecker) CheckHealth(context.Context) Health { return f.health }

func TestEvaluate_AggregatesCheckers(t *testing.T) {
	report := Evaluate(context.Background(), "authcore", "1.0.0",
		fixedChecker{Health{Name: "redis", Status: HealthStatusUp}},
		fixedChecker{Health{Name: "store", Status: HealthStatusDegraded}},
	)
	if report.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", report.Status)
	}
	if len(report.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(report.Components))
	}
	if report.Version != "1.0.0" {
		t.Errorf("expected version carried, got %q", report.Version)
	}
}

func TestDefaultConfigs(t *testing.T) {
	mc := DefaultMeterConfig("authcore")
	if mc.ServiceName != "authcore" || mc.Endpoint == "" || mc.Interval <= 0 {
		t.Errorf("unexpected meter defaults %+v", mc)
	}

	tc := DefaultTracerConfig("authcore")
	if tc.ServiceName != "authcore" || tc.SampleRate != 1.0 {
		t.Errorf("unexpected tracer defaults %+v", tc)
	}
}
