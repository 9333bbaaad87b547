package clubauth

import (
	"context"
	"testing"
	"time"
)

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLogout)

	if got := m.Value(MetricLoginSuccess); got != 2 {
		t.Fatalf("Value(MetricLoginSuccess) = %d, want 2", got)
	}

	snap := m.Snapshot()
	if snap.Counters[MetricLoginSuccess] != 2 {
		t.Fatalf("snapshot login success = %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLogout] != 1 {
		t.Fatalf("snapshot logout = %d", snap.Counters[MetricLogout])
	}
}

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("disabled metrics counted: %d", got)
	}

	snap := m.Snapshot()
	if snap.Counters == nil || snap.Histograms == nil {
		t.Fatal("disabled snapshot returned nil maps")
	}

	var nilMetrics *Metrics
	nilMetrics.Inc(MetricLoginSuccess)
	if nilMetrics.Value(MetricLoginSuccess) != 0 {
		t.Fatal("nil metrics counted")
	}
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true, EnableLatencyHistograms: true})

	m.Observe(MetricIdentityLatency, 3*time.Millisecond)
	m.Observe(MetricIdentityLatency, 40*time.Millisecond)
	m.Observe(MetricIdentityLatency, 2*time.Second)

	// Non-latency IDs are ignored.
	m.Observe(MetricLoginSuccess, time.Millisecond)

	buckets := m.Snapshot().Histograms[MetricIdentityLatency]
	if len(buckets) != histBucketCount {
		t.Fatalf("histogram has %d buckets", len(buckets))
	}
	if buckets[0] != 1 || buckets[3] != 1 || buckets[7] != 1 {
		t.Fatalf("unexpected distribution: %v", buckets)
	}
}

func TestEngineCountsLoginOutcomes(t *testing.T) {
	fake := newFakeIdentity()
	fake.loginCreds = testCreds("u1", "alice@club.test", "member")
	engine := newTestEngine(t, fake)

	if _, err := engine.Login(context.Background(), "alice@club.test", "secret-pass"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	fake.loginErr = apiErr(401, "invalid_credentials")
	if _, err := engine.Login(context.Background(), "alice@club.test", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}

	snap := engine.MetricsSnapshot()
	if snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("login success count = %d", snap.Counters[MetricLoginSuccess])
	}
	if snap.Counters[MetricLoginFailure] != 1 {
		t.Fatalf("login failure count = %d", snap.Counters[MetricLoginFailure])
	}
}
