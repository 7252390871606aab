package aquamate

import (
	"context"
	"testing"
)

func TestMetricsDisabled(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})

	m.Inc(MetricLoginSuccess)
	if got := m.Get(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected disabled metrics to stay zero, got %d", got)
	}
	if snap := m.Snapshot(); len(snap) != 0 {
		t.Fatalf("expected empty snapshot when disabled, got %v", snap)
	}
}

func TestMetricsIncAndSnapshot(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricRateLimitHit)

	if got := m.Get(MetricLoginSuccess); got != 2 {
		t.Fatalf("expected 2 login successes, got %d", got)
	}

	snap := m.Snapshot()
	if snap["login_success"] != 2 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
	if snap["rate_limit_hit"] != 1 {
		t.Fatalf("unexpected snapshot: %v", snap)
	}
}

func TestEngineCountersTrackOperations(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockUserProvider())
	ctx := context.Background()

	seedUser(t, engine, "alice", "alice@example.com")

	if _, err := engine.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice", "Wrong-Password-1"); err == nil {
		t.Fatal("expected login failure")
	}

	snap := engine.MetricsSnapshot()
	if snap["register_success"] != 1 {
		t.Fatalf("expected 1 register success, got %v", snap)
	}
	if snap["login_success"] != 1 || snap["login_failure"] != 1 {
		t.Fatalf("unexpected login counters: %v", snap)
	}
	if snap["session_created"] != 2 {
		t.Fatalf("expected 2 sessions created, got %v", snap)
	}
}
