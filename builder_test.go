package aquamate

import (
	"testing"
)

func TestBuildRequiresRedis(t *testing.T) {
	_, err := New().WithUserProvider(newMockUserProvider()).Build()
	if err == nil {
		t.Fatal("expected Build to fail without redis")
	}
}

func TestBuildRequiresUserProvider(t *testing.T) {
	_, rdb := newTestRedis(t)

	_, err := New().WithRedis(rdb).Build()
	if err == nil {
		t.Fatal("expected Build to fail without a user provider")
	}
}

func TestBuildRejectsInvalidConfig(t *testing.T) {
	_, rdb := newTestRedis(t)

	cfg := testConfig()
	cfg.Session.MaxAge = 0

	_, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserProvider(newMockUserProvider()).
		Build()
	if err == nil {
		t.Fatal("expected Build to reject invalid config")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)

	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithUserProvider(newMockUserProvider())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer engine.Close()

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}
