package aquamate

import "sync/atomic"

// MetricID indexes one engine counter.
type MetricID uint16

const (
	MetricRegisterSuccess MetricID = iota
	MetricRegisterFailure
	MetricLoginSuccess
	MetricLoginFailure
	MetricSessionCreated
	MetricSessionRevoked
	MetricResetRequested
	MetricResetCompleted
	MetricResetFailed
	MetricSuspiciousReset
	MetricRateLimitHit

	metricCount
)

var metricNames = [metricCount]string{
	MetricRegisterSuccess: "register_success",
	MetricRegisterFailure: "register_failure",
	MetricLoginSuccess:    "login_success",
	MetricLoginFailure:    "login_failure",
	MetricSessionCreated:  "session_created",
	MetricSessionRevoked:  "session_revoked",
	MetricResetRequested:  "reset_requested",
	MetricResetCompleted:  "reset_completed",
	MetricResetFailed:     "reset_failed",
	MetricSuspiciousReset: "suspicious_reset",
	MetricRateLimitHit:    "rate_limit_hit",
}

// Metrics is a fixed set of lock-free counters. Inc on a disabled (or nil)
// Metrics is a no-op, so call sites never branch.
type Metrics struct {
	enabled  bool
	counters [metricCount]atomic.Uint64
}

// NewMetrics creates the counter set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Get returns one counter's current value.
func (m *Metrics) Get(id MetricID) uint64 {
	if m == nil || id >= metricCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot returns a point-in-time copy of every counter keyed by name,
// ready for an exporter to scrape.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, metricCount)
	if m == nil || !m.enabled {
		return out
	}
	for id := MetricID(0); id < metricCount; id++ {
		out[metricNames[id]] = m.counters[id].Load()
	}
	return out
}
