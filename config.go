package aquamate

import (
	"errors"
	"time"
)

// Config is the full tuning surface of the engine. Populate it before
// [Builder.Build]; it is copied on build and treated as immutable after.
type Config struct {
	Session       SessionConfig
	Password      PasswordConfig
	PasswordReset PasswordResetConfig
	RateLimit     RateLimitConfig
	Anomaly       AnomalyConfig
	Audit         AuditConfig
	Metrics       MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls opaque-session storage and expiry.
type SessionConfig struct {
	RedisPrefix string
	// MaxAge is the session TTL. With SlidingExpiration the TTL is
	// re-armed to MaxAge on every successful resolve; without it the
	// session expires MaxAge after creation regardless of activity.
	MaxAge            time.Duration
	SlidingExpiration bool
}

// PasswordConfig carries argon2id parameters. Memory is in KB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// PasswordResetConfig controls reset-token issuance.
type PasswordResetConfig struct {
	RedisPrefix string
	// TokenTTL bounds how long an unconsumed reset token stays valid.
	TokenTTL time.Duration
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// Throttle is one sliding-window budget: at most Max hits within any
// trailing Window. The (Max+1)-th hit in a window is the one rejected.
type Throttle struct {
	Max    int
	Window time.Duration
}

// RateLimitConfig holds the per-operation throttles. Identifier-keyed
// throttles are matched case-insensitively; IP throttles are skipped when
// no client IP is attached to the context.
type RateLimitConfig struct {
	RedisPrefix    string
	Register       Throttle
	RegisterIP     Throttle
	Login          Throttle
	LoginIP        Throttle
	ResetRequest   Throttle
	ResetRequestIP Throttle
	ResetConfirmIP Throttle
}

// AnomalyConfig tunes the advisory reset-velocity tracker: a user whose
// completed resets reach Threshold within Window is flagged suspicious.
type AnomalyConfig struct {
	RedisPrefix string
	Window      time.Duration
	Threshold   int
}

// AuditConfig controls the async audit pipeline.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull sheds events instead of blocking emitters when the
	// buffer is full. Dropped counts are observable via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig toggles the in-process counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig mirrors the production defaults of the original service:
// 7-day sessions with sliding expiry, 1-hour reset tokens, 5-per-5-minutes
// identifier and 20-per-5-minutes IP reset throttles, and a 3-resets-per-hour
// anomaly threshold.
func DefaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix:       "session",
			MaxAge:            7 * 24 * time.Hour,
			SlidingExpiration: true,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		PasswordReset: PasswordResetConfig{
			RedisPrefix: "reset",
			TokenTTL:    time.Hour,
		},
		RateLimit: RateLimitConfig{
			RedisPrefix:    "rl",
			Register:       Throttle{Max: 5, Window: time.Hour},
			RegisterIP:     Throttle{Max: 20, Window: time.Hour},
			Login:          Throttle{Max: 10, Window: 5 * time.Minute},
			LoginIP:        Throttle{Max: 50, Window: 5 * time.Minute},
			ResetRequest:   Throttle{Max: 5, Window: 5 * time.Minute},
			ResetRequestIP: Throttle{Max: 20, Window: 5 * time.Minute},
			ResetConfirmIP: Throttle{Max: 20, Window: 5 * time.Minute},
		},
		Anomaly: AnomalyConfig{
			RedisPrefix: "resetvel",
			Window:      time.Hour,
			Threshold:   3,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate rejects configurations the engine cannot run safely with.
func (c Config) Validate() error {
	if c.Session.MaxAge <= 0 {
		return errors.New("session max age must be positive")
	}
	if c.Session.RedisPrefix == "" {
		return errors.New("session redis prefix must not be empty")
	}
	if c.PasswordReset.TokenTTL <= 0 {
		return errors.New("reset token ttl must be positive")
	}
	if c.PasswordReset.RedisPrefix == "" {
		return errors.New("reset redis prefix must not be empty")
	}
	if c.RateLimit.RedisPrefix == "" {
		return errors.New("rate limit redis prefix must not be empty")
	}
	for _, t := range []struct {
		name string
		Throttle
	}{
		{"register", c.RateLimit.Register},
		{"register ip", c.RateLimit.RegisterIP},
		{"login", c.RateLimit.Login},
		{"login ip", c.RateLimit.LoginIP},
		{"reset request", c.RateLimit.ResetRequest},
		{"reset request ip", c.RateLimit.ResetRequestIP},
		{"reset confirm ip", c.RateLimit.ResetConfirmIP},
	} {
		if t.Max <= 0 {
			return errors.New(t.name + " throttle max must be positive")
		}
		if t.Window <= 0 {
			return errors.New(t.name + " throttle window must be positive")
		}
	}
	if c.Anomaly.Threshold <= 0 {
		return errors.New("anomaly threshold must be positive")
	}
	if c.Anomaly.Window <= 0 {
		return errors.New("anomaly window must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit buffer size must be positive when audit is enabled")
	}
	return nil
}
