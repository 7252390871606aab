package aquamate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FrozenOJuice/AquaMate/internal/rate"
	"github.com/FrozenOJuice/AquaMate/internal/stores"
	"github.com/FrozenOJuice/AquaMate/internal/velocity"
	"github.com/FrozenOJuice/AquaMate/password"
	"github.com/FrozenOJuice/AquaMate/session"
)

// Audit event types emitted by the engine.
const (
	eventRegister      = "register"
	eventLogin         = "login"
	eventLogout        = "logout"
	eventLogoutAll     = "logout_all"
	eventSessionRevoke = "session_revoke"
	eventResetRequest  = "password_reset_request"
	eventResetConfirm  = "password_reset_confirm"
)

// Engine is the credential and session core. Construct it once through
// [Builder.Build]; all methods are then safe for concurrent use.
type Engine struct {
	config   Config
	users    UserProvider
	hasher   *password.Argon2
	sessions *session.Store
	resets   *stores.PasswordResetStore
	limiter  *rate.Limiter
	velocity *velocity.Tracker
	notify   *notifier
	audit    *auditDispatcher
	metrics  *Metrics
	logger   *zap.Logger

	// Optional extra password check (e.g. a breach lookup) run after the
	// built-in strength policy.
	passwordValidator func(string) error

	// dummyHash absorbs a full verification for unknown identifiers so
	// login cost does not reveal account existence.
	dummyHash string
}

func (e *Engine) ready() bool {
	return e != nil && e.users != nil && e.hasher != nil &&
		e.sessions != nil && e.resets != nil && e.limiter != nil
}

// Close flushes the audit pipeline and waits for in-flight notifier
// dispatches. Call it on shutdown; the engine is unusable afterwards.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
	if e.notify != nil {
		e.notify.Wait()
	}
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() map[string]uint64 {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were shed under backpressure.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// SessionMaxAge exposes the configured session TTL for cookie wiring.
func (e *Engine) SessionMaxAge() time.Duration {
	return e.config.Session.MaxAge
}

func (e *Engine) checkThrottle(ctx context.Context, bucket string, t Throttle) error {
	res, err := e.limiter.Check(ctx, bucket, t.Max, t.Window)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !res.Allowed {
		e.metrics.Inc(MetricRateLimitHit)
		return &RateLimitedError{RetryAfter: res.RetryAfter}
	}
	return nil
}

// checkIPThrottle is a no-op when no client IP rode in on the context.
func (e *Engine) checkIPThrottle(ctx context.Context, op string, t Throttle) error {
	ip := clientIPFromContext(ctx)
	if ip == "" {
		return nil
	}
	return e.checkThrottle(ctx, op+":ip:"+ip, t)
}

func (e *Engine) issueSession(ctx context.Context, user UserRecord) (*AuthSession, error) {
	sess, err := e.sessions.Create(ctx, user.UserID, userAgentFromContext(ctx), clientIPFromContext(ctx))
	if err != nil {
		if errors.Is(err, session.ErrRedisUnavailable) {
			return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
		}
		// Token entropy or record encoding failed locally; Redis was
		// never reached.
		return nil, fmt.Errorf("mint session: %w", err)
	}

	e.metrics.Inc(MetricSessionCreated)

	return &AuthSession{
		Token:     sess.Token,
		UserID:    user.UserID,
		ExpiresAt: time.Now().Add(e.config.Session.MaxAge),
		User:      user,
	}, nil
}

func (e *Engine) emitAudit(ctx context.Context, eventType string, success bool, userID, sessionID string, opErr error, meta map[string]string) {
	if e.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		UserID:    userID,
		SessionID: sessionID,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  meta,
	}
	if opErr != nil {
		event.Error = opErr.Error()
	}

	e.audit.Emit(ctx, event)
}

// validateNewPassword runs the built-in strength policy plus any
// configured external validator. Violations wrap [ErrPasswordPolicy].
func (e *Engine) validateNewPassword(pw string) error {
	if err := password.ValidatePolicy(pw); err != nil {
		return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
	}
	if e.passwordValidator != nil {
		if err := e.passwordValidator(pw); err != nil {
			return fmt.Errorf("%w: %v", ErrPasswordPolicy, err)
		}
	}
	return nil
}
