package aquamate

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/FrozenOJuice/AquaMate/session"
)

// Authenticate resolves an opaque session token to its owning user ID.
// Resolution refreshes the session's expiry when sliding expiration is
// configured. Unknown, expired, and unreadable tokens all come back as
// [ErrSessionNotFound].
func (e *Engine) Authenticate(ctx context.Context, token string) (string, error) {
	if !e.ready() {
		return "", ErrEngineNotReady
	}
	if token == "" {
		return "", ErrSessionNotFound
	}

	sess, err := e.sessions.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	return sess.UserID, nil
}

// ListSessions returns every live session owned by userID. Stale and
// unreadable index entries are cleaned up along the way.
func (e *Engine) ListSessions(ctx context.Context, userID string) ([]*session.Session, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	sessions, err := e.sessions.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return sessions, nil
}

// RevokeSession revokes one of userID's sessions by token. A token owned
// by someone else is refused without touching it; the return value says
// whether a session was actually destroyed.
func (e *Engine) RevokeSession(ctx context.Context, userID, token string) (bool, error) {
	if !e.ready() {
		return false, ErrEngineNotReady
	}

	revoked, err := e.sessions.RevokeForUser(ctx, userID, token)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if revoked {
		e.metrics.Inc(MetricSessionRevoked)
		e.emitAudit(ctx, eventSessionRevoke, true, userID, "", nil, nil)
	}
	return revoked, nil
}

// LogoutAll revokes every session userID owns.
func (e *Engine) LogoutAll(ctx context.Context, userID string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	if err := e.sessions.RevokeAll(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.emitAudit(ctx, eventLogoutAll, true, userID, "", nil, nil)
	return nil
}
