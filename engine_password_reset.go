package aquamate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/FrozenOJuice/AquaMate/internal"
	"github.com/FrozenOJuice/AquaMate/internal/stores"
)

// RequestPasswordReset starts a reset flow for identifier. The response
// is identical whether or not an account exists: for unknown or inactive
// accounts the call still succeeds after paying the same throttles, and
// nothing observable distinguishes the two paths. Delivery of the token
// happens asynchronously and its outcome is never surfaced here.
func (e *Engine) RequestPasswordReset(ctx context.Context, identifier string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}

	norm := normalizeIdentifier(identifier)

	if err := e.checkThrottle(ctx, "reset_request:"+norm, e.config.RateLimit.ResetRequest); err != nil {
		return err
	}
	if err := e.checkIPThrottle(ctx, "reset_request", e.config.RateLimit.ResetRequestIP); err != nil {
		return err
	}

	e.metrics.Inc(MetricResetRequested)

	user, err := e.users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.emitAudit(ctx, eventResetRequest, true, "", "", nil,
				map[string]string{"outcome": "no_account"})
			return nil
		}
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if user.Status != AccountActive {
		e.emitAudit(ctx, eventResetRequest, true, user.UserID, "", nil,
			map[string]string{"outcome": "inactive"})
		return nil
	}

	token, err := internal.NewToken()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	record := &stores.PasswordResetRecord{
		UserID:    user.UserID,
		CreatedAt: time.Now().Unix(),
	}
	if err := e.resets.Save(ctx, token, record, e.config.PasswordReset.TokenTTL); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.notify.Dispatch(user, token)

	e.logger.Info("password reset requested", zap.String("user_id", user.UserID))
	e.emitAudit(ctx, eventResetRequest, true, user.UserID, "", nil, nil)
	return nil
}

// ConfirmPasswordReset redeems a reset token and installs a new password.
// The token is single use: it is destroyed on first redemption attempt
// that reaches it, even when a later step fails. On success every prior
// session is revoked and a fresh one is issued.
func (e *Engine) ConfirmPasswordReset(ctx context.Context, token, newPassword string) (*ResetResult, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	// A weak password fails before the throttle and before the token is
	// consumed, so the caller can retry with the same token.
	if err := e.validateNewPassword(newPassword); err != nil {
		return nil, err
	}

	if err := e.checkIPThrottle(ctx, "reset_confirm", e.config.RateLimit.ResetConfirmIP); err != nil {
		return nil, err
	}

	record, err := e.resets.Consume(ctx, token)
	if err != nil {
		if errors.Is(err, stores.ErrResetNotFound) {
			e.metrics.Inc(MetricResetFailed)
			e.emitAudit(ctx, eventResetConfirm, false, "", "", ErrInvalidResetToken, nil)
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	user, err := e.users.GetUserByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metrics.Inc(MetricResetFailed)
			e.emitAudit(ctx, eventResetConfirm, false, record.UserID, "", ErrInvalidResetToken, nil)
			return nil, ErrInvalidResetToken
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if e.hasher.Verify(newPassword, user.PasswordHash) {
		e.metrics.Inc(MetricResetFailed)
		e.emitAudit(ctx, eventResetConfirm, false, user.UserID, "", ErrPasswordReuse, nil)
		return nil, ErrPasswordReuse
	}

	// Velocity is advisory: a tracker failure flags nothing and blocks
	// nothing.
	suspicious, count, velErr := e.velocity.Record(ctx, user.UserID)
	if velErr != nil {
		e.logger.Warn("reset velocity tracking failed",
			zap.String("user_id", user.UserID), zap.Error(velErr))
		suspicious = false
	}
	if suspicious {
		e.metrics.Inc(MetricSuspiciousReset)
		e.logger.Warn("suspicious password reset velocity",
			zap.String("user_id", user.UserID),
			zap.Int("resets_in_window", count))
	}

	newHash, err := e.hasher.Hash(newPassword)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if err := e.users.UpdatePasswordHash(ctx, user.UserID, newHash); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	// The hash is already rotated at this point; a revocation failure
	// must surface so the caller knows old sessions may still be live.
	if err := e.sessions.RevokeAll(ctx, user.UserID); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	authSession, err := e.issueSession(ctx, user)
	if err != nil {
		return nil, err
	}

	e.metrics.Inc(MetricResetCompleted)
	e.logger.Info("password reset completed", zap.String("user_id", user.UserID))
	e.emitAudit(ctx, eventResetConfirm, true, user.UserID, "", nil,
		map[string]string{"suspicious": fmt.Sprintf("%t", suspicious)})

	return &ResetResult{Session: authSession, Suspicious: suspicious}, nil
}
