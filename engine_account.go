package aquamate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

// Register creates an account and opens its first session. The password
// is checked against the strength policy before any backend work, so a
// weak password never consumes a rate-limit slot or a hashing round.
func (e *Engine) Register(ctx context.Context, input RegisterInput) (*AuthSession, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidCredentials)
	}
	if err := e.validateNewPassword(input.Password); err != nil {
		return nil, err
	}

	if err := e.checkThrottle(ctx, "register:"+normalizeIdentifier(username), e.config.RateLimit.Register); err != nil {
		return nil, err
	}
	if err := e.checkIPThrottle(ctx, "register", e.config.RateLimit.RegisterIP); err != nil {
		return nil, err
	}

	hash, err := e.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	role := input.Role
	if role == "" {
		role = "member"
	}

	user, err := e.users.CreateUser(ctx, CreateUserInput{
		UserID:       uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       AccountActive,
	})
	if err != nil {
		e.metrics.Inc(MetricRegisterFailure)
		e.emitAudit(ctx, eventRegister, false, "", "", err, nil)
		if errors.Is(err, ErrAccountExists) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	e.metrics.Inc(MetricRegisterSuccess)
	e.logger.Info("account registered",
		zap.String("user_id", user.UserID),
		zap.String("username", user.Username))
	e.emitAudit(ctx, eventRegister, true, user.UserID, "", nil, nil)

	return e.issueSession(ctx, user)
}

// Login verifies credentials and opens a session. Failures are reported
// uniformly as [ErrInvalidCredentials]; unknown identifiers still pay a
// full hash verification so response timing stays flat.
func (e *Engine) Login(ctx context.Context, identifier, pw string) (*AuthSession, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}

	norm := normalizeIdentifier(identifier)
	if norm == "" || pw == "" {
		return nil, ErrInvalidCredentials
	}

	if err := e.checkThrottle(ctx, "login:"+norm, e.config.RateLimit.Login); err != nil {
		return nil, err
	}
	if err := e.checkIPThrottle(ctx, "login", e.config.RateLimit.LoginIP); err != nil {
		return nil, err
	}

	user, err := e.users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.hasher.Verify(pw, e.dummyHash)
			e.metrics.Inc(MetricLoginFailure)
			e.emitAudit(ctx, eventLogin, false, "", "", ErrInvalidCredentials, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if !e.hasher.Verify(pw, user.PasswordHash) || user.Status != AccountActive {
		e.metrics.Inc(MetricLoginFailure)
		e.emitAudit(ctx, eventLogin, false, user.UserID, "", ErrInvalidCredentials, nil)
		return nil, ErrInvalidCredentials
	}

	e.metrics.Inc(MetricLoginSuccess)
	e.emitAudit(ctx, eventLogin, true, user.UserID, "", nil, nil)

	return e.issueSession(ctx, user)
}

// Logout revokes the session behind token. Revoking a token that no
// longer exists is a silent success.
func (e *Engine) Logout(ctx context.Context, token string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if token == "" {
		return nil
	}

	revoked, err := e.sessions.Revoke(ctx, token)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if !revoked {
		return nil
	}

	e.metrics.Inc(MetricSessionRevoked)
	e.emitAudit(ctx, eventLogout, true, "", "", nil, nil)
	return nil
}
