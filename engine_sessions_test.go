package aquamate

import (
	"context"
	"errors"
	"testing"
)

func TestAuthenticateRoundTrip(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockUserProvider())
	ctx := context.Background()

	sess, err := engine.Register(ctx, RegisterInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	userID, err := engine.Authenticate(ctx, sess.Token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if userID != sess.UserID {
		t.Fatalf("expected user %q, got %q", sess.UserID, userID)
	}
}

func TestAuthenticateUnknownToken(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockUserProvider())

	for _, token := range []string{"", "never-issued"} {
		if _, err := engine.Authenticate(context.Background(), token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("Authenticate(%q): expected ErrSessionNotFound, got %v", token, err)
		}
	}
}

func TestListSessionsMetadata(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockUserProvider())

	ctx := WithClientIP(context.Background(), "203.0.113.7")
	ctx = WithUserAgent(ctx, "curl/8.0")

	sess, err := engine.Register(ctx, RegisterInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if _, err := engine.Login(ctx, "alice", testPassword); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	sessions, err := engine.ListSessions(ctx, sess.UserID)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	for _, s := range sessions {
		if s.IP != "203.0.113.7" || s.UserAgent != "curl/8.0" {
			t.Fatalf("expected request metadata on session, got %+v", s)
		}
	}
}

func TestRevokeSessionOwnership(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockUserProvider())
	ctx := context.Background()

	alice, err := engine.Register(ctx, RegisterInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	bob, err := engine.Register(ctx, RegisterInput{Username: "bob", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Bob cannot revoke Alice's session.
	revoked, err := engine.RevokeSession(ctx, bob.UserID, alice.Token)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if revoked {
		t.Fatal("expected cross-user revoke to be refused")
	}
	if _, err := engine.Authenticate(ctx, alice.Token); err != nil {
		t.Fatalf("expected Alice's session to survive: %v", err)
	}

	revoked, err = engine.RevokeSession(ctx, alice.UserID, alice.Token)
	if err != nil {
		t.Fatalf("RevokeSession failed: %v", err)
	}
	if !revoked {
		t.Fatal("expected owner revoke to succeed")
	}
	if _, err := engine.Authenticate(ctx, alice.Token); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after revoke, got %v", err)
	}
}

func TestLogoutAll(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockUserProvider())
	ctx := context.Background()

	first, err := engine.Register(ctx, RegisterInput{Username: "alice", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	var tokens []string
	tokens = append(tokens, first.Token)
	for i := 0; i < 2; i++ {
		login, err := engine.Login(ctx, "alice", testPassword)
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		tokens = append(tokens, login.Token)
	}

	other, err := engine.Register(ctx, RegisterInput{Username: "bob", Password: testPassword})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := engine.LogoutAll(ctx, first.UserID); err != nil {
		t.Fatalf("LogoutAll failed: %v", err)
	}

	for _, token := range tokens {
		if _, err := engine.Authenticate(ctx, token); !errors.Is(err, ErrSessionNotFound) {
			t.Fatalf("expected all of Alice's sessions revoked, got %v", err)
		}
	}
	if _, err := engine.Authenticate(ctx, other.Token); err != nil {
		t.Fatalf("expected Bob's session to survive: %v", err)
	}
}
