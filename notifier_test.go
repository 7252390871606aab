package aquamate

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestNotifierEmailChannel(t *testing.T) {
	email := &captureSender{}
	sms := &captureSender{}
	n := newNotifier(email, sms, zap.NewNop())

	n.Dispatch(UserRecord{UserID: "u1", Username: "alice", Email: "alice@example.com"}, "tok-123")
	n.Wait()

	messages := email.sent()
	if len(messages) != 1 {
		t.Fatalf("expected 1 email, got %d", len(messages))
	}
	if messages[0].Contact != "alice@example.com" {
		t.Fatalf("unexpected contact: %q", messages[0].Contact)
	}
	if !strings.Contains(messages[0].Body, "tok-123") {
		t.Fatalf("expected token in body, got %q", messages[0].Body)
	}
	if len(sms.sent()) != 0 {
		t.Fatal("expected no sms dispatch")
	}
}

func TestNotifierSMSChannel(t *testing.T) {
	email := &captureSender{}
	sms := &captureSender{}
	n := newNotifier(email, sms, zap.NewNop())

	// No email on file and a non-email username routes to SMS.
	n.Dispatch(UserRecord{UserID: "u1", Username: "+15550100"}, "tok-123")
	n.Wait()

	if len(email.sent()) != 0 {
		t.Fatal("expected no email dispatch")
	}
	messages := sms.sent()
	if len(messages) != 1 || messages[0].Contact != "+15550100" {
		t.Fatalf("unexpected sms dispatches: %+v", messages)
	}
}

func TestNotifierMissingSender(t *testing.T) {
	// No senders configured: dispatch logs and drops without panicking.
	n := newNotifier(nil, nil, zap.NewNop())
	n.Dispatch(UserRecord{UserID: "u1", Email: "alice@example.com"}, "tok-123")
	n.Wait()
}

func TestNotifierSendFailure(t *testing.T) {
	email := &captureSender{fail: true}
	n := newNotifier(email, nil, zap.NewNop())

	// Send errors are logged, never propagated.
	n.Dispatch(UserRecord{UserID: "u1", Email: "alice@example.com"}, "tok-123")
	n.Wait()
}
