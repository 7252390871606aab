package aquamate

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// notifier delivers reset tokens out of band, off the request path.
// Delivery is at-most-once: a dispatch in flight when the process exits is
// lost, and the user simply requests another token.
type notifier struct {
	email  Sender
	sms    Sender
	logger *zap.Logger
	wg     sync.WaitGroup
}

func newNotifier(email, sms Sender, logger *zap.Logger) *notifier {
	return &notifier{
		email:  email,
		sms:    sms,
		logger: logger,
	}
}

// Dispatch picks the delivery channel from the contact address (anything
// with '@' is email, the rest goes to SMS) and sends in a goroutine.
// Failures are logged and never reach the requester: a delivery error that
// surfaced would reveal whether the account exists.
func (n *notifier) Dispatch(user UserRecord, token string) {
	contact := user.Email
	if contact == "" {
		contact = user.Username
	}

	channel := "sms"
	if strings.Contains(contact, "@") {
		channel = "email"
	}

	n.logger.Info("dispatching password reset token",
		zap.String("user_id", user.UserID),
		zap.String("channel", channel),
	)

	subject := "Reset your AquaMate password"
	body := "Use this code to reset your AquaMate password: " + token

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		var sender Sender
		if channel == "email" {
			sender = n.email
		} else {
			sender = n.sms
		}
		if sender == nil {
			n.logger.Warn("delivery channel not configured; reset token not sent",
				zap.String("user_id", user.UserID),
				zap.String("channel", channel),
			)
			return
		}

		if err := sender.Send(contact, subject, body); err != nil {
			n.logger.Error("failed to dispatch reset token",
				zap.String("user_id", user.UserID),
				zap.String("channel", channel),
				zap.Error(err),
			)
		}
	}()
}

// Wait blocks until all in-flight dispatches finish.
func (n *notifier) Wait() {
	n.wg.Wait()
}
