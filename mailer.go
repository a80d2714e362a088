package auth

import (
	"context"
	"fmt"
)

// Message is the payload handed to the mail transport
type Message struct {
	Subject   string
	Sender    string
	Recipient string
	Body      string
}

// Mailer is the outbound mail collaborator. Transport details (SMTP, queue)
// are owned by infrastructure; the auth core only composes and dispatches.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ConfirmationMessage composes the confirmation email for a new account
func ConfirmationMessage(user *User, token, baseURL, sender string) Message {
	confirmURL := fmt.Sprintf("%s/confirm_email?token=%s", baseURL, token)
	body := fmt.Sprintf(
		"Hi %s,\n\nPlease confirm your email by clicking the link below:\n%s\n\nIf you did not register, please ignore this email.\n",
		user.Username, confirmURL,
	)

	return Message{
		Subject:   "Please confirm your email",
		Sender:    sender,
		Recipient: user.Email,
		Body:      body,
	}
}

// LogMailer writes messages to the logger instead of a transport. Used in
// development and as the default when no transport is wired.
type LogMailer struct {
	logger Logger
}

func NewLogMailer(logger Logger) *LogMailer {
	if logger == nil {
		logger = defLogger{}
	}
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("mail to=%s subject=%q\n%s", msg.Recipient, msg.Subject, msg.Body)
	return nil
}

var _ Mailer = (*LogMailer)(nil)
