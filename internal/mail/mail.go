package mail

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Message is a plain-text email.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Sender delivers a single message.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log instead of delivering them. Used in development.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "mail message", slog.String("to", msg.To), slog.String("subject", msg.Subject), slog.String("body", msg.Body))
	return nil
}

// VerificationMessage builds the account verification email for link.
func VerificationMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Verify your VidTube account",
		Body: strings.Join([]string{
			"Welcome to VidTube!",
			"",
			"Confirm your email address by opening the link below:",
			link,
			"",
			"If you did not create an account you can ignore this email.",
		}, "\r\n"),
	}
}

// PasswordResetMessage builds the password reset email for link.
func PasswordResetMessage(to, link string) Message {
	return Message{
		To:      to,
		Subject: "Reset your VidTube password",
		Body: fmt.Sprintf("Someone asked to reset the password for this account.\r\n\r\nSet a new password here:\r\n%s\r\n\r\nThe link expires soon. If it was not you, no action is needed.", link),
	}
}
