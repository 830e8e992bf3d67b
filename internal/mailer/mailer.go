// Package mailer is the outbound email boundary. Business logic talks to the
// Sender interface only; SMTP details stay inside this package.
package mailer

import (
	"context"
	"log/slog"
)

// Message is a provider-agnostic outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Sender delivers a single message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// ConsoleSender logs messages instead of delivering them. Used when SMTP is
// not configured (local and dev environments).
type ConsoleSender struct {
	Log *slog.Logger
}

func (s ConsoleSender) Name() string { return "console" }

func (s ConsoleSender) Send(ctx context.Context, msg Message) error {
	_ = ctx
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("email suppressed (console sender)", "to", msg.To, "subject", msg.Subject)
	return nil
}
