// Package mailer delivers the one-time codes the credential store sends.
package mailer

import (
	"context"

	"github.com/dmitrijs2005/hireloop/internal/logging"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. It is the
// delivery channel for local development, so bodies are logged verbatim.
type LogMailer struct {
	log logging.Logger
}

func NewLogMailer(log logging.Logger) *LogMailer {
	return &LogMailer{log: log.With("component", "mailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.log.Info(ctx, "mail", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
