package mail

import (
	"context"
	"io"
	"log/slog"
)

// Message is a plain-text email.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mail sends messages.
type Mail interface {
	io.Closer
	Send(ctx context.Context, msg Message) error
}

// Log is a Mail that records the envelope only.
type Log struct{}

// NewLog returns a Log sender.
func NewLog() *Log { return &Log{} }

func (*Log) Send(ctx context.Context, msg Message) error {
	slog.InfoContext(ctx, "mail skipped: no smtp relay configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (*Log) Close() error { return nil }
