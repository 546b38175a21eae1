// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes messages to a structured logger instead of delivering
// them. It is the default transport for local development.
//
// Bodies carry live vote and manage links, so they are only logged when
// IncludeBody is set.
type LogSender struct {
	Logger      *slog.Logger
	IncludeBody bool
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"to", msg.To, "subject", msg.Subject, "body_bytes", len(msg.Body)}
	if s.IncludeBody {
		attrs = append(attrs, "body", msg.Body)
	}
	logger.InfoContext(ctx, "email", attrs...)
	return nil
}
