// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package mailer renders poll invitations and delivers them through a
// pluggable Sender: the log, an SMTP relay, or a Redis outbox drained by a
// Worker.
package mailer
