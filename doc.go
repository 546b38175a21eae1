// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Interpoll API server.

Interpoll runs polls without accounts. An organizer submits a title, a list
of choices and a list of participants; every participant is emailed a
private voting link, the organizer gets a manage link, and anyone holding
the observe link can read the results. Polls are single or multiple choice,
and attributed or anonymous.

# Starting the Server

	DATABASE_URL=interpoll.db go run .

Or against PostgreSQL with flags:

	go run . -t pgx -d "postgres://..." -base-url https://polls.example.com

Settings are read from a .env file when present. See package cliparse for
the full list.

# Architecture

  - polls: the domain core (poll creation, ballots, tallying)
  - db: SQL store for SQLite and PostgreSQL
  - mailer: invitation emails (log, SMTP, Redis outbox)
  - handlers, router, middleware: the HTTP surface
  - auth: capability tokens and record IDs
  - metrics, telemetry: Prometheus counters and OpenTelemetry spans
  - cliparse: configuration
*/
package main
