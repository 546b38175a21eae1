// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// The same DDL runs on SQLite and PostgreSQL.
const schema = `
-- Polls
CREATE TABLE IF NOT EXISTS poll (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    manage_token TEXT NOT NULL UNIQUE,
    observe_token TEXT NOT NULL UNIQUE,
    is_anonymous BOOLEAN NOT NULL DEFAULT FALSE,
    is_multiple BOOLEAN NOT NULL DEFAULT FALSE,
    creator_email TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CHECK (manage_token <> observe_token)
);

-- Choices
CREATE TABLE IF NOT EXISTS choice (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    sort_order INTEGER NOT NULL,
    UNIQUE (poll_id, sort_order)
);

CREATE INDEX IF NOT EXISTS idx_choice_poll_id ON choice(poll_id);

-- Participants (voter_name and voter_email stay NULL for anonymous polls)
CREATE TABLE IF NOT EXISTS participant (
    id TEXT PRIMARY KEY,
    poll_id TEXT NOT NULL REFERENCES poll(id) ON DELETE CASCADE,
    voter_name TEXT,
    voter_email TEXT,
    vote_token TEXT NOT NULL UNIQUE,
    voted BOOLEAN NOT NULL DEFAULT FALSE,
    sort_order INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_participant_poll_id ON participant(poll_id);

-- Ballots (vote_id stays NULL for anonymous polls)
CREATE TABLE IF NOT EXISTS ballot (
    id TEXT PRIMARY KEY,
    vote_id TEXT REFERENCES participant(id) ON DELETE CASCADE,
    choice_id TEXT NOT NULL REFERENCES choice(id) ON DELETE CASCADE,
    cast_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (vote_id, choice_id)
);

CREATE INDEX IF NOT EXISTS idx_ballot_choice_id ON ballot(choice_id);
CREATE INDEX IF NOT EXISTS idx_ballot_vote_id ON ballot(vote_id);
`
