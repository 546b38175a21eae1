// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database, creates the schema and implements
polls.PollStore.

# Drivers

	sqlite    modernc.org/sqlite (pure Go, single connection)
	postgres  github.com/lib/pq
	pgx       github.com/jackc/pgx/v5/stdlib

Queries are written with ? placeholders and rebound to $n for PostgreSQL.

# Tables

	poll 1──* choice
	poll 1──* participant
	participant 1──* ballot (vote_id, NULL on anonymous polls)
	choice 1──* ballot

Every token column is UNIQUE. A unique violation from any driver surfaces
as polls.ErrConflict so callers can retry with fresh tokens.

# Voting

MarkVoted only flips participant.voted from FALSE to TRUE, for a
participant of the given poll, and reports whether it did. Run inside the
ballot transaction, it lets exactly one concurrent caller win.
*/
package db
