// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/interpoll/auth"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/polls"
)

var _ polls.PollStore = (*Store)(nil)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation
const uniqueViolation = "23505"

// querier is satisfied by both *sql.DB and *sql.Tx
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the SQL implementation of polls.PollStore. Each WithTx call
// acquires its own transaction from the pool.
type Store struct {
	ops
	db *sql.DB
}

// NewStore wraps an open database. dbType selects the placeholder style.
func NewStore(db *sql.DB, dbType string) *Store {
	dollar := dbType == TypePostgres || dbType == TypePGX
	return &Store{ops: ops{q: db, dollar: dollar}, db: db}
}

// WithTx runs fn inside a transaction, committing only if fn succeeds
func (s *Store) WithTx(ctx context.Context, fn func(tx polls.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ops{q: tx, dollar: s.dollar}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DB exposes the underlying sql.DB for tests
func (s *Store) DB() *sql.DB { return s.db }

// ops implements polls.Tx on a pool or a transaction
type ops struct {
	q      querier
	dollar bool
}

// rebind turns ? placeholders into $1, $2, ... for PostgreSQL
func (o ops) rebind(query string) string {
	if !o.dollar {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (o ops) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return o.q.ExecContext(ctx, o.rebind(query), args...)
}

func (o ops) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return o.q.QueryContext(ctx, o.rebind(query), args...)
}

func (o ops) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return o.q.QueryRowContext(ctx, o.rebind(query), args...)
}

// isUniqueViolation recognizes unique constraint errors from all three drivers
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		switch code := liteErr.Code(); code {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return true
		case sqlite3.SQLITE_CONSTRAINT:
			// primary code only when extended codes are off
			return strings.Contains(liteErr.Error(), "UNIQUE constraint failed")
		}
	}
	return false
}

func insertErr(what string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("failed to insert %s: %w: %v", what, polls.ErrConflict, err)
	}
	return fmt.Errorf("failed to insert %s: %w", what, err)
}

func (o ops) CreatePoll(ctx context.Context, poll models.Poll) (string, error) {
	id := auth.NewID()
	createdAt := poll.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := o.exec(ctx, `
		INSERT INTO poll (id, title, description, manage_token, observe_token,
		                  is_anonymous, is_multiple, creator_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, id, poll.Title, poll.Description, poll.ManageToken, poll.ObserveToken,
		poll.IsAnonymous, poll.AllowsMultipleChoices, poll.CreatorEmail, createdAt)
	if err != nil {
		return "", insertErr("poll", err)
	}
	return id, nil
}

func (o ops) AddChoice(ctx context.Context, pollID, title string, position int) (string, error) {
	id := auth.NewID()
	_, err := o.exec(ctx, `
		INSERT INTO choice (id, poll_id, title, sort_order)
		VALUES (?, ?, ?, ?)
	`, id, pollID, title, position)
	if err != nil {
		return "", insertErr("choice", err)
	}
	return id, nil
}

func (o ops) AddParticipant(ctx context.Context, pollID, name, email, voteToken string, position int) (string, error) {
	id := auth.NewID()
	_, err := o.exec(ctx, `
		INSERT INTO participant (id, poll_id, voter_name, voter_email, vote_token, voted, sort_order)
		VALUES (?, ?, ?, ?, ?, FALSE, ?)
	`, id, pollID, name, email, voteToken, position)
	if err != nil {
		return "", insertErr("participant", err)
	}
	return id, nil
}

// AddAnonymousParticipant enrolls a participant that is only known by
// its vote token
func (o ops) AddAnonymousParticipant(ctx context.Context, pollID, voteToken string, position int) (string, error) {
	id := auth.NewID()
	_, err := o.exec(ctx, `
		INSERT INTO participant (id, poll_id, vote_token, voted, sort_order)
		VALUES (?, ?, ?, FALSE, ?)
	`, id, pollID, voteToken, position)
	if err != nil {
		return "", insertErr("participant", err)
	}
	return id, nil
}

func (o ops) GetPollInfo(ctx context.Context, pollID string) (models.PollInfo, error) {
	var info models.PollInfo
	err := o.queryRow(ctx, `
		SELECT id, title, description, is_anonymous, is_multiple
		FROM poll
		WHERE id = ?
	`, pollID).Scan(&info.ID, &info.Title, &info.Description, &info.IsAnonymous, &info.AllowsMultipleChoices)
	if err == sql.ErrNoRows {
		return models.PollInfo{}, polls.ErrNotFound
	}
	if err != nil {
		return models.PollInfo{}, fmt.Errorf("failed to query poll: %w", err)
	}

	rows, err := o.query(ctx, `
		SELECT id, poll_id, title, sort_order
		FROM choice
		WHERE poll_id = ?
		ORDER BY sort_order
	`, pollID)
	if err != nil {
		return models.PollInfo{}, fmt.Errorf("failed to query choices: %w", err)
	}
	defer rows.Close()

	info.Choices = []models.Choice{}
	for rows.Next() {
		var c models.Choice
		if err := rows.Scan(&c.ID, &c.PollID, &c.Title, &c.Position); err != nil {
			return models.PollInfo{}, fmt.Errorf("failed to scan choice: %w", err)
		}
		info.Choices = append(info.Choices, c)
	}
	if err := rows.Err(); err != nil {
		return models.PollInfo{}, fmt.Errorf("failed to iterate choices: %w", err)
	}

	return info, nil
}

func (o ops) ResolveVoteToken(ctx context.Context, voteToken string) (string, string, error) {
	var pollID, participantID string
	err := o.queryRow(ctx, `
		SELECT poll_id, id FROM participant WHERE vote_token = ?
	`, voteToken).Scan(&pollID, &participantID)
	if err == sql.ErrNoRows {
		return "", "", polls.ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to query participant: %w", err)
	}
	return pollID, participantID, nil
}

func (o ops) GetVotedFlag(ctx context.Context, pollID, participantID string) (bool, error) {
	var voted bool
	err := o.queryRow(ctx, `
		SELECT voted FROM participant WHERE id = ? AND poll_id = ?
	`, participantID, pollID).Scan(&voted)
	if err == sql.ErrNoRows {
		return false, polls.ErrNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to query voted flag: %w", err)
	}
	return voted, nil
}

func (o ops) ResolveObserveToken(ctx context.Context, observeToken string) (string, error) {
	var pollID string
	err := o.queryRow(ctx, `
		SELECT id FROM poll WHERE observe_token = ?
	`, observeToken).Scan(&pollID)
	if err == sql.ErrNoRows {
		return "", polls.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query poll: %w", err)
	}
	return pollID, nil
}

func (o ops) ResolveManageToken(ctx context.Context, manageToken string) (models.Poll, error) {
	var p models.Poll
	err := o.queryRow(ctx, `
		SELECT id, title, description, manage_token, observe_token,
		       is_anonymous, is_multiple, creator_email
		FROM poll
		WHERE manage_token = ?
	`, manageToken).Scan(&p.ID, &p.Title, &p.Description, &p.ManageToken, &p.ObserveToken,
		&p.IsAnonymous, &p.AllowsMultipleChoices, &p.CreatorEmail)
	if err == sql.ErrNoRows {
		return models.Poll{}, polls.ErrNotFound
	}
	if err != nil {
		return models.Poll{}, fmt.Errorf("failed to query poll: %w", err)
	}
	return p, nil
}

func (o ops) CastBallot(ctx context.Context, ballot models.Ballot) error {
	id := ballot.ID
	if id == "" {
		id = auth.NewID()
	}
	castAt := ballot.CastAt
	if castAt.IsZero() {
		castAt = time.Now().UTC()
	}

	_, err := o.exec(ctx, `
		INSERT INTO ballot (id, vote_id, choice_id, cast_at)
		VALUES (?, ?, ?, ?)
	`, id, ballot.VoteID, ballot.ChoiceID, castAt)
	if err != nil {
		return insertErr("ballot", err)
	}
	return nil
}

// MarkVoted is a compare-and-set on the voted flag. A concurrent caller
// blocked on the same row sees the committed flag and updates nothing.
func (o ops) MarkVoted(ctx context.Context, pollID, participantID string) (bool, error) {
	res, err := o.exec(ctx, `
		UPDATE participant
		SET voted = TRUE
		WHERE id = ? AND poll_id = ? AND voted = FALSE
	`, participantID, pollID)
	if err != nil {
		return false, fmt.Errorf("failed to mark voted: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

func (o ops) GetAttributedResults(ctx context.Context, pollID string) ([]models.AttributedVote, error) {
	rows, err := o.query(ctx, `
		SELECT c.id, c.title, p.id, COALESCE(p.voter_name, '')
		FROM ballot b
		JOIN participant p ON b.vote_id = p.id
		JOIN choice c ON b.choice_id = c.id
		WHERE c.poll_id = ? AND p.poll_id = ?
		ORDER BY c.sort_order, p.sort_order
	`, pollID, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributed results: %w", err)
	}
	defer rows.Close()

	results := []models.AttributedVote{}
	for rows.Next() {
		var r models.AttributedVote
		if err := rows.Scan(&r.ChoiceID, &r.ChoiceTitle, &r.ParticipantID, &r.VoterName); err != nil {
			return nil, fmt.Errorf("failed to scan attributed result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attributed results: %w", err)
	}
	return results, nil
}

func (o ops) GetAnonymousResults(ctx context.Context, pollID string) ([]models.ChoiceCount, error) {
	rows, err := o.query(ctx, `
		SELECT c.id, c.title, COUNT(b.id)
		FROM choice c
		LEFT JOIN ballot b ON b.choice_id = c.id
		WHERE c.poll_id = ?
		GROUP BY c.id, c.title, c.sort_order
		ORDER BY c.sort_order
	`, pollID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.ChoiceCount{}
	for rows.Next() {
		var r models.ChoiceCount
		if err := rows.Scan(&r.ChoiceID, &r.ChoiceTitle, &r.VoteCount); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}

func (o ops) GetParticipationCounts(ctx context.Context, pollID string) (int, int, error) {
	var total, voted int
	err := o.queryRow(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN voted THEN 1 ELSE 0 END), 0)
		FROM participant
		WHERE poll_id = ?
	`, pollID).Scan(&total, &voted)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count participants: %w", err)
	}
	return total, voted, nil
}
