// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"

	"github.com/danielhkuo/interpoll/models"
)

// Tx is the set of persistence operations the core needs. Lookups by token
// or id return ErrNotFound when nothing matches; unique constraint
// violations are reported as ErrConflict.
type Tx interface {
	CreatePoll(ctx context.Context, poll models.Poll) (string, error)
	AddChoice(ctx context.Context, pollID, title string, position int) (string, error)
	AddParticipant(ctx context.Context, pollID, name, email, voteToken string, position int) (string, error)
	AddAnonymousParticipant(ctx context.Context, pollID, voteToken string, position int) (string, error)

	GetPollInfo(ctx context.Context, pollID string) (models.PollInfo, error)
	ResolveVoteToken(ctx context.Context, voteToken string) (pollID, participantID string, err error)
	// GetVotedFlag reports ErrNotFound unless participantID belongs to pollID.
	GetVotedFlag(ctx context.Context, pollID, participantID string) (bool, error)
	ResolveObserveToken(ctx context.Context, observeToken string) (string, error)
	ResolveManageToken(ctx context.Context, manageToken string) (models.Poll, error)

	CastBallot(ctx context.Context, ballot models.Ballot) error
	// MarkVoted flips the participant's voted flag if it is still false and
	// the participant belongs to pollID, and reports whether this call
	// performed the flip.
	MarkVoted(ctx context.Context, pollID, participantID string) (bool, error)

	GetAttributedResults(ctx context.Context, pollID string) ([]models.AttributedVote, error)
	GetAnonymousResults(ctx context.Context, pollID string) ([]models.ChoiceCount, error)
	GetParticipationCounts(ctx context.Context, pollID string) (total, voted int, err error)
}

// PollStore runs Tx operations either directly or inside a transaction.
// WithTx commits when fn returns nil and rolls back otherwise.
type PollStore interface {
	Tx
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Notifier delivers invitations. Failures never undo poll creation.
type Notifier interface {
	SendManageNotification(ctx context.Context, to, manageToken, observeToken, title string) error
	SendVoteNotification(ctx context.Context, to, voteToken, title string) error
}
