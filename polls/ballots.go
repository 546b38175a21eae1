// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/danielhkuo/interpoll/metrics"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/telemetry"
)

// BallotProcessor casts ballots for participants. A participant moves from
// not-voted to voted exactly once.
type BallotProcessor struct {
	store PollStore
}

func NewBallotProcessor(store PollStore) *BallotProcessor {
	return &BallotProcessor{store: store}
}

// ResolveVoter maps a vote token to its poll and participant
func (p *BallotProcessor) ResolveVoter(ctx context.Context, voteToken string) (pollID, participantID string, err error) {
	if voteToken == "" {
		return "", "", ErrNotFound
	}
	pollID, participantID, err = p.store.ResolveVoteToken(ctx, voteToken)
	if err != nil {
		return "", "", storageErr("resolve vote token", err)
	}
	return pollID, participantID, nil
}

// CheckEligibility returns the participant's current voted flag. A
// participant outside pollID is ErrNotFound.
func (p *BallotProcessor) CheckEligibility(ctx context.Context, pollID, participantID string) (bool, error) {
	voted, err := p.store.GetVotedFlag(ctx, pollID, participantID)
	if err != nil {
		return false, storageErr("read voted flag", err)
	}
	return voted, nil
}

// BallotForm returns what a participant needs to fill in their ballot.
// It fails with ErrAlreadyVoted once the participant has voted.
func (p *BallotProcessor) BallotForm(ctx context.Context, voteToken string) (models.BallotForm, error) {
	pollID, participantID, err := p.ResolveVoter(ctx, voteToken)
	if err != nil {
		return models.BallotForm{}, err
	}

	voted, err := p.CheckEligibility(ctx, pollID, participantID)
	if err != nil {
		return models.BallotForm{}, err
	}
	if voted {
		return models.BallotForm{}, ErrAlreadyVoted
	}

	info, err := p.store.GetPollInfo(ctx, pollID)
	if err != nil {
		return models.BallotForm{}, storageErr("read poll", err)
	}
	return models.BallotForm{Poll: info}, nil
}

// ValidateSelections checks selections against the poll's mode and choice set
func ValidateSelections(poll models.PollInfo, selections []string) error {
	if len(selections) == 0 {
		return &InvalidBallotError{Reason: "no choice selected"}
	}
	if !poll.AllowsMultipleChoices && len(selections) != 1 {
		return &InvalidBallotError{Reason: "exactly one choice must be selected"}
	}

	seen := make(map[string]bool, len(selections))
	for _, id := range selections {
		if seen[id] {
			return &InvalidBallotError{Reason: "choice selected more than once"}
		}
		seen[id] = true

		if !poll.HasChoice(id) {
			return &InvalidBallotError{Reason: "unknown choice " + id}
		}
	}
	return nil
}

// CastBallot records the participant's selections and marks them voted.
// The eligibility check, the voted flag flip and every ballot row are one
// transaction; concurrent casts for the same participant leave exactly one
// winner and the rest fail with ErrAlreadyVoted.
func (p *BallotProcessor) CastBallot(ctx context.Context, participantID, pollID string, selections []string) (err error) {
	start := time.Now()
	ctx, span := telemetry.Start(ctx, "polls.CastBallot")
	defer func() {
		telemetry.End(span, err)
		metrics.ObserveSince("cast_ballot", start)
		recordRejection(err)
	}()

	var mode string
	err = p.store.WithTx(ctx, func(tx Tx) error {
		voted, err := tx.GetVotedFlag(ctx, pollID, participantID)
		if err != nil {
			return err
		}
		if voted {
			return ErrAlreadyVoted
		}

		poll, err := tx.GetPollInfo(ctx, pollID)
		if err != nil {
			return err
		}
		if err := ValidateSelections(poll, selections); err != nil {
			return err
		}

		claimed, err := tx.MarkVoted(ctx, pollID, participantID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrAlreadyVoted
		}

		for _, choiceID := range selections {
			if err := tx.CastBallot(ctx, models.NewBallot(poll, participantID, choiceID)); err != nil {
				return err
			}
		}

		mode = poll.Mode()
		return nil
	})
	if err != nil {
		return storageErr("cast ballot", err)
	}

	metrics.BallotsCast.WithLabelValues(mode).Inc()
	slog.Info("ballot cast", "poll_id", pollID, "mode", mode, "selections", len(selections))
	return nil
}

// Vote resolves voteToken and casts its ballot
func (p *BallotProcessor) Vote(ctx context.Context, voteToken string, selections []string) error {
	pollID, participantID, err := p.ResolveVoter(ctx, voteToken)
	if err != nil {
		recordRejection(err)
		return err
	}
	return p.CastBallot(ctx, participantID, pollID, selections)
}

func recordRejection(err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		metrics.BallotRejections.WithLabelValues(metrics.ReasonNotFound).Inc()
	case errors.Is(err, ErrAlreadyVoted):
		metrics.BallotRejections.WithLabelValues(metrics.ReasonAlreadyVoted).Inc()
	case errors.Is(err, ErrInvalidBallot):
		metrics.BallotRejections.WithLabelValues(metrics.ReasonInvalid).Inc()
	}
}
