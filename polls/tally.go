// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"time"

	"github.com/danielhkuo/interpoll/metrics"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/telemetry"
)

// TallyEngine computes poll results
type TallyEngine struct {
	store PollStore
}

func NewTallyEngine(store PollStore) *TallyEngine {
	return &TallyEngine{store: store}
}

// GetResults counts ballots per choice in creation order, with zero counts
// for choices nobody picked. Attributed rows are only read for polls that
// are not anonymous.
func (e *TallyEngine) GetResults(ctx context.Context, pollID string) (results models.ResultSet, err error) {
	start := time.Now()
	ctx, span := telemetry.Start(ctx, "polls.GetResults")
	defer func() {
		telemetry.End(span, err)
		metrics.ObserveSince("get_results", start)
	}()

	err = e.store.WithTx(ctx, func(tx Tx) error {
		poll, err := tx.GetPollInfo(ctx, pollID)
		if err != nil {
			return err
		}

		rows, err := tx.GetAnonymousResults(ctx, pollID)
		if err != nil {
			return err
		}

		var attributed []models.AttributedVote
		if !poll.IsAnonymous {
			if attributed, err = tx.GetAttributedResults(ctx, pollID); err != nil {
				return err
			}
		}

		total, voted, err := tx.GetParticipationCounts(ctx, pollID)
		if err != nil {
			return err
		}

		results = models.ResultSet{
			Poll:         poll,
			Counts:       groupCounts(poll.Choices, rows),
			Attributed:   attributed,
			Total:        total,
			Participated: voted,
		}
		return nil
	})
	if err != nil {
		return models.ResultSet{}, storageErr("get results", err)
	}

	if results.Poll.IsAnonymous {
		results.Attributed = nil
	} else if results.Attributed == nil {
		results.Attributed = []models.AttributedVote{}
	}
	return results, nil
}

// groupCounts lays out one row per choice in choice order
func groupCounts(choices []models.Choice, rows []models.ChoiceCount) []models.ChoiceCount {
	byChoice := make(map[string]int, len(rows))
	for _, r := range rows {
		byChoice[r.ChoiceID] += r.VoteCount
	}

	counts := make([]models.ChoiceCount, 0, len(choices))
	for _, c := range choices {
		counts = append(counts, models.ChoiceCount{
			ChoiceID:    c.ID,
			ChoiceTitle: c.Title,
			VoteCount:   byChoice[c.ID],
		})
	}
	return counts
}

// AttributedResults returns who voted for what. Anonymous polls have no
// such view and fail with ErrAnonymousPoll.
func (e *TallyEngine) AttributedResults(ctx context.Context, pollID string) ([]models.AttributedVote, error) {
	poll, err := e.store.GetPollInfo(ctx, pollID)
	if err != nil {
		return nil, storageErr("read poll", err)
	}
	if poll.IsAnonymous {
		return nil, ErrAnonymousPoll
	}

	rows, err := e.store.GetAttributedResults(ctx, pollID)
	if err != nil {
		return nil, storageErr("read attributed results", err)
	}
	return rows, nil
}

// ResultsForObserver resolves an observe token and tallies its poll
func (e *TallyEngine) ResultsForObserver(ctx context.Context, observeToken string) (models.ResultSet, error) {
	if observeToken == "" {
		return models.ResultSet{}, ErrNotFound
	}
	pollID, err := e.store.ResolveObserveToken(ctx, observeToken)
	if err != nil {
		return models.ResultSet{}, storageErr("resolve observe token", err)
	}
	return e.GetResults(ctx, pollID)
}

// ManageSummary is the organizer's read-only view reached through the manage
// token. Polls cannot be edited after creation.
type ManageSummary struct {
	Poll         models.PollInfo
	ObserveToken string
	Total        int
	Participated int
}

// ManageView resolves a manage token to the poll and its participation
func (e *TallyEngine) ManageView(ctx context.Context, manageToken string) (ManageSummary, error) {
	if manageToken == "" {
		return ManageSummary{}, ErrNotFound
	}
	poll, err := e.store.ResolveManageToken(ctx, manageToken)
	if err != nil {
		return ManageSummary{}, storageErr("resolve manage token", err)
	}

	info, err := e.store.GetPollInfo(ctx, poll.ID)
	if err != nil {
		return ManageSummary{}, storageErr("read poll", err)
	}

	total, voted, err := e.store.GetParticipationCounts(ctx, poll.ID)
	if err != nil {
		return ManageSummary{}, storageErr("read participation", err)
	}

	return ManageSummary{
		Poll:         info,
		ObserveToken: poll.ObserveToken,
		Total:        total,
		Participated: voted,
	}, nil
}
