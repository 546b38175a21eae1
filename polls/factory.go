// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package polls

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/danielhkuo/interpoll/auth"
	"github.com/danielhkuo/interpoll/metrics"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/telemetry"
)

// maxCreateAttempts bounds retries after a token collision
const maxCreateAttempts = 3

// Factory validates organizer input and persists new polls
type Factory struct {
	store    PollStore
	issuer   auth.Issuer
	notifier Notifier
}

// NewFactory returns a Factory. notifier may be nil, in which case no
// invitations are sent.
func NewFactory(store PollStore, issuer auth.Issuer, notifier Notifier) *Factory {
	return &Factory{store: store, issuer: issuer, notifier: notifier}
}

// ParseChoices splits organizer text into choice titles, one per line.
// Blank lines are dropped.
func ParseChoices(text string) []string {
	var choices []string
	for _, line := range splitLines(text) {
		if line = strings.TrimSpace(line); line != "" {
			choices = append(choices, line)
		}
	}
	return choices
}

// ParseParticipants splits organizer text into participants, one per line.
// Each line is "<name> <email>", split on the last whitespace run. A line
// with a single token uses it as both name and email.
func ParseParticipants(text string) []models.ParticipantInput {
	var participants []models.ParticipantInput
	for _, line := range splitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		i := strings.LastIndexFunc(line, unicode.IsSpace)
		if i < 0 {
			participants = append(participants, models.ParticipantInput{Name: line, Email: line})
			continue
		}
		participants = append(participants, models.ParticipantInput{
			Name:  strings.TrimSpace(line[:i]),
			Email: strings.TrimSpace(line[i:]),
		})
	}
	return participants
}

// title and email end up in mail headers
func hasLineBreak(s string) bool {
	return strings.ContainsAny(s, "\r\n")
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

// Validate checks organizer input in form order and returns the parsed
// choices and participants.
func Validate(in models.CreatePollInput) ([]string, []models.ParticipantInput, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, nil, &ValidationError{Field: "title", Message: "Title is required"}
	}
	if hasLineBreak(in.Title) {
		return nil, nil, &ValidationError{Field: "title", Message: "Title must be a single line"}
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, nil, &ValidationError{Field: "description", Message: "Description is required"}
	}
	choices := ParseChoices(in.Choices)
	if len(choices) == 0 {
		return nil, nil, &ValidationError{Field: "choices", Message: "Choices are required"}
	}
	if strings.TrimSpace(in.CreatorEmail) == "" {
		return nil, nil, &ValidationError{Field: "email", Message: "Email is required"}
	}
	if hasLineBreak(in.CreatorEmail) {
		return nil, nil, &ValidationError{Field: "email", Message: "Email must be a single line"}
	}
	participants := ParseParticipants(in.Participants)
	if len(participants) == 0 {
		return nil, nil, &ValidationError{Field: "participants", Message: "Participants are required"}
	}
	return choices, participants, nil
}

// CreatePoll validates in, persists the poll with its choices and roster in
// a single transaction, then sends the manage and vote invitations.
func (f *Factory) CreatePoll(ctx context.Context, in models.CreatePollInput) (created models.CreatedPoll, err error) {
	start := time.Now()
	ctx, span := telemetry.Start(ctx, "polls.CreatePoll")
	defer func() {
		telemetry.End(span, err)
		metrics.ObserveSince("create_poll", start)
	}()

	choices, participants, err := Validate(in)
	if err != nil {
		return models.CreatedPoll{}, err
	}

	poll := models.Poll{
		Title:                 strings.TrimSpace(in.Title),
		Description:           strings.TrimSpace(in.Description),
		CreatorEmail:          strings.TrimSpace(in.CreatorEmail),
		IsAnonymous:           in.IsAnonymous,
		AllowsMultipleChoices: in.AllowsMultipleChoices,
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		created, err = f.persist(ctx, poll, choices, participants)
		if !errors.Is(err, ErrConflict) {
			break
		}
		slog.Warn("token collision while creating poll, retrying", "attempt", attempt)
	}
	if err != nil {
		return models.CreatedPoll{}, err
	}

	metrics.PollsCreated.Inc()
	slog.Info("poll created",
		"poll_id", created.PollID,
		"choices", len(choices),
		"participants", len(participants),
		"anonymous", poll.IsAnonymous,
		"multiple", poll.AllowsMultipleChoices,
	)

	f.notify(ctx, created, poll, participants)

	return created, nil
}

func (f *Factory) persist(ctx context.Context, poll models.Poll, choices []string, participants []models.ParticipantInput) (models.CreatedPoll, error) {
	var created models.CreatedPoll
	var err error

	if poll.ManageToken, err = f.issuer.Issue(); err != nil {
		return created, fmt.Errorf("issue manage token: %w", err)
	}
	if poll.ObserveToken, err = f.issuer.Issue(); err != nil {
		return created, fmt.Errorf("issue observe token: %w", err)
	}
	voteTokens := make([]string, len(participants))
	for i := range participants {
		if voteTokens[i], err = f.issuer.Issue(); err != nil {
			return created, fmt.Errorf("issue vote token: %w", err)
		}
	}
	poll.CreatedAt = time.Now().UTC()

	err = f.store.WithTx(ctx, func(tx Tx) error {
		pollID, err := tx.CreatePoll(ctx, poll)
		if err != nil {
			return err
		}

		for i, title := range choices {
			if _, err := tx.AddChoice(ctx, pollID, title, i); err != nil {
				return err
			}
		}

		for i, p := range participants {
			if poll.IsAnonymous {
				_, err = tx.AddAnonymousParticipant(ctx, pollID, voteTokens[i], i)
			} else {
				_, err = tx.AddParticipant(ctx, pollID, p.Name, p.Email, voteTokens[i], i)
			}
			if err != nil {
				return err
			}
		}

		created.PollID = pollID
		return nil
	})
	if err != nil {
		return models.CreatedPoll{}, storageErr("create poll", err)
	}

	created.ManageToken = poll.ManageToken
	created.ObserveToken = poll.ObserveToken
	created.VoteTokens = voteTokens
	return created, nil
}

func (f *Factory) notify(ctx context.Context, created models.CreatedPoll, poll models.Poll, participants []models.ParticipantInput) {
	if f.notifier == nil {
		return
	}

	if err := f.notifier.SendManageNotification(ctx, poll.CreatorEmail, created.ManageToken, created.ObserveToken, poll.Title); err != nil {
		metrics.NotificationFailures.WithLabelValues(metrics.KindManage).Inc()
		slog.Warn("failed to send manage notification", "error", err, "poll_id", created.PollID)
	}

	for i, p := range participants {
		if err := f.notifier.SendVoteNotification(ctx, p.Email, created.VoteTokens[i], poll.Title); err != nil {
			metrics.NotificationFailures.WithLabelValues(metrics.KindVote).Inc()
			slog.Warn("failed to send vote notification", "error", err, "poll_id", created.PollID)
		}
	}
}
