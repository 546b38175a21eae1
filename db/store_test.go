// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/interpoll/db"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/polls"
	"github.com/danielhkuo/interpoll/testutil"
)

func newPoll(manage, observe string, anonymous bool) models.Poll {
	return models.Poll{
		Title:        "Test Poll",
		Description:  "A test poll",
		ManageToken:  manage,
		ObserveToken: observe,
		IsAnonymous:  anonymous,
		CreatorEmail: "org@example.com",
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	conn := testutil.SetupTestDB(t)

	if err := db.CreateSchema(context.Background(), conn); err != nil {
		t.Fatalf("second CreateSchema failed: %v", err)
	}
}

func TestOpen_UnknownType(t *testing.T) {
	_, err := db.Open(context.Background(), "mysql", "whatever")
	if !errors.Is(err, db.ErrUnknownType) {
		t.Errorf("Expected ErrUnknownType, got %v", err)
	}
}

func TestStore_PollRoundTrip(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	pollID, err := store.CreatePoll(ctx, newPoll("m1", "o1", false))
	if err != nil {
		t.Fatalf("CreatePoll failed: %v", err)
	}

	for i, title := range []string{"Second", "First"} {
		// positions deliberately reversed against insertion order
		if _, err := store.AddChoice(ctx, pollID, title, 1-i); err != nil {
			t.Fatalf("AddChoice failed: %v", err)
		}
	}

	info, err := store.GetPollInfo(ctx, pollID)
	if err != nil {
		t.Fatalf("GetPollInfo failed: %v", err)
	}
	if info.Title != "Test Poll" || info.IsAnonymous || info.AllowsMultipleChoices {
		t.Errorf("Unexpected poll info: %+v", info)
	}
	if len(info.Choices) != 2 || info.Choices[0].Title != "First" || info.Choices[1].Title != "Second" {
		t.Errorf("Choices should be ordered by position, got %+v", info.Choices)
	}

	got, err := store.ResolveManageToken(ctx, "m1")
	if err != nil {
		t.Fatalf("ResolveManageToken failed: %v", err)
	}
	if got.ID != pollID || got.ObserveToken != "o1" || got.CreatorEmail != "org@example.com" {
		t.Errorf("Unexpected poll: %+v", got)
	}

	observed, err := store.ResolveObserveToken(ctx, "o1")
	if err != nil || observed != pollID {
		t.Errorf("ResolveObserveToken = %q, %v", observed, err)
	}
}

func TestStore_NotFound(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	checks := map[string]error{}
	_, _, checks["vote token"] = store.ResolveVoteToken(ctx, "nope")
	_, checks["observe token"] = store.ResolveObserveToken(ctx, "nope")
	_, checks["manage token"] = store.ResolveManageToken(ctx, "nope")
	_, checks["poll info"] = store.GetPollInfo(ctx, "nope")
	_, checks["voted flag"] = store.GetVotedFlag(ctx, "nope", "nope")

	for name, err := range checks {
		if !errors.Is(err, polls.ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", name, err)
		}
	}
}

func TestStore_DuplicateTokenIsConflict(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	pollID, err := store.CreatePoll(ctx, newPoll("m1", "o1", false))
	if err != nil {
		t.Fatal(err)
	}

	_, err = store.CreatePoll(ctx, newPoll("m1", "o2", false))
	if !errors.Is(err, polls.ErrConflict) {
		t.Errorf("duplicate manage token: expected ErrConflict, got %v", err)
	}

	if _, err := store.AddParticipant(ctx, pollID, "Alice", "a@x", "v1", 0); err != nil {
		t.Fatal(err)
	}
	_, err = store.AddAnonymousParticipant(ctx, pollID, "v1", 1)
	if !errors.Is(err, polls.ErrConflict) {
		t.Errorf("duplicate vote token: expected ErrConflict, got %v", err)
	}
}

func TestStore_MarkVotedIsCompareAndSet(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	pollID, _ := store.CreatePoll(ctx, newPoll("m1", "o1", false))
	participantID, err := store.AddParticipant(ctx, pollID, "Alice", "a@x", "v1", 0)
	if err != nil {
		t.Fatal(err)
	}

	voted, err := store.GetVotedFlag(ctx, pollID, participantID)
	if err != nil || voted {
		t.Fatalf("new participant should not have voted: %v %v", voted, err)
	}

	first, err := store.MarkVoted(ctx, pollID, participantID)
	if err != nil || !first {
		t.Fatalf("first MarkVoted should claim: %v %v", first, err)
	}
	second, err := store.MarkVoted(ctx, pollID, participantID)
	if err != nil || second {
		t.Fatalf("second MarkVoted should not claim: %v %v", second, err)
	}

	voted, _ = store.GetVotedFlag(ctx, pollID, participantID)
	if !voted {
		t.Error("voted flag should be set")
	}
}

func TestStore_VotedFlagScopedToPoll(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	pollA, _ := store.CreatePoll(ctx, newPoll("m1", "o1", false))
	pollB, _ := store.CreatePoll(ctx, newPoll("m2", "o2", false))
	alice, err := store.AddParticipant(ctx, pollA, "Alice", "a@x", "v1", 0)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := store.GetVotedFlag(ctx, pollB, alice); !errors.Is(err, polls.ErrNotFound) {
		t.Errorf("voted flag under the wrong poll: expected ErrNotFound, got %v", err)
	}

	claimed, err := store.MarkVoted(ctx, pollB, alice)
	if err != nil || claimed {
		t.Fatalf("MarkVoted under the wrong poll should not claim: %v %v", claimed, err)
	}

	voted, _ := store.GetVotedFlag(ctx, pollA, alice)
	if voted {
		t.Error("voted flag should be untouched")
	}
}

func TestStore_WithTxRollsBack(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(tx polls.Tx) error {
		if _, err := tx.CreatePoll(ctx, newPoll("m1", "o1", false)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Expected boom, got %v", err)
	}

	if _, err := store.ResolveManageToken(ctx, "m1"); !errors.Is(err, polls.ErrNotFound) {
		t.Errorf("poll should have been rolled back, got %v", err)
	}
}

func TestStore_Results(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	pollID, _ := store.CreatePoll(ctx, newPoll("m1", "o1", false))
	pizza, _ := store.AddChoice(ctx, pollID, "Pizza", 0)
	salad, _ := store.AddChoice(ctx, pollID, "Salad", 1)
	alice, _ := store.AddParticipant(ctx, pollID, "Alice", "a@x", "v1", 0)
	if _, err := store.AddParticipant(ctx, pollID, "Bob", "b@x", "v2", 1); err != nil {
		t.Fatal(err)
	}

	info, _ := store.GetPollInfo(ctx, pollID)
	if err := store.CastBallot(ctx, models.NewBallot(info, alice, pizza)); err != nil {
		t.Fatal(err)
	}
	if _, err := store.MarkVoted(ctx, pollID, alice); err != nil {
		t.Fatal(err)
	}

	counts, err := store.GetAnonymousResults(ctx, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if len(counts) != 2 {
		t.Fatalf("Expected a row per choice, got %+v", counts)
	}
	if counts[0].ChoiceID != pizza || counts[0].VoteCount != 1 {
		t.Errorf("Unexpected Pizza count: %+v", counts[0])
	}
	if counts[1].ChoiceID != salad || counts[1].VoteCount != 0 {
		t.Errorf("Unexpected Salad count: %+v", counts[1])
	}

	attributed, err := store.GetAttributedResults(ctx, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if len(attributed) != 1 || attributed[0].VoterName != "Alice" || attributed[0].ParticipantID != alice {
		t.Errorf("Unexpected attributed rows: %+v", attributed)
	}

	total, voted, err := store.GetParticipationCounts(ctx, pollID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || voted != 1 {
		t.Errorf("Expected 2 total / 1 voted, got %d / %d", total, voted)
	}
}

func TestStore_AnonymousBallotHasNoVoter(t *testing.T) {
	store := testutil.SetupTestStore(t)
	ctx := context.Background()

	pollID, _ := store.CreatePoll(ctx, newPoll("m1", "o1", true))
	red, _ := store.AddChoice(ctx, pollID, "Red", 0)
	p, _ := store.AddAnonymousParticipant(ctx, pollID, "v1", 0)

	info, _ := store.GetPollInfo(ctx, pollID)
	if err := store.CastBallot(ctx, models.NewBallot(info, p, red)); err != nil {
		t.Fatal(err)
	}

	var linked int
	if err := store.DB().QueryRow(`SELECT COUNT(*) FROM ballot WHERE vote_id IS NOT NULL`).Scan(&linked); err != nil {
		t.Fatal(err)
	}
	if linked != 0 {
		t.Errorf("anonymous ballot should not reference a participant, found %d", linked)
	}

	// counts still include the ballot
	counts, _ := store.GetAnonymousResults(ctx, pollID)
	if len(counts) != 1 || counts[0].VoteCount != 1 {
		t.Errorf("Unexpected counts: %+v", counts)
	}
}
