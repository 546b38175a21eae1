// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/testutil"
)

func getResults(t *testing.T, env *testEnv, observeToken string) (models.ResultSet, string) {
	t.Helper()

	req := httptest.NewRequest("GET", "/results/"+observeToken, nil)
	req.SetPathValue("token", observeToken)
	w := httptest.NewRecorder()
	env.results.GetResults(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Get results failed: %d - %s", w.Code, w.Body.String())
	}

	raw := w.Body.String()
	var results models.ResultSet
	testutil.AssertJSON(t, w, &results)
	return results, raw
}

func TestGetResults_Attributed(t *testing.T) {
	env := newTestEnv(t)
	_, manage, votes := env.createPoll(t, lunchRequest())
	ids := choiceIDs(getBallotForm(t, env, votes[0].VoteToken))

	submitBallot(t, env, votes[0].VoteToken, []string{ids["Pizza"]}, http.StatusOK)

	results, _ := getResults(t, env, manage.ObserveToken)

	if len(results.Counts) != 2 {
		t.Fatalf("Expected 2 counts, got %d", len(results.Counts))
	}
	if results.Counts[0].ChoiceTitle != "Pizza" || results.Counts[0].VoteCount != 1 {
		t.Errorf("Unexpected Pizza count: %+v", results.Counts[0])
	}
	if results.Counts[1].ChoiceTitle != "Salad" || results.Counts[1].VoteCount != 0 {
		t.Errorf("Unexpected Salad count: %+v", results.Counts[1])
	}
	if len(results.Attributed) != 1 || results.Attributed[0].VoterName != "Alice" {
		t.Errorf("Expected Alice's vote to be attributed, got %+v", results.Attributed)
	}
	if results.Total != 2 || results.Participated != 1 {
		t.Errorf("Expected 2 total / 1 participated, got %d / %d", results.Total, results.Participated)
	}
}

func TestGetResults_AttributedBeforeAnyBallot(t *testing.T) {
	env := newTestEnv(t)
	_, manage, _ := env.createPoll(t, lunchRequest())

	results, raw := getResults(t, env, manage.ObserveToken)

	if !strings.Contains(raw, `"attributed":[]`) {
		t.Errorf("Attributed poll should carry an empty attributed list: %s", raw)
	}
	if results.Attributed == nil || len(results.Attributed) != 0 {
		t.Errorf("Expected an empty attributed list, got %#v", results.Attributed)
	}
	if results.Participated != 0 {
		t.Errorf("Expected no participation yet, got %d", results.Participated)
	}
}

func TestGetResults_AnonymousOmitsAttribution(t *testing.T) {
	env := newTestEnv(t)
	req := lunchRequest()
	req.IsAnonymous = true
	_, manage, votes := env.createPoll(t, req)
	ids := choiceIDs(getBallotForm(t, env, votes[0].VoteToken))

	submitBallot(t, env, votes[0].VoteToken, []string{ids["Salad"]}, http.StatusOK)

	results, raw := getResults(t, env, manage.ObserveToken)

	if results.Attributed != nil {
		t.Errorf("Anonymous poll must not return attributed rows: %+v", results.Attributed)
	}
	if strings.Contains(raw, "attributed") || strings.Contains(raw, "Alice") {
		t.Errorf("Response leaks voter identity: %s", raw)
	}
	if results.Counts[1].VoteCount != 1 {
		t.Errorf("Expected Salad: 1, got %+v", results.Counts)
	}
}

func TestGetResults_UnknownToken(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/results/bogus", nil)
	req.SetPathValue("token", "bogus")
	w := httptest.NewRecorder()
	env.results.GetResults(w, req)

	testutil.AssertStatus(t, w, http.StatusNotFound)
}
