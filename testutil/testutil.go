// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/danielhkuo/interpoll/auth"
	"github.com/danielhkuo/interpoll/cliparse"
	"github.com/danielhkuo/interpoll/db"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/polls"
)

// TestDBURL is an in-memory SQLite database. It lives as long as the pool's
// single connection.
const TestDBURL = ":memory:"

// TestBaseURL prefixes links in test emails and responses
const TestBaseURL = "http://interpoll.test"

// SetupTestDB opens a fresh in-memory database with the full schema
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.TypeSQLite, TestDBURL)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// SetupTestStore wraps SetupTestDB in a db.Store
func SetupTestStore(t *testing.T) *db.Store {
	t.Helper()
	return db.NewStore(SetupTestDB(t), db.TypeSQLite)
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:           5000,
		DatabaseURL:    TestDBURL,
		DatabaseType:   db.TypeSQLite,
		BaseURL:        TestBaseURL,
		MailTransport:  cliparse.MailLog,
		RateLimitRPS:   1000,
		RateLimitBurst: 1000,
		ServiceName:    "interpoll-test",
	}
}

// Notification is one message captured by RecordingNotifier
type Notification struct {
	Kind         string // "manage" or "vote"
	To           string
	Title        string
	ManageToken  string
	ObserveToken string
	VoteToken    string
}

var ErrNotifierDown = errors.New("notifier down")

// RecordingNotifier captures notifications instead of sending them. When
// Fail is set every send returns ErrNotifierDown.
type RecordingNotifier struct {
	mu   sync.Mutex
	Sent []Notification
	Fail bool
}

func (n *RecordingNotifier) SendManageNotification(_ context.Context, to, manageToken, observeToken, title string) error {
	return n.record(Notification{Kind: "manage", To: to, Title: title, ManageToken: manageToken, ObserveToken: observeToken})
}

func (n *RecordingNotifier) SendVoteNotification(_ context.Context, to, voteToken, title string) error {
	return n.record(Notification{Kind: "vote", To: to, Title: title, VoteToken: voteToken})
}

func (n *RecordingNotifier) record(msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Fail {
		return ErrNotifierDown
	}
	n.Sent = append(n.Sent, msg)
	return nil
}

// Kind returns the captured notifications of one kind in send order
func (n *RecordingNotifier) Kind(kind string) []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Notification
	for _, s := range n.Sent {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// TestPoll is a poll created through the factory with every token it issued
type TestPoll struct {
	models.CreatedPoll
	Info models.PollInfo
}

// ChoiceID looks up a choice by title
func (p TestPoll) ChoiceID(t *testing.T, title string) string {
	t.Helper()
	for _, c := range p.Info.Choices {
		if c.Title == title {
			return c.ID
		}
	}
	t.Fatalf("No choice titled %q", title)
	return ""
}

// CreateTestPoll creates a poll through polls.Factory. choices and
// participants are one entry per slice element.
func CreateTestPoll(t *testing.T, store polls.PollStore, choices, participants []string, anonymous, multiple bool) TestPoll {
	t.Helper()

	factory := polls.NewFactory(store, auth.NewIssuer(), nil)
	ctx := context.Background()

	created, err := factory.CreatePoll(ctx, models.CreatePollInput{
		Title:                 "Test Poll",
		Description:           "A test poll",
		Choices:               strings.Join(choices, "\n"),
		CreatorEmail:          "organizer@example.com",
		Participants:          strings.Join(participants, "\n"),
		IsAnonymous:           anonymous,
		AllowsMultipleChoices: multiple,
	})
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	info, err := store.GetPollInfo(ctx, created.PollID)
	if err != nil {
		t.Fatalf("Failed to read test poll: %v", err)
	}

	return TestPoll{CreatedPoll: created, Info: info}
}

// CountBallots returns the number of ballot rows for a poll
func CountBallots(t *testing.T, conn *sql.DB, pollID string) int {
	t.Helper()

	var n int
	err := conn.QueryRow(`
		SELECT COUNT(*) FROM ballot b
		JOIN choice c ON b.choice_id = c.id
		WHERE c.poll_id = ?
	`, pollID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count ballots: %v", err)
	}
	return n
}

// CountAttributedBallots returns the number of ballot rows for a poll that
// carry a participant reference
func CountAttributedBallots(t *testing.T, conn *sql.DB, pollID string) int {
	t.Helper()

	var n int
	err := conn.QueryRow(`
		SELECT COUNT(*) FROM ballot b
		JOIN choice c ON b.choice_id = c.id
		WHERE c.poll_id = ? AND b.vote_id IS NOT NULL
	`, pollID).Scan(&n)
	if err != nil {
		t.Fatalf("Failed to count attributed ballots: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body any, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
