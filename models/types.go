package models

import (
	"encoding/json"
	"time"
)

// Ballot mode constants, used as metric labels and in API responses
const (
	ModeSingle   = "single"
	ModeMultiple = "multiple"
)

// Request types

// Choices and Participants are newline-separated text, one entry per line.
// Participant lines are "<name> <email>".
type CreatePollRequest struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Choices          string `json:"choices"`
	Email            string `json:"email"`
	Participants     string `json:"participants"`
	IsMultipleChoice bool   `json:"is_multiple_choice"`
	IsAnonymous      bool   `json:"is_anonymous"`
}

// choice IDs selected on the ballot form
type SubmitBallotRequest struct {
	Choices []string `json:"choices"`
}

// Response types

// The manage link only goes out by email
type CreatePollResponse struct {
	PollID     string `json:"poll_id"`
	ObserveURL string `json:"observe_url"`
}

type SubmitBallotResponse struct {
	Message string `json:"message"`
}

type ManagePollResponse struct {
	Poll         PollInfo `json:"poll"`
	ObserveURL   string   `json:"observe_url"`
	Total        int      `json:"total"`
	Participated int      `json:"participated"`
}

// Domain types

type Poll struct {
	ID                    string    `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	ManageToken           string    `json:"-"` // Never expose in JSON
	ObserveToken          string    `json:"-"` // Never expose in JSON
	IsAnonymous           bool      `json:"is_anonymous"`
	AllowsMultipleChoices bool      `json:"is_multiple_choice"`
	CreatorEmail          string    `json:"-"`
	CreatedAt             time.Time `json:"created_at"`
}

type Choice struct {
	ID       string `json:"id"`
	PollID   string `json:"poll_id"`
	Title    string `json:"title"`
	Position int    `json:"-"`
}

// Participant is an enrollment record. VoterName and VoterEmail are nil
// for anonymous polls; only the vote token is stored.
type Participant struct {
	ID         string  `json:"id"`
	PollID     string  `json:"poll_id"`
	VoterName  *string `json:"voter_name,omitempty"`
	VoterEmail *string `json:"-"`
	VoteToken  string  `json:"-"` // Never expose in JSON
	Voted      bool    `json:"voted"`
	Position   int     `json:"-"`
}

// Ballot is one cast vote for one choice. VoteID links back to the
// participant and is nil for anonymous polls.
type Ballot struct {
	ID       string    `json:"id"`
	VoteID   *string   `json:"-"`
	ChoiceID string    `json:"choice_id"`
	CastAt   time.Time `json:"cast_at"`
}

// NewBallot builds the ballot a participant casts for a choice. The voter
// link is only set when the poll is attributed.
func NewBallot(poll PollInfo, participantID, choiceID string) Ballot {
	b := Ballot{ChoiceID: choiceID}
	if !poll.IsAnonymous {
		id := participantID
		b.VoteID = &id
	}
	return b
}

// PollInfo is the public view of a poll together with its choices.
type PollInfo struct {
	ID                    string   `json:"id"`
	Title                 string   `json:"title"`
	Description           string   `json:"description"`
	IsAnonymous           bool     `json:"is_anonymous"`
	AllowsMultipleChoices bool     `json:"is_multiple_choice"`
	Choices               []Choice `json:"choices"`
}

// Mode returns ModeMultiple or ModeSingle.
func (p PollInfo) Mode() string {
	if p.AllowsMultipleChoices {
		return ModeMultiple
	}
	return ModeSingle
}

// HasChoice reports whether choiceID belongs to the poll.
func (p PollInfo) HasChoice(choiceID string) bool {
	for _, c := range p.Choices {
		if c.ID == choiceID {
			return true
		}
	}
	return false
}

type BallotForm struct {
	Poll PollInfo `json:"poll"`
}

// Creation types

type ParticipantInput struct {
	Name  string
	Email string
}

type CreatePollInput struct {
	Title                 string
	Description           string
	Choices               string
	CreatorEmail          string
	Participants          string
	IsAnonymous           bool
	AllowsMultipleChoices bool
}

type CreatedPoll struct {
	PollID       string
	ManageToken  string
	ObserveToken string
	VoteTokens   []string
}

// Result types

type ChoiceCount struct {
	ChoiceID    string `json:"choice_id"`
	ChoiceTitle string `json:"choice_title"`
	VoteCount   int    `json:"vote_count"`
}

type AttributedVote struct {
	ChoiceID      string `json:"choice_id"`
	ChoiceTitle   string `json:"choice_title"`
	ParticipantID string `json:"participant_id"`
	VoterName     string `json:"voter_name"`
}

// ResultSet is the tally for a poll. Attributed is nil for anonymous polls.
type ResultSet struct {
	Poll         PollInfo         `json:"poll"`
	Counts       []ChoiceCount    `json:"counts"`
	Attributed   []AttributedVote `json:"attributed,omitempty"`
	Total        int              `json:"total"`
	Participated int              `json:"participated"`
}

// MarshalJSON leaves attributed out for anonymous polls and always writes it,
// possibly as [], for attributed ones.
func (r ResultSet) MarshalJSON() ([]byte, error) {
	type plain ResultSet
	if r.Poll.IsAnonymous {
		r.Attributed = nil
		return json.Marshal(plain(r))
	}

	attributed := r.Attributed
	if attributed == nil {
		attributed = []AttributedVote{}
	}
	return json.Marshal(struct {
		plain
		Attributed []AttributedVote `json:"attributed"`
	}{plain(r), attributed})
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
