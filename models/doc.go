// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

  - CreatePollRequest: title, description, choices and participants as
    newline-separated text, email, is_multiple_choice, is_anonymous
  - SubmitBallotRequest: choices (selected choice IDs)

# Response Types

  - CreatePollResponse: poll_id, observe_url
  - ManagePollResponse: poll, observe_url, total, participated
  - SubmitBallotResponse: message
  - ErrorResponse: error, message

# Domain Types

Poll, Choice, Participant and Ballot mirror the stored records. Tokens are
tagged json:"-" and never serialized. NewBallot decides at construction
time whether a ballot links back to its participant.

ResultSet carries per-choice counts and, for attributed polls only, the
list of who voted for what.
*/
package models
