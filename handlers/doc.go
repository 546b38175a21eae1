// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Interpoll API.

# Handler Types

Each handler wraps one of the poll services from package polls:

  - PollHandler: poll creation and the organizer's manage view
  - VotingHandler: ballot form and ballot submission
  - ResultsHandler: tallied results

	tally := polls.NewTallyEngine(store)
	pollHandler := handlers.NewPollHandler(factory, tally, cfg)

# Tokens

There are no accounts. Every route after creation is authorized by the
capability token in its path:

	POST /polls              → CreatePoll (emails manage and vote links)
	GET  /manage/{token}     → Manage (manage token)
	GET  /vote/{token}       → BallotForm (vote token)
	POST /vote/{token}       → SubmitBallot (vote token)
	GET  /results/{token}    → GetResults (observe token)

# Errors

Domain errors map to statuses in one place (errors.go). Unknown tokens of
any kind answer 404 "Poll not found", a repeat ballot answers 409, and
storage failures answer 500 without detail.
*/
package handlers
