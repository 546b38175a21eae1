// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/interpoll/middleware"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/polls"
)

type VotingHandler struct {
	ballots *polls.BallotProcessor
}

func NewVotingHandler(ballots *polls.BallotProcessor) *VotingHandler {
	return &VotingHandler{ballots: ballots}
}

// BallotForm handles GET /vote/{token}
func (h *VotingHandler) BallotForm(w http.ResponseWriter, r *http.Request) {
	form, err := h.ballots.BallotForm(r.Context(), r.PathValue("token"))
	if err != nil {
		writeDomainError(w, err, "load ballot form")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, form)
}

// SubmitBallot handles POST /vote/{token}
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.ballots.Vote(r.Context(), r.PathValue("token"), req.Choices); err != nil {
		writeDomainError(w, err, "submit ballot")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitBallotResponse{
		Message: "Thank you for voting!",
	})
}
