// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/interpoll/cliparse"
	"github.com/danielhkuo/interpoll/middleware"
	"github.com/danielhkuo/interpoll/models"
	"github.com/danielhkuo/interpoll/polls"
)

type PollHandler struct {
	factory *polls.Factory
	tally   *polls.TallyEngine
	cfg     cliparse.Config
}

func NewPollHandler(factory *polls.Factory, tally *polls.TallyEngine, cfg cliparse.Config) *PollHandler {
	return &PollHandler{factory: factory, tally: tally, cfg: cfg}
}

// CreatePoll handles POST /polls
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req models.CreatePollRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	created, err := h.factory.CreatePoll(r.Context(), models.CreatePollInput{
		Title:                 req.Title,
		Description:           req.Description,
		Choices:               req.Choices,
		CreatorEmail:          req.Email,
		Participants:          req.Participants,
		IsAnonymous:           req.IsAnonymous,
		AllowsMultipleChoices: req.IsMultipleChoice,
	})
	if err != nil {
		writeDomainError(w, err, "create poll")
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:     created.PollID,
		ObserveURL: h.cfg.BaseURL + "/results/" + created.ObserveToken,
	})
}

// Manage handles GET /manage/{token}
func (h *PollHandler) Manage(w http.ResponseWriter, r *http.Request) {
	view, err := h.tally.ManageView(r.Context(), r.PathValue("token"))
	if err != nil {
		writeDomainError(w, err, "load manage view")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ManagePollResponse{
		Poll:         view.Poll,
		ObserveURL:   h.cfg.BaseURL + "/results/" + view.ObserveToken,
		Total:        view.Total,
		Participated: view.Participated,
	})
}
