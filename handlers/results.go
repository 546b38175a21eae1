// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/interpoll/middleware"
	"github.com/danielhkuo/interpoll/polls"
)

type ResultsHandler struct {
	tally *polls.TallyEngine
}

func NewResultsHandler(tally *polls.TallyEngine) *ResultsHandler {
	return &ResultsHandler{tally: tally}
}

// GetResults handles GET /results/{token}. Anonymous polls return counts
// only; the attributed breakdown is omitted entirely.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.tally.ResultsForObserver(r.Context(), r.PathValue("token"))
	if err != nil {
		writeDomainError(w, err, "compute results")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, results)
}
