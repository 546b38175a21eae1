// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/interpoll/middleware"
	"github.com/danielhkuo/interpoll/polls"
)

// Messages shown to clients. Not found is deliberately generic so a
// response never tells which kind of token was wrong.
const (
	msgNotFound     = "Poll not found"
	msgAlreadyVoted = "You have already voted for this poll."
	msgInternal     = "Something went wrong, please try again later"
)

// writeDomainError maps a polls error onto an HTTP response. action names
// the failed operation in logs.
func writeDomainError(w http.ResponseWriter, err error, action string) {
	var verr *polls.ValidationError
	var berr *polls.InvalidBallotError

	switch {
	case errors.As(err, &verr):
		middleware.ErrorResponse(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, polls.ErrNotFound):
		middleware.ErrorResponse(w, http.StatusNotFound, msgNotFound)
	case errors.Is(err, polls.ErrAlreadyVoted):
		middleware.ErrorResponse(w, http.StatusConflict, msgAlreadyVoted)
	case errors.As(err, &berr):
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid ballot: "+berr.Reason)
	case errors.Is(err, polls.ErrAnonymousPoll):
		middleware.ErrorResponse(w, http.StatusForbidden, "Results for this poll are anonymous")
	default:
		slog.Error("failed to "+action, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, msgInternal)
	}
}
