// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/interpoll/auth"
	"github.com/danielhkuo/interpoll/cliparse"
	"github.com/danielhkuo/interpoll/db"
	"github.com/danielhkuo/interpoll/handlers"
	"github.com/danielhkuo/interpoll/metrics"
	"github.com/danielhkuo/interpoll/middleware"
	"github.com/danielhkuo/interpoll/polls"
)

// NewRouter wires the poll services over conn. notifier may be nil.
func NewRouter(conn *sql.DB, cfg cliparse.Config, notifier polls.Notifier) http.Handler {
	mux := http.NewServeMux()

	store := db.NewStore(conn, cfg.DatabaseType)
	tally := polls.NewTallyEngine(store)

	// Initialize handlers
	pollHandler := handlers.NewPollHandler(polls.NewFactory(store, auth.NewIssuer(), notifier), tally, cfg)
	votingHandler := handlers.NewVotingHandler(polls.NewBallotProcessor(store))
	resultsHandler := handlers.NewResultsHandler(tally)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.TrustProxy = cfg.TrustProxy
	guarded := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.WithRateLimit(limiter, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := conn.PingContext(r.Context()); err != nil {
			middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /polls", guarded(pollHandler.CreatePoll))

	// Capability token routes
	mux.HandleFunc("GET /manage/{token}", guarded(pollHandler.Manage))
	mux.HandleFunc("GET /vote/{token}", guarded(votingHandler.BallotForm))
	mux.HandleFunc("POST /vote/{token}", guarded(votingHandler.SubmitBallot))
	mux.HandleFunc("GET /results/{token}", guarded(resultsHandler.GetResults))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("interpoll API v1"))
	})

	return middleware.CORS(mux)
}
