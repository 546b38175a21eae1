// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Interpoll API.

# Route Registration

NewRouter builds the store, the poll services and the handlers, and returns
the mux wrapped in CORS:

	handler := router.NewRouter(db, cfg, notifier)

# Endpoints

	GET  /health            - Liveness, pings the database
	GET  /metrics           - Prometheus metrics
	POST /polls             - Create poll
	GET  /manage/{token}    - Organizer view
	GET  /vote/{token}      - Ballot form
	POST /vote/{token}      - Submit ballot
	GET  /results/{token}   - Results

Poll creation and every token route share a per-client rate limiter.
*/
package router
