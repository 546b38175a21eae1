// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and response helpers.

# Logging

WithLogging records method, route pattern, status and duration for every
request. The raw path is left out since it contains a capability token.

	mux.HandleFunc("POST /polls", middleware.WithLogging(handler))

# Rate Limiting

RateLimiter keeps a token bucket per client IP (golang.org/x/time/rate).
WithRateLimit answers 429 Too Many Requests with a Retry-After header once a
client drains its bucket. The router applies it to every token route to slow
down token guessing.

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	mux.HandleFunc("GET /vote/{token}", middleware.WithRateLimit(limiter, h))

# Response Helpers

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusNotFound, "Poll not found")
	err := middleware.ParseJSONBody(r, &req)

# Client IP

GetClientIP uses the connection's RemoteAddr. With trustProxy set it reads
X-Real-IP, then the last X-Forwarded-For hop, before falling back to
RemoteAddr. Clients can write these headers themselves, so only enable
TRUST_PROXY behind a proxy that sets them.
*/
package middleware
