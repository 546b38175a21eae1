// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/interpoll/models"
)

// captureLogs routes the default slog logger into a buffer for one test
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestWithLogging_RecordsRouteNotPath(t *testing.T) {
	logs := captureLogs(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /vote/{token}", WithLogging(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("already voted"))
	}))

	req := httptest.NewRequest("GET", "/vote/s3cret-vote-token", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code != http.StatusConflict || w.Body.String() != "already voted" {
		t.Errorf("response changed by logging: %d %q", w.Code, w.Body.String())
	}

	out := logs.String()
	if !strings.Contains(out, "GET /vote/{token}") {
		t.Errorf("expected route pattern in log, got %q", out)
	}
	if !strings.Contains(out, "status=409") {
		t.Errorf("expected recorded status 409 in log, got %q", out)
	}
	if strings.Contains(out, "s3cret-vote-token") {
		t.Errorf("token leaked into request log: %q", out)
	}
}

func TestWithLogging_StatusRecorder(t *testing.T) {
	testCases := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{"implicit 200", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) }, "status=200"},
		{"created", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) }, "status=201"},
		{"rate limited", func(w http.ResponseWriter, r *http.Request) {
			ErrorResponse(w, http.StatusTooManyRequests, "slow down")
		}, "status=429"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logs := captureLogs(t)
			WithLogging(tc.handler)(httptest.NewRecorder(), httptest.NewRequest("POST", "/polls", nil))

			if !strings.Contains(logs.String(), tc.want) {
				t.Errorf("expected %s in log, got %q", tc.want, logs.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusCreated, models.CreatePollResponse{
		PollID:     "poll-1",
		ObserveURL: "http://interpoll.test/results/obs",
	})

	if w.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var got models.CreatePollResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.PollID != "poll-1" || got.ObserveURL != "http://interpoll.test/results/obs" {
		t.Errorf("unexpected body %+v", got)
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ErrorResponse(w, http.StatusForbidden, "Attributed results are not available for anonymous polls")

	if w.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", w.Code)
	}

	var got models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got.Error != "Forbidden" {
		t.Errorf("Expected status text as error, got %q", got.Error)
	}
	if got.Message != "Attributed results are not available for anonymous polls" {
		t.Errorf("unexpected message %q", got.Message)
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("ballot", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/vote/tok", strings.NewReader(`{"choices":["a","c"]}`))

		var got models.SubmitBallotRequest
		if err := ParseJSONBody(req, &got); err != nil {
			t.Fatal(err)
		}
		if len(got.Choices) != 2 || got.Choices[0] != "a" || got.Choices[1] != "c" {
			t.Errorf("unexpected choices %v", got.Choices)
		}
	})

	for name, body := range map[string]string{
		"malformed":  `{"choices":`,
		"empty":      ``,
		"wrong type": `{"choices":"a"}`,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/vote/tok", strings.NewReader(body))
			var got models.SubmitBallotRequest
			if err := ParseJSONBody(req, &got); err == nil {
				t.Error("expected a decode error")
			}
		})
	}
}

func TestCORS(t *testing.T) {
	var calls int
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("echoes origin", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/results/tok", nil)
		req.Header.Set("Origin", "https://ui.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://ui.example.com" {
			t.Errorf("Expected origin echoed, got %q", got)
		}
		if got := w.Header().Get("Vary"); got != "Origin" {
			t.Errorf("Expected Vary: Origin, got %q", got)
		}
	})

	t.Run("no origin", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("Expected *, got %q", got)
		}
	})

	t.Run("preflight", func(t *testing.T) {
		before := calls
		req := httptest.NewRequest("OPTIONS", "/polls", nil)
		req.Header.Set("Origin", "https://ui.example.com")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected 200 for preflight, got %d", w.Code)
		}
		if calls != before {
			t.Error("preflight should not reach the wrapped handler")
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, OPTIONS" {
			t.Errorf("unexpected allowed methods %q", got)
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{"remote addr", "192.0.2.7:5555", nil, false, "192.0.2.7"},
		{"remote addr without port", "192.0.2.7", nil, false, "192.0.2.7"},
		{"ipv6 remote addr", "[2001:db8::1]:443", nil, false, "2001:db8::1"},
		{"headers ignored by default", "192.0.2.7:5555",
			map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "203.0.113.10"}, false, "192.0.2.7"},
		{"real ip behind proxy", "10.0.0.2:80",
			map[string]string{"X-Real-IP": "203.0.113.10", "X-Forwarded-For": "198.51.100.1"}, true, "203.0.113.10"},
		{"last forwarded hop behind proxy", "10.0.0.2:80",
			map[string]string{"X-Forwarded-For": "198.51.100.1, 203.0.113.9"}, true, "203.0.113.9"},
		{"empty headers behind proxy", "10.0.0.2:80",
			map[string]string{"X-Forwarded-For": " "}, true, "10.0.0.2"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if got := GetClientIP(req, tc.trustProxy); got != tc.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tc.want)
			}
		})
	}
}
