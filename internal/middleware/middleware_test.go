package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCORSMiddleware_PreflightReturns204(t *testing.T) {
	mw := NewCORSMiddleware("http://localhost:3000")
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/articles", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if called {
		t.Error("next handler called for preflight request")
	}
}

type recordedStatus struct {
	codes []int
}

func (r *recordedStatus) RecordHTTPStatus(statusCode int) {
	r.codes = append(r.codes, statusCode)
}

func TestLoggingMiddleware_LogsAndRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	metrics := &recordedStatus{}

	mw := NewLoggingMiddleware(logger, metrics)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/sections/espana", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(metrics.codes) != 1 || metrics.codes[0] != http.StatusNotFound {
		t.Errorf("recorded codes = %v, want [404]", metrics.codes)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header is empty")
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "http_request" {
		t.Errorf("msg = %v, want http_request", entry["msg"])
	}
	if entry["path"] != "/api/sections/espana" {
		t.Errorf("path = %v, want /api/sections/espana", entry["path"])
	}
	if entry["status"] != float64(404) {
		t.Errorf("status = %v, want 404", entry["status"])
	}
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := NewLoggingMiddleware(logger, nil)
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "upstream-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "upstream-id" {
		t.Errorf("X-Request-ID = %q, want %q", got, "upstream-id")
	}
}

func TestRecoveryMiddleware_CatchesPanic(t *testing.T) {
	mw := NewRecoveryMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	mw := NewSecurityHeadersMiddleware()
	handler := mw(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestBasicAuthMiddleware(t *testing.T) {
	mw := NewBasicAuthMiddleware("admin", "secreto")

	tests := []struct {
		name       string
		user       string
		pass       string
		omit       bool
		wantStatus int
	}{
		{"valid credentials", "admin", "secreto", false, http.StatusOK},
		{"wrong password", "admin", "mal", false, http.StatusUnauthorized},
		{"wrong user", "root", "secreto", false, http.StatusUnauthorized},
		{"missing header", "", "", true, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := mw(okHandler())
			req := httptest.NewRequest(http.MethodPost, "/api/admin/entrevistas", nil)
			if !tt.omit {
				req.SetBasicAuth(tt.user, tt.pass)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				if got := w.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Basic") {
					t.Errorf("WWW-Authenticate = %q, want a Basic challenge", got)
				}
			}
		})
	}
}

func newTestRateLimiter(generalBurst, opinionBurst int) *RateLimiter {
	cfg := DefaultRateLimiterConfig()
	cfg.GeneralBurst = generalBurst
	cfg.OpinionBurst = opinionBurst
	// Slow refill keeps the burst exhaustion deterministic in tests.
	cfg.GeneralRate = rate.Limit(0.001)
	cfg.OpinionRate = rate.Limit(0.001)
	cfg.CleanupInterval = time.Hour
	return NewRateLimiter(cfg)
}

func TestRateLimiter_GeneralBlocksAfterBurst(t *testing.T) {
	rl := newTestRateLimiter(2, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header is empty")
	}
}

func TestRateLimiter_SeparateClientsSeparateBudgets(t *testing.T) {
	rl := newTestRateLimiter(1, 1)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for _, addr := range []string{"10.0.0.1:1", "10.0.0.2:1"} {
		req := httptest.NewRequest(http.MethodGet, "/api/articles", nil)
		req.RemoteAddr = addr
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("client %s: status = %d, want 200", addr, w.Code)
		}
	}

	if rl.GeneralLimiterCount() != 2 {
		t.Errorf("GeneralLimiterCount = %d, want 2", rl.GeneralLimiterCount())
	}
}

func TestRateLimiter_OpinionIndependentOfGeneral(t *testing.T) {
	rl := newTestRateLimiter(10, 1)
	defer rl.Stop()

	opinionHandler := rl.OpinionMiddleware()(okHandler())
	generalHandler := rl.GeneralMiddleware()(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/opinion", nil)
	req.RemoteAddr = "10.0.0.3:1"
	w := httptest.NewRecorder()
	opinionHandler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first opinion: status = %d, want 200", w.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/opinion", nil)
	req.RemoteAddr = "10.0.0.3:1"
	w = httptest.NewRecorder()
	opinionHandler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second opinion: status = %d, want 429", w.Code)
	}

	// The general budget is untouched by the opinion limiter.
	req = httptest.NewRequest(http.MethodGet, "/api/articles", nil)
	req.RemoteAddr = "10.0.0.3:1"
	w = httptest.NewRecorder()
	generalHandler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("general after opinion block: status = %d, want 200", w.Code)
	}
}

func TestClientIP_PrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:9999"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Errorf("clientIP = %q, want %q", got, "203.0.113.7")
	}
}

func TestClientIP_FallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.4:5678"

	if got := clientIP(req); got != "192.0.2.4" {
		t.Errorf("clientIP = %q, want %q", got, "192.0.2.4")
	}
}
