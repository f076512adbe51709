package shield

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders(t *testing.T) {
	h := SecurityHeaders(DefaultHeaders())(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Content-Security-Policy"); !strings.Contains(got, "default-src 'self'") {
		t.Errorf("CSP = %q", got)
	}
}

func TestTraceID_SetsHeader(t *testing.T) {
	h := TraceID(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID not set")
	}
}

func TestBasicAuth_Disabled(t *testing.T) {
	// WHAT: nil hash means no enforcement.
	// WHY: AUTH_PASSWORD is optional; unset must not lock out the service.
	h := BasicAuth("gabarit", nil)(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/extract", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestBasicAuth_Enforced(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatal(err)
	}
	h := BasicAuth("gabarit", hash)(okHandler())

	// No credentials.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no creds: status = %d, want 401", rec.Code)
	}
	if rec.Header().Get("WWW-Authenticate") == "" {
		t.Error("WWW-Authenticate not set")
	}

	// Wrong password.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.SetBasicAuth("gabarit", "wrong")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", rec.Code)
	}

	// Correct credentials.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/", nil)
	req.SetBasicAuth("gabarit", "secret")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("good creds: status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxRequests: 2, Window: time.Minute})
	h := rl.Middleware(okHandler())

	for i := range 2 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/api/extract", nil)
		req.RemoteAddr = "10.0.0.1:999"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/extract", nil)
	req.RemoteAddr = "10.0.0.1:999"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("over limit: status = %d, want 429", rec.Code)
	}

	// A different IP has its own bucket.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/extract", nil)
	req.RemoteAddr = "10.0.0.2:999"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other ip: status = %d, want 200", rec.Code)
	}
}

func TestRateLimiter_Excluded(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{MaxRequests: 1, Window: time.Minute}, "/health")
	h := rl.Middleware(okHandler())

	for range 5 {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/health", nil)
		req.RemoteAddr = "10.0.0.1:999"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("excluded path limited: status = %d", rec.Code)
		}
	}
}

func TestExtractIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.5:4242"
	if got := ExtractIP(req); got != "192.168.1.5" {
		t.Errorf("remote addr: got %q", got)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ExtractIP(req); got != "203.0.113.9" {
		t.Errorf("xff: got %q", got)
	}
}
