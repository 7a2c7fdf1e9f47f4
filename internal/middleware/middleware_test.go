package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/vidtube/backend/internal/apperr"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
)

type stubVerifier struct {
	identity auth.Identity
	err      error
	seen     string
}

func (s *stubVerifier) VerifyAccess(token string) (auth.Identity, error) {
	s.seen = token
	if s.err != nil {
		return auth.Identity{}, s.err
	}
	return s.identity, nil
}

func identityEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = io.WriteString(w, identity.UserID)
	})
}

func TestAuthenticateReadsCookie(t *testing.T) {
	verifier := &stubVerifier{identity: auth.Identity{UserID: "user-1"}}
	handler := Authenticate(verifier)(identityEcho())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: "cookie-token"})
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if verifier.seen != "cookie-token" {
		t.Fatalf("expected cookie token to be verified, got %q", verifier.seen)
	}
	if rec.Body.String() != "user-1" {
		t.Fatalf("expected identity on context, got %q", rec.Body.String())
	}
}

func TestAuthenticateReadsBearerHeader(t *testing.T) {
	verifier := &stubVerifier{identity: auth.Identity{UserID: "user-2"}}
	handler := Authenticate(verifier)(identityEcho())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer header-token")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || verifier.seen != "header-token" {
		t.Fatalf("expected bearer token to authenticate, status %d seen %q", rec.Code, verifier.seen)
	}
}

func TestAuthenticateRejects(t *testing.T) {
	verifier := &stubVerifier{err: apperr.Unauthenticated("invalid access token")}
	handler := Authenticate(verifier)(identityEcho())

	for name, req := range map[string]*http.Request{
		"missing": httptest.NewRequest(http.MethodGet, "/", nil),
		"invalid": func() *http.Request {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.Header.Set("Authorization", "Bearer nope")
			return r
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401 got %d", rec.Code)
			}
			var body map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["success"] != false {
				t.Fatalf("expected failure envelope, got %v", body)
			}
		})
	}
}

func TestRequestLoggerRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := RequestLogger(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected request id header")
	}
	if !bytes.Contains(buf.Bytes(), []byte("panic recovered")) {
		t.Fatalf("expected panic to be logged, got %s", buf.String())
	}
}

func TestRequestLoggerPropagatesRequestID(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	var seen string
	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if seen != "abc-123" || rec.Header().Get(RequestIDHeader) != "abc-123" {
		t.Fatalf("expected inbound request id to be reused, got %q", seen)
	}
}

func TestIPRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 2, time.Minute).(*ipRateLimiter)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	if !limiter.Allow("1.1.1.1") || !limiter.Allow("1.1.1.1") {
		t.Fatal("expected burst of two to be allowed")
	}
	if limiter.Allow("1.1.1.1") {
		t.Fatal("expected third request to be limited")
	}
	if !limiter.Allow("2.2.2.2") {
		t.Fatal("expected other keys to be independent")
	}

	now = now.Add(time.Minute)
	if !limiter.Allow("1.1.1.1") {
		t.Fatal("expected token to refill after the window")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Hour, 1, time.Hour)
	handler := RateLimit(limiter, "login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	for i, want := range []int{http.StatusNoContent, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d got %d", i, want, rec.Code)
		}
	}
}

func TestClientIPIgnoresForwardedHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if got := ClientIP(req); got != "192.168.1.5" {
		t.Fatalf("expected remote host got %q", got)
	}
}

func TestTrustProxiesResolvesClient(t *testing.T) {
	trusted, err := ParseTrustedProxies([]string{"10.0.0.0/8", " 172.16.0.1 ", ""})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var seen string
	handler := TrustProxies(trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	}))

	cases := []struct {
		name      string
		remote    string
		forwarded string
		want      string
	}{
		{"trusted peer", "10.0.0.2:443", "198.51.100.7", "198.51.100.7"},
		{"spoofed prefix is skipped", "10.0.0.2:443", "1.1.1.1, 198.51.100.7, 10.0.0.9", "198.51.100.7"},
		{"bare address proxy", "172.16.0.1:80", "198.51.100.8", "198.51.100.8"},
		{"untrusted peer", "203.0.113.50:5555", "1.1.1.1", "203.0.113.50"},
		{"no header", "10.0.0.2:443", "", "10.0.0.2"},
		{"garbage hop", "10.0.0.2:443", "not-an-ip", "10.0.0.2"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = tc.remote
		if tc.forwarded != "" {
			req.Header.Set("X-Forwarded-For", tc.forwarded)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)
		if seen != tc.want {
			t.Errorf("%s: expected %q got %q", tc.name, tc.want, seen)
		}
	}
}

func TestTrustProxiesDisabledByDefault(t *testing.T) {
	var seen string
	handler := TrustProxies(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClientIP(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.50:5555"
	req.Header.Set("X-Forwarded-For", "1.1.1.1")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if seen != "203.0.113.50" {
		t.Fatalf("expected peer address got %q", seen)
	}
}

func TestParseTrustedProxiesRejectsGarbage(t *testing.T) {
	if _, err := ParseTrustedProxies([]string{"10.0.0.0/99"}); err == nil {
		t.Fatal("expected error for bad prefix")
	}
	if _, err := ParseTrustedProxies([]string{"proxy.internal"}); err == nil {
		t.Fatal("expected error for hostname")
	}
}

func TestRateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	limiter := NewIPRateLimiter(1, time.Minute, 1, time.Minute)
	handler := RateLimit(limiter, "login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i, want := range []int{http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "203.0.113.50:5555"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d got %d", i, want, rec.Code)
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS("https://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/videos", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("expected credentials to be allowed")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/videos", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("expected foreign origin to be ignored")
	}
}

func TestCORSWildcardNeverAllowsCredentials(t *testing.T) {
	handler := CORS("*")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, method := range []string{http.MethodGet, http.MethodOptions} {
		req := httptest.NewRequest(method, "/api/v1/users/current-user", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Fatalf("%s: expected literal wildcard got %q", method, got)
		}
		if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
			t.Fatalf("%s: expected no credentials header got %q", method, got)
		}
	}
}

func TestCORSUnlistedOriginGetsNoHeaders(t *testing.T) {
	handler := CORS("https://app.example.com")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/login", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected preflight to fall through, got %d", rec.Code)
	}
	for _, h := range []string{"Access-Control-Allow-Origin", "Access-Control-Allow-Credentials", "Access-Control-Allow-Methods"} {
		if got := rec.Header().Get(h); got != "" {
			t.Fatalf("expected no %s header got %q", h, got)
		}
	}
}

func TestMetricsLabelsByRoutePattern(t *testing.T) {
	router := chi.NewRouter()
	router.Use(Metrics)
	router.Get("/widgets/{widgetId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	counter := httpRequestsTotal.WithLabelValues(http.MethodGet, "/widgets/{widgetId}", "201")
	before := testutil.ToFloat64(counter)

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/widgets/"+id, nil))
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201 got %d", rec.Code)
		}
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("expected 2 requests under the route pattern, got %v", got)
	}
}
