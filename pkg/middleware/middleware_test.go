package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diagnosis/tourhub/pkg/logger"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data[key], nil
}

func (m *memStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	calls := 0
	h := Idempotency(&memStore{data: map[string]string{}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"code":200,"orderCode":"TH1"}`))
	}))

	for i := 0; i < 3; i++ {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", strings.NewReader(`{}`)), 1)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "TH1") {
			t.Fatalf("attempt %d: %d %s", i, rec.Code, rec.Body.String())
		}
	}
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}

	// A different caller with the same key is not served the cached body.
	req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", nil), 2)
	req.Header.Set("Idempotency-Key", "abc")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if calls != 2 {
		t.Fatalf("handler called %d times, want 2", calls)
	}
}

func TestIdempotencySkipsFailures(t *testing.T) {
	calls := 0
	h := Idempotency(&memStore{data: map[string]string{}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	for i := 0; i < 2; i++ {
		req := asUser(httptest.NewRequest(http.MethodPost, "/x", nil), 1)
		req.Header.Set("Idempotency-Key", "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func asUser(r *http.Request, id int64) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), logger.UserIDKey, id))
}

func TestIdempotencyIsScopedToCaller(t *testing.T) {
	h := Idempotency(&memStore{data: map[string]string{}})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, _ := r.Cookie("sid")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"owner":"` + c.Value + `"}`))
	}))

	checkout := func(id int64, session string) *httptest.ResponseRecorder {
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/v1/orders/checkout", nil), id)
		req.AddCookie(&http.Cookie{Name: "sid", Value: session})
		req.Header.Set("Idempotency-Key", "1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	alice := checkout(1, "alice")
	bob := checkout(2, "bob")
	if !strings.Contains(alice.Body.String(), "alice") {
		t.Fatalf("alice got %s", alice.Body)
	}
	if !strings.Contains(bob.Body.String(), "bob") || bob.Header().Get("Idempotent-Replay") != "" {
		t.Fatalf("bob got %s (replay=%q)", bob.Body, bob.Header().Get("Idempotent-Replay"))
	}
	if again := checkout(1, "alice"); again.Header().Get("Idempotent-Replay") != "true" {
		t.Error("alice's retry was not replayed")
	}
}

func TestIdempotencyIgnoresAnonymous(t *testing.T) {
	store := &memStore{data: map[string]string{}}
	calls := 0
	h := Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set("Idempotency-Key", "k")
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	if calls != 2 || len(store.data) != 0 {
		t.Fatalf("calls = %d, cached = %d", calls, len(store.data))
	}
}

type countingLimiter struct {
	hits map[string]int
	err  error
}

func (c *countingLimiter) Allow(_ context.Context, key string, limit int, _ time.Duration) (bool, time.Duration, error) {
	if c.err != nil {
		return true, 0, c.err
	}
	c.hits[key]++
	return c.hits[key] <= limit, 30 * time.Second, nil
}

func TestRateLimit(t *testing.T) {
	l := &countingLimiter{hits: map[string]int{}}
	h := RateLimit(l, RateLimitConfig{Requests: 2, Window: time.Minute, KeyFunc: ClientIPKey})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests {
			var body map[string]any
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body["code"] != float64(429) {
				t.Errorf("envelope code = %v", body["code"])
			}
			if rec.Header().Get("Retry-After") == "" {
				t.Error("missing Retry-After")
			}
		}
	}
	want := []int{200, 200, 429}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestRateLimitFailsOpen(t *testing.T) {
	l := &countingLimiter{err: context.DeadlineExceeded}
	h := RateLimit(l, RateLimitConfig{Requests: 0, Window: time.Minute, KeyFunc: ClientIPKey})(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/login", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestRecover(t *testing.T) {
	h := Recover(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"code":500`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	if got := ClientIP(req); got != "1.2.3.4" {
		t.Errorf("got %q", got)
	}
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "9.9.9.9:1234"
	if got := ClientIP(req); got != "9.9.9.9" {
		t.Errorf("got %q", got)
	}
}

func TestHealth(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) })
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name   string
		checks map[string]HealthCheck
		status int
	}{
		{"all up", map[string]HealthCheck{"database": ok, "redis": ok}, http.StatusOK},
		{"one down", map[string]HealthCheck{"database": ok, "redis": down}, http.StatusServiceUnavailable},
		{"no checks", nil, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Health(tt.checks)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
			if rec.Code != tt.status {
				t.Fatalf("code = %d, want %d", rec.Code, tt.status)
			}
			var body struct {
				Code   int               `json:"code"`
				Checks map[string]string `json:"checks"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatal(err)
			}
			if body.Code != tt.status || len(body.Checks) != len(tt.checks) {
				t.Errorf("body = %+v", body)
			}
		})
	}

	rec := httptest.NewRecorder()
	Health(nil)(next).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tours", nil))
	if rec.Code != http.StatusTeapot {
		t.Errorf("non-health path code = %d", rec.Code)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = r.Context().Value(logger.RequestIDKey).(string)
	}))

	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{"reuses caller id", "abc-123", true},
		{"mints when missing", "", false},
		{"mints when oversized", strings.Repeat("x", maxRequestIDLen+1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-ID", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			got := rec.Header().Get("X-Request-ID")
			if got == "" || got != seen {
				t.Fatalf("header %q, context %q", got, seen)
			}
			if (got == tt.header) != tt.keep {
				t.Errorf("id = %q", got)
			}
		})
	}
}
