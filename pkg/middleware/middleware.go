package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/diagnosis/tourhub/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

const maxRequestIDLen = 64

// RequestID reuses a caller-supplied X-Request-ID of sane length or mints a
// new one, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > maxRequestIDLen {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), logger.RequestIDKey, id)))
	})
}

// Logging writes one structured line per request. Probe endpoints are skipped.
func Logging(next http.Handler) http.Handler {
	logged := middleware.RequestLogger(&StructuredLogger{})(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

type StructuredLogger struct{}

func (l *StructuredLogger) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &StructuredLogEntry{request: r}
}

type StructuredLogEntry struct {
	request *http.Request
}

func (l *StructuredLogEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra interface{}) {
	log := logger.InfoContext
	if status >= 500 {
		log = logger.ErrorContext
	}
	log(l.request.Context(), "HTTP request completed",
		"method", l.request.Method,
		"route", routePattern(l.request),
		"path", l.request.URL.Path,
		"status", status,
		"bytes", bytes,
		"elapsed_ms", elapsed.Milliseconds(),
		"user_agent", l.request.UserAgent(),
		"remote_addr", l.request.RemoteAddr,
	)
}

func (l *StructuredLogEntry) Panic(v interface{}, stack []byte) {
	logger.ErrorContext(l.request.Context(), "HTTP request panic",
		"panic", v,
		"stack", string(stack),
		"method", l.request.Method,
		"path", l.request.URL.Path,
	)
}

// Recover turns a panic into a logged 500 envelope.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			if entry := middleware.GetLogEntry(r); entry != nil {
				entry.Panic(rec, debug.Stack())
			} else {
				logger.ErrorContext(r.Context(), "HTTP request panic", "panic", rec, "stack", string(debug.Stack()))
			}
			writeEnvelope(w, http.StatusInternalServerError, "Internal server error")
		}()
		next.ServeHTTP(w, r)
	})
}

// CORS allows the storefront and admin console origins, with credentials so
// the session cookie travels.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", "Idempotency-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// ServiceName adds service name to context for logging
func ServiceName(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), logger.ServiceKey, name)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Health answers /healthz by running every named check within two seconds.
// Any failing check turns the answer into a 503.
func Health(checks map[string]HealthCheck) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			status, results := http.StatusOK, make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					logger.WarnContext(ctx, "Health check failed", "check", name, "error", err)
					results[name] = err.Error()
					status = http.StatusServiceUnavailable
					continue
				}
				results[name] = "ok"
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"code":      status,
				"message":   http.StatusText(status),
				"checks":    results,
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
		})
	}
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Idempotency replays the cached 2xx body of a POST that carried the same
// Idempotency-Key and path from the same authenticated caller within the last
// 24h. It must run after the middleware that puts the caller id in the
// context; requests without a caller are never cached.
func Idempotency(store IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("Idempotency-Key")
			caller := callerID(r.Context())
			if key == "" || caller == "" {
				next.ServeHTTP(w, r)
				return
			}

			sum := sha256.Sum256([]byte(key + "|" + r.URL.Path + "|" + caller))
			hashedKey := fmt.Sprintf("%x", sum)

			if existing, err := store.Get(r.Context(), hashedKey); err == nil && existing != "" {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replay", "true")
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(existing))
				return
			} else if err != nil {
				logger.WarnContext(r.Context(), "Idempotency lookup failed", "error", err)
			}

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r)

			if recorder.statusCode >= 200 && recorder.statusCode < 300 {
				if err := store.Set(r.Context(), hashedKey, string(recorder.body), 24*time.Hour); err != nil {
					logger.WarnContext(r.Context(), "Idempotency store failed", "error", err)
				}
			}
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
	body       []byte
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *responseRecorder) Write(body []byte) (int, error) {
	r.body = append(r.body, body...)
	return r.ResponseWriter.Write(body)
}

func writeEnvelope(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": status, "message": message})
}

// routePattern is the matched chi pattern, so ids and slugs do not explode
// label and log cardinality.
func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// callerID names the authenticated principal of a request, or "" when none.
func callerID(ctx context.Context) string {
	if id, ok := ctx.Value(logger.UserIDKey).(int64); ok {
		return fmt.Sprintf("user:%d", id)
	}
	if id, ok := ctx.Value(logger.AccountIDKey).(int64); ok {
		return fmt.Sprintf("account:%d", id)
	}
	return ""
}
