package middleware

import (
	"context"
	"crypto/sha256"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diagnosis/tourhub/pkg/logger"
)

type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// KeyFunc returns every key the request counts against; each is limited separately.
	KeyFunc func(r *http.Request) []string
}

// RateLimit rejects with 429 once any key exceeds its window. Limiter errors
// let the request through.
func RateLimit(l Limiter, cfg RateLimitConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, key := range cfg.KeyFunc(r) {
				ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
				sum := sha256.Sum256([]byte(key))
				ok, retry, err := l.Allow(ctx, fmt.Sprintf("%x", sum), cfg.Requests, cfg.Window)
				cancel()
				if err != nil {
					logger.WarnContext(r.Context(), "Rate limiter unavailable", "error", err)
					continue
				}
				if !ok {
					w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
					writeEnvelope(w, http.StatusTooManyRequests, "Too many requests. Try again later.")
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIPKey limits by the caller's address.
func ClientIPKey(r *http.Request) []string {
	if ip := ClientIP(r); ip != "" {
		return []string{"ip:" + r.URL.Path + ":" + ip}
	}
	return nil
}

// ClientIP extracts the real client IP from the request
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
