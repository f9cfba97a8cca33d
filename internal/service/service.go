package service

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Limiter counts attempts per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

var (
	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourhub",
		Name:      "login_attempts_total",
		Help:      "Login attempts by principal kind and result.",
	}, []string{"kind", "result"})

	orderTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourhub",
		Name:      "order_transitions_total",
		Help:      "Orders entering each status.",
	}, []string{"status"})

	checkoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tourhub",
		Name:      "checkout_failures_total",
		Help:      "Checkouts rejected by reason.",
	}, []string{"reason"})
)

func pageOrDefault(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
