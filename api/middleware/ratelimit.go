package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dcastellanos/shiftpay-backend/api/responses"
	pkgerrors "github.com/dcastellanos/shiftpay-backend/pkg/errors"
	"github.com/dcastellanos/shiftpay-backend/pkg/logger"
)

type rateLimiterStore interface {
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
}

// RateLimitPolicy defines the per-IP throttling parameters for a traffic surface.
type RateLimitPolicy struct {
	name   string
	window time.Duration
	limit  int
}

// NewRateLimitPolicy builds a policy with the supplied window and limit.
func NewRateLimitPolicy(name string, window time.Duration, limit int) RateLimitPolicy {
	return RateLimitPolicy{
		name:   strings.ToLower(strings.TrimSpace(name)),
		window: window,
		limit:  limit,
	}
}

func (p RateLimitPolicy) enabled() bool {
	return p.window > 0 && p.limit > 0
}

func (p RateLimitPolicy) normalizedName() string {
	if p.name == "" {
		return "api"
	}
	return p.name
}

func (p RateLimitPolicy) key(ip string) string {
	if ip == "" {
		return ""
	}
	return fmt.Sprintf("rl:ip:%s:%s", p.normalizedName(), ip)
}

// RateLimit enforces a fixed-window per-IP counter on a route group.
func RateLimit(policy RateLimitPolicy, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !policy.enabled() || store == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			ip := clientIP(r)
			key := policy.key(ip)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			count, err := store.IncrWithTTL(ctx, key, policy.window)
			if err != nil {
				responses.WriteError(ctx, nil, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiting"))
				return
			}
			if count > int64(policy.limit) {
				if logg != nil {
					logCtx := logg.WithFields(ctx, map[string]any{
						"policy":         policy.normalizedName(),
						"ip":             ip,
						"attempts":       count,
						"limit":          policy.limit,
						"window_seconds": int(policy.window.Seconds()),
					})
					logg.Warn(logCtx, "api.rate_limit.blocked")
				}
				responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if header := r.Header.Get("X-Forwarded-For"); header != "" {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				return ip
			}
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
