// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// rateKeyPrefix is the Valkey key prefix for rate limit counters.
const rateKeyPrefix = "ratelimit:"

// RateLimiter limits requests per client IP with a fixed window counter
// kept in Valkey, so every API instance shares the same budget.
type RateLimiter struct {
	client *redis.Client
	limit  int           // max requests per window
	window time.Duration // window length
}

// NewRateLimiter creates a rate limiter that allows limit requests per window.
func NewRateLimiter(client *redis.Client, limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{client: client, limit: limit, window: window}
}

// allow increments the counter for key in the current window and reports
// whether the request fits in the budget, plus the seconds until reset.
func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, time.Duration, error) {
	now := time.Now()
	bucket := now.UnixNano() / int64(rl.window)
	redisKey := fmt.Sprintf("%s%s:%d", rateKeyPrefix, key, bucket)

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("rate limit incr: %w", err)
	}

	reset := time.Unix(0, (bucket+1)*int64(rl.window)).Sub(now)
	return incr.Val() <= int64(rl.limit), reset, nil
}

// Middleware returns an HTTP middleware that rate-limits by client IP.
// If Valkey is unreachable the request is let through.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		ok, reset, err := rl.allow(r.Context(), ip)
		if err != nil {
			slog.Warn("rate limiter unavailable", "ip", ip, "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			w.Header().Set("Retry-After", strconv.Itoa(int(reset.Seconds())+1))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"Too Many Requests"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the client's IP address, checking X-Forwarded-For
// and X-Real-IP headers for proxied requests.
func clientIP(r *http.Request) string {
	// Take the leftmost X-Forwarded-For entry, the original client.
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.IndexByte(xff, ','); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fall back to RemoteAddr (strip port).
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}
