// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// rateLimiter enforces a sliding window per client address. Timestamps older
// than the window are pruned on every check, so a burst that ended a full
// window ago frees its budget.
type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string][]time.Time
	logger  *zap.Logger

	now func() time.Time
}

func newRateLimiter(limit int, window time.Duration, logger *zap.Logger) *rateLimiter {
	return &rateLimiter{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
		logger:  logger,
		now:     time.Now,
	}
}

// allow records the request when the client is under budget and reports how
// much budget remains.
func (rl *rateLimiter) allow(client string) (bool, int) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	cutoff := now.Add(-rl.window)

	kept := rl.clients[client][:0]
	for _, ts := range rl.clients[client] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= rl.limit {
		rl.clients[client] = kept
		return false, 0
	}
	kept = append(kept, now)
	rl.clients[client] = kept
	return true, rl.limit - len(kept)
}

// middleware rejects clients over budget with 429 and a Retry-After hint.
// Health and metrics probes bypass the limiter so monitoring never starves.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/health") || strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		client := clientAddr(r)
		windowSeconds := int(rl.window.Seconds())

		allowed, remaining := rl.allow(client)
		if !allowed {
			rl.logger.Warn("Rate limit exceeded",
				zap.String("client", client),
				zap.String("path", r.URL.Path))
			w.Header().Set("Retry-After", strconv.Itoa(windowSeconds))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":       "Rate Limit Exceeded",
				"message":     fmt.Sprintf("Too many requests. Limit: %d per %d seconds", rl.limit, windowSeconds),
				"retry_after": windowSeconds,
			})
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(rl.now().Unix()+int64(windowSeconds), 10))
		next.ServeHTTP(w, r)
	})
}
