// cmd/server/server.go
package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/codr1/futbolito/internal/api"
	"github.com/codr1/futbolito/internal/config"
	"github.com/codr1/futbolito/internal/ratelimit"
)

// newWriteLimiter returns nil when rate limiting is disabled.
func newWriteLimiter(cfg config.RateLimitConfig) *ratelimit.Limiter {
	if !cfg.Enabled {
		return nil
	}
	return ratelimit.New(&ratelimit.Config{
		Cooldown:        cfg.Cooldown(),
		MaxPerIPPerHour: cfg.MaxPerIPPerHour,
		TrustProxy:      cfg.TrustProxy,
	})
}

func newServer(cfg *config.Config, limiter *ratelimit.Limiter) *http.Server {
	return &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.App.Port),
		Handler:      api.NewHandler(limiter),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
