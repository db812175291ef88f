package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrgetwhateverdone/brandbuddy-production-sub000/internal/core/ports"
)

// RateLimiterService applies a fixed-window limit to requests that may reach the LLM.
type RateLimiterService struct {
	repo            ports.RateLimitRepository
	defaultLimit    int
	overrides       map[string]int
	burstMultiplier float64
	window          time.Duration
	keyPrefix       string
	logger          *logrus.Logger
}

// RateLimiterConfig groups configuration parameters for the rate limiter.
type RateLimiterConfig struct {
	DefaultRequestsPerMinute int
	// Overrides maps a lower-cased limiter key (e.g. "brand:acme") to its own per-window limit.
	Overrides       map[string]int
	BurstMultiplier float64
	Window          time.Duration
	KeyPrefix       string
}

func NewRateLimiterService(repo ports.RateLimitRepository, cfg *RateLimiterConfig, logger *logrus.Logger) *RateLimiterService {
	// Apply defaults
	dl := 30
	bm := 1.0
	w := time.Minute
	kp := "ratelimit:insights"
	overrides := map[string]int{}
	if cfg != nil {
		if cfg.DefaultRequestsPerMinute > 0 {
			dl = cfg.DefaultRequestsPerMinute
		}
		if cfg.BurstMultiplier > 0 {
			bm = cfg.BurstMultiplier
		}
		if cfg.Window > 0 {
			w = cfg.Window
		}
		if cfg.KeyPrefix != "" {
			kp = cfg.KeyPrefix
		}
		for k, v := range cfg.Overrides {
			if v > 0 {
				overrides[strings.ToLower(k)] = v
			}
		}
	}
	return &RateLimiterService{repo: repo, defaultLimit: dl, overrides: overrides, burstMultiplier: bm, window: w, keyPrefix: kp, logger: logger}
}

func (s *RateLimiterService) Allow(ctx context.Context, key string) (bool, int, int, time.Time, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	limit := s.defaultLimit
	if l, ok := s.overrides[key]; ok {
		limit = l
	}
	ttl := s.window * 2 // retain overlap window
	count, windowStart, err := s.repo.IncrementWindow(ctx, key, s.window, s.keyPrefix, ttl)
	reset := windowStart.Add(s.window)
	burst := int(float64(limit) * s.burstMultiplier)
	if burst < limit {
		burst = limit
	}
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(logrus.Fields{"key": key}).WithError(err).Error("rate limiter: failed to increment window")
		}
		// fail open
		return true, burst, limit, reset, err
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"key": key, "count": count, "burst": burst, "limit": limit}).Debug("rate limiter window state")
	}
	if count > burst {
		return false, 0, limit, reset, nil
	}
	remaining := burst - count
	return true, remaining, limit, reset, nil
}
