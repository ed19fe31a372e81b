package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const submitKeyPrefix = "rl:submit:"

type rateCounter interface {
	CheckAndIncrement(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// RateLimiterConfig bounds how many submissions one address may make per window.
type RateLimiterConfig struct {
	Limit  int
	Window time.Duration
}

// RateLimiter gates public submissions per client address.
type RateLimiter struct {
	counter rateCounter
	metrics *MetricsService
	logger  *zap.Logger
	cfg     RateLimiterConfig
}

// NewRateLimiter constructs the limiter with the default 5 per hour policy.
func NewRateLimiter(counter rateCounter, metrics *MetricsService, logger *zap.Logger, cfg RateLimiterConfig) *RateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Limit <= 0 {
		cfg.Limit = 5
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Hour
	}
	return &RateLimiter{counter: counter, metrics: metrics, logger: logger, cfg: cfg}
}

// Allow counts one submission for ip and reports whether it may proceed.
// When the counter store is unreachable the submission is allowed and the outage logged.
func (l *RateLimiter) Allow(ctx context.Context, ip string) (bool, error) {
	if l.counter == nil {
		return true, nil
	}
	allowed, err := l.counter.CheckAndIncrement(ctx, submitKeyPrefix+ip, l.cfg.Limit, l.cfg.Window)
	if err != nil {
		l.logger.Warn("rate limiter unavailable, allowing submission", zap.String("ip", ip), zap.Error(err))
		l.metrics.RecordRateLimit("error")
		return true, err
	}
	if !allowed {
		l.metrics.RecordRateLimit("denied")
		return false, nil
	}
	l.metrics.RecordRateLimit("allowed")
	return true, nil
}
