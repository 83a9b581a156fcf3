package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/marketplace/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyCheckoutUser = "checkout:user:%s"

// CheckoutLimiter throttles order mutations per buyer. A nil or disabled limiter allows everything.
type CheckoutLimiter struct {
	enabled bool
	bucket  *TokenBucket
	rate    float64
	burst   int
}

func NewCheckoutLimiter(lc fx.Lifecycle, cfg config.Config, log *zap.Logger) (*CheckoutLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return &CheckoutLimiter{}, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.CheckoutRate <= 0 || limitCfg.CheckoutBurst <= 0 {
		return nil, errors.New("checkout rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				log.Warn("rate limit redis unreachable", zap.String("addr", addr), zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	return NewCheckoutLimiterWithBucket(NewTokenBucket(client), limitCfg.CheckoutRate, limitCfg.CheckoutBurst), nil
}

func NewCheckoutLimiterWithBucket(bucket *TokenBucket, rate float64, burst int) *CheckoutLimiter {
	return &CheckoutLimiter{
		enabled: bucket != nil,
		bucket:  bucket,
		rate:    rate,
		burst:   burst,
	}
}

func (l *CheckoutLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *CheckoutLimiter) AllowUser(ctx context.Context, userID string) (Result, error) {
	if !l.Enabled() {
		return Result{Allowed: true}, nil
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Result{}, ErrEmptyKey
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyCheckoutUser, userID), l.rate, l.burst)
}
