package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/config"
	"gorm.io/gorm"
)

// RewardRequest describes a completed purchase. OrderAmount counts toward lifetime
// spend; RewardBase is the amount points are granted on.
type RewardRequest struct {
	UserID      snowflake.ID
	OrderID     snowflake.ID
	OrderAmount int64
	RewardBase  int64
}

type Service interface {
	// Reward runs inside the caller's transaction and returns the points granted.
	Reward(ctx context.Context, db *gorm.DB, req RewardRequest) (int64, error)
	ListTiers(ctx context.Context) ([]Tier, error)
	SeedTiers(ctx context.Context, seeds []config.TierSeed) error
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUserNotFound   = errors.New("user_not_found")
)
