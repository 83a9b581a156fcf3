package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListTiers(ctx context.Context, db *gorm.DB) ([]Tier, error)
	// FindTierForAmount returns the tier with the highest MinAmount <= amount, or nil.
	FindTierForAmount(ctx context.Context, db *gorm.DB, amount int64) (*Tier, error)
	InsertTierIfMissing(ctx context.Context, db *gorm.DB, tier *Tier) error
	SumLifetimeSpend(ctx context.Context, db *gorm.DB, userID, excludeOrderID snowflake.ID) (int64, error)
	FindUserTierID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (string, bool, error)
	UpdateUserTier(ctx context.Context, db *gorm.DB, userID snowflake.ID, tierID string) error
}
