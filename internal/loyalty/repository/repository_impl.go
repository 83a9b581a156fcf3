package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/loyalty/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) ListTiers(ctx context.Context, db *gorm.DB) ([]domain.Tier, error) {
	var tiers []domain.Tier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, rate, min_amount, created_at FROM tiers ORDER BY min_amount ASC, id ASC`,
	).Scan(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}

func (r *repo) FindTierForAmount(ctx context.Context, db *gorm.DB, amount int64) (*domain.Tier, error) {
	var tier domain.Tier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, rate, min_amount, created_at FROM tiers
		 WHERE min_amount <= ?
		 ORDER BY min_amount DESC, id ASC
		 LIMIT 1`,
		amount,
	).Scan(&tier).Error
	if err != nil {
		return nil, err
	}
	if tier.ID == "" {
		return nil, nil
	}
	return &tier, nil
}

func (r *repo) InsertTierIfMissing(ctx context.Context, db *gorm.DB, tier *domain.Tier) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(tier).Error
}

func (r *repo) SumLifetimeSpend(ctx context.Context, db *gorm.DB, userID, excludeOrderID snowflake.ID) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(price * quantity), 0) FROM sales_logs
		 WHERE user_id = ? AND order_id <> ?`,
		userID,
		excludeOrderID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *repo) FindUserTierID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (string, bool, error) {
	var rows []struct {
		TierID string
	}
	err := db.WithContext(ctx).Raw(
		`SELECT tier_id FROM users WHERE id = ?`,
		userID,
	).Scan(&rows).Error
	if err != nil {
		return "", false, err
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	return rows[0].TierID, true, nil
}

func (r *repo) UpdateUserTier(ctx context.Context, db *gorm.DB, userID snowflake.ID, tierID string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET tier_id = ? WHERE id = ?`,
		tierID,
		userID,
	).Error
}
