package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/pointledger/domain"
	"gorm.io/gorm"
)

type ledger struct {
	clock clock.Clock
}

func Provide(c clock.Clock) domain.Ledger {
	if c == nil {
		c = clock.NewSystemClock()
	}
	return &ledger{clock: c}
}

func (l *ledger) Debit(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64) (bool, error) {
	if amount < 0 {
		return false, domain.ErrInvalidAmount
	}
	if amount == 0 {
		return true, nil
	}

	res := db.WithContext(ctx).Exec(
		`UPDATE users SET points = points - ?, updated_at = ?
		 WHERE id = ? AND points >= ?`,
		amount,
		l.clock.Now(),
		userID,
		amount,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (l *ledger) Credit(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64) error {
	if amount < 0 {
		return domain.ErrInvalidAmount
	}
	if amount == 0 {
		return nil
	}

	res := db.WithContext(ctx).Exec(
		`UPDATE users SET points = points + ?, updated_at = ? WHERE id = ?`,
		amount,
		l.clock.Now(),
		userID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
