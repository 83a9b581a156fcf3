package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Ledger moves points on a user's balance. Debit never lets the balance go negative.
type Ledger interface {
	Debit(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64) (bool, error)
	Credit(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64) error
}

var (
	ErrInvalidAmount = errors.New("invalid_amount")
	ErrUserNotFound  = errors.New("user_not_found")
)
