package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Guard mutates stock quantities with single guarded statements so concurrent
// checkouts can never drive a quantity below zero.
type Guard interface {
	// Decrement subtracts qty when at least qty units remain. It reports false,
	// without error, when the row is missing or short.
	Decrement(ctx context.Context, db *gorm.DB, productID, sizeID snowflake.ID, qty int64) (bool, error)
	// Restore adds qty back unconditionally.
	Restore(ctx context.Context, db *gorm.DB, productID, sizeID snowflake.ID, qty int64) error
}

var (
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrStockNotFound   = errors.New("stock_not_found")
)
