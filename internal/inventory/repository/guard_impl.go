package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/inventory/domain"
	"gorm.io/gorm"
)

type guard struct{}

func Provide() domain.Guard {
	return &guard{}
}

func (g *guard) Decrement(ctx context.Context, db *gorm.DB, productID, sizeID snowflake.ID, qty int64) (bool, error) {
	if qty <= 0 {
		return false, domain.ErrInvalidQuantity
	}

	res := db.WithContext(ctx).Exec(
		`UPDATE stocks SET quantity = quantity - ?
		 WHERE product_id = ? AND size_id = ? AND quantity >= ?`,
		qty,
		productID,
		sizeID,
		qty,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (g *guard) Restore(ctx context.Context, db *gorm.DB, productID, sizeID snowflake.ID, qty int64) error {
	if qty <= 0 {
		return domain.ErrInvalidQuantity
	}

	res := db.WithContext(ctx).Exec(
		`UPDATE stocks SET quantity = quantity + ?
		 WHERE product_id = ? AND size_id = ?`,
		qty,
		productID,
		sizeID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStockNotFound
	}
	return nil
}
