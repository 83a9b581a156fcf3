package domain

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Resolver returns the catalog price of every requested product or fails as a whole.
type Resolver interface {
	ResolvePrices(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]int64, error)
	// ResolveStoreIDs maps products to their stores. Unknown products are omitted.
	ResolveStoreIDs(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]snowflake.ID, error)
}

var ErrProductNotFound = errors.New("product_not_found")

type ProductNotFoundError struct {
	ProductID snowflake.ID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

func (e *ProductNotFoundError) Unwrap() error {
	return ErrProductNotFound
}
