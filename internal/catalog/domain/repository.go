package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindPrices(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]int64, error)
	FindStoreIDs(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]snowflake.ID, error)
}
