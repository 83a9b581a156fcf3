package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindPrices(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]int64, error) {
	prices := make(map[snowflake.ID]int64, len(productIDs))
	if len(productIDs) == 0 {
		return prices, nil
	}

	var rows []struct {
		ID    snowflake.ID
		Price int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, price FROM products WHERE id IN ?`,
		productIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		prices[row.ID] = row.Price
	}
	return prices, nil
}

func (r *repo) FindStoreIDs(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]snowflake.ID, error) {
	stores := make(map[snowflake.ID]snowflake.ID, len(productIDs))
	if len(productIDs) == 0 {
		return stores, nil
	}

	var rows []struct {
		ID      snowflake.ID
		StoreID snowflake.ID
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, store_id FROM products WHERE id IN ?`,
		productIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		stores[row.ID] = row.StoreID
	}
	return stores, nil
}
