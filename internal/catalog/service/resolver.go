package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/catalog/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Repo domain.Repository
}

type Resolver struct {
	repo domain.Repository
}

func New(p Params) domain.Resolver {
	return &Resolver{repo: p.Repo}
}

func (r *Resolver) ResolvePrices(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]int64, error) {
	ids := dedupe(productIDs)
	prices, err := r.repo.FindPrices(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := prices[id]; !ok {
			return nil, &domain.ProductNotFoundError{ProductID: id}
		}
	}
	return prices, nil
}

func (r *Resolver) ResolveStoreIDs(ctx context.Context, db *gorm.DB, productIDs []snowflake.ID) (map[snowflake.ID]snowflake.ID, error) {
	return r.repo.FindStoreIDs(ctx, db, dedupe(productIDs))
}

func dedupe(ids []snowflake.ID) []snowflake.ID {
	seen := make(map[snowflake.ID]struct{}, len(ids))
	out := make([]snowflake.ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
