package service

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/config"
	"github.com/smallbiznis/marketplace/internal/loyalty/domain"
	obsmetrics "github.com/smallbiznis/marketplace/internal/observability/metrics"
	pointdomain "github.com/smallbiznis/marketplace/internal/pointledger/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Repo    domain.Repository
	Ledger  pointdomain.Ledger
	Metrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	repo    domain.Repository
	ledger  pointdomain.Ledger
	metrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.NewSystemClock()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("loyalty.service"),
		clock:   c,
		repo:    p.Repo,
		ledger:  p.Ledger,
		metrics: p.Metrics,
	}
}

// Reward derives lifetime spend from the sales trail, grants points at the matching
// tier's rate and moves the user to that tier.
func (s *Service) Reward(ctx context.Context, db *gorm.DB, req domain.RewardRequest) (int64, error) {
	if req.UserID == 0 || req.OrderAmount < 0 || req.RewardBase < 0 {
		return 0, domain.ErrInvalidRequest
	}

	prior, err := s.repo.SumLifetimeSpend(ctx, db, req.UserID, req.OrderID)
	if err != nil {
		return 0, err
	}
	lifetime := prior + req.OrderAmount

	tier, err := s.repo.FindTierForAmount(ctx, db, lifetime)
	if err != nil {
		return 0, err
	}
	if tier == nil {
		s.log.Warn("no tier matches lifetime spend",
			zap.String("user_id", req.UserID.String()),
			zap.Int64("lifetime_spend", lifetime),
		)
		return 0, nil
	}

	points := req.RewardBase * int64(tier.Rate) / 100
	if points > 0 {
		if err := s.ledger.Credit(ctx, db, req.UserID, points); err != nil {
			if errors.Is(err, pointdomain.ErrUserNotFound) {
				return 0, domain.ErrUserNotFound
			}
			return 0, err
		}
	}

	current, found, err := s.repo.FindUserTierID(ctx, db, req.UserID)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, domain.ErrUserNotFound
	}
	if current != tier.ID {
		if err := s.repo.UpdateUserTier(ctx, db, req.UserID, tier.ID); err != nil {
			return 0, err
		}
		s.log.Info("user tier reassigned",
			zap.String("user_id", req.UserID.String()),
			zap.String("from_tier", current),
			zap.String("to_tier", tier.ID),
			zap.Int64("lifetime_spend", lifetime),
		)
	}

	s.metrics.RecordPointsRewarded(ctx, tier.ID, points)
	return points, nil
}

func (s *Service) ListTiers(ctx context.Context) ([]domain.Tier, error) {
	return s.repo.ListTiers(ctx, s.db)
}

// SeedTiers inserts configured tiers that are not yet present. Existing rows are left untouched.
func (s *Service) SeedTiers(ctx context.Context, seeds []config.TierSeed) error {
	now := s.clock.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, seed := range seeds {
			id := strings.TrimSpace(seed.ID)
			if id == "" {
				return domain.ErrInvalidRequest
			}
			tier := domain.Tier{
				ID:        id,
				Name:      strings.TrimSpace(seed.Name),
				Rate:      seed.Rate,
				MinAmount: seed.MinAmount,
				CreatedAt: now,
			}
			if err := s.repo.InsertTierIfMissing(ctx, tx, &tier); err != nil {
				return err
			}
		}
		return nil
	})
}
