package service

import (
	"context"
	"errors"
	"time"

	obslogger "github.com/smallbiznis/marketplace/internal/observability/logger"
	"github.com/smallbiznis/marketplace/internal/order/domain"
	pkgdb "github.com/smallbiznis/marketplace/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxTxAttempts = 3
	txRetryDelay  = 20 * time.Millisecond
)

// withTx runs fn in one transaction at the default isolation level. It is replayed from
// the start when fn loses an order claim to another writer or the database reports a
// deadlock or busy lock.
func (s *Service) withTx(ctx context.Context, operation string, fn func(tx *gorm.DB) error) error {
	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = s.db.WithContext(ctx).Transaction(fn)
		if err == nil || !retryable(err) || attempt == maxTxAttempts {
			return err
		}

		s.metrics.RecordTxRetry(ctx, operation)
		obslogger.WithContext(ctx, s.log).Warn("retrying order transaction",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * txRetryDelay):
		}
	}
	return err
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrConcurrentModification) || pkgdb.IsRetryableTxErr(err)
}
