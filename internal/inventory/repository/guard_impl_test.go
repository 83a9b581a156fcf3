package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/smallbiznis/marketplace/internal/inventory/domain"
	"github.com/smallbiznis/marketplace/internal/testutil"
	userdomain "github.com/smallbiznis/marketplace/internal/user/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDecrementIsConditional(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	f := testutil.NewFixtures(t, db, node)
	seller := f.User(userdomain.UserTypeSeller, 0, "grade_green")
	store := f.Store(seller.ID)
	size := f.Size("M")
	product := f.Product(store.ID, 10_000)
	f.Stock(product.ID, size.ID, 10)

	guard := Provide()
	ctx := context.Background()

	ok, err := guard.Decrement(ctx, db, product.ID, size.ID, 4)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(6), testutil.StockQuantity(t, db, product.ID, size.ID))

	ok, err = guard.Decrement(ctx, db, product.ID, size.ID, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, int64(6), testutil.StockQuantity(t, db, product.ID, size.ID))

	ok, err = guard.Decrement(ctx, db, product.ID, size.ID, 6)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(0), testutil.StockQuantity(t, db, product.ID, size.ID))
}

func TestDecrementMissingRowFails(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)

	ok, err := Provide().Decrement(context.Background(), db, node.Generate(), node.Generate(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDecrementRejectsNonPositiveQuantity(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)

	_, err := Provide().Decrement(context.Background(), db, node.Generate(), node.Generate(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)

	err = Provide().Restore(context.Background(), db, node.Generate(), node.Generate(), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestConcurrentDecrementsNeverOversell(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	f := testutil.NewFixtures(t, db, node)
	seller := f.User(userdomain.UserTypeSeller, 0, "grade_green")
	store := f.Store(seller.ID)
	size := f.Size("L")
	product := f.Product(store.ID, 1_000)
	f.Stock(product.ID, size.ID, 100)

	guard := Provide()
	var wg sync.WaitGroup
	var successes atomic.Int64
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := db.Transaction(func(tx *gorm.DB) error {
				ok, err := guard.Decrement(context.Background(), tx, product.ID, size.ID, 20)
				if err != nil {
					return err
				}
				if ok {
					successes.Add(1)
				}
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), successes.Load())
	assert.Equal(t, int64(0), testutil.StockQuantity(t, db, product.ID, size.ID))
}

func TestRestoreIncrements(t *testing.T) {
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	f := testutil.NewFixtures(t, db, node)
	seller := f.User(userdomain.UserTypeSeller, 0, "grade_green")
	store := f.Store(seller.ID)
	size := f.Size("S")
	product := f.Product(store.ID, 1_000)
	f.Stock(product.ID, size.ID, 3)

	guard := Provide()
	require.NoError(t, guard.Restore(context.Background(), db, product.ID, size.ID, 5))
	assert.Equal(t, int64(8), testutil.StockQuantity(t, db, product.ID, size.ID))

	err := guard.Restore(context.Background(), db, product.ID, node.Generate(), 1)
	assert.ErrorIs(t, err, domain.ErrStockNotFound)
}
