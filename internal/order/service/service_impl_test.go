package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/marketplace/internal/catalog/domain"
	catalogrepository "github.com/smallbiznis/marketplace/internal/catalog/repository"
	catalogservice "github.com/smallbiznis/marketplace/internal/catalog/service"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/config"
	inventoryrepository "github.com/smallbiznis/marketplace/internal/inventory/repository"
	loyaltyrepository "github.com/smallbiznis/marketplace/internal/loyalty/repository"
	loyaltyservice "github.com/smallbiznis/marketplace/internal/loyalty/service"
	"github.com/smallbiznis/marketplace/internal/order/domain"
	"github.com/smallbiznis/marketplace/internal/order/repository"
	pointrepository "github.com/smallbiznis/marketplace/internal/pointledger/repository"
	"github.com/smallbiznis/marketplace/internal/testutil"
	userdomain "github.com/smallbiznis/marketplace/internal/user/domain"
	userrepository "github.com/smallbiznis/marketplace/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type harness struct {
	svc   domain.Service
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	f     *testutil.Fixtures

	buyer userdomain.User
	store catalogdomain.Store
	sizeM catalogdomain.Size
	sizeL catalogdomain.Size
	shirt catalogdomain.Product
	coat  catalogdomain.Product
}

var shipping = domain.Shipping{
	Name:        "Kim Buyer",
	PhoneNumber: "010-1234-5678",
	Address:     "12 Harbor Road",
}

func newHarness(t *testing.T, buyerPoints int64) *harness {
	t.Helper()
	return newHarnessWithRepo(t, buyerPoints, repository.Provide())
}

func newHarnessWithRepo(t *testing.T, buyerPoints int64, repo domain.Repository) *harness {
	t.Helper()
	db := testutil.OpenDB(t)
	node := testutil.Node(t)
	c := clock.NewFakeClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	f := testutil.NewFixtures(t, db, node)

	f.Tier("grade_green", 1, 0)
	f.Tier("grade_gold", 5, 300_000)

	ledger := pointrepository.Provide(c)
	loyalty := loyaltyservice.New(loyaltyservice.Params{
		DB:     db,
		Log:    zap.NewNop(),
		Clock:  c,
		Repo:   loyaltyrepository.Provide(),
		Ledger: ledger,
	})
	svc := New(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    c,
		Checkout: config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig()),
		Repo:     repo,
		Users:    userrepository.Provide(),
		Guard:    inventoryrepository.Provide(),
		Ledger:   ledger,
		Prices:   catalogservice.New(catalogservice.Params{Repo: catalogrepository.Provide()}),
		Loyalty:  loyalty,
	})

	h := &harness{svc: svc, db: db, node: node, clock: c, f: f}
	seller := f.User(userdomain.UserTypeSeller, 0, "grade_green")
	h.buyer = f.User(userdomain.UserTypeBuyer, buyerPoints, "grade_green")
	h.store = f.Store(seller.ID)
	h.sizeM = f.Size("M")
	h.sizeL = f.Size("L")
	h.shirt = f.Product(h.store.ID, 10_000)
	h.coat = f.Product(h.store.ID, 100_000)
	f.Stock(h.shirt.ID, h.sizeM.ID, 100)
	f.Stock(h.shirt.ID, h.sizeL.ID, 100)
	f.Stock(h.coat.ID, h.sizeM.ID, 10)
	return h
}

func (h *harness) stock(t *testing.T, product catalogdomain.Product, size catalogdomain.Size) int64 {
	return testutil.StockQuantity(t, h.db, product.ID, size.ID)
}

func countRows(t *testing.T, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(table).Count(&n).Error)
	return n
}

func TestCreateCompletesOrder(t *testing.T) {
	h := newHarness(t, 5_000)

	order, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items: []domain.LineItem{
			{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 2},
			{ProductID: h.coat.ID, SizeID: h.sizeM.ID, Quantity: 1},
		},
		UsePoint: 5_000,
	})
	require.NoError(t, err)
	require.NotNil(t, order)

	assert.Equal(t, int64(120_000), order.Subtotal)
	assert.Equal(t, int64(3), order.TotalQuantity)
	assert.Equal(t, int64(5_000), order.UsePoint)
	require.NotNil(t, order.Payment)
	assert.Equal(t, domain.PaymentStatusCompleted, order.Payment.Status)
	assert.Equal(t, int64(115_000), order.Payment.Price)

	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		require.NotNil(t, item.Product)
		require.NotNil(t, item.Product.Store)
		assert.Equal(t, h.store.ID, item.Product.Store.ID)
		assert.NotEmpty(t, item.Product.Stocks)
		require.NotNil(t, item.Size)
	}

	assert.Equal(t, int64(98), h.stock(t, h.shirt, h.sizeM))
	assert.Equal(t, int64(9), h.stock(t, h.coat, h.sizeM))
	// 5,000 spent, then 1% of 120,000 rewarded.
	assert.Equal(t, int64(1_200), testutil.UserPoints(t, h.db, h.buyer.ID))
	assert.Equal(t, int64(2), countRows(t, h.db, "sales_logs"))
}

func TestCreateTierPromotion(t *testing.T) {
	h := newHarness(t, 0)
	h.f.Stock(h.coat.ID, h.sizeL.ID, 10)

	_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items: []domain.LineItem{
			{ProductID: h.coat.ID, SizeID: h.sizeL.ID, Quantity: 3},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(15_000), testutil.UserPoints(t, h.db, h.buyer.ID))
	assert.Equal(t, "grade_gold", testutil.UserTier(t, h.db, h.buyer.ID))
}

func TestCreateThenConcurrentOrdersCannotOversell(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 20}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(80), h.stock(t, h.shirt, h.sizeM))

	var wg sync.WaitGroup
	var failures atomic.Int64
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
				UserID:   h.buyer.ID,
				Shipping: shipping,
				Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 90}},
			})
			if assert.ErrorIs(t, err, domain.ErrInsufficientStock) {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(4), failures.Load())
	assert.Equal(t, int64(80), h.stock(t, h.shirt, h.sizeM))
}

func TestConcurrentCreatesSellExactlyAvailableStock(t *testing.T) {
	h := newHarness(t, 0)

	var wg sync.WaitGroup
	var successes, stockFailures atomic.Int64
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
				UserID:   h.buyer.ID,
				Shipping: shipping,
				Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeL.ID, Quantity: 20}},
			})
			switch {
			case err == nil:
				successes.Add(1)
			case assert.ErrorIs(t, err, domain.ErrInsufficientStock):
				stockFailures.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(5), successes.Load())
	assert.Equal(t, int64(3), stockFailures.Load())
	assert.Equal(t, int64(0), h.stock(t, h.shirt, h.sizeL))
	assert.Equal(t, int64(5), countRows(t, h.db, "orders"))
}

func TestCreateRollsBackWhenLaterLineFails(t *testing.T) {
	h := newHarness(t, 1_000)
	// A catalog product with no stock row for the requested size.
	orphan := h.f.Product(h.store.ID, 5_000)

	_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items: []domain.LineItem{
			{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1},
			{ProductID: h.shirt.ID, SizeID: h.sizeL.ID, Quantity: 1},
			{ProductID: orphan.ID, SizeID: h.sizeM.ID, Quantity: 1},
		},
		UsePoint: 1_000,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, orphan.ID, stockErr.ProductID)
	assert.Equal(t, h.sizeM.ID, stockErr.SizeID)

	assert.Equal(t, int64(100), h.stock(t, h.shirt, h.sizeM))
	assert.Equal(t, int64(100), h.stock(t, h.shirt, h.sizeL))
	assert.Equal(t, int64(1_000), testutil.UserPoints(t, h.db, h.buyer.ID))
	assert.Zero(t, countRows(t, h.db, "orders"))
	assert.Zero(t, countRows(t, h.db, "order_items"))
	assert.Zero(t, countRows(t, h.db, "payments"))
	assert.Zero(t, countRows(t, h.db, "sales_logs"))
}

func TestCreateInsufficientPoints(t *testing.T) {
	h := newHarness(t, 100)

	_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
		UsePoint: 500,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientPoints)
	assert.Equal(t, int64(100), h.stock(t, h.shirt, h.sizeM))
	assert.Equal(t, int64(100), testutil.UserPoints(t, h.db, h.buyer.ID))
}

func TestCreateRejectsPointsAboveSubtotal(t *testing.T) {
	h := newHarness(t, 50_000)

	_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
		UsePoint: 20_000,
	})
	require.ErrorIs(t, err, domain.ErrInvalidRequest)

	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "use_point", vErr.Field)
	assert.Equal(t, int64(50_000), testutil.UserPoints(t, h.db, h.buyer.ID))
	assert.Equal(t, int64(100), h.stock(t, h.shirt, h.sizeM))
}

func TestCreateUnknownUserAndProduct(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.node.Generate(),
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	// Stock row exists but the product was removed from the catalog.
	ghost := h.node.Generate()
	h.f.Stock(ghost, h.sizeM.ID, 5)
	_, err = h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: ghost, SizeID: h.sizeM.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Equal(t, int64(5), testutil.StockQuantity(t, h.db, ghost, h.sizeM.ID))
}

func TestCreateValidation(t *testing.T) {
	h := newHarness(t, 0)
	item := []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}}

	cases := []struct {
		name  string
		req   domain.CreateOrderRequest
		field string
	}{
		{"missing name", domain.CreateOrderRequest{UserID: h.buyer.ID, Shipping: domain.Shipping{PhoneNumber: shipping.PhoneNumber, Address: shipping.Address}, Items: item}, "name"},
		{"bad phone", domain.CreateOrderRequest{UserID: h.buyer.ID, Shipping: domain.Shipping{Name: "a", PhoneNumber: "02-123-4567", Address: "b"}, Items: item}, "phone_number"},
		{"missing address", domain.CreateOrderRequest{UserID: h.buyer.ID, Shipping: domain.Shipping{Name: "a", PhoneNumber: shipping.PhoneNumber}, Items: item}, "address"},
		{"no items", domain.CreateOrderRequest{UserID: h.buyer.ID, Shipping: shipping}, "items"},
		{"zero quantity", domain.CreateOrderRequest{UserID: h.buyer.ID, Shipping: shipping, Items: []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID}}}, "quantity"},
		{"negative points", domain.CreateOrderRequest{UserID: h.buyer.ID, Shipping: shipping, Items: item, UsePoint: -1}, "use_point"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := h.svc.Create(context.Background(), tc.req)
			var vErr *domain.ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tc.field, vErr.Field)
		})
	}
}

func TestPriceSnapshotSurvivesCatalogChange(t *testing.T) {
	h := newHarness(t, 0)

	order, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	require.NoError(t, h.db.Exec(`UPDATE products SET price = ? WHERE id = ?`, 99_000, h.shirt.ID).Error)

	reloaded, err := h.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, int64(10_000), reloaded.Items[0].Price)
	assert.Equal(t, int64(20_000), reloaded.Subtotal)
	assert.Equal(t, int64(99_000), reloaded.Items[0].Product.Price)
}

func TestDeferredPaymentAndConfirm(t *testing.T) {
	h := newHarness(t, 0)

	order, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:       h.buyer.ID,
		Shipping:     shipping,
		Items:        []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
		DeferPayment: true,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusWaiting, order.Payment.Status)
	assert.Zero(t, countRows(t, h.db, "sales_logs"))
	assert.Zero(t, testutil.UserPoints(t, h.db, h.buyer.ID))

	confirmed, err := h.svc.ConfirmPayment(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusCompleted, confirmed.Payment.Status)
	assert.Equal(t, int64(1), countRows(t, h.db, "sales_logs"))
	assert.Equal(t, int64(100), testutil.UserPoints(t, h.db, h.buyer.ID))

	_, err = h.svc.ConfirmPayment(context.Background(), order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestDeleteGuard(t *testing.T) {
	h := newHarness(t, 2_000)

	completed, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	err = h.svc.Delete(context.Background(), completed.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = h.svc.Get(context.Background(), completed.ID)
	require.NoError(t, err)

	waiting, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:       h.buyer.ID,
		Shipping:     shipping,
		Items:        []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeL.ID, Quantity: 4}},
		UsePoint:     1_000,
		DeferPayment: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(96), h.stock(t, h.shirt, h.sizeL))
	pointsBefore := testutil.UserPoints(t, h.db, h.buyer.ID)

	require.NoError(t, h.svc.Delete(context.Background(), waiting.ID))
	assert.Equal(t, int64(100), h.stock(t, h.shirt, h.sizeL))
	assert.Equal(t, pointsBefore+1_000, testutil.UserPoints(t, h.db, h.buyer.ID))

	_, err = h.svc.Get(context.Background(), waiting.ID)
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	assert.ErrorIs(t, h.svc.Delete(context.Background(), waiting.ID), domain.ErrOrderNotFound)
}

func TestUpdateReversesPreviousApplication(t *testing.T) {
	h := newHarness(t, 3_000)

	order, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:       h.buyer.ID,
		Shipping:     shipping,
		Items:        []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 5}},
		UsePoint:     2_000,
		DeferPayment: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(95), h.stock(t, h.shirt, h.sizeM))
	assert.Equal(t, int64(1_000), testutil.UserPoints(t, h.db, h.buyer.ID))

	// Spending 3,000 is only possible once the original 2,000 is refunded.
	updated, err := h.svc.Update(context.Background(), domain.UpdateOrderRequest{
		OrderID:  order.ID,
		UserID:   h.buyer.ID,
		Shipping: domain.Shipping{Name: "New Name", PhoneNumber: "010-9999-0000", Address: "New Address"},
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeL.ID, Quantity: 2}},
		UsePoint: 3_000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(100), h.stock(t, h.shirt, h.sizeM))
	assert.Equal(t, int64(98), h.stock(t, h.shirt, h.sizeL))
	assert.Zero(t, testutil.UserPoints(t, h.db, h.buyer.ID))

	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, int64(20_000), updated.Subtotal)
	assert.Equal(t, int64(2), updated.TotalQuantity)
	assert.Equal(t, int64(17_000), updated.Payment.Price)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, h.sizeL.ID, updated.Items[0].SizeID)
	assert.Equal(t, int64(1), countRows(t, h.db, "order_items"))
}

func TestUpdateCompletedOrderAppendsReversalLogs(t *testing.T) {
	h := newHarness(t, 0)

	order, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(200), testutil.UserPoints(t, h.db, h.buyer.ID))

	_, err = h.svc.Update(context.Background(), domain.UpdateOrderRequest{
		OrderID:  order.ID,
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 5}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), countRows(t, h.db, "sales_logs"))
	var net int64
	require.NoError(t, h.db.Raw(`SELECT COALESCE(SUM(price * quantity), 0) FROM sales_logs WHERE order_id = ?`, order.ID).Scan(&net).Error)
	assert.Equal(t, int64(50_000), net)
	// Only the 30,000 increase earns points.
	assert.Equal(t, int64(500), testutil.UserPoints(t, h.db, h.buyer.ID))
	assert.Equal(t, int64(95), h.stock(t, h.shirt, h.sizeM))
}

func TestUpdateFailureKeepsOriginalOrder(t *testing.T) {
	h := newHarness(t, 0)

	order, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:       h.buyer.ID,
		Shipping:     shipping,
		Items:        []domain.LineItem{{ProductID: h.coat.ID, SizeID: h.sizeM.ID, Quantity: 4}},
		DeferPayment: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(6), h.stock(t, h.coat, h.sizeM))

	_, err = h.svc.Update(context.Background(), domain.UpdateOrderRequest{
		OrderID:  order.ID,
		UserID:   h.buyer.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.coat.ID, SizeID: h.sizeM.ID, Quantity: 11}},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Equal(t, int64(6), h.stock(t, h.coat, h.sizeM))
	reloaded, err := h.svc.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
	assert.Equal(t, int64(4), reloaded.Items[0].Quantity)
}

func TestUpdateOtherUsersOrderIsNotFound(t *testing.T) {
	h := newHarness(t, 0)
	other := h.f.User(userdomain.UserTypeBuyer, 0, "grade_green")

	order, err := h.svc.Create(context.Background(), domain.CreateOrderRequest{
		UserID:       h.buyer.ID,
		Shipping:     shipping,
		Items:        []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
		DeferPayment: true,
	})
	require.NoError(t, err)

	_, err = h.svc.Update(context.Background(), domain.UpdateOrderRequest{
		OrderID:  order.ID,
		UserID:   other.ID,
		Shipping: shipping,
		Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestListFiltersSortsAndPaginates(t *testing.T) {
	h := newHarness(t, 0)
	ctx := context.Background()

	var created []snowflake.ID
	for i := 0; i < 3; i++ {
		order, err := h.svc.Create(ctx, domain.CreateOrderRequest{
			UserID:   h.buyer.ID,
			Shipping: shipping,
			Items:    []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
		})
		require.NoError(t, err)
		created = append(created, order.ID)
		h.clock.Advance(time.Minute)
	}
	_, err := h.svc.Create(ctx, domain.CreateOrderRequest{
		UserID:       h.buyer.ID,
		Shipping:     shipping,
		Items:        []domain.LineItem{{ProductID: h.shirt.ID, SizeID: h.sizeM.ID, Quantity: 1}},
		DeferPayment: true,
	})
	require.NoError(t, err)

	resp, err := h.svc.List(ctx, domain.ListOrdersRequest{UserID: h.buyer.ID, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.Equal(t, int64(2), resp.Meta.TotalPages)
	assert.Equal(t, 1, resp.Meta.Page)
	require.Len(t, resp.Orders, 2)
	assert.Equal(t, created[2], resp.Orders[0].ID)
	assert.Equal(t, created[1], resp.Orders[1].ID)
	require.NotEmpty(t, resp.Orders[0].Items)
	assert.NotNil(t, resp.Orders[0].Items[0].Product)

	resp, err = h.svc.List(ctx, domain.ListOrdersRequest{UserID: h.buyer.ID, PageSize: 2, Page: 2, Sort: domain.SortOldest})
	require.NoError(t, err)
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, created[2], resp.Orders[0].ID)

	resp, err = h.svc.List(ctx, domain.ListOrdersRequest{UserID: h.buyer.ID, Status: domain.PaymentStatusWaiting})
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.Meta.Total)

	_, err = h.svc.List(ctx, domain.ListOrdersRequest{UserID: h.buyer.ID, Sort: "cheapest"})
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGetMissingOrder(t *testing.T) {
	h := newHarness(t, 0)

	_, err := h.svc.Get(context.Background(), h.node.Generate())
	assert.ErrorIs(t, err, domain.ErrOrderNotFound)
}
