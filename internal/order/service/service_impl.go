package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/marketplace/internal/catalog/domain"
	"github.com/smallbiznis/marketplace/internal/clock"
	"github.com/smallbiznis/marketplace/internal/config"
	inventorydomain "github.com/smallbiznis/marketplace/internal/inventory/domain"
	loyaltydomain "github.com/smallbiznis/marketplace/internal/loyalty/domain"
	obslogger "github.com/smallbiznis/marketplace/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/marketplace/internal/observability/metrics"
	obstracing "github.com/smallbiznis/marketplace/internal/observability/tracing"
	"github.com/smallbiznis/marketplace/internal/order/domain"
	pointdomain "github.com/smallbiznis/marketplace/internal/pointledger/domain"
	userdomain "github.com/smallbiznis/marketplace/internal/user/domain"
	"github.com/smallbiznis/marketplace/pkg/db/pagination"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var phoneNumberPattern = regexp.MustCompile(`^010-\d{4}-\d{4}$`)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Checkout *config.CheckoutConfigHolder
	Repo     domain.Repository
	Users    userdomain.Repository
	Guard    inventorydomain.Guard
	Ledger   pointdomain.Ledger
	Prices   catalogdomain.Resolver
	Loyalty  loyaltydomain.Service
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	checkout *config.CheckoutConfigHolder
	repo     domain.Repository
	users    userdomain.Repository
	guard    inventorydomain.Guard
	ledger   pointdomain.Ledger
	prices   catalogdomain.Resolver
	loyalty  loyaltydomain.Service
	metrics  *obsmetrics.Metrics
	tracer   trace.Tracer
}

func New(p Params) domain.Service {
	c := p.Clock
	if c == nil {
		c = clock.NewSystemClock()
	}
	checkout := p.Checkout
	if checkout == nil {
		checkout = config.NewStaticCheckoutConfigHolder(config.DefaultCheckoutConfig())
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("order.service"),
		genID:    p.GenID,
		clock:    c,
		checkout: checkout,
		repo:     p.Repo,
		users:    p.Users,
		guard:    p.Guard,
		ledger:   p.Ledger,
		prices:   p.Prices,
		loyalty:  p.Loyalty,
		metrics:  p.Metrics,
		tracer:   obstracing.Tracer("marketplace/order"),
	}
}

// pricedLines is the outcome of applying a checkout payload inside a transaction.
type pricedLines struct {
	items         []domain.OrderItem
	subtotal      int64
	totalQuantity int64
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Create")
	defer span.End()

	if err := s.validatePayload(req.UserID, req.Shipping, req.Items, req.UsePoint); err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	var orderID snowflake.ID
	var status domain.PaymentStatus
	err := s.withTx(ctx, "create", func(tx *gorm.DB) error {
		now := s.clock.Now()
		orderID = s.genID.Generate()

		lines, err := s.apply(ctx, tx, orderID, req.UserID, req.Items, req.UsePoint, now)
		if err != nil {
			return err
		}

		order := domain.Order{
			ID:            orderID,
			UserID:        req.UserID,
			Name:          strings.TrimSpace(req.Shipping.Name),
			PhoneNumber:   strings.TrimSpace(req.Shipping.PhoneNumber),
			Address:       strings.TrimSpace(req.Shipping.Address),
			Subtotal:      lines.subtotal,
			TotalQuantity: lines.totalQuantity,
			UsePoint:      req.UsePoint,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.repo.Insert(ctx, tx, &order); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, tx, lines.items); err != nil {
			return err
		}

		status = domain.PaymentStatusCompleted
		if req.DeferPayment {
			status = domain.PaymentStatusWaiting
		}
		if err := s.repo.InsertPayment(ctx, tx, &domain.Payment{
			ID:        s.genID.Generate(),
			OrderID:   orderID,
			Price:     lines.subtotal - req.UsePoint,
			Status:    status,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}

		if status != domain.PaymentStatusCompleted {
			return nil
		}
		return s.settle(ctx, tx, &order, lines.items, lines.subtotal, lines.subtotal, now)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	span.SetAttributes(attribute.String("order.id", orderID.String()))
	s.metrics.RecordOrderCommitted(ctx, "create", string(status))
	return s.reload(ctx, span, "create", orderID)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateOrderRequest) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Update", trace.WithAttributes(attribute.String("order.id", req.OrderID.String())))
	defer span.End()

	if req.OrderID == 0 {
		return nil, s.fail(ctx, span, "update", domain.ErrOrderNotFound)
	}
	if err := s.validatePayload(req.UserID, req.Shipping, req.Items, req.UsePoint); err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}

	var status domain.PaymentStatus
	err := s.withTx(ctx, "update", func(tx *gorm.DB) error {
		now := s.clock.Now()

		existing, err := s.repo.FindByID(ctx, tx, req.OrderID)
		if err != nil {
			return err
		}
		if existing == nil || existing.UserID != req.UserID {
			return domain.ErrOrderNotFound
		}
		if existing.Payment == nil {
			return domain.ErrInvalidState
		}
		status = existing.Payment.Status
		if err := s.claim(ctx, tx, existing); err != nil {
			return err
		}

		// Undo the previous application before applying the new payload.
		if err := s.reverse(ctx, tx, existing); err != nil {
			return err
		}

		lines, err := s.apply(ctx, tx, existing.ID, req.UserID, req.Items, req.UsePoint, now)
		if err != nil {
			return err
		}

		if err := s.repo.DeleteItems(ctx, tx, existing.ID); err != nil {
			return err
		}
		if err := s.repo.InsertItems(ctx, tx, lines.items); err != nil {
			return err
		}

		updated := *existing
		updated.Name = strings.TrimSpace(req.Shipping.Name)
		updated.PhoneNumber = strings.TrimSpace(req.Shipping.PhoneNumber)
		updated.Address = strings.TrimSpace(req.Shipping.Address)
		updated.Subtotal = lines.subtotal
		updated.TotalQuantity = lines.totalQuantity
		updated.UsePoint = req.UsePoint
		updated.UpdatedAt = now
		if err := s.repo.UpdateHeader(ctx, tx, &updated); err != nil {
			return err
		}
		if err := s.repo.UpdatePayment(ctx, tx, existing.ID, lines.subtotal-req.UsePoint, status, now); err != nil {
			return err
		}

		if status != domain.PaymentStatusCompleted {
			return nil
		}

		reversals, err := s.salesLogs(ctx, tx, existing, existing.Items, -1, now)
		if err != nil {
			return err
		}
		if err := s.repo.InsertSalesLogs(ctx, tx, reversals); err != nil {
			return err
		}

		rewardBase := lines.subtotal - existing.Subtotal
		if rewardBase < 0 {
			rewardBase = 0
		}
		return s.settle(ctx, tx, &updated, lines.items, lines.subtotal, rewardBase, now)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "update", err)
	}

	s.metrics.RecordOrderCommitted(ctx, "update", string(status))
	return s.reload(ctx, span, "update", req.OrderID)
}

func (s *Service) Delete(ctx context.Context, orderID snowflake.ID) error {
	ctx, span := s.tracer.Start(ctx, "order.Delete", trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	if orderID == 0 {
		return s.fail(ctx, span, "delete", domain.ErrOrderNotFound)
	}

	err := s.withTx(ctx, "delete", func(tx *gorm.DB) error {
		existing, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrOrderNotFound
		}
		if existing.Payment == nil || existing.Payment.Status != domain.PaymentStatusWaiting {
			return domain.ErrInvalidState
		}
		if err := s.claim(ctx, tx, existing); err != nil {
			return err
		}

		if err := s.reverse(ctx, tx, existing); err != nil {
			return err
		}
		if err := s.repo.DeleteItems(ctx, tx, orderID); err != nil {
			return err
		}
		if err := s.repo.DeletePayment(ctx, tx, orderID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, tx, orderID)
	})
	if err != nil {
		return s.fail(ctx, span, "delete", err)
	}

	s.metrics.RecordOrderCommitted(ctx, "delete", string(domain.PaymentStatusWaiting))
	return nil
}

func (s *Service) ConfirmPayment(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.ConfirmPayment", trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	if orderID == 0 {
		return nil, s.fail(ctx, span, "confirm_payment", domain.ErrOrderNotFound)
	}

	err := s.withTx(ctx, "confirm_payment", func(tx *gorm.DB) error {
		now := s.clock.Now()

		existing, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrOrderNotFound
		}
		if existing.Payment == nil || existing.Payment.Status != domain.PaymentStatusWaiting {
			return domain.ErrInvalidState
		}

		if err := s.claim(ctx, tx, existing); err != nil {
			return err
		}

		completed, err := s.repo.CompletePayment(ctx, tx, orderID, now)
		if err != nil {
			return err
		}
		if !completed {
			return domain.ErrConcurrentModification
		}
		return s.settle(ctx, tx, existing, existing.Items, existing.Subtotal, existing.Subtotal, now)
	})
	if err != nil {
		return nil, s.fail(ctx, span, "confirm_payment", err)
	}

	s.metrics.RecordOrderCommitted(ctx, "confirm_payment", string(domain.PaymentStatusCompleted))
	return s.reload(ctx, span, "confirm_payment", orderID)
}

func (s *Service) List(ctx context.Context, req domain.ListOrdersRequest) (domain.ListOrdersResponse, error) {
	ctx, span := s.tracer.Start(ctx, "order.List")
	defer span.End()

	if req.UserID == 0 {
		return domain.ListOrdersResponse{}, s.fail(ctx, span, "list", domain.ErrUserNotFound)
	}

	status := req.Status
	if status == "" {
		status = domain.PaymentStatusCompleted
	}
	if !status.Valid() {
		return domain.ListOrdersResponse{}, s.fail(ctx, span, "list", domain.NewValidationError("status", "invalid_status"))
	}

	sortOrder := req.Sort
	if sortOrder == "" {
		sortOrder = domain.SortRecent
	}
	if sortOrder != domain.SortRecent && sortOrder != domain.SortOldest {
		return domain.ListOrdersResponse{}, s.fail(ctx, span, "list", domain.NewValidationError("order_by", "invalid_order_by"))
	}

	cfg := s.checkout.Get()
	page := pagination.Pagination{Page: req.Page, PageSize: req.PageSize}.Normalize(cfg.DefaultPageSize, cfg.MaxPageSize)

	orders, total, err := s.repo.List(ctx, s.db, domain.ListOrdersFilter{
		UserID: req.UserID,
		Status: status,
		Sort:   sortOrder,
	}, page)
	if err != nil {
		return domain.ListOrdersResponse{}, s.fail(ctx, span, "list", err)
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	return domain.ListOrdersResponse{
		Orders: orders,
		Meta:   pagination.BuildMeta(page, total),
	}, nil
}

func (s *Service) Get(ctx context.Context, orderID snowflake.ID) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.Get", trace.WithAttributes(attribute.String("order.id", orderID.String())))
	defer span.End()

	if orderID == 0 {
		return nil, s.fail(ctx, span, "get", domain.ErrOrderNotFound)
	}

	order, err := s.repo.FindDetail(ctx, s.db, orderID)
	if err != nil {
		return nil, s.fail(ctx, span, "get", err)
	}
	if order == nil {
		return nil, s.fail(ctx, span, "get", domain.ErrOrderNotFound)
	}
	return order, nil
}

// apply runs the checkout steps shared by create and update: balance check, stock
// decrements in (product, size) order, point debit and price snapshot.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, orderID, userID snowflake.ID, items []domain.LineItem, usePoint int64, now time.Time) (pricedLines, error) {
	user, err := s.users.FindByID(ctx, tx, userID)
	if err != nil {
		return pricedLines{}, err
	}
	if user == nil {
		return pricedLines{}, domain.ErrUserNotFound
	}
	if user.Points < usePoint {
		return pricedLines{}, domain.ErrInsufficientPoints
	}

	ordered := make([]domain.LineItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].ProductID != ordered[j].ProductID {
			return ordered[i].ProductID < ordered[j].ProductID
		}
		return ordered[i].SizeID < ordered[j].SizeID
	})
	for _, item := range ordered {
		ok, err := s.guard.Decrement(ctx, tx, item.ProductID, item.SizeID, item.Quantity)
		if err != nil {
			return pricedLines{}, err
		}
		if !ok {
			s.metrics.RecordStockConflict(ctx)
			return pricedLines{}, &domain.InsufficientStockError{ProductID: item.ProductID, SizeID: item.SizeID}
		}
	}

	if usePoint > 0 {
		ok, err := s.ledger.Debit(ctx, tx, userID, usePoint)
		if err != nil {
			return pricedLines{}, err
		}
		if !ok {
			return pricedLines{}, domain.ErrInsufficientPoints
		}
	}

	productIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	prices, err := s.prices.ResolvePrices(ctx, tx, productIDs)
	if err != nil {
		return pricedLines{}, err
	}

	out := pricedLines{items: make([]domain.OrderItem, 0, len(items))}
	for _, item := range items {
		price := prices[item.ProductID]
		out.subtotal += price * item.Quantity
		out.totalQuantity += item.Quantity
		out.items = append(out.items, domain.OrderItem{
			ID:        s.genID.Generate(),
			OrderID:   orderID,
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
			Price:     price,
			CreatedAt: now,
		})
	}

	if usePoint > out.subtotal {
		return pricedLines{}, domain.NewValidationError("use_point", "invalid_use_point")
	}
	return out, nil
}

// reverse returns the stock and points held by an existing order.
func (s *Service) reverse(ctx context.Context, tx *gorm.DB, order *domain.Order) error {
	for _, item := range order.Items {
		if err := s.guard.Restore(ctx, tx, item.ProductID, item.SizeID, item.Quantity); err != nil {
			return err
		}
	}
	if order.UsePoint > 0 {
		if err := s.ledger.Credit(ctx, tx, order.UserID, order.UsePoint); err != nil {
			return err
		}
	}
	return nil
}

// settle appends the sales trail for a completed payment and grants loyalty points.
func (s *Service) settle(ctx context.Context, tx *gorm.DB, order *domain.Order, items []domain.OrderItem, orderAmount, rewardBase int64, now time.Time) error {
	logs, err := s.salesLogs(ctx, tx, order, items, 1, now)
	if err != nil {
		return err
	}
	if err := s.repo.InsertSalesLogs(ctx, tx, logs); err != nil {
		return err
	}

	points, err := s.loyalty.Reward(ctx, tx, loyaltydomain.RewardRequest{
		UserID:      order.UserID,
		OrderID:     order.ID,
		OrderAmount: orderAmount,
		RewardBase:  rewardBase,
	})
	if err != nil {
		return err
	}
	obslogger.WithContext(ctx, s.log).Debug("order settled",
		zap.String("order_id", order.ID.String()),
		zap.Int64("order_amount", orderAmount),
		zap.Int64("points_granted", points),
	)
	return nil
}

func (s *Service) salesLogs(ctx context.Context, tx *gorm.DB, order *domain.Order, items []domain.OrderItem, sign int64, now time.Time) ([]domain.SalesLog, error) {
	productIDs := make([]snowflake.ID, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	stores, err := s.prices.ResolveStoreIDs(ctx, tx, productIDs)
	if err != nil {
		return nil, err
	}

	logs := make([]domain.SalesLog, 0, len(items))
	for _, item := range items {
		logs = append(logs, domain.SalesLog{
			ID:        s.genID.Generate(),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			StoreID:   stores[item.ProductID],
			UserID:    order.UserID,
			Price:     item.Price,
			Quantity:  sign * item.Quantity,
			SoldAt:    now,
		})
	}
	return logs, nil
}

func (s *Service) validatePayload(userID snowflake.ID, shipping domain.Shipping, items []domain.LineItem, usePoint int64) error {
	if userID == 0 {
		return domain.ErrUserNotFound
	}
	if strings.TrimSpace(shipping.Name) == "" {
		return domain.NewValidationError("name", "invalid_name")
	}
	if !phoneNumberPattern.MatchString(strings.TrimSpace(shipping.PhoneNumber)) {
		return domain.NewValidationError("phone_number", "invalid_phone_number")
	}
	if strings.TrimSpace(shipping.Address) == "" {
		return domain.NewValidationError("address", "invalid_address")
	}
	if usePoint < 0 {
		return domain.NewValidationError("use_point", "invalid_use_point")
	}

	cfg := s.checkout.Get()
	if len(items) == 0 || len(items) > cfg.MaxLineItems {
		return domain.NewValidationError("items", "invalid_items")
	}
	for _, item := range items {
		if item.ProductID == 0 {
			return domain.NewValidationError("product_id", "invalid_product_id")
		}
		if item.SizeID == 0 {
			return domain.NewValidationError("size_id", "invalid_size_id")
		}
		if item.Quantity < 1 || item.Quantity > int64(cfg.MaxQuantityPerLine) {
			return domain.NewValidationError("quantity", "invalid_quantity")
		}
	}
	return nil
}

func (s *Service) reload(ctx context.Context, span trace.Span, operation string, orderID snowflake.ID) (*domain.Order, error) {
	order, err := s.repo.FindDetail(ctx, s.db, orderID)
	if err != nil {
		return nil, s.fail(ctx, span, operation, err)
	}
	if order == nil {
		return nil, s.fail(ctx, span, operation, domain.ErrOrderNotFound)
	}
	return order, nil
}

// claim bumps the order version read earlier in this transaction. Losing the race to
// another writer returns ErrConcurrentModification so withTx replays from a fresh read.
func (s *Service) claim(ctx context.Context, tx *gorm.DB, order *domain.Order) error {
	ok, err := s.repo.Claim(ctx, tx, order.ID, order.Version)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrConcurrentModification
	}
	order.Version++
	return nil
}

// fail records the failure and hides persistence errors behind ErrInternal.
func (s *Service) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	reason := domain.Reason(err)
	s.metrics.RecordOrderFailure(ctx, operation, reason)
	span.SetAttributes(attribute.String("order.failure_reason", reason))

	if domain.IsDomainError(err) {
		return err
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, operation+" failed")
	obslogger.WithContext(ctx, s.log).Error("order operation failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	return domain.ErrInternal
}
