package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/internal/order/domain"
	"github.com/smallbiznis/marketplace/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, user_id, name, phone_number, address, subtotal, total_quantity, use_point, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.UserID,
		order.Name,
		order.PhoneNumber,
		order.Address,
		order.Subtotal,
		order.TotalQuantity,
		order.UsePoint,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Omit(clause.Associations).Create(&items).Error
}

func (r *repo) InsertPayment(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, order_id, price, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.OrderID,
		payment.Price,
		payment.Status,
		payment.CreatedAt,
		payment.UpdatedAt,
	).Error
}

func (r *repo) InsertSalesLogs(ctx context.Context, db *gorm.DB, logs []domain.SalesLog) error {
	if len(logs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&logs).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).
		Preload("Payment").
		Where("id = ?", id).
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (r *repo) FindDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var orders []domain.Order
	err := withProjection(db.WithContext(ctx)).
		Where("id = ?", id).
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListOrdersFilter, page pagination.Pagination) ([]domain.Order, int64, error) {
	base := db.WithContext(ctx).
		Model(&domain.Order{}).
		Joins("JOIN payments ON payments.order_id = orders.id").
		Where("orders.user_id = ?", filter.UserID)
	if filter.Status != "" {
		base = base.Where("payments.status = ?", filter.Status)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if filter.Sort == domain.SortOldest {
		direction = "ASC"
	}

	var orders []domain.Order
	err := withProjection(base.Session(&gorm.Session{})).
		Order("orders.created_at " + direction).
		Order("orders.id " + direction).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repo) Claim(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders SET version = version + 1 WHERE id = ? AND version = ?`,
		id,
		version,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) UpdateHeader(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET name = ?, phone_number = ?, address = ?, subtotal = ?, total_quantity = ?, use_point = ?, updated_at = ?
		 WHERE id = ?`,
		order.Name,
		order.PhoneNumber,
		order.Address,
		order.Subtotal,
		order.TotalQuantity,
		order.UsePoint,
		order.UpdatedAt,
		order.ID,
	).Error
}

func (r *repo) UpdatePayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID, price int64, status domain.PaymentStatus, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET price = ?, status = ?, updated_at = ? WHERE order_id = ?`,
		price,
		status,
		updatedAt,
		orderID,
	).Error
}

func (r *repo) CompletePayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID, updatedAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, updated_at = ? WHERE order_id = ? AND status = ?`,
		domain.PaymentStatusCompleted,
		updatedAt,
		orderID,
		domain.PaymentStatusWaiting,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) DeleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM order_items WHERE order_id = ?`, orderID).Error
}

func (r *repo) DeletePayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM payments WHERE order_id = ?`, orderID).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM orders WHERE id = ?`, orderID).Error
}

func withProjection(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("id ASC")
		}).
		Preload("Items.Product").
		Preload("Items.Product.Store").
		Preload("Items.Product.Stocks", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("size_id ASC")
		}).
		Preload("Items.Product.Stocks.Size").
		Preload("Items.Size").
		Preload("Payment")
}
