package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListOrdersFilter struct {
	UserID snowflake.ID
	Status PaymentStatus
	Sort   SortOrder
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, order *Order) error
	InsertItems(ctx context.Context, db *gorm.DB, items []OrderItem) error
	InsertPayment(ctx context.Context, db *gorm.DB, payment *Payment) error
	InsertSalesLogs(ctx context.Context, db *gorm.DB, logs []SalesLog) error

	// FindByID loads the order header with its items and payment, without catalog projections.
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	// FindDetail loads the full projection: item products with store and stocks, item sizes, payment.
	FindDetail(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Order, error)
	List(ctx context.Context, db *gorm.DB, filter ListOrdersFilter, page pagination.Pagination) ([]Order, int64, error)

	// Claim bumps the order version when it still equals version and reports whether it did.
	// The write lock it takes is held until the transaction ends.
	Claim(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64) (bool, error)
	UpdateHeader(ctx context.Context, db *gorm.DB, order *Order) error
	UpdatePayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID, price int64, status PaymentStatus, updatedAt time.Time) error
	// CompletePayment moves a WaitingPayment payment to CompletedPayment and reports whether it did.
	CompletePayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID, updatedAt time.Time) (bool, error)

	DeleteItems(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
	DeletePayment(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
	Delete(ctx context.Context, db *gorm.DB, orderID snowflake.ID) error
}
