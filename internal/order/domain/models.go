package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/marketplace/internal/catalog/domain"
)

type PaymentStatus string

const (
	PaymentStatusWaiting   PaymentStatus = "WaitingPayment"
	PaymentStatusCompleted PaymentStatus = "CompletedPayment"
)

func (s PaymentStatus) Valid() bool {
	return s == PaymentStatusWaiting || s == PaymentStatusCompleted
}

type Order struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID `gorm:"not null;index:ix_orders_user_created,priority:1" json:"user_id"`
	Name          string       `gorm:"not null" json:"name"`
	PhoneNumber   string       `gorm:"not null" json:"phone_number"`
	Address       string       `gorm:"not null" json:"address"`
	Subtotal      int64        `gorm:"not null" json:"subtotal"`
	TotalQuantity int64        `gorm:"not null" json:"total_quantity"`
	UsePoint      int64        `gorm:"not null;default:0" json:"use_point"`
	CreatedAt     time.Time    `gorm:"not null;index:ix_orders_user_created,priority:2" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`

	// Version is bumped by every transaction that changes the order after creation.
	Version int64 `gorm:"not null;default:0" json:"-"`

	Items   []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	Payment *Payment    `gorm:"foreignKey:OrderID" json:"payment"`
}

func (Order) TableName() string { return "orders" }

// OrderItem keeps the unit price captured when the order was placed. Later catalog
// price changes never touch it.
type OrderItem struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID    snowflake.ID `gorm:"not null;index" json:"order_id"`
	ProductID  snowflake.ID `gorm:"not null;index" json:"product_id"`
	SizeID     snowflake.ID `gorm:"not null" json:"size_id"`
	Quantity   int64        `gorm:"not null" json:"quantity"`
	Price      int64        `gorm:"not null" json:"price"`
	IsReviewed bool         `gorm:"not null;default:false" json:"is_reviewed"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`

	Product *catalogdomain.Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Size    *catalogdomain.Size    `gorm:"foreignKey:SizeID" json:"size,omitempty"`
}

func (OrderItem) TableName() string { return "order_items" }

type Payment struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID  `gorm:"not null;uniqueIndex" json:"order_id"`
	Price     int64         `gorm:"not null" json:"price"`
	Status    PaymentStatus `gorm:"type:varchar(32);not null" json:"status"`
	CreatedAt time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null" json:"updated_at"`
}

func (Payment) TableName() string { return "payments" }

// SalesLog is the append-only sales trail and the only input to lifetime spend.
// Reversals are recorded as rows with negative quantity.
type SalesLog struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID   snowflake.ID `gorm:"not null;index" json:"order_id"`
	ProductID snowflake.ID `gorm:"not null" json:"product_id"`
	StoreID   snowflake.ID `gorm:"not null;index" json:"store_id"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	Price     int64        `gorm:"not null" json:"price"`
	Quantity  int64        `gorm:"not null" json:"quantity"`
	SoldAt    time.Time    `gorm:"not null" json:"sold_at"`
}

func (SalesLog) TableName() string { return "sales_logs" }
