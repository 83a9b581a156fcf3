package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Store struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID `gorm:"not null;index" json:"user_id"`
	Name        string       `gorm:"not null" json:"name"`
	Address     string       `gorm:"not null" json:"address"`
	PhoneNumber string       `gorm:"not null" json:"phone_number"`
	Content     string       `json:"content"`
	Image       string       `json:"image"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Store) TableName() string { return "stores" }

// Size carries a localized label, e.g. {"en": "M", "ko": "중"}.
type Size struct {
	ID    snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name  string            `gorm:"not null" json:"name"`
	Label datatypes.JSONMap `gorm:"column:label" json:"size"`
}

func (Size) TableName() string { return "sizes" }

type Product struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	StoreID         snowflake.ID `gorm:"not null;index" json:"store_id"`
	Name            string       `gorm:"not null" json:"name"`
	Price           int64        `gorm:"not null" json:"price"`
	Image           string       `json:"image"`
	DiscountRate    int          `gorm:"not null;default:0" json:"discount_rate"`
	DiscountStartAt *time.Time   `json:"discount_start_at,omitempty"`
	DiscountEndAt   *time.Time   `json:"discount_end_at,omitempty"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Store  *Store  `gorm:"foreignKey:StoreID" json:"store,omitempty"`
	Stocks []Stock `gorm:"foreignKey:ProductID" json:"stocks,omitempty"`
}

func (Product) TableName() string { return "products" }

// Stock is the remaining quantity of one product in one size.
type Stock struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ProductID snowflake.ID `gorm:"not null;uniqueIndex:ux_stocks_product_size" json:"product_id"`
	SizeID    snowflake.ID `gorm:"not null;uniqueIndex:ux_stocks_product_size" json:"size_id"`
	Quantity  int64        `gorm:"not null;default:0" json:"quantity"`

	Size *Size `gorm:"foreignKey:SizeID" json:"size,omitempty"`
}

func (Stock) TableName() string { return "stocks" }
