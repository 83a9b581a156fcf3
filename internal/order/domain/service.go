package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/marketplace/pkg/db/pagination"
)

type SortOrder string

const (
	SortRecent SortOrder = "recent"
	SortOldest SortOrder = "oldest"
)

type Shipping struct {
	Name        string
	PhoneNumber string
	Address     string
}

type LineItem struct {
	ProductID snowflake.ID
	SizeID    snowflake.ID
	Quantity  int64
}

type CreateOrderRequest struct {
	UserID   snowflake.ID
	Shipping Shipping
	Items    []LineItem
	UsePoint int64
	// DeferPayment leaves the payment in WaitingPayment until ConfirmPayment.
	DeferPayment bool
}

type UpdateOrderRequest struct {
	OrderID  snowflake.ID
	UserID   snowflake.ID
	Shipping Shipping
	Items    []LineItem
	UsePoint int64
}

type ListOrdersRequest struct {
	UserID   snowflake.ID
	Page     int
	PageSize int
	Status   PaymentStatus
	Sort     SortOrder
}

type ListOrdersResponse struct {
	Orders []Order         `json:"orders"`
	Meta   pagination.Meta `json:"meta"`
}

//go:generate mockgen -source=service.go -destination=./mocks/mock_service.go -package=mocks

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (*Order, error)
	Update(ctx context.Context, req UpdateOrderRequest) (*Order, error)
	Delete(ctx context.Context, orderID snowflake.ID) error
	ConfirmPayment(ctx context.Context, orderID snowflake.ID) (*Order, error)
	List(ctx context.Context, req ListOrdersRequest) (ListOrdersResponse, error)
	Get(ctx context.Context, orderID snowflake.ID) (*Order, error)
}
