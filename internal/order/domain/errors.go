package domain

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/marketplace/internal/catalog/domain"
)

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInsufficientStock  = errors.New("insufficient_stock")
	ErrInsufficientPoints = errors.New("insufficient_points")
	ErrProductNotFound    = catalogdomain.ErrProductNotFound
	ErrOrderNotFound      = errors.New("order_not_found")
	ErrUserNotFound       = errors.New("user_not_found")
	ErrInvalidState       = errors.New("invalid_state")
	ErrInternal           = errors.New("internal_error")

	// ErrConcurrentModification means another transaction changed the order after it
	// was read. The whole operation is replayed from a fresh read.
	ErrConcurrentModification = errors.New("concurrent_modification")
)

// ValidationError names the offending request field. It matches ErrInvalidRequest.
type ValidationError struct {
	Field string
	Code  string
}

func NewValidationError(field, code string) *ValidationError {
	return &ValidationError{Field: field, Code: code}
}

func (e *ValidationError) Error() string {
	return e.Code
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// InsufficientStockError identifies the line item whose decrement was refused.
type InsufficientStockError struct {
	ProductID snowflake.ID
	SizeID    snowflake.ID
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s size %s", e.ProductID, e.SizeID)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// IsDomainError reports whether err is one of the errors callers are expected to handle.
func IsDomainError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientPoints),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrOrderNotFound),
		errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrInvalidState),
		errors.Is(err, ErrConcurrentModification),
		errors.Is(err, ErrInternal):
		return true
	default:
		return false
	}
}

// Reason returns the metric label for err.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrInsufficientPoints):
		return "insufficient_points"
	case errors.Is(err, ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, ErrOrderNotFound):
		return "order_not_found"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrConcurrentModification):
		return "concurrent_modification"
	default:
		return "internal"
	}
}
