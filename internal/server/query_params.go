package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/marketplace/internal/order/domain"
)

// parseOrderID treats malformed ids as unknown orders.
func parseOrderID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, orderdomain.ErrOrderNotFound
	}
	return parsed, nil
}

func parseSort(value string) orderdomain.SortOrder {
	return orderdomain.SortOrder(strings.ToLower(strings.TrimSpace(value)))
}

func parseStatus(value string) orderdomain.PaymentStatus {
	return orderdomain.PaymentStatus(strings.TrimSpace(value))
}
