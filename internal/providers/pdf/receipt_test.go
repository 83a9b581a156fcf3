package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/marketplace/internal/catalog/domain"
	orderdomain "github.com/smallbiznis/marketplace/internal/order/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() orderdomain.Order {
	return orderdomain.Order{
		ID:            snowflake.ID(1001),
		UserID:        snowflake.ID(7),
		Name:          "Kim",
		PhoneNumber:   "010-1234-5678",
		Address:       "1 Market Street",
		Subtotal:      120_000,
		TotalQuantity: 3,
		UsePoint:      2_000,
		CreatedAt:     time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		Items: []orderdomain.OrderItem{
			{
				ProductID: snowflake.ID(11),
				SizeID:    snowflake.ID(21),
				Quantity:  2,
				Price:     50_000,
				Product:   &catalogdomain.Product{Name: "Linen shirt"},
				Size:      &catalogdomain.Size{Name: "M"},
			},
			{
				ProductID: snowflake.ID(12),
				SizeID:    snowflake.ID(22),
				Quantity:  1,
				Price:     20_000,
			},
		},
		Payment: &orderdomain.Payment{Price: 118_000, Status: orderdomain.PaymentStatusCompleted},
	}
}

func TestNewReceiptData(t *testing.T) {
	data := NewReceiptData(sampleOrder())

	assert.Equal(t, "1001", data.OrderNumber)
	assert.Equal(t, "2024-03-01 09:30:00", data.OrderedAt)
	assert.Equal(t, "CompletedPayment", data.PaymentStatus)
	assert.Equal(t, "120,000", data.Subtotal)
	assert.Equal(t, "2,000", data.UsePoint)
	assert.Equal(t, "118,000", data.Total)
	require.Len(t, data.Items, 2)
	assert.Equal(t, "Linen shirt", data.Items[0].Description)
	assert.Equal(t, "M", data.Items[0].Size)
	assert.Equal(t, "100,000", data.Items[0].Amount)
	assert.Equal(t, "12", data.Items[1].Description)
	assert.Equal(t, "22", data.Items[1].Size)
}

func TestGenerateReceipt(t *testing.T) {
	out, err := New().GenerateReceipt(context.Background(), NewReceiptData(sampleOrder()))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerateReceiptWithoutItems(t *testing.T) {
	_, err := New().GenerateReceipt(context.Background(), ReceiptData{})
	require.ErrorIs(t, err, ErrEmptyReceipt)
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:         "0",
		999:       "999",
		1000:      "1,000",
		1234567:   "1,234,567",
		-50000:    "-50,000",
		100000000: "100,000,000",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatAmount(in))
	}
}
