package pdf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	orderdomain "github.com/smallbiznis/marketplace/internal/order/domain"
)

var ErrEmptyReceipt = errors.New("receipt_has_no_items")

type ReceiptData struct {
	OrderNumber   string
	OrderedAt     string
	PaymentStatus string

	ShipToName    string
	ShipToPhone   string
	ShipToAddress string

	Items []ReceiptItem

	Subtotal string
	UsePoint string
	Total    string
	TotalQty int64
}

type ReceiptItem struct {
	Description string
	Size        string
	Qty         int64
	UnitPrice   string
	Amount      string
}

// NewReceiptData flattens a loaded order projection into printable strings.
func NewReceiptData(order orderdomain.Order) ReceiptData {
	data := ReceiptData{
		OrderNumber:   order.ID.String(),
		OrderedAt:     order.CreatedAt.UTC().Format(time.DateTime),
		ShipToName:    order.Name,
		ShipToPhone:   order.PhoneNumber,
		ShipToAddress: order.Address,
		Subtotal:      formatAmount(order.Subtotal),
		UsePoint:      formatAmount(order.UsePoint),
		Total:         formatAmount(order.Subtotal - order.UsePoint),
		TotalQty:      order.TotalQuantity,
	}
	if order.Payment != nil {
		data.PaymentStatus = string(order.Payment.Status)
		data.Total = formatAmount(order.Payment.Price)
	}

	for _, item := range order.Items {
		description := item.ProductID.String()
		if item.Product != nil && item.Product.Name != "" {
			description = item.Product.Name
		}
		size := item.SizeID.String()
		if item.Size != nil && item.Size.Name != "" {
			size = item.Size.Name
		}
		data.Items = append(data.Items, ReceiptItem{
			Description: description,
			Size:        size,
			Qty:         item.Quantity,
			UnitPrice:   formatAmount(item.Price),
			Amount:      formatAmount(item.Price * item.Quantity),
		})
	}
	return data
}

type PDFProvider struct{}

func New() Provider {
	return &PDFProvider{}
}

func (p *PDFProvider) GenerateReceipt(ctx context.Context, receipt ReceiptData) ([]byte, error) {
	if len(receipt.Items) == 0 {
		return nil, ErrEmptyReceipt
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Order receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(20,
		col.New(6).Add(
			text.New("Order number: "+receipt.OrderNumber, props.Text{Top: 0}),
			text.New("Ordered at: "+receipt.OrderedAt, props.Text{Top: 4}),
			text.New("Payment: "+receipt.PaymentStatus, props.Text{Top: 8}),
		),
		col.New(6).Add(
			text.New("Ship to", props.Text{Style: fontstyle.Bold}),
			text.New(receipt.ShipToName, props.Text{Top: 5}),
			text.New(receipt.ShipToPhone, props.Text{Top: 9}),
			text.New(receipt.ShipToAddress, props.Text{Top: 13}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Product", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(1, "Size", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Qty", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Unit price", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Amount", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, item := range receipt.Items {
		m.AddRow(8,
			text.NewCol(5, item.Description, props.Text{Size: 9}),
			text.NewCol(1, item.Size, props.Text{Size: 9}),
			text.NewCol(2, strconv.FormatInt(item.Qty, 10), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.UnitPrice, props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, item.Amount, props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Subtotal", props.Text{Size: 9}),
		text.NewCol(2, receipt.Subtotal, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Points used", props.Text{Size: 9}),
		text.NewCol(2, receipt.UsePoint, props.Text{Size: 9, Align: align.Right}),
	)
	m.AddRow(10,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 9, Style: fontstyle.Bold}),
		text.NewCol(2, receipt.Total, props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt: %w", err)
	}
	return doc.GetBytes(), nil
}

// formatAmount renders whole currency units with thousands separators.
func formatAmount(amount int64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	out := make([]byte, 0, len(digits)+len(digits)/3)
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, d)
	}
	return sign + string(out)
}
