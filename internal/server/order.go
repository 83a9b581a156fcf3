package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	orderdomain "github.com/smallbiznis/marketplace/internal/order/domain"
	"github.com/smallbiznis/marketplace/internal/providers/pdf"
	"github.com/smallbiznis/marketplace/pkg/db/pagination"
)

type lineItemRequest struct {
	ProductID snowflake.ID `json:"product_id"`
	SizeID    snowflake.ID `json:"size_id"`
	Quantity  int64        `json:"quantity"`
}

type orderRequest struct {
	Name         string            `json:"name"`
	PhoneNumber  string            `json:"phone_number"`
	Address      string            `json:"address"`
	Items        []lineItemRequest `json:"items"`
	UsePoint     int64             `json:"use_point"`
	DeferPayment bool              `json:"defer_payment"`
}

func (r orderRequest) shipping() orderdomain.Shipping {
	return orderdomain.Shipping{
		Name:        strings.TrimSpace(r.Name),
		PhoneNumber: strings.TrimSpace(r.PhoneNumber),
		Address:     strings.TrimSpace(r.Address),
	}
}

func (r orderRequest) lineItems() []orderdomain.LineItem {
	items := make([]orderdomain.LineItem, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, orderdomain.LineItem{
			ProductID: item.ProductID,
			SizeID:    item.SizeID,
			Quantity:  item.Quantity,
		})
	}
	return items
}

func (s *Server) CreateOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		UserID:       userID,
		Shipping:     req.shipping(),
		Items:        req.lineItems(),
		UsePoint:     req.UsePoint,
		DeferPayment: req.DeferPayment,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListOrders(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var query struct {
		pagination.Pagination
		Status  string `form:"status"`
		OrderBy string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrdersRequest{
		UserID:   userID,
		Page:     query.Page,
		PageSize: query.PageSize,
		Status:   parseStatus(query.Status),
		Sort:     parseSort(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.ownedOrder(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": order})
}

func (s *Server) UpdateOrder(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	orderID, err := parseOrderID(c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Update(c.Request.Context(), orderdomain.UpdateOrderRequest{
		OrderID:  orderID,
		UserID:   userID,
		Shipping: req.shipping(),
		Items:    req.lineItems(),
		UsePoint: req.UsePoint,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteOrder(c *gin.Context) {
	order, err := s.ownedOrder(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if err := s.orderSvc.Delete(c.Request.Context(), order.ID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) ConfirmOrderPayment(c *gin.Context) {
	order, err := s.ownedOrder(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.orderSvc.ConfirmPayment(c.Request.Context(), order.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderReceipt(c *gin.Context) {
	order, err := s.ownedOrder(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.receipts.GenerateReceipt(c.Request.Context(), pdf.NewReceiptData(*order))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`inline; filename="order-%s.pdf"`, order.ID.String()))
	c.Data(http.StatusOK, "application/pdf", doc)
}

// ownedOrder loads the order in the path. Orders of other users are reported as missing.
func (s *Server) ownedOrder(c *gin.Context) (*orderdomain.Order, error) {
	userID, ok := callerID(c)
	if !ok {
		return nil, ErrUnauthorized
	}
	orderID, err := parseOrderID(c.Param("id"))
	if err != nil {
		return nil, err
	}

	order, err := s.orderSvc.Get(c.Request.Context(), orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, orderdomain.ErrOrderNotFound
	}
	return order, nil
}
