package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/purchase"
)

// PurchaseHandler handles HTTP requests for purchase orders.
type PurchaseHandler struct {
	*BaseHandler
	service *purchase.Service
}

// NewPurchaseHandler creates a new purchase order handler.
func NewPurchaseHandler(base *BaseHandler, service *purchase.Service) *PurchaseHandler {
	return &PurchaseHandler{
		BaseHandler: base,
		service:     service,
	}
}

type createOrderLineRequest struct {
	ItemID    string `json:"itemId" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	UnitPrice string `json:"unitPrice"`
}

type createOrderRequest struct {
	Supplier     string                   `json:"supplier"`
	ExpectedDate *time.Time               `json:"expectedDate"`
	Lines        []createOrderLineRequest `json:"lines" binding:"required"`
}

func (h *PurchaseHandler) Create(c *gin.Context) {
	var req createOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order := &purchase.Order{
		Supplier:     req.Supplier,
		ExpectedDate: req.ExpectedDate,
	}

	for _, line := range req.Lines {
		itemID, err := id.Parse(line.ItemID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid itemId").WithDetail("value", line.ItemID))
			return
		}
		unitPrice, err := parseMoney(line.UnitPrice)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid unitPrice"))
			return
		}
		order.Lines = append(order.Lines, purchase.OrderLine{
			ItemID:    itemID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
		})
	}

	if err := h.service.Create(c.Request.Context(), h.TenantID(c), order); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, order)
}

func (h *PurchaseHandler) Get(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	order, err := h.service.Get(c.Request.Context(), h.TenantID(c), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}

func (h *PurchaseHandler) List(c *gin.Context) {
	f := purchase.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if status := c.Query("status"); status != "" {
		s := purchase.Status(status)
		f.Status = &s
	}

	orders, err := h.service.List(c.Request.Context(), h.TenantID(c), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"orders": orders})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus transitions the order through its state machine. Completing an
// order is what receives the stock.
func (h *PurchaseHandler) SetStatus(c *gin.Context) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req setStatusRequest
	if !h.BindJSON(c, &req) {
		return
	}

	order, err := h.service.SetStatus(c.Request.Context(), h.TenantID(c), orderID, purchase.Status(req.Status))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, order)
}
