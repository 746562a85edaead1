package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/sales"
)

// SalesHandler handles HTTP requests for the sale lifecycle.
type SalesHandler struct {
	*BaseHandler
	service *sales.Service
}

// NewSalesHandler creates a new sales handler.
func NewSalesHandler(base *BaseHandler, service *sales.Service) *SalesHandler {
	return &SalesHandler{
		BaseHandler: base,
		service:     service,
	}
}

type createSaleLineRequest struct {
	ItemID           string `json:"itemId" binding:"required"`
	Quantity         int64  `json:"quantity" binding:"required"`
	PackagingDeposit string `json:"packagingDeposit"`
}

type createSaleRequest struct {
	CustomerID string                  `json:"customerId"`
	Items      []createSaleLineRequest `json:"items" binding:"required"`
	Tax        string                  `json:"tax"`
	Discount   string                  `json:"discount"`
	AmountPaid string                  `json:"amountPaid"`
}

func (h *SalesHandler) Create(c *gin.Context) {
	var req createSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in := sales.CreateInput{}

	if req.CustomerID != "" {
		customerID, err := id.Parse(req.CustomerID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid customerId"))
			return
		}
		in.CustomerID = customerID
	}

	var err error
	if in.Tax, err = parseMoney(req.Tax); err != nil {
		h.Error(c, apperror.NewValidation("invalid tax").WithDetail("value", req.Tax))
		return
	}
	if in.Discount, err = parseMoney(req.Discount); err != nil {
		h.Error(c, apperror.NewValidation("invalid discount").WithDetail("value", req.Discount))
		return
	}
	if in.AmountPaid, err = parseMoney(req.AmountPaid); err != nil {
		h.Error(c, apperror.NewValidation("invalid amountPaid").WithDetail("value", req.AmountPaid))
		return
	}

	for _, line := range req.Items {
		itemID, err := id.Parse(line.ItemID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid itemId").WithDetail("value", line.ItemID))
			return
		}
		deposit, err := parseMoney(line.PackagingDeposit)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid packagingDeposit"))
			return
		}
		in.Items = append(in.Items, sales.CreateLineInput{
			ItemID:           itemID,
			Quantity:         line.Quantity,
			PackagingDeposit: deposit,
		})
	}

	sale, err := h.service.Create(c.Request.Context(), h.TenantID(c), in)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, sale)
}

func (h *SalesHandler) Get(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	sale, err := h.service.Get(c.Request.Context(), h.TenantID(c), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

func (h *SalesHandler) List(c *gin.Context) {
	f := sales.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if customerID := c.Query("customerId"); customerID != "" {
		if parsed, err := id.Parse(customerID); err == nil {
			f.CustomerID = &parsed
		}
	}
	if status := c.Query("paymentStatus"); status != "" {
		s := sales.PaymentStatus(status)
		f.PaymentStatus = &s
	}
	if from := c.Query("dateFrom"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			f.FromDate = &parsed
		}
	}
	if to := c.Query("dateTo"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			f.ToDate = &parsed
		}
	}

	result, err := h.service.List(c.Request.Context(), h.TenantID(c), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"sales": result})
}

type paymentRequest struct {
	Amount string `json:"amount" binding:"required"`
}

// RecordPayment applies a payment against the sale's outstanding amount.
func (h *SalesHandler) RecordPayment(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req paymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	amount, err := parseMoney(req.Amount)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid amount").WithDetail("value", req.Amount))
		return
	}

	sale, err := h.service.RecordPayment(c.Request.Context(), h.TenantID(c), saleID, amount)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

type returnRequest struct {
	LineID   string `json:"lineId" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
}

// ProcessReturn restocks part of a sold line and reduces the sale totals.
func (h *SalesHandler) ProcessReturn(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req returnRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lineID, err := id.Parse(req.LineID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid lineId"))
		return
	}

	sale, err := h.service.ProcessReturn(c.Request.Context(), h.TenantID(c), saleID, lineID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Delete removes a sale, restocking whatever was not already returned.
func (h *SalesHandler) Delete(c *gin.Context) {
	saleID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), h.TenantID(c), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
