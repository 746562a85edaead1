package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/inventory"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
)

// InventoryHandler handles HTTP requests for inventory items and the
// ledger-producing stock operations.
type InventoryHandler struct {
	*BaseHandler
	service *inventory.Service
	reports *reports.Service
}

// NewInventoryHandler creates a new inventory handler.
func NewInventoryHandler(base *BaseHandler, service *inventory.Service, reports *reports.Service) *InventoryHandler {
	return &InventoryHandler{
		BaseHandler: base,
		service:     service,
		reports:     reports,
	}
}

func (h *InventoryHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	f := inventory.ListFilter{
		Search: c.Query("search"),
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if level := c.Query("stockLevel"); level != "" {
		l := inventory.StockLevel(level)
		f.StockLevel = &l
	}
	if override := c.Query("override"); override != "" {
		o := inventory.Override(override)
		f.Override = &o
	}

	items, err := h.service.List(ctx, h.TenantID(c), f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": items})
}

func (h *InventoryHandler) Get(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	item, err := h.service.Get(c.Request.Context(), h.TenantID(c), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

type createItemRequest struct {
	SKU           string `json:"sku" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Unit          string `json:"unit"`
	Quantity      int64  `json:"quantity"`
	Price         string `json:"price"`
	CostPrice     string `json:"costPrice"`
	MinStockLevel int64  `json:"minStockLevel"`
	MaxStockLevel int64  `json:"maxStockLevel"`
}

func (h *InventoryHandler) Create(c *gin.Context) {
	var req createItemRequest
	if !h.BindJSON(c, &req) {
		return
	}

	price, err := parseMoney(req.Price)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid price").WithDetail("value", req.Price))
		return
	}
	costPrice, err := parseMoney(req.CostPrice)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid costPrice").WithDetail("value", req.CostPrice))
		return
	}

	item := &inventory.Item{
		TenantID:      h.TenantID(c),
		SKU:           req.SKU,
		Name:          req.Name,
		Unit:          req.Unit,
		Quantity:      req.Quantity,
		Price:         price,
		CostPrice:     costPrice,
		MinStockLevel: req.MinStockLevel,
		MaxStockLevel: req.MaxStockLevel,
	}

	created, err := h.service.Create(c.Request.Context(), item)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

type internalUseRequest struct {
	Quantity int64  `json:"quantity" binding:"required"`
	Reason   string `json:"reason"`
}

// RecordInternalUse consumes stock for internal purposes.
func (h *InventoryHandler) RecordInternalUse(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req internalUseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.RecordInternalUse(c.Request.Context(), h.TenantID(c), itemID, req.Quantity, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

type adjustmentRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// RecordAdjustment applies a signed stock correction.
func (h *InventoryHandler) RecordAdjustment(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req adjustmentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.RecordAdjustment(c.Request.Context(), h.TenantID(c), itemID, req.Delta, req.Reason); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

type overrideRequest struct {
	Override string `json:"override" binding:"required"`
}

// SetOverride marks an item on-order or discontinued.
func (h *InventoryHandler) SetOverride(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req overrideRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetOverride(c.Request.Context(), h.TenantID(c), itemID, inventory.Override(req.Override)); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ClearOverride removes the sticky status.
func (h *InventoryHandler) ClearOverride(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.ClearOverride(c.Request.Context(), h.TenantID(c), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Movements returns the movement history for an item.
func (h *InventoryHandler) Movements(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	f := ledger.HistoryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if kind := c.Query("kind"); kind != "" {
		k := ledger.Kind(kind)
		f.Kind = &k
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

	entries, err := h.reports.ItemMovements(c.Request.Context(), h.TenantID(c), itemID, f)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"entries": entries})
}

// DeleteEntry reverses an internal-use or adjustment ledger record.
func (h *InventoryHandler) DeleteEntry(c *gin.Context) {
	entryID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.DeleteEntry(c.Request.Context(), h.TenantID(c), entryID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
