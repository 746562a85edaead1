package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/infrastructure/storage/postgres"
	"stockledger/pkg/numerator"
)

// AdminHandler exposes per-tenant operational endpoints: entity audit
// history and sequence counter management.
type AdminHandler struct {
	*BaseHandler
	audit     *postgres.AuditService
	numerator *numerator.Service
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(base *BaseHandler, audit *postgres.AuditService, num *numerator.Service) *AdminHandler {
	return &AdminHandler{
		BaseHandler: base,
		audit:       audit,
		numerator:   num,
	}
}

// EntityHistory returns the audit trail for one entity, newest first.
func (h *AdminHandler) EntityHistory(c *gin.Context) {
	entityID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	entries, err := h.audit.GetEntityHistory(
		c.Request.Context(),
		h.TenantID(c),
		c.Param("entityType"),
		entityID,
		h.ParseIntQuery(c, "limit", 50),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"entries": entries})
}

type setSequenceRequest struct {
	Value int64 `json:"value" binding:"min=0"`
}

// SetSequence sets a tenant's document counter, so numbering resumes past
// documents imported from an older system.
func (h *AdminHandler) SetSequence(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		h.Error(c, apperror.NewValidation("sequence key is required"))
		return
	}

	var req setSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg := numerator.Config{Prefix: key}
	if err := h.numerator.SetNext(c.Request.Context(), h.TenantID(c), cfg, req.Value); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
