package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/alert"
)

// NotificationHandler handles HTTP requests for stock alerts.
type NotificationHandler struct {
	*BaseHandler
	repo alert.Repository
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(base *BaseHandler, repo alert.Repository) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler: base,
		repo:        repo,
	}
}

func (h *NotificationHandler) ListUnread(c *gin.Context) {
	notifications, err := h.repo.ListUnread(c.Request.Context(), h.TenantID(c), h.ParseIntQuery(c, "limit", 50))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.repo.MarkRead(c.Request.Context(), h.TenantID(c), notificationID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}
