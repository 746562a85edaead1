package handlers

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/customer"
)

// CustomerHandler handles HTTP requests for customers.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{
		BaseHandler: base,
		service:     service,
	}
}

type createCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (h *CustomerHandler) Create(c *gin.Context) {
	var req createCustomerRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.service.Create(c.Request.Context(), &customer.Customer{
		TenantID: h.TenantID(c),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

func (h *CustomerHandler) Get(c *gin.Context) {
	customerID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	cust, err := h.service.Get(c.Request.Context(), h.TenantID(c), customerID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, cust)
}

func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.service.List(c.Request.Context(), h.TenantID(c),
		c.Query("search"),
		h.ParseIntQuery(c, "limit", 50),
		h.ParseIntQuery(c, "offset", 0),
	)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"customers": customers})
}
