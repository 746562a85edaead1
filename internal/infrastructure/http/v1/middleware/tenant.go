package middleware

import (
	"github.com/gin-gonic/gin"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/core/tenant"
)

// TenantHeader is the HTTP header for tenant identification. Authentication
// happens upstream; this layer trusts the header and only scopes data access.
const TenantHeader = "X-Tenant-ID"

// UserHeader carries the authenticated caller identity for audit trails.
const UserHeader = "X-User-ID"

// Tenant resolves the tenant from the request header and stores it in the
// request context. Every scoped route group runs behind this middleware.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeader)
		if raw == "" {
			_ = c.Error(
				apperror.NewValidation("tenant is required").
					WithDetail("header", TenantHeader),
			)
			c.Abort()
			return
		}

		tenantID, err := id.Parse(raw)
		if err != nil {
			_ = c.Error(
				apperror.NewValidation("invalid tenant id").
					WithDetail("header", TenantHeader).
					WithDetail("value", raw),
			)
			c.Abort()
			return
		}

		ctx := tenant.WithTenant(c.Request.Context(), tenantID)

		if userID := c.GetHeader(UserHeader); userID != "" {
			ctx = appctx.WithUser(ctx, &appctx.UserContext{
				UserID:   userID,
				TenantID: tenantID.String(),
			})
		}

		c.Request = c.Request.WithContext(ctx)
		c.Set("tenant_id", tenantID.String())

		c.Next()
	}
}
