// Package tenant provides the tenant identity that scopes every query.
//
// The platform runs all tenants in one shared store: isolation is enforced
// by including the tenant id in every read and write predicate, not by a
// separate authorization layer. Repositories take the tenant id explicitly;
// this package carries it through request context for logging and the thin
// transport layer.
package tenant

import (
	"context"
	"errors"

	"stockledger/internal/core/id"
)

type ctxKey int

const tenantKey ctxKey = iota

// ErrNoTenantInContext is returned when a request reaches scoped code
// without an authenticated tenant attached.
var ErrNoTenantInContext = errors.New("tenant not found in context")

// ID identifies the owning tenant/account.
type ID = id.ID

// WithTenant stores the tenant id in context.
func WithTenant(ctx context.Context, tenantID ID) context.Context {
	return context.WithValue(ctx, tenantKey, tenantID)
}

// FromContext retrieves the tenant id from context.
func FromContext(ctx context.Context) (ID, error) {
	tenantID, ok := ctx.Value(tenantKey).(ID)
	if !ok || id.IsNil(tenantID) {
		return id.Nil(), ErrNoTenantInContext
	}
	return tenantID, nil
}

// MustFromContext retrieves the tenant id or panics.
// Use where a missing tenant is a programming error (middleware not wired).
func MustFromContext(ctx context.Context) ID {
	tenantID, err := FromContext(ctx)
	if err != nil {
		panic("tenant not in context: " + err.Error())
	}
	return tenantID
}
