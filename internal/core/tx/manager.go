// Package tx provides transaction management abstractions.
// Domain services depend on these interfaces, not on the PostgreSQL
// implementation in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested reuse.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back and no
	// write performed inside fn survives.
	//
	// Nested calls reuse the existing transaction from context, which is
	// how multi-line operations (sale create, purchase-order completion)
	// fold several coordinator steps into one atomic unit.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Reporting views use it so rollup queries observe one consistent snapshot.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
