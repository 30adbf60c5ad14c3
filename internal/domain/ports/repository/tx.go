package repository

import (
	"context"
)

// Tx is an opaque transaction handle threaded through repository calls.
// Concrete repos type-switch it to their driver's transaction type;
// NoTX selects the shared pool.
type Tx = any

var NoTX Tx = nil

// TransactionManager begins a transaction, runs fn with its handle, and
// commits on nil error or rolls back otherwise.
type TransactionManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}
