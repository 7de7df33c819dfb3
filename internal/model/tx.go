package model

import "context"

// Transactor runs fn in a single transaction. Stores called with the context
// passed to fn take part in it; fn returning an error rolls everything back.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
