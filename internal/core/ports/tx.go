package ports

import "context"

// TxManager runs fn as a single unit of work. Every repository call made with
// the context passed to fn participates in the same transaction. If fn returns
// an error the transaction is aborted and nothing it wrote is visible.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
