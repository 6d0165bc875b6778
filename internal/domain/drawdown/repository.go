package drawdown

import "context"

type Repository interface {
	// GetGlobal creates the global row on first use.
	GetGlobal(ctx context.Context) (*GlobalAccount, error)
	GetGlobalForUpdate(ctx context.Context) (*GlobalAccount, error)
	SaveGlobal(ctx context.Context, a *GlobalAccount) error
	AppendEntry(ctx context.Context, e *Entry) error
}
