package intent

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, i *Intent) error
	GetByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (*Intent, error)
	GetByCheckoutRequestIDForUpdate(ctx context.Context, checkoutRequestID string) (*Intent, error)
	Save(ctx context.Context, i *Intent) error
	// ListPendingExpiredBefore returns pending_confirmation intents whose
	// callback window closed before now.
	ListPendingExpiredBefore(ctx context.Context, now time.Time) ([]Intent, error)
	ListByState(ctx context.Context, state State) ([]Intent, error)
}
