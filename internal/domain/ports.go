package domain

import "context"

// BaselineRepository persists one baseline per symbol. Set is an idempotent
// replacement (last write wins); Get returns ErrBaselineNotFound when the
// symbol has no baseline yet.
type BaselineRepository interface {
	Get(ctx context.Context, symbol string) (*Baseline, error)
	Set(ctx context.Context, baseline Baseline) error
}

// PriceSource resolves the latest known price for a symbol. Implementations
// return an error wrapping ErrPriceUnavailable when the quote cannot be
// obtained; the caller treats that as skip-and-continue.
type PriceSource interface {
	Name() string
	Fetch(ctx context.Context, symbol string) (*PriceObservation, error)
}

// Notifier delivers a human-readable alert. Delivery is best effort: a
// returned error is logged by the caller and never rolls back baseline state.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}
