package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceObservation is a single quote returned by a price source. It is
// ephemeral: the monitor compares it against the stored baseline and drops it.
type PriceObservation struct {
	Symbol     string
	Price      decimal.Decimal
	ObservedAt time.Time
}

// Baseline is the reference price a symbol's future observations are compared
// against. At most one baseline exists per symbol; its price is always a
// previously observed market price.
type Baseline struct {
	Symbol        string
	Price         decimal.Decimal
	EstablishedAt time.Time
}

// Watchlist is the per-tick snapshot of what to monitor: the ordered symbol
// list and the shared alert threshold, both user-editable between ticks.
type Watchlist struct {
	Symbols          []string
	ThresholdPercent decimal.Decimal
}
