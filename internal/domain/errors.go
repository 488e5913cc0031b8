package domain

import "errors"

var (
	// ErrBaselineNotFound is returned by a baseline store when no baseline
	// has been established for the symbol yet.
	ErrBaselineNotFound = errors.New("baseline not found")

	// ErrPriceUnavailable is returned by a price source when the symbol
	// cannot be resolved or the upstream call fails.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrInvalidObservation marks a quote that cannot be a valid market
	// price (zero or negative).
	ErrInvalidObservation = errors.New("invalid price observation")
)
