package marketdata

import (
	"context"
	"fmt"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"go.uber.org/zap"
)

// Chain tries sources in configured priority order and returns the first
// successful observation, or the last failure when every backend fails.
type Chain struct {
	sources []domain.PriceSource
	logger  *zap.Logger
}

func NewChain(logger *zap.Logger, sources ...domain.PriceSource) *Chain {
	return &Chain{sources: sources, logger: logger}
}

func (c *Chain) Name() string { return "chain" }

func (c *Chain) Fetch(ctx context.Context, symbol string) (*domain.PriceObservation, error) {
	var lastErr error
	for _, source := range c.sources {
		observation, err := source.Fetch(ctx, symbol)
		if err == nil {
			return observation, nil
		}
		lastErr = err
		c.logger.Debug("price source miss",
			zap.String("source", source.Name()),
			zap.String("symbol", symbol),
			zap.Error(err))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: %s: no sources configured", domain.ErrPriceUnavailable, symbol)
	}
	return nil, lastErr
}
