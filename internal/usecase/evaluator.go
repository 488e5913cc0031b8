package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Evaluator holds the baseline-tracking decision logic: establish a baseline
// on first sight, alert when the deviation magnitude reaches the threshold,
// and reset the baseline to the triggering price so the same level cannot
// re-alert.
type Evaluator struct {
	baselines domain.BaselineRepository
	now       func() time.Time
}

func NewEvaluator(baselines domain.BaselineRepository) *Evaluator {
	return &Evaluator{baselines: baselines, now: time.Now}
}

// Evaluate compares price against the stored baseline for symbol. The
// threshold check is inclusive: |deviation| >= threshold alerts. On an alert
// the baseline write happens before the decision is returned, so a failed
// write never reports a triggered alert.
func (e *Evaluator) Evaluate(ctx context.Context, symbol string, price, thresholdPercent decimal.Decimal) (domain.Decision, error) {
	if !price.IsPositive() {
		return domain.Decision{Kind: domain.DecisionInvalidObservation, Symbol: symbol, CurrentPrice: price}, nil
	}

	baseline, err := e.baselines.Get(ctx, symbol)
	if err != nil {
		if !errors.Is(err, domain.ErrBaselineNotFound) {
			return domain.Decision{}, err
		}
		established := domain.Baseline{Symbol: symbol, Price: price, EstablishedAt: e.now()}
		if err := e.baselines.Set(ctx, established); err != nil {
			return domain.Decision{}, err
		}
		return domain.Decision{
			Kind:          domain.DecisionBaselineInitialized,
			Symbol:        symbol,
			BaselinePrice: price,
			CurrentPrice:  price,
		}, nil
	}

	deviation := price.Sub(baseline.Price).Div(baseline.Price).Mul(hundred)
	decision := domain.Decision{
		Symbol:           symbol,
		BaselinePrice:    baseline.Price,
		CurrentPrice:     price,
		DeviationPercent: deviation,
	}

	if deviation.Abs().Cmp(thresholdPercent) < 0 {
		decision.Kind = domain.DecisionNoChange
		return decision, nil
	}

	reset := domain.Baseline{Symbol: symbol, Price: price, EstablishedAt: e.now()}
	if err := e.baselines.Set(ctx, reset); err != nil {
		return domain.Decision{}, err
	}
	decision.Kind = domain.DecisionAlertTriggered
	return decision, nil
}
