package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WatchlistLoader supplies the per-tick snapshot of symbols and threshold.
type WatchlistLoader interface {
	Load() (domain.Watchlist, error)
}

// Monitor is the polling loop: one timer, one goroutine, symbols processed
// sequentially inside a tick so ticks never overlap and no two evaluations
// race on the same baseline.
type Monitor struct {
	watchlist WatchlistLoader
	source    domain.PriceSource
	evaluator *Evaluator
	notifier  domain.Notifier
	interval  time.Duration
	logger    *zap.Logger
}

func NewMonitor(watchlist WatchlistLoader, source domain.PriceSource, evaluator *Evaluator, notifier domain.Notifier, interval time.Duration, logger *zap.Logger) *Monitor {
	return &Monitor{
		watchlist: watchlist,
		source:    source,
		evaluator: evaluator,
		notifier:  notifier,
		interval:  interval,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled. The first pass runs immediately; an
// in-flight pass finishes its current symbol before cancellation takes effect
// because fetches carry ctx.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("etf monitor started", zap.Duration("interval", m.interval))

	m.RunOnce(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("etf monitor stopped")
			return nil
		case <-ticker.C:
			m.RunOnce(ctx)
		}
	}
}

// RunOnce executes a single tick over the current watchlist. Every per-symbol
// failure is contained: it is logged and the remaining symbols still run.
func (m *Monitor) RunOnce(ctx context.Context) {
	snapshot, err := m.watchlist.Load()
	if err != nil {
		m.logger.Warn("failed to load watchlist", zap.Error(err))
		return
	}
	if len(snapshot.Symbols) == 0 {
		m.logger.Debug("no symbols configured, skipping poll")
		return
	}

	for _, symbol := range snapshot.Symbols {
		if ctx.Err() != nil {
			return
		}
		m.processSymbol(ctx, symbol, snapshot)
	}
}

func (m *Monitor) processSymbol(ctx context.Context, symbol string, snapshot domain.Watchlist) {
	observation, err := m.source.Fetch(ctx, symbol)
	if err != nil {
		m.logger.Warn("price fetch failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	decision, err := m.evaluator.Evaluate(ctx, symbol, observation.Price, snapshot.ThresholdPercent)
	if err != nil {
		m.logger.Warn("evaluation failed", zap.String("symbol", symbol), zap.Error(err))
		return
	}

	switch decision.Kind {
	case domain.DecisionBaselineInitialized:
		m.logger.Info("baseline initialized",
			zap.String("symbol", symbol),
			zap.String("price", decision.BaselinePrice.String()))
	case domain.DecisionInvalidObservation:
		m.logger.Warn("invalid price observation, baseline untouched",
			zap.String("symbol", symbol),
			zap.String("price", decision.CurrentPrice.String()))
	case domain.DecisionAlertTriggered:
		m.dispatchAlert(ctx, decision, snapshot)
	default:
		m.logger.Debug("no significant change",
			zap.String("symbol", symbol),
			zap.String("deviation_percent", decision.DeviationPercent.StringFixed(2)))
	}
}

// dispatchAlert formats and sends the alert. The baseline reset is already
// committed by the evaluator, so a delivery failure is log-only.
func (m *Monitor) dispatchAlert(ctx context.Context, decision domain.Decision, snapshot domain.Watchlist) {
	title, message := FormatAlert(decision, snapshot.ThresholdPercent)

	m.logger.Info("alert triggered",
		zap.String("symbol", decision.Symbol),
		zap.String("baseline", decision.BaselinePrice.String()),
		zap.String("price", decision.CurrentPrice.String()),
		zap.String("deviation_percent", decision.DeviationPercent.StringFixed(2)))

	if err := m.notifier.Notify(ctx, title, message); err != nil {
		m.logger.Warn("alert delivery failed",
			zap.String("symbol", decision.Symbol),
			zap.Error(err))
	}
}

// FormatAlert renders the notification the add-on's users receive.
func FormatAlert(decision domain.Decision, thresholdPercent decimal.Decimal) (title, message string) {
	direction := "salito"
	if decision.DeviationPercent.IsNegative() {
		direction = "sceso"
	}
	title = fmt.Sprintf("ETF %s %s", decision.Symbol, direction)
	message = fmt.Sprintf("%s è %s del %s%% (soglia %s%%). Baseline: %s, attuale: %s.",
		decision.Symbol,
		direction,
		decision.DeviationPercent.StringFixed(2),
		thresholdPercent.StringFixed(2),
		decision.BaselinePrice.StringFixed(2),
		decision.CurrentPrice.StringFixed(2),
	)
	return title, message
}
