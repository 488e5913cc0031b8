package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Alessandro1981/etf-checker/internal/config"
	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/Alessandro1981/etf-checker/internal/infra/db"
	"github.com/Alessandro1981/etf-checker/internal/infra/homeassistant"
	"github.com/Alessandro1981/etf-checker/internal/infra/log"
	"github.com/Alessandro1981/etf-checker/internal/infra/marketdata"
	"github.com/Alessandro1981/etf-checker/internal/infra/state"
	"github.com/Alessandro1981/etf-checker/internal/infra/telegram"
	"github.com/Alessandro1981/etf-checker/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	monitor   *usecase.Monitor
	stream    *marketdata.FinnhubStream
	logger    *zap.Logger
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	baselines, cleanup, err := newBaselineStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	source, stream, err := newPriceSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		return nil, err
	}

	watchlist := config.NewWatchlistFile(cfg.WatchlistPath, cfg.DefaultThresholdPercent, logger)
	evaluator := usecase.NewEvaluator(baselines)
	monitor := usecase.NewMonitor(watchlist, source, evaluator, notifier, cfg.PollInterval, logger)

	return &App{monitor: monitor, stream: stream, logger: logger, cleanupFn: cleanup}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("etf checker starting")
	if a.stream != nil {
		a.stream.Start(ctx)
	}
	return a.monitor.Run(ctx)
}

func (a *App) Shutdown() {
	a.logger.Info("etf checker shutting down")
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close baseline store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// newBaselineStore picks Postgres when a DB host is configured and the
// original JSON state file otherwise.
func newBaselineStore(cfg config.Config, logger *zap.Logger) (domain.BaselineRepository, func() error, error) {
	if cfg.DBHost == "" {
		store, err := state.NewFileStore(cfg.StatePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open state file: %w", err)
		}
		logger.Info("using file baseline store", zap.String("path", cfg.StatePath))
		return store, nil, nil
	}

	conn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	cleanup := func() error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	logger.Info("using postgres baseline store", zap.String("host", cfg.DBHost))
	return db.NewBaselineRepository(conn), cleanup, nil
}

// newPriceSource assembles the fallback chain in configured order. The
// Finnhub stream is prepended automatically when its key is set, since its
// cache is the cheapest source to consult.
func newPriceSource(cfg config.Config, logger *zap.Logger) (domain.PriceSource, *marketdata.FinnhubStream, error) {
	names := make([]string, 0, len(cfg.PriceSources)+1)
	if cfg.FinnhubAPIKey != "" {
		names = append(names, "finnhub")
	}
	for _, name := range cfg.PriceSources {
		names = append(names, strings.ToLower(strings.TrimSpace(name)))
	}

	var stream *marketdata.FinnhubStream
	sources := make([]domain.PriceSource, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		switch name {
		case "yahoo":
			sources = append(sources, marketdata.NewYahooClient(cfg.YahooBaseURLs, cfg.QuoteTimeout, logger))
		case "stooq":
			sources = append(sources, marketdata.NewStooqClient(cfg.StooqBaseURL, cfg.QuoteTimeout, logger))
		case "finnhub":
			if cfg.FinnhubAPIKey == "" {
				logger.Warn("finnhub source configured without FINNHUB_API_KEY, skipping")
				continue
			}
			stream = marketdata.NewFinnhubStream(cfg.FinnhubWSURL, cfg.FinnhubAPIKey, cfg.FinnhubReadTimeout, cfg.FinnhubRedialDelay, cfg.PollInterval, logger)
			sources = append(sources, stream)
		}
	}

	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no usable price sources configured")
	}
	return marketdata.NewChain(logger, sources...), stream, nil
}

func newNotifier(cfg config.Config, logger *zap.Logger) (domain.Notifier, error) {
	if cfg.Notifier == "telegram" {
		return telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
	}
	client := homeassistant.NewClient(cfg.HomeAssistantURL, cfg.HomeAssistantToken, cfg.NotifyService, cfg.NotifyTimeout, logger)
	if !client.IsConfigured() {
		logger.Warn("home assistant notifier not fully configured, alerts will be logged only")
	}
	return client, nil
}
