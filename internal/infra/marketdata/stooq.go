package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StooqClient fetches quotes from the Stooq CSV endpoint, used as a fallback
// when Yahoo cannot resolve a symbol.
type StooqClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

func NewStooqClient(baseURL string, timeout time.Duration, logger *zap.Logger) *StooqClient {
	return &StooqClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *StooqClient) Name() string { return "stooq" }

func (c *StooqClient) Fetch(ctx context.Context, symbol string) (*domain.PriceObservation, error) {
	observation, err := c.fetch(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", domain.ErrPriceUnavailable, symbol, err)
	}
	return observation, nil
}

func (c *StooqClient) fetch(ctx context.Context, symbol string) (*domain.PriceObservation, error) {
	params := url.Values{}
	params.Set("s", strings.ToLower(symbol))
	params.Set("f", "sd2t2ohlcv")
	params.Set("h", "")
	params.Set("e", "csv")
	endpoint := fmt.Sprintf("%s/q/l/?%s", c.baseURL, params.Encode())

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", "ETF-Checker/1.0")
	request.Header.Set("Accept", "text/csv")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("stooq request failed", zap.String("symbol", symbol), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug("stooq request complete",
		zap.String("symbol", symbol),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("stooq error: status %d", response.StatusCode)
	}

	reader := csv.NewReader(response.Body)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	row, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv row: %w", err)
	}

	closeIndex := -1
	for i, column := range header {
		if strings.EqualFold(column, "Close") {
			closeIndex = i
			break
		}
	}
	if closeIndex < 0 || closeIndex >= len(row) {
		return nil, fmt.Errorf("close column missing")
	}

	closeValue := strings.TrimSpace(row[closeIndex])
	if closeValue == "" || strings.EqualFold(closeValue, "N/A") {
		return nil, fmt.Errorf("no close price for symbol")
	}

	price, err := decimal.NewFromString(closeValue)
	if err != nil {
		return nil, fmt.Errorf("parse close price %q: %w", closeValue, err)
	}

	return &domain.PriceObservation{
		Symbol:     strings.ToUpper(symbol),
		Price:      price,
		ObservedAt: time.Now(),
	}, nil
}
