package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// YahooClient fetches quotes from the Yahoo Finance v7 quote endpoint. The
// public hosts are flaky, so a list of base URLs is tried in order.
type YahooClient struct {
	baseURLs []string
	client   *http.Client
	logger   *zap.Logger
}

type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []yahooQuote `json:"result"`
	} `json:"quoteResponse"`
}

type yahooQuote struct {
	Symbol             string           `json:"symbol"`
	RegularMarketPrice *decimal.Decimal `json:"regularMarketPrice"`
}

func NewYahooClient(baseURLs []string, timeout time.Duration, logger *zap.Logger) *YahooClient {
	trimmed := make([]string, 0, len(baseURLs))
	for _, base := range baseURLs {
		trimmed = append(trimmed, strings.TrimRight(base, "/"))
	}
	return &YahooClient{
		baseURLs: trimmed,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

func (c *YahooClient) Name() string { return "yahoo" }

func (c *YahooClient) Fetch(ctx context.Context, symbol string) (*domain.PriceObservation, error) {
	var lastErr error
	for _, base := range c.baseURLs {
		observation, err := c.fetchFrom(ctx, base, symbol)
		if err == nil {
			return observation, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no yahoo hosts configured")
	}
	return nil, fmt.Errorf("%w: %s: %s", domain.ErrPriceUnavailable, symbol, lastErr)
}

func (c *YahooClient) fetchFrom(ctx context.Context, base, symbol string) (*domain.PriceObservation, error) {
	endpoint := fmt.Sprintf("%s/v7/finance/quote?symbols=%s", base, url.QueryEscape(symbol))
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	request.Header.Set("User-Agent", "ETF-Checker/1.0")
	request.Header.Set("Accept", "application/json")

	start := time.Now()
	response, err := c.client.Do(request)
	if err != nil {
		c.logger.Warn("yahoo request failed", zap.String("symbol", symbol), zap.String("url", endpoint), zap.Error(err))
		return nil, err
	}
	defer response.Body.Close()

	c.logger.Debug("yahoo request complete",
		zap.String("symbol", symbol),
		zap.String("url", endpoint),
		zap.Int("status", response.StatusCode),
		zap.Duration("duration", time.Since(start)),
	)

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("yahoo error: status %d", response.StatusCode)
	}

	var payload yahooQuoteResponse
	if err := json.NewDecoder(response.Body).Decode(&payload); err != nil {
		return nil, err
	}

	wanted := strings.ToUpper(symbol)
	for _, quote := range payload.QuoteResponse.Result {
		if strings.ToUpper(quote.Symbol) != wanted || quote.RegularMarketPrice == nil {
			continue
		}
		return &domain.PriceObservation{
			Symbol:     wanted,
			Price:      *quote.RegularMarketPrice,
			ObservedAt: time.Now(),
		}, nil
	}
	return nil, fmt.Errorf("symbol not in quote response")
}
