package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FinnhubStream keeps a websocket to the Finnhub trade stream and caches the
// last trade per subscribed symbol. Fetch serves from that cache: a symbol
// asked for the first time gets subscribed and reported unavailable, so the
// chain falls through to the HTTP sources until trades start flowing. Cached
// trades older than maxAge are discarded so a dead stream cannot shadow the
// HTTP sources with stale quotes.
type FinnhubStream struct {
	url         string
	apiKey      string
	dialer      *websocket.Dialer
	readTimeout time.Duration
	redialDelay time.Duration
	maxAge      time.Duration
	logger      *zap.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	subscribed map[string]struct{}
	lastTrades map[string]domain.PriceObservation
}

type finnhubMessage struct {
	Type string         `json:"type"`
	Data []finnhubTrade `json:"data"`
}

type finnhubTrade struct {
	Symbol    string          `json:"s"`
	Price     decimal.Decimal `json:"p"`
	Timestamp int64           `json:"t"`
}

func NewFinnhubStream(url, apiKey string, readTimeout, redialDelay, maxAge time.Duration, logger *zap.Logger) *FinnhubStream {
	return &FinnhubStream{
		url:    url,
		apiKey: apiKey,
		dialer: &websocket.Dialer{
			Proxy: http.ProxyFromEnvironment,
		},
		readTimeout: readTimeout,
		redialDelay: redialDelay,
		maxAge:      maxAge,
		logger:      logger,
		subscribed:  make(map[string]struct{}),
		lastTrades:  make(map[string]domain.PriceObservation),
	}
}

func (s *FinnhubStream) Name() string { return "finnhub" }

func (s *FinnhubStream) Fetch(ctx context.Context, symbol string) (*domain.PriceObservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if observation, ok := s.lastTrades[symbol]; ok {
		if s.maxAge <= 0 || time.Since(observation.ObservedAt) < s.maxAge {
			return &observation, nil
		}
		delete(s.lastTrades, symbol)
	}

	if _, ok := s.subscribed[symbol]; !ok {
		s.subscribed[symbol] = struct{}{}
		if s.conn != nil {
			if err := s.writeSubscribe(symbol); err != nil {
				s.logger.Warn("finnhub subscribe failed", zap.String("symbol", symbol), zap.Error(err))
			}
		}
	}

	return nil, fmt.Errorf("%w: %s: no trade received yet", domain.ErrPriceUnavailable, symbol)
}

// Start runs the connect/read loop until ctx is cancelled. Connection loss is
// retried after redialDelay; subscriptions are replayed on every reconnect.
func (s *FinnhubStream) Start(ctx context.Context) {
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := s.run(ctx); err != nil && ctx.Err() == nil {
				s.logger.Warn("finnhub stream interrupted", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(s.redialDelay):
			}
		}
	}()
}

func (s *FinnhubStream) run(ctx context.Context) error {
	endpoint := s.url + "?token=" + s.apiKey
	s.logger.Info("finnhub connect start", zap.String("url", s.url))
	conn, _, err := s.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		s.logger.Warn("finnhub connect failed", zap.String("url", s.url), zap.Error(err))
		return err
	}
	s.logger.Info("finnhub connect success", zap.String("url", s.url))

	// The watcher must not outlive this connection: a ctx-only wait would
	// leave one goroutine behind per reconnect cycle.
	connDone := make(chan struct{})
	defer close(connDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-connDone:
		}
	}()

	s.mu.Lock()
	s.conn = conn
	symbols := make([]string, 0, len(s.subscribed))
	for symbol := range s.subscribed {
		symbols = append(symbols, symbol)
	}
	s.mu.Unlock()

	for _, symbol := range symbols {
		s.mu.Lock()
		err := s.writeSubscribe(symbol)
		s.mu.Unlock()
		if err != nil {
			_ = conn.Close()
			return err
		}
	}

	defer func() {
		s.mu.Lock()
		s.conn = nil
		s.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		if s.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var message finnhubMessage
		if err := json.Unmarshal(data, &message); err != nil {
			s.logger.Debug("finnhub message ignored", zap.Error(err))
			continue
		}
		if message.Type != "trade" {
			continue
		}

		s.mu.Lock()
		for _, trade := range message.Data {
			if trade.Symbol == "" {
				continue
			}
			s.lastTrades[trade.Symbol] = domain.PriceObservation{
				Symbol:     trade.Symbol,
				Price:      trade.Price,
				ObservedAt: time.UnixMilli(trade.Timestamp),
			}
		}
		s.mu.Unlock()
	}
}

// writeSubscribe sends the subscribe frame. Caller holds the lock.
func (s *FinnhubStream) writeSubscribe(symbol string) error {
	if s.conn == nil {
		return fmt.Errorf("not connected")
	}
	payload := map[string]string{"type": "subscribe", "symbol": symbol}
	return s.conn.WriteJSON(payload)
}
