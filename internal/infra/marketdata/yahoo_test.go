package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func TestYahooFetchParsesQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/quote" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("symbols"); got != "SWDA.MI" {
			t.Errorf("symbols = %q", got)
		}
		w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"SWDA.MI","regularMarketPrice":101.37}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient([]string{server.URL}, time.Second, zap.NewNop())
	observation, err := client.Fetch(context.Background(), "SWDA.MI")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !observation.Price.Equal(decimal.RequireFromString("101.37")) {
		t.Fatalf("price = %s, want 101.37", observation.Price)
	}
	if observation.Symbol != "SWDA.MI" {
		t.Fatalf("symbol = %q", observation.Symbol)
	}
}

func TestYahooFetchFallsBackToSecondHost(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer bad.Close()
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"SWDA.MI","regularMarketPrice":100}]}}`))
	}))
	defer good.Close()

	client := NewYahooClient([]string{bad.URL, good.URL}, time.Second, zap.NewNop())
	observation, err := client.Fetch(context.Background(), "SWDA.MI")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !observation.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("price = %s, want 100", observation.Price)
	}
}

func TestYahooFetchUnknownSymbolIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[]}}`))
	}))
	defer server.Close()

	client := NewYahooClient([]string{server.URL}, time.Second, zap.NewNop())
	if _, err := client.Fetch(context.Background(), "NOPE"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("err = %v, want ErrPriceUnavailable", err)
	}
}

func TestYahooFetchMissingPriceIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse":{"result":[{"symbol":"SWDA.MI"}]}}`))
	}))
	defer server.Close()

	client := NewYahooClient([]string{server.URL}, time.Second, zap.NewNop())
	if _, err := client.Fetch(context.Background(), "SWDA.MI"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("err = %v, want ErrPriceUnavailable", err)
	}
}
