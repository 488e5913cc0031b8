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

func TestStooqFetchParsesCloseColumn(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/q/l/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("s"); got != "swda.mi" {
			t.Errorf("s = %q, want lowercase symbol", got)
		}
		w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\nSWDA.MI,2026-08-25,17:35:14,100.1,102.0,99.8,101.37,12345\n"))
	}))
	defer server.Close()

	client := NewStooqClient(server.URL, time.Second, zap.NewNop())
	observation, err := client.Fetch(context.Background(), "SWDA.MI")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !observation.Price.Equal(decimal.RequireFromString("101.37")) {
		t.Fatalf("price = %s, want 101.37", observation.Price)
	}
}

func TestStooqFetchNAIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Symbol,Date,Time,Open,High,Low,Close,Volume\nNOPE,N/A,N/A,N/A,N/A,N/A,N/A,N/A\n"))
	}))
	defer server.Close()

	client := NewStooqClient(server.URL, time.Second, zap.NewNop())
	if _, err := client.Fetch(context.Background(), "NOPE"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("err = %v, want ErrPriceUnavailable", err)
	}
}

func TestStooqFetchServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewStooqClient(server.URL, time.Second, zap.NewNop())
	if _, err := client.Fetch(context.Background(), "SWDA.MI"); !errors.Is(err, domain.ErrPriceUnavailable) {
		t.Fatalf("err = %v, want ErrPriceUnavailable", err)
	}
}
