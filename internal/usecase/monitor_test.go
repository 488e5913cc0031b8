package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type staticWatchlist struct {
	snapshot domain.Watchlist
	err      error
}

func (w staticWatchlist) Load() (domain.Watchlist, error) {
	return w.snapshot, w.err
}

type fakeSource struct {
	prices map[string]string
}

func (s fakeSource) Name() string { return "fake" }

func (s fakeSource) Fetch(ctx context.Context, symbol string) (*domain.PriceObservation, error) {
	raw, ok := s.prices[symbol]
	if !ok {
		return nil, domain.ErrPriceUnavailable
	}
	return &domain.PriceObservation{
		Symbol:     symbol,
		Price:      decimal.RequireFromString(raw),
		ObservedAt: time.Now(),
	}, nil
}

type recordingNotifier struct {
	sent []string
	err  error
}

func (n *recordingNotifier) Notify(ctx context.Context, title, message string) error {
	n.sent = append(n.sent, title+"\n"+message)
	return n.err
}

func newTestMonitor(watchlist WatchlistLoader, source domain.PriceSource, repo domain.BaselineRepository, notifier domain.Notifier) *Monitor {
	return NewMonitor(watchlist, source, NewEvaluator(repo), notifier, time.Minute, zap.NewNop())
}

func TestRunOnceFirstObservationNeverAlerts(t *testing.T) {
	repo := newMemRepo()
	notifier := &recordingNotifier{}
	watchlist := staticWatchlist{snapshot: domain.Watchlist{
		Symbols:          []string{"SWDA.MI"},
		ThresholdPercent: dec(t, "5"),
	}}
	monitor := newTestMonitor(watchlist, fakeSource{prices: map[string]string{"SWDA.MI": "100"}}, repo, notifier)

	monitor.RunOnce(context.Background())

	if len(notifier.sent) != 0 {
		t.Fatalf("alert sent on baseline initialization: %v", notifier.sent)
	}
	baseline, err := repo.Get(context.Background(), "SWDA.MI")
	if err != nil {
		t.Fatalf("baseline not established: %v", err)
	}
	if !baseline.Price.Equal(dec(t, "100")) {
		t.Fatalf("baseline = %s, want 100", baseline.Price)
	}
}

func TestRunOnceSendsAlertWhenThresholdReached(t *testing.T) {
	repo := newMemRepo()
	repo.seed("SWDA.MI", "100")
	notifier := &recordingNotifier{}
	watchlist := staticWatchlist{snapshot: domain.Watchlist{
		Symbols:          []string{"SWDA.MI"},
		ThresholdPercent: dec(t, "5"),
	}}
	monitor := newTestMonitor(watchlist, fakeSource{prices: map[string]string{"SWDA.MI": "106"}}, repo, notifier)

	monitor.RunOnce(context.Background())

	if len(notifier.sent) != 1 {
		t.Fatalf("sent %d alerts, want 1", len(notifier.sent))
	}
	if !strings.Contains(notifier.sent[0], "salito") {
		t.Fatalf("alert should report an upward move: %q", notifier.sent[0])
	}
	baseline, _ := repo.Get(context.Background(), "SWDA.MI")
	if !baseline.Price.Equal(dec(t, "106")) {
		t.Fatalf("baseline = %s, want 106 after alert", baseline.Price)
	}
}

func TestRunOnceOneFailingSymbolDoesNotAbortTick(t *testing.T) {
	repo := newMemRepo()
	repo.seed("AAA", "100")
	repo.seed("CCC", "100")
	notifier := &recordingNotifier{}
	watchlist := staticWatchlist{snapshot: domain.Watchlist{
		Symbols:          []string{"AAA", "BBB", "CCC"},
		ThresholdPercent: dec(t, "5"),
	}}
	source := fakeSource{prices: map[string]string{"AAA": "110", "CCC": "90"}}
	monitor := newTestMonitor(watchlist, source, repo, notifier)

	monitor.RunOnce(context.Background())

	if len(notifier.sent) != 2 {
		t.Fatalf("sent %d alerts, want 2 (failing symbol skipped)", len(notifier.sent))
	}
	if _, err := repo.Get(context.Background(), "BBB"); !errors.Is(err, domain.ErrBaselineNotFound) {
		t.Fatalf("failing symbol should have no baseline, got err %v", err)
	}
}

func TestRunOnceNotifierFailureKeepsBaselineCommitted(t *testing.T) {
	repo := newMemRepo()
	repo.seed("SWDA.MI", "100")
	notifier := &recordingNotifier{err: errors.New("channel down")}
	watchlist := staticWatchlist{snapshot: domain.Watchlist{
		Symbols:          []string{"SWDA.MI"},
		ThresholdPercent: dec(t, "5"),
	}}
	monitor := newTestMonitor(watchlist, fakeSource{prices: map[string]string{"SWDA.MI": "106"}}, repo, notifier)

	monitor.RunOnce(context.Background())

	baseline, _ := repo.Get(context.Background(), "SWDA.MI")
	if !baseline.Price.Equal(dec(t, "106")) {
		t.Fatalf("baseline = %s, want 106 even when delivery fails", baseline.Price)
	}

	// Same price on the next tick must be a no-op, not a repeat alert.
	notifier.sent = nil
	monitor.RunOnce(context.Background())
	if len(notifier.sent) != 0 {
		t.Fatalf("repeat alert at unchanged price: %v", notifier.sent)
	}
}

func TestRunOnceSkipsEmptyWatchlist(t *testing.T) {
	repo := newMemRepo()
	notifier := &recordingNotifier{}
	monitor := newTestMonitor(staticWatchlist{}, fakeSource{}, repo, notifier)

	monitor.RunOnce(context.Background())

	if len(notifier.sent) != 0 {
		t.Fatalf("unexpected notifications: %v", notifier.sent)
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	repo := newMemRepo()
	monitor := newTestMonitor(staticWatchlist{}, fakeSource{}, repo, &recordingNotifier{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- monitor.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestFormatAlertWording(t *testing.T) {
	down := domain.Decision{
		Kind:             domain.DecisionAlertTriggered,
		Symbol:           "SWDA.MI",
		BaselinePrice:    dec(t, "100"),
		CurrentPrice:     dec(t, "94"),
		DeviationPercent: dec(t, "-6"),
	}
	title, message := FormatAlert(down, dec(t, "5"))
	if title != "ETF SWDA.MI sceso" {
		t.Fatalf("title = %q", title)
	}
	want := "SWDA.MI è sceso del -6.00% (soglia 5.00%). Baseline: 100.00, attuale: 94.00."
	if message != want {
		t.Fatalf("message = %q, want %q", message, want)
	}

	up := down
	up.CurrentPrice = dec(t, "106")
	up.DeviationPercent = dec(t, "6")
	title, _ = FormatAlert(up, dec(t, "5"))
	if title != "ETF SWDA.MI salito" {
		t.Fatalf("title = %q", title)
	}
}
