package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// WatchlistFile reads the user-editable watchlist (symbols plus shared
// threshold) from the JSON file written by the add-on UI. The monitor re-reads
// it on every tick so edits take effect without a restart.
type WatchlistFile struct {
	path             string
	defaultThreshold decimal.Decimal
	logger           *zap.Logger
}

type watchlistPayload struct {
	EtfSymbols       []string         `json:"etf_symbols"`
	ThresholdPercent *decimal.Decimal `json:"threshold_percent"`
}

func NewWatchlistFile(path string, defaultThreshold decimal.Decimal, logger *zap.Logger) *WatchlistFile {
	return &WatchlistFile{path: path, defaultThreshold: defaultThreshold, logger: logger}
}

// Load returns the current snapshot. A missing file yields an empty watchlist
// with the default threshold; a malformed or negative file threshold falls
// back to the default (runtime edits must never kill the daemon).
func (w *WatchlistFile) Load() (domain.Watchlist, error) {
	snapshot := domain.Watchlist{ThresholdPercent: w.defaultThreshold}

	data, err := os.ReadFile(w.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return snapshot, nil
		}
		return domain.Watchlist{}, err
	}

	var payload watchlistPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.Watchlist{}, err
	}

	snapshot.Symbols = normalizeSymbols(payload.EtfSymbols)
	if payload.ThresholdPercent != nil {
		if payload.ThresholdPercent.IsNegative() {
			w.logger.Warn("negative threshold in watchlist, using default",
				zap.String("threshold", payload.ThresholdPercent.String()),
				zap.String("default", w.defaultThreshold.String()))
		} else {
			snapshot.ThresholdPercent = *payload.ThresholdPercent
		}
	}

	return snapshot, nil
}

// normalizeSymbols trims, uppercases and deduplicates while preserving order.
func normalizeSymbols(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	symbols := make([]string, 0, len(raw))
	for _, symbol := range raw {
		cleaned := strings.ToUpper(strings.TrimSpace(symbol))
		if cleaned == "" {
			continue
		}
		if _, ok := seen[cleaned]; ok {
			continue
		}
		seen[cleaned] = struct{}{}
		symbols = append(symbols, cleaned)
	}
	return symbols
}
