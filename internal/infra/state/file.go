package state

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Alessandro1981/etf-checker/internal/domain"
	"github.com/shopspring/decimal"
)

// FileStore persists baselines in a single JSON file, the layout the add-on
// has always used. It is the store when no database is configured. One record
// per symbol; the whole file is rewritten on every Set.
type FileStore struct {
	path string

	mu        sync.Mutex
	baselines map[string]fileBaseline
}

type fileBaseline struct {
	Price         decimal.Decimal `json:"price"`
	EstablishedAt time.Time       `json:"established_at"`
}

type filePayload struct {
	Baselines map[string]fileBaseline `json:"baselines"`
}

// NewFileStore loads existing state from path. A missing file is an empty
// store, not an error: baselines re-initialize on the first observation.
func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{path: path, baselines: make(map[string]fileBaseline)}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return store, nil
		}
		return nil, err
	}

	var payload filePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if payload.Baselines != nil {
		store.baselines = payload.Baselines
	}
	return store, nil
}

func (s *FileStore) Get(ctx context.Context, symbol string) (*domain.Baseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.baselines[symbol]
	if !ok {
		return nil, domain.ErrBaselineNotFound
	}
	return &domain.Baseline{
		Symbol:        symbol,
		Price:         record.Price,
		EstablishedAt: record.EstablishedAt,
	}, nil
}

func (s *FileStore) Set(ctx context.Context, baseline domain.Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.baselines[baseline.Symbol] = fileBaseline{
		Price:         baseline.Price,
		EstablishedAt: baseline.EstablishedAt,
	}
	return s.flush()
}

// flush writes via a temp file and rename so a crash mid-write cannot leave a
// truncated state file. Caller holds the lock.
func (s *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(filePayload{Baselines: s.baselines}, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
