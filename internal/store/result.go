// Package store persists finished simulation results as opaque JSON blobs
// keyed by run id, with a small metadata table for listing.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"tradeassist/internal/backtest"
)

// ErrNotFound reports a missing run id.
var ErrNotFound = errors.New("result not found")

// ResultMeta is the listing row kept alongside each blob.
type ResultMeta struct {
	ID            string `json:"id"`
	Symbol        string `json:"symbol"`
	Timeframe     string `json:"timeframe"`
	Trades        int    `json:"trades"`
	ProfitPercent string `json:"profitPercent"`
	GoodRun       bool   `json:"goodRun"`
	CreatedAt     int64  `json:"createdAt"`
}

// ResultStore reads and writes simulation results.
type ResultStore interface {
	Save(ctx context.Context, res *backtest.Result) error
	Load(ctx context.Context, id string) (*backtest.Result, error)
	List(ctx context.Context) ([]ResultMeta, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteStore keeps results in a single local database file.
type SQLiteStore struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates or opens the database at path and applies the schema.
func Open(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("store path must not be empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS results (
            id         TEXT PRIMARY KEY,
            symbol     TEXT NOT NULL,
            timeframe  TEXT NOT NULL,
            trades     INTEGER NOT NULL,
            profit_pct TEXT NOT NULL,
            good_run   INTEGER NOT NULL,
            created_at INTEGER NOT NULL,
            payload    BLOB NOT NULL
        )`)
	if err != nil {
		return fmt.Errorf("migrate results: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Save(ctx context.Context, res *backtest.Result) error {
	if res == nil || res.ID == "" {
		return errors.New("result must carry an id")
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result %s: %w", res.ID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO results (id, symbol, timeframe, trades, profit_pct, good_run, created_at, payload)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            symbol=excluded.symbol, timeframe=excluded.timeframe, trades=excluded.trades,
            profit_pct=excluded.profit_pct, good_run=excluded.good_run, payload=excluded.payload`,
		res.ID, res.Symbol, res.Timeframe,
		res.Analytics.Trades, res.Analytics.ProfitPercent.String(),
		boolToInt(res.Analytics.GoodRun), time.Now().UnixMilli(), payload)
	if err != nil {
		return fmt.Errorf("save result %s: %w", res.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*backtest.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM results WHERE id = ?", id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load result %s: %w", id, err)
	}
	var res backtest.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", id, err)
	}
	return &res, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]ResultMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, symbol, timeframe, trades, profit_pct, good_run, created_at
        FROM results ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list results: %w", err)
	}
	defer rows.Close()

	var out []ResultMeta
	for rows.Next() {
		var m ResultMeta
		var good int
		if err := rows.Scan(&m.ID, &m.Symbol, &m.Timeframe, &m.Trades, &m.ProfitPercent, &good, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.GoodRun = good != 0
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.ExecContext(ctx, "DELETE FROM results WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete result %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// MemoryStore is the in-process implementation used by tests and the batch
// runner when no database path is configured.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*backtest.Result
	meta map[string]ResultMeta
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]*backtest.Result),
		meta: make(map[string]ResultMeta),
	}
}

func (s *MemoryStore) Save(ctx context.Context, res *backtest.Result) error {
	if res == nil || res.ID == "" {
		return errors.New("result must carry an id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *res
	s.data[res.ID] = &cp
	s.meta[res.ID] = ResultMeta{
		ID:            res.ID,
		Symbol:        res.Symbol,
		Timeframe:     res.Timeframe,
		Trades:        res.Analytics.Trades,
		ProfitPercent: res.Analytics.ProfitPercent.String(),
		GoodRun:       res.Analytics.GoodRun,
		CreatedAt:     time.Now().UnixMilli(),
	}
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, id string) (*backtest.Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *res
	return &cp, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]ResultMeta, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ResultMeta, 0, len(s.meta))
	for _, m := range s.meta {
		out = append(out, m)
	}
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	delete(s.meta, id)
	return nil
}
