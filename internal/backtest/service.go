package backtest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"tradeassist/internal/market"
	"tradeassist/pkg/logger"
)

const (
	JobStatusPending = "pending"
	JobStatusRunning = "running"
	JobStatusDone    = "done"
	JobStatusFailed  = "failed"
)

// Job tracks one asynchronous simulation run in memory.
type Job struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	Config     Config    `json:"config"`
	ResultID   string    `json:"result_id,omitempty"`
	Message    string    `json:"message,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

func (j *Job) copy() Job {
	if j == nil {
		return Job{}
	}
	return *j
}

// ResultSink persists finished runs. The sqlite store satisfies it.
type ResultSink interface {
	Save(ctx context.Context, res *Result) error
	Load(ctx context.Context, id string) (*Result, error)
}

// Service loads histories from a dataset, runs simulations and persists
// their results.
type Service struct {
	data market.Dataset
	sink ResultSink
	log  *logger.Logger

	mu   sync.RWMutex
	jobs map[string]*Job
}

type ServiceConfig struct {
	Data market.Dataset
	Sink ResultSink
}

func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Data == nil {
		return nil, errors.New("dataset must not be nil")
	}
	return &Service{
		data: cfg.Data,
		sink: cfg.Sink,
		log:  logger.Get().With("component", "backtest"),
		jobs: make(map[string]*Job),
	}, nil
}

// Run executes one simulation synchronously and persists the result when a
// sink is configured.
func (s *Service) Run(ctx context.Context, cfg Config) (*Result, error) {
	h, err := s.data.Timeframe(cfg.Symbol, cfg.Timeframe)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", cfg.Symbol, cfg.Timeframe, err)
	}
	started := time.Now()

	eng, err := NewEngine(cfg, &h)
	if err != nil {
		return nil, err
	}
	res, err := eng.Run(ctx)
	if err != nil {
		return nil, err
	}
	res.ID = uuid.NewString()
	res.StartedAt = started
	res.FinishedAt = time.Now()

	s.log.Infow("run finished",
		"id", res.ID,
		"symbol", cfg.Symbol,
		"trades", res.Analytics.Trades,
		"profit_pct", res.Analytics.ProfitPercent,
		"good_run", res.Analytics.GoodRun,
	)

	if s.sink != nil {
		if err := s.sink.Save(ctx, res); err != nil {
			return nil, fmt.Errorf("persist result %s: %w", res.ID, err)
		}
	}
	return res, nil
}

// RunBatch runs one simulation per config with bounded concurrency and
// returns results in input order. The first failure cancels the rest.
func (s *Service) RunBatch(ctx context.Context, cfgs []Config, concurrency int) ([]*Result, error) {
	if concurrency <= 0 {
		concurrency = 4
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	out := make([]*Result, len(cfgs))
	for i, cfg := range cfgs {
		i, cfg := i, cfg
		g.Go(func() error {
			res, err := s.Run(ctx, cfg)
			if err != nil {
				return fmt.Errorf("%s/%s: %w", cfg.Symbol, cfg.Timeframe, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Submit runs a simulation in the background and returns a job handle
// immediately.
func (s *Service) Submit(cfg Config) (Job, error) {
	if _, err := s.data.Timeframe(cfg.Symbol, cfg.Timeframe); err != nil {
		return Job{}, fmt.Errorf("load %s/%s: %w", cfg.Symbol, cfg.Timeframe, err)
	}
	now := time.Now()
	job := &Job{
		ID:        uuid.NewString(),
		Status:    JobStatusPending,
		Config:    cfg,
		StartedAt: now,
		UpdatedAt: now,
	}
	s.mu.Lock()
	s.jobs[job.ID] = job
	s.mu.Unlock()

	go s.runJob(job.ID, cfg)
	return job.copy(), nil
}

func (s *Service) runJob(id string, cfg Config) {
	s.updateJob(id, func(j *Job) { j.Status = JobStatusRunning })
	res, err := s.Run(context.Background(), cfg)
	if err != nil {
		s.log.Errorw("job failed", "id", id, "err", err)
		s.updateJob(id, func(j *Job) {
			j.Status = JobStatusFailed
			j.Message = err.Error()
			j.FinishedAt = time.Now()
		})
		return
	}
	s.updateJob(id, func(j *Job) {
		j.Status = JobStatusDone
		j.ResultID = res.ID
		j.FinishedAt = time.Now()
	})
}

func (s *Service) updateJob(id string, fn func(*Job)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return
	}
	fn(j)
	j.UpdatedAt = time.Now()
}

// JobSnapshot returns a copy of one job's current state.
func (s *Service) JobSnapshot(id string) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j.copy(), ok
}

// JobsSnapshot returns a copy of every tracked job.
func (s *Service) JobsSnapshot() []Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, j.copy())
	}
	return out
}

// Result loads a persisted result by id.
func (s *Service) Result(ctx context.Context, id string) (*Result, error) {
	if s.sink == nil {
		return nil, errors.New("no result store configured")
	}
	return s.sink.Load(ctx, id)
}

// Symbols lists the dataset's symbols with their available timeframes.
func (s *Service) Symbols() map[string][]string {
	out := make(map[string][]string, len(s.data))
	for sym, tfs := range s.data {
		for tf := range tfs {
			out[sym] = append(out[sym], tf)
		}
	}
	return out
}
