package posting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

// ServiceOption configures Service
type ServiceOption func(*serviceConfig)

type serviceConfig struct {
	tasks    TaskTracker
	reader   Reader
	mode     string
	clock    func() time.Time
	log      *logging.Logger
	recorder Recorder
}

// WithTaskTracker sets where task lifecycle is recorded
func WithTaskTracker(t TaskTracker) ServiceOption {
	return func(c *serviceConfig) {
		c.tasks = t
	}
}

// WithReader enables the read path (List, DistinctLocations, DistinctCompanies)
func WithReader(r Reader) ServiceOption {
	return func(c *serviceConfig) {
		c.reader = r
	}
}

// WithMode labels acknowledgments and stats ("live" or "synthetic")
func WithMode(mode string) ServiceOption {
	return func(c *serviceConfig) {
		c.mode = mode
	}
}

// WithServiceClock sets a custom clock
func WithServiceClock(clock func() time.Time) ServiceOption {
	return func(c *serviceConfig) {
		c.clock = clock
	}
}

// WithServiceLogger sets the logger
func WithServiceLogger(log *logging.Logger) ServiceOption {
	return func(c *serviceConfig) {
		c.log = log
	}
}

// WithServiceRecorder sets the telemetry sink for run outcomes
func WithServiceRecorder(r Recorder) ServiceOption {
	return func(c *serviceConfig) {
		c.recorder = r
	}
}

// Service is the request surface: it accepts ingestions, runs them in the
// background, and answers stats from the store.
type Service struct {
	aggregator *Aggregator
	store      Store
	reader     Reader
	tasks      TaskTracker
	mode       string
	clock      func() time.Time
	log        *logging.Logger
	recorder   Recorder
	newID      func() uuid.UUID

	wg sync.WaitGroup
}

// NewService builds Service around an aggregator and the store it writes to
func NewService(agg *Aggregator, store Store, opts ...ServiceOption) (*Service, error) {
	if agg == nil {
		return nil, fmt.Errorf("posting.Service: aggregator is required")
	}
	if store == nil {
		return nil, fmt.Errorf("posting.Service: store is required")
	}

	cfg := &serviceConfig{
		mode:     "live",
		clock:    time.Now,
		log:      logging.NewNop(),
		recorder: NopRecorder(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.tasks == nil {
		cfg.tasks = NewMemoryTaskTracker()
	}
	if cfg.reader == nil {
		if r, ok := store.(Reader); ok {
			cfg.reader = r
		}
	}

	return &Service{
		aggregator: agg,
		store:      store,
		reader:     cfg.reader,
		tasks:      cfg.tasks,
		mode:       cfg.mode,
		clock:      cfg.clock,
		log:        cfg.log.Named("ingestion"),
		recorder:   cfg.recorder,
		newID:      uuid.New,
	}, nil
}

// Mode reports which adapter set the service was wired with
func (s *Service) Mode() string { return s.mode }

// SubmitIngestion validates req, schedules a background run and returns
// immediately. The run is detached from ctx so it outlives the caller.
func (s *Service) SubmitIngestion(ctx context.Context, req domain.IngestionRequest) (domain.Acknowledgment, error) {
	req.Query = strings.TrimSpace(req.Query)
	req.Location = strings.TrimSpace(req.Location)
	if req.Query == "" {
		return domain.Acknowledgment{}, fmt.Errorf("%w: query is required", ErrInvalidRequest)
	}
	if req.TotalQuota <= 0 {
		return domain.Acknowledgment{}, fmt.Errorf("%w: quota must be positive, got %d", ErrInvalidRequest, req.TotalQuota)
	}
	req.Sources = NormalizeSources(req.Sources)
	if _, unknown := s.aggregator.selectSources(req.Sources); len(unknown) > 0 {
		return domain.Acknowledgment{}, fmt.Errorf("%w: unknown sources %v, configured: %v", ErrInvalidRequest, unknown, s.aggregator.Sources())
	}

	now := s.clock()
	task := domain.IngestionTask{
		ID:          s.newID(),
		Request:     req,
		Status:      domain.TaskQueued,
		SubmittedAt: now,
	}
	s.saveTask(ctx, task)

	s.wg.Add(1)
	go s.run(context.WithoutCancel(ctx), task)

	s.log.Info("ingestion accepted", "task_id", task.ID, "query", req.Query, "location", req.Location, "quota", req.TotalQuota, "sources", req.Sources)

	return domain.Acknowledgment{
		TaskID:      task.ID,
		Mode:        s.mode,
		Message:     fmt.Sprintf("ingestion of up to %d postings for %q started", req.TotalQuota, req.Query),
		SubmittedAt: now,
	}, nil
}

// NormalizeSources lowercases and trims source tags, dropping blanks and repeats
func NormalizeSources(in []domain.Source) []domain.Source {
	var out []domain.Source
	seen := make(map[domain.Source]bool, len(in))
	for _, src := range in {
		src = domain.Source(strings.ToLower(strings.TrimSpace(string(src))))
		if src == "" || seen[src] {
			continue
		}
		seen[src] = true
		out = append(out, src)
	}
	return out
}

func (s *Service) run(ctx context.Context, task domain.IngestionTask) {
	defer s.wg.Done()
	log := s.log.With("task_id", task.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("ingestion panicked", "panic", r)
			task.Status = domain.TaskFailed
			task.Error = fmt.Sprintf("panic: %v", r)
			task.FinishedAt = s.clock()
			s.saveTask(ctx, task)
			s.recorder.RunFinished(task.Status, task.Inserted, task.FinishedAt.Sub(task.StartedAt))
		}
	}()

	task.Status = domain.TaskRunning
	task.StartedAt = s.clock()
	s.saveTask(ctx, task)

	report := s.aggregator.Run(ctx, task.Request)

	task.Inserted = report.Inserted()
	task.PerSource = report.PerSource()
	task.FinishedAt = s.clock()
	task.Status = domain.TaskCompleted
	if report.Failed() {
		task.Status = domain.TaskFailed
	}
	if err := report.Err(); err != nil {
		task.Error = err.Error()
	}
	s.saveTask(ctx, task)
	s.recorder.RunFinished(task.Status, task.Inserted, task.FinishedAt.Sub(task.StartedAt))

	log.Info("ingestion finished", "status", task.Status, "inserted", task.Inserted, "per_source", task.PerSource)
}

func (s *Service) saveTask(ctx context.Context, task domain.IngestionTask) {
	if err := s.tasks.Save(ctx, task); err != nil {
		s.log.Warn("failed to record task state", "task_id", task.ID, "status", task.Status, "err", err)
	}
}

// IngestionStatus returns the tracked state of a submitted task
func (s *Service) IngestionStatus(ctx context.Context, id uuid.UUID) (domain.IngestionTask, error) {
	return s.tasks.Get(ctx, id)
}

// IngestionStats reports persisted totals, overall and per configured source
func (s *Service) IngestionStats(ctx context.Context) (domain.IngestionStats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return domain.IngestionStats{}, fmt.Errorf("count postings: %w", err)
	}

	stats := domain.IngestionStats{
		Total:     total,
		PerSource: make(map[domain.Source]int64),
		Mode:      s.mode,
	}
	for _, source := range s.aggregator.Sources() {
		n, err := s.store.CountBySource(ctx, source)
		if err != nil {
			return domain.IngestionStats{}, fmt.Errorf("count postings for %s: %w", source, err)
		}
		stats.PerSource[source] = n
	}
	return stats, nil
}

// ListPostings serves the filtered read path
func (s *Service) ListPostings(ctx context.Context, filter domain.PostingFilter) (domain.PostingPage, error) {
	if s.reader == nil {
		return domain.PostingPage{}, fmt.Errorf("posting.Service: store has no read path")
	}
	return s.reader.List(ctx, NormalizeFilter(filter))
}

// Filters returns the distinct locations and companies available for filtering
func (s *Service) Filters(ctx context.Context) (locations, companies []string, err error) {
	if s.reader == nil {
		return nil, nil, fmt.Errorf("posting.Service: store has no read path")
	}
	if locations, err = s.reader.DistinctLocations(ctx); err != nil {
		return nil, nil, fmt.Errorf("distinct locations: %w", err)
	}
	if companies, err = s.reader.DistinctCompanies(ctx); err != nil {
		return nil, nil, fmt.Errorf("distinct companies: %w", err)
	}
	return locations, companies, nil
}

// Wait blocks until every submitted ingestion has finished or ctx ends
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown drains in-flight ingestions; it satisfies shutdown.Stoppable
func (s *Service) Shutdown(ctx context.Context) error {
	s.log.Info("waiting for in-flight ingestions")
	return s.Wait(ctx)
}
