// Package scheduler submits configured ingestions on cron schedules.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

// Schedule is one recurring ingestion
type Schedule struct {
	Spec     string `yaml:"spec"`
	Query    string `yaml:"query"`
	Location string `yaml:"location"`
	Quota    int    `yaml:"quota"`
}

func (s Schedule) request() domain.IngestionRequest {
	return domain.IngestionRequest{Query: s.Query, Location: s.Location, TotalQuota: s.Quota}
}

// Submitter accepts background ingestions; *posting.Service satisfies it
type Submitter interface {
	SubmitIngestion(ctx context.Context, req domain.IngestionRequest) (domain.Acknowledgment, error)
}

// Scheduler wraps robfig/cron
type Scheduler struct {
	cron      *cron.Cron
	submitter Submitter
	schedules []Schedule
	log       *logging.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// New validates every schedule spec up front
func New(submitter Submitter, schedules []Schedule, log *logging.Logger) (*Scheduler, error) {
	if submitter == nil {
		return nil, errors.New("scheduler.Scheduler: submitter is required")
	}
	if log == nil {
		log = logging.NewNop()
	}
	log = log.Named("scheduler")

	c := cron.New(
		cron.WithLogger(cronLogger{log}),
		cron.WithChain(cron.Recover(cronLogger{log})),
	)

	s := &Scheduler{
		cron:      c,
		submitter: submitter,
		schedules: schedules,
		log:       log,
		ctx:       context.Background(),
	}

	for i, sched := range schedules {
		if sched.Query == "" || sched.Quota <= 0 {
			return nil, fmt.Errorf("scheduler: schedule %d: query and positive quota are required", i)
		}
		if _, err := c.AddFunc(sched.Spec, func() { s.fire(sched) }); err != nil {
			return nil, fmt.Errorf("scheduler: schedule %d %q: %w", i, sched.Spec, err)
		}
	}

	return s, nil
}

// Len reports how many schedules are registered
func (s *Scheduler) Len() int {
	return len(s.cron.Entries())
}

// Start begins firing schedules; submissions use a context derived from ctx
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.started = true
	s.cron.Start()
	s.log.Info("scheduler started", "schedules", len(s.schedules))
}

// Shutdown stops the cron loop and waits for running submissions or ctx
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	s.mu.Unlock()

	done := s.cron.Stop()
	defer cancel()

	select {
	case <-done.Done():
		s.log.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunAll submits every schedule once, regardless of its spec
func (s *Scheduler) RunAll() {
	for _, sched := range s.schedules {
		s.fire(sched)
	}
}

func (s *Scheduler) fire(sched Schedule) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	ack, err := s.submitter.SubmitIngestion(ctx, sched.request())
	if err != nil {
		s.log.Error("scheduled ingestion rejected", "spec", sched.Spec, "query", sched.Query, "err", err)
		return
	}
	s.log.Info("scheduled ingestion submitted", "spec", sched.Spec, "query", sched.Query, "task_id", ack.TaskID)
}

// cronLogger adapts logging.Logger to cron.Logger
type cronLogger struct {
	log *logging.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error(msg, append(keysAndValues, "err", err)...)
}
