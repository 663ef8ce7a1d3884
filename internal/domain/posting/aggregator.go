package posting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

// Option configures the Aggregator
type Option func(*config)

type config struct {
	sources     []SourceConfig
	store       Store
	quota       QuotaPolicy
	sourceDelay time.Duration
	clock       func() time.Time
	log         *logging.Logger
	recorder    Recorder
}

// WithSources sets the ordered source list; order is the invocation order
func WithSources(sources ...SourceConfig) Option {
	return func(c *config) {
		c.sources = sources
	}
}

// WithStore sets the persistence backend behind the gateway
func WithStore(store Store) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithQuotaPolicy sets how a request's quota is split across sources
func WithQuotaPolicy(p QuotaPolicy) Option {
	return func(c *config) {
		c.quota = p
	}
}

// WithSourceDelay sets the pause between consecutive source invocations
func WithSourceDelay(d time.Duration) Option {
	return func(c *config) {
		c.sourceDelay = d
	}
}

// WithClock sets a custom clock
func WithClock(clock func() time.Time) Option {
	return func(c *config) {
		c.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(log *logging.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithRecorder sets the telemetry sink
func WithRecorder(r Recorder) Option {
	return func(c *config) {
		c.recorder = r
	}
}

// Aggregator runs the configured sources one after another for a request
type Aggregator struct {
	sources     []SourceConfig
	quota       QuotaPolicy
	sourceDelay time.Duration
	clock       func() time.Time
	log         *logging.Logger
	recorder    Recorder
	collector   *collector
}

// NewAggregator builds an Aggregator from options
func NewAggregator(opts ...Option) (*Aggregator, error) {
	cfg := &config{
		quota:    EqualSplit{},
		clock:    time.Now,
		log:      logging.NewNop(),
		recorder: NopRecorder(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.store == nil {
		return nil, fmt.Errorf("posting.Aggregator: store is required")
	}
	if len(cfg.sources) == 0 {
		return nil, fmt.Errorf("posting.Aggregator: at least one source is required")
	}
	seen := make(map[domain.Source]bool, len(cfg.sources))
	for i, s := range cfg.sources {
		if s.Adapter == nil {
			return nil, fmt.Errorf("posting.Aggregator: source %d has no adapter", i)
		}
		if seen[s.name()] {
			return nil, fmt.Errorf("posting.Aggregator: source %q configured twice", s.name())
		}
		seen[s.name()] = true
	}

	log := cfg.log.Named("aggregator")
	return &Aggregator{
		sources:     cfg.sources,
		quota:       cfg.quota,
		sourceDelay: cfg.sourceDelay,
		clock:       cfg.clock,
		log:         log,
		recorder:    cfg.recorder,
		collector: &collector{
			gateway:  NewGateway(cfg.store),
			log:      log,
			recorder: cfg.recorder,
		},
	}, nil
}

// Sources lists the configured source tags in invocation order
func (a *Aggregator) Sources() []domain.Source {
	out := make([]domain.Source, 0, len(a.sources))
	for _, s := range a.sources {
		out = append(out, s.name())
	}
	return out
}

// Report is the outcome of one aggregation run
type Report struct {
	Request   domain.IngestionRequest
	Sources   []SourceReport
	StartedAt time.Time
	Elapsed   time.Duration
}

// Postings concatenates newly inserted postings in source order
func (r Report) Postings() []domain.Posting {
	out := make([]domain.Posting, 0, r.Inserted())
	for _, s := range r.Sources {
		out = append(out, s.Postings...)
	}
	return out
}

// Inserted counts newly inserted postings across sources
func (r Report) Inserted() int {
	n := 0
	for _, s := range r.Sources {
		n += len(s.Postings)
	}
	return n
}

// PerSource maps each source to its inserted count
func (r Report) PerSource() map[domain.Source]int {
	out := make(map[domain.Source]int, len(r.Sources))
	for _, s := range r.Sources {
		out[s.Source] = len(s.Postings)
	}
	return out
}

// Err joins the terminal errors of failed sources, or nil
func (r Report) Err() error {
	var errs []error
	for _, s := range r.Sources {
		if s.Err != nil {
			errs = append(errs, s.Err)
		}
	}
	return errors.Join(errs...)
}

// Failed is true when nothing was inserted and every source that ran ended in error
func (r Report) Failed() bool {
	if r.Inserted() > 0 {
		return false
	}
	ran := 0
	for _, s := range r.Sources {
		if s.StopReason == StopSkipped {
			continue
		}
		ran++
		if s.Err == nil {
			return false
		}
	}
	return ran > 0
}

// Aggregate runs every selected source for req and returns the postings inserted by
// this run. It never fails: source errors are logged and the run moves on.
func (a *Aggregator) Aggregate(ctx context.Context, req domain.IngestionRequest) []domain.Posting {
	return a.Run(ctx, req).Postings()
}

// Run is Aggregate with the per-source breakdown
func (a *Aggregator) Run(ctx context.Context, req domain.IngestionRequest) Report {
	started := a.clock()
	report := Report{Request: req, StartedAt: started}

	log := a.log.With("query", req.Query, "location", req.Location, "quota", req.TotalQuota)

	sources, unknown := a.selectSources(req.Sources)
	if len(unknown) > 0 {
		log.Warn("ignoring sources that are not configured", "unknown", unknown)
	}
	report.Sources = make([]SourceReport, 0, len(sources))

	quotas := a.quota.Allocate(req.TotalQuota, sources)
	log.Info("aggregation started", "sources", len(sources), "allocation", quotas)

	invoked := 0
	for i, src := range sources {
		source := src.name()
		if quotas[i] <= 0 {
			log.Info("source has no quota, skipping", "source", source)
			report.Sources = append(report.Sources, SourceReport{Source: source, StopReason: StopSkipped, Postings: []domain.Posting{}})
			continue
		}

		if invoked > 0 && a.sourceDelay > 0 {
			if err := sleep(ctx, a.sourceDelay); err != nil {
				log.Warn("aggregation interrupted between sources", "next_source", source, "err", err)
				break
			}
		}
		invoked++

		sr := a.collector.collect(ctx, src, req.Query, req.Location, quotas[i])
		a.recorder.SourceFinished(source, sr.StopReason, len(sr.Postings))
		log.Info("source finished",
			"source", source,
			"quota", quotas[i],
			"inserted", len(sr.Postings),
			"duplicates", sr.Duplicates,
			"pages", sr.Pages,
			"reason", sr.StopReason,
		)
		report.Sources = append(report.Sources, sr)
	}

	report.Elapsed = a.clock().Sub(started)
	log.Info("aggregation finished", "inserted", report.Inserted(), "elapsed", report.Elapsed)
	return report
}

// selectSources keeps the configured sources named in requested, in
// configured order. An empty request selects every source.
func (a *Aggregator) selectSources(requested []domain.Source) (selected []SourceConfig, unknown []domain.Source) {
	if len(requested) == 0 {
		return a.sources, nil
	}

	want := make(map[domain.Source]bool, len(requested))
	for _, name := range requested {
		want[name] = true
	}
	for _, src := range a.sources {
		if want[src.name()] {
			selected = append(selected, src)
			delete(want, src.name())
		}
	}
	for _, name := range requested {
		if want[name] {
			unknown = append(unknown, name)
			delete(want, name)
		}
	}
	return selected, unknown
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
