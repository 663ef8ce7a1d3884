// Package synthetic generates schema-valid postings for environments without
// provider credentials. Output depends only on (source, query, location, page).
package synthetic

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

const defaultPageSize = 10

// Option configures Adapter
type Option func(*Adapter)

// WithLatency replaces the artificial delay; pass nil to disable it
func WithLatency(wait func(ctx context.Context) error) Option {
	return func(a *Adapter) {
		a.wait = wait
	}
}

// WithClock sets the clock stamping generated postings
func WithClock(clock func() time.Time) Option {
	return func(a *Adapter) {
		a.clock = clock
	}
}

// WithLogger sets the logger
func WithLogger(log *logging.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// Adapter implements posting.Adapter over a Profile
type Adapter struct {
	profile  Profile
	pageSize int
	wait     func(ctx context.Context) error
	clock    func() time.Time
	log      *logging.Logger
}

var _ posting.Adapter = (*Adapter)(nil)

// NewAdapter builds a synthetic adapter for profile
func NewAdapter(profile Profile, opts ...Option) *Adapter {
	a := &Adapter{
		profile:  profile,
		pageSize: defaultPageSize,
		clock:    time.Now,
		log:      logging.NewNop(),
	}
	a.wait = randomLatency(profile.MinLatency, profile.LatencySpread)
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewAdzuna is the synthetic stand-in for the Adzuna adapter
func NewAdzuna(opts ...Option) *Adapter { return NewAdapter(AdzunaProfile(), opts...) }

// NewJSearch is the synthetic stand-in for the JSearch adapter
func NewJSearch(opts ...Option) *Adapter { return NewAdapter(JSearchProfile(), opts...) }

func (a *Adapter) Source() domain.Source { return a.profile.Source }

func (a *Adapter) PageSize() int { return a.pageSize }

func (a *Adapter) FetchPage(ctx context.Context, query, location string, page int) (posting.Page, error) {
	if a.wait != nil {
		if err := a.wait(ctx); err != nil {
			return posting.Page{}, fmt.Errorf("%s synthetic: %w: %w", a.profile.Source, posting.ErrTransport, err)
		}
	}
	if page < 1 {
		page = 1
	}

	seed := seedFor(a.profile.Source, query, location)
	start := (page - 1) * a.pageSize
	end := min(start+a.pageSize, a.profile.Cap)

	now := a.clock().UTC()
	out := make([]domain.Posting, 0, max(end-start, 0))
	for i := start; i < end; i++ {
		out = append(out, a.generate(seed, i, query, location, now))
	}

	a.log.Debug("generated synthetic page", "source", a.profile.Source, "page", page, "postings", len(out))
	return posting.Page{Postings: out, Full: len(out) == a.pageSize}, nil
}

func (a *Adapter) generate(seed uint64, i int, query, location string, now time.Time) domain.Posting {
	p := a.profile
	rng := rand.New(rand.NewPCG(seed, uint64(i)))

	loc := location
	if loc == "" {
		loc = pick(rng, p.Locations)
	}
	base := p.SalaryBase + draw(rng, p.SalarySpread)
	top := base + p.RangeBase + draw(rng, p.RangeSpread)

	skills := make([]string, 0, len(p.Skills)+1)
	skills = append(skills, strings.ToLower(query))
	skills = append(skills, p.Skills...)

	nativeID := fmt.Sprintf("synthetic-%016x-%d", seed, i)
	return domain.Posting{
		IdentityKey: posting.IdentityKey(p.Source, nativeID, "", "", ""),
		Title:       strings.ReplaceAll(pick(rng, p.TitleTemplates), "{q}", query),
		Company:     pick(rng, p.Companies),
		Location:    loc,
		SalaryMin:   &base,
		SalaryMax:   &top,
		Remote:      rng.IntN(100) < p.RemotePercent,
		Skills:      skills,
		Description: pick(rng, p.Descriptions),
		URL:         fmt.Sprintf("%s%016x-%d", p.URLPrefix, seed, i),
		Source:      p.Source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func seedFor(source domain.Source, query, location string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(string(source) + "|" + strings.ToLower(strings.TrimSpace(query)) + "|" + strings.ToLower(strings.TrimSpace(location))))
	return h.Sum64()
}

func draw(rng *rand.Rand, spread int64) int64 {
	if spread <= 0 {
		return 0
	}
	return rng.Int64N(spread)
}

func pick(rng *rand.Rand, from []string) string {
	if len(from) == 0 {
		return ""
	}
	return from[rng.IntN(len(from))]
}

// randomLatency sleeps minimum plus up to spread, or until ctx ends
func randomLatency(minimum, spread time.Duration) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		d := minimum
		if spread > 0 {
			d += rand.N(spread)
		}
		if d <= 0 {
			return nil
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}
}
