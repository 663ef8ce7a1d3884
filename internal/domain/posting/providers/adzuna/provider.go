package adzuna

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/pkg/adzuna"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

const defaultPageSize = 50

// searchClient describes the subset of the Adzuna client used by the provider.
type searchClient interface {
	SearchJobs(ctx context.Context, query string, params adzuna.SearchParams) (adzuna.SearchResult, error)
	PageSize() int
}

// Option configures Provider
type Option func(*Provider)

// WithLogger sets the logger used for skipped records
func WithLogger(log *logging.Logger) Option {
	return func(p *Provider) {
		p.log = log
	}
}

// WithClock sets the clock stamping normalized postings
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		p.clock = clock
	}
}

// Provider implements posting.Adapter using the Adzuna API
type Provider struct {
	client searchClient
	log    *logging.Logger
	clock  func() time.Time
}

var _ posting.Adapter = (*Provider)(nil)

// NewProvider builds an Adzuna adapter. A nil client yields an adapter that
// reports posting.ErrNotConfigured without touching the network.
func NewProvider(client searchClient, opts ...Option) *Provider {
	p := &Provider{
		client: client,
		log:    logging.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Source returns provider identifier
func (p *Provider) Source() domain.Source {
	return domain.SourceAdzuna
}

// PageSize is the results_per_page used for every request
func (p *Provider) PageSize() int {
	if p.client == nil {
		return defaultPageSize
	}
	return p.client.PageSize()
}

// FetchPage queries one Adzuna page and normalizes it
func (p *Provider) FetchPage(ctx context.Context, query, location string, page int) (posting.Page, error) {
	if p.client == nil {
		return posting.Page{}, fmt.Errorf("adzuna: %w", posting.ErrNotConfigured)
	}

	res, err := p.client.SearchJobs(ctx, query, adzuna.SearchParams{Location: location, Page: page})
	if err != nil {
		var apiErr *adzuna.APIError
		if errors.As(err, &apiErr) {
			return posting.Page{}, posting.ClassifyStatus("adzuna", apiErr.StatusCode, err)
		}
		return posting.Page{}, posting.ClassifyStatus("adzuna", 0, err)
	}
	if res.Malformed > 0 {
		p.log.Warn("skipped malformed adzuna records", "page", page, "malformed", res.Malformed, "records", res.Records)
	}

	now := p.clock().UTC()
	out := make([]domain.Posting, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		out = append(out, domain.Posting{
			IdentityKey: posting.IdentityKey(domain.SourceAdzuna, j.ID, j.Title, j.CompanyName, j.Location),
			Title:       j.Title,
			Company:     j.CompanyName,
			Location:    j.Location,
			SalaryMin:   toAmount(j.SalaryMin),
			SalaryMax:   toAmount(j.SalaryMax),
			Remote:      false,
			Skills:      []string{},
			Description: j.Description,
			URL:         j.URL,
			Source:      domain.SourceAdzuna,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	return posting.Page{Postings: out, Full: res.Records >= p.PageSize()}, nil
}

func toAmount(v *float64) *int64 {
	if v == nil {
		return nil
	}
	n := int64(math.Round(*v))
	return &n
}
