// Package jsearch adapts the RapidAPI JSearch API to posting.Adapter.
package jsearch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/pkg/jsearch"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

const defaultPageSize = 10

type searchClient interface {
	Search(ctx context.Context, role string, params jsearch.SearchParams) (jsearch.SearchResult, error)
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

// Provider implements posting.Adapter on top of the JSearch client
type Provider struct {
	client searchClient
	log    *logging.Logger
	clock  func() time.Time
}

var _ posting.Adapter = (*Provider)(nil)

// NewProvider builds the adapter; a nil client means no RapidAPI key was configured
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

func (p *Provider) Source() domain.Source {
	return domain.SourceJSearch
}

func (p *Provider) PageSize() int {
	if p.client == nil {
		return defaultPageSize
	}
	return p.client.PageSize()
}

func (p *Provider) FetchPage(ctx context.Context, query, location string, page int) (posting.Page, error) {
	if p.client == nil {
		return posting.Page{}, fmt.Errorf("jsearch: %w", posting.ErrNotConfigured)
	}

	res, err := p.client.Search(ctx, query, jsearch.SearchParams{Location: location, Page: page})
	if err != nil {
		var apiErr *jsearch.APIError
		if errors.As(err, &apiErr) {
			return posting.Page{}, posting.ClassifyStatus("jsearch", apiErr.StatusCode, err)
		}
		return posting.Page{}, posting.ClassifyStatus("jsearch", 0, err)
	}
	if res.Malformed > 0 {
		p.log.Warn("skipped malformed jsearch records", "page", page, "malformed", res.Malformed, "records", res.Records)
	}

	now := p.clock().UTC()
	out := make([]domain.Posting, 0, len(res.Jobs))
	for _, j := range res.Jobs {
		out = append(out, domain.Posting{
			IdentityKey: posting.IdentityKey(domain.SourceJSearch, j.ID, j.Title, j.Employer, j.City),
			Title:       j.Title,
			Company:     j.Employer,
			Location:    j.City,
			SalaryMin:   toAmount(j.MinSalary),
			SalaryMax:   toAmount(j.MaxSalary),
			Remote:      j.Remote,
			Skills:      j.Skills,
			Description: j.Description,
			URL:         j.ApplyLink,
			Source:      domain.SourceJSearch,
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
