package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

// PostingReader is the read path over persisted postings
type PostingReader interface {
	ListPostings(ctx context.Context, filter domain.PostingFilter) (domain.PostingPage, error)
	Filters(ctx context.Context) (locations, companies []string, err error)
}

// SearchPostingsParams defines the arguments for the search_postings tool
type SearchPostingsParams struct {
	Title     string `json:"title,omitempty" jsonschema:"Case-insensitive substring of the job title"`
	Company   string `json:"company,omitempty" jsonschema:"Case-insensitive substring of the company name"`
	Location  string `json:"location,omitempty" jsonschema:"Case-insensitive substring of the location"`
	MinSalary *int64 `json:"min_salary,omitempty" jsonschema:"Only postings whose salary range reaches this amount"`
	MaxSalary *int64 `json:"max_salary,omitempty" jsonschema:"Only postings whose salary range starts at or below this amount"`
	Remote    *bool  `json:"remote,omitempty" jsonschema:"Restrict to remote (true) or on-site (false) postings"`
	Source    string `json:"source,omitempty" jsonschema:"Provider tag such as adzuna or jsearch"`
	Page      int    `json:"page,omitempty" jsonschema:"Zero-based page number"`
	Size      int    `json:"size,omitempty" jsonschema:"Page size, default 20, max 200"`
	SortBy    string `json:"sort_by,omitempty" jsonschema:"created_at, title, company, location, salary_min or salary_max"`
	SortDesc  bool   `json:"sort_desc,omitempty" jsonschema:"Sort descending"`
}

func (p SearchPostingsParams) filter() domain.PostingFilter {
	return domain.PostingFilter{
		Title:     strings.TrimSpace(p.Title),
		Company:   strings.TrimSpace(p.Company),
		Location:  strings.TrimSpace(p.Location),
		MinSalary: p.MinSalary,
		MaxSalary: p.MaxSalary,
		Remote:    p.Remote,
		Source:    domain.Source(strings.ToLower(strings.TrimSpace(p.Source))),
		Page:      p.Page,
		Size:      p.Size,
		SortBy:    p.SortBy,
		SortDesc:  p.SortDesc,
	}
}

// PostingView is the wire shape of a stored posting
type PostingView struct {
	ID          string    `json:"id"`
	IdentityKey string    `json:"identity_key"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	SalaryMin   *int64    `json:"salary_min,omitempty"`
	SalaryMax   *int64    `json:"salary_max,omitempty"`
	Remote      bool      `json:"remote"`
	Skills      []string  `json:"skills"`
	Description string    `json:"description,omitempty"`
	URL         string    `json:"url,omitempty"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
}

func viewOf(p domain.Posting) PostingView {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return PostingView{
		ID:          p.ID.String(),
		IdentityKey: p.IdentityKey,
		Title:       p.Title,
		Company:     p.Company,
		Location:    p.Location,
		SalaryMin:   p.SalaryMin,
		SalaryMax:   p.SalaryMax,
		Remote:      p.Remote,
		Skills:      skills,
		Description: p.Description,
		URL:         p.URL,
		Source:      p.Source.String(),
		CreatedAt:   p.CreatedAt,
	}
}

// SearchPostingsResult is one page of matches
type SearchPostingsResult struct {
	Postings   []PostingView `json:"postings"`
	Page       int           `json:"page"`
	Size       int           `json:"size"`
	TotalCount int64         `json:"total_count"`
}

// PostingFiltersParams takes no arguments
type PostingFiltersParams struct{}

// PostingFiltersResult lists the values present in the store
type PostingFiltersResult struct {
	Locations []string `json:"locations"`
	Companies []string `json:"companies"`
}

type postingTools struct {
	reader PostingReader
	logger *logging.Logger
}

// WithPostings registers search_postings and posting_filters
func WithPostings(reader PostingReader) Option {
	return func(reg *registry) {
		if reader == nil {
			reg.logger.Warn("posting tools skipped: reader not configured")
			return
		}
		t := postingTools{reader: reader, logger: reg.logger.With("group", "postings")}

		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "search_postings",
			Description: "Filter, sort and page through persisted job postings",
		}, t.search)

		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "posting_filters",
			Description: "List distinct locations and companies present in persisted postings",
		}, t.filters)
	}
}

func (t postingTools) search(ctx context.Context, _ *sdkmcp.CallToolRequest, params SearchPostingsParams) (*sdkmcp.CallToolResult, any, error) {
	t.logger.Debug("search_postings called", "title", params.Title, "company", params.Company, "page", params.Page)

	page, err := t.reader.ListPostings(ctx, params.filter())
	if err != nil {
		t.logger.Error("search_postings failed", "err", err)
		return nil, nil, fmt.Errorf("failed to list postings: %w", err)
	}

	result := SearchPostingsResult{
		Postings:   make([]PostingView, 0, len(page.Postings)),
		Page:       page.Page,
		Size:       page.Size,
		TotalCount: page.TotalCount,
	}
	for _, p := range page.Postings {
		result.Postings = append(result.Postings, viewOf(p))
	}

	msg := fmt.Sprintf("[search_postings] %d of %d posting(s), page %d", len(result.Postings), result.TotalCount, result.Page)
	return textResult(msg), result, nil
}

func (t postingTools) filters(ctx context.Context, _ *sdkmcp.CallToolRequest, _ PostingFiltersParams) (*sdkmcp.CallToolResult, any, error) {
	locations, companies, err := t.reader.Filters(ctx)
	if err != nil {
		t.logger.Error("posting_filters failed", "err", err)
		return nil, nil, fmt.Errorf("failed to load filters: %w", err)
	}

	result := PostingFiltersResult{Locations: locations, Companies: companies}
	if result.Locations == nil {
		result.Locations = []string{}
	}
	if result.Companies == nil {
		result.Companies = []string{}
	}

	msg := fmt.Sprintf("[posting_filters] %d location(s), %d compan(ies)", len(result.Locations), len(result.Companies))
	return textResult(msg), result, nil
}
