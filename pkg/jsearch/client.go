// Package jsearch is a small client for the RapidAPI JSearch job search API.
package jsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL  = "https://jsearch.p.rapidapi.com"
	defaultHost     = "jsearch.p.rapidapi.com"
	defaultPageSize = 10
	defaultTimeout  = 30 * time.Second
	maxBodyBytes    = 8 << 20
)

// Config defines JSearch client settings
type Config struct {
	APIKey     string
	Host       string
	BaseURL    string
	HTTPClient *http.Client
	// PageSize is what the API returns per page; it is not sent upstream
	PageSize int
	// RequestsPerSecond caps how often Search calls the API; zero disables it
	RequestsPerSecond float64
}

// Client queries the JSearch search endpoint
type Client struct {
	apiKey     string
	host       string
	baseURL    string
	httpClient *http.Client
	pageSize   int
	limiter    *rate.Limiter
}

// SearchParams describe one page of a search
type SearchParams struct {
	Location   string
	Page       int
	DatePosted string
}

// SearchResult is one decoded page
type SearchResult struct {
	Jobs      []Job
	Records   int
	Malformed int
}

// Job is a decoded JSearch record
type Job struct {
	ID          string
	Title       string
	Employer    string
	City        string
	Description string
	ApplyLink   string
	Remote      bool
	MinSalary   *float64
	MaxSalary   *float64
	Skills      []string
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jsearch: API error (%d): %s", e.StatusCode, e.Body)
}

// NewClient builds a client; the RapidAPI key is required
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("jsearch: rapidapi key is required")
	}

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		apiKey:     cfg.APIKey,
		host:       host,
		baseURL:    baseURL,
		httpClient: httpClient,
		pageSize:   pageSize,
		limiter:    limiter,
	}, nil
}

// PageSize is the number of records a full page carries
func (c *Client) PageSize() int {
	return c.pageSize
}

// Search fetches one page for role, optionally narrowed to a location
func (c *Client) Search(ctx context.Context, role string, params SearchParams) (SearchResult, error) {
	if role == "" {
		return SearchResult{}, fmt.Errorf("jsearch: query is required")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return SearchResult{}, fmt.Errorf("jsearch: waiting for request slot: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildSearchURL(role, params), nil)
	if err != nil {
		return SearchResult{}, fmt.Errorf("jsearch: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("x-rapidapi-host", c.host)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("jsearch: request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return SearchResult{}, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return SearchResult{}, fmt.Errorf("jsearch: read response: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return SearchResult{}, fmt.Errorf("jsearch: decode response: invalid JSON")
	}

	return parsePage(body), nil
}

func (c *Client) buildSearchURL(role string, params SearchParams) string {
	query := role + " jobs"
	if params.Location != "" {
		query += " in " + params.Location
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}
	datePosted := params.DatePosted
	if datePosted == "" {
		datePosted = "all"
	}

	values := url.Values{}
	values.Set("query", query)
	values.Set("page", strconv.Itoa(page))
	values.Set("num_pages", "1")
	values.Set("date_posted", datePosted)

	return c.baseURL + "/search?" + values.Encode()
}

func parsePage(body []byte) SearchResult {
	data := gjson.GetBytes(body, "data")
	if !data.IsArray() {
		return SearchResult{Jobs: []Job{}}
	}

	records := data.Array()
	result := SearchResult{Jobs: make([]Job, 0, len(records)), Records: len(records)}
	for _, rec := range records {
		job, ok := mapRecord(rec)
		if !ok {
			result.Malformed++
			continue
		}
		result.Jobs = append(result.Jobs, job)
	}
	return result
}

func mapRecord(rec gjson.Result) (Job, bool) {
	if !rec.IsObject() {
		return Job{}, false
	}
	for _, field := range []string{"job_id", "job_title", "employer_name", "job_city"} {
		if v := rec.Get(field); v.Exists() && v.Type != gjson.String && v.Type != gjson.Null {
			return Job{}, false
		}
	}

	job := Job{
		ID:          rec.Get("job_id").String(),
		Title:       rec.Get("job_title").String(),
		Employer:    rec.Get("employer_name").String(),
		City:        rec.Get("job_city").String(),
		Description: rec.Get("job_description").String(),
		ApplyLink:   rec.Get("job_apply_link").String(),
		Remote:      rec.Get("job_is_remote").Type == gjson.True,
		MinSalary:   number(rec.Get("job_min_salary")),
		MaxSalary:   number(rec.Get("job_max_salary")),
		Skills:      []string{},
	}
	for _, s := range rec.Get("job_required_skills").Array() {
		if s.Type == gjson.String && s.Str != "" {
			job.Skills = append(job.Skills, s.Str)
		}
	}
	return job, true
}

func number(r gjson.Result) *float64 {
	if r.Type != gjson.Number {
		return nil
	}
	v := r.Float()
	return &v
}
