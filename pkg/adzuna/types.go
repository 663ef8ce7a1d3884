package adzuna

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Config defines Adzuna API client settings
type Config struct {
	AppID      string
	AppKey     string
	Country    string
	BaseURL    string
	HTTPClient *http.Client
	PageSize   int
}

// Client queries Adzuna job search API
type Client struct {
	appID      string
	appKey     string
	country    string
	baseURL    string
	httpClient *http.Client
	pageSize   int
}

// SearchParams describe one page of a job search
type SearchParams struct {
	Location string
	// Page is 1-based; zero means the first page
	Page int
}

// SearchResult is one decoded results page
type SearchResult struct {
	Jobs []Job
	// Records is the number of raw entries in the page, including malformed ones
	Records int
	// Malformed counts entries that could not be decoded and were skipped
	Malformed int
	// Count is Adzuna's total match count for the query
	Count int
}

// APIError is returned for non-2xx responses
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("adzuna: API error (%d): %s", e.StatusCode, e.Body)
}

type jobSearchResponse struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

type jobPosting struct {
	ID          flexString      `json:"id"`
	Title       string          `json:"title"`
	Company     companySummary  `json:"company"`
	Location    locationSummary `json:"location"`
	Description string          `json:"description"`
	RedirectURL string          `json:"redirect_url"`
	SalaryMin   *float64        `json:"salary_min"`
	SalaryMax   *float64        `json:"salary_max"`
}

type companySummary struct {
	DisplayName string `json:"display_name"`
}

type locationSummary struct {
	DisplayName string `json:"display_name"`
}

// flexString accepts ids encoded either as JSON strings or numbers
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("adzuna: id is neither string nor number: %w", err)
	}
	*f = flexString(n.String())
	return nil
}

// Job represents a decoded Adzuna job posting.
type Job struct {
	ID          string
	Title       string
	CompanyName string
	Location    string
	URL         string
	Description string
	SalaryMin   *float64
	SalaryMax   *float64
}
