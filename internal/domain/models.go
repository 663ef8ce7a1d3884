package domain

import (
	"time"

	"github.com/google/uuid"
)

// PostingID is the storage surrogate for a persisted posting
type PostingID = uuid.UUID

// Source tags which adapter produced a posting (e.g. "adzuna", "jsearch")
type Source string

const (
	SourceAdzuna  Source = "adzuna"
	SourceJSearch Source = "jsearch"
)

func (s Source) String() string { return string(s) }

// Posting is the normalized job record every adapter produces
type Posting struct {
	ID          PostingID
	IdentityKey string
	Title       string
	Company     string
	Location    string
	SalaryMin   *int64
	SalaryMax   *int64
	Remote      bool
	Skills      []string
	Description string
	URL         string
	Source      Source
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IngestionRequest describes one aggregation run
type IngestionRequest struct {
	Query      string
	Location   string // empty means no location filter
	TotalQuota int
	// Sources restricts the run to these providers; empty means all configured
	Sources []Source
}

// TaskStatus is the lifecycle state of a background ingestion
type TaskStatus string

const (
	TaskQueued    TaskStatus = "queued"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
)

// IngestionTask tracks one submitted ingestion request
type IngestionTask struct {
	ID          uuid.UUID        `json:"id"`
	Request     IngestionRequest `json:"request"`
	Status      TaskStatus       `json:"status"`
	Inserted    int              `json:"inserted"`
	PerSource   map[Source]int   `json:"per_source,omitempty"`
	SubmittedAt time.Time        `json:"submitted_at"`
	StartedAt   time.Time        `json:"started_at,omitempty"`
	FinishedAt  time.Time        `json:"finished_at,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// Acknowledgment is returned as soon as an ingestion is accepted
type Acknowledgment struct {
	TaskID      uuid.UUID `json:"task_id"`
	Mode        string    `json:"mode"`
	Message     string    `json:"message"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// IngestionStats reflects what completed ingestions have persisted
type IngestionStats struct {
	Total     int64            `json:"total"`
	PerSource map[Source]int64 `json:"per_source"`
	Mode      string           `json:"mode"`
}

// PostingFilter narrows the read-path listing; zero values mean "any"
type PostingFilter struct {
	Title     string
	Company   string
	Location  string
	MinSalary *int64
	MaxSalary *int64
	Remote    *bool
	Source    Source
	Page      int // zero-based
	Size      int
	SortBy    string // created_at, title, company, salary_min
	SortDesc  bool
}

// PostingPage is one page of stored postings
type PostingPage struct {
	Postings   []Posting `json:"postings"`
	Page       int       `json:"page"`
	Size       int       `json:"size"`
	TotalCount int64     `json:"total_count"`
}
