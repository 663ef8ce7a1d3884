package posting

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/honeycarbs/jobingest/internal/domain"
)

// Store persists postings. Implementations must enforce uniqueness of
// IdentityKey and return ErrDuplicate from Insert when it is violated.
type Store interface {
	ExistsByIdentityKey(ctx context.Context, key string) (bool, error)
	Insert(ctx context.Context, p domain.Posting) (domain.Posting, error)
	CountBySource(ctx context.Context, source domain.Source) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Reader is the read path consumed by reporting tools, not by ingestion
type Reader interface {
	List(ctx context.Context, filter domain.PostingFilter) (domain.PostingPage, error)
	DistinctLocations(ctx context.Context) ([]string, error)
	DistinctCompanies(ctx context.Context) ([]string, error)
}

// Repository is a Store that also serves the read path
type Repository interface {
	Store
	Reader
}

// TaskTracker records the lifecycle of background ingestions
type TaskTracker interface {
	Save(ctx context.Context, task domain.IngestionTask) error
	Get(ctx context.Context, id uuid.UUID) (domain.IngestionTask, error)
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

var sortColumns = map[string]bool{
	"created_at": true,
	"title":      true,
	"company":    true,
	"location":   true,
	"salary_min": true,
	"salary_max": true,
}

// NormalizeFilter applies paging defaults and whitelists the sort column.
// Page is capped so Page*Size stays within an int32 offset.
func NormalizeFilter(f domain.PostingFilter) domain.PostingFilter {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = defaultPageSize
	}
	if f.Size > maxPageSize {
		f.Size = maxPageSize
	}
	if maxPage := math.MaxInt32 / f.Size; f.Page > maxPage {
		f.Page = maxPage
	}
	if !sortColumns[f.SortBy] {
		f.SortBy = "created_at"
		f.SortDesc = true
	}
	return f
}
