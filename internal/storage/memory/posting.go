// Package memory is a process-local posting store used for synthetic runs and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
)

var _ posting.Repository = (*PostingRepository)(nil)

// PostingRepository keeps postings in insertion order, unique by identity key
type PostingRepository struct {
	mu    sync.RWMutex
	byKey map[string]int
	rows  []domain.Posting
	clock func() time.Time
}

// NewPostingRepository returns an empty repository
func NewPostingRepository() *PostingRepository {
	return &PostingRepository{
		byKey: make(map[string]int),
		clock: time.Now,
	}
}

func (r *PostingRepository) ExistsByIdentityKey(_ context.Context, key string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byKey[key]
	return ok, nil
}

func (r *PostingRepository) Insert(_ context.Context, p domain.Posting) (domain.Posting, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byKey[p.IdentityKey]; ok {
		return domain.Posting{}, posting.ErrDuplicate
	}

	now := r.clock().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Skills = slices.Clone(p.Skills)

	r.byKey[p.IdentityKey] = len(r.rows)
	r.rows = append(r.rows, p)
	return p, nil
}

func (r *PostingRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.rows)), nil
}

func (r *PostingRepository) CountBySource(_ context.Context, source domain.Source) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var n int64
	for _, p := range r.rows {
		if p.Source == source {
			n++
		}
	}
	return n, nil
}

// List applies the same filter semantics as the SQL backends:
// substring matches are case-insensitive and salary bounds skip unknown salaries.
func (r *PostingRepository) List(_ context.Context, f domain.PostingFilter) (domain.PostingPage, error) {
	f = posting.NormalizeFilter(f)

	r.mu.RLock()
	matched := make([]domain.Posting, 0, len(r.rows))
	for _, p := range r.rows {
		if matches(p, f) {
			matched = append(matched, p)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		if f.SortDesc {
			return lessBy(matched[j], matched[i], f.SortBy)
		}
		return lessBy(matched[i], matched[j], f.SortBy)
	})

	page := domain.PostingPage{Page: f.Page, Size: f.Size, TotalCount: int64(len(matched)), Postings: []domain.Posting{}}
	start := f.Page * f.Size
	if start >= len(matched) {
		return page, nil
	}
	end := min(start+f.Size, len(matched))
	page.Postings = append(page.Postings, matched[start:end]...)
	return page, nil
}

func (r *PostingRepository) DistinctLocations(_ context.Context) ([]string, error) {
	return r.distinct(func(p domain.Posting) string { return p.Location }), nil
}

func (r *PostingRepository) DistinctCompanies(_ context.Context) ([]string, error) {
	return r.distinct(func(p domain.Posting) string { return p.Company }), nil
}

func (r *PostingRepository) distinct(field func(domain.Posting) string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range r.rows {
		v := field(p)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func matches(p domain.Posting, f domain.PostingFilter) bool {
	if !containsFold(p.Title, f.Title) || !containsFold(p.Company, f.Company) || !containsFold(p.Location, f.Location) {
		return false
	}
	if f.MinSalary != nil && (p.SalaryMax == nil || *p.SalaryMax < *f.MinSalary) {
		return false
	}
	if f.MaxSalary != nil && (p.SalaryMin == nil || *p.SalaryMin > *f.MaxSalary) {
		return false
	}
	if f.Remote != nil && p.Remote != *f.Remote {
		return false
	}
	if f.Source != "" && p.Source != f.Source {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	if sub == "" {
		return true
	}
	return strings.Contains(strings.ToUpper(s), strings.ToUpper(sub))
}

func lessBy(a, b domain.Posting, column string) bool {
	switch column {
	case "title":
		return a.Title < b.Title
	case "company":
		return a.Company < b.Company
	case "location":
		return a.Location < b.Location
	case "salary_min":
		return deref(a.SalaryMin) < deref(b.SalaryMin)
	case "salary_max":
		return deref(a.SalaryMax) < deref(b.SalaryMax)
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
