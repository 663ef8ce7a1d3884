package memory

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
)

func salary(v int64) *int64 { return &v }

func seed(t *testing.T) *PostingRepository {
	t.Helper()
	repo := NewPostingRepository()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	repo.clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	rows := []domain.Posting{
		{IdentityKey: "adzuna_1", Title: "Go Engineer", Company: "Tata Group", Location: "Mumbai", SalaryMin: salary(900000), SalaryMax: salary(1400000), Source: domain.SourceAdzuna},
		{IdentityKey: "adzuna_2", Title: "Deputy Manager", Company: "Mahindra Group", Location: "Pune", Source: domain.SourceAdzuna},
		{IdentityKey: "jsearch_a", Title: "Senior Go Engineer", Company: "Infosys", Location: "Bangalore", SalaryMin: salary(1800000), SalaryMax: salary(2600000), Remote: true, Source: domain.SourceJSearch},
	}
	for _, p := range rows {
		_, err := repo.Insert(context.Background(), p)
		require.NoError(t, err)
	}
	return repo
}

func TestInsertRejectsDuplicateIdentityKey(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()

	_, err := repo.Insert(ctx, domain.Posting{IdentityKey: "adzuna_1", Title: "changed", Source: domain.SourceAdzuna})
	assert.ErrorIs(t, err, posting.ErrDuplicate)

	exists, err := repo.ExistsByIdentityKey(ctx, "adzuna_1")
	require.NoError(t, err)
	assert.True(t, exists)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	adz, err := repo.CountBySource(ctx, domain.SourceAdzuna)
	require.NoError(t, err)
	assert.EqualValues(t, 2, adz)
}

func TestListFilters(t *testing.T) {
	repo := seed(t)
	ctx := context.Background()
	remote := true

	tests := []struct {
		name   string
		filter domain.PostingFilter
		keys   []string
	}{
		{"title substring is case-insensitive", domain.PostingFilter{Title: "go engineer", SortBy: "title"}, []string{"adzuna_1", "jsearch_a"}},
		{"min salary excludes unknown", domain.PostingFilter{MinSalary: salary(2000000)}, []string{"jsearch_a"}},
		{"max salary compares lower bound", domain.PostingFilter{MaxSalary: salary(1000000)}, []string{"adzuna_1"}},
		{"remote only", domain.PostingFilter{Remote: &remote}, []string{"jsearch_a"}},
		{"by source", domain.PostingFilter{Source: domain.SourceAdzuna, SortBy: "created_at"}, []string{"adzuna_1", "adzuna_2"}},
		{"default sort is newest first", domain.PostingFilter{}, []string{"jsearch_a", "adzuna_2", "adzuna_1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			keys := make([]string, 0, len(page.Postings))
			for _, p := range page.Postings {
				keys = append(keys, p.IdentityKey)
			}
			assert.Equal(t, tt.keys, keys)
			assert.EqualValues(t, len(tt.keys), page.TotalCount)
		})
	}
}

func TestListPaging(t *testing.T) {
	repo := seed(t)

	page, err := repo.List(context.Background(), domain.PostingFilter{Page: 1, Size: 2, SortBy: "created_at"})
	require.NoError(t, err)
	require.Len(t, page.Postings, 1)
	assert.Equal(t, "jsearch_a", page.Postings[0].IdentityKey)
	assert.EqualValues(t, 3, page.TotalCount)

	page, err = repo.List(context.Background(), domain.PostingFilter{Page: 5, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Postings)
}

func TestListHugePageIsEmpty(t *testing.T) {
	repo := seed(t)

	page, err := repo.List(context.Background(), domain.PostingFilter{Page: math.MaxInt64/20 + 1, Size: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Postings)
	assert.EqualValues(t, 3, page.TotalCount)
	assert.Equal(t, math.MaxInt32/20, page.Page)
}

func TestDistinctValuesAreSorted(t *testing.T) {
	repo := seed(t)

	locations, err := repo.DistinctLocations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bangalore", "Mumbai", "Pune"}, locations)

	companies, err := repo.DistinctCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Infosys", "Mahindra Group", "Tata Group"}, companies)
}
