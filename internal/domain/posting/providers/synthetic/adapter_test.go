package synthetic

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/internal/storage/memory"
)

func noLatency() Option { return WithLatency(nil) }

func TestPagesAreDeterministic(t *testing.T) {
	a := NewJSearch(noLatency())
	b := NewJSearch(noLatency(), WithClock(func() time.Time { return time.Unix(0, 0) }))

	p1, err := a.FetchPage(context.Background(), "Manager", "Bangalore", 1)
	require.NoError(t, err)
	p2, err := b.FetchPage(context.Background(), "manager ", "bangalore", 1)
	require.NoError(t, err)

	require.Len(t, p1.Postings, 10)
	for i := range p1.Postings {
		assert.Equal(t, p1.Postings[i].IdentityKey, p2.Postings[i].IdentityKey)
		assert.Equal(t, p1.Postings[i].Company, p2.Postings[i].Company)
		assert.Equal(t, *p1.Postings[i].SalaryMin, *p2.Postings[i].SalaryMin)
	}
}

func TestPostingsFollowProfile(t *testing.T) {
	profile := AdzunaProfile()
	a := NewAdapter(profile, noLatency())

	page, err := a.FetchPage(context.Background(), "Manager", "", 1)
	require.NoError(t, err)

	for _, p := range page.Postings {
		assert.Equal(t, domain.SourceAdzuna, p.Source)
		assert.True(t, strings.HasPrefix(p.IdentityKey, "adzuna_"))
		assert.Contains(t, p.Title, "Manager")
		assert.Contains(t, profile.Companies, p.Company)
		assert.Contains(t, profile.Locations, p.Location)
		assert.Equal(t, "manager", p.Skills[0])
		require.NotNil(t, p.SalaryMin)
		require.NotNil(t, p.SalaryMax)
		assert.GreaterOrEqual(t, *p.SalaryMin, profile.SalaryBase)
		assert.Less(t, *p.SalaryMin, profile.SalaryBase+profile.SalarySpread)
		assert.GreaterOrEqual(t, *p.SalaryMax, *p.SalaryMin+profile.RangeBase)
	}
}

func TestExplicitLocationIsKept(t *testing.T) {
	page, err := NewAdzuna(noLatency()).FetchPage(context.Background(), "Manager", "Pune", 1)
	require.NoError(t, err)
	for _, p := range page.Postings {
		assert.Equal(t, "Pune", p.Location)
	}
}

func TestCapEndsPagination(t *testing.T) {
	a := NewAdzuna(noLatency())

	first, err := a.FetchPage(context.Background(), "Manager", "", 1)
	require.NoError(t, err)
	assert.Len(t, first.Postings, 10)
	assert.True(t, first.Full)

	second, err := a.FetchPage(context.Background(), "Manager", "", 2)
	require.NoError(t, err)
	assert.Len(t, second.Postings, 2)
	assert.False(t, second.Full)

	third, err := a.FetchPage(context.Background(), "Manager", "", 3)
	require.NoError(t, err)
	assert.Empty(t, third.Postings)
}

func TestLatencyHonoursContext(t *testing.T) {
	a := NewAdapter(Profile{Source: "slow", Cap: 1, MinLatency: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.FetchPage(ctx, "x", "", 1)
	assert.ErrorIs(t, err, posting.ErrTransport)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSyntheticIngestionIsIdempotent(t *testing.T) {
	store := memory.NewPostingRepository()
	agg, err := posting.NewAggregator(
		posting.WithStore(store),
		posting.WithSources(
			posting.SourceConfig{Adapter: NewJSearch(noLatency()), Policy: posting.AbortPolicy()},
			posting.SourceConfig{Adapter: NewAdzuna(noLatency()), Policy: posting.AbortPolicy()},
		),
	)
	require.NoError(t, err)
	req := domain.IngestionRequest{Query: "Manager", Location: "Bangalore", TotalQuota: 40}

	first := agg.Run(context.Background(), req)
	assert.Equal(t, map[domain.Source]int{domain.SourceJSearch: 15, domain.SourceAdzuna: 12}, first.PerSource())

	second := agg.Run(context.Background(), req)
	assert.Zero(t, second.Inserted())

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 27, n)
}
