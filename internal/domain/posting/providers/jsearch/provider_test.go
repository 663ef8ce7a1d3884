package jsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/pkg/jsearch"
)

type stubClient struct {
	result jsearch.SearchResult
	err    error
	params []jsearch.SearchParams
}

func (s *stubClient) Search(_ context.Context, _ string, params jsearch.SearchParams) (jsearch.SearchResult, error) {
	s.params = append(s.params, params)
	return s.result, s.err
}

func (s *stubClient) PageSize() int { return 10 }

func amount(v float64) *float64 { return &v }

func TestFetchPageNormalizes(t *testing.T) {
	client := &stubClient{result: jsearch.SearchResult{
		Records: 10,
		Jobs: []jsearch.Job{
			{ID: "j-1", Title: "Lead Manager", Employer: "Wipro", City: "Chennai", Remote: true, MinSalary: amount(1500000.2), Skills: []string{"go"}},
			{Title: "No Id", Employer: "TCS"},
		},
	}}
	p := NewProvider(client)

	page, err := p.FetchPage(context.Background(), "Manager", "Chennai", 2)
	require.NoError(t, err)
	assert.True(t, page.Full, "records count the raw page, not the decoded subset")
	assert.Equal(t, []jsearch.SearchParams{{Location: "Chennai", Page: 2}}, client.params)

	require.Len(t, page.Postings, 2)
	first := page.Postings[0]
	assert.Equal(t, "jsearch_j-1", first.IdentityKey)
	assert.True(t, first.Remote)
	assert.EqualValues(t, 1500000, *first.SalaryMin)
	assert.Nil(t, first.SalaryMax)
	assert.Equal(t, []string{"go"}, first.Skills)
	assert.Equal(t, domain.SourceJSearch, first.Source)

	assert.Equal(t, posting.IdentityKey(domain.SourceJSearch, "", "No Id", "TCS", ""), page.Postings[1].IdentityKey)
}

func TestFetchPageClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"rate limit", &jsearch.APIError{StatusCode: 429}, posting.ErrRateLimited},
		{"forbidden", &jsearch.APIError{StatusCode: 403}, posting.ErrClient},
		{"server", &jsearch.APIError{StatusCode: 500}, posting.ErrTransport},
		{"network", errors.New("connection reset"), posting.ErrTransport},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewProvider(&stubClient{err: tt.err})
			_, err := p.FetchPage(context.Background(), "x", "", 1)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFetchPageWithoutKey(t *testing.T) {
	_, err := NewProvider(nil).FetchPage(context.Background(), "x", "", 1)
	assert.ErrorIs(t, err, posting.ErrNotConfigured)
}
