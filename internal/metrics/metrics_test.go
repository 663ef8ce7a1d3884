package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/metrics"
)

func TestRecorderCounts(t *testing.T) {
	m := metrics.New()

	m.PageFetched(domain.SourceAdzuna, "ok")
	m.PageFetched(domain.SourceAdzuna, "ok")
	m.RateLimited(domain.SourceJSearch, true)
	m.PostingAdmitted(domain.SourceAdzuna, true)
	m.PostingAdmitted(domain.SourceAdzuna, false)
	m.SourceFinished(domain.SourceAdzuna, "quota_reached", 7)
	m.RunFinished(domain.TaskCompleted, 7, 2*time.Second)

	expected := `
# HELP jobingest_pages_fetched_total Provider pages requested, by outcome
# TYPE jobingest_pages_fetched_total counter
jobingest_pages_fetched_total{outcome="ok",source="adzuna"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "jobingest_pages_fetched_total"))

	expected = `
# HELP jobingest_source_inserted_total New postings persisted per source
# TYPE jobingest_source_inserted_total counter
jobingest_source_inserted_total{source="adzuna"} 7
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "jobingest_source_inserted_total"))

	count, err := testutil.GatherAndCount(m.Registry(), "jobingest_postings_admitted_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestInstancesDoNotCollide(t *testing.T) {
	assert.NotPanics(t, func() {
		_ = metrics.New()
		_ = metrics.New()
	})
}

func TestHandlerServesMetrics(t *testing.T) {
	m := metrics.New()
	m.RunFinished(domain.TaskFailed, 0, time.Second)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `jobingest_runs_finished_total{status="failed"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
