package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
	assert.Equal(t, ModeLive, cfg.Mode)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, []string{"adzuna", "jsearch"}, cfg.SourceOrder)
	assert.Equal(t, "abort", cfg.Adzuna.RateLimitPolicy)
	assert.Equal(t, "retry", cfg.JSearch.RateLimitPolicy)
	assert.Equal(t, 3, cfg.JSearch.RetryMaxAttempts)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("INGEST_MODE", "synthetic")
	t.Setenv("PORT", "9090")
	t.Setenv("QUOTA_POLICY", "weighted")
	t.Setenv("QUOTA_WEIGHTS", "jsearch=0.7, adzuna=0.3")
	t.Setenv("SOURCE_ORDER", "JSearch,adzuna")
	t.Setenv("JSEARCH_RETRY_BACKOFF", "250ms")
	t.Setenv("ADZUNA_MAX_PAGES", "4")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeSynthetic, cfg.Mode)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "weighted", cfg.QuotaPolicy)
	assert.InDelta(t, 0.7, cfg.JSearch.Weight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Adzuna.Weight, 1e-9)
	assert.Equal(t, []string{"jsearch", "adzuna"}, cfg.SourceOrder)
	assert.Equal(t, 250*time.Millisecond, cfg.JSearch.RetryBackoff)
	assert.Equal(t, 4, cfg.Adzuna.MaxPages)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: synthetic
source_delay: 500ms
adzuna:
  country: gb
  rate_limit_policy: retry
  retry_backoff: 3s
schedules:
  - spec: "@every 6h"
    query: Manager
    location: Mumbai
    quota: 10
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("INGEST_MODE", "live")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ModeLive, cfg.Mode, "environment wins over file")
	assert.Equal(t, 500*time.Millisecond, cfg.SourceDelay)
	assert.Equal(t, "gb", cfg.Adzuna.Country)
	assert.Equal(t, "retry", cfg.Adzuna.RateLimitPolicy)
	assert.Equal(t, 3*time.Second, cfg.Adzuna.RetryBackoff)
	require.Len(t, cfg.Schedules, 1)
	assert.Equal(t, "Manager", cfg.Schedules[0].Query)
	assert.Equal(t, 10, cfg.Schedules[0].Quota)
}

func TestLoadCollectsMissingVariables(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("STORE_BACKEND", "neo4j")
	t.Setenv("NEO4J_URI", "")
	t.Setenv("NEO4J_USERNAME", "")
	t.Setenv("NEO4J_PASSWORD", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NEO4J_URI, NEO4J_USERNAME, NEO4J_PASSWORD")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("INGEST_MODE", "fake")
	t.Setenv("SOURCE_DELAY", "soon")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseWeights(t *testing.T) {
	w, err := ParseWeights("jsearch=0.7,adzuna=0.3")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"jsearch": 0.7, "adzuna": 0.3}, w)

	_, err = ParseWeights("jsearch")
	assert.Error(t, err)

	_, err = ParseWeights("jsearch=-1")
	assert.Error(t, err)
}

func TestParseWeightsRejectsNonFinite(t *testing.T) {
	for _, in := range []string{"jsearch=NaN,adzuna=0.3", "jsearch=Inf", "adzuna=-Inf"} {
		_, err := ParseWeights(in)
		assert.Error(t, err, in)
	}
}

func TestLoadRejectsNonFiniteFileWeight(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobingest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
jsearch:
  weight: .nan
adzuna:
  weight: .inf
`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jsearch weight")
	assert.Contains(t, err.Error(), "adzuna weight")
}

func TestLoadJSearchRequestRate(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("JSEARCH_REQUESTS_PER_SECOND", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.InDelta(t, 0.5, cfg.JSearch.RequestsPerSecond, 1e-9)

	t.Setenv("JSEARCH_REQUESTS_PER_SECOND", "-1")
	_, err = Load()
	assert.Error(t, err)
}

func TestAddrJoinsIPv6Host(t *testing.T) {
	cfg := Config{Host: "::1", Port: "8080"}
	assert.Equal(t, "[::1]:8080", cfg.Addr())
}
