package config

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/honeycarbs/jobingest/internal/scheduler"
)

const (
	ModeLive      = "live"
	ModeSynthetic = "synthetic"

	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendNeo4j    = "neo4j"
)

// Source holds the paging and rate-limit settings of one provider
type Source struct {
	RateLimitPolicy  string        `yaml:"rate_limit_policy"`
	RetryMaxAttempts int           `yaml:"retry_max_attempts"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	PageDelay        time.Duration `yaml:"page_delay"`
	MaxPages         int           `yaml:"max_pages"`
	Weight           float64       `yaml:"weight"`
}

// Config contains runtime settings for the ingestion server
type Config struct {
	LogLevel     string `yaml:"log_level"`
	Host         string `yaml:"host"` // default 0.0.0.0
	Port         string `yaml:"port"` // default PORT env or 8080
	Mode         string `yaml:"mode"`
	StoreBackend string `yaml:"store_backend"`
	DatabaseURL  string `yaml:"database_url"`
	RedisURL     string `yaml:"redis_url"`

	Neo4j struct {
		URI      string `yaml:"uri"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
	} `yaml:"neo4j"`

	Adzuna struct {
		AppID   string `yaml:"app_id"`
		AppKey  string `yaml:"app_key"`
		Country string `yaml:"country"`
		Source  `yaml:",inline"`
	} `yaml:"adzuna"`

	JSearch struct {
		APIKey string `yaml:"api_key"`
		Host   string `yaml:"host"`
		// RequestsPerSecond caps outgoing calls; zero means no cap
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Source            `yaml:",inline"`
	} `yaml:"jsearch"`

	SourceDelay time.Duration `yaml:"source_delay"`
	QuotaPolicy string        `yaml:"quota_policy"`
	SourceOrder []string      `yaml:"source_order"`

	SheetsCredentialsPath string `yaml:"sheets_credentials_path"`

	Schedules []scheduler.Schedule `yaml:"schedules"`
}

func defaults() Config {
	cfg := Config{
		LogLevel:     "info",
		Host:         "0.0.0.0",
		Port:         "8080",
		Mode:         ModeLive,
		StoreBackend: BackendMemory,
		SourceDelay:  2 * time.Second,
		QuotaPolicy:  "equal",
		SourceOrder:  []string{"adzuna", "jsearch"},
	}
	cfg.Adzuna.Country = "in"
	cfg.Adzuna.RateLimitPolicy = "abort"
	cfg.Adzuna.RetryMaxAttempts = 3
	cfg.Adzuna.RetryBackoff = 5 * time.Second
	cfg.Adzuna.PageDelay = time.Second
	cfg.Adzuna.Weight = 1

	cfg.JSearch.Host = "jsearch.p.rapidapi.com"
	cfg.JSearch.RateLimitPolicy = "retry"
	cfg.JSearch.RetryMaxAttempts = 3
	cfg.JSearch.RetryBackoff = 5 * time.Second
	cfg.JSearch.PageDelay = 2 * time.Second
	cfg.JSearch.Weight = 1
	return cfg
}

// Load reads .env files, then the optional CONFIG_FILE, then environment
// variables, which win over both.
func Load() (Config, error) {
	loadDotEnv()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}

	return cfg, cfg.validate()
}

// loadDotEnv never overrides variables already present in the process
func loadDotEnv() {
	files := []string{".env.local", ".env"}
	if v := os.Getenv("ENV_FILE"); v != "" {
		files = append([]string{v}, files...)
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	str("LOG_LEVEL", &c.LogLevel)
	str("MCP_HOST", &c.Host)
	str("PORT", &c.Port)
	str("INGEST_MODE", &c.Mode)
	str("STORE_BACKEND", &c.StoreBackend)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_URL", &c.RedisURL)
	str("NEO4J_URI", &c.Neo4j.URI)
	str("NEO4J_USERNAME", &c.Neo4j.Username)
	str("NEO4J_PASSWORD", &c.Neo4j.Password)
	str("NEO4J_DATABASE", &c.Neo4j.Database)
	str("ADZUNA_APP_ID", &c.Adzuna.AppID)
	str("ADZUNA_APP_KEY", &c.Adzuna.AppKey)
	str("ADZUNA_COUNTRY", &c.Adzuna.Country)
	str("RAPIDAPI_KEY", &c.JSearch.APIKey)
	str("RAPIDAPI_HOST", &c.JSearch.Host)
	str("QUOTA_POLICY", &c.QuotaPolicy)
	str("GOOGLE_SHEETS_CREDENTIALS_PATH", &c.SheetsCredentialsPath)

	if v := os.Getenv("SOURCE_ORDER"); v != "" {
		c.SourceOrder = splitList(v)
	}

	var errs []error
	errs = append(errs, envDuration("SOURCE_DELAY", &c.SourceDelay))
	errs = append(errs, c.Adzuna.Source.applyEnv("ADZUNA")...)
	errs = append(errs, c.JSearch.Source.applyEnv("JSEARCH")...)
	errs = append(errs, envFloat("JSEARCH_REQUESTS_PER_SECOND", &c.JSearch.RequestsPerSecond))

	if v := os.Getenv("QUOTA_WEIGHTS"); v != "" {
		weights, err := ParseWeights(v)
		if err != nil {
			errs = append(errs, err)
		}
		if w, ok := weights["adzuna"]; ok {
			c.Adzuna.Weight = w
		}
		if w, ok := weights["jsearch"]; ok {
			c.JSearch.Weight = w
		}
	}

	return errors.Join(errs...)
}

func (s *Source) applyEnv(prefix string) []error {
	if v := os.Getenv(prefix + "_RATE_LIMIT_POLICY"); v != "" {
		s.RateLimitPolicy = v
	}
	return []error{
		envInt(prefix+"_RETRY_MAX_ATTEMPTS", &s.RetryMaxAttempts),
		envDuration(prefix+"_RETRY_BACKOFF", &s.RetryBackoff),
		envDuration(prefix+"_PAGE_DELAY", &s.PageDelay),
		envInt(prefix+"_MAX_PAGES", &s.MaxPages),
	}
}

func (c *Config) validate() error {
	var missingVars []string
	var errs []error

	switch c.Mode {
	case ModeLive, ModeSynthetic:
	default:
		errs = append(errs, fmt.Errorf("INGEST_MODE must be %q or %q, got %q", ModeLive, ModeSynthetic, c.Mode))
	}

	switch c.StoreBackend {
	case BackendMemory:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			missingVars = append(missingVars, "DATABASE_URL")
		}
	case BackendNeo4j:
		if c.Neo4j.URI == "" {
			missingVars = append(missingVars, "NEO4J_URI")
		}
		if c.Neo4j.Username == "" {
			missingVars = append(missingVars, "NEO4J_USERNAME")
		}
		if c.Neo4j.Password == "" {
			missingVars = append(missingVars, "NEO4J_PASSWORD")
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND must be memory, postgres or neo4j, got %q", c.StoreBackend))
	}

	for _, name := range c.SourceOrder {
		if name != "adzuna" && name != "jsearch" {
			errs = append(errs, fmt.Errorf("SOURCE_ORDER: unknown source %q", name))
		}
	}
	if len(c.SourceOrder) == 0 {
		missingVars = append(missingVars, "SOURCE_ORDER")
	}

	if !validWeight(c.Adzuna.Weight) {
		errs = append(errs, fmt.Errorf("adzuna weight must be a finite number >= 0, got %v", c.Adzuna.Weight))
	}
	if !validWeight(c.JSearch.Weight) {
		errs = append(errs, fmt.Errorf("jsearch weight must be a finite number >= 0, got %v", c.JSearch.Weight))
	}
	if !validWeight(c.JSearch.RequestsPerSecond) {
		errs = append(errs, fmt.Errorf("JSEARCH_REQUESTS_PER_SECOND must be a finite number >= 0, got %v", c.JSearch.RequestsPerSecond))
	}

	if len(missingVars) > 0 {
		errs = append([]error{fmt.Errorf("missing required environment variables: %s", strings.Join(missingVars, ", "))}, errs...)
	}

	return errors.Join(errs...)
}

// Addr is the listen address of the HTTP server
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// ParseWeights parses "jsearch=0.7,adzuna=0.3"
func ParseWeights(s string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, part := range splitList(s) {
		name, raw, ok := strings.Cut(part, "=")
		if !ok {
			return out, fmt.Errorf("QUOTA_WEIGHTS: %q is not name=weight", part)
		}
		w, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil || !validWeight(w) {
			return out, fmt.Errorf("QUOTA_WEIGHTS: bad weight for %q", name)
		}
		out[strings.ToLower(strings.TrimSpace(name))] = w
	}
	return out, nil
}

func validWeight(w float64) bool {
	return w >= 0 && !math.IsInf(w, 0)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = f
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
