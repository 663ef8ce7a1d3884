package mcp

import (
	"context"
	"fmt"

	"github.com/honeycarbs/jobingest/internal/config"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	adzunaprovider "github.com/honeycarbs/jobingest/internal/domain/posting/providers/adzuna"
	jsearchprovider "github.com/honeycarbs/jobingest/internal/domain/posting/providers/jsearch"
	"github.com/honeycarbs/jobingest/internal/domain/posting/providers/synthetic"
	"github.com/honeycarbs/jobingest/internal/mcp/tools"
	"github.com/honeycarbs/jobingest/internal/metrics"
	"github.com/honeycarbs/jobingest/internal/scheduler"
	"github.com/honeycarbs/jobingest/internal/storage/memory"
	neo4jstore "github.com/honeycarbs/jobingest/internal/storage/neo4j"
	pgstore "github.com/honeycarbs/jobingest/internal/storage/postgres"
	redisstore "github.com/honeycarbs/jobingest/internal/storage/redis"
	"github.com/honeycarbs/jobingest/pkg/adzuna"
	"github.com/honeycarbs/jobingest/pkg/jsearch"
	"github.com/honeycarbs/jobingest/pkg/logging"
	n4j "github.com/honeycarbs/jobingest/pkg/neo4j"
	"github.com/honeycarbs/jobingest/pkg/postgres"
	pkgredis "github.com/honeycarbs/jobingest/pkg/redis"
	sheetsclient "github.com/honeycarbs/jobingest/pkg/sheets"
)

// Resources holds everything the server and CLI need after wiring
type Resources struct {
	Service    *posting.Service
	Aggregator *posting.Aggregator
	Scheduler  *scheduler.Scheduler
	Metrics    *metrics.Metrics
	Sheets     tools.SheetsClient
}

func newResources(
	svc *posting.Service,
	agg *posting.Aggregator,
	sched *scheduler.Scheduler,
	m *metrics.Metrics,
	sheets tools.SheetsClient,
) *Resources {
	return &Resources{
		Service:    svc,
		Aggregator: agg,
		Scheduler:  sched,
		Metrics:    m,
		Sheets:     sheets,
	}
}

func provideRecorder(m *metrics.Metrics) posting.Recorder {
	return m
}

// provideRepository opens the configured store and prepares its schema
func provideRepository(ctx context.Context, cfg config.Config, log *logging.Logger) (posting.Repository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, postgres.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, nil, err
		}
		repo := pgstore.NewPostingRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Info("postgres store ready")
		return repo, pool.Close, nil

	case config.BackendNeo4j:
		client, err := n4j.NewClient(ctx, n4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		})
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(context.Background()); err != nil {
				log.Warn("neo4j close failed", "err", err)
			}
		}
		repo := neo4jstore.NewPostingRepository(client)
		if err := repo.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		log.Info("neo4j store ready", "uri", cfg.Neo4j.URI)
		return repo, cleanup, nil

	default:
		log.Info("in-memory store ready")
		return memory.NewPostingRepository(), func() {}, nil
	}
}

// provideTaskTracker uses Redis when REDIS_URL is set, memory otherwise
func provideTaskTracker(ctx context.Context, cfg config.Config, log *logging.Logger) (posting.TaskTracker, func(), error) {
	if cfg.RedisURL == "" {
		return posting.NewMemoryTaskTracker(), func() {}, nil
	}

	rdb, err := pkgredis.NewClient(ctx, pkgredis.Config{URL: cfg.RedisURL})
	if err != nil {
		return nil, nil, err
	}
	log.Info("redis task tracker ready")
	return redisstore.NewTaskTracker(rdb), func() { _ = rdb.Close() }, nil
}

// provideSources builds the adapter set once, in SOURCE_ORDER
func provideSources(cfg config.Config, log *logging.Logger) ([]posting.SourceConfig, error) {
	sources := make([]posting.SourceConfig, 0, len(cfg.SourceOrder))
	for _, name := range cfg.SourceOrder {
		var (
			adapter  posting.Adapter
			settings config.Source
			err      error
		)
		switch name {
		case "adzuna":
			adapter, err = adzunaAdapter(cfg, log.With("source", name))
			settings = cfg.Adzuna.Source
		case "jsearch":
			adapter, err = jsearchAdapter(cfg, log.With("source", name))
			settings = cfg.JSearch.Source
		default:
			err = fmt.Errorf("unknown source %q", name)
		}
		if err != nil {
			return nil, err
		}

		policy, err := retryPolicy(settings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}

		sources = append(sources, posting.SourceConfig{
			Adapter:   adapter,
			Policy:    policy,
			PageDelay: settings.PageDelay,
			MaxPages:  settings.MaxPages,
			Weight:    settings.Weight,
		})
	}
	return sources, nil
}

func retryPolicy(s config.Source) (posting.RetryPolicy, error) {
	action, err := posting.ParseRateLimitAction(s.RateLimitPolicy)
	if err != nil {
		return posting.RetryPolicy{}, err
	}
	if action == posting.RateLimitRetry {
		return posting.WaitAndRetryPolicy(s.RetryMaxAttempts, s.RetryBackoff), nil
	}
	return posting.AbortPolicy(), nil
}

func adzunaAdapter(cfg config.Config, log *logging.Logger) (posting.Adapter, error) {
	if cfg.Mode == config.ModeSynthetic {
		return synthetic.NewAdzuna(synthetic.WithLogger(log)), nil
	}
	if cfg.Adzuna.AppID == "" || cfg.Adzuna.AppKey == "" {
		log.Warn("adzuna credentials missing, source will be skipped")
		return adzunaprovider.NewProvider(nil, adzunaprovider.WithLogger(log)), nil
	}

	client, err := adzuna.NewClient(adzuna.Config{
		AppID:   cfg.Adzuna.AppID,
		AppKey:  cfg.Adzuna.AppKey,
		Country: cfg.Adzuna.Country,
	})
	if err != nil {
		return nil, err
	}
	return adzunaprovider.NewProvider(client, adzunaprovider.WithLogger(log)), nil
}

func jsearchAdapter(cfg config.Config, log *logging.Logger) (posting.Adapter, error) {
	if cfg.Mode == config.ModeSynthetic {
		return synthetic.NewJSearch(synthetic.WithLogger(log)), nil
	}
	if cfg.JSearch.APIKey == "" {
		log.Warn("rapidapi key missing, source will be skipped")
		return jsearchprovider.NewProvider(nil, jsearchprovider.WithLogger(log)), nil
	}

	client, err := jsearch.NewClient(jsearch.Config{
		APIKey:            cfg.JSearch.APIKey,
		Host:              cfg.JSearch.Host,
		RequestsPerSecond: cfg.JSearch.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return jsearchprovider.NewProvider(client, jsearchprovider.WithLogger(log)), nil
}

func provideAggregator(
	cfg config.Config,
	sources []posting.SourceConfig,
	repo posting.Repository,
	recorder posting.Recorder,
	log *logging.Logger,
) (*posting.Aggregator, error) {
	quota, err := posting.ParseQuotaPolicy(cfg.QuotaPolicy)
	if err != nil {
		return nil, err
	}
	return posting.NewAggregator(
		posting.WithSources(sources...),
		posting.WithStore(repo),
		posting.WithQuotaPolicy(quota),
		posting.WithSourceDelay(cfg.SourceDelay),
		posting.WithRecorder(recorder),
		posting.WithLogger(log),
	)
}

func provideService(
	cfg config.Config,
	agg *posting.Aggregator,
	repo posting.Repository,
	tracker posting.TaskTracker,
	recorder posting.Recorder,
	log *logging.Logger,
) (*posting.Service, error) {
	return posting.NewService(agg, repo,
		posting.WithTaskTracker(tracker),
		posting.WithReader(repo),
		posting.WithMode(cfg.Mode),
		posting.WithServiceRecorder(recorder),
		posting.WithServiceLogger(log),
	)
}

func provideScheduler(cfg config.Config, svc *posting.Service, log *logging.Logger) (*scheduler.Scheduler, error) {
	return scheduler.New(svc, cfg.Schedules, log)
}

// provideSheetsClient never fails; without credentials the export tool
// reports that Sheets is not configured.
func provideSheetsClient(ctx context.Context, cfg config.Config, log *logging.Logger) tools.SheetsClient {
	if cfg.SheetsCredentialsPath == "" {
		return newSheetsClientAdapter(nil)
	}
	client, err := sheetsclient.NewClient(ctx, sheetsclient.Config{CredentialsPath: cfg.SheetsCredentialsPath})
	if err != nil {
		log.Warn("google sheets client unavailable", "err", err)
		return newSheetsClientAdapter(nil)
	}
	return newSheetsClientAdapter(client)
}
