//go:build wireinject
// +build wireinject

package mcp

import (
	"context"

	"github.com/google/wire"

	"github.com/honeycarbs/jobingest/internal/config"
	"github.com/honeycarbs/jobingest/internal/metrics"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

// InitializeResources creates Resources with all resources wired up
func InitializeResources(ctx context.Context, cfg config.Config, log *logging.Logger) (*Resources, func(), error) {
	wire.Build(
		// Telemetry
		metrics.New,
		provideRecorder,

		// Storage
		provideRepository,
		provideTaskTracker,

		// Providers, real or synthetic
		provideSources,

		// Services
		provideAggregator,
		provideService,
		provideScheduler,

		// Tool resources
		provideSheetsClient,
		newResources,
	)

	return nil, nil, nil
}
