package tools

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

// IngestionService is the write-side surface the ingestion tools drive
type IngestionService interface {
	SubmitIngestion(ctx context.Context, req domain.IngestionRequest) (domain.Acknowledgment, error)
	IngestionStatus(ctx context.Context, id uuid.UUID) (domain.IngestionTask, error)
	IngestionStats(ctx context.Context) (domain.IngestionStats, error)
}

// SubmitIngestionParams defines the arguments for the submit_ingestion tool
type SubmitIngestionParams struct {
	Query    string   `json:"query" jsonschema:"Role or keywords to search providers for"`
	Location string   `json:"location,omitempty" jsonschema:"Optional location filter"`
	Quota    int      `json:"quota" jsonschema:"Total number of new postings to collect across providers"`
	Sources  []string `json:"sources,omitempty" jsonschema:"Optional provider tags to restrict the run to, such as jsearch or adzuna; omitted means all"`
}

// IngestionStatusParams defines the arguments for the ingestion_status tool
type IngestionStatusParams struct {
	TaskID string `json:"task_id" jsonschema:"Identifier returned by submit_ingestion"`
}

// IngestionStatsParams takes no arguments
type IngestionStatsParams struct{}

type ingestionTools struct {
	svc    IngestionService
	logger *logging.Logger
}

// WithIngestion registers submit_ingestion, ingestion_status and ingestion_stats
func WithIngestion(svc IngestionService) Option {
	return func(reg *registry) {
		if svc == nil {
			reg.logger.Warn("ingestion tools skipped: service not configured")
			return
		}
		t := ingestionTools{svc: svc, logger: reg.logger.With("group", "ingestion")}

		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "submit_ingestion",
			Description: "Start a background ingestion across the configured job providers (or the given subset) and return a task id immediately",
		}, t.submit)

		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "ingestion_status",
			Description: "Report the lifecycle state and per-source counts of a submitted ingestion",
		}, t.status)

		sdkmcp.AddTool(reg.server, &sdkmcp.Tool{
			Name:        "ingestion_stats",
			Description: "Count persisted postings in total and per source",
		}, t.stats)
	}
}

func (t ingestionTools) submit(ctx context.Context, _ *sdkmcp.CallToolRequest, params SubmitIngestionParams) (*sdkmcp.CallToolResult, any, error) {
	t.logger.Info("submit_ingestion request", "query", params.Query, "location", params.Location, "quota", params.Quota, "sources", params.Sources)

	var sources []domain.Source
	for _, name := range params.Sources {
		sources = append(sources, domain.Source(name))
	}
	ack, err := t.svc.SubmitIngestion(ctx, domain.IngestionRequest{
		Query:      params.Query,
		Location:   params.Location,
		TotalQuota: params.Quota,
		Sources:    sources,
	})
	if errors.Is(err, posting.ErrInvalidRequest) {
		t.logger.Warn("submit_ingestion rejected", "err", err)
		return errorResult(err.Error()), nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to submit ingestion: %w", err)
	}

	msg := fmt.Sprintf("[submit_ingestion] %s (task_id=%s mode=%s)", ack.Message, ack.TaskID, ack.Mode)
	return textResult(msg), ack, nil
}

func (t ingestionTools) status(ctx context.Context, _ *sdkmcp.CallToolRequest, params IngestionStatusParams) (*sdkmcp.CallToolResult, any, error) {
	id, err := uuid.Parse(strings.TrimSpace(params.TaskID))
	if err != nil {
		return errorResult(fmt.Sprintf("invalid task_id %q", params.TaskID)), nil, nil
	}

	task, err := t.svc.IngestionStatus(ctx, id)
	if errors.Is(err, posting.ErrTaskNotFound) {
		return errorResult(fmt.Sprintf("no ingestion task %s", id)), nil, nil
	}
	if err != nil {
		t.logger.Error("ingestion_status failed", "task_id", id, "err", err)
		return nil, nil, fmt.Errorf("failed to load task: %w", err)
	}

	msg := fmt.Sprintf("[ingestion_status] task %s is %s, %d new posting(s)", task.ID, task.Status, task.Inserted)
	return textResult(msg), task, nil
}

func (t ingestionTools) stats(ctx context.Context, _ *sdkmcp.CallToolRequest, _ IngestionStatsParams) (*sdkmcp.CallToolResult, any, error) {
	stats, err := t.svc.IngestionStats(ctx)
	if err != nil {
		t.logger.Error("ingestion_stats failed", "err", err)
		return nil, nil, fmt.Errorf("failed to count postings: %w", err)
	}

	parts := make([]string, 0, len(stats.PerSource))
	for _, src := range slices.Sorted(maps.Keys(stats.PerSource)) {
		parts = append(parts, fmt.Sprintf("%s=%d", src, stats.PerSource[src]))
	}
	msg := fmt.Sprintf("[ingestion_stats] %d posting(s) stored (%s), mode=%s", stats.Total, strings.Join(parts, ", "), stats.Mode)
	return textResult(msg), stats, nil
}
