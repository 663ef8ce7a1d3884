package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/honeycarbs/jobingest/internal/domain"
	"github.com/honeycarbs/jobingest/internal/domain/posting"
	"github.com/honeycarbs/jobingest/internal/mcp"
)

func newIngestCommand() *cobra.Command {
	var (
		location string
		sources  []string
		quota    int
		show     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <query>",
		Short: "Run one ingestion synchronously and print what was stored",
		Example: `  jobingest ingest "Manager" --location Mumbai --quota 10
  jobingest ingest golang --quota 25 --synthetic --postings
  jobingest ingest "Data Engineer" --source jsearch --quota 5`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" || quota <= 0 {
				return fmt.Errorf("%w: query and a positive --quota are required", posting.ErrInvalidRequest)
			}

			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, cleanup, err := mcp.InitializeResources(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			selected, err := selectSources(sources, res.Aggregator.Sources())
			if err != nil {
				return err
			}

			report := res.Aggregator.Run(ctx, domain.IngestionRequest{
				Query:      query,
				Location:   strings.TrimSpace(location),
				TotalQuota: quota,
				Sources:    selected,
			})

			out := cmd.OutOrStdout()
			renderReport(out, report)
			if show {
				renderPostings(out, report.Postings())
			}

			if errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			if report.Failed() {
				return fmt.Errorf("ingestion failed: %w", report.Err())
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "location filter")
	cmd.Flags().IntVarP(&quota, "quota", "q", 10, "total new postings to collect")
	cmd.Flags().StringSliceVarP(&sources, "source", "s", nil, "only fetch from these providers (repeatable)")
	cmd.Flags().BoolVar(&show, "postings", false, "also print the new postings")
	return cmd
}

// selectSources normalizes the --source values and checks each is configured
func selectSources(flags []string, configured []domain.Source) ([]domain.Source, error) {
	requested := make([]domain.Source, 0, len(flags))
	for _, name := range flags {
		requested = append(requested, domain.Source(name))
	}
	requested = posting.NormalizeSources(requested)

	for _, name := range requested {
		if !slices.Contains(configured, name) {
			return nil, fmt.Errorf("%w: unknown source %q, configured: %v", posting.ErrInvalidRequest, name, configured)
		}
	}
	return requested, nil
}

func renderReport(w io.Writer, report posting.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Source", "Quota", "Pages", "New", "Duplicates", "Stop", "Error"})

	for _, src := range report.Sources {
		errText := ""
		if src.Err != nil {
			errText = src.Err.Error()
		}
		t.AppendRow(table.Row{src.Source, src.Quota, src.Pages, len(src.Postings), src.Duplicates, src.StopReason, errText})
	}
	t.AppendFooter(table.Row{"total", report.Request.TotalQuota, "", report.Inserted(), "", report.Elapsed.Round(time.Millisecond), ""})
	t.Render()
}

func renderPostings(w io.Writer, postings []domain.Posting) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 48}})
	t.AppendHeader(table.Row{"#", "Title", "Company", "Location", "Remote", "Source"})

	for i, p := range postings {
		t.AppendRow(table.Row{i + 1, p.Title, p.Company, p.Location, p.Remote, p.Source})
	}
	t.Render()
}
