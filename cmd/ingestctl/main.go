// Command ingestctl drives a running jobingest server over MCP.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	mcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

const defaultEndpoint = "http://localhost:8080/mcp/stream"

type options struct {
	endpoint string
	json     bool
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "ingestctl",
		Short:         "Submit and inspect job ingestions on a jobingest server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	endpoint := os.Getenv("INGEST_ENDPOINT")
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	root.PersistentFlags().StringVar(&opts.endpoint, "endpoint", endpoint, "MCP streamable HTTP endpoint")
	root.PersistentFlags().BoolVar(&opts.json, "json", false, "print structured tool output as JSON")

	root.AddCommand(
		submitCommand(opts),
		statusCommand(opts),
		simpleCommand(opts, "stats", "Show persisted posting counts", "ingestion_stats"),
		simpleCommand(opts, "filters", "List stored locations and companies", "posting_filters"),
		searchCommand(opts),
		toolsCommand(opts),
	)
	return root
}

func submitCommand(opts *options) *cobra.Command {
	var (
		location string
		sources  []string
		quota    int
		wait     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit <query>",
		Short: "Start a background ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(ctx context.Context, session *mcp.ClientSession) error {
				params := map[string]any{
					"query":    args[0],
					"location": location,
					"quota":    quota,
				}
				if len(sources) > 0 {
					params["sources"] = sources
				}
				res, err := callTool(ctx, session, "submit_ingestion", params)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), res, opts.json)
				if !wait {
					return nil
				}

				var ack struct {
					TaskID string `json:"task_id"`
				}
				if err := structured(res, &ack); err != nil {
					return err
				}
				return waitForTask(ctx, cmd.OutOrStdout(), session, ack.TaskID, interval, opts.json)
			})
		},
	}

	cmd.Flags().StringVarP(&location, "location", "l", "", "location filter")
	cmd.Flags().IntVarP(&quota, "quota", "q", 10, "total new postings to collect")
	cmd.Flags().StringSliceVarP(&sources, "source", "s", nil, "only fetch from these providers (repeatable)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until the task finishes")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "poll interval with --wait")
	return cmd
}

func statusCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id>",
		Short: "Show the state of a submitted ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd.Context(), opts, func(ctx context.Context, session *mcp.ClientSession) error {
				res, err := callTool(ctx, session, "ingestion_status", map[string]any{"task_id": args[0]})
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), res, opts.json)
				return nil
			})
		},
	}
}

func searchCommand(opts *options) *cobra.Command {
	var (
		title, company, location, source, sortBy string
		page, size                               int
		desc                                     bool
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Page through stored postings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := map[string]any{
				"title":     title,
				"company":   company,
				"location":  location,
				"source":    source,
				"page":      page,
				"size":      size,
				"sort_by":   sortBy,
				"sort_desc": desc,
			}
			if cmd.Flags().Changed("remote") {
				remote, _ := cmd.Flags().GetBool("remote")
				args["remote"] = remote
			}

			return withSession(cmd.Context(), opts, func(ctx context.Context, session *mcp.ClientSession) error {
				res, err := callTool(ctx, session, "search_postings", args)
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), res, opts.json)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "title substring")
	cmd.Flags().StringVar(&company, "company", "", "company substring")
	cmd.Flags().StringVar(&location, "location", "", "location substring")
	cmd.Flags().StringVar(&source, "source", "", "provider tag")
	cmd.Flags().Bool("remote", false, "only remote (or with =false, only on-site) postings")
	cmd.Flags().IntVar(&page, "page", 0, "zero-based page")
	cmd.Flags().IntVar(&size, "size", 20, "page size")
	cmd.Flags().StringVar(&sortBy, "sort", "created_at", "sort column")
	cmd.Flags().BoolVar(&desc, "desc", true, "sort descending")
	return cmd
}

func simpleCommand(opts *options, use, short, tool string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(ctx context.Context, session *mcp.ClientSession) error {
				res, err := callTool(ctx, session, tool, map[string]any{})
				if err != nil {
					return err
				}
				printResult(cmd.OutOrStdout(), res, opts.json)
				return nil
			})
		},
	}
}

func toolsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the server exposes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd.Context(), opts, func(ctx context.Context, session *mcp.ClientSession) error {
				list, err := session.ListTools(ctx, nil)
				if err != nil {
					return err
				}
				for _, tool := range list.Tools {
					fmt.Fprintf(cmd.OutOrStdout(), "%-18s %s\n", tool.Name, tool.Description)
				}
				return nil
			})
		},
	}
}

func withSession(ctx context.Context, opts *options, fn func(context.Context, *mcp.ClientSession) error) error {
	client := mcp.NewClient(&mcp.Implementation{
		Name:    "ingestctl",
		Version: "0.2.0",
	}, nil)

	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: opts.endpoint}, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", opts.endpoint, err)
	}
	defer func() { _ = session.Close() }()

	return fn(ctx, session)
}

func callTool(ctx context.Context, session *mcp.ClientSession, name string, args map[string]any) (*mcp.CallToolResult, error) {
	res, err := session.CallTool(ctx, &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", name, err)
	}
	if res.IsError {
		return nil, errors.New(resultText(res))
	}
	return res, nil
}

func waitForTask(ctx context.Context, w io.Writer, session *mcp.ClientSession, taskID string, interval time.Duration, asJSON bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		res, err := callTool(ctx, session, "ingestion_status", map[string]any{"task_id": taskID})
		if err != nil {
			return err
		}
		var task struct {
			Status string `json:"status"`
		}
		if err := structured(res, &task); err != nil {
			return err
		}
		if task.Status == "completed" || task.Status == "failed" {
			printResult(w, res, asJSON)
			if task.Status == "failed" {
				return errors.New("ingestion failed")
			}
			return nil
		}
	}
}

func structured(res *mcp.CallToolResult, out any) error {
	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func resultText(res *mcp.CallToolResult) string {
	for _, c := range res.Content {
		if txt, ok := c.(*mcp.TextContent); ok {
			return txt.Text
		}
	}
	return ""
}

func printResult(w io.Writer, res *mcp.CallToolResult, asJSON bool) {
	if asJSON && res.StructuredContent != nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res.StructuredContent)
		return
	}
	fmt.Fprintln(w, resultText(res))
}
