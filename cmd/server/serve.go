package main

import (
	"context"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/honeycarbs/jobingest/internal/mcp"
	"github.com/honeycarbs/jobingest/pkg/shutdown"
)

func newServeCommand() *cobra.Command {
	var (
		timeout time.Duration
		runNow  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server with scheduled ingestions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			res, cleanup, err := mcp.InitializeResources(cmd.Context(), cfg, logger)
			if err != nil {
				logger.Error("failed to initialize resources", "err", err)
				return err
			}
			closeResources := sync.OnceFunc(cleanup)
			defer closeResources()

			srv := mcp.NewServer(logger, cfg, res)
			res.Scheduler.Start(cmd.Context())
			if runNow {
				res.Scheduler.RunAll()
			}

			stopped := make(chan struct{})
			go func() {
				defer close(stopped)
				shutdown.Graceful(
					[]os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP},
					timeout,
					logger,
					srv,
					res.Scheduler,
					res.Service,
					// stores close only after in-flight ingestions drain
					shutdown.Func(func(context.Context) error {
						closeResources()
						return nil
					}),
				)
			}()

			logger.Info("MCP server initialized and starting",
				"addr", cfg.Addr(),
				"mode", cfg.Mode,
				"store", cfg.StoreBackend,
				"sources", res.Aggregator.Sources(),
				"schedules", res.Scheduler.Len(),
			)

			if err := srv.Run(); err != nil {
				logger.Error("MCP server exited with error", "err", err)
				return err
			}

			<-stopped
			logger.Info("MCP server stopped")
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "shutdown-timeout", 30*time.Second, "how long to wait for in-flight ingestions on shutdown")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "submit every configured schedule once at startup")
	return cmd
}
