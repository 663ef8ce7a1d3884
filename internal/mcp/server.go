package mcp

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/honeycarbs/jobingest/internal/config"
	"github.com/honeycarbs/jobingest/internal/mcp/tools"
	"github.com/honeycarbs/jobingest/pkg/logging"
)

const version = "0.2.0"

// Server wraps an MCP SDK server with an HTTP listener
type Server struct {
	logger *logging.Logger

	srv     *http.Server
	started atomic.Bool
}

// NewServer registers the ingestion tools and mounts them next to the
// liveness and metrics endpoints.
func NewServer(log *logging.Logger, cfg config.Config, res *Resources) *Server {
	log = log.Named("mcp")

	impl := &sdkmcp.Implementation{
		Name:    "jobingest",
		Version: version,
	}
	mcpServer := sdkmcp.NewServer(impl, nil)

	tools.Register(mcpServer, log,
		tools.WithIngestion(res.Service),
		tools.WithPostings(res.Service),
		tools.WithSheetsExport(res.Sheets, res.Service),
	)

	handler := sdkmcp.NewStreamableHTTPHandler(func(*http.Request) *sdkmcp.Server {
		return mcpServer
	}, nil)

	mux := http.NewServeMux()
	mux.Handle("/mcp/stream", handler)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if res.Metrics != nil {
		mux.Handle("/metrics", res.Metrics.Handler())
	}

	return &Server{
		logger: log,
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler exposes the mux for tests
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Run starts the HTTP server and blocks until shutdown
func (s *Server) Run() error {
	if !s.started.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Info("MCP HTTP server listening", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutdown requested for MCP HTTP server")
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("MCP HTTP server shutdown with error", "err", err)
		return err
	}

	s.logger.Info("MCP HTTP server shutdown complete")
	return nil
}
