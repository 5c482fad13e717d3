// Package server exposes the login operations over MCP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/brizzai/popup-login/internal/auth"
	"github.com/brizzai/popup-login/internal/config"
	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/metrics"
	"github.com/brizzai/popup-login/internal/server/handler"
	"github.com/brizzai/popup-login/internal/server/tool"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	// shutdownTimeout is the maximum time to wait for server shutdown
	shutdownTimeout = 5 * time.Second
)

// Server is the MCP server offering the login tools. It supports the SSE,
// HTTP and STDIO transports.
type Server struct {
	config  *config.Config
	mcp     *mcpserver.MCPServer
	service *auth.Service
	handler *handler.Handler
	tool    *tool.Handler
}

// NewServer creates a new MCP server instance with the login tools
// registered
func NewServer(cfg *config.Config, service *auth.Service) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if service == nil {
		return nil, errors.New("login service cannot be nil")
	}

	srv := &Server{
		config:  cfg,
		mcp:     mcpserver.NewMCPServer(cfg.Server.Name, cfg.Server.Version),
		service: service,
		tool:    tool.NewHandler(service),
	}

	var gatherer prometheus.Gatherer
	if cfg.Metrics.Enabled {
		if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		gatherer = prometheus.DefaultGatherer
	}
	srv.handler = handler.NewHandler(gatherer)

	for name, t := range srv.tool.Tools() {
		srv.mcp.AddTool(t.Tool, mcpserver.ToolHandlerFunc(t.Handler))
		logger.Debug("Registered tool", zap.String("tool", name))
	}
	return srv, nil
}

// MCP returns the underlying MCP server
func (s *Server) MCP() *mcpserver.MCPServer {
	return s.mcp
}

func (s *Server) ServeSSE(ctx context.Context) error {
	logger.Info("Starting SSE server")

	sseServer := mcpserver.NewSSEServer(
		s.mcp,
		mcpserver.WithBaseURL(fmt.Sprintf("http://%s:%d", s.config.Server.Host, s.config.Server.Port)),
	)

	return s.serveHTTP(ctx, sseServer, "SSE")
}

func (s *Server) ServeHTTP(ctx context.Context) error {
	logger.Info("Starting HTTP server")
	httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
	return s.serveHTTP(ctx, httpServer, "HTTP")
}

func (s *Server) serveHTTP(ctx context.Context, h http.Handler, mode string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler.CreateHTTPHandler(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("Listening",
			zap.String("mode", mode),
			zap.String("address", addr),
		)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down server",
			zap.String("mode", mode),
			zap.Duration("timeout", shutdownTimeout),
		)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}

func (s *Server) ServeSTDIO(ctx context.Context) error {
	logger.Info("Starting STDIO server")
	stdioServer := mcpserver.NewStdioServer(s.mcp)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// Start initializes the login provider and serves in the configured mode
func (s *Server) Start(ctx context.Context) error {
	logger.Info("Starting server",
		zap.String("mode", string(s.config.Server.Mode)),
		zap.String("version", s.config.Server.Version),
	)

	if err := s.service.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize login provider: %w", err)
	}

	switch s.config.Server.Mode {
	case config.ServerModeSSE:
		return s.ServeSSE(ctx)
	case config.ServerModeHTTP:
		return s.ServeHTTP(ctx)
	case config.ServerModeSTDIO:
		return s.ServeSTDIO(ctx)
	default:
		return fmt.Errorf("unsupported server mode: %s", s.config.Server.Mode)
	}
}

// Module provides the MCP server dependencies
var Module = fx.Module("mcp_server",
	fx.Provide(
		NewServer,
	),
)
