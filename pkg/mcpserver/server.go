package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apcore-dev/modbridge/pkg/identity"
	"github.com/apcore-dev/modbridge/pkg/observability"
	"github.com/apcore-dev/modbridge/pkg/registry"
)

// Server serves a module registry over MCP streamable HTTP and manages
// the full lifecycle including startup and graceful shutdown.
type Server struct {
	httpServer *http.Server
	mcpServer  *mcp.Server
	registry   *registry.Registry
	config     ServerConfig
	logger     *slog.Logger
}

// ServerConfig holds configuration for the MCP server.
type ServerConfig struct {
	Addr            string
	MCPPath         string
	MetricsEnabled  bool
	MetricsPath     string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
	// ServerName and ServerVersion identify this server to MCP clients.
	ServerName    string
	ServerVersion string
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:            ":8080",
		MCPPath:         "/mcp",
		MetricsEnabled:  true,
		MetricsPath:     "/metrics",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Logger:          slog.Default(),
		ServerName:      "modbridge",
		ServerVersion:   "dev",
	}
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithAddr sets the listen address.
func WithAddr(addr string) ServerOption {
	return func(s *Server) { s.config.Addr = addr }
}

// WithMCPPath sets the path the MCP endpoint is mounted at.
func WithMCPPath(path string) ServerOption {
	return func(s *Server) { s.config.MCPPath = path }
}

// WithMetrics enables or disables the Prometheus metrics endpoint.
func WithMetrics(enabled bool, path string) ServerOption {
	return func(s *Server) {
		s.config.MetricsEnabled = enabled
		if path != "" {
			s.config.MetricsPath = path
		}
	}
}

// WithShutdownTimeout sets the graceful shutdown deadline.
func WithShutdownTimeout(d time.Duration) ServerOption {
	return func(s *Server) { s.config.ShutdownTimeout = d }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.config.Logger = l; s.logger = l }
}

// WithServerInfo sets the name and version reported to MCP clients.
func WithServerInfo(name, version string) ServerOption {
	return func(s *Server) {
		s.config.ServerName = name
		s.config.ServerVersion = version
	}
}

// NewServer creates an MCP server exposing every module in the registry
// as a tool. The tool list is fixed at construction time; rescan and
// rebuild to pick up route changes.
func NewServer(reg *registry.Registry, opts ...ServerOption) (*Server, error) {
	s := &Server{
		registry: reg,
		config:   DefaultServerConfig(),
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    s.config.ServerName,
		Version: s.config.ServerVersion,
	}, nil)

	for _, m := range reg.List() {
		tool, err := toolFor(m)
		if err != nil {
			return nil, err
		}
		s.mcpServer.AddTool(tool, handlerFor(reg, m.ModuleID))
		s.logger.Debug("registered tool",
			slog.String("module", m.ModuleID),
			slog.String("verb", m.Verb))
	}

	s.httpServer = &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	return s, nil
}

// Handler returns the full HTTP handler: the MCP endpoint, the module
// introspection endpoints, a health check, and (when enabled) the
// Prometheus metrics endpoint.
func (s *Server) Handler() http.Handler {
	streamable := mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.mcpServer
	}, nil)

	mcpHandler := identityMiddleware(streamable)
	if s.config.MetricsEnabled {
		mcpHandler = observability.MetricsMiddleware(s.config.MCPPath, mcpHandler)
	}

	mux := http.NewServeMux()
	mux.Handle(s.config.MCPPath, mcpHandler)
	mux.HandleFunc("GET /modules", s.handleModules)
	mux.HandleFunc("GET /modules/{id}", s.handleModule)
	mux.HandleFunc("GET /openapi.json", s.handleOpenAPI)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	if s.config.MetricsEnabled {
		mux.Handle(s.config.MetricsPath, promhttp.Handler())
	}
	return mux
}

// identityMiddleware resolves the caller identity and trace context
// from the inbound request before the MCP handler takes over, so tool
// handlers see who is calling.
func identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ictx := identity.FromHTTP(r)
		next.ServeHTTP(w, r.WithContext(identity.With(r.Context(), ictx)))
	})
}

// ListenAndServe starts the server and blocks until a shutdown signal
// (SIGINT or SIGTERM) is received. It then gracefully shuts down,
// waiting for in-flight requests to complete within the configured timeout.
func (s *Server) ListenAndServe() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return s.listenAndServeWithContext(ctx)
}

func (s *Server) listenAndServeWithContext(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.String("addr", s.config.Addr),
			slog.String("mcp_path", s.config.MCPPath),
			slog.Int("tools", s.registry.Len()))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	}

	return s.shutdown()
}

// ServeOn starts the server on the given listener. Used for testing.
func (s *Server) ServeOn(ln net.Listener) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down gracefully", slog.Duration("timeout", s.config.ShutdownTimeout))
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

// Shutdown gracefully shuts down the server with the given context.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
