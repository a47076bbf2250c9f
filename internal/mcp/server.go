// Package mcp exposes the Drive file operations as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gdrive-mcp/internal/fileops"

	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/trace"
)

const (
	serverName    = "google-drive-mcp"
	serverVersion = "1.0.0"

	shutdownTimeout = 10 * time.Second
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// FileOperations runs upload and update requests.
type FileOperations interface {
	Upload(ctx context.Context, req fileops.UploadRequest) *fileops.Result
	Update(ctx context.Context, req fileops.UpdateRequest) *fileops.Result
}

// Reauthorizer discards the current credential and obtains a new one.
type Reauthorizer interface {
	Reauthorize(ctx context.Context) ([]string, error)
}

// ServerConfig holds the MCP server configuration.
type ServerConfig struct {
	Transport string
	Host      string
	Port      int
}

// Server is the MCP server for Google Drive.
type Server struct {
	config     *ServerConfig
	mcpServer  *server.MCPServer
	files      FileOperations
	auth       Reauthorizer
	tracer     trace.Tracer
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates the MCP server and registers its tools.
func NewServer(cfg *ServerConfig, files FileOperations, auth Reauthorizer, tracer trace.Tracer, logger *slog.Logger) *Server {
	mcpSrv := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		config:    cfg,
		mcpServer: mcpSrv,
		files:     files,
		auth:      auth,
		tracer:    tracer,
		logger:    logger,
	}
	mcpSrv.AddTools(s.tools()...)

	return s
}

// GetMCPServer returns the underlying MCP server.
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// Start serves the configured transport until the client disconnects or a
// shutdown signal arrives.
func (s *Server) Start() error {
	switch s.config.Transport {
	case "", TransportStdio:
		s.logger.Info("starting MCP server", "transport", TransportStdio)
		errLogger := slog.NewLogLogger(s.logger.Handler(), slog.LevelError)
		if err := server.ServeStdio(s.mcpServer, server.WithErrorLogger(errLogger)); err != nil {
			return fmt.Errorf("stdio server error: %w", err)
		}
		return nil
	case TransportHTTP:
		return s.startHTTP()
	default:
		return fmt.Errorf("unsupported transport: %s", s.config.Transport)
	}
}

// Handler returns the HTTP handler serving /mcp and /health.
func (s *Server) Handler() http.Handler {
	streamableServer := server.NewStreamableHTTPServer(s.mcpServer,
		server.WithEndpointPath("/mcp"),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handleHealth)
	mux.Handle("/mcp", streamableServer)
	return mux
}

func (s *Server) startHTTP() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: shutdownTimeout,
	}

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer func() {
		signal.Stop(sigChan)
		close(sigChan)
	}()

	go func() {
		if _, ok := <-sigChan; !ok {
			return
		}
		s.logger.Info("shutdown signal received, shutting down gracefully")
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("server shutdown error", "error", err)
		}
	}()

	s.logger.Info("starting MCP server", "transport", TransportHTTP, "addr", addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// handleHealth handles the /health endpoint.
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, "OK")
}
