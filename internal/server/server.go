// Package server exposes the conversion service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/upf/internal/config"
	"github.com/alexanderramin/upf/internal/service"
)

const serviceName = "upf"

type Server struct {
	cfg     config.ServerConfig
	svc     service.ConversionService
	logger  *slog.Logger
	version string

	metricsPath    string
	metricsHandler http.Handler

	router *gin.Engine
}

type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithVersion(v string) Option {
	return func(s *Server) {
		if v != "" {
			s.version = v
		}
	}
}

// WithMetrics mounts h at path, typically a Prometheus scrape handler.
func WithMetrics(path string, h http.Handler) Option {
	return func(s *Server) {
		s.metricsPath = path
		s.metricsHandler = h
	}
}

func New(cfg config.ServerConfig, svc service.ConversionService, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		svc:     svc,
		logger:  slog.New(slog.DiscardHandler),
		version: "dev",
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cfg.MaxUploadBytes <= 0 {
		s.cfg.MaxUploadBytes = config.DefaultMaxUploadBytes
	}
	if len(s.cfg.AllowedExtensions) == 0 {
		s.cfg.AllowedExtensions = config.DefaultExtensions()
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	router.MaxMultipartMemory = 8 << 20

	router.GET("/health", s.handleHealth)
	router.POST("/convert", s.handleConvert)
	router.POST("/info", s.handleInfo)

	api := router.Group("/api/v1")
	api.GET("/conversions", s.handleListConversions)
	api.GET("/conversions/:id", s.handleGetConversion)

	if s.metricsHandler != nil && s.metricsPath != "" {
		router.GET(s.metricsPath, gin.WrapH(s.metricsHandler))
	}
	return router
}

// Run listens on the configured bind address and blocks until ctx is
// cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Bind, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.logger.Info("starting http server", "address", "http://"+ln.Addr().String(), "version", s.version)

	serveErrCh := make(chan error, 1)
	go func() {
		serveErrCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-serveErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout()
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		shutdownErr := httpServer.Shutdown(shutdownCtx)
		serveErr := <-serveErrCh
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) {
			return fmt.Errorf("shutdown server: %w", shutdownErr)
		}
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve after shutdown: %w", serveErr)
		}
		s.logger.Info("http server stopped")
		return nil
	}
}
