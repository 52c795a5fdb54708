// Package api serves price predictions over HTTP.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Veraticus/carprice/internal/dataset"
	"github.com/Veraticus/carprice/internal/registry"
)

// Config holds server configuration.
type Config struct {
	Host            string
	APIKey          string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8000,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    64 << 10,
	}
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// ModelSource hands out the model to predict with, reloading it when a newer one has
// been published.
type ModelSource interface {
	Get(ctx context.Context) (registry.Handle, error)
}

// JobCreator triggers a retraining run.
type JobCreator interface {
	CreateJob(ctx context.Context) (string, error)
}

// Server is the HTTP API server.
type Server struct {
	pipeline *dataset.Pipeline
	models   ModelSource
	jobs     JobCreator
	logger   *slog.Logger
	handler  http.Handler
	tls      *tls.Config
	config   Config
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithJobs enables the /train_job endpoint.
func WithJobs(jobs JobCreator) Option {
	return func(s *Server) {
		s.jobs = jobs
	}
}

// WithTLS serves HTTPS using tlsConfig.
func WithTLS(tlsConfig *tls.Config) Option {
	return func(s *Server) {
		s.tls = tlsConfig
	}
}

// NewServer creates a server that prepares requests with pipeline and predicts with the
// models handed out by models.
func NewServer(pipeline *dataset.Pipeline, models ModelSource, config Config, opts ...Option) *Server {
	s := &Server{
		pipeline: pipeline,
		models:   models,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.routes()
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)

		r.Post("/", s.handlePing)
		r.Get("/values", s.handleValues)
		r.Post("/values", s.handleValues)
		r.Post("/pricing", s.handlePricing)
		r.Post("/train_job", s.handleTrainJob)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		jsonError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is canceled, then drains in-flight
// requests for up to the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr(), err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	scheme := "http"
	if s.tls != nil {
		ln = tls.NewListener(ln, s.tls)
		scheme = "https"
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", "addr", ln.Addr().String(), "scheme", scheme)
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return <-errChan
}
