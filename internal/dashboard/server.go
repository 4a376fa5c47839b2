package dashboard

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"envdash.dev/envdash/internal/sensorapi"
	"envdash.dev/envdash/internal/status"
	"envdash.dev/envdash/pkg/metrics"
)

// Server is the dashboard HTTP server. It renders the live device view and
// the analytics view, fetching everything from the remote sensor API.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	api        *sensorapi.Client
	tracker    *status.Tracker
	refresher  *status.Refresher
	templates  *template.Template
	metrics    *metrics.DashboardMetrics
	config     *ServerConfig
}

// ServerConfig holds the configuration for the Server.
type ServerConfig struct {
	Logger *slog.Logger

	// HTTP server configuration
	HTTPPort int

	// Sensor API configuration
	APIBaseURL string
	APITimeout time.Duration

	// Metrics is optional; when nil, no metrics are recorded.
	Metrics *metrics.DashboardMetrics
}

// NewServer creates a new dashboard Server instance.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("server config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.HTTPPort <= 0 {
		return nil, errors.New("HTTP port must be positive")
	}
	if cfg.APIBaseURL == "" {
		return nil, errors.New("sensor API base URL cannot be empty")
	}

	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}

	api, err := sensorapi.NewClient(&sensorapi.ClientConfig{
		Logger:  cfg.Logger,
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create sensor API client: %w", err)
	}

	tracker := status.NewTracker()
	refresher, err := status.NewRefresher(&status.RefresherConfig{
		Logger:  cfg.Logger,
		API:     api,
		Tracker: tracker,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create status refresher: %w", err)
	}

	return &Server{
		logger:    cfg.Logger,
		api:       api,
		tracker:   tracker,
		refresher: refresher,
		templates: templates,
		metrics:   cfg.Metrics,
		config:    cfg,
	}, nil
}

// Run starts the dashboard server and blocks until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting dashboard server")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", s.httpServer.Addr,
		"sensor_api", s.config.APIBaseURL)

	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(httpErr)
	}()

	s.logger.Info("dashboard server started successfully")

	select {
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		cancel()
	case <-ctx.Done():
		s.logger.Info("context canceled")
	case err := <-httpErr:
		if err != nil {
			s.logger.Error("HTTP server error", "error", err)
			cancel()
			return err
		}
	}

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down dashboard server")

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown HTTP server", "error", err)
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
		s.logger.Info("HTTP server stopped")
	}

	s.logger.Info("dashboard server shutdown completed successfully")
	return nil
}

// Handler returns the dashboard's HTTP handler. It is exported so tests can
// mount the dashboard on an httptest server.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// setupRoutes configures the HTTP routes.
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// Health check and metrics
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Session
	mux.HandleFunc("GET /login", s.instrument("/login", s.handleLoginPage))
	mux.HandleFunc("POST /login", s.instrument("/login", s.handleLoginSubmit))
	mux.HandleFunc("POST /logout", s.instrument("/logout", s.handleLogout))

	// htmx fragment endpoints
	mux.HandleFunc("GET /api/devices", s.instrument("/api/devices", s.handleAPIDevices))
	mux.HandleFunc("GET /api/device/{id}/latest", s.instrument("/api/device/latest", s.handleAPILatest))
	mux.HandleFunc("GET /api/device/{id}/range", s.instrument("/api/device/range", s.handleAPIRange))
	mux.HandleFunc("GET /api/device/{id}/export", s.instrument("/api/device/export", s.handleExport))

	// Main pages
	mux.HandleFunc("GET /analytics", s.instrument("/analytics", s.handleAnalytics))
	mux.HandleFunc("GET /{$}", s.instrument("/", s.handleIndex))

	return mux
}

// instrument wraps a handler with HTTP request metrics.
func (s *Server) instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		timer := prometheus.NewTimer(s.metrics.HTTPRequestDuration.WithLabelValues(r.Method, path))
		defer timer.ObserveDuration()

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		h(sw, r)

		s.metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()
	}
}

// statusWriter captures the response status code for metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
