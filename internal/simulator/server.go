// Package simulator provides a mock sensor API for local development and
// tests. It serves the same HTTP surface the dashboard consumes and feeds it
// with synthetic readings.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"envdash.dev/envdash/internal/sensorapi"
	"envdash.dev/envdash/pkg/metrics"
)

// defaultHistoryLimit bounds the per-device reading buffer.
const defaultHistoryLimit = 20000

// deviceState is one simulated device with its reading history.
type deviceState struct {
	device sensorapi.Device
	gen    *ReadingGenerator

	// silent devices never report, so the dashboard shows them offline.
	silent bool

	mu       sync.RWMutex
	readings []sensorapi.Reading
}

func (d *deviceState) append(r sensorapi.Reading, limit int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.readings = append(d.readings, r)
	if len(d.readings) > limit {
		d.readings = d.readings[len(d.readings)-limit:]
	}
}

func (d *deviceState) latest() (sensorapi.Reading, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if len(d.readings) == 0 {
		return sensorapi.Reading{}, false
	}
	return d.readings[len(d.readings)-1], true
}

// within returns the readings recorded in [from, to], inclusive.
func (d *deviceState) within(from, to int64) []sensorapi.Reading {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]sensorapi.Reading, 0)
	for i := range d.readings {
		t, ok := d.readings[i].RecordedTime()
		if !ok {
			continue
		}
		secs := t.Unix()
		if secs >= from && secs <= to {
			out = append(out, d.readings[i])
		}
	}
	return out
}

// ServerConfig holds the configuration for the simulator Server.
type ServerConfig struct {
	Logger *slog.Logger

	// HTTP server configuration
	HTTPPort int

	// Token, when set, is the bearer token clients must present. Empty
	// accepts any request.
	Token string

	// Fleet configuration
	DeviceCount int
	SilentCount int
	Interval    time.Duration

	// HistoryLimit bounds the per-device reading buffer (default 20000).
	HistoryLimit int

	// Metrics is optional.
	Metrics *metrics.SimulatorMetrics
}

// Server is the mock sensor API server.
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	config     *ServerConfig
	devices    []*deviceState
	byID       map[string]*deviceState
	metrics    *metrics.SimulatorMetrics
}

// NewServer creates a simulator with a freshly generated device fleet.
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
	if cfg.DeviceCount <= 0 {
		return nil, errors.New("device count must be positive")
	}
	if cfg.SilentCount < 0 || cfg.SilentCount > cfg.DeviceCount {
		return nil, errors.New("silent count must be between 0 and device count")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = defaultHistoryLimit
	}

	s := &Server{
		logger:  cfg.Logger,
		config:  cfg,
		byID:    make(map[string]*deviceState, cfg.DeviceCount),
		metrics: cfg.Metrics,
	}

	for i := 0; i < cfg.DeviceCount; i++ {
		dev := NewDevice()
		state := &deviceState{
			device: dev,
			gen:    NewReadingGenerator(dev.ID),
			silent: i >= cfg.DeviceCount-cfg.SilentCount,
		}
		s.devices = append(s.devices, state)
		s.byID[dev.ID] = state
	}

	if s.metrics != nil {
		s.metrics.DevicesSimulated.Set(float64(cfg.DeviceCount))
	}

	return s, nil
}

// Tick emits one reading per reporting device at instant t.
func (s *Server) Tick(t time.Time) {
	for _, state := range s.devices {
		if state.silent {
			continue
		}
		state.append(state.gen.Generate(t), s.config.HistoryLimit)
		if s.metrics != nil {
			s.metrics.ReadingsGenerated.WithLabelValues(state.device.ID).Inc()
		}
	}
}

// Backfill seeds history for all reporting devices, one reading per interval
// ending at now. Useful so range queries have data right after startup.
func (s *Server) Backfill(now time.Time, span time.Duration) {
	for t := now.Add(-span); !t.After(now); t = t.Add(s.config.Interval) {
		s.Tick(t)
	}
}

// Run starts the reading ticker and the HTTP server, blocking until shutdown.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("starting simulator server",
		"devices", s.config.DeviceCount,
		"silent", s.config.SilentCount,
		"interval", s.config.Interval.String(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	// Emit readings in the background.
	go func() {
		ticker := time.NewTicker(s.config.Interval)
		defer ticker.Stop()
		s.Tick(time.Now())
		for {
			select {
			case <-ctx.Done():
				return
			case t := <-ticker.C:
				s.Tick(t)
			}
		}
	}()

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.config.HTTPPort),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	s.logger.Info("starting HTTP server", "address", s.httpServer.Addr)

	httpErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			httpErr <- fmt.Errorf("HTTP server error: %w", err)
		}
		close(httpErr)
	}()

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

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown() error {
	s.logger.Info("shutting down simulator server")

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown HTTP server", "error", err)
			return fmt.Errorf("HTTP server shutdown error: %w", err)
		}
	}

	s.logger.Info("simulator server shutdown completed successfully")
	return nil
}
