package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"envdash.dev/envdash/internal/sensorapi"
	"envdash.dev/envdash/pkg/metrics"
)

// API is the slice of the sensor API a Refresher needs.
type API interface {
	Devices(ctx context.Context, sess sensorapi.Session) ([]sensorapi.Device, error)
	LatestReading(ctx context.Context, sess sensorapi.Session, deviceID string) (*sensorapi.Reading, error)
}

// Refresher runs device status refresh cycles: fetch the device list, then
// sequentially probe each device's latest reading and record its online flag.
// For N devices a cycle issues 1+N API calls.
//
// Cycles carry a generation counter. Starting a new cycle cancels the previous
// in-flight cycle's context and makes its remaining writes no-ops, so a stale
// cycle can never overwrite a newer one's results.
type Refresher struct {
	logger  *slog.Logger
	api     API
	tracker *Tracker
	metrics *metrics.DashboardMetrics

	// now is a clock hook for tests.
	now func() time.Time

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
}

// RefresherConfig holds the configuration for a Refresher.
type RefresherConfig struct {
	Logger  *slog.Logger
	API     API
	Tracker *Tracker

	// Metrics is optional.
	Metrics *metrics.DashboardMetrics
}

// NewRefresher creates a new Refresher.
func NewRefresher(cfg *RefresherConfig) (*Refresher, error) {
	if cfg == nil {
		return nil, errors.New("refresher config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.API == nil {
		return nil, errors.New("API client cannot be nil")
	}
	if cfg.Tracker == nil {
		return nil, errors.New("tracker cannot be nil")
	}

	return &Refresher{
		logger:  cfg.Logger,
		api:     cfg.API,
		tracker: cfg.Tracker,
		metrics: cfg.Metrics,
		now:     time.Now,
	}, nil
}

// Tracker returns the tracker the refresher writes to.
func (f *Refresher) Tracker() *Tracker {
	return f.tracker
}

// Refresh runs one refresh cycle and returns the fetched device list in API
// order. If the device list fetch fails, the cycle aborts without touching the
// status map. A per-device probe failure forces that device offline and
// processing continues with the remaining devices.
func (f *Refresher) Refresh(ctx context.Context, sess sensorapi.Session) ([]sensorapi.Device, error) {
	cycleCtx, gen := f.begin(ctx)
	defer f.end(gen)

	devices, err := f.api.Devices(cycleCtx, sess)
	if err != nil {
		f.trackCycle("aborted")
		return nil, fmt.Errorf("status refresh: %w", err)
	}

	superseded := false
	for _, dev := range devices {
		reading, err := f.api.LatestReading(cycleCtx, sess, dev.ID)
		online := false
		switch {
		case err == nil:
			online = IsOnline(reading, f.now())
		case errors.Is(err, sensorapi.ErrNoData):
			// No reading yet: offline, not an error.
		default:
			f.logger.Warn("status probe failed, marking device offline",
				"device_id", dev.ID, "error", err)
		}

		if !f.apply(gen, dev.ID, online) {
			superseded = true
			break
		}
	}

	if superseded {
		f.trackCycle("superseded")
	} else {
		f.trackCycle("completed")
	}
	if f.metrics != nil {
		f.metrics.DevicesOnline.Set(float64(f.tracker.OnlineCount()))
	}
	return devices, nil
}

// begin starts a new cycle generation, cancelling any in-flight cycle.
func (f *Refresher) begin(ctx context.Context) (context.Context, uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancel != nil {
		f.cancel()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.gen++
	return cycleCtx, f.gen
}

// end releases the cycle's cancel func if it is still the current one.
func (f *Refresher) end(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen == gen && f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
}

// apply records a probe result unless a newer cycle has started.
func (f *Refresher) apply(gen uint64, deviceID string, online bool) bool {
	f.mu.Lock()
	current := f.gen == gen
	f.mu.Unlock()

	if !current {
		return false
	}
	f.tracker.Set(deviceID, online)
	return true
}

func (f *Refresher) trackCycle(result string) {
	if f.metrics != nil {
		f.metrics.StatusRefreshCycles.WithLabelValues(result).Inc()
	}
}
