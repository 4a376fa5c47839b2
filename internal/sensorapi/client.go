// Package sensorapi provides the client for the remote environmental sensor
// HTTP API consumed by the dashboard.
package sensorapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"

	"envdash.dev/envdash/pkg/metrics"
)

// ErrNoData is returned by LatestReading when the API responds with 404: the
// device exists but has no readings yet. Callers treat this as a valid empty
// result, not a failure.
var ErrNoData = errors.New("no data available for device")

// ErrNoDevice is returned when an operation requires a device ID and none was
// given.
var ErrNoDevice = errors.New("device id is empty")

// StatusError reports a non-success HTTP response from the sensor API.
type StatusError struct {
	Operation string
	Code      int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sensor API %s: unexpected status %d", e.Operation, e.Code)
}

// ClientConfig holds the configuration for the Client.
type ClientConfig struct {
	Logger *slog.Logger

	// BaseURL is the root of the sensor API, e.g. "https://api.example.com".
	BaseURL string

	// Timeout applies per request.
	Timeout time.Duration

	// Metrics is optional; when set, upstream call metrics are recorded.
	Metrics *metrics.DashboardMetrics
}

// Client calls the sensor API. All operations take an explicit Session; the
// client itself holds no credentials.
type Client struct {
	logger  *slog.Logger
	http    *resty.Client
	metrics *metrics.DashboardMetrics
}

// NewClient creates a new sensor API client.
func NewClient(cfg *ClientConfig) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("client config cannot be nil")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("API base URL cannot be empty")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout)

	return &Client{
		logger:  cfg.Logger,
		http:    httpClient,
		metrics: cfg.Metrics,
	}, nil
}

// Devices fetches the list of devices owned by the session's user.
func (c *Client) Devices(ctx context.Context, sess Session) ([]Device, error) {
	defer c.trackDuration("devices")()

	var devices []Device
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(sess.Token).
		SetResult(&devices).
		Get("/devices")
	if err != nil {
		c.trackCall("devices", "error")
		c.trackError("devices", "network")
		return nil, fmt.Errorf("fetch devices: %w", err)
	}
	if !resp.IsSuccess() {
		c.trackCall("devices", "error")
		c.trackError("devices", "status")
		return nil, &StatusError{Operation: "devices", Code: resp.StatusCode()}
	}

	c.trackCall("devices", "success")
	return devices, nil
}

// LatestReading fetches the most recent reading for a device. A 404 response
// is reported as ErrNoData.
func (c *Client) LatestReading(ctx context.Context, sess Session, deviceID string) (*Reading, error) {
	if deviceID == "" {
		return nil, ErrNoDevice
	}

	defer c.trackDuration("latest")()

	var reading Reading
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(sess.Token).
		SetResult(&reading).
		SetPathParam("deviceID", deviceID).
		Get("/data/latest/{deviceID}")
	if err != nil {
		c.trackCall("latest", "error")
		c.trackError("latest", "network")
		return nil, fmt.Errorf("fetch latest reading for %s: %w", deviceID, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		c.trackCall("latest", "no_data")
		return nil, ErrNoData
	}
	if !resp.IsSuccess() {
		c.trackCall("latest", "error")
		c.trackError("latest", "status")
		return nil, &StatusError{Operation: "latest", Code: resp.StatusCode()}
	}

	c.trackCall("latest", "success")
	return &reading, nil
}

// ReadingRange fetches all readings for a device between from and to,
// inclusive. Both instants are truncated to whole Unix seconds on the wire.
func (c *Client) ReadingRange(ctx context.Context, sess Session, deviceID string, from, to time.Time) ([]Reading, error) {
	if deviceID == "" {
		return nil, ErrNoDevice
	}

	defer c.trackDuration("range")()

	var readings []Reading
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(sess.Token).
		SetResult(&readings).
		SetQueryParams(map[string]string{
			"device_id": deviceID,
			"from_ts":   strconv.FormatInt(from.Unix(), 10),
			"to_ts":     strconv.FormatInt(to.Unix(), 10),
		}).
		Get("/data/range")
	if err != nil {
		c.trackCall("range", "error")
		c.trackError("range", "network")
		return nil, fmt.Errorf("fetch reading range for %s: %w", deviceID, err)
	}
	if !resp.IsSuccess() {
		c.trackCall("range", "error")
		c.trackError("range", "status")
		return nil, &StatusError{Operation: "range", Code: resp.StatusCode()}
	}

	c.trackCall("range", "success")
	return readings, nil
}

// trackDuration returns a stop function observing the call duration.
func (c *Client) trackDuration(operation string) func() {
	if c.metrics == nil {
		return func() {}
	}
	timer := prometheus.NewTimer(c.metrics.UpstreamCallDuration.WithLabelValues(operation))
	return func() { timer.ObserveDuration() }
}

func (c *Client) trackCall(operation, status string) {
	if c.metrics != nil {
		c.metrics.UpstreamCalls.WithLabelValues(operation, status).Inc()
	}
}

func (c *Client) trackError(operation, errorType string) {
	if c.metrics != nil {
		c.metrics.UpstreamErrors.WithLabelValues(operation, errorType).Inc()
	}
}
