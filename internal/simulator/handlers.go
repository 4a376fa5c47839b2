package simulator

import (
	"encoding/json"
	"net/http"
	"strconv"

	"envdash.dev/envdash/internal/sensorapi"
	"envdash.dev/envdash/pkg/metrics"
)

// Handler returns the simulator's HTTP handler. It is exported so tests can
// mount the simulator on an httptest server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.HandleFunc("GET /devices", s.instrument("/devices", s.withAuth(s.handleDevices)))
	mux.HandleFunc("GET /data/latest/{id}", s.instrument("/data/latest", s.withAuth(s.handleLatest)))
	mux.HandleFunc("GET /data/range", s.instrument("/data/range", s.withAuth(s.handleRange)))
	return mux
}

// instrument wraps a handler with HTTP request metrics.
func (s *Server) instrument(path string, h http.HandlerFunc) http.HandlerFunc {
	if s.metrics == nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
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

// withAuth enforces the bearer token when one is configured.
func (s *Server) withAuth(h http.HandlerFunc) http.HandlerFunc {
	if s.config.Token == "" {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.config.Token {
			s.writeError(w, http.StatusUnauthorized, "invalid or missing token")
			return
		}
		h(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// handleDevices serves the device list.
func (s *Server) handleDevices(w http.ResponseWriter, _ *http.Request) {
	devices := make([]sensorapi.Device, 0, len(s.devices))
	for _, state := range s.devices {
		devices = append(devices, state.device)
	}
	s.writeJSON(w, http.StatusOK, devices)
}

// handleLatest serves a device's most recent reading, or 404 when the device
// is unknown or has not reported yet.
func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	state, ok := s.byID[r.PathValue("id")]
	if !ok {
		s.writeError(w, http.StatusNotFound, "device not found")
		return
	}
	reading, ok := state.latest()
	if !ok {
		s.writeError(w, http.StatusNotFound, "no readings for device")
		return
	}
	s.writeJSON(w, http.StatusOK, reading)
}

// handleRange serves all readings for a device between from_ts and to_ts,
// inclusive, both Unix seconds.
func (s *Server) handleRange(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	deviceID := q.Get("device_id")
	if deviceID == "" {
		s.writeError(w, http.StatusBadRequest, "device_id is required")
		return
	}

	from, errFrom := strconv.ParseInt(q.Get("from_ts"), 10, 64)
	to, errTo := strconv.ParseInt(q.Get("to_ts"), 10, 64)
	if errFrom != nil || errTo != nil {
		s.writeError(w, http.StatusBadRequest, "from_ts and to_ts must be Unix seconds")
		return
	}

	state, ok := s.byID[deviceID]
	if !ok {
		s.writeError(w, http.StatusNotFound, "device not found")
		return
	}

	s.writeJSON(w, http.StatusOK, state.within(from, to))
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
