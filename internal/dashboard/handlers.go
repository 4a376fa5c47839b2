// Package dashboard provides the web UI for the environmental sensor
// dashboard.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"envdash.dev/envdash/internal/sensorapi"
	"envdash.dev/envdash/internal/status"
)

// sessionCookieName holds the user's sensor API bearer token. The token lives
// only in this HTTP-only cookie; every fetch receives it as an explicit
// Session.
const sessionCookieName = "envdash_session"

const upstreamTimeout = 5 * time.Second

const (
	msgNoData        = "No data available for this device"
	msgNetworkError  = "Network error"
	msgDevicesFailed = "Failed to fetch devices"
	msgLatestFailed  = "Failed to fetch latest reading"
	msgRangeFailed   = "Failed to fetch readings"
)

// session extracts the user's Session from the request cookie.
func (s *Server) session(r *http.Request) (sensorapi.Session, bool) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil || c.Value == "" {
		return sensorapi.Session{}, false
	}
	return sensorapi.Session{Token: c.Value}, true
}

// requireSession redirects to the login page when no session cookie is
// present. The second return value reports whether handling may continue.
func (s *Server) requireSession(w http.ResponseWriter, r *http.Request) (sensorapi.Session, bool) {
	sess, ok := s.session(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return sensorapi.Session{}, false
	}
	return sess, true
}

// errorMessage maps a fetch error to the user-facing banner text: transport
// failures read "Network error", non-success statuses use the operation's
// generic message.
func errorMessage(err error, statusMsg string) string {
	var se *sensorapi.StatusError
	if errors.As(err, &se) {
		return statusMsg
	}
	return msgNetworkError
}

// handleIndex serves the live dashboard page. The selected device is mirrored
// in the "device" query parameter so the view survives reload and sharing;
// with no parameter the first device in API order is auto-selected.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	s.logger.Debug("handling index request")

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	page := dashboardPageView{}
	devices, err := s.refresher.Refresh(ctx, sess)
	if err != nil {
		s.logger.Error("failed to refresh device statuses", "error", err)
		page.ListError = errorMessage(err, msgDevicesFailed)
	}

	selected := r.URL.Query().Get("device")
	if selected == "" && len(devices) > 0 {
		selected = devices[0].ID
	}
	page.Devices = buildDeviceViews(devices, s.tracker, selected)
	page.SelectedID = selected

	if selected != "" {
		page.Latest = s.fetchLatestPanel(ctx, sess, selected)
		page.HasLatest = true
	}

	s.renderPage(w, "dashboard", page)
}

// handleAnalytics serves the range/chart page. A "hours" query parameter is
// the quick-range selector: it overwrites from/to with (now-H, now).
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireSession(w, r)
	if !ok {
		return
	}
	s.logger.Debug("handling analytics request")

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	page := analyticsPageView{
		Poll: r.URL.Query().Get("poll") == "on",
	}

	devices, err := s.api.Devices(ctx, sess)
	if err != nil {
		s.logger.Error("failed to fetch devices", "error", err)
		page.ListError = errorMessage(err, msgDevicesFailed)
	}

	selected := r.URL.Query().Get("device")
	if selected == "" && len(devices) > 0 {
		selected = devices[0].ID
	}
	page.Devices = buildDeviceViews(devices, s.tracker, selected)
	page.SelectedID = selected

	from, to, haveRange := rangeFromQuery(r, time.Now())
	if haveRange {
		page.FromValue = from.Local().Format(inputTimeLayout)
		page.ToValue = to.Local().Format(inputTimeLayout)
	}

	if selected != "" && haveRange {
		panel := s.fetchRangePanel(ctx, sess, selected, from, to)
		page.Range = &panel
	}

	s.renderPage(w, "analytics", page)
}

// handleAPIDevices serves the device list fragment for htmx. Each request
// runs one full status refresh cycle (device list plus sequential per-device
// probes).
func (s *Server) handleAPIDevices(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	s.logger.Debug("handling API devices request")

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	devices, err := s.refresher.Refresh(ctx, sess)
	if err != nil {
		s.logger.Error("failed to refresh device statuses", "error", err)
		s.renderPage(w, "device_list_error", errorMessage(err, msgDevicesFailed))
		return
	}

	selected := r.URL.Query().Get("device")
	s.renderPage(w, "device_list", buildDeviceViews(devices, s.tracker, selected))
}

// handleAPILatest serves the live reading panel fragment for htmx. The
// fragment fully replaces the previous panel, so any earlier reading or error
// is cleared before the new result is shown.
func (s *Server) handleAPILatest(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	deviceID := r.PathValue("id")
	s.logger.Debug("handling API latest request", "device_id", deviceID)

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	s.renderPage(w, "latest_panel", s.fetchLatestPanel(ctx, sess, deviceID))
}

// fetchLatestPanel fetches the latest reading for a device and builds the
// panel view. A 404 from the API is the expected "no data yet" condition and
// renders its own panel instead of the generic error banner; either way the
// device's status map entry is updated.
func (s *Server) fetchLatestPanel(ctx context.Context, sess sensorapi.Session, deviceID string) latestPanelView {
	reading, err := s.api.LatestReading(ctx, sess, deviceID)
	switch {
	case err == nil:
		online := status.IsOnline(reading, time.Now())
		s.tracker.Set(deviceID, online)
		return buildLatestPanel(deviceID, reading, online)
	case errors.Is(err, sensorapi.ErrNoData):
		s.tracker.Set(deviceID, false)
		return latestPanelView{DeviceID: deviceID, NoData: true}
	default:
		s.logger.Error("failed to fetch latest reading", "device_id", deviceID, "error", err)
		return latestPanelView{DeviceID: deviceID, Error: errorMessage(err, msgLatestFailed)}
	}
}

// handleAPIRange serves the analytics panel fragment for htmx. On fetch
// failure only an out-of-band error banner is returned, with HX-Reswap: none
// so the poller's innerHTML swap is suppressed and the previously rendered
// charts stay in place.
func (s *Server) handleAPIRange(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	deviceID := r.PathValue("id")
	from, to, haveRange := rangeFromQuery(r, time.Now())
	if deviceID == "" || !haveRange {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.logger.Debug("handling API range request", "device_id", deviceID,
		"from", from.Unix(), "to", to.Unix())

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	readings, err := s.api.ReadingRange(ctx, sess, deviceID, from, to)
	if err != nil {
		s.logger.Error("failed to fetch reading range", "device_id", deviceID, "error", err)
		w.Header().Set("HX-Reswap", "none")
		s.renderPage(w, "range_error_oob", errorMessage(err, msgRangeFailed))
		return
	}

	s.renderPage(w, "range_panel_fragment", buildRangePanel(deviceID, readings, from, to))
}

// fetchRangePanel fetches a range and builds the panel view, embedding the
// error banner text on failure.
func (s *Server) fetchRangePanel(ctx context.Context, sess sensorapi.Session, deviceID string, from, to time.Time) rangePanelView {
	readings, err := s.api.ReadingRange(ctx, sess, deviceID, from, to)
	if err != nil {
		s.logger.Error("failed to fetch reading range", "device_id", deviceID, "error", err)
		return rangePanelView{DeviceID: deviceID, Error: errorMessage(err, msgRangeFailed)}
	}
	return buildRangePanel(deviceID, readings, from, to)
}

// handleExport streams the fetched range as a CSV attachment. An empty result
// produces 204 No Content and no attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	deviceID := r.PathValue("id")
	from, to, haveRange := rangeFromQuery(r, time.Now())
	if deviceID == "" || !haveRange {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.logger.Debug("handling export request", "device_id", deviceID)

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	readings, err := s.api.ReadingRange(ctx, sess, deviceID, from, to)
	if err != nil {
		s.logger.Error("failed to fetch readings for export", "device_id", deviceID, "error", err)
		http.Error(w, errorMessage(err, msgRangeFailed), http.StatusBadGateway)
		return
	}
	if len(readings) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	filename := fmt.Sprintf("readings_%s_%d-%d.csv", deviceID, from.Unix(), to.Unix())
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := WriteCSV(w, readings); err != nil {
		s.logger.Error("failed to write CSV export", "device_id", deviceID, "error", err)
	}
}

// handleLoginPage serves the login form.
func (s *Server) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	s.renderPage(w, "login", loginPageView{})
}

// handleLoginSubmit stores the submitted API token in the session cookie.
func (s *Server) handleLoginSubmit(w http.ResponseWriter, r *http.Request) {
	token := r.FormValue("token")
	if token == "" {
		s.renderPage(w, "login", loginPageView{Error: "API token is required"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleLogout clears the session cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// handleHealth serves the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
		s.logger.Error("failed to write health response", "error", err)
	}
}

// rangeFromQuery resolves the requested time range. "hours" takes precedence
// as the quick-range selector; otherwise "from"/"to" are parsed as Unix
// seconds, RFC 3339, or the datetime-local input format.
func rangeFromQuery(r *http.Request, now time.Time) (from, to time.Time, ok bool) {
	q := r.URL.Query()

	if hoursStr := q.Get("hours"); hoursStr != "" {
		hours, err := strconv.Atoi(hoursStr)
		if err == nil && hours > 0 {
			return now.Add(-time.Duration(hours) * time.Hour), now, true
		}
	}

	from, fromOK := parseInstant(q.Get("from"))
	to, toOK := parseInstant(q.Get("to"))
	if !fromOK || !toOK {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// parseInstant parses a user- or link-supplied instant.
func parseInstant(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0), true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(inputTimeLayout, s, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
