package dashboard

import (
	"html/template"
	"strconv"
	"time"

	"envdash.dev/envdash/internal/sensorapi"
	"envdash.dev/envdash/internal/status"
)

// deviceView is one entry in the sidebar device list.
type deviceView struct {
	ID       string
	Name     string
	Online   bool
	Selected bool
}

// metricCardView is one metric card on the live dashboard.
type metricCardView struct {
	Label    string
	Unit     string
	Value    string
	Severity Severity
}

// latestPanelView is the live reading panel for the selected device. Exactly
// one of Cards / NoData / Error is populated.
type latestPanelView struct {
	DeviceID   string
	Online     bool
	NoData     bool
	Error      string
	RecordedAt string
	Cards      []metricCardView
}

// chartView is one metric chart with its aggregate statistics.
type chartView struct {
	Label string
	Unit  string
	SVG   template.HTML
	Min   string
	Avg   string
	Max   string
}

// rangePanelView is the analytics panel for one fetched range.
type rangePanelView struct {
	DeviceID  string
	FromParam string
	ToParam   string
	FromLabel string
	ToLabel   string
	Count     int
	Charts    []chartView
	Error     string
}

// dashboardPageView is the live dashboard page.
type dashboardPageView struct {
	Devices    []deviceView
	SelectedID string
	ListError  string
	Latest     latestPanelView
	HasLatest  bool
}

// analyticsPageView is the analytics page.
type analyticsPageView struct {
	Devices    []deviceView
	SelectedID string
	FromValue  string
	ToValue    string
	Poll       bool
	ListError  string
	Range      *rangePanelView
}

// loginPageView is the login page.
type loginPageView struct {
	Error string
}

const (
	displayTimeLayout = "2006-01-02 15:04:05"
	inputTimeLayout   = "2006-01-02T15:04"
)

func fmtValue(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// buildDeviceViews merges the fetched device list with the status map.
func buildDeviceViews(devices []sensorapi.Device, tracker *status.Tracker, selectedID string) []deviceView {
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, deviceView{
			ID:       d.ID,
			Name:     d.Name,
			Online:   tracker.Online(d.ID),
			Selected: d.ID == selectedID,
		})
	}
	return views
}

// buildLatestPanel builds the metric cards for a fetched reading.
func buildLatestPanel(deviceID string, r *sensorapi.Reading, online bool) latestPanelView {
	cards := make([]metricCardView, 0, len(Metrics))
	for _, m := range Metrics {
		v := m.Value(r)
		cards = append(cards, metricCardView{
			Label:    m.Label,
			Unit:     m.Unit,
			Value:    fmtValue(v),
			Severity: Classify(m.Key, v),
		})
	}

	recorded := r.RecordedAt
	if t, ok := r.RecordedTime(); ok {
		recorded = t.Local().Format(displayTimeLayout)
	}

	return latestPanelView{
		DeviceID:   deviceID,
		Online:     online,
		RecordedAt: recorded,
		Cards:      cards,
	}
}

// buildRangePanel builds per-metric charts and statistics for a fetched range.
func buildRangePanel(deviceID string, readings []sensorapi.Reading, from, to time.Time) rangePanelView {
	charts := make([]chartView, 0, len(Metrics))
	for _, m := range Metrics {
		s := ComputeStats(readings, m)
		charts = append(charts, chartView{
			Label: m.Label,
			Unit:  m.Unit,
			SVG:   ChartSVG(readings, m, from, to),
			Min:   fmtValue(s.Min),
			Avg:   fmtValue(s.Avg),
			Max:   fmtValue(s.Max),
		})
	}

	return rangePanelView{
		DeviceID:  deviceID,
		FromParam: strconv.FormatInt(from.Unix(), 10),
		ToParam:   strconv.FormatInt(to.Unix(), 10),
		FromLabel: from.Local().Format(displayTimeLayout),
		ToLabel:   to.Local().Format(displayTimeLayout),
		Count:     len(readings),
		Charts:    charts,
	}
}
