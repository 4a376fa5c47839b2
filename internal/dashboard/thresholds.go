package dashboard

import "math"

// Severity classifies a metric value against its threshold bands. The string
// values double as CSS class names in the templates.
type Severity string

const (
	SeverityOK    Severity = "ok"
	SeverityWarn  Severity = "warn"
	SeverityAlert Severity = "alert"
)

// Threshold defines the acceptable bands for one metric. Values outside
// [AlertMin, AlertMax] classify as alert; otherwise values outside
// [WarnMin, WarnMax] classify as warn. Unused bounds are infinite.
type Threshold struct {
	WarnMin  float64
	WarnMax  float64
	AlertMin float64
	AlertMax float64
}

var (
	inf    = math.Inf(1)
	negInf = math.Inf(-1)
)

// thresholds is the fixed per-metric threshold table. Metrics without an
// entry always classify as ok.
var thresholds = map[string]Threshold{
	"temperature": {WarnMin: negInf, WarnMax: inf, AlertMin: 18, AlertMax: 26},
	"humidity":    {WarnMin: 30, WarnMax: 70, AlertMin: negInf, AlertMax: inf},
	"co":          {WarnMin: negInf, WarnMax: inf, AlertMin: negInf, AlertMax: 3},
	"co2":         {WarnMin: negInf, WarnMax: 1000, AlertMin: negInf, AlertMax: 2000},
	"ch4":         {WarnMin: negInf, WarnMax: inf, AlertMin: negInf, AlertMax: 1000},
	"lpg":         {WarnMin: negInf, WarnMax: inf, AlertMin: negInf, AlertMax: 1000},
	"pm25":        {WarnMin: negInf, WarnMax: 150, AlertMin: negInf, AlertMax: 300},
	"pm10":        {WarnMin: negInf, WarnMax: 150, AlertMin: negInf, AlertMax: 300},
	"noise":       {WarnMin: negInf, WarnMax: 85, AlertMin: negInf, AlertMax: inf},
}

// Classify returns the severity for a metric value.
func Classify(metricKey string, value float64) Severity {
	t, ok := thresholds[metricKey]
	if !ok {
		return SeverityOK
	}
	if value < t.AlertMin || value > t.AlertMax {
		return SeverityAlert
	}
	if value < t.WarnMin || value > t.WarnMax {
		return SeverityWarn
	}
	return SeverityOK
}
