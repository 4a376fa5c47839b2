package dashboard

import (
	"envdash.dev/envdash/internal/sensorapi"
)

// Metric describes one of the fixed sensor metrics: its stable key, display
// label, unit, and how to read its value out of a Reading.
type Metric struct {
	Key   string
	Label string
	Unit  string
	Value func(r *sensorapi.Reading) float64
}

// Metrics is the fixed, ordered list of sensor metrics. The order defines the
// card layout, the chart order on the analytics page, and the CSV column
// order.
var Metrics = []Metric{
	{Key: "temperature", Label: "Temperature", Unit: "°C", Value: func(r *sensorapi.Reading) float64 { return r.Temperature }},
	{Key: "humidity", Label: "Humidity", Unit: "%", Value: func(r *sensorapi.Reading) float64 { return r.Humidity }},
	{Key: "pressure", Label: "Pressure", Unit: "hPa", Value: func(r *sensorapi.Reading) float64 { return r.Pressure }},
	{Key: "co", Label: "CO", Unit: "ppm", Value: func(r *sensorapi.Reading) float64 { return r.CO }},
	{Key: "co2", Label: "CO2", Unit: "ppm", Value: func(r *sensorapi.Reading) float64 { return r.CO2 }},
	{Key: "ch4", Label: "Methane", Unit: "ppm", Value: func(r *sensorapi.Reading) float64 { return r.CH4 }},
	{Key: "lpg", Label: "LPG", Unit: "ppm", Value: func(r *sensorapi.Reading) float64 { return r.LPG }},
	{Key: "pm25", Label: "PM2.5", Unit: "µg/m³", Value: func(r *sensorapi.Reading) float64 { return r.PM25 }},
	{Key: "pm10", Label: "PM10", Unit: "µg/m³", Value: func(r *sensorapi.Reading) float64 { return r.PM10 }},
	{Key: "noise", Label: "Noise", Unit: "dB", Value: func(r *sensorapi.Reading) float64 { return r.Noise }},
	{Key: "light", Label: "Light", Unit: "lx", Value: func(r *sensorapi.Reading) float64 { return r.Light }},
}

// Stats holds the aggregate statistics for one metric over a reading
// collection.
type Stats struct {
	Min float64
	Avg float64
	Max float64
}

// ComputeStats computes min/avg/max for a metric in a single linear pass.
// The zero Stats is returned for an empty collection.
func ComputeStats(readings []sensorapi.Reading, m Metric) Stats {
	if len(readings) == 0 {
		return Stats{}
	}

	first := m.Value(&readings[0])
	s := Stats{Min: first, Max: first}
	sum := first
	for i := 1; i < len(readings); i++ {
		v := m.Value(&readings[i])
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
		sum += v
	}
	s.Avg = sum / float64(len(readings))
	return s
}
