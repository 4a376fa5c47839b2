package sensorapi

import (
	"strconv"
	"time"
)

// Device is a registered sensor unit owned by a user. Devices are created by
// the sensor API backend and are read-only from the dashboard's perspective.
type Device struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HardwareID string `json:"hardware_id"`
	UserID     string `json:"user_id"`
	IsActive   bool   `json:"is_active"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// Reading is one timestamped multi-metric sensor sample. Readings are
// immutable once fetched; later fetches supersede them wholesale.
//
// RecordedAt is a string-encoded Unix epoch in seconds, as transmitted by the
// sensor API.
type Reading struct {
	ID          string  `json:"id"`
	DeviceID    string  `json:"device_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	CO          float64 `json:"co"`
	CO2         float64 `json:"co2"`
	CH4         float64 `json:"ch4"`
	LPG         float64 `json:"lpg"`
	PM25        float64 `json:"pm25"`
	PM10        float64 `json:"pm10"`
	Noise       float64 `json:"noise"`
	Light       float64 `json:"light"`
	RecordedAt  string  `json:"recorded_at"`
}

// RecordedTime parses the RecordedAt epoch string. The second return value is
// false when the field does not hold a valid integer.
func (r *Reading) RecordedTime() (time.Time, bool) {
	secs, err := strconv.ParseInt(r.RecordedAt, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(secs, 0), true
}

// Session carries the bearer token for a single user's API access. It is
// constructed per request and passed explicitly to every client call; no
// ambient token storage exists.
type Session struct {
	Token string
}
