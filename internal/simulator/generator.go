package simulator

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	"envdash.dev/envdash/internal/sensorapi"
)

// deviceIdentity is filled by gofakeit to give simulated devices plausible
// names and hardware identifiers.
type deviceIdentity struct {
	Name       string `fake:"{city}"`
	HardwareID string `fake:"{macaddress}"`
}

// NewDevice creates a simulated device with a fake identity.
func NewDevice() sensorapi.Device {
	var identity deviceIdentity
	if err := gofakeit.Struct(&identity); err != nil {
		identity.Name = "sensor"
		identity.HardwareID = "00:00:00:00:00:00"
	}

	now := time.Now().UTC().Format(time.RFC3339)
	return sensorapi.Device{
		ID:         uuid.NewString(),
		Name:       identity.Name,
		HardwareID: identity.HardwareID,
		UserID:     uuid.NewString(),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ReadingGenerator produces synthetic readings for one device with realistic
// shapes: a daily temperature cycle, inversely correlated humidity, and a
// slow random-walk pressure, plus gas, particulate, noise and light channels.
type ReadingGenerator struct {
	deviceID         string
	baselineTemp     float64
	baselineHumidity float64
	baselinePressure float64
	baselineCO2      float64
	jitter           float64
	pressureTrend    float64
	lastPressure     float64
	lastPM25         float64
}

// NewReadingGenerator creates a generator with randomized baselines.
func NewReadingGenerator(deviceID string) *ReadingGenerator {
	return &ReadingGenerator{
		deviceID:         deviceID,
		baselineTemp:     20.0 + rand.Float64()*6,           // 20-26°C
		baselineHumidity: 40.0 + rand.Float64()*20,          // 40-60%
		baselinePressure: 1013.0 + (rand.Float64()-0.5)*20,  // 1003-1023 hPa
		baselineCO2:      420.0 + rand.Float64()*200,        // outdoor-ish to stuffy
		jitter:           0.5 + rand.Float64()*1.5,
		pressureTrend:    (rand.Float64() - 0.5) * 0.5,
		lastPressure:     1013.0,
		lastPM25:         10 + rand.Float64()*20,
	}
}

// temperature with a daily cycle peaking in the early afternoon.
func (g *ReadingGenerator) temperature(t time.Time) float64 {
	hour := float64(t.Hour())
	dailyCycle := 4 * math.Sin((hour-6)*math.Pi/12)
	noise := (rand.Float64() - 0.5) * g.jitter
	return g.baselineTemp + dailyCycle + noise
}

// humidity inversely correlated with temperature.
func (g *ReadingGenerator) humidity(t time.Time, temperature float64) float64 {
	hour := float64(t.Hour())
	dailyCycle := -3 * math.Sin((hour-6)*math.Pi/12)
	tempEffect := -(temperature - g.baselineTemp) * 1.5
	noise := (rand.Float64() - 0.5) * g.jitter
	h := g.baselineHumidity + dailyCycle + tempEffect + noise
	return math.Max(20, math.Min(95, h))
}

// pressure as a slow random walk with an occasionally reversing trend.
func (g *ReadingGenerator) pressure() float64 {
	randomChange := (rand.Float64() - 0.5) * 0.5
	if rand.Float64() < 0.1 {
		g.pressureTrend = -g.pressureTrend + (rand.Float64()-0.5)*0.2
	}
	p := g.lastPressure + randomChange + g.pressureTrend
	p = g.baselinePressure + (p-g.baselinePressure)*0.7
	p = math.Max(980, math.Min(1040, p))
	g.lastPressure = p
	return p
}

// pm25 as a bounded random walk; pm10 is derived from it.
func (g *ReadingGenerator) pm25() float64 {
	g.lastPM25 += (rand.Float64() - 0.5) * 4
	g.lastPM25 = math.Max(2, math.Min(200, g.lastPM25))
	return g.lastPM25
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Generate produces the reading for instant t.
func (g *ReadingGenerator) Generate(t time.Time) sensorapi.Reading {
	temperature := g.temperature(t)
	humidity := g.humidity(t, temperature)
	pressure := g.pressure()
	pm25 := g.pm25()
	pm10 := pm25*1.6 + rand.Float64()*5

	hour := float64(t.Hour())
	// Occupancy-shaped channels: CO2 and noise rise during the day, light
	// follows daylight.
	dayFactor := math.Max(0, math.Sin((hour-6)*math.Pi/12))
	co2 := g.baselineCO2 + 400*dayFactor + rand.Float64()*50
	noise := 35 + 30*dayFactor + rand.Float64()*5
	light := 800*dayFactor + rand.Float64()*20

	co := 0.2 + rand.Float64()*0.6
	ch4 := 1.5 + rand.Float64()*1.0
	lpg := 0.8 + rand.Float64()*0.6
	// Rare gas spikes to exercise the alert thresholds.
	if rand.Float64() < 0.02 {
		co += 3 + rand.Float64()*2
	}

	return sensorapi.Reading{
		ID:          uuid.NewString(),
		DeviceID:    g.deviceID,
		Temperature: round2(temperature),
		Humidity:    round2(humidity),
		Pressure:    round2(pressure),
		CO:          round2(co),
		CO2:         round1(co2),
		CH4:         round2(ch4),
		LPG:         round2(lpg),
		PM25:        round1(pm25),
		PM10:        round1(pm10),
		Noise:       round1(noise),
		Light:       round1(light),
		RecordedAt:  strconv.FormatInt(t.Unix(), 10),
	}
}
