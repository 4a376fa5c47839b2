package dashboard

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"envdash.dev/envdash/internal/sensorapi"
)

// ChartSVG renders a time-series line chart for one metric as an inline SVG.
// The horizontal axis spans [from, to]; the vertical axis spans the value
// range of the data with a small padding. Readings with unparsable timestamps
// are skipped.
func ChartSVG(readings []sensorapi.Reading, m Metric, from, to time.Time) template.HTML {
	const (
		width  = 640
		height = 160
	)

	span := to.Sub(from).Seconds()
	if span <= 0 || len(readings) == 0 {
		return template.HTML(fmt.Sprintf(
			`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" class="chart chart-empty"></svg>`,
			width, height))
	}

	s := ComputeStats(readings, m)
	lo, hi := s.Min, s.Max
	if hi == lo {
		// Flat series: open up a unit band so the line sits mid-chart.
		lo -= 1
		hi += 1
	}
	pad := (hi - lo) * 0.1
	lo -= pad
	hi += pad

	valueToY := func(v float64) int {
		return height - int((v-lo)/(hi-lo)*float64(height))
	}
	timeToX := func(t time.Time) int {
		return int(t.Sub(from).Seconds() / span * float64(width))
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf,
		`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" class="chart">`,
		width, height, width, height)
	buf.WriteString("\n")

	fmt.Fprintf(&buf, `<rect width="%d" height="%d" fill="white"/>`, width, height)
	buf.WriteString("\n")

	// Horizontal grid at quarters of the value range.
	buf.WriteString(`<g stroke="#ddd" stroke-width="1">` + "\n")
	for i := 1; i < 4; i++ {
		y := height * i / 4
		fmt.Fprintf(&buf, `<line x1="0" y1="%d" x2="%d" y2="%d"/>`, y, width, y)
		buf.WriteString("\n")
	}
	// Vertical grid at quarters of the time range.
	for i := 1; i < 4; i++ {
		x := width * i / 4
		fmt.Fprintf(&buf, `<line x1="%d" y1="0" x2="%d" y2="%d"/>`, x, x, height)
		buf.WriteString("\n")
	}
	buf.WriteString("</g>\n")

	buf.WriteString(`<polyline fill="none" stroke="#1f77b4" stroke-width="2" points="`)
	first := true
	for i := range readings {
		recorded, ok := readings[i].RecordedTime()
		if !ok {
			continue
		}
		if !first {
			buf.WriteByte(' ')
		}
		first = false
		fmt.Fprintf(&buf, "%d,%d", timeToX(recorded), valueToY(m.Value(&readings[i])))
	}
	buf.WriteString(`"/>` + "\n")

	buf.WriteString("</svg>")
	return template.HTML(buf.String()) // #nosec G203 -- SVG is built from numeric data only
}
