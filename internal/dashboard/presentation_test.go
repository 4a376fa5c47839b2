package dashboard_test

import (
	"bytes"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"envdash.dev/envdash/internal/dashboard"
	"envdash.dev/envdash/internal/sensorapi"
)

func metricByKey(key string) dashboard.Metric {
	for _, m := range dashboard.Metrics {
		if m.Key == key {
			return m
		}
	}
	Fail("unknown metric key: " + key)
	return dashboard.Metric{}
}

var _ = Describe("Metrics table", func() {
	It("should list the eleven sensor metrics in display order", func() {
		Expect(dashboard.Metrics).To(HaveLen(11))
		Expect(dashboard.Metrics[0].Key).To(Equal("temperature"))
		Expect(dashboard.Metrics[len(dashboard.Metrics)-1].Key).To(Equal("light"))
	})

	It("should extract the matching reading field", func() {
		r := &sensorapi.Reading{Temperature: 21.5, PM25: 12.5, Light: 800}
		Expect(metricByKey("temperature").Value(r)).To(Equal(21.5))
		Expect(metricByKey("pm25").Value(r)).To(Equal(12.5))
		Expect(metricByKey("light").Value(r)).To(Equal(800.0))
	})
})

var _ = Describe("Classify", func() {
	DescribeTable("should classify values against the threshold table",
		func(key string, value float64, expected dashboard.Severity) {
			Expect(dashboard.Classify(key, value)).To(Equal(expected))
		},
		Entry("comfortable temperature", "temperature", 22.0, dashboard.SeverityOK),
		Entry("temperature at the low bound", "temperature", 18.0, dashboard.SeverityOK),
		Entry("temperature below the comfort band", "temperature", 12.0, dashboard.SeverityAlert),
		Entry("temperature above the comfort band", "temperature", 30.0, dashboard.SeverityAlert),
		Entry("normal CO", "co", 0.4, dashboard.SeverityOK),
		Entry("CO above 3 ppm", "co", 3.5, dashboard.SeverityAlert),
		Entry("moderate PM2.5", "pm25", 80.0, dashboard.SeverityOK),
		Entry("PM2.5 above 150", "pm25", 200.0, dashboard.SeverityWarn),
		Entry("PM2.5 above 300", "pm25", 320.0, dashboard.SeverityAlert),
		Entry("stuffy CO2", "co2", 1500.0, dashboard.SeverityWarn),
		Entry("dangerous CO2", "co2", 2500.0, dashboard.SeverityAlert),
		Entry("dry air", "humidity", 20.0, dashboard.SeverityWarn),
		Entry("loud noise", "noise", 90.0, dashboard.SeverityWarn),
		Entry("pressure has no thresholds", "pressure", 700.0, dashboard.SeverityOK),
		Entry("light has no thresholds", "light", 100000.0, dashboard.SeverityOK),
		Entry("unknown metric is neutral", "radon", 1e9, dashboard.SeverityOK),
	)
})

var _ = Describe("ComputeStats", func() {
	It("should compute min, average and max in one pass", func() {
		readings := []sensorapi.Reading{
			{Temperature: 20},
			{Temperature: 22},
			{Temperature: 24},
		}
		s := dashboard.ComputeStats(readings, metricByKey("temperature"))
		Expect(s.Min).To(Equal(20.0))
		Expect(s.Avg).To(Equal(22.0))
		Expect(s.Max).To(Equal(24.0))
	})

	It("should return the zero value for an empty collection", func() {
		s := dashboard.ComputeStats(nil, metricByKey("temperature"))
		Expect(s).To(Equal(dashboard.Stats{}))
	})

	It("should handle a single reading", func() {
		s := dashboard.ComputeStats([]sensorapi.Reading{{Noise: 42}}, metricByKey("noise"))
		Expect(s.Min).To(Equal(42.0))
		Expect(s.Avg).To(Equal(42.0))
		Expect(s.Max).To(Equal(42.0))
	})
})

var _ = Describe("WriteCSV", func() {
	It("should write the fixed header including CO2", func() {
		var buf bytes.Buffer
		err := dashboard.WriteCSV(&buf, []sensorapi.Reading{{RecordedAt: "1767225600"}})
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines[0]).To(Equal("Timestamp,Temperature,Humidity,Pressure,CO,CO2,Methane,LPG,PM2.5,PM10,Noise,Light"))
	})

	It("should write one row per reading with RFC 3339 timestamps", func() {
		var buf bytes.Buffer
		readings := []sensorapi.Reading{
			{RecordedAt: "1767225600", Temperature: 20.5, CO2: 450},
			{RecordedAt: "1767225660", Temperature: 21, CO2: 455},
		}
		err := dashboard.WriteCSV(&buf, readings)
		Expect(err).NotTo(HaveOccurred())

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		Expect(lines).To(HaveLen(3))
		Expect(lines[1]).To(HavePrefix(time.Unix(1767225600, 0).UTC().Format(time.RFC3339)))
		Expect(lines[1]).To(ContainSubstring(",20.5,"))
		Expect(lines[1]).To(ContainSubstring(",450,"))
	})

	It("should keep the raw timestamp when it cannot be parsed", func() {
		var buf bytes.Buffer
		err := dashboard.WriteCSV(&buf, []sensorapi.Reading{{RecordedAt: "garbage"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(buf.String()).To(ContainSubstring("garbage"))
	})
})

var _ = Describe("ChartSVG", func() {
	var from, to time.Time

	BeforeEach(func() {
		from = time.Unix(1767225600, 0)
		to = from.Add(time.Hour)
	})

	It("should render a polyline for the series", func() {
		readings := []sensorapi.Reading{
			{Temperature: 20, RecordedAt: "1767225600"},
			{Temperature: 22, RecordedAt: "1767227400"},
			{Temperature: 24, RecordedAt: "1767229200"},
		}
		svg := string(dashboard.ChartSVG(readings, metricByKey("temperature"), from, to))
		Expect(svg).To(ContainSubstring("<svg"))
		Expect(svg).To(ContainSubstring("<polyline"))
		Expect(svg).To(HaveSuffix("</svg>"))
	})

	It("should render an empty chart for no data", func() {
		svg := string(dashboard.ChartSVG(nil, metricByKey("temperature"), from, to))
		Expect(svg).To(ContainSubstring("chart-empty"))
		Expect(svg).NotTo(ContainSubstring("polyline"))
	})

	It("should render an empty chart for an inverted range", func() {
		readings := []sensorapi.Reading{{Temperature: 20, RecordedAt: "1767225600"}}
		svg := string(dashboard.ChartSVG(readings, metricByKey("temperature"), to, from))
		Expect(svg).To(ContainSubstring("chart-empty"))
	})

	It("should skip readings with unparsable timestamps", func() {
		readings := []sensorapi.Reading{
			{Temperature: 20, RecordedAt: "1767225600"},
			{Temperature: 99, RecordedAt: "bad"},
		}
		svg := string(dashboard.ChartSVG(readings, metricByKey("temperature"), from, to))
		Expect(svg).To(ContainSubstring("<polyline"))
	})
})
