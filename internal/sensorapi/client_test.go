package sensorapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"envdash.dev/envdash/internal/sensorapi"
)

var _ = Describe("Client", func() {
	var (
		logger *slog.Logger
		sess   sensorapi.Session
	)

	BeforeEach(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		sess = sensorapi.Session{Token: "secret-token"}
	})

	newClient := func(baseURL string) *sensorapi.Client {
		client, err := sensorapi.NewClient(&sensorapi.ClientConfig{
			Logger:  logger,
			BaseURL: baseURL,
			Timeout: 2 * time.Second,
		})
		Expect(err).NotTo(HaveOccurred())
		return client
	}

	Describe("NewClient", func() {
		It("should reject a nil config", func() {
			client, err := sensorapi.NewClient(nil)
			Expect(err).To(HaveOccurred())
			Expect(client).To(BeNil())
		})

		It("should reject an empty base URL", func() {
			client, err := sensorapi.NewClient(&sensorapi.ClientConfig{Logger: logger})
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("base URL"))
			Expect(client).To(BeNil())
		})

		It("should reject a nil logger", func() {
			client, err := sensorapi.NewClient(&sensorapi.ClientConfig{BaseURL: "http://localhost"})
			Expect(err).To(HaveOccurred())
			Expect(client).To(BeNil())
		})
	})

	Describe("Devices", func() {
		It("should fetch the device list with the session's bearer token", func() {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/devices"))
				gotAuth = r.Header.Get("Authorization")
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode([]sensorapi.Device{
					{ID: "d1", Name: "living room"},
					{ID: "d2", Name: "garage"},
				})
			}))
			defer server.Close()

			devices, err := newClient(server.URL).Devices(context.Background(), sess)
			Expect(err).NotTo(HaveOccurred())
			Expect(devices).To(HaveLen(2))
			Expect(devices[0].ID).To(Equal("d1"))
			Expect(gotAuth).To(Equal("Bearer secret-token"))
		})

		It("should return a StatusError on a non-success response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			devices, err := newClient(server.URL).Devices(context.Background(), sess)
			Expect(devices).To(BeNil())

			var statusErr *sensorapi.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.Code).To(Equal(http.StatusInternalServerError))
		})

		It("should return a wrapped transport error when the server is unreachable", func() {
			devices, err := newClient("http://127.0.0.1:1").Devices(context.Background(), sess)
			Expect(err).To(HaveOccurred())
			Expect(devices).To(BeNil())
		})
	})

	Describe("LatestReading", func() {
		It("should return ErrNoDevice for an empty device ID", func() {
			reading, err := newClient("http://localhost").LatestReading(context.Background(), sess, "")
			Expect(err).To(MatchError(sensorapi.ErrNoDevice))
			Expect(reading).To(BeNil())
		})

		It("should fetch the latest reading", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/data/latest/d1"))
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(sensorapi.Reading{
					ID:          "r1",
					DeviceID:    "d1",
					Temperature: 21.5,
					RecordedAt:  "1767225600",
				})
			}))
			defer server.Close()

			reading, err := newClient(server.URL).LatestReading(context.Background(), sess, "d1")
			Expect(err).NotTo(HaveOccurred())
			Expect(reading.Temperature).To(Equal(21.5))
			Expect(reading.RecordedAt).To(Equal("1767225600"))
		})

		It("should map a 404 to ErrNoData", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			reading, err := newClient(server.URL).LatestReading(context.Background(), sess, "d1")
			Expect(err).To(MatchError(sensorapi.ErrNoData))
			Expect(reading).To(BeNil())
		})

		It("should return a StatusError for other failure statuses", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			}))
			defer server.Close()

			_, err := newClient(server.URL).LatestReading(context.Background(), sess, "d1")
			var statusErr *sensorapi.StatusError
			Expect(errors.As(err, &statusErr)).To(BeTrue())
			Expect(statusErr.Code).To(Equal(http.StatusBadGateway))
		})
	})

	Describe("ReadingRange", func() {
		It("should send whole Unix seconds on the wire", func() {
			var gotQuery map[string]string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/data/range"))
				gotQuery = map[string]string{
					"device_id": r.URL.Query().Get("device_id"),
					"from_ts":   r.URL.Query().Get("from_ts"),
					"to_ts":     r.URL.Query().Get("to_ts"),
				}
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode([]sensorapi.Reading{})
			}))
			defer server.Close()

			from := time.Unix(1767225600, 999_000_000) // sub-second part must be dropped
			to := time.Unix(1767229200, 1)
			_, err := newClient(server.URL).ReadingRange(context.Background(), sess, "d1", from, to)
			Expect(err).NotTo(HaveOccurred())
			Expect(gotQuery["device_id"]).To(Equal("d1"))
			Expect(gotQuery["from_ts"]).To(Equal("1767225600"))
			Expect(gotQuery["to_ts"]).To(Equal("1767229200"))
		})

		It("should replace the collection wholesale on success", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode([]sensorapi.Reading{
					{ID: "r1", Temperature: 20},
					{ID: "r2", Temperature: 22},
					{ID: "r3", Temperature: 24},
				})
			}))
			defer server.Close()

			readings, err := newClient(server.URL).ReadingRange(
				context.Background(), sess, "d1", time.Unix(0, 0), time.Unix(10, 0))
			Expect(err).NotTo(HaveOccurred())
			Expect(readings).To(HaveLen(3))
		})

		It("should return ErrNoDevice for an empty device ID", func() {
			_, err := newClient("http://localhost").ReadingRange(
				context.Background(), sess, "", time.Unix(0, 0), time.Unix(10, 0))
			Expect(err).To(MatchError(sensorapi.ErrNoDevice))
		})
	})
})

var _ = Describe("Reading", func() {
	Describe("RecordedTime", func() {
		It("should parse a valid epoch string", func() {
			r := &sensorapi.Reading{RecordedAt: "1767225600"}
			t, ok := r.RecordedTime()
			Expect(ok).To(BeTrue())
			Expect(t.Unix()).To(Equal(int64(1767225600)))
		})

		It("should reject a non-numeric value", func() {
			r := &sensorapi.Reading{RecordedAt: "yesterday"}
			_, ok := r.RecordedTime()
			Expect(ok).To(BeFalse())
		})

		It("should reject an empty value", func() {
			r := &sensorapi.Reading{}
			_, ok := r.RecordedTime()
			Expect(ok).To(BeFalse())
		})
	})
})
