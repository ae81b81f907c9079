package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outgoing-request metrics for the API client.
var (
	requestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "carelink_client_in_flight_requests",
		Help: "In-flight requests to the care backend.",
	})

	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "carelink_client_requests_total",
			Help: "Total requests issued to the care backend.",
		},
		[]string{"method", "status"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "carelink_client_request_duration_seconds",
			Help:    "Care backend request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)
)

// Init registers the client metrics in the default registry.
func Init() {
	prometheus.MustRegister(requestsInFlight, requestsTotal, requestDuration)
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}

// InstrumentTransport wraps a RoundTripper so every outgoing request is
// counted and timed. A nil next falls back to the default transport.
func InstrumentTransport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		requestsInFlight.Inc()
		start := time.Now()

		resp, err := next.RoundTrip(r)

		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		requestDuration.WithLabelValues(r.Method, status).Observe(time.Since(start).Seconds())
		requestsTotal.WithLabelValues(r.Method, status).Inc()
		requestsInFlight.Dec()
		return resp, err
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }
