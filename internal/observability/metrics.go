package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the application's Prometheus collectors
type Metrics struct {
	ReportsDecoded       prometheus.Counter
	PrecipReports        prometheus.Counter
	DecodeDuration       prometheus.Histogram
	FetchErrorsTotal     prometheus.Counter
	FetchSuccessTotal    prometheus.Counter
	APIRequestsTotal     *prometheus.CounterVec
	WebSocketClients     prometheus.Gauge
	RainEventsRecorded   prometheus.Counter
	ForecastsRecorded    prometheus.Counter
}

// New registers the application metrics with reg under the given namespace.
// Pass prometheus.DefaultRegisterer to expose them on the standard /metrics
// handler; tests pass their own registry.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReportsDecoded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_decoded_total",
			Help:      "Total number of METAR/SPECI reports decoded",
		}),
		PrecipReports: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "precipitating_reports_total",
			Help:      "Total number of decoded reports flagged as precipitating",
		}),
		DecodeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "decode_duration_seconds",
			Help:      "Time spent decoding a single report",
			Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		}),
		FetchErrorsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metar_fetch_errors_total",
			Help:      "Total number of failed METAR fetch attempts",
		}),
		FetchSuccessTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metar_fetch_success_total",
			Help:      "Total number of successful METAR fetches",
		}),
		APIRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of API requests by endpoint and status",
		}, []string{"endpoint", "status"}),
		WebSocketClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected WebSocket clients",
		}),
		RainEventsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rain_events_recorded_total",
			Help:      "Total number of manually logged rain events",
		}),
		ForecastsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_recorded_total",
			Help:      "Total number of operator-entered forecasts",
		}),
	}
}
