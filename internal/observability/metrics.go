package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	ActiveListings prometheus.Gauge
	FormEvents     *prometheus.CounterVec
	ListingEvents  *prometheus.CounterVec
	GatewayErrors  *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		ActiveListings: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_listings",
			Help:      "Number of listings currently inside their validity window.",
		}),
		FormEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "form_events_total",
			Help:      "Form engine inputs by result.",
		}, []string{"result"}),
		ListingEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listing_events_total",
			Help:      "Listing lifecycle events by type.",
		}, []string{"event"}),
		GatewayErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_errors_total",
			Help:      "Outbound gateway failures by operation.",
		}, []string{"op"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
