package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(gatewayRequestDuration) }

// endpoint: promo|initiate|status
var gatewayRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "gateway_request_duration_seconds",
		Help:    "Latency of calls to the payment backend in seconds.",
		Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	},
	[]string{"endpoint", "success"},
)

func ObserveGatewayRequest(endpoint string, started time.Time, success bool) {
	gatewayRequestDuration.WithLabelValues(norm(endpoint), strconv.FormatBool(success)).
		Observe(time.Since(started).Seconds())
}
