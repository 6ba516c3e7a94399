package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// promCollectors mirrors the Collector's atomic counters into Prometheus
// collectors, per DOMAIN STACK — the §6 fixed-schema JSON export remains
// the primary contract; these exist alongside it for scraping. Each
// Collector owns a private prometheus.Registry rather than registering
// into the global DefaultRegisterer, so constructing more than one
// Collector (as every test in this package does) never hits a duplicate-
// registration panic.
type promCollectors struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	bytesSentTotal    prometheus.Counter
	bytesRecvTotal    prometheus.Counter
	activeConnections prometheus.Gauge
}

func newPromCollectors(namespace string) *promCollectors {
	p := &promCollectors{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of dispatched requests by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Request handling duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		bytesSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_sent_total",
			Help:      "Total bytes sent across all transports.",
		}),
		bytesRecvTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_received_total",
			Help:      "Total bytes received across all transports.",
		}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_connections",
			Help:      "Current number of open client connections.",
		}),
	}
	p.registry.MustRegister(p.requestsTotal, p.requestDuration, p.bytesSentTotal, p.bytesRecvTotal, p.activeConnections)
	return p
}

func (p *promCollectors) observeRequest(outcome string, d time.Duration) {
	p.requestsTotal.WithLabelValues(outcome).Inc()
	p.requestDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

func (p *promCollectors) addBytesSent(n int64) {
	if n > 0 {
		p.bytesSentTotal.Add(float64(n))
	}
}

func (p *promCollectors) addBytesReceived(n int64) {
	if n > 0 {
		p.bytesRecvTotal.Add(float64(n))
	}
}

func (p *promCollectors) setActiveConnections(n int64) {
	p.activeConnections.Set(float64(n))
}
