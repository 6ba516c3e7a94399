// Package metrics implements mcpcore's performance metrics collection
// (§4.10): atomic counters with CAS-retried min/max latency tracking,
// on-demand derived metrics, a fixed-schema JSON export, and a ring-buffer
// history of periodic snapshots (a supplement beyond spec.md's
// instantaneous-counters baseline).
package metrics

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/brennhill/mcpcore/internal/buffers"
)

// Snapshot is the fixed-schema export mcpcore §6/§4.10 describes: every
// atomic counter plus the derived values computed at snapshot time.
type Snapshot struct {
	TotalRequests      int64   `json:"total_requests"`
	SuccessfulRequests int64   `json:"successful_requests"`
	FailedRequests     int64   `json:"failed_requests"`
	TimeoutRequests    int64   `json:"timeout_requests"`
	DeniedRequests     int64   `json:"denied_requests"`

	TotalLatencyMicros int64 `json:"total_latency_micros"`
	MinLatencyMicros   int64 `json:"min_latency_micros"`
	MaxLatencyMicros   int64 `json:"max_latency_micros"`

	BytesSent     int64 `json:"bytes_sent"`
	BytesReceived int64 `json:"bytes_received"`

	ActiveConnections int64 `json:"active_connections"`
	PeakConnections   int64 `json:"peak_connections"`

	StartedAt   time.Time `json:"started_at"`
	LastResetAt time.Time `json:"last_reset_at"`

	AvgLatencyMicros  float64 `json:"avg_latency_micros"`
	ThroughputPerSec  float64 `json:"throughput_per_sec"`
	ErrorRatePercent  float64 `json:"error_rate_percent"`
}

// unsetMin is the sentinel minLatency starts at; no request has landed yet.
const unsetMin = math.MaxInt64

// Collector is mcpcore's metrics collector. The zero value is not usable;
// construct with New.
type Collector struct {
	totalRequests      atomic.Int64
	successfulRequests atomic.Int64
	failedRequests     atomic.Int64
	timeoutRequests    atomic.Int64
	deniedRequests     atomic.Int64

	totalLatencyMicros atomic.Int64
	minLatencyMicros   atomic.Int64
	maxLatencyMicros   atomic.Int64

	bytesSent     atomic.Int64
	bytesReceived atomic.Int64

	activeConnections atomic.Int64
	peakConnections   atomic.Int64

	startedAt   atomic.Int64 // unix nanos
	lastResetAt atomic.Int64 // unix nanos

	history *buffers.RingBuffer[Snapshot]
	prom    *promCollectors
}

// Config configures a Collector.
type Config struct {
	// HistoryCapacity bounds the ring buffer of periodic snapshots kept
	// beyond the instantaneous counters (SUPPLEMENTED FEATURES). 0 uses a
	// reasonable default.
	HistoryCapacity int
	// Namespace prefixes the mirrored Prometheus collector names.
	// Empty uses "mcpcore".
	Namespace string
}

// New constructs a Collector with its counters zeroed and StartedAt set to
// now.
func New(cfg Config) *Collector {
	if cfg.HistoryCapacity <= 0 {
		cfg.HistoryCapacity = 288 // 24h of 5-minute snapshots, a reasonable default
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "mcpcore"
	}
	c := &Collector{
		history: buffers.NewRingBuffer[Snapshot](cfg.HistoryCapacity),
		prom:    newPromCollectors(cfg.Namespace),
	}
	now := time.Now().UnixNano()
	c.startedAt.Store(now)
	c.lastResetAt.Store(now)
	c.minLatencyMicros.Store(unsetMin)
	return c
}

// RecordRequest updates the request/latency counters for one completed
// request. outcome categorizes it for the successful/failed/timeout/denied
// counters (exactly one is incremented, plus total always increments).
func (c *Collector) RecordRequest(outcome Outcome, latency time.Duration) {
	c.totalRequests.Add(1)
	switch outcome {
	case OutcomeSuccess:
		c.successfulRequests.Add(1)
	case OutcomeFailed:
		c.failedRequests.Add(1)
	case OutcomeTimeout:
		c.timeoutRequests.Add(1)
	case OutcomeDenied:
		c.deniedRequests.Add(1)
	}

	micros := latency.Microseconds()
	c.totalLatencyMicros.Add(micros)
	casMin(&c.minLatencyMicros, micros)
	casMax(&c.maxLatencyMicros, micros)

	c.prom.observeRequest(string(outcome), latency)
}

// Outcome categorizes a completed request for the counters RecordRequest
// updates.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeTimeout Outcome = "timeout"
	OutcomeDenied  Outcome = "denied"
)

// casMin updates target to v if v is smaller, retrying under contention
// (mcpcore §4.10: "min/max updated by compare-and-swap retry").
func casMin(target *atomic.Int64, v int64) {
	for {
		cur := target.Load()
		if v >= cur {
			return
		}
		if target.CompareAndSwap(cur, v) {
			return
		}
	}
}

func casMax(target *atomic.Int64, v int64) {
	for {
		cur := target.Load()
		if v <= cur {
			return
		}
		if target.CompareAndSwap(cur, v) {
			return
		}
	}
}

// AddBytesSent/AddBytesReceived accumulate transport-level byte counters.
func (c *Collector) AddBytesSent(n int64)     { c.bytesSent.Add(n); c.prom.addBytesSent(n) }
func (c *Collector) AddBytesReceived(n int64) { c.bytesReceived.Add(n); c.prom.addBytesReceived(n) }

// ConnectionOpened increments active (and peak, if a new high) connections.
func (c *Collector) ConnectionOpened() {
	active := c.activeConnections.Add(1)
	for {
		peak := c.peakConnections.Load()
		if active <= peak {
			break
		}
		if c.peakConnections.CompareAndSwap(peak, active) {
			break
		}
	}
	c.prom.setActiveConnections(active)
}

// ConnectionClosed decrements active connections.
func (c *Collector) ConnectionClosed() {
	active := c.activeConnections.Add(-1)
	c.prom.setActiveConnections(active)
}

// Snapshot returns a point-in-time view of all counters plus derived
// metrics computed on demand (mcpcore §4.10).
func (c *Collector) Snapshot() Snapshot {
	startedAt := time.Unix(0, c.startedAt.Load())
	lastResetAt := time.Unix(0, c.lastResetAt.Load())

	total := c.totalRequests.Load()
	failed := c.failedRequests.Load()
	timeout := c.timeoutRequests.Load()
	denied := c.deniedRequests.Load()
	totalLatency := c.totalLatencyMicros.Load()

	minLatency := c.minLatencyMicros.Load()
	if minLatency == unsetMin {
		minLatency = 0
	}

	s := Snapshot{
		TotalRequests:      total,
		SuccessfulRequests: c.successfulRequests.Load(),
		FailedRequests:     failed,
		TimeoutRequests:    timeout,
		DeniedRequests:     denied,
		TotalLatencyMicros: totalLatency,
		MinLatencyMicros:   minLatency,
		MaxLatencyMicros:   c.maxLatencyMicros.Load(),
		BytesSent:          c.bytesSent.Load(),
		BytesReceived:      c.bytesReceived.Load(),
		ActiveConnections:  c.activeConnections.Load(),
		PeakConnections:    c.peakConnections.Load(),
		StartedAt:          startedAt,
		LastResetAt:        lastResetAt,
	}

	if total > 0 {
		s.AvgLatencyMicros = float64(totalLatency) / float64(total)
		s.ErrorRatePercent = float64(failed+timeout+denied) / float64(total) * 100
	}
	elapsed := time.Since(lastResetAt).Seconds()
	if elapsed > 0 {
		s.ThroughputPerSec = float64(total) / elapsed
	}
	return s
}

// Registry returns the Prometheus registry this Collector's mirrored
// collectors are registered on, for wiring into a /metrics HTTP handler.
func (c *Collector) Registry() *prometheus.Registry { return c.prom.registry }

// RecordSnapshot appends the current snapshot to the bounded history ring
// buffer. Intended to be called periodically (e.g. by a cron schedule).
func (c *Collector) RecordSnapshot() Snapshot {
	s := c.Snapshot()
	c.history.WriteOne(s)
	return s
}

// History returns snapshots recorded since cursor, and the cursor to
// resume from on the next call.
func (c *Collector) History(cursor buffers.BufferCursor) ([]Snapshot, buffers.BufferCursor) {
	return c.history.ReadFrom(cursor)
}

// Reset zeros the request/latency/byte counters. Per mcpcore §4.10:
// active_connections is preserved, and peak_connections is snapshotted to
// the current active count rather than zeroed.
func (c *Collector) Reset() {
	c.totalRequests.Store(0)
	c.successfulRequests.Store(0)
	c.failedRequests.Store(0)
	c.timeoutRequests.Store(0)
	c.deniedRequests.Store(0)
	c.totalLatencyMicros.Store(0)
	c.minLatencyMicros.Store(unsetMin)
	c.maxLatencyMicros.Store(0)
	c.bytesSent.Store(0)
	c.bytesReceived.Store(0)
	c.peakConnections.Store(c.activeConnections.Load())
	c.lastResetAt.Store(time.Now().UnixNano())
}
