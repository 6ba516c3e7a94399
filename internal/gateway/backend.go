package gateway

import (
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Backend is a routable destination: (method, request) lookups resolve to
// one of these (mcpcore §4.9). Backends are reference-counted (REFINEMENTS
// (b)) rather than RCU-drained: every routing-table entry and every cache
// entry holding a *Backend retains it, and the backend is closed once its
// count drops to zero, so a reader holding a stale pointer from before a
// reload never observes a freed backend.
type Backend struct {
	ID      string
	Address string

	refcount atomic.Int32
	closed   atomic.Bool
	log      *logrus.Entry
}

func newBackend(id, address string, log *logrus.Entry) *Backend {
	return &Backend{ID: id, Address: address, log: log}
}

func (b *Backend) retain() { b.refcount.Add(1) }

// release drops a reference, closing the backend once the count reaches
// zero. Safe to call more times than retain was called in aggregate only if
// the caller never double-releases the same retain — each retain must be
// matched by exactly one release.
func (b *Backend) release() {
	if b.refcount.Add(-1) <= 0 {
		b.close()
	}
}

func (b *Backend) close() {
	if b.closed.CompareAndSwap(false, true) {
		b.log.WithField("backend", b.ID).Info("gateway: backend closed")
	}
}
