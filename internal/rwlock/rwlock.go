// Package rwlock provides a cache-line-padded reader/writer lock (mcpcore
// §4.2). It wraps sync.RWMutex — Go's RWMutex is itself backed by the
// runtime's OS-primitive-aware semaphore, which is the same guarantee the
// spec asks for ("no writer starvation beyond the underlying OS primitive's
// guarantees") — and adds padding so an RWLock doesn't false-share a cache
// line with neighboring data. mcpcore uses one per rate limiter and one for
// the gateway router's method cache.
package rwlock

import "sync"

// cacheLineSize is conservative for modern x86-64/ARM64; padding beyond the
// mutex's own footprint just needs to push the next field onto a new line.
const cacheLineSize = 64

// RWLock is a cache-line-aligned shared/exclusive lock. Every operation
// validates the lock has been constructed via New; zero-value use is a
// no-op that reports failure rather than panicking. Nothing is logged.
type RWLock struct {
	mu   sync.RWMutex
	init bool
	_    [cacheLineSize]byte // padding: keeps neighboring RWLocks off this line
}

// New returns a ready-to-use RWLock.
func New() *RWLock {
	return &RWLock{init: true}
}

// ReadLock acquires the lock for reading. Returns false if the lock was
// never initialized via New.
func (l *RWLock) ReadLock() bool {
	if l == nil || !l.init {
		return false
	}
	l.mu.RLock()
	return true
}

// ReadUnlock releases a read lock previously acquired with ReadLock.
func (l *RWLock) ReadUnlock() {
	if l == nil || !l.init {
		return
	}
	l.mu.RUnlock()
}

// TryReadLock attempts to acquire the read lock without blocking.
func (l *RWLock) TryReadLock() bool {
	if l == nil || !l.init {
		return false
	}
	return l.mu.TryRLock()
}

// WriteLock acquires the lock for exclusive writing.
func (l *RWLock) WriteLock() bool {
	if l == nil || !l.init {
		return false
	}
	l.mu.Lock()
	return true
}

// WriteUnlock releases a write lock previously acquired with WriteLock.
func (l *RWLock) WriteUnlock() {
	if l == nil || !l.init {
		return
	}
	l.mu.Unlock()
}

// TryWriteLock attempts to acquire the write lock without blocking.
func (l *RWLock) TryWriteLock() bool {
	if l == nil || !l.init {
		return false
	}
	return l.mu.TryLock()
}
