// Package bufpool implements the fixed-size block allocator that feeds every
// I/O path in the transport and connection layers (see mcpcore §4.1).
//
// Blocks carry a magic-tagged header so release() can reject buffers that
// don't belong to the releasing pool, and double-release, without a
// per-block shadow table. Growth on demand means acquire() never blocks on
// I/O: an empty free list just allocates a new block instead of waiting.
package bufpool

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// Magic tags every block header belonging to some pool. It is checked on
// release; a mismatch means the buffer came from a different pool (or isn't
// a pool buffer at all) and the release is rejected rather than honored.
const Magic uint32 = 0xB0FFEE42

// block is the pool-owned header for one allocated buffer.
type block struct {
	magic   uint32
	pool    *Pool // nil for heap-fallback blocks
	next    *block
	payload []byte
}

// Pool is a fixed-size block allocator. A Pool's zero value is not usable;
// construct one with New.
type Pool struct {
	mu              sync.Mutex
	blockSize       int
	totalBlocks     int
	allocatedBlocks int
	freeHead        *block
	log             *logrus.Entry
}

// New creates a pool of blocks sized blockSize, pre-allocating initialCount
// blocks onto the free list.
func New(blockSize, initialCount int) *Pool {
	if blockSize <= 0 {
		blockSize = 1
	}
	p := &Pool{
		blockSize: blockSize,
		log:       logrus.WithField("component", "bufpool"),
	}
	p.mu.Lock()
	for i := 0; i < initialCount; i++ {
		p.growLocked()
	}
	p.mu.Unlock()
	return p
}

// BlockSize returns the fixed payload size for blocks from this pool.
func (p *Pool) BlockSize() int {
	return p.blockSize
}

// growLocked allocates one new block and pushes it onto the free list.
// Caller must hold p.mu.
func (p *Pool) growLocked() {
	b := &block{
		magic:   Magic,
		pool:    p,
		payload: make([]byte, p.blockSize),
	}
	b.next = p.freeHead
	p.freeHead = b
	p.totalBlocks++
}

// Acquire returns a Buffer backed by a block from the pool, growing the pool
// if the free list is empty. Acquire never blocks on I/O.
func (p *Pool) Acquire() *Buffer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.freeHead == nil {
		p.growLocked()
	}
	b := p.freeHead
	p.freeHead = b.next
	b.next = nil
	p.allocatedBlocks++
	return &Buffer{b: b}
}

// AcquireHeap returns a Buffer of size bytes allocated directly on the heap,
// bypassing the pool. Used when a requested length exceeds BlockSize(). The
// returned Buffer still validates through Release, tagged with a nil pool so
// it is never mistaken for a pooled block.
func AcquireHeap(size int) *Buffer {
	return &Buffer{b: &block{magic: Magic, pool: nil, payload: make([]byte, size)}}
}

// Release returns buf to the pool it was acquired from. The header's magic
// must equal Magic and its pool pointer must equal p; otherwise the release
// is rejected and logged rather than crashing the caller. Double-release is
// detected by scanning the free list for the same block before insertion.
func (p *Pool) Release(buf *Buffer) {
	if buf == nil || buf.b == nil {
		return
	}
	b := buf.b

	if b.magic != Magic || b.pool != p {
		p.log.WithFields(logrus.Fields{
			"magic_ok": b.magic == Magic,
			"pool_ok":  b.pool == p,
		}).Warn("bufpool: rejected release of foreign or corrupt buffer")
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for cur := p.freeHead; cur != nil; cur = cur.next {
		if cur == b {
			p.log.Warn("bufpool: rejected double release")
			return
		}
	}

	b.next = p.freeHead
	p.freeHead = b
	if p.allocatedBlocks > 0 {
		p.allocatedBlocks--
	}
	buf.b = nil // guard against reuse of this handle after release
}

// Stats is a point-in-time snapshot of pool occupancy.
type Stats struct {
	TotalBlocks     int
	AllocatedBlocks int
}

// Stats returns the pool's current total and allocated block counts.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{TotalBlocks: p.totalBlocks, AllocatedBlocks: p.allocatedBlocks}
}

// Destroy drops the pool's free list and resets its counters; blocks that
// were on the free list are detached from the pool. Buffers still held by
// callers are not tracked: they remain valid slices, keep their header's pool
// pointer, and a later Release of one of them is accepted onto this pool's
// free list.
func (p *Pool) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for cur := p.freeHead; cur != nil; {
		next := cur.next
		cur.pool = nil
		cur.next = nil
		cur = next
	}
	p.freeHead = nil
	p.totalBlocks = 0
	p.allocatedBlocks = 0
}

// Buffer is the affine handle returned by Acquire/AcquireHeap: it has
// exactly one releaser. Heap-fallback buffers share this type, distinguished
// only by a nil pool pointer on the private header.
type Buffer struct {
	b *block
}

// Bytes returns the buffer's backing payload slice. Calling Bytes after
// Release returns nil.
func (buf *Buffer) Bytes() []byte {
	if buf == nil || buf.b == nil {
		return nil
	}
	return buf.b.payload
}

// Len returns the payload length, or 0 once released.
func (buf *Buffer) Len() int {
	if buf == nil || buf.b == nil {
		return 0
	}
	return len(buf.b.payload)
}

// IsHeap reports whether this buffer bypassed the pool (oversize fallback).
func (buf *Buffer) IsHeap() bool {
	return buf != nil && buf.b != nil && buf.b.pool == nil
}

// String is for diagnostics only.
func (buf *Buffer) String() string {
	if buf == nil || buf.b == nil {
		return "bufpool.Buffer(released)"
	}
	return fmt.Sprintf("bufpool.Buffer(len=%d heap=%v)", len(buf.b.payload), buf.IsHeap())
}
