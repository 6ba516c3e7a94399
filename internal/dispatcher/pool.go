package dispatcher

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/brennhill/mcpcore/internal/util"
)

// PoolConfig configures a worker pool (mcpcore §4.7 Worker pool).
type PoolConfig struct {
	ThreadPoolSize int // default 4
	TaskQueueSize  int // default 32
}

// DefaultPoolConfig returns mcpcore's documented defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{ThreadPoolSize: 4, TaskQueueSize: 32}
}

// AutoAdjustedPoolConfig scales ThreadPoolSize to 2×cores+1, the heuristic
// mcpcore §4.7 names for auto-adjust, keeping TaskQueueSize at the default.
func AutoAdjustedPoolConfig() PoolConfig {
	return PoolConfig{ThreadPoolSize: 2*runtime.NumCPU() + 1, TaskQueueSize: 32}
}

// PoolStats is a point-in-time snapshot of worker pool activity.
type PoolStats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Active    int64
	Size      int
}

// pool is a fixed-size goroutine pool consuming a bounded task queue. A
// full queue is reported to the caller rather than silently dropping work
// (mcpcore §4.7: "Queue-full is reported as internal_error ... no silent
// drops").
type pool struct {
	log   *logrus.Entry
	tasks chan func()

	mu   sync.Mutex
	size int

	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	active    atomic.Int64

	stop chan struct{}
	wg   sync.WaitGroup
}

var errQueueFull = &queueFullError{}

type queueFullError struct{}

func (*queueFullError) Error() string { return "dispatcher: worker pool task queue is full" }

func newPool(cfg PoolConfig, log *logrus.Entry) *pool {
	if cfg.ThreadPoolSize <= 0 {
		cfg.ThreadPoolSize = DefaultPoolConfig().ThreadPoolSize
	}
	if cfg.TaskQueueSize <= 0 {
		cfg.TaskQueueSize = DefaultPoolConfig().TaskQueueSize
	}
	p := &pool{
		log:   log,
		tasks: make(chan func(), cfg.TaskQueueSize),
		stop:  make(chan struct{}),
	}
	p.resize(cfg.ThreadPoolSize)
	return p
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case task, ok := <-p.tasks:
			if !ok || task == nil {
				return // nil task is a shrink poison pill; channel close also exits
			}
			p.active.Add(1)
			func() {
				defer func() {
					p.active.Add(-1)
					if r := recover(); r != nil {
						p.failed.Add(1)
						p.log.WithField("panic", r).Error("dispatcher: worker panic recovered")
						return
					}
					p.completed.Add(1)
				}()
				task()
			}()
		}
	}
}

// resize grows or shrinks the live worker count to n. Shrinking relies on
// workers observing p.stop being re-created would break running workers, so
// shrink is implemented by letting excess workers exit via a per-call
// decrement token instead of tearing down the shared stop channel.
func (p *pool) resize(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n > p.size {
		for i := 0; i < n-p.size; i++ {
			p.wg.Add(1)
			util.SafeGo(p.worker)
		}
	} else if n < p.size {
		for i := 0; i < p.size-n; i++ {
			util.SafeGo(func() {
				select {
				case p.tasks <- nil: // a nil task is a poison pill consumed by exactly one worker
				case <-p.stop:
				}
			})
		}
	}
	p.size = n
}

// submit enqueues task, returning errQueueFull if the bounded queue has no
// room (non-blocking send).
func (p *pool) submit(task func()) error {
	p.submitted.Add(1)
	select {
	case p.tasks <- task:
		return nil
	default:
		p.failed.Add(1)
		return errQueueFull
	}
}

func (p *pool) stats() PoolStats {
	p.mu.Lock()
	size := p.size
	p.mu.Unlock()
	return PoolStats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Failed:    p.failed.Load(),
		Active:    p.active.Load(),
		Size:      size,
	}
}

func (p *pool) shutdown() {
	close(p.stop)
	p.wg.Wait()
}
