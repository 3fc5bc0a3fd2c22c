package metrics

import "sync/atomic"

// Counters are fire-and-forget; callers never block on them.
type Counters struct {
	RefundAttempts    uint64
	RefundSuccesses   uint64
	RefundFailures    uint64
	IntegrityFailures uint64
	TasksEnqueued     uint64
	TasksProcessed    uint64
}

func (c *Counters) IncAttempts() {
	atomic.AddUint64(&c.RefundAttempts, 1)
}

func (c *Counters) IncSuccesses() {
	atomic.AddUint64(&c.RefundSuccesses, 1)
}

func (c *Counters) IncFailures() {
	atomic.AddUint64(&c.RefundFailures, 1)
}

func (c *Counters) IncIntegrityFailures() {
	atomic.AddUint64(&c.IntegrityFailures, 1)
}

func (c *Counters) IncTasksEnqueued() {
	atomic.AddUint64(&c.TasksEnqueued, 1)
}

func (c *Counters) IncTasksProcessed() {
	atomic.AddUint64(&c.TasksProcessed, 1)
}

// Snapshot reads every counter atomically into a plain copy.
func (c *Counters) Snapshot() Counters {
	return Counters{
		RefundAttempts:    atomic.LoadUint64(&c.RefundAttempts),
		RefundSuccesses:   atomic.LoadUint64(&c.RefundSuccesses),
		RefundFailures:    atomic.LoadUint64(&c.RefundFailures),
		IntegrityFailures: atomic.LoadUint64(&c.IntegrityFailures),
		TasksEnqueued:     atomic.LoadUint64(&c.TasksEnqueued),
		TasksProcessed:    atomic.LoadUint64(&c.TasksProcessed),
	}
}
