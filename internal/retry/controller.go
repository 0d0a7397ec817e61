// Package retry implements the deferred-retry queue with backoff-from-
// enqueue-time that workers use for transient mutation failures.
package retry

import (
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/elchinoo/gemini/internal/query"
	"github.com/elchinoo/gemini/internal/querydriver"
)

// Entry is a deferred retry: the original operation/query, how many times
// it has already been attempted, and when it was enqueued.
type Entry struct {
	Op         query.Operation
	DTO        querydriver.QueryDTO
	Attempt    int
	EnqueuedAt time.Time
}

// ErrNotAvailable is returned by GetRetry when ready is empty; callers must
// check RetryAvailable first.
var ErrNotAvailable = errors.New("retry: no entry ready")

// Controller manages two internal queues — pending (enqueue-time tagged)
// and ready (drained in FIFO order) — moved by a single mutex-guarded,
// reschedulable timer. Only one timer is ever in flight: AddRetry arms it
// when idle, and the timer callback re-arms itself for the next pending
// entry after promoting the current head.
type Controller struct {
	backoff time.Duration
	now     func() time.Time

	mu      sync.Mutex
	pending []Entry
	ready   []Entry
	timer   *time.Timer
}

// New builds a controller with the given backoff duration. now defaults to
// time.Now; tests may override it for determinism.
func New(backoff time.Duration) *Controller {
	return &Controller{backoff: backoff, now: time.Now}
}

// AddRetry enqueues entry with enqueue_time=now. If no timer is currently
// scheduled, one is armed for c.backoff.
func (c *Controller) AddRetry(op query.Operation, dto querydriver.QueryDTO, attempt int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := Entry{Op: op, DTO: dto, Attempt: attempt, EnqueuedAt: c.now()}
	c.pending = append(c.pending, entry)

	if c.timer == nil {
		c.armLocked()
	}
}

// armLocked schedules the timer to fire after the oldest pending entry's
// remaining backoff. Must be called with c.mu held.
func (c *Controller) armLocked() {
	if len(c.pending) == 0 {
		c.timer = nil
		return
	}
	remaining := c.backoff - c.now().Sub(c.pending[0].EnqueuedAt)
	if remaining < 0 {
		remaining = 0
	}
	c.timer = time.AfterFunc(remaining, c.onTimerFire)
}

func (c *Controller) onTimerFire() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.pending) > 0 {
		head := c.pending[0]
		c.pending = c.pending[1:]
		c.ready = append(c.ready, head)
	}
	c.timer = nil
	// Re-arm for the next pending entry, if any (FIFO; each entry's
	// backoff is measured from its own enqueue time, not from drain time).
	c.armLocked()
}

// RetryAvailable reports whether an entry is ready to be retried.
func (c *Controller) RetryAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.ready) > 0
}

// GetRetry pops the head of ready. Callers must only call this when
// RetryAvailable() is true.
func (c *Controller) GetRetry() (query.Operation, querydriver.QueryDTO, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.ready) == 0 {
		return 0, querydriver.QueryDTO{}, 0, ErrNotAvailable
	}
	head := c.ready[0]
	c.ready = c.ready[1:]
	return head.Op, head.DTO, head.Attempt, nil
}

// Stop cancels any in-flight timer; callers should do this on worker
// termination to avoid a dangling goroutine firing into a torn-down
// controller.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
