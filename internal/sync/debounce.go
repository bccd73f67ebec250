package sync

import (
	stdsync "sync"
	"time"

	"finresolve/internal/models"
)

// coalescer collapses bursts of writes into a single delayed persist.
// Arming it replaces both the pending timer and the snapshot it will
// carry, so when the window finally elapses only the latest state is
// written. There is deliberately no queue: intermediate states are
// never persisted.
type coalescer struct {
	mu      stdsync.Mutex
	window  time.Duration
	timer   *time.Timer
	latest  models.Profile
	persist func(models.Profile)
}

func newCoalescer(window time.Duration, persist func(models.Profile)) *coalescer {
	return &coalescer{window: window, persist: persist}
}

// Arm schedules a persist of snapshot after the inactivity window,
// cancelling any previously scheduled persist.
func (c *coalescer) Arm(snapshot models.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.latest = snapshot
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.window, c.fire)
}

func (c *coalescer) fire() {
	c.mu.Lock()
	snapshot := c.latest
	c.timer = nil
	c.mu.Unlock()

	c.persist(snapshot)
}

// Cancel drops any pending persist. Used when an immediate persist
// supersedes the debounced one.
func (c *coalescer) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Flush fires any pending persist immediately instead of waiting out the
// window. Used on shutdown so the last armed write is not dropped. A
// coalescer with nothing pending is a no-op.
func (c *coalescer) Flush() {
	c.mu.Lock()
	if c.timer == nil {
		c.mu.Unlock()
		return
	}
	c.timer.Stop()
	c.timer = nil
	snapshot := c.latest
	c.mu.Unlock()

	c.persist(snapshot)
}
