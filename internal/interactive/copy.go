package interactive

import (
	"sync"
	"time"
)

// CopiedWindow is how long the copy control shows its confirmation.
const CopiedWindow = 2 * time.Second

// Timer is the subset of *time.Timer the indicator needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// CopyIndicator tracks whether a code block's copy control shows "copied".
// A successful copy flips it on and schedules the revert; copying again
// inside the window replaces the pending revert instead of stacking another.
type CopyIndicator struct {
	mu         sync.Mutex
	copied     bool
	generation uint64
	timer      Timer
	after      AfterFunc
	window     time.Duration
}

// NewCopyIndicator returns an indicator driven by the real clock.
func NewCopyIndicator() *CopyIndicator {
	return NewCopyIndicatorWithClock(stdAfterFunc, CopiedWindow)
}

// NewCopyIndicatorWithClock lets tests substitute the scheduler.
func NewCopyIndicatorWithClock(after AfterFunc, window time.Duration) *CopyIndicator {
	if after == nil {
		after = stdAfterFunc
	}
	if window <= 0 {
		window = CopiedWindow
	}
	return &CopyIndicator{after: after, window: window}
}

// Copy runs write, the clipboard operation. On failure the indicator is left
// as it was and the error is returned.
func (c *CopyIndicator) Copy(write func() error) error {
	if err := write(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
	}
	c.copied = true
	c.generation++
	gen := c.generation
	c.timer = c.after(c.window, func() { c.revert(gen) })
	return nil
}

func (c *CopyIndicator) revert(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return
	}
	c.copied = false
	c.timer = nil
}

// Copied reports the current indicator state.
func (c *CopyIndicator) Copied() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copied
}
