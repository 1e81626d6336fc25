package interactive

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeTimer struct {
	fire    func()
	stopped bool
}

func (f *fakeTimer) Stop() bool {
	was := !f.stopped
	f.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
	delays []time.Duration
}

func (c *fakeClock) after(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{fire: f}
	c.timers = append(c.timers, t)
	c.delays = append(c.delays, d)
	return t
}

// fireAll runs every timer that has not been stopped, like the runtime would
// once the deadline passes.
func (c *fakeClock) fireAll() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.fire()
		}
	}
}

func TestCopyIndicatorRevertsAfterWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	ind := NewCopyIndicatorWithClock(clock.after, 0)

	if err := ind.Copy(func() error { return nil }); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if !ind.Copied() {
		t.Fatal("expected copied state")
	}
	if clock.delays[0] != CopiedWindow {
		t.Fatalf("revert scheduled after %v", clock.delays[0])
	}
	clock.fireAll()
	if ind.Copied() {
		t.Fatal("expected indicator to revert")
	}
}

func TestCopyIndicatorRepeatResetsWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	ind := NewCopyIndicatorWithClock(clock.after, CopiedWindow)

	_ = ind.Copy(func() error { return nil })
	_ = ind.Copy(func() error { return nil })

	if len(clock.timers) != 2 {
		t.Fatalf("timers = %d", len(clock.timers))
	}
	if !clock.timers[0].stopped {
		t.Fatal("first revert should be cancelled by the second copy")
	}

	// A stale callback that raced past Stop must not revert the newer window.
	clock.timers[0].fire()
	if !ind.Copied() {
		t.Fatal("stale revert flipped the indicator")
	}

	clock.fireAll()
	if ind.Copied() {
		t.Fatal("expected revert after the second window")
	}
}

func TestCopyIndicatorFailedWriteLeavesState(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{}
	ind := NewCopyIndicatorWithClock(clock.after, CopiedWindow)
	denied := errors.New("clipboard denied")

	if err := ind.Copy(func() error { return denied }); !errors.Is(err, denied) {
		t.Fatalf("Copy error = %v", err)
	}
	if ind.Copied() || len(clock.timers) != 0 {
		t.Fatal("failed write must not flip the indicator")
	}
}

func TestCopyIndicatorRealClock(t *testing.T) {
	t.Parallel()

	ind := NewCopyIndicatorWithClock(nil, 20*time.Millisecond)
	_ = ind.Copy(func() error { return nil })

	deadline := time.Now().Add(2 * time.Second)
	for ind.Copied() {
		if time.Now().After(deadline) {
			t.Fatal("indicator never reverted")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
