package sim

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"logicprobe/pkg/clock"
)

// Listener is notified whenever simulated time moves forward.
// It runs with the clock locked and must not call Now or Advance.
type Listener interface {
	Advance(from, to time.Duration)
}

// Clock is a clock.Clock whose time only moves when it is read or advanced.
//
// A stepping clock moves forward by a fixed step on every Now, which makes
// busy polling loops deterministic. A wall clock follows real time but still
// only publishes edges to its listeners when someone reads it.
type Clock struct {
	mu        sync.Mutex
	start     clock.Ticks
	step      time.Duration
	wall      bool
	origin    time.Time
	elapsed   atomic.Int64
	listeners []Listener
}

// NewClock returns a clock that reports start first and advances by step on
// every call to Now. A zero step only moves with Advance.
func NewClock(start clock.Ticks, step time.Duration) *Clock {
	return &Clock{start: start, step: step}
}

// NewWallClock returns a clock that follows real time.
func NewWallClock(start clock.Ticks) *Clock {
	return &Clock{start: start, wall: true, origin: time.Now()}
}

// Now advances the clock and returns the new tick count.
func (c *Clock) Now() clock.Ticks {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.Elapsed()
	to := from + c.step
	if c.wall {
		to = time.Since(c.origin)
	}
	c.advance(from, to)
	return c.ticks(c.Elapsed())
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	from := c.Elapsed()
	c.advance(from, from+d)
}

// Elapsed returns the simulated time since start without advancing.
func (c *Clock) Elapsed() time.Duration {
	return time.Duration(c.elapsed.Load())
}

// Ticks converts a simulated instant to the tick count reported for it.
func (c *Clock) Ticks(t time.Duration) clock.Ticks {
	return c.ticks(t)
}

func (c *Clock) ticks(t time.Duration) clock.Ticks {
	return c.start.Add(clock.FromDuration(t))
}

func (c *Clock) advance(from, to time.Duration) {
	if to <= from {
		return
	}
	c.elapsed.Store(int64(to))
	for _, l := range c.listeners {
		l.Advance(from, to)
	}
}

// AddListener registers l for future advances.
func (c *Clock) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// RemoveListener unregisters l.
func (c *Clock) RemoveListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, x := range c.listeners {
		if x == l {
			c.listeners = append(c.listeners[:i], c.listeners[i+1:]...)
			return
		}
	}
}

// Run reads the clock every interval until ctx is done, so that listeners
// see time pass even while nothing else is polling.
func (c *Clock) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			c.Now()
		}
	}
}
