// Package clock provides the monotonic microsecond time base shared by the
// edge monitor, the measurement backends and the emulator.
//
// Ticks wrap after about 71 minutes. All interval arithmetic goes through
// Since and Deadline, which stay correct across a wrap as long as the
// measured interval itself is shorter than the wrap period.
package clock

import "time"

// Ticks is a point on the monotonic microsecond counter.
type Ticks uint32

// Clock returns the current tick count.
type Clock interface {
	Now() Ticks
}

// FromDuration converts d to ticks, truncating below one microsecond.
func FromDuration(d time.Duration) Ticks {
	return Ticks(d / time.Microsecond)
}

// Ms returns the tick count of ms milliseconds.
func Ms(ms int) Ticks {
	return Ticks(ms * 1000)
}

// Since returns the interval from earlier to t.
func (t Ticks) Since(earlier Ticks) Ticks {
	return t - earlier
}

// Diff returns the signed interval from u to t.
// It is negative if t lies before u.
func (t Ticks) Diff(u Ticks) int32 {
	return int32(t - u)
}

// Add returns t advanced by d.
func (t Ticks) Add(d Ticks) Ticks {
	return t + d
}

// Duration returns t as a time.Duration when t is an interval.
func (t Ticks) Duration() time.Duration {
	return time.Duration(t) * time.Microsecond
}

// Deadline expires once budget ticks have elapsed since it was started.
type Deadline struct {
	clk    Clock
	start  Ticks
	budget Ticks
}

// NewDeadline starts a deadline on clk.
func NewDeadline(clk Clock, budget Ticks) Deadline {
	return Deadline{clk: clk, start: clk.Now(), budget: budget}
}

// Expired reads the clock and reports whether the budget is used up.
func (d Deadline) Expired() bool {
	return d.clk.Now().Since(d.start) > d.budget
}

// Elapsed reads the clock and returns the time since the deadline started.
func (d Deadline) Elapsed() Ticks {
	return d.clk.Now().Since(d.start)
}
