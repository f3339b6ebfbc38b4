package clock

import (
	"testing"
	"time"
)

type fixed struct{ now Ticks }

func (f *fixed) Now() Ticks { return f.now }

func TestSinceAcrossWrap(t *testing.T) {
	start := Ticks(0xFFFFFF00)
	end := start.Add(0x200)

	if end >= start {
		t.Fatalf("expected counter to wrap, got end=%#x start=%#x", end, start)
	}
	if got := end.Since(start); got != 0x200 {
		t.Fatalf("Since across wrap: got %#x want %#x", got, 0x200)
	}
	if got := start.Diff(end); got != -0x200 {
		t.Fatalf("Diff: got %d want %d", got, -0x200)
	}
}

func TestDeadlineAcrossWrap(t *testing.T) {
	clk := &fixed{now: 0xFFFFFFF0}
	d := NewDeadline(clk, 100)

	clk.now = clk.now.Add(100)
	if d.Expired() {
		t.Fatalf("deadline expired at exactly its budget")
	}
	clk.now = clk.now.Add(1)
	if !d.Expired() {
		t.Fatalf("deadline not expired after budget")
	}
	if got := d.Elapsed(); got != 101 {
		t.Fatalf("Elapsed: got %d want 101", got)
	}
}

func TestConversions(t *testing.T) {
	if got := FromDuration(1500 * time.Nanosecond); got != 1 {
		t.Fatalf("FromDuration truncation: got %d", got)
	}
	if got := Ms(500); got != 500000 {
		t.Fatalf("Ms: got %d", got)
	}
	if got := Ticks(250).Duration(); got != 250*time.Microsecond {
		t.Fatalf("Duration: got %s", got)
	}
}

func TestHostMonotonic(t *testing.T) {
	var h Host
	a := h.Now()
	time.Sleep(2 * time.Millisecond)
	b := h.Now()
	if b.Since(a) < 1000 {
		t.Fatalf("host clock advanced only %d us over 2ms", b.Since(a))
	}
}
