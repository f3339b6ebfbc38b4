package sim

import (
	"testing"
	"time"

	"logicprobe/pkg/clock"
	"logicprobe/pkg/port"
)

func TestSquare(t *testing.T) {
	s := Square{Period: 100 * time.Microsecond, High: 30 * time.Microsecond}

	cases := []struct {
		at    time.Duration
		level bool
		next  time.Duration
	}{
		{0, true, 30 * time.Microsecond},
		{29 * time.Microsecond, true, 30 * time.Microsecond},
		{30 * time.Microsecond, false, 100 * time.Microsecond},
		{99 * time.Microsecond, false, 100 * time.Microsecond},
		{100 * time.Microsecond, true, 130 * time.Microsecond},
	}
	for _, c := range cases {
		if got := s.Level(c.at); got != c.level {
			t.Fatalf("Level(%s) = %v, want %v", c.at, got, c.level)
		}
		next, ok := s.NextEdge(c.at)
		if !ok || next != c.next {
			t.Fatalf("NextEdge(%s) = %s %v, want %s", c.at, next, ok, c.next)
		}
	}

	if _, ok := (Square{Period: time.Millisecond, High: time.Millisecond}).NextEdge(0); ok {
		t.Fatalf("full duty square wave must not have edges")
	}
}

func TestSquareHz(t *testing.T) {
	s := SquareHz(5000, 50)
	if s.Period != 200*time.Microsecond || s.High != 100*time.Microsecond {
		t.Fatalf("SquareHz(5000, 50) = %+v", s)
	}
}

func TestSequence(t *testing.T) {
	s := Pulses(10*time.Microsecond, 20*time.Microsecond, 5*time.Microsecond, 7*time.Microsecond)

	if s.Level(9*time.Microsecond) || !s.Level(10*time.Microsecond) || s.Level(15*time.Microsecond) {
		t.Fatalf("unexpected levels around first pulse")
	}

	var edges []time.Duration
	for at := time.Duration(0); ; {
		next, ok := s.NextEdge(at)
		if !ok {
			break
		}
		edges = append(edges, next)
		at = next
	}
	want := []time.Duration{10, 15, 35, 42}
	if len(edges) != len(want) {
		t.Fatalf("edges %v, want %v us", edges, want)
	}
	for i := range want {
		if edges[i] != want[i]*time.Microsecond {
			t.Fatalf("edge %d at %s, want %dus", i, edges[i], want[i])
		}
	}
}

func TestSequenceRepeat(t *testing.T) {
	s := Sequence{Repeat: true, Segments: []Segment{
		{Level: true, Duration: 10 * time.Microsecond},
		{Level: false, Duration: 30 * time.Microsecond},
	}}
	next, ok := s.NextEdge(35 * time.Microsecond)
	if !ok || next != 40*time.Microsecond {
		t.Fatalf("NextEdge(35us) = %s %v, want 40us", next, ok)
	}
	if !s.Level(85 * time.Microsecond) {
		t.Fatalf("expected high at 85us")
	}
}

func TestClockSteps(t *testing.T) {
	c := NewClock(clock.Ticks(0xFFFFFFF0), time.Microsecond)
	a := c.Now()
	b := c.Now()
	if b.Since(a) != 1 {
		t.Fatalf("step: got %d", b.Since(a))
	}
	c.Advance(time.Millisecond)
	if got := c.Elapsed(); got != time.Millisecond+2*time.Microsecond {
		t.Fatalf("Elapsed = %s", got)
	}
}

func TestPinDeliversEdges(t *testing.T) {
	c := NewClock(0, 0)
	p := c.NewPin(15, Square{Period: 100 * time.Microsecond, High: 25 * time.Microsecond, Phase: 50 * time.Microsecond})

	var got []port.Event
	if err := p.Watch(port.EdgeBoth, func(e port.Event) { got = append(got, e) }); err != nil {
		t.Fatalf("watch: %v", err)
	}

	c.Advance(200 * time.Microsecond)

	want := []port.Event{
		{Timestamp: 50, Type: port.RisingEdge},
		{Timestamp: 75, Type: port.FallingEdge},
		{Timestamp: 150, Type: port.RisingEdge},
		{Timestamp: 175, Type: port.FallingEdge},
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestBoardDefaultsToPull(t *testing.T) {
	b := NewBoard(NewClock(0, 0))
	up, err := b.NewPin(16, port.PullUp)
	if err != nil {
		t.Fatalf("NewPin: %v", err)
	}
	if !up.Read() {
		t.Fatalf("pulled up pin reads low")
	}
	if _, err = b.NewPin(16, port.PullUp); err == nil {
		t.Fatalf("expected error for pin already in use")
	}

	b.Drive(16, Constant(false))
	if up.Read() {
		t.Fatalf("Drive did not change the requested pin")
	}
	if err = b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}
