// Package sim provides a virtual time base and synthetic input signals so the
// measurement code can run deterministically on a host without hardware.
package sim

import "time"

// Waveform describes a digital signal as a function of time since the
// simulation started.
type Waveform interface {
	// Level returns the signal level at t.
	Level(t time.Duration) bool
	// NextEdge returns the first transition strictly after t.
	NextEdge(t time.Duration) (time.Duration, bool)
}

// Constant is a signal that never changes.
type Constant bool

func (c Constant) Level(time.Duration) bool { return bool(c) }

func (c Constant) NextEdge(time.Duration) (time.Duration, bool) { return 0, false }

// Square is a periodic signal that is high for the first High of every
// Period. Phase shifts the signal to the left.
type Square struct {
	Period time.Duration
	High   time.Duration
	Phase  time.Duration
}

// SquareHz returns a square wave of the given frequency and duty cycle in
// percent.
func SquareHz(hz float64, duty float64) Square {
	period := time.Duration(float64(time.Second) / hz)
	return Square{Period: period, High: time.Duration(float64(period) * duty / 100)}
}

func (s Square) constant() (bool, bool) {
	switch {
	case s.Period <= 0 || s.High <= 0:
		return false, true
	case s.High >= s.Period:
		return true, true
	}
	return false, false
}

func (s Square) Level(t time.Duration) bool {
	if level, ok := s.constant(); ok {
		return level
	}
	return (t+s.Phase)%s.Period < s.High
}

func (s Square) NextEdge(t time.Duration) (time.Duration, bool) {
	if _, ok := s.constant(); ok {
		return 0, false
	}
	p := (t + s.Phase) % s.Period
	if p < s.High {
		return t + s.High - p, true
	}
	return t + s.Period - p, true
}

// Segment is one stretch of constant level within a Sequence.
type Segment struct {
	Level    bool
	Duration time.Duration
}

// Sequence plays its segments in order. Without Repeat the last level is
// held forever.
type Sequence struct {
	Segments []Segment
	Repeat   bool
}

func (s Sequence) total() time.Duration {
	var d time.Duration
	for _, seg := range s.Segments {
		d += seg.Duration
	}
	return d
}

func (s Sequence) Level(t time.Duration) bool {
	if len(s.Segments) == 0 {
		return false
	}
	if total := s.total(); s.Repeat && total > 0 {
		t %= total
	}

	var at time.Duration
	for _, seg := range s.Segments {
		at += seg.Duration
		if t < at {
			return seg.Level
		}
	}
	return s.Segments[len(s.Segments)-1].Level
}

func (s Sequence) NextEdge(t time.Duration) (time.Duration, bool) {
	total := s.total()
	if total <= 0 {
		return 0, false
	}

	var start time.Duration
	if s.Repeat {
		start = t - t%total
	}

	n := len(s.Segments)
	for pass := 0; pass < 2; pass++ {
		at := start
		for i, seg := range s.Segments {
			at += seg.Duration
			var next bool
			switch {
			case i+1 < n:
				next = s.Segments[i+1].Level
			case s.Repeat:
				next = s.Segments[0].Level
			default:
				return 0, false
			}
			if at > t && next != seg.Level {
				return at, true
			}
		}
		start += total
	}
	return 0, false
}

// Pulses returns a sequence that starts low for lead, then emits one high
// pulse of each width separated by gap, and stays low afterwards.
func Pulses(lead, gap time.Duration, widths ...time.Duration) Sequence {
	segs := []Segment{{Level: false, Duration: lead}}
	for _, w := range widths {
		segs = append(segs, Segment{Level: true, Duration: w}, Segment{Level: false, Duration: gap})
	}
	return Sequence{Segments: segs}
}
