package hosttimed

import "logicprobe/pkg/clock"

// EdgeTimer measures how long the line stays low and high by polling. Each
// wait accepts a level only after it has held for Debounce.
type EdgeTimer struct {
	in  Input
	clk clock.Clock

	Debounce    clock.Ticks
	Timeout     clock.Ticks
	Calibration float64
}

func NewEdgeTimer(in Input, clk clock.Clock, calibration float64) *EdgeTimer {
	return &EdgeTimer{
		in:          in,
		clk:         clk,
		Debounce:    5,
		Timeout:     DefaultTimeout,
		Calibration: calibration,
	}
}

// waitLevel returns once the line has been at level for longer than the
// debounce time, or false on timeout.
func (e *EdgeTimer) waitLevel(level bool) bool {
	start := e.clk.Now()
	stable := start
	for {
		now := e.clk.Now()
		if e.in.Read() == level {
			if now.Since(stable) > e.Debounce {
				return true
			}
		} else {
			stable = now
		}
		if now.Since(start) > e.Timeout {
			return false
		}
	}
}

// transition waits for from, then returns the time until the line settles
// at the opposite level.
func (e *EdgeTimer) transition(from bool) clock.Ticks {
	if !e.waitLevel(from) {
		return 0
	}
	start := e.clk.Now()
	if !e.waitLevel(!from) {
		return 0
	}
	return e.clk.Now().Since(start)
}

// Measure collects up to samples rise/fall pairs in microseconds and returns
// their medians, adjusted so that rise/(rise+fall) matches the calibrated
// duty cycle while rise+fall stays the measured period.
func (e *EdgeTimer) Measure(samples int) (rise, fall float64, err error) {
	rises := make([]clock.Ticks, 0, samples)
	falls := make([]clock.Ticks, 0, samples)

	for i := 0; i < samples; i++ {
		r := e.transition(false)
		if r == 0 {
			continue
		}
		f := e.transition(true)
		if f == 0 {
			continue
		}
		rises = append(rises, r)
		falls = append(falls, f)
	}
	if len(rises) == 0 {
		return 0, 0, ErrNoData
	}

	rise, fall = Recombine(float64(Median(rises)), float64(Median(falls)), e.Calibration)
	return rise, fall, nil
}

// Recombine applies the duty cycle calibration to a rise/fall pair. The
// returned pair always sums to rise+fall.
func Recombine(rise, fall, calibration float64) (float64, float64) {
	period := rise + fall
	if period <= 0 {
		return rise, fall
	}
	duty := rise / period * calibration * 100
	calRise := duty * period / 100
	return calRise, period - calRise
}
