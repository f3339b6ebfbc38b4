package hosttimed

import "logicprobe/pkg/clock"

// PulseWidth measures the width of high pulses.
type PulseWidth struct {
	in  Input
	clk clock.Clock

	// Timeout bounds each wait for a pulse.
	Timeout clock.Ticks
	// Widths outside the open interval (Min, Max) are discarded.
	Min, Max clock.Ticks
	// Calibration scales the averaged width.
	Calibration float64
}

func NewPulseWidth(in Input, clk clock.Clock, calibration float64) *PulseWidth {
	return &PulseWidth{
		in:          in,
		clk:         clk,
		Timeout:     DefaultTimeout,
		Min:         2,
		Max:         20000,
		Calibration: calibration,
	}
}

// Measure takes up to samples readings and returns the calibrated mean of
// their interquartile range in microseconds, truncated.
func (p *PulseWidth) Measure(samples int) (int, error) {
	widths := make([]clock.Ticks, 0, samples)
	for i := 0; i < samples; i++ {
		w, err := PulseIn(p.in, p.clk, true, p.Timeout)
		if err != nil {
			continue
		}
		if p.Min < w && w < p.Max {
			widths = append(widths, w)
		}
	}
	return p.reduce(widths)
}

func (p *PulseWidth) reduce(widths []clock.Ticks) (int, error) {
	if len(widths) == 0 {
		return 0, ErrNoData
	}
	avg := MeanInt(FilterIQR(widths))
	return int(float64(avg) * p.Calibration), nil
}
