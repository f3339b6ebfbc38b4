package hosttimed

import (
	"sync/atomic"

	"logicprobe/pkg/clock"
	"logicprobe/pkg/gpio"
	"logicprobe/pkg/port"
)

const (
	DefaultWindowMs = 100
	// MinFrequencyHz is the floor below which a reading is treated as noise.
	MinFrequencyHz = 10
)

// FrequencyCounter counts edges of both polarities through the pin
// interrupt for a fixed window.
type FrequencyCounter struct {
	src gpio.EdgeSource
	clk clock.Clock

	Calibration float64
	MinHz       float64

	edges atomic.Uint32
}

func NewFrequencyCounter(src gpio.EdgeSource, clk clock.Clock, calibration float64) *FrequencyCounter {
	return &FrequencyCounter{src: src, clk: clk, Calibration: calibration, MinHz: MinFrequencyHz}
}

// Measure counts edges for windowMs milliseconds (at least 1) and returns
// the calibrated frequency. Readings below MinHz return ErrNoData.
func (f *FrequencyCounter) Measure(windowMs int) (float64, error) {
	if windowMs < 1 {
		windowMs = 1
	}
	edges, err := f.Edges(windowMs)
	if err != nil {
		return 0, err
	}
	return f.frequency(edges, windowMs)
}

// Edges returns the number of edges of either polarity seen in windowMs.
func (f *FrequencyCounter) Edges(windowMs int) (uint32, error) {
	f.edges.Store(0)
	sub, err := f.src.Subscribe(port.EdgeBoth, f.count)
	if err != nil {
		return 0, err
	}
	Spin(f.clk, clock.Ms(windowMs))
	sub.Cancel()
	return f.edges.Load(), nil
}

func (f *FrequencyCounter) count(port.Event) { f.edges.Add(1) }

func (f *FrequencyCounter) frequency(edges uint32, windowMs int) (float64, error) {
	// two edges per period, 1000 ms per second
	raw := float64(edges) * 500 / float64(windowMs)
	if raw < f.MinHz {
		return 0, ErrNoData
	}
	return raw * f.Calibration, nil
}

// AutoWindow picks a sampling window suited to an expected frequency.
func AutoWindow(hz float64) int {
	switch {
	case hz < 100:
		return 200
	case hz < 1000:
		return 50
	default:
		return 10
	}
}
