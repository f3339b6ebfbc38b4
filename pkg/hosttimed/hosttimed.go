// Package hosttimed measures the probe signal by polling it from the CPU.
//
// Measurements here busy-wait on the line and do not yield to other tasks.
// Tight polling is what gives them their resolution; the price is that the
// rest of the instrument stalls for the duration of a call.
package hosttimed

import (
	"errors"

	"logicprobe/pkg/clock"
)

var (
	// ErrTimeout is returned when the line did not reach the awaited level in time.
	ErrTimeout = errors.New("timeout waiting for signal level")
	// ErrNoData is returned when no valid sample was collected.
	ErrNoData = errors.New("no valid samples")
	// ErrNoResult is returned while the button gated counter has nothing to report.
	ErrNoResult = errors.New("no result yet")
)

const (
	DefaultSamples             = 15
	DefaultTimeout clock.Ticks = 500 * 1000
)

// Input is a line whose level can be polled.
type Input interface {
	Read() bool
}

// PulseIn waits for the line to reach level and returns how long it stays
// there. Each of the two waits gives up after timeout. If the line is
// already at level the remaining part of the current pulse is measured.
func PulseIn(in Input, clk clock.Clock, level bool, timeout clock.Ticks) (clock.Ticks, error) {
	start := clk.Now()
	for in.Read() != level {
		if clk.Now().Since(start) > timeout {
			return 0, ErrTimeout
		}
	}

	start = clk.Now()
	for in.Read() == level {
		if clk.Now().Since(start) > timeout {
			return 0, ErrTimeout
		}
	}
	return clk.Now().Since(start), nil
}

// Spin busy-waits for d on clk.
func Spin(clk clock.Clock, d clock.Ticks) {
	start := clk.Now()
	for clk.Now().Since(start) < d {
	}
}
