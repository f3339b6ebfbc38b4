package sequencer

import (
	"errors"
	"fmt"
	"math"

	"logicprobe/pkg/clock"
)

var (
	ErrTimeout     = errors.New("timeout waiting for state machine")
	ErrNoData      = errors.New("no valid samples")
	// ErrCounterBits is returned for an edge counter width no program exists for.
	ErrCounterBits = errors.New("unsupported edge counter width")
)

const (
	DefaultTimeout clock.Ticks = 500 * 1000
	// state machine assignment
	smPulse     = 0
	smEdge      = 1
	smFrequency = 2
)

// Config selects the clock and edge counter width.
type Config struct {
	ClockHz     int
	CounterBits int
}

// Backend runs the three measurement programs on their own state machines.
type Backend struct {
	clk     clock.Clock
	cycleNs float64

	pulse Machine
	edge  Machine
	freq  Machine

	edgeProg Program
}

// New loads all programs for pin. Nothing runs until a measurement starts.
func New(d Driver, clk clock.Clock, pin int, cfg Config) (*Backend, error) {
	if cfg.ClockHz <= 0 {
		cfg.ClockHz = DefaultClockHz
	}
	if cfg.CounterBits == 0 {
		cfg.CounterBits = DefaultCounterBits
	}
	if err := CheckCounterBits(cfg.CounterBits); err != nil {
		return nil, err
	}

	b := &Backend{
		clk:      clk,
		cycleNs:  1e9 / float64(cfg.ClockHz),
		edgeProg: EdgeTimingProgram(cfg.CounterBits),
	}

	var err error
	if b.pulse, err = d.Load(smPulse, PulseWidthProgram(), pin); err != nil {
		return nil, fmt.Errorf("loading %s: %w", PulseWidthProgram(), err)
	}
	if b.edge, err = d.Load(smEdge, b.edgeProg, pin); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("loading %s: %w", b.edgeProg, err)
	}
	if b.freq, err = d.Load(smFrequency, FrequencyProgram(), pin); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("loading %s: %w", FrequencyProgram(), err)
	}
	return b, nil
}

// Close releases all state machines.
func (b *Backend) Close() error {
	var errs []error
	for _, m := range []Machine{b.pulse, b.edge, b.freq} {
		if m != nil {
			errs = append(errs, m.Close())
		}
	}
	return errors.Join(errs...)
}

// session runs fn with m restarted and active, and always stops m again.
func session(m Machine, fn func() error) error {
	m.Restart()
	m.SetActive(true)
	defer m.SetActive(false)
	return fn()
}

// await polls until m holds n words or timeout expires.
func (b *Backend) await(m Machine, n int, timeout clock.Ticks) error {
	d := clock.NewDeadline(b.clk, timeout)
	for m.RxLevel() < n {
		if d.Expired() {
			return ErrTimeout
		}
	}
	return nil
}

// PulseWidthUs averages samples high pulse widths, rounded to 0.01 us. Each
// read waits at most timeout; if it expires the samples collected so far are
// averaged.
func (b *Backend) PulseWidthUs(samples int, timeout clock.Ticks) (float64, error) {
	var sum float64
	n := 0
	err := session(b.pulse, func() error {
		for i := 0; i < samples; i++ {
			if err := b.await(b.pulse, 1, timeout); err != nil {
				return err
			}
			sum += float64(DecodePulse(b.pulse.Get())) * b.cycleNs / 1000
			n++
		}
		return nil
	})
	if n == 0 {
		return 0, err
	}
	return math.Round(sum/float64(n)*100) / 100, nil
}

// RiseFallNs averages samples high and low durations in ns. Pairs in which
// either counter saturated or never counted are dropped.
func (b *Backend) RiseFallNs(samples int, timeout clock.Ticks) (rise, fall float64, err error) {
	n := 0
	err = session(b.edge, func() error {
		for i := 0; i < samples; i++ {
			if err := b.await(b.edge, 2, timeout); err != nil {
				return err
			}
			r, rok := DecodeEdge(b.edge.Get(), b.edgeProg.CounterInit)
			f, fok := DecodeEdge(b.edge.Get(), b.edgeProg.CounterInit)
			if !rok || !fok {
				continue
			}
			rise += float64(r) * b.cycleNs
			fall += float64(f) * b.cycleNs
			n++
		}
		return nil
	})
	if n == 0 {
		if err == nil {
			err = ErrNoData
		}
		return 0, 0, err
	}
	return rise / float64(n), fall / float64(n), nil
}

// Frequency counts completed periods for windowMs milliseconds and returns
// the mean period, the frequency and the period count.
func (b *Backend) Frequency(windowMs int) (periodNs, hz float64, count int, err error) {
	if windowMs < 1 {
		windowMs = 1
	}

	_ = session(b.freq, func() error {
		d := clock.NewDeadline(b.clk, clock.Ms(windowMs))
		for !d.Expired() {
			if b.freq.RxLevel() > 0 {
				b.freq.Get()
				count++
			}
		}
		return nil
	})

	if count == 0 {
		return 0, 0, 0, ErrNoData
	}
	periodNs = float64(windowMs) * 1e6 / float64(count)
	hz = float64(count) * 1000 / float64(windowMs)
	return periodNs, hz, count, nil
}
