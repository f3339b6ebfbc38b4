// Package analyzer puts the host timed and the sequencer backends behind one
// set of measurement calls with fixed units.
//
// An Analyzer belongs to one cooperative loop. Its methods must not be called
// in parallel; the measurement calls block until they finish.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/womat/debug"

	"logicprobe/pkg/clock"
	"logicprobe/pkg/gpio"
	"logicprobe/pkg/hosttimed"
	"logicprobe/pkg/sequencer"
)

var (
	// ErrNoData wraps the timeout and no-sample errors of both backends.
	ErrNoData = errors.New("no data")
	// ErrWrongBackend is returned by host only operations in Sequencer mode.
	ErrWrongBackend = errors.New("operation not supported by the active backend")
	ErrNoDriver     = errors.New("no sequencer driver")
	// ErrClosed is returned by the measurement calls once no backend is left.
	ErrClosed = errors.New("analyzer closed")
)

const (
	// HeldPressPoll is how often EdgeCountWhileHeld checks for the press.
	HeldPressPoll = 10 * time.Millisecond
	// HeldCountPoll is how often EdgeCountWhileHeld samples the probe.
	HeldCountPoll = time.Millisecond
)

// Backend selects the measurement implementation.
type Backend int

const (
	HostTimed Backend = iota
	Sequencer
)

func (b Backend) String() string {
	switch b {
	case HostTimed:
		return "cpu"
	case Sequencer:
		return "pio"
	default:
		return fmt.Sprintf("Backend(%d)", int(b))
	}
}

// ParseBackend accepts "cpu"/"host" and "pio"/"sequencer".
func ParseBackend(s string) (Backend, error) {
	switch strings.ToLower(s) {
	case "cpu", "host", "hosttimed":
		return HostTimed, nil
	case "pio", "sequencer":
		return Sequencer, nil
	}
	return 0, fmt.Errorf("unknown backend %q", s)
}

// Calibration holds the host timed correction factors.
type Calibration struct {
	PulseWidth float64
	DutyCycle  float64
	Frequency  float64
}

// DefaultCalibration leaves every reading unscaled.
func DefaultCalibration() Calibration {
	return Calibration{PulseWidth: 1, DutyCycle: 1, Frequency: 1}
}

// Config is the probe pin and backend selection.
type Config struct {
	Pin     int
	Backend Backend
	// Timeout bounds each wait for the signal, in microseconds.
	Timeout   clock.Ticks
	Sequencer sequencer.Config
}

// Hardware is what the backends measure with.
type Hardware struct {
	Clock clock.Clock
	// Probe is the shared edge source of the probe pin.
	Probe gpio.EdgeSource
	// Sequencer may be nil when only HostTimed is used.
	Sequencer sequencer.Driver
}

// Sleeper suspends the calling task.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type hostBackend struct {
	pulse   *hosttimed.PulseWidth
	edges   *hosttimed.EdgeTimer
	freq    *hosttimed.FrequencyCounter
	counter *hosttimed.EdgeCounter

	buttonEnabled bool
	result        int
	resultReady   bool
}

type Analyzer struct {
	cfg Config
	hw  Hardware
	cal Calibration

	host *hostBackend
	seq  *sequencer.Backend
}

func New(cfg Config, hw Hardware, cal Calibration) (*Analyzer, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = hosttimed.DefaultTimeout
	}
	a := &Analyzer{cfg: cfg, hw: hw, cal: cal}
	if err := a.build(cfg.Backend); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) build(b Backend) error {
	switch b {
	case HostTimed:
		h := &hostBackend{
			pulse:   hosttimed.NewPulseWidth(a.hw.Probe, a.hw.Clock, a.cal.PulseWidth),
			edges:   hosttimed.NewEdgeTimer(a.hw.Probe, a.hw.Clock, a.cal.DutyCycle),
			freq:    hosttimed.NewFrequencyCounter(a.hw.Probe, a.hw.Clock, a.cal.Frequency),
			counter: hosttimed.NewEdgeCounter(a.hw.Probe, nil),
		}
		h.pulse.Timeout = a.cfg.Timeout
		h.edges.Timeout = a.cfg.Timeout
		a.host = h
	case Sequencer:
		if a.hw.Sequencer == nil {
			return ErrNoDriver
		}
		seq, err := sequencer.New(a.hw.Sequencer, a.hw.Clock, a.cfg.Pin, a.cfg.Sequencer)
		if err != nil {
			return err
		}
		a.seq = seq
	default:
		return fmt.Errorf("unknown backend %v", b)
	}

	a.cfg.Backend = b
	debug.DebugLog.Printf("analyzer: %v backend on pin %d", b, a.cfg.Pin)
	return nil
}

// Backend returns the active backend.
func (a *Analyzer) Backend() Backend { return a.cfg.Backend }

// SetMode discards all backend state, including a pending button result,
// and builds b from scratch. If b cannot be built the previous backend is
// rebuilt and the error is returned.
func (a *Analyzer) SetMode(b Backend) error {
	prev := a.cfg.Backend
	if err := a.Close(); err != nil {
		debug.ErrorLog.Printf("analyzer: closing %v backend: %v", prev, err)
	}

	err := a.build(b)
	if err == nil {
		return nil
	}
	debug.ErrorLog.Printf("analyzer: %v backend: %v, back to %v", b, err, prev)
	if rerr := a.build(prev); rerr != nil {
		debug.ErrorLog.Printf("analyzer: rebuilding %v backend: %v", prev, rerr)
	}
	return err
}

// open fails once neither backend is built.
func (a *Analyzer) open() error {
	if a.host == nil && a.seq == nil {
		return ErrClosed
	}
	return nil
}

// Close releases the active backend.
func (a *Analyzer) Close() error {
	a.host = nil
	if a.seq == nil {
		return nil
	}
	err := a.seq.Close()
	a.seq = nil
	return err
}

func noData(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, hosttimed.ErrNoData), errors.Is(err, hosttimed.ErrTimeout),
		errors.Is(err, sequencer.ErrNoData), errors.Is(err, sequencer.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrNoData, err)
	}
	return err
}

// PulseWidthUs returns the mean high pulse width in microseconds.
func (a *Analyzer) PulseWidthUs(samples int) (float64, error) {
	if err := a.open(); err != nil {
		return 0, err
	}
	if a.seq != nil {
		us, err := a.seq.PulseWidthUs(samples, a.cfg.Timeout)
		return us, noData(err)
	}
	us, err := a.host.pulse.Measure(samples)
	return float64(us), noData(err)
}

// RiseFallNs returns how long the signal stays high and low in nanoseconds.
func (a *Analyzer) RiseFallNs(samples int) (rise, fall float64, err error) {
	if err = a.open(); err != nil {
		return 0, 0, err
	}
	if a.seq != nil {
		rise, fall, err = a.seq.RiseFallNs(samples, a.cfg.Timeout)
		return rise, fall, noData(err)
	}
	rise, fall, err = a.host.edges.Measure(samples)
	return rise * 1000, fall * 1000, noData(err)
}

// FrequencyHz measures the signal frequency over windowMs.
func (a *Analyzer) FrequencyHz(windowMs int) (float64, error) {
	if err := a.open(); err != nil {
		return 0, err
	}
	if a.seq != nil {
		_, hz, _, err := a.seq.Frequency(windowMs)
		return hz, noData(err)
	}
	hz, err := a.host.freq.Measure(windowMs)
	return hz, noData(err)
}

// PeriodNs measures the signal period over windowMs.
func (a *Analyzer) PeriodNs(windowMs int) (float64, error) {
	if err := a.open(); err != nil {
		return 0, err
	}
	if a.seq != nil {
		period, _, _, err := a.seq.Frequency(windowMs)
		return period, noData(err)
	}
	hz, err := a.host.freq.Measure(windowMs)
	if err != nil {
		return 0, noData(err)
	}
	return 1e9 / hz, nil
}

// DutyCycle combines a pulse width and a period measurement. The percentage
// is rounded to one decimal. A zero period yields 0, 0 and ErrNoData.
func (a *Analyzer) DutyCycle(pulseSamples, windowMs int) (percent, hz float64, err error) {
	us, err := a.PulseWidthUs(pulseSamples)
	if err != nil {
		return 0, 0, err
	}

	var period float64
	if a.seq != nil {
		period, hz, _, err = a.seq.Frequency(windowMs)
	} else {
		hz, err = a.host.freq.Measure(windowMs)
		if hz > 0 {
			period = 1e9 / hz
		}
	}
	if err != nil {
		return 0, 0, noData(err)
	}
	if period == 0 {
		return 0, 0, ErrNoData
	}

	percent = us * 1000 / period * 100
	return math.Round(percent*10) / 10, hz, nil
}

// EdgeCount returns the signal edges seen in windowMs. The sequencer counts
// full periods, the host backend edges of both polarities. A quiet line is a
// count of zero, not an error.
func (a *Analyzer) EdgeCount(windowMs int) (int, error) {
	if err := a.open(); err != nil {
		return 0, err
	}
	if a.seq != nil {
		_, _, n, err := a.seq.Frequency(windowMs)
		if errors.Is(err, sequencer.ErrNoData) {
			return 0, nil
		}
		return n, err
	}
	n, err := a.host.freq.Edges(windowMs)
	return int(n), err
}

// EnableButtonEdgeCount gates the edge counter with an active low button
// that Update polls from then on.
func (a *Analyzer) EnableButtonEdgeCount(button hosttimed.Input) error {
	if a.host == nil {
		return fmt.Errorf("button edge count: %w", ErrWrongBackend)
	}
	a.host.counter.SetButton(button)
	a.host.buttonEnabled = true
	a.host.resultReady = false
	return nil
}

// Update polls the button gated counter once.
func (a *Analyzer) Update() {
	h := a.host
	if h == nil || !h.buttonEnabled {
		return
	}
	h.counter.Update()
	h.result, h.resultReady = h.counter.Result()
}

// ButtonEdgeResult returns the count of the last completed press.
func (a *Analyzer) ButtonEdgeResult() (int, bool) {
	if a.host == nil {
		return 0, false
	}
	return a.host.result, a.host.resultReady
}

// EdgeCountWhileHeld waits for the active low button to be pressed and counts
// probe level changes until it is released. It does not touch the button
// gated counter. Cancelling ctx abandons the count.
func (a *Analyzer) EdgeCountWhileHeld(ctx context.Context, s Sleeper, button hosttimed.Input) (int, error) {
	if a.host == nil {
		return 0, fmt.Errorf("edge count while held: %w", ErrWrongBackend)
	}
	probe := a.hw.Probe

	for button.Read() {
		if err := s.Sleep(ctx, HeldPressPoll); err != nil {
			return 0, err
		}
	}
	debug.TraceLog.Print("analyzer: button pressed, counting edges")

	count := 0
	last := probe.Read()
	for !button.Read() {
		if cur := probe.Read(); cur != last {
			count++
			last = cur
		}
		if err := s.Sleep(ctx, HeldCountPoll); err != nil {
			return 0, err
		}
	}
	debug.DebugLog.Printf("analyzer: %d edges while held", count)
	return count, nil
}
