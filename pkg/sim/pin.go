package sim

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"logicprobe/pkg/gpio"
	"logicprobe/pkg/port"
)

// Pin is a gpio.Pin driven by a Waveform. Watchers receive every edge of the
// waveform with its exact timestamp as the clock passes it.
type Pin struct {
	num     int
	clk     *Clock
	wave    atomic.Pointer[Waveform]
	edge    atomic.Int32
	handler atomic.Pointer[gpio.Handler]
}

// NewPin attaches a pin to clk.
func (c *Clock) NewPin(num int, w Waveform) *Pin {
	p := &Pin{num: num, clk: c}
	p.SetWaveform(w)
	c.AddListener(p)
	return p
}

// SetWaveform replaces the signal driving the pin.
func (p *Pin) SetWaveform(w Waveform) {
	if w == nil {
		w = Constant(false)
	}
	p.wave.Store(&w)
}

func (p *Pin) waveform() Waveform { return *p.wave.Load() }

func (p *Pin) Pin() int { return p.num }

// Read returns the level at the current simulated time.
func (p *Pin) Read() bool { return p.waveform().Level(p.clk.Elapsed()) }

// LevelAt returns the level at simulated time t.
func (p *Pin) LevelAt(t time.Duration) bool { return p.waveform().Level(t) }

// NextEdge returns the first transition strictly after simulated time t.
func (p *Pin) NextEdge(t time.Duration) (time.Duration, bool) { return p.waveform().NextEdge(t) }

func (p *Pin) Watch(edge port.Edge, h gpio.Handler) error {
	if h == nil {
		return gpio.ErrInvalidParam
	}
	p.edge.Store(int32(edge))
	p.handler.Store(&h)
	return nil
}

func (p *Pin) Unwatch() { p.handler.Store(nil) }

// Advance delivers the edges in (from, to].
func (p *Pin) Advance(from, to time.Duration) {
	h := p.handler.Load()
	if h == nil {
		return
	}
	w := p.waveform()
	edge := port.Edge(p.edge.Load())

	for t := from; ; {
		e, ok := w.NextEdge(t)
		if !ok || e > to {
			return
		}
		evt := port.Event{Timestamp: p.clk.ticks(e), Type: port.EventFor(w.Level(e))}
		if edge.Matches(evt.Type) {
			(*h)(evt)
		}
		t = e
	}
}

// Board is a gpio.GPIO whose pins are simulated. Pins without an assigned
// waveform idle at the level their pull resistor would give them.
type Board struct {
	clk *Clock

	mu    sync.Mutex
	waves map[int]Waveform
	pins  map[int]*Pin
}

func NewBoard(clk *Clock) *Board {
	return &Board{clk: clk, waves: map[int]Waveform{}, pins: map[int]*Pin{}}
}

// Clock returns the clock the board's pins run on.
func (b *Board) Clock() *Clock { return b.clk }

// Drive assigns w to pin p, now or when it is requested later.
func (b *Board) Drive(p int, w Waveform) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waves[p] = w
	if pin, ok := b.pins[p]; ok {
		pin.SetWaveform(w)
	}
}

// Lookup returns the simulated pin p if it has been requested.
func (b *Board) Lookup(p int) (*Pin, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pin, ok := b.pins[p]
	return pin, ok
}

func (b *Board) NewPin(p int, pull port.Pull) (gpio.Pin, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.pins[p]; ok {
		return nil, fmt.Errorf("pin %v: %w", p, gpio.ErrPinInUse)
	}
	w, ok := b.waves[p]
	if !ok {
		w = Constant(pull == port.PullUp)
	}
	pin := b.clk.NewPin(p, w)
	b.pins[p] = pin
	return pin, nil
}

func (b *Board) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for p, pin := range b.pins {
		pin.Unwatch()
		b.clk.RemoveListener(pin)
		delete(b.pins, p)
	}
	return nil
}
