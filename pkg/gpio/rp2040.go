//go:build tinygo

package gpio

import (
	"fmt"
	"machine"
	"sync/atomic"

	"logicprobe/pkg/clock"
	"logicprobe/pkg/port"
)

// Board hands out the microcontroller's own pins.
type Board struct {
	clk  clock.Host
	used map[int]*BoardPin
}

// BoardPin is a machine.Pin configured as input.
type BoardPin struct {
	pin     machine.Pin
	clk     clock.Host
	edge    atomic.Int32
	handler atomic.Pointer[Handler]
}

func Open() (*Board, error) {
	return &Board{used: map[int]*BoardPin{}}, nil
}

// NewPin configures pin p as input with the requested bias.
func (b *Board) NewPin(p int, pull port.Pull) (Pin, error) {
	if _, ok := b.used[p]; ok {
		return nil, fmt.Errorf("pin %v: %w", p, ErrPinInUse)
	}

	mode := machine.PinInput
	switch pull {
	case port.PullUp:
		mode = machine.PinInputPullup
	case port.PullDown:
		mode = machine.PinInputPulldown
	}

	bp := &BoardPin{pin: machine.Pin(p), clk: b.clk}
	bp.pin.Configure(machine.PinConfig{Mode: mode})
	b.used[p] = bp
	return bp, nil
}

func (b *Board) Close() error {
	for p, bp := range b.used {
		bp.Unwatch()
		delete(b.used, p)
	}
	return nil
}

func (p *BoardPin) Pin() int   { return int(p.pin) }
func (p *BoardPin) Read() bool { return p.pin.Get() }

// Watch installs the pin change interrupt. The handler runs in interrupt
// context and receives the level read at interrupt entry.
func (p *BoardPin) Watch(edge port.Edge, handler Handler) error {
	if handler == nil {
		return ErrInvalidParam
	}
	p.edge.Store(int32(edge))
	p.handler.Store(&handler)
	return p.pin.SetInterrupt(machine.PinToggle, p.onInterrupt)
}

func (p *BoardPin) Unwatch() {
	_ = p.pin.SetInterrupt(0, nil)
	p.handler.Store(nil)
}

func (p *BoardPin) onInterrupt(pin machine.Pin) {
	h := p.handler.Load()
	if h == nil {
		return
	}
	e := port.Event{Timestamp: p.clk.Now(), Type: port.EventFor(pin.Get())}
	if port.Edge(p.edge.Load()).Matches(e.Type) {
		(*h)(e)
	}
}
