//go:build linux && !tinygo

package gpio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"logicprobe/pkg/clock"
	"logicprobe/pkg/port"

	"github.com/warthog618/gpio"
	"github.com/warthog618/gpiod"
	"github.com/womat/debug"
)

// Chip represents a single GPIO chip that controls a set of lines.
//
// Edge events come from the gpiod character device, which timestamps them in
// the kernel. Level reads go through the memory mapped registers of
// /dev/gpiomem when the board has them, because the polling loops of the
// host timed backend read the line far more often than a syscall allows.
type Chip struct {
	gpiodChip *gpiod.Chip
	mmap      bool

	mu   sync.Mutex
	pins map[int]*Line
}

// Line represents a single requested line.
type Line struct {
	num       int
	gpiodLine *gpiod.Line
	fast      *gpio.Pin

	edge    atomic.Int32
	handler atomic.Pointer[Handler]
}

// Open opens a GPIO character device. The memory mapped fast path is used
// when /dev/gpiomem can be opened.
func Open(name string) (*Chip, error) {
	c, err := gpiod.NewChip(name)
	if err != nil {
		return nil, err
	}

	chip := &Chip{gpiodChip: c, pins: map[int]*Line{}}
	if err = gpio.Open(); err != nil {
		debug.InfoLog.Printf("gpiomem not available, reading levels through %s: %v", name, err)
	} else {
		chip.mmap = true
	}
	return chip, nil
}

// NewPin requests control of a single line on the chip as an input.
// The pin number provided is the line offset (BCM GPIO number on a Raspberry Pi).
func (c *Chip) NewPin(p int, pull port.Pull) (Pin, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pins[p]; ok {
		return nil, fmt.Errorf("pin %v: %w", p, ErrPinInUse)
	}

	l := &Line{num: p}
	opts := []gpiod.LineReqOption{gpiod.WithEventHandler(l.onEvent), gpiod.WithBothEdges, gpiod.AsInput}
	switch pull {
	case port.PullUp:
		opts = append(opts, gpiod.WithPullUp)
	case port.PullDown:
		opts = append(opts, gpiod.WithPullDown)
	case port.PullNone:
	default:
		return nil, ErrInvalidParam
	}

	var err error
	if l.gpiodLine, err = c.gpiodChip.RequestLine(p, opts...); err != nil {
		return nil, err
	}

	if c.mmap {
		l.fast = gpio.NewPin(p)
		switch pull {
		case port.PullUp:
			l.fast.PullUp()
		case port.PullDown:
			l.fast.PullDown()
		}
	}

	c.pins[p] = l
	return l, nil
}

// Close releases all lines and the chip.
func (c *Chip) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for p, l := range c.pins {
		if err := l.gpiodLine.Close(); err != nil {
			debug.ErrorLog.Printf("closing line %d: %v", p, err)
		}
		delete(c.pins, p)
	}
	if c.mmap {
		_ = gpio.Close()
	}
	return c.gpiodChip.Close()
}

// Pin returns the pin number that this Pin represents.
func (l *Line) Pin() int { return l.num }

// Read pin state (high/low)
func (l *Line) Read() bool {
	if l.fast != nil {
		return bool(l.fast.Read())
	}
	v, err := l.gpiodLine.Value()
	if err != nil {
		return false
	}
	return v == 1
}

// Watch the line for changes to level.
// There can only be one watcher on the line at a time.
func (l *Line) Watch(edge port.Edge, handler Handler) error {
	if handler == nil {
		return ErrInvalidParam
	}
	l.edge.Store(int32(edge))
	l.handler.Store(&handler)
	return nil
}

// Unwatch removes any watch from the line.
func (l *Line) Unwatch() {
	l.handler.Store(nil)
}

func (l *Line) onEvent(evt gpiod.LineEvent) {
	h := l.handler.Load()
	if h == nil {
		return
	}

	e := port.Event{Timestamp: clock.FromDuration(evt.Timestamp), Type: port.FallingEdge}
	if evt.Type == gpiod.LineEventRisingEdge {
		e.Type = port.RisingEdge
	}
	if port.Edge(l.edge.Load()).Matches(e.Type) {
		(*h)(e)
	}
}
