// Package gpio is the watcher for gpio ports
package gpio

import (
	"errors"

	"logicprobe/pkg/port"
)

var (
	ErrInvalidParam = errors.New("invalid parameters")
	ErrPinInUse     = errors.New("pin already used")
	ErrUnsupported  = errors.New("gpio not supported on this platform")
)

// Handler receives edge events. It runs in interrupt context: it must not
// block, allocate or log.
type Handler func(port.Event)

// Pin is a single input line.
type Pin interface {
	// Pin returns the pin number that this Pin represents.
	Pin() int
	// Read returns the current line level.
	Read() bool
	// Watch the pin for changes to level.
	// There can only be one watcher on the pin at a time.
	Watch(edge port.Edge, handler Handler) error
	// Unwatch removes any watch from the pin.
	Unwatch()
}

// GPIO hands out input pins.
type GPIO interface {
	NewPin(p int, pull port.Pull) (Pin, error)
	Close() error
}

// EdgeSource is a pin whose edge events can be shared by several
// subscribers. Dispatcher is the implementation.
type EdgeSource interface {
	Read() bool
	Subscribe(edge port.Edge, h Handler) (*Subscription, error)
}
