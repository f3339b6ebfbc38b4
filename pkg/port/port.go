// Package port holds the definition of a physical port
package port

import "logicprobe/pkg/clock"

// EventType indicates the type of change to the line level.
type EventType int

const (
	_ EventType = iota
	// RisingEdge indicates a low to high transition.
	RisingEdge
	// FallingEdge indicates a high to low transition.
	FallingEdge
)

func (t EventType) String() string {
	switch t {
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	default:
		return "unknown"
	}
}

// Event is a single detected transition.
type Event struct {
	// Timestamp indicates the time the event was detected.
	Timestamp clock.Ticks
	// The type of state change event this structure represents.
	Type EventType
}

// Level returns the line level after the transition.
func (e Event) Level() bool {
	return e.Type == RisingEdge
}

// EventFor returns the event type that ends at level.
func EventFor(level bool) EventType {
	if level {
		return RisingEdge
	}
	return FallingEdge
}

// Edge selects which transitions a watcher is interested in.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

// Matches reports whether an event of type t is selected by e.
func (e Edge) Matches(t EventType) bool {
	switch e {
	case EdgeBoth:
		return true
	case EdgeRising:
		return t == RisingEdge
	case EdgeFalling:
		return t == FallingEdge
	default:
		return false
	}
}

// Pull is the bias applied to an input line.
type Pull int

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// ParsePull maps the configuration terminator names onto a Pull.
func ParsePull(s string) (Pull, bool) {
	switch s {
	case "pullup":
		return PullUp, true
	case "pulldown":
		return PullDown, true
	case "none", "":
		return PullNone, true
	default:
		return PullNone, false
	}
}
