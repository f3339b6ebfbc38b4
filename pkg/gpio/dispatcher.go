package gpio

import (
	"errors"
	"sync"
	"sync/atomic"

	"logicprobe/pkg/port"
)

// MaxSubscribers is the number of handlers one Dispatcher can serve.
const MaxSubscribers = 4

var ErrNoSubscriberSlot = errors.New("no free subscriber slot")

// Dispatcher owns the single hardware watch of a pin and fans each edge out
// to its subscribers. The edge monitor and the frequency counter share the
// probe pin this way instead of replacing each other's interrupt handler.
type Dispatcher struct {
	pin Pin

	mu       sync.Mutex
	watching bool
	slots    [MaxSubscribers]atomic.Pointer[subscriber]
}

type subscriber struct {
	edge    port.Edge
	handler Handler
}

// Subscription identifies a registered handler.
type Subscription struct {
	d    *Dispatcher
	slot int
	sub  *subscriber
}

// NewDispatcher wraps p. The hardware watch is installed with the first
// subscription.
func NewDispatcher(p Pin) *Dispatcher {
	return &Dispatcher{pin: p}
}

// Pin returns the pin number of the wrapped pin.
func (d *Dispatcher) Pin() int { return d.pin.Pin() }

// Read returns the current level of the wrapped pin.
func (d *Dispatcher) Read() bool { return d.pin.Read() }

// Subscribe registers h for the selected edges.
func (d *Dispatcher) Subscribe(edge port.Edge, h Handler) (*Subscription, error) {
	if h == nil || edge == port.EdgeNone {
		return nil, ErrInvalidParam
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.watching {
		if err := d.pin.Watch(port.EdgeBoth, d.dispatch); err != nil {
			return nil, err
		}
		d.watching = true
	}

	s := &subscriber{edge: edge, handler: h}
	for i := range d.slots {
		if d.slots[i].CompareAndSwap(nil, s) {
			return &Subscription{d: d, slot: i, sub: s}, nil
		}
	}
	return nil, ErrNoSubscriberSlot
}

// Close removes the hardware watch and all subscriptions.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.watching {
		d.pin.Unwatch()
		d.watching = false
	}
	for i := range d.slots {
		d.slots[i].Store(nil)
	}
}

func (d *Dispatcher) dispatch(evt port.Event) {
	for i := range d.slots {
		if s := d.slots[i].Load(); s != nil && s.edge.Matches(evt.Type) {
			s.handler(evt)
		}
	}
}

// Cancel removes the subscription. It is safe to call more than once.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.d.slots[s.slot].CompareAndSwap(s.sub, nil)
}
