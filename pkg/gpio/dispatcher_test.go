package gpio

import (
	"testing"

	"logicprobe/pkg/clock"
	"logicprobe/pkg/port"
)

type fakePin struct {
	level   bool
	handler Handler
	watches int
}

func (p *fakePin) Pin() int   { return 15 }
func (p *fakePin) Read() bool { return p.level }
func (p *fakePin) Watch(edge port.Edge, h Handler) error {
	p.watches++
	p.handler = h
	return nil
}
func (p *fakePin) Unwatch() { p.handler = nil }

func (p *fakePin) fire(t port.EventType, ts uint32) {
	p.level = t == port.RisingEdge
	if p.handler != nil {
		p.handler(port.Event{Type: t, Timestamp: clock.Ticks(ts)})
	}
}

func TestDispatcherFansOut(t *testing.T) {
	pin := &fakePin{}
	d := NewDispatcher(pin)

	var rising, all int
	s1, err := d.Subscribe(port.EdgeRising, func(port.Event) { rising++ })
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if _, err = d.Subscribe(port.EdgeBoth, func(port.Event) { all++ }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if pin.watches != 1 {
		t.Fatalf("expected a single hardware watch, got %d", pin.watches)
	}

	pin.fire(port.RisingEdge, 10)
	pin.fire(port.FallingEdge, 20)
	if rising != 1 || all != 2 {
		t.Fatalf("rising=%d all=%d, want 1 and 2", rising, all)
	}

	s1.Cancel()
	s1.Cancel()
	pin.fire(port.RisingEdge, 30)
	if rising != 1 || all != 3 {
		t.Fatalf("after cancel rising=%d all=%d, want 1 and 3", rising, all)
	}
}

func TestDispatcherSlotsExhausted(t *testing.T) {
	d := NewDispatcher(&fakePin{})
	for i := 0; i < MaxSubscribers; i++ {
		if _, err := d.Subscribe(port.EdgeBoth, func(port.Event) {}); err != nil {
			t.Fatalf("subscribe %d: %v", i, err)
		}
	}
	if _, err := d.Subscribe(port.EdgeBoth, func(port.Event) {}); err != ErrNoSubscriberSlot {
		t.Fatalf("expected ErrNoSubscriberSlot, got %v", err)
	}
}

func TestDispatcherRejectsInvalid(t *testing.T) {
	d := NewDispatcher(&fakePin{})
	if _, err := d.Subscribe(port.EdgeNone, func(port.Event) {}); err != ErrInvalidParam {
		t.Fatalf("EdgeNone: got %v", err)
	}
	if _, err := d.Subscribe(port.EdgeBoth, nil); err != ErrInvalidParam {
		t.Fatalf("nil handler: got %v", err)
	}
}

func TestDispatcherClose(t *testing.T) {
	pin := &fakePin{}
	d := NewDispatcher(pin)
	n := 0
	if _, err := d.Subscribe(port.EdgeBoth, func(port.Event) { n++ }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	d.Close()
	if pin.handler != nil {
		t.Fatalf("hardware watch still installed after Close")
	}
	if _, err := d.Subscribe(port.EdgeBoth, func(port.Event) { n++ }); err != nil {
		t.Fatalf("resubscribe: %v", err)
	}
	if pin.watches != 2 {
		t.Fatalf("expected watch to be reinstalled, got %d watches", pin.watches)
	}
	pin.fire(port.RisingEdge, 1)
	if n != 1 {
		t.Fatalf("expected only the new subscriber to fire, got %d", n)
	}
}
