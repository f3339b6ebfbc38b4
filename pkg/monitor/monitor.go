// Package monitor watches the probe line through its edge interrupt.
//
// The interrupt handler keeps the current level, the time of the last
// accepted edge and a pulse count, fires the registered callbacks and
// completes pending waits. Everything it touches is atomic, so cooperative
// code can read the published state at any time without locking.
package monitor

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"logicprobe/pkg/clock"
	"logicprobe/pkg/gpio"
	"logicprobe/pkg/port"
)

const (
	// DefaultDebounce is the minimum time between accepted edges.
	DefaultDebounce clock.Ticks = 5000
	// MaxWaiters is the number of WaitForEdge calls that can be pending at once.
	MaxWaiters = 8
	// PollInterval is how long a waiter yields between checks.
	PollInterval = time.Millisecond
)

var ErrTooManyWaiters = errors.New("too many pending edge waits")

// Sleeper suspends the calling task. It returns early with an error when ctx
// is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type (
	// EdgeFunc is called with the timestamp of an accepted edge.
	EdgeFunc func(ts clock.Ticks)
	// ChangeFunc is called with the new level and timestamp of an accepted edge.
	ChangeFunc func(level bool, ts clock.Ticks)
)

const (
	hookFree uint32 = iota
	hookArmedLow
	hookArmedHigh
	hookTriggered
)

// hook packs the wait state, a claim generation and the edge timestamp into
// one word: state in bits 56-63, generation in 32-55, timestamp in 0-31. A
// trigger publishes state and timestamp in a single CAS, and a handler that
// loaded the word before the slot was released and claimed again fails it.
type hook struct {
	word atomic.Uint64
}

const genMask = 1<<24 - 1

func hookWord(state, gen uint32, ts clock.Ticks) uint64 {
	return uint64(state)<<56 | uint64(gen&genMask)<<32 | uint64(ts)
}

func wordState(w uint64) uint32 { return uint32(w >> 56) }

func wordGen(w uint64) uint32 { return uint32(w>>32) & genMask }

func (h *hook) state() uint32 { return wordState(h.word.Load()) }

func (h *hook) ts() clock.Ticks { return clock.Ticks(h.word.Load()) }

// trigger resolves the hook with ts if w, as loaded by the caller, is still
// its current word and waits for level want.
func (h *hook) trigger(w uint64, want uint32, ts clock.Ticks) bool {
	if wordState(w) != want {
		return false
	}
	return h.word.CompareAndSwap(w, hookWord(hookTriggered, wordGen(w), ts))
}

func (h *hook) release() {
	h.word.Store(hookWord(hookFree, wordGen(h.word.Load()), 0))
}

// Monitor is the shared edge state of one probe line.
type Monitor struct {
	src      gpio.EdgeSource
	sub      *gpio.Subscription
	debounce clock.Ticks

	primed   atomic.Bool
	level    atomic.Bool
	lastEdge atomic.Uint32
	pulses   atomic.Uint32
	bounced  atomic.Uint32

	onRising  atomic.Pointer[EdgeFunc]
	onFalling atomic.Pointer[EdgeFunc]
	onChange  atomic.Pointer[ChangeFunc]

	hooks [MaxWaiters]hook
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithDebounce sets the debounce window.
func WithDebounce(d clock.Ticks) Option {
	return func(m *Monitor) { m.debounce = d }
}

func New(src gpio.EdgeSource, opts ...Option) *Monitor {
	m := &Monitor{src: src, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Init attaches the monitor to both edges of the line.
func (m *Monitor) Init() error {
	if m.sub != nil {
		return nil
	}
	m.level.Store(m.src.Read())
	m.primed.Store(false)

	sub, err := m.src.Subscribe(port.EdgeBoth, m.handle)
	if err != nil {
		return err
	}
	m.sub = sub
	return nil
}

// Close detaches the monitor from the line.
func (m *Monitor) Close() {
	m.sub.Cancel()
	m.sub = nil
}

// OnRising registers the rising edge callback, replacing any previous one.
// Callbacks run in interrupt context and must return quickly.
func (m *Monitor) OnRising(f EdgeFunc) { storeFunc(&m.onRising, f) }

// OnFalling registers the falling edge callback.
func (m *Monitor) OnFalling(f EdgeFunc) { storeFunc(&m.onFalling, f) }

// OnChange registers the callback for any accepted edge.
func (m *Monitor) OnChange(f ChangeFunc) {
	if f == nil {
		m.onChange.Store(nil)
		return
	}
	m.onChange.Store(&f)
}

func storeFunc(p *atomic.Pointer[EdgeFunc], f EdgeFunc) {
	if f == nil {
		p.Store(nil)
		return
	}
	p.Store(&f)
}

// Level returns the level after the last accepted edge.
func (m *Monitor) Level() bool { return m.level.Load() }

// LastEdge returns the timestamp of the last accepted edge.
func (m *Monitor) LastEdge() clock.Ticks { return clock.Ticks(m.lastEdge.Load()) }

// PulseCount returns the number of accepted rising edges.
func (m *Monitor) PulseCount() uint32 { return m.pulses.Load() }

func (m *Monitor) ResetPulseCount() { m.pulses.Store(0) }

// Bounced returns the number of edges rejected by the debounce window.
func (m *Monitor) Bounced() uint32 { return m.bounced.Load() }

func (m *Monitor) handle(evt port.Event) {
	if m.primed.Load() && evt.Timestamp.Since(m.LastEdge()) < m.debounce {
		m.bounced.Add(1)
		return
	}
	m.primed.Store(true)
	m.lastEdge.Store(uint32(evt.Timestamp))

	level := evt.Level()
	m.level.Store(level)

	if level {
		m.pulses.Add(1)
		if f := m.onRising.Load(); f != nil {
			(*f)(evt.Timestamp)
		}
	} else if f := m.onFalling.Load(); f != nil {
		(*f)(evt.Timestamp)
	}
	if f := m.onChange.Load(); f != nil {
		(*f)(level, evt.Timestamp)
	}

	want := hookArmedLow
	if level {
		want = hookArmedHigh
	}
	for i := range m.hooks {
		h := &m.hooks[i]
		h.trigger(h.word.Load(), want, evt.Timestamp)
	}
}

// WaitForEdge suspends until an accepted edge leaves the line at level and
// returns the edge timestamp. The wait slot is released on every return path.
func (m *Monitor) WaitForEdge(ctx context.Context, s Sleeper, level bool) (clock.Ticks, error) {
	h, err := m.claim(level)
	if err != nil {
		return 0, err
	}
	defer h.release()

	for {
		if w := h.word.Load(); wordState(w) == hookTriggered {
			return clock.Ticks(w), nil
		}
		if err = s.Sleep(ctx, PollInterval); err != nil {
			return 0, err
		}
	}
}

// Waiting returns the number of pending WaitForEdge calls.
func (m *Monitor) Waiting() int {
	n := 0
	for i := range m.hooks {
		if m.hooks[i].state() != hookFree {
			n++
		}
	}
	return n
}

func (m *Monitor) claim(level bool) (*hook, error) {
	armed := hookArmedLow
	if level {
		armed = hookArmedHigh
	}
	for i := range m.hooks {
		h := &m.hooks[i]
		w := h.word.Load()
		if wordState(w) != hookFree {
			continue
		}
		if h.word.CompareAndSwap(w, hookWord(armed, wordGen(w)+1, 0)) {
			return h, nil
		}
	}
	return nil, ErrTooManyWaiters
}
