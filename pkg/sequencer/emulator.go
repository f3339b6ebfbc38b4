package sequencer

import (
	"fmt"
	"sync"
	"time"

	"logicprobe/pkg/sim"
)

const fifoDepth = 4

// Signal is the input a state machine samples.
type Signal interface {
	LevelAt(t time.Duration) bool
	NextEdge(t time.Duration) (time.Duration, bool)
}

// PinSource looks up the simulated pin a program is bound to.
type PinSource interface {
	Lookup(p int) (*sim.Pin, bool)
}

// Emulator is a Driver that interprets the program words on the host in
// simulated time. It supports the instructions the measurement programs use:
// JMP, WAIT on pins, MOV, SET and PUSH.
type Emulator struct {
	clk   *sim.Clock
	pins  PinSource
	cycle time.Duration

	mu      sync.Mutex
	claimed map[int]bool
}

func NewEmulator(clk *sim.Clock, pins PinSource, clockHz int) *Emulator {
	if clockHz <= 0 {
		clockHz = DefaultClockHz
	}
	return &Emulator{
		clk:     clk,
		pins:    pins,
		cycle:   time.Second / time.Duration(clockHz),
		claimed: map[int]bool{},
	}
}

func (e *Emulator) Load(index int, prog Program, pin int) (Machine, error) {
	sig, ok := e.pins.Lookup(pin)
	if !ok {
		return nil, fmt.Errorf("pin %d is not a simulated input", pin)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.claimed[index] {
		return nil, fmt.Errorf("state machine %d: %w", index, ErrBusy)
	}
	e.claimed[index] = true

	m := &emuMachine{emu: e, index: index, sig: sig, prog: prog, cycle: e.cycle}
	e.clk.AddListener(m)
	return m, nil
}

func (e *Emulator) release(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.claimed, index)
}

type emuMachine struct {
	emu   *Emulator
	index int
	sig   Signal
	prog  Program
	cycle time.Duration

	mu     sync.Mutex
	active bool
	t      time.Duration
	pc     uint8
	x, y   uint32
	isr    uint32
	fifo   [fifoDepth]uint32
	head   int
	n      int
}

func (m *emuMachine) SetActive(on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if on && !m.active {
		m.t = m.emu.clk.Elapsed()
	}
	m.active = on
}

func (m *emuMachine) Restart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pc, m.x, m.y, m.isr = 0, 0, 0, 0
	m.head, m.n = 0, 0
	m.t = m.emu.clk.Elapsed()
}

func (m *emuMachine) RxLevel() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}

func (m *emuMachine) Get() uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.n == 0 {
		return 0
	}
	v := m.fifo[m.head]
	m.head = (m.head + 1) % fifoDepth
	m.n--
	return v
}

func (m *emuMachine) Close() error {
	m.SetActive(false)
	m.emu.clk.RemoveListener(m)
	m.emu.release(m.index)
	return nil
}

// Advance runs the machine up to simulated time to.
func (m *emuMachine) Advance(from, to time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active {
		return
	}
	for m.t < to && m.step(to) {
	}
}

// step executes the instruction at pc. It returns false when the machine is
// stalled until after to.
func (m *emuMachine) step(to time.Duration) bool {
	instr := m.prog.Instructions[m.pc]
	next := m.pc + 1
	if m.pc == m.prog.Wrap {
		next = m.prog.WrapTarget
	}
	delay := time.Duration(instr>>8&0x1f) * m.cycle

	switch instr & 0xe000 {
	case opJmp:
		if m.cond(instr>>5&7) {
			next = uint8(instr & 0x1f)
		}
	case opWait:
		polarity := instr>>7&1 == 1
		if instr>>5&3 != waitSrcPin {
			break
		}
		if m.sig.LevelAt(m.t) != polarity {
			e, ok := m.sig.NextEdge(m.t)
			if !ok || e >= to {
				m.t = to
				return false
			}
			m.t = e
			return true
		}
	case opPush:
		if instr&0x80 != 0 {
			// pull is not used by any program
			break
		}
		if m.n == fifoDepth {
			if instr&0x20 != 0 {
				m.t = to
				return false
			}
			// a non blocking push drops the word
		} else {
			m.fifo[(m.head+m.n)%fifoDepth] = m.isr
			m.n++
		}
		m.isr = 0
	case opMov:
		v := m.source(instr & 7)
		if instr>>3&3 == movInvert {
			v = ^v
		}
		m.store(instr>>5&7, v)
	case opSet:
		m.store(instr>>5&7, uint32(instr&0x1f))
	}

	m.pc = next
	m.t += m.cycle + delay
	return true
}

func (m *emuMachine) cond(c uint16) bool {
	switch c {
	case condAlways:
		return true
	case condXZero:
		return m.x == 0
	case condXDec:
		taken := m.x != 0
		m.x--
		return taken
	case condPin:
		return m.sig.LevelAt(m.t)
	default:
		return false
	}
}

func (m *emuMachine) source(src uint16) uint32 {
	switch src {
	case regPins:
		if m.sig.LevelAt(m.t) {
			return 1
		}
		return 0
	case regX:
		return m.x
	case regY:
		return m.y
	case regISR:
		return m.isr
	default:
		return 0
	}
}

func (m *emuMachine) store(dst uint16, v uint32) {
	switch dst {
	case regX:
		m.x = v
	case regY:
		m.y = v
	case regISR:
		m.isr = v
	}
}
