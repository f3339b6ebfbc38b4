// Package sequencer measures the probe signal with RP2040 PIO state machines.
//
// Three fixed programs count clock cycles while the signal is in a given
// state and push the counts into the RX FIFO. The host only activates a
// state machine, drains its FIFO and converts cycles to time. The same
// program words run on real PIO hardware and in the host side Emulator.
package sequencer

import "fmt"

const (
	// DefaultClockHz is the state machine clock; one cycle is 8 ns.
	DefaultClockHz = 125_000_000
	// DefaultCounterBits is the width of the edge timing counter.
	DefaultCounterBits = 32
	// LegacyCounterBits is the 5 bit edge counter the first hardware
	// revision shipped with. It saturates after 31 loop iterations.
	LegacyCounterBits = 5
)

// Program is a loaded-as-is list of PIO instruction words.
type Program struct {
	Name         string
	Version      int
	Instructions []uint16
	// Origin is the required load address, or -1 if relocatable.
	Origin     int8
	WrapTarget uint8
	Wrap       uint8
	// CounterInit is the value the program loads into X before counting.
	CounterInit uint32
}

func (p Program) String() string {
	return fmt.Sprintf("%s/v%d", p.Name, p.Version)
}

// Instruction encoding, see RP2040 datasheet section 3.4.
const (
	opJmp  = 0x0000
	opWait = 0x2000
	opPush = 0x8000
	opMov  = 0xa000
	opSet  = 0xe000

	condAlways = 0
	condXZero  = 1
	condXDec   = 2
	condPin    = 6

	waitSrcPin = 1

	regPins = 0
	regX    = 1
	regY    = 2
	regNull = 3
	regISR  = 6

	movNone   = 0
	movInvert = 1
)

func jmp(cond, addr uint16) uint16 { return opJmp | cond<<5 | addr&0x1f }

func waitPin(polarity, index uint16) uint16 {
	return opWait | polarity<<7 | waitSrcPin<<5 | index&0x1f
}

func mov(dst, op, src uint16) uint16 { return opMov | dst<<5 | op<<3 | src }

func set(dst, value uint16) uint16 { return opSet | dst<<5 | value&0x1f }

func push(block bool) uint16 {
	if block {
		return opPush | 1<<5
	}
	return opPush
}

// PulseWidthProgram counts down X twice per loop while the pin is high and
// pushes the remaining counter after every high pulse.
func PulseWidthProgram() Program {
	return Program{
		Name:    "pulse_width",
		Version: 1,
		Instructions: []uint16{
			waitPin(0, 0),                 // 0: sync to low
			waitPin(1, 0),                 // 1: rising edge
			mov(regX, movInvert, regNull), // 2: x = 0xffffffff
			jmp(condXDec, 4),              // 3: count
			jmp(condPin, 3),               // 4: while high
			mov(regISR, movNone, regX),    // 5
			push(false),                   // 6
		},
		Origin:      -1,
		WrapTarget:  0,
		Wrap:        6,
		CounterInit: 0xffffffff,
	}
}

// EdgeTimingProgram counts the high and then the low stretch of one period
// and pushes both inverted counters back to back. Every pair starts on a full
// low to high transition, so a stall on a full FIFO only loses whole pairs.
// counterBits selects the initial counter: LegacyCounterBits gives the first
// revision's set x,31 program, any other width loads the full 32 bit counter,
// so callers check the width with CheckCounterBits first. A counter that runs out leaves
// X at 0xffffffff, which DecodeEdge reports as saturated.
func EdgeTimingProgram(counterBits int) Program {
	loadX := mov(regX, movInvert, regNull)
	counterInit := uint32(0xffffffff)
	version := 3
	if counterBits == LegacyCounterBits {
		loadX = set(regX, 31)
		counterInit = 31
		version = 1
	}

	return Program{
		Name:    "edge_timing",
		Version: version,
		Instructions: []uint16{
			waitPin(0, 0),                // 0: sync to low
			waitPin(1, 0),                // 1: rising edge
			loadX,                        // 2
			jmp(condPin, 5),              // 3: rise: still high?
			jmp(condAlways, 6),           // 4: low, done
			jmp(condXDec, 3),             // 5
			mov(regY, movInvert, regX),   // 6: keep rise
			loadX,                        // 7
			jmp(condPin, 10),             // 8: fall: high again?
			jmp(condXDec, 8),             // 9
			mov(regISR, movNone, regY),   // 10
			push(true),                   // 11
			mov(regISR, movInvert, regX), // 12
			push(true),                   // 13
		},
		Origin:      -1,
		WrapTarget:  0,
		Wrap:        13,
		CounterInit: counterInit,
	}
}

// CheckCounterBits accepts the edge counter widths EdgeTimingProgram has a
// program for.
func CheckCounterBits(bits int) error {
	if bits != DefaultCounterBits && bits != LegacyCounterBits {
		return fmt.Errorf("%d bits, want %d or %d: %w", bits, LegacyCounterBits, DefaultCounterBits, ErrCounterBits)
	}
	return nil
}

// FrequencyProgram pushes one word per period, rising edge to rising edge.
func FrequencyProgram() Program {
	return Program{
		Name:    "frequency",
		Version: 1,
		Instructions: []uint16{
			waitPin(0, 0),                 // 0: initial sync
			waitPin(1, 0),                 // 1
			waitPin(0, 0),                 // 2: wrap target
			waitPin(1, 0),                 // 3
			mov(regISR, movNone, regNull), // 4
			push(true),                    // 5
		},
		Origin:     -1,
		WrapTarget: 2,
		Wrap:       5,
	}
}

// DecodePulse converts a pulse width FIFO word to state machine cycles.
func DecodePulse(raw uint32) uint64 {
	return uint64(0xffffffff-raw) * 2
}

// DecodeEdge converts an edge timing FIFO word to state machine cycles.
// ok is false when the counter ran out before the signal changed or did not
// count at all.
func DecodeEdge(raw, counterInit uint32) (cycles uint64, ok bool) {
	x := ^raw
	elapsed := counterInit - x
	if elapsed == 0 || elapsed > counterInit {
		return 0, false
	}
	return uint64(elapsed) * 2, true
}
