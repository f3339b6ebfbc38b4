package sequencer

import "errors"

var ErrBusy = errors.New("state machine already claimed")

// Machine is a state machine with a program loaded. It starts inactive.
type Machine interface {
	// SetActive starts or stops instruction execution.
	SetActive(on bool)
	// Restart clears the FIFOs and jumps back to the start of the program.
	Restart()
	// RxLevel returns the number of words waiting in the RX FIFO.
	RxLevel() int
	// Get pops one word from the RX FIFO. Callers check RxLevel first.
	Get() uint32
	// Close stops the machine and frees its program memory.
	Close() error
}

// Driver loads programs onto state machines.
type Driver interface {
	Load(index int, prog Program, pin int) (Machine, error)
}
