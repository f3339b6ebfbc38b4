//go:build tinygo && rp2040

package sequencer

import (
	"fmt"
	"machine"

	pio "github.com/tinygo-org/pio/rp2-pio"
)

// PIODriver loads programs onto the state machines of one PIO block.
type PIODriver struct {
	block   *pio.PIO
	clockHz uint32
}

func NewPIODriver(clockHz int) *PIODriver {
	if clockHz <= 0 {
		clockHz = DefaultClockHz
	}
	return &PIODriver{block: pio.PIO0, clockHz: uint32(clockHz)}
}

func (d *PIODriver) Load(index int, prog Program, pin int) (Machine, error) {
	sm := d.block.StateMachine(uint8(index))
	if !sm.TryClaim() {
		return nil, fmt.Errorf("state machine %d: %w", index, ErrBusy)
	}

	offset, err := d.block.AddProgram(prog.Instructions, prog.Origin)
	if err != nil {
		sm.Unclaim()
		return nil, err
	}

	whole, frac, err := pio.ClkDivFromFrequency(d.clockHz, machine.CPUFrequency())
	if err != nil {
		d.block.ClearProgramSection(offset, uint8(len(prog.Instructions)))
		sm.Unclaim()
		return nil, err
	}

	in := machine.Pin(pin)
	cfg := pio.DefaultStateMachineConfig()
	cfg.SetWrap(offset+prog.WrapTarget, offset+prog.Wrap)
	cfg.SetInPins(in)
	cfg.SetJmpPin(in)
	cfg.SetClkDivIntFrac(whole, frac)
	sm.Init(offset, cfg)
	sm.SetEnabled(false)

	return &pioMachine{sm: sm, block: d.block, offset: offset, length: uint8(len(prog.Instructions))}, nil
}

type pioMachine struct {
	sm     pio.StateMachine
	block  *pio.PIO
	offset uint8
	length uint8
}

func (m *pioMachine) SetActive(on bool) { m.sm.SetEnabled(on) }

func (m *pioMachine) Restart() {
	m.sm.ClearFIFOs()
	m.sm.Restart()
	m.sm.Exec(pio.EncodeJmp(m.offset, pio.JmpAlways))
}

func (m *pioMachine) RxLevel() int { return int(m.sm.RxFIFOLevel()) }

func (m *pioMachine) Get() uint32 { return m.sm.RxGet() }

func (m *pioMachine) Close() error {
	m.sm.SetEnabled(false)
	m.block.ClearProgramSection(m.offset, m.length)
	m.sm.Unclaim()
	return nil
}
