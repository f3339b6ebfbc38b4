//go:build !linux && !tinygo

package gpio

import "logicprobe/pkg/port"

// Chip is not available on this platform; use emulation instead.
type Chip struct{}

func Open(name string) (*Chip, error) {
	return nil, ErrUnsupported
}

func (c *Chip) NewPin(p int, pull port.Pull) (Pin, error) {
	return nil, ErrUnsupported
}

func (c *Chip) Close() error { return nil }
