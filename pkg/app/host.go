//go:build !tinygo

package app

import (
	"io"

	"github.com/womat/debug"

	"logicprobe/pkg/app/config"
	"logicprobe/pkg/clock"
	"logicprobe/pkg/display"
	"logicprobe/pkg/gpio"
)

// OpenHost uses the gpio character device of a Linux board. There are no
// state machines, so only the host timed backend is available.
func OpenHost(cfg *config.Config, out io.Writer) (*Platform, error) {
	chip, err := gpio.Open(cfg.Gpio.Chip)
	if err != nil {
		debug.ErrorLog.Printf("can't open gpio chip %q: %v", cfg.Gpio.Chip, err)
		return nil, err
	}

	console := display.NewConsole(out, palette(cfg))
	console.Refresh = cfg.Display.Refresh

	return &Platform{
		Clock:   clock.Host{},
		GPIO:    chip,
		Display: console,
		closers: []func() error{chip.Close},
	}, nil
}
