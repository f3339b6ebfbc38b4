package app

import (
	"context"
	"errors"

	"logicprobe/pkg/app/config"
	"logicprobe/pkg/clock"
	"logicprobe/pkg/display"
	"logicprobe/pkg/gpio"
	"logicprobe/pkg/sequencer"
)

// Platform is the hardware the instrument runs on.
type Platform struct {
	Clock clock.Clock
	GPIO  gpio.GPIO
	// Sequencer is nil where no state machines are available.
	Sequencer sequencer.Driver
	Display   display.Display
	// Start runs background work of the platform until ctx is done. It may
	// be nil.
	Start func(ctx context.Context)

	closers []func() error
}

// Close releases the platform resources in reverse order of acquisition.
func (p *Platform) Close() error {
	var errs []error
	for i := len(p.closers) - 1; i >= 0; i-- {
		errs = append(errs, p.closers[i]())
	}
	p.closers = nil
	return errors.Join(errs...)
}

func palette(cfg *config.Config) display.Palette {
	return display.Palette{
		Text:       cfg.Display.Text,
		Background: cfg.Display.Background,
		Highlight:  cfg.Display.Highlight,
		Green:      cfg.Display.Green,
		Red:        cfg.Display.Red,
	}
}
