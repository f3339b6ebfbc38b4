//go:build !tinygo

package app

import (
	"context"
	"io"
	"time"

	"logicprobe/pkg/app/config"
	"logicprobe/pkg/display"
	"logicprobe/pkg/sequencer"
	"logicprobe/pkg/sim"
)

// pressTime is how long an emulated mode button press lasts.
const pressTime = 100 * time.Millisecond

// Simulated builds a platform of simulated pins on clk. The probe pin plays
// the configured emulation signal, the buttons idle released.
func Simulated(cfg *config.Config, clk *sim.Clock, d display.Display) *Platform {
	board := sim.NewBoard(clk)

	sig := cfg.Emulation.Signal
	if sig.FrequencyHz > 0 {
		board.Drive(sig.Pin, sim.SquareHz(sig.FrequencyHz, sig.DutyPercent))
	} else {
		board.Drive(sig.Pin, sim.Constant(false))
	}

	if cfg.Emulation.ModeCycle > pressTime && cfg.Buttons.Mode >= 0 {
		board.Drive(cfg.Buttons.Mode, sim.Sequence{
			Repeat: true,
			Segments: []sim.Segment{
				{Level: true, Duration: cfg.Emulation.ModeCycle - pressTime},
				{Level: false, Duration: pressTime},
			},
		})
	}

	return &Platform{
		Clock:     clk,
		GPIO:      board,
		Sequencer: sequencer.NewEmulator(clk, board, cfg.Sequencer.ClockHz),
		Display:   d,
		Start: func(ctx context.Context) {
			clk.Run(ctx, time.Millisecond)
		},
		closers: []func() error{board.Close},
	}
}

// Emulated runs the instrument on simulated pins in real time and draws the
// screens to out.
func Emulated(cfg *config.Config, out io.Writer) *Platform {
	console := display.NewConsole(out, palette(cfg))
	console.Refresh = cfg.Display.Refresh
	return Simulated(cfg, sim.NewWallClock(0), console)
}
