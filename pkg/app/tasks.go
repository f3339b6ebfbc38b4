package app

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/womat/debug"

	"logicprobe/pkg/analyzer"
	"logicprobe/pkg/clock"
	"logicprobe/pkg/scheduler"
)

const (
	buttonPoll      = 50 * time.Millisecond
	refreshInterval = 100 * time.Millisecond
	counterPoll     = time.Millisecond
	heldPause       = 300 * time.Millisecond
	clearDebounce   = 500 * time.Millisecond
	// modeLockout is the minimum time between two mode changes.
	modeLockout clock.Ticks = 300 * 1000
	// edgeRateWindowMs is the gate time of the edge counter mode.
	edgeRateWindowMs = 100
)

func (app *App) modeSwitch(ctx context.Context, p *scheduler.Proc) error {
	for {
		app.checkModeButton()
		if err := p.Sleep(ctx, buttonPoll); err != nil {
			return err
		}
	}
}

// checkModeButton advances the mode when the button is held and the last
// change is older than modeLockout.
func (app *App) checkModeButton() bool {
	if app.modeButton.Read() {
		return false
	}
	if app.clock.Now().Since(app.lastModeChange) <= modeLockout {
		return false
	}
	app.switchMode(app.mode.Next())
	return true
}

func (app *App) switchMode(m Mode) {
	app.mode = m
	app.lastModeChange = app.clock.Now()
	app.showNumber = false
	if app.monitor != nil {
		debug.DebugLog.Printf("mode %s, %d pulses, %d bounces since last change",
			m, app.monitor.PulseCount(), app.monitor.Bounced())
		app.monitor.ResetPulseCount()
	}
	app.display.ShowMode(m.String())
}

func (app *App) buttonEdges(ctx context.Context, p *scheduler.Proc) error {
	for {
		n, err := app.analyzer.EdgeCountWhileHeld(ctx, p, app.edgeButton)
		switch {
		case err == nil:
			app.number = n
			app.showNumber = true
			app.display.ShowNumber(n)
		case errors.Is(err, analyzer.ErrWrongBackend):
		default:
			return err
		}
		if err = p.Sleep(ctx, heldPause); err != nil {
			return err
		}
	}
}

func (app *App) clearDisplay(ctx context.Context, p *scheduler.Proc) error {
	for {
		if !app.clearButton.Read() {
			app.showNumber = false
			app.display.Clear()
			app.display.ShowMode(app.mode.String())
			if err := p.Sleep(ctx, clearDebounce); err != nil {
				return err
			}
		}
		if err := p.Sleep(ctx, buttonPoll); err != nil {
			return err
		}
	}
}

func (app *App) pollEdgeCounter(ctx context.Context, p *scheduler.Proc) error {
	for {
		app.analyzer.Update()
		if n, ok := app.analyzer.ButtonEdgeResult(); ok && n != app.lastResult {
			debug.InfoLog.Printf("%d edges counted while the button was held", n)
			app.lastResult = n
		}
		if err := p.Sleep(ctx, counterPoll); err != nil {
			return err
		}
	}
}

func (app *App) refresh(ctx context.Context, p *scheduler.Proc) error {
	for {
		app.render()
		if err := p.Sleep(ctx, refreshInterval); err != nil {
			return err
		}
	}
}

// render shows one reading of the current mode. Readings without data are
// shown as zero.
func (app *App) render() {
	if app.showNumber {
		app.display.ShowNumber(app.number)
		return
	}

	samples := app.config.Probe.Samples
	switch app.mode {
	case ModeLogic:
		app.display.ShowLogic(app.level())

	case ModeFrequency:
		hz, err := app.analyzer.FrequencyHz(app.window())
		app.check("frequency", err)
		app.lastHz = hz
		app.display.ShowFrequency(hz)

	case ModePulse:
		us, err := app.analyzer.PulseWidthUs(samples)
		app.check("pulse width", err)
		app.display.ShowPulse(us)

	case ModeDuty:
		percent, hz, err := app.analyzer.DutyCycle(samples, app.window())
		app.check("duty cycle", err)
		if err == nil {
			app.lastHz = hz
		}
		app.display.ShowDutyCycle(percent, hz)

	case ModeEdgeTime:
		rise, fall, err := app.analyzer.RiseFallNs(samples)
		app.check("edge timing", err)
		app.display.ShowRiseFall(round2(rise), round2(fall))

	case ModeEdgeCounter:
		n, err := app.analyzer.EdgeCount(edgeRateWindowMs)
		app.check("edge count", err)
		app.display.ShowEdgeCount(n * 1000 / edgeRateWindowMs)
	}
}

// level prefers the debounced monitor level and reads the pin in safe mode.
func (app *App) level() bool {
	if app.monitor != nil {
		return app.monitor.Level()
	}
	return app.probe.Read()
}

func (app *App) check(what string, err error) {
	switch {
	case err == nil:
	case errors.Is(err, analyzer.ErrNoData):
		debug.TraceLog.Printf("%s: %v", what, err)
	default:
		debug.ErrorLog.Printf("%s: %v", what, err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
