package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/womat/debug"

	"logicprobe/pkg/analyzer"
	"logicprobe/pkg/app/config"
	"logicprobe/pkg/clock"
	"logicprobe/pkg/display"
	"logicprobe/pkg/gpio"
	"logicprobe/pkg/hosttimed"
	"logicprobe/pkg/monitor"
	"logicprobe/pkg/port"
	"logicprobe/pkg/scheduler"
	"logicprobe/pkg/sequencer"
)

// App is where the instrument is wired up.
type App struct {
	// config is the application configuration
	config *config.Config

	// platform is the hardware everything below runs on
	platform *Platform
	clock    clock.Clock
	display  display.Display

	// probe shares the probe pin between the monitor and the host backend
	probe *gpio.Dispatcher
	// monitor is nil in safe mode
	monitor  *monitor.Monitor
	analyzer *analyzer.Analyzer

	modeButton  gpio.Pin
	edgeButton  gpio.Pin
	clearButton gpio.Pin

	// the fields below are owned by the scheduler tasks
	mode           Mode
	lastModeChange clock.Ticks
	showNumber     bool
	number         int
	lastHz         float64
	lastResult     int
	safeMode       bool
}

// New wires the probe, the buttons and the display of platform p. On error the
// returned App may be partly initialized and must still be closed.
func New(cfg *config.Config, p *Platform) (*App, error) {
	app := &App{
		config:   cfg,
		platform: p,
		clock:    p.Clock,
		display:  p.Display,
	}
	return app, app.init()
}

// init initializes the application.
func (app *App) init() (err error) {
	cfg := app.config

	if cfg.Buttons.SafeMode >= 0 {
		pin, err := app.platform.GPIO.NewPin(cfg.Buttons.SafeMode, port.PullUp)
		if err != nil {
			debug.ErrorLog.Printf("can't open safe mode pin: %v", err)
			return err
		}
		app.safeMode = !pin.Read()
		pin.Unwatch()
	}
	if app.safeMode {
		debug.InfoLog.Print("safe mode: edge monitor disabled")
	}

	pull, ok := port.ParsePull(cfg.Probe.Pull)
	if !ok {
		return fmt.Errorf("unknown probe pull %q", cfg.Probe.Pull)
	}
	probePin, err := app.platform.GPIO.NewPin(cfg.Probe.Pin, pull)
	if err != nil {
		debug.ErrorLog.Printf("can't open probe pin: %v", err)
		return err
	}
	app.probe = gpio.NewDispatcher(probePin)

	if !app.safeMode {
		app.monitor = monitor.New(app.probe, monitor.WithDebounce(clock.Ticks(cfg.Probe.DebounceUs)))
		if err = app.monitor.Init(); err != nil {
			debug.ErrorLog.Printf("can't start edge monitor: %v", err)
			return err
		}
	}

	backend, err := analyzer.ParseBackend(cfg.Probe.Backend)
	if err != nil {
		return err
	}
	app.analyzer, err = analyzer.New(
		analyzer.Config{
			Pin:     cfg.Probe.Pin,
			Backend: backend,
			Timeout: clock.FromDuration(cfg.Timeout),
			Sequencer: sequencer.Config{
				ClockHz:     cfg.Sequencer.ClockHz,
				CounterBits: cfg.Sequencer.CounterBits,
			},
		},
		analyzer.Hardware{Clock: app.clock, Probe: app.probe, Sequencer: app.platform.Sequencer},
		analyzer.Calibration{
			PulseWidth: cfg.Calibration.PulseWidth,
			DutyCycle:  cfg.Calibration.DutyCycle,
			Frequency:  cfg.Calibration.Frequency,
		},
	)
	if err != nil {
		debug.ErrorLog.Printf("can't start %s analyzer: %v", cfg.Probe.Backend, err)
		return err
	}

	if app.modeButton, err = app.button(cfg.Buttons.Mode); err != nil {
		return err
	}
	if app.edgeButton, err = app.button(cfg.Buttons.Edge); err != nil {
		return err
	}
	if app.clearButton, err = app.button(cfg.Buttons.Clear); err != nil {
		return err
	}
	app.enableButtonCounter()

	app.display.Clear()
	app.display.ShowMode(app.mode.String())
	app.lastModeChange = app.clock.Now()
	debug.InfoLog.Printf("probe on pin %d, %s backend", cfg.Probe.Pin, app.analyzer.Backend())
	return nil
}

// button opens an active low push button, nil if the pin is disabled.
func (app *App) button(pin int) (gpio.Pin, error) {
	if pin < 0 {
		return nil, nil
	}
	p, err := app.platform.GPIO.NewPin(pin, port.PullUp)
	if err != nil {
		debug.ErrorLog.Printf("can't open button pin %d: %v", pin, err)
		return nil, err
	}
	return p, nil
}

// enableButtonCounter arms the button gated edge counter, which only the host
// backend has.
func (app *App) enableButtonCounter() {
	if app.edgeButton == nil || app.analyzer.Backend() != analyzer.HostTimed {
		return
	}
	if err := app.analyzer.EnableButtonEdgeCount(app.edgeButton); err != nil {
		debug.ErrorLog.Printf("button edge count: %v", err)
	}
}

// SetBackend switches the measurement backend. Every backend state is reset.
func (app *App) SetBackend(b analyzer.Backend) error {
	if err := app.analyzer.SetMode(b); err != nil {
		// the analyzer fell back to the previous backend
		app.enableButtonCounter()
		return err
	}
	app.lastResult = 0
	app.enableButtonCounter()
	debug.InfoLog.Printf("switched to %s backend", b)
	return nil
}

// SafeMode reports whether the safe mode pin was held low at start.
func (app *App) SafeMode() bool { return app.safeMode }

// Platform returns the hardware the app runs on.
func (app *App) Platform() *Platform { return app.platform }

// Mode returns the active display mode.
func (app *App) Mode() Mode { return app.mode }

// Run starts the platform and runs the instrument tasks until ctx is done.
func (app *App) Run(ctx context.Context) error {
	if app.analyzer == nil {
		return errors.New("app not initialized")
	}

	if app.platform.Start != nil {
		go app.platform.Start(ctx)
	}

	loop := scheduler.New()
	if app.modeButton != nil {
		loop.Go("mode", app.modeSwitch)
	}
	if app.edgeButton != nil {
		loop.Go("edges", app.buttonEdges)
	}
	if app.clearButton != nil {
		loop.Go("clear", app.clearDisplay)
	}
	loop.Go("refresh", app.refresh)
	loop.Go("counter", app.pollEdgeCounter)

	debug.InfoLog.Printf("running %s", Version())
	if err := loop.Run(ctx); err != nil {
		debug.ErrorLog.Printf("stopped: %v", err)
		return err
	}
	return nil
}

func (app *App) Close() error {
	var errs []error
	if app.analyzer != nil {
		errs = append(errs, app.analyzer.Close())
	}
	if app.monitor != nil {
		app.monitor.Close()
	}
	if app.probe != nil {
		app.probe.Close()
	}
	for _, b := range []gpio.Pin{app.modeButton, app.edgeButton, app.clearButton} {
		if b != nil {
			b.Unwatch()
		}
	}
	errs = append(errs, app.platform.Close())

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}

// window picks the frequency gate time from the last reading.
func (app *App) window() int {
	if app.lastHz <= 0 {
		return hosttimed.DefaultWindowMs
	}
	return hosttimed.AutoWindow(app.lastHz)
}
