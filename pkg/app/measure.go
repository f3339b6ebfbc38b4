package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"logicprobe/pkg/analyzer"
)

// MeasureKinds lists what Measure accepts.
var MeasureKinds = []string{"logic", "frequency", "period", "pulse", "duty", "edge_time", "edge_count", "rising", "falling"}

// sleeper waits on the wall clock; Measure runs outside the task loop.
type sleeper struct{}

func (sleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Measure takes a single reading and formats it for printing. rising and
// falling wait for the next debounced edge until ctx is done.
func (app *App) Measure(ctx context.Context, kind string) (string, error) {
	samples := app.config.Probe.Samples
	window := app.window()

	switch strings.ToLower(kind) {
	case "logic":
		if app.level() {
			return "HIGH", nil
		}
		return "LOW", nil

	case "frequency":
		hz, err := app.analyzer.FrequencyHz(window)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%.2f Hz", hz), nil

	case "period":
		ns, err := app.analyzer.PeriodNs(window)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%.0f ns", ns), nil

	case "pulse":
		us, err := app.analyzer.PulseWidthUs(samples)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%.2f us", us), nil

	case "duty":
		percent, hz, err := app.analyzer.DutyCycle(samples, window)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%.1f %% at %.0f Hz", percent, hz), nil

	case "edge_time":
		rise, fall, err := app.analyzer.RiseFallNs(samples)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rise %.2f ns, fall %.2f ns", rise, fall), nil

	case "edge_count":
		n, err := app.analyzer.EdgeCount(1000)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d edges/s", n), nil

	case "rising", "falling":
		if app.monitor == nil {
			return "", fmt.Errorf("%s: edge monitor disabled in safe mode", kind)
		}
		ts, err := app.monitor.WaitForEdge(ctx, sleeper{}, kind == "rising")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s edge at %d us", kind, ts), nil
	}

	return "", fmt.Errorf("unknown measurement %q, want one of %s", kind, strings.Join(MeasureKinds, ", "))
}

// Compare takes the same reading with both backends and restores the
// configured one.
func (app *App) Compare(ctx context.Context, kind string) (cpu, pio string, err error) {
	configured := app.analyzer.Backend()
	defer func() {
		if e := app.SetBackend(configured); e != nil && err == nil {
			err = e
		}
	}()

	for _, b := range []analyzer.Backend{analyzer.HostTimed, analyzer.Sequencer} {
		if err = app.SetBackend(b); err != nil {
			return "", "", err
		}
		out, merr := app.Measure(ctx, kind)
		if merr != nil {
			return "", "", fmt.Errorf("%s backend: %w", b, merr)
		}
		if b == analyzer.HostTimed {
			cpu = out
		} else {
			pio = out
		}
	}
	return cpu, pio, nil
}
