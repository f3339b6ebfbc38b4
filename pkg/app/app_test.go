package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"logicprobe/pkg/analyzer"
	"logicprobe/pkg/app/config"
	"logicprobe/pkg/sim"
)

type shown struct {
	kind string
	a, b float64
}

// recorder is a display.Display that remembers what it was asked to show.
type recorder struct {
	mu    sync.Mutex
	shown []shown
}

func (r *recorder) add(kind string, a, b float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, shown{kind, a, b})
}

func (r *recorder) last() shown {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.shown) == 0 {
		return shown{}
	}
	return r.shown[len(r.shown)-1]
}

func (r *recorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.shown {
		if s.kind == kind {
			n++
		}
	}
	return n
}

func (r *recorder) ShowLogic(level bool) {
	v := 0.0
	if level {
		v = 1
	}
	r.add("logic", v, 0)
}
func (r *recorder) ShowFrequency(hz float64)          { r.add("frequency", hz, 0) }
func (r *recorder) ShowPulse(us float64)              { r.add("pulse", us, 0) }
func (r *recorder) ShowDutyCycle(percent, hz float64) { r.add("duty", percent, hz) }
func (r *recorder) ShowRiseFall(rise, fall float64)   { r.add("edge_time", rise, fall) }
func (r *recorder) ShowEdgeCount(n int)               { r.add("edges", float64(n), 0) }
func (r *recorder) ShowNumber(n int)                  { r.add("number", float64(n), 0) }
func (r *recorder) ShowMode(name string)              { r.add("mode:"+name, 0, 0) }
func (r *recorder) Clear()                            { r.add("clear", 0, 0) }

func newTestApp(t *testing.T, cfg *config.Config, clk *sim.Clock, prepare func(*sim.Board)) (*App, *recorder, *sim.Board) {
	t.Helper()
	rec := &recorder{}
	p := Simulated(cfg, clk, rec)
	board := p.GPIO.(*sim.Board)
	if prepare != nil {
		prepare(board)
	}
	a, err := New(cfg, p)
	if err != nil {
		_ = a.Close()
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, rec, board
}

func within(v, lo, hi float64) bool { return v >= lo && v <= hi }

func TestStartupShowsLogicMode(t *testing.T) {
	a, rec, _ := newTestApp(t, config.NewConfig(), sim.NewClock(0, time.Microsecond), nil)
	if a.Mode() != ModeLogic || a.SafeMode() {
		t.Fatalf("mode %v safe %v", a.Mode(), a.SafeMode())
	}
	if rec.count("clear") != 1 || rec.last().kind != "mode:logic" {
		t.Fatalf("startup screens = %+v", rec.shown)
	}
}

func TestRenderModes(t *testing.T) {
	// edges per second: the host backend counts both edges, the sequencer
	// whole periods
	edgeRate := map[string]float64{"cpu": 10000, "pio": 5000}

	for _, backend := range []string{"cpu", "pio"} {
		cfg := config.NewConfig()
		cfg.Probe.Backend = backend
		a, rec, _ := newTestApp(t, cfg, sim.NewClock(0, time.Microsecond), nil)
		rate := edgeRate[backend]

		tests := []struct {
			mode   Mode
			kind   string
			lo, hi float64
		}{
			{ModeFrequency, "frequency", 4900, 5100},
			{ModePulse, "pulse", 90, 110},
			{ModeDuty, "duty", 45, 55},
			{ModeEdgeTime, "edge_time", 80000, 110000},
			{ModeEdgeCounter, "edges", rate * 0.98, rate * 1.02},
		}
		for _, tt := range tests {
			a.switchMode(tt.mode)
			a.render()
			got := rec.last()
			if got.kind != tt.kind || !within(got.a, tt.lo, tt.hi) {
				t.Fatalf("%s %v: shown %+v, want %s in [%v, %v]", backend, tt.mode, got, tt.kind, tt.lo, tt.hi)
			}
		}
		if a.lastHz == 0 || a.window() != 10 {
			t.Fatalf("%s: frequency window not adapted: %v Hz, %d ms", backend, a.lastHz, a.window())
		}
	}
}

func TestRenderWithoutSignalShowsZero(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Emulation.Signal.FrequencyHz = 0
	cfg.TimeoutMs = 5
	cfg.Timeout = 5 * time.Millisecond
	a, rec, _ := newTestApp(t, cfg, sim.NewClock(0, time.Microsecond), nil)

	for _, m := range []Mode{ModeFrequency, ModePulse, ModeDuty, ModeEdgeCounter} {
		a.switchMode(m)
		a.render()
		if got := rec.last(); got.a != 0 {
			t.Fatalf("%v: shown %+v on a quiet line", m, got)
		}
	}
}

func TestModeButtonLockout(t *testing.T) {
	clk := sim.NewClock(0, 0)
	a, rec, board := newTestApp(t, config.NewConfig(), clk, nil)

	if a.checkModeButton() {
		t.Fatalf("released button switched mode")
	}
	board.Drive(16, sim.Constant(false))
	if a.checkModeButton() {
		t.Fatalf("mode switched inside the lockout")
	}

	clk.Advance(301 * time.Millisecond)
	a.showNumber = true
	if !a.checkModeButton() || a.Mode() != ModeFrequency {
		t.Fatalf("mode = %v, want frequency", a.Mode())
	}
	if a.showNumber || rec.last().kind != "mode:frequency" {
		t.Fatalf("display state not reset: %v %+v", a.showNumber, rec.last())
	}
	if a.checkModeButton() {
		t.Fatalf("held button switched again without waiting")
	}

	for i := 0; i < int(modeCount)-1; i++ {
		clk.Advance(301 * time.Millisecond)
		a.checkModeButton()
	}
	if a.Mode() != ModeLogic {
		t.Fatalf("mode = %v after a full cycle", a.Mode())
	}
}

func TestShowNumberOverridesMode(t *testing.T) {
	a, rec, _ := newTestApp(t, config.NewConfig(), sim.NewClock(0, time.Microsecond), nil)
	a.number, a.showNumber = 42, true
	a.render()
	if got := rec.last(); got.kind != "number" || got.a != 42 {
		t.Fatalf("shown %+v, want number 42", got)
	}
}

func TestSafeMode(t *testing.T) {
	a, rec, _ := newTestApp(t, config.NewConfig(), sim.NewClock(0, time.Microsecond), func(b *sim.Board) {
		b.Drive(18, sim.Constant(false))
	})
	if !a.SafeMode() || a.monitor != nil {
		t.Fatalf("safe mode not entered")
	}
	a.render()
	if rec.last().kind != "logic" {
		t.Fatalf("shown %+v, want logic", rec.last())
	}
	if _, err := a.Measure(context.Background(), "rising"); err == nil {
		t.Fatalf("edge wait without monitor succeeded")
	}
}

func TestProbePull(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Emulation.Signal.Pin = 20
	cfg.Probe.Pull = "pullup"
	a, rec, _ := newTestApp(t, cfg, sim.NewClock(0, time.Microsecond), nil)

	a.render()
	if got := rec.last(); got.kind != "logic" || got.a != 1 {
		t.Fatalf("shown %+v, want a pulled up line", got)
	}

	cfg = config.NewConfig()
	cfg.Probe.Pull = "floating"
	p := Simulated(cfg, sim.NewClock(0, time.Microsecond), &recorder{})
	bad, err := New(cfg, p)
	_ = bad.Close()
	if err == nil {
		t.Fatalf("unknown pull accepted")
	}
}

func TestMeasure(t *testing.T) {
	a, _, _ := newTestApp(t, config.NewConfig(), sim.NewClock(0, time.Microsecond), nil)
	ctx := context.Background()

	for kind, unit := range map[string]string{"frequency": "Hz", "period": "ns", "pulse": "us", "duty": "%", "edge_time": "rise"} {
		out, err := a.Measure(ctx, kind)
		if err != nil || !strings.Contains(out, unit) {
			t.Fatalf("Measure(%s) = %q, %v", kind, out, err)
		}
	}
	if _, err := a.Measure(ctx, "voltage"); err == nil {
		t.Fatalf("unknown measurement accepted")
	}
}

func TestMeasureWaitsForEdge(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Emulation.Signal.FrequencyHz = 10
	a, _, _ := newTestApp(t, cfg, sim.NewWallClock(0), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go a.platform.Start(ctx)

	out, err := a.Measure(ctx, "rising")
	if err != nil || !strings.HasPrefix(out, "rising edge at") {
		t.Fatalf("Measure(rising) = %q, %v", out, err)
	}
}

func TestCompareBackends(t *testing.T) {
	a, _, _ := newTestApp(t, config.NewConfig(), sim.NewClock(0, time.Microsecond), nil)
	cpu, pio, err := a.Compare(context.Background(), "frequency")
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if !strings.HasSuffix(cpu, "Hz") || !strings.HasSuffix(pio, "Hz") {
		t.Fatalf("cpu %q pio %q", cpu, pio)
	}
	if a.analyzer.Backend() != analyzer.HostTimed {
		t.Fatalf("backend not restored: %v", a.analyzer.Backend())
	}
}

func TestEmulatedModeButton(t *testing.T) {
	cfg := config.NewConfig()
	cfg.Emulation.ModeCycle = time.Second
	clk := sim.NewClock(0, 0)
	a, _, _ := newTestApp(t, cfg, clk, nil)

	if !a.modeButton.Read() {
		t.Fatalf("mode button pressed at start")
	}
	clk.Advance(950 * time.Millisecond)
	if a.modeButton.Read() {
		t.Fatalf("mode button not pressed near the end of the cycle")
	}
	if !a.checkModeButton() {
		t.Fatalf("emulated press did not switch mode")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	a, rec, _ := newTestApp(t, config.NewConfig(), sim.NewWallClock(0), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 350*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n := rec.count("logic"); n < 2 {
		t.Fatalf("refresh ran %d times", n)
	}
}

func TestModeNames(t *testing.T) {
	for m := ModeLogic; m < modeCount; m++ {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Fatalf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if ModeEdgeCounter.Next() != ModeLogic {
		t.Fatalf("mode cycle does not wrap")
	}
	if _, err := ParseMode("voltage"); err == nil {
		t.Fatalf("unknown mode accepted")
	}
	if s := Mode(9).String(); s != fmt.Sprintf("Mode(%d)", 9) {
		t.Fatalf("String = %q", s)
	}
}

func TestVersion(t *testing.T) {
	if v := Version(); v != "logicprobe V1.0.0" {
		t.Fatalf("Version = %q", v)
	}
}
