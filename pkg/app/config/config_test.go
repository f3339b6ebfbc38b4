package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	c := NewConfig()
	if c.Probe.Pin != 15 || c.Buttons.Mode != 16 || c.Buttons.Edge != 19 || c.ADCPin != 26 {
		t.Fatalf("unexpected pin defaults: %+v %+v", c.Probe, c.Buttons)
	}
	if c.Timeout != 500*time.Millisecond || c.Probe.DebounceUs != 5000 {
		t.Fatalf("unexpected timing defaults: %v %d", c.Timeout, c.Probe.DebounceUs)
	}
	if c.Calibration.Frequency != 1 || c.Sequencer.CounterBits != 32 {
		t.Fatalf("unexpected calibration defaults: %+v %+v", c.Calibration, c.Sequencer)
	}
}

func TestLoadYAML(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeFile(t, "logicprobe.yaml", `
probe:
  pin: 4
  backend: pio
  pull: pulldown
timeout: 250
calibration:
  pulsewidth: 1.02
emulation:
  modecycle: 2000
debug:
  flag: debug
  file: stdout
`)
	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Probe.Pin != 4 || c.Probe.Backend != "pio" || c.Probe.Pull != "pulldown" || c.Probe.DebounceUs != 5000 {
		t.Fatalf("probe = %+v", c.Probe)
	}
	if c.Timeout != 250*time.Millisecond || c.Emulation.ModeCycle != 2*time.Second {
		t.Fatalf("durations not converted: %v %v", c.Timeout, c.Emulation.ModeCycle)
	}
	if c.Calibration.PulseWidth != 1.02 || c.Calibration.DutyCycle != 1 {
		t.Fatalf("calibration = %+v", c.Calibration)
	}
	if c.Debug.File != os.Stdout || c.Debug.Flag == 0 {
		t.Fatalf("debug config not applied: %+v", c.Debug)
	}
}

func TestLoadTOML(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = writeFile(t, "logicprobe.toml", `
timeout = 100

[buttons]
mode = 2
clear = 3

[sequencer]
counterbits = 5
`)
	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Buttons.Mode != 2 || c.Buttons.Clear != 3 || c.Buttons.Edge != 19 {
		t.Fatalf("buttons = %+v", c.Buttons)
	}
	if c.Sequencer.CounterBits != 5 || c.Timeout != 100*time.Millisecond {
		t.Fatalf("sequencer %+v timeout %v", c.Sequencer, c.Timeout)
	}
}

func TestMissingFileKeepsDefaults(t *testing.T) {
	c := NewConfig()
	c.Flag.ConfigFile = filepath.Join(t.TempDir(), "absent.yaml")
	c.Flag.Backend = "pio"
	if err := c.LoadConfig(); err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.Probe.Pin != 15 || c.Probe.Backend != "pio" {
		t.Fatalf("probe = %+v", c.Probe)
	}
}

func TestRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"counter width": "sequencer:\n  counterbits: 16\n",
		"probe pull":    "probe:\n  pull: floating\n",
	}
	for name, content := range cases {
		c := NewConfig()
		c.Flag.ConfigFile = writeFile(t, "logicprobe.yaml", content)
		if err := c.LoadConfig(); err == nil {
			t.Fatalf("%s: invalid value accepted", name)
		}
	}
	if err := NewConfig().Validate(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
}
