package config

import (
	"fmt"
	"io"
	"time"

	"logicprobe/pkg/port"
	"logicprobe/pkg/sequencer"
)

// Config holds the instrument configuration. Fields ending in Us or Ms are
// what the file holds; LoadConfig converts them to the typed fields next to
// them.
type Config struct {
	Probe       ProbeConfig       `yaml:"probe" toml:"probe"`
	Buttons     ButtonConfig      `yaml:"buttons" toml:"buttons"`
	ADCPin      int               `yaml:"adcpin" toml:"adcpin"`
	TimeoutMs   int               `yaml:"timeout" toml:"timeout"`
	Timeout     time.Duration     `yaml:"-" toml:"-"`
	Calibration CalibrationConfig `yaml:"calibration" toml:"calibration"`
	Sequencer   SequencerConfig   `yaml:"sequencer" toml:"sequencer"`
	TestSignal  SignalConfig      `yaml:"testsignal" toml:"testsignal"`
	Emulation   EmulationConfig   `yaml:"emulation" toml:"emulation"`
	Display     DisplayConfig     `yaml:"display" toml:"display"`
	Gpio        GpioConfig        `yaml:"gpio" toml:"gpio"`
	Flag        FlagConfig        `yaml:"-" toml:"-"`
	Debug       DebugConfig       `yaml:"debug" toml:"debug"`
}

// FlagConfig defines the configured flags (parameters)
type FlagConfig struct {
	Version    bool
	Debug      string
	ConfigFile string
	Backend    string
	Emulate    bool
}

// ProbeConfig is the measured input line.
type ProbeConfig struct {
	Pin     int    `yaml:"pin" toml:"pin"`
	Backend string `yaml:"backend" toml:"backend"`
	// Pull is the probe line bias: none, pullup or pulldown.
	Pull string `yaml:"pull" toml:"pull"`
	// DebounceUs is the edge monitor's minimum time between accepted edges.
	DebounceUs int `yaml:"debounce" toml:"debounce"`
	Samples    int `yaml:"samples" toml:"samples"`
}

// ButtonConfig holds the active low push buttons. A negative pin disables
// the button.
type ButtonConfig struct {
	Mode     int `yaml:"mode" toml:"mode"`
	Edge     int `yaml:"edge" toml:"edge"`
	Clear    int `yaml:"clear" toml:"clear"`
	SafeMode int `yaml:"safemode" toml:"safemode"`
}

// CalibrationConfig scales the host timed readings.
type CalibrationConfig struct {
	PulseWidth float64 `yaml:"pulsewidth" toml:"pulsewidth"`
	DutyCycle  float64 `yaml:"dutycycle" toml:"dutycycle"`
	Frequency  float64 `yaml:"frequency" toml:"frequency"`
}

// SequencerConfig selects the state machine clock and the edge counter width.
type SequencerConfig struct {
	ClockHz     int `yaml:"clock" toml:"clock"`
	CounterBits int `yaml:"counterbits" toml:"counterbits"`
}

// SignalConfig describes a square wave.
type SignalConfig struct {
	Pin         int     `yaml:"pin" toml:"pin"`
	FrequencyHz float64 `yaml:"frequency" toml:"frequency"`
	DutyPercent float64 `yaml:"duty" toml:"duty"`
}

// EmulationConfig drives the simulated pins used with --emulate.
type EmulationConfig struct {
	Signal SignalConfig `yaml:"signal" toml:"signal"`
	// ModeCycleMs presses the mode button every ModeCycleMs, 0 never.
	ModeCycleMs int           `yaml:"modecycle" toml:"modecycle"`
	ModeCycle   time.Duration `yaml:"-" toml:"-"`
}

// DisplayConfig holds the TFT wiring and the colour palette.
type DisplayConfig struct {
	SCK       int    `yaml:"sck" toml:"sck"`
	MOSI      int    `yaml:"mosi" toml:"mosi"`
	RST       int    `yaml:"rst" toml:"rst"`
	DC        int    `yaml:"dc" toml:"dc"`
	CS        int    `yaml:"cs" toml:"cs"`
	Text      uint16 `yaml:"text" toml:"text"`
	Highlight uint16 `yaml:"highlight" toml:"highlight"`
	// Background, Green and Red complete the RGB565 palette.
	Background uint16 `yaml:"background" toml:"background"`
	Green      uint16 `yaml:"green" toml:"green"`
	Red        uint16 `yaml:"red" toml:"red"`
	// Refresh clears the terminal before each console screen.
	Refresh bool `yaml:"refresh" toml:"refresh"`
}

// GpioConfig names the Linux gpio character device.
type GpioConfig struct {
	Chip string `yaml:"chip" toml:"chip"`
}

// DebugConfig defines the struct of the debug configuration and configuration file
type DebugConfig struct {
	File       io.WriteCloser `yaml:"-" toml:"-"`
	Flag       int            `yaml:"-" toml:"-"`
	FlagString string         `yaml:"flag" toml:"flag"`
	FileString string         `yaml:"file" toml:"file"`
}

func NewConfig() *Config {
	c := &Config{
		Probe: ProbeConfig{
			Pin:        15,
			Backend:    "cpu",
			Pull:       "none",
			DebounceUs: 5000,
			Samples:    15,
		},
		Buttons: ButtonConfig{
			Mode:     16,
			Edge:     19,
			Clear:    -1,
			SafeMode: 18,
		},
		ADCPin:    26,
		TimeoutMs: 500,
		Calibration: CalibrationConfig{
			PulseWidth: 1,
			DutyCycle:  1,
			Frequency:  1,
		},
		Sequencer: SequencerConfig{
			ClockHz:     125_000_000,
			CounterBits: 32,
		},
		TestSignal: SignalConfig{Pin: 17, FrequencyHz: 5000, DutyPercent: 50},
		Emulation: EmulationConfig{
			Signal:      SignalConfig{Pin: 15, FrequencyHz: 5000, DutyPercent: 50},
			ModeCycleMs: 0,
		},
		Display: DisplayConfig{
			SCK:        10,
			MOSI:       11,
			RST:        12,
			DC:         13,
			CS:         14,
			Text:       0xFFFF,
			Background: 0x0000,
			Highlight:  0x001F,
			Green:      0x07E0,
			Red:        0xF800,
			Refresh:    true,
		},
		Gpio: GpioConfig{Chip: "gpiochip0"},
		Debug: DebugConfig{
			FileString: "stderr",
			FlagString: "standard",
		},
	}
	c.convert()
	return c
}

// Validate checks the values no default can repair.
func (c *Config) Validate() error {
	if _, ok := port.ParsePull(c.Probe.Pull); !ok {
		return fmt.Errorf("probe pull %q, want none, pullup or pulldown", c.Probe.Pull)
	}
	if c.Sequencer.CounterBits != 0 {
		if err := sequencer.CheckCounterBits(c.Sequencer.CounterBits); err != nil {
			return fmt.Errorf("sequencer counterbits: %w", err)
		}
	}
	return nil
}

// convert fills the typed fields from the raw file values.
func (c *Config) convert() {
	c.Timeout = time.Duration(c.TimeoutMs) * time.Millisecond
	c.Emulation.ModeCycle = time.Duration(c.Emulation.ModeCycleMs) * time.Millisecond
}
