//go:build tinygo && rp2040

package app

import (
	"context"
	"machine"
	"time"

	pio "github.com/tinygo-org/pio/rp2-pio"
	"github.com/tinygo-org/pio/rp2-pio/piolib"
	"github.com/womat/debug"

	"logicprobe/pkg/app/config"
	"logicprobe/pkg/clock"
	"logicprobe/pkg/display"
	"logicprobe/pkg/gpio"
	"logicprobe/pkg/sequencer"
)

// pulseBatch is how many test signal periods are queued at a time.
const pulseBatch = 1 << 20

// OpenPico uses the RP2040 pins, PIO0 for the measurements and the ST7735
// panel. The test signal runs on a state machine of PIO1.
func OpenPico(cfg *config.Config) (*Platform, error) {
	board, err := gpio.Open()
	if err != nil {
		return nil, err
	}

	panel, err := display.NewST7735(display.TFTPins{
		SCK:  cfg.Display.SCK,
		MOSI: cfg.Display.MOSI,
		RST:  cfg.Display.RST,
		DC:   cfg.Display.DC,
		CS:   cfg.Display.CS,
	}, palette(cfg))
	if err != nil {
		return nil, err
	}

	p := &Platform{
		Clock:     clock.Host{},
		GPIO:      board,
		Sequencer: sequencer.NewPIODriver(cfg.Sequencer.ClockHz),
		Display:   panel,
		closers:   []func() error{board.Close},
	}

	sig := cfg.TestSignal
	if sig.Pin < 0 || sig.FrequencyHz <= 0 {
		return p, nil
	}
	pulsar, err := newTestSignal(sig)
	if err != nil {
		debug.ErrorLog.Printf("test signal on pin %d: %v", sig.Pin, err)
		return p, nil
	}
	p.Start = func(ctx context.Context) { feed(ctx, pulsar) }
	return p, nil
}

// newTestSignal starts a square wave. The pulsar program has a fixed 50 %
// duty cycle.
func newTestSignal(sig config.SignalConfig) (*piolib.Pulsar, error) {
	sm, err := pio.PIO1.ClaimStateMachine()
	if err != nil {
		return nil, err
	}
	pulsar, err := piolib.NewPulsar(sm, machine.Pin(sig.Pin))
	if err != nil {
		return nil, err
	}
	if err = pulsar.SetPeriod(time.Duration(float64(time.Second) / sig.FrequencyHz)); err != nil {
		return nil, err
	}
	debug.InfoLog.Printf("test signal %.0f Hz on pin %d", sig.FrequencyHz, sig.Pin)
	return pulsar, nil
}

// feed keeps the pulsar queue topped up until ctx is done.
func feed(ctx context.Context, pulsar *piolib.Pulsar) {
	defer pulsar.Stop()
	for {
		for !pulsar.IsQueueFull() {
			if err := pulsar.TryQueue(pulseBatch); err != nil {
				break
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
}
