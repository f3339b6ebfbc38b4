//go:build tinygo && rp2040

// Command pico runs the probe on an RP2040 board with the built in
// configuration.
package main

import (
	"context"
	"time"

	"github.com/womat/debug"

	"logicprobe/pkg/app"
	"logicprobe/pkg/app/config"
)

func main() {
	// give a serial console time to attach
	time.Sleep(time.Second)

	cfg := config.NewConfig()

	p, err := app.OpenPico(cfg)
	if err != nil {
		debug.FatalLog.Printf("open board: %v", err)
		return
	}

	a, err := app.New(cfg, p)
	if err != nil {
		debug.FatalLog.Printf("start %s: %v", app.Version(), err)
		_ = a.Close()
		return
	}

	debug.InfoLog.Printf("starting app %s", app.Version())
	if err = a.Run(context.Background()); err != nil {
		debug.ErrorLog.Print(err)
	}
	_ = a.Close()
}
