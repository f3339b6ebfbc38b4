//go:build !tinygo

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"github.com/womat/debug"

	"logicprobe/pkg/app"
	"logicprobe/pkg/app/config"
)

const defaultConfigFile = "/opt/womat/config/" + app.MODULE + ".yaml"

func main() {
	exitCode := 1
	defer func() {
		os.Exit(exitCode)
	}()

	// cfg holds the application configuration
	cfg := config.NewConfig()

	cliApp := &cli.App{
		Name:    app.MODULE,
		Usage:   "Logic probe for digital signals",
		Version: app.VERSION,
		Description: "Show the level, frequency, pulse width, duty cycle and edge timing of a digital signal" +
			"\n measured either by polling the line from the CPU or by state machine programs." +
			"\n Without hardware the probe runs on simulated pins (--emulate).",
		UsageText: "logicprobe [--config <file>] [--log standard|debug|trace] [--backend cpu|pio] [--emulate] [command]" +
			"\n\nEXAMPLE:" +
			"\n\tstart the probe on simulated pins with the state machine backend" +
			"\n\t\tlogicprobe --emulate --backend pio" +
			"\n\tmeasure the pulse width once" +
			"\n\t\tlogicprobe --config /opt/womat/logicprobe.yaml measure pulse",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Destination: &cfg.Flag.ConfigFile, Value: defaultConfigFile, Usage: "load configuration from `FILE`"},
			&cli.StringFlag{Name: "log", Aliases: []string{"l"}, Destination: &cfg.Flag.Debug, Usage: "`LEVEL` defines the log level (standard|debug|trace)"},
			&cli.StringFlag{Name: "backend", Aliases: []string{"b"}, Destination: &cfg.Flag.Backend, Usage: "measurement `BACKEND` (cpu|pio)"},
			&cli.BoolFlag{Name: "emulate", Aliases: []string{"e"}, Destination: &cfg.Flag.Emulate, Usage: "run on simulated pins"},
		},
		Action: func(ctx *cli.Context) error {
			return run(cfg, os.Stdout, func(a *app.App) error {
				// capture exit signals to ensure resources are released on exit.
				sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
				defer stop()

				debug.InfoLog.Printf("starting app %s", app.Version())
				err := a.Run(sigCtx)
				debug.InfoLog.Print("got exit signal, stopping")
				return err
			})
		},
		Commands: []*cli.Command{
			{
				Name:      "measure",
				Usage:     "take one reading and print it",
				ArgsUsage: strings.Join(app.MeasureKinds, "|"),
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "compare", Usage: "take the reading with both backends"},
				},
				Action: func(ctx *cli.Context) error {
					kind := ctx.Args().First()
					if kind == "" {
						return fmt.Errorf("missing measurement, want one of %s", strings.Join(app.MeasureKinds, ", "))
					}

					return run(cfg, io.Discard, func(a *app.App) error {
						runCtx, cancel := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
						defer cancel()
						if start := a.Platform().Start; start != nil {
							go start(runCtx)
						}

						if ctx.Bool("compare") {
							cpu, pio, err := a.Compare(runCtx, kind)
							if err != nil {
								return err
							}
							fmt.Printf("cpu: %s\npio: %s\n", cpu, pio)
							return nil
						}

						out, err := a.Measure(runCtx, kind)
						if err != nil {
							return err
						}
						fmt.Println(out)
						return nil
					})
				},
			},
		},
	}

	// we expect to have more command line flags in the future - sort them
	sort.Sort(cli.FlagsByName(cliApp.Flags))
	sort.Sort(cli.CommandsByName(cliApp.Commands))

	err := cliApp.Run(os.Args)
	if err != nil {
		debug.FatalLog.Print(err)
		exitCode = 1
		return
	}

	exitCode = 0
	return
}

// run loads the configuration, opens the platform and hands the app to f.
// Screens are drawn to out.
func run(cfg *config.Config, out io.Writer, f func(*app.App) error) error {
	if err := cfg.LoadConfig(); err != nil {
		return err
	}

	debug.SetDebug(cfg.Debug.File, cfg.Debug.Flag)
	defer func() {
		if cfg.Debug.File != os.Stderr && cfg.Debug.File != os.Stdout {
			debug.InfoLog.Printf("closing debug file %s", cfg.Debug.FileString)
			_ = cfg.Debug.File.Close()
		}
	}()

	var p *app.Platform
	if cfg.Flag.Emulate {
		debug.InfoLog.Print("running on simulated pins")
		p = app.Emulated(cfg, out)
	} else {
		var err error
		if p, err = app.OpenHost(cfg, out); err != nil {
			return fmt.Errorf("open gpio (try --emulate): %w", err)
		}
	}

	a, err := app.New(cfg, p)
	defer func() {
		debug.InfoLog.Printf("closing app %s", app.Version())
		_ = a.Close()
	}()
	if err != nil {
		return err
	}

	return f(a)
}
