// Package cli wires the sweep, report and service commands into cobra.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/samurailab/poolsweep/internal/config"
	"github.com/samurailab/poolsweep/internal/output"
	"github.com/samurailab/poolsweep/internal/process"
)

var version = "0.1.0"

// App carries what every command needs. Commands read cfg and printer only
// after the root pre-run has filled them in.
type App struct {
	Runner process.Runner
	Out    io.Writer
	ErrOut io.Writer

	configPath string
	verbose    bool
	noColor    bool

	cfg     *config.SweepConfig
	printer *output.Printer
}

// NewApp returns an App bound to the real OS.
func NewApp() *App {
	return &App{
		Runner: process.NewExecRunner(),
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	}
}

// RootCmd builds the command tree for app.
func RootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "poolsweep",
		Short:   "Benchmark a service across CPU, thread and connection pool settings",
		Version: version,
		Long: `poolsweep runs a parameter sweep against a docker compose service: for
every combination of CPU limit, worker threads and connection pool size it
reconfigures and restarts the service, drives it with k6 and stores one JSON
record per run. The analyze and summarize commands turn the stored records
into comparison tables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup()
		},
		Run: func(cmd *cobra.Command, args []string) {
			// If no subcommand is provided, print help
			cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Configuration file")
	cmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Enable verbose output")
	cmd.PersistentFlags().BoolVar(&app.noColor, "no-color", false, "Disable colored output")

	cmd.SetOut(app.Out)
	cmd.SetErr(app.ErrOut)

	cmd.AddCommand(
		runCmd(app),
		planCmd(app),
		analyzeCmd(app),
		summarizeCmd(app),
		downCmd(app),
	)

	return cmd
}

func (a *App) setup() error {
	output.ConfigureLogging(a.ErrOut, a.verbose, a.noColor)
	a.printer = output.NewPrinter(a.Out, a.noColor)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// Execute runs the root command against the real OS and reports a failure on
// stderr. This is called by main.main().
func Execute() error {
	app := NewApp()
	if err := RootCmd(app).Execute(); err != nil {
		fmt.Fprintln(app.ErrOut, "Error:", err)
		return err
	}
	return nil
}
