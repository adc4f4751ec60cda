package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/samurailab/poolsweep/internal/compose"
	"github.com/samurailab/poolsweep/internal/loadtest"
	"github.com/samurailab/poolsweep/internal/orchestrator"
	"github.com/samurailab/poolsweep/internal/results"
	"github.com/samurailab/poolsweep/internal/sweep"
)

// ErrInterrupted is returned by run when the operator stopped the sweep.
var ErrInterrupted = errors.New("sweep interrupted")

func runCmd(app *App) *cobra.Command {
	var teardown bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full parameter sweep",
		Long: `Start the compose services, then run every configuration of the sweep in
order. Each run writes one record to the results directory, whether it
succeeded or failed. Services are left running afterwards unless --teardown
is given; an interrupted sweep never tears down.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.runSweep(ctx, teardown)
		},
	}

	cmd.Flags().BoolVar(&teardown, "teardown", false, "Stop the services after a completed sweep")
	return cmd
}

func (a *App) configurations() []sweep.TestConfiguration {
	s := a.cfg.Sweep
	return sweep.Enumerate(s.ResourceLimits, s.ThreadMultipliers, s.PoolMultipliers)
}

func (a *App) runSweep(ctx context.Context, teardown bool) error {
	cfg := a.cfg
	p := a.printer
	configs := a.configurations()

	p.Banner(cfg, len(configs))

	ctrl := compose.NewController(a.Runner, cfg)
	p.Step("Starting all services and waiting for them to become healthy...")
	if err := ctrl.StartAll(ctx); err != nil {
		p.Failure("Failed to start services")
		return err
	}
	p.Success("Services started and healthy")

	sweepID := uuid.NewString()
	log.WithField("sweepId", sweepID).Debug("starting sweep")

	s := orchestrator.New(
		ctrl,
		loadtest.NewRunner(a.Runner, cfg),
		loadtest.ExtractMetrics,
		results.NewStore(cfg.ResultsDir()),
		orchestrator.WithObserver(p),
		orchestrator.WithSweepID(sweepID),
	)
	summary := s.Run(ctx, configs)

	if summary.Interrupted {
		p.SweepFinished(summary, cfg.ResultsDir(), a.stopHint())
		return ErrInterrupted
	}

	hint := a.stopHint()
	if teardown {
		p.Step("Stopping services...")
		if err := ctrl.StopAll(context.Background()); err != nil {
			p.Warning("Stopping services failed: %v", err)
		} else {
			p.Success("Services stopped")
			hint = ""
		}
	}

	p.SweepFinished(summary, cfg.ResultsDir(), hint)
	return nil
}

func (a *App) stopHint() string {
	return strings.Join(append(append([]string{}, a.cfg.Service.ComposeCommand...), "down"), " ")
}

func planCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "List the configurations a run would execute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configs := app.configurations()
			app.printer.Plan(configs)
			app.printer.Success("%d configurations", len(configs))
			return nil
		},
	}
}

func downCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Stop the compose services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl := compose.NewController(app.Runner, app.cfg)
			app.printer.Step("Stopping services...")
			if err := ctrl.StopAll(cmd.Context()); err != nil {
				app.printer.Failure("Failed to stop services")
				return err
			}
			app.printer.Success("Services stopped")
			return nil
		},
	}
}
