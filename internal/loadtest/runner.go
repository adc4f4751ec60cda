// Package loadtest drives the k6 load generator and normalizes its summary
// export into a sweep.MetricsSnapshot.
package loadtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samurailab/poolsweep/internal/config"
	"github.com/samurailab/poolsweep/internal/process"
	"github.com/samurailab/poolsweep/internal/sweep"
)

// Runner invokes the load tool in its two phases.
type Runner struct {
	runner process.Runner
	tool   config.LoadToolConfig
	dir    string

	warmupTimeout   time.Duration
	measuredTimeout time.Duration
}

// NewRunner creates a Runner executing scripts relative to the project dir.
func NewRunner(runner process.Runner, cfg *config.SweepConfig) *Runner {
	return &Runner{
		runner:          runner,
		tool:            cfg.LoadTool,
		dir:             cfg.Paths.ProjectDir,
		warmupTimeout:   cfg.Timeouts.Warmup,
		measuredTimeout: cfg.Timeouts.Measured,
	}
}

// VirtualUsers is the k6 VU count used for tc.
func (r *Runner) VirtualUsers(tc sweep.TestConfiguration) int {
	return r.tool.VUsPerWorker * tc.WorkerThreads
}

// RunWarmup runs the warm-up script. Its output is not kept.
func (r *Runner) RunWarmup(ctx context.Context) error {
	cmd := process.Command{
		Name:    r.tool.Binary,
		Args:    []string{"run", r.tool.WarmupScript},
		Dir:     r.dir,
		Timeout: r.warmupTimeout,
	}
	if _, err := r.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("warm-up failed: %w", err)
	}
	return nil
}

// RunMeasured runs the measured script for tc and exports the k6 summary to
// outputPath. A file left at outputPath by an earlier run is removed first so
// a missing export is never mistaken for fresh results.
func (r *Runner) RunMeasured(ctx context.Context, tc sweep.TestConfiguration, outputPath string) error {
	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove stale summary: %w", err)
	}
	if dir := filepath.Dir(outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create summary directory: %w", err)
		}
	}

	// k6 runs inside the project dir; hand it an absolute export path.
	exportPath, err := filepath.Abs(outputPath)
	if err != nil {
		return fmt.Errorf("failed to resolve summary path: %w", err)
	}

	args := []string{"run", "--summary-export", exportPath}
	if r.tool.TrendStats != "" {
		args = append(args, "--summary-trend-stats", r.tool.TrendStats)
	}
	args = append(args, r.tool.MeasuredScript)

	vus := r.VirtualUsers(tc)
	cmd := process.Command{
		Name:    r.tool.Binary,
		Args:    args,
		Dir:     r.dir,
		Env:     []string{r.tool.VUsEnv + "=" + strconv.Itoa(vus)},
		Timeout: r.measuredTimeout,
	}

	log.WithFields(log.Fields{
		"vus":     vus,
		"summary": exportPath,
	}).Debug("running measured load")

	if _, err := r.runner.Run(ctx, cmd); err != nil {
		return fmt.Errorf("measured run failed: %w", err)
	}
	return nil
}
