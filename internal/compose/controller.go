package compose

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samurailab/poolsweep/internal/config"
	"github.com/samurailab/poolsweep/internal/process"
	"github.com/samurailab/poolsweep/internal/sweep"
)

// Controller applies configurations to the service under test and manages the
// whole compose project. Every method blocks until the underlying command
// exits; command failures come back as *process.ExternalProcessError.
type Controller struct {
	runner       process.Runner
	service      config.ServiceConfig
	projectDir   string
	overridePath string
	timeout      time.Duration
}

// NewController creates a controller for cfg's compose project.
func NewController(runner process.Runner, cfg *config.SweepConfig) *Controller {
	return &Controller{
		runner:       runner,
		service:      cfg.Service,
		projectDir:   cfg.Paths.ProjectDir,
		overridePath: cfg.OverridePath(),
		timeout:      cfg.Timeouts.Compose,
	}
}

// OverridePath is the file rewritten on every iteration.
func (c *Controller) OverridePath() string {
	return c.overridePath
}

// WriteOverride writes tc into the override file, replacing the previous one.
func (c *Controller) WriteOverride(tc sweep.TestConfiguration) error {
	return WriteOverride(c.overridePath, BuildOverride(c.service, tc))
}

// Restart restarts only the target service and waits for it to be healthy.
func (c *Controller) Restart(ctx context.Context) error {
	log.WithField("service", c.service.Name).Debug("restarting service")

	if err := c.compose(ctx, "restart", c.service.Name); err != nil {
		return fmt.Errorf("restart %s: %w", c.service.Name, err)
	}
	// restart does not pick up a changed override file on its own; up
	// recreates the container when its configuration differs and --wait
	// blocks until the health check passes.
	if err := c.compose(ctx, "up", "-d", "--wait", c.service.Name); err != nil {
		return fmt.Errorf("wait for %s: %w", c.service.Name, err)
	}
	return nil
}

// StartAll brings the full service group up and waits until it is healthy.
func (c *Controller) StartAll(ctx context.Context) error {
	if err := c.compose(ctx, "up", "-d", "--wait"); err != nil {
		return fmt.Errorf("start services: %w", err)
	}
	return nil
}

// StopAll stops and removes the service group. Volumes are kept.
func (c *Controller) StopAll(ctx context.Context) error {
	if err := c.compose(ctx, "down"); err != nil {
		return fmt.Errorf("stop services: %w", err)
	}
	return nil
}

func (c *Controller) compose(ctx context.Context, args ...string) error {
	base := c.service.ComposeCommand
	cmd := process.Command{
		Name:    base[0],
		Args:    append(append([]string{}, base[1:]...), args...),
		Dir:     c.projectDir,
		Timeout: c.timeout,
	}
	_, err := c.runner.Run(ctx, cmd)
	return err
}
