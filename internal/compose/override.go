// Package compose controls the docker compose service group under test.
package compose

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/samurailab/poolsweep/internal/config"
	"github.com/samurailab/poolsweep/internal/sweep"
)

// OverrideDocument is the subset of the compose file format the sweep writes.
type OverrideDocument struct {
	Services map[string]ServiceOverride `yaml:"services"`
}

// ServiceOverride carries the per-iteration settings of one service.
type ServiceOverride struct {
	Environment map[string]string `yaml:"environment"`
	Deploy      Deploy            `yaml:"deploy"`
}

// Deploy mirrors compose's deploy block.
type Deploy struct {
	Resources Resources `yaml:"resources"`
}

// Resources mirrors compose's deploy.resources block.
type Resources struct {
	Limits Limits `yaml:"limits"`
}

// Limits mirrors compose's deploy.resources.limits block.
type Limits struct {
	CPUs string `yaml:"cpus"`
}

// BuildOverride maps a configuration onto the service override document.
// Values are strings because compose environment entries are strings.
func BuildOverride(svc config.ServiceConfig, tc sweep.TestConfiguration) OverrideDocument {
	return OverrideDocument{
		Services: map[string]ServiceOverride{
			svc.Name: {
				Environment: map[string]string{
					svc.Env.InstanceName: tc.InstanceName(),
					svc.Env.ThreadCount:  strconv.Itoa(tc.WorkerThreads),
					svc.Env.PoolSize:     strconv.Itoa(tc.PoolSize),
				},
				Deploy: Deploy{
					Resources: Resources{
						Limits: Limits{CPUs: tc.LimitString()},
					},
				},
			},
		},
	}
}

// WriteOverride replaces the override file at path.
func WriteOverride(path string, doc OverrideDocument) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode override document: %w", err)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create override directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write override file: %w", err)
	}
	return nil
}
