// Package config provides loading and validation of the sweep configuration.
package config

import (
	"path/filepath"
	"time"
)

// SweepConfig is the root configuration for a benchmark sweep.
//
// Example YAML:
//
//	sweep:
//	  resourceLimits: [2, 4, 6, 8]
//	  threadMultipliers: [1, 1.5, 2, 2.5, 3]
//	  poolMultipliers: [1.5, 2, 2.5, 3]
//	paths:
//	  projectDir: "."
//	  resultsDir: "result"
//	service:
//	  name: aidbox
//	loadTool:
//	  measuredScript: k6/crud.js
//	timeouts:
//	  measured: 30m
type SweepConfig struct {
	// Sweep holds the dimensions whose cartesian product is executed
	Sweep SweepSpace `mapstructure:"sweep" yaml:"sweep"`

	// Paths locates the compose project and the output directories
	Paths PathsConfig `mapstructure:"paths" yaml:"paths"`

	// Service describes the benchmarked compose service
	Service ServiceConfig `mapstructure:"service" yaml:"service"`

	// LoadTool describes the k6 invocations
	LoadTool LoadToolConfig `mapstructure:"loadTool" yaml:"loadTool"`

	// Timeouts bound every external command; zero disables a timeout
	Timeouts TimeoutsConfig `mapstructure:"timeouts" yaml:"timeouts"`
}

// SweepSpace lists the nominal sweep values.
type SweepSpace struct {
	ResourceLimits    []float64 `mapstructure:"resourceLimits" yaml:"resourceLimits"`
	ThreadMultipliers []float64 `mapstructure:"threadMultipliers" yaml:"threadMultipliers"`
	PoolMultipliers   []float64 `mapstructure:"poolMultipliers" yaml:"poolMultipliers"`
}

// PathsConfig holds directories. Relative paths resolve against ProjectDir.
type PathsConfig struct {
	ProjectDir  string `mapstructure:"projectDir" yaml:"projectDir"`
	ResultsDir  string `mapstructure:"resultsDir" yaml:"resultsDir"`
	AnalysisDir string `mapstructure:"analysisDir" yaml:"analysisDir"`
}

// ServiceConfig describes the compose service under test.
type ServiceConfig struct {
	// ComposeCommand is the compose entry point, e.g. ["docker", "compose"]
	ComposeCommand []string `mapstructure:"composeCommand" yaml:"composeCommand"`

	// Name of the compose service that is reconfigured each iteration
	Name string `mapstructure:"name" yaml:"name"`

	// OverrideFile is rewritten before every restart
	OverrideFile string `mapstructure:"overrideFile" yaml:"overrideFile"`

	// Env names the service environment variables the sweep sets
	Env ServiceEnv `mapstructure:"env" yaml:"env"`
}

// ServiceEnv maps sweep dimensions to service environment variable names.
type ServiceEnv struct {
	InstanceName string `mapstructure:"instanceName" yaml:"instanceName"`
	ThreadCount  string `mapstructure:"threadCount" yaml:"threadCount"`
	PoolSize     string `mapstructure:"poolSize" yaml:"poolSize"`
}

// LoadToolConfig describes the load generator invocations.
type LoadToolConfig struct {
	Binary         string `mapstructure:"binary" yaml:"binary"`
	WarmupScript   string `mapstructure:"warmupScript" yaml:"warmupScript"`
	MeasuredScript string `mapstructure:"measuredScript" yaml:"measuredScript"`

	// TrendStats is passed to --summary-trend-stats
	TrendStats string `mapstructure:"trendStats" yaml:"trendStats"`

	// VUsEnv is the environment variable carrying the virtual user count
	VUsEnv string `mapstructure:"vusEnv" yaml:"vusEnv"`

	// VUsPerWorker scales worker threads into virtual users
	VUsPerWorker int `mapstructure:"vusPerWorker" yaml:"vusPerWorker"`
}

// TimeoutsConfig bounds the external commands.
type TimeoutsConfig struct {
	Compose  time.Duration `mapstructure:"compose" yaml:"compose"`
	Warmup   time.Duration `mapstructure:"warmup" yaml:"warmup"`
	Measured time.Duration `mapstructure:"measured" yaml:"measured"`
}

// Resolve returns p unchanged when absolute, otherwise joined onto ProjectDir.
func (c *SweepConfig) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Paths.ProjectDir, p)
}

// ResultsDir is the resolved directory holding run records.
func (c *SweepConfig) ResultsDir() string {
	return c.Resolve(c.Paths.ResultsDir)
}

// AnalysisDir is the resolved directory receiving CSV reports.
func (c *SweepConfig) AnalysisDir() string {
	return c.Resolve(c.Paths.AnalysisDir)
}

// OverridePath is the resolved compose override file.
func (c *SweepConfig) OverridePath() string {
	return c.Resolve(c.Service.OverrideFile)
}

// TotalConfigurations is the number of iterations a sweep runs.
func (c *SweepConfig) TotalConfigurations() int {
	return len(c.Sweep.ResourceLimits) * len(c.Sweep.ThreadMultipliers) * len(c.Sweep.PoolMultipliers)
}
