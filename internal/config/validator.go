package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors struct {
	Errors []*ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "no validation errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e.Errors)))
	for i, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Add adds an error to the collection.
func (e *ValidationErrors) Add(field, message string) {
	e.Errors = append(e.Errors, &ValidationError{Field: field, Message: message})
}

// HasErrors returns true if there are any errors.
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Errors) > 0
}

// Validate checks the configuration for values that make a sweep impossible.
//
// Multiplier values themselves are not range-checked: a list producing zero
// threads is the operator's choice and is executed as given.
func (c *SweepConfig) Validate() error {
	errs := &ValidationErrors{}

	validateDimension("sweep.resourceLimits", c.Sweep.ResourceLimits, errs)
	validateDimension("sweep.threadMultipliers", c.Sweep.ThreadMultipliers, errs)
	validateDimension("sweep.poolMultipliers", c.Sweep.PoolMultipliers, errs)

	if c.Paths.ResultsDir == "" {
		errs.Add("paths.resultsDir", "results directory is required")
	}
	if c.Paths.AnalysisDir == "" {
		errs.Add("paths.analysisDir", "analysis directory is required")
	}

	validateService(&c.Service, errs)
	validateLoadTool(&c.LoadTool, errs)

	if c.Timeouts.Compose < 0 {
		errs.Add("timeouts.compose", "timeout cannot be negative")
	}
	if c.Timeouts.Warmup < 0 {
		errs.Add("timeouts.warmup", "timeout cannot be negative")
	}
	if c.Timeouts.Measured < 0 {
		errs.Add("timeouts.measured", "timeout cannot be negative")
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}

func validateDimension(field string, values []float64, errs *ValidationErrors) {
	if len(values) == 0 {
		errs.Add(field, "at least one value is required")
	}
}

func validateService(s *ServiceConfig, errs *ValidationErrors) {
	if len(s.ComposeCommand) == 0 || s.ComposeCommand[0] == "" {
		errs.Add("service.composeCommand", "compose command is required")
	}
	if s.Name == "" {
		errs.Add("service.name", "service name is required")
	}
	if s.OverrideFile == "" {
		errs.Add("service.overrideFile", "override file is required")
	}
	if s.Env.InstanceName == "" {
		errs.Add("service.env.instanceName", "variable name is required")
	}
	if s.Env.ThreadCount == "" {
		errs.Add("service.env.threadCount", "variable name is required")
	}
	if s.Env.PoolSize == "" {
		errs.Add("service.env.poolSize", "variable name is required")
	}
}

func validateLoadTool(l *LoadToolConfig, errs *ValidationErrors) {
	if l.Binary == "" {
		errs.Add("loadTool.binary", "binary is required")
	}
	if l.WarmupScript == "" {
		errs.Add("loadTool.warmupScript", "warm-up script is required")
	}
	if l.MeasuredScript == "" {
		errs.Add("loadTool.measuredScript", "measured script is required")
	}
	if l.VUsEnv == "" {
		errs.Add("loadTool.vusEnv", "virtual user variable name is required")
	}
	if l.VUsPerWorker <= 0 {
		errs.Add("loadTool.vusPerWorker", "must be greater than 0")
	}
}
