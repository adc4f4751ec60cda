package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. POOLSWEEP_PATHS_RESULTSDIR.
const EnvPrefix = "POOLSWEEP"

// Default values match the original benchmark layout: a compose project in the
// working directory with k6 scripts under k6/.
var defaults = map[string]interface{}{
	"sweep.resourceLimits":    []float64{2, 4, 6, 8},
	"sweep.threadMultipliers": []float64{1, 1.5, 2, 2.5, 3},
	"sweep.poolMultipliers":   []float64{1.5, 2, 2.5, 3},

	"paths.projectDir":  ".",
	"paths.resultsDir":  "result",
	"paths.analysisDir": "analysis",

	"service.composeCommand":   []string{"docker", "compose"},
	"service.name":             "aidbox",
	"service.overrideFile":     "docker-compose.override.yml",
	"service.env.instanceName": "BOX_INSTANCE_NAME",
	"service.env.threadCount":  "BOX_WEB_THREAD",
	"service.env.poolSize":     "BOX_DB_POOL_MAXIMUM_POOL_SIZE",

	"loadTool.binary":         "k6",
	"loadTool.warmupScript":   "k6/prewarm.js",
	"loadTool.measuredScript": "k6/crud.js",
	"loadTool.trendStats":     "avg,min,med,max,p(90),p(95),p(99)",
	"loadTool.vusEnv":         "K6_VUS",
	"loadTool.vusPerWorker":   2,

	"timeouts.compose":  10 * time.Minute,
	"timeouts.warmup":   15 * time.Minute,
	"timeouts.measured": 30 * time.Minute,
}

// Load builds a SweepConfig from defaults, the optional file at path and
// POOLSWEEP_* environment variables, in increasing precedence. The result is
// validated before it is returned.
func Load(path string) (*SweepConfig, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg SweepConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *SweepConfig {
	cfg, err := Load("")
	if err != nil {
		// The defaults are static and always valid.
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return cfg
}
