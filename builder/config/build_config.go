package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BuildConfig carries performance and timeout knobs that are not site
// content: worker fan-out, watcher debounce, publish deadlines. They
// live in faro.build.yaml so one site can tune a slow CI runner without
// touching faro.yaml.
type BuildConfig struct {
	// Workers caps the parse/render fan-out per build phase.
	Workers int `yaml:"workers"`

	// Dev server.
	ShutdownTimeout  time.Duration `yaml:"shutdownTimeout"`  // HTTP drain on exit
	Debounce         time.Duration `yaml:"debounce"`         // watcher quiet window
	TemplateCheckTTL time.Duration `yaml:"templateCheckTTL"` // template re-stat interval

	// Publishing.
	DeployTimeout time.Duration `yaml:"deployTimeout"` // per hosting/forge API call
	GitTimeout    time.Duration `yaml:"gitTimeout"`    // per git invocation
}

func DefaultBuildConfig() *BuildConfig {
	return &BuildConfig{
		Workers:          12,
		ShutdownTimeout:  5 * time.Second,
		Debounce:         300 * time.Millisecond,
		TemplateCheckTTL: 2 * time.Second,
		DeployTimeout:    30 * time.Second,
		GitTimeout:       60 * time.Second,
	}
}

// LoadBuildConfig reads faro.build.yaml from the site root. A missing
// or unparseable file falls back to defaults; tuning must never stop a
// build.
func LoadBuildConfig() *BuildConfig {
	cfg := DefaultBuildConfig()

	data, err := os.ReadFile("faro.build.yaml")
	if err != nil {
		return cfg
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		fmt.Printf("⚠️  Failed to parse faro.build.yaml, using defaults: %v\n", err)
		return DefaultBuildConfig()
	}

	cfg.clamp()
	return cfg
}

// clamp pulls out-of-range values back to something workable instead of
// failing; a zero from a half-written file must not hang or stampede.
func (c *BuildConfig) clamp() {
	c.Workers = clampInt(c.Workers, 1, 32)
	c.ShutdownTimeout = clampDur(c.ShutdownTimeout, time.Second, time.Minute)
	c.Debounce = clampDur(c.Debounce, 10*time.Millisecond, 5*time.Second)
	c.TemplateCheckTTL = clampDur(c.TemplateCheckTTL, 100*time.Millisecond, time.Minute)
	c.DeployTimeout = clampDur(c.DeployTimeout, 5*time.Second, 5*time.Minute)
	c.GitTimeout = clampDur(c.GitTimeout, 5*time.Second, 10*time.Minute)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampDur(v, lo, hi time.Duration) time.Duration {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
