package config

import (
	"fmt"
	"time"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
)

// Config holds the tool's runtime configuration.
type Config struct {
	// SysfsRoot is the sysfs mount point; overridable for testing.
	SysfsRoot string

	// MonitorWindow is the per-sample measurement window of the monitor
	// loop.
	MonitorWindow time.Duration

	// BenchmarkWindow is the measurement window used for the baseline
	// and reduced-capacity benchmark phases. It is deliberately longer
	// than MonitorWindow to average out load noise.
	BenchmarkWindow time.Duration

	// SettleDelay is the pause after an activation change, letting
	// voltage/frequency regulation stabilize before measuring.
	SettleDelay time.Duration

	// MetricsAddr is the listen address of the Prometheus endpoint the
	// monitor serves. Empty disables the endpoint.
	MetricsAddr string

	// MaxHistorySamples bounds the monitor's in-memory sample history.
	MaxHistorySamples int

	// Policy carries optional overrides loaded from the policy file.
	Policy PolicyConfig
}

// PolicyConfig overrides topology-derived behavior. All cpulists use
// kernel range notation.
type PolicyConfig struct {
	// OfflineCPUs, when set, replaces the derived powersave plan.
	OfflineCPUs string `yaml:"offlineCPUs"`

	// PerformanceCPUs and EfficiencyCPUs, when set, replace sysfs hybrid
	// topology discovery on machines that do not expose core-type
	// cpulists.
	PerformanceCPUs string `yaml:"performanceCPUs"`
	EfficiencyCPUs  string `yaml:"efficiencyCPUs"`
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.MonitorWindow <= 0 {
		return fmt.Errorf("monitor window must be positive, got %v", c.MonitorWindow)
	}
	if c.BenchmarkWindow <= 0 {
		return fmt.Errorf("benchmark window must be positive, got %v", c.BenchmarkWindow)
	}
	if c.BenchmarkWindow < c.MonitorWindow {
		return fmt.Errorf("benchmark window %v must not be shorter than monitor window %v",
			c.BenchmarkWindow, c.MonitorWindow)
	}
	if c.SettleDelay < 0 {
		return fmt.Errorf("settle delay must not be negative, got %v", c.SettleDelay)
	}
	if c.MaxHistorySamples <= 0 {
		return fmt.Errorf("max history samples must be positive, got %d", c.MaxHistorySamples)
	}
	return c.Policy.validate()
}

func (p *PolicyConfig) validate() error {
	offline, err := cpuset.Parse(p.OfflineCPUs)
	if err != nil {
		return fmt.Errorf("invalid offlineCPUs list: %v", err)
	}
	if offline.Contains(0) {
		return fmt.Errorf("offlineCPUs must not contain the protected cpu0")
	}
	if _, err := cpuset.Parse(p.PerformanceCPUs); err != nil {
		return fmt.Errorf("invalid performanceCPUs list: %v", err)
	}
	if _, err := cpuset.Parse(p.EfficiencyCPUs); err != nil {
		return fmt.Errorf("invalid efficiencyCPUs list: %v", err)
	}
	return nil
}

// OfflinePlan returns the configured deactivation set, or an empty set
// when none is configured. Validate must have accepted the config first.
func (p *PolicyConfig) OfflinePlan() cpuset.Set {
	plan, _ := cpuset.Parse(p.OfflineCPUs)
	return plan
}
