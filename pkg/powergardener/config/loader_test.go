package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv unexpected error: %v", err)
	}

	if cfg.SysfsRoot != "/sys" {
		t.Errorf("SysfsRoot = %q, want %q", cfg.SysfsRoot, "/sys")
	}
	if cfg.MonitorWindow != 1*time.Second {
		t.Errorf("MonitorWindow = %v, want 1s", cfg.MonitorWindow)
	}
	if cfg.BenchmarkWindow != 5*time.Second {
		t.Errorf("BenchmarkWindow = %v, want 5s", cfg.BenchmarkWindow)
	}
	if cfg.SettleDelay != 1*time.Second {
		t.Errorf("SettleDelay = %v, want 1s", cfg.SettleDelay)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("MetricsAddr = %q, want disabled by default", cfg.MetricsAddr)
	}
	if cfg.MaxHistorySamples != 1000 {
		t.Errorf("MaxHistorySamples = %d, want 1000", cfg.MaxHistorySamples)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("POWER_GARDENER_MONITOR_WINDOW", "250ms")
	t.Setenv("POWER_GARDENER_BENCHMARK_WINDOW", "10s")
	t.Setenv("POWER_GARDENER_METRICS_ADDR", ":9100")
	t.Setenv("POWER_GARDENER_MAX_HISTORY_SAMPLES", "50")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv unexpected error: %v", err)
	}

	if cfg.MonitorWindow != 250*time.Millisecond {
		t.Errorf("MonitorWindow = %v, want 250ms", cfg.MonitorWindow)
	}
	if cfg.BenchmarkWindow != 10*time.Second {
		t.Errorf("BenchmarkWindow = %v, want 10s", cfg.BenchmarkWindow)
	}
	if cfg.MetricsAddr != ":9100" {
		t.Errorf("MetricsAddr = %q, want %q", cfg.MetricsAddr, ":9100")
	}
	if cfg.MaxHistorySamples != 50 {
		t.Errorf("MaxHistorySamples = %d, want 50", cfg.MaxHistorySamples)
	}
}

func TestLoadFromEnvInvalidValuesUseDefaults(t *testing.T) {
	t.Setenv("POWER_GARDENER_MONITOR_WINDOW", "not-a-duration")
	t.Setenv("POWER_GARDENER_MAX_HISTORY_SAMPLES", "many")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv unexpected error: %v", err)
	}
	if cfg.MonitorWindow != 1*time.Second {
		t.Errorf("MonitorWindow = %v, want default 1s", cfg.MonitorWindow)
	}
	if cfg.MaxHistorySamples != 1000 {
		t.Errorf("MaxHistorySamples = %d, want default 1000", cfg.MaxHistorySamples)
	}
}

func TestLoadPolicyFile(t *testing.T) {
	tempDir := t.TempDir()

	validPolicyYAML := `
offlineCPUs: "1,3,8-11"
performanceCPUs: "0-3"
efficiencyCPUs: "4-11"
`
	validPolicyPath := filepath.Join(tempDir, "policy.yaml")
	if err := os.WriteFile(validPolicyPath, []byte(validPolicyYAML), 0o644); err != nil {
		t.Fatalf("Failed to write policy file: %v", err)
	}

	t.Setenv("POWER_GARDENER_POLICY_PATH", validPolicyPath)
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv unexpected error: %v", err)
	}

	if got := cfg.Policy.OfflinePlan().String(); got != "1,3,8-11" {
		t.Errorf("OfflinePlan = %q, want %q", got, "1,3,8-11")
	}
	if cfg.Policy.PerformanceCPUs != "0-3" {
		t.Errorf("PerformanceCPUs = %q, want %q", cfg.Policy.PerformanceCPUs, "0-3")
	}
}

func TestLoadPolicyFileInvalid(t *testing.T) {
	tempDir := t.TempDir()

	testCases := []struct {
		name    string
		content string
	}{
		{
			name:    "malformed yaml",
			content: "offlineCPUs: [not-closed",
		},
		{
			name:    "protected cpu in plan",
			content: `offlineCPUs: "0-3"`,
		},
		{
			name:    "garbage cpulist",
			content: `offlineCPUs: "1,x"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(tempDir, "policy.yaml")
			if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
				t.Fatalf("Failed to write policy file: %v", err)
			}
			t.Setenv("POWER_GARDENER_POLICY_PATH", path)
			if _, err := LoadFromEnv(); err == nil {
				t.Errorf("LoadFromEnv expected error for %s", tc.name)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			SysfsRoot:         "/sys",
			MonitorWindow:     time.Second,
			BenchmarkWindow:   5 * time.Second,
			SettleDelay:       time.Second,
			MaxHistorySamples: 100,
		}
	}

	if err := base().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg := base()
	cfg.MonitorWindow = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("zero monitor window should be rejected")
	}

	cfg = base()
	cfg.BenchmarkWindow = 500 * time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Errorf("benchmark window shorter than monitor window should be rejected")
	}

	cfg = base()
	cfg.SettleDelay = -time.Second
	if err := cfg.Validate(); err == nil {
		t.Errorf("negative settle delay should be rejected")
	}

	cfg = base()
	cfg.MaxHistorySamples = 0
	if err := cfg.Validate(); err == nil {
		t.Errorf("zero history bound should be rejected")
	}
}
