package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
	"k8s.io/klog/v2"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		SysfsRoot:         getEnvOrDefault("POWER_GARDENER_SYSFS_ROOT", "/sys"),
		MonitorWindow:     getDurationOrDefault("POWER_GARDENER_MONITOR_WINDOW", 1*time.Second),
		BenchmarkWindow:   getDurationOrDefault("POWER_GARDENER_BENCHMARK_WINDOW", 5*time.Second),
		SettleDelay:       getDurationOrDefault("POWER_GARDENER_SETTLE_DELAY", 1*time.Second),
		MetricsAddr:       getEnvOrDefault("POWER_GARDENER_METRICS_ADDR", ""),
		MaxHistorySamples: getIntOrDefault("POWER_GARDENER_MAX_HISTORY_SAMPLES", 1000),
	}

	// Load policy overrides if a policy file is provided
	if policyPath := os.Getenv("POWER_GARDENER_POLICY_PATH"); policyPath != "" {
		if err := loadPolicyFile(cfg, policyPath); err != nil {
			return nil, fmt.Errorf("failed to load policy file: %v", err)
		}
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	klog.V(2).InfoS("Loaded configuration",
		"sysfsRoot", cfg.SysfsRoot,
		"monitorWindow", cfg.MonitorWindow,
		"benchmarkWindow", cfg.BenchmarkWindow,
		"settleDelay", cfg.SettleDelay,
		"metricsAddr", cfg.MetricsAddr,
		"offlineCPUs", cfg.Policy.OfflineCPUs)

	return cfg, nil
}

// loadPolicyFile reads policy overrides from a YAML file
func loadPolicyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read policy file %s: %v", path, err)
	}

	policy := PolicyConfig{}
	if err := yaml.Unmarshal(data, &policy); err != nil {
		return fmt.Errorf("failed to parse policy file %s: %v", path, err)
	}

	cfg.Policy = policy
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := strconv.Atoi(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid integer value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if strValue := os.Getenv(key); strValue != "" {
		if value, err := time.ParseDuration(strValue); err == nil {
			return value
		}
		klog.V(2).InfoS("Invalid duration value, using default",
			"key", key,
			"value", strValue,
			"default", defaultValue)
	}
	return defaultValue
}
