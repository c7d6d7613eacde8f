// powergardener controls which logical cpus of a hybrid-core machine are
// active and measures the resulting package power draw.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/benchmark"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/clock"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/config"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/metrics"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/monitor"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/policy"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/power"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/rapl"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/sysfs"
)

const usageText = `Usage: powergardener [flags] <command>

Commands:
  status      report topology, active cpu set and instantaneous power
  powersave   take the powersave plan's cpus offline
  restore     bring every non-protected cpu back online
  monitor     sample power continuously until interrupted
  benchmark   measure baseline vs reduced-capacity power draw

Flags:
`

// errNotPrivileged is fatal: toggling cpus and reading the energy counter
// both require root.
var errNotPrivileged = errors.New("powergardener must run as root")

func usage() {
	fmt.Fprint(os.Stderr, usageText)
	flag.PrintDefaults()
}

func main() {
	var metricsAddr string
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Address for the monitor's Prometheus endpoint (empty disables it)")
	klog.InitFlags(nil)
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() != 1 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		klog.ErrorS(err, "Failed to load configuration")
		os.Exit(1)
	}
	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	if err := checkPrivilege(); err != nil {
		klog.ErrorS(err, "Preflight check failed")
		os.Exit(1)
	}

	fs := sysfs.NewFS(cfg.SysfsRoot)

	// Absence of the energy counter degrades measurements to 0 W, it
	// does not block any command.
	var energy rapl.Reader
	if reader, err := rapl.NewSysfsReader(cfg.SysfsRoot); err == nil {
		energy = reader
	} else {
		klog.Warning("Powercap energy counter not found, power figures will read 0 W")
	}
	meter := power.NewMeter(energy, clock.RealClock{})

	switch flag.Arg(0) {
	case "status":
		err = runStatus(cfg, fs, meter)
	case "powersave":
		err = runPowerSave(cfg, fs)
	case "restore":
		err = runRestore(fs)
	case "monitor":
		err = runMonitor(cfg, fs, meter)
	case "benchmark":
		err = runBenchmark(cfg, fs, meter)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		klog.ErrorS(err, "Command failed", "command", flag.Arg(0))
		os.Exit(1)
	}
}

func checkPrivilege() error {
	if os.Geteuid() != 0 {
		return errNotPrivileged
	}
	return nil
}

func runStatus(cfg *config.Config, fs *sysfs.FS, meter *power.Meter) error {
	present, err := fs.PresentSet()
	if err != nil {
		return err
	}
	active, err := fs.OnlineSet()
	if err != nil {
		return err
	}

	if topo, err := resolveTopology(cfg, fs); err == nil {
		fmt.Printf("Topology:     %d performance cpus (%s), %d efficiency cpus (%s)\n",
			topo.Performance.Size(), topo.Performance,
			topo.Efficiency.Size(), topo.Efficiency)
	} else {
		fmt.Printf("Topology:     not hybrid or not exposed (%v)\n", err)
	}

	fmt.Printf("Active set:   %s (%d of %d online)\n", active, active.Size(), present.Size())

	meas := meter.MeasureAveragePower(cfg.MonitorWindow)
	if meas.Degraded {
		fmt.Printf("Power:        unavailable (no energy counter)\n")
	} else {
		fmt.Printf("Power:        %.2f W (averaged over %s)\n", meas.Watts, cfg.MonitorWindow)
	}
	return nil
}

func runPowerSave(cfg *config.Config, fs *sysfs.FS) error {
	plan, err := resolvePlan(cfg, fs)
	if err != nil {
		return err
	}

	controller := policy.NewController(fs)
	result := controller.Apply(plan)
	fmt.Printf("Offlined cpus %s", result.Changed)
	if result.Skipped.Size() > 0 {
		fmt.Printf(" (skipped %s)", result.Skipped)
	}
	fmt.Println()
	return nil
}

func runRestore(fs *sysfs.FS) error {
	present, err := fs.PresentSet()
	if err != nil {
		return err
	}

	controller := policy.NewController(fs)
	result := controller.RestoreAll(present.Size())
	fmt.Printf("Onlined cpus %s\n", result.Changed)
	return nil
}

func runMonitor(cfg *config.Config, fs *sysfs.FS, meter *power.Meter) error {
	if cfg.MetricsAddr != "" {
		metrics.Serve(cfg.MetricsAddr)
	}

	present, err := fs.PresentSet()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := monitor.New(fs, meter, cfg.MonitorWindow, present, os.Stdout, cfg.MaxHistorySamples)
	summary := m.Run(ctx)
	monitor.WriteSummary(os.Stdout, summary)
	return nil
}

func runBenchmark(cfg *config.Config, fs *sysfs.FS, meter *power.Meter) error {
	plan, err := resolvePlan(cfg, fs)
	if err != nil {
		return err
	}
	present, err := fs.PresentSet()
	if err != nil {
		return err
	}

	orchestrator := benchmark.New(policy.NewController(fs), fs, meter, clock.RealClock{},
		plan, present.Size(), cfg.BenchmarkWindow, cfg.SettleDelay)
	result, err := orchestrator.Run()
	if err != nil {
		return err
	}

	benchmark.WriteResult(os.Stdout, result)
	return nil
}

// resolvePlan picks the powersave deactivation set: an explicitly
// configured plan wins, then a plan derived from topology, then the
// static fallback for the reference layout.
func resolvePlan(cfg *config.Config, fs *sysfs.FS) (cpuset.Set, error) {
	if plan := cfg.Policy.OfflinePlan(); plan.Size() > 0 {
		klog.V(2).InfoS("Using configured powersave plan", "plan", plan.String())
		return plan, nil
	}

	topo, err := resolveTopology(cfg, fs)
	if err != nil {
		klog.Warningf("No usable topology (%v), falling back to the static plan %s", err, policy.DefaultStaticPlan)
		return policy.DefaultStaticPlan, nil
	}

	plan, err := policy.PowerSavePlan(topo)
	if err != nil {
		return cpuset.Set{}, err
	}
	klog.V(2).InfoS("Derived powersave plan from topology", "plan", plan.String())
	return plan, nil
}

func resolveTopology(cfg *config.Config, fs *sysfs.FS) (*sysfs.Topology, error) {
	topo, err := fs.DiscoverTopology()
	if err == nil {
		return topo, nil
	}
	if !errors.Is(err, sysfs.ErrNotHybrid) {
		return nil, err
	}

	perf, perfErr := cpuset.Parse(cfg.Policy.PerformanceCPUs)
	eff, effErr := cpuset.Parse(cfg.Policy.EfficiencyCPUs)
	if perfErr != nil || effErr != nil || perf.Size()+eff.Size() == 0 {
		return nil, err
	}
	klog.V(2).InfoS("Using configured core-type lists",
		"performanceCPUs", perf.String(), "efficiencyCPUs", eff.String())
	return fs.TopologyFromSets(perf, eff)
}
