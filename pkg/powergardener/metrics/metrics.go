// Package metrics defines the Prometheus metrics the monitor exposes and
// the HTTP endpoint serving them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"k8s.io/klog/v2"
)

const (
	namespace       = "power_gardener"
	cpuSubsystem    = "cpu"
	energySubsystem = "energy"
)

var (
	// PackagePower is the latest averaged package power draw.
	PackagePower = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: energySubsystem,
			Name:      "package_watts",
			Help:      "Average package power draw over the last sampling window in watts",
		},
	)

	// ActiveCPUs is the size of the active set at the last sample.
	ActiveCPUs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: cpuSubsystem,
			Name:      "active_total",
			Help:      "Number of logical CPUs currently active",
		},
	)

	// CPUActive reports per-cpu activation state (1 active, 0 inactive).
	CPUActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: cpuSubsystem,
			Name:      "active",
			Help:      "Whether a logical CPU is active (1) or offline (0)",
		},
		[]string{"cpu"},
	)

	// SamplesTotal counts monitor samples taken.
	SamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: energySubsystem,
			Name:      "samples_total",
			Help:      "Number of power samples taken by the monitor loop",
		},
	)

	// TransitionalSamplesTotal counts samples whose measurement window
	// spanned an active-set change.
	TransitionalSamplesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: energySubsystem,
			Name:      "transitional_samples_total",
			Help:      "Number of samples taken while the active CPU set changed mid-window",
		},
	)
)

func init() {
	// Register metrics with Prometheus
	prometheus.MustRegister(PackagePower)
	prometheus.MustRegister(ActiveCPUs)
	prometheus.MustRegister(CPUActive)
	prometheus.MustRegister(SamplesTotal)
	prometheus.MustRegister(TransitionalSamplesTotal)
}

// Serve starts the metrics endpoint on addr in the background. The server
// lives for the remainder of the process; monitoring is terminated by
// interrupt, never by shutting this down first.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		klog.InfoS("Starting metrics server", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			klog.ErrorS(err, "Metrics server stopped")
		}
	}()
}
