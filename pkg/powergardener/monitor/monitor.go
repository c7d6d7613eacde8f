// Package monitor repeatedly measures package power while correlating
// every measurement window with the active cpu set around it.
package monitor

import (
	"context"
	"fmt"
	"io"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/metrics"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/power"
)

// ActiveSetSource reports the set of currently active logical cpus.
// *sysfs.FS implements it.
type ActiveSetSource interface {
	OnlineSet() (cpuset.Set, error)
}

// PowerMeter takes one blocking averaged power measurement.
type PowerMeter interface {
	MeasureAveragePower(d time.Duration) power.Measurement
}

// Monitor runs the sampling loop. It is single-threaded: the measurement
// window is its only blocking point, and cancellation is observed between
// iterations only, so no mutation is ever interrupted mid-write.
type Monitor struct {
	tracker ActiveSetSource
	meter   PowerMeter
	window  time.Duration
	present cpuset.Set
	out     io.Writer
	history *History
}

// New returns a Monitor sampling over the given window. present is the
// full set of logical cpus, used to zero per-cpu gauges for offline cpus.
func New(tracker ActiveSetSource, meter PowerMeter, window time.Duration, present cpuset.Set, out io.Writer, maxHistory int) *Monitor {
	return &Monitor{
		tracker: tracker,
		meter:   meter,
		window:  window,
		present: present,
		out:     out,
		history: NewHistory(maxHistory),
	}
}

// Run samples until ctx is cancelled and returns the session summary.
// Each iteration captures the active set, measures power over the window,
// and captures the active set again; a sample whose two captures differ
// is marked transitional.
func (m *Monitor) Run(ctx context.Context) Summary {
	fmt.Fprintf(m.out, "%-25s  %-18s  %s\n", "TIMESTAMP", "ACTIVE CPUS", "POWER")

	for {
		select {
		case <-ctx.Done():
			klog.V(2).InfoS("Monitor loop cancelled", "samples", m.history.Summary().Samples)
			return m.history.Summary()
		default:
		}

		sample := m.sampleOnce()
		m.history.Add(sample)
		m.record(sample)
		m.emit(sample)
	}
}

func (m *Monitor) sampleOnce() Sample {
	pre := m.captureActiveSet()
	meas := m.meter.MeasureAveragePower(m.window)
	post := m.captureActiveSet()

	return Sample{
		Time:         meas.End.Time,
		ActiveSet:    post,
		Watts:        meas.Watts,
		Transitional: !pre.Equal(post),
		Degraded:     meas.Degraded,
	}
}

func (m *Monitor) captureActiveSet() cpuset.Set {
	set, err := m.tracker.OnlineSet()
	if err != nil {
		klog.ErrorS(err, "Failed to read active cpu set")
		return cpuset.Set{}
	}
	return set
}

func (m *Monitor) record(sample Sample) {
	metrics.SamplesTotal.Inc()
	if sample.Transitional {
		metrics.TransitionalSamplesTotal.Inc()
	}
	metrics.PackagePower.Set(sample.Watts)
	metrics.ActiveCPUs.Set(float64(sample.ActiveSet.Size()))

	for _, id := range m.present.IDs() {
		state := 0.0
		if sample.ActiveSet.Contains(id) {
			state = 1.0
		}
		metrics.CPUActive.WithLabelValues(fmt.Sprintf("%d", id)).Set(state)
	}
}

func (m *Monitor) emit(sample Sample) {
	set := sample.ActiveSet.String()
	if sample.Transitional {
		// The window spans a topology change; the figure is not
		// attributable to a single stable configuration.
		set += " *"
	}
	fmt.Fprintf(m.out, "%-25s  %-18s  %6.2f W\n",
		sample.Time.Format(time.RFC3339), set, sample.Watts)
}

// WriteSummary prints the session summary in a human-readable form.
func WriteSummary(out io.Writer, s Summary) {
	fmt.Fprintf(out, "\n%d samples (%d transitional), mean %.2f W, min %.2f W, max %.2f W\n",
		s.Samples, s.Transitional, s.MeanWatts, s.MinWatts, s.MaxWatts)
}
