// Package benchmark sequences a baseline measurement at full capacity
// against a reduced-capacity measurement and reports the power saved.
package benchmark

import (
	"fmt"
	"io"
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/clock"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/policy"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/power"
)

// Phase names the steps of the benchmark state machine. The machine is
// linear and terminal on completion; there are no retries.
type Phase string

const (
	PhaseIdle              Phase = "Idle"
	PhaseRestoringBaseline Phase = "RestoringBaseline"
	PhaseMeasuringBaseline Phase = "MeasuringBaseline"
	PhaseApplyingPolicy    Phase = "ApplyingPolicy"
	PhaseMeasuringReduced  Phase = "MeasuringReduced"
	PhaseDone              Phase = "Done"
)

// CoreController mutates cpu activation state. *policy.Controller
// implements it.
type CoreController interface {
	Apply(plan cpuset.Set) policy.Result
	RestoreAll(totalCount int) policy.Result
}

// ActiveSetSource reports the currently active cpu set.
type ActiveSetSource interface {
	OnlineSet() (cpuset.Set, error)
}

// PowerMeter takes one blocking averaged power measurement.
type PowerMeter interface {
	MeasureAveragePower(d time.Duration) power.Measurement
}

// Result is the outcome of one benchmark run.
type Result struct {
	BaselineSet   cpuset.Set
	BaselineWatts float64
	ReducedSet    cpuset.Set
	ReducedWatts  float64
	DeltaWatts    float64
	// PercentSaved is meaningful only when PercentDefined is true; a
	// zero-power baseline leaves the percentage undefined.
	PercentSaved   float64
	PercentDefined bool
	// Degraded is set when either measurement ran without a readable
	// energy counter.
	Degraded bool
}

// Orchestrator drives the benchmark sequence.
type Orchestrator struct {
	controller CoreController
	tracker    ActiveSetSource
	meter      PowerMeter
	clk        clock.Clock

	plan       cpuset.Set
	totalCount int
	window     time.Duration
	settle     time.Duration

	phase Phase
}

// New returns an Orchestrator measuring over the given window, with the
// given settle delay after each activation change.
func New(controller CoreController, tracker ActiveSetSource, meter PowerMeter, clk clock.Clock,
	plan cpuset.Set, totalCount int, window, settle time.Duration) *Orchestrator {
	return &Orchestrator{
		controller: controller,
		tracker:    tracker,
		meter:      meter,
		clk:        clk,
		plan:       plan,
		totalCount: totalCount,
		window:     window,
		settle:     settle,
		phase:      PhaseIdle,
	}
}

// Phase returns the current state machine phase.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

// Run executes the full sequence: restore all cpus, settle, measure the
// baseline, apply the powersave plan, settle, measure reduced capacity,
// then compute the delta and the percentage saved.
func (o *Orchestrator) Run() (Result, error) {
	var result Result

	o.transition(PhaseRestoringBaseline)
	o.controller.RestoreAll(o.totalCount)
	o.clk.Sleep(o.settle)

	o.transition(PhaseMeasuringBaseline)
	baselineSet, err := o.tracker.OnlineSet()
	if err != nil {
		return result, fmt.Errorf("failed to capture baseline active set: %v", err)
	}
	baseline := o.meter.MeasureAveragePower(o.window)
	result.BaselineSet = baselineSet
	result.BaselineWatts = baseline.Watts

	o.transition(PhaseApplyingPolicy)
	o.controller.Apply(o.plan)
	o.clk.Sleep(o.settle)

	o.transition(PhaseMeasuringReduced)
	reducedSet, err := o.tracker.OnlineSet()
	if err != nil {
		return result, fmt.Errorf("failed to capture reduced active set: %v", err)
	}
	reduced := o.meter.MeasureAveragePower(o.window)
	result.ReducedSet = reducedSet
	result.ReducedWatts = reduced.Watts

	o.transition(PhaseDone)
	result.Degraded = baseline.Degraded || reduced.Degraded
	result.DeltaWatts = result.BaselineWatts - result.ReducedWatts
	if result.BaselineWatts != 0 {
		result.PercentSaved = result.DeltaWatts / result.BaselineWatts * 100
		result.PercentDefined = true
	}

	klog.InfoS("Benchmark complete",
		"baselineWatts", result.BaselineWatts,
		"reducedWatts", result.ReducedWatts,
		"deltaWatts", result.DeltaWatts,
		"percentDefined", result.PercentDefined)

	return result, nil
}

func (o *Orchestrator) transition(next Phase) {
	klog.V(2).InfoS("Benchmark phase transition", "from", o.phase, "to", next)
	o.phase = next
}

// WriteResult prints a benchmark result in a human-readable form.
func WriteResult(out io.Writer, r Result) {
	fmt.Fprintf(out, "Baseline: %s  %.2f W\n", r.BaselineSet, r.BaselineWatts)
	fmt.Fprintf(out, "Reduced:  %s  %.2f W\n", r.ReducedSet, r.ReducedWatts)
	fmt.Fprintf(out, "Saved:    %.2f W", r.DeltaWatts)
	if r.PercentDefined {
		fmt.Fprintf(out, " (%.1f%%)\n", r.PercentSaved)
	} else {
		fmt.Fprintf(out, " (percentage undefined: baseline power is 0)\n")
	}
	if r.Degraded {
		fmt.Fprintf(out, "Warning: energy counter unavailable, power figures are degraded\n")
	}
}
