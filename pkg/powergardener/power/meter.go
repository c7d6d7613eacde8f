// Package power computes average package power draw from two energy
// counter samples taken a fixed duration apart.
package power

import (
	"time"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/clock"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/rapl"
)

// Sample is one reading of the cumulative energy counter.
type Sample struct {
	Time        time.Time
	Microjoules uint64
}

// Measurement is an averaged power figure over one sampling window.
type Measurement struct {
	Start   Sample
	End     Sample
	Elapsed time.Duration
	Watts   float64
	// Degraded is set when the energy counter could not be read and the
	// samples were substituted with zero.
	Degraded bool
}

// Meter samples an energy counter over timed windows. Measurements block
// the caller for the full window; there is nothing to run concurrently.
type Meter struct {
	reader rapl.Reader
	clk    clock.Clock
}

// NewMeter returns a Meter over the given counter. A nil reader yields a
// permanently degraded meter reporting 0 W.
func NewMeter(reader rapl.Reader, clk clock.Clock) *Meter {
	return &Meter{reader: reader, clk: clk}
}

// MeasureAveragePower takes two counter samples d apart and returns the
// average wattage over the window:
//
//	watts = deltaMicrojoules * 1000 / elapsedNanoseconds
//
// A wrapped counter is handled modulo its energy range. When the counter
// is unavailable both samples read as zero, yielding an explicitly
// degraded 0 W measurement rather than an error.
func (m *Meter) MeasureAveragePower(d time.Duration) Measurement {
	start, startOK := m.sample()
	m.clk.Sleep(d)
	end, endOK := m.sample()

	meas := Measurement{
		Start:    start,
		End:      end,
		Elapsed:  end.Time.Sub(start.Time),
		Degraded: !startOK || !endOK,
	}

	// A degenerate window would divide by zero below.
	if meas.Elapsed <= 0 {
		meas.Elapsed = time.Nanosecond
	}

	if meas.Degraded {
		klog.Warning("Energy counter unavailable, reporting 0 W")
		return meas
	}

	delta := rapl.DeltaMicrojoules(start.Microjoules, end.Microjoules, m.reader.EnergyRange())
	meas.Watts = float64(delta) * 1000 / float64(meas.Elapsed.Nanoseconds())

	return meas
}

func (m *Meter) sample() (Sample, bool) {
	s := Sample{Time: m.clk.Now()}
	if m.reader == nil {
		return s, false
	}
	value, err := m.reader.ReadMicrojoules()
	if err != nil {
		klog.V(2).InfoS("Energy counter read failed", "err", err)
		return s, false
	}
	s.Microjoules = value
	return s, true
}
