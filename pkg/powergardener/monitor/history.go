package monitor

import (
	"time"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
)

// Sample is one monitor iteration: an averaged power figure correlated
// with the active set around its measurement window.
type Sample struct {
	Time      time.Time
	ActiveSet cpuset.Set
	Watts     float64
	// Transitional marks a sample whose window spanned an active-set
	// change; its wattage is not attributable to a single stable
	// configuration.
	Transitional bool
	Degraded     bool
}

// Summary aggregates a monitoring session.
type Summary struct {
	Samples      int
	Transitional int
	MeanWatts    float64
	MinWatts     float64
	MaxWatts     float64
}

// History keeps a bounded in-memory record of recent samples. When the
// limit is exceeded the oldest sample is dropped. Nothing is persisted
// across runs.
type History struct {
	samples    []Sample
	maxSamples int

	// Session aggregates cover every sample ever added, including ones
	// the bound has already evicted.
	total        int
	transitional int
	wattsSum     float64
	minWatts     float64
	maxWatts     float64
}

// NewHistory returns a History bounded to maxSamples records.
func NewHistory(maxSamples int) *History {
	if maxSamples <= 0 {
		maxSamples = 1
	}
	return &History{
		samples:    make([]Sample, 0, maxSamples),
		maxSamples: maxSamples,
	}
}

// Add records a sample, evicting the oldest when over the bound.
func (h *History) Add(sample Sample) {
	h.samples = append(h.samples, sample)
	if len(h.samples) > h.maxSamples {
		h.samples = h.samples[1:]
	}

	if h.total == 0 || sample.Watts < h.minWatts {
		h.minWatts = sample.Watts
	}
	if h.total == 0 || sample.Watts > h.maxWatts {
		h.maxWatts = sample.Watts
	}
	h.total++
	h.wattsSum += sample.Watts
	if sample.Transitional {
		h.transitional++
	}
}

// Recent returns the retained samples, oldest first.
func (h *History) Recent() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Summary returns session-wide aggregates.
func (h *History) Summary() Summary {
	s := Summary{
		Samples:      h.total,
		Transitional: h.transitional,
		MinWatts:     h.minWatts,
		MaxWatts:     h.maxWatts,
	}
	if h.total > 0 {
		s.MeanWatts = h.wattsSum / float64(h.total)
	}
	return s
}
