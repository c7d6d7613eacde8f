// Package mock provides a deterministic in-memory energy counter for tests.
package mock

import "github.com/elevated-systems/power-gardener/pkg/powergardener/rapl"

// Reader replays a scripted sequence of counter values.
type Reader struct {
	// Readings are returned in order by ReadMicrojoules; the last value
	// repeats once the script is exhausted.
	Readings []uint64
	// Range is the wrap modulus (rapl.DefaultEnergyRange when zero).
	Range uint64
	// Unavailable makes every read fail with rapl.ErrUnavailable.
	Unavailable bool

	next int
}

var _ rapl.Reader = (*Reader)(nil)

func (r *Reader) ReadMicrojoules() (uint64, error) {
	if r.Unavailable {
		return 0, rapl.ErrUnavailable
	}
	if len(r.Readings) == 0 {
		return 0, nil
	}
	value := r.Readings[r.next]
	if r.next < len(r.Readings)-1 {
		r.next++
	}
	return value, nil
}

func (r *Reader) EnergyRange() uint64 {
	if r.Range == 0 {
		return rapl.DefaultEnergyRange
	}
	return r.Range
}

func (r *Reader) Available() bool {
	return !r.Unavailable
}
