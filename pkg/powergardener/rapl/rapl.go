// Package rapl reads the package energy counter exposed by the Linux
// powercap interface (intel-rapl). The counter is a monotonic accumulator
// of consumed microjoules that wraps at a hardware-defined range.
package rapl

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

const (
	// DefaultRoot is the mount path of sysfs.
	DefaultRoot = "/sys"
	// packageDomainPath is the powercap package-level RAPL domain.
	packageDomainPath = "class/powercap/intel-rapl/intel-rapl:0"

	// DefaultEnergyRange is the wrap modulus assumed when the powercap
	// interface does not report max_energy_range_uj. The energy status
	// MSR backing this class of counter is 32 bits wide.
	DefaultEnergyRange uint64 = 1 << 32
)

// ErrUnavailable indicates the powercap energy counter is not exposed on
// this machine. Callers degrade to zero-valued readings rather than fail.
var ErrUnavailable = errors.New("powercap energy counter unavailable")

// Reader exposes a monotonic microjoule counter and its wrap modulus.
type Reader interface {
	// ReadMicrojoules returns the cumulative energy counter value.
	ReadMicrojoules() (uint64, error)
	// EnergyRange returns the counter's wrap modulus in microjoules.
	EnergyRange() uint64
	// Available reports whether the counter can currently be read.
	Available() bool
}

// SysfsReader reads the package RAPL domain under sysfs.
type SysfsReader struct {
	energyPath  string
	energyRange uint64
}

// NewSysfsReader probes the powercap package domain under the given sysfs
// root (DefaultRoot when empty). It returns ErrUnavailable when the domain
// is absent, e.g. on non-Intel hardware or without the intel_rapl module.
func NewSysfsReader(root string) (*SysfsReader, error) {
	if root == "" {
		root = DefaultRoot
	}
	domain := filepath.Join(root, packageDomainPath)

	energyPath := filepath.Join(domain, "energy_uj")
	if _, err := os.Stat(energyPath); err != nil {
		return nil, ErrUnavailable
	}

	reader := &SysfsReader{
		energyPath:  energyPath,
		energyRange: DefaultEnergyRange,
	}

	if data, err := os.ReadFile(filepath.Join(domain, "max_energy_range_uj")); err == nil {
		if maxRange, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64); err == nil && maxRange > 0 {
			reader.energyRange = maxRange
		}
	} else {
		klog.V(2).InfoS("No max_energy_range_uj reported, assuming 32-bit counter",
			"energyRange", reader.energyRange)
	}

	return reader, nil
}

// ReadMicrojoules returns the current cumulative package energy.
func (r *SysfsReader) ReadMicrojoules() (uint64, error) {
	data, err := os.ReadFile(r.energyPath)
	if err != nil {
		return 0, fmt.Errorf("failed to read energy counter: %v", err)
	}
	value, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse energy counter %q: %v", strings.TrimSpace(string(data)), err)
	}
	return value, nil
}

// EnergyRange returns the counter wrap modulus in microjoules.
func (r *SysfsReader) EnergyRange() uint64 {
	return r.energyRange
}

// Available reports whether the counter file is still readable.
func (r *SysfsReader) Available() bool {
	_, err := os.Stat(r.energyPath)
	return err == nil
}

// DeltaMicrojoules computes end - start modulo the given wrap range. A
// numerically smaller end sample means the counter wrapped within the
// window; the raw subtraction would go negative.
func DeltaMicrojoules(start, end, energyRange uint64) uint64 {
	if end >= start {
		return end - start
	}
	return (energyRange - start) + end
}
