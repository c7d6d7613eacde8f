package rapl

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func fakePowercap(t *testing.T, energy, maxRange string) string {
	t.Helper()
	root := t.TempDir()
	domain := filepath.Join(root, "class/powercap/intel-rapl/intel-rapl:0")
	if err := os.MkdirAll(domain, 0o755); err != nil {
		t.Fatalf("Failed to create powercap tree: %v", err)
	}
	if energy != "" {
		if err := os.WriteFile(filepath.Join(domain, "energy_uj"), []byte(energy), 0o644); err != nil {
			t.Fatalf("Failed to write energy_uj: %v", err)
		}
	}
	if maxRange != "" {
		if err := os.WriteFile(filepath.Join(domain, "max_energy_range_uj"), []byte(maxRange), 0o644); err != nil {
			t.Fatalf("Failed to write max_energy_range_uj: %v", err)
		}
	}
	return root
}

func TestNewSysfsReader(t *testing.T) {
	root := fakePowercap(t, "123456789\n", "262143328850\n")

	reader, err := NewSysfsReader(root)
	if err != nil {
		t.Fatalf("NewSysfsReader unexpected error: %v", err)
	}
	if !reader.Available() {
		t.Errorf("Available = false, want true")
	}
	if got := reader.EnergyRange(); got != 262143328850 {
		t.Errorf("EnergyRange = %d, want 262143328850", got)
	}

	value, err := reader.ReadMicrojoules()
	if err != nil {
		t.Fatalf("ReadMicrojoules unexpected error: %v", err)
	}
	if value != 123456789 {
		t.Errorf("ReadMicrojoules = %d, want 123456789", value)
	}
}

func TestNewSysfsReaderDefaultsEnergyRange(t *testing.T) {
	root := fakePowercap(t, "42\n", "")

	reader, err := NewSysfsReader(root)
	if err != nil {
		t.Fatalf("NewSysfsReader unexpected error: %v", err)
	}
	if got := reader.EnergyRange(); got != DefaultEnergyRange {
		t.Errorf("EnergyRange = %d, want default %d", got, DefaultEnergyRange)
	}
}

func TestNewSysfsReaderUnavailable(t *testing.T) {
	_, err := NewSysfsReader(t.TempDir())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("NewSysfsReader = %v, want ErrUnavailable", err)
	}
}

func TestDeltaMicrojoules(t *testing.T) {
	testCases := []struct {
		name        string
		start, end  uint64
		energyRange uint64
		expected    uint64
	}{
		{
			name:        "monotonic window",
			start:       1_000_000,
			end:         3_000_000,
			energyRange: DefaultEnergyRange,
			expected:    2_000_000,
		},
		{
			name:        "no consumption",
			start:       5,
			end:         5,
			energyRange: DefaultEnergyRange,
			expected:    0,
		},
		{
			name:        "counter wrapped",
			start:       9_500_000,
			end:         500_000,
			energyRange: 10_000_000,
			expected:    1_000_000,
		},
		{
			name:        "wrap at 32-bit default range",
			start:       DefaultEnergyRange - 1,
			end:         999,
			energyRange: DefaultEnergyRange,
			expected:    1000,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DeltaMicrojoules(tc.start, tc.end, tc.energyRange); got != tc.expected {
				t.Errorf("DeltaMicrojoules(%d, %d, %d) = %d, want %d",
					tc.start, tc.end, tc.energyRange, got, tc.expected)
			}
		})
	}
}
