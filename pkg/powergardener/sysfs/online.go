package sysfs

import (
	"fmt"
	"os"
	"strconv"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
)

// CPUOnline reports whether the given logical cpu is online. cpu0 exposes
// no online attribute on most kernels and is always online.
func (fs *FS) CPUOnline(id int) (bool, error) {
	value, err := readEntry(fs.onlinePath(id))
	if err != nil {
		if os.IsNotExist(err) && id == 0 {
			return true, nil
		}
		return false, fmt.Errorf("failed to read online state of cpu%d: %v", id, err)
	}
	return value == "1", nil
}

// SetCPUOnline writes the online state of the given logical cpu. The write
// is a single value write; the kernel applies it atomically.
func (fs *FS) SetCPUOnline(id int, online bool) error {
	value := "0"
	if online {
		value = "1"
	}
	return writeEntry(fs.onlinePath(id), value)
}

// OnlineControllable reports whether the cpu has an online control file.
// cpu0 and cpus the kernel marks as non-hotpluggable do not.
func (fs *FS) OnlineControllable(id int) bool {
	_, err := os.Stat(fs.onlinePath(id))
	return err == nil
}

func (fs *FS) onlinePath(id int) string {
	return fs.cpuPath("cpu"+strconv.Itoa(id), "online")
}

// OnlineSet returns the set of currently online logical cpus as reported
// by the kernel's compressed cpulist.
func (fs *FS) OnlineSet() (cpuset.Set, error) {
	value, err := readEntry(fs.cpuPath("online"))
	if err != nil {
		return cpuset.Set{}, fmt.Errorf("failed to read online cpulist: %v", err)
	}
	set, err := cpuset.Parse(value)
	if err != nil {
		return cpuset.Set{}, fmt.Errorf("failed to parse online cpulist %q: %v", value, err)
	}
	return set, nil
}

// PresentSet returns the set of logical cpus present in the system,
// online or not.
func (fs *FS) PresentSet() (cpuset.Set, error) {
	value, err := readEntry(fs.cpuPath("present"))
	if err != nil {
		return cpuset.Set{}, fmt.Errorf("failed to read present cpulist: %v", err)
	}
	set, err := cpuset.Parse(value)
	if err != nil {
		return cpuset.Set{}, fmt.Errorf("failed to parse present cpulist %q: %v", value, err)
	}
	return set, nil
}
