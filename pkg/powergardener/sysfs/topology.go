package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
)

// CoreType distinguishes the two core kinds of a hybrid processor.
type CoreType string

const (
	// PerformanceCore marks a high-throughput core (Intel "core").
	PerformanceCore CoreType = "performance"
	// EfficiencyCore marks a low-power core (Intel "atom").
	EfficiencyCore CoreType = "efficiency"
)

// ErrNotHybrid is returned when the kernel does not expose hybrid core-type
// cpulists, i.e. the processor has a uniform core layout or the kernel
// predates the cpu_core/cpu_atom devices.
var ErrNotHybrid = fmt.Errorf("no hybrid core-type topology exposed under sysfs")

// LogicalCPU describes one logical processor of a hybrid package.
type LogicalCPU struct {
	ID       int
	Type     CoreType
	Siblings cpuset.Set // hyperthread siblings, including the cpu itself
}

// Topology is the structured hybrid core layout of the package.
type Topology struct {
	CPUs        map[int]LogicalCPU
	Performance cpuset.Set // logical cpus backed by performance cores
	Efficiency  cpuset.Set // logical cpus backed by efficiency cores
}

// TotalCount returns the number of logical cpus present.
func (t *Topology) TotalCount() int {
	return len(t.CPUs)
}

// CoreTypeOf returns the core type of the given cpu, or an empty type when
// the cpu is unknown.
func (t *Topology) CoreTypeOf(id int) CoreType {
	if cpu, ok := t.CPUs[id]; ok {
		return cpu.Type
	}
	return ""
}

// SiblingsOf returns the hyperthread sibling set of the given cpu.
func (t *Topology) SiblingsOf(id int) cpuset.Set {
	if cpu, ok := t.CPUs[id]; ok {
		return cpu.Siblings
	}
	return cpuset.Set{}
}

// DiscoverTopology reads the hybrid core layout from sysfs. Offline cpus
// drop out of the core-type cpulists, so discovery briefly depends on the
// present set for enumeration and the type lists for classification; cpus
// missing from both type lists while offline are classified by their
// sibling group when possible.
func (fs *FS) DiscoverTopology() (*Topology, error) {
	perf, err := fs.coreTypeSet("cpu_core")
	if err != nil {
		return nil, err
	}
	eff, err := fs.coreTypeSet("cpu_atom")
	if err != nil {
		return nil, err
	}
	if perf.Size() == 0 && eff.Size() == 0 {
		return nil, ErrNotHybrid
	}

	return fs.TopologyFromSets(perf, eff)
}

// TopologyFromSets builds a Topology from externally supplied core-type
// cpulists, reading sibling groups from sysfs. It serves machines whose
// kernel exposes no hybrid core-type devices but whose layout the
// operator knows.
func (fs *FS) TopologyFromSets(perf, eff cpuset.Set) (*Topology, error) {
	present, err := fs.PresentSet()
	if err != nil {
		return nil, err
	}

	topo := &Topology{CPUs: make(map[int]LogicalCPU, present.Size())}
	for _, id := range present.IDs() {
		cpu := LogicalCPU{ID: id, Siblings: fs.siblingsOf(id)}
		switch {
		case perf.Contains(id):
			cpu.Type = PerformanceCore
		case eff.Contains(id):
			cpu.Type = EfficiencyCore
		default:
			// Offline cpus vanish from the type lists. An offline
			// hyperthread still shares a core with its online sibling.
			cpu.Type = fs.typeFromSiblings(cpu.Siblings, perf, eff)
		}
		topo.CPUs[id] = cpu
	}

	var perfIDs, effIDs []int
	for id, cpu := range topo.CPUs {
		switch cpu.Type {
		case PerformanceCore:
			perfIDs = append(perfIDs, id)
		case EfficiencyCore:
			effIDs = append(effIDs, id)
		default:
			klog.V(2).InfoS("Could not classify cpu core type", "cpu", id)
		}
	}
	topo.Performance = cpuset.New(perfIDs...)
	topo.Efficiency = cpuset.New(effIDs...)

	klog.V(2).InfoS("Discovered hybrid topology",
		"performanceCPUs", topo.Performance.String(),
		"efficiencyCPUs", topo.Efficiency.String())

	return topo, nil
}

// coreTypeSet reads the cpulist of one hybrid core-type device
// (devices/cpu_core or devices/cpu_atom).
func (fs *FS) coreTypeSet(device string) (cpuset.Set, error) {
	value, err := readEntry(fs.devicePath(device))
	if err != nil {
		if os.IsNotExist(err) {
			return cpuset.Set{}, nil
		}
		return cpuset.Set{}, fmt.Errorf("failed to read %s cpulist: %v", device, err)
	}
	set, err := cpuset.Parse(value)
	if err != nil {
		return cpuset.Set{}, fmt.Errorf("failed to parse %s cpulist %q: %v", device, value, err)
	}
	return set, nil
}

func (fs *FS) devicePath(device string) string {
	return filepath.Join(fs.root, "devices", device, "cpus")
}

// siblingsOf reads the hyperthread sibling list of a cpu. A cpu with no
// readable sibling list is its own singleton group.
func (fs *FS) siblingsOf(id int) cpuset.Set {
	value, err := readEntry(fs.cpuPath("cpu"+strconv.Itoa(id), "topology", "thread_siblings_list"))
	if err != nil {
		return cpuset.New(id)
	}
	set, err := cpuset.Parse(value)
	if err != nil || set.Size() == 0 {
		return cpuset.New(id)
	}
	return set
}

func (fs *FS) typeFromSiblings(siblings cpuset.Set, perf, eff cpuset.Set) CoreType {
	for _, sibling := range siblings.IDs() {
		if perf.Contains(sibling) {
			return PerformanceCore
		}
		if eff.Contains(sibling) {
			return EfficiencyCore
		}
	}
	return ""
}
