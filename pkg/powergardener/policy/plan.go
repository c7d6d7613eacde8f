// Package policy applies and reverts the reduced-capacity activation
// policy: which logical cpus to take offline, and the guarded writes that
// do it.
package policy

import (
	"fmt"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
	"github.com/elevated-systems/power-gardener/pkg/powergardener/sysfs"
)

// DefaultStaticPlan is the fallback deactivation set for the reference
// layout this tool was first built against: 2 hyperthreaded performance
// cores (cpus 0-3) and 8 efficiency cores (cpus 4-11). It is only used
// when the kernel exposes no hybrid topology and no plan is configured.
var DefaultStaticPlan = cpuset.New(1, 3, 8, 9, 10, 11)

// PowerSavePlan derives the deactivation set from the hybrid topology:
// the non-primary hyperthread sibling of every performance core goes
// offline, and so does the upper half of the efficiency cores.
func PowerSavePlan(topo *sysfs.Topology) (cpuset.Set, error) {
	if topo == nil || topo.TotalCount() == 0 {
		return cpuset.Set{}, fmt.Errorf("no topology to derive a powersave plan from")
	}

	var offline []int

	// Each performance core keeps its lowest-numbered thread.
	seen := map[int]bool{}
	for _, id := range topo.Performance.IDs() {
		if seen[id] {
			continue
		}
		siblings := topo.SiblingsOf(id).IDs()
		for i, sibling := range siblings {
			seen[sibling] = true
			if i > 0 {
				offline = append(offline, sibling)
			}
		}
	}

	// Half capacity on the efficiency side: the upper half of the sorted
	// id list goes offline.
	effIDs := topo.Efficiency.IDs()
	for _, id := range effIDs[len(effIDs)/2+len(effIDs)%2:] {
		offline = append(offline, id)
	}

	plan := cpuset.New(offline...)
	if plan.Contains(0) {
		return cpuset.Set{}, fmt.Errorf("derived plan would deactivate cpu0")
	}
	return plan, nil
}
