package policy

import (
	"k8s.io/klog/v2"

	"github.com/elevated-systems/power-gardener/pkg/powergardener/cpuset"
)

// ProtectedCPU is never taken offline. The boot processor must stay
// active for the machine to remain schedulable at all.
const ProtectedCPU = 0

// OnlineBackend is the settable-boolean-per-cpu control surface.
// *sysfs.FS implements it; tests substitute an in-memory fake.
type OnlineBackend interface {
	CPUOnline(id int) (bool, error)
	SetCPUOnline(id int, online bool) error
	OnlineControllable(id int) bool
}

// Result reports which cpus a policy operation toggled and which it had
// to skip because their control surface was missing or unwritable.
type Result struct {
	Changed cpuset.Set
	Skipped cpuset.Set
}

// Controller mutates cpu activation state through an OnlineBackend.
type Controller struct {
	backend OnlineBackend
}

// NewController returns a Controller over the given backend.
func NewController(backend OnlineBackend) *Controller {
	return &Controller{backend: backend}
}

// SetActive writes the requested activation state for one cpu. It is a
// no-op for the protected cpu and for cpus without a control file, and is
// idempotent when the requested state already holds. The returned bool
// reports whether the state actually changed.
func (c *Controller) SetActive(id int, active bool) (bool, error) {
	if id == ProtectedCPU {
		klog.V(2).InfoS("Refusing to toggle protected cpu", "cpu", id)
		return false, nil
	}
	if !c.backend.OnlineControllable(id) {
		klog.Warningf("cpu%d has no online control file, skipping", id)
		return false, nil
	}

	current, err := c.backend.CPUOnline(id)
	if err == nil && current == active {
		return false, nil
	}

	if err := c.backend.SetCPUOnline(id, active); err != nil {
		return false, err
	}
	return true, nil
}

// Apply takes every cpu in the plan offline. Per-cpu failures degrade to
// skips; the rest of the plan still applies.
func (c *Controller) Apply(plan cpuset.Set) Result {
	return c.toggle(plan.IDs(), false)
}

// RestoreAll brings every non-protected cpu from 1 to totalCount-1 back
// online.
func (c *Controller) RestoreAll(totalCount int) Result {
	ids := make([]int, 0, totalCount)
	for id := 1; id < totalCount; id++ {
		ids = append(ids, id)
	}
	return c.toggle(ids, true)
}

func (c *Controller) toggle(ids []int, active bool) Result {
	var changed, skipped []int
	for _, id := range ids {
		if id == ProtectedCPU || !c.backend.OnlineControllable(id) {
			skipped = append(skipped, id)
			continue
		}
		didChange, err := c.SetActive(id, active)
		if err != nil {
			klog.ErrorS(err, "Failed to toggle cpu, continuing", "cpu", id, "active", active)
			skipped = append(skipped, id)
			continue
		}
		if didChange {
			changed = append(changed, id)
		}
	}

	result := Result{Changed: cpuset.New(changed...), Skipped: cpuset.New(skipped...)}
	klog.V(2).InfoS("Applied activation change",
		"active", active,
		"changed", result.Changed.String(),
		"skipped", result.Skipped.String())
	return result
}
