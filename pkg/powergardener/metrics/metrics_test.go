package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGauges(t *testing.T) {
	PackagePower.Set(12.5)
	assert.InDelta(t, 12.5, testutil.ToFloat64(PackagePower), 0.0001)

	ActiveCPUs.Set(6)
	assert.InDelta(t, 6.0, testutil.ToFloat64(ActiveCPUs), 0.0001)

	CPUActive.WithLabelValues("3").Set(1)
	CPUActive.WithLabelValues("8").Set(0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(CPUActive.WithLabelValues("3")), 0.0001)
	assert.InDelta(t, 0.0, testutil.ToFloat64(CPUActive.WithLabelValues("8")), 0.0001)
}
