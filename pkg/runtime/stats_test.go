package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCPUPercentComputesDelta(t *testing.T) {
	s := &Stats{
		CPUStats: CPUStats{
			CPUUsage:       CPUUsage{TotalUsage: 2_000_000_000},
			SystemCPUUsage: 10_000_000_000,
			OnlineCPUs:     2,
		},
		PreCPUStats: CPUStats{
			CPUUsage:       CPUUsage{TotalUsage: 1_000_000_000},
			SystemCPUUsage: 9_000_000_000,
		},
	}
	// cpu delta = 1e9, system delta = 1e9, nCPUs = 2 -> 1 * 2 * 100 = 200
	assert.InDelta(t, 200.0, s.CPUPercent(), 0.001)
}

func TestCPUPercentZeroOnNonPositiveDelta(t *testing.T) {
	s := &Stats{
		CPUStats: CPUStats{
			CPUUsage:       CPUUsage{TotalUsage: 1_000_000_000},
			SystemCPUUsage: 9_000_000_000,
		},
		PreCPUStats: CPUStats{
			CPUUsage:       CPUUsage{TotalUsage: 1_000_000_000},
			SystemCPUUsage: 10_000_000_000,
		},
	}
	assert.Equal(t, 0.0, s.CPUPercent())
}
