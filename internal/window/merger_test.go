package window

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

func hostTask(id, host string, start, end int64) trace.Task {
	return trace.Task{ID: id, Name: id, Start: start, End: end, CPUCount: 1, Hostname: host}
}

func TestMergedActiveByHost(t *testing.T) {
	t.Run("OverlapCountedOnce", func(t *testing.T) {
		tasks := []trace.Task{
			hostTask("a", "node1", 0, 100_000),
			hostTask("b", "node1", 0, 100_000),
		}

		merged := MergedActiveByHost(tasks)
		assert.Equal(t, int64(100_000), merged["node1"])
	})

	t.Run("PartialOverlapChain", func(t *testing.T) {
		tasks := []trace.Task{
			hostTask("a", "node1", 0, 60_000),
			hostTask("b", "node1", 30_000, 90_000),
			hostTask("c", "node1", 80_000, 120_000),
		}

		merged := MergedActiveByHost(tasks)
		assert.Equal(t, int64(120_000), merged["node1"])
	})

	t.Run("DisjointIntervalsSum", func(t *testing.T) {
		tasks := []trace.Task{
			hostTask("a", "node1", 0, 60_000),
			hostTask("b", "node1", 120_000, 150_000),
		}

		merged := MergedActiveByHost(tasks)
		assert.Equal(t, int64(90_000), merged["node1"])
	})

	t.Run("TouchingIntervalsMerge", func(t *testing.T) {
		tasks := []trace.Task{
			hostTask("a", "node1", 0, 60_000),
			hostTask("b", "node1", 60_000, 90_000),
		}

		merged := MergedActiveByHost(tasks)
		assert.Equal(t, int64(90_000), merged["node1"])
	})

	t.Run("HostsAreIndependent", func(t *testing.T) {
		tasks := []trace.Task{
			hostTask("a", "node1", 0, 60_000),
			hostTask("b", "node2", 0, 60_000),
			hostTask("c", "node2", 30_000, 45_000),
		}

		merged := MergedActiveByHost(tasks)
		assert.Len(t, merged, 2)
		assert.Equal(t, int64(60_000), merged["node1"])
		assert.Equal(t, int64(60_000), merged["node2"])
	})

	t.Run("ContainedIntervalAddsNothing", func(t *testing.T) {
		tasks := []trace.Task{
			hostTask("a", "node1", 0, 100_000),
			hostTask("b", "node1", 20_000, 40_000),
		}

		merged := MergedActiveByHost(tasks)
		assert.Equal(t, int64(100_000), merged["node1"])
	})

	t.Run("Empty", func(t *testing.T) {
		merged := MergedActiveByHost(nil)
		assert.Empty(t, merged)
	})
}
