package window

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

const width = int64(60_000) // one minute in ms

func task(id string, start, end int64) trace.Task {
	return trace.Task{ID: id, Name: id, Start: start, End: end, CPUCount: 1, Hostname: "node1"}
}

func TestBinDurationConservation(t *testing.T) {
	tasks := []trace.Task{
		task("a", 5_000, 20_000),        // inside one window
		task("b", 10_000, 200_000),      // spans four windows
		task("c", 55_000, 65_000),       // straddles one boundary
		task("d", 0, 60_000),            // exactly one window
		task("e", 30_000, 330_000),      // long, starts mid-window
		task("f", 119_000, 121_000),     // short straddle
	}

	b, err := Bin(tasks, width)
	require.NoError(t, err)

	sums := make(map[string]int64)
	for _, key := range b.Keys {
		for _, slice := range b.Windows[key] {
			d := slice.Realtime()
			assert.Greater(t, d, int64(0), "no slice may have non-positive duration")
			assert.LessOrEqual(t, d, width, "no slice may exceed the window width")
			sums[slice.ID] += d
		}
	}

	for _, original := range tasks {
		assert.Equal(t, original.Realtime(), sums[original.ID],
			"slice durations for task %s must sum to the full duration", original.ID)
	}
}

func TestBinOverhead(t *testing.T) {
	// Starts 10s into the window [0, 60s) and runs past its end: the window
	// is stalled by the 50s that spill over.
	tasks := []trace.Task{task("a", 10_000, 200_000)}

	b, err := Bin(tasks, width)
	require.NoError(t, err)

	assert.Equal(t, int64(50_000), b.Overheads[0])

	// Windows the task merely spans contribute no overhead of their own.
	assert.Equal(t, int64(0), b.Overheads[60_000])
}

func TestBinOverheadLongestTaskWins(t *testing.T) {
	tasks := []trace.Task{
		task("short", 50_000, 70_000), // 10s left in window
		task("long", 20_000, 300_000), // 40s left in window
	}

	b, err := Bin(tasks, width)
	require.NoError(t, err)

	assert.Equal(t, int64(40_000), b.Overheads[0])
}

func TestBinCaseBounds(t *testing.T) {
	t.Run("FullyInsideKeptUnmodified", func(t *testing.T) {
		b, err := Bin([]trace.Task{task("a", 0, 60_000)}, width)
		require.NoError(t, err)

		slices := b.Windows[0]
		require.Len(t, slices, 1)
		assert.Equal(t, int64(0), slices[0].Start)
		assert.Equal(t, int64(60_000), slices[0].End)
	})

	t.Run("SpanningTaskClippedToWindow", func(t *testing.T) {
		b, err := Bin([]trace.Task{task("a", 30_000, 330_000)}, width)
		require.NoError(t, err)

		slices := b.Windows[120_000]
		require.Len(t, slices, 1)
		assert.Equal(t, int64(120_000), slices[0].Start)
		assert.Equal(t, int64(180_000), slices[0].End)
		assert.Equal(t, width, slices[0].Realtime())
	})

	t.Run("EndOnBoundaryBelongsToEarlierWindow", func(t *testing.T) {
		b, err := Bin([]trace.Task{task("a", 30_000, 120_000)}, width)
		require.NoError(t, err)

		for _, slice := range b.Windows[120_000] {
			assert.NotEqual(t, "a", slice.ID, "half-open interval: end == window start is not inside")
		}
	})
}

func TestBinRangeCoversLatestEnd(t *testing.T) {
	// Latest end rounds down during alignment; the binned range must still
	// reach the window containing it or slices would be lost.
	tasks := []trace.Task{task("a", 10_000, 200_000)}

	b, err := Bin(tasks, width)
	require.NoError(t, err)

	var total int64
	for _, key := range b.Keys {
		for _, slice := range b.Windows[key] {
			total += slice.Realtime()
		}
	}
	assert.Equal(t, int64(190_000), total)
}

func TestBinKeysSortedAndContiguous(t *testing.T) {
	b, err := Bin([]trace.Task{task("a", 10_000, 200_000)}, width)
	require.NoError(t, err)

	require.NotEmpty(t, b.Keys)
	for i := 1; i < len(b.Keys); i++ {
		assert.Equal(t, b.Keys[i-1]+width, b.Keys[i], "window keys must be contiguous")
	}

	// One window before the aligned earliest start.
	assert.Equal(t, int64(-60_000), b.Keys[0])
}

func TestBinInvalidInput(t *testing.T) {
	t.Run("NonPositiveWidth", func(t *testing.T) {
		_, err := Bin([]trace.Task{task("a", 0, 1_000)}, 0)
		assert.Error(t, err)
	})

	t.Run("EndBeforeStart", func(t *testing.T) {
		_, err := Bin([]trace.Task{task("a", 1_000, 1_000)}, width)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "a")
	})

	t.Run("NoTasks", func(t *testing.T) {
		_, err := Bin(nil, width)
		assert.Error(t, err)
	})
}

func TestAlignToNearest(t *testing.T) {
	cases := []struct {
		name string
		ts   int64
		want int64
	}{
		{name: "AlreadyAligned", ts: 120_000, want: 120_000},
		{name: "BelowHalfRoundsDown", ts: 129_999, want: 120_000},
		{name: "ExactlyHalfRoundsUp", ts: 150_000, want: 180_000},
		{name: "AboveHalfRoundsUp", ts: 170_000, want: 180_000},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, alignToNearest(tc.ts, width))
		})
	}
}
