// Package window slices task execution intervals into fixed-width time
// windows so that each portion of a task's runtime can be attributed to the
// environmental intensity in effect while it ran.
package window

import (
	"fmt"
	"sort"

	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

// Binning maps window keys (left-edge epoch ms) to the task slices that ran
// inside that window. Overheads records, per window, the longest runtime of a
// task that starts in the window but completes in a later one: that task
// stalls completion of the window's workload by exactly that duration.
type Binning struct {
	Width     int64
	Windows   map[int64][]trace.Task
	Overheads map[int64]int64
	Keys      []int64
}

// Bin distributes tasks over contiguous windows of the given width (ms).
// The binned range runs from one window before the aligned earliest start
// through the aligned window containing the latest end. Slices of a split
// task carry adjusted Start/End so that the sum of slice durations equals
// the original task duration exactly.
func Bin(tasks []trace.Task, width int64) (*Binning, error) {
	if width <= 0 {
		return nil, fmt.Errorf("window width must be positive, got %d", width)
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("no tasks to bin")
	}
	for _, task := range tasks {
		if task.End <= task.Start {
			return nil, fmt.Errorf("task %s: end (%d) must be after start (%d)", task.ID, task.End, task.Start)
		}
	}

	earliest := tasks[0].Start
	latest := tasks[0].End
	for _, task := range tasks[1:] {
		if task.Start < earliest {
			earliest = task.Start
		}
		if task.End > latest {
			latest = task.End
		}
	}

	first := alignToNearest(earliest, width) - width
	last := alignToNearest(latest, width)

	b := &Binning{
		Width:     width,
		Windows:   make(map[int64][]trace.Task),
		Overheads: make(map[int64]int64),
	}

	for i := first; i <= last || i < latest; i += width {
		var data []trace.Task
		var overhead int64

		for _, task := range tasks {
			start, end := task.Start, task.End

			switch {
			// Fully inside this window: keep the task as-is.
			case start >= i && end <= i+width:
				data = append(data, task)

			// Started earlier, ends here: slice from the window edge.
			case start < i && end > i && end <= i+width:
				partial := task
				partial.Start = i
				data = append(data, partial)

			// Starts here, ends later: slice up to the window edge.
			// The longest such slice is the window's overhead.
			case start >= i && start < i+width && end > i+width:
				partial := task
				partial.End = i + width
				data = append(data, partial)
				if d := i + width - start; d > overhead {
					overhead = d
				}

			// Spans the whole window.
			case start < i && end > i+width:
				partial := task
				partial.Start = i
				partial.End = i + width
				data = append(data, partial)
			}
		}

		b.Windows[i] = data
		b.Overheads[i] = overhead
		b.Keys = append(b.Keys, i)
	}

	sort.Slice(b.Keys, func(x, y int) bool { return b.Keys[x] < b.Keys[y] })

	return b, nil
}

// alignToNearest rounds ts to the nearest window boundary; exactly half a
// window rounds up.
func alignToNearest(ts, width int64) int64 {
	rem := ts % width
	if rem < 0 {
		rem += width
	}
	if rem*2 >= width {
		return ts - rem + width
	}
	return ts - rem
}
