package window

import (
	"sort"

	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

type interval struct {
	start int64
	end   int64
}

// MergedActiveByHost merges the execution intervals of one window's tasks
// into disjoint spans per host and returns the total merged duration (ms)
// for each. Two fully overlapping tasks on the same host contribute the
// union of their spans, not the sum: host idle/static energy must not be
// counted twice for the overlapped stretch.
func MergedActiveByHost(tasks []trace.Task) map[string]int64 {
	byHost := make(map[string][]interval)
	for _, task := range tasks {
		byHost[task.Hostname] = append(byHost[task.Hostname], interval{start: task.Start, end: task.End})
	}

	active := make(map[string]int64, len(byHost))
	for host, intervals := range byHost {
		sort.Slice(intervals, func(i, j int) bool {
			if intervals[i].start == intervals[j].start {
				return intervals[i].end < intervals[j].end
			}
			return intervals[i].start < intervals[j].start
		})

		var total int64
		current := intervals[0]
		for _, next := range intervals[1:] {
			if next.start <= current.end {
				if next.end > current.end {
					current.end = next.end
				}
				continue
			}
			total += current.end - current.start
			current = next
		}
		total += current.end - current.start

		active[host] = total
	}

	return active
}
