package trace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const traceHeader = "id,name,start,end,cpu_count,avg_cpu_usage,cpu_model,memory,hostname"

func TestReadTasks(t *testing.T) {
	csv := strings.Join([]string{
		traceHeader,
		"t1,align,0,3600000,4,212.4,AMD EPYC 7702,4294967296,node1",
		"t2,quant,3600000,5400000,1,88,AMD EPYC 7702,1073741824,node2",
	}, "\n")

	tasks, err := ReadTasks(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	first := tasks[0]
	assert.Equal(t, "t1", first.ID)
	assert.Equal(t, "align", first.Name)
	assert.Equal(t, int64(0), first.Start)
	assert.Equal(t, int64(3_600_000), first.End)
	assert.Equal(t, 4, first.CPUCount)
	assert.InDelta(t, 212.4, first.AvgCPUUsage, 1e-9)
	assert.InDelta(t, 4294967296.0, first.Memory, 1e-9)
	assert.Equal(t, "node1", first.Hostname)
	assert.Equal(t, int64(3_600_000), first.Realtime())

	assert.Equal(t, int64(1_800_000), tasks[1].Realtime())
}

func TestReadTasksSkipsEmptyID(t *testing.T) {
	csv := strings.Join([]string{
		traceHeader,
		",align,0,3600000,4,212.4,AMD EPYC 7702,0,node1",
		"t2,quant,0,3600000,1,88,AMD EPYC 7702,0,node1",
	}, "\n")

	tasks, err := ReadTasks(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t2", tasks[0].ID)
}

func TestReadTasksSkipsMalformedRows(t *testing.T) {
	csv := strings.Join([]string{
		traceHeader,
		"t1,align,not-a-number,3600000,4,212.4,AMD EPYC 7702,0,node1",
		"t2,quant,0,3600000,one,88,AMD EPYC 7702,0,node1",
		"t3,sort,0,3600000,1,88,AMD EPYC 7702,0,node1",
	}, "\n")

	tasks, err := ReadTasks(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "t3", tasks[0].ID)
}

func TestReadTasksMissingHeader(t *testing.T) {
	csv := strings.Join([]string{
		"id,name,start,end,cpu_count,avg_cpu_usage,cpu_model,memory", // no hostname
		"t1,align,0,3600000,4,212.4,AMD EPYC 7702,0",
	}, "\n")

	_, err := ReadTasks(strings.NewReader(csv))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hostname")
}

func TestReadTasksOptionalTimeseriesColumns(t *testing.T) {
	csv := strings.Join([]string{
		traceHeader + ",rapl_timeseries,cpu_usage_timeseries",
		"t1,align,0,3600000,4,212.4,AMD EPYC 7702,0,node1,rapl-t1.csv,usage-t1.csv",
	}, "\n")

	tasks, err := ReadTasks(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "rapl-t1.csv", tasks[0].RAPLTimeseries)
	assert.Equal(t, "usage-t1.csv", tasks[0].CPUUsageTimeseries)
}

func TestWriteFootprints(t *testing.T) {
	records := []Footprint{
		{
			Task: Task{
				ID: "t1", Name: "align", Start: 0, End: 3_600_000,
				CPUCount: 4, AvgCPUUsage: 212.4, CPUModel: "AMD EPYC 7702",
				Memory: 4294967296, Hostname: "node1",
			},
			Energy:      0.125,
			AverageCO2e: 12.5,
			AvgCI:       "100|200",
			Water:       0.6,
		},
	}

	var sb strings.Builder
	require.NoError(t, WriteFootprints(&sb, records))

	lines := strings.Split(strings.TrimSpace(sb.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(FootprintHeaders, ","), lines[0])
	assert.Contains(t, lines[1], "t1,align,0,3600000,4,212.4")
	assert.Contains(t, lines[1], "100|200")
	assert.Contains(t, lines[1], "0.125")
}
