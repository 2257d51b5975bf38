package trace

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
)

// RequiredHeaders is the subset of trace CSV headers that must be present.
var RequiredHeaders = []string{
	"id", "name", "start", "end", "cpu_count", "avg_cpu_usage",
	"cpu_model", "memory", "hostname",
}

// ReadTasks parses a canonical trace CSV into Task records. Rows with an
// empty id are skipped; rows with malformed numeric fields are skipped with
// a log line. Only a missing header or an unreadable stream is an error.
func ReadTasks(r io.Reader) ([]Task, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read trace CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("empty trace file")
	}

	headerIndices := make(map[string]int)
	for i, h := range records[0] {
		headerIndices[strings.TrimSpace(h)] = i
	}
	for _, required := range RequiredHeaders {
		if _, exists := headerIndices[required]; !exists {
			return nil, fmt.Errorf("missing required trace header: %s", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := headerIndices[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var tasks []Task
	for i, record := range records[1:] {
		id := field(record, "id")
		if id == "" {
			continue
		}

		start, err := strconv.ParseInt(field(record, "start"), 10, 64)
		if err != nil {
			log.Printf("Skipping trace row %d: invalid start %q: %v", i+1, field(record, "start"), err)
			continue
		}
		end, err := strconv.ParseInt(field(record, "end"), 10, 64)
		if err != nil {
			log.Printf("Skipping trace row %d: invalid end %q: %v", i+1, field(record, "end"), err)
			continue
		}
		cpuCount, err := strconv.Atoi(field(record, "cpu_count"))
		if err != nil {
			log.Printf("Skipping trace row %d: invalid cpu_count %q: %v", i+1, field(record, "cpu_count"), err)
			continue
		}
		cpuUsage, err := strconv.ParseFloat(field(record, "avg_cpu_usage"), 64)
		if err != nil {
			log.Printf("Skipping trace row %d: invalid avg_cpu_usage %q: %v", i+1, field(record, "avg_cpu_usage"), err)
			continue
		}
		memory, err := strconv.ParseFloat(field(record, "memory"), 64)
		if err != nil {
			log.Printf("Skipping trace row %d: invalid memory %q: %v", i+1, field(record, "memory"), err)
			continue
		}

		tasks = append(tasks, Task{
			ID:                 id,
			Name:               field(record, "name"),
			Start:              start,
			End:                end,
			CPUCount:           cpuCount,
			AvgCPUUsage:        cpuUsage,
			CPUModel:           field(record, "cpu_model"),
			Memory:             memory,
			Hostname:           field(record, "hostname"),
			RAPLTimeseries:     field(record, "rapl_timeseries"),
			CPUUsageTimeseries: field(record, "cpu_usage_timeseries"),
		})
	}

	return tasks, nil
}
