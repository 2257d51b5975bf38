package trace

import (
	"encoding/csv"
	"fmt"
	"io"
)

// FootprintHeaders is the column order for footprint CSV output.
var FootprintHeaders = []string{
	"id", "name", "start", "end", "cpu_count", "avg_cpu_usage", "cpu_model",
	"memory", "hostname", "rapl_timeseries", "cpu_usage_timeseries",
	"energy", "average_co2e", "marginal_co2e", "embodied_co2e", "avg_ci",
	"water", "land",
}

// WriteFootprints writes footprint records as CSV, header included.
func WriteFootprints(w io.Writer, records []Footprint) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(FootprintHeaders); err != nil {
		return fmt.Errorf("failed to write footprint header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Name,
			fmt.Sprintf("%d", rec.Start),
			fmt.Sprintf("%d", rec.End),
			fmt.Sprintf("%d", rec.CPUCount),
			fmt.Sprintf("%g", rec.AvgCPUUsage),
			rec.CPUModel,
			fmt.Sprintf("%g", rec.Memory),
			rec.Hostname,
			rec.RAPLTimeseries,
			rec.CPUUsageTimeseries,
			fmt.Sprintf("%g", rec.Energy),
			fmt.Sprintf("%g", rec.AverageCO2e),
			fmt.Sprintf("%g", rec.MarginalCO2e),
			fmt.Sprintf("%g", rec.EmbodiedCO2e),
			rec.AvgCI,
			fmt.Sprintf("%g", rec.Water),
			fmt.Sprintf("%g", rec.Land),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write footprint row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}
