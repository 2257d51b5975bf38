package trace

// Task is the canonical unit of work extracted from a workflow trace.
// Timestamps are epoch milliseconds, memory is bytes. The schema is
// engine-agnostic: any workload that can be broken down into tasks
// (Nextflow, Spark, Airflow, ...) is represented this way upstream.
type Task struct {
	ID          string
	Name        string
	Start       int64
	End         int64
	CPUCount    int
	AvgCPUUsage float64
	CPUModel    string
	Memory      float64
	Hostname    string

	// Optional auxiliary time-series file references, preserved as given.
	RAPLTimeseries     string
	CPUUsageTimeseries string
}

// Realtime returns the task duration in milliseconds.
func (t Task) Realtime() int64 {
	return t.End - t.Start
}

// Footprint is the derived per-slice record handed to reporting and storage
// collaborators. MarginalCO2e and EmbodiedCO2e are emitted for schema
// compatibility with downstream tooling and are always zero here.
type Footprint struct {
	Task

	Energy       float64 // PUE-adjusted core+memory energy, kWh
	AverageCO2e  float64 // g
	MarginalCO2e float64 // g, always 0
	EmbodiedCO2e float64 // g, always 0
	AvgCI        string  // CI value(s) applied; windows joined with '|'
	Water        float64 // L, 0 unless water accounting enabled
	Land         float64 // m^2, 0 unless land accounting enabled
}
