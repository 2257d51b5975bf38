package db

import (
	"time"

	"github.com/google/uuid"
)

// Run is a persisted footprint computation over one workflow trace.
type Run struct {
	ID              uuid.UUID
	Workflow        string
	ModelName       string
	CILabel         string
	PUE             float64
	WindowWidthMS   int64
	Energy          float64
	EnergyPUE       float64
	MemoryEnergy    float64
	MemoryEnergyPUE float64
	Emissions       float64
	WaterFootprint  float64
	LandFootprint   float64
	CreatedAt       time.Time
}

// TaskFootprint is one merged per-task record of a run.
type TaskFootprint struct {
	RunID       uuid.UUID
	TaskID      string
	Name        string
	Start       int64
	End         int64
	CPUCount    int
	AvgCPUUsage float64
	Memory      float64
	Hostname    string
	Energy      float64
	AverageCO2e float64
	AvgCI       string
	Water       float64
	Land        float64
}

// HostStatic is the per-host static energy attribution of a run.
type HostStatic struct {
	RunID    uuid.UUID
	Hostname string
	Energy   float64
}
