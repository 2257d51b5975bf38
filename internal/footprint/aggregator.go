// Package footprint composes window binning, power-model resolution and
// intensity lookup into per-task and per-host energy and emissions figures.
package footprint

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/GlasgowC3lab/ichnos/internal/intensity"
	"github.com/GlasgowC3lab/ichnos/internal/power"
	"github.com/GlasgowC3lab/ichnos/internal/trace"
	"github.com/GlasgowC3lab/ichnos/internal/window"
)

// Result holds the aggregate figures of one footprint run. Task-attributed
// and static energies are additive and never double counted; reporting
// collaborators merge slice Records back into whole-task figures by id.
type Result struct {
	Energy          float64 // core energy exc. PUE, kWh
	EnergyPUE       float64
	MemoryEnergy    float64 // task memory energy exc. PUE, kWh
	MemoryEnergyPUE float64

	TaskEmissions float64 // gCO2e attributed to task slices

	StaticEnergy       map[string]float64 // per-host static core energy, kWh
	StaticMemoryEnergy float64
	StaticEmissions    float64

	ReservedMemoryEnergy    float64
	ReservedMemoryEmissions float64

	WaterFootprint float64 // L
	LandFootprint  float64 // m^2

	Overheads map[int64]int64 // per-window spill-over duration, ms
	Records   []trace.Footprint
}

// TotalEmissions returns task, static and reserved-memory emissions
// combined, in gCO2e.
func (r *Result) TotalEmissions() float64 {
	return r.TaskEmissions + r.StaticEmissions + r.ReservedMemoryEmissions
}

// windowFactors carries the intensity values resolved for one window. All
// lookups happen before any energy is computed, so a missing key fails the
// run with nothing emitted.
type windowFactors struct {
	carbon float64
	water  float64
	land   float64
}

// Aggregator is the orchestrating engine of a footprint run.
type Aggregator struct {
	resolver  *power.Resolver
	modelName string
	carbon    intensity.Source
	opts      Options
}

// New validates the run options and returns an aggregator. Invariant
// violations in the options (unpaired water/land configuration, nonsensical
// PUE) are rejected here, before any trace is binned.
func New(resolver *power.Resolver, modelName string, carbon intensity.Source, opts Options) (*Aggregator, error) {
	if resolver == nil {
		return nil, fmt.Errorf("power model resolver is required")
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &Aggregator{
		resolver:  resolver,
		modelName: modelName,
		carbon:    carbon,
		opts:      opts,
	}, nil
}

// Run bins the tasks into windows of the given width (ms) and computes the
// full footprint. Configuration and lookup misses abort the run: a footprint
// is only meaningful as a complete, validated whole.
func (a *Aggregator) Run(tasks []trace.Task, width int64) (*Result, error) {
	for _, task := range tasks {
		if task.CPUCount < 1 {
			return nil, fmt.Errorf("task %s: cpu_count must be at least 1, got %d", task.ID, task.CPUCount)
		}
	}

	binning, err := window.Bin(tasks, width)
	if err != nil {
		return nil, err
	}

	factors, err := a.resolveFactors(binning)
	if err != nil {
		return nil, err
	}

	result := &Result{
		StaticEnergy: make(map[string]float64),
		Overheads:    binning.Overheads,
	}

	for _, key := range binning.Keys {
		slices := binning.Windows[key]
		if len(slices) == 0 {
			continue
		}
		wf := factors[key]

		for _, slice := range slices {
			if err := a.addSlice(result, slice, wf); err != nil {
				return nil, err
			}
		}

		if a.opts.WithStatic {
			if err := a.addStatic(result, slices, wf); err != nil {
				return nil, err
			}
		}
		if a.opts.WithReservedMemory {
			a.addReservedMemory(result, slices, wf)
		}
	}

	return result, nil
}

// resolveFactors looks up every intensity value the run will need, for every
// window that contains at least one task.
func (a *Aggregator) resolveFactors(binning *window.Binning) (map[int64]windowFactors, error) {
	factors := make(map[int64]windowFactors, len(binning.Keys))

	for _, key := range binning.Keys {
		if len(binning.Windows[key]) == 0 {
			continue
		}

		var wf windowFactors
		var err error

		wf.carbon, err = a.carbon.Value(key)
		if err != nil {
			return nil, fmt.Errorf("carbon intensity: %w", err)
		}
		if a.opts.withWater() {
			wf.water, err = a.opts.WaterIntensity.Value(key)
			if err != nil {
				return nil, fmt.Errorf("water intensity: %w", err)
			}
		}
		if a.opts.withLand() {
			wf.land, err = a.opts.LandIntensity.Value(key)
			if err != nil {
				return nil, fmt.Errorf("land intensity: %w", err)
			}
		}

		factors[key] = wf
	}

	return factors, nil
}

// addSlice computes one slice's energy and impact figures and accumulates
// them into the running totals.
func (a *Aggregator) addSlice(result *Result, slice trace.Task, wf windowFactors) error {
	model, err := a.resolver.Resolve(slice.Hostname, a.modelName)
	if err != nil {
		return err
	}

	hours := float64(slice.Realtime()) / 3_600_000

	var coreEnergy float64
	switch model.Type {
	case power.Baseline:
		// No curve: raw utilisation of the per-core TDP across all cores.
		coreEnergy = hours * model.TDPPerCore * (slice.AvgCPUUsage / 100) * float64(slice.CPUCount) * 0.001
	case power.MinMax:
		fraction := slice.AvgCPUUsage / (100 * float64(slice.CPUCount))
		coreEnergy = hours * model.Curve(fraction) * 0.001
	default:
		// Fitted curves are trained on whole-node utilisation.
		fraction := slice.AvgCPUUsage / float64(model.SystemCores)
		coreEnergy = hours * model.Curve(fraction) * 0.001
	}

	memDraw := model.MemDraw
	if memDraw == 0 {
		memDraw = a.opts.MemoryCoeff
	}
	memoryEnergy := (slice.Memory / 1073741824) * memDraw * hours * 0.001

	coreEnergyPUE := coreEnergy * a.opts.PUE
	memoryEnergyPUE := memoryEnergy * a.opts.PUE
	emissions := (coreEnergyPUE + memoryEnergyPUE) * wf.carbon

	record := trace.Footprint{
		Task:        slice,
		Energy:      coreEnergyPUE + memoryEnergyPUE,
		AverageCO2e: emissions,
		AvgCI:       strconv.FormatFloat(wf.carbon, 'g', -1, 64),
	}

	if a.opts.withWater() {
		onsite := (coreEnergy + memoryEnergy) * a.opts.WUE
		offsite := (coreEnergyPUE + memoryEnergyPUE) * wf.water
		record.Water = onsite + offsite
		result.WaterFootprint += record.Water
	}
	if a.opts.withLand() {
		onsite := (coreEnergy + memoryEnergy) * a.opts.LUE
		offsite := (coreEnergyPUE + memoryEnergyPUE) * wf.land
		record.Land = onsite + offsite
		result.LandFootprint += record.Land
	}

	result.Energy += coreEnergy
	result.EnergyPUE += coreEnergyPUE
	result.MemoryEnergy += memoryEnergy
	result.MemoryEnergyPUE += memoryEnergyPUE
	result.TaskEmissions += emissions
	result.Records = append(result.Records, record)

	return nil
}

// addStatic charges each host's baseline draw over its merged active time in
// the window.
func (a *Aggregator) addStatic(result *Result, slices []trace.Task, wf windowFactors) error {
	active := window.MergedActiveByHost(slices)

	hosts := make([]string, 0, len(active))
	for host := range active {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		model, err := a.resolver.Resolve(host, a.modelName)
		if err != nil {
			return err
		}

		hours := float64(active[host]) / 3_600_000
		staticCore := hours * model.BaselineWatts * 0.001

		memDraw := model.MemDraw
		if memDraw == 0 {
			memDraw = a.opts.MemoryCoeff
		}
		staticMemory := hours * memDraw * model.MemoryGB * 0.001

		staticTotal := staticCore + staticMemory
		if a.opts.StaticPUE {
			staticTotal *= a.opts.PUE
		}

		result.StaticEnergy[host] += staticCore
		result.StaticMemoryEnergy += staticMemory
		result.StaticEmissions += staticTotal * wf.carbon
	}

	return nil
}

// addReservedMemory charges the reserved node memory draw over the merged
// active time of the window, across all hosts as one timeline.
func (a *Aggregator) addReservedMemory(result *Result, slices []trace.Task, wf windowFactors) {
	merged := make([]trace.Task, len(slices))
	copy(merged, slices)
	for i := range merged {
		merged[i].Hostname = ""
	}

	hours := float64(window.MergedActiveByHost(merged)[""]) / 3_600_000
	energy := a.opts.ReservedMemoryGB * a.opts.MemoryCoeff * hours * 0.001 * float64(a.opts.NumNodes)
	emissions := energy * wf.carbon
	if a.opts.StaticPUE {
		emissions *= a.opts.PUE
	}

	result.ReservedMemoryEnergy += energy
	result.ReservedMemoryEmissions += emissions
}
