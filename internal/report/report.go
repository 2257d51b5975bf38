// Package report renders footprint results into summary, trace and ranking
// files, merging task slices back into whole-task figures.
package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/GlasgowC3lab/ichnos/internal/footprint"
	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

// RunInfo describes the inputs of a run for the summary report.
type RunInfo struct {
	Workflow    string
	CILabel     string
	ModelName   string
	PUE         float64
	MemoryCoeff float64
}

// MergeByID folds slice-level footprint records into whole-task records:
// energies and emissions are summed, realtime spans are combined, and the
// per-window CI values are joined with '|'. Record order follows first
// appearance, which is window order and therefore deterministic.
func MergeByID(records []trace.Footprint) []trace.Footprint {
	byID := make(map[string]int)
	var merged []trace.Footprint

	for _, record := range records {
		i, ok := byID[record.ID]
		if !ok {
			byID[record.ID] = len(merged)
			merged = append(merged, record)
			continue
		}

		present := &merged[i]
		present.Energy += record.Energy
		present.AverageCO2e += record.AverageCO2e
		present.Water += record.Water
		present.Land += record.Land
		present.AvgCI = present.AvgCI + "|" + record.AvgCI
		if record.Start < present.Start {
			present.Start = record.Start
		}
		if record.End > present.End {
			present.End = record.End
		}
	}

	return merged
}

// Summary renders the human-readable run summary.
func Summary(info RunInfo, result *footprint.Result) string {
	var b strings.Builder

	b.WriteString("Carbon Footprint Trace:\n")
	fmt.Fprintf(&b, "- workflow: %s\n", info.Workflow)
	fmt.Fprintf(&b, "- carbon-intensity: %s\n", info.CILabel)
	fmt.Fprintf(&b, "- power-usage-effectiveness: %g\n", info.PUE)
	fmt.Fprintf(&b, "- power model selected: %s\n", info.ModelName)
	fmt.Fprintf(&b, "- memory-power-draw: %g\n", info.MemoryCoeff)

	b.WriteString("\nOperational Footprint:\n")
	fmt.Fprintf(&b, "- Energy Consumption (exc. PUE): %gkWh\n", result.Energy)
	fmt.Fprintf(&b, "- Energy Consumption (inc. PUE): %gkWh\n", result.EnergyPUE)
	fmt.Fprintf(&b, "- Memory Energy Consumption (exc. PUE): %gkWh\n", result.MemoryEnergy)
	fmt.Fprintf(&b, "- Memory Energy Consumption (inc. PUE): %gkWh\n", result.MemoryEnergyPUE)
	fmt.Fprintf(&b, "- Carbon Emissions: %ggCO2e\n", result.TotalEmissions())

	if result.WaterFootprint > 0 {
		fmt.Fprintf(&b, "- Water Footprint: %gL\n", result.WaterFootprint)
	}
	if result.LandFootprint > 0 {
		fmt.Fprintf(&b, "- Land Footprint: %gm2\n", result.LandFootprint)
	}

	if len(result.StaticEnergy) > 0 {
		b.WriteString("\nHost Static Energy:\n")
		hosts := make([]string, 0, len(result.StaticEnergy))
		for host := range result.StaticEnergy {
			hosts = append(hosts, host)
		}
		sort.Strings(hosts)
		for _, host := range hosts {
			fmt.Fprintf(&b, "- %s: %gkWh\n", host, result.StaticEnergy[host])
		}
		fmt.Fprintf(&b, "- Static Memory Energy: %gkWh\n", result.StaticMemoryEnergy)
		fmt.Fprintf(&b, "- Static Emissions: %ggCO2e\n", result.StaticEmissions)
	}

	if result.ReservedMemoryEnergy > 0 {
		fmt.Fprintf(&b, "\nReserved Memory Energy Consumption: %gkWh\n", result.ReservedMemoryEnergy)
		fmt.Fprintf(&b, "Reserved Memory Carbon Emissions: %ggCO2e\n", result.ReservedMemoryEmissions)

		totalEnergy := result.Energy + result.MemoryEnergy + result.ReservedMemoryEnergy
		if totalEnergy > 0 {
			cpuShare := result.Energy / totalEnergy * 100
			memShare := (result.MemoryEnergy + result.ReservedMemoryEnergy) / totalEnergy * 100
			fmt.Fprintf(&b, "%% CPU [%.2f%%] | %% Memory [%.2f%%]\n", cpuShare, memShare)
		}
	}

	var runtime int64
	for _, record := range result.Records {
		runtime += record.Realtime()
	}
	fmt.Fprintf(&b, "\nTask Runtime: %dms\n", runtime)

	return b.String()
}

// Ranking lists the top-N tasks by footprint (then energy, then realtime)
// and by energy alone, flagging tasks whose footprint rank is not explained
// by their energy draw: those ran in dirtier windows.
func Ranking(records []trace.Footprint, n int) string {
	byFootprint := make([]trace.Footprint, len(records))
	copy(byFootprint, records)
	sort.SliceStable(byFootprint, func(i, j int) bool {
		if byFootprint[i].AverageCO2e != byFootprint[j].AverageCO2e {
			return byFootprint[i].AverageCO2e > byFootprint[j].AverageCO2e
		}
		if byFootprint[i].Energy != byFootprint[j].Energy {
			return byFootprint[i].Energy > byFootprint[j].Energy
		}
		return byFootprint[i].Realtime() > byFootprint[j].Realtime()
	})

	byEnergy := make([]trace.Footprint, len(records))
	copy(byEnergy, records)
	sort.SliceStable(byEnergy, func(i, j int) bool {
		if byEnergy[i].Energy != byEnergy[j].Energy {
			return byEnergy[i].Energy > byEnergy[j].Energy
		}
		return byEnergy[i].Realtime() > byEnergy[j].Realtime()
	})

	if n > len(records) {
		n = len(records)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d Tasks - ranked by footprint, energy and realtime:\n", n)
	for _, record := range byFootprint[:n] {
		b.WriteString(record.Name + ":" + record.ID + "\n")
	}

	fmt.Fprintf(&b, "\nTop %d Tasks - ranked by energy and realtime:\n", n)
	for _, record := range byEnergy[:n] {
		b.WriteString(record.Name + ":" + record.ID + "\n")
	}

	topFootprint := make(map[string]bool, n)
	for _, record := range byFootprint[:n] {
		topFootprint[record.ID] = true
	}
	var diff []string
	for _, record := range byEnergy[:n] {
		if topFootprint[record.ID] {
			delete(topFootprint, record.ID)
		}
	}
	for _, record := range byFootprint[:n] {
		if topFootprint[record.ID] {
			diff = append(diff, record.Name+":"+record.ID)
		}
	}

	if len(diff) == 0 {
		b.WriteString("\nThe tasks with the largest energy and realtime have the largest footprint.\n")
	} else {
		b.WriteString("\nThe following tasks have one of the largest footprints, but not the highest energy or realtime:\n")
		b.WriteString(strings.Join(diff, ", ") + "\n")
	}

	return b.String()
}
