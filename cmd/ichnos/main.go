package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GlasgowC3lab/ichnos/internal/footprint"
	"github.com/GlasgowC3lab/ichnos/internal/intensity"
	"github.com/GlasgowC3lab/ichnos/internal/power"
	"github.com/GlasgowC3lab/ichnos/internal/report"
	"github.com/GlasgowC3lab/ichnos/internal/trace"
)

type footprintOpts struct {
	tracePath  string
	ci         string
	model      string
	interval   int
	pue        float64
	memCoeff   float64
	nodeConfig string
	minWatts   float64
	maxWatts   float64

	waterIntensity string
	wue            float64
	landIntensity  string
	lue            float64

	static         bool
	staticPUE      bool
	reservedMemory float64
	numNodes       int

	output string
}

func main() {
	root := &cobra.Command{
		Use:           "ichnos",
		Short:         "Estimate the environmental footprint of computational workflows",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(footprintCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("ichnos: %v", err)
	}
}

func footprintCmd() *cobra.Command {
	var o footprintOpts

	cmd := &cobra.Command{
		Use:   "footprint",
		Short: "Compute the operational footprint of a workflow trace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFootprint(o)
		},
	}

	cmd.Flags().StringVar(&o.tracePath, "trace", "", "canonical trace CSV (required)")
	cmd.Flags().StringVar(&o.ci, "ci", "", "carbon intensity: a gCO2/kWh value or an intensity CSV path (required)")
	cmd.Flags().StringVar(&o.model, "model", "fixed_minmax", "power model name (<governor>_<modeltype>)")
	cmd.Flags().IntVar(&o.interval, "interval", 60, "window width in minutes")
	cmd.Flags().Float64Var(&o.pue, "pue", footprint.DefaultPUE, "power usage effectiveness")
	cmd.Flags().Float64Var(&o.memCoeff, "memory-coeff", footprint.DefaultMemoryCoeff, "memory power draw, W/GB")
	cmd.Flags().StringVar(&o.nodeConfig, "node-config", "", "per-host power model configuration JSON")
	cmd.Flags().Float64Var(&o.minWatts, "min-watts", 0, "idle watts for the fixed min/max model")
	cmd.Flags().Float64Var(&o.maxWatts, "max-watts", 0, "peak watts for the fixed min/max model")
	cmd.Flags().StringVar(&o.waterIntensity, "water-intensity", "", "water intensity: a L/kWh value or an intensity CSV path")
	cmd.Flags().Float64Var(&o.wue, "wue", 0, "onsite water usage effectiveness, L/kWh")
	cmd.Flags().StringVar(&o.landIntensity, "land-intensity", "", "land intensity: a m2/kWh value or an intensity CSV path")
	cmd.Flags().Float64Var(&o.lue, "lue", 0, "onsite land usage effectiveness, m2/kWh")
	cmd.Flags().BoolVar(&o.static, "static", false, "account host baseline draw over merged active time")
	cmd.Flags().BoolVar(&o.staticPUE, "static-pue", false, "apply PUE to static energy")
	cmd.Flags().Float64Var(&o.reservedMemory, "reserved-memory", 0, "reserved node memory in GB")
	cmd.Flags().IntVar(&o.numNodes, "num-nodes", 0, "number of nodes holding reserved memory")
	cmd.Flags().StringVar(&o.output, "output", "output", "report output folder")

	cmd.MarkFlagRequired("trace")
	cmd.MarkFlagRequired("ci")

	return cmd
}

func runFootprint(o footprintOpts) error {
	traceFile, err := os.Open(o.tracePath)
	if err != nil {
		return fmt.Errorf("failed to open trace: %w", err)
	}
	defer traceFile.Close()

	tasks, err := trace.ReadTasks(traceFile)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		return fmt.Errorf("trace %s contains no usable tasks", o.tracePath)
	}

	carbon, err := loadIntensity(o.ci)
	if err != nil {
		return fmt.Errorf("carbon intensity: %w", err)
	}

	var nodeConfig power.NodeConfig
	if o.nodeConfig != "" {
		nodeConfig, err = power.LoadNodeConfig(o.nodeConfig)
		if err != nil {
			return err
		}
	} else {
		if o.maxWatts <= o.minWatts {
			return fmt.Errorf("fixed mode requires --min-watts and --max-watts (or use --node-config)")
		}
		nodeConfig = power.FixedMinMax(o.minWatts, o.maxWatts, 0)
	}

	opts := footprint.Options{
		PUE:         o.pue,
		MemoryCoeff: o.memCoeff,
		WUE:         o.wue,
		LUE:         o.lue,
		WithStatic:  o.static,
		StaticPUE:   o.staticPUE,
	}
	if o.waterIntensity != "" {
		source, err := loadIntensity(o.waterIntensity)
		if err != nil {
			return fmt.Errorf("water intensity: %w", err)
		}
		opts.WaterIntensity = &source
	}
	if o.landIntensity != "" {
		source, err := loadIntensity(o.landIntensity)
		if err != nil {
			return fmt.Errorf("land intensity: %w", err)
		}
		opts.LandIntensity = &source
	}
	if o.reservedMemory > 0 || o.numNodes > 0 {
		opts.WithReservedMemory = true
		opts.ReservedMemoryGB = o.reservedMemory
		opts.NumNodes = o.numNodes
	}

	aggregator, err := footprint.New(power.NewResolver(nodeConfig), o.model, carbon, opts)
	if err != nil {
		return err
	}

	result, err := aggregator.Run(tasks, int64(o.interval)*60_000)
	if err != nil {
		return err
	}

	workflow := strings.TrimSuffix(filepath.Base(o.tracePath), filepath.Ext(o.tracePath))
	info := report.RunInfo{
		Workflow:    workflow,
		CILabel:     o.ci,
		ModelName:   o.model,
		PUE:         o.pue,
		MemoryCoeff: o.memCoeff,
	}

	name := workflow + "-" + reportLabel(o.ci) + "-" + o.model
	if err := report.WriteAll(o.output, name, info, result); err != nil {
		return err
	}

	fmt.Printf("Carbon Emissions: %ggCO2e\n", result.TotalEmissions())
	fmt.Printf("Reports written to %s\n", o.output)

	return nil
}

// loadIntensity interprets the argument as a scalar when it parses as a
// number, and as an intensity CSV path otherwise.
func loadIntensity(arg string) (intensity.Source, error) {
	if value, err := strconv.ParseFloat(arg, 64); err == nil {
		return intensity.Scalar(value), nil
	}

	file, err := os.Open(arg)
	if err != nil {
		return intensity.Source{}, fmt.Errorf("failed to open intensity file: %w", err)
	}
	defer file.Close()

	return intensity.ParseTable(file)
}

// reportLabel derives a filename-safe label from a ci argument.
func reportLabel(ci string) string {
	if value, err := strconv.ParseFloat(ci, 64); err == nil {
		return strconv.Itoa(int(value))
	}
	return strings.TrimSuffix(filepath.Base(ci), filepath.Ext(ci))
}
