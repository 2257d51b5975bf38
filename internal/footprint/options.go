package footprint

import (
	"fmt"

	"github.com/GlasgowC3lab/ichnos/internal/intensity"
)

const (
	// DefaultPUE disables facility overhead amplification.
	DefaultPUE = 1.0
	// DefaultMemoryCoeff is the memory power draw in W/GB applied when a
	// host's governor configuration does not supply mem_draw.
	DefaultMemoryCoeff = 0.392
)

// Options control the optional capabilities of a footprint run. Water and
// land accounting each require an intensity source paired with an efficiency
// coefficient; supplying one without the other is a configuration error.
type Options struct {
	PUE         float64
	MemoryCoeff float64

	// Water accounting: onsite usage effectiveness (L/kWh) plus offsite
	// embodied water intensity of the grid (L/kWh).
	WaterIntensity *intensity.Source
	WUE            float64

	// Land accounting: onsite usage effectiveness (m^2/kWh) plus offsite
	// embodied land intensity of the grid (m^2/kWh).
	LandIntensity *intensity.Source
	LUE            float64

	// WithStatic enables host-static (idle/baseline) energy accounting from
	// merged per-host active time.
	WithStatic bool

	// StaticPUE applies the PUE multiplier to static energy before
	// converting it to emissions. Off by default.
	StaticPUE bool

	// WithReservedMemory charges the power draw of reserved node memory over
	// the merged active time of each window, for clusters that hold memory
	// regardless of task usage.
	WithReservedMemory bool
	ReservedMemoryGB   float64
	NumNodes           int
}

func (o *Options) validate() error {
	if o.PUE == 0 {
		o.PUE = DefaultPUE
	}
	if o.PUE < 1 {
		return fmt.Errorf("power usage effectiveness must be >= 1, got %g", o.PUE)
	}
	if o.MemoryCoeff == 0 {
		o.MemoryCoeff = DefaultMemoryCoeff
	}
	if o.MemoryCoeff < 0 {
		return fmt.Errorf("memory coefficient must be non-negative, got %g", o.MemoryCoeff)
	}

	if (o.WaterIntensity != nil) != (o.WUE > 0) {
		return fmt.Errorf("water accounting requires both a water intensity source and a WUE coefficient")
	}
	if (o.LandIntensity != nil) != (o.LUE > 0) {
		return fmt.Errorf("land accounting requires both a land intensity source and a LUE coefficient")
	}

	if o.WithReservedMemory {
		if o.ReservedMemoryGB <= 0 {
			return fmt.Errorf("reserved-memory accounting requires a positive reserved memory size")
		}
		if o.NumNodes <= 0 {
			return fmt.Errorf("reserved-memory accounting requires a positive node count")
		}
	}

	return nil
}

func (o *Options) withWater() bool {
	return o.WaterIntensity != nil
}

func (o *Options) withLand() bool {
	return o.LandIntensity != nil
}
