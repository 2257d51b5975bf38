// Package power resolves host and governor identifiers to power-draw curves
// used to convert CPU utilisation into wattage.
package power

import (
	"encoding/json"
	"fmt"
	"os"
)

// Wildcard is the host key matched when a trace carries no per-host
// configuration, e.g. when min/max watts are supplied on the command line.
const Wildcard = "*"

// GovernorConfig holds the measured power characteristics of one host under
// one CPU frequency governor. Only the fields required by the selected model
// type need to be populated.
type GovernorConfig struct {
	CPUModel    string    `json:"cpu_model"`
	MinWatts    float64   `json:"min_watts"`
	MaxWatts    float64   `json:"max_watts"`
	TDPPerCore  float64   `json:"tdp_per_core"`
	Linear      []float64 `json:"linear"`     // [coefficient, intercept]
	Polynomial  []float64 `json:"polynomial"` // highest degree first
	MemDraw     float64   `json:"mem_draw"`   // W/GB
	SystemCores int       `json:"system_cores"`
}

// HostConfig describes one host: its total memory and the per-governor
// power characteristics measured on it.
type HostConfig struct {
	MemoryGB  float64                   `json:"memory"`
	Governors map[string]GovernorConfig `json:"governors"`
}

// NodeConfig maps host identifiers to their configuration. It is constructed
// once at run start and passed explicitly into the resolver; there is no
// process-wide cache.
type NodeConfig map[string]HostConfig

// LoadNodeConfig reads a node configuration JSON document from disk.
func LoadNodeConfig(path string) (NodeConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read node config %s: %w", path, err)
	}

	var cfg NodeConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse node config %s: %w", path, err)
	}

	return cfg, nil
}

// FixedMinMax builds a wildcard configuration for runs where a single
// min/max watts pair applies to every host in the trace.
func FixedMinMax(minWatts, maxWatts, memDraw float64) NodeConfig {
	return NodeConfig{
		Wildcard: {
			Governors: map[string]GovernorConfig{
				"fixed": {
					MinWatts: minWatts,
					MaxWatts: maxWatts,
					MemDraw:  memDraw,
				},
			},
		},
	}
}
