package power

import (
	"fmt"
	"strings"
)

// ModelType selects how utilisation is converted to watts.
type ModelType string

const (
	// MinMax interpolates linearly between idle and peak watts.
	MinMax ModelType = "minmax"
	// Linear applies a fitted coefficient and intercept.
	Linear ModelType = "linear"
	// Baseline charges a fixed per-core TDP scaled by raw utilisation.
	Baseline ModelType = "baseline"
	// Polynomial evaluates a fitted coefficient vector.
	Polynomial ModelType = "polynomial"
)

// Model is a resolved power model for one host+governor pair. Curve maps a
// utilisation fraction to instantaneous watts; BaselineWatts is the idle/TDP
// wattage used for host-static energy accounting. Curve is nil for the
// Baseline model type, which bypasses curve evaluation entirely.
type Model struct {
	Type          ModelType
	Curve         func(utilisation float64) float64
	BaselineWatts float64
	TDPPerCore    float64
	MemDraw       float64
	SystemCores   int
	MemoryGB      float64
}

// Resolver resolves (host, model name) pairs against a NodeConfig. Model
// names follow the `<governor>_<modeltype>` convention. Resolution is
// idempotent; resolved models are cached for the lifetime of the resolver.
type Resolver struct {
	config NodeConfig
	cache  map[string]*Model
}

func NewResolver(config NodeConfig) *Resolver {
	return &Resolver{config: config, cache: make(map[string]*Model)}
}

// Resolve returns the power model for the given host and model name. A host
// without an entry falls back to the wildcard entry when one exists;
// otherwise the miss is a configuration error. An unknown model type never
// falls back to a default curve: a wrong curve silently produces a
// plausible-looking but wrong number.
func (r *Resolver) Resolve(host, modelName string) (*Model, error) {
	cacheKey := host + "|" + modelName
	if model, ok := r.cache[cacheKey]; ok {
		return model, nil
	}

	parts := strings.Split(modelName, "_")
	if len(parts) < 2 {
		return nil, fmt.Errorf("invalid power model name %q: expected <governor>_<modeltype>", modelName)
	}
	governor, modelType := parts[0], ModelType(parts[1])

	hostCfg, ok := r.config[host]
	if !ok {
		hostCfg, ok = r.config[Wildcard]
		if !ok {
			return nil, fmt.Errorf("no power-model configuration for host %q", host)
		}
	}

	govCfg, ok := hostCfg.Governors[governor]
	if !ok {
		return nil, fmt.Errorf("host %q has no configuration for governor %q", host, governor)
	}

	model := &Model{
		Type:        modelType,
		MemDraw:     govCfg.MemDraw,
		SystemCores: govCfg.SystemCores,
		MemoryGB:    hostCfg.MemoryGB,
	}

	switch modelType {
	case MinMax:
		if govCfg.MaxWatts <= govCfg.MinWatts {
			return nil, fmt.Errorf("host %q governor %q: minmax model requires max_watts > min_watts", host, governor)
		}
		minW, maxW := govCfg.MinWatts, govCfg.MaxWatts
		model.Curve = func(u float64) float64 { return minW + u*(maxW-minW) }
		model.BaselineWatts = minW

	case Linear:
		if len(govCfg.Linear) != 2 {
			return nil, fmt.Errorf("host %q governor %q: linear model requires [coefficient, intercept]", host, governor)
		}
		if govCfg.SystemCores <= 0 {
			return nil, fmt.Errorf("host %q governor %q: linear model requires system_cores", host, governor)
		}
		coeff, intercept := govCfg.Linear[0], govCfg.Linear[1]
		model.Curve = func(u float64) float64 { return coeff*u + intercept }
		model.BaselineWatts = intercept

	case Baseline:
		if govCfg.TDPPerCore <= 0 {
			return nil, fmt.Errorf("host %q governor %q: baseline model requires tdp_per_core", host, governor)
		}
		model.TDPPerCore = govCfg.TDPPerCore
		model.BaselineWatts = govCfg.TDPPerCore

	case Polynomial:
		if len(govCfg.Polynomial) == 0 {
			return nil, fmt.Errorf("host %q governor %q: polynomial model requires coefficients", host, governor)
		}
		if govCfg.SystemCores <= 0 {
			return nil, fmt.Errorf("host %q governor %q: polynomial model requires system_cores", host, governor)
		}
		coeffs := append([]float64(nil), govCfg.Polynomial...)
		model.Curve = func(u float64) float64 { return evalPolynomial(coeffs, u) }
		model.BaselineWatts = coeffs[len(coeffs)-1]

	default:
		return nil, fmt.Errorf("unknown power model type %q in model name %q", modelType, modelName)
	}

	r.cache[cacheKey] = model
	return model, nil
}

// evalPolynomial evaluates coefficients (highest degree first) at u using
// Horner's method.
func evalPolynomial(coeffs []float64, u float64) float64 {
	var result float64
	for _, c := range coeffs {
		result = result*u + c
	}
	return result
}
