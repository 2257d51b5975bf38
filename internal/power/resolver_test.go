package power

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() NodeConfig {
	return NodeConfig{
		"node1": {
			MemoryGB: 64,
			Governors: map[string]GovernorConfig{
				"conservative": {
					CPUModel:    "AMD EPYC 7702",
					MinWatts:    50,
					MaxWatts:    200,
					TDPPerCore:  3.125,
					Linear:      []float64{1.45, 48.2},
					Polynomial:  []float64{2.0, 3.0, 50.0},
					MemDraw:     0.4,
					SystemCores: 64,
				},
			},
		},
	}
}

func TestResolveMinMax(t *testing.T) {
	r := NewResolver(testConfig())

	model, err := r.Resolve("node1", "conservative_minmax")
	require.NoError(t, err)

	assert.Equal(t, MinMax, model.Type)
	assert.InDelta(t, 50.0, model.Curve(0), 1e-9)
	assert.InDelta(t, 125.0, model.Curve(0.5), 1e-9)
	assert.InDelta(t, 200.0, model.Curve(1), 1e-9)
	assert.InDelta(t, 50.0, model.BaselineWatts, 1e-9)
	assert.InDelta(t, 64.0, model.MemoryGB, 1e-9)
	assert.InDelta(t, 0.4, model.MemDraw, 1e-9)
}

func TestResolveLinear(t *testing.T) {
	r := NewResolver(testConfig())

	model, err := r.Resolve("node1", "conservative_linear")
	require.NoError(t, err)

	assert.Equal(t, Linear, model.Type)
	assert.InDelta(t, 48.2, model.Curve(0), 1e-9)
	assert.InDelta(t, 48.2+1.45*0.5, model.Curve(0.5), 1e-9)
	assert.InDelta(t, 48.2, model.BaselineWatts, 1e-9)
	assert.Equal(t, 64, model.SystemCores)
}

func TestResolveBaseline(t *testing.T) {
	r := NewResolver(testConfig())

	model, err := r.Resolve("node1", "conservative_baseline")
	require.NoError(t, err)

	assert.Equal(t, Baseline, model.Type)
	assert.Nil(t, model.Curve)
	assert.InDelta(t, 3.125, model.TDPPerCore, 1e-9)
	assert.InDelta(t, 3.125, model.BaselineWatts, 1e-9)
}

func TestResolvePolynomial(t *testing.T) {
	r := NewResolver(testConfig())

	model, err := r.Resolve("node1", "conservative_polynomial")
	require.NoError(t, err)

	assert.Equal(t, Polynomial, model.Type)
	// 2u^2 + 3u + 50 at u=0.5
	assert.InDelta(t, 52.0, model.Curve(0.5), 1e-9)
	assert.InDelta(t, 50.0, model.Curve(0), 1e-9)
	assert.InDelta(t, 50.0, model.BaselineWatts, 1e-9)
}

func TestResolveIdempotent(t *testing.T) {
	r := NewResolver(testConfig())

	first, err := r.Resolve("node1", "conservative_minmax")
	require.NoError(t, err)
	second, err := r.Resolve("node1", "conservative_minmax")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.InDelta(t, first.Curve(0.7), second.Curve(0.7), 1e-9)
}

func TestResolveWildcardFallback(t *testing.T) {
	r := NewResolver(FixedMinMax(65, 219, 0.392))

	model, err := r.Resolve("some-unknown-host", "fixed_minmax")
	require.NoError(t, err)

	assert.InDelta(t, 65.0, model.Curve(0), 1e-9)
	assert.InDelta(t, 219.0, model.Curve(1), 1e-9)
	assert.InDelta(t, 0.392, model.MemDraw, 1e-9)
}

func TestResolveErrors(t *testing.T) {
	r := NewResolver(testConfig())

	t.Run("UnknownModelType", func(t *testing.T) {
		_, err := r.Resolve("node1", "conservative_quadratic")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown power model type")
	})

	t.Run("MissingHostNoWildcard", func(t *testing.T) {
		_, err := r.Resolve("node99", "conservative_minmax")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "node99")
	})

	t.Run("MissingGovernor", func(t *testing.T) {
		_, err := r.Resolve("node1", "performance_minmax")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "performance")
	})

	t.Run("MalformedModelName", func(t *testing.T) {
		_, err := r.Resolve("node1", "minmax")
		assert.Error(t, err)
	})

	t.Run("MinMaxRequiresSpread", func(t *testing.T) {
		bad := NodeConfig{"node1": {Governors: map[string]GovernorConfig{
			"conservative": {MinWatts: 100, MaxWatts: 100},
		}}}
		_, err := NewResolver(bad).Resolve("node1", "conservative_minmax")
		assert.Error(t, err)
	})

	t.Run("LinearRequiresCoefficients", func(t *testing.T) {
		bad := NodeConfig{"node1": {Governors: map[string]GovernorConfig{
			"conservative": {Linear: []float64{1.0}, SystemCores: 8},
		}}}
		_, err := NewResolver(bad).Resolve("node1", "conservative_linear")
		assert.Error(t, err)
	})

	t.Run("BaselineRequiresTDP", func(t *testing.T) {
		bad := NodeConfig{"node1": {Governors: map[string]GovernorConfig{
			"conservative": {},
		}}}
		_, err := NewResolver(bad).Resolve("node1", "conservative_baseline")
		assert.Error(t, err)
	})

	t.Run("PolynomialRequiresSystemCores", func(t *testing.T) {
		bad := NodeConfig{"node1": {Governors: map[string]GovernorConfig{
			"conservative": {Polynomial: []float64{1, 2, 3}},
		}}}
		_, err := NewResolver(bad).Resolve("node1", "conservative_polynomial")
		assert.Error(t, err)
	})
}

func TestLoadNodeConfig(t *testing.T) {
	t.Run("ValidFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nodes.json")
		content := `{
			"node1": {
				"memory": 64,
				"governors": {
					"conservative": {"min_watts": 50, "max_watts": 200, "mem_draw": 0.4}
				}
			}
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := LoadNodeConfig(path)
		require.NoError(t, err)

		host, ok := cfg["node1"]
		require.True(t, ok)
		assert.InDelta(t, 64.0, host.MemoryGB, 1e-9)
		assert.InDelta(t, 200.0, host.Governors["conservative"].MaxWatts, 1e-9)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadNodeConfig(filepath.Join(t.TempDir(), "absent.json"))
		assert.Error(t, err)
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nodes.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := LoadNodeConfig(path)
		assert.Error(t, err)
	})
}
