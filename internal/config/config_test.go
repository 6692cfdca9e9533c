package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/surfacepool"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvConfigFile, "")
	t.Setenv(EnvInfluxToken, "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, surfacepool.DefaultMaxSurfaces, cfg.Pool.MaxSurfaces)
	assert.Equal(t, surfacepool.DefaultMaxSurfaceAge, cfg.Pool.MaxSurfaceAge)
	assert.Equal(t, DefaultBackend, cfg.Backend)
	assert.Equal(t, DefaultDisplays, cfg.Displays)
	assert.Equal(t, uint32(DefaultSamples), cfg.Samples)
	assert.Len(t, cfg.Scenario, 3)
	assert.Equal(t, 90, cfg.TotalFrames())
	assert.Empty(t, cfg.Influx.URL)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "surfpool.yaml", `
pool:
  maxSurfaces: 6
  maxSurfaceAge: 2
backend: vulkan
displays: 3
samples: 1
ageEvery: 5
scenario:
  - width: 800
    height: 600
    frames: 12
influx:
  url: http://localhost:8086
  org: gfx
  bucket: surfaces
  tags:
    host: bench
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Pool.MaxSurfaces)
	assert.Equal(t, 2, cfg.Pool.MaxSurfaceAge)
	assert.Equal(t, "vulkan", cfg.Backend)
	assert.Equal(t, 3, cfg.Displays)
	assert.Equal(t, uint32(1), cfg.Samples)
	assert.Equal(t, 5, cfg.AgeEvery)
	assert.Equal(t, DefaultReportEvery, cfg.ReportEvery)
	require.Len(t, cfg.Scenario, 1)
	assert.Equal(t, surfacepool.Size{Width: 800, Height: 600}, cfg.Scenario[0].Size())
	assert.Equal(t, "http://localhost:8086", cfg.Influx.URL)
	assert.Equal(t, "bench", cfg.Influx.Tags["host"])
}

func TestLoadJSON(t *testing.T) {
	path := writeFile(t, "surfpool.json", `{
  "pool": {"maxSurfaces": -1},
  "resourceBudgetBytes": 1024,
  "fenceTimeoutMs": 250
}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, surfacepool.DefaultMaxSurfaces, cfg.Pool.MaxSurfaces, "non-positive values fall back to defaults")
	assert.Equal(t, uint64(1024), cfg.ResourceBudget)
	assert.Equal(t, 250, cfg.FenceTimeoutMS)
	assert.Len(t, cfg.Scenario, 3, "missing scenario uses the default one")
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeFile(t, "env.yml", "displays: 2\n")
	t.Setenv(EnvConfigFile, path)
	t.Setenv(EnvInfluxToken, "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Displays)
	assert.Equal(t, "secret", cfg.Influx.Token)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad yaml", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.yaml", "pool: [1, 2"))
		assert.ErrorContains(t, err, "YAML")
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := Load(writeFile(t, "bad.json", "{"))
		assert.ErrorContains(t, err, "JSON")
	})

	t.Run("invalid phase", func(t *testing.T) {
		_, err := Load(writeFile(t, "phase.yaml", "scenario:\n  - width: 0\n    height: 10\n    frames: 1\n"))
		assert.ErrorIs(t, err, ErrInvalidPhase)
	})
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]format{
		"a.yaml": formatYAML,
		"a.YML":  formatYAML,
		"a.json": formatJSON,
		"a":      formatJSON,
	}
	for path, want := range tests {
		assert.Equal(t, want, detectFormat(path), path)
	}
}
