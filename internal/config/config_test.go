package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFillsDefaults(t *testing.T) {
	resolved := MemoryConfig{}.Resolve()

	assert.Greater(t, resolved.TotalBudgetMB, 0.0, "auto budget sized from system memory")
	assert.Equal(t, 512.0, resolved.TextureBudgetMB)
	assert.Equal(t, 256.0, resolved.MeshBudgetMB)
	assert.Equal(t, 128.0, resolved.AudioBudgetMB)
	assert.Equal(t, 1024.0, resolved.WorldDataBudgetMB)
	assert.Equal(t, 80.0, resolved.GCThresholdPercentage)
	assert.Equal(t, 85.0, resolved.WarningThreshold)
	assert.Equal(t, 95.0, resolved.CriticalThreshold)
	assert.Equal(t, "fixed", resolved.Codec)
}

func TestResolveKeepsExplicitValues(t *testing.T) {
	cfg := MemoryConfig{
		TotalBudgetMB:     100,
		TextureBudgetMB:   10,
		WarningThreshold:  70,
		CriticalThreshold: 90,
		Codec:             "s2",
	}
	resolved := cfg.Resolve()

	assert.Equal(t, 100.0, resolved.TotalBudgetMB)
	assert.Equal(t, 10.0, resolved.TextureBudgetMB)
	assert.Equal(t, 70.0, resolved.WarningThreshold)
	assert.Equal(t, 90.0, resolved.CriticalThreshold)
	assert.Equal(t, "s2", resolved.Codec)
}

func TestLoadConfig(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "config"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "config", "test.yaml"), []byte(`
memory:
  total_budget_mb: 256
  texture_budget_mb: 64
  enable_garbage_collection: true
  enable_memory_pools: true
  codec: lz4
snapshot:
  enabled: true
  path: snapshots/memory.json
  interval: 5s
simulation:
  tick_interval: 16ms
  workers: 4
`), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(root))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := LoadConfig("test")
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Environment)
	assert.Equal(t, 256.0, cfg.Memory.TotalBudgetMB)
	assert.Equal(t, 64.0, cfg.Memory.TextureBudgetMB)
	assert.Equal(t, "lz4", cfg.Memory.Codec)
	assert.Equal(t, 1024.0, cfg.Memory.WorldDataBudgetMB, "unset fields resolved to defaults")
	assert.True(t, cfg.Snapshot.Enabled)
	assert.Equal(t, 5*time.Second, cfg.Snapshot.Interval.Std())
	assert.Equal(t, 16*time.Millisecond, cfg.Simulation.TickInterval.Std())
	assert.Equal(t, 4, cfg.Simulation.Workers)

	t.Run("MissingEnv", func(t *testing.T) {
		_, err := LoadConfig("staging")
		assert.Error(t, err)
	})

	t.Run("YmlFallback", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(root, "config", "alt.yml"),
			[]byte("memory:\n  total_budget_mb: 128\n"), 0o644))
		cfg, err := LoadConfig("alt")
		require.NoError(t, err)
		assert.Equal(t, 128.0, cfg.Memory.TotalBudgetMB)
	})
}

func TestSystemMemoryProbe(t *testing.T) {
	assert.GreaterOrEqual(t, systemMemoryMB(), 0.0)
}
