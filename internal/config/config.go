// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment"`
	Memory      MemoryConfig     `yaml:"memory"`
	Snapshot    SnapshotConfig   `yaml:"snapshot"`
	Simulation  SimulationConfig `yaml:"simulation"`
}

// MemoryConfig is the construction-time surface of the memory manager.
// All fields are immutable once the manager is built.
type MemoryConfig struct {
	// TotalBudgetMB of 0 means "auto": size from system memory.
	TotalBudgetMB     float64 `yaml:"total_budget_mb"`
	TextureBudgetMB   float64 `yaml:"texture_budget_mb"`
	MeshBudgetMB      float64 `yaml:"mesh_budget_mb"`
	AudioBudgetMB     float64 `yaml:"audio_budget_mb"`
	WorldDataBudgetMB float64 `yaml:"world_data_budget_mb"`

	EnableGarbageCollection bool    `yaml:"enable_garbage_collection"`
	GCThresholdPercentage   float64 `yaml:"gc_threshold_percentage"`
	EnableMemoryPools       bool    `yaml:"enable_memory_pools"`
	EnableCompression       bool    `yaml:"enable_compression"`

	WarningThreshold  float64 `yaml:"memory_warning_threshold"`
	CriticalThreshold float64 `yaml:"memory_critical_threshold"`

	// HardCap enforces the total budget with a semaphore on the
	// scratch-block path in addition to the ledger bookkeeping.
	HardCap bool `yaml:"hard_cap"`

	// Codec selects how compression savings are measured: "fixed",
	// "zstd", "s2" or "lz4". "fixed" applies the simulated 40% saving.
	Codec string `yaml:"codec"`
}

type SnapshotConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Path     string   `yaml:"path"`
	Interval Duration `yaml:"interval"`
}

type SimulationConfig struct {
	TickInterval Duration `yaml:"tick_interval"`
	Workers      int      `yaml:"workers"`
	Duration     Duration `yaml:"duration"`
}

// Duration unmarshals yaml strings like "5s" or "16ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("error parsing duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{
		TotalBudgetMB:           2048.0, // 2GB default
		TextureBudgetMB:         512.0,
		MeshBudgetMB:            256.0,
		AudioBudgetMB:           128.0,
		WorldDataBudgetMB:       1024.0,
		EnableGarbageCollection: true,
		GCThresholdPercentage:   80.0,
		EnableMemoryPools:       true,
		EnableCompression:       true,
		WarningThreshold:        85.0,
		CriticalThreshold:       95.0,
		Codec:                   "fixed",
	}
}

// Resolve fills zero-valued fields with defaults and sizes an "auto"
// total budget from system memory.
func (m MemoryConfig) Resolve() MemoryConfig {
	def := DefaultMemoryConfig()
	if m.TotalBudgetMB <= 0 {
		if sys := systemMemoryMB(); sys > 0 {
			// Leave half of physical memory to everything else.
			m.TotalBudgetMB = sys / 2
		} else {
			m.TotalBudgetMB = def.TotalBudgetMB
		}
	}
	if m.TextureBudgetMB <= 0 {
		m.TextureBudgetMB = def.TextureBudgetMB
	}
	if m.MeshBudgetMB <= 0 {
		m.MeshBudgetMB = def.MeshBudgetMB
	}
	if m.AudioBudgetMB <= 0 {
		m.AudioBudgetMB = def.AudioBudgetMB
	}
	if m.WorldDataBudgetMB <= 0 {
		m.WorldDataBudgetMB = def.WorldDataBudgetMB
	}
	if m.GCThresholdPercentage <= 0 {
		m.GCThresholdPercentage = def.GCThresholdPercentage
	}
	if m.WarningThreshold <= 0 {
		m.WarningThreshold = def.WarningThreshold
	}
	if m.CriticalThreshold <= 0 {
		m.CriticalThreshold = def.CriticalThreshold
	}
	if m.Codec == "" {
		m.Codec = def.Codec
	}
	return m
}

func findProjectRoot() (string, error) {
	// Start from the current working directory
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Walk up the directory tree until we find the config directory
	for {
		if _, err := os.Stat(filepath.Join(dir, "config")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (no config directory found)")
		}
		dir = parent
	}
}

func LoadConfig(env string) (*Config, error) {
	projectRoot, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("error finding project root: %v", err)
	}

	// Try loading with .yaml extension first
	configPath := filepath.Join(projectRoot, "config", fmt.Sprintf("%s.yaml", env))

	data, err := os.ReadFile(configPath)
	if err != nil {
		// If .yaml doesn't exist, try .yml
		configPath = filepath.Join(projectRoot, "config", fmt.Sprintf("%s.yml", env))
		data, err = os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %v", err)
		}
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	config.Environment = env
	config.Memory = config.Memory.Resolve()

	return &config, nil
}
