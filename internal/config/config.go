// Package config loads the pipeline's analysis configuration: the bounds and version
// constants that participate in cache keys and in the normalizer's bounds checks.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PipelineConfig holds the pipeline-wide constants described in spec.md §4.2/§4.6/§4.7/§4.9.
// AnalysisConfigVersion is the only pipeline-wide "global state" the spec permits, and it
// must participate in every cache key (see internal/cache).
type PipelineConfig struct {
	// AnalysisConfigVersion changes whenever a lowering rule, bound, or anchor-base
	// changes in a way that invalidates previously cached summaries.
	AnalysisConfigVersion int `yaml:"analysis_config_version"`

	// MaxEdges is the hard cap on edges in a single function summary.
	MaxEdges int `yaml:"max_edges"`

	// MaxFanoutPerSource is the hard cap on out-edges from a single summary node.
	MaxFanoutPerSource int `yaml:"max_fanout_per_source"`

	// MaxSteps bounds the interprocedural worklist (§4.9, §7 FixpointOverflow).
	MaxSteps int `yaml:"max_steps"`

	// CacheRoot is the root directory of the content-addressed summary cache (§4.7).
	CacheRoot string `yaml:"cache_root"`

	// HeapAnchorParamBase and HeapAnchorLocalBase are the synthetic StmtId bases used
	// to anchor parameters and locals (§4.5, §9 Open Questions). They must be larger
	// than any real statement index in any function the pipeline will ever see.
	HeapAnchorParamBase int64 `yaml:"heap_anchor_param_base"`
	HeapAnchorLocalBase int64 `yaml:"heap_anchor_local_base"`
}

// DefaultPipelineConfig returns the configuration used when no --config file is given.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		AnalysisConfigVersion: 1,
		MaxEdges:              25000,
		MaxFanoutPerSource:    5000,
		MaxSteps:              1_000_000,
		CacheRoot:             ".jsflow-cache",
		HeapAnchorParamBase:   1_000_000_000,
		HeapAnchorLocalBase:   1_500_000_000,
	}
}

// Load reads a PipelineConfig from a YAML file, falling back to defaults for any field
// the file doesn't set and to pure defaults if the file does not exist.
func Load(path string) (*PipelineConfig, error) {
	cfg := DefaultPipelineConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects a configuration that would make the pipeline's invariants
// unsatisfiable: non-positive bounds, or equal param and local heap anchor
// bases. Anchor ranges that overlap without sharing a base are not detected.
func (c *PipelineConfig) Validate() error {
	if c.MaxEdges <= 0 {
		return fmt.Errorf("max_edges must be positive, got %d", c.MaxEdges)
	}
	if c.MaxFanoutPerSource <= 0 {
		return fmt.Errorf("max_fanout_per_source must be positive, got %d", c.MaxFanoutPerSource)
	}
	if c.MaxSteps <= 0 {
		return fmt.Errorf("max_steps must be positive, got %d", c.MaxSteps)
	}
	if c.HeapAnchorParamBase == c.HeapAnchorLocalBase {
		return fmt.Errorf("heap_anchor_param_base and heap_anchor_local_base must not collide")
	}
	return nil
}

// Save writes the configuration to path in YAML form, creating parent directories.
func (c *PipelineConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
