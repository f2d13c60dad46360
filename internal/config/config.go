// Package config loads the static dashboard configuration: per-metric
// scoring parameters, entity group membership and the default measurement
// variant. Fields omitted from the JSON file keep the engine defaults, so
// partial configs are safe and no config file at all is a valid setup.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/crux-data/vitals.report/internal/vitals"
)

// MetricParams are the tunable constants for one sub-metric. All fields are
// optional; nil means "use the engine default".
type MetricParams struct {
	Weight           *float64 `json:"weight,omitempty"`
	Good             *float64 `json:"good,omitempty"`
	NeedsImprovement *float64 `json:"needs_improvement,omitempty"`
	Median           *float64 `json:"median,omitempty"`
	PODR             *float64 `json:"podr,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	// Metrics maps sub-metric names (fcp, si, lcp, tbt, cls) to overrides.
	Metrics map[string]MetricParams `json:"metrics,omitempty"`

	// Groups partitions entities into named reporting groups, e.g.
	// "owned" vs "competition". Membership is static configuration, not
	// derived data.
	Groups map[string][]string `json:"groups,omitempty"`

	// DefaultVariant is the measurement context used when a caller does
	// not name one, e.g. "phone".
	DefaultVariant *string `json:"default_variant,omitempty"`
}

// Default returns an empty config: all engine defaults, no groups.
func Default() *Config {
	return &Config{}
}

// Load reads and validates a JSON config file. The path must have a .json
// extension and the file must be under 1MB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the effective parameter set: weights (after merging with
// defaults) must sum to 1, and every curve needs median > podr > 0.
func (c *Config) Validate() error {
	for name := range c.Metrics {
		if !vitals.IsSubMetric(vitals.Metric(name)) {
			return fmt.Errorf("unknown metric %q", name)
		}
	}

	var sum float64
	for _, m := range vitals.SubMetrics {
		sum += c.GetWeight(m)
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("metric weights must sum to 1.0, got %v", sum)
	}

	for _, m := range vitals.SubMetrics {
		curve := c.GetCurve(m)
		if curve.PODR <= 0 || curve.Median <= curve.PODR {
			return fmt.Errorf("metric %s: need median > podr > 0, got median=%v podr=%v",
				m, curve.Median, curve.PODR)
		}
		if c.GetGood(m) <= 0 {
			return fmt.Errorf("metric %s: good threshold must be positive", m)
		}
	}

	seen := make(map[string]string)
	for group, members := range c.Groups {
		for _, e := range members {
			if prev, dup := seen[e]; dup {
				return fmt.Errorf("entity %q is in both group %q and group %q", e, prev, group)
			}
			seen[e] = group
		}
	}
	return nil
}

// GetWeight returns metric's composite weight or the engine default.
func (c *Config) GetWeight(m vitals.Metric) float64 {
	if p, ok := c.Metrics[string(m)]; ok && p.Weight != nil {
		return *p.Weight
	}
	return vitals.DefaultWeights[m]
}

// GetCurve returns metric's log-normal curve or the engine default.
func (c *Config) GetCurve(m vitals.Metric) vitals.Curve {
	p, ok := c.Metrics[string(m)]
	if !ok {
		return vitals.DefaultCurves[m]
	}
	curve := vitals.DefaultCurves[m]
	if p.Median != nil {
		curve.Median = *p.Median
	}
	if p.PODR != nil {
		curve.PODR = *p.PODR
	}
	return curve
}

// GetGood returns metric's "good" threshold or the engine default.
func (c *Config) GetGood(m vitals.Metric) float64 {
	if p, ok := c.Metrics[string(m)]; ok && p.Good != nil {
		return *p.Good
	}
	return vitals.DefaultGood[m]
}

// GetNeedsImprovement returns metric's "needs improvement" threshold or the
// engine default.
func (c *Config) GetNeedsImprovement(m vitals.Metric) float64 {
	if p, ok := c.Metrics[string(m)]; ok && p.NeedsImprovement != nil {
		return *p.NeedsImprovement
	}
	return vitals.DefaultNeedsImprovement[m]
}

// GetDefaultVariant returns the configured default variant, or "phone".
func (c *Config) GetDefaultVariant() vitals.Variant {
	if c.DefaultVariant == nil || *c.DefaultVariant == "" {
		return "phone"
	}
	return vitals.Variant(*c.DefaultVariant)
}

// GroupOf returns the reporting group an entity belongs to, or "".
func (c *Config) GroupOf(entity string) string {
	for group, members := range c.Groups {
		for _, e := range members {
			if e == entity {
				return group
			}
		}
	}
	return ""
}

// EntitiesInGroup returns the configured members of a group.
func (c *Config) EntitiesInGroup(group string) []string {
	return c.Groups[group]
}

// Scorer builds the engine scorer from the effective parameter set.
func (c *Config) Scorer() *vitals.Scorer {
	weights := make(map[vitals.Metric]float64)
	curves := make(map[vitals.Metric]vitals.Curve)
	good := make(map[vitals.Metric]float64)
	for _, m := range vitals.SubMetrics {
		weights[m] = c.GetWeight(m)
		curves[m] = c.GetCurve(m)
		good[m] = c.GetGood(m)
	}
	return vitals.NewScorer(weights, curves, good)
}
