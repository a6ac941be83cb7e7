package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Engine.validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.Import.validate(); err != nil {
		return fmt.Errorf("import: %w", err)
	}
	return nil
}

func (e *EngineConfig) validate() error {
	if e.RunOnThreshold <= 0 {
		return fmt.Errorf("run_on_threshold must be > 0 (got %d)", e.RunOnThreshold)
	}
	if e.ReviewThreshold <= 0 || e.ReviewThreshold > 100 {
		return fmt.Errorf("review_threshold must be in (0, 100] (got %v)", e.ReviewThreshold)
	}
	if e.LowConfidenceCap < 0 {
		return fmt.Errorf("low_confidence_cap must be >= 0 (got %v)", e.LowConfidenceCap)
	}

	e.HawaiianMarkers = ParseMarkers(e.HawaiianMarkersRaw)
	return nil
}

func (i *ImportConfig) validate() error {
	if i.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", i.Workers)
	}
	if i.Pattern == "" {
		return fmt.Errorf("pattern must not be empty")
	}
	return nil
}

// ParseMarkers parses a comma-separated marker token list
// (e.g. "E,Iā,Ma") into a slice. An empty string returns a nil slice,
// which selects the engine's built-in set.
func ParseMarkers(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	markers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			markers = append(markers, p)
		}
	}
	if len(markers) == 0 {
		return nil
	}
	return markers
}
