package tier

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// FileSource loads tier configuration from a YAML file.
//
// File format:
//
//	tiers:
//	  - id: free
//	    models: [assistant-lite]
//	    capacity: 100
//	    refill_amount: 20
//	    refill_interval: 1h
//	  - id: pro
//	    models: [assistant-pro, assistant-vision]
//	    capacity: 1000
//	    refill_amount: 200
//	    refill_interval: 1h
type FileSource struct {
	path string
}

// NewFileSource creates a file-based tier source.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

type tierFile struct {
	Tiers []tierSpec `yaml:"tiers"`
}

type tierSpec struct {
	ID             string   `yaml:"id"`
	Models         []string `yaml:"models"`
	Capacity       int64    `yaml:"capacity"`
	RefillAmount   int64    `yaml:"refill_amount"`
	RefillInterval string   `yaml:"refill_interval"`
}

// LoadTiers reads and parses the configured file.
func (s *FileSource) LoadTiers(ctx context.Context) ([]Tier, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tier file %q: %w", s.path, err)
	}

	var file tierFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tier file %q: %w", s.path, err)
	}
	if len(file.Tiers) == 0 {
		return nil, fmt.Errorf("tier file %q defines no tiers", s.path)
	}

	tiers := make([]Tier, 0, len(file.Tiers))
	for _, spec := range file.Tiers {
		interval, err := time.ParseDuration(spec.RefillInterval)
		if err != nil {
			return nil, fmt.Errorf("tier %q: invalid refill_interval %q: %w",
				spec.ID, spec.RefillInterval, err)
		}
		tiers = append(tiers, Tier{
			ID:             spec.ID,
			Models:         spec.Models,
			Capacity:       spec.Capacity,
			RefillAmount:   spec.RefillAmount,
			RefillInterval: interval,
		})
	}
	return tiers, nil
}
