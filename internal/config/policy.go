package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// PolicyFile holds per-station and per-rack sensor threshold overrides:
//
//	stations:
//	  StationA:
//	    present_below_cm: 12
//	    absent_above_cm: 22
//	    racks:
//	      R3:
//	        present_below_cm: 9
type PolicyFile struct {
	Stations map[string]StationPolicy `yaml:"stations"`
}

type StationPolicy struct {
	Thresholds `yaml:",inline"`
	Racks      map[string]Thresholds `yaml:"racks"`
}

// Thresholds leaves a field nil when it inherits from the level above.
type Thresholds struct {
	PresentBelowCm  *float64 `yaml:"present_below_cm"`
	AbsentAboveCm   *float64 `yaml:"absent_above_cm"`
	DebounceSamples *int     `yaml:"debounce_samples"`
}

func LoadPolicy(path string) (PolicyFile, error) {
	var p PolicyFile
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return p, fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse policy file: %w", err)
	}
	if err := p.Validate(); err != nil {
		return PolicyFile{}, err
	}
	return p, nil
}

func (p PolicyFile) Validate() error {
	for sid, sp := range p.Stations {
		if err := sp.Thresholds.validate(); err != nil {
			return fmt.Errorf("station %s: %w", sid, err)
		}
		for rid, rt := range sp.Racks {
			if err := rt.validate(); err != nil {
				return fmt.Errorf("station %s rack %s: %w", sid, rid, err)
			}
		}
	}
	return nil
}

func (t Thresholds) validate() error {
	if t.PresentBelowCm != nil && *t.PresentBelowCm <= 0 {
		return fmt.Errorf("present_below_cm must be positive")
	}
	if t.AbsentAboveCm != nil && *t.AbsentAboveCm <= 0 {
		return fmt.Errorf("absent_above_cm must be positive")
	}
	if t.PresentBelowCm != nil && t.AbsentAboveCm != nil && *t.PresentBelowCm > *t.AbsentAboveCm {
		return fmt.Errorf("present_below_cm must not exceed absent_above_cm")
	}
	if t.DebounceSamples != nil && *t.DebounceSamples < 1 {
		return fmt.Errorf("debounce_samples must be at least 1")
	}
	return nil
}
