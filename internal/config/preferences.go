package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultPreferences []byte

// ErrInvalidPreferences is returned when a preferences table is unusable
var ErrInvalidPreferences = errors.New("invalid preferences")

// InstituteClass maps a class name to the name fragments that identify it
type InstituteClass struct {
	Class   string   `yaml:"class"`
	Markers []string `yaml:"markers"`
}

// Preferences holds the fixed tables used by the predictor. A file passed to
// Load replaces each table it sets and keeps the defaults for the rest.
type Preferences struct {
	PriorityBranches   []string            `yaml:"priority_branches"`
	Prestige           [][]string          `yaml:"prestige"`
	Mainstream         map[string][]string `yaml:"mainstream"`
	MainstreamFallback string              `yaml:"mainstream_fallback"`
	InstituteClasses   []InstituteClass    `yaml:"institute_classes"`
	DurationKeywords   []string            `yaml:"duration_keywords"`
}

// Defaults returns the embedded preference tables
func Defaults() (*Preferences, error) {
	var prefs Preferences
	if err := yaml.Unmarshal(defaultPreferences, &prefs); err != nil {
		return nil, fmt.Errorf("parsing embedded preferences: %w", err)
	}
	return &prefs, nil
}

// Load returns the defaults overlaid with the file at path, if any
func Load(path string) (*Preferences, error) {
	prefs, err := Defaults()
	if err != nil {
		return nil, err
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading preferences %s: %w", path, err)
		}
		if err := prefs.Merge(data); err != nil {
			return nil, fmt.Errorf("preferences %s: %w", path, err)
		}
	}

	if err := prefs.Validate(); err != nil {
		return nil, err
	}
	return prefs, nil
}

// Merge overlays the YAML document in data onto p
func (p *Preferences) Merge(data []byte) error {
	var override Preferences
	if err := yaml.Unmarshal(data, &override); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPreferences, err)
	}

	if len(override.PriorityBranches) > 0 {
		p.PriorityBranches = override.PriorityBranches
	}
	if len(override.Prestige) > 0 {
		p.Prestige = override.Prestige
	}
	if len(override.Mainstream) > 0 {
		p.Mainstream = override.Mainstream
	}
	if override.MainstreamFallback != "" {
		p.MainstreamFallback = override.MainstreamFallback
	}
	if len(override.InstituteClasses) > 0 {
		p.InstituteClasses = override.InstituteClasses
	}
	if len(override.DurationKeywords) > 0 {
		p.DurationKeywords = override.DurationKeywords
	}
	return nil
}

// Validate checks the tables for obvious mistakes
func (p *Preferences) Validate() error {
	if len(nonEmpty(p.PriorityBranches)) == 0 {
		return fmt.Errorf("%w: priority_branches is empty", ErrInvalidPreferences)
	}
	if len(nonEmpty(p.DurationKeywords)) != len(p.DurationKeywords) {
		return fmt.Errorf("%w: duration_keywords contains an empty keyword", ErrInvalidPreferences)
	}
	for _, class := range p.InstituteClasses {
		if strings.TrimSpace(class.Class) == "" {
			return fmt.Errorf("%w: institute class without a name", ErrInvalidPreferences)
		}
		if len(nonEmpty(class.Markers)) == 0 {
			return fmt.Errorf("%w: institute class %s has no markers", ErrInvalidPreferences, class.Class)
		}
	}
	if p.MainstreamFallback != "" {
		if _, ok := p.Mainstream[p.MainstreamFallback]; !ok {
			return fmt.Errorf("%w: mainstream_fallback %s has no allow-list", ErrInvalidPreferences, p.MainstreamFallback)
		}
	}
	return nil
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	return out
}
