package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DiversityRules constrain the replan optimizer. MaxRepeatPerWeek of zero
// disables the repetition cap.
type DiversityRules struct {
	MaxRepeatPerWeek   int      `json:"maxRepeatPerWeek" yaml:"maxRepeatPerWeek"`
	MinVegetablePerDay int      `json:"minVegetablePerDay" yaml:"minVegetablePerDay"`
	PreferTags         []string `json:"preferTags" yaml:"preferTags"`
}

// DefaultDiversityRules is used when no rules file or remote rules are available.
func DefaultDiversityRules() DiversityRules {
	return DiversityRules{
		MaxRepeatPerWeek:   3,
		MinVegetablePerDay: 1,
		PreferTags:         []string{},
	}
}

// LoadRules reads diversity rules from a YAML (or JSON, which YAML accepts) file.
func LoadRules(path string) (DiversityRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DiversityRules{}, fmt.Errorf("failed to read rules file %s: %w", path, err)
	}

	rules := DefaultDiversityRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return DiversityRules{}, fmt.Errorf("failed to parse rules file %s: %w", path, err)
	}
	if rules.MaxRepeatPerWeek < 0 || rules.MinVegetablePerDay < 0 {
		return DiversityRules{}, fmt.Errorf("invalid rules in %s: negative limits", path)
	}
	return rules, nil
}
