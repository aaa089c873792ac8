package planner

import (
	"regexp"

	"smartmeal/internal/catalog"
)

// FilterRule decides which meals suit a preference. A meal is kept when it
// passes the include test (if any include criterion is set) and matches no
// exclusion.
type FilterRule struct {
	IncludeTags []string
	MaxCarbs    float64 // include when carbs ≤ MaxCarbs; 0 disables
	MinProtein  float64 // include when protein ≥ MinProtein; 0 disables

	ExcludeTags []string
	ExcludeName *regexp.Regexp
}

// ExclusionRules is the preference → rule table. Omnivore and unknown
// preferences have no entry and keep the whole catalog. The vegetarian name
// pattern is a heuristic, not an ingredient audit.
var ExclusionRules = map[Preference]FilterRule{
	Vegetarian: {
		ExcludeTags: []string{catalog.TagBeef, catalog.TagPork},
		ExcludeName: regexp.MustCompile(`(?i)shrimp|chicken|beef|salmon`),
	},
	Vegan: {
		IncludeTags: []string{catalog.TagVegan},
	},
	LowCarb: {
		IncludeTags: []string{catalog.TagLowCarb},
		MaxCarbs:    35,
	},
	HighProtein: {
		IncludeTags: []string{catalog.TagHighProtein},
		MinProtein:  30,
	},
}

func (r FilterRule) hasInclude() bool {
	return len(r.IncludeTags) > 0 || r.MaxCarbs > 0 || r.MinProtein > 0
}

// Allows reports whether m passes the rule.
func (r FilterRule) Allows(m catalog.Meal) bool {
	if r.hasInclude() {
		in := false
		for _, t := range r.IncludeTags {
			if m.HasTag(t) {
				in = true
				break
			}
		}
		if !in && r.MaxCarbs > 0 && m.Carbs <= r.MaxCarbs {
			in = true
		}
		if !in && r.MinProtein > 0 && m.Protein >= r.MinProtein {
			in = true
		}
		if !in {
			return false
		}
	}

	for _, t := range r.ExcludeTags {
		if m.HasTag(t) {
			return false
		}
	}
	if r.ExcludeName != nil && r.ExcludeName.MatchString(m.Name) {
		return false
	}
	return true
}

// FilterMeals returns the meals suitable for pref, in catalog order.
func FilterMeals(meals []catalog.Meal, pref Preference) []catalog.Meal {
	rule, ok := ExclusionRules[pref]
	if !ok {
		return meals
	}
	out := make([]catalog.Meal, 0, len(meals))
	for _, m := range meals {
		if rule.Allows(m) {
			out = append(out, m)
		}
	}
	return out
}
