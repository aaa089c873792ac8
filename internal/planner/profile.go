package planner

import (
	"errors"
	"fmt"

	"smartmeal/internal/nutrition"
)

type Sex string

const (
	Male   Sex = "male"
	Female Sex = "female"
)

type Activity string

const (
	Sedentary Activity = "sedentary"
	Light     Activity = "light"
	Moderate  Activity = "moderate"
	Very      Activity = "very"
	Extra     Activity = "extra"
)

type Goal string

const (
	Lose     Goal = "lose"
	Maintain Goal = "maintain"
	Gain     Goal = "gain"
)

// Preference is a dietary preference used to filter the catalog.
type Preference string

const (
	Omnivore    Preference = "omnivore"
	Vegetarian  Preference = "vegetarian"
	Vegan       Preference = "vegan"
	LowCarb     Preference = "low_carb"
	HighProtein Preference = "high_protein"
)

// Profile is the user-supplied input that drives targets and meal filtering.
type Profile struct {
	Age           int        `json:"age"`
	Sex           Sex        `json:"sex"`
	HeightCm      float64    `json:"heightCm"`
	WeightKg      float64    `json:"weightKg"`
	Activity      Activity   `json:"activity"`
	Goal          Goal       `json:"goal"`
	Preference    Preference `json:"preference"`
	BudgetPerWeek float64    `json:"budgetPerWeek"`
}

// ErrInvalidProfile wraps every profile validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Validate checks ranges the target calculator does not guard itself.
func (p Profile) Validate() error {
	switch {
	case p.Age <= 0 || p.Age > 120:
		return fmt.Errorf("%w: age %d out of range", ErrInvalidProfile, p.Age)
	case p.Sex != Male && p.Sex != Female:
		return fmt.Errorf("%w: unknown sex %q", ErrInvalidProfile, p.Sex)
	case p.HeightCm <= 0 || p.WeightKg <= 0:
		return fmt.Errorf("%w: height and weight must be positive", ErrInvalidProfile)
	case p.BudgetPerWeek < 0:
		return fmt.Errorf("%w: negative budget", ErrInvalidProfile)
	}

	switch p.Activity {
	case Sedentary, Light, Moderate, Very, Extra:
	default:
		return fmt.Errorf("%w: unknown activity %q", ErrInvalidProfile, p.Activity)
	}
	switch p.Goal {
	case Lose, Maintain, Gain:
	default:
		return fmt.Errorf("%w: unknown goal %q", ErrInvalidProfile, p.Goal)
	}
	switch p.Preference {
	case Omnivore, Vegetarian, Vegan, LowCarb, HighProtein:
	default:
		return fmt.Errorf("%w: unknown preference %q", ErrInvalidProfile, p.Preference)
	}
	return nil
}

// Targets computes the daily macro targets for the profile.
func (p Profile) Targets() nutrition.MacroTargets {
	return nutrition.ComputeTargets(nutrition.Input{
		Age:        p.Age,
		Sex:        string(p.Sex),
		HeightCm:   p.HeightCm,
		WeightKg:   p.WeightKg,
		Activity:   string(p.Activity),
		Goal:       string(p.Goal),
		Preference: string(p.Preference),
	})
}
