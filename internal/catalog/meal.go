package catalog

import "slices"

// Ingredient is one line of a meal's recipe. CostPerUnit is nil when the
// catalog does not track a price for it.
type Ingredient struct {
	Name        string   `json:"name" yaml:"name"`
	Unit        string   `json:"unit" yaml:"unit"`
	Qty         float64  `json:"qty" yaml:"qty"`
	CostPerUnit *float64 `json:"costPerUnit,omitempty" yaml:"costPerUnit,omitempty"`
}

// HasCost reports whether the ingredient carries a usable price. A zero
// price counts as untracked.
func (i Ingredient) HasCost() bool {
	return i.CostPerUnit != nil && *i.CostPerUnit != 0
}

// Cost returns qty × costPerUnit, or 0 when the price is untracked.
func (i Ingredient) Cost() float64 {
	if !i.HasCost() {
		return 0
	}
	return i.Qty * *i.CostPerUnit
}

// Meal is a catalog entry. Meals are read-only once loaded; plans hold copies.
type Meal struct {
	ID          string       `json:"id" yaml:"id"`
	Name        string       `json:"name" yaml:"name"`
	Calories    float64      `json:"calories" yaml:"calories"`
	Protein     float64      `json:"protein" yaml:"protein"`
	Carbs       float64      `json:"carbs" yaml:"carbs"`
	Fat         float64      `json:"fat" yaml:"fat"`
	Tags        []string     `json:"tags" yaml:"tags"`
	Ingredients []Ingredient `json:"ingredients" yaml:"ingredients"`
	Image       string       `json:"image,omitempty" yaml:"image,omitempty"`
	SourceURL   string       `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
}

// HasTag reports whether the meal carries tag.
func (m Meal) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

// IsBreakfast reports whether the meal belongs to the breakfast class.
func (m Meal) IsBreakfast() bool {
	return m.HasTag(TagBreakfast)
}

// IsMain reports whether the meal can fill a lunch or dinner slot.
func (m Meal) IsMain() bool {
	return m.HasTag(TagLunch) || m.HasTag(TagDinner)
}

// Clone returns a deep copy so a plan never aliases catalog slices.
func (m Meal) Clone() Meal {
	out := m
	out.Tags = slices.Clone(m.Tags)
	out.Ingredients = make([]Ingredient, len(m.Ingredients))
	for i, ing := range m.Ingredients {
		if ing.CostPerUnit != nil {
			c := *ing.CostPerUnit
			ing.CostPerUnit = &c
		}
		out.Ingredients[i] = ing
	}
	return out
}

// MealCost sums qty × costPerUnit over the ingredients. Ingredients without
// a price contribute 0, so the result under-reports when prices are missing.
func MealCost(m Meal) float64 {
	var total float64
	for _, ing := range m.Ingredients {
		total += ing.Cost()
	}
	return total
}

// Meal tags the engine relies on.
const (
	TagBreakfast   = "breakfast"
	TagLunch       = "lunch"
	TagDinner      = "dinner"
	TagVegetarian  = "vegetarian"
	TagVegan       = "vegan"
	TagLowCarb     = "low_carb"
	TagHighProtein = "high_protein"
	TagBeef        = "beef"
	TagPork        = "pork"
)

// Price is a small helper for building ingredients in code.
func Price(v float64) *float64 {
	return &v
}
