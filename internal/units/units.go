// Package units converts recipe quantities to canonical units so the grocery
// list can merge "1 kg" and "500 g" of the same ingredient.
package units

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Normalized is a quantity expressed in a canonical unit. CostFactor converts
// a price per original unit into a price per canonical unit.
type Normalized struct {
	Qty        float64 `json:"qty"`
	Unit       string  `json:"unit"`
	CostFactor float64 `json:"costFactor"`
}

type conversion struct {
	unit  string
	ratio float64
}

var conversions = map[string]conversion{
	"kg":   {unit: "g", ratio: 1000},
	"cup":  {unit: "ml", ratio: 240},
	"tbsp": {unit: "ml", ratio: 15},
	"tsp":  {unit: "ml", ratio: 5},
	"pcs":  {unit: "piece", ratio: 1},
	"quả":  {unit: "piece", ratio: 1},
}

// DefaultAliases maps spelled-out unit names to the short forms above.
var DefaultAliases = map[string]string{
	"kilogram":    "kg",
	"kilograms":   "kg",
	"kgs":         "kg",
	"cups":        "cup",
	"tablespoon":  "tbsp",
	"tablespoons": "tbsp",
	"tbs":         "tbsp",
	"teaspoon":    "tsp",
	"teaspoons":   "tsp",
	"pc":          "pcs",
	"piece":       "pcs",
	"pieces":      "pcs",
	"trái":        "quả",
}

// Normalizer applies an alias table before converting.
type Normalizer struct {
	aliases map[string]string
}

// NewNormalizer builds a normalizer whose aliases extend DefaultAliases.
// Entries in aliases win over the defaults.
func NewNormalizer(aliases map[string]string) *Normalizer {
	merged := make(map[string]string, len(DefaultAliases)+len(aliases))
	for k, v := range DefaultAliases {
		merged[canonical(k)] = canonical(v)
	}
	for k, v := range aliases {
		merged[canonical(k)] = canonical(v)
	}
	return &Normalizer{aliases: merged}
}

var defaultNormalizer = NewNormalizer(nil)

// Normalize converts qty of unit using the default alias table.
func Normalize(qty float64, unit string) Normalized {
	return defaultNormalizer.Normalize(qty, unit)
}

// Normalize converts qty of unit to its canonical unit. Unknown units come
// back unchanged with a cost factor of 1; this never fails.
func (n *Normalizer) Normalize(qty float64, unit string) Normalized {
	key := canonical(unit)
	if alias, ok := n.aliases[key]; ok {
		key = alias
	}
	c, ok := conversions[key]
	if !ok {
		return Normalized{Qty: qty, Unit: unit, CostFactor: 1}
	}
	return Normalized{Qty: qty * c.ratio, Unit: c.unit, CostFactor: 1 / c.ratio}
}

// canonical lower-cases and NFC-composes s so "QUẢ" and a decomposed "quả"
// hit the same table entry.
func canonical(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}
