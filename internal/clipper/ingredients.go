package clipper

import (
	"regexp"
	"strconv"
	"strings"

	"smartmeal/internal/catalog"
)

var vulgarFractions = map[string]string{
	"½": " 1/2", "⅓": " 1/3", "⅔": " 2/3", "¼": " 1/4", "¾": " 3/4", "⅛": " 1/8",
}

var knownUnits = map[string]bool{
	"g": true, "gram": true, "grams": true, "kg": true, "ml": true, "l": true,
	"cup": true, "cups": true, "tbsp": true, "tsp": true,
	"tablespoon": true, "tablespoons": true, "teaspoon": true, "teaspoons": true,
	"oz": true, "lb": true, "lbs": true, "pcs": true, "piece": true, "pieces": true,
	"clove": true, "cloves": true, "can": true, "cans": true, "slice": true, "slices": true,
	"quả": true, "trái": true,
}

// leadingQty matches "1", "1.5", "1/2", "1 1/2" and "200g" style prefixes.
var leadingQty = regexp.MustCompile(`^(\d+\s+\d+/\d+|\d+/\d+|\d+(?:[.,]\d+)?)\s*`)

var firstNumber = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// ParseIngredientLine splits a free-text ingredient line such as
// "1 1/2 cups rolled oats" into quantity, unit and name. Lines without a
// leading quantity come back with qty 0 and no unit.
func ParseIngredientLine(line string) catalog.Ingredient {
	s := strings.TrimSpace(line)
	for k, v := range vulgarFractions {
		s = strings.ReplaceAll(s, k, v)
	}
	s = strings.TrimSpace(strings.Join(strings.Fields(s), " "))

	m := leadingQty.FindStringSubmatch(s)
	if m == nil {
		return catalog.Ingredient{Name: s}
	}
	qty := parseQty(m[1])
	rest := strings.TrimSpace(s[len(m[0]):])

	unit := "pcs"
	if word, tail, _ := strings.Cut(rest, " "); knownUnits[strings.ToLower(strings.TrimSuffix(word, "."))] {
		unit = strings.ToLower(strings.TrimSuffix(word, "."))
		rest = strings.TrimSpace(tail)
	}
	rest = strings.TrimPrefix(rest, "of ")

	return catalog.Ingredient{Name: rest, Unit: unit, Qty: qty}
}

func parseQty(s string) float64 {
	var total float64
	for _, part := range strings.Fields(s) {
		if num, den, ok := strings.Cut(part, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 == nil && err2 == nil && d != 0 {
				total += n / d
			}
			continue
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(part, ",", "."), 64)
		if err == nil {
			total += v
		}
	}
	return total
}

// parseAmount reads the first number of a nutrition string like "1,250 kcal"
// or "30 g". Thousands separators are dropped.
func parseAmount(s string) float64 {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0
	}
	if strings.Count(m, ",") > 0 && !strings.Contains(m, ".") && len(m)-strings.LastIndex(m, ",") == 4 {
		m = strings.ReplaceAll(m, ",", "")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", "."), 64)
	if err != nil {
		return 0
	}
	return v
}
