package nutrition

import (
	"math"
	"sort"
	"strings"
)

// Input is the subset of a user profile the target calculation needs.
type Input struct {
	Age        int
	Sex        string
	HeightCm   float64
	WeightKg   float64
	Activity   string
	Goal       string
	Preference string
}

// MacroTargets are daily targets: kcal and grams.
type MacroTargets struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// activityFactors maps activity levels to TDEE multipliers.
var activityFactors = map[string]float64{
	"sedentary": 1.2,
	"light":     1.375,
	"moderate":  1.55,
	"very":      1.725,
	"extra":     1.9,
}

// Split is the fraction of calories allotted to each macro.
type Split struct {
	Protein, Carbs, Fat float64
}

var splits = map[string]Split{
	"low_carb":     {Protein: 0.30, Carbs: 0.25, Fat: 0.45},
	"high_protein": {Protein: 0.35, Carbs: 0.40, Fat: 0.25},
}

var defaultSplit = Split{Protein: 0.30, Carbs: 0.45, Fat: 0.25}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal/day.
func BMR(in Input) float64 {
	s := -161.0
	if in.Sex == "male" {
		s = 5
	}
	return 10*in.WeightKg + 6.25*in.HeightCm - 5*float64(in.Age) + s
}

// ActivityFactor returns the TDEE multiplier; unknown levels count as sedentary.
func ActivityFactor(activity string) float64 {
	if f, ok := activityFactors[activity]; ok {
		return f
	}
	return activityFactors["sedentary"]
}

// AdjustForGoal scales TDEE for the goal and rounds to whole kcal.
func AdjustForGoal(tdee float64, goal string) int {
	switch goal {
	case "lose":
		return round(tdee * 0.8)
	case "gain":
		return round(tdee * 1.15)
	default:
		return round(tdee)
	}
}

// MacroSplit returns the calorie split for a dietary preference.
func MacroSplit(preference string) Split {
	if s, ok := splits[preference]; ok {
		return s
	}
	return defaultSplit
}

// ComputeTargets runs BMR → TDEE → goal adjustment → macro split.
func ComputeTargets(in Input) MacroTargets {
	tdee := BMR(in) * ActivityFactor(in.Activity)
	calories := AdjustForGoal(tdee, in.Goal)
	split := MacroSplit(in.Preference)
	c := float64(calories)
	return MacroTargets{
		Calories: calories,
		Protein:  round(c * split.Protein / 4),
		Carbs:    round(c * split.Carbs / 4),
		Fat:      round(c * split.Fat / 9),
	}
}

// round rounds half up, matching how the targets have always been displayed.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

// proteinPer100g holds grams of protein per 100 g of common protein sources.
var proteinPer100g = map[string]float64{
	"thịt bò":        26,
	"bò bắp":         26,
	"thịt heo":       25,
	"sườn heo":       25,
	"thịt heo xay":   24,
	"thịt ba chỉ":    20,
	"đùi gà":         27,
	"ức gà":          31,
	"trứng":          13,
	"tôm":            24,
	"cá":             22,
	"cá hồi":         25,
	"đậu hũ":         8,
	"đậu phụ":        8,
	"đậu nành":       36,
	"chicken breast": 31,
	"chicken thigh":  26,
	"beef":           26,
	"pork":           25,
	"salmon":         25,
	"shrimp":         24,
	"tuna":           26,
	"egg":            13,
	"tofu":           8,
	"lentils":        9,
	"chickpeas":      9,
	"greek yogurt":   10,
}

var proteinKeys = func() []string {
	keys := make([]string, 0, len(proteinPer100g))
	for k := range proteinPer100g {
		keys = append(keys, k)
	}
	// longest first so "cá hồi" wins over "cá"
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// ProteinPer100g looks up protein density by exact name, then by substring.
func ProteinPer100g(name string) (float64, bool) {
	n := strings.ToLower(strings.TrimSpace(name))
	if v, ok := proteinPer100g[n]; ok {
		return v, true
	}
	for _, k := range proteinKeys {
		if strings.Contains(n, k) {
			return proteinPer100g[k], true
		}
	}
	return 0, false
}
