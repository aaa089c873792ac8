package clipper

import (
	"encoding/json"
	"strings"

	"smartmeal/internal/catalog"

	"github.com/PuerkitoBio/goquery"
)

// pageRecipe is the subset of a schema.org Recipe the clipper uses.
type pageRecipe struct {
	Name         string
	Ingredients  []string
	Servings     int
	Image        string
	Categories   []string
	Diets        []string
	Calories     float64
	Protein      float64
	Carbs        float64
	Fat          float64
	HasNutrition bool
}

// findJSONLDRecipe returns the first Recipe node in the page's JSON-LD
// blocks. Nodes may be top-level objects, arrays or inside an @graph.
func findJSONLDRecipe(doc *goquery.Document) (pageRecipe, bool) {
	var (
		found pageRecipe
		ok    bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		if node := recipeNode(data); node != nil {
			found, ok = toPageRecipe(node), true
			return false
		}
		return true
	})
	return found, ok
}

func recipeNode(v interface{}) map[string]interface{} {
	switch t := v.(type) {
	case []interface{}:
		for _, item := range t {
			if n := recipeNode(item); n != nil {
				return n
			}
		}
	case map[string]interface{}:
		if isRecipeType(t["@type"]) {
			return t
		}
		if g, ok := t["@graph"]; ok {
			return recipeNode(g)
		}
	}
	return nil
}

func isRecipeType(v interface{}) bool {
	for _, s := range stringList(v) {
		if strings.EqualFold(s, "Recipe") {
			return true
		}
	}
	return false
}

// stringList flattens a JSON-LD value that may be a string, a list of
// strings or a comma-separated string.
func stringList(v interface{}) []string {
	switch t := v.(type) {
	case string:
		var out []string
		for _, p := range strings.Split(t, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	case []interface{}:
		var out []string
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return nil
}

func imageURL(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case []interface{}:
		if len(t) > 0 {
			return imageURL(t[0])
		}
	case map[string]interface{}:
		if u, ok := t["url"].(string); ok {
			return u
		}
	}
	return ""
}

func toPageRecipe(n map[string]interface{}) pageRecipe {
	r := pageRecipe{
		Image:      imageURL(n["image"]),
		Categories: stringList(n["recipeCategory"]),
		Diets:      stringList(n["suitableForDiet"]),
		Servings:   1,
	}
	r.Name, _ = n["name"].(string)
	r.Name = strings.TrimSpace(r.Name)

	ingredients := n["recipeIngredient"]
	if ingredients == nil {
		ingredients = n["ingredients"]
	}
	if list, ok := ingredients.([]interface{}); ok {
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				r.Ingredients = append(r.Ingredients, strings.TrimSpace(s))
			}
		}
	}

	switch y := n["recipeYield"].(type) {
	case float64:
		r.Servings = int(y)
	case string:
		r.Servings = int(parseAmount(y))
	case []interface{}:
		if len(y) > 0 {
			if s, ok := y[0].(string); ok {
				r.Servings = int(parseAmount(s))
			} else if f, ok := y[0].(float64); ok {
				r.Servings = int(f)
			}
		}
	}
	if r.Servings < 1 {
		r.Servings = 1
	}

	if nut, ok := n["nutrition"].(map[string]interface{}); ok {
		get := func(key string) float64 {
			switch v := nut[key].(type) {
			case string:
				return parseAmount(v)
			case float64:
				return v
			}
			return 0
		}
		r.Calories = get("calories")
		r.Protein = get("proteinContent")
		r.Carbs = get("carbohydrateContent")
		r.Fat = get("fatContent")
		r.HasNutrition = r.Calories > 0
	}
	return r
}

// toMeal converts a page recipe into a catalog meal. Ingredient quantities
// are divided by the number of servings.
func (r pageRecipe) toMeal() catalog.Meal {
	m := catalog.Meal{
		Name:     r.Name,
		Calories: r.Calories,
		Protein:  r.Protein,
		Carbs:    r.Carbs,
		Fat:      r.Fat,
		Image:    r.Image,
		Tags:     tagsFor(r.Categories, r.Diets),
	}
	for _, line := range r.Ingredients {
		ing := ParseIngredientLine(line)
		ing.Qty /= float64(r.Servings)
		m.Ingredients = append(m.Ingredients, ing)
	}
	return m
}

func tagsFor(categories, diets []string) []string {
	var tags []string
	breakfast := false
	for _, c := range categories {
		c = strings.ToLower(c)
		if strings.Contains(c, "breakfast") || strings.Contains(c, "brunch") {
			breakfast = true
		}
	}
	if breakfast {
		tags = append(tags, catalog.TagBreakfast)
	} else {
		tags = append(tags, catalog.TagLunch, catalog.TagDinner)
	}
	for _, d := range diets {
		switch {
		case strings.Contains(d, "Vegan"):
			tags = append(tags, catalog.TagVegan)
		case strings.Contains(d, "Vegetarian"):
			tags = append(tags, catalog.TagVegetarian)
		}
	}
	return tags
}
