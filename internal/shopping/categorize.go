package shopping

import (
	"strings"

	"smartmeal/internal/catalog"

	"golang.org/x/text/unicode/norm"
)

// Category is a grocery aisle used to group items.
type Category string

const (
	Proteins   Category = "Proteins"
	Carbs      Category = "Carbs"
	Vegetables Category = "Vegetables"
	Condiments Category = "Condiments"
	Snacks     Category = "Snacks"
)

// Categorizer assigns an ingredient name to a category.
type Categorizer interface {
	Classify(name string) Category
}

// KeywordRule maps any name containing Keyword to Category.
type KeywordRule struct {
	Keyword  string
	Category Category
}

// DefaultRules is checked top to bottom and the first hit wins. The few
// compound names at the top would otherwise land in the wrong aisle through
// a shorter keyword further down ("black pepper", "veggie", "beef broth").
var DefaultRules = []KeywordRule{
	{"black pepper", Condiments},
	{"broth", Condiments},
	{"stock", Condiments},
	{"nước dùng", Condiments},
	{"eggplant", Vegetables},
	{"veggie", Vegetables},
	{"peanut", Snacks},

	// Proteins
	{"gà", Proteins}, {"bò", Proteins}, {"heo", Proteins}, {"trứng", Proteins},
	{"tôm", Proteins}, {"cá", Proteins}, {"thịt", Proteins}, {"cua", Proteins},
	{"lạp xưởng", Proteins}, {"đậu hũ", Proteins}, {"đậu phụ", Proteins},
	{"chicken", Proteins}, {"beef", Proteins}, {"pork", Proteins}, {"egg", Proteins},
	{"shrimp", Proteins}, {"salmon", Proteins}, {"fish", Proteins}, {"tofu", Proteins},
	{"tuna", Proteins}, {"turkey", Proteins}, {"lentil", Proteins}, {"chickpea", Proteins},

	// Carbs
	{"gạo", Carbs}, {"cơm", Carbs}, {"bánh mì", Carbs}, {"bún", Carbs}, {"miến", Carbs},
	{"mì", Carbs}, {"bánh phở", Carbs}, {"bánh đa", Carbs}, {"khoai", Carbs},
	{"bánh tráng", Carbs}, {"bánh canh", Carbs}, {"spaghetti", Carbs}, {"pasta", Carbs},
	{"couscous", Carbs}, {"rice", Carbs}, {"bread", Carbs}, {"oat", Carbs},
	{"quinoa", Carbs}, {"noodle", Carbs}, {"potato", Carbs}, {"granola", Carbs},
	{"tortilla", Carbs},

	// Vegetables
	{"rau", Vegetables}, {"dưa", Vegetables}, {"cà chua", Vegetables}, {"hành", Vegetables},
	{"tỏi", Vegetables}, {"giá", Vegetables}, {"bí", Vegetables}, {"cải", Vegetables},
	{"đậu hà lan", Vegetables}, {"thơm", Vegetables}, {"dứa", Vegetables},
	{"cà rốt", Vegetables}, {"hẹ", Vegetables}, {"xà lách", Vegetables},
	{"bắp cải", Vegetables}, {"spinach", Vegetables}, {"tomato", Vegetables},
	{"broccoli", Vegetables}, {"pepper", Vegetables}, {"greens", Vegetables},
	{"cucumber", Vegetables}, {"carrot", Vegetables}, {"celery", Vegetables},
	{"onion", Vegetables}, {"green beans", Vegetables}, {"garlic", Vegetables},
	{"avocado", Vegetables}, {"lettuce", Vegetables}, {"cabbage", Vegetables},
	{"zucchini", Vegetables}, {"mushroom", Vegetables}, {"kale", Vegetables},

	// Condiments
	{"nước mắm", Condiments}, {"nước tương", Condiments}, {"muối", Condiments},
	{"tiêu", Condiments}, {"đường", Condiments}, {"mắm", Condiments},
	{"xì dầu", Condiments}, {"dầu", Condiments}, {"giấm", Condiments},
	{"tương ớt", Condiments}, {"mayonnaise", Condiments}, {"oil", Condiments},
	{"sauce", Condiments}, {"honey", Condiments}, {"salt", Condiments},
	{"vinegar", Condiments}, {"sugar", Condiments},
}

// TableCategorizer classifies by exact-name overrides first, then by the
// keyword table. Anything unmatched, fruit and dairy included, is a Snack.
type TableCategorizer struct {
	overrides map[string]Category
	rules     []KeywordRule
}

// NewCategorizer builds a categorizer over DefaultRules. overrides maps a
// lower-cased ingredient name to a category name; entries naming an unknown
// category are ignored.
func NewCategorizer(overrides map[string]string) *TableCategorizer {
	c := &TableCategorizer{
		overrides: make(map[string]Category, len(overrides)),
		rules:     make([]KeywordRule, len(DefaultRules)),
	}
	for i, r := range DefaultRules {
		c.rules[i] = KeywordRule{Keyword: normalizeName(r.Keyword), Category: r.Category}
	}
	for name, cat := range overrides {
		if known, ok := parseCategory(cat); ok {
			c.overrides[normalizeName(name)] = known
		}
	}
	return c
}

// DefaultCategorizer has no overrides.
var DefaultCategorizer = NewCategorizer(nil)

// Classify returns the category for an ingredient name.
func (c *TableCategorizer) Classify(name string) Category {
	n := normalizeName(name)
	if cat, ok := c.overrides[n]; ok {
		return cat
	}
	for _, r := range c.rules {
		if strings.Contains(n, r.Keyword) {
			return r.Category
		}
	}
	return Snacks
}

func parseCategory(s string) (Category, bool) {
	for _, c := range []Category{Proteins, Carbs, Vegetables, Condiments, Snacks} {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return "", false
}

func normalizeName(s string) string {
	return norm.NFC.String(strings.ToLower(strings.TrimSpace(s)))
}

// Group is a category with its items in list order.
type Group struct {
	Category Category `json:"category"`
	Items    []Item   `json:"items"`
}

// GroupItems buckets items by category. Groups appear in the order their
// first item does.
func GroupItems(items []Item, c Categorizer) []Group {
	var groups []Group
	index := make(map[Category]int)
	for _, it := range items {
		cat := c.Classify(it.Name)
		i, ok := index[cat]
		if !ok {
			i = len(groups)
			index[cat] = i
			groups = append(groups, Group{Category: cat})
		}
		groups[i].Items = append(groups[i].Items, it)
	}
	return groups
}

// HasVegetable reports whether any ingredient of m is a vegetable.
func HasVegetable(m catalog.Meal, c Categorizer) bool {
	for _, ing := range m.Ingredients {
		if c.Classify(ing.Name) == Vegetables {
			return true
		}
	}
	return false
}
