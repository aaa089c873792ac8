package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed meals.json
var defaultMealsJSON []byte

// Catalog is an ordered, read-only list of meals. Order matters: the plan
// builder's round-robin selection follows it.
type Catalog struct {
	meals []Meal
	byID  map[string]int
}

// New builds a catalog from meals. Later duplicates of an id are dropped.
func New(meals []Meal) *Catalog {
	c := &Catalog{byID: make(map[string]int, len(meals))}
	for _, m := range meals {
		if _, dup := c.byID[m.ID]; dup {
			continue
		}
		c.byID[m.ID] = len(c.meals)
		c.meals = append(c.meals, m.Clone())
	}
	return c
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	meals, err := Parse(defaultMealsJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded meal catalog is invalid: %v", err))
	}
	return New(meals)
}

// Meals returns a copy of the catalog's meals in catalog order.
func (c *Catalog) Meals() []Meal {
	out := make([]Meal, len(c.meals))
	for i, m := range c.meals {
		out[i] = m.Clone()
	}
	return out
}

// Len returns the number of meals.
func (c *Catalog) Len() int {
	return len(c.meals)
}

// Get looks a meal up by id.
func (c *Catalog) Get(id string) (Meal, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Meal{}, false
	}
	return c.meals[i].Clone(), true
}

// Merge returns a new catalog with extra meals appended after the existing
// ones. Meals whose id is already present are ignored.
func (c *Catalog) Merge(extra []Meal) *Catalog {
	all := make([]Meal, 0, len(c.meals)+len(extra))
	all = append(all, c.meals...)
	all = append(all, extra...)
	return New(all)
}

// Parse decodes a JSON array of meals and validates them.
func Parse(data []byte) ([]Meal, error) {
	var meals []Meal
	if err := json.Unmarshal(data, &meals); err != nil {
		return nil, fmt.Errorf("failed to decode meals: %w", err)
	}
	if err := validate(meals); err != nil {
		return nil, err
	}
	return meals, nil
}

// Load reads a catalog file. Files ending in .yaml or .yml are parsed as
// YAML, everything else as JSON.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	var meals []Meal
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &meals); err != nil {
			return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
		}
		if err := validate(meals); err != nil {
			return nil, err
		}
	default:
		meals, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", path, err)
		}
	}
	return New(meals), nil
}

// Fetch downloads a JSON meal list from url.
func Fetch(ctx context.Context, client *http.Client, url string) (*Catalog, error) {
	data, err := fetchBody(ctx, client, url)
	if err != nil {
		return nil, err
	}
	meals, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return New(meals), nil
}

func fetchBody(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func validate(meals []Meal) error {
	for i, m := range meals {
		if m.ID == "" {
			return fmt.Errorf("meal %d has no id", i)
		}
		if m.Calories < 0 || m.Protein < 0 || m.Carbs < 0 || m.Fat < 0 {
			return fmt.Errorf("meal %s has negative nutrition values", m.ID)
		}
	}
	return nil
}

// SubstitutionsFor returns the substitutes for the first key of subs that
// occurs in name (case-insensitive), or nil.
func SubstitutionsFor(name string, subs map[string][]string) []string {
	n := strings.ToLower(name)
	for _, key := range sortedKeys(subs) {
		if strings.Contains(n, strings.ToLower(key)) {
			return subs[key]
		}
	}
	return nil
}
