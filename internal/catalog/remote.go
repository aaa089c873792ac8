package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"

	"smartmeal/internal/storage"

	"golang.org/x/sync/errgroup"
)

// Cache keys for remotely sourced reference data.
const (
	keyRemoteMeals   = "smartmeal.meals.remote.v1"
	keyCategories    = "smartmeal.categories.v1"
	keySubstitutions = "smartmeal.substitutions.remote.v1"
	keyUnitAliases   = "smartmeal.unit.aliases.v1"
	keyRules         = "smartmeal.diversity.rules.v1"
	keyPantry        = "smartmeal.pantry.staples.v1"
)

// Sources lists where each piece of reference data lives. Empty URLs keep
// the built-in defaults.
type Sources struct {
	MealsURL         string
	RulesURL         string
	CategoriesURL    string
	SubstitutionsURL string
	UnitAliasesURL   string
	PantryURL        string
}

// Bundle is the reference data the planner, optimizer and grocery list consume.
type Bundle struct {
	Catalog       *Catalog
	Rules         DiversityRules
	Categories    map[string]string
	Substitutions map[string][]string
	UnitAliases   map[string]string
	PantryStaples []string
}

// Remote loads reference data over HTTP and caches each document in a store.
// A cached copy always wins over the network; a failed fetch falls back to
// the default value for that document.
type Remote struct {
	client  *http.Client
	cache   storage.Store
	sources Sources
}

// NewRemote creates a loader. cache may be nil.
func NewRemote(client *http.Client, cache storage.Store, sources Sources) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{client: client, cache: cache, sources: sources}
}

// Load fetches every configured document concurrently.
func (r *Remote) Load(ctx context.Context, base *Catalog) (*Bundle, error) {
	if base == nil {
		base = Default()
	}
	b := &Bundle{Catalog: base}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		meals := loadDocument[[]Meal](gctx, r, keyRemoteMeals, r.sources.MealsURL, nil)
		if len(meals) > 0 {
			if err := validate(meals); err != nil {
				log.Printf("Ignoring remote meals: %v", err)
				return nil
			}
			b.Catalog = base.Merge(meals)
		}
		return nil
	})
	g.Go(func() error {
		b.Rules = loadDocument(gctx, r, keyRules, r.sources.RulesURL, DefaultDiversityRules())
		return nil
	})
	g.Go(func() error {
		b.Categories = loadDocument(gctx, r, keyCategories, r.sources.CategoriesURL, map[string]string{})
		return nil
	})
	g.Go(func() error {
		b.Substitutions = loadDocument(gctx, r, keySubstitutions, r.sources.SubstitutionsURL, map[string][]string{})
		return nil
	})
	g.Go(func() error {
		b.UnitAliases = loadDocument(gctx, r, keyUnitAliases, r.sources.UnitAliasesURL, map[string]string{})
		return nil
	})
	g.Go(func() error {
		b.PantryStaples = loadDocument(gctx, r, keyPantry, r.sources.PantryURL, []string{})
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("reference data load cancelled: %w", err)
	}
	return b, nil
}

func loadDocument[T any](ctx context.Context, r *Remote, key, url string, fallback T) T {
	if r.cache != nil {
		data, err := r.cache.Load(ctx, key)
		if err == nil {
			if v, err := decodeOver(data, fallback); err == nil {
				return v
			}
			log.Printf("Discarding corrupt cache entry %s", key)
		} else if !errors.Is(err, storage.ErrNotFound) {
			log.Printf("Cache lookup for %s failed: %v", key, err)
		}
	}

	if url == "" {
		return fallback
	}

	data, err := fetchBody(ctx, r.client, url)
	if err != nil {
		log.Printf("Using default for %s: %v", key, err)
		return fallback
	}
	v, err := decodeOver(data, fallback)
	if err != nil {
		log.Printf("Using default for %s: invalid JSON: %v", key, err)
		return fallback
	}

	if r.cache != nil {
		if err := r.cache.Save(ctx, key, data); err != nil {
			log.Printf("Warning: failed to cache %s: %v", key, err)
		}
	}
	return v
}

// decodeOver decodes data on top of fallback, so fields a document omits
// keep their default values.
func decodeOver[T any](data []byte, fallback T) (T, error) {
	if !json.Valid(data) {
		return fallback, errors.New("malformed document")
	}
	v := fallback
	if err := json.Unmarshal(data, &v); err != nil {
		return fallback, err
	}
	return v, nil
}

// sortedKeys orders keys longest first so more specific substrings match
// before generic ones.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
