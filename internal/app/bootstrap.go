package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"smartmeal/internal/catalog"
	"smartmeal/internal/clipper"
	"smartmeal/internal/config"
	"smartmeal/internal/database"
	"smartmeal/internal/ghost"
	"smartmeal/internal/llm"
	"smartmeal/internal/metrics"
	"smartmeal/internal/planner"
	"smartmeal/internal/shopping"
	"smartmeal/internal/storage"
	"smartmeal/internal/tracking"
	"smartmeal/internal/units"

	"github.com/prometheus/client_golang/prometheus"
)

// Bootstrap opens storage, loads reference data and wires every service from
// cfg. The returned function releases everything Bootstrap opened.
func Bootstrap(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*App, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Printf("Warning: shutdown: %v", err)
			}
		}
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	closers = append(closers, db.Close)

	store, closeStore, err := storage.Open(ctx, storage.Options{
		Driver:      cfg.StorageDriver,
		DataDir:     cfg.DataDir,
		SQLite:      db.SQL,
		PostgresDSN: cfg.PostgresDSN,
		S3: storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
			PathStyle: cfg.S3PathStyle,
		},
	})
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("failed to open %s storage: %w", cfg.StorageDriver, err)
	}
	closers = append(closers, closeStore)

	base := catalog.Default()
	if cfg.CatalogPath != "" {
		base, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	httpClient := &http.Client{Timeout: 15 * time.Second}
	bundle, err := catalog.NewRemote(httpClient, store, catalog.Sources{
		MealsURL:         cfg.CatalogURL,
		RulesURL:         cfg.RulesURL,
		CategoriesURL:    cfg.CategoriesURL,
		SubstitutionsURL: cfg.SubstitutionsURL,
		UnitAliasesURL:   cfg.UnitAliasesURL,
		PantryURL:        cfg.PantryURL,
	}).Load(ctx, base)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	mealsRepo := catalog.NewRepository(db.SQL)
	cat := bundle.Catalog
	clipped, err := mealsRepo.List(ctx)
	if err != nil {
		log.Printf("Warning: failed to load clipped meals: %v", err)
	} else if len(clipped) > 0 {
		cat = cat.Merge(clipped)
	}
	log.Printf("Catalog loaded with %d meals", cat.Len())

	rules := bundle.Rules
	if cfg.RulesPath != "" {
		rules, err = catalog.LoadRules(cfg.RulesPath)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	textGen, err := newTextGenerator(ctx, cfg)
	if err != nil {
		log.Printf("Warning: recipe clipping limited to structured pages: %v", err)
	}
	if c, ok := textGen.(llm.Closer); ok {
		closers = append(closers, c.Close)
	}

	var ghostClient ghost.Client
	if cfg.CanPublish() {
		ghostClient = ghost.NewClient(cfg)
	}

	var collector *metrics.Collector
	if reg != nil {
		collector = metrics.NewCollector(reg)
	}

	a := NewApp(Deps{
		Config:        cfg,
		Planner:       planner.NewPlanner(cat, store),
		Tracker:       tracking.NewTracker(store),
		Store:         store,
		Rules:         rules,
		Categorizer:   shopping.NewCategorizer(bundle.Categories),
		Normalizer:    units.NewNormalizer(bundle.UnitAliases),
		Substitutions: bundle.Substitutions,
		PantryStaples: bundle.PantryStaples,
		Groceries:     shopping.NewRepository(db.SQL),
		Metrics:       metrics.NewStore(db.SQL),
		Collector:     collector,
		Clipper:       clipper.NewClipper(httpClient, textGen, mealsRepo),
		Ghost:         ghostClient,
	})
	return a, cleanup, nil
}

// newTextGenerator returns the configured model client, or nil when no key
// is set.
func newTextGenerator(ctx context.Context, cfg *config.Config) (llm.TextGenerator, error) {
	if !cfg.CanClip() {
		return nil, fmt.Errorf("no %s api key set", cfg.LLMProvider)
	}
	if cfg.LLMProvider == "groq" {
		return llm.NewGroqClient(cfg.GroqAPIKey), nil
	}
	model := cfg.GeminiModel
	if model == "" {
		model = llm.DefaultGeminiModel
	}
	gc, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey, model)
	if err != nil {
		return nil, err
	}
	return gc, nil
}
