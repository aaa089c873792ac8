package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// Repository persists user-added meals (clipped recipes) in the meals table.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or replaces a meal.
func (r *Repository) Save(ctx context.Context, m Meal) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal meal to JSON: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO meals (id, data, source_url, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, source_url = excluded.source_url`,
		m.ID, string(data), m.SourceURL, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save meal %s: %w", m.ID, err)
	}
	return nil
}

// Get retrieves a meal by id. It returns nil, nil when the meal is unknown.
func (r *Repository) Get(ctx context.Context, id string) (*Meal, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT data FROM meals WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get meal by ID: %w", err)
	}

	var m Meal
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meal JSON: %w", err)
	}
	return &m, nil
}

// List returns every stored meal in insertion order.
func (r *Repository) List(ctx context.Context) ([]Meal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, data FROM meals ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan meal row: %w", err)
		}
		var m Meal
		if err := json.Unmarshal([]byte(data), &m); err != nil {
			log.Printf("Warning: failed to unmarshal meal JSON for ID %s: %v", id, err)
			continue
		}
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// Delete removes a meal.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM meals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete meal %s: %w", id, err)
	}
	return nil
}
