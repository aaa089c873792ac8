package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository handles persistence of posted grocery lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save stores a new shopping list for the user and returns its id.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) (int64, error) {
	itemsJSON, err := json.Marshal(list.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (user_id, items, total_cost, created_at) VALUES (?, ?, ?, ?)`,
		list.UserID, string(itemsJSON), list.TotalCost, list.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read shopping list id: %w", err)
	}
	list.ID = id
	return id, nil
}

// Latest returns the most recently posted list for the user, or nil if the
// user never posted one.
func (r *Repository) Latest(ctx context.Context, userID string) (*ShoppingList, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, items, total_cost, created_at FROM shopping_lists
		 WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID,
	)

	var (
		list  ShoppingList
		items string
	)
	if err := row.Scan(&list.ID, &list.UserID, &items, &list.TotalCost, &list.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get latest shopping list: %w", err)
	}
	if err := json.Unmarshal([]byte(items), &list.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	return &list, nil
}

// DeleteByUser removes every list the user posted.
func (r *Repository) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to delete shopping lists: %w", err)
	}
	return nil
}
