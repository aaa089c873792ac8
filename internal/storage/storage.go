package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.Load when a key has never been saved.
var ErrNotFound = errors.New("storage: key not found")

// Store persists opaque blobs by key. Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// Per-user document prefixes.
const (
	ProfileKey   = "smartmeal.profile.v1"
	PlanKey      = "smartmeal.plan.v1"
	LogsKey      = "smartmeal.logs.v1"
	LogStackKey  = "smartmeal.logs.stack.v1"
	FavoritesKey = "smartmeal.favorites.v1"
	RatingsKey   = "smartmeal.ratings.v1"
	PantryKey    = "smartmeal.pantry.user.v1"
)

// Key scopes a document prefix to one user.
func Key(prefix, userID string) string {
	return prefix + "/" + userID
}

// LoadJSON decodes the value stored under key. It returns nil, nil when the
// key does not exist.
func LoadJSON[T any](ctx context.Context, s Store, key string) (*T, error) {
	data, err := s.Load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load %s: %w", key, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return &v, nil
}

// SaveJSON encodes v and stores it under key.
func SaveJSON[T any](ctx context.Context, s Store, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := s.Save(ctx, key, data); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
