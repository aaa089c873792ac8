package telegram

import (
	"context"
	"fmt"
	"time"

	"smartmeal/internal/storage"
)

// SessionKey prefixes per-user conversation state.
const SessionKey = "smartmeal.telegram.session.v1"

// Session kinds.
const (
	SessionAwaitBudget = "await_budget"
	SessionNone        = ""
)

// sessionTTL is how long the bot waits for a follow-up answer.
const sessionTTL = 10 * time.Minute

// Session represents an active conversation step, e.g. awaiting a budget.
type Session struct {
	UserID    string    `json:"user_id"`
	Kind      string    `json:"kind"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionRepository keeps at most one session per user in a storage.Store.
type SessionRepository struct {
	store storage.Store
}

// NewSessionRepository creates a new SessionRepository instance
func NewSessionRepository(store storage.Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Start replaces the user's session with a new one that expires after ttl.
func (sr *SessionRepository) Start(ctx context.Context, userID, kind string, ttl time.Duration) error {
	now := time.Now()
	s := Session{UserID: userID, Kind: kind, ExpiresAt: now.Add(ttl), CreatedAt: now}
	if err := storage.SaveJSON(ctx, sr.store, storage.Key(SessionKey, userID), s); err != nil {
		return fmt.Errorf("failed to save session for user %s: %w", userID, err)
	}
	return nil
}

// GetActive returns the user's session if it has not expired at now.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	s, err := storage.LoadJSON[Session](ctx, sr.store, storage.Key(SessionKey, userID))
	if err != nil {
		return nil, err
	}
	if s == nil || s.Kind == SessionNone || !now.Before(s.ExpiresAt) {
		return nil, nil
	}
	return s, nil
}

// Delete ends the user's session. The store has no delete, so an empty
// session is written in its place.
func (sr *SessionRepository) Delete(ctx context.Context, userID string) error {
	return storage.SaveJSON(ctx, sr.store, storage.Key(SessionKey, userID), Session{UserID: userID})
}
