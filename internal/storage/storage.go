// Package storage defines the persistence boundary for game state.
// Stores persist whole aggregates: one load and one save per engine
// operation, atomic at the granularity of a full-state write.
package storage

import (
	"context"
	"errors"

	"oddoneout/internal/domain"
)

// ErrNotFound indicates the lobby has no persisted state.
var ErrNotFound = errors.New("game not found")

// Repository loads and saves game state by lobby id.
type Repository interface {
	Load(ctx context.Context, lobbyID string) (domain.GameState, error)
	Save(ctx context.Context, state domain.GameState) error
	Delete(ctx context.Context, lobbyID string) error
	ListIDs(ctx context.Context) ([]string, error)
}
