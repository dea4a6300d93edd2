package storage

import (
	"context"
	"sort"
	"sync"

	"oddoneout/internal/domain"
)

// MemoryStore is a mutex-guarded in-memory Repository. It backs tests
// and no-database deployments.
type MemoryStore struct {
	mu    sync.RWMutex
	games map[string]domain.GameState
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{games: make(map[string]domain.GameState)}
}

func (s *MemoryStore) Load(_ context.Context, lobbyID string) (domain.GameState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.games[lobbyID]
	if !ok {
		return domain.GameState{}, ErrNotFound
	}
	// Clone on the way out so callers never share containers with the
	// stored copy.
	return state.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, state domain.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[state.LobbyID] = state.Clone()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, lobbyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, lobbyID)
	return nil
}

func (s *MemoryStore) ListIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.games))
	for id := range s.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
