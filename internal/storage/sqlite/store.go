// Package sqlite persists game state as one JSON document per lobby in
// a SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"oddoneout/internal/domain"
	"oddoneout/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS games (
	lobby_id      TEXT PRIMARY KEY,
	state         BLOB NOT NULL,
	updated_at_ms INTEGER NOT NULL
);
`

// Store is a SQLite-backed storage.Repository.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One writer at a time; the service layer serializes per lobby and
	// SQLite serializes the rest.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database. Nil-safe so callers can defer
// it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Load(ctx context.Context, lobbyID string) (domain.GameState, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM games WHERE lobby_id = ?`, lobbyID).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameState{}, storage.ErrNotFound
	}
	if err != nil {
		return domain.GameState{}, fmt.Errorf("load game %s: %w", lobbyID, err)
	}
	var state domain.GameState
	if err := json.Unmarshal(blob, &state); err != nil {
		return domain.GameState{}, fmt.Errorf("decode game %s: %w", lobbyID, err)
	}
	return state, nil
}

func (s *Store) Save(ctx context.Context, state domain.GameState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", state.LobbyID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO games (lobby_id, state, updated_at_ms) VALUES (?, ?, ?)
		ON CONFLICT (lobby_id) DO UPDATE SET state = excluded.state, updated_at_ms = excluded.updated_at_ms`,
		state.LobbyID, blob, toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("save game %s: %w", state.LobbyID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, lobbyID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM games WHERE lobby_id = ?`, lobbyID); err != nil {
		return fmt.Errorf("delete game %s: %w", lobbyID, err)
	}
	return nil
}

func (s *Store) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT lobby_id FROM games ORDER BY lobby_id`)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan lobby id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}
