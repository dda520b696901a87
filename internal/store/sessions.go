package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nlamprou/marvin/internal/session"
)

// SessionRow is the persisted form of a session awaiting its next turn.
type SessionRow struct {
	ID         string    `json:"id"`
	Phase      string    `json:"phase"`
	State      []byte    `json:"-"`
	StartedAt  time.Time `json:"started_at"`
	LastActive time.Time `json:"last_active"`
}

// SaveSession serializes the session state and upserts it.
func (s *Store) SaveSession(st *session.State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, phase, state, started_at, last_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			phase = excluded.phase,
			state = excluded.state,
			last_active = excluded.last_active`,
		st.ID, string(st.Phase), data, st.StartedAt, st.LastActive)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// GetSession loads a persisted session, or nil if none exists.
func (s *Store) GetSession(id string) (*session.State, error) {
	row := s.db.QueryRow(`SELECT state FROM sessions WHERE id = ?`, id)
	var data []byte
	err := row.Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var st session.State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &st, nil
}

// ListSessions returns session metadata without the serialized state.
func (s *Store) ListSessions() ([]SessionRow, error) {
	rows, err := s.db.Query(`
		SELECT id, phase, started_at, last_active
		FROM sessions ORDER BY last_active DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionRow
	for rows.Next() {
		var r SessionRow
		if err := rows.Scan(&r.ID, &r.Phase, &r.StartedAt, &r.LastActive); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, r)
	}
	return sessions, rows.Err()
}

func (s *Store) DeleteSession(id string) error {
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
