package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Turn is one entry in a session's transcript, either the user's input
// or the assistant's reply.
type Turn struct {
	ID        int64           `json:"id"`
	SessionID string          `json:"session_id"`
	Sender    string          `json:"sender"`
	Content   string          `json:"content"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

func (s *Store) SaveTurn(t *Turn) error {
	result, err := s.db.Exec(`
		INSERT INTO turns (session_id, sender, content, metadata)
		VALUES (?, ?, ?, ?)`,
		t.SessionID, t.Sender, t.Content, t.Metadata)
	if err != nil {
		return fmt.Errorf("save turn: %w", err)
	}
	t.ID, _ = result.LastInsertId()
	return nil
}

// GetTurns returns up to limit transcript entries in chronological order.
func (s *Store) GetTurns(sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, session_id, sender, content, metadata, created_at
		FROM turns
		WHERE session_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("get turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		var metadata *string
		if err := rows.Scan(&t.ID, &t.SessionID, &t.Sender, &t.Content, &metadata, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if metadata != nil {
			t.Metadata = json.RawMessage(*metadata)
		}
		turns = append(turns, t)
	}

	// Reverse to get chronological order
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, rows.Err()
}

func (s *Store) DeleteTurns(sessionID string) error {
	_, err := s.db.Exec(`DELETE FROM turns WHERE session_id = ?`, sessionID)
	if err != nil {
		return fmt.Errorf("delete turns: %w", err)
	}
	return nil
}
