package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Routine is a scheduled prompt run through the assistant without a user
// present. Routines must be self-contained, one that asks for
// clarification is recorded as failed.
type Routine struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Schedule   string     `json:"schedule"`
	Prompt     string     `json:"prompt"`
	Status     string     `json:"status"`
	NextRunAt  *time.Time `json:"next_run_at,omitempty"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	LastStatus string     `json:"last_status,omitempty"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func scanRoutine(scanner interface {
	Scan(dest ...any) error
}) (*Routine, error) {
	r := &Routine{}
	var lastStatus, lastError *string
	err := scanner.Scan(&r.ID, &r.Name, &r.Schedule, &r.Prompt, &r.Status,
		&r.NextRunAt, &r.LastRunAt, &lastStatus, &lastError, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	if lastStatus != nil {
		r.LastStatus = *lastStatus
	}
	if lastError != nil {
		r.LastError = *lastError
	}
	return r, nil
}

func (s *Store) SaveRoutine(r *Routine) error {
	_, err := s.db.Exec(`
		INSERT INTO routines (id, name, schedule, prompt, status, next_run_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			schedule = excluded.schedule,
			prompt = excluded.prompt,
			status = excluded.status,
			next_run_at = excluded.next_run_at`,
		r.ID, r.Name, r.Schedule, r.Prompt, r.Status, r.NextRunAt)
	if err != nil {
		return fmt.Errorf("save routine: %w", err)
	}
	return nil
}

func (s *Store) GetRoutine(id string) (*Routine, error) {
	row := s.db.QueryRow(`
		SELECT id, name, schedule, prompt, status,
		       next_run_at, last_run_at, last_status, last_error, created_at
		FROM routines WHERE id = ?`, id)
	r, err := scanRoutine(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get routine: %w", err)
	}
	return r, nil
}

func (s *Store) ListRoutines() ([]Routine, error) {
	rows, err := s.db.Query(`
		SELECT id, name, schedule, prompt, status,
		       next_run_at, last_run_at, last_status, last_error, created_at
		FROM routines ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	defer rows.Close()

	var routines []Routine
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		routines = append(routines, *r)
	}
	return routines, rows.Err()
}

func (s *Store) GetDueRoutines(now time.Time) ([]Routine, error) {
	rows, err := s.db.Query(`
		SELECT id, name, schedule, prompt, status,
		       next_run_at, last_run_at, last_status, last_error, created_at
		FROM routines
		WHERE status = 'active' AND next_run_at <= ?
		ORDER BY next_run_at`, now)
	if err != nil {
		return nil, fmt.Errorf("get due routines: %w", err)
	}
	defer rows.Close()

	var routines []Routine
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			return nil, fmt.Errorf("scan routine: %w", err)
		}
		routines = append(routines, *r)
	}
	return routines, rows.Err()
}

func (s *Store) UpdateRoutineRun(id string, lastStatus string, lastError string, nextRunAt *time.Time) error {
	_, err := s.db.Exec(`
		UPDATE routines
		SET last_run_at = CURRENT_TIMESTAMP, last_status = ?, last_error = ?, next_run_at = ?
		WHERE id = ?`, lastStatus, lastError, nextRunAt, id)
	return err
}

func (s *Store) UpdateRoutineStatus(id string, status string) error {
	_, err := s.db.Exec(`UPDATE routines SET status = ? WHERE id = ?`, status, id)
	return err
}

func (s *Store) DeleteRoutine(id string) error {
	_, err := s.db.Exec(`DELETE FROM routines WHERE id = ?`, id)
	return err
}
