package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one run of the controller.
type Session struct {
	ID         string
	Target     string
	Dispatcher string
	StartedAt  time.Time
	EndedAt    time.Time // zero while the session is running
	Frames     int
	Error      string
}

// Running reports whether the session has not been finished.
func (s *Session) Running() bool {
	return s.EndedAt.IsZero()
}

// Duration returns how long the session ran, or zero while it is running.
func (s *Session) Duration() time.Duration {
	if s.Running() {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// SessionRepository provides access to session records.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new running session. An empty ID is filled with a UUID.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.New().String()
	}
	sess.StartedAt = time.Now()
	sess.EndedAt = time.Time{}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, target, dispatcher, started_at) VALUES (?, ?, ?, ?)`,
		sess.ID, sess.Target, sess.Dispatcher, sess.StartedAt,
	)
	return err
}

// Finish marks the session as ended with its frame count and the error that
// ended it, if any.
func (r *SessionRepository) Finish(id string, frames int, runErr error) error {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}

	result, err := r.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ?, error = ? WHERE id = ?`,
		time.Now(), frames, msg, id,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

const sessionColumns = `id, target, dispatcher, started_at, ended_at, frames, error`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	sess := &Session{}
	var endedAt sql.NullTime

	err := row.Scan(&sess.ID, &sess.Target, &sess.Dispatcher, &sess.StartedAt, &endedAt, &sess.Frames, &sess.Error)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		sess.EndedAt = endedAt.Time
	}
	return sess, nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	sess, err := scanSession(r.db.QueryRow(
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first. A limit <= 0 returns all.
func (r *SessionRepository) List(limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.Query(
		`SELECT `+sessionColumns+` FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

// Delete removes a session and its events.
func (r *SessionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
