package store

import (
	"database/sql"
	"errors"
	"time"
)

// Session is a recorded capture run.
type Session struct {
	ID        string     `json:"id"`
	Topic     string     `json:"topic"`
	Target    int        `json:"target"`
	Cadence   int        `json:"cadence"`
	Collected int        `json:"collected"`
	EndReason string     `json:"end_reason,omitempty"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// SessionRepository provides operations on sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts a new session. StartedAt is set to now when zero.
func (r *SessionRepository) Create(sess *Session) error {
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO sessions (id, topic, target, cadence, collected, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Topic, sess.Target, sess.Cadence, sess.Collected, sess.StartedAt,
	)
	return err
}

// Finish records the final collected count and why the session ended.
func (r *SessionRepository) Finish(id string, collected int, reason string) error {
	res, err := r.db.Exec(
		`UPDATE sessions SET collected = ?, end_reason = ?, ended_at = ? WHERE id = ?`,
		collected, reason, time.Now(), id,
	)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(id string) (*Session, error) {
	row := r.db.QueryRow(
		`SELECT id, topic, target, cadence, collected, end_reason, started_at, ended_at
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// List returns all sessions, most recent first.
func (r *SessionRepository) List() ([]Session, error) {
	rows, err := r.db.Query(
		`SELECT id, topic, target, cadence, collected, end_reason, started_at, ended_at
		 FROM sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var sess Session
	var ended sql.NullTime
	if err := row.Scan(&sess.ID, &sess.Topic, &sess.Target, &sess.Cadence, &sess.Collected,
		&sess.EndReason, &sess.StartedAt, &ended); err != nil {
		return nil, err
	}
	if ended.Valid {
		t := ended.Time
		sess.EndedAt = &t
	}
	return &sess, nil
}
