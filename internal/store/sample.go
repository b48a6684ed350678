package store

import (
	"database/sql"
	"time"
)

// Sample is one extracted crop and the outcome of handing it to the broker.
// The image bytes themselves are not kept.
type Sample struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	FrameIndex int       `json:"frame_index"`
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	SizeBytes  int       `json:"size_bytes"`
	Published  bool      `json:"published"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// SampleRepository provides operations on journaled samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Record inserts a sample and sets its ID and CreatedAt.
func (r *SampleRepository) Record(smp *Sample) error {
	smp.CreatedAt = time.Now()

	res, err := r.db.Exec(
		`INSERT INTO samples (session_id, frame_index, x, y, width, height, size_bytes, published, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		smp.SessionID, smp.FrameIndex, smp.X, smp.Y, smp.Width, smp.Height,
		smp.SizeBytes, smp.Published, smp.Error, smp.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	smp.ID = id
	return nil
}

// ListBySession retrieves all samples for a session in frame order.
func (r *SampleRepository) ListBySession(sessionID string) ([]Sample, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, frame_index, x, y, width, height, size_bytes, published, error, created_at
		 FROM samples
		 WHERE session_id = ?
		 ORDER BY frame_index, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var s Sample
		if err := rows.Scan(&s.ID, &s.SessionID, &s.FrameIndex, &s.X, &s.Y, &s.Width, &s.Height,
			&s.SizeBytes, &s.Published, &s.Error, &s.CreatedAt); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// CountPublished returns how many samples of a session reached the broker client.
func (r *SampleRepository) CountPublished(sessionID string) (int, error) {
	var n int
	err := r.db.QueryRow(
		`SELECT COUNT(*) FROM samples WHERE session_id = ? AND published = 1`,
		sessionID,
	).Scan(&n)
	return n, err
}
