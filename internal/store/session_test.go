package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSessionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{
		ID:      uuid.New().String(),
		Topic:   "faces",
		Target:  50,
		Cadence: 5,
	}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if sess.StartedAt.IsZero() {
		t.Error("Create() should set StartedAt")
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Topic != "faces" || got.Target != 50 || got.Cadence != 5 {
		t.Errorf("GetByID() = %+v", got)
	}
	if got.EndedAt != nil {
		t.Error("new session should not have EndedAt")
	}
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Sessions().GetByID("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_Finish(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	sess := &Session{ID: uuid.New().String(), Topic: "faces", Target: 2, Cadence: 1}
	if err := repo.Create(sess); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := repo.Finish(sess.ID, 2, "completed"); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	got, err := repo.GetByID(sess.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Collected != 2 {
		t.Errorf("Collected = %d, want 2", got.Collected)
	}
	if got.EndReason != "completed" {
		t.Errorf("EndReason = %q, want completed", got.EndReason)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt should be set after Finish")
	}
}

func TestSessionRepository_Finish_NotFound(t *testing.T) {
	s := newTestStore(t)

	if err := s.Sessions().Finish("nope", 0, "quit"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Finish() error = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_List(t *testing.T) {
	s := newTestStore(t)
	repo := s.Sessions()

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"first", "second", "third"} {
		sess := &Session{
			ID:        id,
			Topic:     "faces",
			Target:    50,
			Cadence:   5,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.Create(sess); err != nil {
			t.Fatalf("Create(%s) error = %v", id, err)
		}
	}

	sessions, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(sessions) != 3 {
		t.Fatalf("List() returned %d sessions, want 3", len(sessions))
	}
	if sessions[0].ID != "third" || sessions[2].ID != "first" {
		t.Errorf("List() order = %s,%s,%s, want most recent first",
			sessions[0].ID, sessions[1].ID, sessions[2].ID)
	}
}
