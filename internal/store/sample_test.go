package store

import (
	"testing"
)

func createSession(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.Sessions().Create(&Session{ID: id, Topic: "faces", Target: 50, Cadence: 5}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
}

func TestSampleRepository_RecordAndList(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1")
	repo := s.Samples()

	samples := []*Sample{
		{SessionID: "s1", FrameIndex: 10, X: 1, Y: 2, Width: 30, Height: 40, SizeBytes: 900, Published: true},
		{SessionID: "s1", FrameIndex: 0, X: 1, Y: 2, Width: 30, Height: 40, SizeBytes: 880, Published: true},
		{SessionID: "s1", FrameIndex: 5, X: 1, Y: 2, Width: 30, Height: 40, SizeBytes: 870, Error: "not connected"},
	}
	for _, smp := range samples {
		if err := repo.Record(smp); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
		if smp.ID == 0 {
			t.Error("Record() should set ID")
		}
	}

	got, err := repo.ListBySession("s1")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListBySession() returned %d samples, want 3", len(got))
	}

	wantFrames := []int{0, 5, 10}
	for i, smp := range got {
		if smp.FrameIndex != wantFrames[i] {
			t.Errorf("sample %d FrameIndex = %d, want %d", i, smp.FrameIndex, wantFrames[i])
		}
	}
	if got[1].Published || got[1].Error != "not connected" {
		t.Errorf("failed sample = %+v", got[1])
	}
}

func TestSampleRepository_ListBySession_Isolated(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "a")
	createSession(t, s, "b")
	repo := s.Samples()

	if err := repo.Record(&Sample{SessionID: "a", Width: 1, Height: 1}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	got, err := repo.ListBySession("b")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ListBySession(b) returned %d samples, want 0", len(got))
	}
}

func TestSampleRepository_CountPublished(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1")
	repo := s.Samples()

	for i := 0; i < 4; i++ {
		smp := &Sample{SessionID: "s1", FrameIndex: i * 5, Width: 1, Height: 1, Published: i%2 == 0}
		if err := repo.Record(smp); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	n, err := repo.CountPublished("s1")
	if err != nil {
		t.Fatalf("CountPublished() error = %v", err)
	}
	if n != 2 {
		t.Errorf("CountPublished() = %d, want 2", n)
	}
}

func TestSampleRepository_CascadeOnSessionDelete(t *testing.T) {
	s := newTestStore(t)
	createSession(t, s, "s1")

	if err := s.Samples().Record(&Sample{SessionID: "s1", Width: 1, Height: 1}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := s.DB().Exec("DELETE FROM sessions WHERE id = ?", "s1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}

	got, err := s.Samples().ListBySession("s1")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("samples should be deleted with their session, got %d", len(got))
	}
}
