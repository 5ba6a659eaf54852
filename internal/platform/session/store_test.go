package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession on empty store, got %v", err)
	}

	in := &Session{Access: "a1", Refresh: "r1", User: map[string]any{"first_name": "Ada"}}
	if err := s.Set(ctx, in); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Access != "a1" || got.Refresh != "r1" {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.User["first_name"] != "Ada" {
		t.Errorf("expected user to survive, got %v", got.User)
	}

	if err := s.Set(ctx, &Session{Access: "a2", Refresh: "r2"}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _ = s.Get(ctx)
	if got.Access != "a2" {
		t.Errorf("expected last write to win, got %q", got.Access)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := s.Get(ctx); !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession after clear, got %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Errorf("expected clearing twice to succeed, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := NewFileStore(path)
	exerciseStore(t, s)
}

func TestFileStore_Permissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := NewFileStore(path)
	if err := s.Set(context.Background(), &Session{Refresh: "r"}); err != nil {
		t.Fatalf("set: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected 0600, got %o", perm)
	}
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	os.WriteFile(path, []byte("{not json"), 0o600)
	s := NewFileStore(path)
	if _, err := s.Get(context.Background()); err == nil || errors.Is(err, ErrNoSession) {
		t.Errorf("expected decode error, got %v", err)
	}
}
