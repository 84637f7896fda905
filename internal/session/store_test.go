package session

import (
	"path/filepath"
	"testing"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	s := NewFileTokenStore(path)

	if err := s.Save("tok-123"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "tok-123" {
		t.Errorf("Load = %q, want %q", got, "tok-123")
	}
}

func TestFileTokenStore_MissingFileMeansNoToken(t *testing.T) {
	s := NewFileTokenStore(filepath.Join(t.TempDir(), "absent"))

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "" {
		t.Errorf("Load = %q, want empty", got)
	}
}

func TestFileTokenStore_ClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	s := NewFileTokenStore(path)

	if err := s.Save("tok"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("second Clear: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != "" {
		t.Errorf("Load after Clear = %q, want empty", got)
	}
}

func TestMemoryTokenStore_CountsClears(t *testing.T) {
	s := NewMemoryTokenStore("tok")

	_ = s.Clear()
	_ = s.Clear()
	if got := s.ClearCalls(); got != 2 {
		t.Errorf("ClearCalls = %d, want 2", got)
	}
	tok, _ := s.Load()
	if tok != "" {
		t.Errorf("Load after Clear = %q, want empty", tok)
	}
}
