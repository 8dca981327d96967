package infrastructure

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestMediaDurationLookup(t *testing.T) {
	dir := t.TempDir()
	writeSilentWav(t, filepath.Join(dir, "music", "a.wav"), 4*time.Second)

	lookup := MediaDurationLookup(dir)

	got, err := lookup("/music/a.wav")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 4*time.Second {
		t.Errorf("expected 4s, got %v", got)
	}

	if _, err := lookup("/../a.wav"); !errors.Is(err, ErrOutsideMediaDir) {
		t.Errorf("expected ErrOutsideMediaDir, got %v", err)
	}
	if _, err := lookup("/music/missing.wav"); err == nil {
		t.Error("expected error for missing file")
	}
}
