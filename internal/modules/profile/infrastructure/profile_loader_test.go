package infrastructure

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sglre6355/portfolio/internal/modules/profile/domain"
)

func TestLoadProfile_Embedded(t *testing.T) {
	profile, err := LoadProfile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if profile.Name != "Bradwell" {
		t.Errorf("unexpected name %q", profile.Name)
	}
	if profile.Tagline() != "Writer of Sad Music" {
		t.Errorf("unexpected tagline %q", profile.Tagline())
	}
	if profile.ShareURL != "https://linktr.ee/bradwell" {
		t.Errorf("unexpected share URL %q", profile.ShareURL)
	}
}

func TestLoadProfile_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	data := `{"name":"Someone","links":[{"label":"Site","url":"https://example.com"}]}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatalf("failed to write profile: %v", err)
	}

	profile, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.Name != "Someone" || len(profile.Links) != 1 {
		t.Errorf("unexpected profile %+v", profile)
	}
}

func TestLoadProfile_Errors(t *testing.T) {
	if _, err := LoadProfile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected an error for a missing file")
	}
	if _, err := ParseProfile([]byte("{")); err == nil {
		t.Error("expected an error for malformed JSON")
	}
	if _, err := ParseProfile([]byte(`{"name":""}`)); !errors.Is(err, domain.ErrInvalidProfile) {
		t.Errorf("expected ErrInvalidProfile, got %v", err)
	}
}
