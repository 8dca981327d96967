package infrastructure

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/sglre6355/portfolio/internal/modules/profile/domain"
)

//go:embed profile.json
var embeddedProfile []byte

type profileFile struct {
	Name     string       `json:"name"`
	Taglines []string     `json:"taglines"`
	Bio      string       `json:"bio"`
	Links    []linkRecord `json:"links"`
	ShareURL string       `json:"shareUrl"`
}

type linkRecord struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// LoadProfile reads the profile from path, or the bundled profile if path is empty.
func LoadProfile(path string) (*domain.Profile, error) {
	if path == "" {
		return ParseProfile(embeddedProfile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a JSON profile document.
func ParseProfile(data []byte) (*domain.Profile, error) {
	var file profileFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}

	return domain.NewProfile(domain.Profile{
		Name:     file.Name,
		Taglines: file.Taglines,
		Bio:      file.Bio,
		Links: lo.Map(file.Links, func(l linkRecord, _ int) domain.Link {
			return domain.Link{Label: l.Label, URL: l.URL}
		}),
		ShareURL: file.ShareURL,
	})
}
