package infrastructure

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

//go:embed songs.json
var embeddedCatalog []byte

type catalogFile struct {
	Songs []songRecord `json:"songs"`
}

type songRecord struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Artist         string  `json:"artist"`
	Album          string  `json:"album"`
	Duration       float64 `json:"duration"` // Seconds
	CoverURL       string  `json:"coverUrl"`
	AudioURL       string  `json:"audioUrl"`
	SnippetURL     string  `json:"snippetUrl,omitempty"`
	PrimaryColor   string  `json:"primaryColor,omitempty"`
	SecondaryColor string  `json:"secondaryColor,omitempty"`
	Genre          string  `json:"genre,omitempty"`
	Year           int     `json:"year,omitempty"`
}

func (r songRecord) toSong() domain.Song {
	return domain.Song{
		ID:             domain.SongID(r.ID),
		Title:          r.Title,
		Artist:         r.Artist,
		Album:          r.Album,
		Duration:       time.Duration(math.Round(r.Duration * float64(time.Second))),
		CoverURL:       r.CoverURL,
		AudioURL:       r.AudioURL,
		PreviewURL:     r.SnippetURL,
		PrimaryColor:   r.PrimaryColor,
		SecondaryColor: r.SecondaryColor,
		Genre:          r.Genre,
		Year:           r.Year,
	}
}

// LoadCatalog reads the catalog from path, or the bundled catalog if path is empty.
func LoadCatalog(path string) (*domain.Catalog, error) {
	if path == "" {
		return ParseCatalog(embeddedCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a JSON catalog document.
func ParseCatalog(data []byte) (*domain.Catalog, error) {
	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	songs := make([]domain.Song, len(file.Songs))
	for i, record := range file.Songs {
		songs[i] = record.toSong()
	}

	return domain.NewCatalog(songs)
}
