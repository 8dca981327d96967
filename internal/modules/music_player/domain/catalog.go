package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/lo"
)

// ErrInvalidCatalog is returned when catalog data violates a catalog invariant.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Catalog is the fixed, ordered list of all known songs.
// It is built once at startup and never mutated afterwards.
type Catalog struct {
	songs []Song
}

// NewCatalog validates the songs and returns a catalog preserving their order.
func NewCatalog(songs []Song) (*Catalog, error) {
	for i, song := range songs {
		if err := validateSong(song); err != nil {
			return nil, fmt.Errorf("%w: song %d: %w", ErrInvalidCatalog, i, err)
		}
	}

	duplicates := lo.FindDuplicatesBy(songs, func(s Song) SongID { return s.ID })
	if len(duplicates) > 0 {
		return nil, fmt.Errorf("%w: duplicate song id %q", ErrInvalidCatalog, duplicates[0].ID)
	}

	owned := make([]Song, len(songs))
	copy(owned, songs)

	return &Catalog{songs: owned}, nil
}

func validateSong(s Song) error {
	switch {
	case s.ID == "":
		return errors.New("empty id")
	case strings.TrimSpace(s.Title) == "":
		return fmt.Errorf("song %q has an empty title", s.ID)
	case s.AudioURL == "":
		return fmt.Errorf("song %q has no audio resource", s.ID)
	case s.Duration < 0:
		return fmt.Errorf("song %q has a negative duration", s.ID)
	}

	for _, hex := range []string{s.PrimaryColor, s.SecondaryColor} {
		if hex == "" {
			continue
		}
		if _, err := colorful.Hex(hex); err != nil {
			return fmt.Errorf("song %q has an invalid color %q: %w", s.ID, hex, err)
		}
	}

	return nil
}

// Songs returns a copy of all songs in catalog order.
func (c *Catalog) Songs() []Song {
	result := make([]Song, len(c.songs))
	copy(result, c.songs)
	return result
}

// Len returns the number of songs.
func (c *Catalog) Len() int {
	return len(c.songs)
}

// IsEmpty returns true if the catalog has no songs.
func (c *Catalog) IsEmpty() bool {
	return c.Len() == 0
}

// At returns the song at the given position.
func (c *Catalog) At(index int) (Song, bool) {
	if index < 0 || index >= len(c.songs) {
		return Song{}, false
	}
	return c.songs[index], true
}

// Find returns the song with the given ID.
func (c *Catalog) Find(id SongID) (Song, bool) {
	return lo.Find(c.songs, func(s Song) bool { return s.ID == id })
}

// IndexOf returns the position of the song with the given ID, or -1 if absent.
func (c *Catalog) IndexOf(id SongID) int {
	_, index, ok := lo.FindIndexOf(c.songs, func(s Song) bool { return s.ID == id })
	if !ok {
		return -1
	}
	return index
}

// Search returns the songs whose title, album or artist contains the query,
// ignoring case. An empty query matches every song.
func (c *Catalog) Search(query string) []Song {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.Songs()
	}

	return lo.Filter(c.songs, func(s Song, _ int) bool {
		return s.Matches(query)
	})
}
