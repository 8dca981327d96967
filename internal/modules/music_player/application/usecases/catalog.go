package usecases

import (
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// DefaultSearchLimit matches Discord's autocomplete choice limit.
const DefaultSearchLimit = 25

// SearchSongsInput contains the input for the Search use case.
type SearchSongsInput struct {
	Query string
	Limit int // Max songs to return (optional, defaults to 25)
}

// SearchSongsOutput contains the result of the Search use case.
type SearchSongsOutput struct {
	Songs []domain.Song
}

// CatalogService exposes the read-only song catalog.
type CatalogService struct {
	catalog *domain.Catalog
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(catalog *domain.Catalog) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// List returns every song in catalog order.
func (c *CatalogService) List() []domain.Song {
	return c.catalog.Songs()
}

// Get returns a single song.
func (c *CatalogService) Get(id domain.SongID) (domain.Song, error) {
	song, ok := c.catalog.Find(id)
	if !ok {
		return domain.Song{}, ErrSongNotFound
	}
	return song, nil
}

// Search returns songs whose title, album or artist contains the query.
// An empty query matches every song.
func (c *CatalogService) Search(input SearchSongsInput) (*SearchSongsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	songs := c.catalog.Search(input.Query)
	if len(songs) == 0 {
		return nil, ErrNoResults
	}
	if len(songs) > limit {
		songs = songs[:limit]
	}

	return &SearchSongsOutput{Songs: songs}, nil
}
