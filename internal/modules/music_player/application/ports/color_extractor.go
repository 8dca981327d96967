package ports

import (
	"context"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// ColorExtractor derives theme colors from cover art.
type ColorExtractor interface {
	Extract(ctx context.Context, imageURL string) (domain.ThemeColors, error)
}
