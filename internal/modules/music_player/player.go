package music_player

import (
	"context"
	"log/slog"
	"os"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
	"github.com/sglre6355/portfolio/internal/modules/music_player/infrastructure"
)

// Player bundles the catalog and the services every surface drives.
type Player struct {
	Catalog  *domain.Catalog
	Bus      *infrastructure.ChannelEventBus
	States   *infrastructure.MemoryRepository
	Songs    *usecases.CatalogService
	Playback *usecases.PlaybackService
	Queue    *usecases.QueueService
	Settings *usecases.SettingsService
	Sessions *usecases.SessionService
}

// NewPlayer loads the catalog and builds the services around it.
func NewPlayer(ctx context.Context, cfg *Config) (*Player, error) {
	catalog, err := infrastructure.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if cfg.ProbeCatalog {
		catalog = probeCatalog(ctx, catalog, cfg.MediaDir)
	}

	var colors ports.ColorExtractor
	if cfg.ColorExtraction == ColorExtractionPixel {
		colors = infrastructure.NewCoverColorExtractor(cfg.MediaDir)
	}

	bus := infrastructure.NewChannelEventBus(cfg.EventBufferSize)
	states := infrastructure.NewMemoryRepository()
	playback := usecases.NewPlaybackService(
		states,
		catalog,
		bus,
		colors,
		nil,
	)

	slog.Info(
		"catalog loaded",
		"songs", catalog.Len(),
		"path", cfg.CatalogPath,
		"color_extraction", cfg.ColorExtraction,
	)

	return &Player{
		Catalog:  catalog,
		Bus:      bus,
		States:   states,
		Songs:    usecases.NewCatalogService(catalog),
		Playback: playback,
		Queue:    usecases.NewQueueService(playback),
		Settings: usecases.NewSettingsService(playback),
		Sessions: usecases.NewSessionService(playback, application.NewMediaBinding(playback)),
	}, nil
}

// Close stops event delivery.
func (p *Player) Close() {
	slog.Info("closing player", "open_sessions", p.States.Count())
	p.Bus.Close()
}

// probeCatalog fills in missing durations from the audio files. Problems are
// logged; the declared catalog is kept whenever probing cannot help.
func probeCatalog(ctx context.Context, catalog *domain.Catalog, mediaDir string) *domain.Catalog {
	if info, err := os.Stat(mediaDir); err != nil || !info.IsDir() {
		slog.Debug("skipping catalog probe, media directory not found", "dir", mediaDir)
		return catalog
	}

	results, err := infrastructure.NewCatalogProber(mediaDir).Probe(ctx, catalog)
	if err != nil {
		slog.Warn("catalog probe interrupted", "error", err)
		return catalog
	}

	for _, r := range results {
		switch {
		case r.Err != nil:
			slog.Warn("failed to probe song audio", "song", r.SongID, "path", r.Path, "error", r.Err)
		case r.Mismatch():
			slog.Warn(
				"catalog duration disagrees with audio file",
				"song", r.SongID,
				"declared", r.Declared,
				"measured", r.Measured,
			)
		}
	}

	probed, err := infrastructure.ApplyMeasuredDurations(catalog, results)
	if err != nil {
		slog.Warn("failed to apply measured durations", "error", err)
		return catalog
	}
	return probed
}
