package usecases

import (
	"context"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// SetVolumeInput contains the input for the SetVolume use case.
type SetVolumeInput struct {
	SessionID domain.SessionID
	Volume    float64 // Clamped to [0, 1]
}

// SettingsService handles the per-session playback settings.
type SettingsService struct {
	playback *PlaybackService
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(playback *PlaybackService) *SettingsService {
	return &SettingsService{playback: playback}
}

// ToggleLoop flips looping of the current song.
func (s *SettingsService) ToggleLoop(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return s.playback.apply(ctx, sessionID, "toggle_loop", (*domain.PlayerState).ToggleLoop)
}

// ToggleShuffle flips shuffled advancement through the catalog.
func (s *SettingsService) ToggleShuffle(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return s.playback.apply(ctx, sessionID, "toggle_shuffle", (*domain.PlayerState).ToggleShuffle)
}

// ToggleDarkMode flips the dark mode preference.
func (s *SettingsService) ToggleDarkMode(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return s.playback.apply(ctx, sessionID, "toggle_dark_mode", (*domain.PlayerState).ToggleDarkMode)
}

// SetVolume sets the output volume.
func (s *SettingsService) SetVolume(ctx context.Context, input SetVolumeInput) (*TransitionOutput, error) {
	return s.playback.apply(ctx, input.SessionID, "set_volume", func(state *domain.PlayerState) domain.Change {
		return state.SetVolume(input.Volume)
	})
}
