package usecases

import (
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Song is an alias for domain.Song.
type Song = domain.Song

// SongID is an alias for domain.SongID.
type SongID = domain.SongID

// SessionID is an alias for domain.SessionID.
type SessionID = domain.SessionID

// PlayerSnapshot is an alias for domain.PlayerSnapshot.
type PlayerSnapshot = domain.PlayerSnapshot

// Change is an alias for domain.Change.
type Change = domain.Change

// ThemeColors is an alias for domain.ThemeColors.
type ThemeColors = domain.ThemeColors

// PlayerStateRepository is an alias for domain.PlayerStateRepository.
type PlayerStateRepository = domain.PlayerStateRepository
