package web

import (
	"time"

	"github.com/samber/lo"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// SongResponse is the JSON form of a catalog song. Durations are in seconds.
type SongResponse struct {
	ID             string  `json:"id"`
	Title          string  `json:"title"`
	Artist         string  `json:"artist"`
	Album          string  `json:"album"`
	Duration       float64 `json:"duration"`
	CoverURL       string  `json:"coverUrl"`
	AudioURL       string  `json:"audioUrl"`
	SnippetURL     string  `json:"snippetUrl,omitempty"`
	PrimaryColor   string  `json:"primaryColor,omitempty"`
	SecondaryColor string  `json:"secondaryColor,omitempty"`
	Genre          string  `json:"genre,omitempty"`
	Year           int     `json:"year,omitempty"`
}

// PlayerResponse is the JSON form of a player snapshot.
type PlayerResponse struct {
	SessionID         string         `json:"sessionId"`
	Status            string         `json:"status"`
	CurrentSong       *SongResponse  `json:"currentSong"`
	CurrentIndex      int            `json:"currentIndex"`
	Queue             []SongResponse `json:"queue"`
	IsPlaying         bool           `json:"isPlaying"`
	IsPreviewMode     bool           `json:"isPreviewMode"`
	IsLooping         bool           `json:"isLooping"`
	IsShuffling       bool           `json:"isShuffling"`
	DarkMode          bool           `json:"darkMode"`
	Volume            float64        `json:"volume"`
	CurrentTime       float64        `json:"currentTime"`
	Duration          float64        `json:"duration"`
	EffectiveDuration float64        `json:"effectiveDuration"`
	DominantColor     string         `json:"dominantColor"`
	AccentColor       string         `json:"accentColor"`
}

// QueueResponse is the JSON form of a queue page.
type QueueResponse struct {
	CurrentSong   *SongResponse  `json:"currentSong"`
	Songs         []SongResponse `json:"songs"`
	TotalSongs    int            `json:"totalSongs"`
	TotalDuration float64        `json:"totalDuration"`
	Page          int            `json:"page"`
	TotalPages    int            `json:"totalPages"`
}

// StateMessage is pushed to the media socket on every state change.
type StateMessage struct {
	Type   string          `json:"type"` // "state"
	State  *PlayerResponse `json:"state,omitempty"`
	Change string          `json:"change,omitempty"`
}

// ErrorMessage is pushed to the media socket when it cannot be used.
type ErrorMessage struct {
	Type  string `json:"type"` // "error"
	Error string `json:"error"`
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

func newSongResponse(s domain.Song) SongResponse {
	return SongResponse{
		ID:             string(s.ID),
		Title:          s.Title,
		Artist:         s.Artist,
		Album:          s.Album,
		Duration:       seconds(s.Duration),
		CoverURL:       s.CoverURL,
		AudioURL:       s.AudioURL,
		SnippetURL:     s.PreviewURL,
		PrimaryColor:   s.PrimaryColor,
		SecondaryColor: s.SecondaryColor,
		Genre:          s.Genre,
		Year:           s.Year,
	}
}

func newSongResponses(songs []domain.Song) []SongResponse {
	return lo.Map(songs, func(s domain.Song, _ int) SongResponse { return newSongResponse(s) })
}

func newOptionalSongResponse(s *domain.Song) *SongResponse {
	if s == nil {
		return nil
	}
	resp := newSongResponse(*s)
	return &resp
}

func newPlayerResponse(s domain.PlayerSnapshot) *PlayerResponse {
	return &PlayerResponse{
		SessionID:         s.SessionID.String(),
		Status:            s.Status.String(),
		CurrentSong:       newOptionalSongResponse(s.CurrentSong),
		CurrentIndex:      s.CurrentIndex,
		Queue:             newSongResponses(s.Queue),
		IsPlaying:         s.IsPlaying,
		IsPreviewMode:     s.IsPreviewMode,
		IsLooping:         s.IsLooping,
		IsShuffling:       s.IsShuffling,
		DarkMode:          s.DarkMode,
		Volume:            s.Volume,
		CurrentTime:       seconds(s.CurrentTime),
		Duration:          seconds(s.Duration),
		EffectiveDuration: seconds(s.EffectiveDuration),
		DominantColor:     s.Theme.Dominant,
		AccentColor:       s.Theme.Accent,
	}
}

func newQueueResponse(out *usecases.QueueListOutput) QueueResponse {
	return QueueResponse{
		CurrentSong:   newOptionalSongResponse(out.CurrentSong),
		Songs:         newSongResponses(out.Songs),
		TotalSongs:    out.TotalSongs,
		TotalDuration: seconds(out.TotalDuration),
		Page:          out.CurrentPage,
		TotalPages:    out.TotalPages,
	}
}
