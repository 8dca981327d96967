package domain

import (
	"strconv"
	"strings"
	"time"
)

// SongID is the stable identifier of a song in the catalog.
type SongID string

// PreviewLength is the conventional cap on how much of a song plays in preview mode.
const PreviewLength = 30 * time.Second

// Song is an immutable catalog record.
type Song struct {
	ID             SongID
	Title          string
	Artist         string
	Album          string
	Duration       time.Duration
	CoverURL       string
	AudioURL       string
	PreviewURL     string // Optional short excerpt
	PrimaryColor   string // Optional hex color, e.g. "#6750A4"
	SecondaryColor string // Optional hex color
	Genre          string
	Year           int
}

// Matches reports whether the title, album or artist contains query, ignoring case.
func (s Song) Matches(query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	return strings.Contains(strings.ToLower(s.Title), query) ||
		strings.Contains(strings.ToLower(s.Album), query) ||
		strings.Contains(strings.ToLower(s.Artist), query)
}

// HasPreview returns true if the song carries a dedicated preview resource.
func (s Song) HasPreview() bool {
	return s.PreviewURL != ""
}

// HasColors returns true if both theme colors are stored on the song.
func (s Song) HasColors() bool {
	return s.PrimaryColor != "" && s.SecondaryColor != ""
}

// FormattedDuration returns the duration as m:ss.
func (s Song) FormattedDuration() string {
	return FormatPosition(s.Duration)
}

// FormatPosition formats a playback position or length as m:ss.
// Minutes are not capped at 59, matching how the player displays long tracks.
func FormatPosition(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	minutes := total / 60
	seconds := total % 60

	if seconds < 10 {
		return strconv.Itoa(minutes) + ":0" + strconv.Itoa(seconds)
	}
	return strconv.Itoa(minutes) + ":" + strconv.Itoa(seconds)
}
