package domain

// PlaybackStatus is the derived state of a playback session.
type PlaybackStatus int

const (
	StatusIdle    PlaybackStatus = iota // No song loaded
	StatusLoaded                        // Song loaded at time 0, not playing
	StatusPlaying                       // Song playing
	StatusPaused                        // Song loaded mid-way, not playing
)

// String returns a human-readable representation of the status.
func (s PlaybackStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

// ParsePlaybackStatus converts a string to a PlaybackStatus.
func ParsePlaybackStatus(s string) PlaybackStatus {
	switch s {
	case "loaded":
		return StatusLoaded
	case "playing":
		return StatusPlaying
	case "paused":
		return StatusPaused
	default:
		return StatusIdle
	}
}
