package ports

import (
	"context"
	"time"
)

// MediaEventKind is the kind of lifecycle event a media element reports.
type MediaEventKind int

const (
	MediaEnded          MediaEventKind = iota // Natural end of the track
	MediaTimeUpdate                           // Elapsed time moved
	MediaLoadedMetadata                       // Total duration became known
	MediaError                                // Playback failed
)

// String returns the wire name of the event kind.
func (k MediaEventKind) String() string {
	switch k {
	case MediaEnded:
		return "ended"
	case MediaTimeUpdate:
		return "timeupdate"
	case MediaLoadedMetadata:
		return "loadedmetadata"
	default:
		return "error"
	}
}

// ParseMediaEventKind converts a wire name to a MediaEventKind.
func ParseMediaEventKind(s string) (MediaEventKind, bool) {
	switch s {
	case "ended":
		return MediaEnded, true
	case "timeupdate":
		return MediaTimeUpdate, true
	case "loadedmetadata":
		return MediaLoadedMetadata, true
	case "error":
		return MediaError, true
	default:
		return MediaError, false
	}
}

// MediaEvent is a lifecycle event reported by a media element.
type MediaEvent struct {
	Kind     MediaEventKind
	Time     time.Duration // Set for MediaTimeUpdate
	Duration time.Duration // Set for MediaLoadedMetadata
	Err      error         // Set for MediaError
}

// MediaElement is a native audio playback handle.
// An element is commanded by exactly one binding.
type MediaElement interface {
	// SetSource loads a new audio resource, replacing the current one.
	SetSource(ctx context.Context, url string) error

	// SetVolume sets the output volume in [0, 1].
	SetVolume(ctx context.Context, volume float64) error

	// SetLoop sets the element's native loop flag.
	SetLoop(ctx context.Context, loop bool) error

	// Play starts or resumes playback of the current source.
	Play(ctx context.Context) error

	// Pause pauses playback, keeping the position.
	Pause(ctx context.Context) error

	// Seek moves the playback position.
	Seek(ctx context.Context, position time.Duration) error

	// Events returns the channel lifecycle events are delivered on.
	// The channel is closed when the element is closed.
	Events() <-chan MediaEvent

	// Close releases the element.
	Close() error
}
