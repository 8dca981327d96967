//go:build !((linux && cgo) || windows || darwin)

package infrastructure

import "context"

// SpeakerAvailable reports whether this build drives a real audio device.
// Audio output needs cgo for the native sound libraries.
const SpeakerAvailable = false

// SpeakerElement keeps playback state on a simulated clock when no audio
// device is available. Durations are still measured from the files.
type SpeakerElement struct {
	*MemoryElement
	cancel context.CancelFunc
}

// NewSpeakerElement returns a silent element reading audio files under mediaDir.
func NewSpeakerElement(mediaDir string) (*SpeakerElement, error) {
	ctx, cancel := context.WithCancel(context.Background())

	e := &SpeakerElement{
		MemoryElement: NewMemoryElement(MediaDurationLookup(mediaDir)),
		cancel:        cancel,
	}
	go e.Run(ctx, speakerTick)

	return e, nil
}

// Close implements ports.MediaElement.
func (e *SpeakerElement) Close() error {
	e.cancel()
	return e.MemoryElement.Close()
}
