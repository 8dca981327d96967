//go:build (linux && cgo) || windows || darwin

package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

// SpeakerAvailable reports whether this build drives a real audio device.
const SpeakerAvailable = true

var _ ports.MediaElement = (*SpeakerElement)(nil)

// SpeakerElement plays catalog audio on the local sound device.
type SpeakerElement struct {
	mediaDir   string
	sampleRate beep.SampleRate

	mu       sync.Mutex
	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	volume   *effects.Volume
	level    float64
	loop     bool
	gen      int // Bumped on every source change to ignore stale end callbacks
	closed   bool
	events   chan ports.MediaEvent
	stop     chan struct{}
}

// NewSpeakerElement initializes the speaker and returns an element reading
// audio files under mediaDir.
func NewSpeakerElement(mediaDir string) (*SpeakerElement, error) {
	sampleRate := beep.SampleRate(44100)
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	e := &SpeakerElement{
		mediaDir:   mediaDir,
		sampleRate: sampleRate,
		level:      1,
		events:     make(chan ports.MediaEvent, DefaultElementEventBuffer),
		stop:       make(chan struct{}),
	}
	go e.reportPosition()

	return e, nil
}

// SetSource implements ports.MediaElement. The new source starts paused.
func (e *SpeakerElement) SetSource(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.releaseLocked()

	path, err := MediaPath(e.mediaDir, url)
	if err != nil {
		e.emit(ports.MediaEvent{Kind: ports.MediaError, Err: err})
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		e.emit(ports.MediaEvent{Kind: ports.MediaError, Err: err})
		return nil
	}
	streamer, format, err := decodeAudio(f, path)
	if err != nil {
		f.Close()
		e.emit(ports.MediaEvent{Kind: ports.MediaError, Err: err})
		return nil
	}

	e.streamer = streamer
	e.format = format
	e.ctrl = &beep.Ctrl{
		Streamer: beep.Resample(4, format.SampleRate, e.sampleRate, streamer),
		Paused:   true,
	}
	e.volume = &effects.Volume{Streamer: e.ctrl, Base: 2}
	e.applyLevelLocked()
	e.gen++
	e.startLocked()

	e.emit(ports.MediaEvent{
		Kind:     ports.MediaLoadedMetadata,
		Duration: format.SampleRate.D(streamer.Len()),
	})
	return nil
}

// SetVolume implements ports.MediaElement.
func (e *SpeakerElement) SetVolume(_ context.Context, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.level = volume
	if e.volume != nil {
		speaker.Lock()
		e.applyLevelLocked()
		speaker.Unlock()
	}
	return nil
}

// SetLoop implements ports.MediaElement.
func (e *SpeakerElement) SetLoop(_ context.Context, loop bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.loop = loop
	return nil
}

// Play implements ports.MediaElement.
func (e *SpeakerElement) Play(context.Context) error {
	return e.setPaused(false)
}

// Pause implements ports.MediaElement.
func (e *SpeakerElement) Pause(context.Context) error {
	return e.setPaused(true)
}

// Seek implements ports.MediaElement.
func (e *SpeakerElement) Seek(_ context.Context, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	if e.streamer == nil {
		return nil
	}

	speaker.Lock()
	defer speaker.Unlock()

	sample := e.format.SampleRate.N(max(position, 0))
	sample = min(sample, max(e.streamer.Len()-1, 0))
	return e.streamer.Seek(sample)
}

// Events implements ports.MediaElement.
func (e *SpeakerElement) Events() <-chan ports.MediaEvent {
	return e.events
}

// Close implements ports.MediaElement.
func (e *SpeakerElement) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.releaseLocked()
	close(e.stop)
	close(e.events)
	return nil
}

func (e *SpeakerElement) setPaused(paused bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	if e.ctrl == nil {
		return ErrNoSource
	}

	speaker.Lock()
	e.ctrl.Paused = paused
	speaker.Unlock()
	return nil
}

// startLocked queues the current chain on the speaker. Called with e.mu held.
func (e *SpeakerElement) startLocked() {
	gen := e.gen
	speaker.Play(beep.Seq(e.volume, beep.Callback(func() {
		// Runs on the speaker goroutine; handle the end elsewhere.
		go e.ended(gen)
	})))
}

func (e *SpeakerElement) ended(gen int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || gen != e.gen {
		return
	}

	if e.loop {
		speaker.Lock()
		err := e.streamer.Seek(0)
		speaker.Unlock()
		if err == nil {
			e.startLocked()
			return
		}
		slog.Warn("failed to rewind looping track", "error", err)
	}

	e.ctrl.Paused = true
	e.emit(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Time: e.format.SampleRate.D(e.streamer.Len())})
	e.emit(ports.MediaEvent{Kind: ports.MediaEnded})
}

func (e *SpeakerElement) reportPosition() {
	ticker := time.NewTicker(speakerTick)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			if !e.closed && e.ctrl != nil {
				speaker.Lock()
				playing := !e.ctrl.Paused
				position := e.format.SampleRate.D(e.streamer.Position())
				speaker.Unlock()
				if playing {
					e.emit(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Time: position})
				}
			}
			e.mu.Unlock()
		}
	}
}

// applyLevelLocked maps the linear level onto the volume effect: with base 2,
// gain 2^Volume equals the level.
func (e *SpeakerElement) applyLevelLocked() {
	e.volume.Silent = e.level <= 0
	if !e.volume.Silent {
		e.volume.Volume = math.Log2(e.level)
	}
}

// releaseLocked stops and closes the current source. Called with e.mu held.
func (e *SpeakerElement) releaseLocked() {
	if e.streamer == nil {
		return
	}
	speaker.Clear()
	if err := e.streamer.Close(); err != nil {
		slog.Warn("failed to close audio stream", "error", err)
	}
	e.gen++
	e.streamer = nil
	e.ctrl = nil
	e.volume = nil
}

// emit delivers an event without blocking. Called with e.mu held.
func (e *SpeakerElement) emit(event ports.MediaEvent) {
	select {
	case e.events <- event:
	default:
		slog.Warn("media event buffer full, dropping event", "event", event.Kind.String())
	}
}
