package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

// DefaultElementEventBuffer is the event channel capacity of in-process elements.
const DefaultElementEventBuffer = 32

var (
	// ErrElementClosed is returned for commands sent to a closed element.
	ErrElementClosed = errors.New("media element closed")

	// ErrNoSource is returned when Play is requested before any source was set.
	ErrNoSource = errors.New("media element has no source")
)

// DurationLookup resolves the length of an audio resource.
type DurationLookup func(url string) (time.Duration, error)

var _ ports.MediaElement = (*MemoryElement)(nil)

// MemoryElementState is a point-in-time view of a MemoryElement.
type MemoryElementState struct {
	Source   string
	Duration time.Duration
	Position time.Duration
	Volume   float64
	Loop     bool
	Playing  bool
}

// MemoryElement is an in-process media element driven by a simulated clock.
// Time only moves through Advance or Run, which makes it suitable for tests
// and for headless playback without an audio device.
type MemoryElement struct {
	lookup DurationLookup

	mu       sync.Mutex
	state    MemoryElementState
	playErr  error
	closed   bool
	commands []string
	events   chan ports.MediaEvent
}

// NewMemoryElement creates a new MemoryElement. lookup may be nil, in which
// case no loadedmetadata event is reported and tracks never end on their own.
func NewMemoryElement(lookup DurationLookup) *MemoryElement {
	return &MemoryElement{
		lookup: lookup,
		state:  MemoryElementState{Volume: 1},
		events: make(chan ports.MediaEvent, DefaultElementEventBuffer),
	}
}

// SetSource implements ports.MediaElement.
func (e *MemoryElement) SetSource(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.record("source:" + url)

	e.state.Source = url
	e.state.Position = 0
	e.state.Duration = 0
	e.state.Playing = false

	if e.lookup == nil {
		return nil
	}
	d, err := e.lookup(url)
	if err != nil {
		e.emit(ports.MediaEvent{Kind: ports.MediaError, Err: err})
		return nil
	}
	if d > 0 {
		e.state.Duration = d
		e.emit(ports.MediaEvent{Kind: ports.MediaLoadedMetadata, Duration: d})
	}
	return nil
}

// SetVolume implements ports.MediaElement.
func (e *MemoryElement) SetVolume(_ context.Context, volume float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.record(fmt.Sprintf("volume:%.2f", volume))
	e.state.Volume = volume
	return nil
}

// SetLoop implements ports.MediaElement.
func (e *MemoryElement) SetLoop(_ context.Context, loop bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.record(fmt.Sprintf("loop:%v", loop))
	e.state.Loop = loop
	return nil
}

// Play implements ports.MediaElement.
func (e *MemoryElement) Play(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.record("play")

	if e.playErr != nil {
		return e.playErr
	}
	if e.state.Source == "" {
		return ErrNoSource
	}
	e.state.Playing = true
	return nil
}

// Pause implements ports.MediaElement.
func (e *MemoryElement) Pause(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.record("pause")
	e.state.Playing = false
	return nil
}

// Seek implements ports.MediaElement.
func (e *MemoryElement) Seek(_ context.Context, position time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}
	e.record(fmt.Sprintf("seek:%v", position))

	position = max(position, 0)
	if e.state.Duration > 0 {
		position = min(position, e.state.Duration)
	}
	e.state.Position = position
	return nil
}

// Events implements ports.MediaElement.
func (e *MemoryElement) Events() <-chan ports.MediaEvent {
	return e.events
}

// Close implements ports.MediaElement.
func (e *MemoryElement) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	e.state.Playing = false
	close(e.events)
	return nil
}

// Advance moves the clock forward by d while playing, reporting a time update
// and, at the end of a non-looping track, the natural end.
func (e *MemoryElement) Advance(d time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || !e.state.Playing {
		return
	}

	e.state.Position += d
	if e.state.Duration > 0 && e.state.Position >= e.state.Duration {
		if e.state.Loop {
			e.state.Position -= e.state.Duration
		} else {
			e.state.Position = e.state.Duration
			e.state.Playing = false
			e.emit(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Time: e.state.Position})
			e.emit(ports.MediaEvent{Kind: ports.MediaEnded})
			return
		}
	}
	e.emit(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Time: e.state.Position})
}

// Run advances the clock in real time, one step per interval, until ctx is
// done or the element is closed.
func (e *MemoryElement) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			closed := e.closed
			e.mu.Unlock()
			if closed {
				return
			}
			e.Advance(interval)
		}
	}
}

// Emit reports an arbitrary lifecycle event.
func (e *MemoryElement) Emit(event ports.MediaEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	if event.Kind == ports.MediaError {
		e.state.Playing = false
	}
	e.emit(event)
}

// RejectPlay makes subsequent Play calls fail with err. A nil err restores Play.
func (e *MemoryElement) RejectPlay(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.playErr = err
}

// State returns the element's current state.
func (e *MemoryElement) State() MemoryElementState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Commands returns the commands received so far, oldest first.
func (e *MemoryElement) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	commands := make([]string, len(e.commands))
	copy(commands, e.commands)
	return commands
}

// record appends a command to the log. Called with e.mu held.
func (e *MemoryElement) record(command string) {
	e.commands = append(e.commands, command)
}

// emit delivers an event without blocking. Called with e.mu held.
func (e *MemoryElement) emit(event ports.MediaEvent) {
	select {
	case e.events <- event:
	default:
		slog.Warn("media event buffer full, dropping event", "event", event.Kind.String())
	}
}
