package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

// lavalinkPollInterval is how often the player position is reported.
const lavalinkPollInterval = time.Second

var _ ports.MediaElement = (*LavalinkElement)(nil)

// LavalinkElement plays a guild's session into its voice channel.
// Lavalink has no native loop, so a finished looping track is restarted here.
type LavalinkElement struct {
	adapter *LavalinkAdapter
	guildID snowflake.ID

	mu     sync.Mutex
	track  *lavalink.Track
	paused bool
	loop   bool
	closed bool
	events chan ports.MediaEvent
	stop   chan struct{}
}

func newLavalinkElement(adapter *LavalinkAdapter, guildID snowflake.ID) *LavalinkElement {
	e := &LavalinkElement{
		adapter: adapter,
		guildID: guildID,
		paused:  true,
		events:  make(chan ports.MediaEvent, DefaultElementEventBuffer),
		stop:    make(chan struct{}),
	}
	go e.pollPosition()
	return e
}

// SetSource implements ports.MediaElement. The track is loaded paused.
func (e *LavalinkElement) SetSource(ctx context.Context, url string) error {
	node := e.adapter.link.BestNode()
	if node == nil {
		return errors.New("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, e.adapter.resolve(url))
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrElementClosed
	}

	track, ok := result.Data.(lavalink.Track)
	if !ok {
		e.track = nil
		e.emit(ports.MediaEvent{Kind: ports.MediaError, Err: fmt.Errorf("no playable track at %s", url)})
		return nil
	}

	player := e.adapter.link.Player(e.guildID)
	if err := player.Update(ctx, lavalink.WithTrack(track), lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to load track into player: %w", err)
	}
	e.track = &track
	e.paused = true

	if length := time.Duration(track.Info.Length) * time.Millisecond; length > 0 {
		e.emit(ports.MediaEvent{Kind: ports.MediaLoadedMetadata, Duration: length})
	}
	return nil
}

// SetVolume implements ports.MediaElement.
func (e *LavalinkElement) SetVolume(ctx context.Context, volume float64) error {
	player := e.adapter.link.Player(e.guildID)
	if err := player.Update(ctx, lavalink.WithVolume(int(volume*100))); err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	return nil
}

// SetLoop implements ports.MediaElement.
func (e *LavalinkElement) SetLoop(_ context.Context, loop bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = loop
	return nil
}

// Play implements ports.MediaElement.
func (e *LavalinkElement) Play(ctx context.Context) error {
	return e.setPaused(ctx, false)
}

// Pause implements ports.MediaElement.
func (e *LavalinkElement) Pause(ctx context.Context) error {
	return e.setPaused(ctx, true)
}

// Seek implements ports.MediaElement.
func (e *LavalinkElement) Seek(ctx context.Context, position time.Duration) error {
	player := e.adapter.link.Player(e.guildID)
	if err := player.Update(ctx, lavalink.WithPosition(lavalink.Duration(position.Milliseconds()))); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

// Events implements ports.MediaElement.
func (e *LavalinkElement) Events() <-chan ports.MediaEvent {
	return e.events
}

// Close implements ports.MediaElement. The voice connection stays with its owner.
func (e *LavalinkElement) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	close(e.stop)
	close(e.events)
	e.adapter.release(e.guildID, e)
	return nil
}

func (e *LavalinkElement) setPaused(ctx context.Context, paused bool) error {
	e.mu.Lock()
	hasTrack := e.track != nil
	e.mu.Unlock()

	if !hasTrack {
		return ErrNoSource
	}

	player := e.adapter.link.Player(e.guildID)
	if err := player.Update(ctx, lavalink.WithPaused(paused)); err != nil {
		return fmt.Errorf("failed to update pause state: %w", err)
	}

	e.mu.Lock()
	e.paused = paused
	e.mu.Unlock()
	return nil
}

// finished handles the natural end of the current track.
func (e *LavalinkElement) finished(player disgolink.Player) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed || e.track == nil {
		return
	}

	if e.loop {
		ctx, cancel := context.WithTimeout(context.Background(), voiceConnectionTimeout)
		defer cancel()
		err := player.Update(ctx, lavalink.WithTrack(*e.track))
		if err == nil {
			return
		}
		slog.Warn("failed to restart looping track", "guild", e.guildID, "error", err)
	}

	e.paused = true
	e.emit(ports.MediaEvent{Kind: ports.MediaEnded})
}

func (e *LavalinkElement) failed(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.paused = true
	e.emit(ports.MediaEvent{Kind: ports.MediaError, Err: err})
}

func (e *LavalinkElement) pollPosition() {
	ticker := time.NewTicker(lavalinkPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stop:
			return
		case <-ticker.C:
			player := e.adapter.link.ExistingPlayer(e.guildID)
			if player == nil || player.Track() == nil {
				continue
			}
			position := time.Duration(player.Position()) * time.Millisecond

			e.mu.Lock()
			if !e.closed && !e.paused {
				e.emit(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Time: position})
			}
			e.mu.Unlock()
		}
	}
}

// emit delivers an event without blocking. Called with e.mu held.
func (e *LavalinkElement) emit(event ports.MediaEvent) {
	select {
	case e.events <- event:
	default:
		slog.Warn("media event buffer full, dropping event", "guild", e.guildID, "event", event.Kind.String())
	}
}
