package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// topic is the channel and handler list of one event type.
// Handlers run on the topic's dispatcher goroutine, in publish order.
type topic[E any] struct {
	name     string
	events   chan E
	handlers []func(context.Context, E)
}

func newTopic[E any](name string, bufferSize int) *topic[E] {
	return &topic[E]{name: name, events: make(chan E, bufferSize)}
}

// ChannelEventBus provides a channel-based event bus for async event handling.
// It implements both EventPublisher and EventSubscriber interfaces.
type ChannelEventBus struct {
	stateChanged   *topic[domain.StateChangedEvent]
	playbackFailed *topic[domain.PlaybackFailedEvent]
	sessionClosed  *topic[domain.SessionClosedEvent]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		stateChanged:   newTopic[domain.StateChangedEvent]("StateChanged", bufferSize),
		playbackFailed: newTopic[domain.PlaybackFailedEvent]("PlaybackFailed", bufferSize),
		sessionClosed:  newTopic[domain.SessionClosedEvent]("SessionClosed", bufferSize),
		ctx:            ctx,
		cancel:         cancel,
	}

	// Start dispatcher goroutines
	bus.wg.Add(3)
	go dispatch(bus, bus.stateChanged)
	go dispatch(bus, bus.playbackFailed)
	go dispatch(bus, bus.sessionClosed)

	return bus
}

func dispatch[E any](b *ChannelEventBus, t *topic[E]) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-t.events:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := t.handlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

// publish sends an event without blocking: if the channel buffer is full,
// the event is dropped with a warning.
func publish[E any](b *ChannelEventBus, t *topic[E], event E, sessionID domain.SessionID) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", t.name)
		return
	}

	select {
	case t.events <- event:
	default:
		slog.Warn("event buffer full, dropping event", "type", t.name, "session", sessionID)
	}
}

func subscribe[E any](b *ChannelEventBus, t *topic[E], handler func(context.Context, E)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

// --- EventPublisher interface ---

// PublishStateChanged publishes a StateChangedEvent.
func (b *ChannelEventBus) PublishStateChanged(event domain.StateChangedEvent) {
	publish(b, b.stateChanged, event, event.SessionID)
}

// PublishPlaybackFailed publishes a PlaybackFailedEvent.
func (b *ChannelEventBus) PublishPlaybackFailed(event domain.PlaybackFailedEvent) {
	publish(b, b.playbackFailed, event, event.SessionID)
	slog.Debug("published event", "type", b.playbackFailed.name, "session", event.SessionID)
}

// PublishSessionClosed publishes a SessionClosedEvent.
func (b *ChannelEventBus) PublishSessionClosed(event domain.SessionClosedEvent) {
	publish(b, b.sessionClosed, event, event.SessionID)
	slog.Debug("published event", "type", b.sessionClosed.name, "session", event.SessionID)
}

// --- EventSubscriber interface ---

// OnStateChanged registers a handler for StateChangedEvent.
func (b *ChannelEventBus) OnStateChanged(handler func(context.Context, domain.StateChangedEvent)) {
	subscribe(b, b.stateChanged, handler)
}

// OnPlaybackFailed registers a handler for PlaybackFailedEvent.
func (b *ChannelEventBus) OnPlaybackFailed(handler func(context.Context, domain.PlaybackFailedEvent)) {
	subscribe(b, b.playbackFailed, handler)
}

// OnSessionClosed registers a handler for SessionClosedEvent.
func (b *ChannelEventBus) OnSessionClosed(handler func(context.Context, domain.SessionClosedEvent)) {
	subscribe(b, b.sessionClosed, handler)
}

// Close closes all event channels and stops dispatchers.
// After calling Close, publishing will no longer send events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	// Cancel context to stop dispatchers
	b.cancel()

	// Close channels to unblock any pending reads
	close(b.stateChanged.events)
	close(b.playbackFailed.events)
	close(b.sessionClosed.events)

	// Wait for dispatchers to finish
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
