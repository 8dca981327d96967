package ports

import (
	"context"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// EventSubscriber defines the interface for subscribing to events.
// Handlers are registered with the subscriber and invoked when events occur.
type EventSubscriber interface {
	OnStateChanged(handler func(context.Context, domain.StateChangedEvent))
	OnPlaybackFailed(handler func(context.Context, domain.PlaybackFailedEvent))
	OnSessionClosed(handler func(context.Context, domain.SessionClosedEvent))
}
