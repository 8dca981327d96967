package ports

import "github.com/sglre6355/portfolio/internal/modules/music_player/domain"

// EventPublisher defines the interface for publishing events asynchronously.
type EventPublisher interface {
	PublishStateChanged(event domain.StateChangedEvent)
	PublishPlaybackFailed(event domain.PlaybackFailedEvent)
	PublishSessionClosed(event domain.SessionClosedEvent)
}
