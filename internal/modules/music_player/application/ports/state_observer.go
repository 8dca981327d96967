package ports

import (
	"context"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// StateObserver is notified synchronously after each transition of the
// session it observes, before the transition returns to its caller.
// Implementations must not call back into the playback service from
// OnStateChanged.
type StateObserver interface {
	OnStateChanged(ctx context.Context, snapshot domain.PlayerSnapshot, change domain.Change)
}

// Binder attaches a media element to a session.
type Binder interface {
	// Bind starts reconciling element with the session's state and returns a
	// disposer that detaches it. Calling the disposer more than once is a no-op.
	Bind(ctx context.Context, sessionID domain.SessionID, element MediaElement) (func(), error)
}
