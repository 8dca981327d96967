package domain

import (
	"context"
	"time"
)

// PlayerStateRepository stores the player state of each session.
type PlayerStateRepository interface {
	// Get returns the PlayerState for the given session, or error if not exists.
	Get(ctx context.Context, sessionID SessionID) (PlayerState, error)

	// Save stores the PlayerState and marks its session active.
	Save(ctx context.Context, state PlayerState) error

	// Delete removes the PlayerState for the given session.
	Delete(ctx context.Context, sessionID SessionID) error

	// IdleSince returns the sessions whose state was last saved before cutoff.
	IdleSince(ctx context.Context, cutoff time.Time) ([]SessionID, error)
}
