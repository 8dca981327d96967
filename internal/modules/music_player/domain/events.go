package domain

// StateChangedEvent is published after every transition that changed a session.
type StateChangedEvent struct {
	SessionID SessionID
	Snapshot  PlayerSnapshot
	Change    Change
}

// PlaybackFailedEvent is published when a media element reports an error.
type PlaybackFailedEvent struct {
	SessionID SessionID
	SongID    SongID
	Message   string
}

// SessionClosedEvent is published after a session's state has been deleted.
type SessionClosedEvent struct {
	SessionID SessionID
}
