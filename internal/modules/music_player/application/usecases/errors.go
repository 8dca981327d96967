package usecases

import "errors"

// Errors returned by the music player use cases.
var (
	// ErrSessionNotFound is returned when an operation targets a session that was never opened or has been closed.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSongNotFound is returned when a song ID is not in the catalog.
	ErrSongNotFound = errors.New("song not found")

	// ErrMediaAttached is returned when a session already has a media element bound.
	ErrMediaAttached = errors.New("a media element is already attached to this session")

	// ErrNotConnected is returned when a guild has no listening party.
	ErrNotConnected = errors.New("no listening party is running in this server")

	// ErrUserNotInVoice is returned when the user is not in a voice channel.
	ErrUserNotInVoice = errors.New("you must be in a voice channel")

	// ErrNoResults is returned when a search yields no results.
	ErrNoResults = errors.New("no results found")

	// ErrQueueEmpty is returned when the queue is empty.
	ErrQueueEmpty = errors.New("the queue is empty")
)
