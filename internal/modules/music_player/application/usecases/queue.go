package usecases

import (
	"context"
	"time"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

const DefaultPageSize = 10

// QueueSongInput contains the input for the Add and PlayNext use cases.
type QueueSongInput struct {
	SessionID domain.SessionID
	SongID    domain.SongID
}

// QueueSongOutput contains the result of the Add and PlayNext use cases.
type QueueSongOutput struct {
	Song     domain.Song
	Position int // 0-indexed position in queue
	Snapshot domain.PlayerSnapshot
}

// QueueRemoveInput contains the input for the Remove use case.
type QueueRemoveInput struct {
	SessionID domain.SessionID
	SongID    domain.SongID
}

// QueueRemoveOutput contains the result of the Remove use case.
type QueueRemoveOutput struct {
	Removed  bool // false if the song was not queued
	Snapshot domain.PlayerSnapshot
}

// QueueClearOutput contains the result of the Clear use case.
type QueueClearOutput struct {
	ClearedCount int
	Snapshot     domain.PlayerSnapshot
}

// QueueListInput contains the input for the List use case.
type QueueListInput struct {
	SessionID domain.SessionID
	Page      int // 1-indexed page number (optional, defaults to 1)
	PageSize  int // Items per page (optional, defaults to 10)
}

// QueueListOutput contains the result of the List use case.
type QueueListOutput struct {
	CurrentSong   *domain.Song
	Songs         []domain.Song
	TotalSongs    int
	TotalDuration time.Duration
	CurrentPage   int
	TotalPages    int
	PageStart     int // 0-indexed queue position of Songs[0]
}

// QueueService handles queue operations.
type QueueService struct {
	playback *PlaybackService
}

// NewQueueService creates a new QueueService.
func NewQueueService(playback *PlaybackService) *QueueService {
	return &QueueService{playback: playback}
}

// Add appends a catalog song to the end of the queue.
func (q *QueueService) Add(ctx context.Context, input QueueSongInput) (*QueueSongOutput, error) {
	song, ok := q.playback.catalog.Find(input.SongID)
	if !ok {
		return nil, ErrSongNotFound
	}

	output, err := q.playback.apply(ctx, input.SessionID, "add_to_queue", func(s *domain.PlayerState) domain.Change {
		return s.AddToQueue(song)
	})
	if err != nil {
		return nil, err
	}

	return &QueueSongOutput{
		Song:     song,
		Position: len(output.Snapshot.Queue) - 1,
		Snapshot: output.Snapshot,
	}, nil
}

// PlayNext puts a catalog song at the front of the queue.
func (q *QueueService) PlayNext(ctx context.Context, input QueueSongInput) (*QueueSongOutput, error) {
	song, ok := q.playback.catalog.Find(input.SongID)
	if !ok {
		return nil, ErrSongNotFound
	}

	output, err := q.playback.apply(ctx, input.SessionID, "play_next", func(s *domain.PlayerState) domain.Change {
		return s.PlayNext(song)
	})
	if err != nil {
		return nil, err
	}

	return &QueueSongOutput{Song: song, Position: 0, Snapshot: output.Snapshot}, nil
}

// Remove removes the first queued occurrence of a song.
// Removing a song that is not queued is not an error.
func (q *QueueService) Remove(ctx context.Context, input QueueRemoveInput) (*QueueRemoveOutput, error) {
	output, err := q.playback.apply(ctx, input.SessionID, "remove_from_queue", func(s *domain.PlayerState) domain.Change {
		return s.RemoveFromQueue(input.SongID)
	})
	if err != nil {
		return nil, err
	}

	return &QueueRemoveOutput{
		Removed:  output.Change.Has(domain.ChangeQueue),
		Snapshot: output.Snapshot,
	}, nil
}

// Clear empties the queue.
func (q *QueueService) Clear(ctx context.Context, sessionID domain.SessionID) (*QueueClearOutput, error) {
	var cleared int
	output, err := q.playback.apply(ctx, sessionID, "clear_queue", func(s *domain.PlayerState) domain.Change {
		cleared = s.Queue().Len()
		return s.ClearQueue()
	})
	if err != nil {
		return nil, err
	}

	return &QueueClearOutput{ClearedCount: cleared, Snapshot: output.Snapshot}, nil
}

// List returns one page of the queue together with the current song.
func (q *QueueService) List(ctx context.Context, input QueueListInput) (*QueueListOutput, error) {
	snapshot, err := q.playback.Snapshot(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	total := len(snapshot.Queue)
	totalPages := max((total+pageSize-1)/pageSize, 1)
	page := min(max(input.Page, 1), totalPages)

	start := min((page-1)*pageSize, total)
	end := min(start+pageSize, total)

	queue := domain.NewSongQueue(snapshot.Queue...)

	return &QueueListOutput{
		CurrentSong:   snapshot.CurrentSong,
		Songs:         snapshot.Queue[start:end],
		TotalSongs:    total,
		TotalDuration: queue.TotalDuration(),
		CurrentPage:   page,
		TotalPages:    totalPages,
		PageStart:     start,
	}, nil
}
