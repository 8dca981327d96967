package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// SelectSongInput contains the input for the SelectSong use case.
type SelectSongInput struct {
	SessionID domain.SessionID
	SongID    domain.SongID
}

// PlaySnippetInput contains the input for the PlaySnippet use case.
type PlaySnippetInput struct {
	SessionID domain.SessionID
	SongID    domain.SongID
}

// SeekInput contains the input for the Seek use case.
type SeekInput struct {
	SessionID domain.SessionID
	Position  time.Duration
}

// ExtractColorsInput contains the input for the ExtractColors use case.
type ExtractColorsInput struct {
	SessionID domain.SessionID
	ImageURL  string // Optional: defaults to the current song's cover
}

// UpdateTimeInput contains the input for the UpdateTime feedback transition.
type UpdateTimeInput struct {
	SessionID domain.SessionID
	Time      time.Duration
}

// UpdateDurationInput contains the input for the UpdateDuration feedback transition.
type UpdateDurationInput struct {
	SessionID domain.SessionID
	Duration  time.Duration
}

// ReportFailureInput contains the input for the ReportFailure feedback transition.
type ReportFailureInput struct {
	SessionID domain.SessionID
	Err       error
}

// TransitionOutput contains the result of a state transition.
type TransitionOutput struct {
	Snapshot domain.PlayerSnapshot
	Change   domain.Change // ChangeNone if the transition was a no-op
}

// PlaybackService owns the player state of every session.
// Transitions of one session are serialized: each runs to completion, including
// synchronous observer notification, before the next one starts.
type PlaybackService struct {
	repo      domain.PlayerStateRepository
	catalog   *domain.Catalog
	publisher ports.EventPublisher
	colors    ports.ColorExtractor // nil uses the colors stored with each song
	pick      domain.Picker

	mu             sync.Mutex
	sessions       map[domain.SessionID]*sessionEntry
	nextObserverID uint64
}

type sessionEntry struct {
	mu        sync.Mutex
	closed    bool
	observers []registeredObserver
}

type registeredObserver struct {
	id       uint64
	observer ports.StateObserver
}

// NewPlaybackService creates a new PlaybackService.
// A nil picker draws from the global random source.
func NewPlaybackService(
	repo domain.PlayerStateRepository,
	catalog *domain.Catalog,
	publisher ports.EventPublisher,
	colors ports.ColorExtractor,
	pick domain.Picker,
) *PlaybackService {
	if pick == nil {
		pick = domain.RandomPicker()
	}
	return &PlaybackService{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		colors:    colors,
		pick:      pick,
		sessions:  make(map[domain.SessionID]*sessionEntry),
	}
}

// Catalog returns the catalog sessions play from.
func (p *PlaybackService) Catalog() *domain.Catalog {
	return p.catalog
}

// Snapshot returns the current state of a session.
func (p *PlaybackService) Snapshot(
	ctx context.Context,
	sessionID domain.SessionID,
) (domain.PlayerSnapshot, error) {
	entry, ok := p.entry(sessionID)
	if !ok {
		return domain.PlayerSnapshot{}, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.closed {
		return domain.PlayerSnapshot{}, ErrSessionNotFound
	}

	state, err := p.repo.Get(ctx, sessionID)
	if err != nil {
		return domain.PlayerSnapshot{}, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}

	return state.Snapshot(), nil
}

// Observe registers an observer notified synchronously after each transition
// of the session. It returns the snapshot the observer starts from and a
// function that unregisters it. The cancel function must not be called from
// within OnStateChanged.
func (p *PlaybackService) Observe(
	ctx context.Context,
	sessionID domain.SessionID,
	observer ports.StateObserver,
) (domain.PlayerSnapshot, func(), error) {
	entry, ok := p.entry(sessionID)
	if !ok {
		return domain.PlayerSnapshot{}, nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.closed {
		return domain.PlayerSnapshot{}, nil, ErrSessionNotFound
	}

	state, err := p.repo.Get(ctx, sessionID)
	if err != nil {
		return domain.PlayerSnapshot{}, nil, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}

	p.mu.Lock()
	p.nextObserverID++
	id := p.nextObserverID
	p.mu.Unlock()

	entry.observers = append(entry.observers, registeredObserver{id: id, observer: observer})

	cancel := func() {
		entry.mu.Lock()
		defer entry.mu.Unlock()
		entry.observers = slices.DeleteFunc(entry.observers, func(r registeredObserver) bool {
			return r.id == id
		})
	}

	return state.Snapshot(), cancel, nil
}

// Play resumes or starts playback of the current song.
func (p *PlaybackService) Play(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return p.apply(ctx, sessionID, "play", (*domain.PlayerState).Play)
}

// Pause pauses playback.
func (p *PlaybackService) Pause(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return p.apply(ctx, sessionID, "pause", (*domain.PlayerState).Pause)
}

// TogglePlay flips between playing and paused.
func (p *PlaybackService) TogglePlay(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return p.apply(ctx, sessionID, "toggle_play", (*domain.PlayerState).TogglePlay)
}

// SelectSong loads a catalog song in full mode and starts playing it.
func (p *PlaybackService) SelectSong(
	ctx context.Context,
	input SelectSongInput,
) (*TransitionOutput, error) {
	song, ok := p.catalog.Find(input.SongID)
	if !ok {
		return nil, ErrSongNotFound
	}

	return p.apply(ctx, input.SessionID, "select_song", func(s *domain.PlayerState) domain.Change {
		return s.SelectSong(song)
	})
}

// PlaySnippet loads a catalog song in preview mode and starts playing it.
func (p *PlaybackService) PlaySnippet(
	ctx context.Context,
	input PlaySnippetInput,
) (*TransitionOutput, error) {
	song, ok := p.catalog.Find(input.SongID)
	if !ok {
		return nil, ErrSongNotFound
	}

	return p.apply(ctx, input.SessionID, "play_snippet", func(s *domain.PlayerState) domain.Change {
		return s.PlaySnippet(song)
	})
}

// StopSnippet leaves preview mode and pauses.
func (p *PlaybackService) StopSnippet(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return p.apply(ctx, sessionID, "stop_snippet", (*domain.PlayerState).StopSnippet)
}

// NextSong advances to the next song: the queue front if any, otherwise the
// next catalog song (random when shuffling).
func (p *PlaybackService) NextSong(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return p.apply(ctx, sessionID, "next_song", func(s *domain.PlayerState) domain.Change {
		return s.NextSong(p.pick)
	})
}

// PreviousSong moves to the previous catalog song, wrapping to the last.
func (p *PlaybackService) PreviousSong(
	ctx context.Context,
	sessionID domain.SessionID,
) (*TransitionOutput, error) {
	return p.apply(ctx, sessionID, "previous_song", (*domain.PlayerState).PreviousSong)
}

// SeekTo moves the playback position. The bound media element has been
// commanded to seek by the time SeekTo returns.
func (p *PlaybackService) SeekTo(ctx context.Context, input SeekInput) (*TransitionOutput, error) {
	return p.apply(ctx, input.SessionID, "seek", func(s *domain.PlayerState) domain.Change {
		return s.SeekTo(input.Position)
	})
}

// ExtractColors recolors the theme from an image, the current song's cover
// when ImageURL is empty. Without a color extractor, or when extraction
// fails, the song's stored colors are copied, and only when both are present.
func (p *PlaybackService) ExtractColors(
	ctx context.Context,
	input ExtractColorsInput,
) (*TransitionOutput, error) {
	sessionID := input.SessionID
	snapshot, err := p.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	imageURL := input.ImageURL
	if imageURL == "" && snapshot.CurrentSong != nil {
		imageURL = snapshot.CurrentSong.CoverURL
	}
	if p.colors == nil || snapshot.CurrentSong == nil || imageURL == "" {
		return p.apply(ctx, sessionID, "extract_colors", (*domain.PlayerState).ExtractColors)
	}

	// Extraction reads the image; keep it outside the session lock.
	song := *snapshot.CurrentSong
	theme, err := p.colors.Extract(ctx, imageURL)
	if err != nil {
		slog.Warn(
			"color extraction failed, using stored colors",
			"session", sessionID,
			"song", song.ID,
			"image", imageURL,
			"error", err,
		)
		return p.apply(ctx, sessionID, "extract_colors", (*domain.PlayerState).ExtractColors)
	}

	return p.apply(ctx, sessionID, "extract_colors", func(s *domain.PlayerState) domain.Change {
		// The song may have changed while the image was being read.
		if current, ok := s.CurrentSong(); !ok || current.ID != song.ID {
			return domain.ChangeNone
		}
		return s.ApplyTheme(theme)
	})
}

// UpdateTime records the elapsed time reported by the media element.
func (p *PlaybackService) UpdateTime(
	ctx context.Context,
	input UpdateTimeInput,
) (*TransitionOutput, error) {
	return p.apply(ctx, input.SessionID, "update_time", func(s *domain.PlayerState) domain.Change {
		return s.UpdateTime(input.Time)
	})
}

// UpdateDuration records the total duration reported by the media element.
func (p *PlaybackService) UpdateDuration(
	ctx context.Context,
	input UpdateDurationInput,
) (*TransitionOutput, error) {
	return p.apply(ctx, input.SessionID, "update_duration", func(s *domain.PlayerState) domain.Change {
		return s.UpdateDuration(input.Duration)
	})
}

// ReportFailure pauses the session after the media element failed to play,
// and publishes a PlaybackFailedEvent.
func (p *PlaybackService) ReportFailure(
	ctx context.Context,
	input ReportFailureInput,
) (*TransitionOutput, error) {
	output, err := p.apply(ctx, input.SessionID, "fail_playback", (*domain.PlayerState).FailPlayback)
	if err != nil {
		return nil, err
	}

	event := domain.PlaybackFailedEvent{SessionID: input.SessionID}
	if output.Snapshot.CurrentSong != nil {
		event.SongID = output.Snapshot.CurrentSong.ID
	}
	if input.Err != nil {
		event.Message = input.Err.Error()
	}
	if p.publisher != nil {
		p.publisher.PublishPlaybackFailed(event)
	}

	return output, nil
}

// open creates the state of a session. Opening an existing session returns
// its current snapshot.
func (p *PlaybackService) open(
	ctx context.Context,
	sessionID domain.SessionID,
) (domain.PlayerSnapshot, error) {
	p.mu.Lock()
	entry, ok := p.sessions[sessionID]
	if !ok {
		entry = &sessionEntry{}
		p.sessions[sessionID] = entry
	}
	p.mu.Unlock()

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if state, err := p.repo.Get(ctx, sessionID); err == nil {
		// Reopening counts as activity.
		if err := p.repo.Save(ctx, state); err != nil {
			return domain.PlayerSnapshot{}, fmt.Errorf("failed to save player state: %w", err)
		}
		return state.Snapshot(), nil
	}

	state := domain.NewPlayerState(sessionID, p.catalog)
	if err := p.repo.Save(ctx, state); err != nil {
		return domain.PlayerSnapshot{}, fmt.Errorf("failed to save player state: %w", err)
	}

	slog.Info("session opened", "session", sessionID)

	return state.Snapshot(), nil
}

// close deletes the state of a session and drops its observers.
func (p *PlaybackService) close(ctx context.Context, sessionID domain.SessionID) error {
	p.mu.Lock()
	entry, ok := p.sessions[sessionID]
	delete(p.sessions, sessionID)
	p.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	entry.mu.Lock()
	entry.closed = true
	entry.observers = nil
	entry.mu.Unlock()

	if err := p.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete player state: %w", err)
	}

	if p.publisher != nil {
		p.publisher.PublishSessionClosed(domain.SessionClosedEvent{SessionID: sessionID})
	}

	slog.Info("session closed", "session", sessionID)

	return nil
}

// idleSessions returns the sessions without a transition since cutoff.
func (p *PlaybackService) idleSessions(ctx context.Context, cutoff time.Time) ([]domain.SessionID, error) {
	return p.repo.IdleSince(ctx, cutoff)
}

func (p *PlaybackService) entry(sessionID domain.SessionID) (*sessionEntry, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.sessions[sessionID]
	return entry, ok
}

// apply runs one transition under the session lock, persists the result,
// notifies observers synchronously and publishes the change.
func (p *PlaybackService) apply(
	ctx context.Context,
	sessionID domain.SessionID,
	op string,
	transition func(*domain.PlayerState) domain.Change,
) (*TransitionOutput, error) {
	entry, ok := p.entry(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.closed {
		return nil, ErrSessionNotFound
	}

	state, err := p.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSessionNotFound, err)
	}

	change := transition(&state)
	snapshot := state.Snapshot()
	if change == domain.ChangeNone {
		return &TransitionOutput{Snapshot: snapshot}, nil
	}

	if err := p.repo.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("failed to save player state: %w", err)
	}

	if change != domain.ChangeTime {
		slog.Debug(
			"state changed",
			"session", sessionID,
			"op", op,
			"change", change.String(),
		)
	}

	for _, r := range entry.observers {
		r.observer.OnStateChanged(ctx, snapshot, change)
	}

	if p.publisher != nil {
		p.publisher.PublishStateChanged(domain.StateChangedEvent{
			SessionID: sessionID,
			Snapshot:  snapshot,
			Change:    change,
		})
	}

	return &TransitionOutput{Snapshot: snapshot, Change: change}, nil
}
