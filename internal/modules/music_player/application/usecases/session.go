package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// OpenSessionInput contains the input for the Open use case.
type OpenSessionInput struct {
	SessionID domain.SessionID   // Optional: a fresh ID is generated if empty
	Element   ports.MediaElement // Optional: bound to the session when non-nil
}

// OpenSessionOutput contains the result of the Open use case.
type OpenSessionOutput struct {
	SessionID domain.SessionID
	Snapshot  domain.PlayerSnapshot
	Detach    func() // Detaches Element; a no-op if no element was given
}

// AttachInput contains the input for the Attach use case.
type AttachInput struct {
	SessionID domain.SessionID
	Element   ports.MediaElement
}

// SessionService opens and closes playback sessions and tracks which media
// element each session is bound to.
type SessionService struct {
	playback *PlaybackService
	binder   ports.Binder

	mu       sync.Mutex
	bindings map[domain.SessionID]*binding
}

type binding struct {
	ready   chan struct{} // Closed once Bind has returned
	once    sync.Once
	dispose func()
}

// NewSessionService creates a new SessionService.
func NewSessionService(playback *PlaybackService, binder ports.Binder) *SessionService {
	return &SessionService{
		playback: playback,
		binder:   binder,
		bindings: make(map[domain.SessionID]*binding),
	}
}

// Open creates a session, or returns the existing one, and binds the given
// media element to it.
func (s *SessionService) Open(ctx context.Context, input OpenSessionInput) (*OpenSessionOutput, error) {
	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = domain.NewSessionID()
	}

	if _, err := s.playback.open(ctx, sessionID); err != nil {
		return nil, err
	}

	detach := func() {}
	if input.Element != nil {
		var err error
		detach, err = s.Attach(ctx, AttachInput{SessionID: sessionID, Element: input.Element})
		if err != nil {
			return nil, err
		}
	}

	// Binding may have reconciled the state; report what the caller will observe.
	snapshot, err := s.playback.Snapshot(ctx, sessionID)
	if err != nil {
		detach()
		return nil, err
	}

	return &OpenSessionOutput{SessionID: sessionID, Snapshot: snapshot, Detach: detach}, nil
}

// Attach binds a media element to an open session and returns the function
// that detaches it. A session has at most one element at a time.
func (s *SessionService) Attach(ctx context.Context, input AttachInput) (func(), error) {
	if s.binder == nil {
		return nil, errors.New("no media binder configured")
	}

	s.mu.Lock()
	if _, ok := s.bindings[input.SessionID]; ok {
		s.mu.Unlock()
		return nil, ErrMediaAttached
	}
	b := &binding{ready: make(chan struct{})}
	s.bindings[input.SessionID] = b
	s.mu.Unlock()

	dispose, err := s.binder.Bind(ctx, input.SessionID, input.Element)
	b.dispose = dispose
	close(b.ready)
	if err != nil {
		s.detach(input.SessionID, b)
		return nil, err
	}

	slog.Debug("media element attached", "session", input.SessionID)

	return func() { s.detach(input.SessionID, b) }, nil
}

// Close detaches the session's media element and deletes its state.
func (s *SessionService) Close(ctx context.Context, sessionID domain.SessionID) error {
	s.mu.Lock()
	b, ok := s.bindings[sessionID]
	s.mu.Unlock()

	if ok {
		s.detach(sessionID, b)
	}

	return s.playback.close(ctx, sessionID)
}

// ReapIdle closes the web sessions that have no media element attached and
// have not changed since cutoff. Listening parties are left to their guild.
func (s *SessionService) ReapIdle(ctx context.Context, cutoff time.Time) (int, error) {
	idle, err := s.playback.idleSessions(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	reaped := 0
	for _, sessionID := range idle {
		if _, ok := sessionID.GuildID(); ok || s.Attached(sessionID) {
			continue
		}
		if err := s.Close(ctx, sessionID); err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return reaped, err
		}
		reaped++
	}
	return reaped, nil
}

// RunReaper closes sessions idle for longer than timeout, checking every
// interval until ctx is done.
func (s *SessionService) RunReaper(ctx context.Context, timeout, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			reaped, err := s.ReapIdle(ctx, now.Add(-timeout))
			if err != nil {
				slog.Warn("failed to reap idle sessions", "error", err)
				continue
			}
			if reaped > 0 {
				slog.Info("reaped idle sessions", "count", reaped)
			}
		}
	}
}

// Snapshot returns the current state of a session.
func (s *SessionService) Snapshot(
	ctx context.Context,
	sessionID domain.SessionID,
) (domain.PlayerSnapshot, error) {
	return s.playback.Snapshot(ctx, sessionID)
}

// Attached reports whether a media element is bound to the session.
func (s *SessionService) Attached(sessionID domain.SessionID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.bindings[sessionID]
	return ok
}

func (s *SessionService) detach(sessionID domain.SessionID, b *binding) {
	<-b.ready
	b.once.Do(func() {
		s.mu.Lock()
		if s.bindings[sessionID] == b {
			delete(s.bindings, sessionID)
		}
		s.mu.Unlock()

		if b.dispose != nil {
			b.dispose()
		}
		slog.Debug("media element detached", "session", sessionID)
	})
}
