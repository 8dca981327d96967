package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// reconcileAll is the change set that forces a full reconcile.
const reconcileAll = domain.ChangeSong | domain.ChangePlaying | domain.ChangeVolume | domain.ChangeLoop

// PlaybackController is the part of the playback service a binding drives.
type PlaybackController interface {
	Observe(
		ctx context.Context,
		sessionID domain.SessionID,
		observer ports.StateObserver,
	) (domain.PlayerSnapshot, func(), error)
	NextSong(ctx context.Context, sessionID domain.SessionID) (*usecases.TransitionOutput, error)
	StopSnippet(ctx context.Context, sessionID domain.SessionID) (*usecases.TransitionOutput, error)
	UpdateTime(ctx context.Context, input usecases.UpdateTimeInput) (*usecases.TransitionOutput, error)
	UpdateDuration(ctx context.Context, input usecases.UpdateDurationInput) (*usecases.TransitionOutput, error)
	ReportFailure(ctx context.Context, input usecases.ReportFailureInput) (*usecases.TransitionOutput, error)
}

// MediaBinding keeps media elements in sync with player state: state changes
// command the element, and element events feed back as transitions.
type MediaBinding struct {
	playback PlaybackController
}

var _ ports.Binder = (*MediaBinding)(nil)

// NewMediaBinding creates a new MediaBinding.
func NewMediaBinding(playback PlaybackController) *MediaBinding {
	return &MediaBinding{playback: playback}
}

// Bind starts reconciling element with the session's state. The returned
// disposer stops the event pump and unregisters the binding; it does not
// close the element, which stays with its owner.
func (b *MediaBinding) Bind(
	ctx context.Context,
	sessionID domain.SessionID,
	element ports.MediaElement,
) (func(), error) {
	r := &reconciler{
		sessionID: sessionID,
		element:   element,
		playback:  b.playback,
	}

	initial, unobserve, err := b.playback.Observe(ctx, sessionID, r)
	if err != nil {
		return nil, err
	}

	// A transition may already have synced the element in the meantime.
	r.sync(ctx, initial)

	pumpCtx, stop := context.WithCancel(context.WithoutCancel(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		r.pump(pumpCtx)
	}()

	slog.Debug("media binding started", "session", sessionID)

	return sync.OnceFunc(func() {
		unobserve()
		stop()
		wg.Wait()
		slog.Debug("media binding stopped", "session", sessionID)
	}), nil
}

type reconciler struct {
	sessionID domain.SessionID
	element   ports.MediaElement
	playback  PlaybackController

	mu     sync.Mutex // Serializes element commands
	synced bool
	last   domain.PlayerSnapshot
}

// OnStateChanged implements ports.StateObserver.
func (r *reconciler) OnStateChanged(ctx context.Context, snapshot domain.PlayerSnapshot, change domain.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.synced {
		change |= reconcileAll
		r.synced = true
	}
	r.apply(ctx, snapshot, change)
}

func (r *reconciler) sync(ctx context.Context, snapshot domain.PlayerSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.synced {
		return
	}
	r.synced = true
	r.apply(ctx, snapshot, reconcileAll)
}

// apply commands the element to match snapshot. Called with r.mu held.
func (r *reconciler) apply(ctx context.Context, snapshot domain.PlayerSnapshot, change domain.Change) {
	r.last = snapshot

	if change.Has(reconcileAll) {
		if change.Has(domain.ChangeSong) && snapshot.CurrentSong != nil {
			if err := r.element.SetSource(ctx, snapshot.CurrentSong.AudioURL); err != nil {
				slog.Warn(
					"failed to set media source",
					"session", r.sessionID,
					"song", snapshot.CurrentSong.ID,
					"error", err,
				)
			}
		}
		if err := r.element.SetVolume(ctx, snapshot.Volume); err != nil {
			slog.Warn("failed to set media volume", "session", r.sessionID, "error", err)
		}
		if err := r.element.SetLoop(ctx, snapshot.IsLooping); err != nil {
			slog.Warn("failed to set media loop", "session", r.sessionID, "error", err)
		}
	}

	if change.Has(domain.ChangeSeek) {
		if err := r.element.Seek(ctx, snapshot.CurrentTime); err != nil {
			slog.Warn("failed to seek media", "session", r.sessionID, "error", err)
		}
	}

	if !change.Has(reconcileAll) {
		return
	}

	if snapshot.IsPlaying && snapshot.CurrentSong != nil {
		// A rejected play request is dropped; the element reports real failures as events.
		if err := r.element.Play(ctx); err != nil {
			slog.Warn("media play request failed", "session", r.sessionID, "error", err)
		}
		return
	}
	if err := r.element.Pause(ctx); err != nil {
		slog.Warn("failed to pause media", "session", r.sessionID, "error", err)
	}
}

func (r *reconciler) pump(ctx context.Context) {
	events := r.element.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := r.handle(ctx, event); err != nil {
				if errors.Is(err, usecases.ErrSessionNotFound) {
					return
				}
				slog.Warn(
					"failed to handle media event",
					"session", r.sessionID,
					"event", event.Kind.String(),
					"error", err,
				)
			}
		}
	}
}

func (r *reconciler) handle(ctx context.Context, event ports.MediaEvent) error {
	switch event.Kind {
	case ports.MediaEnded:
		return r.handleEnded(ctx)

	case ports.MediaTimeUpdate:
		output, err := r.playback.UpdateTime(ctx, usecases.UpdateTimeInput{
			SessionID: r.sessionID,
			Time:      event.Time,
		})
		if err != nil {
			return err
		}
		snapshot := output.Snapshot
		if snapshot.IsPreviewMode && snapshot.IsPlaying && event.Time >= domain.PreviewLength {
			slog.Debug("preview length reached", "session", r.sessionID)
			_, err = r.playback.StopSnippet(ctx, r.sessionID)
		}
		return err

	case ports.MediaLoadedMetadata:
		_, err := r.playback.UpdateDuration(ctx, usecases.UpdateDurationInput{
			SessionID: r.sessionID,
			Duration:  event.Duration,
		})
		return err

	case ports.MediaError:
		slog.Error(
			"media playback failed",
			"session", r.sessionID,
			"error", event.Err,
		)
		_, err := r.playback.ReportFailure(ctx, usecases.ReportFailureInput{
			SessionID: r.sessionID,
			Err:       event.Err,
		})
		return err
	}

	return nil
}

func (r *reconciler) handleEnded(ctx context.Context) error {
	r.mu.Lock()
	looping := r.last.IsLooping
	if looping {
		if err := r.element.Seek(ctx, 0); err != nil {
			slog.Warn("failed to rewind looping media", "session", r.sessionID, "error", err)
		}
		if err := r.element.Play(ctx); err != nil {
			slog.Warn("media play request failed", "session", r.sessionID, "error", err)
		}
	}
	r.mu.Unlock()

	if looping {
		_, err := r.playback.UpdateTime(ctx, usecases.UpdateTimeInput{SessionID: r.sessionID})
		return err
	}

	_, err := r.playback.NextSong(ctx, r.sessionID)
	return err
}
