package usecases

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

func TestPlaybackService_UnknownSession(t *testing.T) {
	playback, _, _ := newTestPlayback(t)
	ctx := context.Background()
	unknown := domain.NewSessionID()

	tests := []struct {
		name string
		call func() error
	}{
		{"play", func() error { _, err := playback.Play(ctx, unknown); return err }},
		{"pause", func() error { _, err := playback.Pause(ctx, unknown); return err }},
		{"next", func() error { _, err := playback.NextSong(ctx, unknown); return err }},
		{"seek", func() error {
			_, err := playback.SeekTo(ctx, SeekInput{SessionID: unknown, Position: time.Second})
			return err
		}},
		{"snapshot", func() error { _, err := playback.Snapshot(ctx, unknown); return err }},
		{"extract colors", func() error {
			_, err := playback.ExtractColors(ctx, ExtractColorsInput{SessionID: unknown})
			return err
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, ErrSessionNotFound) {
				t.Errorf("expected ErrSessionNotFound, got %v", err)
			}
		})
	}
}

func TestPlaybackService_OpenInitialState(t *testing.T) {
	playback, _, sessionID := newTestPlayback(t)

	snapshot, err := playback.Snapshot(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if snapshot.CurrentSong == nil || snapshot.CurrentSong.ID != "A" {
		t.Fatalf("expected first song loaded, got %+v", snapshot.CurrentSong)
	}
	if snapshot.IsPlaying {
		t.Error("expected new session not to be playing")
	}
	if snapshot.Status != domain.StatusLoaded {
		t.Errorf("expected loaded status, got %v", snapshot.Status)
	}
	if snapshot.Volume != domain.DefaultVolume {
		t.Errorf("expected default volume, got %v", snapshot.Volume)
	}
}

func TestPlaybackService_OpenIsIdempotent(t *testing.T) {
	playback, _, sessionID := newTestPlayback(t)
	ctx := context.Background()

	if _, err := playback.SelectSong(ctx, SelectSongInput{SessionID: sessionID, SongID: "C"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snapshot, err := playback.open(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snapshot.CurrentSong.ID != "C" {
		t.Errorf("expected reopen to keep state, got %s", snapshot.CurrentSong.ID)
	}
}

func TestPlaybackService_SelectSong(t *testing.T) {
	tests := []struct {
		name       string
		songID     domain.SongID
		wantErr    error
		wantSongID domain.SongID
	}{
		{"catalog song", "B", nil, "B"},
		{"unknown song", "Z", ErrSongNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			playback, publisher, sessionID := newTestPlayback(t)

			output, err := playback.SelectSong(
				context.Background(),
				SelectSongInput{SessionID: sessionID, SongID: tt.songID},
			)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected error %v, got %v", tt.wantErr, err)
				}
				if len(publisher.stateChanged) != 0 {
					t.Error("expected no event on failure")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if output.Snapshot.CurrentSong.ID != tt.wantSongID {
				t.Errorf("expected %s, got %s", tt.wantSongID, output.Snapshot.CurrentSong.ID)
			}
			if !output.Snapshot.IsPlaying {
				t.Error("expected selected song to play")
			}
			if !output.Change.Has(domain.ChangeSong) {
				t.Errorf("expected song change, got %v", output.Change)
			}
			if len(publisher.stateChanged) != 1 {
				t.Fatalf("expected 1 event, got %d", len(publisher.stateChanged))
			}
			if publisher.stateChanged[0].SessionID != sessionID {
				t.Errorf("expected event for %s, got %s", sessionID, publisher.stateChanged[0].SessionID)
			}
		})
	}
}

func TestPlaybackService_ObserverNotifiedBeforeReturn(t *testing.T) {
	playback, _, sessionID := newTestPlayback(t)
	ctx := context.Background()
	observer := &mockObserver{}

	initial, cancel, err := playback.Observe(ctx, sessionID, observer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cancel()

	if initial.CurrentSong.ID != "A" {
		t.Errorf("expected initial snapshot of song A, got %s", initial.CurrentSong.ID)
	}

	if _, err := playback.SeekTo(ctx, SeekInput{SessionID: sessionID, Position: 42 * time.Second}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(observer.changes) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(observer.changes))
	}
	got := observer.changes[0]
	if !got.change.Has(domain.ChangeSeek) {
		t.Errorf("expected seek change, got %v", got.change)
	}
	if got.snapshot.CurrentTime != 42*time.Second {
		t.Errorf("expected time 42s, got %v", got.snapshot.CurrentTime)
	}
}

func TestPlaybackService_NoOpTransition(t *testing.T) {
	playback, publisher, sessionID := newTestPlayback(t)
	ctx := context.Background()
	observer := &mockObserver{}

	_, cancel, err := playback.Observe(ctx, sessionID, observer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer cancel()

	output, err := playback.Pause(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Change != domain.ChangeNone {
		t.Errorf("expected no change when pausing a paused session, got %v", output.Change)
	}
	if len(observer.changes) != 0 {
		t.Errorf("expected no notification, got %d", len(observer.changes))
	}
	if len(publisher.stateChanged) != 0 {
		t.Errorf("expected no event, got %d", len(publisher.stateChanged))
	}
}

func TestPlaybackService_CancelObserver(t *testing.T) {
	playback, _, sessionID := newTestPlayback(t)
	ctx := context.Background()
	observer := &mockObserver{}

	_, cancel, err := playback.Observe(ctx, sessionID, observer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cancel()

	if _, err := playback.Play(ctx, sessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(observer.changes) != 0 {
		t.Errorf("expected cancelled observer not to be notified, got %d", len(observer.changes))
	}
}

func TestPlaybackService_NextSongConsumesQueue(t *testing.T) {
	playback, _, sessionID := newTestPlayback(t)
	queue := NewQueueService(playback)
	ctx := context.Background()

	if _, err := queue.Add(ctx, QueueSongInput{SessionID: sessionID, SongID: "C"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output, err := playback.NextSong(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Snapshot.CurrentSong.ID != "C" {
		t.Errorf("expected queued song C, got %s", output.Snapshot.CurrentSong.ID)
	}
	if len(output.Snapshot.Queue) != 0 {
		t.Errorf("expected queue consumed, got %d", len(output.Snapshot.Queue))
	}

	output, err = playback.NextSong(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The queued song kept the catalog index, so advancement resumes from A.
	if output.Snapshot.CurrentSong.ID != "B" {
		t.Errorf("expected catalog song B, got %s", output.Snapshot.CurrentSong.ID)
	}
}

func TestPlaybackService_PreviousSongWraps(t *testing.T) {
	playback, _, sessionID := newTestPlayback(t)

	output, err := playback.PreviousSong(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Snapshot.CurrentSong.ID != "C" {
		t.Errorf("expected wrap to last song C, got %s", output.Snapshot.CurrentSong.ID)
	}
}

func TestPlaybackService_ExtractColors(t *testing.T) {
	extracted := domain.ThemeColors{Dominant: "#102030", Accent: "#405060"}
	stored := domain.ThemeColors{Dominant: "#111111", Accent: "#AAAAAA"}

	tests := []struct {
		name      string
		extractor *mockColorExtractor
		imageURL  string
		wantTheme domain.ThemeColors
		wantCalls []string
	}{
		{
			name:      "stored colors without extractor",
			imageURL:  "/covers/other.jpg",
			wantTheme: stored,
		},
		{
			name:      "extracted from current cover",
			extractor: &mockColorExtractor{theme: extracted},
			wantTheme: extracted,
			wantCalls: []string{"/covers/A.jpg"},
		},
		{
			name:      "extracted from given image",
			extractor: &mockColorExtractor{theme: extracted},
			imageURL:  "/covers/other.jpg",
			wantTheme: extracted,
			wantCalls: []string{"/covers/other.jpg"},
		},
		{
			name:      "extraction failure falls back to stored colors",
			extractor: &mockColorExtractor{err: errors.New("decode failed")},
			imageURL:  "https://example.com/cover.jpg",
			wantTheme: stored,
			wantCalls: []string{"https://example.com/cover.jpg"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var playback *PlaybackService
			if tt.extractor != nil {
				playback = NewPlaybackService(newMockRepository(), newTestCatalog(t), nil, tt.extractor, nil)
			} else {
				playback = NewPlaybackService(newMockRepository(), newTestCatalog(t), nil, nil, nil)
			}
			ctx := context.Background()
			sessionID := domain.NewSessionID()
			if _, err := playback.open(ctx, sessionID); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			output, err := playback.ExtractColors(ctx, ExtractColorsInput{
				SessionID: sessionID,
				ImageURL:  tt.imageURL,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if output.Snapshot.Theme != tt.wantTheme {
				t.Errorf("expected theme %+v, got %+v", tt.wantTheme, output.Snapshot.Theme)
			}
			if tt.extractor != nil && !slices.Equal(tt.extractor.calls, tt.wantCalls) {
				t.Errorf("expected extraction from %v, got %v", tt.wantCalls, tt.extractor.calls)
			}
		})
	}
}

func TestPlaybackService_ReportFailure(t *testing.T) {
	playback, publisher, sessionID := newTestPlayback(t)
	ctx := context.Background()

	if _, err := playback.Play(ctx, sessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output, err := playback.ReportFailure(ctx, ReportFailureInput{
		SessionID: sessionID,
		Err:       errors.New("network error"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if output.Snapshot.IsPlaying {
		t.Error("expected playback failure to pause")
	}
	if len(publisher.playbackFailed) != 1 {
		t.Fatalf("expected 1 failure event, got %d", len(publisher.playbackFailed))
	}
	event := publisher.playbackFailed[0]
	if event.SongID != "A" || event.Message != "network error" {
		t.Errorf("unexpected failure event %+v", event)
	}
}

func TestPlaybackService_Close(t *testing.T) {
	publisher := &mockEventPublisher{}
	repo := newMockRepository()
	playback := NewPlaybackService(repo, newTestCatalog(t), publisher, nil, nil)
	ctx := context.Background()
	sessionID := domain.NewSessionID()

	if _, err := playback.open(ctx, sessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := playback.close(ctx, sessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := playback.Play(ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound after close, got %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != sessionID {
		t.Errorf("expected state deleted, got %v", repo.deleted)
	}
	if len(publisher.sessionClosed) != 1 {
		t.Errorf("expected 1 session closed event, got %d", len(publisher.sessionClosed))
	}
	if err := playback.close(ctx, sessionID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second close, got %v", err)
	}
}

func TestPlaybackService_SaveFailure(t *testing.T) {
	repo := newMockRepository()
	playback := NewPlaybackService(repo, newTestCatalog(t), nil, nil, nil)
	ctx := context.Background()
	sessionID := domain.NewSessionID()

	if _, err := playback.open(ctx, sessionID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	repo.saveErr = errors.New("disk full")

	if _, err := playback.Play(ctx, sessionID); err == nil {
		t.Error("expected save failure to be reported")
	}
}

func TestPlaybackService_ConcurrentTransitions(t *testing.T) {
	playback, _, sessionID := newTestPlayback(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = playback.TogglePlay(ctx, sessionID)
		}()
		go func() {
			defer wg.Done()
			_, _ = playback.UpdateTime(ctx, UpdateTimeInput{SessionID: sessionID, Time: time.Duration(i) * time.Second})
		}()
	}
	wg.Wait()

	snapshot, err := playback.Snapshot(ctx, sessionID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 50 toggles from paused end paused.
	if snapshot.IsPlaying {
		t.Error("expected an even number of toggles to leave the session paused")
	}
}
