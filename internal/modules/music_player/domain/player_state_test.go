package domain

import (
	"math"
	"testing"
	"time"
)

func testSong(id, primary, secondary string) Song {
	return Song{
		ID:             SongID(id),
		Title:          "Song " + id,
		Artist:         "Bradwell",
		Album:          "Album",
		Duration:       3 * time.Minute,
		AudioURL:       "/music/" + id + ".wav",
		PrimaryColor:   primary,
		SecondaryColor: secondary,
	}
}

// newTestCatalog returns the catalog [A, B, C].
func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]Song{
		testSong("A", "#111111", "#AAAAAA"),
		testSong("B", "#222222", "#BBBBBB"),
		testSong("C", "#333333", "#CCCCCC"),
	})
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	return catalog
}

func currentID(t *testing.T, p *PlayerState) SongID {
	t.Helper()
	song, ok := p.CurrentSong()
	if !ok {
		t.Fatal("expected a current song")
	}
	return song.ID
}

func TestNewPlayerState(t *testing.T) {
	state := NewPlayerState("session-1", newTestCatalog(t))

	if got := currentID(t, &state); got != "A" {
		t.Errorf("expected first song A, got %s", got)
	}
	if state.CurrentIndex() != 0 {
		t.Errorf("expected index 0, got %d", state.CurrentIndex())
	}
	if state.IsPlaying() {
		t.Error("expected not playing")
	}
	if state.Volume() != DefaultVolume {
		t.Errorf("expected volume %v, got %v", DefaultVolume, state.Volume())
	}
	if !state.DarkMode() {
		t.Error("expected dark mode on")
	}
	if state.Theme() != (ThemeColors{Dominant: "#111111", Accent: "#AAAAAA"}) {
		t.Errorf("unexpected theme %+v", state.Theme())
	}
	if state.Status() != StatusLoaded {
		t.Errorf("expected status loaded, got %s", state.Status())
	}
}

func TestNewPlayerState_EmptyCatalog(t *testing.T) {
	catalog, err := NewCatalog(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := NewPlayerState("session-1", catalog)

	if _, ok := state.CurrentSong(); ok {
		t.Error("expected no current song")
	}
	if state.Status() != StatusIdle {
		t.Errorf("expected status idle, got %s", state.Status())
	}
	if state.Theme() != DefaultThemeColors() {
		t.Errorf("expected fallback theme, got %+v", state.Theme())
	}

	// Transitions remain total on an empty playlist.
	if change := state.NextSong(SeededPicker(1)); change != ChangeNone {
		t.Errorf("expected no change from NextSong, got %s", change)
	}
	if change := state.PreviousSong(); change != ChangeNone {
		t.Errorf("expected no change from PreviousSong, got %s", change)
	}
	state.Play()
	if state.Status() != StatusIdle {
		t.Errorf("expected idle without a song, got %s", state.Status())
	}
}

func TestPlayerState_PlayPauseToggle(t *testing.T) {
	tests := []struct {
		name        string
		initial     bool
		action      func(*PlayerState) Change
		wantPlaying bool
		wantChange  Change
	}{
		{"play from stopped", false, (*PlayerState).Play, true, ChangePlaying},
		{"play when playing is a no-op", true, (*PlayerState).Play, true, ChangeNone},
		{"pause when playing", true, (*PlayerState).Pause, false, ChangePlaying},
		{"pause when paused is a no-op", false, (*PlayerState).Pause, false, ChangeNone},
		{"toggle from stopped", false, (*PlayerState).TogglePlay, true, ChangePlaying},
		{"toggle from playing", true, (*PlayerState).TogglePlay, false, ChangePlaying},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewPlayerState("s", newTestCatalog(t))
			if tt.initial {
				state.Play()
			}

			change := tt.action(&state)

			if state.IsPlaying() != tt.wantPlaying {
				t.Errorf("expected playing=%v, got %v", tt.wantPlaying, state.IsPlaying())
			}
			if change != tt.wantChange {
				t.Errorf("expected change %s, got %s", tt.wantChange, change)
			}
		})
	}
}

func TestPlayerState_StatusTransitions(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	if state.Status() != StatusLoaded {
		t.Fatalf("expected loaded, got %s", state.Status())
	}

	state.Play()
	if state.Status() != StatusPlaying {
		t.Fatalf("expected playing, got %s", state.Status())
	}

	state.Pause()
	if state.Status() != StatusPaused {
		t.Fatalf("expected paused, got %s", state.Status())
	}

	state.Play()
	state.FailPlayback()
	if state.Status() != StatusPaused {
		t.Fatalf("expected paused after failure, got %s", state.Status())
	}
}

func TestPlayerState_SelectSong(t *testing.T) {
	catalog := newTestCatalog(t)
	state := NewPlayerState("s", catalog)
	state.UpdateTime(42 * time.Second)
	state.PlaySnippet(testSong("B", "", ""))

	songC, _ := catalog.Find("C")
	change := state.SelectSong(songC)

	if got := currentID(t, &state); got != "C" {
		t.Errorf("expected current C, got %s", got)
	}
	if state.CurrentIndex() != 2 {
		t.Errorf("expected index 2, got %d", state.CurrentIndex())
	}
	if state.CurrentTime() != 0 {
		t.Errorf("expected time reset, got %v", state.CurrentTime())
	}
	if !state.IsPlaying() {
		t.Error("expected playing")
	}
	if state.IsPreviewMode() {
		t.Error("expected preview mode cleared")
	}
	if state.Theme() != (ThemeColors{Dominant: "#333333", Accent: "#CCCCCC"}) {
		t.Errorf("unexpected theme %+v", state.Theme())
	}
	if !change.Has(ChangeSong) || !change.Has(ChangePreview) || !change.Has(ChangeTheme) {
		t.Errorf("expected song, preview and theme changes, got %s", change)
	}
}

func TestPlayerState_SelectSong_NotInPlaylist(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))

	state.SelectSong(testSong("Z", "", ""))

	if got := currentID(t, &state); got != "Z" {
		t.Errorf("expected current Z, got %s", got)
	}
	if state.CurrentIndex() != -1 {
		t.Errorf("expected index -1 for unknown song, got %d", state.CurrentIndex())
	}
	if state.Theme() != DefaultThemeColors() {
		t.Errorf("expected fallback theme, got %+v", state.Theme())
	}
}

func TestPlayerState_SelectSong_SameSongReloads(t *testing.T) {
	catalog := newTestCatalog(t)
	state := NewPlayerState("s", catalog)
	songA, _ := catalog.Find("A")

	state.SelectSong(songA)
	state.UpdateTime(10 * time.Second)
	change := state.SelectSong(songA)

	if !change.Has(ChangeSong) {
		t.Errorf("expected reselecting to reload the song, got %s", change)
	}
	if state.CurrentTime() != 0 {
		t.Errorf("expected time reset, got %v", state.CurrentTime())
	}
}

func TestPlayerState_PlaySnippetAndStop(t *testing.T) {
	catalog := newTestCatalog(t)
	state := NewPlayerState("s", catalog)
	state.NextSong(SeededPicker(1)) // index 1

	outsider := testSong("X", "#123456", "#654321")
	state.PlaySnippet(outsider)

	if !state.IsPreviewMode() || !state.IsPlaying() {
		t.Fatal("expected preview playback")
	}
	if state.CurrentIndex() != 1 {
		t.Errorf("expected index to stay at 1, got %d", state.CurrentIndex())
	}

	change := state.StopSnippet()

	if state.IsPreviewMode() || state.IsPlaying() {
		t.Error("expected preview and playback stopped")
	}
	if got := currentID(t, &state); got != "X" {
		t.Errorf("expected song to stay loaded, got %s", got)
	}
	if change.Has(ChangeSong) {
		t.Error("expected StopSnippet not to change the song")
	}
}

func TestPlayerState_NextPrevious_SequentialWrap(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	pick := SeededPicker(7)

	want := []struct {
		id    SongID
		index int
	}{
		{"B", 1},
		{"C", 2},
		{"A", 0},
	}
	for _, w := range want {
		state.NextSong(pick)
		if got := currentID(t, &state); got != w.id {
			t.Fatalf("expected %s, got %s", w.id, got)
		}
		if state.CurrentIndex() != w.index {
			t.Fatalf("expected index %d, got %d", w.index, state.CurrentIndex())
		}
	}

	state.PreviousSong()
	if got := currentID(t, &state); got != "C" || state.CurrentIndex() != 2 {
		t.Errorf("expected wrap back to C at 2, got %s at %d", got, state.CurrentIndex())
	}
	state.PreviousSong()
	if got := currentID(t, &state); got != "B" || state.CurrentIndex() != 1 {
		t.Errorf("expected B at 1, got %s at %d", got, state.CurrentIndex())
	}
}

func TestPlayerState_NextSong_KeepsPlayingFlag(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))

	state.NextSong(SeededPicker(1))
	if state.IsPlaying() {
		t.Error("expected NextSong not to start playback")
	}

	state.Play()
	change := state.NextSong(SeededPicker(1))
	if !state.IsPlaying() {
		t.Error("expected NextSong not to stop playback")
	}
	if change.Has(ChangePlaying) {
		t.Errorf("expected no playing change, got %s", change)
	}
}

func TestPlayerState_PreviousSong_FromUnknownIndexWrapsToLast(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.SelectSong(testSong("Z", "", ""))

	state.PreviousSong()

	if got := currentID(t, &state); got != "C" {
		t.Errorf("expected last song C, got %s", got)
	}
}

func TestPlayerState_PreviousSong_IgnoresQueueAndKeepsPreview(t *testing.T) {
	catalog := newTestCatalog(t)
	state := NewPlayerState("s", catalog)
	state.AddToQueue(testSong("Q", "", ""))
	state.PlaySnippet(testSong("X", "", ""))

	state.PreviousSong()

	if got := currentID(t, &state); got != "C" {
		t.Errorf("expected C, got %s", got)
	}
	if state.Queue().Len() != 1 {
		t.Errorf("expected queue untouched, got %d entries", state.Queue().Len())
	}
	if !state.IsPreviewMode() {
		t.Error("expected preview mode to be kept")
	}
}

func TestPlayerState_NextSong_QueuePreemption(t *testing.T) {
	catalog := newTestCatalog(t)
	state := NewPlayerState("s", catalog)
	state.ToggleShuffle()
	x := testSong("X", "#010101", "#020202")
	y := testSong("Y", "", "")
	state.AddToQueue(x)
	state.AddToQueue(y)

	state.NextSong(SeededPicker(3))
	if got := currentID(t, &state); got != "X" {
		t.Fatalf("expected X, got %s", got)
	}
	if state.Queue().Len() != 1 {
		t.Fatalf("expected queue [Y], got %d entries", state.Queue().Len())
	}
	if state.Theme() != (ThemeColors{Dominant: "#010101", Accent: "#020202"}) {
		t.Errorf("expected theme from X, got %+v", state.Theme())
	}

	state.NextSong(SeededPicker(3))
	if got := currentID(t, &state); got != "Y" {
		t.Fatalf("expected Y, got %s", got)
	}
	if !state.Queue().IsEmpty() {
		t.Fatal("expected empty queue")
	}
	if state.CurrentIndex() != 0 {
		t.Errorf("expected queue pops to keep index 0, got %d", state.CurrentIndex())
	}
}

func TestPlayerState_NextSong_FallsBackToSequentialAfterQueue(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.AddToQueue(testSong("X", "", ""))
	state.AddToQueue(testSong("Y", "", ""))
	pick := SeededPicker(1)

	state.NextSong(pick)
	state.NextSong(pick)
	state.NextSong(pick)

	if got := currentID(t, &state); got != "B" {
		t.Errorf("expected sequential advance from A to B, got %s", got)
	}
}

func TestPlayerState_PlayNextThenNext(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.AddToQueue(testSong("X", "", ""))
	state.PlayNext(testSong("P", "", ""))

	state.NextSong(SeededPicker(1))

	if got := currentID(t, &state); got != "P" {
		t.Errorf("expected front-inserted P, got %s", got)
	}
}

func TestPlayerState_AddToQueue_FIFO(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	ids := []string{"Q1", "Q2", "Q3", "Q4"}
	for _, id := range ids {
		state.AddToQueue(testSong(id, "", ""))
	}

	for _, id := range ids {
		state.NextSong(SeededPicker(1))
		if got := currentID(t, &state); got != SongID(id) {
			t.Fatalf("expected %s, got %s", id, got)
		}
	}
}

// Shuffle draws with replacement, so the same index may come up repeatedly,
// including the song that just played. This is kept on purpose.
func TestPlayerState_Shuffle_DrawsWithReplacement(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.ToggleShuffle()

	alwaysFirst := func(n int) int { return 0 }
	state.NextSong(alwaysFirst)
	state.NextSong(alwaysFirst)

	if got := currentID(t, &state); got != "A" {
		t.Errorf("expected A to repeat, got %s", got)
	}
	if state.CurrentIndex() != 0 {
		t.Errorf("expected index 0, got %d", state.CurrentIndex())
	}
}

func TestPlayerState_Shuffle_UsesPickerRange(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.ToggleShuffle()

	var gotN int
	state.NextSong(func(n int) int {
		gotN = n
		return 2
	})

	if gotN != 3 {
		t.Errorf("expected picker range 3, got %d", gotN)
	}
	if got := currentID(t, &state); got != "C" {
		t.Errorf("expected C, got %s", got)
	}
}

func TestPlayerState_RemoveFromQueue(t *testing.T) {
	tests := []struct {
		name       string
		queue      []string
		remove     SongID
		want       []SongID
		wantChange bool
	}{
		{"removes match", []string{"X", "Y"}, "X", []SongID{"Y"}, true},
		{"removes only the first duplicate", []string{"X", "Y", "X"}, "X", []SongID{"Y", "X"}, true},
		{"absent id is a no-op", []string{"X"}, "Z", []SongID{"X"}, false},
		{"empty queue is a no-op", nil, "X", []SongID{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewPlayerState("s", newTestCatalog(t))
			for _, id := range tt.queue {
				state.AddToQueue(testSong(id, "", ""))
			}

			change := state.RemoveFromQueue(tt.remove)

			got := state.Queue().List()
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i].ID != tt.want[i] {
					t.Errorf("entry %d: expected %s, got %s", i, tt.want[i], got[i].ID)
				}
			}
			if change.Has(ChangeQueue) != tt.wantChange {
				t.Errorf("expected queue change=%v, got %s", tt.wantChange, change)
			}
		})
	}
}

func TestPlayerState_ClearQueue(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.AddToQueue(testSong("X", "", ""))

	if change := state.ClearQueue(); !change.Has(ChangeQueue) {
		t.Errorf("expected queue change, got %s", change)
	}
	if !state.Queue().IsEmpty() {
		t.Error("expected empty queue")
	}
	if change := state.ClearQueue(); change != ChangeNone {
		t.Errorf("expected clearing an empty queue to be a no-op, got %s", change)
	}
}

func TestPlayerState_Toggles(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))

	if change := state.ToggleLoop(); change != ChangeLoop || !state.IsLooping() {
		t.Errorf("expected loop on, got %s", change)
	}
	if change := state.ToggleShuffle(); change != ChangeShuffle || !state.IsShuffling() {
		t.Errorf("expected shuffle on, got %s", change)
	}
	if change := state.ToggleDarkMode(); change != ChangeDarkMode || state.DarkMode() {
		t.Errorf("expected dark mode off, got %s", change)
	}
}

func TestPlayerState_SetVolume(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"in range", 0.25, 0.25},
		{"clamped high", 1.5, 1},
		{"clamped low", -0.2, 0},
		{"NaN ignored", math.NaN(), DefaultVolume},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewPlayerState("s", newTestCatalog(t))
			state.SetVolume(tt.in)
			if state.Volume() != tt.want {
				t.Errorf("expected volume %v, got %v", tt.want, state.Volume())
			}
		})
	}
}

func TestPlayerState_SeekTo(t *testing.T) {
	tests := []struct {
		name    string
		preview bool
		seek    time.Duration
		want    time.Duration
	}{
		{"within duration", false, 90 * time.Second, 90 * time.Second},
		{"negative clamps to zero", false, -5 * time.Second, 0},
		{"past end clamps to duration", false, 10 * time.Minute, 3 * time.Minute},
		{"preview clamps to preview length", true, 90 * time.Second, PreviewLength},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := newTestCatalog(t)
			state := NewPlayerState("s", catalog)
			if tt.preview {
				song, _ := catalog.Find("B")
				state.PlaySnippet(song)
			}

			change := state.SeekTo(tt.seek)

			if state.CurrentTime() != tt.want {
				t.Errorf("expected time %v, got %v", tt.want, state.CurrentTime())
			}
			if !change.Has(ChangeSeek) {
				t.Errorf("expected seek change, got %s", change)
			}
		})
	}
}

func TestPlayerState_SeekTo_SamePositionStillSeeks(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))

	change := state.SeekTo(0)

	if change != ChangeSeek {
		t.Errorf("expected only seek change, got %s", change)
	}
}

func TestPlayerState_UpdateDuration(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.UpdateTime(2 * time.Minute)

	change := state.UpdateDuration(time.Minute)

	if state.Duration() != time.Minute {
		t.Errorf("expected duration 1m, got %v", state.Duration())
	}
	if state.CurrentTime() != time.Minute {
		t.Errorf("expected time clamped to 1m, got %v", state.CurrentTime())
	}
	if !change.Has(ChangeDuration) || !change.Has(ChangeTime) {
		t.Errorf("expected duration and time changes, got %s", change)
	}
}

func TestPlayerState_UpdateTime_UnknownDurationNotCapped(t *testing.T) {
	catalog, err := NewCatalog([]Song{{ID: "1", Title: "One", AudioURL: "/music/1.wav"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state := NewPlayerState("s", catalog)

	state.UpdateTime(12 * time.Second)

	if state.CurrentTime() != 12*time.Second {
		t.Errorf("expected 12s, got %v", state.CurrentTime())
	}
}

func TestPlayerState_ExtractColors(t *testing.T) {
	tests := []struct {
		name      string
		song      Song
		wantTheme ThemeColors
	}{
		{
			name:      "copies both stored colors",
			song:      testSong("X", "#101010", "#202020"),
			wantTheme: ThemeColors{Dominant: "#101010", Accent: "#202020"},
		},
		{
			name:      "keeps theme when a color is missing",
			song:      testSong("Y", "#101010", ""),
			wantTheme: ThemeColors{Dominant: "#abcdef", Accent: "#fedcba"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := NewPlayerState("s", newTestCatalog(t))
			state.SelectSong(tt.song)
			state.ApplyTheme(ThemeColors{Dominant: "#abcdef", Accent: "#fedcba"})

			state.ExtractColors()

			if state.Theme() != tt.wantTheme {
				t.Errorf("expected theme %+v, got %+v", tt.wantTheme, state.Theme())
			}
		})
	}
}

func TestPlayerState_FailPlayback(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.Play()

	change := state.FailPlayback()

	if state.IsPlaying() {
		t.Error("expected playback forced off")
	}
	if change != ChangePlaying {
		t.Errorf("expected playing change, got %s", change)
	}
}

func TestPlayerState_SnapshotIsIsolated(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.AddToQueue(testSong("X", "", ""))

	snapshot := state.Snapshot()
	state.ClearQueue()
	state.NextSong(SeededPicker(1))

	if len(snapshot.Queue) != 1 {
		t.Errorf("expected snapshot queue to keep 1 entry, got %d", len(snapshot.Queue))
	}
	if snapshot.CurrentSong == nil || snapshot.CurrentSong.ID != "A" {
		t.Errorf("expected snapshot song A, got %+v", snapshot.CurrentSong)
	}
}

func TestPlayerState_CopiesDoNotShareQueue(t *testing.T) {
	state := NewPlayerState("s", newTestCatalog(t))
	state.AddToQueue(testSong("X", "", ""))

	saved := state
	state.RemoveFromQueue("X")
	state.AddToQueue(testSong("Y", "", ""))

	front, ok := saved.Queue().Front()
	if !ok || front.ID != "X" {
		t.Errorf("expected saved copy to keep X, got %+v", front)
	}
}

// Every song in a catalog recolors the theme to exactly its stored pair.
func TestPlayerState_SelectRecolorsForEverySong(t *testing.T) {
	catalog := newTestCatalog(t)
	state := NewPlayerState("s", catalog)

	for _, song := range catalog.Songs() {
		state.SelectSong(song)
		want := ThemeColors{Dominant: song.PrimaryColor, Accent: song.SecondaryColor}
		if state.Theme() != want {
			t.Errorf("song %s: expected %+v, got %+v", song.ID, want, state.Theme())
		}
	}
}
