package domain

import (
	"math"
	"math/rand/v2"
	"slices"
	"time"
)

// DefaultVolume is the volume a new session starts with.
const DefaultVolume = 0.7

// Picker returns a uniformly chosen index in [0, n).
type Picker func(n int) int

// RandomPicker draws from the global random source.
func RandomPicker() Picker {
	return rand.IntN
}

// SeededPicker returns a deterministic picker, for tests and reproducible runs.
func SeededPicker(seed uint64) Picker {
	r := rand.New(rand.NewPCG(seed, seed))
	return r.IntN
}

// PlayerState is the playback state of one session.
// Every transition is total: it is defined for every reachable state and
// reports the fields it touched as a Change.
type PlayerState struct {
	sessionID SessionID
	playlist  *Catalog

	currentSong  *Song
	currentIndex int // Position of currentSong in playlist, -1 if not a member
	queue        SongQueue
	loads        uint64 // Incremented on every song load
	started      bool   // Playback began since the last load

	isPlaying     bool
	isPreviewMode bool
	isLooping     bool
	isShuffling   bool
	darkMode      bool
	volume        float64
	currentTime   time.Duration
	duration      time.Duration
	theme         ThemeColors
}

// NewPlayerState creates the initial state of a session: the first catalog
// song loaded, paused at 0, dark mode on.
func NewPlayerState(sessionID SessionID, playlist *Catalog) PlayerState {
	state := PlayerState{
		sessionID:    sessionID,
		playlist:     playlist,
		currentIndex: -1,
		darkMode:     true,
		volume:       DefaultVolume,
		theme:        DefaultThemeColors(),
	}

	if first, ok := playlist.At(0); ok {
		state.load(first, 0)
	}

	return state
}

// SessionID returns the owning session.
func (p *PlayerState) SessionID() SessionID {
	// No setter: the session must not change after initialization
	return p.sessionID
}

// CurrentSong returns the loaded song, if any.
func (p *PlayerState) CurrentSong() (Song, bool) {
	if p.currentSong == nil {
		return Song{}, false
	}
	return *p.currentSong, true
}

// CurrentIndex returns the playlist position of the current song.
func (p *PlayerState) CurrentIndex() int {
	return p.currentIndex
}

// Queue returns the pending queue.
func (p *PlayerState) Queue() SongQueue {
	return p.queue
}

// IsPlaying returns true if playback is requested.
func (p *PlayerState) IsPlaying() bool {
	return p.isPlaying
}

// IsPreviewMode returns true while a snippet is playing.
func (p *PlayerState) IsPreviewMode() bool {
	return p.isPreviewMode
}

// IsLooping returns true if the current song restarts on natural end.
func (p *PlayerState) IsLooping() bool {
	return p.isLooping
}

// IsShuffling returns true if sequential advance picks random songs.
func (p *PlayerState) IsShuffling() bool {
	return p.isShuffling
}

// DarkMode returns the presentation dark mode flag.
func (p *PlayerState) DarkMode() bool {
	return p.darkMode
}

// Volume returns the volume in [0, 1].
func (p *PlayerState) Volume() float64 {
	return p.volume
}

// CurrentTime returns the logical playback position.
func (p *PlayerState) CurrentTime() time.Duration {
	return p.currentTime
}

// Duration returns the known length of the current song.
func (p *PlayerState) Duration() time.Duration {
	return p.duration
}

// Theme returns the derived theme colors.
func (p *PlayerState) Theme() ThemeColors {
	return p.theme
}

// Status derives the session state machine from the flags.
func (p *PlayerState) Status() PlaybackStatus {
	switch {
	case p.currentSong == nil:
		return StatusIdle
	case p.isPlaying:
		return StatusPlaying
	case p.started:
		return StatusPaused
	default:
		return StatusLoaded
	}
}

// Play requests playback.
func (p *PlayerState) Play() Change {
	return p.mutate(func() { p.setPlaying(true) })
}

// Pause stops playback, keeping the position.
func (p *PlayerState) Pause() Change {
	return p.mutate(func() { p.setPlaying(false) })
}

// TogglePlay flips the playing flag.
func (p *PlayerState) TogglePlay() Change {
	return p.mutate(func() { p.setPlaying(!p.isPlaying) })
}

// SelectSong loads a song for full playback and starts it.
// A song outside the playlist leaves the index at -1.
func (p *PlayerState) SelectSong(song Song) Change {
	return p.mutate(func() {
		p.load(song, p.playlist.IndexOf(song.ID))
		p.isPreviewMode = false
		p.setPlaying(true)
	})
}

// PlaySnippet loads a song in preview mode and starts it.
// The song does not need to be in the playlist, and the index is left alone.
func (p *PlayerState) PlaySnippet(song Song) Change {
	return p.mutate(func() {
		p.load(song, p.currentIndex)
		p.isPreviewMode = true
		p.setPlaying(true)
	})
}

// StopSnippet leaves preview mode and stops playback. The song stays loaded.
func (p *PlayerState) StopSnippet() Change {
	return p.mutate(func() {
		p.setPlaying(false)
		p.isPreviewMode = false
	})
}

// NextSong advances playback. A queued song always wins; otherwise the
// playlist advances sequentially with wrap-around, or to a random index
// drawn with replacement when shuffling. The playing flag is left as is.
func (p *PlayerState) NextSong(pick Picker) Change {
	return p.mutate(func() {
		if next, ok := p.queue.PopFront(); ok {
			p.load(next, p.currentIndex)
			p.isPreviewMode = false
			return
		}

		n := p.playlist.Len()
		if n == 0 {
			return
		}

		var index int
		if p.isShuffling {
			index = pick(n)
		} else {
			index = (p.currentIndex + 1) % n
		}

		next, _ := p.playlist.At(index)
		p.load(next, index)
		p.isPreviewMode = false
	})
}

// PreviousSong steps back through the playlist with wrap-around.
// It ignores the queue and keeps preview mode as it was.
func (p *PlayerState) PreviousSong() Change {
	return p.mutate(func() {
		n := p.playlist.Len()
		if n == 0 {
			return
		}

		index := p.currentIndex - 1
		if p.currentIndex <= 0 {
			index = n - 1
		}

		prev, _ := p.playlist.At(index)
		p.load(prev, index)
	})
}

// AddToQueue appends a song to the back of the queue.
func (p *PlayerState) AddToQueue(song Song) Change {
	return p.mutate(func() { p.queue.Append(song) })
}

// PlayNext inserts a song at the front of the queue.
func (p *PlayerState) PlayNext(song Song) Change {
	return p.mutate(func() { p.queue.Prepend(song) })
}

// RemoveFromQueue removes the first queued entry with the given ID.
// Removing an absent ID is a no-op.
func (p *PlayerState) RemoveFromQueue(id SongID) Change {
	return p.mutate(func() { p.queue.Remove(id) })
}

// ClearQueue empties the queue.
func (p *PlayerState) ClearQueue() Change {
	return p.mutate(func() { p.queue.Clear() })
}

// ToggleLoop flips the loop flag.
func (p *PlayerState) ToggleLoop() Change {
	return p.mutate(func() { p.isLooping = !p.isLooping })
}

// ToggleShuffle flips the shuffle flag.
func (p *PlayerState) ToggleShuffle() Change {
	return p.mutate(func() { p.isShuffling = !p.isShuffling })
}

// ToggleDarkMode flips the dark mode flag.
func (p *PlayerState) ToggleDarkMode() Change {
	return p.mutate(func() { p.darkMode = !p.darkMode })
}

// SetVolume sets the volume, clamped to [0, 1]. NaN is ignored.
func (p *PlayerState) SetVolume(v float64) Change {
	return p.mutate(func() {
		if math.IsNaN(v) {
			return
		}
		p.volume = math.Max(0, math.Min(1, v))
	})
}

// SeekTo repositions playback. The result always carries ChangeSeek so the
// media element is repositioned even when the logical time is unchanged.
func (p *PlayerState) SeekTo(t time.Duration) Change {
	change := p.mutate(func() { p.currentTime = p.clampTime(t) })
	return change | ChangeSeek
}

// ExtractColors re-derives the theme from the current song. The stored pair
// is copied only when both colors are present; otherwise the theme is kept.
func (p *PlayerState) ExtractColors() Change {
	return p.mutate(func() {
		if p.currentSong != nil && p.currentSong.HasColors() {
			p.theme = ThemeColors{
				Dominant: p.currentSong.PrimaryColor,
				Accent:   p.currentSong.SecondaryColor,
			}
		}
	})
}

// ApplyTheme replaces the theme with colors extracted from cover art.
func (p *PlayerState) ApplyTheme(theme ThemeColors) Change {
	return p.mutate(func() {
		if theme.Dominant == "" || theme.Accent == "" {
			return
		}
		p.theme = theme
	})
}

// UpdateTime records the elapsed time reported by the media element.
func (p *PlayerState) UpdateTime(t time.Duration) Change {
	return p.mutate(func() { p.currentTime = p.clampTime(t) })
}

// UpdateDuration records the total length reported by the media element.
func (p *PlayerState) UpdateDuration(d time.Duration) Change {
	return p.mutate(func() {
		p.duration = max(d, 0)
		p.currentTime = p.clampTime(p.currentTime)
	})
}

// FailPlayback forces playback off after a media error.
func (p *PlayerState) FailPlayback() Change {
	return p.mutate(func() {
		p.isPlaying = false
		if p.currentSong != nil {
			p.started = true
		}
	})
}

// EffectiveDuration is the playable length: the known duration, capped to
// the preview length in preview mode. Zero means unknown.
func (p *PlayerState) EffectiveDuration() time.Duration {
	if p.isPreviewMode && (p.duration == 0 || p.duration > PreviewLength) {
		return PreviewLength
	}
	return p.duration
}

// Snapshot returns a value copy safe to hand to other goroutines.
func (p *PlayerState) Snapshot() PlayerSnapshot {
	var song *Song
	if p.currentSong != nil {
		s := *p.currentSong
		song = &s
	}

	return PlayerSnapshot{
		SessionID:         p.sessionID,
		Status:            p.Status(),
		CurrentSong:       song,
		CurrentIndex:      p.currentIndex,
		Queue:             p.queue.List(),
		IsPlaying:         p.isPlaying,
		IsPreviewMode:     p.isPreviewMode,
		IsLooping:         p.isLooping,
		IsShuffling:       p.isShuffling,
		DarkMode:          p.darkMode,
		Volume:            p.volume,
		CurrentTime:       p.currentTime,
		Duration:          p.duration,
		EffectiveDuration: p.EffectiveDuration(),
		Theme:             p.theme,
	}
}

func (p *PlayerState) setPlaying(playing bool) {
	p.isPlaying = playing
	if playing && p.currentSong != nil {
		p.started = true
	}
}

// load makes song current, resets the position and recolors the theme.
// The duration is provisional until the media element reports metadata.
func (p *PlayerState) load(song Song, index int) {
	p.currentSong = &song
	p.currentIndex = index
	p.currentTime = 0
	p.duration = song.Duration
	p.theme = ThemeFor(song)
	p.started = false
	p.loads++
}

func (p *PlayerState) clampTime(t time.Duration) time.Duration {
	if t < 0 {
		return 0
	}
	if limit := p.EffectiveDuration(); limit > 0 && t > limit {
		return limit
	}
	return t
}

func (p *PlayerState) mutate(fn func()) Change {
	before := *p
	fn()
	return p.diff(&before)
}

func (p *PlayerState) diff(before *PlayerState) Change {
	var c Change
	if p.loads != before.loads {
		c |= ChangeSong
	}
	if p.isPlaying != before.isPlaying {
		c |= ChangePlaying
	}
	if p.isPreviewMode != before.isPreviewMode {
		c |= ChangePreview
	}
	if !slices.EqualFunc(p.queue.songs, before.queue.songs, func(a, b Song) bool {
		return a.ID == b.ID
	}) {
		c |= ChangeQueue
	}
	if p.isLooping != before.isLooping {
		c |= ChangeLoop
	}
	if p.isShuffling != before.isShuffling {
		c |= ChangeShuffle
	}
	if p.darkMode != before.darkMode {
		c |= ChangeDarkMode
	}
	if p.volume != before.volume {
		c |= ChangeVolume
	}
	if p.currentTime != before.currentTime {
		c |= ChangeTime
	}
	if p.duration != before.duration {
		c |= ChangeDuration
	}
	if p.theme != before.theme {
		c |= ChangeTheme
	}
	return c
}

// PlayerSnapshot is an immutable view of a PlayerState.
type PlayerSnapshot struct {
	SessionID         SessionID
	Status            PlaybackStatus
	CurrentSong       *Song
	CurrentIndex      int
	Queue             []Song
	IsPlaying         bool
	IsPreviewMode     bool
	IsLooping         bool
	IsShuffling       bool
	DarkMode          bool
	Volume            float64
	CurrentTime       time.Duration
	Duration          time.Duration
	EffectiveDuration time.Duration
	Theme             ThemeColors
}
