package domain

import (
	"slices"
	"time"

	"github.com/samber/lo"
)

// SongQueue is the user-ordered list of songs waiting to play; the front plays next.
// Every mutation allocates a fresh backing slice, so copies of a SongQueue never
// observe each other's changes.
type SongQueue struct {
	songs []Song
}

// NewSongQueue creates a queue holding the given songs in order.
func NewSongQueue(songs ...Song) SongQueue {
	return SongQueue{songs: slices.Clone(songs)}
}

// IsEmpty returns true if nothing is queued.
func (q SongQueue) IsEmpty() bool {
	return len(q.songs) == 0
}

// Len returns the number of queued songs.
func (q SongQueue) Len() int {
	return len(q.songs)
}

// List returns a copy of the queued songs, front first.
func (q SongQueue) List() []Song {
	result := make([]Song, len(q.songs))
	copy(result, q.songs)
	return result
}

// Front returns the song that plays next.
func (q SongQueue) Front() (Song, bool) {
	if q.IsEmpty() {
		return Song{}, false
	}
	return q.songs[0], true
}

// TotalDuration returns the combined length of all queued songs.
func (q SongQueue) TotalDuration() time.Duration {
	return lo.SumBy(q.songs, func(s Song) time.Duration { return s.Duration })
}

// Append adds songs to the back of the queue.
func (q *SongQueue) Append(songs ...Song) {
	q.songs = append(slices.Clone(q.songs), songs...)
}

// Prepend adds songs to the front of the queue.
func (q *SongQueue) Prepend(songs ...Song) {
	q.songs = append(slices.Clone(songs), q.songs...)
}

// PopFront removes and returns the front song.
func (q *SongQueue) PopFront() (Song, bool) {
	if q.IsEmpty() {
		return Song{}, false
	}
	front := q.songs[0]
	q.songs = slices.Clone(q.songs[1:])
	return front, true
}

// Remove deletes the first entry matching id and reports whether one was found.
func (q *SongQueue) Remove(id SongID) bool {
	index := slices.IndexFunc(q.songs, func(s Song) bool { return s.ID == id })
	if index < 0 {
		return false
	}
	q.songs = slices.Delete(slices.Clone(q.songs), index, index+1)
	return true
}

// Clear removes every queued song.
func (q *SongQueue) Clear() {
	q.songs = nil
}
