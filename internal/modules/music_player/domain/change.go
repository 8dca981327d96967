package domain

import "strings"

// Change is a bit set naming the player state fields a transition modified.
type Change uint16

const (
	ChangeSong Change = 1 << iota
	ChangePlaying
	ChangePreview
	ChangeQueue
	ChangeLoop
	ChangeShuffle
	ChangeDarkMode
	ChangeVolume
	ChangeTime
	ChangeDuration
	ChangeTheme

	// ChangeSeek marks an explicit reposition, as opposed to a time report
	// coming back from the media element.
	ChangeSeek
)

// ChangeNone means the transition was a no-op.
const ChangeNone Change = 0

var changeNames = []struct {
	change Change
	name   string
}{
	{ChangeSong, "song"},
	{ChangePlaying, "playing"},
	{ChangePreview, "preview"},
	{ChangeQueue, "queue"},
	{ChangeLoop, "loop"},
	{ChangeShuffle, "shuffle"},
	{ChangeDarkMode, "dark_mode"},
	{ChangeVolume, "volume"},
	{ChangeTime, "time"},
	{ChangeDuration, "duration"},
	{ChangeTheme, "theme"},
	{ChangeSeek, "seek"},
}

// Has returns true if any of the given bits are set.
func (c Change) Has(bits Change) bool {
	return c&bits != 0
}

// Names returns the names of the set bits, for logging and the wire format.
func (c Change) Names() []string {
	names := make([]string, 0)
	for _, cn := range changeNames {
		if c.Has(cn.change) {
			names = append(names, cn.name)
		}
	}
	return names
}

// String returns the set bits joined with "|", or "none".
func (c Change) String() string {
	if c == ChangeNone {
		return "none"
	}
	return strings.Join(c.Names(), "|")
}
