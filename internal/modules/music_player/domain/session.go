package domain

import (
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/google/uuid"
)

// SessionID identifies one playback session. Each session owns exactly one
// player state and one media element.
type SessionID string

const discordSessionPrefix = "discord:"

// NewSessionID returns a fresh random session ID for a web visitor.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

// DiscordSessionID returns the session ID of a guild's listening party.
func DiscordSessionID(guildID snowflake.ID) SessionID {
	return SessionID(discordSessionPrefix + guildID.String())
}

// GuildID returns the guild a listening-party session belongs to.
// The second result is false for web sessions.
func (id SessionID) GuildID() (snowflake.ID, bool) {
	raw, ok := strings.CutPrefix(string(id), discordSessionPrefix)
	if !ok {
		return 0, false
	}
	guildID, err := snowflake.Parse(raw)
	if err != nil {
		return 0, false
	}
	return guildID, true
}

// ParseWebSessionID validates a session ID received from a web client.
// Only UUIDs are accepted; listening-party sessions are reachable from Discord alone.
func ParseWebSessionID(raw string) (SessionID, bool) {
	if err := uuid.Validate(raw); err != nil {
		return "", false
	}
	return SessionID(raw), true
}

func (id SessionID) String() string {
	return string(id)
}
