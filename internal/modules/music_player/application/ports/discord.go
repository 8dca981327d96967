package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// Ports used by listening-party sessions, where a guild's voice channel
// stands in for the visitor's audio element.

// VoiceConnection joins and leaves guild voice channels.
type VoiceConnection interface {
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error
}

// GuildElementFactory creates the media element that plays into a guild's voice channel.
type GuildElementFactory interface {
	NewGuildElement(guildID snowflake.ID) (MediaElement, error)
}

// VoiceStateProvider looks up which voice channel a member is in.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns 0 if the user is not in a voice channel.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}

// UserInfo contains display information for a Discord user.
type UserInfo struct {
	DisplayName string
	AvatarURL   string
}

// UserInfoProvider fetches member display information.
type UserInfoProvider interface {
	GetUserInfo(guildID, userID snowflake.ID) (*UserInfo, error)
}

// NowPlayingInfo contains information for the "Now Playing" notification.
type NowPlayingInfo struct {
	Title         string
	Artist        string
	Album         string
	Duration      string
	CoverURL      string // Absolute URL, empty if unknown
	Color         int    // Dominant theme color as 0xRRGGBB
	IsPreview     bool
	QueueLength   int
	HostName      string
	HostAvatarURL string
}

// NotificationSender posts listening-party notifications to a text channel.
type NotificationSender interface {
	// SendNowPlaying sends a "Now Playing" embed and returns the message ID.
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) (snowflake.ID, error)

	DeleteMessage(channelID, messageID snowflake.ID) error

	SendError(channelID snowflake.ID, message string) error
}

// PartyDirectory looks up where a guild's listening party posts notifications.
type PartyDirectory interface {
	// NotificationTarget returns the text channel and the host of the guild's party.
	NotificationTarget(guildID snowflake.ID) (channelID, hostID snowflake.ID, ok bool)
}
