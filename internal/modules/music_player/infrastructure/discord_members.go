package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

var (
	_ ports.VoiceStateProvider = (*DiscordMembers)(nil)
	_ ports.UserInfoProvider   = (*DiscordMembers)(nil)
)

// DiscordMembers answers member lookups from the session state cache,
// falling back to the API for members the cache has not seen.
type DiscordMembers struct {
	session *discordgo.Session
}

// NewDiscordMembers creates a new DiscordMembers.
func NewDiscordMembers(session *discordgo.Session) *DiscordMembers {
	return &DiscordMembers{session: session}
}

// GetUserVoiceChannel implements ports.VoiceStateProvider.
func (m *DiscordMembers) GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error) {
	state, err := m.session.State.VoiceState(guildID.String(), userID.String())
	if err != nil || state.ChannelID == "" {
		// The state cache reports absent voice states as an error.
		return 0, nil
	}
	return snowflake.Parse(state.ChannelID)
}

// GetUserInfo implements ports.UserInfoProvider.
func (m *DiscordMembers) GetUserInfo(guildID, userID snowflake.ID) (*ports.UserInfo, error) {
	member, err := m.session.State.Member(guildID.String(), userID.String())
	if err != nil {
		member, err = m.session.GuildMember(guildID.String(), userID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to fetch guild member: %w", err)
		}
	}

	return &ports.UserInfo{
		DisplayName: displayName(member),
		AvatarURL:   member.AvatarURL(""),
	}, nil
}

// displayName prefers the guild nickname, then the global display name.
func displayName(member *discordgo.Member) string {
	switch {
	case member.Nick != "":
		return member.Nick
	case member.User != nil && member.User.GlobalName != "":
		return member.User.GlobalName
	case member.User != nil:
		return member.User.Username
	default:
		return "unknown"
	}
}
