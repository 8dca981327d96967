package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

// Embed colors.
const (
	colorRed = 0xE74C3C
)

var _ ports.NotificationSender = (*Notifier)(nil)

// Notifier sends listening-party notifications to Discord channels.
type Notifier struct {
	session *discordgo.Session
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

// SendNowPlaying sends a "Now Playing" embed to the channel and returns the message ID.
func (n *Notifier) SendNowPlaying(channelID snowflake.ID, info *ports.NowPlayingInfo) (snowflake.ID, error) {
	msg, err := n.session.ChannelMessageSendEmbed(channelID.String(), NowPlayingEmbed(info))
	if err != nil {
		return 0, err
	}
	return snowflake.Parse(msg.ID)
}

// DeleteMessage deletes a message from the channel.
func (n *Notifier) DeleteMessage(channelID, messageID snowflake.ID) error {
	return n.session.ChannelMessageDelete(channelID.String(), messageID.String())
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// NowPlayingEmbed renders the "Now Playing" embed, tinted with the song's theme.
func NowPlayingEmbed(info *ports.NowPlayingInfo) *discordgo.MessageEmbed {
	heading := "Now Playing"
	if info.IsPreview {
		heading = "Now Previewing"
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{Name: heading},
		Title:  info.Title,
		Color:  info.Color,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: info.Artist, Inline: true},
			{Name: "Duration", Value: info.Duration, Inline: true},
		},
	}

	if info.Album != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Album",
			Value:  info.Album,
			Inline: true,
		})
	}
	if info.QueueLength > 0 {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Up Next",
			Value: fmt.Sprintf("%d queued", info.QueueLength),
		})
	}
	if info.CoverURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: info.CoverURL}
	}
	if info.HostName != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text:    fmt.Sprintf("Hosted by %s", info.HostName),
			IconURL: info.HostAvatarURL,
		}
	}

	return embed
}
