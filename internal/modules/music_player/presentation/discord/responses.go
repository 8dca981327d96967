package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
	"github.com/sglre6355/portfolio/internal/site"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

func respondEmbed(r site.Responder, embed *discordgo.MessageEmbed) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func respondSuccess(r site.Responder, description string) error {
	return respondEmbed(r, &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	})
}

func respondError(r site.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func editSuccess(r site.Responder, description string) error {
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{
			{
				Description: description,
				Color:       colorSuccess,
			},
		},
	})
}

func editError(r site.Responder, message string) error {
	return r.Edit(&discordgo.WebhookEdit{
		Embeds: &[]*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}

func nowPlayingEmbed(s domain.PlayerSnapshot, coverURL string) *discordgo.MessageEmbed {
	song := s.CurrentSong

	status := "Paused"
	if s.IsPlaying {
		status = "Playing"
	}
	if s.IsPreviewMode {
		status += " (preview)"
	}

	var flags []string
	if s.IsLooping {
		flags = append(flags, "loop")
	}
	if s.IsShuffling {
		flags = append(flags, "shuffle")
	}
	if len(flags) > 0 {
		status += " · " + strings.Join(flags, ", ")
	}

	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{Name: status},
		Title:  song.Title,
		Color:  themeColor(s.Theme.Dominant),
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Artist", Value: song.Artist, Inline: true},
			{
				Name: "Progress",
				Value: fmt.Sprintf(
					"%s / %s",
					domain.FormatPosition(s.CurrentTime),
					domain.FormatPosition(s.EffectiveDuration),
				),
				Inline: true,
			},
			{Name: "Volume", Value: fmt.Sprintf("%d%%", int(s.Volume*100+0.5)), Inline: true},
		},
	}
	if song.Album != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Album",
			Value:  song.Album,
			Inline: true,
		})
	}
	if len(s.Queue) > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Up next: %s (%d queued)", s.Queue[0].Title, len(s.Queue)),
		}
	}
	if coverURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: coverURL}
	}
	return embed
}

func queueEmbed(output *usecases.QueueListOutput) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Queue",
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d", output.CurrentPage, output.TotalPages),
		},
	}

	var sb strings.Builder
	if song := output.CurrentSong; song != nil {
		sb.WriteString("### Now Playing\n")
		fmt.Fprintf(&sb, "**%s** - %s\n", song.Title, song.Artist)
	}

	if output.TotalSongs == 0 {
		sb.WriteString("Queue is empty.")
		embed.Description = sb.String()
		return embed
	}

	sb.WriteString("### Up Next\n")
	for idx, song := range output.Songs {
		// Escape the period so Discord does not render a markdown list.
		fmt.Fprintf(
			&sb,
			"%d\\. **%s** - %s (%s)\n",
			output.PageStart+idx+1,
			song.Title,
			song.Artist,
			song.FormattedDuration(),
		)
	}
	embed.Description = sb.String()
	embed.Footer.Text += fmt.Sprintf(
		" · %d songs · %s",
		output.TotalSongs,
		domain.FormatPosition(output.TotalDuration),
	)
	return embed
}

func themeColor(hex string) int {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(domain.FallbackDominantColor)
	}
	r, g, b := c.RGB255()
	return int(r)<<16 | int(g)<<8 | int(b)
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
