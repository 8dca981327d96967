package discord

import "github.com/bwmarrin/discordgo"

// songOption is the catalog song picker shared by several commands.
func songOption(description string) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:         discordgo.ApplicationCommandOptionString,
		Name:         "song",
		Description:  description,
		Required:     true,
		Autocomplete: true,
	}
}

// Commands returns all slash commands for the music player module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "listen",
			Description: "Start a listening party in a voice channel",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Voice channel to join (defaults to your current channel)",
					Required:    false,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildVoice,
						discordgo.ChannelTypeGuildStageVoice,
					},
				},
			},
		},
		{
			Name:        "leave",
			Description: "End the listening party",
		},
		{
			Name:        "nowplaying",
			Description: "Show the current song",
		},
		{
			Name:        "song",
			Description: "Play a song from the catalog",
			Options:     []*discordgo.ApplicationCommandOption{songOption("Song to play")},
		},
		{
			Name:        "preview",
			Description: "Play a 30 second preview of a song",
			Options:     []*discordgo.ApplicationCommandOption{songOption("Song to preview")},
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "next",
			Description: "Play the next song",
		},
		{
			Name:        "previous",
			Description: "Play the previous song",
		},
		{
			Name:        "queue",
			Description: "Manage the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "add",
					Description: "Add a song to the end of the queue",
					Options:     []*discordgo.ApplicationCommandOption{songOption("Song to add")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "next",
					Description: "Queue a song to play next",
					Options:     []*discordgo.ApplicationCommandOption{songOption("Song to play next")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "remove",
					Description: "Remove a song from the queue",
					Options:     []*discordgo.ApplicationCommandOption{songOption("Queued song to remove")},
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "clear",
					Description: "Clear the queue",
				},
				{
					Type:        discordgo.ApplicationCommandOptionSubCommand,
					Name:        "list",
					Description: "Show the queue",
					Options: []*discordgo.ApplicationCommandOption{
						{
							Type:        discordgo.ApplicationCommandOptionInteger,
							Name:        "page",
							Description: "Page number",
							Required:    false,
							MinValue:    floatPtr(1),
						},
					},
				},
			},
		},
		{
			Name:        "loop",
			Description: "Toggle looping of the current song",
		},
		{
			Name:        "shuffle",
			Description: "Toggle shuffle",
		},
		{
			Name:        "volume",
			Description: "Set the playback volume",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "level",
					Description: "Volume in percent",
					Required:    true,
					MinValue:    floatPtr(0),
					MaxValue:    100,
				},
			},
		},
		{
			Name:        "seek",
			Description: "Jump to a position in the current song",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "position",
					Description: "Position such as 1:30 or 90",
					Required:    true,
				},
			},
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
