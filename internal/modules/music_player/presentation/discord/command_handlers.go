package discord

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
	"github.com/sglre6355/portfolio/internal/site"
)

var (
	errInvalidGuild    = errors.New("invalid guild")
	errInvalidPosition = errors.New("position must look like 1:30 or 90")
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	parties  *usecases.ListeningPartyService
	catalog  *usecases.CatalogService
	playback *usecases.PlaybackService
	queue    *usecases.QueueService
	settings *usecases.SettingsService

	publicBaseURL string
}

// NewCommandHandlers creates new CommandHandlers.
// publicBaseURL turns catalog-relative cover URLs into absolute ones.
func NewCommandHandlers(
	parties *usecases.ListeningPartyService,
	catalog *usecases.CatalogService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	settings *usecases.SettingsService,
	publicBaseURL string,
) *CommandHandlers {
	return &CommandHandlers{
		parties:       parties,
		catalog:       catalog,
		playback:      playback,
		queue:         queue,
		settings:      settings,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// Handlers returns the command handlers keyed by command name.
func (h *CommandHandlers) Handlers() map[string]site.InteractionHandler {
	return map[string]site.InteractionHandler{
		"listen":     h.HandleListen,
		"leave":      h.HandleLeave,
		"nowplaying": h.HandleNowPlaying,
		"song":       h.HandleSong,
		"preview":    h.HandlePreview,
		"pause":      h.HandlePause,
		"resume":     h.HandleResume,
		"next":       h.HandleNext,
		"previous":   h.HandlePrevious,
		"queue":      h.HandleQueue,
		"loop":       h.HandleLoop,
		"shuffle":    h.HandleShuffle,
		"volume":     h.HandleVolume,
		"seek":       h.HandleSeek,
	}
}

// HandleListen handles the /listen command. Joining voice can take a while,
// so the response is deferred.
func (h *CommandHandlers) HandleListen(
	s *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}
	if i.Member == nil || i.Member.User == nil {
		return respondError(r, "Invalid user")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}
	notificationChannelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return respondError(r, "Invalid notification channel")
	}

	var voiceChannelID snowflake.ID
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "channel" {
			voiceChannelID, err = snowflake.Parse(opt.ChannelValue(s).ID)
			if err != nil {
				return respondError(r, "Invalid voice channel")
			}
		}
	}

	if err := r.Defer(); err != nil {
		return err
	}

	output, err := h.parties.Join(ctx, usecases.JoinInput{
		GuildID:               guildID,
		UserID:                userID,
		NotificationChannelID: notificationChannelID,
		VoiceChannelID:        voiceChannelID,
	})
	if err != nil {
		return editError(r, err.Error())
	}

	description := fmt.Sprintf("Listening party started in <#%d>.", output.VoiceChannelID)
	if song := output.Snapshot.CurrentSong; song != nil {
		description += fmt.Sprintf("\nCurrent song: **%s** by %s.", song.Title, song.Artist)
	} else {
		description += "\nPick something with `/song`."
	}
	return editSuccess(r, description)
}

// HandleLeave handles the /leave command.
func (h *CommandHandlers) HandleLeave(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.parties.Leave(context.Background(), usecases.LeaveInput{GuildID: guildID}); err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, "Listening party ended.")
}

// HandleNowPlaying handles the /nowplaying command.
func (h *CommandHandlers) HandleNowPlaying(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	sessionID, err := h.sessionFor(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	snapshot, err := h.playback.Snapshot(context.Background(), sessionID)
	if err != nil {
		return respondError(r, err.Error())
	}
	if snapshot.CurrentSong == nil {
		return respondError(r, "Nothing is playing.")
	}
	return respondEmbed(r, nowPlayingEmbed(snapshot, h.absoluteURL(snapshot.CurrentSong.CoverURL)))
}

// HandleSong handles the /song command.
func (h *CommandHandlers) HandleSong(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.withSong(i, r, func(ctx context.Context, sessionID domain.SessionID, song domain.Song) error {
		if _, err := h.playback.SelectSong(ctx, usecases.SelectSongInput{SessionID: sessionID, SongID: song.ID}); err != nil {
			return respondError(r, err.Error())
		}
		return respondSuccess(r, fmt.Sprintf("Playing **%s** by %s.", song.Title, song.Artist))
	})
}

// HandlePreview handles the /preview command.
func (h *CommandHandlers) HandlePreview(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.withSong(i, r, func(ctx context.Context, sessionID domain.SessionID, song domain.Song) error {
		if _, err := h.playback.PlaySnippet(ctx, usecases.PlaySnippetInput{SessionID: sessionID, SongID: song.ID}); err != nil {
			return respondError(r, err.Error())
		}
		return respondSuccess(r, fmt.Sprintf(
			"Previewing **%s** for %s.",
			song.Title,
			domain.FormatPosition(domain.PreviewLength),
		))
	})
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.transition(i, r, h.playback.Pause, func(domain.PlayerSnapshot) string {
		return "Paused."
	})
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.transition(i, r, h.playback.Play, func(s domain.PlayerSnapshot) string {
		if s.CurrentSong == nil {
			return "Nothing to resume. Pick something with `/song`."
		}
		return "Resumed."
	})
}

// HandleNext handles the /next command.
func (h *CommandHandlers) HandleNext(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.transition(i, r, h.playback.NextSong, describeCurrent)
}

// HandlePrevious handles the /previous command.
func (h *CommandHandlers) HandlePrevious(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.transition(i, r, h.playback.PreviousSong, describeCurrent)
}

// HandleLoop handles the /loop command.
func (h *CommandHandlers) HandleLoop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.transition(i, r, h.settings.ToggleLoop, func(s domain.PlayerSnapshot) string {
		if s.IsLooping {
			return "Now looping the current song."
		}
		return "Loop disabled."
	})
}

// HandleShuffle handles the /shuffle command.
func (h *CommandHandlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	return h.transition(i, r, h.settings.ToggleShuffle, func(s domain.PlayerSnapshot) string {
		if s.IsShuffling {
			return "Shuffle enabled."
		}
		return "Shuffle disabled."
	})
}

// HandleVolume handles the /volume command.
func (h *CommandHandlers) HandleVolume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	var level int64 = -1
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "level" {
			level = opt.IntValue()
		}
	}
	if level < 0 || level > 100 {
		return respondError(r, "Volume must be between 0 and 100")
	}

	return h.transition(i, r,
		func(ctx context.Context, sessionID domain.SessionID) (*usecases.TransitionOutput, error) {
			return h.settings.SetVolume(ctx, usecases.SetVolumeInput{
				SessionID: sessionID,
				Volume:    float64(level) / 100,
			})
		},
		func(s domain.PlayerSnapshot) string {
			return fmt.Sprintf("Volume set to %d%%.", int(s.Volume*100+0.5))
		},
	)
}

// HandleSeek handles the /seek command.
func (h *CommandHandlers) HandleSeek(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	var raw string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "position" {
			raw = opt.StringValue()
		}
	}
	position, err := parsePosition(raw)
	if err != nil {
		return respondError(r, err.Error())
	}

	return h.transition(i, r,
		func(ctx context.Context, sessionID domain.SessionID) (*usecases.TransitionOutput, error) {
			return h.playback.SeekTo(ctx, usecases.SeekInput{SessionID: sessionID, Position: position})
		},
		func(s domain.PlayerSnapshot) string {
			if s.CurrentSong == nil {
				return "Nothing is playing."
			}
			return fmt.Sprintf(
				"Jumped to %s / %s.",
				domain.FormatPosition(s.CurrentTime),
				domain.FormatPosition(s.EffectiveDuration),
			)
		},
	)
}

// HandleQueue handles the /queue command and its subcommands.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r site.Responder,
) error {
	options := i.ApplicationCommandData().Options
	if len(options) == 0 {
		return respondError(r, "Invalid subcommand")
	}

	sub := options[0]
	switch sub.Name {
	case "add":
		return h.handleQueueAdd(i, r, sub, h.queue.Add, "Added **%s** to the queue (position %d).")
	case "next":
		return h.handleQueueAdd(i, r, sub, h.queue.PlayNext, "**%s** will play next (position %d).")
	case "remove":
		return h.handleQueueRemove(i, r, sub)
	case "clear":
		return h.handleQueueClear(i, r)
	case "list":
		return h.handleQueueList(i, r, sub)
	default:
		return respondError(r, "Unknown subcommand")
	}
}

func (h *CommandHandlers) handleQueueAdd(
	i *discordgo.InteractionCreate,
	r site.Responder,
	sub *discordgo.ApplicationCommandInteractionDataOption,
	add func(context.Context, usecases.QueueSongInput) (*usecases.QueueSongOutput, error),
	format string,
) error {
	sessionID, err := h.sessionFor(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	song, err := h.songOption(sub.Options)
	if err != nil {
		return respondError(r, err.Error())
	}

	output, err := add(context.Background(), usecases.QueueSongInput{SessionID: sessionID, SongID: song.ID})
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, fmt.Sprintf(format, output.Song.Title, output.Position+1))
}

func (h *CommandHandlers) handleQueueRemove(
	i *discordgo.InteractionCreate,
	r site.Responder,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	sessionID, err := h.sessionFor(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	song, err := h.songOption(sub.Options)
	if err != nil {
		return respondError(r, err.Error())
	}

	output, err := h.queue.Remove(context.Background(), usecases.QueueRemoveInput{
		SessionID: sessionID,
		SongID:    song.ID,
	})
	if err != nil {
		return respondError(r, err.Error())
	}
	if !output.Removed {
		return respondError(r, fmt.Sprintf("**%s** is not in the queue.", song.Title))
	}
	return respondSuccess(r, fmt.Sprintf("Removed **%s** from the queue.", song.Title))
}

func (h *CommandHandlers) handleQueueClear(i *discordgo.InteractionCreate, r site.Responder) error {
	sessionID, err := h.sessionFor(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	output, err := h.queue.Clear(context.Background(), sessionID)
	if err != nil {
		return respondError(r, err.Error())
	}
	if output.ClearedCount == 0 {
		return respondError(r, usecases.ErrQueueEmpty.Error())
	}
	return respondSuccess(r, "Cleared the queue.")
}

func (h *CommandHandlers) handleQueueList(
	i *discordgo.InteractionCreate,
	r site.Responder,
	sub *discordgo.ApplicationCommandInteractionDataOption,
) error {
	sessionID, err := h.sessionFor(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	page := 1
	for _, opt := range sub.Options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.queue.List(context.Background(), usecases.QueueListInput{
		SessionID: sessionID,
		Page:      page,
	})
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondEmbed(r, queueEmbed(output))
}

// sessionFor resolves the listening-party session of the interaction's guild.
// Notifications follow the channel the party is being driven from.
func (h *CommandHandlers) sessionFor(i *discordgo.InteractionCreate) (domain.SessionID, error) {
	sessionID, err := partySession(h.parties, i.GuildID)
	if err != nil {
		return "", err
	}

	guildID, _ := snowflake.Parse(i.GuildID)
	if channelID, err := snowflake.Parse(i.ChannelID); err == nil {
		if party, ok := h.parties.Party(guildID); ok && party.NotificationChannelID != channelID {
			_ = h.parties.SetNotificationChannel(usecases.SetNotificationChannelInput{
				GuildID:   guildID,
				ChannelID: channelID,
			})
		}
	}

	return sessionID, nil
}

func partySession(parties *usecases.ListeningPartyService, rawGuildID string) (domain.SessionID, error) {
	guildID, err := snowflake.Parse(rawGuildID)
	if err != nil {
		return "", errInvalidGuild
	}
	party, ok := parties.Party(guildID)
	if !ok {
		return "", usecases.ErrNotConnected
	}
	return party.SessionID, nil
}

func (h *CommandHandlers) songOption(
	options []*discordgo.ApplicationCommandInteractionDataOption,
) (domain.Song, error) {
	for _, opt := range options {
		if opt.Name == "song" {
			return h.resolveSong(opt.StringValue())
		}
	}
	return domain.Song{}, usecases.ErrSongNotFound
}

// resolveSong accepts an autocompleted song id or a typed title.
func (h *CommandHandlers) resolveSong(value string) (domain.Song, error) {
	if song, err := h.catalog.Get(domain.SongID(value)); err == nil {
		return song, nil
	}

	output, err := h.catalog.Search(usecases.SearchSongsInput{Query: value, Limit: 1})
	if err != nil {
		if errors.Is(err, usecases.ErrNoResults) {
			return domain.Song{}, usecases.ErrSongNotFound
		}
		return domain.Song{}, err
	}
	return output.Songs[0], nil
}

func (h *CommandHandlers) withSong(
	i *discordgo.InteractionCreate,
	r site.Responder,
	fn func(ctx context.Context, sessionID domain.SessionID, song domain.Song) error,
) error {
	sessionID, err := h.sessionFor(i)
	if err != nil {
		return respondError(r, err.Error())
	}
	song, err := h.songOption(i.ApplicationCommandData().Options)
	if err != nil {
		return respondError(r, err.Error())
	}
	return fn(context.Background(), sessionID, song)
}

func (h *CommandHandlers) transition(
	i *discordgo.InteractionCreate,
	r site.Responder,
	fn func(context.Context, domain.SessionID) (*usecases.TransitionOutput, error),
	describe func(domain.PlayerSnapshot) string,
) error {
	sessionID, err := h.sessionFor(i)
	if err != nil {
		return respondError(r, err.Error())
	}

	output, err := fn(context.Background(), sessionID)
	if err != nil {
		return respondError(r, err.Error())
	}
	return respondSuccess(r, describe(output.Snapshot))
}

func (h *CommandHandlers) absoluteURL(path string) string {
	if path == "" || strings.Contains(path, "://") {
		return path
	}
	if h.publicBaseURL == "" {
		return ""
	}
	return h.publicBaseURL + "/" + strings.TrimPrefix(path, "/")
}

func describeCurrent(s domain.PlayerSnapshot) string {
	if s.CurrentSong == nil {
		return "The catalog is empty."
	}
	return fmt.Sprintf("Now playing **%s** by %s.", s.CurrentSong.Title, s.CurrentSong.Artist)
}

// parsePosition reads "90", "1:30" or "1:02:03".
func parsePosition(raw string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) > 3 {
		return 0, errInvalidPosition
	}

	var total int
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, errInvalidPosition
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, nil
}
