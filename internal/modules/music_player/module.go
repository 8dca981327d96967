package music_player

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/portfolio/internal/modules/music_player/presentation/discord"
	"github.com/sglre6355/portfolio/internal/modules/music_player/presentation/web"
	"github.com/sglre6355/portfolio/internal/site"
)

func init() {
	site.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ site.ConfigurableModule = (*MusicPlayerModule)(nil)
	_ site.HTTPModule         = (*MusicPlayerModule)(nil)
	_ site.DiscordModule      = (*MusicPlayerModule)(nil)
)

// MusicPlayerModule serves the audio player and, when Discord and Lavalink
// are configured, runs listening parties.
type MusicPlayerModule struct {
	config *Config
	player *Player
	web    *web.Handler

	// Listening parties; nil unless enabled.
	lavalinkAdapter     *infrastructure.LavalinkAdapter
	commandHandlers     *discord.CommandHandlers
	autocomplete        *discord.AutocompleteHandler
	eventHandlers       *discord.EventHandlers
	notificationHandler *application.NotificationEventHandler

	ctx    context.Context
	cancel context.CancelFunc
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := ParseConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps site.ModuleDependencies) error {
	if m.config == nil {
		return errors.New("music_player: configuration not loaded")
	}

	m.ctx, m.cancel = context.WithCancel(context.Background())

	player, err := NewPlayer(m.ctx, m.config)
	if err != nil {
		return err
	}
	m.player = player

	go player.Sessions.RunReaper(m.ctx, m.config.SessionIdleTimeout, m.config.SessionReapInterval)

	hub := web.NewSnapshotHub()
	hub.Start(player.Bus)

	m.web = web.NewHandler(
		player.Songs,
		player.Playback,
		player.Queue,
		player.Settings,
		player.Sessions,
		hub,
		func(conn *websocket.Conn) web.MediaSocket { return infrastructure.NewWebSocketElement(conn) },
		m.config.MediaDir,
	)

	switch {
	case deps.Session == nil:
		slog.Debug("music_player initialized without Discord")
	case !m.config.ListeningPartiesEnabled():
		slog.Warn("LAVALINK_ADDRESS not set, listening parties disabled")
	default:
		if err := m.initListeningParties(deps.Session); err != nil {
			return err
		}
	}

	return nil
}

func (m *MusicPlayerModule) initListeningParties(session *discordgo.Session) error {
	adapter, err := infrastructure.NewLavalinkAdapter(m.ctx, session, infrastructure.LavalinkConfig{
		Address:       m.config.LavalinkAddress,
		Password:      m.config.LavalinkPassword,
		PublicBaseURL: m.config.PublicBaseURL,
	})
	if err != nil {
		return err
	}
	m.lavalinkAdapter = adapter

	members := infrastructure.NewDiscordMembers(session)
	parties := usecases.NewListeningPartyService(m.player.Sessions, adapter, members, adapter)

	m.notificationHandler = application.NewNotificationEventHandler(
		m.player.Bus,
		infrastructure.NewNotifier(session),
		parties,
		members,
		m.config.PublicBaseURL,
	)
	if err := m.notificationHandler.Start(); err != nil {
		return err
	}

	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return err
	}

	m.commandHandlers = discord.NewCommandHandlers(
		parties,
		m.player.Songs,
		m.player.Playback,
		m.player.Queue,
		m.player.Settings,
		m.config.PublicBaseURL,
	)
	m.autocomplete = discord.NewAutocompleteHandler(m.player.Songs, m.player.Queue, parties)
	m.eventHandlers = discord.NewEventHandlers(botID, parties)

	slog.Info("music_player listening parties enabled")

	return nil
}

// Routes mounts the player API, media socket and static media.
func (m *MusicPlayerModule) Routes(r chi.Router) {
	m.web.Routes(r)
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	if m.commandHandlers == nil {
		return nil
	}
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]site.InteractionHandler {
	if m.commandHandlers == nil {
		return nil
	}
	return m.commandHandlers.Handlers()
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []site.EventHandler {
	if m.lavalinkAdapter == nil {
		return nil
	}
	return []site.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.lavalinkAdapter.OnVoiceServerUpdate(event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.lavalinkAdapter.OnVoiceStateUpdate(event)
			m.eventHandlers.HandleVoiceStateUpdate(s, event)
		},
		func(s *discordgo.Session, i *discordgo.InteractionCreate) {
			m.handleAutocomplete(s, i)
		},
	}
}

func (m *MusicPlayerModule) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommandAutocomplete {
		return
	}
	if err := m.autocomplete.Handle(i, site.NewDiscordResponder(s, i.Interaction)); err != nil {
		slog.Warn(
			"failed to answer autocomplete",
			"command", i.ApplicationCommandData().Name,
			"error", err,
		)
	}
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}
	if m.player != nil {
		m.player.Close()
	}
	return nil
}
