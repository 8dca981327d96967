package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Site manages the HTTP server, the optional Discord session and module coordination.
type Site struct {
	config   *Config
	session  *discordgo.Session
	modules  []Module
	handlers map[string]InteractionHandler
	router   chi.Router
	server   *http.Server
}

// NewSite creates a new Site instance with the given configuration.
func NewSite(cfg *Config) *Site {
	return &Site{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]InteractionHandler),
	}
}

// LoadModules loads modules from the global registry and their configuration.
func (s *Site) LoadModules() error {
	s.modules = Modules()

	for _, mod := range s.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load %s module config: %w", mod.Name(), err)
		}
	}
	return nil
}

// Start initializes the modules, connects to Discord when enabled, and starts
// serving HTTP. Serve errors after startup are reported on the returned channel.
func (s *Site) Start() (<-chan error, error) {
	if s.config.DiscordEnabled() {
		session, err := discordgo.New("Bot " + s.config.DiscordToken)
		if err != nil {
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
		s.session = session

		// Modules need the bot user, which is only known once connected.
		if err := s.session.Open(); err != nil {
			return nil, fmt.Errorf("failed to open Discord connection: %w", err)
		}
	} else {
		slog.Info("DISCORD_TOKEN not set, Discord surface disabled")
	}

	if err := s.initModules(); err != nil {
		return nil, fmt.Errorf("failed to initialize modules: %w", err)
	}

	if s.session != nil {
		s.buildHandlerMap()
		s.session.AddHandler(s.handleInteraction)
		s.registerEventHandlers()

		if err := s.registerCommands(); err != nil {
			return nil, fmt.Errorf("failed to register commands: %w", err)
		}
		slog.Info("connected to Discord",
			"user_id", s.session.State.User.ID,
			"username", s.session.State.User.Username,
		)
	}

	listener, err := net.Listen("tcp", s.config.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.HTTPAddr, err)
	}

	s.server = &http.Server{Handler: s.Handler()}
	errs := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	slog.Info("started site", "addr", listener.Addr().String())

	return errs, nil
}

// Handler returns the site router, building it on first use.
func (s *Site) Handler() http.Handler {
	if s.router == nil {
		s.router = s.buildRouter()
	}
	return s.router
}

// Stop gracefully shuts down the site.
func (s *Site) Stop(ctx context.Context) error {
	var errs []error

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown HTTP server: %w", err))
		}
	}

	for _, mod := range s.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	if s.session != nil {
		if err := s.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Discord session: %w", err))
		}
	}

	return errors.Join(errs...)
}

// initModules initializes all loaded modules.
func (s *Site) initModules() error {
	deps := ModuleDependencies{
		Session: s.session,
	}

	for _, mod := range s.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(s.modules))
	for i, mod := range s.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

func (s *Site) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, mod := range s.modules {
		if httpMod, ok := mod.(HTTPModule); ok {
			httpMod.Routes(r)
		}
	}
	return r
}

// buildHandlerMap builds the command name to handler mapping.
func (s *Site) buildHandlerMap() {
	for _, mod := range s.modules {
		if discordMod, ok := mod.(DiscordModule); ok {
			maps.Copy(s.handlers, discordMod.CommandHandlers())
		}
	}
}

// registerEventHandlers registers all module event handlers with the session.
func (s *Site) registerEventHandlers() {
	for _, mod := range s.modules {
		discordMod, ok := mod.(DiscordModule)
		if !ok {
			continue
		}
		for _, handler := range discordMod.EventHandlers() {
			s.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (s *Site) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range s.modules {
		if discordMod, ok := mod.(DiscordModule); ok {
			commands = append(commands, discordMod.Commands()...)
		}
	}
	return commands
}

// registerCommands overwrites the global command set with the modules' commands.
func (s *Site) registerCommands() error {
	commands := s.collectCommands()

	_, err := s.session.ApplicationCommandBulkOverwrite(s.session.State.User.ID, "", commands)
	if err != nil {
		return err
	}
	slog.Debug("registered commands", "count", len(commands))

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming interactions to the appropriate handler.
func (s *Site) handleInteraction(session *discordgo.Session, i *discordgo.InteractionCreate) {
	s.dispatch(session, i, NewDiscordResponder(session, i.Interaction))
}

func (s *Site) dispatch(session *discordgo.Session, i *discordgo.InteractionCreate, responder Responder) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	cmdName := i.ApplicationCommandData().Name
	handler, ok := s.handlers[cmdName]
	if !ok {
		slog.Warn("found no handler for command", "command", cmdName)
		respondWithEmbed(responder, "Unknown Command", "This command is not recognized.", colorYellow)
		return
	}

	if err := handler(session, i, responder); err != nil {
		slog.Error("failed to handle command", "command", cmdName, "error", err)
		respondWithEmbed(responder, "Error", "An error occurred while processing your command.", colorRed)
	}
}

// respondWithEmbed sends an embed response to an interaction.
func respondWithEmbed(r Responder, title, description string, color int) {
	err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}
