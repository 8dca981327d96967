package profile

import (
	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/sglre6355/portfolio/internal/modules/profile/application"
	"github.com/sglre6355/portfolio/internal/modules/profile/infrastructure"
	"github.com/sglre6355/portfolio/internal/modules/profile/presentation"
	"github.com/sglre6355/portfolio/internal/site"
)

func init() {
	site.Register(&ProfileModule{})
}

// Compile-time interface checks.
var (
	_ site.ConfigurableModule = (*ProfileModule)(nil)
	_ site.HTTPModule         = (*ProfileModule)(nil)
	_ site.DiscordModule      = (*ProfileModule)(nil)
)

// ProfileModule serves the artist biography and links.
type ProfileModule struct {
	config  *Config
	handler *presentation.ProfileHandler
}

// Name returns the module name.
func (m *ProfileModule) Name() string {
	return "profile"
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *ProfileModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *ProfileModule) Init(_ site.ModuleDependencies) error {
	path := ""
	if m.config != nil {
		path = m.config.ProfilePath
	}

	profile, err := infrastructure.LoadProfile(path)
	if err != nil {
		return err
	}
	m.handler = presentation.NewProfileHandler(application.NewProfileService(profile))
	return nil
}

// Routes mounts the profile API.
func (m *ProfileModule) Routes(r chi.Router) {
	m.handler.Routes(r)
}

// Commands returns the slash commands for this module.
func (m *ProfileModule) Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{presentation.Command()}
}

// CommandHandlers returns the command handlers for this module.
func (m *ProfileModule) CommandHandlers() map[string]site.InteractionHandler {
	return map[string]site.InteractionHandler{
		"profile": m.handler.HandleProfile,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *ProfileModule) EventHandlers() []site.EventHandler {
	return nil
}

// Shutdown cleans up module resources.
func (m *ProfileModule) Shutdown() error {
	return nil
}
