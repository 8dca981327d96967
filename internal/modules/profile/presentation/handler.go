package presentation

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/sglre6355/portfolio/internal/modules/profile/application"
	"github.com/sglre6355/portfolio/internal/modules/profile/domain"
	"github.com/sglre6355/portfolio/internal/site"
)

const colorProfile = 0x6750A4

// ProfileResponse is the JSON form of the profile.
type ProfileResponse struct {
	Name     string         `json:"name"`
	Tagline  string         `json:"tagline"`
	Taglines []string       `json:"taglines"`
	Bio      string         `json:"bio,omitempty"`
	Links    []LinkResponse `json:"links"`
	ShareURL string         `json:"shareUrl,omitempty"`
}

// LinkResponse is the JSON form of a profile link.
type LinkResponse struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// ProfileHandler serves the profile over HTTP and as the /profile command.
type ProfileHandler struct {
	service *application.ProfileService
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(service *application.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// Routes mounts GET /api/profile.
func (h *ProfileHandler) Routes(r chi.Router) {
	r.Get("/api/profile", h.ServeProfile)
}

// ServeProfile writes the profile as JSON.
func (h *ProfileHandler) ServeProfile(w http.ResponseWriter, _ *http.Request) {
	p := h.service.Get()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "public, max-age=300")
	if err := json.NewEncoder(w).Encode(newProfileResponse(p)); err != nil {
		slog.Warn("failed to write profile", "error", err)
	}
}

// Command returns the /profile slash command.
func Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "profile",
		Description: "Show the artist's profile and links",
	}
}

// HandleProfile handles the /profile command.
func (h *ProfileHandler) HandleProfile(
	_ *discordgo.Session,
	_ *discordgo.InteractionCreate,
	r site.Responder,
) error {
	p := h.service.Get()

	embed := &discordgo.MessageEmbed{
		Title:       p.Name,
		Description: p.Tagline(),
		Color:       colorProfile,
		URL:         p.ShareURL,
	}
	if p.Bio != "" {
		embed.Description = strings.TrimSpace(embed.Description + "\n\n" + p.Bio)
	}
	if len(p.Links) > 0 {
		embed.Fields = []*discordgo.MessageEmbedField{
			{
				Name: "Links",
				Value: strings.Join(lo.Map(p.Links, func(l domain.Link, _ int) string {
					return "[" + l.Label + "](" + l.URL + ")"
				}), "\n"),
			},
		}
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

func newProfileResponse(p domain.Profile) ProfileResponse {
	taglines := p.Taglines
	if taglines == nil {
		taglines = []string{}
	}
	return ProfileResponse{
		Name:     p.Name,
		Tagline:  p.Tagline(),
		Taglines: taglines,
		Bio:      p.Bio,
		Links: lo.Map(p.Links, func(l domain.Link, _ int) LinkResponse {
			return LinkResponse{Label: l.Label, URL: l.URL}
		}),
		ShareURL: p.ShareURL,
	}
}
