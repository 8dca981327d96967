package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
	"github.com/sglre6355/portfolio/internal/site"
)

// maxChoices is Discord's autocomplete choice limit.
const maxChoices = 25

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	catalog *usecases.CatalogService
	queue   *usecases.QueueService
	parties *usecases.ListeningPartyService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(
	catalog *usecases.CatalogService,
	queue *usecases.QueueService,
	parties *usecases.ListeningPartyService,
) *AutocompleteHandler {
	return &AutocompleteHandler{
		catalog: catalog,
		queue:   queue,
		parties: parties,
	}
}

// Handle answers an autocomplete interaction for any command with a song option.
func (h *AutocompleteHandler) Handle(i *discordgo.InteractionCreate, r site.Responder) error {
	data := i.ApplicationCommandData()

	options := data.Options
	if data.Name == "queue" && len(options) > 0 {
		if options[0].Name == "remove" {
			return respondChoices(r, h.queuedSongChoices(i, focusedValue(options[0].Options)))
		}
		options = options[0].Options
	}

	return respondChoices(r, h.catalogChoices(focusedValue(options)))
}

func (h *AutocompleteHandler) catalogChoices(query string) []*discordgo.ApplicationCommandOptionChoice {
	output, err := h.catalog.Search(usecases.SearchSongsInput{Query: query, Limit: maxChoices})
	if err != nil {
		return nil
	}
	return songChoices(output.Songs)
}

// queuedSongChoices offers the songs of the guild's queue that match query.
func (h *AutocompleteHandler) queuedSongChoices(
	i *discordgo.InteractionCreate,
	query string,
) []*discordgo.ApplicationCommandOptionChoice {
	sessionID, err := partySession(h.parties, i.GuildID)
	if err != nil {
		return nil
	}

	output, err := h.queue.List(context.Background(), usecases.QueueListInput{
		SessionID: sessionID,
		PageSize:  maxChoices,
	})
	if err != nil {
		slog.Warn("failed to list queue for autocomplete", "session", sessionID, "error", err)
		return nil
	}

	matches := make([]domain.Song, 0, len(output.Songs))
	for _, song := range output.Songs {
		if query == "" || song.Matches(query) {
			matches = append(matches, song)
		}
	}
	return songChoices(matches)
}

func songChoices(songs []domain.Song) []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, min(len(songs), maxChoices))
	for _, song := range songs {
		if len(choices) == maxChoices {
			break
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(fmt.Sprintf("🎵 %s - %s", song.Title, song.Artist), 100),
			Value: string(song.ID),
		})
	}
	return choices
}

func focusedValue(options []*discordgo.ApplicationCommandInteractionDataOption) string {
	for _, opt := range options {
		if opt.Focused && opt.Type == discordgo.ApplicationCommandOptionString {
			return opt.StringValue()
		}
	}
	return ""
}

func respondChoices(r site.Responder, choices []*discordgo.ApplicationCommandOptionChoice) error {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
}
