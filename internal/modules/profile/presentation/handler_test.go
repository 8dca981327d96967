package presentation

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/go-chi/chi/v5"
	"github.com/sglre6355/portfolio/internal/modules/profile/application"
	"github.com/sglre6355/portfolio/internal/modules/profile/domain"
	"github.com/sglre6355/portfolio/internal/site"
)

func newTestHandler(t *testing.T) *ProfileHandler {
	t.Helper()
	profile, err := domain.NewProfile(domain.Profile{
		Name:     "Bradwell",
		Taglines: []string{"Some of it isnt that sad", "Writer of Sad Music"},
		Bio:      "Songwriter.",
		Links:    []domain.Link{{Label: "Linktree", URL: "https://linktr.ee/bradwell"}},
		ShareURL: "https://linktr.ee/bradwell",
	})
	if err != nil {
		t.Fatalf("failed to build profile: %v", err)
	}
	return NewProfileHandler(application.NewProfileService(profile))
}

func TestProfileHandler_ServeProfile(t *testing.T) {
	r := chi.NewRouter()
	newTestHandler(t).Routes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %q", ct)
	}

	var body ProfileResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Name != "Bradwell" || body.Tagline != "Writer of Sad Music" {
		t.Errorf("unexpected profile %+v", body)
	}
	if len(body.Links) != 1 || body.Links[0].URL != "https://linktr.ee/bradwell" {
		t.Errorf("unexpected links %+v", body.Links)
	}
}

func TestProfileHandler_HandleProfile(t *testing.T) {
	responder := &site.MockResponder{}

	if err := newTestHandler(t).HandleProfile(nil, nil, responder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if responder.LastResponse == nil {
		t.Fatal("expected response, got nil")
	}
	if responder.LastResponse.Type != discordgo.InteractionResponseChannelMessageWithSource {
		t.Errorf("expected response type %d, got %d",
			discordgo.InteractionResponseChannelMessageWithSource,
			responder.LastResponse.Type)
	}

	embeds := responder.Embeds()
	if len(embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(embeds))
	}
	embed := embeds[0]
	if embed.Title != "Bradwell" || !strings.HasPrefix(embed.Description, "Writer of Sad Music") {
		t.Errorf("unexpected embed %q / %q", embed.Title, embed.Description)
	}
	if len(embed.Fields) != 1 || !strings.Contains(embed.Fields[0].Value, "(https://linktr.ee/bradwell)") {
		t.Errorf("unexpected link field %+v", embed.Fields)
	}
}

func TestProfileHandler_ResponderError(t *testing.T) {
	expectedErr := errors.New("responder failed")
	responder := &site.MockResponder{Err: expectedErr}

	err := newTestHandler(t).HandleProfile(nil, nil, responder)
	if !errors.Is(err, expectedErr) {
		t.Errorf("expected error %v, got %v", expectedErr, err)
	}
}
