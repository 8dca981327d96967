package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// JoinInput contains the input for the Join use case.
type JoinInput struct {
	GuildID               snowflake.ID
	UserID                snowflake.ID
	NotificationChannelID snowflake.ID
	VoiceChannelID        snowflake.ID // Optional: specific channel to join (0 means use user's channel)
}

// JoinOutput contains the result of the Join use case.
type JoinOutput struct {
	VoiceChannelID snowflake.ID
	SessionID      domain.SessionID
	Snapshot       domain.PlayerSnapshot
}

// LeaveInput contains the input for the Leave use case.
type LeaveInput struct {
	GuildID snowflake.ID
}

// BotVoiceStateChangeInput contains the input for handling bot voice state changes.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil means disconnected
}

// SetNotificationChannelInput contains the input for the SetNotificationChannel use case.
type SetNotificationChannelInput struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID
}

// Party describes a guild's listening party: a playback session whose media
// element plays into a voice channel.
type Party struct {
	GuildID               snowflake.ID
	SessionID             domain.SessionID
	VoiceChannelID        snowflake.ID
	NotificationChannelID snowflake.ID
	HostID                snowflake.ID
}

type partyEntry struct {
	Party
	element ports.MediaElement
	detach  func()
}

// ListeningPartyService runs listening parties in guild voice channels.
type ListeningPartyService struct {
	sessions        *SessionService
	voiceConnection ports.VoiceConnection
	voiceState      ports.VoiceStateProvider
	elements        ports.GuildElementFactory

	mu      sync.Mutex
	parties map[snowflake.ID]*partyEntry
}

var _ ports.PartyDirectory = (*ListeningPartyService)(nil)

// NewListeningPartyService creates a new ListeningPartyService.
func NewListeningPartyService(
	sessions *SessionService,
	voiceConnection ports.VoiceConnection,
	voiceState ports.VoiceStateProvider,
	elements ports.GuildElementFactory,
) *ListeningPartyService {
	return &ListeningPartyService{
		sessions:        sessions,
		voiceConnection: voiceConnection,
		voiceState:      voiceState,
		elements:        elements,
		parties:         make(map[snowflake.ID]*partyEntry),
	}
}

// Join joins the bot to a voice channel and opens the guild's session.
func (l *ListeningPartyService) Join(ctx context.Context, input JoinInput) (*JoinOutput, error) {
	// Determine which channel to join
	voiceChannelID := input.VoiceChannelID
	if voiceChannelID == 0 {
		userChannel, err := l.voiceState.GetUserVoiceChannel(input.GuildID, input.UserID)
		if err != nil {
			return nil, err
		}
		if userChannel == 0 {
			return nil, ErrUserNotInVoice
		}
		voiceChannelID = userChannel
	}

	sessionID := domain.DiscordSessionID(input.GuildID)

	l.mu.Lock()
	existing, exists := l.parties[input.GuildID]
	if exists && existing.VoiceChannelID == voiceChannelID {
		// Already here - just update notification channel
		existing.NotificationChannelID = input.NotificationChannelID
		l.mu.Unlock()
		snapshot, err := l.sessions.Snapshot(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &JoinOutput{VoiceChannelID: voiceChannelID, SessionID: sessionID, Snapshot: snapshot}, nil
	}
	l.mu.Unlock()

	if err := l.voiceConnection.JoinChannel(ctx, input.GuildID, voiceChannelID); err != nil {
		return nil, err
	}

	if exists {
		// Moving channels - the session and its queue carry over
		l.mu.Lock()
		existing.VoiceChannelID = voiceChannelID
		existing.NotificationChannelID = input.NotificationChannelID
		l.mu.Unlock()
		snapshot, err := l.sessions.Snapshot(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return &JoinOutput{VoiceChannelID: voiceChannelID, SessionID: sessionID, Snapshot: snapshot}, nil
	}

	element, err := l.elements.NewGuildElement(input.GuildID)
	if err != nil {
		l.abortJoin(ctx, input.GuildID, nil)
		return nil, err
	}

	output, err := l.sessions.Open(ctx, OpenSessionInput{SessionID: sessionID, Element: element})
	if err != nil {
		if closeErr := l.sessions.Close(ctx, sessionID); closeErr != nil && !errors.Is(closeErr, ErrSessionNotFound) {
			slog.Warn("failed to close session after failed join", "guild", input.GuildID, "error", closeErr)
		}
		l.abortJoin(ctx, input.GuildID, element)
		return nil, err
	}

	l.mu.Lock()
	l.parties[input.GuildID] = &partyEntry{
		Party: Party{
			GuildID:               input.GuildID,
			SessionID:             sessionID,
			VoiceChannelID:        voiceChannelID,
			NotificationChannelID: input.NotificationChannelID,
			HostID:                input.UserID,
		},
		element: element,
		detach:  output.Detach,
	}
	l.mu.Unlock()

	slog.Info("listening party started", "guild", input.GuildID, "session", sessionID)

	return &JoinOutput{VoiceChannelID: voiceChannelID, SessionID: sessionID, Snapshot: output.Snapshot}, nil
}

// Leave leaves the voice channel and closes the guild's session.
func (l *ListeningPartyService) Leave(ctx context.Context, input LeaveInput) error {
	l.mu.Lock()
	party, ok := l.parties[input.GuildID]
	delete(l.parties, input.GuildID)
	l.mu.Unlock()

	if !ok {
		return ErrNotConnected
	}

	l.teardown(ctx, party)

	return l.voiceConnection.LeaveChannel(ctx, input.GuildID)
}

// HandleBotVoiceStateChange handles external voice state changes (bot moved or disconnected).
// This should be called when the bot's voice state changes due to external factors
// (e.g., being moved by a user or disconnected by Discord).
func (l *ListeningPartyService) HandleBotVoiceStateChange(ctx context.Context, input BotVoiceStateChangeInput) {
	l.mu.Lock()
	party, ok := l.parties[input.GuildID]
	if !ok {
		l.mu.Unlock()
		return
	}

	if input.NewChannelID != nil {
		// Bot was moved to a different channel
		party.VoiceChannelID = *input.NewChannelID
		l.mu.Unlock()
		return
	}

	// Bot was disconnected from voice
	delete(l.parties, input.GuildID)
	l.mu.Unlock()

	l.teardown(ctx, party)
}

// SetNotificationChannel updates where the guild's party posts notifications.
func (l *ListeningPartyService) SetNotificationChannel(input SetNotificationChannelInput) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	party, ok := l.parties[input.GuildID]
	if !ok {
		return ErrNotConnected
	}
	party.NotificationChannelID = input.ChannelID
	return nil
}

// Party returns the guild's listening party.
func (l *ListeningPartyService) Party(guildID snowflake.ID) (Party, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	party, ok := l.parties[guildID]
	if !ok {
		return Party{}, false
	}
	return party.Party, true
}

// NotificationTarget implements ports.PartyDirectory.
func (l *ListeningPartyService) NotificationTarget(guildID snowflake.ID) (snowflake.ID, snowflake.ID, bool) {
	party, ok := l.Party(guildID)
	if !ok {
		return 0, 0, false
	}
	return party.NotificationChannelID, party.HostID, true
}

func (l *ListeningPartyService) teardown(ctx context.Context, party *partyEntry) {
	party.detach()

	if err := l.sessions.Close(ctx, party.SessionID); err != nil {
		slog.Warn("failed to close listening party session", "guild", party.GuildID, "error", err)
	}
	if err := party.element.Close(); err != nil {
		slog.Warn("failed to close guild media element", "guild", party.GuildID, "error", err)
	}

	slog.Info("listening party ended", "guild", party.GuildID, "session", party.SessionID)
}

func (l *ListeningPartyService) abortJoin(ctx context.Context, guildID snowflake.ID, element ports.MediaElement) {
	if element != nil {
		if err := element.Close(); err != nil {
			slog.Warn("failed to close guild media element", "guild", guildID, "error", err)
		}
	}
	if err := l.voiceConnection.LeaveChannel(ctx, guildID); err != nil {
		slog.Warn("failed to leave voice channel after failed join", "guild", guildID, "error", err)
	}
}
