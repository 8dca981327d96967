package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// voiceHandshake collects the VoiceStateUpdate and VoiceServerUpdate pair that
// Lavalink needs, so both can be forwarded together and in order.
type voiceHandshake struct {
	channelID *snowflake.ID
	sessionID string
	token     string
	endpoint  string

	hasState  bool
	hasServer bool
	ready     chan struct{} // Closed once the first pair was forwarded
}

func newVoiceHandshake() *voiceHandshake {
	return &voiceHandshake{ready: make(chan struct{})}
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string

	// PublicBaseURL is prepended to catalog URLs so Lavalink can fetch them over HTTP.
	PublicBaseURL string
}

// LavalinkAdapter connects guild voice channels to Lavalink and hands out
// one media element per guild.
type LavalinkAdapter struct {
	link          disgolink.Client
	session       *discordgo.Session
	botID         snowflake.ID
	publicBaseURL string

	mu         sync.Mutex
	handshakes map[snowflake.ID]*voiceHandshake
	elements   map[snowflake.ID]*LavalinkElement
}

var (
	_ ports.VoiceConnection     = (*LavalinkAdapter)(nil)
	_ ports.GuildElementFactory = (*LavalinkAdapter)(nil)
)

// NewLavalinkAdapter creates a new LavalinkAdapter and connects its node.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	if config.PublicBaseURL == "" {
		return nil, errors.New("public base URL is required for Lavalink playback")
	}

	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:       session,
		botID:         botID,
		publicBaseURL: strings.TrimSuffix(config.PublicBaseURL, "/"),
		handshakes:    make(map[snowflake.ID]*voiceHandshake),
		elements:      make(map[snowflake.ID]*LavalinkElement),
	}

	adapter.link = disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)

	node, err := adapter.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   false,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// Close disconnects from all Lavalink nodes.
func (a *LavalinkAdapter) Close() {
	a.link.Close()
}

// NewGuildElement implements ports.GuildElementFactory.
func (a *LavalinkAdapter) NewGuildElement(guildID snowflake.ID) (ports.MediaElement, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.elements[guildID]; exists {
		return nil, fmt.Errorf("guild %s already has a media element", guildID)
	}

	element := newLavalinkElement(a, guildID)
	a.elements[guildID] = element
	return element, nil
}

// JoinChannel connects to a voice channel and waits until Lavalink has
// received the voice session.
func (a *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	a.mu.Lock()
	handshake := newVoiceHandshake()
	a.handshakes[guildID] = handshake
	a.mu.Unlock()

	err := a.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-handshake.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return errors.New("timeout waiting for voice connection")
	}
}

// LeaveChannel disconnects from the voice channel.
func (a *LavalinkAdapter) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	if player := a.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	if err := a.session.ChannelVoiceJoinManual(guildID.String(), "", false, false); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// OnVoiceServerUpdate forwards Discord voice server updates.
// This must be called from the Discord event handler.
func (a *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	a.mu.Lock()
	handshake := a.handshakeLocked(guildID)
	handshake.token = event.Token
	handshake.endpoint = event.Endpoint
	handshake.hasServer = true
	a.mu.Unlock()

	a.forwardIfComplete(guildID, handshake)
}

// OnVoiceStateUpdate forwards the bot's own voice state updates.
// This must be called from the Discord event handler.
func (a *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != a.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	if event.ChannelID == "" {
		// Disconnects need no server update.
		a.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		a.mu.Lock()
		delete(a.handshakes, guildID)
		a.mu.Unlock()
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	a.mu.Lock()
	handshake := a.handshakeLocked(guildID)
	handshake.channelID = &channelID
	handshake.sessionID = event.SessionID
	handshake.hasState = true
	a.mu.Unlock()

	a.forwardIfComplete(guildID, handshake)
}

// handshakeLocked returns the guild's handshake, creating one if needed.
func (a *LavalinkAdapter) handshakeLocked(guildID snowflake.ID) *voiceHandshake {
	handshake, ok := a.handshakes[guildID]
	if !ok {
		handshake = newVoiceHandshake()
		a.handshakes[guildID] = handshake
	}
	return handshake
}

func (a *LavalinkAdapter) forwardIfComplete(guildID snowflake.ID, handshake *voiceHandshake) {
	a.mu.Lock()
	if !handshake.hasState || !handshake.hasServer {
		a.mu.Unlock()
		return
	}
	channelID, sessionID := handshake.channelID, handshake.sessionID
	token, endpoint := handshake.token, handshake.endpoint
	handshake.hasState = false
	handshake.hasServer = false
	a.mu.Unlock()

	slog.Debug("forwarding voice session to Lavalink", "guild", guildID, "channel", channelID)

	a.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	a.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)

	select {
	case <-handshake.ready:
	default:
		close(handshake.ready)
	}
}

// resolve turns a catalog URL into one Lavalink can load.
func (a *LavalinkAdapter) resolve(url string) string {
	if strings.Contains(url, "://") {
		return url
	}
	return a.publicBaseURL + "/" + strings.TrimPrefix(url, "/")
}

func (a *LavalinkAdapter) element(guildID snowflake.ID) *LavalinkElement {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.elements[guildID]
}

func (a *LavalinkAdapter) release(guildID snowflake.ID, element *LavalinkElement) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.elements[guildID] == element {
		delete(a.elements, guildID)
	}
}

func (a *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (a *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	element := a.element(player.GuildID())
	if element == nil {
		return
	}

	switch event.Reason {
	case lavalink.TrackEndReasonFinished:
		element.finished(player)
	case lavalink.TrackEndReasonLoadFailed:
		element.failed(errors.New("track failed to load"))
	}
}

func (a *LavalinkAdapter) onTrackException(player disgolink.Player, event lavalink.TrackExceptionEvent) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)

	if element := a.element(player.GuildID()); element != nil {
		element.failed(errors.New(event.Exception.Message))
	}
}

func (a *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)

	if element := a.element(player.GuildID()); element != nil {
		element.failed(fmt.Errorf("track stuck for %v", event.Threshold))
	}
}
