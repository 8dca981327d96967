package application

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// NotificationEventHandler posts "Now Playing" messages for listening parties.
// It subscribes to state changes to send/delete messages.
type NotificationEventHandler struct {
	subscriber       ports.EventSubscriber
	notifier         ports.NotificationSender
	parties          ports.PartyDirectory
	userInfoProvider ports.UserInfoProvider
	publicBaseURL    string

	mu         sync.Mutex
	nowPlaying map[domain.SessionID]*nowPlayingMessage
}

type nowPlayingMessage struct {
	channelID snowflake.ID
	messageID snowflake.ID // 0 until the current song has been announced
	announced bool
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
// publicBaseURL turns catalog-relative cover URLs into absolute ones.
func NewNotificationEventHandler(
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
	parties ports.PartyDirectory,
	userInfoProvider ports.UserInfoProvider,
	publicBaseURL string,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		subscriber:       subscriber,
		notifier:         notifier,
		parties:          parties,
		userInfoProvider: userInfoProvider,
		publicBaseURL:    strings.TrimSuffix(publicBaseURL, "/"),
		nowPlaying:       make(map[domain.SessionID]*nowPlayingMessage),
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() error {
	h.subscriber.OnStateChanged(h.handleStateChanged)
	h.subscriber.OnPlaybackFailed(h.handlePlaybackFailed)
	h.subscriber.OnSessionClosed(h.handleSessionClosed)

	slog.Debug("notification event handlers properly registered")

	return nil
}

func (h *NotificationEventHandler) handleStateChanged(_ context.Context, event domain.StateChangedEvent) {
	guildID, ok := event.SessionID.GuildID()
	if !ok {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	msg := h.nowPlaying[event.SessionID]
	if msg == nil {
		msg = &nowPlayingMessage{}
		h.nowPlaying[event.SessionID] = msg
	}
	if event.Change.Has(domain.ChangeSong) {
		msg.announced = false
	}

	snapshot := event.Snapshot
	if msg.announced || !snapshot.IsPlaying || snapshot.CurrentSong == nil {
		return
	}

	channelID, hostID, ok := h.parties.NotificationTarget(guildID)
	if !ok || channelID == 0 {
		slog.Debug(
			"skipping now playing notification, no notification channel",
			"guild", guildID,
		)
		return
	}

	h.deleteMessage(msg)

	slog.Debug(
		"sending now playing notification",
		"guild", guildID,
		"song", snapshot.CurrentSong.ID,
	)

	messageID, err := h.notifier.SendNowPlaying(channelID, h.nowPlayingInfo(guildID, hostID, snapshot))
	if err != nil {
		slog.Error(
			"failed to send now playing notification",
			"guild", guildID,
			"error", err,
		)
		return
	}

	msg.channelID = channelID
	msg.messageID = messageID
	msg.announced = true
}

func (h *NotificationEventHandler) handlePlaybackFailed(_ context.Context, event domain.PlaybackFailedEvent) {
	guildID, ok := event.SessionID.GuildID()
	if !ok {
		return
	}

	channelID, _, ok := h.parties.NotificationTarget(guildID)
	if !ok || channelID == 0 {
		return
	}

	message := "Playback failed."
	if event.Message != "" {
		message = "Playback failed: " + event.Message
	}
	if err := h.notifier.SendError(channelID, message); err != nil {
		slog.Warn(
			"failed to send playback failure notification",
			"guild", guildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleSessionClosed(_ context.Context, event domain.SessionClosedEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msg, ok := h.nowPlaying[event.SessionID]
	if !ok {
		return
	}
	delete(h.nowPlaying, event.SessionID)
	h.deleteMessage(msg)
}

// deleteMessage removes the previous "Now Playing" message. Called with h.mu held.
func (h *NotificationEventHandler) deleteMessage(msg *nowPlayingMessage) {
	if msg.messageID == 0 {
		return
	}
	if err := h.notifier.DeleteMessage(msg.channelID, msg.messageID); err != nil {
		slog.Warn(
			"failed to delete previous now playing message",
			"channel", msg.channelID,
			"message", msg.messageID,
			"error", err,
		)
	}
	msg.messageID = 0
}

func (h *NotificationEventHandler) nowPlayingInfo(
	guildID, hostID snowflake.ID,
	snapshot domain.PlayerSnapshot,
) *ports.NowPlayingInfo {
	song := snapshot.CurrentSong
	info := &ports.NowPlayingInfo{
		Title:       song.Title,
		Artist:      song.Artist,
		Album:       song.Album,
		Duration:    song.FormattedDuration(),
		Color:       hexToInt(snapshot.Theme.Dominant),
		IsPreview:   snapshot.IsPreviewMode,
		QueueLength: len(snapshot.Queue),
	}
	if song.CoverURL != "" {
		info.CoverURL = h.absoluteURL(song.CoverURL)
	}

	if h.userInfoProvider != nil && hostID != 0 {
		userInfo, err := h.userInfoProvider.GetUserInfo(guildID, hostID)
		if err != nil {
			slog.Debug("failed to fetch host info", "guild", guildID, "error", err)
		} else {
			info.HostName = userInfo.DisplayName
			info.HostAvatarURL = userInfo.AvatarURL
		}
	}

	return info
}

// absoluteURL resolves a catalog path against the public base URL.
// Discord only renders absolute URLs, so a relative path without a base yields "".
func (h *NotificationEventHandler) absoluteURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if h.publicBaseURL == "" {
		return ""
	}
	return h.publicBaseURL + "/" + strings.TrimPrefix(path, "/")
}

// hexToInt converts "#RRGGBB" to 0xRRGGBB, falling back to the default dominant color.
func hexToInt(hex string) int {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(domain.FallbackDominantColor)
	}
	r, g, b := c.RGB255()
	return int(r)<<16 | int(g)<<8 | int(b)
}
