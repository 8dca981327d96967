package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// MediaSocket is a browser audio element reached over a websocket.
type MediaSocket interface {
	ports.MediaElement
	SendJSON(v any) error
	Done() <-chan struct{}
}

// SocketFactory wraps an upgraded connection in a MediaSocket.
type SocketFactory func(conn *websocket.Conn) MediaSocket

// SnapshotHub pushes state changes to the sockets of each session.
type SnapshotHub struct {
	mu      sync.Mutex
	sockets map[domain.SessionID]map[MediaSocket]struct{}
}

// NewSnapshotHub creates a new SnapshotHub.
func NewSnapshotHub() *SnapshotHub {
	return &SnapshotHub{sockets: make(map[domain.SessionID]map[MediaSocket]struct{})}
}

// Start registers the hub with the subscriber.
func (h *SnapshotHub) Start(subscriber ports.EventSubscriber) {
	subscriber.OnStateChanged(h.handleStateChanged)
	subscriber.OnSessionClosed(h.handleSessionClosed)
}

func (h *SnapshotHub) add(sessionID domain.SessionID, socket MediaSocket) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.sockets[sessionID]
	if !ok {
		set = make(map[MediaSocket]struct{})
		h.sockets[sessionID] = set
	}
	set[socket] = struct{}{}
}

func (h *SnapshotHub) remove(sessionID domain.SessionID, socket MediaSocket) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.sockets[sessionID]
	delete(set, socket)
	if len(set) == 0 {
		delete(h.sockets, sessionID)
	}
}

func (h *SnapshotHub) snapshot(sessionID domain.SessionID) []MediaSocket {
	h.mu.Lock()
	defer h.mu.Unlock()

	sockets := make([]MediaSocket, 0, len(h.sockets[sessionID]))
	for s := range h.sockets[sessionID] {
		sockets = append(sockets, s)
	}
	return sockets
}

func (h *SnapshotHub) handleStateChanged(_ context.Context, event domain.StateChangedEvent) {
	// The element reported the time itself.
	if event.Change == domain.ChangeTime {
		return
	}

	msg := StateMessage{
		Type:   "state",
		State:  newPlayerResponse(event.Snapshot),
		Change: event.Change.String(),
	}
	for _, socket := range h.snapshot(event.SessionID) {
		if err := socket.SendJSON(msg); err != nil {
			slog.Warn(
				"failed to push state to media socket",
				"session", event.SessionID,
				"error", err,
			)
		}
	}
}

func (h *SnapshotHub) handleSessionClosed(_ context.Context, event domain.SessionClosedEvent) {
	for _, socket := range h.snapshot(event.SessionID) {
		_ = socket.SendJSON(StateMessage{Type: "closed"})
		if err := socket.Close(); err != nil {
			slog.Debug("failed to close media socket", "session", event.SessionID, "error", err)
		}
	}
}

// mediaSocket upgrades the request and attaches the socket as the session's
// media element until the connection goes away.
func (h *Handler) mediaSocket(w http.ResponseWriter, r *http.Request) {
	input := usecases.OpenSessionInput{}
	if id, err := sessionID(r); err == nil {
		input.SessionID = id
	}

	// Open before upgrading so the cookie can ride on the handshake response.
	opened, err := h.sessions.Open(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sessionID := opened.SessionID

	header := http.Header{}
	header.Add("Set-Cookie", sessionCookie(r, sessionID).String())

	conn, err := h.upgrader.Upgrade(w, r, header)
	if err != nil {
		// Upgrade has already written the error response.
		slog.Warn("failed to upgrade media socket", "session", sessionID, "error", err)
		return
	}

	socket := h.sockets(conn)
	defer func() {
		if err := socket.Close(); err != nil {
			slog.Debug("failed to close media socket", "session", sessionID, "error", err)
		}
	}()

	h.hub.add(sessionID, socket)
	defer h.hub.remove(sessionID, socket)

	if err := socket.SendJSON(StateMessage{Type: "state", State: newPlayerResponse(opened.Snapshot)}); err != nil {
		slog.Warn("failed to send initial state", "session", sessionID, "error", err)
	}

	// The socket outlives the request context.
	ctx := context.WithoutCancel(r.Context())
	detach, err := h.sessions.Attach(ctx, usecases.AttachInput{SessionID: sessionID, Element: socket})
	if err != nil {
		if !errors.Is(err, usecases.ErrMediaAttached) {
			slog.Error("failed to attach media socket", "session", sessionID, "error", err)
		}
		_ = socket.SendJSON(ErrorMessage{Type: "error", Error: err.Error()})
		return
	}
	defer detach()

	slog.Info("media socket connected", "session", sessionID)
	<-socket.Done()
	slog.Info("media socket disconnected", "session", sessionID)
}
