package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

const (
	wsWriteWait      = 10 * time.Second
	wsPongWait       = 60 * time.Second
	wsPingPeriod     = (wsPongWait * 9) / 10
	wsMaxMessageSize = 4096
	wsSendBuffer     = 64
)

// ErrSendBufferFull is returned when the browser does not keep up with commands.
var ErrSendBufferFull = errors.New("websocket send buffer full")

var _ ports.MediaElement = (*WebSocketElement)(nil)

// Command names sent to the browser.
const (
	CommandSource = "source"
	CommandVolume = "volume"
	CommandLoop   = "loop"
	CommandPlay   = "play"
	CommandPause  = "pause"
	CommandSeek   = "seek"
)

// MediaCommand is a command message for the browser's audio element.
type MediaCommand struct {
	Type    string   `json:"type"` // Always "command"
	Command string   `json:"command"`
	URL     string   `json:"url,omitempty"`
	Volume  *float64 `json:"volume,omitempty"`
	Loop    *bool    `json:"loop,omitempty"`
	Time    *float64 `json:"time,omitempty"` // Seconds
}

// MediaEventMessage is a native event reported by the browser.
type MediaEventMessage struct {
	Event    string  `json:"event"`
	Time     float64 `json:"time,omitempty"`     // Seconds, for timeupdate
	Duration float64 `json:"duration,omitempty"` // Seconds, for loadedmetadata
	Message  string  `json:"message,omitempty"`  // For error
}

// ToMediaEvent converts the wire message to a MediaEvent.
func (m MediaEventMessage) ToMediaEvent() (ports.MediaEvent, error) {
	kind, ok := ports.ParseMediaEventKind(m.Event)
	if !ok {
		return ports.MediaEvent{}, fmt.Errorf("unknown media event %q", m.Event)
	}

	event := ports.MediaEvent{Kind: kind}
	switch kind {
	case ports.MediaTimeUpdate:
		event.Time = secondsToDuration(m.Time)
	case ports.MediaLoadedMetadata:
		event.Duration = secondsToDuration(m.Duration)
	case ports.MediaError:
		message := m.Message
		if message == "" {
			message = "media error"
		}
		event.Err = errors.New(message)
	}
	return event, nil
}

// WebSocketElement is a media element whose native audio lives in a browser
// on the other end of a WebSocket connection.
type WebSocketElement struct {
	id   uuid.UUID
	conn *websocket.Conn

	send   chan []byte
	events chan ports.MediaEvent
	done   chan struct{}

	closeOnce sync.Once
}

// NewWebSocketElement takes ownership of conn and starts its read and write loops.
func NewWebSocketElement(conn *websocket.Conn) *WebSocketElement {
	e := &WebSocketElement{
		id:     uuid.New(),
		conn:   conn,
		send:   make(chan []byte, wsSendBuffer),
		events: make(chan ports.MediaEvent, DefaultElementEventBuffer),
		done:   make(chan struct{}),
	}

	go e.readPump()
	go e.writePump()

	slog.Debug("websocket media element connected", "connection", e.id)

	return e
}

// ID identifies the connection in logs.
func (e *WebSocketElement) ID() uuid.UUID {
	return e.id
}

// Done is closed once the connection is gone.
func (e *WebSocketElement) Done() <-chan struct{} {
	return e.done
}

// SetSource implements ports.MediaElement.
func (e *WebSocketElement) SetSource(_ context.Context, url string) error {
	return e.command(MediaCommand{Command: CommandSource, URL: url})
}

// SetVolume implements ports.MediaElement.
func (e *WebSocketElement) SetVolume(_ context.Context, volume float64) error {
	return e.command(MediaCommand{Command: CommandVolume, Volume: &volume})
}

// SetLoop implements ports.MediaElement.
func (e *WebSocketElement) SetLoop(_ context.Context, loop bool) error {
	return e.command(MediaCommand{Command: CommandLoop, Loop: &loop})
}

// Play implements ports.MediaElement. A browser that blocks autoplay reports
// nothing back, so a successful send is the best this element can confirm.
func (e *WebSocketElement) Play(context.Context) error {
	return e.command(MediaCommand{Command: CommandPlay})
}

// Pause implements ports.MediaElement.
func (e *WebSocketElement) Pause(context.Context) error {
	return e.command(MediaCommand{Command: CommandPause})
}

// Seek implements ports.MediaElement.
func (e *WebSocketElement) Seek(_ context.Context, position time.Duration) error {
	seconds := position.Seconds()
	return e.command(MediaCommand{Command: CommandSeek, Time: &seconds})
}

// Events implements ports.MediaElement.
func (e *WebSocketElement) Events() <-chan ports.MediaEvent {
	return e.events
}

// SendJSON queues an arbitrary JSON message for the browser.
func (e *WebSocketElement) SendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	select {
	case <-e.done:
		return ErrElementClosed
	default:
	}

	select {
	case e.send <- data:
		return nil
	case <-e.done:
		return ErrElementClosed
	default:
		return ErrSendBufferFull
	}
}

// Close implements ports.MediaElement. The write loop sends a close frame
// and releases the connection.
func (e *WebSocketElement) Close() error {
	e.closeOnce.Do(func() {
		close(e.done)
		slog.Debug("websocket media element disconnected", "connection", e.id)
	})
	return nil
}

func (e *WebSocketElement) command(cmd MediaCommand) error {
	cmd.Type = "command"
	return e.SendJSON(cmd)
}

// readPump owns the events channel and closes it when the connection ends.
func (e *WebSocketElement) readPump() {
	defer func() {
		close(e.events)
		_ = e.Close()
	}()

	e.conn.SetReadLimit(wsMaxMessageSize)
	_ = e.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	e.conn.SetPongHandler(func(string) error {
		return e.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := e.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("websocket media element read failed", "connection", e.id, "error", err)
			}
			return
		}

		var msg MediaEventMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			slog.Warn("ignoring malformed media event", "connection", e.id, "error", err)
			continue
		}
		event, err := msg.ToMediaEvent()
		if err != nil {
			slog.Warn("ignoring media event", "connection", e.id, "error", err)
			continue
		}

		select {
		case e.events <- event:
		default:
			slog.Warn("media event buffer full, dropping event", "connection", e.id, "event", event.Kind.String())
		}
	}
}

// writePump is the connection's only writer.
func (e *WebSocketElement) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = e.conn.Close()
	}()

	for {
		select {
		case <-e.done:
			_ = e.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(wsWriteWait),
			)
			return

		case data := <-e.send:
			_ = e.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := e.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				slog.Warn("websocket media element write failed", "connection", e.id, "error", err)
				_ = e.Close()
				return
			}

		case <-ticker.C:
			_ = e.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := e.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = e.Close()
				return
			}
		}
	}
}

// maxSeconds is the longest position a time.Duration can hold.
const maxSeconds = float64(math.MaxInt64 / int64(time.Second))

// secondsToDuration converts a browser-reported position. Negative and NaN
// values become 0; values past the time.Duration range saturate.
func secondsToDuration(seconds float64) time.Duration {
	switch {
	case !(seconds > 0):
		return 0
	case seconds >= maxSeconds:
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}
