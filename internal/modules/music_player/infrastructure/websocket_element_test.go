package infrastructure

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
)

// newElementPair returns a server-side element and the browser side of its connection.
func newElementPair(t *testing.T) (*WebSocketElement, *websocket.Conn) {
	t.Helper()

	elements := make(chan *WebSocketElement, 1)
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		elements <- NewWebSocketElement(conn)
	}))
	t.Cleanup(server.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case element := <-elements:
		t.Cleanup(func() { element.Close() })
		return element, client
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for element")
		return nil, nil
	}
}

func readCommand(t *testing.T, client *websocket.Conn) MediaCommand {
	t.Helper()

	_ = client.SetReadDeadline(time.Now().Add(time.Second))
	var cmd MediaCommand
	if err := client.ReadJSON(&cmd); err != nil {
		t.Fatalf("failed to read command: %v", err)
	}
	return cmd
}

func TestWebSocketElement_Commands(t *testing.T) {
	element, client := newElementPair(t)
	ctx := context.Background()

	if err := element.SetSource(ctx, "/music/Lenny.wav"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = element.SetVolume(ctx, 0.25)
	_ = element.SetLoop(ctx, true)
	_ = element.Seek(ctx, 1500*time.Millisecond)
	_ = element.Play(ctx)
	_ = element.Pause(ctx)

	cmd := readCommand(t, client)
	if cmd.Type != "command" || cmd.Command != CommandSource || cmd.URL != "/music/Lenny.wav" {
		t.Errorf("unexpected source command %+v", cmd)
	}
	if cmd := readCommand(t, client); cmd.Command != CommandVolume || cmd.Volume == nil || *cmd.Volume != 0.25 {
		t.Errorf("unexpected volume command %+v", cmd)
	}
	if cmd := readCommand(t, client); cmd.Command != CommandLoop || cmd.Loop == nil || !*cmd.Loop {
		t.Errorf("unexpected loop command %+v", cmd)
	}
	if cmd := readCommand(t, client); cmd.Command != CommandSeek || cmd.Time == nil || *cmd.Time != 1.5 {
		t.Errorf("unexpected seek command %+v", cmd)
	}
	if cmd := readCommand(t, client); cmd.Command != CommandPlay {
		t.Errorf("expected play, got %+v", cmd)
	}
	if cmd := readCommand(t, client); cmd.Command != CommandPause {
		t.Errorf("expected pause, got %+v", cmd)
	}
}

func TestWebSocketElement_Events(t *testing.T) {
	element, client := newElementPair(t)

	messages := []MediaEventMessage{
		{Event: "bogus"},
		{Event: "loadedmetadata", Duration: 245},
		{Event: "timeupdate", Time: 12.5},
		{Event: "ended"},
		{Event: "error", Message: "decode failed"},
	}
	for _, msg := range messages {
		if err := client.WriteJSON(msg); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	next := func() ports.MediaEvent {
		t.Helper()
		select {
		case event := <-element.Events():
			return event
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
			return ports.MediaEvent{}
		}
	}

	if event := next(); event.Kind != ports.MediaLoadedMetadata || event.Duration != 245*time.Second {
		t.Errorf("unexpected event %+v", event)
	}
	if event := next(); event.Kind != ports.MediaTimeUpdate || event.Time != 12500*time.Millisecond {
		t.Errorf("unexpected event %+v", event)
	}
	if event := next(); event.Kind != ports.MediaEnded {
		t.Errorf("unexpected event %+v", event)
	}
	if event := next(); event.Kind != ports.MediaError || event.Err == nil || event.Err.Error() != "decode failed" {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestWebSocketElement_ClientDisconnect(t *testing.T) {
	element, client := newElementPair(t)

	client.Close()

	select {
	case <-element.Done():
	case <-time.After(time.Second):
		t.Fatal("element not done after client disconnect")
	}

	select {
	case _, ok := <-element.Events():
		if ok {
			t.Error("expected events channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("events channel not closed")
	}

	if err := element.Play(context.Background()); err == nil {
		t.Error("expected error after disconnect")
	}
}

func TestMediaEventMessage_ToMediaEvent(t *testing.T) {
	tests := []struct {
		name    string
		msg     MediaEventMessage
		want    ports.MediaEventKind
		wantErr bool
	}{
		{"ended", MediaEventMessage{Event: "ended"}, ports.MediaEnded, false},
		{"negative time clamps", MediaEventMessage{Event: "timeupdate", Time: -3}, ports.MediaTimeUpdate, false},
		{"error without message", MediaEventMessage{Event: "error"}, ports.MediaError, false},
		{"unknown", MediaEventMessage{Event: "canplay"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := tt.msg.ToMediaEvent()
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if event.Kind != tt.want {
				t.Errorf("kind = %v, want %v", event.Kind, tt.want)
			}
			if event.Time < 0 {
				t.Errorf("negative time %v", event.Time)
			}
			if event.Kind == ports.MediaError && event.Err == nil {
				t.Error("expected error value")
			}
		})
	}
}

func TestSecondsToDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    time.Duration
	}{
		{"zero", 0, 0},
		{"fractional", 1.5, 1500 * time.Millisecond},
		{"negative", -3, 0},
		{"NaN", math.NaN(), 0},
		{"huge", 1e11, time.Duration(math.MaxInt64)},
		{"infinite", math.Inf(1), time.Duration(math.MaxInt64)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := secondsToDuration(tt.seconds); got != tt.want {
				t.Errorf("secondsToDuration(%v) = %v, want %v", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestMediaEventMessage_HugeDurationSaturates(t *testing.T) {
	event, err := MediaEventMessage{Event: "loadedmetadata", Duration: 1e11}.ToMediaEvent()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Duration <= 0 {
		t.Errorf("expected a saturated positive duration, got %v", event.Duration)
	}
}
