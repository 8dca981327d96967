package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// SessionCookie names the cookie that carries a browser's session id.
const SessionCookie = "portfolio_session"

type action func(ctx context.Context, sessionID domain.SessionID) (*usecases.TransitionOutput, error)

// Handler serves the player API and the media socket.
type Handler struct {
	catalog  *usecases.CatalogService
	playback *usecases.PlaybackService
	queue    *usecases.QueueService
	settings *usecases.SettingsService
	sessions *usecases.SessionService
	hub      *SnapshotHub
	sockets  SocketFactory
	mediaDir string

	upgrader websocket.Upgrader
	actions  map[string]action
}

// NewHandler creates a new Handler. mediaDir may be empty, in which case
// /music and /covers are not served.
func NewHandler(
	catalog *usecases.CatalogService,
	playback *usecases.PlaybackService,
	queue *usecases.QueueService,
	settings *usecases.SettingsService,
	sessions *usecases.SessionService,
	hub *SnapshotHub,
	sockets SocketFactory,
	mediaDir string,
) *Handler {
	h := &Handler{
		catalog:  catalog,
		playback: playback,
		queue:    queue,
		settings: settings,
		sessions: sessions,
		hub:      hub,
		sockets:  sockets,
		mediaDir: mediaDir,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	h.actions = map[string]action{
		"play":         playback.Play,
		"pause":        playback.Pause,
		"toggle":       playback.TogglePlay,
		"next":         playback.NextSong,
		"previous":     playback.PreviousSong,
		"stop-snippet": playback.StopSnippet,
		"loop":         settings.ToggleLoop,
		"shuffle":      settings.ToggleShuffle,
		"dark-mode":    settings.ToggleDarkMode,
	}
	return h
}

// Routes mounts the handler on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", h.listCatalog)
		r.Get("/catalog/{songID}", h.getSong)

		r.Post("/session", h.openSession)
		r.Delete("/session", h.closeSession)

		r.Route("/player", func(r chi.Router) {
			r.Get("/", h.getPlayer)
			r.Post("/select/{songID}", h.selectSong)
			r.Post("/snippet/{songID}", h.playSnippet)
			r.Post("/volume", h.setVolume)
			r.Post("/seek", h.seek)
			r.Post("/extract-colors", h.extractColors)
			r.Post("/{action}", h.runAction)
		})

		r.Route("/queue", func(r chi.Router) {
			r.Get("/", h.listQueue)
			r.Delete("/", h.clearQueue)
			r.Post("/{songID}", h.addToQueue)
			r.Post("/{songID}/next", h.playNext)
			r.Delete("/{songID}", h.removeFromQueue)
		})
	})

	r.Get("/ws/media", h.mediaSocket)

	if h.mediaDir != "" {
		h.serveDir(r, "/music", filepath.Join(h.mediaDir, "music"))
		h.serveDir(r, "/covers", filepath.Join(h.mediaDir, "covers"))
	}
}

func (h *Handler) serveDir(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix+"/", http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", fs.ServeHTTP)
	r.Head(prefix+"/*", fs.ServeHTTP)
}

// sessionID reads the session cookie.
func sessionID(r *http.Request) (domain.SessionID, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", ErrNoSession
	}
	id, ok := domain.ParseWebSessionID(cookie.Value)
	if !ok {
		return "", ErrNoSession
	}
	return id, nil
}

func sessionCookie(r *http.Request, id domain.SessionID) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) listCatalog(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeJSON(w, http.StatusOK, newSongResponses(h.catalog.List()))
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, r, fmt.Errorf("%w: invalid limit %q", ErrBadRequest, raw))
			return
		}
		limit = n
	}

	output, err := h.catalog.Search(usecases.SearchSongsInput{Query: query, Limit: limit})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSongResponses(output.Songs))
}

func (h *Handler) getSong(w http.ResponseWriter, r *http.Request) {
	song, err := h.catalog.Get(domain.SongID(chi.URLParam(r, "songID")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSongResponse(song))
}

// openSession reopens the cookie's session when it still exists and
// starts a fresh one otherwise.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	input := usecases.OpenSessionInput{}
	if id, err := sessionID(r); err == nil {
		input.SessionID = id
	}

	output, err := h.sessions.Open(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.SetCookie(w, sessionCookie(r, output.SessionID))
	writeJSON(w, http.StatusOK, newPlayerResponse(output.Snapshot))
}

func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.sessions.Close(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}

	expired := sessionCookie(r, id)
	expired.MaxAge = -1
	http.SetCookie(w, expired)
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	snapshot, err := h.sessions.Snapshot(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlayerResponse(snapshot))
}

// transition runs fn for the request's session and responds with the new state.
func (h *Handler) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx context.Context, id domain.SessionID) (*usecases.TransitionOutput, error),
) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	output, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlayerResponse(output.Snapshot))
}

func (h *Handler) runAction(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "action")
	fn, ok := h.actions[name]
	if !ok {
		writeError(w, r, fmt.Errorf("%w: %s", ErrUnknownAction, name))
		return
	}
	h.transition(w, r, fn)
}

func (h *Handler) selectSong(w http.ResponseWriter, r *http.Request) {
	songID := domain.SongID(chi.URLParam(r, "songID"))
	h.transition(w, r, func(ctx context.Context, id domain.SessionID) (*usecases.TransitionOutput, error) {
		return h.playback.SelectSong(ctx, usecases.SelectSongInput{SessionID: id, SongID: songID})
	})
}

func (h *Handler) playSnippet(w http.ResponseWriter, r *http.Request) {
	songID := domain.SongID(chi.URLParam(r, "songID"))
	h.transition(w, r, func(ctx context.Context, id domain.SessionID) (*usecases.TransitionOutput, error) {
		return h.playback.PlaySnippet(ctx, usecases.PlaySnippetInput{SessionID: id, SongID: songID})
	})
}

type volumeRequest struct {
	Volume *float64 `json:"volume"`
}

func (h *Handler) setVolume(w http.ResponseWriter, r *http.Request) {
	var body volumeRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Volume == nil {
		writeError(w, r, fmt.Errorf("%w: volume is required", ErrBadRequest))
		return
	}
	h.transition(w, r, func(ctx context.Context, id domain.SessionID) (*usecases.TransitionOutput, error) {
		return h.settings.SetVolume(ctx, usecases.SetVolumeInput{SessionID: id, Volume: *body.Volume})
	})
}

type extractColorsRequest struct {
	ImageURL string `json:"imageUrl"`
}

// extractColors recolors from the posted image, or the current cover when
// the body is empty.
func (h *Handler) extractColors(w http.ResponseWriter, r *http.Request) {
	var body extractColorsRequest
	if err := decodeBody(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, err)
		return
	}
	h.transition(w, r, func(ctx context.Context, id domain.SessionID) (*usecases.TransitionOutput, error) {
		return h.playback.ExtractColors(ctx, usecases.ExtractColorsInput{SessionID: id, ImageURL: body.ImageURL})
	})
}

type seekRequest struct {
	Time *float64 `json:"time"` // Seconds
}

func (h *Handler) seek(w http.ResponseWriter, r *http.Request) {
	var body seekRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	if body.Time == nil || *body.Time < 0 {
		writeError(w, r, fmt.Errorf("%w: time must be a non-negative number of seconds", ErrBadRequest))
		return
	}
	position := time.Duration(*body.Time * float64(time.Second))
	h.transition(w, r, func(ctx context.Context, id domain.SessionID) (*usecases.TransitionOutput, error) {
		return h.playback.SeekTo(ctx, usecases.SeekInput{SessionID: id, Position: position})
	})
}

func (h *Handler) listQueue(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	input := usecases.QueueListInput{SessionID: id}
	for key, dst := range map[string]*int{"page": &input.Page, "pageSize": &input.PageSize} {
		raw := r.URL.Query().Get(key)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, key, raw))
			return
		}
		*dst = n
	}

	output, err := h.queue.List(r.Context(), input)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQueueResponse(output))
}

func (h *Handler) addToQueue(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, h.queue.Add)
}

func (h *Handler) playNext(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, h.queue.PlayNext)
}

func (h *Handler) enqueue(
	w http.ResponseWriter,
	r *http.Request,
	fn func(context.Context, usecases.QueueSongInput) (*usecases.QueueSongOutput, error),
) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	output, err := fn(r.Context(), usecases.QueueSongInput{
		SessionID: id,
		SongID:    domain.SongID(chi.URLParam(r, "songID")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlayerResponse(output.Snapshot))
}

func (h *Handler) removeFromQueue(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	output, err := h.queue.Remove(r.Context(), usecases.QueueRemoveInput{
		SessionID: id,
		SongID:    domain.SongID(chi.URLParam(r, "songID")),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !output.Removed {
		writeError(w, r, fmt.Errorf("%w: song is not queued", usecases.ErrSongNotFound))
		return
	}
	writeJSON(w, http.StatusOK, newPlayerResponse(output.Snapshot))
}

func (h *Handler) clearQueue(w http.ResponseWriter, r *http.Request) {
	id, err := sessionID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	output, err := h.queue.Clear(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPlayerResponse(output.Snapshot))
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<16))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
