package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/portfolio/internal/modules/music_player/application/ports"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

func mockSong(id, primary, secondary string) domain.Song {
	return domain.Song{
		ID:             domain.SongID(id),
		Title:          "Song " + id,
		Artist:         "Bradwell",
		Album:          "Album",
		Duration:       3 * time.Minute,
		CoverURL:       "/covers/" + id + ".jpg",
		AudioURL:       "/music/" + id + ".wav",
		PrimaryColor:   primary,
		SecondaryColor: secondary,
	}
}

func newTestCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	catalog, err := domain.NewCatalog([]domain.Song{
		mockSong("A", "#111111", "#AAAAAA"),
		mockSong("B", "#222222", "#BBBBBB"),
		mockSong("C", "#333333", "#CCCCCC"),
	})
	if err != nil {
		t.Fatalf("failed to build catalog: %v", err)
	}
	return catalog
}

var errStateNotFound = errors.New("player state not found")

type mockRepository struct {
	mu      sync.Mutex
	states  map[domain.SessionID]domain.PlayerState
	deleted []domain.SessionID
	active  map[domain.SessionID]bool
	saveErr error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		states: make(map[domain.SessionID]domain.PlayerState),
		active: make(map[domain.SessionID]bool),
	}
}

func (m *mockRepository) Get(_ context.Context, id domain.SessionID) (domain.PlayerState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.states[id]
	if !ok {
		return domain.PlayerState{}, errStateNotFound
	}
	return state, nil
}

func (m *mockRepository) Save(_ context.Context, state domain.PlayerState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.states[state.SessionID()] = state
	return nil
}

func (m *mockRepository) Delete(_ context.Context, id domain.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deleted = append(m.deleted, id)
	delete(m.states, id)
	return nil
}

// IdleSince reports every stored session as idle unless it is marked active.
func (m *mockRepository) IdleSince(_ context.Context, _ time.Time) ([]domain.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var idle []domain.SessionID
	for id := range m.states {
		if !m.active[id] {
			idle = append(idle, id)
		}
	}
	return idle, nil
}

type mockEventPublisher struct {
	mu             sync.Mutex
	stateChanged   []domain.StateChangedEvent
	playbackFailed []domain.PlaybackFailedEvent
	sessionClosed  []domain.SessionClosedEvent
}

func (m *mockEventPublisher) PublishStateChanged(event domain.StateChangedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stateChanged = append(m.stateChanged, event)
}

func (m *mockEventPublisher) PublishPlaybackFailed(event domain.PlaybackFailedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbackFailed = append(m.playbackFailed, event)
}

func (m *mockEventPublisher) PublishSessionClosed(event domain.SessionClosedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessionClosed = append(m.sessionClosed, event)
}

type mockColorExtractor struct {
	theme domain.ThemeColors
	err   error
	calls []string
}

func (m *mockColorExtractor) Extract(_ context.Context, imageURL string) (domain.ThemeColors, error) {
	m.calls = append(m.calls, imageURL)
	return m.theme, m.err
}

type recordedChange struct {
	snapshot domain.PlayerSnapshot
	change   domain.Change
}

type mockObserver struct {
	changes []recordedChange
}

func (m *mockObserver) OnStateChanged(_ context.Context, snapshot domain.PlayerSnapshot, change domain.Change) {
	m.changes = append(m.changes, recordedChange{snapshot: snapshot, change: change})
}

type mockBinder struct {
	bindErr  error
	bound    []domain.SessionID
	disposed int
}

func (m *mockBinder) Bind(_ context.Context, id domain.SessionID, _ ports.MediaElement) (func(), error) {
	if m.bindErr != nil {
		return nil, m.bindErr
	}
	m.bound = append(m.bound, id)
	return func() { m.disposed++ }, nil
}

type mockElement struct {
	closed bool
	events chan ports.MediaEvent
}

func newMockElement() *mockElement {
	return &mockElement{events: make(chan ports.MediaEvent)}
}

func (m *mockElement) SetSource(context.Context, string) error { return nil }
func (m *mockElement) SetVolume(context.Context, float64) error { return nil }
func (m *mockElement) SetLoop(context.Context, bool) error { return nil }
func (m *mockElement) Play(context.Context) error { return nil }
func (m *mockElement) Pause(context.Context) error { return nil }
func (m *mockElement) Seek(context.Context, time.Duration) error { return nil }
func (m *mockElement) Events() <-chan ports.MediaEvent { return m.events }
func (m *mockElement) Close() error {
	m.closed = true
	return nil
}

type mockVoiceConnection struct {
	joinErr  error
	leaveErr error
	joined   []snowflake.ID
	left     []snowflake.ID
}

func (m *mockVoiceConnection) JoinChannel(_ context.Context, _, channelID snowflake.ID) error {
	if m.joinErr != nil {
		return m.joinErr
	}
	m.joined = append(m.joined, channelID)
	return nil
}

func (m *mockVoiceConnection) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	m.left = append(m.left, guildID)
	return m.leaveErr
}

type mockVoiceStateProvider struct {
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockVoiceStateProvider) GetUserVoiceChannel(
	guildID, userID snowflake.ID,
) (snowflake.ID, error) {
	if m.err != nil {
		return 0, m.err
	}
	return m.channels[userID], nil
}

type mockElementFactory struct {
	err      error
	elements []*mockElement
}

func (m *mockElementFactory) NewGuildElement(snowflake.ID) (ports.MediaElement, error) {
	if m.err != nil {
		return nil, m.err
	}
	element := newMockElement()
	m.elements = append(m.elements, element)
	return element, nil
}

// newTestPlayback builds a PlaybackService over a fresh catalog and opens one session.
func newTestPlayback(t *testing.T) (*PlaybackService, *mockEventPublisher, domain.SessionID) {
	t.Helper()
	publisher := &mockEventPublisher{}
	playback := NewPlaybackService(newMockRepository(), newTestCatalog(t), publisher, nil, domain.SeededPicker(1))
	sessionID := domain.NewSessionID()
	if _, err := playback.open(context.Background(), sessionID); err != nil {
		t.Fatalf("failed to open session: %v", err)
	}
	return playback, publisher, sessionID
}
