package infrastructure

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/sglre6355/portfolio/internal/modules/music_player/domain"
)

// ErrPlayerStateNotFound is returned when a session has no stored state.
var ErrPlayerStateNotFound = errors.New("player state not found")

type storedState struct {
	state   domain.PlayerState
	savedAt time.Time
}

// MemoryRepository keeps player states in process memory.
// States are stored by value, so callers never share a state with the store.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[domain.SessionID]storedState
	now     func() time.Time
}

var _ domain.PlayerStateRepository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[domain.SessionID]storedState),
		now:     time.Now,
	}
}

func (r *MemoryRepository) Get(
	_ context.Context,
	sessionID domain.SessionID,
) (domain.PlayerState, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sessionID]
	if !ok {
		return domain.PlayerState{}, ErrPlayerStateNotFound
	}
	return entry.state, nil
}

func (r *MemoryRepository) Save(_ context.Context, state domain.PlayerState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[state.SessionID()] = storedState{state: state, savedAt: r.now()}
	return nil
}

func (r *MemoryRepository) Delete(_ context.Context, sessionID domain.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, sessionID)
	return nil
}

func (r *MemoryRepository) IdleSince(_ context.Context, cutoff time.Time) ([]domain.SessionID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idle := lo.PickBy(r.entries, func(_ domain.SessionID, e storedState) bool {
		return e.savedAt.Before(cutoff)
	})
	return lo.Keys(idle), nil
}

// Count returns the number of stored sessions.
func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.entries)
}
