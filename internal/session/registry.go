package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

type registryEntry struct {
	state     State
	expiresAt time.Time
}

// Registry holds the State of every live login session, keyed by the session
// ID carried in the access token. It lives in process memory, so a restart
// logs everyone out. A session expires together with its access token, and
// expired sessions are dropped on the next Start or lookup.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]registryEntry
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]registryEntry),
		now:     time.Now,
	}
}

// Start opens a session for username with a freshly initialized State that
// lives for ttl.
func (r *Registry) Start(username string, ttl time.Duration) uuid.UUID {
	id := uuid.New()
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep(now)
	r.entries[id] = registryEntry{state: NewState(username), expiresAt: now.Add(ttl)}
	return id
}

func (r *Registry) Get(id uuid.UUID) (State, bool) {
	now := r.now()

	r.mu.RLock()
	entry, ok := r.entries[id]
	r.mu.RUnlock()

	if !ok {
		return State{}, false
	}
	if !now.Before(entry.expiresAt) {
		r.End(id)
		return State{}, false
	}
	return entry.state.clone(), true
}

// Put replaces the State of a live session. It reports false when the session
// has ended or expired meanwhile; the state is then dropped.
func (r *Registry) Put(id uuid.UUID, st State) bool {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[id]
	if !ok {
		return false
	}
	if !now.Before(entry.expiresAt) {
		delete(r.entries, id)
		return false
	}
	entry.state = st
	r.entries[id] = entry
	return true
}

func (r *Registry) End(id uuid.UUID) {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
}

// sweep drops expired sessions. Callers hold the write lock.
func (r *Registry) sweep(now time.Time) {
	for id, entry := range r.entries {
		if !now.Before(entry.expiresAt) {
			delete(r.entries, id)
		}
	}
}
