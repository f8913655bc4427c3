// Package session keeps each signed-in principal's table view and inline
// editors between requests.
package session

import (
	"context"
	"sync"
	"time"

	"haoshi-console/internal/editing"
	"haoshi-console/internal/listing"
)

// State is everything a session remembers about the console.
type State struct {
	View        listing.ViewState      `json:"view"`
	Communities listing.CommunityQuery `json:"communities"`
	Edits       editing.Board          `json:"edits"`
}

// NewState returns the state of a fresh session.
func NewState() State {
	return State{
		View:        listing.DefaultViewState(),
		Communities: listing.DefaultCommunityQuery(),
		Edits:       editing.NewBoard(),
	}
}

func (s *State) fill() {
	if s.View.Tab == "" {
		s.View = listing.DefaultViewState()
	}
	if s.Communities.SortColumn == "" {
		s.Communities = listing.DefaultCommunityQuery()
	}
	if s.Edits == nil {
		s.Edits = editing.NewBoard()
	}
}

// Store persists session state by key. Loading an unknown key yields a
// fresh state.
type Store interface {
	Load(ctx context.Context, key string) (State, error)
	Save(ctx context.Context, key string, s State) error
	Delete(ctx context.Context, key string) error
}

type memoryEntry struct {
	state   State
	expires time.Time
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates a store whose entries expire ttl after their last save.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *MemoryStore) Load(_ context.Context, key string) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok || (m.ttl > 0 && m.now().After(e.expires)) {
		delete(m.entries, key)
		return NewState(), nil
	}
	s := e.state
	s.Edits = cloneBoard(s.Edits)
	s.View.Expanded = append([]string(nil), s.View.Expanded...)
	s.fill()
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, key string, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.Edits = cloneBoard(s.Edits)
	s.View.Expanded = append([]string(nil), s.View.Expanded...)
	m.entries[key] = memoryEntry{state: s, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

// cloneBoard copies a board deeply enough that later edits to drafts do
// not reach the stored copy.
func cloneBoard(b editing.Board) editing.Board {
	if b == nil {
		return nil
	}
	out := make(editing.Board, len(b))
	for k, st := range b {
		if st.Draft != nil {
			d := make(map[string]string, len(st.Draft))
			for f, v := range st.Draft {
				d[f] = v
			}
			st.Draft = d
		}
		out[k] = st
	}
	return out
}
