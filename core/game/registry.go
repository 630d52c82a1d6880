package game

import (
	"sync"
	"time"

	"github.com/trezcool/dalant/core"
)

var ErrSessionNotFound = core.NewNotFoundError("game session")

// Registry keeps the running quiz board sessions of every church in memory.
type Registry struct {
	mu     sync.RWMutex
	boards map[string]*Board // {id: board}
}

func NewRegistry() *Registry {
	return &Registry{boards: make(map[string]*Board)}
}

func (r *Registry) Add(b *Board) {
	r.mu.Lock()
	r.boards[b.state.ID] = b
	r.mu.Unlock()
}

// Get returns the session with the given id if it belongs to churchID.
func (r *Registry) Get(churchID, id string) (*Board, error) {
	r.mu.RLock()
	b, ok := r.boards[id]
	r.mu.RUnlock()
	if !ok || b.state.ChurchID != churchID {
		return nil, ErrSessionNotFound
	}
	return b, nil
}

func (r *Registry) Remove(churchID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.boards[id]
	if !ok || b.state.ChurchID != churchID {
		return ErrSessionNotFound
	}
	delete(r.boards, id)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.boards)
}

// Sweep evicts the sessions idle for longer than ttl and returns how many were evicted.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := core.NowFunc().UTC().Add(-ttl)

	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for id, b := range r.boards {
		if b.lastActivity().Before(cutoff) {
			delete(r.boards, id)
			n++
		}
	}
	return n
}
