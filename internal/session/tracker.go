package session

import (
	"sync"
	"time"
)

// Tracker holds the in-memory sessions that are mid-turn, keyed by session
// id. Sessions idle past their timeout are reaped by the orchestrator.
type Tracker struct {
	sessions map[string]*State
	mu       sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		sessions: make(map[string]*State),
	}
}

func (t *Tracker) Set(st *State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[st.ID] = st
}

func (t *Tracker) Get(id string) *State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessions[id]
}

func (t *Tracker) Remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

func (t *Tracker) ListIdle(timeout time.Duration) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var idle []string
	now := time.Now()
	for id, s := range t.sessions {
		if now.Sub(s.LastActive) > timeout {
			idle = append(idle, id)
		}
	}
	return idle
}
