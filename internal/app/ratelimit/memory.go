package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps each client's window in a mutex-guarded map. The map
// is bounded: once maxClients distinct identifiers are tracked, clients
// whose windows have gone fully stale are evicted before a new one is
// admitted, and if none are stale the client with the oldest recent
// activity is dropped.
type MemoryStore struct {
	mu         sync.Mutex
	cfg        Config
	maxClients int
	windows    map[string][]time.Time
}

func NewMemoryStore(cfg Config, maxClients int) *MemoryStore {
	if maxClients <= 0 {
		maxClients = 10000
	}
	return &MemoryStore{
		cfg:        cfg,
		maxClients: maxClients,
		windows:    make(map[string][]time.Time),
	}
}

func (s *MemoryStore) Admit(_ context.Context, clientID string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window, tracked := s.windows[clientID]
	window = s.prune(window, now)

	if len(window) >= s.cfg.MaxRequests {
		s.windows[clientID] = window
		return false, nil
	}

	if !tracked && len(s.windows) >= s.maxClients {
		s.evict(now)
	}

	s.windows[clientID] = append(window, now)
	return true, nil
}

// Len reports the number of tracked client identifiers.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// prune drops timestamps that have left the trailing window, reusing the
// slice's backing array.
func (s *MemoryStore) prune(window []time.Time, now time.Time) []time.Time {
	kept := window[:0]
	for _, t := range window {
		if now.Sub(t) < s.cfg.Window {
			kept = append(kept, t)
		}
	}
	return kept
}

// evict is called with the lock held when the client bound is hit. It
// first removes every client whose window pruned to empty; if that frees
// nothing it removes the client that was quiet the longest.
func (s *MemoryStore) evict(now time.Time) {
	evicted := false
	for id, window := range s.windows {
		if pruned := s.prune(window, now); len(pruned) == 0 {
			delete(s.windows, id)
			evicted = true
		} else {
			s.windows[id] = pruned
		}
	}
	if evicted {
		return
	}

	var oldestID string
	var oldestSeen time.Time
	for id, window := range s.windows {
		last := window[len(window)-1]
		if oldestID == "" || last.Before(oldestSeen) {
			oldestID = id
			oldestSeen = last
		}
	}
	if oldestID != "" {
		delete(s.windows, oldestID)
	}
}
