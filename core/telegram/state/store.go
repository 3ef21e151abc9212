// Package state keeps one value per Telegram user in process memory.
// Entries are lost on restart; storing the idle value removes the entry.
package state

import "sync"

// Store maps user ids to a state value of type S.
type Store[S comparable] struct {
	mu   sync.RWMutex
	idle S
	byID map[int64]S
}

// New returns an empty store that reports idle for unknown users.
func New[S comparable](idle S) *Store[S] {
	return &Store[S]{idle: idle, byID: make(map[int64]S)}
}

func (s *Store[S]) Get(userID int64) S {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.byID[userID]; ok {
		return v
	}
	return s.idle
}

func (s *Store[S]) Set(userID int64, v S) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero S
	if v == s.idle || v == zero {
		delete(s.byID, userID)
		return
	}
	s.byID[userID] = v
}

func (s *Store[S]) Clear(userID int64) {
	s.mu.Lock()
	delete(s.byID, userID)
	s.mu.Unlock()
}

// Active reports whether userID has a non-idle value.
func (s *Store[S]) Active(userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byID[userID]
	return ok
}

// Len counts users with a non-idle value.
func (s *Store[S]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}
