package mcp

import (
	"sync"

	"github.com/google/uuid"
)

const sessionBuffer = 100

// sessions maps SSE session ids to their outbound message streams.
type sessions struct {
	mu      sync.RWMutex
	streams map[string]chan []byte
}

func newSessions() *sessions {
	return &sessions{streams: make(map[string]chan []byte)}
}

func (s *sessions) open() (string, chan []byte) {
	id := uuid.New().String()
	ch := make(chan []byte, sessionBuffer)
	s.mu.Lock()
	s.streams[id] = ch
	s.mu.Unlock()
	return id, ch
}

func (s *sessions) close(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ch, ok := s.streams[id]; ok {
		delete(s.streams, id)
		close(ch)
	}
}

func (s *sessions) exists(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.streams[id]
	return ok
}

// deliver reports false when the session is gone or its buffer is full. The
// read lock is held across the send so close cannot race it.
func (s *sessions) deliver(id string, msg []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ch, ok := s.streams[id]
	if !ok {
		return false
	}
	select {
	case ch <- msg:
		return true
	default:
		return false
	}
}
