package server

import (
	"sync"
)

// maxStoredAnalyses bounds the in-memory result store. When the limit is
// reached, the oldest analysis is evicted.
const maxStoredAnalyses = 1000

// analysisStore holds completed analyses by id. It is a simple bounded
// in-memory map; durable storage goes through the runner's cache, which
// already persists forests and artifacts by content hash.
type analysisStore struct {
	mu      sync.RWMutex
	entries map[string]*AnalyzeResponse
	order   []string
}

func newAnalysisStore() *analysisStore {
	return &analysisStore{
		entries: make(map[string]*AnalyzeResponse),
	}
}

func (s *analysisStore) put(a *AnalyzeResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.order) >= maxStoredAnalyses {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.entries, oldest)
	}
	s.entries[a.ID] = a
	s.order = append(s.order, a.ID)
}

func (s *analysisStore) get(id string) (*AnalyzeResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.entries[id]
	return a, ok
}
