package suggestion

import (
	"context"
	"sort"
	"sync"

	"geoatlas/pkg/platform/sentinel"
)

// InMemoryStore doubles as the test fake.
type InMemoryStore struct {
	mu          sync.RWMutex
	suggestions map[string]Suggestion
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{suggestions: make(map[string]Suggestion)}
}

func (s *InMemoryStore) Save(_ context.Context, sug Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions[sug.ID] = sug
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sug, ok := s.suggestions[id]
	if !ok {
		return Suggestion{}, sentinel.ErrNotFound
	}
	return sug, nil
}

func (s *InMemoryStore) ListPending(_ context.Context, entity string) ([]Suggestion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Suggestion
	for _, sug := range s.suggestions {
		if sug.Status != StatusPending {
			continue
		}
		if entity != "" && sug.Entity != entity {
			continue
		}
		out = append(out, sug)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
