package synthese

import (
	"context"
	"sort"
	"sync"

	"geoatlas/pkg/platform/sentinel"
)

// InMemoryStore doubles as the test fake.
type InMemoryStore struct {
	mu        sync.RWMutex
	syntheses map[string]Synthese
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{syntheses: make(map[string]Synthese)}
}

func (s *InMemoryStore) Save(_ context.Context, syn Synthese) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syntheses[syn.ID] = syn
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Synthese, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	syn, ok := s.syntheses[id]
	if !ok {
		return Synthese{}, sentinel.ErrNotFound
	}
	return syn, nil
}

func (s *InMemoryStore) ListByEntity(_ context.Context, entity string) ([]Synthese, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Synthese
	for _, syn := range s.syntheses {
		if entity == "" || syn.Metadata.Entity == entity {
			out = append(out, syn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata.CreatedAt.After(out[j].Metadata.CreatedAt)
	})
	return out, nil
}
