package habilitation

import (
	"context"
	"sort"
	"sync"

	"geoatlas/internal/identity"
	"geoatlas/pkg/platform/sentinel"
)

// InMemoryStore doubles as the test fake.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[string]Request
	grants   map[string]identity.Habilitation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		requests: make(map[string]Request),
		grants:   make(map[string]identity.Habilitation),
	}
}

func (s *InMemoryStore) UpsertPending(_ context.Context, req Request) (Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.requests {
		if existing.Status == RequestPending && existing.Principal.ID == req.Principal.ID {
			req.ID = id
			req.CreatedAt = existing.CreatedAt
			break
		}
	}
	s.requests[req.ID] = req
	return req, nil
}

func (s *InMemoryStore) FindRequest(_ context.Context, id string) (Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[id]
	if !ok {
		return Request{}, sentinel.ErrNotFound
	}
	return req, nil
}

func (s *InMemoryStore) SaveRequest(_ context.Context, req Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryStore) ListPending(_ context.Context) ([]Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Request
	for _, req := range s.requests {
		if req.Status == RequestPending {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) SaveGrant(_ context.Context, grant identity.Habilitation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grants[grant.PrincipalID] = grant
	return nil
}

func (s *InMemoryStore) FindGrant(_ context.Context, principalID string) (identity.Habilitation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	grant, ok := s.grants[principalID]
	if !ok {
		return identity.Habilitation{}, sentinel.ErrNotFound
	}
	return grant, nil
}
