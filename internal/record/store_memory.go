package record

import (
	"context"
	"reflect"
	"strings"
	"sync"

	"geoatlas/pkg/platform/sentinel"
)

// InMemoryStore keeps records in insertion order. Doubles as the test fake.
type InMemoryStore struct {
	mu      sync.RWMutex
	order   []string
	records map[string]Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[string]Record)}
}

func (s *InMemoryStore) List(_ context.Context, filter Filter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		rec := s.records[id]
		if filter.Entity != "" && rec.Metadata.Entity != filter.Entity {
			continue
		}
		if filter.LabelContains != "" &&
			!strings.Contains(strings.ToLower(rec.Metadata.Label), strings.ToLower(filter.LabelContains)) {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return Record{}, sentinel.ErrNotFound
	}
	return rec, nil
}

func (s *InMemoryStore) Insert(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[rec.ID]; ok {
		return sentinel.ErrConflict
	}
	s.records[rec.ID] = rec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *InMemoryStore) Replace(_ context.Context, rec Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.records[rec.ID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if reflect.DeepEqual(prev, rec) {
		return 0, nil
	}
	s.records[rec.ID] = rec
	return 1, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[id]; !ok {
		return 0, nil
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (s *InMemoryStore) BulkUpsert(_ context.Context, recs []Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var applied int64
	for _, rec := range recs {
		if _, ok := s.records[rec.ID]; !ok {
			s.order = append(s.order, rec.ID)
		}
		s.records[rec.ID] = rec
		applied++
	}
	return applied, nil
}
