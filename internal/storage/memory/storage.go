package memorystorage

import (
	"context"
	"strconv"
	"sync"

	"github.com/eventbook/events-service/internal/storage"
)

type Storage struct {
	mu    sync.RWMutex
	data  map[string]storage.Event
	order []string
	idSeq int
}

func New() *Storage {
	return &Storage{data: make(map[string]storage.Event)}
}

func (s *Storage) Connect(_ context.Context) error {
	return nil
}

func (s *Storage) Close(_ context.Context) error {
	return nil
}

func (s *Storage) AddEvent(_ context.Context, e *storage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.ID == "" {
		e.ID = s.nextID()
	}
	if _, ok := s.data[e.ID]; ok {
		return storage.ErrDuplicateEventID
	}
	e.Version = 0
	s.data[e.ID] = *e
	s.order = append(s.order, e.ID)
	return nil
}

func (s *Storage) ListEvents(_ context.Context, f storage.Filter) ([]storage.Event, error) {
	events := make([]storage.Event, 0)
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.order {
		if event, ok := s.data[id]; ok && f.Matches(event) {
			events = append(events, event)
		}
	}
	return events, nil
}

// UpdateEvent checks the version and applies the patch under a single write
// lock, which is what keeps concurrent updates against the same version from
// both succeeding.
func (s *Storage) UpdateEvent(_ context.Context, id string, version int64, e storage.Event) (storage.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.data[id]
	if !ok || current.Version != version {
		return storage.Event{}, storage.ErrNotFoundEvent
	}
	e.ID = id
	e.Version = current.Version + 1
	s.data[id] = e
	return e, nil
}

func (s *Storage) RemoveEvent(_ context.Context, id string) (storage.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed, ok := s.data[id]
	if !ok {
		return storage.Event{}, storage.ErrNotFoundEvent
	}
	delete(s.data, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return removed, nil
}

// Sequential ids are never reused, even after a remove.
func (s *Storage) nextID() string {
	s.idSeq++
	return strconv.Itoa(s.idSeq)
}
