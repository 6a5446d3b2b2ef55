package memorystorage

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/eventbook/events-service/internal/storage"
	"github.com/stretchr/testify/require"
)

func newEvent(title, location string, date time.Time) storage.Event {
	return storage.Event{
		Title:    title,
		Location: location,
		Date:     date,
		Status:   storage.StatusActive,
	}
}

func TestStorage(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC)

	t.Run("add event", func(t *testing.T) {
		s := New()
		e := newEvent("Event 1", "Hall", date)

		require.NoError(t, s.AddEvent(ctx, &e))
		require.NotEmpty(t, e.ID)
		require.Equal(t, int64(0), e.Version)

		events, err := s.ListEvents(ctx, storage.Filter{})
		require.NoError(t, err)
		require.Equal(t, []storage.Event{e}, events)
	})

	t.Run("assigned ids are unique", func(t *testing.T) {
		s := New()
		ids := make(map[string]struct{})
		for i := 0; i < 10; i++ {
			e := newEvent("Event", "Hall", date)
			require.NoError(t, s.AddEvent(ctx, &e))
			require.NotContains(t, ids, e.ID)
			ids[e.ID] = struct{}{}
		}

		// Removing an event does not free its id for reuse.
		e := newEvent("Event", "Hall", date)
		require.NoError(t, s.AddEvent(ctx, &e))
		removedID := e.ID
		_, err := s.RemoveEvent(ctx, e.ID)
		require.NoError(t, err)
		next := newEvent("Event", "Hall", date)
		require.NoError(t, s.AddEvent(ctx, &next))
		require.NotEqual(t, removedID, next.ID)
	})

	t.Run("update event", func(t *testing.T) {
		s := New()
		e := newEvent("Event 1", "Hall", date)
		require.NoError(t, s.AddEvent(ctx, &e))

		patch := e
		patch.Title = "Updated"
		updated, err := s.UpdateEvent(ctx, e.ID, 0, patch)
		require.NoError(t, err)
		require.Equal(t, e.ID, updated.ID)
		require.Equal(t, "Updated", updated.Title)
		require.Equal(t, int64(1), updated.Version)

		events, err := s.ListEvents(ctx, storage.Filter{})
		require.NoError(t, err)
		require.Equal(t, []storage.Event{updated}, events)
	})

	t.Run("stale version does not mutate the event", func(t *testing.T) {
		s := New()
		e := newEvent("Event 1", "Hall", date)
		require.NoError(t, s.AddEvent(ctx, &e))

		patch := e
		patch.Title = "Updated"
		updated, err := s.UpdateEvent(ctx, e.ID, 0, patch)
		require.NoError(t, err)

		patch.Title = "Stale"
		_, err = s.UpdateEvent(ctx, e.ID, 0, patch)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)

		events, err := s.ListEvents(ctx, storage.Filter{})
		require.NoError(t, err)
		require.Equal(t, []storage.Event{updated}, events)
	})

	t.Run("delete event", func(t *testing.T) {
		s := New()
		e := newEvent("Event 1", "Hall", date)
		require.NoError(t, s.AddEvent(ctx, &e))

		removed, err := s.RemoveEvent(ctx, e.ID)
		require.NoError(t, err)
		require.Equal(t, e, removed)

		_, err = s.RemoveEvent(ctx, e.ID)
		require.ErrorIs(t, err, storage.ErrNotFoundEvent)

		events, err := s.ListEvents(ctx, storage.Filter{})
		require.NoError(t, err)
		require.Empty(t, events)
	})
}

func TestStorageList(t *testing.T) {
	ctx := context.Background()
	date := time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC)
	other := date.AddDate(0, 0, 1)

	s := New()
	hall := newEvent("Event 1", "Hall", date)
	club := newEvent("Event 2", "Club", other)
	done := newEvent("Event 3", "Hall", other)
	done.Status = storage.StatusDone
	for _, e := range []*storage.Event{&hall, &club, &done} {
		require.NoError(t, s.AddEvent(ctx, e))
	}

	tests := []struct {
		name     string
		filter   storage.Filter
		expected []storage.Event
	}{
		{"empty filter returns all", storage.Filter{}, []storage.Event{hall, club, done}},
		{"by location", storage.Filter{Location: "Hall"}, []storage.Event{hall, done}},
		{"by date", storage.Filter{Date: &other}, []storage.Event{club, done}},
		{"by status", storage.Filter{Status: storage.StatusDone}, []storage.Event{done}},
		{"all fields must match", storage.Filter{Location: "Hall", Status: storage.StatusDone}, []storage.Event{done}},
		{"no matches", storage.Filter{Location: "Nowhere"}, []storage.Event{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events, err := s.ListEvents(ctx, tt.filter)
			require.NoError(t, err)
			require.Equal(t, tt.expected, events)
		})
	}
}

func TestStorageNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.UpdateEvent(ctx, "___not_exists___", 0, storage.Event{})
	require.ErrorIs(t, err, storage.ErrNotFoundEvent)

	_, err = s.RemoveEvent(ctx, "___not_exists___")
	require.ErrorIs(t, err, storage.ErrNotFoundEvent)
}

func TestStorageConcurrentUpdates(t *testing.T) {
	ctx := context.Background()
	s := New()
	e := newEvent("Event 1", "Hall", time.Date(2024, 12, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, s.AddEvent(ctx, &e))

	const workers = 50
	var wg sync.WaitGroup
	succeeded := make(chan struct{}, workers)
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			patch := e
			patch.Title = "Updated"
			if _, err := s.UpdateEvent(ctx, e.ID, 0, patch); err == nil {
				succeeded <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(succeeded)

	// Exactly one concurrent update against the same version may win.
	require.Len(t, succeeded, 1)

	events, err := s.ListEvents(ctx, storage.Filter{})
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, int64(1), events[0].Version)
}
