package storage

import (
	"context"
	"errors"
)

var (
	ErrDuplicateEventID = errors.New("event with same ID exists")
	ErrNotFoundEvent    = errors.New("event not found")
)

// Storage persists event documents. UpdateEvent is the only writer of the
// version field: it matches id+version in a single conditional call, so of
// two concurrent updates against the same version exactly one succeeds and
// the other gets ErrNotFoundEvent.
type Storage interface {
	Connect(ctx context.Context) error
	Close(ctx context.Context) error
	AddEvent(ctx context.Context, e *Event) error
	ListEvents(ctx context.Context, f Filter) ([]Event, error)
	UpdateEvent(ctx context.Context, id string, version int64, e Event) (Event, error)
	RemoveEvent(ctx context.Context, id string) (Event, error)
}
