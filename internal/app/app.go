package app

import (
	"context"

	"github.com/eventbook/events-service/internal/rabbit"
	"github.com/eventbook/events-service/internal/storage"
	log "github.com/sirupsen/logrus"
)

// Notifier publishes event-change messages. A nil notifier disables
// publication.
type Notifier interface {
	PublishChange(m rabbit.Message) error
}

type App struct {
	Storage  storage.Storage
	notifier Notifier
}

func New(storage storage.Storage, notifier Notifier) *App {
	return &App{Storage: storage, notifier: notifier}
}

func (a *App) CreateEvent(ctx context.Context, e storage.Event) (storage.Event, error) {
	if err := a.Storage.AddEvent(ctx, &e); err != nil {
		return storage.Event{}, err
	}
	a.notify("created", e)
	return e, nil
}

func (a *App) ListEvents(ctx context.Context, f storage.Filter) ([]storage.Event, error) {
	return a.Storage.ListEvents(ctx, f)
}

func (a *App) UpdateEvent(ctx context.Context, id string, version int64, e storage.Event) (storage.Event, error) {
	updated, err := a.Storage.UpdateEvent(ctx, id, version, e)
	if err != nil {
		return storage.Event{}, err
	}
	a.notify("updated", updated)
	return updated, nil
}

func (a *App) RemoveEvent(ctx context.Context, id string) (storage.Event, error) {
	removed, err := a.Storage.RemoveEvent(ctx, id)
	if err != nil {
		return storage.Event{}, err
	}
	a.notify("deleted", removed)
	return removed, nil
}

// Publication is best effort, a broker failure never fails the request.
func (a *App) notify(action string, e storage.Event) {
	if a.notifier == nil {
		return
	}
	err := a.notifier.PublishChange(rabbit.Message{
		EventID: e.ID,
		Action:  action,
		Title:   e.Title,
		Date:    e.Date,
	})
	if err != nil {
		log.Errorf("failed to publish %s notification for event %q: %v", action, e.ID, err)
	}
}
