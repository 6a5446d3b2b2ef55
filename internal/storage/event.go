package storage

import (
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusDone      Status = "done"
)

// Statuses lists every allowed event status.
func Statuses() []string {
	return []string{string(StatusActive), string(StatusCancelled), string(StatusDone)}
}

type Event struct {
	ID          string    `json:"id" bson:"_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Location    string    `json:"location" bson:"location"`
	Date        time.Time `json:"date" bson:"date"`
	Status      Status    `json:"status" bson:"status"`
	Version     int64     `json:"version" bson:"version"`
}

// Filter is a partial exact match; zero-value fields are ignored.
type Filter struct {
	Location string
	Date     *time.Time
	Status   Status
}

func (f Filter) Matches(e Event) bool {
	if f.Location != "" && e.Location != f.Location {
		return false
	}
	if f.Date != nil && !e.Date.Equal(*f.Date) {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}
