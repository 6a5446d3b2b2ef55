package internalhttp

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eventbook/events-service/internal/app"
	"github.com/eventbook/events-service/internal/storage"
	"github.com/eventbook/events-service/internal/validator"
	log "github.com/sirupsen/logrus"
)

const (
	msgValidationError = "Validation error"
	msgSavingError     = "Error saving event"
	msgFetchingError   = "Error fetching events"
	msgUpdatingError   = "Error updating event"
	msgDeletingError   = "Error deleting event"
	msgVersionConflict = "Event has been updated by another user. Please refresh."
	msgNotFound        = "Event not found"
	msgDeleted         = "Event deleted successfully"
	msgInvalidBody     = "Request body must be valid JSON"
)

var eventRules = []validator.Rule{
	{Field: "title", Label: "Title", Required: true, Type: validator.TypeString},
	{Field: "description", Label: "Description", Type: validator.TypeString, MaxLen: 500},
	{Field: "location", Label: "Location", Required: true, Type: validator.TypeString},
	{Field: "date", Label: "Date", Required: true, Type: validator.TypeDate},
	{Field: "status", Label: "Status", Type: validator.TypeString, Enum: storage.Statuses()},
}

var (
	createSchema = validator.Schema{Rules: eventRules}

	updateSchema = validator.Schema{Rules: append(
		append([]validator.Rule{}, eventRules...),
		validator.Rule{Field: "version", Label: "Version", Required: true, Type: validator.TypeNumber},
	)}

	querySchema = validator.Schema{
		Rules: []validator.Rule{
			{Field: "location", Label: "Location", Type: validator.TypeString},
			{Field: "date", Label: "Date", Type: validator.TypeDate},
			{Field: "status", Label: "Status", Type: validator.TypeString, Enum: storage.Statuses()},
		},
		AnyOf:    []string{"location", "date", "status"},
		AnyOfMsg: "At least one of location, date or status is required",
	}
)

type handlers struct {
	app *app.App
}

func newHandlers(a *app.App) *handlers {
	return &handlers{app: a}
}

func (h *handlers) createEvent(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	input, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if details := createSchema.Validate(input); len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	created, err := h.app.CreateEvent(r.Context(), eventFromInput(input))
	if err != nil {
		log.Errorf("failed to save event: %v", err)
		writeMessage(w, http.StatusInternalServerError, msgSavingError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handlers) listEvents(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	input := validator.QueryInput(r.URL.Query())
	if details := querySchema.Validate(input); len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	events, err := h.app.ListEvents(r.Context(), filterFromInput(input))
	if err != nil {
		log.Errorf("failed to fetch events: %v", err)
		writeMessage(w, http.StatusInternalServerError, msgFetchingError)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *handlers) updateEvent(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	input, ok := decodeBody(w, r)
	if !ok {
		return
	}
	if details := updateSchema.Validate(input); len(details) > 0 {
		writeValidationError(w, details)
		return
	}

	version := int64(input["version"].(float64))
	updated, err := h.app.UpdateEvent(r.Context(), pathParams["id"], version, eventFromInput(input))
	if err != nil {
		if errors.Is(err, storage.ErrNotFoundEvent) {
			writeMessage(w, http.StatusConflict, msgVersionConflict)
			return
		}
		log.Errorf("failed to update event: %v", err)
		writeMessage(w, http.StatusInternalServerError, msgUpdatingError)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *handlers) deleteEvent(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	if _, err := h.app.RemoveEvent(r.Context(), pathParams["id"]); err != nil {
		if errors.Is(err, storage.ErrNotFoundEvent) {
			writeMessage(w, http.StatusNotFound, msgNotFound)
			return
		}
		log.Errorf("failed to delete event: %v", err)
		writeMessage(w, http.StatusInternalServerError, msgDeletingError)
		return
	}
	writeMessage(w, http.StatusOK, msgDeleted)
}

// eventFromInput builds an event from a payload that already passed the
// schema, so the type assertions here are safe.
func eventFromInput(input map[string]interface{}) storage.Event {
	e := storage.Event{
		Title:    input["title"].(string),
		Location: input["location"].(string),
		Status:   storage.StatusActive,
	}
	if d, ok := input["description"].(string); ok {
		e.Description = d
	}
	if s, ok := input["status"].(string); ok && s != "" {
		e.Status = storage.Status(s)
	}
	e.Date, _ = validator.ParseDate(input["date"].(string))
	return e
}

func filterFromInput(input map[string]interface{}) storage.Filter {
	var f storage.Filter
	if l, ok := input["location"].(string); ok {
		f.Location = l
	}
	if s, ok := input["status"].(string); ok {
		f.Status = storage.Status(s)
	}
	if d, ok := input["date"].(string); ok {
		if date, err := validator.ParseDate(d); err == nil {
			f.Date = &date
		}
	}
	return f
}

func decodeBody(w http.ResponseWriter, r *http.Request) (map[string]interface{}, bool) {
	var input map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeValidationError(w, []string{msgInvalidBody})
		return nil, false
	}
	return input, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("failed to write response: %v", err)
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeValidationError(w http.ResponseWriter, details []string) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"message": msgValidationError,
		"details": details,
	})
}
