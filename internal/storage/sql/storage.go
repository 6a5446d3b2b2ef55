package sqlstorage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/eventbook/events-service/internal/storage"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

var ErrConnectionFailed = errors.New("failed to connect")

const dbErrUniqueViolation = "23505"

type Config struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

type Storage struct {
	host     string
	port     int
	database string
	username string
	password string
	db       *sqlx.DB
}

func New(config Config) *Storage {
	return &Storage{
		host:     config.Host,
		port:     config.Port,
		database: config.Database,
		username: config.Username,
		password: config.Password,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	db, err := sqlx.ConnectContext(
		ctx,
		"postgres",
		fmt.Sprintf(
			"sslmode=disable host=%s port=%d dbname=%s user=%s password=%s",
			s.host, s.port, s.database, s.username, s.password),
	)
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.Version = 0
	_, err := s.db.ExecContext(
		ctx,
		"INSERT INTO events(id, title, description, location, date, status, version) "+
			"VALUES($1, $2, $3, $4, $5, $6, $7)",
		e.ID, e.Title, e.Description, e.Location, e.Date.UTC(), e.Status, e.Version)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == dbErrUniqueViolation {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	return err
}

func (s *Storage) ListEvents(ctx context.Context, f storage.Filter) ([]storage.Event, error) {
	conds := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)
	if f.Location != "" {
		args = append(args, f.Location)
		conds = append(conds, fmt.Sprintf("location=$%d", len(args)))
	}
	if f.Date != nil {
		args = append(args, f.Date.UTC())
		conds = append(conds, fmt.Sprintf("date=$%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status=$%d", len(args)))
	}

	query := "SELECT id, title, description, location, date, status, version FROM events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	events := make([]storage.Event, 0)
	if err := s.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, nil
}

// UpdateEvent is a single conditional statement, the SQL rendition of the
// document store's findAndModify on id+version.
func (s *Storage) UpdateEvent(ctx context.Context, id string, version int64, e storage.Event) (storage.Event, error) {
	var updated storage.Event
	err := s.db.GetContext(
		ctx,
		&updated,
		"UPDATE events SET title=$3, description=$4, location=$5, date=$6, status=$7, version=version+1 "+
			"WHERE id=$1 AND version=$2 "+
			"RETURNING id, title, description, location, date, status, version",
		id, version, e.Title, e.Description, e.Location, e.Date.UTC(), e.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	return updated, nil
}

func (s *Storage) RemoveEvent(ctx context.Context, id string) (storage.Event, error) {
	var removed storage.Event
	err := s.db.GetContext(
		ctx,
		&removed,
		"DELETE FROM events WHERE id=$1 RETURNING id, title, description, location, date, status, version",
		id)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.Event{}, fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, fmt.Errorf("failed to remove event: %w", err)
	}
	return removed, nil
}
