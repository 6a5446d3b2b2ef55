package mongostorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/eventbook/events-service/internal/storage"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrConnectionFailed = errors.New("failed to connect")

type Config struct {
	URI        string
	Database   string
	Collection string
}

type Storage struct {
	uri            string
	database       string
	collectionName string
	client         *mongo.Client
	collection     *mongo.Collection
}

func New(config Config) *Storage {
	return &Storage{
		uri:            config.URI,
		database:       config.Database,
		collectionName: config.Collection,
	}
}

func (s *Storage) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.uri))
	if err != nil {
		log.Errorf("failed to connect: %v", err)
		return ErrConnectionFailed
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Errorf("failed to ping: %v", err)
		return ErrConnectionFailed
	}
	s.client = client
	s.collection = client.Database(s.database).Collection(s.collectionName)
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (s *Storage) AddEvent(ctx context.Context, e *storage.Event) error {
	if e.ID == "" {
		e.ID = primitive.NewObjectID().Hex()
	}
	e.Version = 0
	_, err := s.collection.InsertOne(ctx, e)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("duplicate ID %q: %w", e.ID, storage.ErrDuplicateEventID)
	}
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

func (s *Storage) ListEvents(ctx context.Context, f storage.Filter) ([]storage.Event, error) {
	filter := bson.M{}
	if f.Location != "" {
		filter["location"] = f.Location
	}
	if f.Date != nil {
		filter["date"] = *f.Date
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	events := make([]storage.Event, 0)
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	return events, nil
}

// UpdateEvent matches id+version and applies the patch in one findAndModify
// call. A stale version and an unknown id are indistinguishable here: both
// come back as ErrNotFoundEvent.
func (s *Storage) UpdateEvent(ctx context.Context, id string, version int64, e storage.Event) (storage.Event, error) {
	res := s.collection.FindOneAndUpdate(
		ctx,
		bson.M{"_id": id, "version": version},
		bson.M{
			"$set": bson.M{
				"title":       e.Title,
				"description": e.Description,
				"location":    e.Location,
				"date":        e.Date,
				"status":      e.Status,
			},
			"$inc": bson.M{"version": 1},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated storage.Event
	err := res.Decode(&updated)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.Event{}, fmt.Errorf("failed to update event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, fmt.Errorf("failed to update event: %w", err)
	}
	return updated, nil
}

func (s *Storage) RemoveEvent(ctx context.Context, id string) (storage.Event, error) {
	var removed storage.Event
	err := s.collection.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&removed)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.Event{}, fmt.Errorf("failed to remove event with id %q: %w", id, storage.ErrNotFoundEvent)
	}
	if err != nil {
		return storage.Event{}, fmt.Errorf("failed to remove event: %w", err)
	}
	return removed, nil
}
