package storagebuilder

import (
	"context"
	"fmt"
	"time"

	"github.com/eventbook/events-service/internal/storage"
	memorystorage "github.com/eventbook/events-service/internal/storage/memory"
	mongostorage "github.com/eventbook/events-service/internal/storage/mongo"
	sqlstorage "github.com/eventbook/events-service/internal/storage/sql"
)

type Config struct {
	StorageType string
	Mongo       mongostorage.Config
	Database    sqlstorage.Config
}

func New(config Config) (storage.Storage, error) {
	switch config.StorageType {
	case "memory":
		return memorystorage.New(), nil
	case "mongo":
		s := mongostorage.New(config.Mongo)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to mongo %s: %w", config.Mongo.URI, err)
		}
		return s, nil
	case "sql":
		s := sqlstorage.New(config.Database)
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to database %s %d: %w", config.Database.Host, config.Database.Port, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %s", config.StorageType)
	}
}
