// Package store persists canvas snapshots.
//
// Every backend stores whole snapshots and answers the latest one per user.
// There is no partial update: the last writer wins.
//
//   - file: one JSON document per user in a directory, for single-user CLI use
//   - mongo: a "canvases" collection holding every saved snapshot
//   - redis: one key per user holding the latest snapshot as JSON
//   - memory: process-local, for tests and the HTTP server's demo mode
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"wattsup/internal/diagram"
)

var (
	// ErrNotFound is returned when a user has no saved snapshot.
	ErrNotFound = errors.New("no saved canvas")

	// ErrInvalidUser is returned for empty or unsafe user IDs.
	ErrInvalidUser = errors.New("invalid user id")
)

// Store saves and loads canvas snapshots.
type Store interface {
	// Save persists s, assigning it a fresh ID and creation time.
	Save(ctx context.Context, s *diagram.Snapshot) error
	// Latest returns the most recently saved snapshot of userID.
	Latest(ctx context.Context, userID string) (*diagram.Snapshot, error)
	Close(ctx context.Context) error
}

// Drivers accepted by Open.
const (
	DriverFile   = "file"
	DriverMongo  = "mongo"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver string
	Path   string

	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// Open returns the backend named by cfg.Driver. An empty driver means file.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", DriverFile:
		return NewFileStore(cfg.Path)
	case DriverMongo:
		return NewMongoStore(ctx, MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	case DriverRedis:
		return NewRedisStore(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func validUser(userID string) error {
	if userID == "" || userID == "." || userID == ".." || strings.ContainsAny(userID, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidUser, userID)
	}
	return nil
}

// stamp validates s and fills in its ID and creation time.
func stamp(s *diagram.Snapshot, now func() time.Time) error {
	if s == nil {
		return errors.New("nil snapshot")
	}
	if err := validUser(s.UserID); err != nil {
		return err
	}
	s.ID = uuid.NewString()
	s.CreatedAt = now().UTC()
	return nil
}
