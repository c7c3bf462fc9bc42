// Package storage persists RSVP responses.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"wedding-rsvp/internal/models"
)

var (
	// ErrPersistence marks a failed write. Callers map it to a retry prompt.
	ErrPersistence = errors.New("failed to persist response")
	// ErrRead marks a failed listing.
	ErrRead = errors.New("failed to read responses")
)

// Store is the durable home of RSVP records. Records are never updated or
// deleted through it.
type Store interface {
	// Create persists rec and returns the stored copy with its ID set.
	Create(ctx context.Context, rec models.RSVP) (models.RSVP, error)
	// List returns every record, newest first.
	List(ctx context.Context) ([]models.RSVP, error)
	// Ping performs a bounded read to confirm the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Supported drivers.
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config selects and configures a backend.
type Config struct {
	Driver      string
	FilePath    string
	SQLitePath  string
	DatabaseURL string
}

// Open builds the store selected by cfg.Driver.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		s   Store
		err error
	)
	switch cfg.Driver {
	case DriverFile, "":
		s, err = NewFileStore(cfg.FilePath)
	case DriverSQLite:
		s, err = NewSQLiteStore(ctx, cfg.SQLitePath)
	case DriverPostgres:
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres driver")
		}
		s, err = NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// prepare assigns the store-owned fields of a new record.
func prepare(rec models.RSVP) models.RSVP {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec
}

func writeErr(err error) error {
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func readErr(err error) error {
	return fmt.Errorf("%w: %w", ErrRead, err)
}
