package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"wedding-rsvp/internal/models"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS rsvps (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL,
	attending  BOOLEAN NOT NULL,
	created_at TIMESTAMP NOT NULL
)`

// SQLiteStore keeps responses in the rsvps table of a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and if needed creates) the database at path.
// ":memory:" gives a private in-memory database.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps :memory: shared.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create rsvps table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, rec models.RSVP) (models.RSVP, error) {
	rec = prepare(rec)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rsvps (id, name, phone, attending, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Phone, rec.Attending, rec.CreatedAt,
	)
	if err != nil {
		return models.RSVP{}, writeErr(err)
	}
	return rec, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.RSVP, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, phone, attending, created_at FROM rsvps ORDER BY created_at DESC, rowid DESC`)
	if err != nil {
		return nil, readErr(err)
	}
	defer rows.Close()

	records := make([]models.RSVP, 0)
	for rows.Next() {
		var rec models.RSVP
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Phone, &rec.Attending, &rec.CreatedAt); err != nil {
			return nil, readErr(err)
		}
		rec.CreatedAt = rec.CreatedAt.UTC()
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, readErr(err)
	}
	return records, nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM rsvps LIMIT 1`).Scan(&id)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return readErr(err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
