package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"wedding-rsvp/internal/models"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS rsvps (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	phone      TEXT NOT NULL,
	attending  BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps responses in a hosted Postgres rsvps table.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to databaseURL and ensures the rsvps table exists.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create rsvps table: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Create(ctx context.Context, rec models.RSVP) (models.RSVP, error) {
	rec = prepare(rec)
	const stmt = `INSERT INTO rsvps (id, name, phone, attending, created_at)
        VALUES ($1::uuid, $2, $3, $4, $5)`
	if _, err := s.pool.Exec(ctx, stmt, rec.ID, rec.Name, rec.Phone, rec.Attending, rec.CreatedAt); err != nil {
		return models.RSVP{}, writeErr(err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.RSVP, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, phone, attending, created_at FROM rsvps ORDER BY created_at DESC`)
	if err != nil {
		return nil, readErr(err)
	}
	records, err := pgx.CollectRows(rows, pgx.RowToStructByPos[models.RSVP])
	if err != nil {
		return nil, readErr(err)
	}
	for i := range records {
		records[i].CreatedAt = records[i].CreatedAt.UTC()
	}
	if records == nil {
		records = make([]models.RSVP, 0)
	}
	return records, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	var id string
	err := s.pool.QueryRow(ctx, `SELECT id::text FROM rsvps LIMIT 1`).Scan(&id)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return readErr(err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
