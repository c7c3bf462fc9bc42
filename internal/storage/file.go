package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"wedding-rsvp/internal/models"
)

// FileStore keeps responses in a single JSON array on disk. Writes are
// serialized and each one replaces the file atomically.
type FileStore struct {
	mu      sync.RWMutex
	records []models.RSVP
	file    string
}

// NewFileStore creates a new file-backed store, loading existing data if present.
func NewFileStore(filePath string) (*FileStore, error) {
	s := &FileStore{
		records: make([]models.RSVP, 0),
		file:    filePath,
	}

	if _, err := os.Stat(filePath); err == nil {
		if err := s.load(); err != nil {
			return nil, fmt.Errorf("failed to load storage: %w", err)
		}
		return s, nil
	}

	// Start with an empty array so the file is always valid JSON
	if err := s.save(s.records); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return s, nil
}

// Create appends a response and rewrites the file
func (s *FileStore) Create(_ context.Context, rec models.RSVP) (models.RSVP, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec = prepare(rec)
	next := append(slices.Clone(s.records), rec)
	if err := s.save(next); err != nil {
		return models.RSVP{}, writeErr(err)
	}
	s.records = next
	return rec, nil
}

// List returns all responses, newest first
func (s *FileStore) List(_ context.Context) ([]models.RSVP, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := slices.Clone(s.records)
	slices.Reverse(records)
	slices.SortStableFunc(records, func(a, b models.RSVP) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return records, nil
}

// Ping re-reads the file from disk and checks that it still parses
func (s *FileStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.file)
	if err != nil {
		return readErr(err)
	}
	if !json.Valid(data) {
		return readErr(fmt.Errorf("%s is not valid JSON", s.file))
	}
	return nil
}

func (s *FileStore) Close() error {
	return nil
}

// save writes records to a temporary file and renames it over the data file
func (s *FileStore) save(records []models.RSVP) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	// Ensure directory exists
	dir := filepath.Dir(s.file)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.file)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return os.Rename(tmp.Name(), s.file)
}

// load reads responses from file
func (s *FileStore) load() error {
	data, err := os.ReadFile(s.file)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		s.records = make([]models.RSVP, 0)
		return nil
	}

	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return nil
}
