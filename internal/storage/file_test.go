package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(filepath.Join(t.TempDir(), "responses.json"))
	require.NoError(t, err)
	storeAcceptanceTest(t, s)
}

func TestFileStoreInitializesEmptyArray(t *testing.T) {
	p := filepath.Join(t.TempDir(), "data", "responses.json")
	_, err := NewFileStore(p)
	require.NoError(t, err)

	data, err := os.ReadFile(p)
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, string(data))
}

func TestFileStoreReloadsFromDisk(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "responses.json")

	s, err := NewFileStore(p)
	require.NoError(t, err)
	created, err := s.Create(ctx, models.RSVP{Name: "Ali", Phone: "0790000000", Attending: true})
	require.NoError(t, err)

	reopened, err := NewFileStore(p)
	require.NoError(t, err)
	records, err := reopened.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, created.ID, records[0].ID)
	assert.True(t, created.CreatedAt.Equal(records[0].CreatedAt))
}

func TestFileStoreConcurrentCreatesAreNotLost(t *testing.T) {
	ctx := context.Background()
	p := filepath.Join(t.TempDir(), "responses.json")
	s, err := NewFileStore(p)
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, models.RSVP{Name: fmt.Sprintf("guest-%d", i), Phone: "0790000000", Attending: i%2 == 0})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	reopened, err := NewFileStore(p)
	require.NoError(t, err)
	records, err := reopened.List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, n)
}

func TestFileStoreWriteFailure(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "data")
	s, err := NewFileStore(filepath.Join(dir, "responses.json"))
	require.NoError(t, err)

	// Replace the data directory with a plain file so the next write cannot land.
	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, os.WriteFile(dir, []byte("x"), 0644))

	_, err = s.Create(ctx, models.RSVP{Name: "Ali", Phone: "0790000000"})
	require.ErrorIs(t, err, ErrPersistence)

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records, "failed write must not be visible")

	assert.ErrorIs(t, s.Ping(ctx), ErrRead)
}
