package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

// storeAcceptanceTest is the behaviour every Store implementation shares.
// Call it from a test case in each backend:
//
//	func TestSQLiteStore(t *testing.T) {
//		s, _ := NewSQLiteStore(ctx, ":memory:")
//		storeAcceptanceTest(t, s)
//	}
func storeAcceptanceTest(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, s.Ping(ctx), "ping on empty store")

	records, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	base := time.Date(2020, time.March, 1, 18, 0, 0, 0, time.UTC)
	first, err := s.Create(ctx, models.RSVP{Name: "Sara", Phone: "0791111111", Attending: false, CreatedAt: base})
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "Sara", first.Name)

	second, err := s.Create(ctx, models.RSVP{Name: "Ali", Phone: "0790000000", Attending: true, CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	before := time.Now()
	third, err := s.Create(ctx, models.RSVP{Name: "Omar", Phone: "0792222222", Attending: true})
	require.NoError(t, err)
	assert.False(t, third.CreatedAt.IsZero(), "created_at is assigned when missing")
	assert.WithinDuration(t, before, third.CreatedAt, time.Minute)

	records, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, third.ID, records[0].ID, "newest first")
	assert.Equal(t, second.ID, records[1].ID)
	assert.Equal(t, first.ID, records[2].ID)

	assert.Equal(t, "Ali", records[1].Name)
	assert.Equal(t, "0790000000", records[1].Phone)
	assert.True(t, records[1].Attending)
	assert.False(t, records[2].Attending)
	assert.WithinDuration(t, base.Add(time.Minute), records[1].CreatedAt, time.Millisecond)

	require.NoError(t, s.Ping(ctx))
}
