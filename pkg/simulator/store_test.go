package simulator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnisense/raindash/pkg/models"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStoreRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	// Out-of-order inserts; the query must return ascending order.
	require.NoError(t, store.SaveReading(ctx, 7,
		models.Reading{Timestamp: base.Add(-time.Hour), RainfallMM: 1.5}))
	require.NoError(t, store.SaveReading(ctx, 7,
		models.Reading{Timestamp: base.Add(-3 * time.Hour), RainfallMM: 0.5}))
	require.NoError(t, store.SaveReading(ctx, 8,
		models.Reading{Timestamp: base.Add(-time.Hour), RainfallMM: 9.0}))

	readings, err := store.ReadingsSince(ctx, 7, base.Add(-4*time.Hour))
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 0.5, readings[0].RainfallMM)
	assert.Equal(t, 1.5, readings[1].RainfallMM)
	assert.True(t, readings[0].Timestamp.Before(readings[1].Timestamp))
}

func TestStoreSinceFiltersInclusive(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.SaveReading(ctx, 7,
		models.Reading{Timestamp: base, RainfallMM: 1.0}))
	require.NoError(t, store.SaveReading(ctx, 7,
		models.Reading{Timestamp: base.Add(-time.Millisecond), RainfallMM: 2.0}))

	readings, err := store.ReadingsSince(ctx, 7, base)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 1.0, readings[0].RainfallMM)
}

func TestStoreEmptyDevice(t *testing.T) {
	store := testStore(t)

	readings, err := store.ReadingsSince(context.Background(), 42, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestStorePrune(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	now := time.Now()

	require.NoError(t, store.SaveReading(ctx, 7,
		models.Reading{Timestamp: now.Add(-48 * time.Hour), RainfallMM: 1.0}))
	require.NoError(t, store.SaveReading(ctx, 7,
		models.Reading{Timestamp: now.Add(-time.Minute), RainfallMM: 2.0}))

	require.NoError(t, store.Prune(ctx, 24*time.Hour))

	readings, err := store.ReadingsSince(ctx, 7, time.Unix(0, 0))
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 2.0, readings[0].RainfallMM)
}
