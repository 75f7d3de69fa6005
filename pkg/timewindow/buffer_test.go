package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnisense/raindash/pkg/models"
)

func reading(ts time.Time, mm float64) models.Reading {
	return models.Reading{Timestamp: ts, RainfallMM: mm}
}

func TestBufferReplace(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cutoff := base.Add(-time.Hour)

	t.Run("filters below cutoff and sorts ascending", func(t *testing.T) {
		b := NewBuffer(10)

		b.Replace([]models.Reading{
			reading(base.Add(-5*time.Minute), 0.5),
			reading(base.Add(-90*time.Minute), 2.0), // before cutoff
			reading(base.Add(-30*time.Minute), 1.5),
		}, cutoff)

		points := b.Points()
		require.Len(t, points, 2)
		assert.Equal(t, 1.5, points[0].RainfallMM)
		assert.Equal(t, 0.5, points[1].RainfallMM)

		for _, p := range points {
			assert.False(t, p.Timestamp.Before(cutoff))
		}
	})

	t.Run("keeps most recent entries on overflow", func(t *testing.T) {
		b := NewBuffer(3)

		readings := make([]models.Reading, 0, 5)
		for i := 0; i < 5; i++ {
			readings = append(readings, reading(cutoff.Add(time.Duration(i)*time.Minute), float64(i)))
		}

		b.Replace(readings, cutoff)

		points := b.Points()
		require.Len(t, points, 3)
		assert.Equal(t, 2.0, points[0].RainfallMM)
		assert.Equal(t, 4.0, points[2].RainfallMM)
	})

	t.Run("retains duplicate timestamps", func(t *testing.T) {
		b := NewBuffer(10)

		b.Replace([]models.Reading{
			reading(base, 1.0),
			reading(base, 1.0),
		}, cutoff)

		assert.Equal(t, 2, b.Len())
	})
}

func TestBufferInsert(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cutoff := base.Add(-time.Hour)

	t.Run("drops readings before cutoff", func(t *testing.T) {
		b := NewBuffer(10)

		assert.False(t, b.Insert(reading(base.Add(-2*time.Hour), 3.0), cutoff))
		assert.Equal(t, 0, b.Len())
	})

	t.Run("capacity never exceeded and oldest evicted", func(t *testing.T) {
		b := NewBuffer(500)

		for i := 0; i < 500; i++ {
			require.True(t, b.Insert(reading(cutoff.Add(time.Duration(i)*time.Second), 1.0), cutoff))
		}

		require.Equal(t, 500, b.Len())

		// The 501st insert evicts exactly the oldest entry.
		require.True(t, b.Insert(reading(cutoff.Add(501*time.Second), 1.0), cutoff))
		assert.Equal(t, 500, b.Len())

		points := b.Points()
		assert.Equal(t, cutoff.Add(1*time.Second), points[0].Timestamp)
	})
}

func TestBufferSum(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cutoff := base.Add(-time.Hour)

	b := NewBuffer(10)
	b.Replace([]models.Reading{
		reading(base.Add(-90*time.Minute), 2.0),
		reading(base.Add(-30*time.Minute), 1.5),
		reading(base.Add(-5*time.Minute), 0.5),
	}, cutoff)

	t.Run("cutoff filtering leaves in-window readings only", func(t *testing.T) {
		assert.Equal(t, 2, b.Len())
		assert.InDelta(t, 2.0, b.Sum(cutoff, base), 1e-9)
	})

	t.Run("idempotent without mutation", func(t *testing.T) {
		first := b.Sum(cutoff, base)
		second := b.Sum(cutoff, base)
		assert.Equal(t, first, second)
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		assert.InDelta(t, 1.5, b.Sum(base.Add(-30*time.Minute), base.Add(-30*time.Minute)), 1e-9)
	})

	t.Run("empty buffer sums to zero", func(t *testing.T) {
		empty := NewBuffer(10)
		assert.Zero(t, empty.Sum(cutoff, base))

		_, ok := empty.Latest()
		assert.False(t, ok)
	})

	t.Run("covers reports lower-bound windows", func(t *testing.T) {
		assert.True(t, b.Covers(cutoff))
		assert.True(t, b.Covers(base.Add(-30*time.Minute)))
		assert.False(t, b.Covers(base.Add(-2*time.Hour)))
	})
}

func TestBufferLatest(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cutoff := base.Add(-time.Hour)

	b := NewBuffer(10)
	b.Insert(reading(base.Add(-5*time.Minute), 0.5), cutoff)
	b.Insert(reading(base.Add(-30*time.Minute), 1.5), cutoff) // out of order arrival

	latest, ok := b.Latest()
	require.True(t, ok)
	assert.Equal(t, base.Add(-5*time.Minute), latest.Timestamp)
	assert.Equal(t, 0.5, latest.RainfallMM)
}
