package viewport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omnisense/raindash/pkg/models"
)

func TestFitNoPositions(t *testing.T) {
	view := Fit(nil)

	assert.InDelta(t, FallbackLat, view.Center.Lat, 1e-9)
	assert.InDelta(t, FallbackLng, view.Center.Lng, 1e-9)
	assert.Equal(t, FallbackZoom, view.Zoom)
	assert.Nil(t, view.Bounds)
}

func TestFitSinglePosition(t *testing.T) {
	view := Fit([]models.Position{{Lat: 13.75, Lng: 100.50}})

	assert.InDelta(t, 13.75, view.Center.Lat, 1e-9)
	assert.InDelta(t, 100.50, view.Center.Lng, 1e-9)
	assert.Equal(t, SinglePointZoom, view.Zoom)
	assert.Nil(t, view.Bounds)
}

func TestFitMultiplePositions(t *testing.T) {
	a := models.Position{Lat: 13.0, Lng: 100.0}
	b := models.Position{Lat: 14.0, Lng: 101.0}

	view := Fit([]models.Position{a, b})

	require.NotNil(t, view.Bounds)

	t.Run("bounds contain both points with margin", func(t *testing.T) {
		assert.True(t, view.Bounds.Contains(a))
		assert.True(t, view.Bounds.Contains(b))

		// The padding margin means the raw extremes sit strictly
		// inside the returned region.
		assert.Less(t, view.Bounds.MinLat, a.Lat)
		assert.Greater(t, view.Bounds.MaxLat, b.Lat)
		assert.Less(t, view.Bounds.MinLng, a.Lng)
		assert.Greater(t, view.Bounds.MaxLng, b.Lng)
	})

	t.Run("center is the bounds midpoint", func(t *testing.T) {
		assert.InDelta(t, 13.5, view.Center.Lat, 1e-9)
		assert.InDelta(t, 100.5, view.Center.Lng, 1e-9)
	})

	t.Run("zoom contains all points", func(t *testing.T) {
		assert.GreaterOrEqual(t, view.Zoom, minZoom)
		assert.Less(t, view.Zoom, SinglePointZoom)
	})

	t.Run("idempotent", func(t *testing.T) {
		again := Fit([]models.Position{a, b})
		assert.Equal(t, view, again)
	})
}

func TestFitWideSpread(t *testing.T) {
	// Continental spread must fit at a low zoom.
	view := Fit([]models.Position{
		{Lat: 5.0, Lng: 97.0},
		{Lat: 20.0, Lng: 106.0},
	})

	require.NotNil(t, view.Bounds)
	assert.LessOrEqual(t, view.Zoom, 6)
	assert.True(t, view.Bounds.Contains(models.Position{Lat: 5.0, Lng: 97.0}))
	assert.True(t, view.Bounds.Contains(models.Position{Lat: 20.0, Lng: 106.0}))
}
