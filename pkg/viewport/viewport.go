// Package viewport pkg/viewport/viewport.go derives the map view from
// the current set of device positions. Fit is a pure function of the
// position set and is recomputed wholesale on every membership or
// coordinate change.
package viewport

import (
	"math"

	"github.com/omnisense/raindash/pkg/models"
)

const (
	// FallbackLat and FallbackLng center the map when no device has a
	// usable position (Bangkok).
	FallbackLat = 13.7563
	FallbackLng = 100.5018

	// FallbackZoom is the wide view used with no positions.
	FallbackZoom = 8

	// SinglePointZoom is the close view used for exactly one position.
	SinglePointZoom = 12

	// PaddingPx is the margin kept around the fitted bounds, in pixels
	// at the reference viewport size.
	PaddingPx = 40

	refWidthPx  = 1024
	refHeightPx = 768

	tileSizePx = 256
	minZoom    = 1
	maxZoom    = 18

	// Web-mercator latitude clamp.
	maxLatRad = 1.4844222297453324 // atanh(sin(85.05112878 deg))
)

// Bounds is a padded geographic region guaranteed to contain every
// fitted position.
type Bounds struct {
	MinLat float64 `json:"minLat"`
	MinLng float64 `json:"minLng"`
	MaxLat float64 `json:"maxLat"`
	MaxLng float64 `json:"maxLng"`
}

// Contains reports whether p lies within the bounds.
func (b Bounds) Contains(p models.Position) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// View is the derived map viewport: a center and zoom, plus the padded
// bounding region when two or more positions were fitted.
type View struct {
	Center models.Position `json:"center"`
	Zoom   int             `json:"zoom"`
	Bounds *Bounds         `json:"bounds,omitempty"`
}

// Fit computes the viewport covering the given positions: the fallback
// center at low zoom for none, a close-up for one, and for two or more
// the smallest zoom-aligned view containing all of them plus the
// padding margin.
func Fit(positions []models.Position) View {
	switch len(positions) {
	case 0:
		return View{
			Center: models.Position{Lat: FallbackLat, Lng: FallbackLng},
			Zoom:   FallbackZoom,
		}
	case 1:
		return View{
			Center: positions[0],
			Zoom:   SinglePointZoom,
		}
	}

	minLat, minLng := positions[0].Lat, positions[0].Lng
	maxLat, maxLng := minLat, minLng

	for _, p := range positions[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}

	zoom := boundsZoom(minLat, minLng, maxLat, maxLng)
	bounds := padBounds(minLat, minLng, maxLat, maxLng, zoom)

	return View{
		Center: models.Position{
			Lat: (minLat + maxLat) / 2,
			Lng: (minLng + maxLng) / 2,
		},
		Zoom:   zoom,
		Bounds: &bounds,
	}
}

// boundsZoom picks the largest zoom at which the bounds fit inside the
// reference viewport minus the padding margin on every side.
func boundsZoom(minLat, minLng, maxLat, maxLng float64) int {
	fitW := float64(refWidthPx - 2*PaddingPx)
	fitH := float64(refHeightPx - 2*PaddingPx)

	for zoom := maxZoom; zoom > minZoom; zoom-- {
		x1, y1 := project(maxLat, minLng, zoom) // north-west corner
		x2, y2 := project(minLat, maxLng, zoom) // south-east corner

		if x2-x1 <= fitW && y2-y1 <= fitH {
			return zoom
		}
	}

	return minZoom
}

// padBounds expands the bounds by the pixel padding at the given zoom,
// converted back to degrees through the mercator projection.
func padBounds(minLat, minLng, maxLat, maxLng float64, zoom int) Bounds {
	x1, y1 := project(maxLat, minLng, zoom)
	x2, y2 := project(minLat, maxLng, zoom)

	padMaxLat, padMinLng := unproject(x1-PaddingPx, y1-PaddingPx, zoom)
	padMinLat, padMaxLng := unproject(x2+PaddingPx, y2+PaddingPx, zoom)

	return Bounds{
		MinLat: padMinLat,
		MinLng: padMinLng,
		MaxLat: padMaxLat,
		MaxLng: padMaxLng,
	}
}

// project maps a coordinate to web-mercator pixel space at zoom.
func project(lat, lng float64, zoom int) (x, y float64) {
	world := float64(tileSizePx) * math.Exp2(float64(zoom))

	latRad := lat * math.Pi / 180
	if latRad > maxLatRad {
		latRad = maxLatRad
	} else if latRad < -maxLatRad {
		latRad = -maxLatRad
	}

	siny := math.Sin(latRad)

	x = (lng + 180) / 360 * world
	y = (0.5 - math.Log((1+siny)/(1-siny))/(4*math.Pi)) * world

	return x, y
}

// unproject is the inverse of project.
func unproject(x, y float64, zoom int) (lat, lng float64) {
	world := float64(tileSizePx) * math.Exp2(float64(zoom))

	lng = x/world*360 - 180

	n := math.Pi - 2*math.Pi*y/world
	lat = 180 / math.Pi * math.Atan(math.Sinh(n))

	return lat, lng
}
