// Package models pkg/models/models.go contains the data contracts shared
// between the backend transport, the push channel and the dashboard core.
package models

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// DeviceID is the stable identity of one sensor across the fleet.
type DeviceID int64

// Reading is a single timestamped rain measurement for one device.
// Values are non-negative; a missing or non-numeric value on the wire is
// normalized to 0.0 during decoding, never carried as a gap.
type Reading struct {
	Timestamp  time.Time `json:"timestamp"`
	RainfallMM float64   `json:"rainfall_mm"`
}

// DeviceSummary describes one device as the backend reports it.
// Lat/Lng are NaN when the backend did not supply a usable coordinate;
// consumers that need positions must go through Registry.Positions,
// which excludes non-finite coordinates.
type DeviceSummary struct {
	ID       DeviceID `json:"id"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	IsOnline bool     `json:"isOnline"`
}

// Position is one plottable device coordinate.
type Position struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HasPosition reports whether both coordinates are finite numbers.
func (d *DeviceSummary) HasPosition() bool {
	return isFinite(d.Lat) && isFinite(d.Lng)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// UnmarshalJSON decodes a device summary, requiring an id and tolerating
// missing or malformed coordinates (decoded as NaN).
func (d *DeviceSummary) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       json.RawMessage `json:"id"`
		Name     string          `json:"name"`
		Lat      json.RawMessage `json:"lat"`
		Lng      json.RawMessage `json:"lng"`
		IsOnline bool            `json:"isOnline"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	id, ok := coerceID(raw.ID)
	if !ok {
		return ErrMalformedEvent
	}

	d.ID = id
	d.Name = raw.Name
	d.Lat = coerceCoordinate(raw.Lat)
	d.Lng = coerceCoordinate(raw.Lng)
	d.IsOnline = raw.IsOnline

	return nil
}

// coerceID accepts a numeric id or a numeric string.
func coerceID(raw json.RawMessage) (DeviceID, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return DeviceID(n), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return DeviceID(n), true
		}
	}

	return 0, false
}

// coerceCoordinate returns NaN for anything that is not a finite number.
func coerceCoordinate(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return math.NaN()
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return math.NaN()
	}

	return f
}

// coerceValue mirrors the display contract for measurement values:
// numbers pass through, numeric strings are parsed, everything else
// (missing, null, garbage) becomes 0.0.
func coerceValue(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if isFinite(f) {
			return f
		}

		return 0
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(s, 64); err == nil && isFinite(f) {
			return f
		}
	}

	return 0
}

// parseTimestamp accepts an RFC3339 string or epoch milliseconds.
func parseTimestamp(raw json.RawMessage) (time.Time, bool) {
	if len(raw) == 0 {
		return time.Time{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, false
		}

		return t, true
	}

	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms), true
	}

	return time.Time{}, false
}
