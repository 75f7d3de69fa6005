package models

import (
	"encoding/json"
	"errors"
)

// Push event kinds delivered over the persistent channel.
const (
	EventReadingNew   = "reading:new"
	EventDeviceUpdate = "device:update"
	EventImageNew     = "image:new"
)

// ErrMalformedEvent marks a push payload that is missing required fields.
// Malformed events are dropped at the transport boundary; no partial
// object ever reaches the dashboard core.
var ErrMalformedEvent = errors.New("malformed push event")

// Envelope is the wire form of one push event.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// ReadingEvent is a validated reading:new payload.
type ReadingEvent struct {
	DeviceID DeviceID
	Reading  Reading
}

// DecodeReadingEvent validates a reading:new payload. The device id and
// timestamp are required; the rainfall value is coerced, with missing or
// non-numeric values normalized to 0.0.
func DecodeReadingEvent(payload json.RawMessage) (ReadingEvent, error) {
	var raw struct {
		DeviceID  json.RawMessage `json:"deviceId"`
		Timestamp json.RawMessage `json:"timestamp"`
		Rainfall  json.RawMessage `json:"rainfall_mm"`
	}

	if err := json.Unmarshal(payload, &raw); err != nil {
		return ReadingEvent{}, ErrMalformedEvent
	}

	id, ok := coerceID(raw.DeviceID)
	if !ok {
		return ReadingEvent{}, ErrMalformedEvent
	}

	ts, ok := parseTimestamp(raw.Timestamp)
	if !ok {
		return ReadingEvent{}, ErrMalformedEvent
	}

	return ReadingEvent{
		DeviceID: id,
		Reading: Reading{
			Timestamp:  ts,
			RainfallMM: coerceValue(raw.Rainfall),
		},
	}, nil
}

// DecodeDeviceUpdate validates a device:update payload.
func DecodeDeviceUpdate(payload json.RawMessage) (DeviceSummary, error) {
	var summary DeviceSummary
	if err := json.Unmarshal(payload, &summary); err != nil {
		return DeviceSummary{}, ErrMalformedEvent
	}

	return summary, nil
}
