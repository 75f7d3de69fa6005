package models

import "encoding/json"

// UnmarshalJSON decodes one reading as the backend serves it. The
// timestamp is required; the rainfall value goes through the same
// coercion as push payloads.
func (r *Reading) UnmarshalJSON(data []byte) error {
	var raw struct {
		Timestamp json.RawMessage `json:"timestamp"`
		Rainfall  json.RawMessage `json:"rainfall_mm"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, ok := parseTimestamp(raw.Timestamp)
	if !ok {
		return ErrMalformedEvent
	}

	r.Timestamp = ts
	r.RainfallMM = coerceValue(raw.Rainfall)

	return nil
}
