package envelope

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Envelope is the JSON body posted to a system's webhook URL
type Envelope struct {
	Event     string          `json:"event"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// New wraps data for event, stamped with the current UTC time
func New(event string, data any, now time.Time) (Envelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshaling data: %w", err)
	}

	env := Envelope{
		Event:     event,
		Timestamp: now.UTC(),
		Data:      raw,
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("validating envelope: %w", err)
	}
	return env, nil
}

// Validate checks the envelope has a timestamp and JSON data; the event name is free-form and may be empty
func (e Envelope) Validate() error {
	if e.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}
	if len(e.Data) == 0 || !json.Valid(e.Data) {
		return fmt.Errorf("data must be valid JSON")
	}
	return nil
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	type alias Envelope
	return json.Marshal(&struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{
		Timestamp: e.Timestamp.UTC().Format(TimestampLayout),
		alias:     (*alias)(&e),
	})
}

func (e *Envelope) UnmarshalJSON(data []byte) error {
	type alias Envelope
	aux := &struct {
		Timestamp string `json:"timestamp"`
		*alias
	}{
		alias: (*alias)(e),
	}
	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshaling envelope: %w", err)
	}

	ts, err := time.Parse(time.RFC3339Nano, aux.Timestamp)
	if err != nil {
		return fmt.Errorf("parsing timestamp: %w", err)
	}
	e.Timestamp = ts
	return nil
}

// Parse decodes and validates a webhook body
func Parse(body []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Envelope{}, err
	}
	if err := env.Validate(); err != nil {
		return Envelope{}, fmt.Errorf("validating envelope: %w", err)
	}
	return env, nil
}
