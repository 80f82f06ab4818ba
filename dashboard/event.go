package dashboard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Payload is the free-form "data" object of an event. Accessors treat a
// missing key, a JSON null and a value of the wrong type alike: as absent.
type Payload map[string]any

// String returns a string value.
func (p Payload) String(key string) (string, bool) {
	value, ok := p[key].(string)
	return value, ok
}

// Text returns a string value or the empty string.
func (p Payload) Text(key string) string {
	value, _ := p.String(key)
	return value
}

// ID returns a task identifier. Integral numbers are accepted and
// formatted, since some producers emit numeric ids.
func (p Payload) ID(key string) string {
	if value, ok := p[key].(string); ok {
		return value
	}
	if value, ok := p.Float(key); ok && value == math.Trunc(value) && !math.IsInf(value, 0) {
		return strconv.FormatInt(int64(value), 10)
	}
	return ""
}

// Float returns a numeric value. Decoded JSON only holds float64; the
// integer cases cover payloads built in-process.
func (p Payload) Float(key string) (float64, bool) {
	switch value := p[key].(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case json.Number:
		number, err := value.Float64()
		return number, err == nil
	}
	return 0, false
}

// Int returns a numeric value truncated to an integer.
func (p Payload) Int(key string) (int64, bool) {
	value, ok := p.Float(key)
	if !ok || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return int64(value), true
}

// Bool returns a boolean value.
func (p Payload) Bool(key string) (bool, bool) {
	value, ok := p[key].(bool)
	return value, ok
}

// Flag returns a boolean value, false when absent.
func (p Payload) Flag(key string) bool {
	value, _ := p.Bool(key)
	return value
}

// Event is one NDJSON record emitted by the orchestrator.
type Event struct {
	Timestamp int64   `json:"timestamp,omitempty"` // epoch milliseconds
	Level     string  `json:"level,omitempty"`
	AgentID   string  `json:"agentId,omitempty"`
	AgentRole string  `json:"agentRole,omitempty"`
	Message   string  `json:"message,omitempty"`
	TaskID    string  `json:"taskId,omitempty"`
	Data      Payload `json:"data,omitempty"`
}

// UnmarshalJSON decodes leniently: only a non-object line is an error.
// Envelope fields of the wrong type are left empty instead of failing the
// whole event.
func (e *Event) UnmarshalJSON(blob []byte) error {
	var raw Payload
	if err := json.Unmarshal(blob, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("event is not a JSON object")
	}
	stamp, _ := raw.Int("timestamp")
	data, _ := raw["data"].(map[string]any)
	*e = Event{
		Timestamp: stamp,
		Level:     raw.Text("level"),
		AgentID:   raw.Text("agentId"),
		AgentRole: raw.Text("agentRole"),
		Message:   raw.Text("message"),
		TaskID:    raw.ID("taskId"),
		Data:      data,
	}
	return nil
}

// ParseEvent decodes one NDJSON line. Callers drop lines that fail.
func ParseEvent(line []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(line, &event); err != nil {
		return Event{}, fmt.Errorf("parse event: %w", err)
	}
	return event, nil
}

// Time converts the epoch-millisecond timestamp. The zero timestamp yields
// the zero time.
func (e Event) Time() time.Time {
	if e.Timestamp == 0 {
		return time.Time{}
	}
	return time.UnixMilli(e.Timestamp)
}

// LevelOrDefault returns the event level, "info" when missing.
func (e Event) LevelOrDefault() string {
	if e.Level == "" {
		return "info"
	}
	return e.Level
}
