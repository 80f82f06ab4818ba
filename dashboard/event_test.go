package dashboard

import "testing"

func TestParseEvent(t *testing.T) {
	event, err := ParseEvent([]byte(`{"timestamp":1700000000123,"level":"warn","agentId":"main","agentRole":"worker","message":"Task status","taskId":42,"data":{"taskId":"t1","to":"running"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Timestamp != 1700000000123 || event.Level != "warn" || event.AgentID != "main" || event.AgentRole != "worker" {
		t.Errorf("unexpected envelope %+v", event)
	}
	if event.TaskID != "42" {
		t.Errorf("numeric envelope id should be formatted, got %q", event.TaskID)
	}
	if event.Data.Text("to") != "running" {
		t.Errorf("unexpected data %v", event.Data)
	}
}

func TestParseEventRejectsNonObjects(t *testing.T) {
	for _, line := range []string{``, `not json`, `[1,2]`, `null`, `"text"`, `{"message":`} {
		if _, err := ParseEvent([]byte(line)); err == nil {
			t.Errorf("expected error for %q", line)
		}
	}
}

func TestParseEventToleratesWrongTypes(t *testing.T) {
	event, err := ParseEvent([]byte(`{"level":7,"message":"Metrics","data":"oops"}`))
	if err != nil {
		t.Fatalf("wrongly typed fields should not fail the event: %v", err)
	}
	if event.Level != "" || event.LevelOrDefault() != "info" || event.Data != nil {
		t.Errorf("unexpected event %+v", event)
	}
	if !event.Time().IsZero() {
		t.Error("missing timestamp should give zero time")
	}
}

func TestPayloadAccessors(t *testing.T) {
	payload := Payload{
		"text":   "hello",
		"count":  12.0,
		"ratio":  0.75,
		"flag":   true,
		"null":   nil,
		"number": 3.5,
	}

	if value, ok := payload.String("text"); !ok || value != "hello" {
		t.Error("String should read strings")
	}
	if _, ok := payload.String("count"); ok {
		t.Error("String should reject numbers")
	}
	if value, ok := payload.Int("count"); !ok || value != 12 {
		t.Error("Int should read numbers")
	}
	if _, ok := payload.Int("null"); ok {
		t.Error("null must count as absent")
	}
	if value, ok := payload.Float("ratio"); !ok || value != 0.75 {
		t.Error("Float should read numbers")
	}
	if !payload.Flag("flag") || payload.Flag("missing") || payload.Flag("text") {
		t.Error("Flag should only accept true booleans")
	}
	if payload.ID("count") != "12" || payload.ID("number") != "" || payload.ID("text") != "hello" {
		t.Error("ID should accept strings and integral numbers only")
	}

	var empty Payload
	if empty.Text("anything") != "" {
		t.Error("nil payload should read as empty")
	}
}
