package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"emberhollow.gg/internal/protocol"
)

func compileTestSchemas(t *testing.T) *protocol.Schemas {
	t.Helper()
	s, err := protocol.CompileSchemas(filepath.Join("..", "..", "schemas"))
	if err != nil {
		t.Fatalf("CompileSchemas: %v", err)
	}
	return s
}

func decode(t *testing.T, raw string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	return v
}

func TestSchemas_TriggerEventSamples(t *testing.T) {
	s := compileTestSchemas(t)

	valid := decode(t, `{
	  "event_id": "open_chest_herb",
	  "version": 3,
	  "player_position": {"x": 26, "y": 3},
	  "target_position": {"x": 27, "y": 3}
	}`)
	if err := s.TriggerEvent.Validate(valid); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	// version is deliberately untyped in the schema: a non-integer value
	// must reach the engine so it can answer bad_version.
	badVersion := decode(t, `{"event_id": "read_sign_gate", "version": "later"}`)
	if err := s.TriggerEvent.Validate(badVersion); err != nil {
		t.Fatalf("untyped version rejected at schema layer: %v", err)
	}

	missingEvent := decode(t, `{"version": 1}`)
	if err := s.TriggerEvent.Validate(missingEvent); err == nil {
		t.Fatal("request without event_id passed validation")
	}

	emptyEvent := decode(t, `{"event_id": ""}`)
	if err := s.TriggerEvent.Validate(emptyEvent); err == nil {
		t.Fatal("empty event_id passed validation")
	}

	notObject := decode(t, `"open_chest_herb"`)
	if err := s.TriggerEvent.Validate(notObject); err == nil {
		t.Fatal("non-object request passed validation")
	}
}

func TestSchemas_AddPointsSamples(t *testing.T) {
	s := compileTestSchemas(t)

	if err := s.AddPoints.Validate(decode(t, `{"amount": 5}`)); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	// amount stays untyped so the engine can answer amount_not_integer.
	if err := s.AddPoints.Validate(decode(t, `{"amount": "five"}`)); err != nil {
		t.Fatalf("untyped amount rejected at schema layer: %v", err)
	}
	if err := s.AddPoints.Validate(decode(t, `[1]`)); err == nil {
		t.Fatal("non-object request passed validation")
	}
}

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{
		protocol.ErrBadVersion,
		protocol.ErrStaleClient,
		protocol.ErrUnknownEvent,
		protocol.ErrEventNotAllowed,
		protocol.ErrInvalidPosition,
		protocol.ErrNoSession,
		"",
	} {
		if !protocol.IsKnownCode(code) {
			t.Errorf("IsKnownCode(%q) = false", code)
		}
	}
	if protocol.IsKnownCode("not_a_code") {
		t.Error("IsKnownCode accepted unknown code")
	}
}
