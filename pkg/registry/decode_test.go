package registry

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juanre/llmbridge/pkg/storage"
)

func TestAsBoolAcrossEngines(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{int64(1), true},
		{int64(0), false},
		{float64(1), true},
		{"1", true},
		{"0", false},
		{"true", true},
	}
	for _, tt := range tests {
		if got := asBool(tt.in); got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAsDecimalAcrossEngines(t *testing.T) {
	if d := asDecimal(float64(2.5)); !d.Equal(asDecimal("2.5")) {
		t.Error("float and text forms should decode to the same decimal")
	}
	if asDecimalPtr(nil) != nil {
		t.Error("nil should stay nil, not zero")
	}
	if d := asDecimalPtr(int64(3)); d == nil || d.IntPart() != 3 {
		t.Errorf("expected 3, got %v", d)
	}
}

func TestAsTimeAcrossEngines(t *testing.T) {
	want := time.Date(2025, 6, 1, 12, 30, 15, 0, time.UTC)

	if got := asTime(want); !got.Equal(want) {
		t.Errorf("native time mangled: %v", got)
	}
	if got := asTime("2025-06-01 12:30:15"); !got.Equal(want) {
		t.Errorf("sqlite datetime form: got %v", got)
	}
	if got := asTime("2025-06-01 12:30:15.5"); !got.Equal(want.Add(500 * time.Millisecond)) {
		t.Errorf("fractional seconds form: got %v", got)
	}
	if got := asTime("2025-06-01T12:30:15Z"); !got.Equal(want) {
		t.Errorf("rfc3339 form: got %v", got)
	}
	if got := asTimePtr(nil); got != nil {
		t.Errorf("nil timestamp should stay nil, got %v", got)
	}
}

func TestRowToModelBoolAndPriceForms(t *testing.T) {
	// SQLite hands back integers and floats; the entity must come out typed.
	row := storage.Row{
		"id":                       int64(7),
		"provider":                 "openai",
		"model_name":               "gpt-4o",
		"supports_vision":          int64(1),
		"supports_json_mode":       int64(0),
		"price_input_per_million":  float64(2.5),
		"price_output_per_million": nil,
		"created_at":               "2025-06-01 12:30:15",
	}
	m := rowToModel(row)
	if !m.SupportsVision {
		t.Error("expected vision true from integer 1")
	}
	if m.SupportsJSONMode {
		t.Error("expected json mode false from integer 0")
	}
	if m.PriceInputPerMillion == nil || !m.PriceInputPerMillion.Equal(asDecimal(2.5)) {
		t.Errorf("expected price 2.5, got %v", m.PriceInputPerMillion)
	}
	if m.PriceOutputPerMillion != nil {
		t.Error("null price should decode to nil")
	}
	if !m.Active() {
		t.Error("model without inactive_from should be active")
	}
}

func TestRowToCallUUID(t *testing.T) {
	id := uuid.New()
	row := storage.Row{
		"id":           id.String(),
		"origin":       "test",
		"id_at_origin": "u1",
		"provider":     "openai",
		"model_name":   "gpt-4o",
		"model_id":     nil,
	}
	c := rowToCall(row)
	if c.ID != id {
		t.Errorf("uuid round trip failed: %s", c.ID)
	}
	if c.ModelID != nil {
		t.Error("null model_id should decode to nil")
	}
	if c.Failed() {
		t.Error("call without error fields should not be failed")
	}
}
