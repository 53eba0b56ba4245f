package schema_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stevemurr/farm-records/schema"
)

func TestValidateNilSchema(t *testing.T) {
	if err := schema.Validate(nil, map[string]any{"anything": "goes"}); err != nil {
		t.Fatalf("nil schema should pass: %v", err)
	}
}

func TestValidateRequired(t *testing.T) {
	s := map[string]any{
		"type":     "object",
		"required": []any{"animal_tag", "vaccine_name"},
	}

	err := schema.Validate(s, map[string]any{"animal_tag": "A-01"})
	if err == nil {
		t.Fatal("expected error for missing vaccine_name")
	}

	err = schema.Validate(s, map[string]any{"animal_tag": "A-01", "vaccine_name": "8-way"})
	if err != nil {
		t.Fatalf("expected pass: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	s := map[string]any{
		"type":     "object",
		"required": []any{"item_name", "condition"},
		"properties": map[string]any{
			"quantity": map[string]any{"type": "integer", "minimum": float64(0)},
		},
	}

	err := schema.Validate(s, map[string]any{"quantity": float64(-2)})
	var errs schema.Errors
	if !errors.As(err, &errs) {
		t.Fatalf("expected schema.Errors, got %T", err)
	}
	if len(errs) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(errs), errs)
	}
	want := []string{"$.item_name", "$.condition", "$.quantity"}
	for i, p := range want {
		if errs[i].Path != p {
			t.Fatalf("error %d: expected path %s, got %s", i, p, errs[i].Path)
		}
	}
}

func TestValidateTypes(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"breed":  map[string]any{"type": "string"},
			"weight": map[string]any{"type": "number"},
			"count":  map[string]any{"type": "integer"},
		},
	}

	if err := schema.Validate(s, map[string]any{"breed": "Angus", "weight": float64(1500), "count": 3}); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
	if err := schema.Validate(s, map[string]any{"breed": float64(7)}); err == nil {
		t.Fatal("expected error for wrong type")
	}
	if err := schema.Validate(s, map[string]any{"count": float64(5)}); err != nil {
		t.Fatalf("whole float64 should pass as integer: %v", err)
	}
	if err := schema.Validate(s, map[string]any{"count": float64(5.5)}); err == nil {
		t.Fatal("expected error for fractional integer")
	}
}

func TestValidateAdditionalProperties(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
		},
		"additionalProperties": false,
	}

	if err := schema.Validate(s, map[string]any{"name": "North Field", "acres": "40"}); err == nil {
		t.Fatal("expected error for additional properties")
	}
	if err := schema.Validate(s, map[string]any{"name": "North Field"}); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
}

func TestValidateStringAndNumberBounds(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tag": map[string]any{"type": "string", "minLength": float64(2), "maxLength": float64(5)},
			"ph":  map[string]any{"type": "number", "minimum": float64(0), "maximum": float64(14)},
		},
	}

	cases := []struct {
		name string
		rec  map[string]any
		ok   bool
	}{
		{"tag too short", map[string]any{"tag": "A"}, false},
		{"tag too long", map[string]any{"tag": "A-0001"}, false},
		{"tag ok", map[string]any{"tag": "A-01"}, true},
		{"ph below", map[string]any{"ph": float64(-1)}, false},
		{"ph above", map[string]any{"ph": float64(15)}, false},
		{"ph ok", map[string]any{"ph": 6.8}, true},
		{"int below", map[string]any{"ph": -3}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := schema.Validate(s, tc.rec)
			if tc.ok && err != nil {
				t.Fatalf("expected pass: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestValidateEnum(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{"type": "string", "enum": []any{"Income", "Expense"}},
		},
	}

	if err := schema.Validate(s, map[string]any{"type": "Income"}); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
	if err := schema.Validate(s, map[string]any{"type": "Gift"}); err == nil {
		t.Fatal("expected error for invalid enum value")
	}
}

func TestValidateNumericEnum(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"grade": map[string]any{"enum": []any{float64(1), float64(2)}},
		},
	}

	if err := schema.Validate(s, map[string]any{"grade": json.Number("2")}); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
	if err := schema.Validate(s, map[string]any{"grade": json.Number("3")}); err == nil {
		t.Fatal("expected error for number outside enum")
	}
}

func TestValidateArray(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tags": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string"},
				"minItems": float64(1),
				"maxItems": float64(3),
			},
		},
	}

	if err := schema.Validate(s, map[string]any{"tags": []any{}}); err == nil {
		t.Fatal("expected error for empty array (minItems=1)")
	}
	if err := schema.Validate(s, map[string]any{"tags": []any{"a", "b", "c", "d"}}); err == nil {
		t.Fatal("expected error for too many items")
	}
	if err := schema.Validate(s, map[string]any{"tags": []any{"a", float64(1)}}); err == nil {
		t.Fatal("expected error for wrong item type")
	}
	if err := schema.Validate(s, map[string]any{"tags": []any{"A-01", "A-02"}}); err != nil {
		t.Fatalf("expected pass: %v", err)
	}
}

func TestValidateNestedObject(t *testing.T) {
	s := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"treatment": map[string]any{
				"type":     "object",
				"required": []any{"medication"},
				"properties": map[string]any{
					"medication": map[string]any{"type": "string"},
				},
			},
		},
	}

	err := schema.Validate(s, map[string]any{"treatment": map[string]any{"dosage": "10cc"}})
	var errs schema.Errors
	if !errors.As(err, &errs) || errs[0].Path != "$.treatment.medication" {
		t.Fatalf("expected nested required error, got %v", err)
	}

	err = schema.Validate(s, map[string]any{"treatment": map[string]any{"medication": "Penicillin"}})
	if err != nil {
		t.Fatalf("expected pass: %v", err)
	}
}
