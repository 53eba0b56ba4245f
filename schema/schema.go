// Package schema describes the farm collections and validates their records
// against a JSON Schema subset.
package schema

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// FieldError is one failed rule at a JSON path such as "$.quantity".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// Errors collects every rule a record broke.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks a record against a JSON Schema (draft-07 subset).
// It returns nil if validation passes or the schema is nil, and Errors
// otherwise.
//
// Supported JSON Schema keywords:
//   - type (string, number, integer, boolean, object, array, null)
//   - properties, required, additionalProperties
//   - items (for arrays)
//   - minimum, maximum, exclusiveMinimum, exclusiveMaximum
//   - minLength, maxLength
//   - minItems, maxItems
//   - enum
func Validate(schema map[string]any, record map[string]any) error {
	if schema == nil {
		return nil
	}
	v := &validator{}
	v.value(schema, record, "$")
	if len(v.errs) == 0 {
		return nil
	}
	return v.errs
}

type validator struct {
	errs Errors
}

func (v *validator) fail(path, format string, args ...any) {
	v.errs = append(v.errs, FieldError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *validator) value(schema map[string]any, value any, path string) {
	if t, ok := schema["type"].(string); ok && !typeMatches(t, value) {
		v.fail(path, "expected type %q, got %q", t, jsonType(value))
		return
	}

	if allowed, ok := schema["enum"].([]any); ok && !inEnum(allowed, value) {
		v.fail(path, "value not in enum %v", allowed)
	}

	switch val := value.(type) {
	case map[string]any:
		v.object(schema, val, path)
	case []any:
		v.array(schema, val, path)
	case string:
		v.length(schema, len([]rune(val)), path)
	case float64:
		v.number(schema, val, path)
	case json.Number:
		f, _ := val.Float64()
		v.number(schema, f, path)
	case int:
		v.number(schema, float64(val), path)
	case int64:
		v.number(schema, float64(val), path)
	}
}

func typeMatches(expected string, value any) bool {
	actual := jsonType(value)
	switch expected {
	case "integer":
		if f, ok := value.(float64); ok {
			return f == float64(int64(f))
		}
		if n, ok := value.(json.Number); ok {
			_, err := n.Int64()
			return err == nil
		}
		return actual == "integer"
	case "number":
		return actual == "number" || actual == "integer"
	}
	return actual == expected
}

func jsonType(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, json.Number:
		return "number"
	case int, int64:
		return "integer"
	default:
		return reflect.TypeOf(v).String()
	}
}

func inEnum(allowed []any, value any) bool {
	vf, vnum := toFloat(value)
	for _, a := range allowed {
		if af, ok := toFloat(a); ok && vnum {
			if af == vf {
				return true
			}
			continue
		}
		if reflect.DeepEqual(a, value) {
			return true
		}
	}
	return false
}

func (v *validator) object(schema map[string]any, obj map[string]any, path string) {
	if req, ok := schema["required"].([]any); ok {
		for _, r := range req {
			field, ok := r.(string)
			if !ok {
				continue
			}
			if _, exists := obj[field]; !exists {
				v.fail(path+"."+field, "is required")
			}
		}
	}

	props, _ := schema["properties"].(map[string]any)
	// Sorted so error order is stable.
	fields := make([]string, 0, len(props))
	for field := range props {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		val, exists := obj[field]
		if !exists {
			continue
		}
		if ps, ok := props[field].(map[string]any); ok {
			v.value(ps, val, path+"."+field)
		}
	}

	if ap, ok := schema["additionalProperties"].(bool); ok && !ap {
		var extra []string
		for field := range obj {
			if _, defined := props[field]; !defined {
				extra = append(extra, field)
			}
		}
		if len(extra) > 0 {
			sort.Strings(extra)
			v.fail(path, "additional properties not allowed: %s", strings.Join(extra, ", "))
		}
	}
}

func (v *validator) array(schema map[string]any, arr []any, path string) {
	if n, ok := toFloat(schema["minItems"]); ok && float64(len(arr)) < n {
		v.fail(path, "array length %d is less than minItems %v", len(arr), n)
	}
	if n, ok := toFloat(schema["maxItems"]); ok && float64(len(arr)) > n {
		v.fail(path, "array length %d is greater than maxItems %v", len(arr), n)
	}
	if itemSchema, ok := schema["items"].(map[string]any); ok {
		for i, elem := range arr {
			v.value(itemSchema, elem, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

func (v *validator) length(schema map[string]any, n int, path string) {
	if min, ok := toFloat(schema["minLength"]); ok && float64(n) < min {
		if min == 1 {
			v.fail(path, "must not be empty")
		} else {
			v.fail(path, "string length %d is less than minLength %v", n, min)
		}
	}
	if max, ok := toFloat(schema["maxLength"]); ok && float64(n) > max {
		v.fail(path, "string length %d is greater than maxLength %v", n, max)
	}
}

func (v *validator) number(schema map[string]any, n float64, path string) {
	if lim, ok := toFloat(schema["minimum"]); ok && n < lim {
		v.fail(path, "%v is less than minimum %v", n, lim)
	}
	if lim, ok := toFloat(schema["maximum"]); ok && n > lim {
		v.fail(path, "%v is greater than maximum %v", n, lim)
	}
	if lim, ok := toFloat(schema["exclusiveMinimum"]); ok && n <= lim {
		v.fail(path, "%v is not greater than exclusiveMinimum %v", n, lim)
	}
	if lim, ok := toFloat(schema["exclusiveMaximum"]); ok && n >= lim {
		v.fail(path, "%v is not less than exclusiveMaximum %v", n, lim)
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
