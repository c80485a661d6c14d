package agtype

import (
	"fmt"
	"math"

	"github.com/orneryd/agego/pkg/convert"
)

// FromNative converts a plain Go value into a Value.
//
// Supported inputs:
//   - nil → Null
//   - bool → Bool
//   - every int and uint kind (uint64 within int64 range) → Int
//   - float32, float64 → Float
//   - json.Number → Int when it is an integer literal, else Float
//   - string, []byte → String
//   - slices and arrays → List
//   - maps keyed by string → Map
//   - Value (including Vertex, Edge, Path) → itself
//
// Anything else is rejected. Nested values are converted recursively.
//
// Example:
//
//	v, err := agtype.FromNative(map[string]any{"name": "Alice", "age": 30})
//	// v == agtype.Map{"name": agtype.String("Alice"), "age": agtype.Int(30)}
func FromNative(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case []byte:
		return String(val), nil
	}

	if i, ok := convert.Integer(v); ok {
		return Int(i), nil
	}
	if f, ok := convert.Float(v); ok {
		return Float(f), nil
	}

	if items, ok := convert.ToAnySlice(v); ok {
		out := make(List, len(items))
		for i, item := range items {
			ev, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("list element %d: %w", i, err)
			}
			out[i] = ev
		}
		return out, nil
	}
	if m, ok := convert.ToStringMap(v); ok {
		out := make(Map, len(m))
		for k, item := range m {
			ev, err := FromNative(item)
			if err != nil {
				return nil, fmt.Errorf("map key %q: %w", k, err)
			}
			out[k] = ev
		}
		return out, nil
	}

	return nil, fmt.Errorf("agtype: cannot convert %T", v)
}

// ToNative converts a Value into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any. Vertex, Edge and Path are returned as
// themselves since they have no plain equivalent.
func ToNative(v Value) any {
	switch val := v.(type) {
	case nil, Null:
		return nil
	case Bool:
		return bool(val)
	case Int:
		return int64(val)
	case Float:
		return float64(val)
	case String:
		return string(val)
	case List:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToNative(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ToNative(item)
		}
		return out
	case Vertex, Edge, Path:
		return val
	}
	panic(fmt.Sprintf("agtype: unknown value type %T", v))
}

// ToJSONCompatible is ToNative with non-finite floats replaced by their
// agtype spelling ("NaN", "Infinity", "-Infinity") and graph objects flattened
// to maps, so the result can be passed to encoding/json.
func ToJSONCompatible(v Value) any {
	switch val := v.(type) {
	case Float:
		f := float64(val)
		switch {
		case math.IsNaN(f):
			return "NaN"
		case math.IsInf(f, 1):
			return "Infinity"
		case math.IsInf(f, -1):
			return "-Infinity"
		}
		return f
	case List:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToJSONCompatible(item)
		}
		return out
	case Map:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ToJSONCompatible(item)
		}
		return out
	case Vertex:
		return map[string]any{
			"id":         int64(val.ID),
			"label":      val.Label,
			"properties": ToJSONCompatible(val.Properties),
		}
	case Edge:
		return map[string]any{
			"id":         int64(val.ID),
			"label":      val.Label,
			"start_id":   int64(val.StartID),
			"end_id":     int64(val.EndID),
			"properties": ToJSONCompatible(val.Properties),
		}
	case Path:
		elems := val.Elements()
		out := make([]any, len(elems))
		for i, e := range elems {
			out[i] = ToJSONCompatible(e)
		}
		return out
	}
	return ToNative(v)
}
