// Package convert provides type conversion utilities for agego.
//
// This package consolidates the coercions needed when a caller hands the
// client plain Go values (query parameters, CLI JSON input) that must become
// agtype values. Integers and floats are kept apart: an int stays an integer
// and a float stays a float, because agtype distinguishes the two on the wire.
//
// Key Functions:
//   - Integer: exact integer kinds to int64
//   - Float: float kinds to float64
//   - ToAnySlice: any slice to []any
//   - ToStringMap: any string-keyed map to map[string]any
//
// All conversion functions return a success boolean to allow callers to handle
// conversion failures gracefully.
//
// Example:
//
//	if i, ok := convert.Integer(param); ok {
//		return agtype.Int(i), nil
//	}
//	if f, ok := convert.Float(param); ok {
//		return agtype.Float(f), nil
//	}
package convert

import (
	"encoding/json"
	"math"
)

// Integer converts Go integer kinds to int64 without loss.
// Returns (0, false) for non-integers and for uint64 values above MaxInt64.
//
// json.Number is accepted when it holds an integer literal.
//
// Example:
//
//	i, ok := Integer(int8(-3))         // Returns (-3, true)
//	i, ok := Integer(uint64(1) << 63)  // Returns (0, false) - out of range
//	i, ok := Integer(3.0)              // Returns (0, false) - not an integer kind
func Integer(v interface{}) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int8:
		return int64(val), true
	case int16:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint:
		if uint64(val) > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case uint8:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// Float converts float32/float64 (and non-integer json.Number) to float64.
func Float(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case json.Number:
		if f, err := val.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}
