package convert

import "reflect"

// ToAnySlice converts any slice or array to []interface{}.
// Returns (nil, false) if v is not a slice or array. []byte is not treated
// as a slice; callers usually want it as a string.
//
// Common element types are handled without reflection.
//
// Example:
//
//	s, ok := ToAnySlice([]int{1, 2, 3})   // Returns ([1, 2, 3], true)
//	s, ok := ToAnySlice("abc")            // Returns (nil, false)
func ToAnySlice(v interface{}) ([]interface{}, bool) {
	switch val := v.(type) {
	case []interface{}:
		return val, true
	case []string:
		out := make([]interface{}, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]interface{}, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out, true
	case []int64:
		out := make([]interface{}, len(val))
		for i, n := range val {
			out[i] = n
		}
		return out, true
	case []float64:
		out := make([]interface{}, len(val))
		for i, f := range val {
			out[i] = f
		}
		return out, true
	case []bool:
		out := make([]interface{}, len(val))
		for i, b := range val {
			out[i] = b
		}
		return out, true
	case []byte, nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// ToStringMap converts any map with string keys to map[string]interface{}.
// Returns (nil, false) for non-maps and maps keyed by other types.
//
// Example:
//
//	m, ok := ToStringMap(map[string]int{"a": 1})  // Returns ({"a": 1}, true)
//	m, ok := ToStringMap(map[int]string{})        // Returns (nil, false)
func ToStringMap(v interface{}) (map[string]interface{}, bool) {
	switch val := v.(type) {
	case map[string]interface{}:
		return val, true
	case map[string]string:
		out := make(map[string]interface{}, len(val))
		for k, s := range val {
			out[k] = s
		}
		return out, true
	case nil:
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]interface{}, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
