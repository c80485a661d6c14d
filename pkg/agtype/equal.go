package agtype

import "math"

// Equal reports whether a and b are observationally equal.
//
// Rules:
//   - nil and Null are equal
//   - Int and Float never equal each other, even when numerically equal
//   - NaN equals NaN
//   - Map equality ignores key order
//   - Vertex and Edge compare by ID only; a Vertex never equals an Edge
//   - Path compares element-wise by ID
func Equal(a, b Value) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	switch x := a.(type) {
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Float:
		y, ok := b.(Float)
		if !ok {
			return false
		}
		if math.IsNaN(float64(x)) || math.IsNaN(float64(y)) {
			return math.IsNaN(float64(x)) && math.IsNaN(float64(y))
		}
		return x == y
	case String:
		y, ok := b.(String)
		return ok && x == y
	case List:
		y, ok := b.(List)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Map:
		y, ok := b.(Map)
		return ok && mapsEqual(x, y)
	case Vertex:
		y, ok := b.(Vertex)
		return ok && x.Equal(y)
	case Edge:
		y, ok := b.(Edge)
		return ok && x.Equal(y)
	case Path:
		y, ok := b.(Path)
		if !ok || len(x.vertices) != len(y.vertices) || len(x.edges) != len(y.edges) {
			return false
		}
		for i := range x.vertices {
			if !x.vertices[i].Equal(y.vertices[i]) {
				return false
			}
		}
		for i := range x.edges {
			if !x.edges[i].Equal(y.edges[i]) {
				return false
			}
		}
		return true
	}
	return false
}

func mapsEqual(a, b Map) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || !Equal(av, bv) {
			return false
		}
	}
	return true
}
