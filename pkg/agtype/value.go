// Package agtype implements the Apache AGE dynamic value format.
//
// Every column returned by ag_catalog.cypher() carries a single agtype value:
// a JSON-like literal that may also hold graph objects tagged with a trailing
// type suffix. This package parses that text into a closed set of Go types
// and renders them back so values can be bound as query parameters.
//
// Value Kinds:
//
//	null                                   → Null
//	true / false                           → Bool
//	42                                     → Int
//	3.14, NaN, Infinity, -Infinity         → Float
//	"text"                                 → String
//	[1, "a", null]                         → List
//	{"k": 1}                               → Map
//	{"id": 1, "label": "L", ...}::vertex   → Vertex
//	{"id": 2, "label": "R", ...}::edge     → Edge
//	[v::vertex, e::edge, v::vertex]::path  → Path
//
// Example:
//
//	v, err := agtype.DecodeString(`{"id": 844424930131969, "label": "Person", "properties": {"name": "Alice"}}::vertex`)
//	if err != nil {
//		return err
//	}
//	vertex, _ := agtype.AsVertex(v)
//	fmt.Println(vertex.Label) // Person
//
//	payload := agtype.Encode(agtype.Map{"name": agtype.String("Alice")})
//	// payload == []byte(`{"name": "Alice"}`)
//
// The round-trip law holds for every value built from these types:
//
//	agtype.Equal(agtype.MustDecode(agtype.Encode(v)), v) == true
//
// All functions are pure and safe for concurrent use.
package agtype

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindList
	KindMap
	KindVertex
	KindEdge
	KindPath
)

var kindNames = [...]string{
	KindNull:   "null",
	KindBool:   "bool",
	KindInt:    "integer",
	KindFloat:  "float",
	KindString: "string",
	KindList:   "list",
	KindMap:    "map",
	KindVertex: "vertex",
	KindEdge:   "edge",
	KindPath:   "path",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Value is a decoded agtype value.
//
// The set of implementations is closed: Null, Bool, Int, Float, String, List,
// Map, Vertex, Edge and Path. Code consuming a Value should use a type switch
// over exactly these types.
type Value interface {
	Kind() Kind
	isValue()
}

// Null is the agtype null.
type Null struct{}

// Bool is an agtype boolean.
type Bool bool

// Int is an agtype integer (64-bit signed).
type Int int64

// Float is an agtype float. NaN and ±Inf are ordinary values.
type Float float64

// String is an agtype string.
type String string

// List is an ordered, possibly heterogeneous sequence of values.
type List []Value

// Map maps unique string keys to values. Key order is not significant.
type Map map[string]Value

func (Null) Kind() Kind   { return KindNull }
func (Bool) Kind() Kind   { return KindBool }
func (Int) Kind() Kind    { return KindInt }
func (Float) Kind() Kind  { return KindFloat }
func (String) Kind() Kind { return KindString }
func (List) Kind() Kind   { return KindList }
func (Map) Kind() Kind    { return KindMap }
func (Vertex) Kind() Kind { return KindVertex }
func (Edge) Kind() Kind   { return KindEdge }
func (Path) Kind() Kind   { return KindPath }

func (Null) isValue()   {}
func (Bool) isValue()   {}
func (Int) isValue()    {}
func (Float) isValue()  {}
func (String) isValue() {}
func (List) isValue()   {}
func (Map) isValue()    {}
func (Vertex) isValue() {}
func (Edge) isValue()   {}
func (Path) isValue()   {}

// String renders v in agtype literal form.
func (v List) String() string   { return EncodeString(v) }
func (v Map) String() string    { return EncodeString(v) }
func (v Vertex) String() string { return EncodeString(v) }
func (v Edge) String() string   { return EncodeString(v) }
func (v Path) String() string   { return EncodeString(v) }

// IsNull reports whether v is nil or Null.
func IsNull(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Null)
	return ok
}

// =============================================================================
// Typed accessors
// =============================================================================

// AsBool returns the boolean held by v.
func AsBool(v Value) (bool, bool) {
	b, ok := v.(Bool)
	return bool(b), ok
}

// AsInt returns the integer held by v.
func AsInt(v Value) (int64, bool) {
	i, ok := v.(Int)
	return int64(i), ok
}

// AsFloat returns v as a float64. Integers are widened.
func AsFloat(v Value) (float64, bool) {
	switch n := v.(type) {
	case Float:
		return float64(n), true
	case Int:
		return float64(n), true
	}
	return 0, false
}

// AsString returns the string held by v.
func AsString(v Value) (string, bool) {
	s, ok := v.(String)
	return string(s), ok
}

// AsList returns the list held by v.
func AsList(v Value) (List, bool) {
	l, ok := v.(List)
	return l, ok
}

// AsMap returns the map held by v.
func AsMap(v Value) (Map, bool) {
	m, ok := v.(Map)
	return m, ok
}

// AsVertex returns the vertex held by v.
func AsVertex(v Value) (Vertex, bool) {
	vx, ok := v.(Vertex)
	return vx, ok
}

// AsEdge returns the edge held by v.
func AsEdge(v Value) (Edge, bool) {
	e, ok := v.(Edge)
	return e, ok
}

// AsPath returns the path held by v.
func AsPath(v Value) (Path, bool) {
	p, ok := v.(Path)
	return p, ok
}
