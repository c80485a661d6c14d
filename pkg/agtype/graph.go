package agtype

import (
	"fmt"
	"strconv"
)

// Type suffixes AGE appends to graph object literals.
const (
	VertexSuffix = "::vertex"
	EdgeSuffix   = "::edge"
	PathSuffix   = "::path"
)

// GraphID is the opaque 64-bit identifier AGE assigns to vertices and edges.
//
// AGE packs the label id into the high 16 bits and a per-label sequence
// number into the low 48 bits. The value is never sign-checked.
type GraphID uint64

const entryBits = 48

// LabelID returns the label table id encoded in the identifier.
func (id GraphID) LabelID() uint16 {
	return uint16(uint64(id) >> entryBits)
}

// EntryID returns the per-label sequence number encoded in the identifier.
func (id GraphID) EntryID() uint64 {
	return uint64(id) & (1<<entryBits - 1)
}

func (id GraphID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// MakeGraphID composes an identifier from a label id and entry id.
func MakeGraphID(labelID uint16, entryID uint64) GraphID {
	return GraphID(uint64(labelID)<<entryBits | entryID&(1<<entryBits-1))
}

// Vertex is a graph node.
//
// Two vertices are equal when their identifiers are equal; label and
// properties do not take part in equality.
type Vertex struct {
	ID         GraphID
	Label      string
	Properties Map
}

// Equal reports whether v and other identify the same vertex.
func (v Vertex) Equal(other Vertex) bool {
	return v.ID == other.ID
}

// Property returns the named property, or Null when absent.
func (v Vertex) Property(name string) Value {
	if p, ok := v.Properties[name]; ok {
		return p
	}
	return Null{}
}

// Edge is a directed relationship between two vertices.
//
// Like Vertex, edges compare by identifier only.
type Edge struct {
	ID         GraphID
	Label      string
	StartID    GraphID
	EndID      GraphID
	Properties Map
}

// Equal reports whether e and other identify the same edge.
func (e Edge) Equal(other Edge) bool {
	return e.ID == other.ID
}

// Property returns the named property, or Null when absent.
func (e Edge) Property(name string) Value {
	if p, ok := e.Properties[name]; ok {
		return p
	}
	return Null{}
}

// Path is an alternating vertex/edge walk v0, e0, v1, e1, ..., vN with exactly
// one more vertex than edges. The zero Path is the empty path. Non-empty paths
// are built with NewPath, which rejects any other shape.
type Path struct {
	vertices []Vertex
	edges    []Edge
}

// NewPath builds a path from its alternating element sequence. It fails with
// ErrInvalidPath unless elems is empty or holds an odd number of values with
// vertices at even positions and edges at odd positions.
func NewPath(elems ...Value) (Path, error) {
	p, reason := buildPath(elems)
	if reason != "" {
		return Path{}, fmt.Errorf("%w: %s", ErrInvalidPath, reason)
	}
	return p, nil
}

// buildPath returns the path and an empty reason, or the reason elems do not
// form a path.
func buildPath(elems []Value) (Path, string) {
	if len(elems) == 0 {
		return Path{}, ""
	}
	if len(elems)%2 == 0 {
		return Path{}, "path must end with a vertex"
	}

	p := Path{
		vertices: make([]Vertex, 0, len(elems)/2+1),
		edges:    make([]Edge, 0, len(elems)/2),
	}
	for i, e := range elems {
		if i%2 == 0 {
			v, ok := e.(Vertex)
			if !ok {
				return Path{}, "path element " + strconv.Itoa(i) + " is not a vertex"
			}
			p.vertices = append(p.vertices, v)
			continue
		}
		ed, ok := e.(Edge)
		if !ok {
			return Path{}, "path element " + strconv.Itoa(i) + " is not an edge"
		}
		p.edges = append(p.edges, ed)
	}
	return p, ""
}

// Vertices returns the path's vertices in walk order.
func (p Path) Vertices() []Vertex {
	return p.vertices
}

// Edges returns the path's edges in walk order.
func (p Path) Edges() []Edge {
	return p.edges
}

// Len returns the number of edges (hops) in the path.
func (p Path) Len() int {
	return len(p.edges)
}

// Elements returns the path as its alternating sequence of Vertex and Edge
// values.
func (p Path) Elements() []Value {
	out := make([]Value, 0, len(p.vertices)+len(p.edges))
	for i, v := range p.vertices {
		out = append(out, v)
		if i < len(p.edges) {
			out = append(out, p.edges[i])
		}
	}
	return out
}
