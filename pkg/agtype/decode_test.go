package agtype

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Scalars
// =============================================================================

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"null", "null", Null{}},
		{"NULL uppercase", "NULL", Null{}},
		{"true", "true", Bool(true)},
		{"False mixed case", "False", Bool(false)},
		{"zero", "0", Int(0)},
		{"negative int", "-42", Int(-42)},
		{"int64 max", "9223372036854775807", Int(math.MaxInt64)},
		{"int64 min", "-9223372036854775808", Int(math.MinInt64)},
		{"float", "3.25", Float(3.25)},
		{"float exponent", "1e3", Float(1000)},
		{"float signed exponent", "2.5E-2", Float(0.025)},
		{"float whole", "2.0", Float(2)},
		{"Infinity", "Infinity", Float(math.Inf(1))},
		{"+Infinity", "+Infinity", Float(math.Inf(1))},
		{"-Infinity", "-Infinity", Float(math.Inf(-1))},
		{"double quoted", `"hello"`, String("hello")},
		{"single quoted", `'hello'`, String("hello")},
		{"empty string", `""`, String("")},
		{"escapes", `"a\"b\\c\nd\te"`, String("a\"b\\c\nd\te")},
		{"single quote escape", `'it\'s'`, String("it's")},
		{"unicode escape", `"caf\u00e9"`, String("café")},
		{"surrogate pair", `"\ud83d\ude00"`, String("😀")},
		{"raw utf8", `"日本"`, String("日本")},
		{"surrounding whitespace", "  7 \n", Int(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeNaN(t *testing.T) {
	for _, input := range []string{"NaN", "nan", "NaN::float", `"NaN"::float`, "'NaN'::numeric"} {
		t.Run(input, func(t *testing.T) {
			got, err := DecodeString(input)
			require.NoError(t, err)
			f, ok := got.(Float)
			require.True(t, ok, "expected Float, got %T", got)
			assert.True(t, math.IsNaN(float64(f)))
		})
	}
}

func TestDecodeAnnotations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Value
	}{
		{"int to float", "3::float", Float(3)},
		{"numeric", "1.5::numeric", Float(1.5)},
		{"quoted Infinity", `"Infinity"::float`, Float(math.Inf(1))},
		{"quoted number", `"2.5"::numeric`, Float(2.5)},
		{"integer", "12::integer", Int(12)},
		{"quoted integer", `"12"::int`, Int(12)},
		{"upper case tag", "5::INTEGER", Int(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeString(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// =============================================================================
// Containers
// =============================================================================

func TestDecodeList(t *testing.T) {
	got, err := DecodeString(`[1, "two", null, [3.5, {"k": [4, 5]}], true]`)
	require.NoError(t, err)

	want := List{
		Int(1),
		String("two"),
		Null{},
		List{Float(3.5), Map{"k": List{Int(4), Int(5)}}},
		Bool(true),
	}
	assert.True(t, Equal(want, got), "got %s", EncodeString(got))

	t.Run("empty", func(t *testing.T) {
		got, err := DecodeString("[ ]")
		require.NoError(t, err)
		assert.Equal(t, List{}, got)
	})

	t.Run("commas inside strings", func(t *testing.T) {
		got, err := DecodeString(`["a,b", "c]"]`)
		require.NoError(t, err)
		assert.Equal(t, List{String("a,b"), String("c]")}, got)
	})
}

func TestDecodeMap(t *testing.T) {
	got, err := DecodeString(`{"name": "Alice", age: 30, 'tags': ["x"], "nested": {"ok": true}}`)
	require.NoError(t, err)

	m, ok := AsMap(got)
	require.True(t, ok)
	assert.Equal(t, String("Alice"), m["name"])
	assert.Equal(t, Int(30), m["age"])
	assert.Equal(t, List{String("x")}, m["tags"])
	assert.Equal(t, Map{"ok": Bool(true)}, m["nested"])

	t.Run("empty", func(t *testing.T) {
		got, err := DecodeString("{}")
		require.NoError(t, err)
		assert.Equal(t, Map{}, got)
	})
}

// =============================================================================
// Graph objects
// =============================================================================

func TestDecodeVertex(t *testing.T) {
	got, err := DecodeString(`{"id": 844424930131969, "label": "Person", "properties": {"name": "Alice", "age": 30}}::vertex`)
	require.NoError(t, err)

	v, ok := AsVertex(got)
	require.True(t, ok)
	assert.Equal(t, GraphID(844424930131969), v.ID)
	assert.Equal(t, uint16(3), v.ID.LabelID())
	assert.Equal(t, uint64(1), v.ID.EntryID())
	assert.Equal(t, "Person", v.Label)
	assert.Equal(t, String("Alice"), v.Property("name"))
	assert.Equal(t, Int(30), v.Property("age"))
	assert.Equal(t, Null{}, v.Property("missing"))
}

func TestDecodeEdge(t *testing.T) {
	got, err := DecodeString(`{"id": 1125899906842625, "label": "KNOWS", "end_id": 844424930131970, "start_id": 844424930131969, "properties": {"since": 2020}}::edge`)
	require.NoError(t, err)

	e, ok := AsEdge(got)
	require.True(t, ok)
	assert.Equal(t, GraphID(1125899906842625), e.ID)
	assert.Equal(t, "KNOWS", e.Label)
	assert.Equal(t, GraphID(844424930131969), e.StartID)
	assert.Equal(t, GraphID(844424930131970), e.EndID)
	assert.Equal(t, Int(2020), e.Property("since"))
}

func TestDecodePath(t *testing.T) {
	input := `[{"id": 1, "label": "A", "properties": {}}::vertex, ` +
		`{"id": 10, "label": "R", "end_id": 2, "start_id": 1, "properties": {}}::edge, ` +
		`{"id": 2, "label": "B", "properties": {}}::vertex]::path`

	got, err := DecodeString(input)
	require.NoError(t, err)

	p, ok := AsPath(got)
	require.True(t, ok)
	assert.Equal(t, 1, p.Len())
	require.Len(t, p.Vertices(), 2)
	assert.Equal(t, "A", p.Vertices()[0].Label)
	assert.Equal(t, "B", p.Vertices()[1].Label)
	assert.Equal(t, GraphID(10), p.Edges()[0].ID)

	elems := p.Elements()
	require.Len(t, elems, 3)
	assert.Equal(t, KindVertex, elems[0].Kind())
	assert.Equal(t, KindEdge, elems[1].Kind())
	assert.Equal(t, KindVertex, elems[2].Kind())

	t.Run("empty path", func(t *testing.T) {
		got, err := DecodeString("[]::path")
		require.NoError(t, err)
		p, ok := AsPath(got)
		require.True(t, ok)
		assert.Equal(t, Path{}, p)
		assert.Equal(t, 0, p.Len())
	})
}

func TestDecodeVertexInsideContainers(t *testing.T) {
	got, err := DecodeString(`{"who": {"id": 5, "label": "P", "properties": {}}::vertex, "n": [null]}`)
	require.NoError(t, err)
	m, ok := AsMap(got)
	require.True(t, ok)
	v, ok := AsVertex(m["who"])
	require.True(t, ok)
	assert.Equal(t, GraphID(5), v.ID)
	assert.Equal(t, List{Null{}}, m["n"])
}

// =============================================================================
// Malformed input
// =============================================================================

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason string
	}{
		{"empty", "", "empty input"},
		{"whitespace only", "   ", "empty input"},
		{"unterminated list", "[1, 2", "unterminated list"},
		{"missing comma", "[1 2]", "expected ',' or ']' in list"},
		{"unterminated object", `{"a": 1`, "unterminated object"},
		{"missing colon", `{"a" 1}`, "expected ':' after object key"},
		{"duplicate key", `{"a": 1, "a": 2}`, "duplicate object key"},
		{"unterminated string", `"abc`, "unterminated string"},
		{"bad escape", `"\x"`, "invalid escape sequence"},
		{"bad unicode escape", `"\u12"`, "invalid \\u escape"},
		{"bare word", "hello", "unrecognized literal"},
		{"trailing text", "1 2", "unexpected trailing text"},
		{"integer overflow", "9223372036854775808", "integer out of range"},
		{"double minus", "--1", "invalid integer literal"},
		{"minus inside integer", "1-2", "invalid integer literal"},
		{"plus inside list", "[1+2]", "invalid integer literal"},
		{"unknown annotation", "1::widget", "unknown type annotation"},
		{"vertex on list", "[1]::vertex", "::vertex applied to a non-object"},
		{"vertex missing id", `{"label": "A", "properties": {}}::vertex`, `vertex missing "id"`},
		{"vertex missing label", `{"id": 1, "properties": {}}::vertex`, `vertex missing "label"`},
		{"vertex missing properties", `{"id": 1, "label": "A"}::vertex`, `vertex missing "properties"`},
		{"vertex string id", `{"id": "1", "label": "A", "properties": {}}::vertex`, `vertex "id" is not an integer`},
		{"vertex properties not map", `{"id": 1, "label": "A", "properties": []}::vertex`, `vertex "properties" is not an object`},
		{"edge missing start", `{"id": 1, "label": "R", "end_id": 2, "properties": {}}::edge`, `edge missing "start_id"`},
		{"path on map", `{}::path`, "::path applied to a non-list"},
		{"path ending in edge", `[{"id": 1, "label": "A", "properties": {}}::vertex, {"id": 2, "label": "R", "start_id": 1, "end_id": 3, "properties": {}}::edge]::path`, "path must end with a vertex"},
		{"path of scalars", "[1]::path", "path element 0 is not a vertex"},
		{"path of two vertices", `[{"id": 1, "label": "A", "properties": {}}::vertex, {"id": 2, "label": "B", "properties": {}}::vertex]::path`, "path must end with a vertex"},
		{"path with vertex in edge slot", `[{"id": 1, "label": "A", "properties": {}}::vertex, {"id": 2, "label": "B", "properties": {}}::vertex, {"id": 3, "label": "C", "properties": {}}::vertex]::path`, "path element 1 is not an edge"},
		{"float annotation on bool", "true::float", "::float applied to a non-number"},
		{"integer annotation on float", "1.5::integer", "::integer applied to a non-integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeString(tt.input)
			require.Error(t, err)
			assert.Nil(t, got, "malformed input must not decode to a value")
			assert.True(t, errors.Is(err, ErrMalformedValue))

			var mv *MalformedValueError
			require.True(t, errors.As(err, &mv))
			assert.Equal(t, tt.reason, mv.Reason)
			assert.LessOrEqual(t, mv.Offset, len(tt.input))
			assert.LessOrEqual(t, len(mv.Span), maxSpan)
		})
	}
}

func TestDecodeMalformedSpan(t *testing.T) {
	_, err := DecodeString(`[1, 2, @]`)
	var mv *MalformedValueError
	require.True(t, errors.As(err, &mv))
	assert.Equal(t, 7, mv.Offset)
	assert.Equal(t, "@", mv.Span)
	assert.Contains(t, err.Error(), "offset 7")
}

func TestDecodeNestingLimit(t *testing.T) {
	deep := strings.Repeat("[", maxDepth+1) + strings.Repeat("]", maxDepth+1)
	_, err := DecodeString(deep)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedValue))

	ok := strings.Repeat("[", 100) + strings.Repeat("]", 100)
	_, err = DecodeString(ok)
	assert.NoError(t, err)
}

func TestMustDecodePanics(t *testing.T) {
	assert.Panics(t, func() { MustDecode("[") })
	assert.NotPanics(t, func() { MustDecode("[]") })
}

func BenchmarkDecodeVertex(b *testing.B) {
	input := []byte(`{"id": 844424930131969, "label": "Person", "properties": {"name": "Alice", "age": 30, "tags": ["a", "b"]}}::vertex`)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := Decode(input); err != nil {
			b.Fatal(err)
		}
	}
}
