package agtype

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// maxDepth bounds list/map nesting so hostile input cannot exhaust the stack.
const maxDepth = 1000

// Decode parses one agtype literal.
//
// The whole input must be consumed; trailing text other than whitespace is
// an error. A nil or empty payload is rejected; callers that receive SQL NULL
// should map it to Null themselves (see age.Client).
//
// Errors wrap ErrMalformedValue and carry the offending span:
//
//	_, err := agtype.Decode([]byte(`[1, 2`))
//	var mv *agtype.MalformedValueError
//	errors.As(err, &mv) // mv.Offset == 5, mv.Reason == "unterminated list"
func Decode(data []byte) (Value, error) {
	return DecodeString(string(data))
}

// DecodeString is Decode for text already held as a string.
func DecodeString(s string) (Value, error) {
	d := decoder{src: s}
	d.skipSpace()
	if d.eof() {
		return nil, malformed(s, 0, len(s), "empty input")
	}
	v, err := d.value()
	if err != nil {
		return nil, err
	}
	d.skipSpace()
	if !d.eof() {
		return nil, malformed(s, d.pos, len(s), "unexpected trailing text")
	}
	return v, nil
}

// MustDecode is like DecodeString but panics on error. Intended for tests and
// package-level literals.
func MustDecode(s string) Value {
	v, err := DecodeString(s)
	if err != nil {
		panic(err)
	}
	return v
}

type decoder struct {
	src   string
	pos   int
	depth int
}

func (d *decoder) eof() bool { return d.pos >= len(d.src) }

func (d *decoder) peek() byte { return d.src[d.pos] }

func (d *decoder) skipSpace() {
	for d.pos < len(d.src) {
		switch d.src[d.pos] {
		case ' ', '\t', '\n', '\r':
			d.pos++
		default:
			return
		}
	}
}

func (d *decoder) value() (Value, error) {
	d.skipSpace()
	if d.eof() {
		return nil, malformed(d.src, d.pos, d.pos, "unexpected end of input")
	}
	start := d.pos

	var (
		v   Value
		err error
	)
	switch c := d.peek(); c {
	case '{':
		v, err = d.object()
	case '[':
		v, err = d.list()
	case '"', '\'':
		var s string
		s, err = d.str()
		v = String(s)
	default:
		v, err = d.scalar()
	}
	if err != nil {
		return nil, err
	}
	return d.annotation(start, v)
}

// annotation applies an optional ::type suffix to the value just parsed.
func (d *decoder) annotation(start int, v Value) (Value, error) {
	if !strings.HasPrefix(d.src[d.pos:], "::") {
		return v, nil
	}
	tagStart := d.pos
	d.pos += 2
	for d.pos < len(d.src) && isIdentChar(d.src[d.pos]) {
		d.pos++
	}
	tag := strings.ToLower(d.src[tagStart+2 : d.pos])

	switch tag {
	case "vertex":
		m, ok := v.(Map)
		if !ok {
			return nil, malformed(d.src, start, d.pos, "::vertex applied to a non-object")
		}
		return d.toVertex(m, start)
	case "edge":
		m, ok := v.(Map)
		if !ok {
			return nil, malformed(d.src, start, d.pos, "::edge applied to a non-object")
		}
		return d.toEdge(m, start)
	case "path":
		l, ok := v.(List)
		if !ok {
			return nil, malformed(d.src, start, d.pos, "::path applied to a non-list")
		}
		return d.toPath(l, start)
	case "numeric", "float":
		switch n := v.(type) {
		case Float:
			return n, nil
		case Int:
			return Float(n), nil
		case String:
			if f, ok := parseSpecialFloat(string(n)); ok {
				return Float(f), nil
			}
			if f, err := strconv.ParseFloat(string(n), 64); err == nil {
				return Float(f), nil
			}
		}
		return nil, malformed(d.src, start, d.pos, "::"+tag+" applied to a non-number")
	case "integer", "int":
		switch n := v.(type) {
		case Int:
			return n, nil
		case String:
			if i, err := strconv.ParseInt(string(n), 10, 64); err == nil {
				return Int(i), nil
			}
		}
		return nil, malformed(d.src, start, d.pos, "::"+tag+" applied to a non-integer")
	}
	return nil, malformed(d.src, tagStart, d.pos, "unknown type annotation")
}

func (d *decoder) enter(start int) error {
	d.depth++
	if d.depth > maxDepth {
		return malformed(d.src, start, start+1, "nesting too deep")
	}
	return nil
}

func (d *decoder) list() (Value, error) {
	start := d.pos
	if err := d.enter(start); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	d.pos++ // '['
	out := List{}
	d.skipSpace()
	if !d.eof() && d.peek() == ']' {
		d.pos++
		return out, nil
	}
	for {
		elem, err := d.value()
		if err != nil {
			return nil, err
		}
		out = append(out, elem)

		d.skipSpace()
		if d.eof() {
			return nil, malformed(d.src, start, d.pos, "unterminated list")
		}
		switch d.peek() {
		case ',':
			d.pos++
		case ']':
			d.pos++
			return out, nil
		default:
			return nil, malformed(d.src, d.pos, d.pos+1, "expected ',' or ']' in list")
		}
	}
}

func (d *decoder) object() (Value, error) {
	start := d.pos
	if err := d.enter(start); err != nil {
		return nil, err
	}
	defer func() { d.depth-- }()

	d.pos++ // '{'
	out := Map{}
	d.skipSpace()
	if !d.eof() && d.peek() == '}' {
		d.pos++
		return out, nil
	}
	for {
		d.skipSpace()
		keyStart := d.pos
		key, err := d.key()
		if err != nil {
			return nil, err
		}
		d.skipSpace()
		if d.eof() || d.peek() != ':' {
			return nil, malformed(d.src, d.pos, d.pos+1, "expected ':' after object key")
		}
		d.pos++

		val, err := d.value()
		if err != nil {
			return nil, err
		}
		if _, dup := out[key]; dup {
			return nil, malformed(d.src, keyStart, d.pos, "duplicate object key")
		}
		out[key] = val

		d.skipSpace()
		if d.eof() {
			return nil, malformed(d.src, start, d.pos, "unterminated object")
		}
		switch d.peek() {
		case ',':
			d.pos++
		case '}':
			d.pos++
			return out, nil
		default:
			return nil, malformed(d.src, d.pos, d.pos+1, "expected ',' or '}' in object")
		}
	}
}

// key reads an object key: a quoted string or a bare identifier.
func (d *decoder) key() (string, error) {
	if d.eof() {
		return "", malformed(d.src, d.pos, d.pos, "unexpected end of input in object")
	}
	if c := d.peek(); c == '"' || c == '\'' {
		return d.str()
	}
	start := d.pos
	for d.pos < len(d.src) && isIdentChar(d.src[d.pos]) {
		d.pos++
	}
	if d.pos == start {
		return "", malformed(d.src, start, start+1, "expected object key")
	}
	return d.src[start:d.pos], nil
}

// str reads a single- or double-quoted string with JSON escapes.
func (d *decoder) str() (string, error) {
	start := d.pos
	quote := d.src[d.pos]
	d.pos++

	// Fast path: no escapes before the closing quote.
	for i := d.pos; i < len(d.src); i++ {
		c := d.src[i]
		if c == quote {
			s := d.src[d.pos:i]
			d.pos = i + 1
			return s, nil
		}
		if c == '\\' {
			break
		}
	}

	var b strings.Builder
	for d.pos < len(d.src) {
		c := d.src[d.pos]
		switch {
		case c == quote:
			d.pos++
			return b.String(), nil
		case c == '\\':
			if err := d.escape(&b); err != nil {
				return "", err
			}
		default:
			b.WriteByte(c)
			d.pos++
		}
	}
	return "", malformed(d.src, start, d.pos, "unterminated string")
}

func (d *decoder) escape(b *strings.Builder) error {
	start := d.pos
	if d.pos+1 >= len(d.src) {
		return malformed(d.src, start, d.pos+1, "unterminated escape")
	}
	c := d.src[d.pos+1]
	d.pos += 2
	switch c {
	case '"', '\'', '\\', '/':
		b.WriteByte(c)
	case 'b':
		b.WriteByte('\b')
	case 'f':
		b.WriteByte('\f')
	case 'n':
		b.WriteByte('\n')
	case 'r':
		b.WriteByte('\r')
	case 't':
		b.WriteByte('\t')
	case 'u':
		r, ok := d.hex4()
		if !ok {
			return malformed(d.src, start, d.pos+4, "invalid \\u escape")
		}
		if utf16.IsSurrogate(r) {
			if strings.HasPrefix(d.src[d.pos:], "\\u") {
				save := d.pos
				d.pos += 2
				if r2, ok := d.hex4(); ok {
					if dec := utf16.DecodeRune(r, r2); dec != utf8.RuneError {
						b.WriteRune(dec)
						return nil
					}
				}
				d.pos = save
			}
			r = utf8.RuneError
		}
		b.WriteRune(r)
	default:
		return malformed(d.src, start, d.pos, "invalid escape sequence")
	}
	return nil
}

func (d *decoder) hex4() (rune, bool) {
	if d.pos+4 > len(d.src) {
		return 0, false
	}
	n, err := strconv.ParseUint(d.src[d.pos:d.pos+4], 16, 32)
	if err != nil {
		return 0, false
	}
	d.pos += 4
	return rune(n), true
}

// scalar reads a bare token: number, boolean, null, or special float.
func (d *decoder) scalar() (Value, error) {
	start := d.pos
	for d.pos < len(d.src) && !isDelimiter(d.src[d.pos]) {
		d.pos++
	}
	tok := d.src[start:d.pos]
	if tok == "" {
		return nil, malformed(d.src, start, start+1, "unexpected character")
	}

	switch strings.ToLower(tok) {
	case "null":
		return Null{}, nil
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	}
	if f, ok := parseSpecialFloat(tok); ok {
		return Float(f), nil
	}
	if !isNumberToken(tok) {
		return nil, malformed(d.src, start, d.pos, "unrecognized literal")
	}
	if strings.ContainsAny(tok, ".eE") {
		f, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, malformed(d.src, start, d.pos, "invalid float literal")
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return nil, malformed(d.src, start, d.pos, "integer out of range")
		}
		return nil, malformed(d.src, start, d.pos, "invalid integer literal")
	}
	return Int(i), nil
}

func (d *decoder) toVertex(m Map, start int) (Value, error) {
	id, err := d.idField(m, "id", "vertex", start)
	if err != nil {
		return nil, err
	}
	label, err := d.labelField(m, "vertex", start)
	if err != nil {
		return nil, err
	}
	props, err := d.propertiesField(m, "vertex", start)
	if err != nil {
		return nil, err
	}
	return Vertex{ID: id, Label: label, Properties: props}, nil
}

func (d *decoder) toEdge(m Map, start int) (Value, error) {
	id, err := d.idField(m, "id", "edge", start)
	if err != nil {
		return nil, err
	}
	startID, err := d.idField(m, "start_id", "edge", start)
	if err != nil {
		return nil, err
	}
	endID, err := d.idField(m, "end_id", "edge", start)
	if err != nil {
		return nil, err
	}
	label, err := d.labelField(m, "edge", start)
	if err != nil {
		return nil, err
	}
	props, err := d.propertiesField(m, "edge", start)
	if err != nil {
		return nil, err
	}
	return Edge{ID: id, Label: label, StartID: startID, EndID: endID, Properties: props}, nil
}

func (d *decoder) toPath(l List, start int) (Value, error) {
	p, reason := buildPath(l)
	if reason != "" {
		return nil, malformed(d.src, start, d.pos, reason)
	}
	return p, nil
}

func (d *decoder) idField(m Map, name, what string, start int) (GraphID, error) {
	raw, ok := m[name]
	if !ok {
		return 0, malformed(d.src, start, d.pos, what+" missing \""+name+"\"")
	}
	i, ok := raw.(Int)
	if !ok {
		return 0, malformed(d.src, start, d.pos, what+" \""+name+"\" is not an integer")
	}
	return GraphID(uint64(i)), nil
}

func (d *decoder) labelField(m Map, what string, start int) (string, error) {
	raw, ok := m["label"]
	if !ok {
		return "", malformed(d.src, start, d.pos, what+" missing \"label\"")
	}
	s, ok := raw.(String)
	if !ok {
		return "", malformed(d.src, start, d.pos, what+" \"label\" is not a string")
	}
	return string(s), nil
}

func (d *decoder) propertiesField(m Map, what string, start int) (Map, error) {
	raw, ok := m["properties"]
	if !ok {
		return nil, malformed(d.src, start, d.pos, what+" missing \"properties\"")
	}
	props, ok := raw.(Map)
	if !ok {
		return nil, malformed(d.src, start, d.pos, what+" \"properties\" is not an object")
	}
	return props, nil
}

// parseSpecialFloat recognizes the non-finite float spellings AGE emits.
func parseSpecialFloat(tok string) (float64, bool) {
	switch {
	case strings.EqualFold(tok, "NaN"):
		return math.NaN(), true
	case strings.EqualFold(tok, "Infinity"), strings.EqualFold(tok, "+Infinity"):
		return math.Inf(1), true
	case strings.EqualFold(tok, "-Infinity"):
		return math.Inf(-1), true
	}
	return 0, false
}

func isNumberToken(tok string) bool {
	digits := false
	for i := 0; i < len(tok); i++ {
		c := tok[i]
		switch {
		case c >= '0' && c <= '9':
			digits = true
		case c == '-' || c == '+' || c == '.' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return digits
}

func isDelimiter(c byte) bool {
	switch c {
	case ',', ']', '}', ':', '[', '{', '"', '\'', ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}
