package agtype

import (
	"math"
	"sort"
	"strconv"
	"unicode/utf8"

	"github.com/orneryd/agego/pkg/pool"
)

// Encode renders v as agtype literal text.
//
// Scalars use their literal form, lists and maps are rendered recursively
// with ", " separators, and graph objects carry their ::vertex / ::edge /
// ::path suffix. Map keys are emitted in sorted order so output is
// deterministic. A nil Value encodes as null.
//
// Example:
//
//	agtype.Encode(agtype.List{agtype.Int(1), agtype.Float(math.NaN()), agtype.Null{}})
//	// → [1, NaN, null]
func Encode(v Value) []byte {
	buf := pool.GetByteBuffer()
	buf = AppendValue(buf, v)
	out := make([]byte, len(buf))
	copy(out, buf)
	pool.PutByteBuffer(buf)
	return out
}

// EncodeString is Encode returning a string.
func EncodeString(v Value) string {
	buf := pool.GetByteBuffer()
	buf = AppendValue(buf, v)
	s := string(buf)
	pool.PutByteBuffer(buf)
	return s
}

// AppendValue appends the literal form of v to dst and returns the extended
// buffer.
func AppendValue(dst []byte, v Value) []byte {
	switch val := v.(type) {
	case nil, Null:
		return append(dst, "null"...)
	case Bool:
		if val {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case Int:
		return strconv.AppendInt(dst, int64(val), 10)
	case Float:
		return appendFloat(dst, float64(val))
	case String:
		return appendQuoted(dst, string(val))
	case List:
		return appendList(dst, val)
	case Map:
		return appendMap(dst, val)
	case Vertex:
		dst = append(dst, `{"id": `...)
		dst = strconv.AppendInt(dst, int64(val.ID), 10)
		dst = append(dst, `, "label": `...)
		dst = appendQuoted(dst, val.Label)
		dst = append(dst, `, "properties": `...)
		dst = appendMap(dst, val.Properties)
		dst = append(dst, '}')
		return append(dst, VertexSuffix...)
	case Edge:
		dst = append(dst, `{"id": `...)
		dst = strconv.AppendInt(dst, int64(val.ID), 10)
		dst = append(dst, `, "label": `...)
		dst = appendQuoted(dst, val.Label)
		dst = append(dst, `, "end_id": `...)
		dst = strconv.AppendInt(dst, int64(val.EndID), 10)
		dst = append(dst, `, "start_id": `...)
		dst = strconv.AppendInt(dst, int64(val.StartID), 10)
		dst = append(dst, `, "properties": `...)
		dst = appendMap(dst, val.Properties)
		dst = append(dst, '}')
		return append(dst, EdgeSuffix...)
	case Path:
		dst = append(dst, '[')
		for i, elem := range val.Elements() {
			if i > 0 {
				dst = append(dst, ", "...)
			}
			dst = AppendValue(dst, elem)
		}
		dst = append(dst, ']')
		return append(dst, PathSuffix...)
	}
	panic("agtype: unknown value type")
}

func appendList(dst []byte, l List) []byte {
	dst = append(dst, '[')
	for i, elem := range l {
		if i > 0 {
			dst = append(dst, ", "...)
		}
		dst = AppendValue(dst, elem)
	}
	return append(dst, ']')
}

func appendMap(dst []byte, m Map) []byte {
	dst = append(dst, '{')
	for i, k := range sortedKeys(m) {
		if i > 0 {
			dst = append(dst, ", "...)
		}
		dst = appendQuoted(dst, k)
		dst = append(dst, ": "...)
		dst = AppendValue(dst, m[k])
	}
	return append(dst, '}')
}

func sortedKeys(m Map) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// appendFloat writes f so that it decodes back to a Float: finite values
// always carry a decimal point or exponent.
func appendFloat(dst []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, "NaN"...)
	case math.IsInf(f, 1):
		return append(dst, "Infinity"...)
	case math.IsInf(f, -1):
		return append(dst, "-Infinity"...)
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, f, 'g', -1, 64)
	for _, c := range dst[start:] {
		if c == '.' || c == 'e' {
			return dst
		}
	}
	return append(dst, ".0"...)
}

const hexDigits = "0123456789abcdef"

func appendQuoted(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		default:
			if c < 0x20 {
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
				continue
			}
			if c < utf8.RuneSelf {
				dst = append(dst, c)
				continue
			}
			// Invalid UTF-8 bytes become U+FFFD so the output is always valid text.
			r, size := utf8.DecodeRuneInString(s[i:])
			if r == utf8.RuneError && size == 1 {
				dst = append(dst, `\ufffd`...)
				continue
			}
			dst = append(dst, s[i:i+size]...)
			i += size - 1
		}
	}
	return append(dst, '"')
}

// =============================================================================
// Size estimation
// =============================================================================

// EncodedSize reports the exact number of bytes Encode(v) produces, without
// building the output. Transports use it to size parameter buffers up front.
func EncodedSize(v Value) int {
	switch val := v.(type) {
	case nil, Null:
		return len("null")
	case Bool:
		if val {
			return len("true")
		}
		return len("false")
	case Int:
		var scratch [24]byte
		return len(strconv.AppendInt(scratch[:0], int64(val), 10))
	case Float:
		var scratch [40]byte
		return len(appendFloat(scratch[:0], float64(val)))
	case String:
		return quotedSize(string(val))
	case List:
		return listSize(val)
	case Map:
		return mapSize(val)
	case Vertex:
		n := len(`{"id": `) + idSize(val.ID) +
			len(`, "label": `) + quotedSize(val.Label) +
			len(`, "properties": `) + mapSize(val.Properties) + 1
		return n + len(VertexSuffix)
	case Edge:
		n := len(`{"id": `) + idSize(val.ID) +
			len(`, "label": `) + quotedSize(val.Label) +
			len(`, "end_id": `) + idSize(val.EndID) +
			len(`, "start_id": `) + idSize(val.StartID) +
			len(`, "properties": `) + mapSize(val.Properties) + 1
		return n + len(EdgeSuffix)
	case Path:
		n := 2 + len(PathSuffix)
		for _, vx := range val.vertices {
			n += EncodedSize(vx)
		}
		for _, e := range val.edges {
			n += EncodedSize(e)
		}
		if elems := len(val.vertices) + len(val.edges); elems > 1 {
			n += 2 * (elems - 1)
		}
		return n
	}
	panic("agtype: unknown value type")
}

func listSize(l List) int {
	n := 2
	for i, elem := range l {
		if i > 0 {
			n += 2
		}
		n += EncodedSize(elem)
	}
	return n
}

func mapSize(m Map) int {
	n := 2
	i := 0
	for k, v := range m {
		if i > 0 {
			n += 2
		}
		n += quotedSize(k) + 2 + EncodedSize(v)
		i++
	}
	return n
}

// idSize matches the signed rendering AGE uses for graphid.
func idSize(id GraphID) int {
	var scratch [24]byte
	return len(strconv.AppendInt(scratch[:0], int64(id), 10))
}

func quotedSize(s string) int {
	n := 2
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\', '\n', '\r', '\t', '\b', '\f':
			n += 2
		default:
			switch {
			case c < 0x20:
				n += 6
			case c < utf8.RuneSelf:
				n++
			default:
				r, size := utf8.DecodeRuneInString(s[i:])
				if r == utf8.RuneError && size == 1 {
					n += 6
					continue
				}
				n += size
				i += size - 1
			}
		}
	}
	return n
}
