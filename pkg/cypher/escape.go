package cypher

import "strings"

// EscapeCypher prepares query text for embedding between the $$ delimiters of
// an ag_catalog.cypher() call: every backslash that is not immediately
// followed by a single quote is doubled.
//
// Example:
//
//	EscapeCypher(`RETURN 'a\nb', 'it\'s'`)
//	// Returns: `RETURN 'a\\nb', 'it\'s'`
func EscapeCypher(query string) string {
	if strings.IndexByte(query, '\\') < 0 {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		b.WriteByte(c)
		if c == '\\' && (i+1 >= len(query) || query[i+1] != '\'') {
			b.WriteByte('\\')
		}
	}
	return b.String()
}
