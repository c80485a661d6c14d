// Package cypher - String-based keyword and parameter scanning.
//
// These helpers replace regular expressions on the hot path: every query
// passed to the client is scanned once for its RETURN clause and once for
// parameter references. All offsets are byte offsets into the input.
package cypher

import "strings"

// isWordChar returns true if c is a word character (alphanumeric or underscore)
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_'
}

// =============================================================================
// Keyword Index Finding
// =============================================================================

// FindKeywordIndex finds the position of a keyword in a query (case-insensitive).
// Returns -1 if not found. Respects word boundaries and skips keywords that
// appear inside quoted string literals or right after ':' (labels).
//
// Example:
//
//	FindKeywordIndex("MATCH (n {note: 'return'}) RETURN n", "RETURN")
//	// Returns: 27
func FindKeywordIndex(s, keyword string) int {
	if s == "" || keyword == "" {
		return -1
	}
	return findKeywordIndex(s, keyword)
}

// ContainsKeyword checks if a query contains a keyword (case-insensitive).
// Respects word boundaries and ignores string literal contents.
func ContainsKeyword(s, keyword string) bool {
	return FindKeywordIndex(s, keyword) >= 0
}

// ContainsAnyKeyword reports whether any of the keywords occurs in s.
func ContainsAnyKeyword(s string, keywords ...string) bool {
	if s == "" {
		return false
	}
	mask := makeStringLiteralMask(s)
	for _, kw := range keywords {
		if findKeywordIndexFrom(s, kw, 0, mask) >= 0 {
			return true
		}
	}
	return false
}

// =============================================================================
// Parameter Extraction
// =============================================================================

// ExtractParameters finds all parameter references ($name) in a query string.
// Returns the parameter names (without the $ prefix) in order of first
// appearance, without duplicates. References inside string literals are
// ignored.
//
// Example:
//
//	ExtractParameters("MATCH (n) WHERE n.name = $name AND n.age > $minAge")
//	// Returns: ["name", "minAge"]
func ExtractParameters(query string) []string {
	var params []string
	seen := make(map[string]bool)
	mask := makeStringLiteralMask(query)

	i := 0
	for i < len(query) {
		if query[i] != '$' || mask[i] {
			i++
			continue
		}

		// Check if there's a valid identifier after $
		start := i + 1
		if start >= len(query) {
			break
		}

		// First character must be letter or underscore
		first := query[start]
		if !((first >= 'a' && first <= 'z') || (first >= 'A' && first <= 'Z') || first == '_') {
			i = start
			continue
		}

		// Find end of identifier
		end := start + 1
		for end < len(query) && isWordChar(query[end]) {
			end++
		}

		name := query[start:end]
		if !seen[name] {
			seen[name] = true
			params = append(params, name)
		}
		i = end
	}
	return params
}

// SplitByKeyword splits s around every occurrence of keyword found by
// FindKeywordIndex. Parts are trimmed; empty parts are dropped.
//
// Example:
//
//	SplitByKeyword("RETURN 1 UNION RETURN 'a UNION b'", "UNION")
//	// Returns: ["RETURN 1", "RETURN 'a UNION b'"]
func SplitByKeyword(s, keyword string) []string {
	if s == "" {
		return nil
	}
	mask := makeStringLiteralMask(s)
	var parts []string
	start := 0
	for {
		idx := findKeywordIndexFrom(s, keyword, start, mask)
		if idx < 0 {
			break
		}
		if part := strings.TrimSpace(s[start:idx]); part != "" {
			parts = append(parts, part)
		}
		start = idx + len(keyword)
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}
