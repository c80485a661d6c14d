package cypher

import (
	"strings"
	"unicode/utf8"
)

// ========================================
// Keyword Detection Functions
// ========================================

// isWordBoundary checks if a byte is a word boundary (not alphanumeric or underscore).
// Bytes of multi-byte UTF-8 sequences count as word characters.
func isWordBoundary(c byte) bool {
	return !isWordChar(c) && c < utf8.RuneSelf
}

// isLeftKeywordBoundary checks if a byte can precede a keyword
// Colon is excluded because it precedes labels in Cypher (e.g., :Return)
func isLeftKeywordBoundary(c byte) bool {
	if c == ':' {
		return false // Colon precedes labels, not keywords
	}
	return isWordBoundary(c)
}

// hasPrefixFold reports whether s has the ASCII keyword at offset i,
// ignoring ASCII case.
func hasPrefixFold(s string, i int, keyword string) bool {
	if i+len(keyword) > len(s) {
		return false
	}
	for j := 0; j < len(keyword); j++ {
		a, b := s[i+j], keyword[j]
		if 'a' <= a && a <= 'z' {
			a -= 'a' - 'A'
		}
		if 'a' <= b && b <= 'z' {
			b -= 'a' - 'A'
		}
		if a != b {
			return false
		}
	}
	return true
}

// keywordAt reports whether keyword occurs at offset i with word boundaries
// on both sides.
func keywordAt(s string, i int, keyword string) bool {
	if !hasPrefixFold(s, i, keyword) {
		return false
	}
	if i > 0 && !isLeftKeywordBoundary(s[i-1]) {
		return false
	}
	end := i + len(keyword)
	return end >= len(s) || isWordBoundary(s[end])
}

// findKeywordIndexFrom finds a keyword at word boundaries in s, starting the
// search at byte offset from. Positions marked in mask are skipped; pass nil
// to search the whole string. Keywords are ASCII, so offsets are byte offsets
// into s itself.
// Returns -1 if not found.
func findKeywordIndexFrom(s, keyword string, from int, mask []bool) int {
	if keyword == "" {
		return -1
	}
	for i := from; i+len(keyword) <= len(s); i++ {
		if i < len(mask) && mask[i] {
			continue
		}
		if keywordAt(s, i, keyword) {
			return i
		}
	}
	return -1
}

// findKeywordIndex finds a keyword at word boundaries, ignoring occurrences
// inside string literals.
func findKeywordIndex(s, keyword string) int {
	return findKeywordIndexFrom(s, keyword, 0, makeStringLiteralMask(s))
}

// containsKeywordOutsideStrings checks if a keyword exists in the string but NOT inside
// string literals. This prevents matching keywords inside user data content.
func containsKeywordOutsideStrings(s, keyword string) bool {
	return findKeywordIndex(s, keyword) != -1
}

// makeStringLiteralMask creates a boolean slice where true means that position
// is inside a string literal (single or double quoted), quotes included.
// Backslash escapes are honoured inside literals only. An unterminated literal
// masks the rest of the input.
func makeStringLiteralMask(s string) []bool {
	mask := make([]bool, len(s))
	inString := false
	stringChar := byte(0)

	for i := 0; i < len(s); i++ {
		c := s[i]

		if inString {
			mask[i] = true
			switch {
			case c == '\\' && i+1 < len(s):
				// Skip the escaped character
				mask[i+1] = true
				i++
			case c == stringChar:
				inString = false
				stringChar = 0
			}
			continue
		}

		if c == '\'' || c == '"' {
			inString = true
			stringChar = c
			mask[i] = true
		}
	}

	return mask
}

// placeholderByte replaces every masked byte. It is a word character, so a
// literal reads as one opaque identifier to the keyword search.
const placeholderByte = '_'

// maskStringLiterals returns s with every string literal overwritten by
// placeholder bytes. The result has exactly the same length as s, so any
// span found in it addresses the same text in s.
func maskStringLiterals(s string) string {
	mask := makeStringLiteralMask(s)
	var b []byte
	for i, m := range mask {
		if !m {
			continue
		}
		if b == nil {
			b = []byte(s)
		}
		b[i] = placeholderByte
	}
	if b == nil {
		return s
	}
	return string(b)
}

// normalizeLineBreaks turns CR and LF into spaces, byte for byte.
func normalizeLineBreaks(s string) string {
	if strings.IndexAny(s, "\r\n") < 0 {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, s)
}
