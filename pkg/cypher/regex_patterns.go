// Package cypher - Pre-compiled regex patterns for projection naming.
//
// Patterns used for every projected expression are compiled once at package
// init time instead of per call.
package cypher

import "regexp"

// =============================================================================
// Projection Naming Patterns
// =============================================================================

var (
	// Function call anywhere in the expression: count(n), toUpper(n.name)
	functionCallPattern = regexp.MustCompile(`\w+\(.*\)`)

	// First identifier-like token, used as the function name
	firstWordPattern = regexp.MustCompile(`\w+`)

	// Bracket accessor with a single-quoted key: n['name']
	bracketKeyPattern = regexp.MustCompile(`\['(.*?)'\]`)

	// Leading identifier of an alias
	aliasWordPattern = regexp.MustCompile(`^\w+`)
)
