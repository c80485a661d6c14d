// Package cypher derives result shapes from Cypher query text.
//
// Apache AGE executes Cypher through the SQL function ag_catalog.cypher(),
// and PostgreSQL requires every set-returning function call to declare its
// output columns up front:
//
//	SELECT * FROM ag_catalog.cypher('g', $$ MATCH (n) RETURN n.name $$) AS (name agtype);
//
// Cypher exposes no metadata API for that shape, so this package reads it off
// the query text. It locates the final top-level RETURN clause, splits it into
// projected expressions and names each one:
//
//	cypher.GenerateAsPart("MATCH (n) RETURN n.name, count(n)")
//	// → (name agtype, count agtype)
//
// This is a heuristic, not a parser. When no usable RETURN clause is found the
// declaration falls back to a single column:
//
//	cypher.GenerateAsPart("CREATE (n:Person)")
//	// → (result agtype)
//
// All functions are pure and safe for concurrent use.
package cypher

import (
	"strconv"
	"strings"
	"unicode"
)

// ValueType is the SQL type declared for every projected column.
const ValueType = "agtype"

// FallbackColumn names the single column declared when no projection is found.
const FallbackColumn = "result"

// numericColumn names every column projected from a bare number literal.
const numericColumn = "num"

var (
	// Keywords that end a RETURN clause.
	clauseTerminators = []string{"RETURN", "LIMIT", "SKIP", "ORDER"}

	// Keywords that cannot appear in a real projection. Finding one means the
	// word "return" was matched somewhere other than a RETURN clause.
	writeKeywords = []string{"CREATE", "MATCH", "SET", "WITH", "REMOVE", "DELETE"}
)

// Column is one declared output column.
type Column struct {
	// Name is the column name without quotes.
	Name string `json:"name"`
	// Quoted reports whether Name must be written as a quoted identifier.
	Quoted bool `json:"quoted,omitempty"`
}

// Identifier returns the name as it appears in SQL, quoted when required.
func (c Column) Identifier() string {
	if !c.Quoted {
		return c.Name
	}
	return `"` + strings.ReplaceAll(c.Name, `"`, `""`) + `"`
}

// Declaration returns "<identifier> agtype".
func (c Column) Declaration() string {
	return c.Identifier() + " " + ValueType
}

// FormatColumns joins column declarations into the parenthesized list used
// after AS.
func FormatColumns(cols []Column) string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range cols {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Declaration())
	}
	b.WriteByte(')')
	return b.String()
}

// Plan is the synthesized result shape of one query.
type Plan struct {
	// Clause is the located RETURN clause, or "" when the fallback applied.
	Clause string `json:"clause,omitempty"`
	// Columns lists the declared columns in projection order.
	Columns []Column `json:"columns"`
	// Declaration is FormatColumns(Columns).
	Declaration string `json:"declaration"`
}

// Fallback reports whether the plan is the single-column fallback.
func (p Plan) Fallback() bool {
	return p.Clause == ""
}

// ColumnNames returns the unquoted column names.
func (p Plan) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}

// NewPlan synthesizes the result shape of query.
func NewPlan(query string) Plan {
	clause, ok := ReturnClause(query)
	if !ok {
		cols := []Column{{Name: FallbackColumn}}
		return Plan{Columns: cols, Declaration: FormatColumns(cols)}
	}
	cols := projectClause(clause)
	return Plan{Clause: clause, Columns: cols, Declaration: FormatColumns(cols)}
}

// GenerateAsPart returns the column declaration for query, for example
// "(name agtype, age agtype)". It never fails; see the package documentation
// for the fallback.
func GenerateAsPart(query string) string {
	return NewPlan(query).Declaration
}

// ProjectColumns returns the declared columns for query.
func ProjectColumns(query string) []Column {
	return NewPlan(query).Columns
}

// =============================================================================
// Clause location
// =============================================================================

// ReturnClause locates the final RETURN clause of query and returns its
// projection list, trimmed. The clause runs up to the next RETURN, LIMIT, SKIP
// or ORDER keyword or the end of the text. String literal contents never
// match a keyword.
//
// ok is false when there is no RETURN clause, when the clause is empty, or
// when it contains a write or pattern keyword (CREATE, MATCH, SET, WITH,
// REMOVE, DELETE), which means the RETURN found was not a real projection.
func ReturnClause(query string) (clause string, ok bool) {
	text := normalizeLineBreaks(query)
	masked := maskStringLiterals(text)

	start, end, found := locateReturnClause(masked)
	if !found {
		return "", false
	}

	if ContainsAnyKeyword(masked[start:end], writeKeywords...) {
		return "", false
	}

	// masked and text have identical offsets, so the span maps back directly.
	clause = strings.TrimSpace(text[start:end])
	if clause == "" {
		return "", false
	}
	return clause, true
}

// locateReturnClause finds the span of the last RETURN clause in masked text.
func locateReturnClause(masked string) (start, end int, ok bool) {
	pos := -1
	for i := len(masked) - len("RETURN"); i >= 0; i-- {
		if !keywordAt(masked, i, "RETURN") {
			continue
		}
		after := i + len("RETURN")
		if after < len(masked) && isSpace(masked[after]) {
			pos = i
			break
		}
	}
	if pos < 0 {
		return 0, 0, false
	}

	start = pos + len("RETURN")
	for start < len(masked) && isSpace(masked[start]) {
		start++
	}

	end = len(masked)
	for j := start; j < len(masked); j++ {
		// Terminators must follow whitespace so that properties such as
		// n.order or n.limit stay inside the clause.
		if !isSpace(masked[j-1]) {
			continue
		}
		if terminatorAt(masked, j) {
			end = j
			break
		}
	}
	return start, end, true
}

func terminatorAt(s string, i int) bool {
	for _, kw := range clauseTerminators {
		if keywordAt(s, i, kw) {
			return true
		}
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// =============================================================================
// Projection splitting
// =============================================================================

// SplitReturnValues splits a projection list on top-level commas. Commas
// nested in {}, [] or () and commas inside string literals do not split.
// Each element is trimmed. A trailing empty element is dropped; empty
// elements elsewhere are kept.
//
// Example:
//
//	SplitReturnValues("n.name, {a: 1, b: 2}, count(x, y)")
//	// Returns: ["n.name", "{a: 1, b: 2}", "count(x, y)"]
func SplitReturnValues(clause string) []string {
	masked := maskStringLiterals(clause)
	spans := splitSpans(masked)
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = strings.TrimSpace(clause[sp[0]:sp[1]])
	}
	return out
}

// splitSpans returns the [start, end) spans of the top-level comma-separated
// elements of masked text.
func splitSpans(masked string) [][2]int {
	var (
		spans                   [][2]int
		braces, brackets, parens int
		start                   int
	)
	for i := 0; i < len(masked); i++ {
		switch masked[i] {
		case ',':
			if braces == 0 && brackets == 0 && parens == 0 {
				spans = append(spans, [2]int{start, i})
				start = i + 1
			}
		case '{':
			braces++
		case '}':
			braces--
		case '[':
			brackets++
		case ']':
			brackets--
		case '(':
			parens++
		case ')':
			parens--
		}
	}
	if start < len(masked) {
		spans = append(spans, [2]int{start, len(masked)})
	}
	return spans
}

// =============================================================================
// Column naming
// =============================================================================

// projectClause names every expression of a located clause.
func projectClause(clause string) []Column {
	masked := maskStringLiterals(clause)
	spans := splitSpans(masked)

	seen := make(map[string]int, len(spans))
	cols := make([]Column, 0, len(spans))
	for _, sp := range spans {
		raw := clause[sp[0]:sp[1]]
		lead := len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
		expr := strings.TrimSpace(raw)
		exprMasked := masked[sp[0]+lead : sp[0]+lead+len(expr)]

		name, accessor := expressionName(expr, exprMasked)
		sanitized := SanitizeName(name)

		if n, dup := seen[sanitized]; dup {
			n++
			seen[sanitized] = n
			sanitized += strconv.Itoa(n)
		} else {
			seen[sanitized] = 0
		}

		switch {
		case accessor:
			// Bracket accessors quote the unsanitized name and drop the
			// duplicate suffix.
			cols = append(cols, Column{Name: name, Quoted: true})
		case hasUpper(sanitized) || strings.HasPrefix(sanitized, "$"):
			cols = append(cols, Column{Name: sanitized, Quoted: true})
		default:
			cols = append(cols, Column{Name: sanitized})
		}
	}
	return cols
}

// expressionName derives the unsanitized column name of one projected
// expression. accessor reports whether the expression uses bracket syntax
// and so must be quoted verbatim.
func expressionName(expr, masked string) (name string, accessor bool) {
	// Object and array literals: alias or "result".
	if strings.HasPrefix(expr, "{") || strings.HasPrefix(expr, "[") {
		if at := aliasIndex(masked); at >= 0 {
			if w := aliasWordPattern.FindString(expr[at:]); w != "" {
				return w, false
			}
		}
		return FallbackColumn, false
	}

	if isNumberLiteral(expr) {
		return numericColumn, false
	}

	accessor = strings.Contains(expr, "[")

	if at := aliasIndex(masked); at >= 0 {
		return expr[at:], accessor
	}

	switch {
	case functionCallPattern.MatchString(expr):
		name = firstWordPattern.FindString(expr)
	case strings.Contains(expr, "."):
		name = expr[strings.LastIndexByte(expr, '.')+1:]
	case strings.Contains(expr, "["):
		name = expr
		if m := bracketKeyPattern.FindStringSubmatch(expr); m != nil {
			name = m[1]
		}
	default:
		name = expr
	}
	return strings.Trim(name, "`"), accessor
}

// aliasIndex returns the offset of the alias following the last top-level
// "<space>AS<space>" in masked, or -1.
func aliasIndex(masked string) int {
	at := -1
	depth := 0
	for i := 0; i < len(masked); i++ {
		switch c := masked[i]; {
		case c == '{' || c == '[' || c == '(':
			depth++
			continue
		case c == '}' || c == ']' || c == ')':
			depth--
			continue
		case depth != 0 || !isSpace(c):
			continue
		}

		j := i
		for j < len(masked) && isSpace(masked[j]) {
			j++
		}
		if hasPrefixFold(masked, j, "AS") && j+2 < len(masked) && isSpace(masked[j+2]) {
			k := j + 2
			for k < len(masked) && isSpace(masked[k]) {
				k++
			}
			if k < len(masked) {
				at = k
			}
			i = k - 1
			continue
		}
		i = j - 1
	}
	return at
}

// isNumberLiteral reports whether expr is entirely an integer or float
// literal. Identifiers such as inf or nan are not numbers.
func isNumberLiteral(expr string) bool {
	if expr == "" {
		return false
	}
	switch c := expr[0]; {
	case c >= '0' && c <= '9', c == '-', c == '+', c == '.':
	default:
		return false
	}
	if _, err := strconv.ParseInt(expr, 10, 64); err == nil {
		return true
	}
	_, err := strconv.ParseFloat(expr, 64)
	if err == nil {
		return true
	}
	// Out-of-range literals are still numbers.
	if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
		return true
	}
	return false
}

// SanitizeName replaces every rune that is not a letter, digit or underscore
// with '_'. It is idempotent.
func SanitizeName(name string) string {
	clean := true
	for _, r := range name {
		if !isNameRune(r) {
			clean = false
			break
		}
	}
	if clean {
		return name
	}
	return strings.Map(func(r rune) rune {
		if isNameRune(r) {
			return r
		}
		return '_'
	}, name)
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
