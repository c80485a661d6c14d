// Package age assembles Apache AGE commands and runs them against PostgreSQL.
//
// A Cypher query cannot be sent to AGE directly. It travels inside a SQL call
// to ag_catalog.cypher(), which needs the query text between $$ delimiters and
// an explicit column definition list for the result:
//
//	SELECT * FROM ag_catalog.cypher('social', $$ MATCH (n) RETURN n.name $$) as (name agtype);
//
// CypherCommand builds that statement, deriving the column list from the
// query's RETURN clause with the projection synthesizer in pkg/cypher. Query
// parameters are sent as one agtype map bound to $1, which the query reads as
// $name.
//
// Client executes commands through an Executor (normally *sql.DB via
// NewSQLExecutor) and decodes every agtype column into agtype.Value.
package age

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/orneryd/agego/pkg/agtype"
	"github.com/orneryd/agego/pkg/cypher"
)

// Errors returned by the command builders.
var (
	ErrInvalidGraphName  = errors.New("age: invalid graph name")
	ErrDollarQuote       = errors.New("age: query contains the $$ delimiter")
	ErrInvalidParameters = errors.New("age: parameters must be an agtype map")
)

// maxGraphNameLen is PostgreSQL's NAMEDATALEN-1.
const maxGraphNameLen = 63

var graphNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CommandKind identifies what a Command does.
type CommandKind string

const (
	KindCypher      CommandKind = "cypher"
	KindCreateGraph CommandKind = "create_graph"
	KindDropGraph   CommandKind = "drop_graph"
	KindGraphExists CommandKind = "graph_exists"
)

// Command is a ready-to-execute SQL statement with its bound arguments.
type Command struct {
	Kind CommandKind
	// Text is the SQL statement.
	Text string
	// Args holds the positional arguments ($1, ...).
	Args []any
	// Columns is the declared result shape. Only set for Cypher commands.
	Columns []cypher.Column
}

// ColumnNames returns the unquoted names of the declared columns.
func (c Command) ColumnNames() []string {
	names := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		names[i] = col.Name
	}
	return names
}

// ValidateGraphName checks that name is usable as an AGE graph name.
// Graph names are embedded in command text, so only plain identifiers are
// accepted.
func ValidateGraphName(name string) error {
	if len(name) > maxGraphNameLen || !graphNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidGraphName, name)
	}
	return nil
}

// CypherCommand assembles the SQL statement that runs query against graph.
//
// params may be nil (or agtype.Null) for a query without parameters;
// otherwise it must be an agtype.Map and is bound as $1.
//
// Example:
//
//	cmd, err := age.CypherCommand("social",
//		"MATCH (n:Person) WHERE n.age > $min RETURN n.name, n.age",
//		agtype.Map{"min": agtype.Int(21)})
//	// cmd.Text:
//	// SELECT * FROM ag_catalog.cypher('social', $$ MATCH (n:Person) WHERE n.age > $min RETURN n.name, n.age $$, $1) as (name agtype, age agtype);
//	// cmd.Args: [`{"min": 21}`]
func CypherCommand(graph, query string, params agtype.Value) (Command, error) {
	return CypherCommandWithPlan(graph, query, cypher.NewPlan(query), params)
}

// CypherCommandWithPlan is CypherCommand with a precomputed plan, as returned
// by a Planner.
func CypherCommandWithPlan(graph, query string, plan cypher.Plan, params agtype.Value) (Command, error) {
	if err := ValidateGraphName(graph); err != nil {
		return Command{}, err
	}

	body := cypher.EscapeCypher(query)
	if strings.Contains(body, "$$") {
		return Command{}, ErrDollarQuote
	}

	var arg string
	hasParams := false
	switch p := params.(type) {
	case nil, agtype.Null:
	case agtype.Map:
		arg = agtype.EncodeString(p)
		hasParams = true
	default:
		return Command{}, fmt.Errorf("%w: got %s", ErrInvalidParameters, params.Kind())
	}

	var b strings.Builder
	b.Grow(len(body) + len(graph) + len(plan.Declaration) + 64)
	b.WriteString("SELECT * FROM ag_catalog.cypher('")
	b.WriteString(graph)
	b.WriteString("', $$ ")
	b.WriteString(body)
	b.WriteString(" $$")
	if hasParams {
		b.WriteString(", $1")
	}
	b.WriteString(") as ")
	b.WriteString(plan.Declaration)
	b.WriteByte(';')

	cmd := Command{
		Kind:    KindCypher,
		Text:    b.String(),
		Columns: plan.Columns,
	}
	if hasParams {
		cmd.Args = []any{arg}
	}
	return cmd, nil
}

// CypherCommandWithParams converts a Go parameter map with agtype.FromNative
// and assembles the command. A nil or empty map means no parameters.
func CypherCommandWithParams(graph, query string, params map[string]any) (Command, error) {
	value, err := paramsValue(params)
	if err != nil {
		return Command{}, err
	}
	return CypherCommand(graph, query, value)
}

// paramsValue converts Go parameters into the agtype map bound as $1.
func paramsValue(params map[string]any) (agtype.Value, error) {
	if len(params) == 0 {
		return nil, nil
	}
	value, err := agtype.FromNative(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidParameters, err)
	}
	return value, nil
}

// CreateGraphCommand creates graph via ag_catalog.create_graph.
func CreateGraphCommand(graph string) (Command, error) {
	if err := ValidateGraphName(graph); err != nil {
		return Command{}, err
	}
	return Command{
		Kind: KindCreateGraph,
		Text: "SELECT * FROM ag_catalog.create_graph($1);",
		Args: []any{graph},
	}, nil
}

// DropGraphCommand drops graph via ag_catalog.drop_graph. With cascade the
// graph's labels and data are dropped too; without it AGE refuses to drop a
// graph that still has labels.
func DropGraphCommand(graph string, cascade bool) (Command, error) {
	if err := ValidateGraphName(graph); err != nil {
		return Command{}, err
	}
	text := "SELECT * FROM ag_catalog.drop_graph($1, false);"
	if cascade {
		text = "SELECT * FROM ag_catalog.drop_graph($1, true);"
	}
	return Command{
		Kind: KindDropGraph,
		Text: text,
		Args: []any{graph},
	}, nil
}

// GraphExistsCommand returns a single boolean row telling whether graph
// exists.
func GraphExistsCommand(graph string) (Command, error) {
	if err := ValidateGraphName(graph); err != nil {
		return Command{}, err
	}
	return Command{
		Kind: KindGraphExists,
		Text: "SELECT EXISTS (SELECT 1 FROM ag_catalog.ag_graph WHERE name = $1);",
		Args: []any{graph},
	}, nil
}
