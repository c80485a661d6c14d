package age

import (
	"strings"
	"testing"

	"github.com/orneryd/agego/pkg/agtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCypherCommand(t *testing.T) {
	tests := []struct {
		name   string
		graph  string
		query  string
		params agtype.Value
		text   string
		args   []any
	}{
		{
			name:  "no parameters",
			graph: "social",
			query: "MATCH (n) RETURN n.name, n.age",
			text:  "SELECT * FROM ag_catalog.cypher('social', $$ MATCH (n) RETURN n.name, n.age $$) as (name agtype, age agtype);",
		},
		{
			name:   "null parameters",
			graph:  "social",
			query:  "RETURN 1",
			params: agtype.Null{},
			text:   "SELECT * FROM ag_catalog.cypher('social', $$ RETURN 1 $$) as (num agtype);",
		},
		{
			name:   "map parameters",
			graph:  "social",
			query:  "MATCH (n:Person) WHERE n.age > $min RETURN n",
			params: agtype.Map{"min": agtype.Int(21), "tag": agtype.String("x")},
			text:   "SELECT * FROM ag_catalog.cypher('social', $$ MATCH (n:Person) WHERE n.age > $min RETURN n $$, $1) as (n agtype);",
			args:   []any{`{"min": 21, "tag": "x"}`},
		},
		{
			name:   "empty map still binds",
			graph:  "g",
			query:  "RETURN $x",
			params: agtype.Map{},
			text:   "SELECT * FROM ag_catalog.cypher('g', $$ RETURN $x $$, $1) as (_x agtype);",
			args:   []any{`{}`},
		},
		{
			name:  "no return clause",
			graph: "g",
			query: "CREATE (n:Person {name: 'Alice'})",
			text:  "SELECT * FROM ag_catalog.cypher('g', $$ CREATE (n:Person {name: 'Alice'}) $$) as (result agtype);",
		},
		{
			name:  "backslashes escaped",
			graph: "g",
			query: `RETURN 'a\nb' AS s`,
			text:  `SELECT * FROM ag_catalog.cypher('g', $$ RETURN 'a\\nb' AS s $$) as (s agtype);`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := CypherCommand(tt.graph, tt.query, tt.params)
			require.NoError(t, err)
			assert.Equal(t, KindCypher, cmd.Kind)
			assert.Equal(t, tt.text, cmd.Text)
			assert.Equal(t, tt.args, cmd.Args)
		})
	}
}

func TestCypherCommand_Columns(t *testing.T) {
	cmd, err := CypherCommand("g", "MATCH (n) RETURN n.Name, count(n) AS total", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "total"}, cmd.ColumnNames())
	assert.True(t, cmd.Columns[0].Quoted)
	assert.True(t, strings.HasSuffix(cmd.Text, `as ("Name" agtype, total agtype);`))
}

func TestCypherCommand_Errors(t *testing.T) {
	t.Run("invalid graph name", func(t *testing.T) {
		for _, name := range []string{"", "1graph", "my-graph", "g'); DROP TABLE x; --", strings.Repeat("a", 64)} {
			_, err := CypherCommand(name, "RETURN 1", nil)
			assert.ErrorIs(t, err, ErrInvalidGraphName, name)
		}
	})

	t.Run("dollar quote", func(t *testing.T) {
		_, err := CypherCommand("g", "RETURN '$$'", nil)
		assert.ErrorIs(t, err, ErrDollarQuote)
	})

	t.Run("non-map parameters", func(t *testing.T) {
		_, err := CypherCommand("g", "RETURN 1", agtype.List{agtype.Int(1)})
		assert.ErrorIs(t, err, ErrInvalidParameters)
	})
}

func TestCypherCommandWithParams(t *testing.T) {
	cmd, err := CypherCommandWithParams("g", "MATCH (n) WHERE n.name = $name RETURN n",
		map[string]any{"name": "Alice", "ages": []int{1, 2}, "score": 1.5, "none": nil})
	require.NoError(t, err)
	require.Len(t, cmd.Args, 1)
	assert.Equal(t, `{"ages": [1, 2], "name": "Alice", "none": null, "score": 1.5}`, cmd.Args[0])

	cmd, err = CypherCommandWithParams("g", "RETURN 1", nil)
	require.NoError(t, err)
	assert.Nil(t, cmd.Args)
	assert.NotContains(t, cmd.Text, "$1")

	_, err = CypherCommandWithParams("g", "RETURN 1", map[string]any{"ch": make(chan int)})
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestGraphCommands(t *testing.T) {
	create, err := CreateGraphCommand("social")
	require.NoError(t, err)
	assert.Equal(t, KindCreateGraph, create.Kind)
	assert.Equal(t, "SELECT * FROM ag_catalog.create_graph($1);", create.Text)
	assert.Equal(t, []any{"social"}, create.Args)

	drop, err := DropGraphCommand("social", true)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM ag_catalog.drop_graph($1, true);", drop.Text)

	drop, err = DropGraphCommand("social", false)
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM ag_catalog.drop_graph($1, false);", drop.Text)

	exists, err := GraphExistsCommand("social")
	require.NoError(t, err)
	assert.Equal(t, "SELECT EXISTS (SELECT 1 FROM ag_catalog.ag_graph WHERE name = $1);", exists.Text)
	assert.Equal(t, []any{"social"}, exists.Args)

	for _, build := range []func(string) (Command, error){
		CreateGraphCommand,
		GraphExistsCommand,
		func(g string) (Command, error) { return DropGraphCommand(g, true) },
	} {
		_, err := build("bad name")
		assert.ErrorIs(t, err, ErrInvalidGraphName)
	}
}

func TestValidateGraphName(t *testing.T) {
	for _, name := range []string{"g", "social_graph", "_tmp", "G2", strings.Repeat("a", 63)} {
		assert.NoError(t, ValidateGraphName(name), name)
	}
}

func BenchmarkCypherCommand(b *testing.B) {
	params := agtype.Map{"min": agtype.Int(21)}
	query := "MATCH (n:Person) WHERE n.age > $min RETURN n.name, n.age AS age ORDER BY n.name"
	for i := 0; i < b.N; i++ {
		CypherCommand("social", query, params)
	}
}
