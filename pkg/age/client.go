package age

import (
	"context"
	"fmt"
	"time"

	"github.com/orneryd/agego/pkg/agtype"
	"github.com/orneryd/agego/pkg/cypher"
	"github.com/orneryd/agego/pkg/pool"
	"github.com/sirupsen/logrus"
)

// Rows is the row cursor an Executor returns. *sql.Rows satisfies it.
type Rows interface {
	Columns() ([]string, error)
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Executor runs SQL text with positional arguments. See NewSQLExecutor for
// the database/sql implementation.
type Executor interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
}

// Result holds the decoded rows of one Cypher call.
type Result struct {
	// Columns are the result column names in declaration order.
	Columns []string
	// Rows holds one Value per column. SQL NULL decodes to agtype.Null.
	Rows [][]agtype.Value
}

// Len returns the number of rows.
func (r *Result) Len() int {
	return len(r.Rows)
}

// ColumnIndex returns the position of the named column, or -1.
func (r *Result) ColumnIndex(name string) int {
	for i, c := range r.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Get returns the value of column name in row i.
func (r *Result) Get(i int, name string) (agtype.Value, bool) {
	col := r.ColumnIndex(name)
	if col < 0 || i < 0 || i >= len(r.Rows) {
		return nil, false
	}
	return r.Rows[i][col], true
}

// Records returns every row as a column-name keyed map of plain Go values
// (see agtype.ToNative).
func (r *Result) Records() []map[string]any {
	out := make([]map[string]any, len(r.Rows))
	for i, row := range r.Rows {
		rec := make(map[string]any, len(r.Columns))
		for j, v := range row {
			if j < len(r.Columns) {
				rec[r.Columns[j]] = agtype.ToNative(v)
			}
		}
		out[i] = rec
	}
	return out
}

// Client runs Cypher queries and graph administration against AGE.
//
// Example:
//
//	db, err := age.OpenDB(ctx, age.DBOptions{DSN: dsn, LoadExtension: true})
//	if err != nil {
//		return err
//	}
//	client := age.NewClient(age.NewSQLExecutor(db))
//
//	res, err := client.Cypher(ctx, "social",
//		"MATCH (p:Person) WHERE p.age > $min RETURN p.name, p.age",
//		map[string]any{"min": 21})
//	for i := range res.Rows {
//		name, _ := res.Get(i, "name")
//		fmt.Println(name)
//	}
//
// A Client is safe for concurrent use when its Executor is.
type Client struct {
	exec     Executor
	planner  *Planner
	envelope agtype.Envelope
	metrics  *Metrics
	log      *logrus.Entry
}

// Option configures a Client.
type Option func(*Client)

// WithPlanner makes the client look plans up through p instead of
// synthesizing them on every call.
func WithPlanner(p *Planner) Option {
	return func(c *Client) { c.planner = p }
}

// WithEnvelope sets the envelope used to unwrap result columns.
func WithEnvelope(e agtype.Envelope) Option {
	return func(c *Client) { c.envelope = e }
}

// WithMetrics records client and planner activity in m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger used by the client.
func WithLogger(l *logrus.Logger) Option {
	return func(c *Client) { c.log = l.WithField("component", "AgeClient") }
}

// NewClient creates a client executing through exec.
func NewClient(exec Executor, opts ...Option) *Client {
	c := &Client{
		exec:     exec,
		envelope: agtype.EnvelopeText,
		log:      logrus.WithField("component", "AgeClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.planner != nil {
		if c.planner.metrics == nil {
			c.planner.SetMetrics(c.metrics)
		}
	}
	return c
}

// Command assembles the Cypher command for query without running it.
func (c *Client) Command(graph, query string, params map[string]any) (Command, error) {
	value, err := paramsValue(params)
	if err != nil {
		return Command{}, err
	}
	return c.command(graph, query, value)
}

func (c *Client) command(graph, query string, params agtype.Value) (Command, error) {
	cmd, err := CypherCommandWithPlan(graph, query, c.planner.Plan(query), params)
	if err != nil {
		return Command{}, err
	}
	c.metrics.RecordCommand(cmd.Kind)
	c.warnUnboundParameters(query, params)
	return cmd, nil
}

// Cypher runs query against graph with the given parameters and decodes
// every row.
func (c *Client) Cypher(ctx context.Context, graph, query string, params map[string]any) (*Result, error) {
	value, err := paramsValue(params)
	if err != nil {
		return nil, err
	}
	return c.CypherValue(ctx, graph, query, value)
}

// CypherValue is Cypher with parameters already in agtype form. params must
// be nil, agtype.Null, or an agtype.Map.
func (c *Client) CypherValue(ctx context.Context, graph, query string, params agtype.Value) (*Result, error) {
	cmd, err := c.command(graph, query, params)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx, cmd)
}

// Run executes an assembled Cypher command and decodes its rows.
func (c *Client) Run(ctx context.Context, cmd Command) (res *Result, err error) {
	start := time.Now()
	defer func() {
		c.metrics.RecordQuery(cmd.Kind, time.Since(start), err)
	}()

	c.log.WithFields(logrus.Fields{
		"kind":    cmd.Kind,
		"command": cmd.Text,
		"args":    len(cmd.Args),
	}).Debug("executing command")

	rows, err := c.exec.Query(ctx, cmd.Text, cmd.Args...)
	if err != nil {
		c.log.WithField("error", err).Warn("command failed")
		return nil, fmt.Errorf("age: %s: %w", cmd.Kind, err)
	}
	defer rows.Close()

	res, err = c.decodeRows(rows, cmd)
	if err != nil {
		c.log.WithField("error", err).Warn("reading result failed")
		return nil, err
	}
	c.metrics.RecordRows(len(res.Rows))
	return res, nil
}

func (c *Client) decodeRows(rows Rows, cmd Command) (*Result, error) {
	columns, err := rows.Columns()
	if err != nil || len(columns) == 0 {
		columns = cmd.ColumnNames()
	}
	res := &Result{Columns: columns}

	n := len(columns)
	raw := pool.GetRawColumns(n)
	dest := pool.GetScanSlice(n)
	defer pool.PutRawColumns(raw)
	defer pool.PutScanSlice(dest)

	for rowNum := 0; rows.Next(); rowNum++ {
		for i := range raw {
			raw[i] = nil
			dest[i] = &raw[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("age: scanning row %d: %w", rowNum, err)
		}

		row := make([]agtype.Value, n)
		for i, payload := range raw {
			if payload == nil {
				row[i] = agtype.Null{}
				continue
			}
			v, err := c.envelope.Decode(payload)
			if err != nil {
				c.metrics.RecordDecodeFailure()
				return nil, fmt.Errorf("age: row %d column %q: %w", rowNum, columns[i], err)
			}
			row[i] = v
		}
		res.Rows = append(res.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("age: %s: %w", cmd.Kind, err)
	}
	return res, nil
}

// warnUnboundParameters logs parameters the query references but the
// parameter map does not supply. AGE would fail such a query at run time.
func (c *Client) warnUnboundParameters(query string, params agtype.Value) {
	refs := cypher.ExtractParameters(query)
	if len(refs) == 0 {
		return
	}
	supplied, _ := params.(agtype.Map)
	var missing []string
	for _, name := range refs {
		if _, ok := supplied[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		c.log.WithField("missing", missing).Warn("query references parameters that were not supplied")
	}
}

// =============================================================================
// Graph administration
// =============================================================================

// CreateGraph creates a new graph.
func (c *Client) CreateGraph(ctx context.Context, graph string) error {
	cmd, err := CreateGraphCommand(graph)
	if err != nil {
		return err
	}
	return c.execAdmin(ctx, cmd)
}

// DropGraph drops a graph. See DropGraphCommand for cascade.
func (c *Client) DropGraph(ctx context.Context, graph string, cascade bool) error {
	cmd, err := DropGraphCommand(graph, cascade)
	if err != nil {
		return err
	}
	return c.execAdmin(ctx, cmd)
}

// GraphExists reports whether graph exists.
func (c *Client) GraphExists(ctx context.Context, graph string) (exists bool, err error) {
	cmd, err := GraphExistsCommand(graph)
	if err != nil {
		return false, err
	}
	c.metrics.RecordCommand(cmd.Kind)

	start := time.Now()
	defer func() {
		c.metrics.RecordQuery(cmd.Kind, time.Since(start), err)
	}()

	rows, err := c.exec.Query(ctx, cmd.Text, cmd.Args...)
	if err != nil {
		return false, fmt.Errorf("age: %s: %w", cmd.Kind, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&exists); err != nil {
			return false, fmt.Errorf("age: %s: %w", cmd.Kind, err)
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("age: %s: %w", cmd.Kind, err)
	}
	return exists, nil
}

func (c *Client) execAdmin(ctx context.Context, cmd Command) (err error) {
	c.metrics.RecordCommand(cmd.Kind)

	start := time.Now()
	defer func() {
		c.metrics.RecordQuery(cmd.Kind, time.Since(start), err)
	}()

	log := c.log.WithFields(logrus.Fields{"kind": cmd.Kind, "graph": cmd.Args[0]})
	if err := c.exec.Exec(ctx, cmd.Text, cmd.Args...); err != nil {
		log.WithField("error", err).Warn("graph command failed")
		return fmt.Errorf("age: %s: %w", cmd.Kind, err)
	}
	log.Info("graph command completed")
	return nil
}
