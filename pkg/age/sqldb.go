package age

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// DefaultSearchPath puts ag_catalog first so AGE's operators and the agtype
// type resolve without qualification.
const DefaultSearchPath = `ag_catalog, "$user", public`

// DBOptions configures OpenDB.
type DBOptions struct {
	// DSN is a lib/pq connection string or postgres:// URL.
	DSN string
	// LoadExtension runs LOAD 'age' on every new connection. Needed unless
	// the server preloads AGE through shared_preload_libraries.
	LoadExtension bool
	// SearchPath is set on every new connection. Empty means
	// DefaultSearchPath.
	SearchPath string
	// ConnectTimeout bounds the initial ping. Zero means 10s.
	ConnectTimeout time.Duration
	// MaxOpenConns limits the connection pool. Zero means unlimited.
	MaxOpenConns int
	// MaxIdleConns limits idle connections. Zero keeps the database/sql default.
	MaxIdleConns int
	// ConnMaxLifetime bounds connection reuse. Zero means no limit.
	ConnMaxLifetime time.Duration
}

// BootstrapStatements returns the statements run on every new connection.
func (o DBOptions) BootstrapStatements() []string {
	var stmts []string
	if o.LoadExtension {
		stmts = append(stmts, "LOAD 'age'")
	}
	path := o.SearchPath
	if path == "" {
		path = DefaultSearchPath
	}
	stmts = append(stmts, "SET search_path = "+path)
	return stmts
}

// OpenDB opens a PostgreSQL pool through lib/pq whose connections are
// prepared for AGE, and verifies it with a ping.
func OpenDB(ctx context.Context, opts DBOptions) (*sql.DB, error) {
	if opts.DSN == "" {
		return nil, fmt.Errorf("age: database DSN required")
	}

	base, err := pq.NewConnector(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("age: invalid DSN: %w", err)
	}

	db := sql.OpenDB(&bootstrapConnector{
		Connector:  base,
		statements: opts.BootstrapStatements(),
	})

	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		db.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("age: failed to ping database: %w", err)
	}
	return db, nil
}

// bootstrapConnector runs session setup statements on every connection the
// pool opens.
type bootstrapConnector struct {
	driver.Connector
	statements []string
}

func (c *bootstrapConnector) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.Connector.Connect(ctx)
	if err != nil {
		return nil, err
	}
	for _, stmt := range c.statements {
		if err := execConn(ctx, conn, stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("age: session setup %q: %w", stmt, err)
		}
	}
	return conn, nil
}

func execConn(ctx context.Context, conn driver.Conn, stmt string) error {
	if execer, ok := conn.(driver.ExecerContext); ok {
		_, err := execer.ExecContext(ctx, stmt, nil)
		return err
	}
	prepared, err := conn.Prepare(stmt)
	if err != nil {
		return err
	}
	defer prepared.Close()
	_, err = prepared.Exec(nil) //nolint:staticcheck // fallback for drivers without ExecerContext
	return err
}

// SQLExecutor adapts *sql.DB to Executor.
type SQLExecutor struct {
	db *sql.DB
}

// NewSQLExecutor wraps db.
func NewSQLExecutor(db *sql.DB) *SQLExecutor {
	return &SQLExecutor{db: db}
}

// Query runs a statement returning rows.
func (e *SQLExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Exec runs a statement and discards its rows.
func (e *SQLExecutor) Exec(ctx context.Context, query string, args ...any) error {
	_, err := e.db.ExecContext(ctx, query, args...)
	return err
}

// DB returns the wrapped pool.
func (e *SQLExecutor) DB() *sql.DB {
	return e.db
}
