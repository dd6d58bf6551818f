package fluent

import (
	"context"
	"database/sql"
	"time"

	"github.com/buckelieg/fluentsql/param"
	"github.com/buckelieg/fluentsql/sqltext"
)

// NamedArg binds a value to every :name occurrence in the SQL text.
type NamedArg = sqltext.Binding

// Named builds a named argument. Named and positional arguments cannot
// be mixed within one statement.
func Named(name string, value interface{}) NamedArg {
	return NamedArg{Name: name, Value: value}
}

// runner is the common execution surface of *sql.DB and *sql.Tx.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// state tracks the statement object lifecycle. A closed query is
// terminal; re-execution returns ErrClosed.
type state int

const (
	stateCreated state = iota
	statePrepared
	stateExecuting
	stateClosed
)

// options is the per-query configuration surface. FetchSize, Poolable
// and EscapeProcessing have no database/sql counterpart; they are
// recorded and treated as unsupported-feature no-ops.
type options struct {
	fetchSize        int
	maxRows          int
	timeout          time.Duration
	poolable         bool
	escapeProcessing bool
	warningsAsErrors bool
}

// query carries the state shared by all statement kinds: SQL text,
// arguments, options and the lifecycle flag.
type query struct {
	db      *DB
	tx      runner // non-nil when transaction-scoped
	sqlText string
	args    []interface{}
	opts    options
	state   state
	err     error // construction-time error, surfaced on execution
}

// buildStatement partitions the arguments into named and positional,
// rewrites named placeholders and flattens the final argument list.
// Mixing the two styles is rejected.
func buildStatement(sqlText string, args []interface{}) (string, []interface{}, error) {
	var named []sqltext.Binding
	var positional []interface{}
	for _, a := range args {
		if b, ok := a.(sqltext.Binding); ok {
			named = append(named, b)
		} else {
			positional = append(positional, a)
		}
	}
	if len(named) > 0 && len(positional) > 0 {
		return "", nil, configErr("cannot mix named and positional arguments in one statement")
	}

	r, err := sqltext.Rewrite(sqlText, named)
	if err != nil {
		return "", nil, configWrap(err)
	}
	if r.HasNamed {
		flat, err := param.Flatten(r.Args)
		if err != nil {
			return "", nil, configWrap(err)
		}
		return r.SQL, flat, nil
	}
	flat, err := param.Flatten(positional)
	if err != nil {
		return "", nil, configWrap(err)
	}
	return sqlText, flat, nil
}

// begin moves the query into the prepared state and yields the runner
// and the execution context with any configured deadline applied.
func (q *query) begin(ctx context.Context) (context.Context, context.CancelFunc, runner, error) {
	if q.err != nil {
		return nil, nil, nil, q.err
	}
	if q.state == stateClosed {
		return nil, nil, nil, ErrClosed
	}
	r := q.tx
	if r == nil {
		h, err := q.db.acquire(ctx)
		if err != nil {
			return nil, nil, nil, err
		}
		r = h
	}
	q.state = statePrepared
	cancel := func() {}
	if q.opts.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, q.opts.timeout)
	}
	return ctx, cancel, r, nil
}

// close releases the query; any error path calls this before returning.
func (q *query) close() {
	q.state = stateClosed
}
