// Package mock provides a scriptable database/sql driver for testing
// code built on the fluent facade without a real database. Tests queue
// expectations (results, row sets or errors) and the driver replays
// them in order, recording every statement it receives.
package mock

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"
)

// Call records one statement received by the driver.
type Call struct {
	SQL  string
	Args []driver.Value
}

// expectation is one scripted reply.
type expectation struct {
	match    string // substring the SQL must contain, "" matches anything
	err      error
	affected int64
	lastID   int64
	columns  []string
	rows     [][]driver.Value
	outs     map[string]driver.Value // out-parameter values by name
	isQuery  bool
}

// pendingOut remembers where an sql.Out argument wants its value
// delivered once the statement executes.
type pendingOut struct {
	name string
	dest interface{}
}

// Mock scripts and records driver traffic. Safe for use from the
// connection pool's goroutines.
type Mock struct {
	mu           sync.Mutex
	expectations []*expectation
	calls        []Call
	pendingOuts  []pendingOut
	begins       int
	commits      int
	rollbacks    int
}

// New creates an empty mock.
func New() *Mock {
	return &Mock{}
}

// DB opens a database handle backed by this mock.
func (m *Mock) DB() *sql.DB {
	return sql.OpenDB(&connector{mock: m})
}

// ExpectExec queues an execution expectation for a statement containing
// match ("" matches any statement).
func (m *Mock) ExpectExec(match string) *ExecExpectation {
	e := &expectation{match: match, affected: 1}
	m.mu.Lock()
	m.expectations = append(m.expectations, e)
	m.mu.Unlock()
	return &ExecExpectation{e: e}
}

// ExpectQuery queues a query expectation for a statement containing
// match ("" matches any statement).
func (m *Mock) ExpectQuery(match string) *QueryExpectation {
	e := &expectation{match: match, isQuery: true}
	m.mu.Lock()
	m.expectations = append(m.expectations, e)
	m.mu.Unlock()
	return &QueryExpectation{e: e}
}

// ExecExpectation configures a scripted execution.
type ExecExpectation struct {
	e *expectation
}

// WillReturnResult sets the affected-row count and last insert id.
func (x *ExecExpectation) WillReturnResult(affected, lastID int64) *ExecExpectation {
	x.e.affected = affected
	x.e.lastID = lastID
	return x
}

// WillReturnError makes the execution fail.
func (x *ExecExpectation) WillReturnError(err error) *ExecExpectation {
	x.e.err = err
	return x
}

// WillReturnOut scripts the value delivered into the sql.Out argument
// bound under name.
func (x *ExecExpectation) WillReturnOut(name string, value driver.Value) *ExecExpectation {
	if x.e.outs == nil {
		x.e.outs = make(map[string]driver.Value)
	}
	x.e.outs[name] = value
	return x
}

// QueryExpectation configures a scripted row set.
type QueryExpectation struct {
	e *expectation
}

// WillReturnRows sets the columns and rows the query produces.
func (x *QueryExpectation) WillReturnRows(columns []string, rows [][]driver.Value) *QueryExpectation {
	x.e.columns = columns
	x.e.rows = rows
	return x
}

// WillReturnError makes the query fail.
func (x *QueryExpectation) WillReturnError(err error) *QueryExpectation {
	x.e.err = err
	return x
}

// Calls returns every statement the driver received, in order.
func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// Begins returns how many transactions were started.
func (m *Mock) Begins() int { m.mu.Lock(); defer m.mu.Unlock(); return m.begins }

// Commits returns how many transactions were committed.
func (m *Mock) Commits() int { m.mu.Lock(); defer m.mu.Unlock(); return m.commits }

// Rollbacks returns how many transactions were rolled back.
func (m *Mock) Rollbacks() int { m.mu.Lock(); defer m.mu.Unlock(); return m.rollbacks }

// ExpectationsMet reports whether every scripted expectation was used.
func (m *Mock) ExpectationsMet() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.expectations); n > 0 {
		return fmt.Errorf("mock: %d expectation(s) left unmet", n)
	}
	return nil
}

// next pops the first expectation matching sql.
func (m *Mock) next(sqlText string, args []driver.Value, isQuery bool) (*expectation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{SQL: sqlText, Args: args})
	if len(m.expectations) == 0 {
		return nil, fmt.Errorf("mock: unexpected statement %q", sqlText)
	}
	e := m.expectations[0]
	if e.match != "" && !strings.Contains(sqlText, e.match) {
		return nil, fmt.Errorf("mock: statement %q does not match expected %q", sqlText, e.match)
	}
	if e.isQuery != isQuery {
		return nil, fmt.Errorf("mock: statement %q used as %s, scripted as %s",
			sqlText, kind(isQuery), kind(e.isQuery))
	}
	m.expectations = m.expectations[1:]
	return e, nil
}

func kind(isQuery bool) string {
	if isQuery {
		return "query"
	}
	return "exec"
}

// connector lets sql.OpenDB reach the mock without the global driver
// registry, so every test gets an isolated instance.
type connector struct {
	mock *Mock
}

func (c *connector) Connect(ctx context.Context) (driver.Conn, error) {
	return &conn{mock: c.mock}, nil
}

func (c *connector) Driver() driver.Driver {
	return mockDriver{}
}

type mockDriver struct{}

func (mockDriver) Open(name string) (driver.Conn, error) {
	return nil, fmt.Errorf("mock: use mock.New().DB()")
}

type conn struct {
	mock *Mock
}

func (c *conn) Prepare(query string) (driver.Stmt, error) {
	return &stmt{mock: c.mock, query: query}, nil
}

func (c *conn) Close() error {
	return nil
}

func (c *conn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *conn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	c.mock.mu.Lock()
	c.mock.begins++
	c.mock.mu.Unlock()
	return &tx{mock: c.mock}, nil
}

func (c *conn) Ping(ctx context.Context) error {
	return nil
}

// CheckNamedValue accepts sql.Out arguments, remembering the
// destination so the matched expectation's scripted value can be
// delivered on execution. Everything else falls through to the default
// converter.
func (c *conn) CheckNamedValue(nv *driver.NamedValue) error {
	if out, ok := nv.Value.(sql.Out); ok {
		c.mock.mu.Lock()
		c.mock.pendingOuts = append(c.mock.pendingOuts, pendingOut{name: nv.Name, dest: out.Dest})
		c.mock.mu.Unlock()
		nv.Value = nil
		return nil
	}
	return driver.ErrSkip
}

// takePendingOuts drains the destinations registered for the statement
// about to execute.
func (m *Mock) takePendingOuts() []pendingOut {
	m.mu.Lock()
	defer m.mu.Unlock()
	pending := m.pendingOuts
	m.pendingOuts = nil
	return pending
}

// deliverOuts writes the expectation's scripted out values into the
// registered destinations.
func deliverOuts(e *expectation, pending []pendingOut) error {
	for _, p := range pending {
		v, ok := e.outs[p.name]
		if !ok {
			continue
		}
		rv := reflect.ValueOf(p.dest)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return fmt.Errorf("mock: out parameter %q has no destination pointer", p.name)
		}
		if v == nil {
			rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
			continue
		}
		rv.Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

type tx struct {
	mock *Mock
}

func (t *tx) Commit() error {
	t.mock.mu.Lock()
	t.mock.commits++
	t.mock.mu.Unlock()
	return nil
}

func (t *tx) Rollback() error {
	t.mock.mu.Lock()
	t.mock.rollbacks++
	t.mock.mu.Unlock()
	return nil
}

type stmt struct {
	mock  *Mock
	query string
}

func (s *stmt) Close() error {
	return nil
}

// NumInput returns -1 so the pool skips placeholder-count checks.
func (s *stmt) NumInput() int {
	return -1
}

func (s *stmt) Exec(args []driver.Value) (driver.Result, error) {
	pending := s.mock.takePendingOuts()
	e, err := s.mock.next(s.query, args, false)
	if err != nil {
		return nil, err
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := deliverOuts(e, pending); err != nil {
		return nil, err
	}
	return result{affected: e.affected, lastID: e.lastID}, nil
}

func (s *stmt) Query(args []driver.Value) (driver.Rows, error) {
	s.mock.takePendingOuts()
	e, err := s.mock.next(s.query, args, true)
	if err != nil {
		return nil, err
	}
	if e.err != nil {
		return nil, e.err
	}
	return &rows{columns: e.columns, data: e.rows}, nil
}

// ExecContext keeps named arguments intact; the plain Exec path would
// reject them in database/sql's conversion layer.
func (s *stmt) ExecContext(ctx context.Context, args []driver.NamedValue) (driver.Result, error) {
	return s.Exec(namedToValues(args))
}

func (s *stmt) QueryContext(ctx context.Context, args []driver.NamedValue) (driver.Rows, error) {
	return s.Query(namedToValues(args))
}

func namedToValues(args []driver.NamedValue) []driver.Value {
	out := make([]driver.Value, len(args))
	for i, a := range args {
		out[i] = a.Value
	}
	return out
}

type result struct {
	affected int64
	lastID   int64
}

func (r result) LastInsertId() (int64, error) {
	return r.lastID, nil
}

func (r result) RowsAffected() (int64, error) {
	return r.affected, nil
}

type rows struct {
	columns []string
	data    [][]driver.Value
	pos     int
}

func (r *rows) Columns() []string {
	return r.columns
}

func (r *rows) Close() error {
	return nil
}

func (r *rows) Next(dest []driver.Value) error {
	if r.pos >= len(r.data) {
		return io.EOF
	}
	copy(dest, r.data[r.pos])
	r.pos++
	return nil
}

var (
	_ driver.Connector         = (*connector)(nil)
	_ driver.Conn              = (*conn)(nil)
	_ driver.ConnBeginTx       = (*conn)(nil)
	_ driver.Pinger            = (*conn)(nil)
	_ driver.NamedValueChecker = (*conn)(nil)
	_ driver.Stmt              = (*stmt)(nil)
	_ driver.StmtExecContext   = (*stmt)(nil)
	_ driver.StmtQueryContext  = (*stmt)(nil)
)
