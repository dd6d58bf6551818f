package fluent

import (
	"context"
	"database/sql"
	"time"

	"github.com/buckelieg/fluentsql/param"
	"github.com/buckelieg/fluentsql/sqltext"
)

// StoredProcedure invokes a stored routine through the recognized call
// syntax, binding IN, OUT and INOUT parameters.
type StoredProcedure struct {
	query
	params  []param.Descriptor
	holders []interface{}
}

func newStoredProcedure(db *DB, tx runner, callSQL string, params []param.Descriptor) *StoredProcedure {
	sp := &StoredProcedure{
		query:  query{db: db, tx: tx, sqlText: callSQL},
		params: params,
	}
	if !sqltext.IsProcedureCall(callSQL) {
		sp.err = configErr("not a procedure call: %q", callSQL)
		return sp
	}
	for _, p := range params {
		if err := p.Validate(); err != nil {
			sp.err = configWrap(err)
			return sp
		}
	}
	return sp
}

// Timeout sets a deadline for the whole invocation.
func (sp *StoredProcedure) Timeout(d time.Duration) *StoredProcedure {
	sp.opts.timeout = d
	return sp
}

// bindArgs renders the descriptors into driver arguments, wiring OUT
// and INOUT holders.
func (sp *StoredProcedure) bindArgs() []interface{} {
	sp.holders = make([]interface{}, len(sp.params))
	args := make([]interface{}, 0, len(sp.params))
	for i, p := range sp.params {
		var arg interface{}
		if p.IsOutput() {
			if p.Mode == param.ModeInOut {
				sp.holders[i] = p.Value
			}
			arg = sql.Out{Dest: &sp.holders[i], In: p.Mode == param.ModeInOut}
		} else {
			arg = p.Value
		}
		if p.Name != "" {
			arg = sql.Named(p.Name, arg)
		}
		args = append(args, arg)
	}
	return args
}

// outValues reads the OUT and INOUT holders back through the declared
// types.
func (sp *StoredProcedure) outValues() (map[string]interface{}, error) {
	out := make(map[string]interface{})
	for i, p := range sp.params {
		if !p.IsOutput() {
			continue
		}
		v, err := param.ScanOut(p, sp.holders[i])
		if err != nil {
			return nil, configWrap(err)
		}
		out[p.Name] = v
	}
	return out, nil
}

// Call invokes the procedure without consuming a result set and
// returns the OUT/INOUT parameter values by name.
func (sp *StoredProcedure) Call(ctx context.Context) (map[string]interface{}, error) {
	ctx, cancel, r, err := sp.begin(ctx)
	if err != nil {
		sp.close()
		return nil, err
	}
	defer cancel()
	defer sp.close()
	sp.state = stateExecuting

	args := sp.bindArgs()
	start := time.Now()
	_, err = r.ExecContext(ctx, sp.sqlText, args...)
	sp.db.trace(ctx, sp.sqlText, args, start, err)
	if err != nil {
		return nil, dataErr(err, "calling procedure")
	}
	return sp.outValues()
}

// CallWithResults invokes the procedure, streams its result set
// through fn as read-only rows, and then returns the OUT/INOUT
// parameter values by name.
func (sp *StoredProcedure) CallWithResults(ctx context.Context, fn func(Row) error) (map[string]interface{}, error) {
	ctx, cancel, r, err := sp.begin(ctx)
	if err != nil {
		sp.close()
		return nil, err
	}
	defer cancel()
	defer sp.close()
	sp.state = stateExecuting

	args := sp.bindArgs()
	start := time.Now()
	rows, err := r.QueryContext(ctx, sp.sqlText, args...)
	sp.db.trace(ctx, sp.sqlText, args, start, err)
	if err != nil {
		return nil, dataErr(err, "calling procedure")
	}

	columns, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, dataErr(err, "reading result columns")
	}
	view := newRowView(columns, true)
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			rows.Close()
			return nil, dataErr(err, "scanning row")
		}
		view.load(values)
		if err := fn(view); err != nil {
			rows.Close()
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, dataErr(err, "fetching rows")
	}
	// OUT parameters are only guaranteed once the cursor is drained.
	if err := rows.Close(); err != nil {
		return nil, dataErr(err, "closing cursor")
	}
	return sp.outValues()
}
