package fluent

import (
	"context"
	"time"
)

// Update is an eager data-modification statement: INSERT, UPDATE,
// DELETE or DDL. It executes one parameter set, or several as a batch.
type Update struct {
	query
	sets    [][]interface{}
	batched bool
	large   bool
}

// Timeout sets a deadline for the whole execution.
func (u *Update) Timeout(d time.Duration) *Update {
	u.opts.timeout = d
	return u
}

// Poolable records the statement-poolability hint; database/sql pools
// statements itself, so the hint is inert.
func (u *Update) Poolable(on bool) *Update {
	u.opts.poolable = on
	return u
}

// EscapeProcessing records the escape-processing flag; inert under
// database/sql.
func (u *Update) EscapeProcessing(on bool) *Update {
	u.opts.escapeProcessing = on
	return u
}

// WarningsAsErrors records the warnings-as-errors flag; inert under
// database/sql, which surfaces no driver warnings.
func (u *Update) WarningsAsErrors(on bool) *Update {
	u.opts.warningsAsErrors = on
	return u
}

// Large switches to the large-update path. Affected-row counts are
// 64-bit in Go either way; the flag is kept for call-site symmetry.
func (u *Update) Large(on bool) *Update {
	u.large = on
	return u
}

// Batched chooses true batching: the statement is prepared once and
// every parameter set runs against the prepared form. When off, each
// set executes the text independently. The summed count is identical
// either way.
func (u *Update) Batched(on bool) *Update {
	u.batched = on
	return u
}

// WithBatch replaces the parameter sets executed by Execute. The
// constructor arguments are ignored when batch sets are present.
func (u *Update) WithBatch(sets ...[]interface{}) *Update {
	u.sets = sets
	return u
}

// Execute runs the statement and returns the summed affected-row
// count. Submission order of batch sets is preserved.
func (u *Update) Execute(ctx context.Context) (int64, error) {
	sets := u.sets
	if len(sets) == 0 {
		sets = [][]interface{}{u.args}
	}
	ctx, cancel, r, err := u.begin(ctx)
	if err != nil {
		u.close()
		return 0, err
	}
	defer cancel()
	defer u.close()
	u.state = stateExecuting

	if u.batched && len(sets) > 1 {
		return u.executeBatch(ctx, r, sets)
	}

	var total int64
	for _, set := range sets {
		text, args, err := buildStatement(u.sqlText, set)
		if err != nil {
			return 0, err
		}
		start := time.Now()
		res, err := r.ExecContext(ctx, text, args...)
		u.db.trace(ctx, text, args, start, err)
		if err != nil {
			return 0, dataErr(err, "executing update")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, dataErr(err, "reading affected rows")
		}
		total += n
	}
	return total, nil
}

// executeBatch prepares once and runs every set against the prepared
// statement. All sets must produce the same rewritten text.
func (u *Update) executeBatch(ctx context.Context, r runner, sets [][]interface{}) (int64, error) {
	text, first, err := buildStatement(u.sqlText, sets[0])
	if err != nil {
		return 0, err
	}
	stmt, err := r.PrepareContext(ctx, text)
	if err != nil {
		return 0, dataErr(err, "preparing batch statement")
	}
	defer stmt.Close()

	var total int64
	for i, set := range sets {
		args := first
		if i > 0 {
			setText, setArgs, err := buildStatement(u.sqlText, set)
			if err != nil {
				return 0, err
			}
			if setText != text {
				return 0, configErr("batch set %d expands to different SQL than set 1", i+1)
			}
			args = setArgs
		}
		start := time.Now()
		res, err := stmt.ExecContext(ctx, args...)
		u.db.trace(ctx, text, args, start, err)
		if err != nil {
			return 0, dataErr(err, "executing batch set")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, dataErr(err, "reading affected rows")
		}
		total += n
	}
	return total, nil
}

// ExecuteReturningKeys runs the statement and streams generated keys
// through keyFn as read-only rows. On dialects without LastInsertId
// support (postgres), the statement is executed as a query so a
// RETURNING clause can produce the keys; elsewhere the driver's last
// insert id is used. Key order matches execution order.
func (u *Update) ExecuteReturningKeys(ctx context.Context, keyFn func(Row) error) (int64, error) {
	if u.db.Dialect() == "postgres" {
		return u.returningViaQuery(ctx, keyFn)
	}

	sets := u.sets
	if len(sets) == 0 {
		sets = [][]interface{}{u.args}
	}
	ctx, cancel, r, err := u.begin(ctx)
	if err != nil {
		u.close()
		return 0, err
	}
	defer cancel()
	defer u.close()
	u.state = stateExecuting

	view := newRowView([]string{"generated_key"}, true)
	var total int64
	for _, set := range sets {
		text, args, err := buildStatement(u.sqlText, set)
		if err != nil {
			return 0, err
		}
		start := time.Now()
		res, err := r.ExecContext(ctx, text, args...)
		u.db.trace(ctx, text, args, start, err)
		if err != nil {
			return 0, dataErr(err, "executing update")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, dataErr(err, "reading affected rows")
		}
		total += n
		id, err := res.LastInsertId()
		if err != nil {
			// Feature not supported by the driver: no keys, not an error.
			continue
		}
		view.load([]interface{}{id})
		if err := keyFn(view); err != nil {
			return total, err
		}
	}
	return total, nil
}

// returningViaQuery executes the statement as a query, once per
// parameter set; the caller's RETURNING clause produces the key rows.
// Sets run in submission order, so key order matches execution order.
func (u *Update) returningViaQuery(ctx context.Context, keyFn func(Row) error) (int64, error) {
	if u.err != nil {
		u.close()
		return 0, u.err
	}
	if u.state == stateClosed {
		return 0, ErrClosed
	}
	sets := u.sets
	if len(sets) == 0 {
		sets = [][]interface{}{u.args}
	}
	defer u.close()

	var total int64
	for _, set := range sets {
		sel := &Select{query: query{db: u.db, tx: u.tx, sqlText: u.sqlText, args: set, opts: u.opts}}
		err := sel.ForEach(ctx, func(r Row) error {
			total++
			return keyFn(r)
		})
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
