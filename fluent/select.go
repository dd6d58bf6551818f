package fluent

import (
	"context"
	"time"
)

// Select is a lazy row-streaming query. Rows are pulled from the
// driver only as the consumer asks for them; exhaustion, an explicit
// stop or any error closes the underlying cursor.
type Select struct {
	query
	onUpdate func(changes map[string]interface{}, deleted bool) error
}

// FetchSize records a driver fetch-size hint. database/sql offers no
// such control, so the hint is inert.
func (s *Select) FetchSize(n int) *Select {
	s.opts.fetchSize = n
	return s
}

// MaxRows truncates the stream after n rows.
func (s *Select) MaxRows(n int) *Select {
	s.opts.maxRows = n
	return s
}

// Timeout sets a deadline for the whole execution; an elapsed deadline
// cancels the in-flight statement and releases its resources.
func (s *Select) Timeout(d time.Duration) *Select {
	s.opts.timeout = d
	return s
}

// WarningsAsErrors records the warnings-as-errors flag. database/sql
// surfaces no driver warnings, so the flag is inert.
func (s *Select) WarningsAsErrors(on bool) *Select {
	s.opts.warningsAsErrors = on
	return s
}

// OnUpdate installs the callback invoked after a mutable-view callback
// marks a row updated or deleted.
func (s *Select) OnUpdate(fn func(changes map[string]interface{}, deleted bool) error) *Select {
	s.onUpdate = fn
	return s
}

// ForEach streams every row through fn as a read-only view. A non-nil
// error from fn aborts the stream; the cursor is closed on every exit
// path.
func (s *Select) ForEach(ctx context.Context, fn func(Row) error) error {
	return s.stream(ctx, true, func(v *rowView) error { return fn(v) })
}

// ForEachMutable streams every row through fn as a mutable view. After
// each callback, a row marked updated or deleted is reported to the
// OnUpdate callback when one is installed.
func (s *Select) ForEachMutable(ctx context.Context, fn func(MutableRow) error) error {
	return s.stream(ctx, false, func(v *rowView) error {
		if err := fn(v); err != nil {
			return err
		}
		if v.Updated() && s.onUpdate != nil {
			return s.onUpdate(v.Changes(), v.deleted)
		}
		return nil
	})
}

func (s *Select) stream(ctx context.Context, readOnly bool, fn func(*rowView) error) error {
	text, args, err := buildStatement(s.sqlText, s.args)
	if err != nil {
		s.close()
		return err
	}
	ctx, cancel, r, err := s.begin(ctx)
	if err != nil {
		s.close()
		return err
	}
	defer cancel()
	defer s.close()

	start := time.Now()
	rows, err := r.QueryContext(ctx, text, args...)
	s.db.trace(ctx, text, args, start, err)
	if err != nil {
		return dataErr(err, "executing query")
	}
	defer rows.Close()
	s.state = stateExecuting

	columns, err := rows.Columns()
	if err != nil {
		return dataErr(err, "reading result columns")
	}
	view := newRowView(columns, readOnly)
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}

	fetched := 0
	for rows.Next() {
		if s.opts.maxRows > 0 && fetched >= s.opts.maxRows {
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return dataErr(err, "scanning row")
		}
		view.load(values)
		if err := fn(view); err != nil {
			return err
		}
		fetched++
	}
	if err := rows.Err(); err != nil {
		return dataErr(err, "fetching rows")
	}
	return nil
}

// List collects every row through mapper.
func List[T any](ctx context.Context, s *Select, mapper func(Row) (T, error)) ([]T, error) {
	var out []T
	err := s.ForEach(ctx, func(r Row) error {
		v, err := mapper(r)
		if err != nil {
			return err
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// First maps the first row; ok is false when the result set is empty.
func First[T any](ctx context.Context, s *Select, mapper func(Row) (T, error)) (T, bool, error) {
	var out T
	found := false
	s.opts.maxRows = 1
	err := s.ForEach(ctx, func(r Row) error {
		v, err := mapper(r)
		if err != nil {
			return err
		}
		out = v
		found = true
		return nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return out, found, nil
}

// Single maps exactly one row and errors on an empty result set or on
// more than one row.
func Single[T any](ctx context.Context, s *Select, mapper func(Row) (T, error)) (T, error) {
	var out T
	count := 0
	err := s.ForEach(ctx, func(r Row) error {
		if count > 0 {
			return configErr("expected a single row, got more")
		}
		v, err := mapper(r)
		if err != nil {
			return err
		}
		out = v
		count++
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	if count == 0 {
		var zero T
		return zero, configErr("expected a single row, got none")
	}
	return out, nil
}
