package fluent

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Row is the read-only view of the current cursor row handed to mapper
// callbacks. All accessors delegate to the values fetched from the
// driver; the view owns no driver resources and is only valid inside
// the callback invocation.
type Row interface {
	// Columns returns the result-set column names.
	Columns() []string

	// Get returns the value at the 0-based column index.
	Get(i int) (interface{}, error)

	// GetByName returns the value of the named column.
	GetByName(name string) (interface{}, error)

	// Scan copies the row into dest pointers, one per column.
	Scan(dest ...interface{}) error
}

// MutableRow extends Row with mutators. It is handed out only where row
// mutation is explicitly permitted; on a read-only view every mutator
// returns ErrReadOnly instead of delegating.
type MutableRow interface {
	Row

	// Set stages a new value for the column at the 0-based index.
	Set(i int, v interface{}) error

	// SetByName stages a new value for the named column.
	SetByName(name string, v interface{}) error

	// Delete marks the row for deletion.
	Delete() error

	// Updated reports whether any mutator succeeded on this row.
	Updated() bool

	// Changes returns the staged column assignments by column name.
	Changes() map[string]interface{}
}

// rowView implements both view variants over one fetched row.
type rowView struct {
	columns  []string
	index    map[string]int
	values   []interface{}
	readOnly bool
	updated  bool
	deleted  bool
	changes  map[string]interface{}
}

func newRowView(columns []string, readOnly bool) *rowView {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return &rowView{
		columns:  columns,
		index:    index,
		values:   make([]interface{}, len(columns)),
		readOnly: readOnly,
	}
}

// load refills the view for the next fetched row and resets mutation
// state.
func (r *rowView) load(values []interface{}) {
	copy(r.values, values)
	r.updated = false
	r.deleted = false
	r.changes = nil
}

func (r *rowView) Columns() []string {
	return r.columns
}

func (r *rowView) Get(i int) (interface{}, error) {
	if i < 0 || i >= len(r.values) {
		return nil, configErr("column index %d out of range [0,%d)", i, len(r.values))
	}
	return r.values[i], nil
}

func (r *rowView) GetByName(name string) (interface{}, error) {
	i, ok := r.index[name]
	if !ok {
		return nil, configErr("no column %q in result set", name)
	}
	return r.values[i], nil
}

func (r *rowView) Scan(dest ...interface{}) error {
	if len(dest) != len(r.values) {
		return configErr("scan expects %d destinations, got %d", len(r.values), len(dest))
	}
	for i, d := range dest {
		if err := convertAssign(d, r.values[i]); err != nil {
			return configErr("column %d (%s): %v", i, r.columns[i], err)
		}
	}
	return nil
}

func (r *rowView) Set(i int, v interface{}) error {
	if r.readOnly {
		return ErrReadOnly
	}
	if i < 0 || i >= len(r.values) {
		return configErr("column index %d out of range [0,%d)", i, len(r.values))
	}
	r.stage(r.columns[i], v)
	return nil
}

func (r *rowView) SetByName(name string, v interface{}) error {
	if r.readOnly {
		return ErrReadOnly
	}
	i, ok := r.index[name]
	if !ok {
		return configErr("no column %q in result set", name)
	}
	r.stage(r.columns[i], v)
	return nil
}

func (r *rowView) Delete() error {
	if r.readOnly {
		return ErrReadOnly
	}
	r.deleted = true
	r.updated = true
	return nil
}

func (r *rowView) stage(column string, v interface{}) {
	if r.changes == nil {
		r.changes = make(map[string]interface{})
	}
	r.changes[column] = v
	r.updated = true
}

func (r *rowView) Updated() bool {
	return r.updated
}

func (r *rowView) Changes() map[string]interface{} {
	out := make(map[string]interface{}, len(r.changes))
	for k, v := range r.changes {
		out[k] = v
	}
	return out
}

// convertAssign copies src (a value produced by the driver) into the
// dest pointer, converting between the driver's base types and the
// common Go destinations.
func convertAssign(dest, src interface{}) error {
	if s, ok := dest.(sql.Scanner); ok {
		return s.Scan(src)
	}
	switch d := dest.(type) {
	case *interface{}:
		*d = src
		return nil
	case *string:
		switch v := src.(type) {
		case string:
			*d = v
			return nil
		case []byte:
			*d = string(v)
			return nil
		}
	case *[]byte:
		switch v := src.(type) {
		case []byte:
			*d = v
			return nil
		case string:
			*d = []byte(v)
			return nil
		case nil:
			*d = nil
			return nil
		}
	case *int64:
		if v, ok := src.(int64); ok {
			*d = v
			return nil
		}
	case *int:
		if v, ok := src.(int64); ok {
			*d = int(v)
			return nil
		}
	case *float64:
		switch v := src.(type) {
		case float64:
			*d = v
			return nil
		case int64:
			*d = float64(v)
			return nil
		}
	case *bool:
		switch v := src.(type) {
		case bool:
			*d = v
			return nil
		case int64:
			*d = v != 0
			return nil
		}
	case *time.Time:
		if v, ok := src.(time.Time); ok {
			*d = v
			return nil
		}
	case *decimal.Decimal:
		switch v := src.(type) {
		case string:
			dec, err := decimal.NewFromString(v)
			if err != nil {
				return err
			}
			*d = dec
			return nil
		case []byte:
			dec, err := decimal.NewFromString(string(v))
			if err != nil {
				return err
			}
			*d = dec
			return nil
		case int64:
			*d = decimal.NewFromInt(v)
			return nil
		case float64:
			*d = decimal.NewFromFloat(v)
			return nil
		}
	case *sql.NullString:
		switch v := src.(type) {
		case nil:
			*d = sql.NullString{}
			return nil
		case string:
			*d = sql.NullString{String: v, Valid: true}
			return nil
		case []byte:
			*d = sql.NullString{String: string(v), Valid: true}
			return nil
		}
	case *sql.NullInt64:
		switch v := src.(type) {
		case nil:
			*d = sql.NullInt64{}
			return nil
		case int64:
			*d = sql.NullInt64{Int64: v, Valid: true}
			return nil
		case []byte:
			n, err := strconv.ParseInt(string(v), 10, 64)
			if err != nil {
				return err
			}
			*d = sql.NullInt64{Int64: n, Valid: true}
			return nil
		}
	}
	return fmt.Errorf("cannot assign %T into %T", src, dest)
}
