package fluent

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/buckelieg/fluentsql/adapter"
	"github.com/buckelieg/fluentsql/param"
)

// DB is the top-level facade. It owns a lazily acquired database
// handle supplied by its provider, re-acquiring it when validation
// fails. A DB is not meant for concurrent use from multiple
// goroutines; only handle acquisition is synchronized.
type DB struct {
	provider adapter.Provider
	tracer   Tracer

	mu     sync.Mutex
	handle *sql.DB
}

// Option configures the facade.
type Option func(*DB)

// WithTracer installs a statement tracer. The default discards traces.
func WithTracer(t Tracer) Option {
	return func(d *DB) {
		if t != nil {
			d.tracer = t
		}
	}
}

// New creates a facade over provider. No connection is made until the
// first statement executes.
func New(provider adapter.Provider, opts ...Option) *DB {
	d := &DB{provider: provider, tracer: NopTracer{}}
	for _, o := range opts {
		o(d)
	}
	return d
}

// acquire returns the cached handle, validating it first and
// recreating it when it has gone away.
func (d *DB) acquire(ctx context.Context) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle != nil {
		if err := d.provider.Validate(ctx, d.handle); err == nil {
			return d.handle, nil
		}
		d.handle.Close()
		d.handle = nil
	}
	h, err := d.provider.Open()
	if err != nil {
		return nil, dataErr(err, "acquiring connection")
	}
	d.handle = h
	return h, nil
}

// Close releases the owned handle. The facade may be used again; the
// next statement re-acquires.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.handle == nil {
		return nil
	}
	err := d.handle.Close()
	d.handle = nil
	return err
}

// Dialect returns the provider's dialect name.
func (d *DB) Dialect() string {
	return d.provider.DialectName()
}

// trace reports one executed statement to the configured tracer.
func (d *DB) trace(ctx context.Context, sqlText string, args []interface{}, start time.Time, err error) {
	d.tracer.Trace(ctx, sqlText, args, time.Since(start), err)
}

// Select builds a lazy row-streaming query.
func (d *DB) Select(sqlText string, args ...interface{}) *Select {
	return &Select{query: query{db: d, sqlText: sqlText, args: args}}
}

// Update builds an eager data-modification statement.
func (d *DB) Update(sqlText string, args ...interface{}) *Update {
	return &Update{query: query{db: d, sqlText: sqlText, args: args}}
}

// Procedure builds a stored-procedure invocation from call syntax and
// parameter descriptors.
func (d *DB) Procedure(callSQL string, params ...param.Descriptor) *StoredProcedure {
	return newStoredProcedure(d, nil, callSQL, params)
}

// Script builds a multi-statement script execution.
func (d *DB) Script(text string) *Script {
	return &Script{db: d, text: text, delimiter: ""}
}

// ScriptFile builds a script execution from a file on disk.
func (d *DB) ScriptFile(path string) *Script {
	s := &Script{db: d}
	s.loadFile(path)
	return s
}

// TxOptions configures a transaction scope.
type TxOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// InTransaction runs fn inside a transaction on the owned connection:
// commit on nil return, rollback on error or panic (the panic is
// re-raised after rollback).
func (d *DB) InTransaction(ctx context.Context, fn func(*Tx) error) error {
	return d.transact(ctx, nil, false, fn)
}

// InTransactionWith is InTransaction with isolation options.
func (d *DB) InTransactionWith(ctx context.Context, opts *TxOptions, fn func(*Tx) error) error {
	return d.transact(ctx, opts, false, fn)
}

// InNewTransaction forces acquisition of a fresh connection from the
// provider for the duration of the transaction, never reusing the
// cached handle.
func (d *DB) InNewTransaction(ctx context.Context, fn func(*Tx) error) error {
	return d.transact(ctx, nil, true, fn)
}

// handleSharer is implemented by providers whose Open hands out one
// shared handle; such handles belong to the caller and are never closed
// by the facade's fresh-transaction path.
type handleSharer interface {
	SharesHandle() bool
}

func (d *DB) transact(ctx context.Context, opts *TxOptions, fresh bool, fn func(*Tx) error) error {
	var h *sql.DB
	var err error
	if fresh {
		h, err = d.provider.Open()
		if err != nil {
			return dataErr(err, "acquiring connection")
		}
		if s, ok := d.provider.(handleSharer); !ok || !s.SharesHandle() {
			defer h.Close()
		}
	} else {
		h, err = d.acquire(ctx)
		if err != nil {
			return err
		}
	}

	var sqlOpts *sql.TxOptions
	if opts != nil {
		sqlOpts = &sql.TxOptions{Isolation: opts.Isolation, ReadOnly: opts.ReadOnly}
	}
	tx, err := h.BeginTx(ctx, sqlOpts)
	if err != nil {
		return dataErr(err, "beginning transaction")
	}

	done := false
	defer func() {
		if !done {
			tx.Rollback()
		}
	}()

	if err := fn(&Tx{db: d, tx: tx}); err != nil {
		tx.Rollback()
		done = true
		return err
	}
	if err := tx.Commit(); err != nil {
		done = true
		return dataErr(err, "committing transaction")
	}
	done = true
	return nil
}
