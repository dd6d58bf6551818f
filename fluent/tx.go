package fluent

import (
	"context"

	"github.com/buckelieg/fluentsql/param"
)

// Tx is a transaction scope. Queries built from it run on the
// transaction's connection.
type Tx struct {
	db *DB
	tx runner
}

// InTransaction reuses the caller's transaction: fn runs in the same
// scope, and commit/rollback remain the outer scope's decision. This
// is the nested-call convention; use DB.InNewTransaction to force a
// separate connection instead.
func (t *Tx) InTransaction(ctx context.Context, fn func(*Tx) error) error {
	return fn(t)
}

// Select builds a lazy row-streaming query bound to the transaction.
func (t *Tx) Select(sqlText string, args ...interface{}) *Select {
	return &Select{query: query{db: t.db, tx: t.tx, sqlText: sqlText, args: args}}
}

// Update builds an eager data-modification statement bound to the
// transaction.
func (t *Tx) Update(sqlText string, args ...interface{}) *Update {
	return &Update{query: query{db: t.db, tx: t.tx, sqlText: sqlText, args: args}}
}

// Procedure builds a stored-procedure invocation bound to the
// transaction.
func (t *Tx) Procedure(callSQL string, params ...param.Descriptor) *StoredProcedure {
	return newStoredProcedure(t.db, t.tx, callSQL, params)
}

// Script builds a script execution bound to the transaction; its
// statements run in this scope rather than a new one.
func (t *Tx) Script(text string) *Script {
	return &Script{db: t.db, tx: t.tx, text: text}
}
