//go:build cgo && sqlite

package fluent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/buckelieg/fluentsql/adapter"
)

// These tests exercise the facade end to end against an in-memory
// SQLite database. Build with -tags sqlite and cgo enabled.

func newSQLiteDB(t *testing.T) *DB {
	t.Helper()
	db := New(adapter.NewSQLiteMemory())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLite_InsertAndSelect(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	_, err := db.Update("CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)").Execute(ctx)
	require.NoError(t, err)

	n, err := db.Update("INSERT INTO users(name) VALUES(:name)", Named("name", "X")).Execute(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	names, err := List(ctx, db.Select("SELECT name FROM users WHERE name = :name", Named("name", "X")),
		func(r Row) (string, error) {
			var s string
			err := r.Scan(&s)
			return s, err
		})
	require.NoError(t, err)
	require.Equal(t, []string{"X"}, names)
}

func TestSQLite_GeneratedKeys(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	_, err := db.Update("CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, v TEXT)").Execute(ctx)
	require.NoError(t, err)

	var keys []int64
	n, err := db.Update("INSERT INTO items(v) VALUES(?)").
		WithBatch([]interface{}{"a"}, []interface{}{"b"}).
		ExecuteReturningKeys(ctx, func(r Row) error {
			v, err := r.Get(0)
			if err != nil {
				return err
			}
			keys = append(keys, v.(int64))
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, []int64{1, 2}, keys)
}

func TestSQLite_ScriptSkipErrors(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	var failed []int
	err := db.Script(`
		CREATE TABLE t (id INTEGER);
		INSERT INTO nonexistent VALUES (1);
		INSERT INTO t VALUES (2)
	`).SkipErrors(func(i int, stmt string, err error) {
		failed = append(failed, i)
	}).Execute(ctx)
	require.NoError(t, err)
	require.Equal(t, []int{1}, failed)

	count, err := Single(ctx, db.Select("SELECT COUNT(*) FROM t"),
		func(r Row) (int64, error) {
			var n int64
			err := r.Scan(&n)
			return n, err
		})
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "statement after the failure still ran")
}

func TestSQLite_TransactionRollback(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteDB(t)

	_, err := db.Update("CREATE TABLE t (id INTEGER)").Execute(ctx)
	require.NoError(t, err)

	require.NoError(t, db.InTransaction(ctx, func(tx *Tx) error {
		_, err := tx.Update("INSERT INTO t VALUES (1)").Execute(ctx)
		return err
	}))

	err = db.InTransaction(ctx, func(tx *Tx) error {
		if _, err := tx.Update("INSERT INTO t VALUES (2)").Execute(ctx); err != nil {
			return err
		}
		return context.Canceled // any error triggers rollback
	})
	require.Error(t, err)

	count, err := Single(ctx, db.Select("SELECT COUNT(*) FROM t"),
		func(r Row) (int64, error) {
			var n int64
			err := r.Scan(&n)
			return n, err
		})
	require.NoError(t, err)
	require.Equal(t, int64(1), count, "rolled-back insert must not be visible")
}
