package fluent

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/buckelieg/fluentsql/adapter"
	"github.com/buckelieg/fluentsql/mock"
	"github.com/buckelieg/fluentsql/param"
)

func newTestDB(t *testing.T, m *mock.Mock) *DB {
	t.Helper()
	return New(adapter.Static(m.DB(), "mock", "mock"))
}

func TestSelect_ForEach(t *testing.T) {
	m := mock.New()
	m.ExpectQuery("SELECT").WillReturnRows(
		[]string{"id", "name"},
		[][]driver.Value{{int64(1), "a"}, {int64(2), "b"}},
	)
	db := newTestDB(t, m)

	var names []string
	err := db.Select("SELECT id, name FROM users").ForEach(context.Background(), func(r Row) error {
		v, err := r.GetByName("name")
		if err != nil {
			return err
		}
		names = append(names, v.(string))
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, names)
	require.NoError(t, m.ExpectationsMet())
}

func TestSelect_NamedParameterRewrite(t *testing.T) {
	m := mock.New()
	m.ExpectQuery("").WillReturnRows([]string{"id"}, nil)
	db := newTestDB(t, m)

	err := db.Select("SELECT id FROM users WHERE name = :name", Named("name", "X")).
		ForEach(context.Background(), func(Row) error { return nil })
	require.NoError(t, err)

	calls := m.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "SELECT id FROM users WHERE name = ?", calls[0].SQL)
	require.Equal(t, []driver.Value{"X"}, calls[0].Args)
}

func TestSelect_MixedStylesRejected(t *testing.T) {
	m := mock.New()
	db := newTestDB(t, m)

	err := db.Select("SELECT 1 WHERE a = ? AND b = :b", 1, Named("b", 2)).
		ForEach(context.Background(), func(Row) error { return nil })
	require.Error(t, err)
	require.True(t, IsConfigError(err))
	require.Empty(t, m.Calls(), "no statement may reach the driver")
}

func TestSelect_MaxRows(t *testing.T) {
	m := mock.New()
	m.ExpectQuery("").WillReturnRows(
		[]string{"id"},
		[][]driver.Value{{int64(1)}, {int64(2)}, {int64(3)}},
	)
	db := newTestDB(t, m)

	count := 0
	err := db.Select("SELECT id FROM t").MaxRows(2).
		ForEach(context.Background(), func(Row) error { count++; return nil })
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestSelect_ConsumerErrorAborts(t *testing.T) {
	m := mock.New()
	m.ExpectQuery("").WillReturnRows(
		[]string{"id"},
		[][]driver.Value{{int64(1)}, {int64(2)}},
	)
	db := newTestDB(t, m)

	boom := errors.New("boom")
	err := db.Select("SELECT id FROM t").
		ForEach(context.Background(), func(Row) error { return boom })
	require.ErrorIs(t, err, boom)
}

func TestSelect_ClosedIsTerminal(t *testing.T) {
	m := mock.New()
	m.ExpectQuery("").WillReturnRows([]string{"id"}, nil)
	db := newTestDB(t, m)

	sel := db.Select("SELECT id FROM t")
	require.NoError(t, sel.ForEach(context.Background(), func(Row) error { return nil }))

	err := sel.ForEach(context.Background(), func(Row) error { return nil })
	require.ErrorIs(t, err, ErrClosed)
}

func TestSelect_Helpers(t *testing.T) {
	ctx := context.Background()
	mapper := func(r Row) (int64, error) {
		v, err := r.Get(0)
		if err != nil {
			return 0, err
		}
		return v.(int64), nil
	}

	m := mock.New()
	m.ExpectQuery("").WillReturnRows([]string{"id"},
		[][]driver.Value{{int64(1)}, {int64(2)}})
	db := newTestDB(t, m)
	got, err := List(ctx, db.Select("SELECT id FROM t"), mapper)
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, got)

	m = mock.New()
	m.ExpectQuery("").WillReturnRows([]string{"id"}, [][]driver.Value{{int64(9)}})
	db = newTestDB(t, m)
	first, ok, err := First(ctx, db.Select("SELECT id FROM t"), mapper)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(9), first)

	m = mock.New()
	m.ExpectQuery("").WillReturnRows([]string{"id"}, nil)
	db = newTestDB(t, m)
	_, err = Single(ctx, db.Select("SELECT id FROM t"), mapper)
	require.Error(t, err)

	m = mock.New()
	m.ExpectQuery("").WillReturnRows([]string{"id"},
		[][]driver.Value{{int64(1)}, {int64(2)}})
	db = newTestDB(t, m)
	_, err = Single(ctx, db.Select("SELECT id FROM t"), mapper)
	require.Error(t, err)
}

func TestUpdate_NamedInsert(t *testing.T) {
	m := mock.New()
	m.ExpectExec("INSERT").WillReturnResult(1, 1)
	db := newTestDB(t, m)

	n, err := db.Update("INSERT INTO users(name) VALUES(:name)", Named("name", "X")).
		Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	calls := m.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "INSERT INTO users(name) VALUES(?)", calls[0].SQL)
	require.Equal(t, []driver.Value{"X"}, calls[0].Args)
}

func TestUpdate_BatchSumsCounts(t *testing.T) {
	for _, batched := range []bool{true, false} {
		m := mock.New()
		for i := 0; i < 3; i++ {
			m.ExpectExec("INSERT").WillReturnResult(1, int64(i+1))
		}
		db := newTestDB(t, m)

		n, err := db.Update("INSERT INTO t(a) VALUES(?)").
			Batched(batched).
			WithBatch([]interface{}{1}, []interface{}{2}, []interface{}{3}).
			Execute(context.Background())
		require.NoError(t, err, "batched=%v", batched)
		require.Equal(t, int64(3), n, "batched=%v", batched)
		require.NoError(t, m.ExpectationsMet())
	}
}

func TestUpdate_SingleElementBatch(t *testing.T) {
	for _, batched := range []bool{true, false} {
		m := mock.New()
		m.ExpectExec("UPDATE").WillReturnResult(2, 0)
		db := newTestDB(t, m)

		n, err := db.Update("UPDATE t SET a = ?").
			Batched(batched).
			WithBatch([]interface{}{1}).
			Execute(context.Background())
		require.NoError(t, err)
		require.Equal(t, int64(2), n)
	}
}

func TestUpdate_ReturningKeys(t *testing.T) {
	m := mock.New()
	m.ExpectExec("INSERT").WillReturnResult(1, 41)
	m.ExpectExec("INSERT").WillReturnResult(1, 42)
	db := newTestDB(t, m)

	var keys []int64
	n, err := db.Update("INSERT INTO t(a) VALUES(?)").
		WithBatch([]interface{}{1}, []interface{}{2}).
		ExecuteReturningKeys(context.Background(), func(r Row) error {
			v, err := r.Get(0)
			if err != nil {
				return err
			}
			keys = append(keys, v.(int64))
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, []int64{41, 42}, keys)
}

func TestUpdate_ReturningKeysPostgres(t *testing.T) {
	m := mock.New()
	m.ExpectQuery("RETURNING").WillReturnRows([]string{"id"},
		[][]driver.Value{{int64(7)}})
	db := New(adapter.Static(m.DB(), "mock", "postgres"))

	var keys []int64
	_, err := db.Update("INSERT INTO t(a) VALUES(?) RETURNING id", 1).
		ExecuteReturningKeys(context.Background(), func(r Row) error {
			v, err := r.Get(0)
			if err != nil {
				return err
			}
			keys = append(keys, v.(int64))
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, []int64{7}, keys)
}

func TestUpdate_ReturningKeysPostgresBatch(t *testing.T) {
	m := mock.New()
	m.ExpectQuery("RETURNING").WillReturnRows([]string{"id"},
		[][]driver.Value{{int64(7)}})
	m.ExpectQuery("RETURNING").WillReturnRows([]string{"id"},
		[][]driver.Value{{int64(8)}})
	db := New(adapter.Static(m.DB(), "mock", "postgres"))

	var keys []int64
	n, err := db.Update("INSERT INTO t(a) VALUES(?) RETURNING id").
		WithBatch([]interface{}{1}, []interface{}{2}).
		ExecuteReturningKeys(context.Background(), func(r Row) error {
			v, err := r.Get(0)
			if err != nil {
				return err
			}
			keys = append(keys, v.(int64))
			return nil
		})
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	require.Equal(t, []int64{7, 8}, keys, "key order follows set submission order")
	require.NoError(t, m.ExpectationsMet())

	calls := m.Calls()
	require.Len(t, calls, 2, "one execution per parameter set")
	require.Equal(t, []driver.Value{int64(1)}, calls[0].Args)
	require.Equal(t, []driver.Value{int64(2)}, calls[1].Args)
}

func TestUpdate_Timeout(t *testing.T) {
	m := mock.New()
	m.ExpectExec("")
	db := newTestDB(t, m)

	_, err := db.Update("UPDATE t SET a = 1").
		Timeout(time.Nanosecond).
		Execute(context.Background())
	require.Error(t, err)
	require.True(t, IsTimeout(err))
}

func TestTransaction_CommitAndRollback(t *testing.T) {
	m := mock.New()
	m.ExpectExec("INSERT").WillReturnResult(1, 1)
	db := newTestDB(t, m)

	err := db.InTransaction(context.Background(), func(tx *Tx) error {
		_, err := tx.Update("INSERT INTO t(a) VALUES(?)", 1).Execute(context.Background())
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Commits())
	require.Equal(t, 0, m.Rollbacks())

	m = mock.New()
	m.ExpectExec("INSERT").WillReturnResult(1, 1)
	db = newTestDB(t, m)
	boom := errors.New("boom")
	err = db.InTransaction(context.Background(), func(tx *Tx) error {
		if _, err := tx.Update("INSERT INTO t(a) VALUES(?)", 1).Execute(context.Background()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, m.Commits())
	require.Equal(t, 1, m.Rollbacks())
}

func TestTransaction_NestedReusesScope(t *testing.T) {
	m := mock.New()
	m.ExpectExec("UPDATE").WillReturnResult(1, 0)
	db := newTestDB(t, m)

	err := db.InTransaction(context.Background(), func(tx *Tx) error {
		return tx.InTransaction(context.Background(), func(inner *Tx) error {
			_, err := inner.Update("UPDATE t SET a = 1").Execute(context.Background())
			return err
		})
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Begins(), "nested call must not open a second transaction")
	require.Equal(t, 1, m.Commits())
}

func TestInNewTransaction_SharedHandleSurvives(t *testing.T) {
	m := mock.New()
	m.ExpectExec("INSERT").WillReturnResult(1, 1)
	m.ExpectExec("UPDATE").WillReturnResult(1, 0)
	db := newTestDB(t, m)

	err := db.InNewTransaction(context.Background(), func(tx *Tx) error {
		_, err := tx.Update("INSERT INTO t(a) VALUES(?)", 1).Execute(context.Background())
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, m.Commits())

	// The shared handle must still be usable afterwards.
	_, err = db.Update("UPDATE t SET a = 2").Execute(context.Background())
	require.NoError(t, err)
	require.NoError(t, m.ExpectationsMet())
}

func TestScript_SkipErrors(t *testing.T) {
	m := mock.New()
	m.ExpectExec("CREATE")
	m.ExpectExec("").WillReturnError(errors.New("syntax error"))
	m.ExpectExec("INSERT INTO t VALUES (2)")
	db := newTestDB(t, m)

	var handled []int
	err := db.Script("CREATE TABLE t (id INTEGER); BOGUS STATEMENT; INSERT INTO t VALUES (2)").
		SkipErrors(func(i int, stmt string, err error) {
			handled = append(handled, i)
		}).
		Execute(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1}, handled, "handler invoked exactly once, for the middle statement")
	require.Len(t, m.Calls(), 3, "third statement still executed")
	require.Equal(t, 1, m.Commits())
}

func TestScript_AbortsWithoutSkip(t *testing.T) {
	m := mock.New()
	m.ExpectExec("CREATE")
	m.ExpectExec("").WillReturnError(errors.New("syntax error"))
	db := newTestDB(t, m)

	err := db.Script("CREATE TABLE t (id INTEGER); BOGUS; INSERT INTO t VALUES (2)").
		Execute(context.Background())
	require.Error(t, err)
	require.Len(t, m.Calls(), 2, "execution stops at the failure")
	require.Equal(t, 1, m.Rollbacks())
}

func TestScriptFile_Missing(t *testing.T) {
	m := mock.New()
	db := newTestDB(t, m)

	err := db.ScriptFile("/definitely/not/there.sql").Execute(context.Background())
	require.Error(t, err)
	require.True(t, IsConfigError(err))
}

func TestProcedure_RejectsNonCallSyntax(t *testing.T) {
	m := mock.New()
	db := newTestDB(t, m)

	_, err := db.Procedure("SELECT * FROM t").Call(context.Background())
	require.Error(t, err)
	require.True(t, IsConfigError(err))
	require.Empty(t, m.Calls())
}

func TestProcedure_CallReturnsOutValues(t *testing.T) {
	m := mock.New()
	m.ExpectExec("call").WillReturnResult(0, 0).WillReturnOut("total", int64(3))
	db := newTestDB(t, m)

	out, err := db.Procedure("{call stats(?, ?)}",
		param.In("user1"),
		param.Out("total", param.TypeBigInt),
	).Call(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(3), out["total"])
	require.NoError(t, m.ExpectationsMet())
}

func TestProcedure_RejectsInvalidDescriptor(t *testing.T) {
	m := mock.New()
	db := newTestDB(t, m)

	_, err := db.Procedure("{call p(?)}", param.Out("x", param.TypeUnknown)).
		Call(context.Background())
	require.Error(t, err)
	require.True(t, IsConfigError(err))
	require.Empty(t, m.Calls())
}

func TestProcedure_Call(t *testing.T) {
	m := mock.New()
	m.ExpectExec("call").WillReturnResult(0, 0)
	db := newTestDB(t, m)

	out, err := db.Procedure("{call audit_login(?)}", param.In("user1")).
		Call(context.Background())
	require.NoError(t, err)
	require.Empty(t, out)

	calls := m.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []driver.Value{"user1"}, calls[0].Args)
}
