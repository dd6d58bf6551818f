package fluent

import (
	"context"
	"os"
	"time"

	"github.com/buckelieg/fluentsql/sqltext"
)

// ErrorHandler receives a failed script statement: its 0-based index,
// its text and the failure. Installed via SkipErrors.
type ErrorHandler func(index int, stmt string, err error)

// Script executes a multi-statement SQL text sequentially within one
// transaction. By default the first failing statement aborts the whole
// script; with SkipErrors installed, failures are redirected to the
// handler and execution continues.
type Script struct {
	db        *DB
	tx        runner
	text      string
	delimiter string
	skip      ErrorHandler
	tsql      bool
	timeout   time.Duration
	err       error
}

// loadFile replaces the script text with the file's contents.
func (s *Script) loadFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.err = configErr("reading script %s: %v", path, err)
		return
	}
	s.text = string(data)
}

// Delimiter sets the statement separator (default ";").
func (s *Script) Delimiter(d string) *Script {
	s.delimiter = d
	return s
}

// SkipErrors installs the per-statement error handler; failed
// statements are reported to it and the script continues.
func (s *Script) SkipErrors(h ErrorHandler) *Script {
	s.skip = h
	return s
}

// TSQL splits the script with the T-SQL parser, so semicolons inside
// procedure bodies do not break statements apart.
func (s *Script) TSQL() *Script {
	s.tsql = true
	return s
}

// Timeout sets a deadline for the whole script.
func (s *Script) Timeout(d time.Duration) *Script {
	s.timeout = d
	return s
}

// Execute splits the script and runs every statement in order. Outside
// an existing transaction scope a new transaction wraps the whole
// script: aborting failures roll it back, completion commits it.
func (s *Script) Execute(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	var statements []string
	if s.tsql {
		statements = sqltext.SplitTSQL(s.text)
	} else {
		statements = sqltext.SplitScript(s.text, s.delimiter)
	}
	if len(statements) == 0 {
		return nil
	}

	cancel := func() {}
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
	}
	defer cancel()

	if s.tx != nil {
		return s.run(ctx, s.tx, statements)
	}
	return s.db.InTransaction(ctx, func(tx *Tx) error {
		return s.run(ctx, tx.tx, statements)
	})
}

func (s *Script) run(ctx context.Context, r runner, statements []string) error {
	for i, stmt := range statements {
		start := time.Now()
		_, err := r.ExecContext(ctx, stmt)
		s.db.trace(ctx, stmt, nil, start, err)
		if err == nil {
			continue
		}
		if s.skip != nil {
			s.skip(i, stmt, err)
			continue
		}
		return dataErr(err, "executing script statement")
	}
	return nil
}
