// Package fluent is a functional-style convenience facade over
// database/sql: queries, updates, stored procedures and scripts are
// expressed as fluent objects with named parameters, lazy row streams,
// generated-key retrieval and transaction scoping, while the facade
// takes care of connection, statement and row-set bookkeeping.
package fluent

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/buckelieg/fluentsql/sqltext"
)

// ErrReadOnly is returned by every mutating method of a read-only row
// view.
var ErrReadOnly = fmt.Errorf("fluent: row view is read-only")

// ErrClosed is returned when a closed query object is executed again;
// a closed query is terminal.
var ErrClosed = fmt.Errorf("fluent: query is closed")

// ConfigError reports invalid caller input: bad named parameters,
// malformed procedure-call syntax, mixed placeholder styles, invalid
// descriptors. It is always raised before any driver interaction.
type ConfigError struct {
	msg   string
	cause error
}

func configErr(format string, args ...interface{}) *ConfigError {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

func configWrap(err error) *ConfigError {
	return &ConfigError{msg: err.Error(), cause: err}
}

func (e *ConfigError) Error() string {
	return "fluent: " + e.msg
}

func (e *ConfigError) Unwrap() error {
	return e.cause
}

// DataError wraps any failure surfaced by the driver during prepare,
// execute or fetch. The original cause is preserved.
type DataError struct {
	cause error
}

func dataErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return &DataError{cause: errors.Wrap(err, op)}
}

func (e *DataError) Error() string {
	return "fluent: " + e.cause.Error()
}

func (e *DataError) Unwrap() error {
	return e.cause
}

// Cause returns the underlying driver error.
func (e *DataError) Cause() error {
	return errors.Cause(e.cause)
}

// IsConfigError reports whether err belongs to the configuration error
// class, including errors raised by the SQL text analyzer.
func IsConfigError(err error) bool {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return true
	}
	var te *sqltext.Error
	return errors.As(err, &te)
}

// IsTimeout reports whether err is a data-access error caused by an
// elapsed statement deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
