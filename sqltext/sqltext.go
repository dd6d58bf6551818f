// Package sqltext analyzes raw SQL text before it reaches a driver:
// it strips comments, splits scripts into statements, classifies
// stored-procedure call syntax, and rewrites named placeholders into
// positional ones.
//
// All functions operate on plain strings and perform no I/O. Errors
// reported by this package describe problems with the SQL text or its
// bindings and are always raised before any statement is prepared.
package sqltext

import "fmt"

// Error reports a problem found while analyzing SQL text.
type Error struct {
	Op  string // operation that failed: "rewrite", "call", "split"
	Msg string // human-readable description
	Pos int    // byte offset in the input where detected, -1 if not positional
}

func (e *Error) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("sqltext: %s: %s (at offset %d)", e.Op, e.Msg, e.Pos)
	}
	return fmt.Sprintf("sqltext: %s: %s", e.Op, e.Msg)
}

func errf(op string, pos int, format string, args ...interface{}) *Error {
	return &Error{Op: op, Msg: fmt.Sprintf(format, args...), Pos: pos}
}

// scanner walks SQL text byte by byte, skipping over quoted regions and
// comments so that callers only ever see bytes that are live SQL.
type scanner struct {
	src string
	n   int
	i   int
}

func newScanner(src string) *scanner {
	return &scanner{src: src, n: len(src)}
}

// skipNonSQL advances past a quoted region or comment starting at the
// current position. It reports whether anything was consumed.
func (s *scanner) skipNonSQL() bool {
	switch s.src[s.i] {
	case '\'':
		s.consumeSingleQuoted()
	case '"':
		s.consumeDelimited('"')
	case '`':
		s.consumeDelimited('`')
	case '[':
		s.consumeDelimited(']')
	case '-':
		if s.peek(1) == '-' {
			s.consumeLineComment()
		} else {
			return false
		}
	case '/':
		if s.peek(1) == '*' {
			s.consumeBlockComment()
		} else {
			return false
		}
	default:
		return false
	}
	return true
}

func (s *scanner) peek(k int) byte {
	if s.i+k < s.n {
		return s.src[s.i+k]
	}
	return 0
}

// consumeSingleQuoted consumes a single-quoted literal, honoring the
// standard '' escape.
func (s *scanner) consumeSingleQuoted() {
	s.i++
	for s.i < s.n {
		if s.src[s.i] == '\'' {
			if s.peek(1) == '\'' {
				s.i += 2
				continue
			}
			s.i++
			return
		}
		s.i++
	}
}

// consumeDelimited consumes up to and including the closing delimiter.
func (s *scanner) consumeDelimited(close byte) {
	s.i++
	for s.i < s.n {
		if s.src[s.i] == close {
			s.i++
			return
		}
		s.i++
	}
}

func (s *scanner) consumeLineComment() {
	for s.i < s.n && s.src[s.i] != '\n' {
		s.i++
	}
}

// consumeBlockComment consumes a /* */ comment. An unterminated comment
// consumes the rest of the input.
func (s *scanner) consumeBlockComment() {
	s.i += 2
	for s.i < s.n {
		if s.src[s.i] == '*' && s.peek(1) == '/' {
			s.i += 2
			return
		}
		s.i++
	}
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentChar(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
