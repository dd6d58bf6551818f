package sqltext

import (
	"fmt"
	"strings"

	"github.com/ha1tch/tsqlparser"
)

// DefaultDelimiter separates statements in a script unless the caller
// configures another one.
const DefaultDelimiter = ";"

// SplitScript splits a multi-statement script into individual
// statements. Comments are removed first, then the text is split on
// delim wherever it appears outside quoted regions. Empty statements
// (runs of whitespace between delimiters) are dropped.
func SplitScript(script, delim string) []string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	src := StripComments(script)
	s := newScanner(src)
	var stmts []string
	last := 0

	for s.i < s.n {
		if s.skipNonSQL() {
			continue
		}
		if strings.HasPrefix(src[s.i:], delim) {
			if stmt := strings.TrimSpace(src[last:s.i]); stmt != "" {
				stmts = append(stmts, stmt)
			}
			s.i += len(delim)
			last = s.i
			continue
		}
		s.i++
	}
	if stmt := strings.TrimSpace(src[last:]); stmt != "" {
		stmts = append(stmts, stmt)
	}
	return stmts
}

// SplitTSQL splits a T-SQL script into top-level statements using a
// real parser, so that semicolons inside procedure and trigger bodies
// do not break statements apart. When the script does not parse, it
// falls back to delimiter splitting.
func SplitTSQL(script string) []string {
	program, errs := tsqlparser.Parse(script)
	if len(errs) > 0 || program == nil || len(program.Statements) == 0 {
		return SplitScript(script, DefaultDelimiter)
	}
	stmts := make([]string, 0, len(program.Statements))
	for _, stmt := range program.Statements {
		str, ok := stmt.(fmt.Stringer)
		if !ok {
			return SplitScript(script, DefaultDelimiter)
		}
		if text := strings.TrimSpace(str.String()); text != "" {
			stmts = append(stmts, text)
		}
	}
	return stmts
}
