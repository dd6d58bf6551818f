package sqltext

import "strings"

// StripComments removes -- line comments and /* */ block comments from
// SQL text. Comment markers inside quoted literals or quoted identifiers
// are preserved verbatim. A line comment does not consume its trailing
// newline; an unterminated block comment is removed up to end of input.
func StripComments(sql string) string {
	s := newScanner(sql)
	var b strings.Builder
	b.Grow(len(sql))

	for s.i < s.n {
		start := s.i
		switch s.src[s.i] {
		case '\'':
			s.consumeSingleQuoted()
			b.WriteString(s.src[start:s.i])
		case '"':
			s.consumeDelimited('"')
			b.WriteString(s.src[start:s.i])
		case '`':
			s.consumeDelimited('`')
			b.WriteString(s.src[start:s.i])
		case '[':
			s.consumeDelimited(']')
			b.WriteString(s.src[start:s.i])
		case '-':
			if s.peek(1) == '-' {
				s.consumeLineComment()
			} else {
				b.WriteByte('-')
				s.i++
			}
		case '/':
			if s.peek(1) == '*' {
				s.consumeBlockComment()
			} else {
				b.WriteByte('/')
				s.i++
			}
		default:
			b.WriteByte(s.src[s.i])
			s.i++
		}
	}
	return b.String()
}
