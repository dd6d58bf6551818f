package sqltext

import "regexp"

// callPattern matches the recognized stored-procedure invocation forms:
//
//	{call proc(...)}    {? = call proc(...)}
//	call proc(...)      ? = call proc(...)
//
// The procedure name may be qualified with dotted schema/package parts;
// consecutive dots never match, so "a..b" is rejected. Groups: 1 opening
// brace, 3 closing brace.
var callPattern = regexp.MustCompile(
	`(?is)^\s*(\{)?\s*(?:\?\s*=\s*)?call\s+[\w$]+(?:\.[\w$]+)*\s*(?:\((.*)\))?\s*(\})?\s*$`)

// IsProcedureCall reports whether sql is a stored-procedure invocation
// rather than a plain statement. The decision is purely syntactic and
// has no side effects; an opening brace without its closing brace (or
// the reverse) does not classify as a call.
func IsProcedureCall(sql string) bool {
	m := callPattern.FindStringSubmatch(sql)
	if m == nil {
		return false
	}
	// Braces must pair up: either the full escape form or the bare form.
	return (m[1] == "") == (m[3] == "")
}
