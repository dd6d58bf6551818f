package sqltext

import (
	"reflect"
	"strings"
)

// Binding associates a parameter name with the value (or values) bound
// to every occurrence of :name in the SQL text. A slice or array value
// expands to one placeholder per element.
type Binding struct {
	Name  string
	Value interface{}
}

// Rewritten is the result of rewriting named placeholders: SQL with
// every :name replaced by ?, and the flat argument list in placeholder
// order. HasNamed reports whether any named token was found.
type Rewritten struct {
	SQL      string
	Args     []interface{}
	HasNamed bool
}

// Rewrite replaces every :name token in sql with positional ? markers
// and produces the matching argument list. Tokens are recognized only
// outside quoted literals, quoted identifiers and comments; names are
// case-sensitive. A :: sequence (cast syntax) and a colon not followed
// by an identifier are left untouched.
//
// Rewrite fails if a token has no binding, if a binding is never
// referenced, if two bindings carry the same name, if a bound slice is
// empty, or if the text mixes ? markers with named tokens.
func Rewrite(sql string, binds []Binding) (*Rewritten, error) {
	byName := make(map[string]interface{}, len(binds))
	for _, b := range binds {
		if !isValidName(b.Name) {
			return nil, errf("rewrite", -1, "invalid parameter name %q", b.Name)
		}
		if _, dup := byName[b.Name]; dup {
			return nil, errf("rewrite", -1, "parameter %q bound more than once", b.Name)
		}
		byName[b.Name] = b.Value
	}

	s := newScanner(sql)
	var out strings.Builder
	out.Grow(len(sql))
	var args []interface{}
	seen := make(map[string]bool, len(binds))
	positional := 0
	named := 0
	last := 0

	flush := func(upto int) {
		out.WriteString(s.src[last:upto])
		last = upto
	}

	for s.i < s.n {
		if s.skipNonSQL() {
			continue
		}
		switch s.src[s.i] {
		case '?':
			positional++
			s.i++
		case ':':
			if s.peek(1) == ':' { // cast, e.g. x::int
				s.i += 2
				continue
			}
			if !isIdentStart(s.peek(1)) {
				s.i++
				continue
			}
			start := s.i
			s.i++
			for s.i < s.n && isIdentChar(s.src[s.i]) {
				s.i++
			}
			name := s.src[start+1 : s.i]
			val, ok := byName[name]
			if !ok {
				return nil, errf("rewrite", start, "no binding for named parameter :%s", name)
			}
			seen[name] = true
			named++
			flush(start)
			last = s.i
			expanded, err := expand(name, start, val)
			if err != nil {
				return nil, err
			}
			out.WriteString(markers(len(expanded)))
			args = append(args, expanded...)
		default:
			s.i++
		}
	}
	flush(s.n)

	if named > 0 && positional > 0 {
		return nil, errf("rewrite", -1, "cannot mix ? markers with named parameters in one statement")
	}
	for _, b := range binds {
		if !seen[b.Name] {
			return nil, errf("rewrite", -1, "parameter %q is never referenced", b.Name)
		}
	}
	if named == 0 {
		// Identity transform: no named tokens, nothing to rewrite.
		return &Rewritten{SQL: sql}, nil
	}
	return &Rewritten{SQL: out.String(), Args: args, HasNamed: true}, nil
}

// expand turns a bound value into the argument slice for one token
// occurrence: one element for scalars, one per element for slices and
// arrays. []byte stays a single blob value.
func expand(name string, pos int, val interface{}) ([]interface{}, error) {
	if val == nil {
		return []interface{}{nil}, nil
	}
	if _, isBlob := val.([]byte); isBlob {
		return []interface{}{val}, nil
	}
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []interface{}{val}, nil
	}
	if rv.Len() == 0 {
		return nil, errf("rewrite", pos, "parameter %q is bound to an empty collection", name)
	}
	elems := make([]interface{}, rv.Len())
	for i := range elems {
		elems[i] = rv.Index(i).Interface()
	}
	return elems, nil
}

// markers renders n comma-separated ? placeholders.
func markers(n int) string {
	if n == 1 {
		return "?"
	}
	var b strings.Builder
	b.Grow(n * 2)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('?')
	}
	return b.String()
}

func isValidName(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentChar(name[i]) {
			return false
		}
	}
	return true
}
