package sqltext

import "testing"

func TestStripComments(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"no comments", "SELECT 1", "SELECT 1"},
		{"line comment", "SELECT 1 -- trailing\nFROM t", "SELECT 1 \nFROM t"},
		{"block comment", "SELECT /* hint */ 1", "SELECT  1"},
		{"multiline block", "SELECT 1 /* a\nb\nc */ FROM t", "SELECT 1  FROM t"},
		{"dashes in literal", "SELECT '--not a comment' FROM t", "SELECT '--not a comment' FROM t"},
		{"block marker in literal", "SELECT '/*x*/' FROM t", "SELECT '/*x*/' FROM t"},
		{"marker in quoted ident", `SELECT "a--b" FROM t`, `SELECT "a--b" FROM t`},
		{"unterminated block", "SELECT 1 /* runs off", "SELECT 1 "},
		{"division survives", "SELECT a/b FROM t", "SELECT a/b FROM t"},
		{"minus survives", "SELECT a-b FROM t", "SELECT a-b FROM t"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := StripComments(tc.in); got != tc.want {
				t.Errorf("StripComments(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}
