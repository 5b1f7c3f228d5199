package validation

import (
	"strings"
	"testing"
)

func TestValidScope_Valid(t *testing.T) {
	valids := []string{
		"",
		"openid",
		"openid profile email",
		"profile:read",
		"https://api.example.com/read",
		"a_b-c.d:scope2",
		"!#[]~",
	}
	for _, v := range valids {
		if !ValidScope(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidScope_Invalid(t *testing.T) {
	invalids := []string{
		" openid",        // leading space
		"openid ",        // trailing space
		"openid  email",  // double space
		`quote"d`,        // dquote
		`back\slash`,     // backslash
		"tab\tsep",       // control
		"ñandú",          // non-ascii
	}
	for _, v := range invalids {
		if ValidScope(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidClientID(t *testing.T) {
	for _, v := range []string{"web", "rs-1", "client with space", strings.Repeat("a", 255)} {
		if !ValidClientID(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	for _, v := range []string{"", " lead", "trail ", strings.Repeat("a", 256), "tab\t"} {
		if ValidClientID(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}
