package models

import "testing"

func Test_Mangle_Table(t *testing.T) {
	cases := map[string]string{
		"foo":       "foo",
		"foo-bar":   "foo_bar",
		"-foo":      "hyx_XhyphenHminusXfoo",
		"valid?":    "is_valid",
		"_private":  "_private",
		"__dunder":  "__dunder",
		"_-x":       "_hyx_XhyphenHminusXx",
		"*globals*": "GLOBALS",
		"+":         "hyx_Xplus_signX",
		"->":        "hyx_XhyphenHminusXXgreaterHthan_signX",
		"if":        "hyx_if",
		"True":      "True",
		"os.path":   "os.path",
		"a-b.c-d":   "a_b.c_d",
		"α":         "α",
		"☘":         "hyx_XshamrockX",
		"X?":        "is_X",
	}
	for in, want := range cases {
		if got := Mangle(in); got != want {
			t.Errorf("Mangle(%q) = %q, want %q", in, got, want)
		}
	}
}

func Test_Mangle_AlwaysIdentifier(t *testing.T) {
	for _, in := range []string{"+", "-", "*", "**", "a b", "1st", "&rest", "is", "foo!", "\x01"} {
		if got := Mangle(in); !IsIdentifier(got) {
			t.Errorf("Mangle(%q) = %q is not an identifier", in, got)
		}
	}
}

func Test_Mangle_HexFallback(t *testing.T) {
	if got := Mangle("\x01"); got != "hyx_XU1X" {
		t.Fatalf("got %q", got)
	}
}

func Test_Unmangle_RoundTrip(t *testing.T) {
	for _, in := range []string{"foo-bar", "valid?", "+", "->", "-foo", "☘", "if", "\x01"} {
		if got := Unmangle(Mangle(in)); got != in {
			t.Errorf("Unmangle(Mangle(%q)) = %q", in, got)
		}
	}
}

func Test_Unmangle_Earmuffs_StayUpper(t *testing.T) {
	if got := Unmangle(Mangle("*foo*")); got != "FOO" {
		t.Fatalf("got %q", got)
	}
}
