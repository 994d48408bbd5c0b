package hy

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/nukata/hy-in-go/compiler"
	"github.com/nukata/hy-in-go/macros"
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/reader"
)

func mustParseOne(t *testing.T, src string) models.Model {
	t.Helper()
	forms, err := ParseAll(src, "t.hy")
	if err != nil || len(forms) != 1 {
		t.Fatalf("ParseAll(%q) = %s, %v", src, spew.Sdump(forms), err)
	}
	return forms[0]
}

func Test_Hy2Py_Program(t *testing.T) {
	got, err := Hy2Py("(setv x (+ 1 2))\n(print x)\n", "t.hy", macros.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if want := "x = 1 + 2\nprint(x)\n"; got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func Test_Hy2Py_StopsAtParseError(t *testing.T) {
	_, err := Hy2Py("(print 1) (print", "t.hy", macros.Options{})
	var pe *reader.ParseError
	if !errors.As(err, &pe) || !reader.IsIncomplete(err) {
		t.Fatalf("got %T %v, want an incomplete *reader.ParseError", err, err)
	}
}

func Test_Read_OneFormAtATime(t *testing.T) {
	r := reader.NewReader("(a 1) b ; trailing comment\n", "t.hy")
	first, err := Read(r)
	if err != nil {
		t.Fatal(err)
	}
	want := models.NewExpression(models.NewSymbol("a"), models.NewInteger(1))
	if !models.Equal(first, want) {
		t.Fatalf("first form:\n%s", spew.Sdump(first))
	}
	second, err := Read(r)
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := second.(*models.Symbol); !ok || s.Name != "b" {
		t.Fatalf("second form:\n%s", spew.Sdump(second))
	}
	if _, err := Read(r); err != io.EOF {
		t.Fatalf("got %v, want io.EOF", err)
	}
}

func Test_Macroexpand_Core(t *testing.T) {
	ctx := NewContext(macros.Options{})
	got, err := Macroexpand(ctx, mustParseOne(t, "(when a b c)"), MainModule)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustParseOne(t, "(if a (do b c))"); !models.Equal(got, want) {
		t.Fatalf("got\n%s", spew.Sdump(got))
	}

	got, err = Macroexpand(ctx, mustParseOne(t, "(-> x (f 1) g)"), MainModule)
	if err != nil {
		t.Fatal(err)
	}
	if want := mustParseOne(t, "(g (f x 1))"); !models.Equal(got, want) {
		t.Fatalf("got\n%s", spew.Sdump(got))
	}
}

func Test_Macroexpand_LeavesNonMacros(t *testing.T) {
	ctx := NewContext(macros.Options{})
	form := mustParseOne(t, "(print (when a b))")
	got, err := Macroexpand(ctx, form, MainModule)
	if err != nil {
		t.Fatal(err)
	}
	if !models.Equal(got, form) {
		t.Fatalf("got\n%s", spew.Sdump(got))
	}
}

func Test_MacroNames_CoreAndModule(t *testing.T) {
	ctx := NewContext(macros.Options{})
	if _, err := Compile(ctx, MainModule, mustParseOne(t, "(defmacro my-mac [] 1)")); err != nil {
		t.Fatal(err)
	}
	names := MacroNames(ctx, MainModule)
	for _, want := range []string{"my-mac", "when", "->", "cond"} {
		found := false
		for _, n := range names {
			found = found || n == want
		}
		if !found {
			t.Fatalf("%q missing from %s", want, spew.Sdump(names))
		}
	}
	other := MacroNames(ctx, "other")
	for _, n := range other {
		if n == "my-mac" {
			t.Fatalf("macro leaked into another module: %s", spew.Sdump(other))
		}
	}
}

func Test_FormatError_Parse(t *testing.T) {
	src := "(setv x 1)\n(foo x))\n(bar)"
	_, err := ParseAll(src, "f.hy")
	if err == nil {
		t.Fatal("expected error")
	}
	got := FormatError(err, "f.hy", src)
	want := "PARSE ERROR in f.hy at 2:8: unexpected closing delimiter \")\"\n\n" +
		"   1 | (setv x 1)\n" +
		"   2 | (foo x))\n" +
		"     |        ^\n" +
		"   3 | (bar)\n"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func Test_FormatError_Compile(t *testing.T) {
	src := "(setv x 1)\n  (setv 1 2)"
	_, err := Hy2Py(src, "t.hy", macros.Options{})
	var ce *compiler.CompilerError
	if !errors.As(err, &ce) {
		t.Fatalf("got %T %v", err, err)
	}
	got := FormatError(err, "t.hy", src)
	want := "COMPILE ERROR in t.hy at 2:9: Can't assign to 1\n\n" +
		"   1 | (setv x 1)\n" +
		"   2 |   (setv 1 2)\n" +
		"     |         ^\n"
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func Test_FormatError_Expansion(t *testing.T) {
	src := "(defmacro m [x] (undefined-fn))\n(m 1)"
	_, err := Hy2Py(src, "t.hy", macros.Options{})
	got := FormatError(err, "t.hy", src)
	if !strings.HasPrefix(got, "MACRO EXPANSION ERROR in t.hy at 2:1: expanding `m': ") {
		t.Fatalf("got\n%s", got)
	}
	if !strings.Contains(got, "   2 | (m 1)\n     | ^\n") {
		t.Fatalf("excerpt missing:\n%s", got)
	}
}

func Test_FormatError_NoPosition(t *testing.T) {
	got := FormatError(&macros.ImportError{Module: "nowhere"}, "", "")
	if want := "IMPORT ERROR in <string>: no module named nowhere\n"; got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	got = FormatError(errors.New("plain"), "x.hy", "")
	if want := "ERROR in x.hy: plain\n"; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %q, want %q", got, want)
	}
}
