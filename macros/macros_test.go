package macros

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"reflect"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/reader"
)

func mustRead(t *testing.T, src string) models.Model {
	t.Helper()
	forms, err := reader.ParseAll(src, "test.hy")
	if err != nil {
		t.Fatalf("ParseAll(%q): %v", src, err)
	}
	if len(forms) != 1 {
		t.Fatalf("ParseAll(%q): got %d forms, want 1", src, len(forms))
	}
	return forms[0]
}

// mustEval evaluates every form of src in mod and returns the last value.
func mustEval(t *testing.T, c *Context, mod *Module, src string) Any {
	t.Helper()
	forms, err := reader.ParseAll(src, "test.hy")
	if err != nil {
		t.Fatalf("ParseAll(%q): %v", src, err)
	}
	var v Any
	for _, f := range forms {
		if v, err = c.Eval(f, mod); err != nil {
			t.Fatalf("Eval(%s): %v", f.Repr(), err)
		}
	}
	return v
}

func mustExpand(t *testing.T, c *Context, mod *Module, src string) models.Model {
	t.Helper()
	out, err := c.Macroexpand(mustRead(t, src), mod)
	if err != nil {
		t.Fatalf("Macroexpand(%q): %v", src, err)
	}
	return out
}

func newTestContext() (*Context, *Module) {
	c := NewContext(Options{})
	return c, c.Module("__main__")
}

//----------------------------------------------------------------------

func Test_Expand_NonMacroIsFixedPoint(t *testing.T) {
	c, mod := newTestContext()
	for _, src := range []string{"(f 1 2)", "x", "[a b]", "(quote (defmacro/g! x))", "()"} {
		in := mustRead(t, src)
		out, err := c.Macroexpand(in, mod)
		if err != nil {
			t.Fatalf("Macroexpand(%q): %v", src, err)
		}
		if !models.Equal(in, out) {
			t.Fatalf("Macroexpand(%q) = %s, want unchanged", src, out.Repr())
		}
	}
}

func Test_Expand_GoMacro(t *testing.T) {
	c, mod := newTestContext()
	mod.Define("twice", func(call *Call, args []models.Model) (models.Model, error) {
		return models.NewExpression(sym("do"), args[0], args[0]), nil
	})
	out := mustExpand(t, c, mod, "(twice (f))")
	if got, want := out.Repr(), "(do (f) (f))"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	again, err := c.Macroexpand(out, mod)
	if err != nil || !models.Equal(again, out) {
		t.Fatalf("expanding an expansion should be a fixed point, got %v %v", again, err)
	}
}

func Test_Expand_ResultTakesCallPosition(t *testing.T) {
	c, mod := newTestContext()
	mod.Define("mk", func(call *Call, args []models.Model) (models.Model, error) {
		return models.NewExpression(sym("g"), models.NewInteger(1)), nil
	})
	out := mustExpand(t, c, mod, "\n  (mk)")
	if p := out.Position(); p.StartLine != 2 || p.StartColumn != 3 {
		t.Fatalf("position = %+v, want 2:3", p)
	}
	inner := out.(*models.Expression).Elems()[1]
	if p := inner.Position(); p.StartLine != 2 {
		t.Fatalf("nested position = %+v, want line 2", p)
	}
}

func Test_Expand_NilResultIsNone(t *testing.T) {
	c, mod := newTestContext()
	mod.Define("nothing", func(*Call, []models.Model) (models.Model, error) { return nil, nil })
	if got := mustExpand(t, c, mod, "(nothing)"); got.Repr() != "None" {
		t.Fatalf("got %s, want None", got.Repr())
	}
}

func Test_Expand_Macroexpand1StopsAfterOneStep(t *testing.T) {
	c, mod := newTestContext()
	mod.Define("a", func(*Call, []models.Model) (models.Model, error) {
		return models.NewExpression(sym("b")), nil
	})
	mod.Define("b", func(*Call, []models.Model) (models.Model, error) {
		return models.NewExpression(sym("c")), nil
	})
	one, err := c.Macroexpand1(mustRead(t, "(a)"), mod)
	if err != nil || one.Repr() != "(b)" {
		t.Fatalf("Macroexpand1 = %v, %v; want (b)", one, err)
	}
	if all := mustExpand(t, c, mod, "(a)"); all.Repr() != "(c)" {
		t.Fatalf("Macroexpand = %s, want (c)", all.Repr())
	}
}

func Test_Expand_DepthBudget(t *testing.T) {
	c := NewContext(Options{MaxExpansionDepth: 10})
	mod := c.Module("__main__")
	calls := 0
	mod.Define("forever", func(call *Call, args []models.Model) (models.Model, error) {
		calls++
		return models.NewExpression(sym("forever")), nil
	})
	_, err := c.Macroexpand(mustRead(t, "(forever)"), mod)
	var ee *ExpansionError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *ExpansionError, got %T %v", err, err)
	}
	if ee.Macro != "forever" || !strings.Contains(err.Error(), "fixed point") {
		t.Fatalf("unexpected error %v", err)
	}
	if calls != 10 {
		t.Fatalf("macro ran %d times, want 10", calls)
	}
}

func Test_Expand_ErrorsCarryPosition(t *testing.T) {
	c, mod := newTestContext()
	boom := errors.New("boom")
	mod.Define("fails", func(*Call, []models.Model) (models.Model, error) { return nil, boom })
	mod.Define("panics", func(*Call, []models.Model) (models.Model, error) { panic("kaboom") })

	_, err := c.Macroexpand(mustRead(t, "\n\n   (fails x)"), mod)
	var ee *ExpansionError
	if !errors.As(err, &ee) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if ee.Pos.StartLine != 3 || ee.Pos.StartColumn != 4 {
		t.Fatalf("position = %+v, want 3:4", ee.Pos)
	}
	if !strings.HasPrefix(err.Error(), "3:4: expanding `fails'") {
		t.Fatalf("error text %q", err.Error())
	}

	_, err = c.Macroexpand(mustRead(t, "(panics)"), mod)
	if err == nil || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("expected panic turned into error, got %v", err)
	}
}

func Test_Expand_ModuleShadowsCore(t *testing.T) {
	c, mod := newTestContext()
	c.Core().Define("m", func(*Call, []models.Model) (models.Model, error) { return sym("core"), nil })
	if got := mustExpand(t, c, mod, "(m)"); got.Repr() != "core" {
		t.Fatalf("got %s, want core", got.Repr())
	}
	mod.Define("m", func(*Call, []models.Model) (models.Model, error) { return sym("local"), nil })
	if got := mustExpand(t, c, mod, "(m)"); got.Repr() != "local" {
		t.Fatalf("got %s, want local", got.Repr())
	}
}

func Test_Expand_Logger(t *testing.T) {
	var buf bytes.Buffer
	c := NewContext(Options{Logger: log.New(&buf, "", 0)})
	mod := c.Module("__main__")
	mod.Define("x", func(*Call, []models.Model) (models.Model, error) { return sym("y"), nil })
	mustExpand(t, c, mod, "(x)")
	if !strings.Contains(buf.String(), "expand x: y") {
		t.Fatalf("log = %q", buf.String())
	}
}

//----------------------------------------------------------------------

func Test_Gensym_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		g := Gensym("x")
		if seen[g.Name] {
			t.Fatalf("duplicate gensym %s", g.Name)
		}
		seen[g.Name] = true
		if !IsGensym(g) {
			t.Fatalf("IsGensym(%s) = false", g.Name)
		}
	}
	if IsGensym(sym("x")) {
		t.Fatal("IsGensym(x) = true")
	}
}

func Test_Gensym_CannotBeRead(t *testing.T) {
	g := Gensym("tmp")
	forms, err := reader.ParseAll(g.Name, "test.hy")
	if err != nil {
		t.Fatalf("ParseAll(%q): %v", g.Name, err)
	}
	for _, f := range forms {
		if models.Equal(f, g) {
			t.Fatalf("reading %q produced the gensym itself", g.Name)
		}
	}
}

func Test_Gensym_EvaluatorDefault(t *testing.T) {
	c, mod := newTestContext()
	v := mustEval(t, c, mod, "(gensym)")
	s, ok := v.(*models.Symbol)
	if !ok || !strings.HasPrefix(s.Name, "_;G|") {
		t.Fatalf("(gensym) = %v", spew.Sdump(v))
	}
}

//----------------------------------------------------------------------

func Test_Defmacro_Quasiquote(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(defmacro unless [test &rest body] `(if ~test None (do ~@body)))")
	out := mustExpand(t, c, mod, "(unless x (f) (g))")
	if got, want := out.Repr(), "(if x None (do (f) (g)))"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func Test_Defmacro_StringName(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, `(defmacro "my-id" [x] x)`)
	if got := mustExpand(t, c, mod, "(my-id 5)"); got.Repr() != "5" {
		t.Fatalf("got %s", got.Repr())
	}
}

func Test_Defmacro_OptionalAndHelpers(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(eval-and-compile (defn wrap [x] `(box ~x)))\n"+
		"(defmacro boxed [a &optional [b 2]] `[~(wrap a) ~(wrap b)])")
	if got, want := mustExpand(t, c, mod, "(boxed 1)").Repr(), "[(box 1) (box 2)]"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func Test_Defmacro_BodyErrorsAreExpansionErrors(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, `(defmacro bad [] (raise (ValueError "nope")))`)
	_, err := c.Macroexpand(mustRead(t, "(bad)"), mod)
	var ee *ExpansionError
	if !errors.As(err, &ee) || !strings.Contains(err.Error(), "ValueError: nope") {
		t.Fatalf("got %v", err)
	}
	_, err = c.Macroexpand(mustRead(t, "(bad 1 2)"), mod)
	if err == nil || !strings.Contains(err.Error(), "positional arguments") {
		t.Fatalf("arity error expected, got %v", err)
	}
}

func Test_DefmacroG_FreshNamesPerExpansion(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(defmacro/g! swap [a b] `(do (setv ~g!t ~a) (setv ~a ~b) (setv ~b ~g!t)))")
	first := mustExpand(t, c, mod, "(swap x y)").(*models.Expression)
	second := mustExpand(t, c, mod, "(swap x y)").(*models.Expression)

	tmp := func(e *models.Expression) *models.Symbol {
		return e.Elems()[1].(*models.Expression).Elems()[1].(*models.Symbol)
	}
	t1, t2 := tmp(first), tmp(second)
	if !IsGensym(t1) || !IsGensym(t2) || t1.Name == t2.Name {
		t.Fatalf("temporaries %s and %s should be distinct gensyms", t1.Name, t2.Name)
	}
	want := fmt.Sprintf("(do (setv %s x) (setv x y) (setv y %s))", t1.Name, t1.Name)
	if first.Repr() != want {
		t.Fatalf("got %s, want %s", first.Repr(), want)
	}
}

func Test_DefmacroBang_EvaluatesOnce(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(defmacro! dbl [o!x] `(+ ~g!x ~g!x))")
	out := mustExpand(t, c, mod, "(dbl (f))").(*models.Expression)
	el := out.Elems()
	if len(el) != 3 || models.Head(out).Name != "do" {
		t.Fatalf("unexpected shape %s", out.Repr())
	}
	setv := el[1].(*models.Expression).Elems()
	g := setv[1].(*models.Symbol)
	if !IsGensym(g) || setv[2].Repr() != "(f)" {
		t.Fatalf("unexpected binding %s", el[1].Repr())
	}
	if got, want := el[2].Repr(), fmt.Sprintf("(+ %s %s)", g.Name, g.Name); got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func Test_DefmacroBang_WithoutOnceParams(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(defmacro! id2 [x] x)")
	if got := mustExpand(t, c, mod, "(id2 q)"); got.Repr() != "q" {
		t.Fatalf("got %s", got.Repr())
	}
}

func Test_Deftag(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(deftag q [x] `(quote ~x))")
	if got := mustExpand(t, c, mod, "#q foo"); got.Repr() != "'foo" {
		t.Fatalf("got %s, want 'foo", got.Repr())
	}
	_, err := c.Macroexpand(mustRead(t, "#nope x"), mod)
	if err == nil || !strings.Contains(err.Error(), "'#nope' is not a defined tag macro") {
		t.Fatalf("got %v", err)
	}
}

//----------------------------------------------------------------------

func Test_Require_Scoping(t *testing.T) {
	c, mod := newTestContext()
	lib := c.Module("lib")
	mustEval(t, c, lib, "(defmacro foo [] 'from-foo)")
	mustEval(t, c, lib, "(defmacro bar [] 'from-bar)")

	mustEval(t, c, mod, "(require [lib [foo]])")
	if _, ok := mod.Macro("foo"); !ok {
		t.Fatal("foo should be visible after require")
	}
	if _, ok := mod.Macro("bar"); ok {
		t.Fatal("bar should not be visible")
	}
	if got := mustExpand(t, c, mod, "(bar)"); got.Repr() != "(bar)" {
		t.Fatalf("(bar) expanded to %s", got.Repr())
	}

	other := c.Module("other")
	mustEval(t, c, other, "(require lib)")
	if got := mustExpand(t, c, other, "(lib.bar)"); got.Repr() != "from-bar" {
		t.Fatalf("(lib.bar) = %s", got.Repr())
	}
	if _, ok := other.Macro("foo"); ok {
		t.Fatal("unqualified foo leaked into other")
	}
}

func Test_Require_Shapes(t *testing.T) {
	c, mod := newTestContext()
	lib := c.Module("lib")
	mustEval(t, c, lib, "(defmacro foo [] 1) (deftag t [x] x)")

	mustEval(t, c, mod, "(require [lib :as L] [lib [foo :as f]] [lib *])")
	for _, name := range []string{"L.foo", "f", "foo"} {
		if _, ok := mod.Macro(name); !ok {
			t.Fatalf("%s should be defined", name)
		}
	}
	if _, ok := mod.Tag("t"); !ok {
		t.Fatal("tag t should be copied by [lib *]")
	}
	got := c.MacroNames(mod)
	for _, want := range []string{"#t", "L.foo", "defmacro!", "defmacro/g!", "f", "foo"} {
		found := false
		for _, n := range got {
			found = found || n == want
		}
		if !found {
			t.Fatalf("MacroNames = %v, missing %s", got, want)
		}
	}
}

func Test_Require_Errors(t *testing.T) {
	c, mod := newTestContext()
	c.Module("lib")
	for src, want := range map[string]string{
		"(require nowhere)":         "no module named nowhere",
		"(require [lib [missing]])": `cannot require name "missing" from lib`,
		"(require 5)":               "unknown require shape",
	} {
		_, err := c.Eval(mustRead(t, src), mod)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("%s: got %v, want %q", src, err, want)
		}
	}
}

func Test_Require_Loader(t *testing.T) {
	c, mod := newTestContext()
	loads := 0
	c.Loader = func(ctx *Context, name string) (*Module, error) {
		loads++
		m := ctx.Module(name)
		m.Define("hello", func(*Call, []models.Model) (models.Model, error) { return models.NewString("hi"), nil })
		return m, nil
	}
	mustEval(t, c, mod, "(require [greet [hello]])")
	mustEval(t, c, mod, "(require [greet [hello]])")
	if loads != 1 {
		t.Fatalf("loader ran %d times, want 1", loads)
	}
	if got := mustExpand(t, c, mod, "(hello)"); got.Repr() != `"hi"` {
		t.Fatalf("got %s", got.Repr())
	}
}

func Test_Require_Circular(t *testing.T) {
	c, mod := newTestContext()
	c.Loader = func(ctx *Context, name string) (*Module, error) {
		return ctx.Import(name)
	}
	_, err := c.Eval(mustRead(t, "(require a)"), mod)
	if err == nil || !strings.Contains(err.Error(), "circular require") {
		t.Fatalf("got %v", err)
	}
}

func Test_ParseRequire(t *testing.T) {
	forms := mustRead(t, "(require a [b] [c *] [d :as e] [f [g h :as i]])").(*models.Expression)
	specs, err := ParseRequire(forms.Elems()[1:])
	if err != nil {
		t.Fatal(err)
	}
	want := []RequireSpec{
		{Module: "a", Prefix: "a"},
		{Module: "b", Prefix: "b"},
		{Module: "c", Prefix: "c", All: true},
		{Module: "d", Prefix: "e"},
		{Module: "f", Prefix: "f", Names: []Alias{{"g", "g"}, {"h", "i"}}},
	}
	if !reflect.DeepEqual(specs, want) {
		t.Fatalf("got %s", spew.Sdump(specs))
	}
	var rendered []string
	for _, s := range specs {
		rendered = append(rendered, s.String())
	}
	if got := strings.Join(rendered, " "); got != "a b [c *] [d :as e] [f [g h :as i]]" {
		t.Fatalf("String() = %s", got)
	}
}

//----------------------------------------------------------------------

func Test_Eval_QuasiquoteLevels(t *testing.T) {
	c, mod := newTestContext()
	v := mustEval(t, c, mod, "(setv xs [1 2]) `(a ~@xs ~(+ 1 2) `(b ~(c ~@xs)))")
	if got, want := v.(models.Model).Repr(), "(a 1 2 3 `(b ~(c 1 2)))"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
	v = mustEval(t, c, mod, "`(x `(y ~~(+ 1 1)))")
	if got, want := v.(models.Model).Repr(), "(x `(y ~2))"; got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func Test_Eval_Builtins(t *testing.T) {
	c, mod := newTestContext()
	for src, want := range map[string]string{
		"(+ 1 2 3)":                   "6",
		"(- 10)":                      "-10",
		"(* 99999999999 99999999999)": "9999999999800000000001",
		"(// -7 2)":                   "-4",
		"(% -7 2)":                    "1",
		"(/ 1 2)":                     "0.5",
		"(+ [1] [2 3])":               "[1 2 3]",
		`(+ "a" "b")`:                 `"ab"`,
		"(< 1 2 3)":                   "True",
		"(= 'a 'a)":                   "True",
		"(= 1 1.0)":                   "True",
		"(len [1 2 3])":               "3",
		"(first '(a b))":              "a",
		"(rest '(a b c))":             "[b c]",
		"(get [1 2 3] -1)":            "3",
		"(cut [1 2 3 4] 1 3)":         "[2 3]",
		"(cut '(a b c) None None -1)": "(c b a)",
		"(mangle \"foo-bar\")":        `"foo_bar"`,
		"(name :foo)":                 `"foo"`,
		"(lfor x (range 3) :if (!= x 1) (* x x))": "[0 4]",
		"(HyExpression ['f 1])":                   "(f 1)",
		"(symbol? 'a)":                            "True",
		"(.join \"-\" [\"a\" \"b\"])":             `"a-b"`,
		"(.startswith 'foo \"f\")":                "True",
		"(str 1.0)":                               `"1.0"`,
		"(in 2 [1 2])":                            "True",
		"(and 1 None 2)":                          "None",
		"(or None 0 5)":                           "5",
		"(do (setv acc []) (for [i [1 2]] (.append acc i)) acc)":               "[1 2]",
		"((fn [&rest r] r) 1 2)":                                               "[1 2]",
		"(do (defn f [n] (if (< n 2) n (+ (f (- n 1)) (f (- n 2))))) (f 15))":  "610",
		"(do (setv i 0) (while True (setv i (inc i)) (if (> i 3) (break))) i)": "4",
	} {
		v := mustEval(t, c, mod, src)
		m, err := AsModel(v)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		if got := m.Repr(); got != want {
			t.Fatalf("%s = %s, want %s", src, got, want)
		}
	}
}

func Test_Eval_Errors(t *testing.T) {
	c, mod := newTestContext()
	for src, want := range map[string]string{
		"undefined-thing":     "name 'undefined-thing' is not defined",
		"(1 2)":               "HyInteger is not callable",
		"(// 1 0)":            "ZeroDivisionError",
		"(get {} 'k)":         "KeyError",
		"(return 1)":          "'return' outside function",
		"(.frobnicate \"x\")": "method .frobnicate is not available",
	} {
		_, err := c.Eval(mustRead(t, src), mod)
		var ee *EvalError
		if !errors.As(err, &ee) || !strings.Contains(err.Error(), want) {
			t.Fatalf("%s: got %v, want %q", src, err, want)
		}
	}
}

func Test_Eval_GlobalsPersistAcrossForms(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(setv counter 41)")
	mustEval(t, c, mod, "(defn bump [] (+ counter 1))")
	if v := mustEval(t, c, mod, "(bump)"); v.(models.Model).Repr() != "42" {
		t.Fatalf("got %v", v)
	}
	if _, ok := mod.Global("counter"); !ok {
		t.Fatal("counter should be a module global")
	}
}

func Test_Eval_PrintGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	c := NewContext(Options{Logger: log.New(&buf, "", 0)})
	mustEval(t, c, c.Module("m"), `(print "hello" 1 'x)`)
	if !strings.Contains(buf.String(), "hello 1 x") {
		t.Fatalf("log = %q", buf.String())
	}
}

//----------------------------------------------------------------------

func Test_LambdaList(t *testing.T) {
	ll, err := ParseLambdaList(mustRead(t, "[a b &optional c [d 1] &rest r &kwonly e [f 2] &kwargs kw]"))
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, s := range ll.Names() {
		names = append(names, s.Name)
	}
	if got := strings.Join(names, " "); got != "a b c d r e f kw" {
		t.Fatalf("Names() = %s", got)
	}
	if ll.Optional[0].Default.Repr() != "None" || ll.Optional[1].Default.Repr() != "1" {
		t.Fatalf("defaults: %s", spew.Sdump(ll.Optional))
	}
	if ll.KwOnly[0].HasDefault || !ll.KwOnly[1].HasDefault {
		t.Fatalf("kwonly: %s", spew.Sdump(ll.KwOnly))
	}

	for src, want := range map[string]string{
		"(a b)":                 "must be a list",
		"[&rest r &optional a]": "out of order",
		"[&rest]":               "needs a name",
		"[&bogus x]":            "unknown lambda-list keyword",
		"[&kwargs k x]":         "unexpected x",
		"[1]":                   "parameter must be a symbol",
	} {
		_, err := ParseLambdaList(mustRead(t, src))
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("%s: got %v, want %q", src, err, want)
		}
	}
}

func Test_Expand_RecursiveMacroBody(t *testing.T) {
	for _, depth := range []int{0, 25} {
		c := NewContext(Options{MaxExpansionDepth: depth})
		mod := c.Module("__main__")
		mustEval(t, c, mod, "(defmacro m [x] (m x))")
		_, err := c.Macroexpand(mustRead(t, "(m 1)"), mod)
		var ee *ExpansionError
		if !errors.As(err, &ee) || !strings.Contains(err.Error(), "maximum recursion depth") {
			t.Fatalf("depth %d: got %T %v", depth, err, err)
		}
	}
}

func Test_Expand_DepthRecoversAfterError(t *testing.T) {
	c := NewContext(Options{MaxExpansionDepth: 25})
	mod := c.Module("__main__")
	mustEval(t, c, mod, "(defmacro m [x] (m x)) (defmacro ok [] 1)")
	if _, err := c.Macroexpand(mustRead(t, "(m 1)"), mod); err == nil {
		t.Fatal("expected error")
	}
	if got := mustExpand(t, c, mod, "(ok)"); got.Repr() != "1" {
		t.Fatalf("got %s", got.Repr())
	}
}

func Test_Eval_RecursiveClosure(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(defn loop-forever [x] (loop-forever x))")
	_, err := c.Eval(mustRead(t, "(loop-forever 1)"), mod)
	var ev *EvalError
	if !errors.As(err, &ev) || !strings.Contains(err.Error(), "maximum recursion depth") {
		t.Fatalf("got %T %v", err, err)
	}
}

func Test_Defmacro_QuotedLiteralIsFresh(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(defmacro m [] (setv out '[]) (.append out 1) out)")
	first := mustExpand(t, c, mod, "(m)")
	second := mustExpand(t, c, mod, "(m)")
	if first.Repr() != "[1]" || second.Repr() != "[1]" {
		t.Fatalf("first=%s second=%s, want [1] both", first.Repr(), second.Repr())
	}
}

func Test_Defmacro_ArgumentsStayUnchanged(t *testing.T) {
	c, mod := newTestContext()
	mustEval(t, c, mod, "(defmacro grow [xs] (.append xs 9) xs)")
	form := mustRead(t, "(grow [1])")
	out, err := c.Macroexpand(form, mod)
	if err != nil {
		t.Fatal(err)
	}
	if out.Repr() != "[1 9]" || form.Repr() != "(grow [1])" {
		t.Fatalf("out=%s form=%s", out.Repr(), form.Repr())
	}
}

func Test_Eval_KeywordArguments(t *testing.T) {
	c, mod := newTestContext()
	for src, want := range map[string]string{
		"(do (defn f [a &optional [b 2] &kwonly [c 3]] [a b c]) (f 1 :c 5))": "[1 2 5]",
		"(do (defn f [a b] [a b]) (f :b 1 :a 2))":                            "[2 1]",
		`(do (defn f [&kwargs kw] (get kw "y-z")) (f :x 1 :y-z 2))`:          "2",
		`(do (defn f [a &kwonly b] [a b]) (f 1 #** {"b" 4}))`:                "[1 4]",
	} {
		m, err := AsModel(mustEval(t, c, mod, src))
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		if got := m.Repr(); got != want {
			t.Fatalf("%s = %s, want %s", src, got, want)
		}
	}

	for src, want := range map[string]string{
		"(do (defn f [a] a) (f :z 1))":    "unexpected keyword argument 'z'",
		"(do (defn f [a] a) (f 1 :a 2))":  "multiple values for argument 'a'",
		"(do (defn f [&kwonly k] k) (f))": "missing required keyword-only argument 'k'",
		"(do (defn f [a b] a) (f 1))":     "missing required argument(s): b",
		"(do (defn f [a] a) (f 1 :a))":    "keyword argument :a needs a value",
	} {
		_, err := c.Eval(mustRead(t, src), mod)
		if err == nil || !strings.Contains(err.Error(), want) {
			t.Fatalf("%s: got %v, want %q", src, err, want)
		}
	}
}
