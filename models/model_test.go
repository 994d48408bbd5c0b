package models

import (
	"math"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/nukata/goarith"
)

func at(m Model, line, col int) Model {
	m.SetPosition(Pos{StartLine: line, StartColumn: col, EndLine: line, EndColumn: col})
	return m
}

func Test_Models_Equal_IgnoresPositions(t *testing.T) {
	a := NewExpression(at(NewSymbol("foo"), 1, 2), NewInteger(1))
	b := NewExpression(NewSymbol("foo"), at(NewInteger(1), 7, 7))
	if !Equal(a, b) {
		t.Fatalf("expected equal:\n%s\n%s", spew.Sdump(a), spew.Sdump(b))
	}
}

func Test_Models_Equal_VariantsDiffer(t *testing.T) {
	if Equal(NewList(NewSymbol("a")), NewExpression(NewSymbol("a"))) {
		t.Fatal("a List must not equal an Expression")
	}
	if Equal(NewString("a"), NewSymbol("a")) {
		t.Fatal("a String must not equal a Symbol")
	}
	if Equal(NewKeyword("a"), NewString(KeywordPrefix+"a")) {
		t.Fatal("a Keyword must not equal its text encoding")
	}
	if !Equal(&Float{Value: math.NaN()}, &Float{Value: math.NaN()}) {
		t.Fatal("NaN literals should compare equal structurally")
	}
}

func Test_Models_Replace_FillsMissingPositionsOnly(t *testing.T) {
	src := at(NewSymbol("call-site"), 3, 5)
	inner := at(NewSymbol("kept"), 9, 9)
	tree := NewExpression(NewSymbol("new"), NewList(inner))

	tree.Replace(src)

	if got := tree.Position().StartLine; got != 3 {
		t.Fatalf("root line = %d, want 3", got)
	}
	if got := tree.Elems()[0].Position().StartColumn; got != 5 {
		t.Fatalf("child column = %d, want 5", got)
	}
	if got := inner.Position().StartLine; got != 9 {
		t.Fatalf("positioned child was overwritten: line %d", got)
	}
	if !Equal(tree, NewExpression(NewSymbol("new"), NewList(NewSymbol("kept")))) {
		t.Fatal("Replace must not change content")
	}
}

func Test_Models_Concat_KeepsLeftVariant(t *testing.T) {
	left := at(NewExpression(NewSymbol("f")), 2, 1).(*Expression)
	got := Concat(left, NewList(NewInteger(1)), NewSet(NewInteger(2)))
	e, ok := got.(*Expression)
	if !ok {
		t.Fatalf("got %T, want *Expression", got)
	}
	if e.Repr() != "(f 1 2)" {
		t.Fatalf("got %s", e.Repr())
	}
	if e.Position().StartLine != 2 {
		t.Fatal("position of left operand lost")
	}
	if len(left.Elems()) != 1 {
		t.Fatal("Concat mutated its operand")
	}
}

func Test_Models_Repr(t *testing.T) {
	cases := []struct {
		m    Model
		want string
	}{
		{NewExpression(NewSymbol("quote"), NewSymbol("x")), "'x"},
		{NewExpression(NewSymbol("unquote-splice"), NewList()), "~@[]"},
		{NewDict(NewKeyword("a"), NewInteger(1)), "{:a 1}"},
		{NewSet(), "#{}"},
		{NewString("a\"b\n"), `"a\"b\n"`},
		{&String{Value: "x]y", Brackets: "f", HasBrackets: true}, "#[f[x]y]f]"},
		{&Bytes{Value: []byte{'h', 0, 0xff}}, `b"h\x00\xff"`},
		{&Float{Value: 2}, "2.0"},
		{&Float{Value: math.Inf(-1)}, "-Inf"},
		{&Complex{Value: complex(1, -2)}, "1.0-2.0j"},
		{&Complex{Value: complex(0, 3)}, "3.0j"},
		{NewExpression(NewSymbol("dispatch-tag-macro"), NewString("t"), NewSymbol("x")), "#t x"},
	}
	for _, c := range cases {
		if got := c.m.Repr(); got != c.want {
			t.Errorf("Repr(%s) = %q, want %q", spew.Sdump(c.m), got, c.want)
		}
	}
}

func Test_Models_Integer_Number(t *testing.T) {
	i := NewInteger(40)
	sum := goarith.AsNumber(2).Add(i.Number())
	if sum.String() != "42" {
		t.Fatalf("got %s", sum.String())
	}
}

func Test_Models_Keyword_Text(t *testing.T) {
	if got := NewKeyword("foo").Text(); got != "\ufdd0:foo" {
		t.Fatalf("got %q", got)
	}
}

func Test_Models_Copy_RebuildsSequences(t *testing.T) {
	inner := NewList(NewInteger(1))
	orig := at(NewExpression(NewSymbol("f"), inner), 3, 4)
	cp := Copy(orig).(*Expression)
	if !Equal(cp, orig) || cp.Position() != orig.Position() {
		t.Fatalf("copy differs:\n%s", spew.Sdump(cp))
	}
	cp.Elems()[1].(*List).elems[0] = NewInteger(2)
	if inner.Elems()[0].(*Integer).Value.Int64() != 1 {
		t.Fatalf("changing the copy changed the original:\n%s", spew.Sdump(orig))
	}
}
