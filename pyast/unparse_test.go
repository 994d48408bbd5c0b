package pyast

import (
	"math"
	"math/big"
	"strings"
	"testing"
)

func name(id string) *Name { return &Name{Id: id} }
func num(i int64) *Int     { return &Int{Value: big.NewInt(i)} }
func bin(l Expr, op string, r Expr) *BinOp {
	return &BinOp{Left: l, Op: op, Right: r}
}
func call(f Expr, args ...Expr) *Call { return &Call{Func: f, Args: args} }

func wantExpr(t *testing.T, e Expr, want string) {
	t.Helper()
	if got := Unparse(e); got != want {
		t.Fatalf("Unparse:\ngot  %s\nwant %s", got, want)
	}
}

func wantStmts(t *testing.T, want string, body ...Stmt) {
	t.Helper()
	if got := Unparse(&Module{Body: body}); got != want {
		t.Fatalf("Unparse:\ngot\n%s\nwant\n%s", got, want)
	}
}

//----------------------------------------------------------------------

func Test_Unparse_Precedence(t *testing.T) {
	wantExpr(t, bin(bin(name("a"), "+", name("b")), "*", name("c")), "(a + b) * c")
	wantExpr(t, bin(name("a"), "-", bin(name("b"), "-", name("c"))), "a - (b - c)")
	wantExpr(t, bin(bin(name("a"), "-", name("b")), "-", name("c")), "a - b - c")
	wantExpr(t, bin(name("a"), "**", bin(name("b"), "**", name("c"))), "a ** b ** c")
	wantExpr(t, bin(bin(name("a"), "**", name("b")), "**", name("c")), "(a ** b) ** c")
	wantExpr(t, bin(num(-2), "**", num(2)), "(-2) ** 2")
	wantExpr(t, &UnaryOp{Op: "-", Operand: bin(name("a"), "+", name("b"))}, "-(a + b)")
	wantExpr(t, &UnaryOp{Op: "not", Operand: &Compare{Left: name("a"), Ops: []string{"=="}, Comparators: []Expr{name("b")}}},
		"not a == b")
	wantExpr(t, &Compare{Left: &Compare{Left: name("a"), Ops: []string{"<"}, Comparators: []Expr{name("b")}},
		Ops: []string{"<"}, Comparators: []Expr{name("c")}}, "(a < b) < c")
	wantExpr(t, &BoolOp{Op: "and", Values: []Expr{
		&BoolOp{Op: "or", Values: []Expr{name("a"), name("b")}}, name("c")}}, "(a or b) and c")
	wantExpr(t, &IfExp{Test: name("t"), Body: &IfExp{Test: name("u"), Body: name("a"), OrElse: name("b")},
		OrElse: name("c")}, "(a if u else b) if t else c")
	wantExpr(t, call(&Lambda{Args: &Arguments{}, Body: num(1)}), "(lambda: 1)()")
	wantExpr(t, &Attribute{Value: num(1), Attr: "real"}, "(1).real")
	wantExpr(t, &Attribute{Value: bin(name("a"), "+", name("b")), Attr: "c"}, "(a + b).c")
	wantExpr(t, &Await{Value: call(name("f"))}, "await f()")
	wantExpr(t, call(name("f"), &Yield{Value: name("x")}), "f((yield x))")
}

func Test_Unparse_Literals(t *testing.T) {
	wantExpr(t, &Str{Value: "it's"}, `"it's"`)
	wantExpr(t, &Str{Value: `say "hi" isn't`}, `'say "hi" isn\'t'`)
	wantExpr(t, &Str{Value: "a\nb\\\x01"}, `'a\nb\\\x01'`)
	wantExpr(t, &Str{Value: "\ufdd0:foo"}, `'\ufdd0:foo'`)
	wantExpr(t, &Str{Value: "héllo ☘"}, `'héllo ☘'`)
	wantExpr(t, &Bytes{Value: []byte("a'\x00\xff")}, `b"a'\x00\xff"`)
	wantExpr(t, &Float{Value: 1}, "1.0")
	wantExpr(t, &Float{Value: 0.1}, "0.1")
	wantExpr(t, &Float{Value: 1e16}, "1e+16")
	wantExpr(t, &Float{Value: 1e-5}, "1e-05")
	wantExpr(t, &Float{Value: math.Inf(1)}, "1e309")
	wantExpr(t, &Float{Value: math.Inf(-1)}, "-1e309")
	wantExpr(t, &Float{Value: math.NaN()}, "(1e309 - 1e309)")
	wantExpr(t, &Complex{Value: 2i}, "2.0j")
	wantExpr(t, &Complex{Value: 1 - 2i}, "(1.0-2.0j)")
	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	wantExpr(t, &Int{Value: huge}, "123456789012345678901234567890")
}

func Test_Unparse_Displays(t *testing.T) {
	wantExpr(t, &Tuple{}, "()")
	wantExpr(t, &Tuple{Elts: []Expr{num(1)}}, "(1,)")
	wantExpr(t, &Set{}, "{*()}")
	wantExpr(t, &Set{Elts: []Expr{num(1), num(2)}}, "{1, 2}")
	wantExpr(t, &Dict{Keys: []Expr{&Str{Value: "a"}, nil}, Values: []Expr{num(1), name("kw")}}, "{'a': 1, **kw}")
	wantExpr(t, &List{Elts: []Expr{&Starred{Value: name("xs")}}}, "[*xs]")
	wantExpr(t, &Subscript{Value: name("x"), Index: &Slice{Lower: num(1), Step: num(-1)}}, "x[1::-1]")
	wantExpr(t, &Subscript{Value: name("x"), Index: &Slice{}}, "x[:]")
	wantExpr(t, &Call{Func: name("f"), Args: []Expr{num(1), &Starred{Value: name("a")}},
		Keywords: []Keyword{{Arg: "k", Value: num(2)}, {Value: name("kw")}}}, "f(1, *a, k=2, **kw)")
	gen := []Comprehension{{Target: &Tuple{Elts: []Expr{name("k"), name("v")}}, Iter: name("d"),
		Ifs: []Expr{name("k")}}}
	wantExpr(t, &ListComp{Elt: name("v"), Generators: gen}, "[v for (k, v) in d if k]")
	wantExpr(t, &DictComp{Key: name("v"), Value: name("k"), Generators: gen}, "{v: k for (k, v) in d if k}")
	wantExpr(t, &GeneratorExp{Elt: name("v"), Generators: gen}, "(v for (k, v) in d if k)")
}

func Test_Unparse_Arguments(t *testing.T) {
	args := &Arguments{
		Args:       []Arg{{"a"}, {"b"}},
		Defaults:   []Expr{num(1)},
		KwOnly:     []Arg{{"c"}, {"d"}},
		KwDefaults: []Expr{nil, num(2)},
		Kwarg:      &Arg{"kw"},
	}
	wantExpr(t, &Lambda{Args: args, Body: name("a")}, "lambda a, b=1, *, c, d=2, **kw: a")
	args.Vararg = &Arg{"rest"}
	wantExpr(t, &Lambda{Args: args, Body: name("a")}, "lambda a, b=1, *rest, c, d=2, **kw: a")
}

func Test_Unparse_Statements(t *testing.T) {
	wantStmts(t, "if a:\n    x = 1\nelif b:\n    pass\nelse:\n    x = 2\n",
		&If{Test: name("a"),
			Body: []Stmt{&Assign{Targets: []Expr{name("x")}, Value: num(1)}},
			OrElse: []Stmt{&If{Test: name("b"),
				OrElse: []Stmt{&Assign{Targets: []Expr{name("x")}, Value: num(2)}}}}})

	wantStmts(t, "@dec\ndef f(x):\n    return x\n",
		&FunctionDef{Name: "f", Args: &Arguments{Args: []Arg{{"x"}}},
			Body: []Stmt{&Return{Value: name("x")}}, Decorators: []Expr{name("dec")}})

	wantStmts(t, "try:\n    f()\nexcept ValueError as e:\n    raise X from e\nexcept:\n    raise\nelse:\n    pass\nfinally:\n    g()\n",
		&Try{Body: []Stmt{&ExprStmt{Value: call(name("f"))}},
			Handlers: []*ExceptHandler{
				{Type: name("ValueError"), Name: "e", Body: []Stmt{&Raise{Exc: name("X"), Cause: name("e")}}},
				{Body: []Stmt{&Raise{}}}},
			OrElse:  []Stmt{&Pass{}},
			Finally: []Stmt{&ExprStmt{Value: call(name("g"))}}})

	wantStmts(t, "class A(B, metaclass=M):\n    pass\n",
		&ClassDef{Name: "A", Bases: []Expr{name("B")}, Keywords: []Keyword{{Arg: "metaclass", Value: name("M")}}})

	wantStmts(t, "with open(p) as f, lock:\n    x += f.read()\n",
		&With{Items: []WithItem{{Context: call(name("open"), name("p")), Var: name("f")}, {Context: name("lock")}},
			Body: []Stmt{&AugAssign{Target: name("x"), Op: "+",
				Value: call(&Attribute{Value: name("f"), Attr: "read"})}}})

	wantStmts(t, "import os.path as p, sys\nfrom hy import HyExpression, HySymbol as S\nfrom m import *\n",
		&Import{Names: []Alias{{Name: "os.path", AsName: "p"}, {Name: "sys"}}},
		&ImportFrom{Module: "hy", Names: []Alias{{Name: "HyExpression"}, {Name: "HySymbol", AsName: "S"}}},
		&ImportFrom{Module: "m", Names: []Alias{{Name: "*"}}})

	wantStmts(t, "while True:\n    break\nelse:\n    continue\nfor (a, b) in c:\n    del a, b\n",
		&While{Test: name("True"), Body: []Stmt{&Break{}}, OrElse: []Stmt{&Continue{}}},
		&For{Target: &Tuple{Elts: []Expr{name("a"), name("b")}}, Iter: name("c"),
			Body: []Stmt{&Delete{Targets: []Expr{name("a"), name("b")}}}})

	wantStmts(t, "global a, b\nassert x, 'msg'\nx = y = yield\n",
		&Global{Names: []string{"a", "b"}},
		&Assert{Test: name("x"), Msg: &Str{Value: "msg"}},
		&Assign{Targets: []Expr{name("x"), name("y")}, Value: &Yield{}})
}

func Test_Unparse_EmptyModule(t *testing.T) {
	if got := Unparse(&Module{}); got != "" {
		t.Fatalf("got %q", got)
	}
}

func Test_Unparse_NestedIndent(t *testing.T) {
	src := Unparse(&FunctionDef{Name: "f", Args: &Arguments{}, Body: []Stmt{
		&If{Test: name("a"), Body: []Stmt{&While{Test: name("b")}}},
	}})
	want := "def f():\n    if a:\n        while b:\n            pass\n"
	if src != want {
		t.Fatalf("got\n%s", src)
	}
	if strings.Contains(src, "\t") {
		t.Fatal("tabs in output")
	}
}
