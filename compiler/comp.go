package compiler

import (
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
)

type compKind int

const (
	listComp compKind = iota
	setComp
	genExpr
	dictComp
)

func compFor(kind compKind) specialForm {
	return func(c *Compiler, e *models.Expression, args []models.Model) *Result {
		return c.comprehension(e, args, kind)
	}
}

// compClause is one compiled clause of a comprehension: an iteration
// (target in iter), a filter (:if cond) or a binding (:setv target value).
type compClause struct {
	at     models.Model
	kind   string // "for", "if" or "setv"
	target pyast.Expr
	value  *Result
}

// comprehension compiles
//
//	(lfor x xs :if (f x) :setv y (g x) y)
//	(dfor k ks [k (f k)])
//
// into a Python comprehension. When some part needs statements, the
// equivalent loops fill a temporary collection instead; gfor cannot be
// lowered that way.
func (c *Compiler) comprehension(e *models.Expression, args []models.Model, kind compKind) *Result {
	h := models.Head(e).Name
	if len(args) < 3 {
		fail(e, "`%s' needs at least one iteration clause and an element", h)
	}
	forms, last := args[:len(args)-1], args[len(args)-1]
	var clauses []compClause
	for i := 0; i < len(forms); i++ {
		f := forms[i]
		if kw, ok := f.(*models.Keyword); ok {
			switch kw.Name {
			case "if":
				if i+1 >= len(forms) {
					fail(kw, ":if needs a condition")
				}
				clauses = append(clauses, compClause{at: kw, kind: "if", value: c.compile(forms[i+1])})
				i++
			case "setv":
				if i+2 >= len(forms) {
					fail(kw, ":setv needs a target and a value")
				}
				clauses = append(clauses, c.compClause(kw, "setv", forms[i+1], forms[i+2]))
				i += 2
			default:
				fail(kw, "unknown clause :%s in `%s'", kw.Name, h)
			}
			continue
		}
		if i+1 >= len(forms) {
			fail(f, "`%s' target %s has no iterable", h, f.Repr())
		}
		clauses = append(clauses, c.compClause(f, "for", f, forms[i+1]))
		i++
	}
	if len(clauses) == 0 || clauses[0].kind != "for" {
		fail(e, "`%s' must start with an iteration clause", h)
	}

	var key, elt *Result
	if kind == dictComp {
		pair, ok := last.(*models.List)
		if !ok || len(pair.Elems()) != 2 {
			fail(last, "`dfor' must end with a [key value] pair")
		}
		key, elt = c.compile(pair.Elems()[0]), c.compile(pair.Elems()[1])
	} else {
		elt = c.compile(last)
	}

	pure := !elt.HasStmts() && (key == nil || !key.HasStmts())
	yields := elt.ContainsYield || (key != nil && key.ContainsYield)
	for _, cl := range clauses {
		pure = pure && !cl.value.HasStmts()
		yields = yields || cl.value.ContainsYield
	}
	if pure {
		return &Result{Expr: c.comprehensionExpr(e, clauses, key, elt, kind), ContainsYield: yields}
	}
	if kind == genExpr {
		fail(e, "`gfor' cannot contain forms that compile to statements")
	}
	return c.comprehensionLoop(e, clauses, key, elt, kind, yields)
}

func (c *Compiler) compClause(at models.Model, kind string, target, value models.Model) compClause {
	t := c.target(target)
	if t.HasStmts() {
		fail(target, "comprehension target must be a simple target")
	}
	return compClause{at: at, kind: kind, target: t.Expr, value: c.compile(value)}
}

func (c *Compiler) comprehensionExpr(e *models.Expression, clauses []compClause, key, elt *Result, kind compKind) pyast.Expr {
	var gens []pyast.Comprehension
	for _, cl := range clauses {
		v := cl.value.ForceExpr(cl.at)
		switch cl.kind {
		case "for":
			gens = append(gens, pyast.Comprehension{Target: cl.target, Iter: v})
		case "setv":
			gens = append(gens, pyast.Comprehension{Target: cl.target,
				Iter: &pyast.List{At: at(cl.at), Elts: []pyast.Expr{v}}})
		case "if":
			g := &gens[len(gens)-1]
			g.Ifs = append(g.Ifs, v)
		}
	}
	switch kind {
	case setComp:
		return &pyast.SetComp{At: at(e), Elt: elt.ForceExpr(e), Generators: gens}
	case genExpr:
		return &pyast.GeneratorExp{At: at(e), Elt: elt.ForceExpr(e), Generators: gens}
	case dictComp:
		return &pyast.DictComp{At: at(e), Key: key.ForceExpr(e), Value: elt.ForceExpr(e), Generators: gens}
	}
	return &pyast.ListComp{At: at(e), Elt: elt.ForceExpr(e), Generators: gens}
}

// comprehensionLoop lowers a comprehension to loops that fill a
// temporary. Loop variables stay bound in the enclosing scope.
func (c *Compiler) comprehensionLoop(e *models.Expression, clauses []compClause, key, elt *Result, kind compKind, yields bool) *Result {
	tmp := c.temp()
	coll := name(e, tmp)
	var init pyast.Expr
	var add []pyast.Stmt
	switch kind {
	case setComp:
		init = &pyast.Call{At: at(e), Func: name(e, "set")}
		add = append(elt.Stmts, &pyast.ExprStmt{At: at(e), Value: &pyast.Call{At: at(e),
			Func: &pyast.Attribute{At: at(e), Value: coll, Attr: "add"}, Args: []pyast.Expr{elt.ForceExpr(e)}}})
	case dictComp:
		init = &pyast.Dict{At: at(e)}
		pair, exprs := c.sequence(e, []*Result{key, elt})
		add = append(pair.Stmts, &pyast.Assign{At: at(e),
			Targets: []pyast.Expr{&pyast.Subscript{At: at(e), Value: coll, Index: exprs[0]}}, Value: exprs[1]})
	default:
		init = &pyast.List{At: at(e)}
		add = append(elt.Stmts, &pyast.ExprStmt{At: at(e), Value: &pyast.Call{At: at(e),
			Func: &pyast.Attribute{At: at(e), Value: coll, Attr: "append"}, Args: []pyast.Expr{elt.ForceExpr(e)}}})
	}
	var build func(i int) []pyast.Stmt
	build = func(i int) []pyast.Stmt {
		if i == len(clauses) {
			return add
		}
		cl := clauses[i]
		v := cl.value.ForceExpr(cl.at)
		switch cl.kind {
		case "for":
			return append(cl.value.Stmts, &pyast.For{At: at(cl.at), Target: cl.target, Iter: v, Body: build(i + 1)})
		case "setv":
			stmts := append(cl.value.Stmts, &pyast.Assign{At: at(cl.at), Targets: []pyast.Expr{cl.target}, Value: v})
			return append(stmts, build(i+1)...)
		}
		return append(cl.value.Stmts, &pyast.If{At: at(cl.at), Test: v, Body: build(i + 1)})
	}
	ret := &Result{ContainsYield: yields}
	ret.Emit(assign(e, tmp, init))
	ret.Emit(build(0)...)
	ret.Expr = name(e, tmp)
	return ret
}
