package compiler

import (
	"math/big"

	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
)

// binary operators that fold left to right, and ** which folds right to
// left
var arithOps = []string{"+", "-", "*", "/", "//", "%", "**", "@", "<<", ">>", "&", "|", "^"}

var compareOps = map[string]string{
	"<":      "<",
	"<=":     "<=",
	">":      ">",
	">=":     ">=",
	"=":      "==",
	"!=":     "!=",
	"is":     "is",
	"is-not": "is not",
	"is_not": "is not",
	"in":     "in",
	"not-in": "not in",
	"not_in": "not in",
}

func installOperators(m map[string]specialForm) {
	for _, op := range arithOps {
		m[op] = arith(op)
		m[op+"="] = augAssign(op)
	}
	for h, op := range compareOps {
		m[h] = compare(op)
	}
	m["~"] = unary("~")
	m["not"] = unary("not")
	m["and"] = boolOp("and")
	m["or"] = boolOp("or")
}

func intLit(e models.Model, i int64) *pyast.Int {
	return &pyast.Int{At: at(e), Value: big.NewInt(i)}
}

// arith compiles (op a b c ...) as ((a op b) op c) ...
func arith(op string) specialForm {
	return func(c *Compiler, e *models.Expression, args []models.Model) *Result {
		switch len(args) {
		case 0:
			switch op {
			case "+":
				return exprResult(intLit(e, 0))
			case "*":
				return exprResult(intLit(e, 1))
			}
		case 1:
			r := c.compile(args[0])
			switch op {
			case "+", "-":
				r.Expr = &pyast.UnaryOp{At: at(e), Op: op, Operand: r.ForceExpr(e)}
				return r
			case "/":
				r.Expr = &pyast.BinOp{At: at(e), Left: intLit(e, 1), Op: op, Right: r.ForceExpr(e)}
				return r
			case "*", "&", "|", "@":
				return r
			}
		}
		switch op {
		case "**", "//", "%", "<<", ">>", "^":
			arity(e, args, 2, -1)
		default:
			arity(e, args, 1, -1)
		}
		ret, xs := c.compileAll(e, args)
		if op == "**" {
			v := xs[len(xs)-1]
			for i := len(xs) - 2; i >= 0; i-- {
				v = &pyast.BinOp{At: at(e), Left: xs[i], Op: op, Right: v}
			}
			ret.Expr = v
			return ret
		}
		v := xs[0]
		for _, x := range xs[1:] {
			v = &pyast.BinOp{At: at(e), Left: v, Op: op, Right: x}
		}
		ret.Expr = v
		return ret
	}
}

func unary(op string) specialForm {
	return func(c *Compiler, e *models.Expression, args []models.Model) *Result {
		arity(e, args, 1, 1)
		r := c.compile(args[0])
		r.Expr = &pyast.UnaryOp{At: at(e), Op: op, Operand: r.ForceExpr(e)}
		return r
	}
}

// compare compiles a chained comparison (op a b c) as a op b op c.
func compare(op string) specialForm {
	return func(c *Compiler, e *models.Expression, args []models.Model) *Result {
		arity(e, args, 1, -1)
		if len(args) == 1 {
			r := c.compile(args[0])
			ret := &Result{Stmts: r.Statements(), ContainsYield: r.ContainsYield}
			ret.Expr = name(e, "True")
			return ret
		}
		ret, xs := c.compileAll(e, args)
		node := &pyast.Compare{At: at(e), Left: xs[0], Comparators: xs[1:]}
		for range xs[1:] {
			node.Ops = append(node.Ops, op)
		}
		ret.Expr = node
		return ret
	}
}

// boolOp compiles and/or. Operands after the first that need statements
// run only when the operator has not short-circuited yet.
func boolOp(op string) specialForm {
	return func(c *Compiler, e *models.Expression, args []models.Model) *Result {
		switch len(args) {
		case 0:
			if op == "and" {
				return exprResult(name(e, "True"))
			}
			return exprResult(name(e, "None"))
		case 1:
			return c.compile(args[0])
		}
		rs := make([]*Result, len(args))
		simple := true
		yields := false
		for i, a := range args {
			rs[i] = c.compile(a)
			simple = simple && (i == 0 || !rs[i].HasStmts())
			yields = yields || rs[i].ContainsYield
		}
		if simple {
			node := &pyast.BoolOp{At: at(e), Op: op}
			for _, r := range rs {
				node.Values = append(node.Values, r.ForceExpr(e))
			}
			return &Result{Stmts: rs[0].Stmts, Expr: node, ContainsYield: yields}
		}
		tmp := c.temp()
		var chain func(i int) []pyast.Stmt
		chain = func(i int) []pyast.Stmt {
			stmts := append(rs[i].Stmts, assign(e, tmp, rs[i].ForceExpr(e)))
			if i+1 < len(rs) {
				var test pyast.Expr = name(e, tmp)
				if op == "or" {
					test = &pyast.UnaryOp{At: at(e), Op: "not", Operand: test}
				}
				stmts = append(stmts, &pyast.If{At: at(e), Test: test, Body: chain(i + 1)})
			}
			return stmts
		}
		return &Result{Stmts: chain(0), Expr: name(e, tmp), ContainsYield: yields}
	}
}

// augAssign compiles (op= target value).
func augAssign(op string) specialForm {
	return func(c *Compiler, e *models.Expression, args []models.Model) *Result {
		arity(e, args, 2, 2)
		v := c.compile(args[1])
		t := c.target(args[0])
		switch t.Expr.(type) {
		case *pyast.Name, *pyast.Attribute, *pyast.Subscript:
		default:
			fail(args[0], "illegal target for augmented assignment %s", args[0].Repr())
		}
		ret, xs := c.sequence(e, []*Result{v, t})
		return ret.Emit(&pyast.AugAssign{At: at(e), Target: xs[1], Op: op, Value: xs[0]})
	}
}
