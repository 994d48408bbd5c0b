package compiler

import (
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
)

// quote compiles (quote x) and (quasiquote x) into code that rebuilds x
// from the hy model classes at run time.
func (c *Compiler) quote(e *models.Expression, args []models.Model, quasi bool) *Result {
	arity(e, args, 1, 1)
	return c.quoted(args[0], 0, quasi)
}

// modelCall returns a call of the named hy model class.
func (c *Compiler) modelCall(m models.Model, class string, args ...pyast.Expr) *pyast.Call {
	c.use("hy", class, "")
	return &pyast.Call{At: at(m), Func: name(m, class), Args: args}
}

func (c *Compiler) quoted(m models.Model, level int, quasi bool) *Result {
	switch x := m.(type) {
	case *models.Symbol:
		return exprResult(c.modelCall(x, "HySymbol", &pyast.Str{At: at(x), Value: x.Name}))
	case *models.Keyword:
		return exprResult(c.modelCall(x, "HyKeyword", &pyast.Str{At: at(x), Value: x.Text()}))
	case *models.String:
		return exprResult(c.modelCall(x, "HyString", &pyast.Str{At: at(x), Value: x.Value}))
	case *models.Bytes:
		return exprResult(c.modelCall(x, "HyBytes", &pyast.Bytes{At: at(x), Value: x.Value}))
	case *models.Integer:
		return exprResult(c.modelCall(x, "HyInteger", &pyast.Int{At: at(x), Value: x.Value}))
	case *models.Float:
		return exprResult(c.modelCall(x, "HyFloat", &pyast.Float{At: at(x), Value: x.Value}))
	case *models.Complex:
		return exprResult(c.modelCall(x, "HyComplex", &pyast.Complex{At: at(x), Value: x.Value}))
	case *models.Expression:
		if quasi {
			switch {
			case models.IsCall(x, "unquote") || models.IsCall(x, "unquote-splice"):
				arg := quotedArg(x)
				if level == 0 {
					return c.compile(arg)
				}
				return c.quotedSeq(x, "HyExpression", []models.Model{models.Head(x), arg}, level-1, quasi)
			case models.IsCall(x, "quasiquote"):
				return c.quotedSeq(x, "HyExpression", []models.Model{models.Head(x), quotedArg(x)}, level+1, quasi)
			}
		}
		return c.quotedSeq(x, "HyExpression", x.Elems(), level, quasi)
	case *models.List:
		return c.quotedSeq(x, "HyList", x.Elems(), level, quasi)
	case *models.Set:
		return c.quotedSeq(x, "HySet", x.Elems(), level, quasi)
	case *models.Dict:
		return c.quotedSeq(x, "HyDict", x.Elems(), level, quasi)
	}
	fail(m, "cannot quote %s", m.Repr())
	return nil
}

func quotedArg(e *models.Expression) models.Model {
	el := e.Elems()
	if len(el) != 2 {
		fail(e, "`%s' takes exactly one argument", models.Head(e).Name)
	}
	return el[1]
}

// quotedSeq builds class([...]). Spliced items at level 0 are
// concatenated in as list(x or []).
func (c *Compiler) quotedSeq(m models.Model, class string, elems []models.Model, level int, quasi bool) *Result {
	rs := make([]*Result, len(elems))
	splice := make([]bool, len(elems))
	for i, el := range elems {
		if quasi && level == 0 && models.IsCall(el, "unquote-splice") {
			rs[i], splice[i] = c.compile(quotedArg(el.(*models.Expression))), true
			continue
		}
		rs[i] = c.quoted(el, level, quasi)
	}
	ret, exprs := c.sequence(m, rs)
	var v pyast.Expr
	var run []pyast.Expr
	push := func(x pyast.Expr) {
		if v == nil {
			v = x
			return
		}
		v = &pyast.BinOp{At: at(m), Left: v, Op: "+", Right: x}
	}
	for i, x := range exprs {
		if !splice[i] {
			run = append(run, x)
			continue
		}
		if len(run) > 0 {
			push(&pyast.List{At: at(m), Elts: run})
			run = nil
		}
		push(&pyast.Call{At: at(m), Func: name(m, "list"), Args: []pyast.Expr{
			&pyast.BoolOp{At: at(m), Op: "or", Values: []pyast.Expr{x, &pyast.List{At: at(m)}}}}})
	}
	if len(run) > 0 || v == nil {
		push(&pyast.List{At: at(m), Elts: run})
	}
	ret.Expr = c.modelCall(m, class, v)
	return ret
}
