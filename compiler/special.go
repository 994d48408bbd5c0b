package compiler

import (
	"strings"

	"github.com/nukata/hy-in-go/macros"
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
)

type specialForm func(c *Compiler, e *models.Expression, args []models.Model) *Result

// specialForms maps the raw head symbol of a form to its compiler.
var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"do":                compileDo,
		"progn":             compileDo,
		"if":                compileIf,
		"setv":              compileSetv,
		"def":               compileSetv,
		"fn":                func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.fn(e, a, false) },
		"fn/a":              func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.fn(e, a, true) },
		"defn":              func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.defn(e, a, false) },
		"defn/a":            func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.defn(e, a, true) },
		"return":            compileReturn,
		"yield":             compileYield,
		"yield-from":        compileYieldFrom,
		"await":             compileAwait,
		"while":             compileWhile,
		"for":               func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.forLoop(e, a, false) },
		"for/a":             func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.forLoop(e, a, true) },
		"break":             compileBreak,
		"continue":          compileContinue,
		"try":               compileTry,
		"with":              func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.with(e, a, false) },
		"with/a":            func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.with(e, a, true) },
		"with-decorator":    compileWithDecorator,
		"raise":             compileRaise,
		"assert":            compileAssert,
		"del":               compileDel,
		"global":            func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.scopeDecl(e, a, false) },
		"nonlocal":          func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.scopeDecl(e, a, true) },
		"import":            compileImport,
		"require":           compileRequire,
		"defclass":          compileDefclass,
		".":                 compileDot,
		"get":               compileGet,
		"cut":               compileCut,
		",":                 compileTuple,
		"quote":             func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.quote(e, a, false) },
		"quasiquote":        func(c *Compiler, e *models.Expression, a []models.Model) *Result { return c.quote(e, a, true) },
		"unquote":           compileStrayUnquote,
		"unquote-splice":    compileStrayUnquote,
		"unpack-iterable":   compileStrayUnpack,
		"unpack-mapping":    compileStrayUnpack,
		"defmacro":          compileDefmacro,
		"deftag":            compileDefmacro,
		"eval-and-compile":  compileEvalAndCompile,
		"eval-when-compile": compileEvalWhenCompile,
		"lfor":              compFor(listComp),
		"sfor":              compFor(setComp),
		"gfor":              compFor(genExpr),
		"dfor":              compFor(dictComp),
	}
	installOperators(specialForms)
}

// arity fails unless min <= len(args) <= max; a negative max means no
// upper bound.
func arity(e *models.Expression, args []models.Model, min, max int) {
	h := models.Head(e).Name
	switch {
	case len(args) < min && min == max:
		fail(e, "`%s' takes exactly %d argument%s", h, min, plural(min))
	case len(args) < min:
		fail(e, "`%s' needs at least %d argument%s", h, min, plural(min))
	case max >= 0 && len(args) > max && min == max:
		fail(e, "`%s' takes exactly %d argument%s", h, max, plural(max))
	case max >= 0 && len(args) > max:
		fail(e, "`%s' takes at most %d argument%s", h, max, plural(max))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

// check aborts with err; evaluator errors keep their own type.
func check(site models.Model, err error) {
	switch err.(type) {
	case nil:
		return
	case *macros.EvalError, *macros.ExpansionError:
		panic(err)
	}
	wrap(site, err)
}

// clause splits a trailing (name ...) form, such as the else of a loop,
// off forms.
func clause(forms []models.Model, name string) ([]models.Model, []models.Model, bool) {
	if n := len(forms); n > 0 && models.IsCall(forms[n-1], name) {
		return forms[:n-1], forms[n-1].(*models.Expression).Elems()[1:], true
	}
	return forms, nil, false
}

//----------------------------------------------------------------------

func compileDo(c *Compiler, e *models.Expression, args []models.Model) *Result {
	return c.body(args)
}

// compileIf compiles (if c1 t1 c2 t2 ... else). Branches free of
// statements become a conditional expression.
func compileIf(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 2, -1)
	cond := c.compile(args[0])
	then := c.compile(args[1])
	els := &Result{}
	switch {
	case len(args) == 3:
		els = c.compile(args[2])
	case len(args) > 3:
		els = compileIf(c, e, args[2:])
	}
	ret := &Result{Stmts: cond.Stmts,
		ContainsYield: cond.ContainsYield || then.ContainsYield || els.ContainsYield}
	test := cond.ForceExpr(e)
	if !then.HasStmts() && !els.HasStmts() {
		ret.Expr = &pyast.IfExp{At: at(e), Test: test, Body: then.ForceExpr(e), OrElse: els.ForceExpr(e)}
		return ret
	}
	tmp := c.temp()
	ret.Emit(&pyast.If{At: at(e), Test: test,
		Body:   append(then.Stmts, assign(e, tmp, then.ForceExpr(e))),
		OrElse: append(els.Stmts, assign(e, tmp, els.ForceExpr(e)))})
	ret.Expr = name(e, tmp)
	return ret
}

func compileSetv(c *Compiler, e *models.Expression, args []models.Model) *Result {
	if len(args)%2 != 0 {
		fail(e, "`%s' needs an even number of arguments", models.Head(e).Name)
	}
	ret := &Result{}
	for i := 0; i < len(args); i += 2 {
		ret.Add(c.assign(e, args[i], args[i+1]))
	}
	ret.Expr = nil
	return ret
}

// assign compiles target = value. A function value bound to a plain name
// is defined under that name.
func (c *Compiler) assign(e models.Model, target, value models.Model) *Result {
	v := c.compile(value)
	if s, ok := target.(*models.Symbol); ok && !strings.Contains(s.Name, ".") && v.HasStmts() {
		if n, ok := v.Expr.(*pyast.Name); ok && isTemp(n.Id) {
			if fd, ok := v.Stmts[len(v.Stmts)-1].(*pyast.FunctionDef); ok && fd.Name == n.Id {
				c.checkAssignable(s)
				fd.Name = models.Mangle(s.Name)
				return &Result{Stmts: v.Stmts, ContainsYield: v.ContainsYield}
			}
		}
	}
	t := c.target(target)
	ret, exprs := c.sequence(e, []*Result{v, t})
	ret.Emit(&pyast.Assign{At: at(e), Targets: []pyast.Expr{exprs[1]}, Value: exprs[0]})
	return ret
}

func (c *Compiler) checkAssignable(s *models.Symbol) {
	switch s.Name {
	case "None", "True", "False", "...":
		fail(s, "Can't assign to constant %s", s.Name)
	}
}

// target compiles an assignment target.
func (c *Compiler) target(m models.Model) *Result {
	switch x := m.(type) {
	case *models.Symbol:
		c.checkAssignable(x)
		return exprResult(c.symbol(x))
	case *models.List:
		ret, elts := c.targets(x.Elems())
		ret.Expr = &pyast.List{At: at(x), Elts: elts}
		return ret
	case *models.Expression:
		if models.IsCall(x, ",") {
			ret, elts := c.targets(x.Elems()[1:])
			ret.Expr = &pyast.Tuple{At: at(x), Elts: elts}
			return ret
		}
		if inner, ok := unpack(x, "unpack-iterable"); ok {
			r := c.target(inner)
			r.Expr = &pyast.Starred{At: at(x), Value: r.Expr}
			return r
		}
		r := c.compile(x)
		switch r.Expr.(type) {
		case *pyast.Attribute, *pyast.Subscript:
			return r
		}
	}
	fail(m, "Can't assign to %s", m.Repr())
	return nil
}

func (c *Compiler) targets(forms []models.Model) (*Result, []pyast.Expr) {
	rs := make([]*Result, len(forms))
	for i, f := range forms {
		rs[i] = c.target(f)
	}
	ret := &Result{}
	exprs := make([]pyast.Expr, len(rs))
	for i, r := range rs {
		ret.Emit(r.Stmts...)
		exprs[i] = r.Expr
	}
	return ret, exprs
}

//----------------------------------------------------------------------

func (c *Compiler) fn(e *models.Expression, args []models.Model, async bool) *Result {
	arity(e, args, 1, -1)
	return c.function(e, "", args[0], args[1:], async)
}

// defn compiles (defn name [params] body...); its value is None.
func (c *Compiler) defn(e *models.Expression, args []models.Model, async bool) *Result {
	arity(e, args, 2, -1)
	s, ok := args[0].(*models.Symbol)
	if !ok {
		fail(args[0], "`%s' needs a symbol as the function name", models.Head(e).Name)
	}
	c.checkAssignable(s)
	if strings.Contains(s.Name, ".") {
		fail(s, "function name %s cannot be dotted", s.Name)
	}
	r := c.function(e, models.Mangle(s.Name), args[1], args[2:], async)
	r.Expr = nil
	return r
}

// function compiles a function. An anonymous synchronous function whose
// body is a single expression becomes a lambda; otherwise the function
// is defined under fname, or a temporary when fname is empty, and the
// result's value names it.
func (c *Compiler) function(e *models.Expression, fname string, params models.Model, body []models.Model, async bool) *Result {
	ll, err := macros.ParseLambdaList(params)
	if err != nil {
		wrap(params, err)
	}
	args := &pyast.Arguments{}
	var rs []*Result
	var slots []int // index into Defaults, or -1-index into KwDefaults
	for _, s := range ll.Required {
		args.Args = append(args.Args, pyast.Arg{Name: c.param(s)})
	}
	for _, p := range ll.Optional {
		args.Args = append(args.Args, pyast.Arg{Name: c.param(p.Name)})
		args.Defaults = append(args.Defaults, name(p.Name, "None"))
		if p.HasDefault {
			rs = append(rs, c.compile(p.Default))
			slots = append(slots, len(args.Defaults)-1)
		}
	}
	if ll.Rest != nil {
		args.Vararg = &pyast.Arg{Name: c.param(ll.Rest)}
	}
	for _, p := range ll.KwOnly {
		args.KwOnly = append(args.KwOnly, pyast.Arg{Name: c.param(p.Name)})
		args.KwDefaults = append(args.KwDefaults, nil)
		if p.HasDefault {
			rs = append(rs, c.compile(p.Default))
			slots = append(slots, -len(args.KwDefaults))
		}
	}
	if ll.Kwargs != nil {
		args.Kwarg = &pyast.Arg{Name: c.param(ll.Kwargs)}
	}
	ret, defaults := c.sequence(e, rs)
	for i, d := range defaults {
		if k := slots[i]; k >= 0 {
			args.Defaults[k] = d
		} else {
			args.KwDefaults[-1-k] = d
		}
	}

	b := c.body(body)
	if fname == "" && !async && !b.HasStmts() && !b.ContainsYield {
		ret.Expr = &pyast.Lambda{At: at(e), Args: args, Body: b.ForceExpr(e)}
		return ret
	}
	var stmts []pyast.Stmt
	if b.ContainsYield {
		stmts = b.Statements()
	} else {
		stmts = b.Stmts
		if b.Expr != nil {
			stmts = append(stmts, &pyast.Return{At: pyast.At{Pos: b.Expr.Position()}, Value: b.Expr})
		}
	}
	if fname == "" {
		fname = c.temp()
	}
	ret.Emit(&pyast.FunctionDef{At: at(e), Name: fname, Args: args, Body: stmts, Async: async})
	ret.Expr = name(e, fname)
	return ret
}

func (c *Compiler) param(s *models.Symbol) string {
	c.checkAssignable(s)
	if strings.Contains(s.Name, ".") {
		fail(s, "parameter %s cannot be dotted", s.Name)
	}
	return models.Mangle(s.Name)
}

func compileReturn(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 0, 1)
	if len(args) == 0 {
		return (&Result{}).Emit(&pyast.Return{At: at(e)})
	}
	r := c.compile(args[0])
	ret := &Result{ContainsYield: r.ContainsYield}
	ret.Emit(r.Stmts...)
	ret.Emit(&pyast.Return{At: at(e), Value: r.ForceExpr(e)})
	return ret
}

func compileYield(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 0, 1)
	ret := &Result{}
	var v pyast.Expr
	if len(args) == 1 {
		r := c.compile(args[0])
		ret.Emit(r.Stmts...)
		v = r.ForceExpr(e)
	}
	ret.Expr = &pyast.Yield{At: at(e), Value: v}
	ret.ContainsYield = true
	return ret
}

func compileYieldFrom(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, 1)
	r := c.compile(args[0])
	r.Expr = &pyast.YieldFrom{At: at(e), Value: r.ForceExpr(e)}
	r.ContainsYield = true
	return r
}

func compileAwait(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, 1)
	r := c.compile(args[0])
	r.Expr = &pyast.Await{At: at(e), Value: r.ForceExpr(e)}
	return r
}

//----------------------------------------------------------------------

// compileWhile compiles (while cond body... (else ...)). A condition that
// needs statements is evaluated at the top of an endless loop.
func compileWhile(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, -1)
	cond := c.compile(args[0])
	body, orelse, _ := clause(args[1:], "else")
	bodyStmts, y1 := c.block(e, body, "")
	elseStmts, y2 := c.block(e, orelse, "")
	ret := &Result{ContainsYield: cond.ContainsYield || y1 || y2}
	if !cond.HasStmts() {
		return ret.Emit(&pyast.While{At: at(e), Test: cond.ForceExpr(e), Body: bodyStmts, OrElse: elseStmts})
	}
	exit := &pyast.If{At: at(e),
		Test: &pyast.UnaryOp{At: at(e), Op: "not", Operand: cond.ForceExpr(e)},
		Body: append(elseStmts, &pyast.Break{At: at(e)})}
	loop := append(append(cond.Stmts, exit), bodyStmts...)
	return ret.Emit(&pyast.While{At: at(e), Test: name(e, "True"), Body: loop})
}

// forLoop compiles (for [t1 it1 t2 it2 ...] body... (else ...)) as
// nested loops; the else belongs to the outermost one.
func (c *Compiler) forLoop(e *models.Expression, args []models.Model, async bool) *Result {
	arity(e, args, 1, -1)
	bl, ok := args[0].(*models.List)
	if !ok {
		fail(args[0], "`%s' needs a binding list", models.Head(e).Name)
	}
	bind := bl.Elems()
	if len(bind) == 0 || len(bind)%2 != 0 {
		fail(bl, "`%s' needs target/iterable pairs", models.Head(e).Name)
	}
	body, orelse, _ := clause(args[1:], "else")
	yields := false
	var outer *pyast.For
	var build func(i int) []pyast.Stmt
	build = func(i int) []pyast.Stmt {
		if i == len(bind) {
			stmts, y := c.block(e, body, "")
			yields = yields || y
			return stmts
		}
		t := c.target(bind[i])
		if t.HasStmts() {
			fail(bind[i], "loop target must be a simple target")
		}
		it := c.compile(bind[i+1])
		yields = yields || it.ContainsYield
		loop := &pyast.For{At: at(e), Target: t.Expr, Iter: it.ForceExpr(e), Async: async}
		if outer == nil {
			outer = loop
		}
		loop.Body = build(i + 2)
		return append(it.Stmts, loop)
	}
	ret := &Result{Stmts: build(0)}
	stmts, y := c.block(e, orelse, "")
	outer.OrElse = stmts
	ret.ContainsYield = yields || y
	return ret
}

func compileBreak(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 0, 0)
	return (&Result{}).Emit(&pyast.Break{At: at(e)})
}

func compileContinue(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 0, 0)
	return (&Result{}).Emit(&pyast.Continue{At: at(e)})
}

//----------------------------------------------------------------------

// compileTry compiles
//
//	(try body... (except [e Exc] ...) ... (else ...) (finally ...))
//
// Its value is that of the else clause when present, else of the body,
// or of the handler that ran.
func compileTry(c *Compiler, e *models.Expression, args []models.Model) *Result {
	var body []models.Model
	var handlers []*models.Expression
	var orelse, finally []models.Model
	hasElse, hasFinally := false, false
	for _, a := range args {
		switch {
		case models.IsCall(a, "except") || models.IsCall(a, "catch"):
			if hasElse || hasFinally {
				fail(a, "except clause after else or finally")
			}
			handlers = append(handlers, a.(*models.Expression))
		case models.IsCall(a, "else"):
			if hasElse || hasFinally {
				fail(a, "misplaced else clause")
			}
			hasElse, orelse = true, a.(*models.Expression).Elems()[1:]
		case models.IsCall(a, "finally"):
			if hasFinally {
				fail(a, "duplicate finally clause")
			}
			hasFinally, finally = true, a.(*models.Expression).Elems()[1:]
		default:
			if len(handlers) > 0 || hasElse || hasFinally {
				fail(a, "try body form after a clause")
			}
			body = append(body, a)
		}
	}
	if len(handlers) == 0 && !hasFinally {
		fail(e, "try must have an except or finally clause")
	}
	if hasElse && len(handlers) == 0 {
		fail(e, "try with an else clause needs an except clause")
	}
	tmp := c.temp()
	node := &pyast.Try{At: at(e)}
	var yields bool
	collect := func(stmts []pyast.Stmt, y bool) []pyast.Stmt {
		yields = yields || y
		return stmts
	}
	if hasElse {
		node.Body = collect(c.block(e, body, ""))
	} else {
		node.Body = collect(c.block(e, body, tmp))
	}
	for _, h := range handlers {
		node.Handlers = append(node.Handlers, c.handler(h, tmp, &yields))
	}
	if hasElse {
		node.OrElse = collect(c.block(e, orelse, tmp))
	}
	if hasFinally {
		node.Finally = collect(c.block(e, finally, ""))
		if len(node.Finally) == 0 {
			node.Finally = []pyast.Stmt{&pyast.Pass{At: at(e)}}
		}
	}
	ret := &Result{ContainsYield: yields}
	ret.Emit(assign(e, tmp, name(e, "None")), node)
	ret.Expr = name(e, tmp)
	return ret
}

// handler compiles (except [name types] body...). types is an
// expression or a list of expressions; both parts are optional.
func (c *Compiler) handler(h *models.Expression, tmp string, yields *bool) *pyast.ExceptHandler {
	el := h.Elems()
	out := &pyast.ExceptHandler{At: at(h)}
	var body []models.Model
	if len(el) > 1 {
		if l, ok := el[1].(*models.List); ok {
			body = el[2:]
			spec := l.Elems()
			switch len(spec) {
			case 0:
			case 1:
				out.Type = c.exceptionTypes(spec[0])
			case 2:
				s, ok := spec[0].(*models.Symbol)
				if !ok {
					fail(spec[0], "except target must be a symbol")
				}
				out.Name = c.param(s)
				out.Type = c.exceptionTypes(spec[1])
				if out.Type == nil {
					out.Type = name(spec[1], "BaseException")
				}
			default:
				fail(l, "malformed except clause %s", l.Repr())
			}
		} else {
			body = el[1:]
		}
	}
	stmts, y := c.block(h, body, tmp)
	*yields = *yields || y
	out.Body = stmts
	return out
}

func (c *Compiler) exceptionTypes(m models.Model) pyast.Expr {
	var r *Result
	if l, ok := m.(*models.List); ok {
		if len(l.Elems()) == 0 {
			return nil
		}
		var elts []pyast.Expr
		r, elts = c.compileAll(l, l.Elems())
		r.Expr = &pyast.Tuple{At: at(l), Elts: elts}
	} else {
		r = c.compile(m)
	}
	if r.HasStmts() {
		fail(m, "exception type must be a simple expression")
	}
	return r.ForceExpr(m)
}

//----------------------------------------------------------------------

// with compiles (with [var ctx ...] body...) or (with [ctx] body...).
// Contexts that need statements open a nested with.
func (c *Compiler) with(e *models.Expression, args []models.Model, async bool) *Result {
	arity(e, args, 1, -1)
	l, ok := args[0].(*models.List)
	if !ok {
		fail(args[0], "`%s' needs a binding list", models.Head(e).Name)
	}
	type item struct {
		ctx *Result
		v   pyast.Expr
	}
	var items []item
	bind := l.Elems()
	switch {
	case len(bind) == 1:
		items = append(items, item{ctx: c.compile(bind[0])})
	case len(bind) > 0 && len(bind)%2 == 0:
		for i := 0; i < len(bind); i += 2 {
			var v pyast.Expr
			if s, ok := bind[i].(*models.Symbol); !ok || s.Name != "_" {
				t := c.target(bind[i])
				if t.HasStmts() {
					fail(bind[i], "with target must be a simple target")
				}
				v = t.Expr
			}
			items = append(items, item{ctx: c.compile(bind[i+1]), v: v})
		}
	default:
		fail(l, "`%s' needs [ctx] or var/ctx pairs", models.Head(e).Name)
	}
	tmp := c.temp()
	body, yields := c.block(e, args[1:], tmp)
	var build func(i int) []pyast.Stmt
	build = func(i int) []pyast.Stmt {
		if i == len(items) {
			return body
		}
		w := &pyast.With{At: at(e), Async: async}
		pre := items[i].ctx.Stmts
		for ; i < len(items); i++ {
			if len(w.Items) > 0 && items[i].ctx.HasStmts() {
				break
			}
			yields = yields || items[i].ctx.ContainsYield
			w.Items = append(w.Items, pyast.WithItem{Context: items[i].ctx.ForceExpr(e), Var: items[i].v})
		}
		w.Body = build(i)
		return append(pre, w)
	}
	ret := &Result{}
	ret.Emit(assign(e, tmp, name(e, "None")))
	ret.Emit(build(0)...)
	ret.Expr = name(e, tmp)
	ret.ContainsYield = yields
	return ret
}

// compileWithDecorator compiles (with-decorator d... def). The
// decorators apply to the function or class the last form defines, or
// are called on its value.
func compileWithDecorator(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, -1)
	n := len(args) - 1
	ret := &Result{}
	decos := make([]pyast.Expr, n)
	for i, d := range args[:n] {
		r := c.compile(d)
		ret.Add(r)
		decos[i] = r.ForceExpr(d)
	}
	def := c.compile(args[n])
	ret.Add(def)
	if def.HasStmts() {
		switch d := ret.Stmts[len(ret.Stmts)-1].(type) {
		case *pyast.FunctionDef:
			d.Decorators = append(decos, d.Decorators...)
			return ret
		case *pyast.ClassDef:
			d.Decorators = append(decos, d.Decorators...)
			return ret
		}
	}
	v := def.ForceExpr(e)
	for i := n - 1; i >= 0; i-- {
		v = &pyast.Call{At: at(e), Func: decos[i], Args: []pyast.Expr{v}}
	}
	ret.Expr = v
	return ret
}

//----------------------------------------------------------------------

func compileRaise(c *Compiler, e *models.Expression, args []models.Model) *Result {
	node := &pyast.Raise{At: at(e)}
	var rs []*Result
	switch {
	case len(args) == 0:
	case len(args) == 1:
		rs = append(rs, c.compile(args[0]))
	case len(args) == 3 && isKeyword(args[1], "from"):
		rs = append(rs, c.compile(args[0]), c.compile(args[2]))
	default:
		fail(e, "`raise' takes an exception and an optional :from cause")
	}
	ret, exprs := c.sequence(e, rs)
	if len(exprs) > 0 {
		node.Exc = exprs[0]
	}
	if len(exprs) > 1 {
		node.Cause = exprs[1]
	}
	return ret.Emit(node)
}

func isKeyword(m models.Model, kw string) bool {
	k, ok := m.(*models.Keyword)
	return ok && k.Name == kw
}

func compileAssert(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, 2)
	ret, exprs := c.compileAll(e, args)
	node := &pyast.Assert{At: at(e), Test: exprs[0]}
	if len(exprs) == 2 {
		node.Msg = exprs[1]
	}
	return ret.Emit(node)
}

func compileDel(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, -1)
	ret, targets := c.targets(args)
	return ret.Emit(&pyast.Delete{At: at(e), Targets: targets})
}

func (c *Compiler) scopeDecl(e *models.Expression, args []models.Model, nonlocal bool) *Result {
	arity(e, args, 1, -1)
	var names []string
	for _, a := range args {
		s, ok := a.(*models.Symbol)
		if !ok {
			fail(a, "`%s' takes symbols only", models.Head(e).Name)
		}
		names = append(names, c.param(s))
	}
	if nonlocal {
		return (&Result{}).Emit(&pyast.Nonlocal{At: at(e), Names: names})
	}
	return (&Result{}).Emit(&pyast.Global{At: at(e), Names: names})
}

//----------------------------------------------------------------------

func dottedName(s *models.Symbol) string {
	parts := strings.Split(s.Name, ".")
	for i, p := range parts {
		if p == "" {
			fail(s, "malformed module name %s", s.Name)
		}
		parts[i] = models.Mangle(p)
	}
	return strings.Join(parts, ".")
}

// compileImport compiles the runtime import forms:
//
//	(import os os.path)           ; import os; import os.path
//	(import [os.path :as p])      ; import os.path as p
//	(import [os [path sep :as s]]) ; from os import path, sep as s
//	(import [os [*]])             ; from os import *
func compileImport(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, -1)
	ret := &Result{}
	for _, a := range args {
		switch x := a.(type) {
		case *models.Symbol:
			ret.Emit(&pyast.Import{At: at(x), Names: []pyast.Alias{{Name: dottedName(x)}}})
		case *models.List:
			ret.Emit(c.importList(x))
		default:
			fail(a, "unknown import shape %s", a.Repr())
		}
	}
	return ret
}

func (c *Compiler) importList(l *models.List) pyast.Stmt {
	el := l.Elems()
	bad := func() { fail(l, "unknown import shape %s", l.Repr()) }
	if len(el) == 0 {
		bad()
	}
	mod, ok := el[0].(*models.Symbol)
	if !ok {
		bad()
	}
	switch {
	case len(el) == 1:
		return &pyast.Import{At: at(l), Names: []pyast.Alias{{Name: dottedName(mod)}}}
	case len(el) == 3 && isKeyword(el[1], "as"):
		as, ok := el[2].(*models.Symbol)
		if !ok {
			bad()
		}
		return &pyast.Import{At: at(l), Names: []pyast.Alias{{Name: dottedName(mod), AsName: c.param(as)}}}
	case len(el) == 2:
		names, ok := el[1].(*models.List)
		if !ok {
			bad()
		}
		ne := names.Elems()
		if len(ne) == 1 {
			if s, ok := ne[0].(*models.Symbol); ok && s.Name == "*" {
				return &pyast.ImportFrom{At: at(l), Module: dottedName(mod), Names: []pyast.Alias{{Name: "*"}}}
			}
		}
		node := &pyast.ImportFrom{At: at(l), Module: dottedName(mod)}
		for i := 0; i < len(ne); i++ {
			s, ok := ne[i].(*models.Symbol)
			if !ok {
				bad()
			}
			alias := pyast.Alias{Name: c.param(s)}
			if i+2 < len(ne) && isKeyword(ne[i+1], "as") {
				as, ok := ne[i+2].(*models.Symbol)
				if !ok {
					bad()
				}
				alias.AsName = c.param(as)
				i += 2
			}
			node.Names = append(node.Names, alias)
		}
		if len(node.Names) == 0 {
			bad()
		}
		return node
	}
	bad()
	return nil
}

// compileRequire loads macros at compile time and emits no code.
func compileRequire(c *Compiler, e *models.Expression, args []models.Model) *Result {
	specs, err := macros.ParseRequire(args)
	if err != nil {
		wrap(e, err)
	}
	for _, s := range specs {
		check(e, c.ctx.Require(c.mod, s))
	}
	return &Result{}
}

// compileDefclass compiles
//
//	(defclass Name [Base :metaclass M] "doc" [attr val ...] body...)
//
// A list right after the optional docstring binds class attributes.
func compileDefclass(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, -1)
	s, ok := args[0].(*models.Symbol)
	if !ok || strings.Contains(s.Name, ".") {
		fail(args[0], "`defclass' needs a plain symbol as the class name")
	}
	c.checkAssignable(s)
	body := args[1:]
	ret := &Result{}
	node := &pyast.ClassDef{At: at(e), Name: models.Mangle(s.Name)}
	if len(body) > 0 {
		if bases, ok := body[0].(*models.List); ok {
			r := c.call(bases, &Result{Expr: name(bases, "object")}, bases.Elems())
			call := r.Expr.(*pyast.Call)
			node.Bases, node.Keywords = call.Args, call.Keywords
			ret.Emit(r.Stmts...)
			body = body[1:]
		}
	}
	var stmts []pyast.Stmt
	if len(body) > 0 {
		if doc, ok := body[0].(*models.String); ok && len(body) > 1 {
			stmts = append(stmts, &pyast.ExprStmt{At: at(doc), Value: &pyast.Str{At: at(doc), Value: doc.Value}})
			body = body[1:]
		}
	}
	if len(body) > 0 {
		if attrs, ok := body[0].(*models.List); ok {
			stmts = append(stmts, compileSetv(c, e, attrs.Elems()).Stmts...)
			body = body[1:]
		}
	}
	rest, _ := c.block(e, body, "")
	node.Body = append(stmts, rest...)
	return ret.Emit(node)
}

//----------------------------------------------------------------------

// compileDot compiles (. obj attr [index] attr ...).
func compileDot(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, -1)
	rs := []*Result{c.compile(args[0])}
	for _, a := range args[1:] {
		switch x := a.(type) {
		case *models.Symbol:
		case *models.List:
			if len(x.Elems()) != 1 {
				fail(x, "subscript in `.' takes exactly one index")
			}
			rs = append(rs, c.compile(x.Elems()[0]))
		default:
			fail(a, "`.' takes symbols and [index] forms, got %s", a.Repr())
		}
	}
	ret, exprs := c.sequence(e, rs)
	v, k := exprs[0], 1
	for _, a := range args[1:] {
		if s, ok := a.(*models.Symbol); ok {
			v = &pyast.Attribute{At: at(s), Value: v, Attr: models.Mangle(s.Name)}
			continue
		}
		v = &pyast.Subscript{At: at(a), Value: v, Index: exprs[k]}
		k++
	}
	ret.Expr = v
	return ret
}

func compileGet(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 2, -1)
	ret, exprs := c.compileAll(e, args)
	v := exprs[0]
	for _, k := range exprs[1:] {
		v = &pyast.Subscript{At: at(e), Value: v, Index: k}
	}
	ret.Expr = v
	return ret
}

// compileCut compiles (cut obj lower upper step); a None bound is left
// empty.
func compileCut(c *Compiler, e *models.Expression, args []models.Model) *Result {
	arity(e, args, 1, 4)
	var rs []*Result
	present := make([]bool, 3)
	rs = append(rs, c.compile(args[0]))
	for i, a := range args[1:] {
		if s, ok := a.(*models.Symbol); ok && s.Name == "None" {
			continue
		}
		present[i] = true
		rs = append(rs, c.compile(a))
	}
	ret, exprs := c.sequence(e, rs)
	slots := make([]pyast.Expr, 3)
	k := 1
	for i := range slots {
		if present[i] {
			slots[i] = exprs[k]
			k++
		}
	}
	ret.Expr = &pyast.Subscript{At: at(e), Value: exprs[0],
		Index: &pyast.Slice{At: at(e), Lower: slots[0], Upper: slots[1], Step: slots[2]}}
	return ret
}

func compileTuple(c *Compiler, e *models.Expression, args []models.Model) *Result {
	ret, elts := c.elements(e, args)
	ret.Expr = &pyast.Tuple{At: at(e), Elts: elts}
	return ret
}

func compileStrayUnquote(c *Compiler, e *models.Expression, args []models.Model) *Result {
	fail(e, "`%s' is not allowed outside of a quasiquote", models.Head(e).Name)
	return nil
}

func compileStrayUnpack(c *Compiler, e *models.Expression, args []models.Model) *Result {
	fail(e, "`%s' is only allowed in calls, displays and assignment targets", models.Head(e).Name)
	return nil
}

//----------------------------------------------------------------------

// compileDefmacro defines the macro at compile time; no code is emitted.
func compileDefmacro(c *Compiler, e *models.Expression, args []models.Model) *Result {
	check(e, c.ctx.DefineMacro(c.mod, e))
	return &Result{}
}

// compileEvalAndCompile runs the body in the compile-time evaluator and
// also compiles it for run time.
func compileEvalAndCompile(c *Compiler, e *models.Expression, args []models.Model) *Result {
	for _, a := range args {
		_, err := c.ctx.Eval(a, c.mod)
		check(a, err)
	}
	return c.body(args)
}

func compileEvalWhenCompile(c *Compiler, e *models.Expression, args []models.Model) *Result {
	for _, a := range args {
		_, err := c.ctx.Eval(a, c.mod)
		check(a, err)
	}
	return &Result{}
}
