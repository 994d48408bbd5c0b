// Package compiler turns expanded Hy models into a Python AST.
//
// Every form compiles to a Result: the statements Python needs to run
// first plus an optional expression for the form's value. Constructs that
// are statements in Python (if, while, try, ...) but expressions in Hy
// store their value in a fresh temporary, so they nest anywhere an
// expression may appear.
package compiler

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"

	"github.com/nukata/hy-in-go/macros"
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
	"github.com/nukata/hy-in-go/reader"
)

// Compiler compiles the forms of one module. It is not safe for
// concurrent use; the macros.Context it shares may be.
type Compiler struct {
	ctx *macros.Context
	mod *macros.Module

	temps int

	// runtime imports the emitted code needs, by module
	imports  map[string][]pyast.Alias
	imported map[string]bool
}

// New returns a compiler for the named module of ctx.
func New(ctx *macros.Context, module string) *Compiler {
	return &Compiler{
		ctx:      ctx,
		mod:      ctx.Module(module),
		imports:  make(map[string][]pyast.Alias),
		imported: make(map[string]bool),
	}
}

// Module returns the macro module the compiler defines into.
func (c *Compiler) Module() *macros.Module { return c.mod }

// NewContext returns a macros.Context whose (require M) loads M from
// <dir>/<M with dots as slashes>.hy on opts.SearchPath.
func NewContext(opts macros.Options) *macros.Context {
	ctx := macros.NewContext(opts)
	ctx.Loader = loadFromSearchPath
	return ctx
}

func loadFromSearchPath(ctx *macros.Context, name string) (*macros.Module, error) {
	rel := filepath.FromSlash(strings.ReplaceAll(name, ".", "/")) + ".hy"
	for _, dir := range ctx.Options.SearchPath {
		path := filepath.Join(dir, rel)
		src, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, &macros.ImportError{Module: name, Msg: err.Error()}
		}
		forms, err := reader.ParseAll(string(src), path)
		if err != nil {
			return nil, err
		}
		c := New(ctx, name)
		if _, err := c.Compile(forms...); err != nil {
			return nil, err
		}
		return c.mod, nil
	}
	return nil, &macros.ImportError{Module: name}
}

//----------------------------------------------------------------------

// Compile compiles forms in order and returns them as a Python module.
// Runtime imports needed by the code and not emitted by an earlier call
// are prepended. Compilation stops at the first failing form.
func (c *Compiler) Compile(forms ...models.Model) (*pyast.Module, error) {
	var body []pyast.Stmt
	for _, f := range forms {
		stmts, err := c.CompileForm(f)
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	return &pyast.Module{Body: c.withPrologue(body)}, nil
}

// CompileForm compiles one top-level form. Failures of any kind are
// returned as errors and leave the compiler usable for the next form.
func (c *Compiler) CompileForm(form models.Model) (stmts []pyast.Stmt, err error) {
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case *CompilerError:
				err = x
			case *macros.ExpansionError:
				err = x
			case *macros.EvalError:
				err = x
			default:
				err = &InternalError{Pos: form.Position(), Msg: fmt.Sprint(r), Stack: string(debug.Stack())}
			}
		}
	}()
	return c.compile(form).Statements(), nil
}

// withPrologue prepends pending runtime imports, after a docstring if
// body starts with one.
func (c *Compiler) withPrologue(body []pyast.Stmt) []pyast.Stmt {
	mods := make([]string, 0, len(c.imports))
	for m := range c.imports {
		mods = append(mods, m)
	}
	sort.Strings(mods)
	var prologue []pyast.Stmt
	for _, m := range mods {
		names := c.imports[m]
		sort.Slice(names, func(i, j int) bool { return names[i].Name < names[j].Name })
		prologue = append(prologue, &pyast.ImportFrom{Module: m, Names: names})
		delete(c.imports, m)
	}
	if len(prologue) == 0 {
		return body
	}
	var doc []pyast.Stmt
	if len(body) > 0 {
		if e, ok := body[0].(*pyast.ExprStmt); ok {
			if _, ok := e.Value.(*pyast.Str); ok {
				doc, body = body[:1], body[1:]
			}
		}
	}
	return append(append(doc, prologue...), body...)
}

// use records that the emitted code refers to module.name as alias.
func (c *Compiler) use(module, name, alias string) {
	key := module + " " + name
	if c.imported[key] {
		return
	}
	c.imported[key] = true
	c.imports[module] = append(c.imports[module], pyast.Alias{Name: name, AsName: alias})
}

// temp returns a fresh temporary variable name.
func (c *Compiler) temp() string {
	c.temps++
	return fmt.Sprintf("%s%d", tempPrefix, c.temps)
}

//----------------------------------------------------------------------

func at(m models.Model) pyast.At { return pyast.At{Pos: m.Position()} }

func name(m models.Model, id string) *pyast.Name { return &pyast.Name{At: at(m), Id: id} }

func assign(m models.Model, target string, v pyast.Expr) *pyast.Assign {
	return &pyast.Assign{At: at(m), Targets: []pyast.Expr{name(m, target)}, Value: v}
}

func exprResult(e pyast.Expr) *Result { return &Result{Expr: e} }

// compile dispatches on the model's variant.
func (c *Compiler) compile(m models.Model) *Result {
	switch x := m.(type) {
	case *models.Expression:
		return c.compileExpression(x)
	case *models.Symbol:
		return exprResult(c.symbol(x))
	case *models.Keyword:
		return exprResult(&pyast.Str{At: at(x), Value: x.Text()})
	case *models.String:
		return exprResult(&pyast.Str{At: at(x), Value: x.Value})
	case *models.Bytes:
		return exprResult(&pyast.Bytes{At: at(x), Value: x.Value})
	case *models.Integer:
		return exprResult(&pyast.Int{At: at(x), Value: x.Value})
	case *models.Float:
		return exprResult(&pyast.Float{At: at(x), Value: x.Value})
	case *models.Complex:
		return exprResult(&pyast.Complex{At: at(x), Value: x.Value})
	case *models.List:
		ret, elts := c.elements(x, x.Elems())
		ret.Expr = &pyast.List{At: at(x), Elts: elts}
		return ret
	case *models.Set:
		ret, elts := c.elements(x, x.Elems())
		ret.Expr = &pyast.Set{At: at(x), Elts: elts}
		return ret
	case *models.Dict:
		return c.dict(x)
	}
	panic(fmt.Sprintf("no compilation rule for %T", m))
}

// symbol compiles a variable reference; a dotted symbol is an attribute
// chain.
func (c *Compiler) symbol(s *models.Symbol) pyast.Expr {
	switch s.Name {
	case "None", "True", "False", "...":
		return name(s, s.Name)
	case "fraction":
		c.use("fractions", "Fraction", "fraction")
	}
	if s.Name[0] == '.' {
		fail(s, "cannot access attribute on anything other than a name (in order to get attributes of expressions, use `(. <expression> %s)` or `(.%s <expression>)`)",
			s.Name[1:], s.Name[1:])
	}
	parts := strings.Split(s.Name, ".")
	var e pyast.Expr = name(s, models.Mangle(parts[0]))
	for _, p := range parts[1:] {
		if p == "" {
			fail(s, "cannot access empty attribute in %s", s.Name)
		}
		e = &pyast.Attribute{At: at(s), Value: e, Attr: models.Mangle(p)}
	}
	return e
}

// sequence combines the results of forms Python evaluates left to right.
// When a later form needs statements, earlier values that those
// statements could observe or change are saved in temporaries first.
func (c *Compiler) sequence(site models.Model, rs []*Result) (*Result, []pyast.Expr) {
	ret := &Result{}
	exprs := make([]pyast.Expr, len(rs))
	for i, r := range rs {
		if r.HasStmts() {
			for j := 0; j < i; j++ {
				if !isPure(exprs[j]) {
					tmp := c.temp()
					ret.Emit(&pyast.Assign{At: pyast.At{Pos: exprs[j].Position()},
						Targets: []pyast.Expr{&pyast.Name{At: pyast.At{Pos: exprs[j].Position()}, Id: tmp}},
						Value:   exprs[j]})
					exprs[j] = &pyast.Name{At: pyast.At{Pos: exprs[j].Position()}, Id: tmp}
				}
			}
		}
		ret.Emit(r.Stmts...)
		ret.ContainsYield = ret.ContainsYield || r.ContainsYield
		exprs[i] = r.ForceExpr(site)
	}
	return ret, exprs
}

// compileAll compiles forms as a left-to-right sequence of values.
func (c *Compiler) compileAll(site models.Model, forms []models.Model) (*Result, []pyast.Expr) {
	rs := make([]*Result, len(forms))
	for i, f := range forms {
		rs[i] = c.compile(f)
	}
	return c.sequence(site, rs)
}

// unpack returns the operand of (unpack-iterable x) or (unpack-mapping x)
// if m is such a form.
func unpack(m models.Model, kind string) (models.Model, bool) {
	if !models.IsCall(m, kind) {
		return nil, false
	}
	el := m.(*models.Expression).Elems()
	if len(el) != 2 {
		fail(m, "%s takes exactly one argument", kind)
	}
	return el[1], true
}

// elements compiles the items of a list or set display.
func (c *Compiler) elements(site models.Model, forms []models.Model) (*Result, []pyast.Expr) {
	rs := make([]*Result, len(forms))
	starred := make([]bool, len(forms))
	for i, f := range forms {
		if inner, ok := unpack(f, "unpack-iterable"); ok {
			rs[i], starred[i] = c.compile(inner), true
			continue
		}
		if _, ok := unpack(f, "unpack-mapping"); ok {
			fail(f, "`#**` is only allowed in calls and dict displays")
		}
		rs[i] = c.compile(f)
	}
	ret, exprs := c.sequence(site, rs)
	for i := range exprs {
		if starred[i] {
			exprs[i] = &pyast.Starred{At: at(forms[i]), Value: exprs[i]}
		}
	}
	return ret, exprs
}

func (c *Compiler) dict(d *models.Dict) *Result {
	var rs []*Result
	var spread []bool
	el := d.Elems()
	for i := 0; i < len(el); i++ {
		if inner, ok := unpack(el[i], "unpack-mapping"); ok {
			rs = append(rs, c.compile(inner))
			spread = append(spread, true)
			continue
		}
		if i+1 >= len(el) {
			fail(d, "dict display needs an even number of forms")
		}
		rs = append(rs, c.compile(el[i]), c.compile(el[i+1]))
		spread = append(spread, false)
		i++
	}
	ret, exprs := c.sequence(d, rs)
	out := &pyast.Dict{At: at(d)}
	k := 0
	for _, s := range spread {
		if s {
			out.Keys = append(out.Keys, nil)
			out.Values = append(out.Values, exprs[k])
			k++
		} else {
			out.Keys = append(out.Keys, exprs[k])
			out.Values = append(out.Values, exprs[k+1])
			k += 2
		}
	}
	ret.Expr = out
	return ret
}

//----------------------------------------------------------------------

// compileExpression expands macros, then compiles a special form or a
// call.
func (c *Compiler) compileExpression(e *models.Expression) *Result {
	expanded, err := c.ctx.Macroexpand(e, c.mod)
	if err != nil {
		panic(err)
	}
	e2, ok := expanded.(*models.Expression)
	if !ok {
		return c.compile(expanded)
	}
	e = e2
	elems := e.Elems()
	if len(elems) == 0 {
		fail(e, "empty expressions are not allowed")
	}
	if h := models.Head(e); h != nil {
		if sf, ok := specialForms[h.Name]; ok {
			return sf(c, e, elems[1:])
		}
		if len(h.Name) > 1 && h.Name[0] == '.' && h.Name != "..." {
			return c.methodCall(e, h, elems[1:])
		}
	}
	fn := c.compile(elems[0])
	return c.call(e, fn, elems[1:])
}

// call compiles fn(args...) where args may hold keywords, #* and #**.
func (c *Compiler) call(e models.Model, fn *Result, args []models.Model) *Result {
	const (
		positional = iota
		star
		keyword
		doubleStar
	)
	kinds := []int{positional}
	names := []string{""}
	rs := []*Result{fn}
	for i := 0; i < len(args); i++ {
		a := args[i]
		if kw, ok := a.(*models.Keyword); ok {
			if i+1 >= len(args) {
				fail(kw, "keyword argument :%s needs a value", kw.Name)
			}
			kinds, names = append(kinds, keyword), append(names, models.Mangle(kw.Name))
			rs = append(rs, c.compile(args[i+1]))
			i++
			continue
		}
		if inner, ok := unpack(a, "unpack-iterable"); ok {
			kinds, names = append(kinds, star), append(names, "")
			rs = append(rs, c.compile(inner))
			continue
		}
		if inner, ok := unpack(a, "unpack-mapping"); ok {
			kinds, names = append(kinds, doubleStar), append(names, "")
			rs = append(rs, c.compile(inner))
			continue
		}
		kinds, names = append(kinds, positional), append(names, "")
		rs = append(rs, c.compile(a))
	}
	ret, exprs := c.sequence(e, rs)
	node := &pyast.Call{At: at(e), Func: exprs[0]}
	for i := 1; i < len(exprs); i++ {
		switch kinds[i] {
		case positional:
			node.Args = append(node.Args, exprs[i])
		case star:
			node.Args = append(node.Args, &pyast.Starred{At: pyast.At{Pos: exprs[i].Position()}, Value: exprs[i]})
		case keyword:
			node.Keywords = append(node.Keywords, pyast.Keyword{Arg: names[i], Value: exprs[i]})
		case doubleStar:
			node.Keywords = append(node.Keywords, pyast.Keyword{Value: exprs[i]})
		}
	}
	ret.Expr = node
	return ret
}

// methodCall compiles (.method obj args...) as obj.method(args...).
func (c *Compiler) methodCall(e *models.Expression, h *models.Symbol, args []models.Model) *Result {
	if len(args) == 0 {
		fail(e, "%s needs an object to call the method on", h.Name)
	}
	if _, ok := unpack(args[0], "unpack-iterable"); ok {
		fail(args[0], "cannot unpack the object of a method call")
	}
	obj := c.compile(args[0])
	fn := obj.Expr
	if fn == nil {
		fn = name(args[0], "None")
	}
	for _, p := range strings.Split(h.Name[1:], ".") {
		if p == "" {
			fail(h, "cannot access empty attribute in %s", h.Name)
		}
		fn = &pyast.Attribute{At: at(h), Value: fn, Attr: models.Mangle(p)}
	}
	return c.call(e, &Result{Stmts: obj.Stmts, Expr: fn, ContainsYield: obj.ContainsYield}, args[1:])
}

// body compiles forms for their last value.
func (c *Compiler) body(forms []models.Model) *Result {
	ret := &Result{}
	for i, f := range forms {
		r := c.compile(f)
		if i < len(forms)-1 {
			ret.Emit(r.Statements()...)
			ret.ContainsYield = ret.ContainsYield || r.ContainsYield
		} else {
			ret.Add(r)
		}
	}
	return ret
}

// block compiles forms as a statement list, ending with the assignment of
// the last value to target unless target is empty.
func (c *Compiler) block(site models.Model, forms []models.Model, target string) ([]pyast.Stmt, bool) {
	r := c.body(forms)
	if target == "" {
		return r.Statements(), r.ContainsYield
	}
	return append(r.Stmts, assign(site, target, r.ForceExpr(site))), r.ContainsYield
}
