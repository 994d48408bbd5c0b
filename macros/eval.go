package macros

import (
	"fmt"
	"strings"

	"github.com/nukata/hy-in-go/models"
)

// Any is a compile-time value: a models.Model, nil (None), a bool, a
// *Closure, a *Builtin or an *Exception.
type Any = interface{}

//----------------------------------------------------------------------

// Env is one frame of local bindings.
type Env struct {
	vars   map[string]Any
	parent *Env
}

// NewEnv returns a frame whose lookups fall back to parent.
func NewEnv(parent *Env) *Env {
	return &Env{vars: make(map[string]Any), parent: parent}
}

// LookFor returns the frame binding key, or nil.
func (env *Env) LookFor(key string) *Env {
	for env != nil {
		if _, ok := env.vars[key]; ok {
			return env
		}
		env = env.parent
	}
	return nil
}

// Closure is a function written in Hy and evaluated at compile time.
type Closure struct {
	Name   string
	Params *LambdaList
	Body   []models.Model
	Env    *Env
	Mod    *Module
}

// Builtin is a function implemented in Go.
type Builtin struct {
	Name string
	Fn   func(ev *evaluator, args []Any) Any
}

// Exception is a raisable value made by Exception, ValueError and kin.
type Exception struct {
	Kind string
	Msg  string
}

func (e *Exception) Error() string {
	if e.Msg == "" {
		return e.Kind
	}
	return e.Kind + ": " + e.Msg
}

// EvalError reports a failure while evaluating at compile time.
type EvalError struct {
	Pos models.Pos
	Msg string
	Err error
}

func (e *EvalError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%d:%d: %s", e.Pos.StartLine, e.Pos.StartColumn, e.Msg)
	}
	return e.Msg
}

func (e *EvalError) Unwrap() error { return e.Err }

// Position returns where evaluation failed.
func (e *EvalError) Position() models.Pos { return e.Pos }

type returnSignal struct{ val Any }
type breakSignal struct{}
type continueSignal struct{}

//----------------------------------------------------------------------

type evaluator struct {
	ctx *Context
	mod *Module
}

type specialForm func(ev *evaluator, e *models.Expression, env *Env) Any

var specialForms map[string]specialForm

func init() {
	specialForms = map[string]specialForm{
		"quote":             evalQuote,
		"quasiquote":        evalQuasiquote,
		"if":                evalIf,
		"do":                evalDo,
		"progn":             evalDo,
		"eval-and-compile":  evalDo,
		"eval-when-compile": evalDo,
		"setv":              evalSetv,
		"def":               evalSetv,
		"fn":                evalFn,
		"defn":              evalDefn,
		"for":               evalFor,
		"lfor":              evalLfor,
		"while":             evalWhile,
		"and":               evalAnd,
		"or":                evalOr,
		"return":            evalReturn,
		"break":             func(*evaluator, *models.Expression, *Env) Any { panic(breakSignal{}) },
		"continue":          func(*evaluator, *models.Expression, *Env) Any { panic(continueSignal{}) },
		"raise":             evalRaise,
		"defmacro":          evalDefmacro,
		"deftag":            evalDefmacro,
		"require":           evalRequire,
		"import":            func(*evaluator, *models.Expression, *Env) Any { return nil },
	}
}

// Eval evaluates form at compile time in mod's namespace.
func (c *Context) Eval(form models.Model, mod *Module) (v Any, err error) {
	ev := &evaluator{ctx: c, mod: mod}
	defer func() {
		if r := recover(); r != nil {
			err = ev.asError(r, form)
		}
	}()
	return ev.eval(form, nil), nil
}

func (ev *evaluator) asError(r interface{}, form models.Model) error {
	switch x := r.(type) {
	case *EvalError:
		return x
	case *ExpansionError:
		return x
	case *Exception:
		return &EvalError{Pos: form.Position(), Msg: x.Error(), Err: x}
	case returnSignal:
		return &EvalError{Pos: form.Position(), Msg: "'return' outside function"}
	case breakSignal, continueSignal:
		return &EvalError{Pos: form.Position(), Msg: "'break' or 'continue' outside loop"}
	case error:
		return &EvalError{Pos: form.Position(), Msg: x.Error(), Err: x}
	}
	return &EvalError{Pos: form.Position(), Msg: fmt.Sprint(r)}
}

func (ev *evaluator) fail(at models.Model, format string, args ...interface{}) {
	var pos models.Pos
	if at != nil {
		pos = at.Position()
	}
	panic(&EvalError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

func (ev *evaluator) eval(form models.Model, env *Env) Any {
	switch f := form.(type) {
	case *models.Symbol:
		return ev.lookup(f, env)
	case *models.Expression:
		return ev.evalExpression(f, env)
	case *models.List:
		return models.NewList(ev.evalElems(f.Elems(), env)...).Replace(f)
	case *models.Set:
		return models.NewSet(ev.evalElems(f.Elems(), env)...).Replace(f)
	case *models.Dict:
		return models.NewDict(ev.evalElems(f.Elems(), env)...).Replace(f)
	}
	return form
}

func (ev *evaluator) lookup(s *models.Symbol, env *Env) Any {
	switch s.Name {
	case "None":
		return nil
	case "True":
		return true
	case "False":
		return false
	}
	key := s.Mangled()
	if frame := env.LookFor(key); frame != nil {
		return frame.vars[key]
	}
	if v, ok := ev.mod.Global(key); ok {
		return v
	}
	if b, ok := builtins[key]; ok {
		return b
	}
	if i := strings.IndexByte(s.Name, '.'); i > 0 {
		return ev.getAttr(ev.lookup(models.NewSymbol(s.Name[:i]), env), s.Name[i+1:], s)
	}
	ev.fail(s, "name '%s' is not defined", s.Name)
	return nil
}

func (ev *evaluator) getAttr(v Any, attr string, at models.Model) Any {
	if e, ok := v.(*Exception); ok && attr == "args" {
		return models.NewList(models.NewString(e.Msg))
	}
	ev.fail(at, "attribute access '.%s' is not supported at compile time", attr)
	return nil
}

// evalElems evaluates the elements of a literal, splicing #* forms.
func (ev *evaluator) evalElems(elems []models.Model, env *Env) []models.Model {
	out := make([]models.Model, 0, len(elems))
	for _, e := range elems {
		if models.IsCall(e, "unpack-iterable") && len(e.(*models.Expression).Elems()) == 2 {
			v := ev.eval(e.(*models.Expression).Elems()[1], env)
			out = append(out, ev.iterate(v, e)...)
			continue
		}
		out = append(out, ev.model(ev.eval(e, env), e))
	}
	return out
}

// model converts v to a model or fails at the given form.
func (ev *evaluator) model(v Any, at models.Model) models.Model {
	m, err := AsModel(v)
	if err != nil {
		ev.fail(at, "%v", err)
	}
	return m
}

// iterate lists the items of a sequence or string value.
func (ev *evaluator) iterate(v Any, at models.Model) []models.Model {
	switch x := v.(type) {
	case nil:
		return nil
	case models.Sequence:
		return x.Elems()
	case *models.String:
		var out []models.Model
		for _, r := range x.Value {
			out = append(out, models.NewString(string(r)))
		}
		return out
	}
	ev.fail(at, "%s is not iterable", typeName(v))
	return nil
}

func (ev *evaluator) evalExpression(e *models.Expression, env *Env) Any {
	expanded, err := ev.ctx.Macroexpand(e, ev.mod)
	if err != nil {
		panic(err)
	}
	e2, ok := expanded.(*models.Expression)
	if !ok {
		return ev.eval(expanded, env)
	}
	e = e2
	elems := e.Elems()
	if len(elems) == 0 {
		ev.fail(e, "empty expressions are not allowed")
	}
	if h := models.Head(e); h != nil {
		if sf, ok := specialForms[h.Name]; ok {
			return sf(ev, e, env)
		}
		if len(h.Name) > 1 && h.Name[0] == '.' && h.Name != "..." {
			if len(elems) < 2 {
				ev.fail(e, "method call %s needs an object", h.Name)
			}
			obj := ev.eval(elems[1], env)
			return ev.callMethod(obj, h.Name[1:], ev.evalArgs(elems[2:], env), e)
		}
	}
	fn := ev.eval(elems[0], env)
	if f, ok := fn.(*Closure); ok {
		args, kws := ev.evalCallArgs(elems[1:], env)
		return ev.callClosure(f, args, kws, e)
	}
	return ev.apply(fn, ev.evalArgs(elems[1:], env), e)
}

// kwArg is a keyword argument of a call to a closure.
type kwArg struct {
	name string
	val  Any
	at   models.Model
}

// evalCallArgs evaluates the arguments of a closure call. :name value
// pairs and #** dicts become keyword arguments; builtins take keywords as
// plain values instead.
func (ev *evaluator) evalCallArgs(forms []models.Model, env *Env) ([]Any, []kwArg) {
	var args []Any
	var kws []kwArg
	for i := 0; i < len(forms); i++ {
		f := forms[i]
		switch {
		case models.IsCall(f, "unpack-mapping") && len(f.(*models.Expression).Elems()) == 2:
			d, ok := ev.eval(f.(*models.Expression).Elems()[1], env).(*models.Dict)
			if !ok {
				ev.fail(f, "argument after ** must be a dict")
			}
			el := d.Elems()
			for j := 0; j+1 < len(el); j += 2 {
				key, ok := el[j].(*models.String)
				if !ok {
					ev.fail(f, "keywords must be strings")
				}
				kws = append(kws, kwArg{name: key.Value, val: el[j+1], at: f})
			}
		case isKeyword(f):
			if i+1 >= len(forms) {
				ev.fail(f, "keyword argument :%s needs a value", f.(*models.Keyword).Name)
			}
			kws = append(kws, kwArg{name: f.(*models.Keyword).Name, val: ev.eval(forms[i+1], env), at: f})
			i++
		default:
			args = append(args, ev.evalArgs([]models.Model{f}, env)...)
		}
	}
	return args, kws
}

func isKeyword(m models.Model) bool {
	_, ok := m.(*models.Keyword)
	return ok
}

func (ev *evaluator) evalArgs(forms []models.Model, env *Env) []Any {
	args := make([]Any, 0, len(forms))
	for _, f := range forms {
		if models.IsCall(f, "unpack-iterable") && len(f.(*models.Expression).Elems()) == 2 {
			for _, m := range ev.iterate(ev.eval(f.(*models.Expression).Elems()[1], env), f) {
				args = append(args, m)
			}
			continue
		}
		args = append(args, ev.eval(f, env))
	}
	return args
}

func (ev *evaluator) apply(fn Any, args []Any, site models.Model) Any {
	switch f := fn.(type) {
	case *Builtin:
		return f.Fn(ev, args)
	case *Closure:
		return ev.callClosure(f, args, nil, site)
	}
	ev.fail(site, "%s is not callable", typeName(fn))
	return nil
}

func (ev *evaluator) callClosure(f *Closure, args []Any, kws []kwArg, site models.Model) (result Any) {
	if err := ev.ctx.enter(); err != nil {
		ev.fail(site, "%s(): %v", f.Name, err)
	}
	defer ev.ctx.leave()

	env := NewEnv(f.Env)
	ll := f.Params
	need := len(ll.Required)
	if ll.Rest == nil && len(args) > need+len(ll.Optional) {
		ev.fail(site, "%s() takes %d positional arguments but %d were given", f.Name,
			need+len(ll.Optional), len(args))
	}
	callee := &evaluator{ctx: ev.ctx, mod: f.Mod}
	bound := make(map[string]bool)
	bind := func(name string, v Any) {
		env.vars[name] = v
		bound[name] = true
	}
	for i, s := range ll.Required {
		if i < len(args) {
			bind(s.Mangled(), args[i])
		}
	}
	for i, p := range ll.Optional {
		if need+i < len(args) {
			bind(p.Name.Mangled(), args[need+i])
		}
	}
	if ll.Rest != nil {
		var rest []models.Model
		for i := need + len(ll.Optional); i < len(args); i++ {
			rest = append(rest, ev.model(args[i], site))
		}
		env.vars[ll.Rest.Mangled()] = models.NewList(rest...)
	}

	var extra []models.Model
	for _, kw := range kws {
		key := models.Mangle(kw.name)
		switch {
		case bound[key]:
			ev.fail(kw.at, "%s() got multiple values for argument '%s'", f.Name, kw.name)
		case ll.named(key):
			bind(key, kw.val)
		case ll.Kwargs != nil:
			extra = append(extra, models.NewString(kw.name), ev.model(kw.val, kw.at))
		default:
			ev.fail(kw.at, "%s() got an unexpected keyword argument '%s'", f.Name, kw.name)
		}
	}

	var missing []string
	for _, s := range ll.Required {
		if !bound[s.Mangled()] {
			missing = append(missing, s.Name)
		}
	}
	if len(missing) > 0 {
		ev.fail(site, "%s() missing required argument(s): %s", f.Name, strings.Join(missing, ", "))
	}
	for _, p := range ll.Optional {
		if !bound[p.Name.Mangled()] {
			env.vars[p.Name.Mangled()] = callee.eval(p.Default, env)
		}
	}
	for _, p := range ll.KwOnly {
		if bound[p.Name.Mangled()] {
			continue
		}
		if !p.HasDefault {
			ev.fail(site, "%s() missing required keyword-only argument '%s'", f.Name, p.Name.Name)
		}
		env.vars[p.Name.Mangled()] = callee.eval(p.Default, env)
	}
	if ll.Kwargs != nil {
		env.vars[ll.Kwargs.Mangled()] = models.NewDict(extra...)
	}

	defer func() {
		if r := recover(); r != nil {
			if ret, ok := r.(returnSignal); ok {
				result = ret.val
				return
			}
			panic(r)
		}
	}()
	return callee.body(f.Body, env)
}

func (ev *evaluator) body(forms []models.Model, env *Env) Any {
	var v Any
	for _, f := range forms {
		v = ev.eval(f, env)
	}
	return v
}

//----------------------------------------------------------------------

func argsOf(e *models.Expression) []models.Model { return e.Elems()[1:] }

func evalQuote(ev *evaluator, e *models.Expression, env *Env) Any {
	if len(argsOf(e)) != 1 {
		ev.fail(e, "quote takes exactly one argument")
	}
	return models.Copy(argsOf(e)[0])
}

func evalQuasiquote(ev *evaluator, e *models.Expression, env *Env) Any {
	if len(argsOf(e)) != 1 {
		ev.fail(e, "quasiquote takes exactly one argument")
	}
	return ev.qq(argsOf(e)[0], 0, env)
}

// qq builds the value of a quasiquoted template. level counts enclosing
// quasiquotes below the outermost one.
func (ev *evaluator) qq(form models.Model, level int, env *Env) models.Model {
	seq, ok := form.(models.Sequence)
	if !ok {
		return form
	}
	if e, ok := form.(*models.Expression); ok && len(e.Elems()) == 2 {
		if h := models.Head(e); h != nil {
			switch h.Name {
			case "unquote":
				if level == 0 {
					return ev.model(ev.eval(e.Elems()[1], env), e).Replace(e)
				}
				return e.WithElems([]models.Model{h, ev.qq(e.Elems()[1], level-1, env)})
			case "unquote-splice":
				if level == 0 {
					ev.fail(e, "unquote-splice must appear inside a sequence")
				}
				return e.WithElems([]models.Model{h, ev.qq(e.Elems()[1], level-1, env)})
			case "quasiquote":
				return e.WithElems([]models.Model{h, ev.qq(e.Elems()[1], level+1, env)})
			}
		}
	}
	var out []models.Model
	for _, el := range seq.Elems() {
		if level == 0 && models.IsCall(el, "unquote-splice") && len(el.(*models.Expression).Elems()) == 2 {
			v := ev.eval(el.(*models.Expression).Elems()[1], env)
			out = append(out, ev.iterate(v, el)...)
			continue
		}
		out = append(out, ev.qq(el, level, env))
	}
	return seq.WithElems(out)
}

func evalIf(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a) < 2 {
		ev.fail(e, "if needs a test and a branch")
	}
	for len(a) >= 2 {
		if truthy(ev.eval(a[0], env)) {
			return ev.eval(a[1], env)
		}
		a = a[2:]
	}
	if len(a) == 1 {
		return ev.eval(a[0], env)
	}
	return nil
}

func evalDo(ev *evaluator, e *models.Expression, env *Env) Any {
	return ev.body(argsOf(e), env)
}

func (ev *evaluator) assign(target models.Model, v Any, env *Env) {
	switch t := target.(type) {
	case *models.Symbol:
		key := t.Mangled()
		if env == nil {
			ev.mod.SetGlobal(key, v)
		} else if frame := env.LookFor(key); frame != nil {
			frame.vars[key] = v
		} else {
			env.vars[key] = v
		}
	case *models.List:
		items := ev.iterate(v, target)
		if len(items) != len(t.Elems()) {
			ev.fail(target, "cannot unpack %d values into %d targets", len(items), len(t.Elems()))
		}
		for i, sub := range t.Elems() {
			ev.assign(sub, items[i], env)
		}
	default:
		ev.fail(target, "cannot assign to %s at compile time", target.Repr())
	}
}

func evalSetv(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a)%2 != 0 {
		ev.fail(e, "setv needs an even number of arguments")
	}
	for i := 0; i < len(a); i += 2 {
		ev.assign(a[i], ev.eval(a[i+1], env), env)
	}
	return nil
}

func (ev *evaluator) closure(name string, params models.Model, body []models.Model, env *Env, at models.Model) *Closure {
	ll, err := ParseLambdaList(params)
	if err != nil {
		ev.fail(at, "%v", err)
	}
	return &Closure{Name: name, Params: ll, Body: body, Env: env, Mod: ev.mod}
}

func evalFn(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a) < 1 {
		ev.fail(e, "fn needs a lambda list")
	}
	return ev.closure("<lambda>", a[0], a[1:], env, e)
}

func evalDefn(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a) < 2 {
		ev.fail(e, "defn needs a name and a lambda list")
	}
	name, ok := a[0].(*models.Symbol)
	if !ok {
		ev.fail(a[0], "defn name must be a symbol")
	}
	ev.assign(name, ev.closure(name.Name, a[1], a[2:], env, e), env)
	return nil
}

// loop runs fn for each item, honouring break and continue.
func (ev *evaluator) loop(items []models.Model, fn func(models.Model)) {
	for _, it := range items {
		if stop := ev.iteration(func() { fn(it) }); stop {
			return
		}
	}
}

func (ev *evaluator) iteration(fn func()) (stop bool) {
	defer func() {
		if r := recover(); r != nil {
			switch r.(type) {
			case breakSignal:
				stop = true
			case continueSignal:
			default:
				panic(r)
			}
		}
	}()
	fn()
	return false
}

// scope returns a frame for loop bindings: the current one, or a fresh
// frame at the top level so that loop variables do not leak into globals.
func scope(env *Env) *Env {
	if env == nil {
		return NewEnv(nil)
	}
	return env
}

func evalFor(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a) < 1 {
		ev.fail(e, "for needs a binding list")
	}
	binds, ok := a[0].(*models.List)
	if !ok || len(binds.Elems()) != 2 {
		ev.fail(a[0], "for expects [target iterable]")
	}
	env = scope(env)
	target := binds.Elems()[0]
	items := ev.iterate(ev.eval(binds.Elems()[1], env), binds)
	ev.loop(items, func(it models.Model) {
		ev.assign(target, it, env)
		ev.body(a[1:], env)
	})
	return nil
}

// evalLfor handles (lfor x xs [:if cond] ... expr).
func evalLfor(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a) < 3 {
		ev.fail(e, "lfor needs a target, an iterable and a result")
	}
	env = NewEnv(env)
	var out []models.Model
	var run func(clauses []models.Model)
	run = func(clauses []models.Model) {
		if len(clauses) == 1 {
			out = append(out, ev.model(ev.eval(clauses[0], env), clauses[0]))
			return
		}
		if kw, ok := clauses[0].(*models.Keyword); ok {
			if kw.Name != "if" || len(clauses) < 3 {
				ev.fail(kw, "unsupported lfor clause :%s", kw.Name)
			}
			if truthy(ev.eval(clauses[1], env)) {
				run(clauses[2:])
			}
			return
		}
		if len(clauses) < 3 {
			ev.fail(e, "lfor clause needs a target and an iterable")
		}
		target := clauses[0]
		for _, it := range ev.iterate(ev.eval(clauses[1], env), clauses[1]) {
			ev.assign(target, it, env)
			run(clauses[2:])
		}
	}
	run(a)
	return models.NewList(out...)
}

func evalWhile(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a) < 1 {
		ev.fail(e, "while needs a condition")
	}
	for truthy(ev.eval(a[0], env)) {
		if ev.iteration(func() { ev.body(a[1:], env) }) {
			break
		}
	}
	return nil
}

func evalAnd(ev *evaluator, e *models.Expression, env *Env) Any {
	var v Any = true
	for _, f := range argsOf(e) {
		if v = ev.eval(f, env); !truthy(v) {
			return v
		}
	}
	return v
}

func evalOr(ev *evaluator, e *models.Expression, env *Env) Any {
	var v Any
	for _, f := range argsOf(e) {
		if v = ev.eval(f, env); truthy(v) {
			return v
		}
	}
	return v
}

func evalReturn(ev *evaluator, e *models.Expression, env *Env) Any {
	var v Any
	if a := argsOf(e); len(a) > 0 {
		v = ev.eval(a[0], env)
	}
	panic(returnSignal{v})
}

func evalRaise(ev *evaluator, e *models.Expression, env *Env) Any {
	a := argsOf(e)
	if len(a) == 0 {
		panic(&Exception{Kind: "RuntimeError", Msg: "no active exception to reraise"})
	}
	switch x := ev.eval(a[0], env).(type) {
	case *Exception:
		panic(x)
	case *Builtin:
		panic(&Exception{Kind: x.Name})
	default:
		ev.fail(e, "exceptions must derive from BaseException, got %s", typeName(x))
	}
	return nil
}

// evalDefmacro defines a macro, or a tag macro for deftag, in the
// evaluator's module.
func evalDefmacro(ev *evaluator, e *models.Expression, env *Env) Any {
	if err := ev.ctx.DefineMacro(ev.mod, e); err != nil {
		panic(err)
	}
	return nil
}

func evalRequire(ev *evaluator, e *models.Expression, env *Env) Any {
	specs, err := ParseRequire(argsOf(e))
	if err != nil {
		ev.fail(e, "%v", err)
	}
	for _, s := range specs {
		if err := ev.ctx.Require(ev.mod, s); err != nil {
			ev.fail(e, "%v", err)
		}
	}
	return nil
}

//----------------------------------------------------------------------

// DefineMacro registers the macro of a (defmacro name [params] body...)
// or (deftag name [param] body...) form in mod. The body runs in the
// compile-time evaluator each time the macro is expanded.
func (c *Context) DefineMacro(mod *Module, form *models.Expression) error {
	elems := form.Elems()
	kind := models.Head(form).Name
	if len(elems) < 3 {
		return &EvalError{Pos: form.Position(), Msg: kind + " needs a name and a lambda list"}
	}
	var name string
	switch n := elems[1].(type) {
	case *models.Symbol:
		name = n.Name
	case *models.String:
		name = n.Value
	default:
		return &EvalError{Pos: elems[1].Position(), Msg: kind + " name must be a symbol or string"}
	}
	ll, err := ParseLambdaList(elems[2])
	if err != nil {
		return &EvalError{Pos: elems[2].Position(), Msg: err.Error(), Err: err}
	}
	fn := &Closure{Name: name, Params: ll, Body: elems[3:], Mod: mod}
	macro := func(call *Call, args []models.Model) (models.Model, error) {
		in := make([]Any, len(args))
		for i, a := range args {
			in[i] = models.Copy(a)
		}
		ev := &evaluator{ctx: c, mod: call.Module}
		var out Any
		var err error
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = ev.asError(r, call.Form)
				}
			}()
			out = ev.callClosure(fn, in, nil, call.Form)
		}()
		if err != nil {
			return nil, err
		}
		return AsModel(out)
	}
	if kind == "deftag" {
		mod.DefineTag(name, macro)
	} else {
		mod.Define(name, macro)
	}
	c.logf("%s %s in %s", kind, name, mod.Name)
	return nil
}

// AsModel converts a compile-time value to a model. None, True and False
// become the symbols of the same names.
func AsModel(v Any) (models.Model, error) {
	switch x := v.(type) {
	case nil:
		return models.NewSymbol("None"), nil
	case bool:
		if x {
			return models.NewSymbol("True"), nil
		}
		return models.NewSymbol("False"), nil
	case models.Model:
		return x, nil
	case int:
		return models.NewInteger(int64(x)), nil
	case string:
		return models.NewString(x), nil
	}
	return nil, fmt.Errorf("cannot use %s as a model", typeName(v))
}

func truthy(v Any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case *models.Integer:
		return x.Value.Sign() != 0
	case *models.Float:
		return x.Value != 0
	case *models.Complex:
		return x.Value != 0
	case *models.String:
		return x.Value != ""
	case *models.Bytes:
		return len(x.Value) > 0
	case *models.Symbol:
		return x.Name != ""
	case models.Sequence:
		return len(x.Elems()) > 0
	}
	return true
}

func typeName(v Any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		return "bool"
	case *models.Symbol:
		return "HySymbol"
	case *models.Keyword:
		return "HyKeyword"
	case *models.String:
		return "HyString"
	case *models.Bytes:
		return "HyBytes"
	case *models.Integer:
		return "HyInteger"
	case *models.Float:
		return "HyFloat"
	case *models.Complex:
		return "HyComplex"
	case *models.List:
		return "HyList"
	case *models.Expression:
		return "HyExpression"
	case *models.Dict:
		return "HyDict"
	case *models.Set:
		return "HySet"
	case *Closure:
		return "function " + x.Name
	case *Builtin:
		return "builtin " + x.Name
	case *Exception:
		return x.Kind
	}
	return fmt.Sprintf("%T", v)
}
