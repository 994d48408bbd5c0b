package macros

import (
	"fmt"

	"github.com/nukata/hy-in-go/models"
)

// MacroFunc is a macro: it receives the unevaluated argument models of a
// call and returns the replacement form.
type MacroFunc func(c *Call, args []models.Model) (models.Model, error)

// Call describes one macro invocation.
type Call struct {
	Ctx    *Context
	Module *Module // the module being compiled
	Form   *models.Expression
	Name   string
}

// Macroexpand expands form in the context of mod.
func (c *Call) Macroexpand(form models.Model) (models.Model, error) {
	return c.Ctx.Macroexpand(form, c.Module)
}

// ExpansionError reports a macro that failed or did not terminate.
type ExpansionError struct {
	Pos   models.Pos
	Macro string
	Err   error
}

func (e *ExpansionError) Error() string {
	return fmt.Sprintf("%d:%d: expanding `%s': %v", e.Pos.StartLine, e.Pos.StartColumn, e.Macro, e.Err)
}

func (e *ExpansionError) Unwrap() error { return e.Err }

// Position returns the call site.
func (e *ExpansionError) Position() models.Pos { return e.Pos }

// Macroexpand rewrites form until its head no longer names a macro visible
// from mod. Sub-forms are left alone.
func (c *Context) Macroexpand(form models.Model, mod *Module) (models.Model, error) {
	return c.expand(form, mod, false)
}

// Macroexpand1 performs at most one rewrite.
func (c *Context) Macroexpand1(form models.Model, mod *Module) (models.Model, error) {
	return c.expand(form, mod, true)
}

func (c *Context) expand(form models.Model, mod *Module, once bool) (models.Model, error) {
	for depth := 0; ; depth++ {
		e, ok := form.(*models.Expression)
		if !ok {
			return form, nil
		}
		name, fn, args := c.resolve(e, mod)
		if fn == nil {
			if name != "" && args == nil {
				return nil, &ExpansionError{Pos: e.Position(), Macro: name,
					Err: fmt.Errorf("'%s' is not a defined tag macro", name)}
			}
			return form, nil
		}
		if depth >= c.Options.MaxExpansionDepth {
			return nil, &ExpansionError{Pos: e.Position(), Macro: name,
				Err: fmt.Errorf("expansion did not reach a fixed point within %d steps", c.Options.MaxExpansionDepth)}
		}
		out, err := c.call(&Call{Ctx: c, Module: mod, Form: e, Name: name}, fn, args)
		if err != nil {
			if ee, ok := err.(*ExpansionError); ok {
				return nil, ee
			}
			return nil, &ExpansionError{Pos: e.Position(), Macro: name, Err: err}
		}
		if out == nil {
			out = models.NewSymbol("None")
		}
		c.logf("expand %s: %s", name, out.Repr())
		form = out.Replace(e)
		if once {
			return form, nil
		}
	}
}

// resolve finds the macro an expression calls. It returns a zero fn when
// the head is not a macro; for an undefined tag it returns the tag name
// with nil args.
func (c *Context) resolve(e *models.Expression, mod *Module) (string, MacroFunc, []models.Model) {
	elems := e.Elems()
	head := models.Head(e)
	if head == nil {
		return "", nil, elems
	}
	switch head.Name {
	case "quote", "quasiquote":
		return "", nil, elems
	case "dispatch-tag-macro":
		if len(elems) != 3 {
			return "", nil, elems
		}
		tag, ok := elems[1].(*models.String)
		if !ok {
			return "", nil, elems
		}
		for _, m := range []*Module{mod, c.Core()} {
			if fn, ok := m.Tag(tag.Value); ok {
				return "#" + tag.Value, fn, elems[2:]
			}
		}
		return "#" + tag.Value, nil, nil
	}
	for _, m := range []*Module{mod, c.Core()} {
		if fn, ok := m.Macro(head.Name); ok {
			return head.Name, fn, elems[1:]
		}
	}
	return "", nil, elems
}

// call runs a macro, turning panics into errors.
func (c *Context) call(call *Call, fn MacroFunc, args []models.Model) (out models.Model, err error) {
	if err := c.enter(); err != nil {
		return nil, err
	}
	defer c.leave()
	defer func() {
		if r := recover(); r != nil {
			switch x := r.(type) {
			case error:
				err = x
			default:
				err = fmt.Errorf("%v", x)
			}
		}
	}()
	return fn(call, args)
}
