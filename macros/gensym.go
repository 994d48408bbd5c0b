package macros

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/nukata/hy-in-go/models"
)

var gensymCounter uint64

// Gensym returns a symbol no source text can spell: its name starts with
// "_;", and ';' begins a comment in the reader.
func Gensym(hint string) *models.Symbol {
	n := atomic.AddUint64(&gensymCounter, 1)
	if hint == "" {
		hint = "G"
	}
	return models.NewSymbol(fmt.Sprintf("_;%s|%d", hint, n))
}

// IsGensym reports whether s was made by Gensym.
func IsGensym(s *models.Symbol) bool {
	return strings.HasPrefix(s.Name, "_;")
}

// installCore defines the macros every module sees.
func installCore(core *Module) {
	core.Define("defmacro/g!", defmacroG)
	core.Define("defmacro!", defmacroBang)
}

// flatten lists every atom of a tree, depth first.
func flatten(m models.Model, out []models.Model) []models.Model {
	if s, ok := m.(models.Sequence); ok {
		for _, e := range s.Elems() {
			out = flatten(e, out)
		}
		return out
	}
	return append(out, m)
}

// prefixed returns the distinct symbols of forms starting with prefix, in
// order of first appearance.
func prefixed(prefix string, forms []models.Model) []*models.Symbol {
	var out []*models.Symbol
	seen := make(map[string]bool)
	for _, f := range forms {
		for _, a := range flatten(f, nil) {
			s, ok := a.(*models.Symbol)
			if ok && strings.HasPrefix(s.Name, prefix) && len(s.Name) > len(prefix) && !seen[s.Name] {
				seen[s.Name] = true
				out = append(out, s)
			}
		}
	}
	return out
}

func sym(name string) *models.Symbol { return models.NewSymbol(name) }

// defmacroG rewrites
//
//	(defmacro/g! name [args] body...)
//
// into a defmacro whose body first binds every g!x symbol of the body to
// a fresh gensym, one per expansion.
func defmacroG(c *Call, args []models.Model) (models.Model, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("defmacro/g! needs a name and a lambda list")
	}
	body := args[2:]
	var setv []models.Model
	for _, s := range prefixed("g!", body) {
		setv = append(setv, sym(s.Name),
			models.NewExpression(sym("gensym"), models.NewString(s.Name[2:])))
	}
	out := []models.Model{sym("defmacro"), args[0], args[1]}
	if len(setv) > 0 {
		out = append(out, models.NewExpression(append([]models.Model{sym("setv")}, setv...)...))
	}
	return models.NewExpression(append(out, body...)...), nil
}

// defmacroBang rewrites
//
//	(defmacro! name [o!x ...] body...)
//
// into a defmacro/g! whose expansion evaluates each o! argument once,
// binding it to g!x before the body's own expansion runs.
func defmacroBang(c *Call, args []models.Model) (models.Model, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("defmacro! needs a name and a lambda list")
	}
	params, ok := args[1].(*models.List)
	if !ok {
		return nil, fmt.Errorf("defmacro! lambda list must be a list, got %s", args[1].Repr())
	}
	body := args[2:]
	onces := prefixed("o!", params.Elems())
	if len(onces) == 0 {
		return models.NewExpression(append([]models.Model{sym("defmacro/g!")}, args...)...), nil
	}
	var binds []models.Model
	for _, o := range onces {
		binds = append(binds,
			models.NewExpression(sym("unquote"), sym("g!"+o.Name[2:])),
			models.NewExpression(sym("unquote"), sym(o.Name)))
	}
	template := models.NewExpression(sym("quasiquote"), models.NewExpression(
		sym("do"),
		models.NewExpression(append([]models.Model{sym("setv")}, binds...)...),
		models.NewExpression(sym("unquote"), models.NewExpression(append([]models.Model{sym("do")}, body...)...)),
	))
	return models.NewExpression(sym("defmacro/g!"), args[0], args[1], template), nil
}
