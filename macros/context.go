// Package macros holds the per-session macro tables, the expansion loop,
// gensym hygiene helpers and the compile-time evaluator that runs macros
// written in Hy.
package macros

import (
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/nukata/hy-in-go/models"
)

// CoreModule names the module whose macros every module sees.
const CoreModule = "hy.core"

// DefaultMaxExpansionDepth bounds the rewrites of a single form.
const DefaultMaxExpansionDepth = 1000

// Options configures a Context.
type Options struct {
	// MaxExpansionDepth bounds how many times one form may be rewritten
	// before expansion fails, and how deeply macro and compile-time
	// function calls may nest; zero means DefaultMaxExpansionDepth.
	MaxExpansionDepth int

	// SearchPath lists directories where (require M) looks for M.hy.
	SearchPath []string

	// Logger, if set, traces expansions and requires.
	Logger *log.Logger
}

// Loader compiles the named module into ctx so that its macros become
// available. The compiler installs one; see compiler.NewContext.
type Loader func(ctx *Context, name string) (*Module, error)

// Context owns the module tables of one compilation session.
type Context struct {
	Options Options
	Loader  Loader

	mu      sync.Mutex
	modules map[string]*Module
	loading map[string]bool

	// macro and closure calls in flight
	depth int
}

// enter counts one more nested macro or closure call. Recursion through
// macro bodies would otherwise only stop when the Go stack runs out.
func (c *Context) enter() error {
	if c.depth >= c.Options.MaxExpansionDepth {
		return fmt.Errorf("maximum recursion depth of %d exceeded", c.Options.MaxExpansionDepth)
	}
	c.depth++
	return nil
}

func (c *Context) leave() { c.depth-- }

// NewContext returns a session with the core macros installed.
func NewContext(opts Options) *Context {
	if opts.MaxExpansionDepth <= 0 {
		opts.MaxExpansionDepth = DefaultMaxExpansionDepth
	}
	logger := opts.Logger
	opts.Logger = nil
	c := &Context{
		Options: opts,
		modules: make(map[string]*Module),
		loading: make(map[string]bool),
	}
	installCore(c.Module(CoreModule))
	loadCoreSource(c)
	c.Options.Logger = logger
	return c
}

func (c *Context) logf(format string, args ...interface{}) {
	if c.Options.Logger != nil {
		c.Options.Logger.Printf(format, args...)
	}
}

// Module returns the named module, creating an empty one if needed.
func (c *Context) Module(name string) *Module {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.modules[name]
	if !ok {
		m = newModule(name)
		c.modules[name] = m
	}
	return m
}

// Core returns the core module.
func (c *Context) Core() *Module {
	return c.Module(CoreModule)
}

// Import returns a module that is known to the session or that the
// Loader can compile.
func (c *Context) Import(name string) (*Module, error) {
	c.mu.Lock()
	m, ok := c.modules[name]
	busy := c.loading[name]
	c.mu.Unlock()
	if ok {
		return m, nil
	}
	if busy {
		return nil, &ImportError{Module: name, Msg: "circular require"}
	}
	if c.Loader == nil {
		return nil, &ImportError{Module: name}
	}
	c.mu.Lock()
	c.loading[name] = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.loading, name)
		c.mu.Unlock()
	}()
	c.logf("loading module %s", name)
	return c.Loader(c, name)
}

//----------------------------------------------------------------------

// Module is one module's macro table, tag-macro table and compile-time
// namespace.
type Module struct {
	Name string

	mu      sync.RWMutex
	macros  map[string]MacroFunc
	tags    map[string]MacroFunc
	globals map[string]Any
}

func newModule(name string) *Module {
	return &Module{
		Name:    name,
		macros:  make(map[string]MacroFunc),
		tags:    make(map[string]MacroFunc),
		globals: make(map[string]Any),
	}
}

// Define binds a macro under the mangled form of name.
func (m *Module) Define(name string, fn MacroFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.macros[models.Mangle(name)] = fn
}

// DefineTag binds a tag macro under the mangled form of name.
func (m *Module) DefineTag(name string, fn MacroFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[models.Mangle(name)] = fn
}

// Macro looks up a macro by (unmangled or mangled) name.
func (m *Module) Macro(name string) (MacroFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.macros[models.Mangle(name)]
	return fn, ok
}

// Tag looks up a tag macro by name.
func (m *Module) Tag(name string) (MacroFunc, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	fn, ok := m.tags[models.Mangle(name)]
	return fn, ok
}

// Global returns a compile-time binding made by eval-and-compile.
func (m *Module) Global(name string) (Any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.globals[models.Mangle(name)]
	return v, ok
}

// SetGlobal binds a compile-time value.
func (m *Module) SetGlobal(name string, v Any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.globals[models.Mangle(name)] = v
}

// MacroNames lists, unmangled and sorted, the macro names visible from
// module m: its own and the core ones. Tag macros are listed with a
// leading '#'.
func (c *Context) MacroNames(m *Module) []string {
	seen := make(map[string]bool)
	for _, mod := range []*Module{m, c.Core()} {
		mod.mu.RLock()
		for k := range mod.macros {
			seen[models.Unmangle(k)] = true
		}
		for k := range mod.tags {
			seen["#"+models.Unmangle(k)] = true
		}
		mod.mu.RUnlock()
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

//----------------------------------------------------------------------

// ImportError reports a require of a missing module or macro.
type ImportError struct {
	Module string
	Name   string
	Msg    string
}

func (e *ImportError) Error() string {
	switch {
	case e.Msg != "":
		return fmt.Sprintf("cannot require %s: %s", e.Module, e.Msg)
	case e.Name != "":
		return fmt.Sprintf("cannot require name %q from %s: no such macro", e.Name, e.Module)
	}
	return fmt.Sprintf("no module named %s", e.Module)
}

// Alias is one entry of (require [M [a b :as c]]).
type Alias struct {
	Name string
	As   string
}

// RequireSpec describes what one require clause copies.
type RequireSpec struct {
	Module string

	// Prefix qualifies every copied name as Prefix.name. It is ignored
	// when All is set or Names is given.
	Prefix string

	// All copies every macro unqualified: (require [M *]).
	All bool

	// Names copies the listed macros only.
	Names []Alias
}

// Require copies macros from spec.Module into dst. Entries are copied by
// reference, so later redefinitions in the source module are not seen.
func (c *Context) Require(dst *Module, spec RequireSpec) error {
	src, err := c.Import(spec.Module)
	if err != nil {
		return err
	}
	src.mu.RLock()
	type entry struct {
		key string
		fn  MacroFunc
		tag bool
	}
	var copies []entry
	switch {
	case len(spec.Names) > 0:
		for _, a := range spec.Names {
			key := models.Mangle(a.Name)
			local := models.Mangle(a.As)
			if fn, ok := src.macros[key]; ok {
				copies = append(copies, entry{local, fn, false})
			} else if fn, ok := src.tags[key]; ok {
				copies = append(copies, entry{local, fn, true})
			} else {
				src.mu.RUnlock()
				return &ImportError{Module: spec.Module, Name: a.Name}
			}
		}
	default:
		prefix := ""
		if !spec.All {
			prefix = models.Mangle(spec.Prefix) + "."
		}
		for k, fn := range src.macros {
			copies = append(copies, entry{prefix + k, fn, false})
		}
		for k, fn := range src.tags {
			copies = append(copies, entry{prefix + k, fn, true})
		}
	}
	src.mu.RUnlock()

	dst.mu.Lock()
	defer dst.mu.Unlock()
	for _, e := range copies {
		if e.tag {
			dst.tags[e.key] = e.fn
		} else {
			dst.macros[e.key] = e.fn
		}
	}
	c.logf("require %s into %s: %d macros", spec.Module, dst.Name, len(copies))
	return nil
}

// ParseRequire reads the arguments of a require form.
//
//	(require M)                 ; M.name
//	(require [M :as A])         ; A.name
//	(require [M [a b :as c]])   ; a, c
//	(require [M *])             ; every name
func ParseRequire(args []models.Model) ([]RequireSpec, error) {
	var specs []RequireSpec
	for _, arg := range args {
		switch a := arg.(type) {
		case *models.Symbol:
			specs = append(specs, RequireSpec{Module: a.Name, Prefix: a.Name})
		case *models.List:
			spec, err := parseRequireList(a)
			if err != nil {
				return nil, err
			}
			specs = append(specs, spec)
		default:
			return nil, fmt.Errorf("unknown require shape %s", arg.Repr())
		}
	}
	if len(specs) == 0 {
		return nil, fmt.Errorf("require needs at least one module")
	}
	return specs, nil
}

func parseRequireList(l *models.List) (RequireSpec, error) {
	elems := l.Elems()
	bad := func() (RequireSpec, error) {
		return RequireSpec{}, fmt.Errorf("unknown require shape %s", l.Repr())
	}
	if len(elems) == 0 {
		return bad()
	}
	mod, ok := elems[0].(*models.Symbol)
	if !ok {
		return bad()
	}
	spec := RequireSpec{Module: mod.Name, Prefix: mod.Name}
	switch len(elems) {
	case 1:
		return spec, nil
	case 2:
		if s, ok := elems[1].(*models.Symbol); ok && s.Name == "*" {
			spec.All = true
			return spec, nil
		}
		names, ok := elems[1].(*models.List)
		if !ok {
			return bad()
		}
		ne := names.Elems()
		for i := 0; i < len(ne); i++ {
			s, ok := ne[i].(*models.Symbol)
			if !ok {
				return bad()
			}
			alias := Alias{Name: s.Name, As: s.Name}
			if i+2 < len(ne) {
				if kw, ok := ne[i+1].(*models.Keyword); ok && kw.Name == "as" {
					as, ok := ne[i+2].(*models.Symbol)
					if !ok {
						return bad()
					}
					alias.As = as.Name
					i += 2
				}
			}
			spec.Names = append(spec.Names, alias)
		}
		if len(spec.Names) == 0 {
			return bad()
		}
		return spec, nil
	case 3:
		kw, ok := elems[1].(*models.Keyword)
		as, ok2 := elems[2].(*models.Symbol)
		if !ok || !ok2 || kw.Name != "as" {
			return bad()
		}
		spec.Prefix = as.Name
		return spec, nil
	}
	return bad()
}

// String renders the spec as a require clause.
func (s RequireSpec) String() string {
	switch {
	case s.All:
		return "[" + s.Module + " *]"
	case len(s.Names) > 0:
		parts := make([]string, len(s.Names))
		for i, a := range s.Names {
			parts[i] = a.Name
			if a.As != a.Name {
				parts[i] += " :as " + a.As
			}
		}
		return "[" + s.Module + " [" + strings.Join(parts, " ") + "]]"
	case s.Prefix != s.Module:
		return "[" + s.Module + " :as " + s.Prefix + "]"
	}
	return s.Module
}
