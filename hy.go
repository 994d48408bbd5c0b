// Package hy translates Hy source to Python. It ties together the reader,
// the macro layer and the compiler, and renders their errors for people.
package hy

import (
	"fmt"
	"strings"

	"github.com/nukata/hy-in-go/compiler"
	"github.com/nukata/hy-in-go/macros"
	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
	"github.com/nukata/hy-in-go/reader"
)

// MainModule is the module name source is compiled into unless told
// otherwise.
const MainModule = "__main__"

// Read returns the next top-level form of r, or io.EOF when r holds only
// whitespace and comments.
func Read(r *reader.Reader) (models.Model, error) {
	return r.Read()
}

// ParseAll reads every top-level form of src.
func ParseAll(src, filename string) ([]models.Model, error) {
	return reader.ParseAll(src, filename)
}

// NewContext returns a compilation session whose require loads modules
// from opts.SearchPath.
func NewContext(opts macros.Options) *macros.Context {
	return compiler.NewContext(opts)
}

// Macroexpand expands form to a fixed point with the macros visible from
// module.
func Macroexpand(ctx *macros.Context, form models.Model, module string) (models.Model, error) {
	return ctx.Macroexpand(form, ctx.Module(module))
}

// Compile compiles forms as the body of module.
func Compile(ctx *macros.Context, module string, forms ...models.Model) (*pyast.Module, error) {
	return compiler.New(ctx, module).Compile(forms...)
}

// MacroNames lists the macros visible from module, sorted.
func MacroNames(ctx *macros.Context, module string) []string {
	return ctx.MacroNames(ctx.Module(module))
}

// Hy2Py translates src to Python source, compiled as MainModule.
func Hy2Py(src, filename string, opts macros.Options) (string, error) {
	forms, err := ParseAll(src, filename)
	if err != nil {
		return "", err
	}
	m, err := Compile(NewContext(opts), MainModule, forms...)
	if err != nil {
		return "", err
	}
	return pyast.Unparse(m), nil
}

// FormatError renders err with an excerpt of src pointing at where it
// happened:
//
//	PARSE ERROR in f.hy at 3:8: unexpected closing delimiter ")"
//
//	   2 | (setv x 1)
//	   3 | (foo x))
//	     |        ^
//
// Errors without a position are rendered on one line.
func FormatError(err error, name, src string) string {
	header, pos, msg := describe(err)
	if name == "" {
		name = "<string>"
	}
	if !pos.IsValid() {
		return fmt.Sprintf("%s in %s: %s\n", header, name, msg)
	}
	s := excerpt(src, header, name, pos.StartLine, pos.StartColumn, msg)
	if ie, ok := err.(*compiler.InternalError); ok && ie.Stack != "" {
		s += "\n" + ie.Stack
	}
	return s
}

func describe(err error) (header string, pos models.Pos, msg string) {
	switch e := err.(type) {
	case *reader.LexError:
		return "LEXICAL ERROR", e.Pos, e.Msg
	case *reader.ParseError:
		return "PARSE ERROR", e.Pos, e.Msg
	case *macros.ExpansionError:
		return "MACRO EXPANSION ERROR", e.Pos, fmt.Sprintf("expanding `%s': %v", e.Macro, e.Err)
	case *macros.EvalError:
		return "COMPILE-TIME EVALUATION ERROR", e.Pos, e.Msg
	case *macros.ImportError:
		return "IMPORT ERROR", models.Pos{}, e.Error()
	case *compiler.CompilerError:
		return "COMPILE ERROR", e.Pos, e.Msg
	case *compiler.InternalError:
		return "INTERNAL COMPILER ERROR", e.Pos, e.Msg
	}
	return "ERROR", models.Pos{}, err.Error()
}

func excerpt(src, header, name string, line, col int, msg string) string {
	lines := strings.Split(src, "\n")
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n\n", header, name, line, col, msg)
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
