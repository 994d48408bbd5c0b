package compiler

import (
	"strings"

	"github.com/nukata/hy-in-go/models"
	"github.com/nukata/hy-in-go/pyast"
)

// Result is what compiling one form produces: statements that must run
// first and an optional expression holding the form's value.
type Result struct {
	Stmts []pyast.Stmt
	Expr  pyast.Expr // nil means the form has no value (None)

	// ContainsYield is set when the form yields; a function body that
	// yields does not return its last value.
	ContainsYield bool
}

// Add appends o's statements to r and takes o's expression as r's value.
func (r *Result) Add(o *Result) *Result {
	r.Stmts = append(r.Stmts, o.Stmts...)
	r.Expr = o.Expr
	r.ContainsYield = r.ContainsYield || o.ContainsYield
	return r
}

// Emit appends statements that produce no value.
func (r *Result) Emit(stmts ...pyast.Stmt) *Result {
	r.Stmts = append(r.Stmts, stmts...)
	return r
}

// ForceExpr returns the value expression, or None when there is none.
func (r *Result) ForceExpr(at models.Model) pyast.Expr {
	if r.Expr == nil {
		return name(at, "None")
	}
	return r.Expr
}

// HasStmts reports whether r needs statements before its value.
func (r *Result) HasStmts() bool { return len(r.Stmts) > 0 }

// Statements lowers r for a position where no value is wanted: the
// expression, if any, becomes a statement of its own. A temporary that
// merely carries the statements' value is dropped.
func (r *Result) Statements() []pyast.Stmt {
	if r.Expr == nil {
		return r.Stmts
	}
	if n, ok := r.Expr.(*pyast.Name); ok && len(r.Stmts) > 0 {
		if isTemp(n.Id) || n.Id == "None" {
			return r.Stmts
		}
	}
	n := len(r.Stmts)
	return append(r.Stmts[:n:n], &pyast.ExprStmt{At: pyast.At{Pos: r.Expr.Position()}, Value: r.Expr})
}

const tempPrefix = "_hy_anon_var_"

func isTemp(id string) bool { return strings.HasPrefix(id, tempPrefix) }

// isPure reports whether evaluating e has no effect and cannot be changed
// by statements running after it: literals, constants and temporaries.
func isPure(e pyast.Expr) bool {
	switch x := e.(type) {
	case *pyast.Int, *pyast.Float, *pyast.Complex, *pyast.Str, *pyast.Bytes:
		return true
	case *pyast.Name:
		switch x.Id {
		case "None", "True", "False", "...":
			return true
		}
		return isTemp(x.Id)
	case *pyast.UnaryOp:
		return x.Op == "-" && isPure(x.Operand)
	}
	return false
}
