package compiler

import (
	"fmt"

	"github.com/nukata/hy-in-go/models"
)

// CompilerError reports a fully expanded form that has no Python meaning.
type CompilerError struct {
	Pos models.Pos
	Msg string
	Err error
}

func (e *CompilerError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%d:%d: %s", e.Pos.StartLine, e.Pos.StartColumn, e.Msg)
	}
	return e.Msg
}

func (e *CompilerError) Unwrap() error { return e.Err }

// Position returns the span of the offending form.
func (e *CompilerError) Position() models.Pos { return e.Pos }

// InternalError reports a broken compiler invariant. Stack holds the Go
// traceback at the point of failure.
type InternalError struct {
	Pos   models.Pos
	Msg   string
	Stack string
}

func (e *InternalError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%d:%d: internal compiler error: %s", e.Pos.StartLine, e.Pos.StartColumn, e.Msg)
	}
	return "internal compiler error: " + e.Msg
}

// Position returns the span of the top-level form being compiled.
func (e *InternalError) Position() models.Pos { return e.Pos }

// fail aborts compilation of the current top-level form.
func fail(at models.Model, format string, args ...interface{}) {
	var pos models.Pos
	if at != nil {
		pos = at.Position()
	}
	panic(&CompilerError{Pos: pos, Msg: fmt.Sprintf(format, args...)})
}

// wrap aborts with err attributed to at.
func wrap(at models.Model, err error) {
	panic(&CompilerError{Pos: at.Position(), Msg: err.Error(), Err: err})
}
