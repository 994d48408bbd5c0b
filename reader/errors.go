package reader

import (
	"fmt"

	"github.com/nukata/hy-in-go/models"
)

// LexError reports a malformed token.
type LexError struct {
	Filename string
	Pos      models.Pos
	Msg      string

	// Incomplete is set when more input could complete the token.
	Incomplete bool
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s:%d:%d: lexical error: %s", name(e.Filename), e.Pos.StartLine, e.Pos.StartColumn, e.Msg)
}

// Position returns where the error occurred.
func (e *LexError) Position() models.Pos { return e.Pos }

// ParseError reports a structurally malformed token sequence.
type ParseError struct {
	Filename string
	Pos      models.Pos
	Msg      string

	// Incomplete is set when the input ended inside an open compound or
	// after a sigil, so that more input could make it parse.
	Incomplete bool

	// Open is the position of the unmatched opening delimiter, if any.
	Open models.Pos
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d:%d: parse error: %s", name(e.Filename), e.Pos.StartLine, e.Pos.StartColumn, e.Msg)
}

// Position returns where the error occurred.
func (e *ParseError) Position() models.Pos { return e.Pos }

func name(filename string) string {
	if filename == "" {
		return "<string>"
	}
	return filename
}

// IsIncomplete reports whether err says the input ended too early, i.e.
// whether an interactive reader should ask for more lines.
func IsIncomplete(err error) bool {
	switch e := err.(type) {
	case *LexError:
		return e.Incomplete
	case *ParseError:
		return e.Incomplete
	}
	return false
}
