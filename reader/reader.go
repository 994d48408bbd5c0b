package reader

import (
	"io"

	"github.com/nukata/hy-in-go/models"
)

// Reader reads top-level forms from source text one at a time.
type Reader struct {
	p *Parser
}

// NewReader returns a Reader over src.
func NewReader(src, filename string) *Reader {
	return &Reader{p: NewParser(&lexSource{NewLexer(src, filename)}, filename)}
}

// Read returns the next form, or io.EOF when only whitespace and comments
// remain.
func (r *Reader) Read() (models.Model, error) {
	return r.p.Next()
}

// ParseAll reads every form of src.
func ParseAll(src, filename string) ([]models.Model, error) {
	r := NewReader(src, filename)
	var forms []models.Model
	for {
		form, err := r.Read()
		if err == io.EOF {
			return forms, nil
		}
		if err != nil {
			return forms, err
		}
		forms = append(forms, form)
	}
}

// lexSource feeds a Parser from a Lexer, turning an unterminated string
// into an incomplete LexError.
type lexSource struct {
	l *Lexer
}

func (s *lexSource) Next() (Token, error) {
	tok, err := s.l.Next()
	if err != nil {
		return tok, err
	}
	if tok.Kind == PartialString {
		return tok, &LexError{Filename: s.l.filename, Pos: tok.Pos,
			Msg: "unterminated string", Incomplete: true}
	}
	return tok, nil
}
