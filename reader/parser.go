// Package reader turns Hy source text into models.
package reader

import (
	"fmt"
	"io"

	"github.com/nukata/hy-in-go/models"
)

// TokenSource yields tokens; a token of kind EOF ends the stream.
type TokenSource interface {
	Next() (Token, error)
}

type tokenSlice struct {
	toks []Token
	i    int
}

func (s *tokenSlice) Next() (Token, error) {
	if s.i >= len(s.toks) {
		var end models.Pos
		if n := len(s.toks); n > 0 {
			p := s.toks[n-1].Pos
			end = models.Pos{StartLine: p.EndLine, StartColumn: p.EndColumn + 1,
				EndLine: p.EndLine, EndColumn: p.EndColumn + 1}
		}
		return Token{Kind: EOF, Pos: end}, nil
	}
	s.i++
	return s.toks[s.i-1], nil
}

//----------------------------------------------------------------------

// Parser builds models from tokens. Open compounds are kept on an explicit
// stack, so nesting depth is bounded by memory only.
type Parser struct {
	src      TokenSource
	filename string
	stack    []*frame
}

type frame struct {
	open     Token // zero Kind at the top level
	elems    []models.Model
	prefixes []Token // pending sigils waiting for their form
}

// NewParser returns a parser reading from src.
func NewParser(src TokenSource, filename string) *Parser {
	return &Parser{src: src, filename: filename, stack: []*frame{{}}}
}

// NewTokenParser returns a parser over an already lexed token slice.
func NewTokenParser(toks []Token, filename string) *Parser {
	return NewParser(&tokenSlice{toks: toks}, filename)
}

var closerOf = map[TokenKind]TokenKind{
	LParen:     RParen,
	LBracket:   RBracket,
	LCurly:     RCurly,
	HashLCurly: RCurly,
}

var sigilHead = map[TokenKind]string{
	Quote:          "quote",
	Quasiquote:     "quasiquote",
	Unquote:        "unquote",
	UnquoteSplice:  "unquote-splice",
	UnpackIterable: "unpack-iterable",
	UnpackMapping:  "unpack-mapping",
}

func (p *Parser) errorf(pos models.Pos, format string, args ...interface{}) *ParseError {
	return &ParseError{Filename: p.filename, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// Next returns the next top-level form, or io.EOF when the input is
// exhausted between forms. After an error the partly read form is
// dropped, so the following call starts on the next top-level form.
func (p *Parser) Next() (form models.Model, err error) {
	form, err = p.next()
	if err != nil && err != io.EOF {
		p.stack = []*frame{{}}
	}
	return form, err
}

func (p *Parser) next() (models.Model, error) {
	for {
		tok, err := p.src.Next()
		if err != nil {
			return nil, err
		}
		top := p.stack[len(p.stack)-1]
		var form models.Model

		switch tok.Kind {
		case EOF:
			return nil, p.atEOF(tok)

		case LParen, LBracket, LCurly, HashLCurly:
			p.stack = append(p.stack, &frame{open: tok})
			continue

		case RParen, RBracket, RCurly:
			if form, err = p.close(top, tok); err != nil {
				return nil, err
			}

		case Quote, Quasiquote, Unquote, UnquoteSplice, Discard,
			UnpackIterable, UnpackMapping, HashTag:
			top.prefixes = append(top.prefixes, tok)
			continue

		case String:
			if tok.IsBytes {
				form = &models.Bytes{Value: []byte(tok.Value)}
			} else {
				form = models.NewString(tok.Value)
			}
			form.SetPosition(tok.Pos)

		case BracketString:
			form = &models.String{Value: tok.Value, Brackets: tok.Tag, HasBrackets: true}
			form.SetPosition(tok.Pos)

		case Identifier:
			if form, err = resolveIdentifier(tok, p.filename); err != nil {
				return nil, err
			}

		default:
			return nil, p.errorf(tok.Pos, "unexpected %s", tok.Kind)
		}

		if done := p.deliver(form); done != nil {
			return done, nil
		}
	}
}

func (p *Parser) atEOF(tok Token) error {
	if n := len(p.stack); n > 1 {
		open := p.stack[n-1].open
		return &ParseError{Filename: p.filename, Pos: open.Pos, Open: open.Pos,
			Incomplete: true,
			Msg: fmt.Sprintf("premature end of input: %q opened at %d:%d is never closed",
				open.Kind.String(), open.Pos.StartLine, open.Pos.StartColumn)}
	}
	if pre := p.stack[0].prefixes; len(pre) > 0 {
		last := pre[len(pre)-1]
		e := p.errorf(last.Pos, "premature end of input: %q must be followed by a form", last.Text)
		e.Incomplete = true
		return e
	}
	return io.EOF
}

// close pops the innermost compound, which tok must match.
func (p *Parser) close(top *frame, tok Token) (models.Model, error) {
	if len(p.stack) == 1 {
		return nil, p.errorf(tok.Pos, "unexpected closing delimiter %q", tok.Text)
	}
	if want := closerOf[top.open.Kind]; want != tok.Kind {
		e := p.errorf(tok.Pos, "mismatched closing delimiter: expected %q to close %q at %d:%d, got %q at %d:%d",
			want.String(), top.open.Kind.String(), top.open.Pos.StartLine, top.open.Pos.StartColumn,
			tok.Text, tok.Pos.StartLine, tok.Pos.StartColumn)
		e.Open = top.open.Pos
		return nil, e
	}
	if len(top.prefixes) > 0 {
		last := top.prefixes[len(top.prefixes)-1]
		return nil, p.errorf(last.Pos, "%q must be followed by a form, got %q", last.Text, tok.Text)
	}
	p.stack = p.stack[:len(p.stack)-1]

	var seq models.Sequence
	switch top.open.Kind {
	case LParen:
		seq = models.NewExpression(top.elems...)
	case LBracket:
		seq = models.NewList(top.elems...)
	case LCurly:
		seq = models.NewDict(top.elems...)
	default:
		seq = models.NewSet(top.elems...)
	}
	seq.SetPosition(models.Pos{
		StartLine: top.open.Pos.StartLine, StartColumn: top.open.Pos.StartColumn,
		EndLine: tok.Pos.EndLine, EndColumn: tok.Pos.EndColumn})
	return seq, nil
}

// deliver applies the pending sigils of the innermost frame to form and
// appends the result there. It returns the form when it completes a
// top-level form.
func (p *Parser) deliver(form models.Model) models.Model {
	top := p.stack[len(p.stack)-1]
	for len(top.prefixes) > 0 {
		n := len(top.prefixes) - 1
		pre := top.prefixes[n]
		top.prefixes = top.prefixes[:n]
		if pre.Kind == Discard {
			return nil
		}
		form = wrap(pre, form)
	}
	if len(p.stack) == 1 {
		return form
	}
	top.elems = append(top.elems, form)
	return nil
}

func wrap(pre Token, form models.Model) models.Model {
	head := models.NewSymbol(sigilHead[pre.Kind])
	head.SetPosition(pre.Pos)
	var e *models.Expression
	if pre.Kind == HashTag {
		head.Name = "dispatch-tag-macro"
		tag := models.NewString(pre.Value)
		tag.SetPosition(pre.Pos)
		e = models.NewExpression(head, tag, form)
	} else {
		e = models.NewExpression(head, form)
	}
	fp := form.Position()
	e.SetPosition(models.Pos{StartLine: pre.Pos.StartLine, StartColumn: pre.Pos.StartColumn,
		EndLine: fp.EndLine, EndColumn: fp.EndColumn})
	return e
}
