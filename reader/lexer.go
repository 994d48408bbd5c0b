package reader

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/nukata/hy-in-go/models"
)

// TokenKind classifies a token.
type TokenKind int

const (
	EOF TokenKind = iota
	LParen
	RParen
	LBracket
	RBracket
	LCurly
	RCurly
	HashLCurly     // #{
	Quote          // '
	Quasiquote     // `
	Unquote        // ~
	UnquoteSplice  // ~@
	Discard        // #_
	UnpackIterable // #*
	UnpackMapping  // #**
	HashTag        // #name
	BracketString  // #[TAG[...]TAG]
	String
	PartialString // string cut off by the end of input
	Identifier
)

var kindNames = [...]string{
	EOF: "end of input", LParen: "(", RParen: ")", LBracket: "[",
	RBracket: "]", LCurly: "{", RCurly: "}", HashLCurly: "#{",
	Quote: "'", Quasiquote: "`", Unquote: "~", UnquoteSplice: "~@",
	Discard: "#_", UnpackIterable: "#*", UnpackMapping: "#**",
	HashTag: "#tag", BracketString: "bracket string", String: "string",
	PartialString: "unterminated string", Identifier: "identifier",
}

func (k TokenKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a lexeme with its source span. For String tokens Value holds
// the decoded text and IsBytes tells a b"..." literal; for BracketString
// tokens Value holds the content and Tag the delimiter tag; for HashTag
// tokens Value holds the tag name.
type Token struct {
	Kind    TokenKind
	Text    string
	Value   string
	Tag     string
	IsBytes bool
	Pos     models.Pos
}

//----------------------------------------------------------------------

// Lexer splits Hy source into tokens.
type Lexer struct {
	src      []rune
	cur      int
	line     int
	col      int
	filename string

	startCur  int
	startLine int
	startCol  int
	endLine   int
	endCol    int
}

// NewLexer returns a lexer over src. The filename only labels errors.
func NewLexer(src, filename string) *Lexer {
	return &Lexer{src: []rune(src), line: 1, col: 1, filename: filename}
}

// Tokenize splits src into tokens, not including a final EOF token. An
// unterminated string or bracket string yields the tokens read so far and
// a *LexError with Incomplete set.
func Tokenize(src, filename string) ([]Token, error) {
	l := NewLexer(src, filename)
	var toks []Token
	for {
		tok, err := l.Next()
		if err != nil {
			return toks, err
		}
		if tok.Kind == EOF {
			return toks, nil
		}
		if tok.Kind == PartialString {
			return toks, &LexError{Filename: filename, Pos: tok.Pos,
				Msg: "unterminated string", Incomplete: true}
		}
		toks = append(toks, tok)
	}
}

func (l *Lexer) atEnd() bool { return l.cur >= len(l.src) }

func (l *Lexer) peek(n int) rune {
	if l.cur+n >= len(l.src) {
		return 0
	}
	return l.src[l.cur+n]
}

func (l *Lexer) advance() rune {
	r := l.src[l.cur]
	l.endLine, l.endCol = l.line, l.col
	l.cur++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *Lexer) begin() {
	l.startCur, l.startLine, l.startCol = l.cur, l.line, l.col
}

func (l *Lexer) span() models.Pos {
	return models.Pos{StartLine: l.startLine, StartColumn: l.startCol,
		EndLine: l.endLine, EndColumn: l.endCol}
}

func (l *Lexer) emit(kind TokenKind) Token {
	return Token{Kind: kind, Text: string(l.src[l.startCur:l.cur]), Pos: l.span()}
}

func (l *Lexer) errorf(format string, args ...interface{}) *LexError {
	return &LexError{Filename: l.filename, Pos: l.span(), Msg: fmt.Sprintf(format, args...)}
}

func isDelimiter(r rune) bool {
	switch r {
	case '(', ')', '[', ']', '{', '}', '\'', '"', ';':
		return true
	}
	return unicode.IsSpace(r)
}

// detached reports whether the rune n ahead is whitespace or a closing
// delimiter. The end of input does not count, so that a trailing sigil
// still reads as incomplete.
func (l *Lexer) detached(n int) bool {
	r := l.peek(n)
	switch r {
	case 0:
		return false
	case ')', ']', '}':
		return true
	}
	return unicode.IsSpace(r)
}

func (l *Lexer) skipSpaceAndComments() {
	for !l.atEnd() {
		r := l.peek(0)
		switch {
		case unicode.IsSpace(r):
			l.advance()
		case r == ';':
			for !l.atEnd() && l.peek(0) != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token, or a token of kind EOF at the end.
func (l *Lexer) Next() (Token, error) {
	l.skipSpaceAndComments()
	l.begin()
	if l.atEnd() {
		return Token{Kind: EOF, Pos: models.Pos{StartLine: l.line, StartColumn: l.col,
			EndLine: l.line, EndColumn: l.col}}, nil
	}
	switch r := l.advance(); r {
	case '(':
		return l.emit(LParen), nil
	case ')':
		return l.emit(RParen), nil
	case '[':
		return l.emit(LBracket), nil
	case ']':
		return l.emit(RBracket), nil
	case '{':
		return l.emit(LCurly), nil
	case '}':
		return l.emit(RCurly), nil
	case '\'', '`':
		if l.detached(0) {
			return Token{}, l.errorf("%q must be followed by a form", string(r))
		}
		if r == '`' {
			return l.emit(Quasiquote), nil
		}
		return l.emit(Quote), nil
	case '~':
		// a detached ~ or ~@ is an ordinary name, as in (~ x)
		if l.peek(0) == '@' {
			if l.detached(1) {
				return l.scanIdentifier(), nil
			}
			l.advance()
			return l.emit(UnquoteSplice), nil
		}
		if l.detached(0) {
			return l.scanIdentifier(), nil
		}
		return l.emit(Unquote), nil
	case '"':
		return l.scanString(false, false)
	case '#':
		return l.scanHash()
	default:
		if p := l.stringPrefix(r); p != "" {
			for i := 1; i < len(p); i++ {
				l.advance()
			}
			l.advance() // opening quote
			lower := strings.ToLower(p)
			return l.scanString(strings.Contains(lower, "r"), strings.Contains(lower, "b"))
		}
		return l.scanIdentifier(), nil
	}
}

// stringPrefix returns the literal prefix (r, b, br or rb in either case)
// starting at the rune just read when it is directly followed by '"'.
func (l *Lexer) stringPrefix(first rune) string {
	if !strings.ContainsRune("rRbB", first) {
		return ""
	}
	if l.peek(0) == '"' {
		return string(first)
	}
	second := l.peek(0)
	if strings.ContainsRune("rRbB", second) && unicode.ToLower(second) != unicode.ToLower(first) &&
		l.peek(1) == '"' {
		return string([]rune{first, second})
	}
	return ""
}

func (l *Lexer) scanHash() (Token, error) {
	switch l.peek(0) {
	case '{':
		l.advance()
		return l.emit(HashLCurly), nil
	case '_':
		l.advance()
		return l.emit(Discard), nil
	case '*':
		l.advance()
		if l.peek(0) == '*' {
			l.advance()
			return l.emit(UnpackMapping), nil
		}
		return l.emit(UnpackIterable), nil
	case '[':
		l.advance()
		return l.scanBracketString()
	}
	for !l.atEnd() && !isDelimiter(l.peek(0)) {
		l.advance()
	}
	tok := l.emit(HashTag)
	tok.Value = tok.Text[1:]
	if tok.Value == "" {
		return tok, l.errorf("'#' must be followed by a tag name")
	}
	return tok, nil
}

// scanBracketString reads #[TAG[ ... ]TAG]; "#[" has been consumed. One
// newline directly after the opening delimiter is dropped.
func (l *Lexer) scanBracketString() (Token, error) {
	var tag []rune
	for {
		if l.atEnd() {
			return Token{}, &ParseError{Filename: l.filename, Pos: l.span(),
				Msg: "bracket string is missing the '[' ending its tag", Incomplete: true}
		}
		r := l.advance()
		if r == '[' {
			break
		}
		if r == ']' || unicode.IsSpace(r) {
			return Token{}, &ParseError{Filename: l.filename, Pos: l.span(),
				Msg: fmt.Sprintf("malformed bracket string tag %q", string(append(tag, r)))}
		}
		tag = append(tag, r)
	}
	closing := []rune("]" + string(tag) + "]")
	var body []rune
	for {
		if l.atEnd() {
			tok := l.emit(PartialString)
			return tok, &LexError{Filename: l.filename, Pos: l.span(),
				Msg: "unterminated bracket string", Incomplete: true}
		}
		if l.hasPrefix(closing) {
			for range closing {
				l.advance()
			}
			break
		}
		body = append(body, l.advance())
	}
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}
	tok := l.emit(BracketString)
	tok.Value = string(body)
	tok.Tag = string(tag)
	return tok, nil
}

func (l *Lexer) hasPrefix(rs []rune) bool {
	if l.cur+len(rs) > len(l.src) {
		return false
	}
	for i, r := range rs {
		if l.src[l.cur+i] != r {
			return false
		}
	}
	return true
}

func (l *Lexer) scanIdentifier() Token {
	for !l.atEnd() && !isDelimiter(l.peek(0)) {
		l.advance()
	}
	return l.emit(Identifier)
}

// scanString reads up to the closing quote; the opening quote has been
// consumed. Running out of input yields a PartialString token.
func (l *Lexer) scanString(raw, isBytes bool) (Token, error) {
	var out strings.Builder
	for {
		if l.atEnd() {
			return l.emit(PartialString), nil
		}
		r := l.advance()
		if r == '"' {
			break
		}
		if isBytes && r > 0x7f {
			return Token{}, l.errorf("bytes can only contain ASCII literal characters")
		}
		if r != '\\' {
			out.WriteRune(r)
			continue
		}
		if l.atEnd() {
			return l.emit(PartialString), nil
		}
		esc := l.advance()
		if raw {
			out.WriteRune('\\')
			out.WriteRune(esc)
			continue
		}
		if err := l.unescape(&out, esc, isBytes); err != nil {
			return Token{}, err
		}
	}
	tok := l.emit(String)
	tok.Value = out.String()
	tok.IsBytes = isBytes
	return tok, nil
}

func (l *Lexer) unescape(out *strings.Builder, esc rune, isBytes bool) error {
	switch esc {
	case '\n':
	case '\\', '\'', '"':
		out.WriteRune(esc)
	case 'a':
		out.WriteByte('\a')
	case 'b':
		out.WriteByte('\b')
	case 'f':
		out.WriteByte('\f')
	case 'n':
		out.WriteByte('\n')
	case 'r':
		out.WriteByte('\r')
	case 't':
		out.WriteByte('\t')
	case 'v':
		out.WriteByte('\v')
	case '0', '1', '2', '3', '4', '5', '6', '7':
		digits := []rune{esc}
		for len(digits) < 3 && l.peek(0) >= '0' && l.peek(0) <= '7' && !l.atEnd() {
			digits = append(digits, l.advance())
		}
		n, _ := strconv.ParseUint(string(digits), 8, 32)
		writeCode(out, rune(n), isBytes)
	case 'x':
		n, err := l.hexDigits(2)
		if err != nil {
			return err
		}
		writeCode(out, n, isBytes)
	case 'u', 'U':
		if isBytes {
			out.WriteRune('\\')
			out.WriteRune(esc)
			return nil
		}
		width := 4
		if esc == 'U' {
			width = 8
		}
		n, err := l.hexDigits(width)
		if err != nil {
			return err
		}
		if n > unicode.MaxRune {
			return l.errorf("illegal Unicode character \\%c%x", esc, n)
		}
		out.WriteRune(n)
	default:
		out.WriteRune('\\')
		out.WriteRune(esc)
	}
	return nil
}

// writeCode writes a numeric escape: a raw byte in byte strings, a code
// point otherwise.
func writeCode(out *strings.Builder, n rune, isBytes bool) {
	if isBytes {
		out.WriteByte(byte(n))
	} else {
		out.WriteRune(n)
	}
}

func (l *Lexer) hexDigits(width int) (rune, error) {
	var digits []rune
	for len(digits) < width {
		if l.atEnd() || !strings.ContainsRune("0123456789abcdefABCDEF", l.peek(0)) {
			return 0, l.errorf("truncated \\x, \\u or \\U escape: expected %d hex digits", width)
		}
		digits = append(digits, l.advance())
	}
	n, err := strconv.ParseUint(string(digits), 16, 32)
	if err != nil {
		return 0, l.errorf("bad escape: %v", err)
	}
	return rune(n), nil
}
