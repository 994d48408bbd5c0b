package reader

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/nukata/hy-in-go/models"
)

// resolveIdentifier turns an identifier token into an Integer, a fraction
// call, a Float, a Complex, a Keyword or a Symbol, tried in that order.
func resolveIdentifier(tok Token, filename string) (models.Model, error) {
	text := tok.Text
	var m models.Model
	if z, ok := parseInteger(text); ok {
		m = &models.Integer{Value: z}
	} else if fr := parseFraction(text); fr != nil {
		m = fr
	} else if f, ok := parseFloat(text); ok {
		m = &models.Float{Value: f}
	} else if c, ok := parseComplex(text); ok {
		m = &models.Complex{Value: c}
	} else if strings.HasPrefix(text, ":") && len(text) > 1 && !strings.Contains(text, ".") {
		m = models.NewKeyword(text[1:])
	}
	if m != nil {
		m.SetPosition(tok.Pos)
		return m.Replace(m), nil
	}

	// "5.attr" and ":kw.attr" read as attribute access on a literal.
	if i := strings.Index(text, "."); i > 0 && text != "..." {
		head := text[:i]
		if isLiteral(head) {
			return nil, &LexError{Filename: filename, Pos: tok.Pos,
				Msg: "cannot access attribute on anything other than a name (in order to get attributes of expressions, use `(. <expression> <attr>)` or `(.<attr> <expression>)`)"}
		}
	}
	sym := models.NewSymbol(text)
	sym.SetPosition(tok.Pos)
	return sym, nil
}

func isLiteral(s string) bool {
	if _, ok := parseInteger(s); ok {
		return true
	}
	if _, ok := parseFloat(s); ok {
		return true
	}
	if _, ok := parseComplex(s); ok {
		return true
	}
	return strings.HasPrefix(s, ":") && len(s) > 1
}

// stripSeparators drops '_' and ',' digit separators, except a leading one.
func stripSeparators(s string) string {
	if len(s) < 2 {
		return s
	}
	return s[:1] + strings.NewReplacer("_", "", ",", "").Replace(s[1:])
}

func parseInteger(text string) (*big.Int, bool) {
	s := stripSeparators(text)
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	base := 10
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 10 {
			s = s[2:]
		}
	}
	if s == "" || strings.ContainsAny(s, "+-_") {
		return nil, false
	}
	z, ok := new(big.Int).SetString(s, base)
	if !ok {
		return nil, false
	}
	if sign == "-" {
		z.Neg(z)
	}
	return z, true
}

// parseFraction reads a/b with integer parts as (fraction a b).
func parseFraction(text string) models.Model {
	parts := strings.Split(text, "/")
	if len(parts) != 2 {
		return nil
	}
	num, ok1 := parseInteger(parts[0])
	den, ok2 := parseInteger(parts[1])
	if !ok1 || !ok2 {
		return nil
	}
	return models.NewExpression(models.NewSymbol("fraction"),
		&models.Integer{Value: num}, &models.Integer{Value: den})
}

func parseFloat(text string) (float64, bool) {
	s := stripSeparators(text)
	if strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !isRangeError(err) {
		return 0, false
	}
	switch {
	case math.IsNaN(f):
		return f, strings.Contains(s, "NaN")
	case math.IsInf(f, 0) && strings.ContainsAny(s, "iI"):
		return f, strings.Contains(s, "Inf")
	}
	return f, true
}

func isRangeError(err error) bool {
	ne, ok := err.(*strconv.NumError)
	return ok && ne.Err == strconv.ErrRange
}

// parseComplex reads [real(+|-)]imag j, e.g. 1+2j, -3.5j, 1e3-Infj.
func parseComplex(text string) (complex128, bool) {
	s := stripSeparators(text)
	if len(s) < 2 || !strings.HasSuffix(strings.ToLower(s), "j") {
		return 0, false
	}
	body := s[:len(s)-1]
	split := -1
	for i := len(body) - 1; i > 0; i-- {
		if (body[i] == '+' || body[i] == '-') && body[i-1] != 'e' && body[i-1] != 'E' {
			split = i
			break
		}
	}
	re := 0.0
	imText := body
	if split > 0 {
		r, ok := parseFloat(body[:split])
		if !ok {
			return 0, false
		}
		re, imText = r, body[split:]
	}
	var im float64
	switch imText {
	case "+", "":
		im = 1
	case "-":
		im = -1
	default:
		f, ok := parseFloat(imText)
		if !ok {
			return 0, false
		}
		im = f
	}
	return complex(re, im), true
}
