package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

func (s *Symbol) Repr() string  { return s.Name }
func (k *Keyword) Repr() string { return ":" + k.Name }

func (s *String) Repr() string {
	if s.HasBrackets {
		return "#[" + s.Brackets + "[" + s.Value + "]" + s.Brackets + "]"
	}
	return quoteText(s.Value, false)
}

func (b *Bytes) Repr() string {
	return "b" + quoteText(string(b.Value), true)
}

func (i *Integer) Repr() string { return i.Value.String() }
func (f *Float) Repr() string   { return FormatFloat(f.Value) }

func (c *Complex) Repr() string {
	re, im := real(c.Value), imag(c.Value)
	if re == 0 && !math.Signbit(re) {
		return FormatFloat(im) + "j"
	}
	sign := "+"
	if im < 0 || math.Signbit(im) {
		sign = "-"
		im = -im
	}
	return FormatFloat(re) + sign + FormatFloat(im) + "j"
}

var sugar = map[string]string{
	"quote":           "'",
	"quasiquote":      "`",
	"unquote":         "~",
	"unquote-splice":  "~@",
	"unpack-iterable": "#*",
	"unpack-mapping":  "#**",
}

func (l *List) Repr() string { return "[" + joinRepr(l.elems) + "]" }
func (d *Dict) Repr() string { return "{" + joinRepr(d.elems) + "}" }
func (s *Set) Repr() string  { return "#{" + joinRepr(s.elems) + "}" }

func (e *Expression) Repr() string {
	h := Head(e)
	if h != nil && len(e.elems) == 2 {
		if prefix, ok := sugar[h.Name]; ok {
			return prefix + e.elems[1].Repr()
		}
	}
	if h != nil && h.Name == "dispatch-tag-macro" && len(e.elems) == 3 {
		if tag, ok := e.elems[1].(*String); ok {
			return "#" + tag.Value + " " + e.elems[2].Repr()
		}
	}
	return "(" + joinRepr(e.elems) + ")"
}

func joinRepr(elems []Model) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.Repr()
	}
	return strings.Join(parts, " ")
}

// FormatFloat renders x the way Hy reads it back: NaN, Inf and -Inf are
// capitalised and finite integral values keep a ".0".
func FormatFloat(x float64) string {
	switch {
	case math.IsNaN(x):
		return "NaN"
	case math.IsInf(x, 1):
		return "Inf"
	case math.IsInf(x, -1):
		return "-Inf"
	}
	s := strconv.FormatFloat(x, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// quoteText writes s as a double-quoted literal. With asBytes set, every
// byte outside printable ASCII is escaped as \xHH.
func quoteText(s string, asBytes bool) string {
	var b strings.Builder
	b.WriteByte('"')
	write := func(r rune) {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			switch {
			case asBytes && (r < 0x20 || r > 0x7e):
				fmt.Fprintf(&b, `\x%02x`, r)
			case unicode.IsPrint(r):
				b.WriteRune(r)
			case r < 0x100:
				fmt.Fprintf(&b, `\x%02x`, r)
			case r < 0x10000:
				fmt.Fprintf(&b, `\u%04x`, r)
			default:
				fmt.Fprintf(&b, `\U%08x`, r)
			}
		}
	}
	if asBytes {
		for i := 0; i < len(s); i++ {
			write(rune(s[i]))
		}
	} else {
		for _, r := range s {
			write(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
