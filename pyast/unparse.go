package pyast

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Operator precedence, lowest first.
const (
	precTuple = iota
	precYield
	precLambda
	precTest
	precOr
	precAnd
	precNot
	precCmp
	precBor
	precBxor
	precBand
	precShift
	precArith
	precTerm
	precFactor
	precPower
	precAwait
	precAtom
)

var binPrec = map[string]int{
	"|": precBor, "^": precBxor, "&": precBand,
	"<<": precShift, ">>": precShift,
	"+": precArith, "-": precArith,
	"*": precTerm, "/": precTerm, "//": precTerm, "%": precTerm, "@": precTerm,
	"**": precPower,
}

// Unparse renders a Module, statement or expression as Python source.
// Statements end with a newline; expressions do not.
func Unparse(n Node) string {
	u := &unparser{}
	switch x := n.(type) {
	case *Module:
		for _, s := range x.Body {
			u.stmt(s, 0)
		}
	case Stmt:
		u.stmt(x, 0)
	case Expr:
		u.expr(x, precTuple)
	default:
		panic(fmt.Sprintf("pyast: cannot unparse %T", n))
	}
	return u.b.String()
}

type unparser struct {
	b strings.Builder
}

func (u *unparser) write(parts ...string) {
	for _, p := range parts {
		u.b.WriteString(p)
	}
}

func (u *unparser) line(indent int, parts ...string) {
	u.b.WriteString(strings.Repeat("    ", indent))
	u.write(parts...)
	u.b.WriteByte('\n')
}

//----------------------------------------------------------------------

func (u *unparser) stmts(body []Stmt, indent int) {
	if len(body) == 0 {
		u.line(indent, "pass")
		return
	}
	for _, s := range body {
		u.stmt(s, indent)
	}
}

// block writes a clause header and its indented body.
func (u *unparser) block(indent int, head string, body []Stmt) {
	u.line(indent, head, ":")
	u.stmts(body, indent+1)
}

func (u *unparser) stmt(s Stmt, indent int) {
	switch x := s.(type) {
	case *ExprStmt:
		u.line(indent, u.sub(x.Value, precYield))
	case *Assign:
		var parts []string
		for _, t := range x.Targets {
			parts = append(parts, u.sub(t, precTuple))
		}
		parts = append(parts, u.sub(x.Value, precYield))
		u.line(indent, strings.Join(parts, " = "))
	case *AugAssign:
		u.line(indent, u.sub(x.Target, precTuple), " ", x.Op, "= ", u.sub(x.Value, precYield))
	case *If:
		u.block(indent, "if "+u.sub(x.Test, precTest), x.Body)
		orelse := x.OrElse
		for len(orelse) == 1 {
			elif, ok := orelse[0].(*If)
			if !ok {
				break
			}
			u.block(indent, "elif "+u.sub(elif.Test, precTest), elif.Body)
			orelse = elif.OrElse
		}
		if len(orelse) > 0 {
			u.block(indent, "else", orelse)
		}
	case *While:
		u.block(indent, "while "+u.sub(x.Test, precTest), x.Body)
		if len(x.OrElse) > 0 {
			u.block(indent, "else", x.OrElse)
		}
	case *For:
		kw := "for "
		if x.Async {
			kw = "async for "
		}
		u.block(indent, kw+u.sub(x.Target, precTuple)+" in "+u.sub(x.Iter, precTest), x.Body)
		if len(x.OrElse) > 0 {
			u.block(indent, "else", x.OrElse)
		}
	case *Try:
		u.block(indent, "try", x.Body)
		for _, h := range x.Handlers {
			head := "except"
			if h.Type != nil {
				head += " " + u.sub(h.Type, precTest)
				if h.Name != "" {
					head += " as " + h.Name
				}
			}
			u.block(indent, head, h.Body)
		}
		if len(x.OrElse) > 0 {
			u.block(indent, "else", x.OrElse)
		}
		if len(x.Finally) > 0 || len(x.Handlers) == 0 {
			u.block(indent, "finally", x.Finally)
		}
	case *With:
		var items []string
		for _, it := range x.Items {
			s := u.sub(it.Context, precTest)
			if it.Var != nil {
				s += " as " + u.sub(it.Var, precTuple)
			}
			items = append(items, s)
		}
		kw := "with "
		if x.Async {
			kw = "async with "
		}
		u.block(indent, kw+strings.Join(items, ", "), x.Body)
	case *FunctionDef:
		for _, d := range x.Decorators {
			u.line(indent, "@", u.sub(d, precTest))
		}
		kw := "def "
		if x.Async {
			kw = "async def "
		}
		u.block(indent, kw+x.Name+"("+u.arguments(x.Args)+")", x.Body)
	case *ClassDef:
		for _, d := range x.Decorators {
			u.line(indent, "@", u.sub(d, precTest))
		}
		var bases []string
		for _, b := range x.Bases {
			bases = append(bases, u.sub(b, precTest))
		}
		bases = append(bases, u.keywords(x.Keywords)...)
		head := "class " + x.Name
		if len(bases) > 0 {
			head += "(" + strings.Join(bases, ", ") + ")"
		}
		u.block(indent, head, x.Body)
	case *Return:
		if x.Value == nil {
			u.line(indent, "return")
		} else {
			u.line(indent, "return ", u.sub(x.Value, precLambda))
		}
	case *Raise:
		switch {
		case x.Exc == nil:
			u.line(indent, "raise")
		case x.Cause == nil:
			u.line(indent, "raise ", u.sub(x.Exc, precTest))
		default:
			u.line(indent, "raise ", u.sub(x.Exc, precTest), " from ", u.sub(x.Cause, precTest))
		}
	case *Assert:
		if x.Msg == nil {
			u.line(indent, "assert ", u.sub(x.Test, precTest))
		} else {
			u.line(indent, "assert ", u.sub(x.Test, precTest), ", ", u.sub(x.Msg, precTest))
		}
	case *Delete:
		u.line(indent, "del ", u.join(x.Targets, precTest))
	case *Global:
		u.line(indent, "global ", strings.Join(x.Names, ", "))
	case *Nonlocal:
		u.line(indent, "nonlocal ", strings.Join(x.Names, ", "))
	case *Import:
		u.line(indent, "import ", aliases(x.Names))
	case *ImportFrom:
		u.line(indent, "from ", x.Module, " import ", aliases(x.Names))
	case *Pass:
		u.line(indent, "pass")
	case *Break:
		u.line(indent, "break")
	case *Continue:
		u.line(indent, "continue")
	default:
		panic(fmt.Sprintf("pyast: unknown statement %T", s))
	}
}

func aliases(names []Alias) string {
	parts := make([]string, len(names))
	for i, a := range names {
		parts[i] = a.Name
		if a.AsName != "" && a.AsName != a.Name {
			parts[i] += " as " + a.AsName
		}
	}
	return strings.Join(parts, ", ")
}

//----------------------------------------------------------------------

// sub renders e in a context that binds at level.
func (u *unparser) sub(e Expr, level int) string {
	v := &unparser{}
	v.expr(e, level)
	return v.b.String()
}

func (u *unparser) join(es []Expr, level int) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = u.sub(e, level)
	}
	return strings.Join(parts, ", ")
}

func (u *unparser) keywords(kws []Keyword) []string {
	var out []string
	for _, k := range kws {
		if k.Arg == "" {
			out = append(out, "**"+u.sub(k.Value, precBor))
		} else {
			out = append(out, k.Arg+"="+u.sub(k.Value, precLambda))
		}
	}
	return out
}

func (u *unparser) arguments(a *Arguments) string {
	if a == nil {
		return ""
	}
	var parts []string
	firstDefault := len(a.Args) - len(a.Defaults)
	for i, arg := range a.Args {
		s := arg.Name
		if i >= firstDefault {
			s += "=" + u.sub(a.Defaults[i-firstDefault], precTest)
		}
		parts = append(parts, s)
	}
	if a.Vararg != nil {
		parts = append(parts, "*"+a.Vararg.Name)
	} else if len(a.KwOnly) > 0 {
		parts = append(parts, "*")
	}
	for i, arg := range a.KwOnly {
		s := arg.Name
		if i < len(a.KwDefaults) && a.KwDefaults[i] != nil {
			s += "=" + u.sub(a.KwDefaults[i], precTest)
		}
		parts = append(parts, s)
	}
	if a.Kwarg != nil {
		parts = append(parts, "**"+a.Kwarg.Name)
	}
	return strings.Join(parts, ", ")
}

func (u *unparser) comprehensions(gens []Comprehension) string {
	var b strings.Builder
	for _, g := range gens {
		b.WriteString(" for " + u.sub(g.Target, precTuple) + " in " + u.sub(g.Iter, precOr))
		for _, c := range g.Ifs {
			b.WriteString(" if " + u.sub(c, precOr))
		}
	}
	return b.String()
}

// precedence returns how tightly e binds.
func precedence(e Expr) int {
	switch x := e.(type) {
	case *Yield, *YieldFrom:
		return precYield
	case *Lambda:
		return precLambda
	case *IfExp:
		return precTest
	case *BoolOp:
		if x.Op == "or" {
			return precOr
		}
		return precAnd
	case *UnaryOp:
		if x.Op == "not" {
			return precNot
		}
		return precFactor
	case *Compare:
		return precCmp
	case *BinOp:
		return binPrec[x.Op]
	case *Await:
		return precAwait
	case *Int:
		if x.Value.Sign() < 0 {
			return precFactor
		}
	case *Float:
		if x.Value < 0 || math.Signbit(x.Value) {
			return precFactor
		}
	}
	return precAtom
}

func (u *unparser) expr(e Expr, level int) {
	if precedence(e) < level {
		u.write("(")
		defer u.write(")")
	}
	switch x := e.(type) {
	case *Name:
		u.write(x.Id)
	case *Int:
		u.write(x.Value.String())
	case *Float:
		u.write(FloatRepr(x.Value))
	case *Complex:
		u.write(complexRepr(x.Value))
	case *Str:
		u.write(StrRepr(x.Value))
	case *Bytes:
		u.write(BytesRepr(x.Value))
	case *BinOp:
		p := binPrec[x.Op]
		left, right := p, p+1
		if x.Op == "**" {
			left, right = precAwait, precFactor
		}
		u.write(u.sub(x.Left, left), " ", x.Op, " ", u.sub(x.Right, right))
	case *UnaryOp:
		if x.Op == "not" {
			u.write("not ", u.sub(x.Operand, precNot))
		} else {
			u.write(x.Op, u.sub(x.Operand, precFactor))
		}
	case *BoolOp:
		p := precedence(x)
		parts := make([]string, len(x.Values))
		for i, v := range x.Values {
			parts[i] = u.sub(v, p+1)
		}
		u.write(strings.Join(parts, " "+x.Op+" "))
	case *Compare:
		u.write(u.sub(x.Left, precBor))
		for i, op := range x.Ops {
			u.write(" ", op, " ", u.sub(x.Comparators[i], precBor))
		}
	case *Call:
		args := make([]string, 0, len(x.Args)+len(x.Keywords))
		for _, a := range x.Args {
			args = append(args, u.sub(a, precLambda))
		}
		args = append(args, u.keywords(x.Keywords)...)
		u.write(u.primary(x.Func), "(", strings.Join(args, ", "), ")")
	case *Starred:
		u.write("*", u.sub(x.Value, precBor))
	case *Attribute:
		u.write(u.primary(x.Value), ".", x.Attr)
	case *Subscript:
		u.write(u.primary(x.Value), "[", u.sub(x.Index, precTuple), "]")
	case *Slice:
		if x.Lower != nil {
			u.write(u.sub(x.Lower, precTest))
		}
		u.write(":")
		if x.Upper != nil {
			u.write(u.sub(x.Upper, precTest))
		}
		if x.Step != nil {
			u.write(":", u.sub(x.Step, precTest))
		}
	case *Tuple:
		s := u.join(x.Elts, precTest)
		if len(x.Elts) == 1 {
			s += ","
		}
		u.write("(", s, ")")
	case *List:
		u.write("[", u.join(x.Elts, precTest), "]")
	case *Set:
		if len(x.Elts) == 0 {
			u.write("{*()}")
		} else {
			u.write("{", u.join(x.Elts, precTest), "}")
		}
	case *Dict:
		parts := make([]string, len(x.Keys))
		for i, k := range x.Keys {
			if k == nil {
				parts[i] = "**" + u.sub(x.Values[i], precBor)
			} else {
				parts[i] = u.sub(k, precTest) + ": " + u.sub(x.Values[i], precTest)
			}
		}
		u.write("{", strings.Join(parts, ", "), "}")
	case *IfExp:
		u.write(u.sub(x.Body, precOr), " if ", u.sub(x.Test, precOr), " else ", u.sub(x.OrElse, precTest))
	case *Lambda:
		if args := u.arguments(x.Args); args != "" {
			u.write("lambda ", args, ": ", u.sub(x.Body, precTest))
		} else {
			u.write("lambda: ", u.sub(x.Body, precTest))
		}
	case *ListComp:
		u.write("[", u.sub(x.Elt, precTest), u.comprehensions(x.Generators), "]")
	case *SetComp:
		u.write("{", u.sub(x.Elt, precTest), u.comprehensions(x.Generators), "}")
	case *GeneratorExp:
		u.write("(", u.sub(x.Elt, precTest), u.comprehensions(x.Generators), ")")
	case *DictComp:
		u.write("{", u.sub(x.Key, precTest), ": ", u.sub(x.Value, precTest), u.comprehensions(x.Generators), "}")
	case *Yield:
		if x.Value == nil {
			u.write("yield")
		} else {
			u.write("yield ", u.sub(x.Value, precTuple))
		}
	case *YieldFrom:
		u.write("yield from ", u.sub(x.Value, precTest))
	case *Await:
		u.write("await ", u.sub(x.Value, precAtom))
	default:
		panic(fmt.Sprintf("pyast: unknown expression %T", e))
	}
}

// primary renders the object of a call, attribute or subscript. Integer
// literals need parentheses there: 1.real would read as a float.
func (u *unparser) primary(e Expr) string {
	if _, ok := e.(*Int); ok {
		return "(" + u.sub(e, precTuple) + ")"
	}
	return u.sub(e, precAtom)
}

//----------------------------------------------------------------------

// FloatRepr spells x the way Python's repr does. Infinities become 1e309
// and NaN an expression evaluating to NaN, since Python has no literal
// for either.
func FloatRepr(x float64) string {
	switch {
	case math.IsInf(x, 1):
		return "1e309"
	case math.IsInf(x, -1):
		return "-1e309"
	case math.IsNaN(x):
		return "(1e309 - 1e309)"
	}
	s := strconv.FormatFloat(x, 'e', -1, 64)
	exp, _ := strconv.Atoi(s[strings.IndexByte(s, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return s
	}
	s = strconv.FormatFloat(x, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

func complexRepr(c complex128) string {
	re, im := real(c), imag(c)
	finite := func(f float64) bool { return !math.IsInf(f, 0) && !math.IsNaN(f) }
	if !finite(re) || !finite(im) {
		return "complex(" + FloatRepr(re) + ", " + FloatRepr(im) + ")"
	}
	if re == 0 && !math.Signbit(re) {
		return FloatRepr(im) + "j"
	}
	sign := "+"
	if im < 0 || math.Signbit(im) {
		sign, im = "-", -im
	}
	return "(" + FloatRepr(re) + sign + FloatRepr(im) + "j)"
}

// StrRepr quotes s as a Python str literal, preferring single quotes.
func StrRepr(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == '\\':
			b.WriteString(`\\`)
		case r == rune(q):
			b.WriteByte('\\')
			b.WriteByte(q)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x80 || unicode.IsPrint(r):
			b.WriteRune(r)
		case r < 0x100:
			fmt.Fprintf(&b, `\x%02x`, r)
		case r < 0x10000:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			fmt.Fprintf(&b, `\U%08x`, r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// BytesRepr quotes v as a Python bytes literal.
func BytesRepr(v []byte) string {
	q := byte('\'')
	if strings.IndexByte(string(v), '\'') >= 0 && strings.IndexByte(string(v), '"') < 0 {
		q = '"'
	}
	var b strings.Builder
	b.WriteString("b")
	b.WriteByte(q)
	for _, c := range v {
		switch {
		case c == '\\':
			b.WriteString(`\\`)
		case c == q:
			b.WriteByte('\\')
			b.WriteByte(q)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&b, `\x%02x`, c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(q)
	return b.String()
}
