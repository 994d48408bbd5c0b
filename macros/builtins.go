package macros

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/nukata/goarith"
	"github.com/nukata/hy-in-go/models"
)

var builtins map[string]*Builtin

func def(name string, fn func(ev *evaluator, args []Any) Any) {
	builtins[models.Mangle(name)] = &Builtin{Name: name, Fn: fn}
}

func init() {
	builtins = make(map[string]*Builtin)

	def("+", func(ev *evaluator, a []Any) Any { return ev.fold("+", a) })
	def("-", func(ev *evaluator, a []Any) Any {
		if len(a) == 1 {
			return ev.arith("-", models.NewInteger(0), a[0])
		}
		return ev.fold("-", a)
	})
	def("*", func(ev *evaluator, a []Any) Any { return ev.fold("*", a) })
	def("/", func(ev *evaluator, a []Any) Any { return ev.fold("/", a) })
	def("//", func(ev *evaluator, a []Any) Any { return ev.fold("//", a) })
	def("%", func(ev *evaluator, a []Any) Any { return ev.fold("%", a) })
	def("inc", func(ev *evaluator, a []Any) Any {
		ev.arity("inc", a, 1)
		return ev.arith("+", a[0], models.NewInteger(1))
	})
	def("dec", func(ev *evaluator, a []Any) Any {
		ev.arity("dec", a, 1)
		return ev.arith("-", a[0], models.NewInteger(1))
	})

	for _, op := range []string{"<", ">", "<=", ">="} {
		op := op
		def(op, func(ev *evaluator, a []Any) Any {
			for i := 0; i+1 < len(a); i++ {
				c := ev.compare(a[i], a[i+1])
				ok := map[string]bool{"<": c < 0, ">": c > 0, "<=": c <= 0, ">=": c >= 0}[op]
				if !ok {
					return false
				}
			}
			return true
		})
	}
	def("=", func(ev *evaluator, a []Any) Any {
		for i := 0; i+1 < len(a); i++ {
			if !equal(a[i], a[i+1]) {
				return false
			}
		}
		return true
	})
	def("!=", func(ev *evaluator, a []Any) Any {
		ev.arity("!=", a, 2)
		return !equal(a[0], a[1])
	})
	def("is", func(ev *evaluator, a []Any) Any {
		ev.arity("is", a, 2)
		return identical(a[0], a[1])
	})
	def("is-not", func(ev *evaluator, a []Any) Any {
		ev.arity("is-not", a, 2)
		return !identical(a[0], a[1])
	})
	def("in", func(ev *evaluator, a []Any) Any {
		ev.arity("in", a, 2)
		return ev.contains(a[1], a[0])
	})
	def("not-in", func(ev *evaluator, a []Any) Any {
		ev.arity("not-in", a, 2)
		return !ev.contains(a[1], a[0])
	})
	def("not", func(ev *evaluator, a []Any) Any {
		ev.arity("not", a, 1)
		return !truthy(a[0])
	})

	def("len", func(ev *evaluator, a []Any) Any {
		ev.arity("len", a, 1)
		if s, ok := a[0].(*models.String); ok {
			return models.NewInteger(int64(len([]rune(s.Value))))
		}
		return models.NewInteger(int64(len(ev.iterate(a[0], nil))))
	})
	def("first", func(ev *evaluator, a []Any) Any {
		ev.arity("first", a, 1)
		if items := ev.iterate(a[0], nil); len(items) > 0 {
			return items[0]
		}
		return nil
	})
	def("second", func(ev *evaluator, a []Any) Any {
		ev.arity("second", a, 1)
		if items := ev.iterate(a[0], nil); len(items) > 1 {
			return items[1]
		}
		return nil
	})
	def("last", func(ev *evaluator, a []Any) Any {
		ev.arity("last", a, 1)
		if items := ev.iterate(a[0], nil); len(items) > 0 {
			return items[len(items)-1]
		}
		return nil
	})
	def("rest", func(ev *evaluator, a []Any) Any {
		ev.arity("rest", a, 1)
		items := ev.iterate(a[0], nil)
		if len(items) == 0 {
			return models.NewList()
		}
		return models.NewList(items[1:]...)
	})
	def("list", func(ev *evaluator, a []Any) Any {
		if len(a) == 0 {
			return models.NewList()
		}
		ev.arity("list", a, 1)
		return models.NewList(append([]models.Model(nil), ev.iterate(a[0], nil)...)...)
	})
	def("reversed", func(ev *evaluator, a []Any) Any {
		ev.arity("reversed", a, 1)
		items := ev.iterate(a[0], nil)
		out := make([]models.Model, len(items))
		for i, it := range items {
			out[len(items)-1-i] = it
		}
		return models.NewList(out...)
	})
	def("range", func(ev *evaluator, a []Any) Any {
		start, stop, step := int64(0), int64(0), int64(1)
		switch len(a) {
		case 1:
			stop = ev.machineInt(a[0])
		case 2, 3:
			start, stop = ev.machineInt(a[0]), ev.machineInt(a[1])
			if len(a) == 3 {
				step = ev.machineInt(a[2])
			}
		default:
			ev.fail(nil, "range expected 1 to 3 arguments, got %d", len(a))
		}
		if step == 0 {
			panic(&Exception{Kind: "ValueError", Msg: "range() arg 3 must not be zero"})
		}
		var out []models.Model
		for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
			out = append(out, models.NewInteger(i))
		}
		return models.NewList(out...)
	})
	def("get", func(ev *evaluator, a []Any) Any {
		if len(a) < 2 {
			ev.fail(nil, "get needs a collection and a key")
		}
		v := a[0]
		for _, k := range a[1:] {
			v = ev.index(v, k)
		}
		return v
	})
	def("cut", func(ev *evaluator, a []Any) Any {
		if len(a) < 1 || len(a) > 4 {
			ev.fail(nil, "cut takes 1 to 4 arguments")
		}
		return ev.cut(a[0], a[1:])
	})

	def("str", func(ev *evaluator, a []Any) Any {
		if len(a) == 0 {
			return models.NewString("")
		}
		ev.arity("str", a, 1)
		return models.NewString(str(a[0]))
	})
	def("repr", func(ev *evaluator, a []Any) Any {
		ev.arity("repr", a, 1)
		return models.NewString(ev.model(a[0], nil).Repr())
	})
	def("name", func(ev *evaluator, a []Any) Any {
		ev.arity("name", a, 1)
		switch x := a[0].(type) {
		case *models.Keyword:
			return models.NewString(models.Unmangle(x.Name))
		case *models.Symbol:
			return models.NewString(models.Unmangle(x.Name))
		case *models.String:
			return x
		}
		ev.fail(nil, "name expects a keyword, symbol or string, got %s", typeName(a[0]))
		return nil
	})
	def("mangle", func(ev *evaluator, a []Any) Any {
		ev.arity("mangle", a, 1)
		return models.NewString(models.Mangle(str(a[0])))
	})
	def("unmangle", func(ev *evaluator, a []Any) Any {
		ev.arity("unmangle", a, 1)
		return models.NewString(models.Unmangle(str(a[0])))
	})
	def("gensym", func(ev *evaluator, a []Any) Any {
		if len(a) == 0 {
			return Gensym("")
		}
		ev.arity("gensym", a, 1)
		return Gensym(str(a[0]))
	})
	def("macroexpand", func(ev *evaluator, a []Any) Any {
		ev.arity("macroexpand", a, 1)
		out, err := ev.ctx.Macroexpand(ev.model(a[0], nil), ev.mod)
		if err != nil {
			panic(err)
		}
		return out
	})
	def("macroexpand-1", func(ev *evaluator, a []Any) Any {
		ev.arity("macroexpand-1", a, 1)
		out, err := ev.ctx.Macroexpand1(ev.model(a[0], nil), ev.mod)
		if err != nil {
			panic(err)
		}
		return out
	})
	def("print", func(ev *evaluator, a []Any) Any {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = str(v)
		}
		ev.ctx.logf("%s", strings.Join(parts, " "))
		return nil
	})

	def("HySymbol", func(ev *evaluator, a []Any) Any {
		ev.arity("HySymbol", a, 1)
		return models.NewSymbol(str(a[0]))
	})
	def("HyString", func(ev *evaluator, a []Any) Any {
		ev.arity("HyString", a, 1)
		return models.NewString(str(a[0]))
	})
	def("HyKeyword", func(ev *evaluator, a []Any) Any {
		ev.arity("HyKeyword", a, 1)
		return models.NewKeyword(strings.TrimPrefix(str(a[0]), ":"))
	})
	def("HyInteger", func(ev *evaluator, a []Any) Any {
		ev.arity("HyInteger", a, 1)
		return models.NewInteger(ev.machineInt(a[0]))
	})
	for name, mk := range map[string]func(...models.Model) models.Sequence{
		"HyExpression": func(e ...models.Model) models.Sequence { return models.NewExpression(e...) },
		"HyList":       func(e ...models.Model) models.Sequence { return models.NewList(e...) },
		"HyDict":       func(e ...models.Model) models.Sequence { return models.NewDict(e...) },
		"HySet":        func(e ...models.Model) models.Sequence { return models.NewSet(e...) },
	} {
		name, mk := name, mk
		def(name, func(ev *evaluator, a []Any) Any {
			if len(a) == 0 {
				return mk()
			}
			ev.arity(name, a, 1)
			return mk(append([]models.Model(nil), ev.iterate(a[0], nil)...)...)
		})
	}

	predicate := func(name string, test func(Any) bool) {
		def(name, func(ev *evaluator, a []Any) Any {
			ev.arity(name, a, 1)
			return test(a[0])
		})
	}
	predicate("symbol?", func(v Any) bool { _, ok := v.(*models.Symbol); return ok })
	predicate("keyword?", func(v Any) bool { _, ok := v.(*models.Keyword); return ok })
	predicate("string?", func(v Any) bool { _, ok := v.(*models.String); return ok })
	predicate("integer?", func(v Any) bool { _, ok := v.(*models.Integer); return ok })
	predicate("float?", func(v Any) bool { _, ok := v.(*models.Float); return ok })
	predicate("coll?", func(v Any) bool { _, ok := v.(models.Sequence); return ok })
	predicate("expression?", func(v Any) bool { _, ok := v.(*models.Expression); return ok })
	predicate("list?", func(v Any) bool { _, ok := v.(*models.List); return ok })
	predicate("none?", func(v Any) bool { return v == nil })
	predicate("zero?", func(v Any) bool { i, ok := v.(*models.Integer); return ok && i.Value.Sign() == 0 })
	predicate("callable", func(v Any) bool {
		switch v.(type) {
		case *Closure, *Builtin:
			return true
		}
		return false
	})

	for _, kind := range []string{"Exception", "ValueError", "TypeError", "NameError", "KeyError", "IndexError"} {
		kind := kind
		def(kind, func(ev *evaluator, a []Any) Any {
			msg := ""
			if len(a) > 0 {
				msg = str(a[0])
			}
			return &Exception{Kind: kind, Msg: msg}
		})
	}
}

//----------------------------------------------------------------------

func (ev *evaluator) arity(name string, a []Any, n int) {
	if len(a) != n {
		ev.fail(nil, "%s() takes %d argument(s) but %d were given", name, n, len(a))
	}
}

func (ev *evaluator) machineInt(v Any) int64 {
	i, ok := v.(*models.Integer)
	if !ok || !i.Value.IsInt64() {
		ev.fail(nil, "expected a machine-sized integer, got %s", typeName(v))
	}
	return i.Value.Int64()
}

func (ev *evaluator) fold(op string, a []Any) Any {
	if len(a) == 0 {
		switch op {
		case "+":
			return models.NewInteger(0)
		case "*":
			return models.NewInteger(1)
		}
		ev.fail(nil, "%s needs at least one argument", op)
	}
	acc := a[0]
	for _, b := range a[1:] {
		acc = ev.arith(op, acc, b)
	}
	return acc
}

// arith applies a binary operator. Integers go through goarith; any float
// makes the operation float; sequences and strings concatenate under +.
func (ev *evaluator) arith(op string, x, y Any) Any {
	if op == "+" {
		switch xs := x.(type) {
		case models.Sequence:
			ys, ok := y.(models.Sequence)
			if !ok {
				ev.fail(nil, "can only concatenate a sequence to a sequence, not %s", typeName(y))
			}
			return models.Concat(xs, ys)
		case *models.String:
			ys, ok := y.(*models.String)
			if !ok {
				ev.fail(nil, "can only concatenate str to str, not %s", typeName(y))
			}
			return models.NewString(xs.Value + ys.Value)
		}
	}
	xi, xInt := x.(*models.Integer)
	yi, yInt := y.(*models.Integer)
	if xInt && yInt {
		a, b := xi.Number(), yi.Number()
		switch op {
		case "+":
			return fromNumber(a.Add(b))
		case "-":
			return fromNumber(a.Sub(b))
		case "*":
			return fromNumber(a.Mul(b))
		case "//", "%":
			if yi.Value.Sign() == 0 {
				panic(&Exception{Kind: "ZeroDivisionError", Msg: "integer division or modulo by zero"})
			}
			q, m := new(big.Int).QuoRem(xi.Value, yi.Value, new(big.Int))
			if m.Sign() != 0 && m.Sign() != yi.Value.Sign() {
				q.Sub(q, big.NewInt(1))
				m.Add(m, yi.Value)
			}
			if op == "//" {
				return &models.Integer{Value: q}
			}
			return &models.Integer{Value: m}
		}
	}
	a, b := ev.float(x), ev.float(y)
	switch op {
	case "+":
		return &models.Float{Value: a + b}
	case "-":
		return &models.Float{Value: a - b}
	case "*":
		return &models.Float{Value: a * b}
	case "/":
		if b == 0 {
			panic(&Exception{Kind: "ZeroDivisionError", Msg: "division by zero"})
		}
		return &models.Float{Value: a / b}
	case "//":
		return &models.Float{Value: math.Floor(a / b)}
	case "%":
		return &models.Float{Value: a - b*math.Floor(a/b)}
	}
	ev.fail(nil, "unsupported operator %s", op)
	return nil
}

func fromNumber(n goarith.Number) *models.Integer {
	z, ok := new(big.Int).SetString(n.String(), 10)
	if !ok {
		panic(fmt.Sprintf("goarith returned a non-integer %s", n.String()))
	}
	return &models.Integer{Value: z}
}

func (ev *evaluator) float(v Any) float64 {
	switch x := v.(type) {
	case *models.Integer:
		f, _ := new(big.Float).SetInt(x.Value).Float64()
		return f
	case *models.Float:
		return x.Value
	case bool:
		if x {
			return 1
		}
		return 0
	}
	ev.fail(nil, "unsupported operand type %s", typeName(v))
	return 0
}

func (ev *evaluator) compare(x, y Any) int {
	xi, ok1 := x.(*models.Integer)
	yi, ok2 := y.(*models.Integer)
	if ok1 && ok2 {
		return xi.Number().Cmp(yi.Number())
	}
	if xs, ok := x.(*models.String); ok {
		if ys, ok := y.(*models.String); ok {
			return strings.Compare(xs.Value, ys.Value)
		}
	}
	a, b := ev.float(x), ev.float(y)
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func equal(x, y Any) bool {
	switch a := x.(type) {
	case nil:
		return y == nil
	case bool:
		b, ok := y.(bool)
		return ok && a == b
	case *models.Integer:
		if f, ok := y.(*models.Float); ok {
			af, _ := new(big.Float).SetInt(a.Value).Float64()
			return af == f.Value
		}
	case *models.Float:
		if i, ok := y.(*models.Integer); ok {
			return equal(i, a)
		}
	case models.Model:
		if b, ok := y.(models.Model); ok {
			return models.Equal(a, b)
		}
		return false
	}
	if m, ok := x.(models.Model); ok {
		if b, ok := y.(models.Model); ok {
			return models.Equal(m, b)
		}
	}
	return x == y
}

// identical compares by reference; nil and booleans are singletons.
func identical(x, y Any) bool { return x == y }

func (ev *evaluator) contains(coll, item Any) bool {
	switch c := coll.(type) {
	case *models.String:
		s, ok := item.(*models.String)
		if !ok {
			ev.fail(nil, "'in <string>' requires string as left operand, not %s", typeName(item))
		}
		return strings.Contains(c.Value, s.Value)
	case *models.Dict:
		el := c.Elems()
		for i := 0; i < len(el); i += 2 {
			if equal(el[i], item) {
				return true
			}
		}
		return false
	}
	for _, it := range ev.iterate(coll, nil) {
		if equal(it, item) {
			return true
		}
	}
	return false
}

func (ev *evaluator) index(v, k Any) Any {
	if d, ok := v.(*models.Dict); ok {
		el := d.Elems()
		for i := 0; i+1 < len(el); i += 2 {
			if equal(el[i], k) {
				return el[i+1]
			}
		}
		panic(&Exception{Kind: "KeyError", Msg: str(k)})
	}
	items := ev.iterate(v, nil)
	i := int(ev.machineInt(k))
	if i < 0 {
		i += len(items)
	}
	if i < 0 || i >= len(items) {
		panic(&Exception{Kind: "IndexError", Msg: "index out of range"})
	}
	return items[i]
}

// cut slices like Python's seq[start:stop:step]; a None bound is open.
func (ev *evaluator) cut(v Any, bounds []Any) Any {
	items := ev.iterate(v, nil)
	n := len(items)
	step := 1
	if len(bounds) > 2 && bounds[2] != nil {
		step = int(ev.machineInt(bounds[2]))
		if step == 0 {
			panic(&Exception{Kind: "ValueError", Msg: "slice step cannot be zero"})
		}
	}
	clamp := func(b Any, dflt int) int {
		if b == nil {
			return dflt
		}
		i := int(ev.machineInt(b))
		if i < 0 {
			i += n
		}
		lo, hi := 0, n
		if step < 0 {
			lo, hi = -1, n-1
		}
		if i < lo {
			i = lo
		}
		if i > hi {
			i = hi
		}
		return i
	}
	var start, stop int
	if step > 0 {
		start, stop = 0, n
	} else {
		start, stop = n-1, -1
	}
	if len(bounds) > 0 {
		start = clamp(bounds[0], start)
	}
	if len(bounds) > 1 {
		stop = clamp(bounds[1], stop)
	}
	var out []models.Model
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		out = append(out, items[i])
	}
	switch x := v.(type) {
	case models.Sequence:
		return x.WithElems(out)
	case *models.String:
		var b strings.Builder
		for _, m := range out {
			b.WriteString(m.(*models.String).Value)
		}
		return models.NewString(b.String())
	}
	return models.NewList(out...)
}

func (ev *evaluator) callMethod(obj Any, name string, a []Any, at models.Model) Any {
	switch o := obj.(type) {
	case *models.String:
		switch name {
		case "startswith", "endswith":
			ev.arity(name, a, 1)
			p := str(a[0])
			if name == "startswith" {
				return strings.HasPrefix(o.Value, p)
			}
			return strings.HasSuffix(o.Value, p)
		case "upper":
			return models.NewString(strings.ToUpper(o.Value))
		case "lower":
			return models.NewString(strings.ToLower(o.Value))
		case "join":
			ev.arity(name, a, 1)
			var parts []string
			for _, it := range ev.iterate(a[0], at) {
				parts = append(parts, str(it))
			}
			return models.NewString(strings.Join(parts, o.Value))
		case "format":
			return models.NewString(formatBraces(o.Value, a))
		}
	case *models.Symbol:
		switch name {
		case "startswith":
			ev.arity(name, a, 1)
			return strings.HasPrefix(o.Name, str(a[0]))
		case "endswith":
			ev.arity(name, a, 1)
			return strings.HasSuffix(o.Name, str(a[0]))
		}
	case *models.List, *models.Expression:
		if name == "append" {
			ev.arity(name, a, 1)
			seq := o.(models.Sequence)
			grown := models.Concat(seq, models.NewList(ev.model(a[0], at)))
			replaceElems(seq, grown.Elems())
			return nil
		}
	}
	ev.fail(at, "method .%s is not available on %s at compile time", name, typeName(obj))
	return nil
}

// replaceElems makes seq hold elems, for in-place list methods.
func replaceElems(seq models.Sequence, elems []models.Model) {
	pos := seq.Position()
	switch s := seq.(type) {
	case *models.List:
		*s = *models.NewList(elems...)
	case *models.Expression:
		*s = *models.NewExpression(elems...)
	}
	seq.SetPosition(pos)
}

// formatBraces substitutes successive {} placeholders.
func formatBraces(f string, a []Any) string {
	var b strings.Builder
	i := 0
	for {
		j := strings.Index(f, "{}")
		if j < 0 || i >= len(a) {
			b.WriteString(f)
			return b.String()
		}
		b.WriteString(f[:j])
		b.WriteString(str(a[i]))
		f = f[j+2:]
		i++
	}
}

// str renders a value the way Python's str does for the model types.
func str(v Any) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case *models.String:
		return x.Value
	case *models.Symbol:
		return x.Name
	case *models.Keyword:
		return x.Text()
	case *models.Bytes:
		return string(x.Value)
	case *models.Integer:
		return x.Value.String()
	case *models.Float:
		return models.FormatFloat(x.Value)
	case models.Model:
		return x.Repr()
	case *Exception:
		return x.Msg
	}
	return typeName(v)
}
