// Package models defines the Hy data model: the tree of symbols, literals
// and compound forms that the reader produces, macros transform and the
// compiler consumes.
package models

import (
	"math"
	"math/big"

	"github.com/nukata/goarith"
)

// Pos is a source span. Lines and columns are 1-based and the end is
// inclusive. The zero Pos means "no position".
type Pos struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// IsValid reports whether p carries a position.
func (p Pos) IsValid() bool {
	return p.StartLine > 0
}

// Model is a node of a Hy program tree.
type Model interface {
	Position() Pos
	SetPosition(Pos)

	// Replace fills in p's position on every node of the receiver's tree
	// that has none yet, and returns the receiver.
	Replace(p Model) Model

	// Repr renders the model as Hy source.
	Repr() string
}

// Sequence is a Model holding an ordered list of children.
type Sequence interface {
	Model
	Elems() []Model

	// WithElems returns a new sequence of the receiver's variant holding
	// elems, positioned like the receiver.
	WithElems(elems []Model) Sequence
}

// node carries the position shared by all variants.
type node struct {
	pos Pos
}

func (n *node) Position() Pos     { return n.pos }
func (n *node) SetPosition(p Pos) { n.pos = p }

func (n *node) fill(p Pos) {
	if !n.pos.IsValid() && p.IsValid() {
		n.pos = p
	}
}

//----------------------------------------------------------------------

// Symbol is a name. Name holds the spelling as read; Mangled gives the
// host-safe identifier.
type Symbol struct {
	node
	Name string
}

// NewSymbol returns a Symbol without position.
func NewSymbol(name string) *Symbol {
	return &Symbol{Name: name}
}

// Mangled returns the host identifier of the symbol.
func (s *Symbol) Mangled() string {
	return Mangle(s.Name)
}

func (s *Symbol) Replace(p Model) Model {
	s.fill(p.Position())
	return s
}

// KeywordPrefix marks the text form of a keyword; it cannot occur in
// ordinary source text.
const KeywordPrefix = "\ufdd0:"

// Keyword is a self-evaluating name written :name.
type Keyword struct {
	node
	Name string
}

// NewKeyword returns a Keyword for name (without the leading colon).
func NewKeyword(name string) *Keyword {
	return &Keyword{Name: name}
}

// Text returns the reserved-prefix encoding of the keyword.
func (k *Keyword) Text() string {
	return KeywordPrefix + k.Name
}

func (k *Keyword) Replace(p Model) Model {
	k.fill(p.Position())
	return k
}

// String is a text literal. When HasBrackets is set it was written as a
// bracket string #[Brackets[...]Brackets].
type String struct {
	node
	Value       string
	Brackets    string
	HasBrackets bool
}

// NewString returns a String without position.
func NewString(s string) *String {
	return &String{Value: s}
}

func (s *String) Replace(p Model) Model {
	s.fill(p.Position())
	return s
}

// Bytes is a byte-string literal.
type Bytes struct {
	node
	Value []byte
}

func (b *Bytes) Replace(p Model) Model {
	b.fill(p.Position())
	return b
}

//----------------------------------------------------------------------

// Integer is an arbitrary precision integer literal.
type Integer struct {
	node
	Value *big.Int
}

// NewInteger returns an Integer for i.
func NewInteger(i int64) *Integer {
	return &Integer{Value: big.NewInt(i)}
}

// NewBigInteger returns an Integer holding a copy of z.
func NewBigInteger(z *big.Int) *Integer {
	return &Integer{Value: new(big.Int).Set(z)}
}

// Number returns the value as a goarith.Number (Int or BigInt).
func (i *Integer) Number() goarith.Number {
	return goarith.AsNumber(new(big.Int).Set(i.Value))
}

func (i *Integer) Replace(p Model) Model {
	i.fill(p.Position())
	return i
}

// Float is a double precision literal.
type Float struct {
	node
	Value float64
}

func (f *Float) Replace(p Model) Model {
	f.fill(p.Position())
	return f
}

// Complex is a complex literal.
type Complex struct {
	node
	Value complex128
}

func (c *Complex) Replace(p Model) Model {
	c.fill(p.Position())
	return c
}

//----------------------------------------------------------------------

type seq struct {
	node
	elems []Model
}

func (s *seq) Elems() []Model { return s.elems }

func (s *seq) replaceAll(p Model) {
	s.fill(p.Position())
	for _, e := range s.elems {
		e.Replace(p)
	}
}

// List is a bracketed sequence [a b c].
type List struct{ seq }

// Expression is a parenthesised sequence (f a b), a call or special form.
type Expression struct{ seq }

// Dict is a braced sequence {k v ...} of alternating keys and values.
type Dict struct{ seq }

// Set is a #{a b} sequence.
type Set struct{ seq }

// NewList returns a List of elems.
func NewList(elems ...Model) *List { return &List{seq{elems: elems}} }

// NewExpression returns an Expression of elems.
func NewExpression(elems ...Model) *Expression { return &Expression{seq{elems: elems}} }

// NewDict returns a Dict of elems.
func NewDict(elems ...Model) *Dict { return &Dict{seq{elems: elems}} }

// NewSet returns a Set of elems.
func NewSet(elems ...Model) *Set { return &Set{seq{elems: elems}} }

func (l *List) Replace(p Model) Model       { l.replaceAll(p); return l }
func (e *Expression) Replace(p Model) Model { e.replaceAll(p); return e }
func (d *Dict) Replace(p Model) Model       { d.replaceAll(p); return d }
func (s *Set) Replace(p Model) Model        { s.replaceAll(p); return s }

func (l *List) WithElems(elems []Model) Sequence {
	return &List{seq{node{l.pos}, elems}}
}

func (e *Expression) WithElems(elems []Model) Sequence {
	return &Expression{seq{node{e.pos}, elems}}
}

func (d *Dict) WithElems(elems []Model) Sequence {
	return &Dict{seq{node{d.pos}, elems}}
}

func (s *Set) WithElems(elems []Model) Sequence {
	return &Set{seq{node{s.pos}, elems}}
}

// Copy returns m with every sequence in it rebuilt, so that changing the
// copy in place leaves m alone. Atoms are shared.
func Copy(m Model) Model {
	seq, ok := m.(Sequence)
	if !ok {
		return m
	}
	elems := make([]Model, len(seq.Elems()))
	for i, e := range seq.Elems() {
		elems[i] = Copy(e)
	}
	return seq.WithElems(elems)
}

// Concat joins sequences. The result has the variant and position of a.
func Concat(a Sequence, rest ...Sequence) Sequence {
	elems := append([]Model(nil), a.Elems()...)
	for _, r := range rest {
		elems = append(elems, r.Elems()...)
	}
	return a.WithElems(elems)
}

// Head returns the first element of e as a Symbol, or nil.
func Head(e *Expression) *Symbol {
	if len(e.elems) == 0 {
		return nil
	}
	sym, _ := e.elems[0].(*Symbol)
	return sym
}

// IsCall reports whether m is an Expression whose head is the symbol name.
func IsCall(m Model, name string) bool {
	e, ok := m.(*Expression)
	if !ok {
		return false
	}
	h := Head(e)
	return h != nil && h.Name == name
}

//----------------------------------------------------------------------

// Equal reports whether a and b are structurally equal. Positions are
// ignored; variants must match, so a List never equals an Expression.
func Equal(a, b Model) bool {
	switch x := a.(type) {
	case *Symbol:
		y, ok := b.(*Symbol)
		return ok && x.Name == y.Name
	case *Keyword:
		y, ok := b.(*Keyword)
		return ok && x.Name == y.Name
	case *String:
		y, ok := b.(*String)
		return ok && x.Value == y.Value
	case *Bytes:
		y, ok := b.(*Bytes)
		return ok && string(x.Value) == string(y.Value)
	case *Integer:
		y, ok := b.(*Integer)
		return ok && x.Value.Cmp(y.Value) == 0
	case *Float:
		y, ok := b.(*Float)
		return ok && floatEq(x.Value, y.Value)
	case *Complex:
		y, ok := b.(*Complex)
		return ok && floatEq(real(x.Value), real(y.Value)) &&
			floatEq(imag(x.Value), imag(y.Value))
	case *List:
		y, ok := b.(*List)
		return ok && elemsEqual(x.elems, y.elems)
	case *Expression:
		y, ok := b.(*Expression)
		return ok && elemsEqual(x.elems, y.elems)
	case *Dict:
		y, ok := b.(*Dict)
		return ok && elemsEqual(x.elems, y.elems)
	case *Set:
		y, ok := b.(*Set)
		return ok && elemsEqual(x.elems, y.elems)
	}
	return false
}

// NaN equals NaN here, so that a tree always equals itself.
func floatEq(x, y float64) bool {
	return x == y || (math.IsNaN(x) && math.IsNaN(y))
}

func elemsEqual(xs, ys []Model) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i := range xs {
		if !Equal(xs[i], ys[i]) {
			return false
		}
	}
	return true
}
