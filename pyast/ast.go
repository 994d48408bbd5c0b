// Package pyast is the host AST the compiler emits: a subset of Python 3's
// ast module sufficient for everything Hy compiles to, plus Unparse, which
// renders a tree back to Python source.
package pyast

import (
	"math/big"

	"github.com/nukata/hy-in-go/models"
)

// Node is any AST node.
type Node interface {
	Position() models.Pos
}

// Expr is an expression node.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a statement node.
type Stmt interface {
	Node
	stmtNode()
}

// At records the source span a node was compiled from.
type At struct {
	Pos models.Pos
}

// Position returns the span.
func (a *At) Position() models.Pos { return a.Pos }

//----------------------------------------------------------------------
// Expressions

// Name is a variable reference; None, True, False and ... are Names too.
type Name struct {
	At
	Id string
}

// Int is an integer literal.
type Int struct {
	At
	Value *big.Int
}

// Float is a float literal.
type Float struct {
	At
	Value float64
}

// Complex is a complex literal.
type Complex struct {
	At
	Value complex128
}

// Str is a str literal.
type Str struct {
	At
	Value string
}

// Bytes is a bytes literal.
type Bytes struct {
	At
	Value []byte
}

// BinOp is Left Op Right with Op one of + - * / // % ** @ << >> & | ^.
type BinOp struct {
	At
	Left  Expr
	Op    string
	Right Expr
}

// UnaryOp applies -, +, ~ or not.
type UnaryOp struct {
	At
	Op      string
	Operand Expr
}

// BoolOp joins Values with and or or.
type BoolOp struct {
	At
	Op     string
	Values []Expr
}

// Compare is a chained comparison.
type Compare struct {
	At
	Left        Expr
	Ops         []string
	Comparators []Expr
}

// Keyword is a named argument; an empty Arg means **Value.
type Keyword struct {
	Arg   string
	Value Expr
}

// Call is Func(Args..., Keywords...).
type Call struct {
	At
	Func     Expr
	Args     []Expr
	Keywords []Keyword
}

// Starred is *Value.
type Starred struct {
	At
	Value Expr
}

// Attribute is Value.Attr.
type Attribute struct {
	At
	Value Expr
	Attr  string
}

// Subscript is Value[Index].
type Subscript struct {
	At
	Value Expr
	Index Expr
}

// Slice is Lower:Upper:Step inside a Subscript; any part may be nil.
type Slice struct {
	At
	Lower, Upper, Step Expr
}

// Tuple is always rendered parenthesised.
type Tuple struct {
	At
	Elts []Expr
}

// List is a list display.
type List struct {
	At
	Elts []Expr
}

// Set is a set display.
type Set struct {
	At
	Elts []Expr
}

// Dict is a dict display; a nil key means **Value.
type Dict struct {
	At
	Keys   []Expr
	Values []Expr
}

// IfExp is Body if Test else OrElse.
type IfExp struct {
	At
	Test, Body, OrElse Expr
}

// Arg is a parameter name.
type Arg struct {
	Name string
}

// Arguments is a parameter list. Defaults apply to the last len(Defaults)
// of Args; KwDefaults parallels KwOnly with nil for no default.
type Arguments struct {
	Args       []Arg
	Defaults   []Expr
	Vararg     *Arg
	KwOnly     []Arg
	KwDefaults []Expr
	Kwarg      *Arg
}

// Lambda is lambda Args: Body.
type Lambda struct {
	At
	Args *Arguments
	Body Expr
}

// Comprehension is one for clause with its if filters.
type Comprehension struct {
	Target Expr
	Iter   Expr
	Ifs    []Expr
}

// ListComp is [Elt for ...].
type ListComp struct {
	At
	Elt        Expr
	Generators []Comprehension
}

// SetComp is {Elt for ...}.
type SetComp struct {
	At
	Elt        Expr
	Generators []Comprehension
}

// GeneratorExp is (Elt for ...).
type GeneratorExp struct {
	At
	Elt        Expr
	Generators []Comprehension
}

// DictComp is {Key: Value for ...}.
type DictComp struct {
	At
	Key, Value Expr
	Generators []Comprehension
}

// Yield is yield Value; Value may be nil.
type Yield struct {
	At
	Value Expr
}

// YieldFrom is yield from Value.
type YieldFrom struct {
	At
	Value Expr
}

// Await is await Value.
type Await struct {
	At
	Value Expr
}

func (*Name) exprNode()         {}
func (*Int) exprNode()          {}
func (*Float) exprNode()        {}
func (*Complex) exprNode()      {}
func (*Str) exprNode()          {}
func (*Bytes) exprNode()        {}
func (*BinOp) exprNode()        {}
func (*UnaryOp) exprNode()      {}
func (*BoolOp) exprNode()       {}
func (*Compare) exprNode()      {}
func (*Call) exprNode()         {}
func (*Starred) exprNode()      {}
func (*Attribute) exprNode()    {}
func (*Subscript) exprNode()    {}
func (*Slice) exprNode()        {}
func (*Tuple) exprNode()        {}
func (*List) exprNode()         {}
func (*Set) exprNode()          {}
func (*Dict) exprNode()         {}
func (*IfExp) exprNode()        {}
func (*Lambda) exprNode()       {}
func (*ListComp) exprNode()     {}
func (*SetComp) exprNode()      {}
func (*GeneratorExp) exprNode() {}
func (*DictComp) exprNode()     {}
func (*Yield) exprNode()        {}
func (*YieldFrom) exprNode()    {}
func (*Await) exprNode()        {}

//----------------------------------------------------------------------
// Statements

// Module is a compiled file.
type Module struct {
	Body []Stmt
}

// ExprStmt evaluates Value for effect.
type ExprStmt struct {
	At
	Value Expr
}

// Assign is Targets[0] = Targets[1] = ... = Value.
type Assign struct {
	At
	Targets []Expr
	Value   Expr
}

// AugAssign is Target Op= Value.
type AugAssign struct {
	At
	Target Expr
	Op     string
	Value  Expr
}

// If is an if statement; a lone If in OrElse renders as elif.
type If struct {
	At
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// While is a while loop.
type While struct {
	At
	Test   Expr
	Body   []Stmt
	OrElse []Stmt
}

// For is a for loop.
type For struct {
	At
	Target Expr
	Iter   Expr
	Body   []Stmt
	OrElse []Stmt
	Async  bool
}

// ExceptHandler is one except clause; a nil Type catches everything.
type ExceptHandler struct {
	At
	Type Expr
	Name string
	Body []Stmt
}

// Try is try/except/else/finally.
type Try struct {
	At
	Body     []Stmt
	Handlers []*ExceptHandler
	OrElse   []Stmt
	Finally  []Stmt
}

// WithItem is Context as Var; Var may be nil.
type WithItem struct {
	Context Expr
	Var     Expr
}

// With is a with statement.
type With struct {
	At
	Items []WithItem
	Body  []Stmt
	Async bool
}

// FunctionDef is def Name(Args): Body.
type FunctionDef struct {
	At
	Name       string
	Args       *Arguments
	Body       []Stmt
	Decorators []Expr
	Async      bool
}

// ClassDef is class Name(Bases, Keywords): Body.
type ClassDef struct {
	At
	Name       string
	Bases      []Expr
	Keywords   []Keyword
	Body       []Stmt
	Decorators []Expr
}

// Return is return Value; Value may be nil.
type Return struct {
	At
	Value Expr
}

// Raise is raise Exc from Cause; both may be nil.
type Raise struct {
	At
	Exc, Cause Expr
}

// Assert is assert Test, Msg.
type Assert struct {
	At
	Test, Msg Expr
}

// Delete is del Targets.
type Delete struct {
	At
	Targets []Expr
}

// Global is global Names.
type Global struct {
	At
	Names []string
}

// Nonlocal is nonlocal Names.
type Nonlocal struct {
	At
	Names []string
}

// Alias is Name as AsName in an import.
type Alias struct {
	Name   string
	AsName string
}

// Import is import Names.
type Import struct {
	At
	Names []Alias
}

// ImportFrom is from Module import Names; a single "*" alias imports all.
type ImportFrom struct {
	At
	Module string
	Names  []Alias
}

// Pass is pass.
type Pass struct{ At }

// Break is break.
type Break struct{ At }

// Continue is continue.
type Continue struct{ At }

func (*Module) Position() models.Pos { return models.Pos{} }

func (*ExprStmt) stmtNode()    {}
func (*Assign) stmtNode()      {}
func (*AugAssign) stmtNode()   {}
func (*If) stmtNode()          {}
func (*While) stmtNode()       {}
func (*For) stmtNode()         {}
func (*Try) stmtNode()         {}
func (*With) stmtNode()        {}
func (*FunctionDef) stmtNode() {}
func (*ClassDef) stmtNode()    {}
func (*Return) stmtNode()      {}
func (*Raise) stmtNode()       {}
func (*Assert) stmtNode()      {}
func (*Delete) stmtNode()      {}
func (*Global) stmtNode()      {}
func (*Nonlocal) stmtNode()    {}
func (*Import) stmtNode()      {}
func (*ImportFrom) stmtNode()  {}
func (*Pass) stmtNode()        {}
func (*Break) stmtNode()       {}
func (*Continue) stmtNode()    {}
