// Package ast defines the statement-level abstract syntax tree the lowering
// stage consumes. The tree is produced by the parser and annotated by the
// resolver; lowering treats it as read-only.
package ast

import "fmt"

// Loc is a source position used for diagnostics and IR locations.
type Loc struct {
	File string
	Line int
	Col  int
}

func (l Loc) String() string {
	if l.File == "" {
		return fmt.Sprintf("%d:%d", l.Line, l.Col)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Col)
}

// Type is the resolved value type of an expression or declaration.
type Type int

const (
	TypeInvalid Type = iota
	TypeVoid
	TypeInt
	TypeFloat
	TypeBool
	TypeString
	TypeObject
	// TypeOptional wraps a value that may be absent. Conditional bindings
	// and for-each element fetches produce optionals.
	TypeOptional
)

func (t Type) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeInt:
		return "int"
	case TypeFloat:
		return "float"
	case TypeBool:
		return "bool"
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeOptional:
		return "optional"
	default:
		return "invalid"
	}
}

// Managed reports whether values of this type carry an ownership obligation
// (must be released exactly once on every path).
func (t Type) Managed() bool {
	return t == TypeString || t == TypeObject || t == TypeOptional
}

// Node is the common interface of all AST nodes.
type Node interface {
	Pos() Loc
}

// Stmt is implemented by all statement nodes. The set is closed; the
// lowering visitor dispatches with an exhaustive type switch.
type Stmt interface {
	Node
	stmtNode()
}

// Expr is implemented by all expression nodes.
type Expr interface {
	Node
	exprNode()
	Type() Type
}

// ---------------------------------------------------------------------------
// Expressions

// Ident is a reference to a declared variable or function parameter.
type Ident struct {
	Name string
	Typ  Type
	Loc  Loc
}

// Lit is a literal constant.
type Lit struct {
	Typ   Type
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Null  bool
	Loc   Loc
}

// UnaryExpr is a prefix operator application ("!", "-").
type UnaryExpr struct {
	Op  string
	X   Expr
	Typ Type
	Loc Loc
}

// BinaryExpr is an infix operator application. Comparison operators yield
// bool; arithmetic operators yield the operand type.
type BinaryExpr struct {
	Op   string
	X, Y Expr
	Typ  Type
	Loc  Loc
}

// AssignExpr writes the value of Value into the variable named by Target.
type AssignExpr struct {
	Target *Ident
	Value  Expr
	Loc    Loc
}

// CallExpr invokes a free function by name. Call results of managed type
// are owned by the caller.
type CallExpr struct {
	Fun  string
	Args []Expr
	Typ  Type
	Loc  Loc
}

// MemberExpr reads a property from an object value.
type MemberExpr struct {
	X    Expr
	Name string
	Typ  Type
	Loc  Loc
}

func (e *Ident) Pos() Loc      { return e.Loc }
func (e *Lit) Pos() Loc        { return e.Loc }
func (e *UnaryExpr) Pos() Loc  { return e.Loc }
func (e *BinaryExpr) Pos() Loc { return e.Loc }
func (e *AssignExpr) Pos() Loc { return e.Loc }
func (e *CallExpr) Pos() Loc   { return e.Loc }
func (e *MemberExpr) Pos() Loc { return e.Loc }

func (e *Ident) Type() Type      { return e.Typ }
func (e *Lit) Type() Type        { return e.Typ }
func (e *UnaryExpr) Type() Type  { return e.Typ }
func (e *BinaryExpr) Type() Type { return e.Typ }
func (e *AssignExpr) Type() Type { return e.Value.Type() }
func (e *CallExpr) Type() Type   { return e.Typ }
func (e *MemberExpr) Type() Type { return e.Typ }

func (*Ident) exprNode()      {}
func (*Lit) exprNode()        {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}
func (*AssignExpr) exprNode() {}
func (*CallExpr) exprNode()   {}
func (*MemberExpr) exprNode() {}

// ---------------------------------------------------------------------------
// Condition clauses

// CondBinding is an optional-unwrapping clause in a statement condition:
// the initializer yields an optional, and the clause succeeds only when a
// value is present, binding it to Name for the true path.
type CondBinding struct {
	Name string
	// ElemType is the type of the wrapped value once extracted.
	ElemType Type
	Init     Expr
	Loc      Loc
}

// CondClause is one element of a statement condition. Exactly one of Bool
// and Binding is set.
type CondClause struct {
	Bool    Expr
	Binding *CondBinding
}

func (c CondClause) Pos() Loc {
	if c.Binding != nil {
		return c.Binding.Loc
	}
	return c.Bool.Pos()
}

// ---------------------------------------------------------------------------
// Statements

// BlockStmt is a brace-delimited statement sequence with its own lexical
// scope.
type BlockStmt struct {
	Stmts []Stmt
	Loc   Loc
}

// DeclStmt declares a local variable, optionally initialized.
type DeclStmt struct {
	Name string
	Typ  Type
	Init Expr
	Loc  Loc
}

// ExprStmt evaluates an expression for its side effects.
type ExprStmt struct {
	X   Expr
	Loc Loc
}

// IfStmt is a conditional with an optional else arm. Else is either a
// *BlockStmt or another *IfStmt (else-if chain), or nil.
type IfStmt struct {
	Cond []CondClause
	Then *BlockStmt
	Else Stmt
	Loc  Loc
}

// WhileStmt is a head-tested loop whose condition may declare bindings.
type WhileStmt struct {
	Cond  []CondClause
	Body  *BlockStmt
	Label string
	Loc   Loc
}

// DoWhileStmt is a tail-tested loop; the body always runs at least once.
type DoWhileStmt struct {
	Body  *BlockStmt
	Cond  Expr
	Label string
	Loc   Loc
}

// ForStmt is a C-style loop. Init may be nil or a *DeclStmt/*ExprStmt;
// Cond may be nil (infinite loop); Post may be nil.
type ForStmt struct {
	Init  Stmt
	Cond  Expr
	Post  Expr
	Body  *BlockStmt
	Label string
	Loc   Loc
}

// ForEachStmt iterates a sequence, binding each element to Name for the
// duration of one iteration.
type ForEachStmt struct {
	Name string
	// ElemType is the type of the bound element.
	ElemType Type
	Seq      Expr
	Body     *BlockStmt
	Label    string
	Loc      Loc
}

// BreakStmt exits the enclosing (or labeled) loop or switch. Target is
// filled in by the resolver and identifies the construct by node identity.
type BreakStmt struct {
	Label  string
	Target Stmt
	Loc    Loc
}

// ContinueStmt re-enters the enclosing (or labeled) loop's test or
// increment step. Target is filled in by the resolver.
type ContinueStmt struct {
	Label  string
	Target Stmt
	Loc    Loc
}

// ReturnStmt exits the function, optionally yielding a value.
type ReturnStmt struct {
	Value Expr
	Loc   Loc
}

// FailStmt aborts a constructor, releasing the implicit self before
// transferring to the function's failure destination. Only legal inside a
// constructor.
type FailStmt struct {
	Loc Loc
}

// SwitchStmt compares a tag against a list of case values. Cases fall
// through unless their body ends the flow; the parser makes fallthrough
// explicit by appending a FallthroughStmt.
type SwitchStmt struct {
	Tag   Expr
	Cases []*CaseClause
	Label string
	Loc   Loc
}

// CaseClause is one arm of a switch. A nil Value marks the default arm.
type CaseClause struct {
	Value Expr
	Body  []Stmt
	Loc   Loc
}

// FallthroughStmt transfers control to the next case body of the enclosing
// switch. Synthesized by the parser for case bodies that do not end the
// flow themselves.
type FallthroughStmt struct {
	Loc Loc
}

func (s *BlockStmt) Pos() Loc       { return s.Loc }
func (s *DeclStmt) Pos() Loc        { return s.Loc }
func (s *ExprStmt) Pos() Loc        { return s.Loc }
func (s *IfStmt) Pos() Loc          { return s.Loc }
func (s *WhileStmt) Pos() Loc       { return s.Loc }
func (s *DoWhileStmt) Pos() Loc     { return s.Loc }
func (s *ForStmt) Pos() Loc         { return s.Loc }
func (s *ForEachStmt) Pos() Loc     { return s.Loc }
func (s *BreakStmt) Pos() Loc       { return s.Loc }
func (s *ContinueStmt) Pos() Loc    { return s.Loc }
func (s *ReturnStmt) Pos() Loc      { return s.Loc }
func (s *FailStmt) Pos() Loc        { return s.Loc }
func (s *SwitchStmt) Pos() Loc      { return s.Loc }
func (s *FallthroughStmt) Pos() Loc { return s.Loc }

func (*BlockStmt) stmtNode()       {}
func (*DeclStmt) stmtNode()        {}
func (*ExprStmt) stmtNode()        {}
func (*IfStmt) stmtNode()          {}
func (*WhileStmt) stmtNode()       {}
func (*DoWhileStmt) stmtNode()     {}
func (*ForStmt) stmtNode()         {}
func (*ForEachStmt) stmtNode()     {}
func (*BreakStmt) stmtNode()       {}
func (*ContinueStmt) stmtNode()    {}
func (*ReturnStmt) stmtNode()      {}
func (*FailStmt) stmtNode()        {}
func (*SwitchStmt) stmtNode()      {}
func (*FallthroughStmt) stmtNode() {}

// ---------------------------------------------------------------------------
// Declarations

// Param is a function parameter.
type Param struct {
	Name string
	Typ  Type
}

// FuncDecl is a function definition. Constructors (IsInit) may contain fail
// statements; functions returning object values take a caller-supplied
// result address (IndirectResult).
type FuncDecl struct {
	Name   string
	Params []Param
	Result Type
	// ResultElem is the wrapped type when Result is optional.
	ResultElem     Type
	IndirectResult bool
	IsInit         bool
	// SelfBoxed marks constructors whose self lives in a heap box rather
	// than being held by value.
	SelfBoxed bool
	Body      *BlockStmt
	Loc       Loc
}

func (f *FuncDecl) Pos() Loc { return f.Loc }

// File is a parsed source file.
type File struct {
	Path  string
	Funcs []*FuncDecl
}
