package ir

import (
	"fmt"
	"strings"

	"github.com/lumen-lang/lumen/internal/ast"
)

// Instr is a non-terminating instruction. The set is closed.
type Instr interface {
	isInstr()
	Pos() ast.Loc
	String() string
}

// AllocStack reserves a stack slot for a value of class Of; Result is the
// slot's address.
type AllocStack struct {
	Result Value
	Of     Class
	// Name is the source variable this slot backs, if any.
	Name string
	Loc  ast.Loc
}

// Load reads the value stored at Addr.
type Load struct {
	Result Value
	Addr   Value
	Loc    ast.Loc
}

// Store writes Val to Addr, overwriting without releasing.
type Store struct {
	Val  Value
	Addr Value
	Loc  ast.Loc
}

// Call invokes a function by name. Result is invalid for void calls.
type Call struct {
	Result Value
	Fun    string
	Args   []Value
	Loc    ast.Loc
}

// BinOp applies an arithmetic or logical operator.
type BinOp struct {
	Result Value
	Op     string
	X, Y   Value
	Loc    ast.Loc
}

// Cmp applies a comparison operator, yielding bool.
type Cmp struct {
	Result Value
	Op     string
	X, Y   Value
	Loc    ast.Loc
}

// Not inverts a boolean value.
type Not struct {
	Result Value
	X      Value
	Loc    ast.Loc
}

// Retain takes an additional ownership reference on a managed value.
type Retain struct {
	X   Value
	Loc ast.Loc
}

// Release gives up one ownership reference on a managed value.
type Release struct {
	X   Value
	Loc ast.Loc
}

// DestroyAddr releases whatever value is stored at Addr. Destroying an
// empty optional releases nothing.
type DestroyAddr struct {
	Addr Value
	Loc  ast.Loc
}

// HasValue tests whether the optional stored at Addr holds a value.
type HasValue struct {
	Result Value
	Addr   Value
	Loc    ast.Loc
}

// ExtractValue consumes the value out of the optional at Addr and stores it
// at Dest. The optional buffer is left uninitialized.
type ExtractValue struct {
	Addr Value
	Dest Value
	Loc  ast.Loc
}

// GetMember reads a named property from an object value.
type GetMember struct {
	Result Value
	X      Value
	Name   string
	Loc    ast.Loc
}

func (*AllocStack) isInstr()   {}
func (*Load) isInstr()         {}
func (*Store) isInstr()        {}
func (*Call) isInstr()         {}
func (*BinOp) isInstr()        {}
func (*Cmp) isInstr()          {}
func (*Not) isInstr()          {}
func (*Retain) isInstr()       {}
func (*Release) isInstr()      {}
func (*DestroyAddr) isInstr()  {}
func (*HasValue) isInstr()     {}
func (*ExtractValue) isInstr() {}
func (*GetMember) isInstr()    {}

func (i *AllocStack) Pos() ast.Loc   { return i.Loc }
func (i *Load) Pos() ast.Loc         { return i.Loc }
func (i *Store) Pos() ast.Loc        { return i.Loc }
func (i *Call) Pos() ast.Loc         { return i.Loc }
func (i *BinOp) Pos() ast.Loc        { return i.Loc }
func (i *Cmp) Pos() ast.Loc          { return i.Loc }
func (i *Not) Pos() ast.Loc          { return i.Loc }
func (i *Retain) Pos() ast.Loc       { return i.Loc }
func (i *Release) Pos() ast.Loc      { return i.Loc }
func (i *DestroyAddr) Pos() ast.Loc  { return i.Loc }
func (i *HasValue) Pos() ast.Loc     { return i.Loc }
func (i *ExtractValue) Pos() ast.Loc { return i.Loc }
func (i *GetMember) Pos() ast.Loc    { return i.Loc }

func (i *AllocStack) String() string {
	if i.Name != "" {
		return fmt.Sprintf("%s = alloc_stack $%s  // %s", i.Result, i.Of, i.Name)
	}
	return fmt.Sprintf("%s = alloc_stack $%s", i.Result, i.Of)
}
func (i *Load) String() string  { return fmt.Sprintf("%s = load %s", i.Result, i.Addr) }
func (i *Store) String() string { return fmt.Sprintf("store %s to %s", i.Val, i.Addr) }
func (i *Call) String() string {
	args := make([]string, len(i.Args))
	for n, a := range i.Args {
		args[n] = a.String()
	}
	call := fmt.Sprintf("call @%s(%s)", i.Fun, strings.Join(args, ", "))
	if i.Result.IsValid() {
		return fmt.Sprintf("%s = %s", i.Result, call)
	}
	return call
}
func (i *BinOp) String() string        { return fmt.Sprintf("%s = binop %s %s, %s", i.Result, i.Op, i.X, i.Y) }
func (i *Cmp) String() string          { return fmt.Sprintf("%s = cmp %s %s, %s", i.Result, i.Op, i.X, i.Y) }
func (i *Not) String() string          { return fmt.Sprintf("%s = not %s", i.Result, i.X) }
func (i *Retain) String() string       { return fmt.Sprintf("retain %s", i.X) }
func (i *Release) String() string      { return fmt.Sprintf("release %s", i.X) }
func (i *DestroyAddr) String() string  { return fmt.Sprintf("destroy_addr %s", i.Addr) }
func (i *HasValue) String() string     { return fmt.Sprintf("%s = has_value %s", i.Result, i.Addr) }
func (i *ExtractValue) String() string { return fmt.Sprintf("extract_value %s to %s", i.Addr, i.Dest) }
func (i *GetMember) String() string {
	return fmt.Sprintf("%s = get_member %s.%s", i.Result, i.X, i.Name)
}

// Terminator ends a basic block. The set is closed.
type Terminator interface {
	isTerm()
	Targets() []*Block
	String() string
}

// Br is an unconditional branch carrying block arguments.
type Br struct {
	Target *Block
	Args   []Value
	Loc    ast.Loc
}

// CondBr branches on a boolean value.
type CondBr struct {
	Cond  Value
	True  *Block
	False *Block
	Loc   ast.Loc
}

// Ret returns from the function; Value is invalid for void returns.
type Ret struct {
	Value Value
	Loc   ast.Loc
}

// Unreachable marks a point control can never reach.
type Unreachable struct {
	Loc ast.Loc
}

func (*Br) isTerm()          {}
func (*CondBr) isTerm()      {}
func (*Ret) isTerm()         {}
func (*Unreachable) isTerm() {}

func (t *Br) Targets() []*Block          { return []*Block{t.Target} }
func (t *CondBr) Targets() []*Block      { return []*Block{t.True, t.False} }
func (t *Ret) Targets() []*Block         { return nil }
func (t *Unreachable) Targets() []*Block { return nil }

func (t *Br) String() string {
	if len(t.Args) == 0 {
		return "br " + t.Target.Label
	}
	args := make([]string, len(t.Args))
	for n, a := range t.Args {
		args[n] = a.String()
	}
	return fmt.Sprintf("br %s(%s)", t.Target.Label, strings.Join(args, ", "))
}
func (t *CondBr) String() string {
	return fmt.Sprintf("cond_br %s, %s, %s", t.Cond, t.True.Label, t.False.Label)
}
func (t *Ret) String() string {
	if t.Value.IsValid() {
		return "ret " + t.Value.String()
	}
	return "ret"
}
func (t *Unreachable) String() string { return "unreachable" }
