// Package ir defines the control-flow-graph intermediate representation
// produced by lowering: functions made of basic blocks, each a straight-line
// instruction sequence ending in exactly one terminator.
package ir

import (
	"fmt"
	"strings"

	"github.com/lumen-lang/lumen/internal/ast"
)

// Class is the lowered value class of an IR value.
type Class int

const (
	ClassVoid Class = iota
	ClassInt
	ClassFloat
	ClassBool
	ClassString
	ClassObject
	ClassOptional
	// ClassAddress is the class of stack-slot addresses produced by
	// alloc_stack.
	ClassAddress
)

func (c Class) String() string {
	switch c {
	case ClassInt:
		return "int"
	case ClassFloat:
		return "float"
	case ClassBool:
		return "bool"
	case ClassString:
		return "string"
	case ClassObject:
		return "object"
	case ClassOptional:
		return "optional"
	case ClassAddress:
		return "address"
	default:
		return "void"
	}
}

// Managed reports whether values of this class carry a release obligation.
func (c Class) Managed() bool {
	return c == ClassString || c == ClassObject || c == ClassOptional
}

// ValueKind discriminates Value.
type ValueKind int

const (
	ValNone ValueKind = iota
	ValRef
	ValConstInt
	ValConstFloat
	ValConstBool
	ValConstString
	ValConstNull
)

// Value is an SSA reference or a constant. The zero Value is "no value"
// (e.g. the result slot of a void call).
type Value struct {
	Kind  ValueKind
	ID    int
	Int   int64
	Float float64
	Bool  bool
	Str   string
	Class Class
}

// IsValid reports whether v denotes an actual value.
func (v Value) IsValid() bool { return v.Kind != ValNone }

func (v Value) String() string {
	switch v.Kind {
	case ValRef:
		return fmt.Sprintf("%%%d", v.ID)
	case ValConstInt:
		return fmt.Sprintf("%d", v.Int)
	case ValConstFloat:
		return fmt.Sprintf("%g", v.Float)
	case ValConstBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValConstString:
		return fmt.Sprintf("%q", v.Str)
	case ValConstNull:
		return "null"
	default:
		return "<none>"
	}
}

// ConstInt returns an integer constant value.
func ConstInt(n int64) Value { return Value{Kind: ValConstInt, Int: n, Class: ClassInt} }

// ConstFloat returns a float constant value.
func ConstFloat(f float64) Value { return Value{Kind: ValConstFloat, Float: f, Class: ClassFloat} }

// ConstBool returns a boolean constant value.
func ConstBool(b bool) Value { return Value{Kind: ValConstBool, Bool: b, Class: ClassBool} }

// ConstString returns a string constant value.
func ConstString(s string) Value { return Value{Kind: ValConstString, Str: s, Class: ClassString} }

// ConstNull returns the null constant.
func ConstNull() Value { return Value{Kind: ValConstNull, Class: ClassObject} }

// Block is a basic block: zero or more parameters, an instruction list, and
// at most one terminator. A block without a terminator is still open.
type Block struct {
	Label  string
	Params []Value
	Instrs []Instr
	Term   Terminator

	preds []*Block
	fn    *Function
}

// Terminated reports whether the block already has a terminator.
func (b *Block) Terminated() bool { return b.Term != nil }

// Preds returns the current predecessor blocks.
func (b *Block) Preds() []*Block { return b.preds }

// NumPreds returns the number of predecessor blocks.
func (b *Block) NumPreds() int { return len(b.preds) }

// HasPreds reports whether any terminator targets this block.
func (b *Block) HasPreds() bool { return len(b.preds) > 0 }

// Empty reports whether the block has no instructions yet.
func (b *Block) Empty() bool { return len(b.Instrs) == 0 }

// Append adds an instruction at the end of the block.
func (b *Block) Append(in Instr) {
	if b.Terminated() {
		panic(fmt.Sprintf("ir: append to terminated block %s", b.Label))
	}
	b.Instrs = append(b.Instrs, in)
}

// Prepend inserts an instruction before all existing ones. Used when a
// shared failure block retroactively gains a destroy for a newly filled
// buffer.
func (b *Block) Prepend(in Instr) {
	b.Instrs = append([]Instr{in}, b.Instrs...)
}

// AddParam appends a fresh block parameter of the given class and returns it.
func (b *Block) AddParam(c Class) Value {
	v := b.fn.NewValue(c)
	b.Params = append(b.Params, v)
	return v
}

// SetTerm installs the block's terminator and registers the block as a
// predecessor of each target. Panics if already terminated.
func (b *Block) SetTerm(t Terminator) {
	if b.Terminated() {
		panic(fmt.Sprintf("ir: block %s terminated twice", b.Label))
	}
	b.Term = t
	for _, succ := range t.Targets() {
		succ.preds = append(succ.preds, b)
	}
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString(b.Label)
	if len(b.Params) > 0 {
		parts := make([]string, len(b.Params))
		for i, p := range b.Params {
			parts[i] = fmt.Sprintf("%s: %s", p, p.Class)
		}
		sb.WriteString("(" + strings.Join(parts, ", ") + ")")
	}
	sb.WriteString(":\n")
	for _, in := range b.Instrs {
		sb.WriteString("  " + in.String() + "\n")
	}
	if b.Term != nil {
		sb.WriteString("  " + b.Term.String() + "\n")
	}
	return sb.String()
}

// Function is one lowered function body.
type Function struct {
	Name   string
	Params []Value
	Result Class
	// IndirectResult marks functions whose result is written through a
	// caller-supplied address passed as the first parameter.
	IndirectResult bool
	Blocks         []*Block
	Loc            ast.Loc

	nextValue int
	nextBlock int
}

// NewFunction creates an empty function with no blocks.
func NewFunction(name string, loc ast.Loc) *Function {
	return &Function{Name: name, Loc: loc}
}

// NewValue allocates a fresh SSA reference of the given class.
func (f *Function) NewValue(c Class) Value {
	v := Value{Kind: ValRef, ID: f.nextValue, Class: c}
	f.nextValue++
	return v
}

// AddParam appends a function parameter and returns its value.
func (f *Function) AddParam(c Class) Value {
	v := f.NewValue(c)
	f.Params = append(f.Params, v)
	return v
}

// NewBlock appends a new empty, unterminated block to the function.
func (f *Function) NewBlock() *Block {
	b := &Block{Label: fmt.Sprintf("bb%d", f.nextBlock), fn: f}
	f.nextBlock++
	f.Blocks = append(f.Blocks, b)
	return b
}

// Entry returns the function's entry block, or nil if none exists yet.
func (f *Function) Entry() *Block {
	if len(f.Blocks) == 0 {
		return nil
	}
	return f.Blocks[0]
}

// RemoveBlock erases a block that was never needed. The block must be
// unterminated and have no predecessors; any retained handle to it is
// invalid afterwards.
func (f *Function) RemoveBlock(b *Block) {
	if b.Terminated() {
		panic(fmt.Sprintf("ir: removing terminated block %s", b.Label))
	}
	if b.HasPreds() {
		panic(fmt.Sprintf("ir: removing block %s which still has predecessors", b.Label))
	}
	for i, blk := range f.Blocks {
		if blk == b {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("ir: block %s not in function %s", b.Label, f.Name))
}

// MoveToEnd repositions the block at the end of the block list so that the
// printed order follows emission order.
func (f *Function) MoveToEnd(b *Block) {
	for i, blk := range f.Blocks {
		if blk == b {
			f.Blocks = append(f.Blocks[:i], f.Blocks[i+1:]...)
			f.Blocks = append(f.Blocks, b)
			return
		}
	}
}

// BlockByLabel returns the block with the given label, or nil.
func (f *Function) BlockByLabel(label string) *Block {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString("func @" + f.Name + "(")
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = fmt.Sprintf("%s: %s", p, p.Class)
	}
	sb.WriteString(strings.Join(parts, ", "))
	sb.WriteString(")")
	if f.Result != ClassVoid {
		sb.WriteString(" -> " + f.Result.String())
	}
	sb.WriteString(" {\n")
	for _, b := range f.Blocks {
		sb.WriteString(b.String())
	}
	sb.WriteString("}\n")
	return sb.String()
}
