// Package lower translates resolved statement ASTs into the block-based IR.
// One Lowerer is created per function body; emission is single-threaded and
// strictly recursive-descent.
package lower

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/ir"
)

// Builder owns the function under construction and the single insertion
// cursor. The cursor is either live (pointing at one open block) or cleared,
// meaning the current point is unreachable.
type Builder struct {
	Fn  *ir.Function
	cur *ir.Block
}

// NewBuilder wraps a function for emission.
func NewBuilder(fn *ir.Function) *Builder {
	return &Builder{Fn: fn}
}

// HasInsertionPoint reports whether the cursor is live.
func (b *Builder) HasInsertionPoint() bool { return b.cur != nil }

// InsertionBlock returns the block the cursor points at, or nil.
func (b *Builder) InsertionBlock() *ir.Block { return b.cur }

// SetInsertionPoint makes blk the current block. The block must still be
// open.
func (b *Builder) SetInsertionPoint(blk *ir.Block) {
	if blk.Terminated() {
		panic(fmt.Sprintf("lower: insertion point into terminated block %s", blk.Label))
	}
	b.cur = blk
}

// ClearInsertionPoint marks the current point unreachable.
func (b *Builder) ClearInsertionPoint() { b.cur = nil }

// CreateBlock appends a new empty block to the function without linking it.
func (b *Builder) CreateBlock() *ir.Block { return b.Fn.NewBlock() }

func (b *Builder) emit(in ir.Instr) {
	if b.cur == nil {
		panic("lower: instruction emitted with no insertion point")
	}
	b.cur.Append(in)
}

// EmitBlock continues emission in blk: if the cursor is live, first branch
// into blk, then move it after the current position. The cursor ends up in
// blk if blk is still open, cleared otherwise.
func (b *Builder) EmitBlock(blk *ir.Block, loc ast.Loc) {
	if b.cur != nil {
		b.TerminateBr(blk, nil, loc)
	}
	b.Fn.MoveToEnd(blk)
	if blk.Terminated() {
		b.cur = nil
	} else {
		b.cur = blk
	}
}

// EmitOrDelete finishes a construct's optimistic continuation block: a block
// nothing branched to is deleted (its handle becomes invalid); otherwise
// emission continues there per EmitBlock.
func (b *Builder) EmitOrDelete(blk *ir.Block, loc ast.Loc) {
	if !blk.HasPreds() {
		b.Fn.RemoveBlock(blk)
		return
	}
	b.EmitBlock(blk, loc)
}

// ---------------------------------------------------------------------------
// Instruction emitters. All panic when the cursor is cleared.

func (b *Builder) EmitAllocStack(of ir.Class, name string, loc ast.Loc) ir.Value {
	r := b.Fn.NewValue(ir.ClassAddress)
	b.emit(&ir.AllocStack{Result: r, Of: of, Name: name, Loc: loc})
	return r
}

func (b *Builder) EmitLoad(addr ir.Value, of ir.Class, loc ast.Loc) ir.Value {
	r := b.Fn.NewValue(of)
	b.emit(&ir.Load{Result: r, Addr: addr, Loc: loc})
	return r
}

func (b *Builder) EmitStore(v, addr ir.Value, loc ast.Loc) {
	b.emit(&ir.Store{Val: v, Addr: addr, Loc: loc})
}

func (b *Builder) EmitCall(fun string, args []ir.Value, result ir.Class, loc ast.Loc) ir.Value {
	var r ir.Value
	if result != ir.ClassVoid {
		r = b.Fn.NewValue(result)
	}
	b.emit(&ir.Call{Result: r, Fun: fun, Args: args, Loc: loc})
	return r
}

func (b *Builder) EmitBinOp(op string, x, y ir.Value, result ir.Class, loc ast.Loc) ir.Value {
	r := b.Fn.NewValue(result)
	b.emit(&ir.BinOp{Result: r, Op: op, X: x, Y: y, Loc: loc})
	return r
}

func (b *Builder) EmitCmp(op string, x, y ir.Value, loc ast.Loc) ir.Value {
	r := b.Fn.NewValue(ir.ClassBool)
	b.emit(&ir.Cmp{Result: r, Op: op, X: x, Y: y, Loc: loc})
	return r
}

func (b *Builder) EmitNot(x ir.Value, loc ast.Loc) ir.Value {
	r := b.Fn.NewValue(ir.ClassBool)
	b.emit(&ir.Not{Result: r, X: x, Loc: loc})
	return r
}

func (b *Builder) EmitRetain(x ir.Value, loc ast.Loc)  { b.emit(&ir.Retain{X: x, Loc: loc}) }
func (b *Builder) EmitRelease(x ir.Value, loc ast.Loc) { b.emit(&ir.Release{X: x, Loc: loc}) }

func (b *Builder) EmitDestroyAddr(addr ir.Value, loc ast.Loc) {
	b.emit(&ir.DestroyAddr{Addr: addr, Loc: loc})
}

func (b *Builder) EmitHasValue(addr ir.Value, loc ast.Loc) ir.Value {
	r := b.Fn.NewValue(ir.ClassBool)
	b.emit(&ir.HasValue{Result: r, Addr: addr, Loc: loc})
	return r
}

func (b *Builder) EmitExtractValue(addr, dest ir.Value, loc ast.Loc) {
	b.emit(&ir.ExtractValue{Addr: addr, Dest: dest, Loc: loc})
}

func (b *Builder) EmitGetMember(x ir.Value, name string, result ir.Class, loc ast.Loc) ir.Value {
	r := b.Fn.NewValue(result)
	b.emit(&ir.GetMember{Result: r, X: x, Name: name, Loc: loc})
	return r
}

// ---------------------------------------------------------------------------
// Terminators. Each closes the current block and clears the cursor.

func (b *Builder) terminate(t ir.Terminator) {
	if b.cur == nil {
		panic("lower: terminator emitted with no insertion point")
	}
	b.cur.SetTerm(t)
	b.cur = nil
}

func (b *Builder) TerminateBr(target *ir.Block, args []ir.Value, loc ast.Loc) {
	b.terminate(&ir.Br{Target: target, Args: args, Loc: loc})
}

func (b *Builder) TerminateCondBr(cond ir.Value, t, f *ir.Block, loc ast.Loc) {
	b.terminate(&ir.CondBr{Cond: cond, True: t, False: f, Loc: loc})
}

func (b *Builder) TerminateRet(v ir.Value, loc ast.Loc) {
	b.terminate(&ir.Ret{Value: v, Loc: loc})
}

func (b *Builder) TerminateUnreachable(loc ast.Loc) {
	b.terminate(&ir.Unreachable{Loc: loc})
}
