package lower

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/ir"
)

// Condition describes an emitted boolean test. The true entry may be absent
// for statically-true conditions (infinite loops); the false entry is absent
// when false falls straight through to the continuation; the continuation is
// absent only for the infinite-loop form.
type Condition struct {
	trueBB  *ir.Block
	falseBB *ir.Block
	contBB  *ir.Block
	loc     ast.Loc
}

// HasTrue reports whether the condition has a true entry to emit into.
func (c *Condition) HasTrue() bool { return c.trueBB != nil }

// HasFalse reports whether a dedicated false entry exists.
func (c *Condition) HasFalse() bool { return c.falseBB != nil }

// ContBlock exposes the continuation block for callers that complete it
// themselves.
func (c *Condition) ContBlock() *ir.Block { return c.contBB }

// EnterTrue positions the cursor at the true entry.
func (c *Condition) EnterTrue(b *Builder) {
	if c.trueBB == nil {
		panic("lower: condition has no true entry")
	}
	if b.InsertionBlock() == c.trueBB {
		return
	}
	b.SetInsertionPoint(c.trueBB)
}

// ExitTrue closes the true arm, branching to the continuation if the arm is
// still reachable.
func (c *Condition) ExitTrue(b *Builder, args []ir.Value) {
	c.exitArm(b, args)
}

// EnterFalse positions the cursor at the false entry.
func (c *Condition) EnterFalse(b *Builder) {
	if c.falseBB == nil {
		panic("lower: condition has no false entry")
	}
	b.SetInsertionPoint(c.falseBB)
}

// ExitFalse closes the false arm like ExitTrue.
func (c *Condition) ExitFalse(b *Builder, args []ir.Value) {
	c.exitArm(b, args)
}

func (c *Condition) exitArm(b *Builder, args []ir.Value) {
	if !b.HasInsertionPoint() {
		return
	}
	if c.contBB == nil {
		panic("lower: live condition arm with no continuation block")
	}
	b.TerminateBr(c.contBB, args, c.loc)
}

// Complete finishes the conditional: emission continues in the continuation
// block, or the block is deleted if neither arm reaches it.
func (c *Condition) Complete(b *Builder) {
	if c.contBB == nil {
		return
	}
	b.EmitOrDelete(c.contBB, c.loc)
}

// emitCondition lowers a boolean expression and branches on it. Temporaries
// created while evaluating the expression are released before the branch.
func (l *Lowerer) emitCondition(e ast.Expr, hasFalse, invert bool, contParams []ir.Class) Condition {
	if !l.b.HasInsertionPoint() {
		panic("lower: emitting condition at unreachable point")
	}
	var v ir.Value
	{
		s := l.cleanups.EnterScope()
		v, _ = l.emitRValue(e)
		s.Exit()
	}
	return l.emitConditionValue(v, e.Pos(), hasFalse, invert, contParams)
}

// emitConditionValue branches on an already-computed boolean value.
func (l *Lowerer) emitConditionValue(v ir.Value, loc ast.Loc, hasFalse, invert bool, contParams []ir.Class) Condition {
	if !l.b.HasInsertionPoint() {
		panic("lower: emitting condition at unreachable point")
	}
	contBB := l.b.CreateBlock()
	for _, cls := range contParams {
		contBB.AddParam(cls)
	}
	trueBB := l.b.CreateBlock()

	var falseBB, falseDest *ir.Block
	if hasFalse {
		falseBB = l.b.CreateBlock()
		falseDest = falseBB
	} else {
		falseDest = contBB
	}
	if invert {
		l.b.TerminateCondBr(v, falseDest, trueBB, loc)
	} else {
		l.b.TerminateCondBr(v, trueBB, falseDest, loc)
	}
	return Condition{trueBB: trueBB, falseBB: falseBB, contBB: contBB, loc: loc}
}

// infiniteCondition models a missing loop condition: control is already in
// the loop body block and there is no false edge or continuation.
func infiniteCondition(body *ir.Block, loc ast.Loc) Condition {
	return Condition{trueBB: body, loc: loc}
}

// conditionalBinding pairs an optional-unwrapping clause with the stack
// buffer its initializer is evaluated into. The buffer is written once per
// evaluation, tested once, and then either consumed (value extracted on the
// true path) or destroyed (failure chain).
type conditionalBinding struct {
	binding *ast.CondBinding
	buf     ir.Value
}

// emitConditionalBindingBuffers allocates one optional buffer per binding
// clause of a statement condition, in clause order.
func (l *Lowerer) emitConditionalBindingBuffers(cond []ast.CondClause) []conditionalBinding {
	var buffers []conditionalBinding
	for _, elt := range cond {
		if elt.Binding == nil {
			continue
		}
		buf := l.b.EmitAllocStack(ir.ClassOptional, elt.Binding.Name, elt.Binding.Loc)
		buffers = append(buffers, conditionalBinding{binding: elt.Binding, buf: buf})
	}
	return buffers
}

// emitStmtCondition evaluates a full statement condition clause by clause.
// On return the cursor sits in the block where every clause held; the
// returned list is the failure chain: entering its first block destroys all
// filled binding buffers in reverse allocation order, and its last block is
// where execution continues once the condition has failed and is cleaned up.
//
// The chain is discovered tail-first during the forward clause scan, so it
// is built backwards and reversed before returning.
func (l *Lowerer) emitStmtCondition(cond []ast.CondClause, buffers []conditionalBinding) []*ir.Block {
	if !l.b.HasInsertionPoint() {
		panic("lower: emitting condition at unreachable point")
	}

	cleanupBlocks := []*ir.Block{l.b.CreateBlock()}
	nextBuffer := 0

	for _, elt := range cond {
		// A plain boolean clause just short-circuits to the current
		// failure block.
		if elt.Binding == nil {
			var v ir.Value
			{
				s := l.cleanups.EnterScope()
				v, _ = l.emitRValue(elt.Bool)
				s.Exit()
			}
			contBB := l.b.CreateBlock()
			l.b.TerminateCondBr(v, contBB, cleanupBlocks[len(cleanupBlocks)-1], elt.Pos())
			l.b.EmitBlock(contBB, elt.Pos())
			continue
		}

		// An optional binding: fill its buffer and test for a value.
		binding := elt.Binding
		if nextBuffer >= len(buffers) || buffers[nextBuffer].binding != binding {
			panic(fmt.Sprintf("lower: condition buffer mismatch at clause %q", binding.Name))
		}
		buffer := buffers[nextBuffer]
		nextBuffer++

		{
			s := l.cleanups.EnterScope()
			l.emitRValueInto(binding.Init, buffer.buf)
			s.Exit()
		}
		hasValue := l.b.EmitHasValue(buffer.buf, binding.Loc)

		// The buffer now needs destruction on failure paths. If nothing
		// branched to the current failure block yet, the destroy can go
		// directly at its head; otherwise chain a new block in front of it.
		falseDest := cleanupBlocks[len(cleanupBlocks)-1]
		if falseDest.HasPreds() {
			falseDest = l.b.CreateBlock()
			falseDest.SetTerm(&ir.Br{Target: cleanupBlocks[len(cleanupBlocks)-1], Loc: binding.Loc})
			cleanupBlocks = append(cleanupBlocks, falseDest)
		}
		falseDest.Prepend(&ir.DestroyAddr{Addr: buffer.buf, Loc: binding.Loc})

		contBB := l.b.CreateBlock()
		l.b.TerminateCondBr(hasValue, contBB, cleanupBlocks[len(cleanupBlocks)-1], binding.Loc)
		l.b.EmitBlock(contBB, binding.Loc)
	}

	for i, j := 0, len(cleanupBlocks)-1; i < j; i, j = i+1, j-1 {
		cleanupBlocks[i], cleanupBlocks[j] = cleanupBlocks[j], cleanupBlocks[i]
	}
	return cleanupBlocks
}

// emitConditionalPatternBindings runs on the all-clauses-true path: each
// buffer's value is consumed into the bound variable's own storage, whose
// destruction is registered in the current scope.
func (l *Lowerer) emitConditionalPatternBindings(buffers []conditionalBinding) {
	for _, cb := range buffers {
		elem := classOf(cb.binding.ElemType)
		slot := l.b.EmitAllocStack(elem, cb.binding.Name, cb.binding.Loc)
		l.b.EmitExtractValue(cb.buf, slot, cb.binding.Loc)
		if elem.Managed() {
			l.cleanups.PushDestroyAddr(slot, cb.binding.Loc)
		}
		l.vars[cb.binding.Name] = varLoc{addr: slot, typ: cb.binding.ElemType}
	}
}
