package lower

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diag"
	"github.com/lumen-lang/lumen/internal/ir"
)

// visitStmt dispatches over the closed statement set.
func (l *Lowerer) visitStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		l.visitBraceStmt(s)
	case *ast.DeclStmt:
		l.visitDeclStmt(s)
	case *ast.ExprStmt:
		l.emitIgnoredExpr(s.X)
	case *ast.IfStmt:
		l.visitIfStmt(s)
	case *ast.WhileStmt:
		l.visitWhileStmt(s)
	case *ast.DoWhileStmt:
		l.visitDoWhileStmt(s)
	case *ast.ForStmt:
		l.visitForStmt(s)
	case *ast.ForEachStmt:
		l.visitForEachStmt(s)
	case *ast.BreakStmt:
		l.visitBreakStmt(s)
	case *ast.ContinueStmt:
		l.visitContinueStmt(s)
	case *ast.ReturnStmt:
		l.visitReturnStmt(s)
	case *ast.FailStmt:
		l.visitFailStmt(s)
	case *ast.SwitchStmt:
		l.emitSwitchStmt(s)
	case *ast.FallthroughStmt:
		l.emitSwitchFallthrough(s)
	default:
		panic(fmt.Sprintf("lower: unknown statement %T", s))
	}
}

// visitBraceStmt lowers a statement list in its own scope. Once the cursor
// goes unreachable the remaining siblings are not lowered; a single
// diagnostic is issued, classified by what ended the flow.
func (l *Lowerer) visitBraceStmt(s *ast.BlockStmt) {
	braceScope := l.cleanups.EnterScope()
	defer braceScope.Exit()

	kind := diag.KindUnreachable
	for _, child := range s.Stmts {
		if !l.b.HasInsertionPoint() {
			// Fallthroughs are synthesized by the parser for case bodies,
			// never written by the user; an arm whose every path already
			// ended the flow gets no diagnostic for its trailing one.
			if _, synthesized := child.(*ast.FallthroughStmt); !synthesized {
				l.diags.Report(child.Pos(), kind)
			}
			return
		}
		l.visitStmt(child)
		switch child.(type) {
		case *ast.ReturnStmt:
			kind = diag.KindUnreachableAfterReturn
		case *ast.BreakStmt:
			kind = diag.KindUnreachableAfterBreak
		case *ast.ContinueStmt:
			kind = diag.KindUnreachableAfterContinue
		}
	}
}

func (l *Lowerer) visitDeclStmt(s *ast.DeclStmt) {
	if s.Init == nil {
		panic(fmt.Sprintf("lower: declaration of %q has no initializer", s.Name))
	}
	slot := l.b.EmitAllocStack(classOf(s.Typ), s.Name, s.Loc)
	{
		initScope := l.cleanups.EnterScope()
		l.emitRValueInto(s.Init, slot)
		initScope.Exit()
	}
	if s.Typ.Managed() {
		l.cleanups.PushDestroyAddr(slot, s.Loc)
	}
	l.vars[s.Name] = varLoc{addr: slot, typ: s.Typ}
}

// visitIfStmt lowers a conditional whose condition may carry bindings. The
// true arm consumes the binding buffers; the failure chain destroys them.
func (l *Lowerer) visitIfStmt(s *ast.IfStmt) {
	condBuffers := l.emitConditionalBindingBuffers(s.Cond)
	cleanupBlocks := l.emitStmtCondition(s.Cond, condBuffers)

	// True side: bind pattern variables, then the then-body.
	{
		trueScope := l.cleanups.EnterScope()
		l.emitConditionalPatternBindings(condBuffers)
		l.visitBraceStmt(s.Then)
		trueScope.Exit()
	}

	// Without an else the failure chain doubles as the continuation: it
	// destroys any unclaimed buffers and falls off its clean tail.
	if s.Else == nil {
		if l.b.HasInsertionPoint() {
			// The true side must not re-run buffer destroys, so if the
			// chain tail carries any, append a pure continuation block.
			last := cleanupBlocks[len(cleanupBlocks)-1]
			if !last.Empty() {
				newCont := l.b.CreateBlock()
				last.SetTerm(&ir.Br{Target: newCont, Loc: s.Loc})
				cleanupBlocks = append(cleanupBlocks, newCont)
			}
			l.b.TerminateBr(cleanupBlocks[len(cleanupBlocks)-1], nil, s.Then.Loc)
		}
		for _, bb := range cleanupBlocks {
			l.b.ClearInsertionPoint()
			l.b.EmitBlock(bb, s.Loc)
		}
		return
	}

	// With an else the chain head becomes the false-arm entry and both
	// arms merge in a fresh continuation.
	contBB := l.b.CreateBlock()
	if l.b.HasInsertionPoint() {
		l.b.TerminateBr(contBB, nil, s.Then.Loc)
	}
	for _, bb := range cleanupBlocks {
		l.b.ClearInsertionPoint()
		l.b.EmitBlock(bb, s.Loc)
	}

	l.visitStmt(s.Else)
	if l.b.HasInsertionPoint() {
		l.b.TerminateBr(contBB, nil, s.Else.Pos())
	}

	l.b.EmitOrDelete(contBB, s.Loc)
}

// visitWhileStmt lowers a head-tested loop. Binding buffers are allocated
// once, outside the loop, and refilled every iteration. The break target is
// the failure chain's head; the continue target is the loop header, which
// re-runs buffer initialization (a known quirk kept on purpose: continue in
// a binding while restarts the whole condition).
func (l *Lowerer) visitWhileStmt(s *ast.WhileStmt) {
	condBuffers := l.emitConditionalBindingBuffers(s.Cond)

	loopBB := l.b.CreateBlock()
	l.b.EmitBlock(loopBB, s.Loc)

	cleanupBlocks := l.emitStmtCondition(s.Cond, condBuffers)

	depth := l.cleanups.Depth()
	l.pushBreakContinue(s,
		JumpDest{Block: cleanupBlocks[0], Depth: depth, Loc: s.Body.Loc},
		JumpDest{Block: loopBB, Depth: depth, Loc: s.Body.Loc})

	{
		trueScope := l.cleanups.EnterScope()
		l.emitConditionalPatternBindings(condBuffers)
		l.visitBraceStmt(s.Body)
		trueScope.Exit()
	}
	if l.b.HasInsertionPoint() {
		l.b.TerminateBr(loopBB, nil, s.Body.Loc)
	}

	l.popBreakContinue()

	for _, bb := range cleanupBlocks {
		l.b.ClearInsertionPoint()
		l.b.EmitBlock(bb, s.Loc)
	}
}

// visitDoWhileStmt lowers a tail-tested loop: the body always runs once,
// then the condition decides whether to loop back. The condition block is
// the continue target; its false edge goes straight to the end.
func (l *Lowerer) visitDoWhileStmt(s *ast.DoWhileStmt) {
	loopBB := l.b.CreateBlock()
	l.b.EmitBlock(loopBB, s.Loc)

	endBB := l.b.CreateBlock()
	condBB := l.b.CreateBlock()
	depth := l.cleanups.Depth()
	l.pushBreakContinue(s,
		JumpDest{Block: endBB, Depth: depth, Loc: s.Body.Loc},
		JumpDest{Block: condBB, Depth: depth, Loc: s.Body.Loc})

	l.visitBraceStmt(s.Body)

	// The controlling expression is evaluated after each execution of the
	// loop body.
	l.b.EmitOrDelete(condBB, s.Loc)

	if l.b.HasInsertionPoint() {
		cond := l.emitCondition(s.Cond, false, false, nil)
		cond.EnterTrue(l.b)
		if l.b.HasInsertionPoint() {
			l.b.TerminateBr(loopBB, nil, s.Cond.Pos())
		}
		cond.ExitTrue(l.b, nil)
		cond.Complete(l.b)
	}

	l.b.EmitOrDelete(endBB, s.Loc)
	l.popBreakContinue()
}

// visitForStmt lowers a C-style loop. The initializer lives in a scope that
// outlives the whole loop; a missing condition is an unconditional true
// edge. Break exits to the end block, continue re-enters the increment.
func (l *Lowerer) visitForStmt(s *ast.ForStmt) {
	forScope := l.cleanups.EnterScope()
	defer forScope.Exit()

	if s.Init != nil {
		l.visitStmt(s.Init)
	}
	if !l.b.HasInsertionPoint() {
		return
	}

	loopBB := l.b.CreateBlock()
	l.b.EmitBlock(loopBB, s.Loc)

	incBB := l.b.CreateBlock()
	endBB := l.b.CreateBlock()
	depth := l.cleanups.Depth()
	l.pushBreakContinue(s,
		JumpDest{Block: endBB, Depth: depth, Loc: s.Body.Loc},
		JumpDest{Block: incBB, Depth: depth, Loc: s.Body.Loc})

	var cond Condition
	if s.Cond != nil {
		cond = l.emitCondition(s.Cond, false, false, nil)
	} else {
		cond = infiniteCondition(loopBB, s.Loc)
	}

	if cond.HasTrue() {
		cond.EnterTrue(l.b)
		l.visitBraceStmt(s.Body)

		l.b.EmitOrDelete(incBB, s.Loc)

		if l.b.HasInsertionPoint() && s.Post != nil {
			l.emitIgnoredExpr(s.Post)
		}
		if l.b.HasInsertionPoint() {
			l.b.TerminateBr(loopBB, nil, s.Body.Loc)
		}
		cond.ExitTrue(l.b, nil)
	}

	cond.Complete(l.b)

	l.b.EmitOrDelete(endBB, s.Loc)
	l.popBreakContinue()
}

// visitForEachStmt lowers sequence iteration. One reusable buffer holds
// each fetched optional element; per-iteration bindings live in their own
// scope so they are destroyed before the next fetch. On normal exit the
// buffer holds the empty state and needs no release; on break the value was
// already consumed.
func (l *Lowerer) visitForEachStmt(s *ast.ForEachStmt) {
	outerScope := l.cleanups.EnterScope()
	defer outerScope.Exit()

	// Materialize the sequence once, owned for the loop's duration.
	seqSlot := l.b.EmitAllocStack(ir.ClassObject, "", s.Seq.Pos())
	{
		initScope := l.cleanups.EnterScope()
		l.emitRValueInto(s.Seq, seqSlot)
		initScope.Exit()
	}
	l.cleanups.PushDestroyAddr(seqSlot, s.Seq.Pos())

	if !l.b.HasInsertionPoint() {
		return
	}

	nextBuf := l.b.EmitAllocStack(ir.ClassOptional, "", s.Loc)

	loopBB := l.b.CreateBlock()
	l.b.EmitBlock(loopBB, s.Loc)

	endBB := l.b.CreateBlock()
	depth := l.cleanups.Depth()
	l.pushBreakContinue(s,
		JumpDest{Block: endBB, Depth: depth, Loc: s.Body.Loc},
		JumpDest{Block: loopBB, Depth: depth, Loc: s.Body.Loc})

	// Advance the sequence into the shared buffer; temporaries from the
	// fetch are released immediately.
	{
		fetchScope := l.cleanups.EnterScope()
		seq := l.b.EmitLoad(seqSlot, ir.ClassObject, s.Loc)
		next := l.b.EmitCall("next", []ir.Value{seq}, ir.ClassOptional, s.Loc)
		l.b.EmitStore(next, nextBuf, s.Loc)
		fetchScope.Exit()
	}

	hasValue := l.b.EmitHasValue(nextBuf, s.Loc)
	cond := l.emitConditionValue(hasValue, s.Loc, false, false, nil)

	if cond.HasTrue() {
		cond.EnterTrue(l.b)
		{
			iterScope := l.cleanups.EnterScope()
			elem := classOf(s.ElemType)
			slot := l.b.EmitAllocStack(elem, s.Name, s.Loc)
			l.b.EmitExtractValue(nextBuf, slot, s.Loc)
			if elem.Managed() {
				l.cleanups.PushDestroyAddr(slot, s.Loc)
			}
			l.vars[s.Name] = varLoc{addr: slot, typ: s.ElemType}
			l.visitBraceStmt(s.Body)
			iterScope.Exit()
		}
		if l.b.HasInsertionPoint() {
			l.b.TerminateBr(loopBB, nil, s.Body.Loc)
		}
		cond.ExitTrue(l.b, nil)
	}

	cond.Complete(l.b)

	l.b.EmitOrDelete(endBB, s.Loc)
	l.popBreakContinue()
}

func (l *Lowerer) visitBreakStmt(s *ast.BreakStmt) {
	if s.Target == nil {
		panic("lower: break target not resolved")
	}
	for i := len(l.breakContinueStack) - 1; i >= 0; i-- {
		if l.breakContinueStack[i].target == s.Target {
			l.cleanups.EmitBranchAndCleanups(l.breakContinueStack[i].breakDest, s.Loc, nil)
			return
		}
	}
	panic("lower: break target not on destination stack")
}

func (l *Lowerer) visitContinueStmt(s *ast.ContinueStmt) {
	if s.Target == nil {
		panic("lower: continue target not resolved")
	}
	for i := len(l.breakContinueStack) - 1; i >= 0; i-- {
		if l.breakContinueStack[i].target == s.Target {
			dest := l.breakContinueStack[i].continueDest
			if !dest.IsValid() {
				panic("lower: continue bound to a construct without a continue target")
			}
			l.cleanups.EmitBranchAndCleanups(dest, s.Loc, nil)
			return
		}
	}
	panic("lower: continue target not on destination stack")
}

// visitReturnStmt unwinds every pending cleanup and transfers to the shared
// return destination. Direct results travel as a block argument; indirect
// results are written through the caller-supplied address first.
func (l *Lowerer) visitReturnStmt(s *ast.ReturnStmt) {
	if s.Value == nil {
		l.cleanups.EmitBranchAndCleanups(l.returnDest, s.Loc, nil)
		return
	}
	if l.indirectResultAddr.IsValid() {
		retScope := l.cleanups.EnterScope()
		l.emitRValueInto(s.Value, l.indirectResultAddr)
		retScope.Exit()
		l.cleanups.EmitBranchAndCleanups(l.returnDest, s.Loc, nil)
		return
	}
	var result ir.Value
	{
		retScope := l.cleanups.EnterScope()
		var h CleanupHandle
		result, h = l.emitRValue(s.Value)
		l.cleanups.Forward(h)
		retScope.Exit()
	}
	l.cleanups.EmitBranchAndCleanups(l.returnDest, s.Loc, []ir.Value{result})
}

// visitFailStmt aborts a constructor: release self (directly or via its
// box), then unwind to the registered failure destination.
func (l *Lowerer) visitFailStmt(s *ast.FailStmt) {
	if !l.failDest.IsValid() || !l.selfValue.IsValid() {
		panic("lower: fail statement outside a constructor context")
	}
	l.b.EmitRelease(l.selfValue, s.Loc)
	l.cleanups.EmitBranchAndCleanups(l.failDest, s.Loc, nil)
}
