package lower

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/ir"
)

// switchContext tracks the enclosing switch while its case bodies are
// emitted, so fallthrough can resolve the next case's entry block.
type switchContext struct {
	stmt    *ast.SwitchStmt
	caseBBs []*ir.Block
	endBB   *ir.Block
	depth   CleanupDepth
	// nextCase is the index of the case following the one currently being
	// emitted; fallthrough branches there.
	nextCase int
}

// emitSwitchStmt lowers a switch as a sequential equality chain against the
// tag, with one entry block per case body. Cases fall through to the next
// body unless they end the flow; the parser makes that explicit with a
// trailing fallthrough statement.
func (l *Lowerer) emitSwitchStmt(s *ast.SwitchStmt) {
	switchScope := l.cleanups.EnterScope()

	tag, _ := l.emitRValue(s.Tag)

	endBB := l.b.CreateBlock()
	caseBBs := make([]*ir.Block, len(s.Cases))
	for i := range s.Cases {
		caseBBs[i] = l.b.CreateBlock()
	}

	depth := l.cleanups.Depth()
	l.pushBreakContinue(s,
		JumpDest{Block: endBB, Depth: depth, Loc: s.Loc},
		JumpDest{})

	ctx := &switchContext{stmt: s, caseBBs: caseBBs, endBB: endBB, depth: depth}
	l.switchStack = append(l.switchStack, ctx)

	// Dispatch chain. The default arm (or the end block when there is
	// none) is the final fallback.
	defaultIdx := -1
	for i, c := range s.Cases {
		if c.Value == nil {
			defaultIdx = i
		}
	}
	fallback := endBB
	if defaultIdx >= 0 {
		fallback = caseBBs[defaultIdx]
	}

	var tests []int
	for i, c := range s.Cases {
		if c.Value != nil {
			tests = append(tests, i)
		}
	}
	if len(tests) == 0 {
		l.b.TerminateBr(fallback, nil, s.Loc)
	}
	for k, i := range tests {
		caseVal, _ := l.emitRValue(s.Cases[i].Value)
		match := l.b.EmitCmp("==", tag, caseVal, s.Cases[i].Loc)
		if k == len(tests)-1 {
			l.b.TerminateCondBr(match, caseBBs[i], fallback, s.Cases[i].Loc)
			continue
		}
		nextTest := l.b.CreateBlock()
		l.b.TerminateCondBr(match, caseBBs[i], nextTest, s.Cases[i].Loc)
		l.b.EmitBlock(nextTest, s.Cases[i].Loc)
	}

	// Case bodies, in source order.
	for i, c := range s.Cases {
		ctx.nextCase = i + 1
		l.b.ClearInsertionPoint()
		l.b.EmitBlock(caseBBs[i], c.Loc)
		l.visitBraceStmt(&ast.BlockStmt{Stmts: c.Body, Loc: c.Loc})
		// Parser guarantees each body ends the flow (break, return, or a
		// synthesized fallthrough), so the cursor is cleared here.
	}

	l.switchStack = l.switchStack[:len(l.switchStack)-1]
	l.popBreakContinue()

	l.b.EmitOrDelete(endBB, s.Loc)
	switchScope.Exit()
}

// emitSwitchFallthrough transfers to the next case body of the innermost
// switch, unwinding the current case's scope. In the last case it exits the
// switch instead.
func (l *Lowerer) emitSwitchFallthrough(s *ast.FallthroughStmt) {
	if len(l.switchStack) == 0 {
		panic("lower: fallthrough outside a switch")
	}
	ctx := l.switchStack[len(l.switchStack)-1]
	target := ctx.endBB
	if ctx.nextCase < len(ctx.caseBBs) {
		target = ctx.caseBBs[ctx.nextCase]
	}
	l.cleanups.EmitBranchAndCleanups(JumpDest{Block: target, Depth: ctx.depth, Loc: s.Loc}, s.Loc, nil)
}
