package lower

import (
	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/diag"
	"github.com/lumen-lang/lumen/internal/ir"
)

// breakContinueEntry is one jump-target registry slot. Entries are pushed
// and popped in strict nesting order; break and continue resolve their
// resolver-bound construct by identity, innermost first.
type breakContinueEntry struct {
	target       ast.Stmt
	breakDest    JumpDest
	continueDest JumpDest
}

// Lowerer lowers one function body. It owns the insertion cursor (via its
// Builder), the cleanup stack, and the jump-target registry; nothing here
// is shared between function lowerings.
type Lowerer struct {
	b        *Builder
	cleanups *CleanupStack
	diags    *diag.Bag

	vars               map[string]varLoc
	breakContinueStack []breakContinueEntry
	switchStack        []*switchContext

	returnDest         JumpDest
	failDest           JumpDest
	indirectResultAddr ir.Value
	selfValue          ir.Value
}

func (l *Lowerer) pushBreakContinue(target ast.Stmt, breakDest, continueDest JumpDest) {
	l.breakContinueStack = append(l.breakContinueStack, breakContinueEntry{
		target:       target,
		breakDest:    breakDest,
		continueDest: continueDest,
	})
}

func (l *Lowerer) popBreakContinue() {
	l.breakContinueStack = l.breakContinueStack[:len(l.breakContinueStack)-1]
}

// Function lowers one resolved function declaration to IR. Unreachable-code
// findings go to bag; invariant violations (unresolved jump targets,
// malformed conditions, misuse of the cursor) panic, since they indicate a
// bug in an earlier stage.
func Function(fn *ast.FuncDecl, bag *diag.Bag) *ir.Function {
	irFn := ir.NewFunction(fn.Name, fn.Loc)
	irFn.IndirectResult = fn.IndirectResult
	if !fn.IndirectResult {
		irFn.Result = classOf(fn.Result)
	}

	l := &Lowerer{
		diags: bag,
		vars:  make(map[string]varLoc),
	}
	l.b = NewBuilder(irFn)
	l.cleanups = NewCleanupStack(l.b)

	entry := irFn.NewBlock()
	l.b.SetInsertionPoint(entry)

	// Prologue: parameters, the shared return destination, and for
	// constructors the failure destination.
	if fn.IndirectResult {
		l.indirectResultAddr = irFn.AddParam(ir.ClassAddress)
	}
	if fn.IsInit {
		l.selfValue = irFn.AddParam(ir.ClassObject)
		l.vars["self"] = varLoc{value: l.selfValue, typ: ast.TypeObject}
	}
	for _, p := range fn.Params {
		v := irFn.AddParam(classOf(p.Typ))
		l.vars[p.Name] = varLoc{value: v, typ: p.Typ}
	}

	epilogBB := irFn.NewBlock()
	var retVal ir.Value
	if !fn.IndirectResult && fn.Result != ast.TypeVoid {
		retVal = epilogBB.AddParam(classOf(fn.Result))
	}
	l.returnDest = JumpDest{Block: epilogBB, Depth: 0, Loc: fn.Loc}

	var failBB *ir.Block
	if fn.IsInit {
		failBB = irFn.NewBlock()
		l.failDest = JumpDest{Block: failBB, Depth: 0, Loc: fn.Loc}
	}

	l.visitBraceStmt(fn.Body)

	// Falling off the end is an implicit return for void functions; a
	// value-returning body that gets here has no way to produce a result.
	if l.b.HasInsertionPoint() {
		if retVal.IsValid() {
			l.b.TerminateUnreachable(fn.Loc)
		} else {
			l.b.TerminateBr(epilogBB, nil, fn.Loc)
		}
	}

	l.b.EmitOrDelete(epilogBB, fn.Loc)
	if l.b.HasInsertionPoint() {
		if fn.IsInit {
			l.b.TerminateRet(l.selfValue, fn.Loc)
		} else {
			l.b.TerminateRet(retVal, fn.Loc)
		}
	}

	if failBB != nil {
		l.b.EmitOrDelete(failBB, fn.Loc)
		if l.b.HasInsertionPoint() {
			l.b.TerminateRet(ir.ConstNull(), fn.Loc)
		}
	}

	return irFn
}
