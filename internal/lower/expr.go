package lower

import (
	"fmt"

	"github.com/lumen-lang/lumen/internal/ast"
	"github.com/lumen-lang/lumen/internal/ir"
)

// varLoc records where a variable lives: a stack slot address for locals,
// or a direct value for parameters.
type varLoc struct {
	addr  ir.Value
	value ir.Value
	typ   ast.Type
}

func classOf(t ast.Type) ir.Class {
	switch t {
	case ast.TypeInt:
		return ir.ClassInt
	case ast.TypeFloat:
		return ir.ClassFloat
	case ast.TypeBool:
		return ir.ClassBool
	case ast.TypeString:
		return ir.ClassString
	case ast.TypeObject:
		return ir.ClassObject
	case ast.TypeOptional:
		return ir.ClassOptional
	case ast.TypeVoid:
		return ir.ClassVoid
	default:
		panic(fmt.Sprintf("lower: no class for type %s", t))
	}
}

func constValue(e *ast.Lit) ir.Value {
	switch {
	case e.Null:
		return ir.ConstNull()
	case e.Typ == ast.TypeInt:
		return ir.ConstInt(e.Int)
	case e.Typ == ast.TypeFloat:
		return ir.ConstFloat(e.Float)
	case e.Typ == ast.TypeBool:
		return ir.ConstBool(e.Bool)
	case e.Typ == ast.TypeString:
		return ir.ConstString(e.Str)
	default:
		panic(fmt.Sprintf("lower: unsupported literal type %s", e.Typ))
	}
}

func isCompare(op string) bool {
	switch op {
	case "==", "!=", "<", "<=", ">", ">=":
		return true
	}
	return false
}

// emitRValue lowers an expression to a value. Managed results are produced
// at +1 with an active cleanup; callers that take ownership forward the
// returned handle, everything else is released when the enclosing
// full-expression or lexical scope exits.
func (l *Lowerer) emitRValue(e ast.Expr) (ir.Value, CleanupHandle) {
	switch e := e.(type) {
	case *ast.Lit:
		return constValue(e), noCleanup

	case *ast.Ident:
		loc, ok := l.vars[e.Name]
		if !ok {
			panic(fmt.Sprintf("lower: unresolved variable %q", e.Name))
		}
		v := loc.value
		if !v.IsValid() {
			v = l.b.EmitLoad(loc.addr, classOf(loc.typ), e.Loc)
		}
		if loc.typ.Managed() {
			l.b.EmitRetain(v, e.Loc)
			return v, l.cleanups.PushRelease(v, e.Loc)
		}
		return v, noCleanup

	case *ast.UnaryExpr:
		x, _ := l.emitRValue(e.X)
		switch e.Op {
		case "!":
			return l.b.EmitNot(x, e.Loc), noCleanup
		case "-":
			zero := ir.ConstInt(0)
			if e.Typ == ast.TypeFloat {
				zero = ir.ConstFloat(0)
			}
			return l.b.EmitBinOp("-", zero, x, classOf(e.Typ), e.Loc), noCleanup
		default:
			panic(fmt.Sprintf("lower: unsupported unary operator %q", e.Op))
		}

	case *ast.BinaryExpr:
		x, _ := l.emitRValue(e.X)
		y, _ := l.emitRValue(e.Y)
		if isCompare(e.Op) {
			return l.b.EmitCmp(e.Op, x, y, e.Loc), noCleanup
		}
		r := l.b.EmitBinOp(e.Op, x, y, classOf(e.Typ), e.Loc)
		if e.Typ.Managed() {
			return r, l.cleanups.PushRelease(r, e.Loc)
		}
		return r, noCleanup

	case *ast.AssignExpr:
		loc, ok := l.vars[e.Target.Name]
		if !ok {
			panic(fmt.Sprintf("lower: unresolved variable %q", e.Target.Name))
		}
		if !loc.addr.IsValid() {
			panic(fmt.Sprintf("lower: assignment to value-held variable %q", e.Target.Name))
		}
		if loc.typ.Managed() {
			l.b.EmitDestroyAddr(loc.addr, e.Loc)
		}
		l.emitRValueInto(e.Value, loc.addr)
		return ir.Value{}, noCleanup

	case *ast.CallExpr:
		args := make([]ir.Value, len(e.Args))
		for i, a := range e.Args {
			args[i], _ = l.emitRValue(a)
		}
		r := l.b.EmitCall(e.Fun, args, classOf(e.Typ), e.Loc)
		if e.Typ.Managed() {
			return r, l.cleanups.PushRelease(r, e.Loc)
		}
		return r, noCleanup

	case *ast.MemberExpr:
		x, _ := l.emitRValue(e.X)
		r := l.b.EmitGetMember(x, e.Name, classOf(e.Typ), e.Loc)
		if e.Typ.Managed() {
			l.b.EmitRetain(r, e.Loc)
			return r, l.cleanups.PushRelease(r, e.Loc)
		}
		return r, noCleanup

	default:
		panic(fmt.Sprintf("lower: unknown expression %T", e))
	}
}

// emitRValueInto lowers e and moves the result into the slot at addr,
// transferring ownership to the slot.
func (l *Lowerer) emitRValueInto(e ast.Expr, addr ir.Value) {
	v, h := l.emitRValue(e)
	l.cleanups.Forward(h)
	l.b.EmitStore(v, addr, e.Pos())
}

// emitIgnoredExpr evaluates an expression for its side effects; any owned
// result is released immediately.
func (l *Lowerer) emitIgnoredExpr(e ast.Expr) {
	s := l.cleanups.EnterScope()
	l.emitRValue(e)
	s.Exit()
}
