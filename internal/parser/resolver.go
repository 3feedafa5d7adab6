package parser

import (
	"fmt"
	"strings"

	"github.com/lumen-lang/lumen/internal/ast"
)

// Resolver types expressions, binds variables to their declarations, and
// fills in the break/continue targets the lowering stage relies on. It is
// the stage that upholds the invariants lowering treats as programming
// errors: every break and continue leaves here with a concrete target, and
// fail statements only survive inside constructors.
type Resolver struct {
	file  *ast.File
	sigs  map[string]*ast.FuncDecl
	errs  []string
	fn    *ast.FuncDecl
	scope []map[string]ast.Type
	// loops tracks enclosing breakable constructs, innermost last.
	loops []loopEntry
}

type loopEntry struct {
	stmt        ast.Stmt
	label       string
	continuable bool
}

// Resolve runs the resolver over a parsed file in place.
func Resolve(file *ast.File) error {
	r := &Resolver{file: file, sigs: make(map[string]*ast.FuncDecl)}
	for _, fn := range file.Funcs {
		if _, dup := r.sigs[fn.Name]; dup {
			r.errorf(fn.Loc, "function %s redeclared", fn.Name)
		}
		r.sigs[fn.Name] = fn
	}
	for _, fn := range file.Funcs {
		r.resolveFunc(fn)
	}
	if len(r.errs) > 0 {
		return fmt.Errorf("%s: %s", file.Path, strings.Join(r.errs, "; "))
	}
	return nil
}

func (r *Resolver) errorf(loc ast.Loc, format string, args ...interface{}) {
	r.errs = append(r.errs, fmt.Sprintf("%d:%d: %s", loc.Line, loc.Col, fmt.Sprintf(format, args...)))
}

func (r *Resolver) pushScope() { r.scope = append(r.scope, make(map[string]ast.Type)) }
func (r *Resolver) popScope()  { r.scope = r.scope[:len(r.scope)-1] }

func (r *Resolver) declare(name string, t ast.Type) {
	r.scope[len(r.scope)-1][name] = t
}

func (r *Resolver) lookup(name string) (ast.Type, bool) {
	for i := len(r.scope) - 1; i >= 0; i-- {
		if t, ok := r.scope[i][name]; ok {
			return t, true
		}
	}
	return ast.TypeInvalid, false
}

func (r *Resolver) resolveFunc(fn *ast.FuncDecl) {
	r.fn = fn
	r.scope = nil
	r.loops = nil
	r.pushScope()
	if fn.IsInit {
		r.declare("self", ast.TypeObject)
	}
	for _, p := range fn.Params {
		r.declare(p.Name, p.Typ)
	}
	r.resolveBlock(fn.Body)
	r.popScope()
}

func (r *Resolver) resolveBlock(b *ast.BlockStmt) {
	r.pushScope()
	for _, s := range b.Stmts {
		r.resolveStmt(s)
	}
	r.popScope()
}

func (r *Resolver) resolveStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.BlockStmt:
		r.resolveBlock(s)

	case *ast.DeclStmt:
		if s.Init == nil {
			r.errorf(s.Loc, "variable %s needs an initializer", s.Name)
			s.Init = &ast.Lit{Typ: ast.TypeInt, Loc: s.Loc}
		}
		r.resolveExpr(s.Init)
		if s.Typ == ast.TypeInvalid {
			s.Typ = s.Init.Type()
		}
		r.declare(s.Name, s.Typ)

	case *ast.ExprStmt:
		r.resolveExpr(s.X)

	case *ast.IfStmt:
		r.pushScope()
		r.resolveCond(s.Cond)
		r.resolveBlock(s.Then)
		r.popScope()
		if s.Else != nil {
			r.resolveStmt(s.Else)
		}

	case *ast.WhileStmt:
		r.pushScope()
		r.resolveCond(s.Cond)
		r.withLoop(s, s.Label, true, func() { r.resolveBlock(s.Body) })
		r.popScope()

	case *ast.DoWhileStmt:
		r.withLoop(s, s.Label, true, func() { r.resolveBlock(s.Body) })
		r.resolveExpr(s.Cond)

	case *ast.ForStmt:
		r.pushScope()
		if s.Init != nil {
			r.resolveStmt(s.Init)
		}
		if s.Cond != nil {
			r.resolveExpr(s.Cond)
		}
		if s.Post != nil {
			r.resolveExpr(s.Post)
		}
		r.withLoop(s, s.Label, true, func() { r.resolveBlock(s.Body) })
		r.popScope()

	case *ast.ForEachStmt:
		r.resolveExpr(s.Seq)
		if s.ElemType == ast.TypeInvalid {
			s.ElemType = r.elementTypeOf(s.Seq)
		}
		r.pushScope()
		r.declare(s.Name, s.ElemType)
		r.withLoop(s, s.Label, true, func() { r.resolveBlock(s.Body) })
		r.popScope()

	case *ast.SwitchStmt:
		r.resolveExpr(s.Tag)
		r.withLoop(s, s.Label, false, func() {
			for _, c := range s.Cases {
				if c.Value != nil {
					r.resolveExpr(c.Value)
				}
				r.pushScope()
				for _, cs := range c.Body {
					r.resolveStmt(cs)
				}
				r.popScope()
			}
		})

	case *ast.BreakStmt:
		s.Target = r.findBreakTarget(s.Label)
		if s.Target == nil {
			r.errorf(s.Loc, "break outside loop or switch")
		}

	case *ast.ContinueStmt:
		s.Target = r.findContinueTarget(s.Label)
		if s.Target == nil {
			r.errorf(s.Loc, "continue outside loop")
		}

	case *ast.ReturnStmt:
		if s.Value != nil {
			r.resolveExpr(s.Value)
			if r.fn.Result == ast.TypeVoid && !r.fn.IsInit {
				r.errorf(s.Loc, "return with value in void function %s", r.fn.Name)
			}
		} else if r.fn.Result != ast.TypeVoid {
			r.errorf(s.Loc, "missing return value in function %s", r.fn.Name)
		}

	case *ast.FailStmt:
		if !r.fn.IsInit {
			r.errorf(s.Loc, "throw is only allowed inside a constructor")
		}

	case *ast.FallthroughStmt:
		// Synthesized inside case bodies only.

	default:
		r.errorf(s.Pos(), "unexpected statement %T", s)
	}
}

func (r *Resolver) withLoop(s ast.Stmt, label string, continuable bool, body func()) {
	r.loops = append(r.loops, loopEntry{stmt: s, label: label, continuable: continuable})
	body()
	r.loops = r.loops[:len(r.loops)-1]
}

func (r *Resolver) findBreakTarget(label string) ast.Stmt {
	for i := len(r.loops) - 1; i >= 0; i-- {
		if label == "" || r.loops[i].label == label {
			return r.loops[i].stmt
		}
	}
	return nil
}

func (r *Resolver) findContinueTarget(label string) ast.Stmt {
	for i := len(r.loops) - 1; i >= 0; i-- {
		if !r.loops[i].continuable {
			continue
		}
		if label == "" || r.loops[i].label == label {
			return r.loops[i].stmt
		}
	}
	return nil
}

func (r *Resolver) resolveCond(clauses []ast.CondClause) {
	for i := range clauses {
		c := &clauses[i]
		if c.Binding == nil {
			r.resolveExpr(c.Bool)
			continue
		}
		r.resolveExpr(c.Binding.Init)
		if c.Binding.ElemType == ast.TypeInvalid {
			c.Binding.ElemType = r.elementTypeOf(c.Binding.Init)
		}
		// The binding is visible to later clauses and the true body.
		r.declare(c.Binding.Name, c.Binding.ElemType)
	}
}

// elementTypeOf determines the wrapped type of an optional-producing
// expression: a call to a function declared `T | null` yields T, anything
// else defaults to object.
func (r *Resolver) elementTypeOf(e ast.Expr) ast.Type {
	if call, ok := e.(*ast.CallExpr); ok {
		if sig, ok := r.sigs[call.Fun]; ok && sig.Result == ast.TypeOptional && sig.ResultElem != ast.TypeInvalid {
			return sig.ResultElem
		}
	}
	return ast.TypeObject
}

func (r *Resolver) resolveExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Lit:

	case *ast.Ident:
		t, ok := r.lookup(e.Name)
		if !ok {
			r.errorf(e.Loc, "undeclared variable %s", e.Name)
			t = ast.TypeInt
		}
		e.Typ = t

	case *ast.UnaryExpr:
		r.resolveExpr(e.X)
		if e.Op == "!" {
			e.Typ = ast.TypeBool
		} else {
			e.Typ = e.X.Type()
		}

	case *ast.BinaryExpr:
		r.resolveExpr(e.X)
		r.resolveExpr(e.Y)
		switch e.Op {
		case "==", "!=", "<", "<=", ">", ">=", "&&", "||":
			e.Typ = ast.TypeBool
		default:
			e.Typ = e.X.Type()
		}

	case *ast.AssignExpr:
		t, ok := r.lookup(e.Target.Name)
		if !ok {
			r.errorf(e.Loc, "assignment to undeclared variable %s", e.Target.Name)
			t = ast.TypeInt
		}
		e.Target.Typ = t
		r.resolveExpr(e.Value)

	case *ast.CallExpr:
		for _, a := range e.Args {
			r.resolveExpr(a)
		}
		if sig, ok := r.sigs[e.Fun]; ok {
			e.Typ = sig.Result
			if sig.IsInit {
				e.Typ = ast.TypeObject
			}
		} else {
			// Calls into the host environment default to object results.
			e.Typ = ast.TypeObject
		}

	case *ast.MemberExpr:
		r.resolveExpr(e.X)
		e.Typ = ast.TypeObject

	default:
		r.errorf(e.Pos(), "unexpected expression %T", e)
	}
}
