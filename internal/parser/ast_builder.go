package parser

import (
	"fmt"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/lumen-lang/lumen/internal/ast"
)

// ASTBuilder maps the tree-sitter CST onto the Lumen statement AST.
type ASTBuilder struct {
	filename string
	source   []byte
	typed    bool
	errs     []string
}

// NewASTBuilder creates a builder for one source file. typed selects the
// annotated dialect; untyped sources infer result types from the body.
func NewASTBuilder(filename string, source []byte, typed bool) *ASTBuilder {
	return &ASTBuilder{filename: filename, source: source, typed: typed}
}

// Build converts a program CST into an AST file.
func (b *ASTBuilder) Build(root *sitter.Node) (*ast.File, error) {
	file := &ast.File{Path: b.filename}
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil || b.isTrivia(child) {
			continue
		}
		switch child.Type() {
		case "function_declaration":
			if fn := b.buildFunction(child); fn != nil {
				file.Funcs = append(file.Funcs, fn)
			}
		case "comment", ";":
		case "export_statement":
			if decl := b.getChildByFieldName(child, "declaration"); decl != nil && decl.Type() == "function_declaration" {
				if fn := b.buildFunction(decl); fn != nil {
					file.Funcs = append(file.Funcs, fn)
				}
			}
		default:
			b.errorAt(child, "only function declarations are allowed at top level, found %s", child.Type())
		}
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%s: %s", b.filename, strings.Join(b.errs, "; "))
	}
	return file, nil
}

func (b *ASTBuilder) errorAt(n *sitter.Node, format string, args ...interface{}) {
	loc := b.loc(n)
	b.errs = append(b.errs, fmt.Sprintf("%d:%d: %s", loc.Line, loc.Col, fmt.Sprintf(format, args...)))
}

func (b *ASTBuilder) loc(n *sitter.Node) ast.Loc {
	return ast.Loc{
		File: b.filename,
		Line: int(n.StartPoint().Row) + 1,
		Col:  int(n.StartPoint().Column) + 1,
	}
}

func (b *ASTBuilder) isTrivia(n *sitter.Node) bool {
	t := n.Type()
	return t == "comment" || t == ";" || t == "\n"
}

func (b *ASTBuilder) getChildByFieldName(n *sitter.Node, field string) *sitter.Node {
	return n.ChildByFieldName(field)
}

func (b *ASTBuilder) content(n *sitter.Node) string {
	return n.Content(b.source)
}

// ---------------------------------------------------------------------------
// Declarations

func (b *ASTBuilder) buildFunction(n *sitter.Node) *ast.FuncDecl {
	fn := &ast.FuncDecl{Loc: b.loc(n)}
	if nameNode := b.getChildByFieldName(n, "name"); nameNode != nil {
		fn.Name = b.content(nameNode)
	}
	// Constructors are functions named init*. They return their freshly
	// built self and may contain fail (throw) statements.
	fn.IsInit = strings.HasPrefix(fn.Name, "init")

	if paramsNode := b.getChildByFieldName(n, "parameters"); paramsNode != nil {
		fn.Params = b.buildParameters(paramsNode)
	}
	if retNode := b.getChildByFieldName(n, "return_type"); retNode != nil {
		fn.Result, fn.ResultElem = b.buildTypeAnnotation(retNode)
	} else if b.typed {
		fn.Result = ast.TypeVoid
	} else {
		// Untyped dialect: the result is inferred from the body below.
		fn.Result = ast.TypeInvalid
	}
	if bodyNode := b.getChildByFieldName(n, "body"); bodyNode != nil {
		fn.Body = b.buildBlock(bodyNode)
	} else {
		fn.Body = &ast.BlockStmt{Loc: fn.Loc}
	}
	if fn.Result == ast.TypeInvalid {
		fn.Result = ast.TypeVoid
		if returnsValue(fn.Body) {
			fn.Result = ast.TypeObject
		}
	}
	if fn.IsInit {
		fn.Result = ast.TypeVoid
	}
	// Object results are too large to return in a register; the caller
	// passes a result address instead.
	if fn.Result == ast.TypeObject {
		fn.IndirectResult = true
	}
	return fn
}

// returnsValue reports whether any return under s carries a value.
func returnsValue(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.ReturnStmt:
		return s.Value != nil
	case *ast.BlockStmt:
		for _, c := range s.Stmts {
			if returnsValue(c) {
				return true
			}
		}
	case *ast.IfStmt:
		if returnsValue(s.Then) {
			return true
		}
		return s.Else != nil && returnsValue(s.Else)
	case *ast.WhileStmt:
		return returnsValue(s.Body)
	case *ast.DoWhileStmt:
		return returnsValue(s.Body)
	case *ast.ForStmt:
		return returnsValue(s.Body)
	case *ast.ForEachStmt:
		return returnsValue(s.Body)
	case *ast.SwitchStmt:
		for _, c := range s.Cases {
			for _, cs := range c.Body {
				if returnsValue(cs) {
					return true
				}
			}
		}
	}
	return false
}

func (b *ASTBuilder) buildParameters(n *sitter.Node) []ast.Param {
	var params []ast.Param
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "identifier":
			params = append(params, ast.Param{Name: b.content(child), Typ: ast.TypeObject})
		case "required_parameter", "optional_parameter":
			p := ast.Param{Typ: ast.TypeObject}
			if pat := b.getChildByFieldName(child, "pattern"); pat != nil {
				p.Name = b.content(pat)
			}
			if ty := b.getChildByFieldName(child, "type"); ty != nil {
				p.Typ, _ = b.buildTypeAnnotation(ty)
			}
			params = append(params, p)
		}
	}
	return params
}

// buildTypeAnnotation maps a type annotation to a Lumen type. Unions with
// null denote optionals; the second return is the wrapped type.
func (b *ASTBuilder) buildTypeAnnotation(n *sitter.Node) (ast.Type, ast.Type) {
	ty := n
	// type_annotation wraps the actual type after a colon.
	for i := 0; i < int(n.NamedChildCount()); i++ {
		ty = n.NamedChild(i)
		break
	}
	if ty == nil {
		return ast.TypeObject, ast.TypeInvalid
	}
	if ty.Type() == "union_type" {
		elem := ast.TypeObject
		for i := 0; i < int(ty.NamedChildCount()); i++ {
			member := ty.NamedChild(i)
			text := b.content(member)
			if text == "null" || text == "undefined" {
				continue
			}
			elem = b.typeFromName(text)
		}
		return ast.TypeOptional, elem
	}
	return b.typeFromName(b.content(ty)), ast.TypeInvalid
}

func (b *ASTBuilder) typeFromName(name string) ast.Type {
	switch name {
	case "int":
		return ast.TypeInt
	case "float", "number":
		return ast.TypeFloat
	case "bool", "boolean":
		return ast.TypeBool
	case "string":
		return ast.TypeString
	case "void":
		return ast.TypeVoid
	default:
		return ast.TypeObject
	}
}

// ---------------------------------------------------------------------------
// Statements

func (b *ASTBuilder) buildBlock(n *sitter.Node) *ast.BlockStmt {
	block := &ast.BlockStmt{Loc: b.loc(n)}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || b.isTrivia(child) || child.Type() == "{" || child.Type() == "}" {
			continue
		}
		if s := b.buildStmt(child); s != nil {
			block.Stmts = append(block.Stmts, s)
		}
	}
	return block
}

// asBlock wraps a single statement body in a block when the source omitted
// the braces.
func (b *ASTBuilder) asBlock(n *sitter.Node) *ast.BlockStmt {
	if n.Type() == "statement_block" {
		return b.buildBlock(n)
	}
	block := &ast.BlockStmt{Loc: b.loc(n)}
	if s := b.buildStmt(n); s != nil {
		block.Stmts = append(block.Stmts, s)
	}
	return block
}

func (b *ASTBuilder) buildStmt(n *sitter.Node) ast.Stmt {
	switch n.Type() {
	case "statement_block":
		return b.buildBlock(n)
	case "lexical_declaration", "variable_declaration":
		return b.buildDecl(n)
	case "expression_statement":
		return b.buildExprStmt(n)
	case "if_statement":
		return b.buildIf(n)
	case "while_statement":
		return b.buildWhile(n, "")
	case "do_statement":
		return b.buildDoWhile(n, "")
	case "for_statement":
		return b.buildFor(n, "")
	case "for_of_statement", "for_in_statement":
		return b.buildForEach(n, "")
	case "break_statement":
		s := &ast.BreakStmt{Loc: b.loc(n)}
		if label := b.getChildByFieldName(n, "label"); label != nil {
			s.Label = b.content(label)
		}
		return s
	case "continue_statement":
		s := &ast.ContinueStmt{Loc: b.loc(n)}
		if label := b.getChildByFieldName(n, "label"); label != nil {
			s.Label = b.content(label)
		}
		return s
	case "return_statement":
		s := &ast.ReturnStmt{Loc: b.loc(n)}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			s.Value = b.buildExpr(n.NamedChild(i))
			break
		}
		return s
	case "throw_statement":
		// A throw aborts construction; the resolver rejects it outside a
		// constructor.
		return &ast.FailStmt{Loc: b.loc(n)}
	case "switch_statement":
		return b.buildSwitch(n, "")
	case "labeled_statement":
		return b.buildLabeled(n)
	case "empty_statement":
		return nil
	default:
		b.errorAt(n, "unsupported statement %s", n.Type())
		return nil
	}
}

func (b *ASTBuilder) buildLabeled(n *sitter.Node) ast.Stmt {
	label := ""
	if l := b.getChildByFieldName(n, "label"); l != nil {
		label = b.content(l)
	}
	body := b.getChildByFieldName(n, "body")
	if body == nil {
		b.errorAt(n, "labeled statement without body")
		return nil
	}
	switch body.Type() {
	case "while_statement":
		return b.buildWhile(body, label)
	case "do_statement":
		return b.buildDoWhile(body, label)
	case "for_statement":
		return b.buildFor(body, label)
	case "for_of_statement", "for_in_statement":
		return b.buildForEach(body, label)
	case "switch_statement":
		return b.buildSwitch(body, label)
	default:
		b.errorAt(n, "label on non-loop statement %s", body.Type())
		return nil
	}
}

func (b *ASTBuilder) buildDecl(n *sitter.Node) ast.Stmt {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		s := &ast.DeclStmt{Loc: b.loc(child), Typ: ast.TypeInvalid}
		if name := b.getChildByFieldName(child, "name"); name != nil {
			s.Name = b.content(name)
		}
		if ty := b.getChildByFieldName(child, "type"); ty != nil {
			s.Typ, _ = b.buildTypeAnnotation(ty)
		}
		if val := b.getChildByFieldName(child, "value"); val != nil {
			s.Init = b.buildExpr(val)
		}
		return s
	}
	b.errorAt(n, "declaration without declarator")
	return nil
}

func (b *ASTBuilder) buildExprStmt(n *sitter.Node) ast.Stmt {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		return &ast.ExprStmt{X: b.buildExpr(n.NamedChild(i)), Loc: b.loc(n)}
	}
	return nil
}

func (b *ASTBuilder) buildIf(n *sitter.Node) ast.Stmt {
	s := &ast.IfStmt{Loc: b.loc(n)}
	if cond := b.getChildByFieldName(n, "condition"); cond != nil {
		s.Cond = b.buildCondClauses(cond)
	}
	if cons := b.getChildByFieldName(n, "consequence"); cons != nil {
		s.Then = b.asBlock(cons)
	}
	if alt := b.getChildByFieldName(n, "alternative"); alt != nil {
		// else_clause wraps the else statement.
		inner := alt
		for i := 0; i < int(alt.NamedChildCount()); i++ {
			inner = alt.NamedChild(i)
			break
		}
		if inner.Type() == "if_statement" {
			s.Else = b.buildIf(inner)
		} else {
			s.Else = b.asBlock(inner)
		}
	}
	return s
}

func (b *ASTBuilder) buildWhile(n *sitter.Node, label string) ast.Stmt {
	s := &ast.WhileStmt{Loc: b.loc(n), Label: label}
	if cond := b.getChildByFieldName(n, "condition"); cond != nil {
		s.Cond = b.buildCondClauses(cond)
	}
	if body := b.getChildByFieldName(n, "body"); body != nil {
		s.Body = b.asBlock(body)
	}
	return s
}

func (b *ASTBuilder) buildDoWhile(n *sitter.Node, label string) ast.Stmt {
	s := &ast.DoWhileStmt{Loc: b.loc(n), Label: label}
	if body := b.getChildByFieldName(n, "body"); body != nil {
		s.Body = b.asBlock(body)
	}
	if cond := b.getChildByFieldName(n, "condition"); cond != nil {
		s.Cond = b.buildExpr(b.unparenthesize(cond))
	}
	return s
}

func (b *ASTBuilder) buildFor(n *sitter.Node, label string) ast.Stmt {
	s := &ast.ForStmt{Loc: b.loc(n), Label: label}
	if init := b.getChildByFieldName(n, "initializer"); init != nil && init.Type() != "empty_statement" {
		s.Init = b.buildStmt(init)
	}
	if cond := b.getChildByFieldName(n, "condition"); cond != nil && cond.Type() != "empty_statement" {
		inner := b.unparenthesize(cond)
		// An empty condition slot still surfaces as an expression
		// statement wrapper in some grammars.
		if inner.Type() == "expression_statement" {
			inner = inner.NamedChild(0)
		}
		if inner != nil {
			s.Cond = b.buildExpr(inner)
		}
	}
	if inc := b.getChildByFieldName(n, "increment"); inc != nil {
		s.Post = b.buildExpr(inc)
	}
	if body := b.getChildByFieldName(n, "body"); body != nil {
		s.Body = b.asBlock(body)
	}
	return s
}

func (b *ASTBuilder) buildForEach(n *sitter.Node, label string) ast.Stmt {
	s := &ast.ForEachStmt{Loc: b.loc(n), Label: label, ElemType: ast.TypeInvalid}
	if left := b.getChildByFieldName(n, "left"); left != nil {
		s.Name = b.content(left)
	}
	if right := b.getChildByFieldName(n, "right"); right != nil {
		s.Seq = b.buildExpr(right)
	}
	if body := b.getChildByFieldName(n, "body"); body != nil {
		s.Body = b.asBlock(body)
	}
	return s
}

func (b *ASTBuilder) buildSwitch(n *sitter.Node, label string) ast.Stmt {
	s := &ast.SwitchStmt{Loc: b.loc(n), Label: label}
	if value := b.getChildByFieldName(n, "value"); value != nil {
		s.Tag = b.buildExpr(b.unparenthesize(value))
	}
	body := b.getChildByFieldName(n, "body")
	if body == nil {
		return s
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		child := body.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "switch_case":
			c := &ast.CaseClause{Loc: b.loc(child)}
			if value := b.getChildByFieldName(child, "value"); value != nil {
				c.Value = b.buildExpr(value)
			}
			c.Body = b.buildCaseBody(child)
			s.Cases = append(s.Cases, c)
		case "switch_default":
			c := &ast.CaseClause{Loc: b.loc(child)}
			c.Body = b.buildCaseBody(child)
			s.Cases = append(s.Cases, c)
		}
	}
	return s
}

// buildCaseBody collects a case's statements and makes the implicit
// fallthrough explicit: a body that does not end the flow itself gets a
// trailing fallthrough statement.
func (b *ASTBuilder) buildCaseBody(n *sitter.Node) []ast.Stmt {
	value := b.getChildByFieldName(n, "value")
	var stmts []ast.Stmt
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || b.isTrivia(child) || !child.IsNamed() {
			continue
		}
		if value != nil && child.StartByte() == value.StartByte() {
			continue
		}
		if s := b.buildStmt(child); s != nil {
			stmts = append(stmts, s)
		}
	}
	if len(stmts) == 0 || !endsFlow(stmts[len(stmts)-1]) {
		stmts = append(stmts, &ast.FallthroughStmt{Loc: b.loc(n)})
	}
	return stmts
}

func endsFlow(s ast.Stmt) bool {
	switch s.(type) {
	case *ast.BreakStmt, *ast.ContinueStmt, *ast.ReturnStmt, *ast.FailStmt:
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Condition clauses

// buildCondClauses flattens a condition into clause form: `&&` splits
// clauses, an assignment `x = f()` declares a conditional binding of x from
// the optional f(), anything else is a boolean clause.
func (b *ASTBuilder) buildCondClauses(n *sitter.Node) []ast.CondClause {
	inner := b.unparenthesize(n)
	var clauses []ast.CondClause
	b.flattenCond(inner, &clauses)
	return clauses
}

func (b *ASTBuilder) flattenCond(n *sitter.Node, out *[]ast.CondClause) {
	n = b.unparenthesize(n)
	if n.Type() == "binary_expression" {
		if op := b.getChildByFieldName(n, "operator"); op != nil && b.content(op) == "&&" {
			b.flattenCond(b.getChildByFieldName(n, "left"), out)
			b.flattenCond(b.getChildByFieldName(n, "right"), out)
			return
		}
	}
	if n.Type() == "assignment_expression" {
		left := b.getChildByFieldName(n, "left")
		right := b.getChildByFieldName(n, "right")
		if left != nil && left.Type() == "identifier" && right != nil {
			*out = append(*out, ast.CondClause{Binding: &ast.CondBinding{
				Name:     b.content(left),
				ElemType: ast.TypeInvalid,
				Init:     b.buildExpr(right),
				Loc:      b.loc(n),
			}})
			return
		}
	}
	*out = append(*out, ast.CondClause{Bool: b.buildExpr(n)})
}

func (b *ASTBuilder) unparenthesize(n *sitter.Node) *sitter.Node {
	for n != nil && n.Type() == "parenthesized_expression" {
		next := n.NamedChild(0)
		if next == nil {
			return n
		}
		n = next
	}
	return n
}

// ---------------------------------------------------------------------------
// Expressions

func (b *ASTBuilder) buildExpr(n *sitter.Node) ast.Expr {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "parenthesized_expression":
		return b.buildExpr(b.unparenthesize(n))
	case "identifier":
		return &ast.Ident{Name: b.content(n), Typ: ast.TypeInvalid, Loc: b.loc(n)}
	case "number":
		text := b.content(n)
		if strings.ContainsAny(text, ".eE") {
			f, _ := strconv.ParseFloat(text, 64)
			return &ast.Lit{Typ: ast.TypeFloat, Float: f, Loc: b.loc(n)}
		}
		v, _ := strconv.ParseInt(text, 0, 64)
		return &ast.Lit{Typ: ast.TypeInt, Int: v, Loc: b.loc(n)}
	case "string", "template_string":
		text := b.content(n)
		if len(text) >= 2 {
			text = text[1 : len(text)-1]
		}
		return &ast.Lit{Typ: ast.TypeString, Str: text, Loc: b.loc(n)}
	case "true":
		return &ast.Lit{Typ: ast.TypeBool, Bool: true, Loc: b.loc(n)}
	case "false":
		return &ast.Lit{Typ: ast.TypeBool, Loc: b.loc(n)}
	case "null", "undefined":
		return &ast.Lit{Typ: ast.TypeObject, Null: true, Loc: b.loc(n)}
	case "unary_expression":
		e := &ast.UnaryExpr{Typ: ast.TypeInvalid, Loc: b.loc(n)}
		if op := b.getChildByFieldName(n, "operator"); op != nil {
			e.Op = b.content(op)
		}
		if arg := b.getChildByFieldName(n, "argument"); arg != nil {
			e.X = b.buildExpr(arg)
		}
		return e
	case "binary_expression":
		e := &ast.BinaryExpr{Typ: ast.TypeInvalid, Loc: b.loc(n)}
		if op := b.getChildByFieldName(n, "operator"); op != nil {
			e.Op = b.content(op)
		}
		e.X = b.buildExpr(b.getChildByFieldName(n, "left"))
		e.Y = b.buildExpr(b.getChildByFieldName(n, "right"))
		return e
	case "assignment_expression":
		left := b.getChildByFieldName(n, "left")
		if left == nil || left.Type() != "identifier" {
			b.errorAt(n, "assignment target must be an identifier")
			return &ast.Lit{Typ: ast.TypeInt, Loc: b.loc(n)}
		}
		return &ast.AssignExpr{
			Target: &ast.Ident{Name: b.content(left), Typ: ast.TypeInvalid, Loc: b.loc(left)},
			Value:  b.buildExpr(b.getChildByFieldName(n, "right")),
			Loc:    b.loc(n),
		}
	case "augmented_assignment_expression":
		// x += e desugars to x = x + e.
		left := b.getChildByFieldName(n, "left")
		op := b.getChildByFieldName(n, "operator")
		right := b.getChildByFieldName(n, "right")
		if left == nil || left.Type() != "identifier" || op == nil || right == nil {
			b.errorAt(n, "unsupported augmented assignment")
			return &ast.Lit{Typ: ast.TypeInt, Loc: b.loc(n)}
		}
		binOp := strings.TrimSuffix(b.content(op), "=")
		target := &ast.Ident{Name: b.content(left), Typ: ast.TypeInvalid, Loc: b.loc(left)}
		return &ast.AssignExpr{
			Target: target,
			Value: &ast.BinaryExpr{
				Op:  binOp,
				X:   &ast.Ident{Name: target.Name, Typ: ast.TypeInvalid, Loc: target.Loc},
				Y:   b.buildExpr(right),
				Typ: ast.TypeInvalid,
				Loc: b.loc(n),
			},
			Loc: b.loc(n),
		}
	case "update_expression":
		// i++ / i-- desugar to i = i +/- 1.
		arg := b.getChildByFieldName(n, "argument")
		if arg == nil || arg.Type() != "identifier" {
			b.errorAt(n, "update target must be an identifier")
			return &ast.Lit{Typ: ast.TypeInt, Loc: b.loc(n)}
		}
		op := "+"
		if opNode := b.getChildByFieldName(n, "operator"); opNode != nil && b.content(opNode) == "--" {
			op = "-"
		}
		target := &ast.Ident{Name: b.content(arg), Typ: ast.TypeInvalid, Loc: b.loc(arg)}
		return &ast.AssignExpr{
			Target: target,
			Value: &ast.BinaryExpr{
				Op:  op,
				X:   &ast.Ident{Name: target.Name, Typ: ast.TypeInvalid, Loc: target.Loc},
				Y:   &ast.Lit{Typ: ast.TypeInt, Int: 1, Loc: b.loc(n)},
				Typ: ast.TypeInvalid,
				Loc: b.loc(n),
			},
			Loc: b.loc(n),
		}
	case "call_expression":
		e := &ast.CallExpr{Typ: ast.TypeInvalid, Loc: b.loc(n)}
		if fun := b.getChildByFieldName(n, "function"); fun != nil {
			if fun.Type() != "identifier" {
				b.errorAt(n, "only free functions can be called")
				return &ast.Lit{Typ: ast.TypeInt, Loc: b.loc(n)}
			}
			e.Fun = b.content(fun)
		}
		if args := b.getChildByFieldName(n, "arguments"); args != nil {
			for i := 0; i < int(args.NamedChildCount()); i++ {
				e.Args = append(e.Args, b.buildExpr(args.NamedChild(i)))
			}
		}
		return e
	case "member_expression":
		e := &ast.MemberExpr{Typ: ast.TypeInvalid, Loc: b.loc(n)}
		e.X = b.buildExpr(b.getChildByFieldName(n, "object"))
		if prop := b.getChildByFieldName(n, "property"); prop != nil {
			e.Name = b.content(prop)
		}
		return e
	case "this":
		return &ast.Ident{Name: "self", Typ: ast.TypeObject, Loc: b.loc(n)}
	default:
		b.errorAt(n, "unsupported expression %s", n.Type())
		return &ast.Lit{Typ: ast.TypeInt, Loc: b.loc(n)}
	}
}
