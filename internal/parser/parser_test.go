package parser

import (
	"strings"
	"testing"

	"github.com/lumen-lang/lumen/internal/ast"
)

func parseTyped(t *testing.T, source string) *ast.File {
	t.Helper()
	p := NewTypedParser()
	defer p.Close()
	file, err := p.ParseString("test.lm", source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return file
}

func parseErr(t *testing.T, source string) error {
	t.Helper()
	p := NewTypedParser()
	defer p.Close()
	_, err := p.ParseString("test.lm", source)
	return err
}

func firstFunc(t *testing.T, file *ast.File) *ast.FuncDecl {
	t.Helper()
	if len(file.Funcs) == 0 {
		t.Fatal("No functions parsed")
	}
	return file.Funcs[0]
}

func TestParseTypedFunction(t *testing.T) {
	file := parseTyped(t, `
function add(a: number, b: int, s: string, ok: boolean): number {
	return a;
}
`)
	fn := firstFunc(t, file)

	if fn.Name != "add" {
		t.Errorf("Name = %s", fn.Name)
	}
	wantParams := []ast.Type{ast.TypeFloat, ast.TypeInt, ast.TypeString, ast.TypeBool}
	if len(fn.Params) != len(wantParams) {
		t.Fatalf("Expected %d params, got %d", len(wantParams), len(fn.Params))
	}
	for i, want := range wantParams {
		if fn.Params[i].Typ != want {
			t.Errorf("Param %d type = %s, want %s", i, fn.Params[i].Typ, want)
		}
	}
	if fn.Result != ast.TypeFloat {
		t.Errorf("Result = %s, want float", fn.Result)
	}
	if fn.IsInit || fn.IndirectResult {
		t.Error("Plain function should not be a constructor or use an indirect result")
	}
}

func TestParseMissingAnnotationsDefaultToVoidAndObject(t *testing.T) {
	file := parseTyped(t, `
function f(x) {
}
`)
	fn := firstFunc(t, file)
	if fn.Result != ast.TypeVoid {
		t.Errorf("Unannotated result should be void, got %s", fn.Result)
	}
	if len(fn.Params) != 1 || fn.Params[0].Typ != ast.TypeObject {
		t.Errorf("Unannotated param should be object, got %v", fn.Params)
	}
}

func TestParseOptionalResult(t *testing.T) {
	file := parseTyped(t, `
function getName(): string | null {
	return null;
}
`)
	fn := firstFunc(t, file)
	if fn.Result != ast.TypeOptional {
		t.Errorf("Union with null should be optional, got %s", fn.Result)
	}
	if fn.ResultElem != ast.TypeString {
		t.Errorf("Wrapped type should be string, got %s", fn.ResultElem)
	}
}

func TestParseIndirectResult(t *testing.T) {
	file := parseTyped(t, `
function make(): object {
	return build();
}
`)
	fn := firstFunc(t, file)
	if !fn.IndirectResult {
		t.Error("Object result should be indirect")
	}
}

func TestParseConstructor(t *testing.T) {
	file := parseTyped(t, `
function initThing(ok: boolean): void {
	if (!ok) {
		throw 1;
	}
}
`)
	fn := firstFunc(t, file)
	if !fn.IsInit {
		t.Error("Function named init* should be a constructor")
	}
	if fn.Result != ast.TypeVoid {
		t.Errorf("Constructor result should be void, got %s", fn.Result)
	}
	if fn.IndirectResult {
		t.Error("Constructors do not use an indirect result")
	}
}

func TestParseThisBecomesSelf(t *testing.T) {
	file := parseTyped(t, `
function initThing(): void {
	return this;
}
`)
	fn := firstFunc(t, file)
	ret, ok := fn.Body.Stmts[0].(*ast.ReturnStmt)
	if !ok {
		t.Fatalf("Expected return, got %T", fn.Body.Stmts[0])
	}
	id, ok := ret.Value.(*ast.Ident)
	if !ok || id.Name != "self" {
		t.Errorf("this should resolve to self, got %v", ret.Value)
	}
	if id.Typ != ast.TypeObject {
		t.Errorf("self should be object, got %s", id.Typ)
	}
}

func TestParseBindingCondition(t *testing.T) {
	file := parseTyped(t, `
function getName(): string | null {
	return null;
}

function f(): void {
	if (n = getName()) {
		log(n);
	}
}
`)
	fn := file.Funcs[1]
	ifStmt, ok := fn.Body.Stmts[0].(*ast.IfStmt)
	if !ok {
		t.Fatalf("Expected if, got %T", fn.Body.Stmts[0])
	}
	if len(ifStmt.Cond) != 1 {
		t.Fatalf("Expected 1 clause, got %d", len(ifStmt.Cond))
	}
	binding := ifStmt.Cond[0].Binding
	if binding == nil {
		t.Fatal("Assignment in condition position should be a binding")
	}
	if binding.Name != "n" {
		t.Errorf("Binding name = %s", binding.Name)
	}
	if binding.ElemType != ast.TypeString {
		t.Errorf("Binding element type = %s, want string from getName's declaration", binding.ElemType)
	}
}

func TestParseConditionChainFlattening(t *testing.T) {
	file := parseTyped(t, `
function getName(): string | null {
	return null;
}

function f(): void {
	const ready: boolean = true;
	if ((a = getName()) && ready && (b = getName())) {
		log(a);
	}
}
`)
	fn := file.Funcs[1]
	ifStmt := fn.Body.Stmts[1].(*ast.IfStmt)
	if len(ifStmt.Cond) != 3 {
		t.Fatalf("Expected 3 clauses, got %d", len(ifStmt.Cond))
	}
	if ifStmt.Cond[0].Binding == nil || ifStmt.Cond[0].Binding.Name != "a" {
		t.Error("First clause should bind a")
	}
	if ifStmt.Cond[1].Bool == nil {
		t.Error("Second clause should be boolean")
	}
	if ifStmt.Cond[2].Binding == nil || ifStmt.Cond[2].Binding.Name != "b" {
		t.Error("Third clause should bind b")
	}
}

func TestParseForEach(t *testing.T) {
	file := parseTyped(t, `
function seq(): object {
	return make();
}

function f(): void {
	for (const item of seq()) {
		log(item);
	}
}
`)
	fn := file.Funcs[1]
	fe, ok := fn.Body.Stmts[0].(*ast.ForEachStmt)
	if !ok {
		t.Fatalf("Expected for-each, got %T", fn.Body.Stmts[0])
	}
	if fe.Name != "item" {
		t.Errorf("Bound name = %s", fe.Name)
	}
	if fe.ElemType != ast.TypeObject {
		t.Errorf("Element type = %s, want object", fe.ElemType)
	}
	if _, ok := fe.Seq.(*ast.CallExpr); !ok {
		t.Errorf("Sequence should be the call expression, got %T", fe.Seq)
	}
}

func TestParseSwitchFallthroughSynthesis(t *testing.T) {
	file := parseTyped(t, `
function f(x: int): void {
	switch (x) {
	case 1:
		tick();
	case 2:
		break;
	default:
		return;
	}
}
`)
	fn := firstFunc(t, file)
	sw := fn.Body.Stmts[0].(*ast.SwitchStmt)
	if len(sw.Cases) != 3 {
		t.Fatalf("Expected 3 cases, got %d", len(sw.Cases))
	}

	// Case 1 does not end its flow: the parser appends an explicit
	// fallthrough.
	c1 := sw.Cases[0].Body
	if _, ok := c1[len(c1)-1].(*ast.FallthroughStmt); !ok {
		t.Errorf("Open case body should end in fallthrough, got %T", c1[len(c1)-1])
	}

	// Case 2 and default end their flow themselves.
	c2 := sw.Cases[1].Body
	if _, ok := c2[len(c2)-1].(*ast.BreakStmt); !ok {
		t.Errorf("Break case should keep its break, got %T", c2[len(c2)-1])
	}
	cd := sw.Cases[2].Body
	if _, ok := cd[len(cd)-1].(*ast.ReturnStmt); !ok {
		t.Errorf("Default should keep its return, got %T", cd[len(cd)-1])
	}

	// Default arms have no value.
	if sw.Cases[2].Value != nil {
		t.Error("Default case should have no value")
	}
}

func TestParseUpdateExprDesugar(t *testing.T) {
	file := parseTyped(t, `
function f(): void {
	let i = 0;
	i++;
	i -= 2;
}
`)
	fn := firstFunc(t, file)

	inc := fn.Body.Stmts[1].(*ast.ExprStmt).X.(*ast.AssignExpr)
	bin, ok := inc.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "+" {
		t.Errorf("i++ should desugar to i = i + 1, got %v", inc.Value)
	}
	if lit, ok := bin.Y.(*ast.Lit); !ok || lit.Int != 1 {
		t.Errorf("Increment amount should be 1, got %v", bin.Y)
	}

	dec := fn.Body.Stmts[2].(*ast.ExprStmt).X.(*ast.AssignExpr)
	bin, ok = dec.Value.(*ast.BinaryExpr)
	if !ok || bin.Op != "-" {
		t.Errorf("i -= 2 should desugar to i = i - 2, got %v", dec.Value)
	}
}

func TestParseLabeledBreak(t *testing.T) {
	file := parseTyped(t, `
function f(): void {
	outer: while (true) {
		while (true) {
			break outer;
		}
	}
}
`)
	fn := firstFunc(t, file)
	outer := fn.Body.Stmts[0].(*ast.WhileStmt)
	if outer.Label != "outer" {
		t.Fatalf("Outer loop label = %s", outer.Label)
	}
	inner := outer.Body.Stmts[0].(*ast.WhileStmt)
	brk := inner.Body.Stmts[0].(*ast.BreakStmt)
	if brk.Target != ast.Stmt(outer) {
		t.Error("Labeled break should target the outer loop")
	}
}

func TestParseContinueSkipsSwitch(t *testing.T) {
	file := parseTyped(t, `
function f(x: int): void {
	while (true) {
		switch (x) {
		default:
			continue;
		}
	}
}
`)
	fn := firstFunc(t, file)
	loop := fn.Body.Stmts[0].(*ast.WhileStmt)
	sw := loop.Body.Stmts[0].(*ast.SwitchStmt)
	cont := sw.Cases[0].Body[0].(*ast.ContinueStmt)
	if cont.Target != ast.Stmt(loop) {
		t.Error("Continue should bind past the switch to the enclosing loop")
	}
}

func TestParseNumberLiterals(t *testing.T) {
	file := parseTyped(t, `
function f(): void {
	let a = 10;
	let b = 1.5;
	let c = 1e3;
}
`)
	fn := firstFunc(t, file)
	a := fn.Body.Stmts[0].(*ast.DeclStmt).Init.(*ast.Lit)
	if a.Typ != ast.TypeInt || a.Int != 10 {
		t.Errorf("10 should be int, got %v", a)
	}
	b := fn.Body.Stmts[1].(*ast.DeclStmt).Init.(*ast.Lit)
	if b.Typ != ast.TypeFloat || b.Float != 1.5 {
		t.Errorf("1.5 should be float, got %v", b)
	}
	c := fn.Body.Stmts[2].(*ast.DeclStmt).Init.(*ast.Lit)
	if c.Typ != ast.TypeFloat {
		t.Errorf("1e3 should be float, got %v", c)
	}
}

func TestParseHostCallsDefaultToObject(t *testing.T) {
	file := parseTyped(t, `
function f(): void {
	const x = fetchThing();
}
`)
	fn := firstFunc(t, file)
	decl := fn.Body.Stmts[0].(*ast.DeclStmt)
	if decl.Init.Type() != ast.TypeObject {
		t.Errorf("Unknown call should yield object, got %s", decl.Init.Type())
	}
	if decl.Typ != ast.TypeObject {
		t.Errorf("Declaration should infer object, got %s", decl.Typ)
	}
}

func TestResolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{
			name:   "break outside loop",
			source: `function f(): void { break; }`,
			want:   "break outside loop or switch",
		},
		{
			name:   "continue outside loop",
			source: `function f(): void { continue; }`,
			want:   "continue outside loop",
		},
		{
			name:   "throw outside constructor",
			source: `function f(): void { throw 1; }`,
			want:   "throw is only allowed inside a constructor",
		},
		{
			name:   "undeclared variable",
			source: `function f(): void { log(x); }`,
			want:   "undeclared variable x",
		},
		{
			name: "duplicate function",
			source: `function f(): void {}
function f(): void {}`,
			want: "function f redeclared",
		},
		{
			name:   "return value in void function",
			source: `function f(): void { return 1; }`,
			want:   "return with value in void function",
		},
		{
			name:   "missing return value",
			source: `function f(): int { return; }`,
			want:   "missing return value",
		},
		{
			name:   "declaration without initializer",
			source: `function f(): void { let x; }`,
			want:   "needs an initializer",
		},
		{
			name:   "top-level statement",
			source: `const x = 1;`,
			want:   "only function declarations are allowed at top level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErr(t, tt.source)
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Error %q should mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParseForLanguage(t *testing.T) {
	file, err := ParseForLanguage("main.js", []byte(`
function f(a) {
	return a;
}

function g(a) {
	log(a);
}

function pick(a, b) {
	if (a) {
		return a;
	}
	return b;
}
`))
	if err != nil {
		t.Fatalf("Untyped parse failed: %v", err)
	}
	fn := file.Funcs[0]
	if len(fn.Params) != 1 || fn.Params[0].Typ != ast.TypeObject {
		t.Errorf("Untyped params default to object, got %v", fn.Params)
	}

	// Without annotations the result is inferred from the body: a function
	// that returns a value anywhere yields an object result (indirect),
	// one that never does is void.
	if fn.Result != ast.TypeObject || !fn.IndirectResult {
		t.Errorf("Value-returning untyped function should have an indirect object result, got %s", fn.Result)
	}
	g := file.Funcs[1]
	if g.Result != ast.TypeVoid || g.IndirectResult {
		t.Errorf("Untyped function without value returns should be void, got %s", g.Result)
	}
	pick := file.Funcs[2]
	if pick.Result != ast.TypeObject {
		t.Errorf("Return nested in a branch should still make the result object, got %s", pick.Result)
	}
}

func TestIsTypedExt(t *testing.T) {
	typed := []string{"a.lm", "a.ts", "a.tsx", "a.mts", "a.cts"}
	for _, f := range typed {
		if !isTypedExt(f) {
			t.Errorf("%s should use the typed grammar", f)
		}
	}
	untyped := []string{"a.js", "a.jsx", "a.mjs", "a.cjs"}
	for _, f := range untyped {
		if isTypedExt(f) {
			t.Errorf("%s should use the untyped grammar", f)
		}
	}
}

func TestExportedFunctionsAreParsed(t *testing.T) {
	file := parseTyped(t, `
export function f(): void {
}
`)
	if len(file.Funcs) != 1 || file.Funcs[0].Name != "f" {
		t.Errorf("Exported function should be collected, got %d funcs", len(file.Funcs))
	}
}
