package lower

import (
	"strings"
	"testing"

	"github.com/lumen-lang/lumen/internal/diag"
	"github.com/lumen-lang/lumen/internal/ir"
	"github.com/lumen-lang/lumen/internal/testutil"
)

// lowerSource parses typed source, lowers the named function, and verifies
// the resulting IR.
func lowerSource(t *testing.T, source, name string) (*ir.Function, *diag.Bag) {
	t.Helper()
	file := testutil.ParseTestSource(t, source)
	fn := testutil.FindFunc(file, name)
	if fn == nil {
		t.Fatalf("Function %s not found", name)
	}
	bag := diag.NewBag()
	irFn := Function(fn, bag)
	if err := ir.Verify(irFn); err != nil {
		t.Fatalf("Malformed IR for %s: %v\n%s", name, err, irFn.String())
	}
	return irFn, bag
}

// findBlockContaining returns the first block whose instruction text contains
// the substring.
func findBlockContaining(fn *ir.Function, substr string) *ir.Block {
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if strings.Contains(in.String(), substr) {
				return b
			}
		}
	}
	return nil
}

// condBrs collects conditional terminators in block-list order.
func condBrs(fn *ir.Function) []*ir.CondBr {
	var out []*ir.CondBr
	for _, b := range fn.Blocks {
		if cb, ok := b.Term.(*ir.CondBr); ok {
			out = append(out, cb)
		}
	}
	return out
}

func countInstr[T ir.Instr](fn *ir.Function) int {
	n := 0
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if _, ok := in.(T); ok {
				n++
			}
		}
	}
	return n
}

func brTarget(t *testing.T, b *ir.Block) *ir.Block {
	t.Helper()
	br, ok := b.Term.(*ir.Br)
	if !ok {
		t.Fatalf("Block %s does not end in an unconditional branch: %v", b.Label, b.Term)
	}
	return br.Target
}

// ---------------------------------------------------------------------------
// Straight-line functions

func TestLowerReturnExpression(t *testing.T) {
	fn, bag := lowerSource(t, `
function add(a: number, b: number): number {
	return a + b;
}
`, "add")

	if bag.Count() != 0 {
		t.Errorf("Expected no diagnostics, got %d", bag.Count())
	}
	if len(fn.Blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d:\n%s", len(fn.Blocks), fn.String())
	}

	entry := fn.Entry()
	br, ok := entry.Term.(*ir.Br)
	if !ok {
		t.Fatalf("Entry should branch to the shared return block, got %v", entry.Term)
	}
	if len(br.Args) != 1 {
		t.Fatalf("Return value should travel as a block argument, got %d args", len(br.Args))
	}

	epilog := br.Target
	if len(epilog.Params) != 1 {
		t.Fatalf("Return block should take the result as a parameter, got %d", len(epilog.Params))
	}
	ret, ok := epilog.Term.(*ir.Ret)
	if !ok {
		t.Fatalf("Return block should end in ret, got %v", epilog.Term)
	}
	if ret.Value != epilog.Params[0] {
		t.Errorf("Ret should return the block parameter, got %s", ret.Value)
	}
}

func TestLowerVoidImplicitReturn(t *testing.T) {
	fn, _ := lowerSource(t, `
function ping(): void {
	log(1);
}
`, "ping")

	// The host call result is owned and must be released before falling off.
	if countInstr[*ir.Release](fn) != 1 {
		t.Errorf("Ignored call result should be released:\n%s", fn.String())
	}

	last := fn.Blocks[len(fn.Blocks)-1]
	ret, ok := last.Term.(*ir.Ret)
	if !ok {
		t.Fatalf("Void function should end in ret, got %v", last.Term)
	}
	if ret.Value.IsValid() {
		t.Errorf("Void return should carry no value, got %s", ret.Value)
	}
}

func TestLowerValueFallOffIsUnreachable(t *testing.T) {
	fn, _ := lowerSource(t, `
function broken(): int {
	tick();
}
`, "broken")

	// A value-returning body that falls off the end cannot produce a result;
	// the shared return block is never referenced and gets pruned.
	if len(fn.Blocks) != 1 {
		t.Fatalf("Expected only the entry block, got %d:\n%s", len(fn.Blocks), fn.String())
	}
	if _, ok := fn.Entry().Term.(*ir.Unreachable); !ok {
		t.Errorf("Fall-off in a value function should lower to unreachable, got %v", fn.Entry().Term)
	}
}

// ---------------------------------------------------------------------------
// Cleanup exactness

func TestLowerScopeExitReleaseOrder(t *testing.T) {
	fn, _ := lowerSource(t, `
function greet(): void {
	const s: string = name();
	log(s);
}
`, "greet")

	entry := fn.Entry()
	if len(entry.Instrs) < 3 {
		t.Fatalf("Entry block too short:\n%s", fn.String())
	}

	// Temporaries die before the variable slot: the block ends with the two
	// expression releases followed by the slot destroy.
	n := len(entry.Instrs)
	if _, ok := entry.Instrs[n-1].(*ir.DestroyAddr); !ok {
		t.Errorf("Last instruction should destroy the variable slot, got %s", entry.Instrs[n-1])
	}
	if _, ok := entry.Instrs[n-2].(*ir.Release); !ok {
		t.Errorf("Retained variable value should be released before the slot destroy, got %s", entry.Instrs[n-2])
	}
	if _, ok := entry.Instrs[n-3].(*ir.Release); !ok {
		t.Errorf("Call result should be released newest-first, got %s", entry.Instrs[n-3])
	}
}

func TestLowerReturnUnwindsWithoutPopping(t *testing.T) {
	fn, _ := lowerSource(t, `
function flag(): boolean {
	return true;
}

function pick(): boolean {
	const s: string = name();
	if (flag()) {
		return true;
	}
	return false;
}
`, "pick")

	// Both return paths share the same cleanup entry; each must destroy the
	// slot on its own way out.
	if got := countInstr[*ir.DestroyAddr](fn); got != 2 {
		t.Errorf("Expected the slot destroyed on each return path, got %d destroys:\n%s", got, fn.String())
	}
}

// ---------------------------------------------------------------------------
// Conditions and binding chains

func TestLowerPlainIfSharedContinuation(t *testing.T) {
	fn, _ := lowerSource(t, `
function flag(): boolean {
	return true;
}

function f(): void {
	if (flag()) {
		tick();
	}
	more();
}
`, "f")

	// Without bindings the failure block doubles as the continuation: both
	// the false edge and the then-arm land there.
	cbs := condBrs(fn)
	if len(cbs) != 1 {
		t.Fatalf("Expected 1 conditional branch, got %d", len(cbs))
	}
	if cbs[0].False.NumPreds() != 2 {
		t.Errorf("Continuation should be reached from the test and the then-arm, got %d preds", cbs[0].False.NumPreds())
	}
	if findBlockContaining(fn, "call @more") != cbs[0].False {
		t.Errorf("Code after the if should live in the shared continuation:\n%s", fn.String())
	}
}

func TestLowerBindingIf(t *testing.T) {
	fn, _ := lowerSource(t, `
function getName(): string | null {
	return null;
}

function f(): void {
	if (n = getName()) {
		log(n);
	}
}
`, "f")

	text := fn.String()
	if strings.Count(text, "alloc_stack $optional") != 1 {
		t.Errorf("Expected exactly one binding buffer:\n%s", text)
	}
	if strings.Count(text, "alloc_stack $string") != 1 {
		t.Errorf("Expected exactly one bound variable slot:\n%s", text)
	}
	if countInstr[*ir.ExtractValue](fn) != 1 {
		t.Errorf("The true path should consume the buffer exactly once:\n%s", text)
	}

	// One destroy for the buffer on the failure path, one for the bound
	// variable at the end of the then-scope.
	if got := countInstr[*ir.DestroyAddr](fn); got != 2 {
		t.Errorf("Expected 2 destroys, got %d:\n%s", got, text)
	}

	// The then-arm must not re-run the buffer destroy: it branches past the
	// failure chain into a pure continuation.
	trueBlk := findBlockContaining(fn, "extract_value")
	if trueBlk == nil {
		t.Fatalf("No block extracts the binding:\n%s", text)
	}
	cont := brTarget(t, trueBlk)
	if len(cont.Instrs) != 0 {
		t.Errorf("Then-arm continuation should be empty, got:\n%s", cont.String())
	}
	if cont.NumPreds() != 2 {
		t.Errorf("Continuation should merge the then-arm and the failure chain, got %d preds", cont.NumPreds())
	}
}

func TestLowerBindingChainFailureOrder(t *testing.T) {
	fn, _ := lowerSource(t, `
function getName(): string | null {
	return null;
}

function f(): void {
	if ((a = getName()) && (b = getName()) && (c = getName())) {
		log(a);
	}
}
`, "f")

	cbs := condBrs(fn)
	if len(cbs) != 3 {
		t.Fatalf("Expected 3 clause tests, got %d:\n%s", len(cbs), fn.String())
	}
	fa, fb, fc := cbs[0].False, cbs[1].False, cbs[2].False

	// Failing the k-th clause destroys buffers k..1 in reverse order: each
	// chain block holds exactly one destroy and links to the previous one.
	for i, blk := range []*ir.Block{fa, fb, fc} {
		if len(blk.Instrs) != 1 {
			t.Fatalf("Chain block %d should hold exactly one destroy, got %d instrs:\n%s", i+1, len(blk.Instrs), blk.String())
		}
		if _, ok := blk.Instrs[0].(*ir.DestroyAddr); !ok {
			t.Fatalf("Chain block %d should destroy its buffer, got %s", i+1, blk.Instrs[0])
		}
	}
	if brTarget(t, fc) != fb {
		t.Errorf("Third clause failure should chain to the second buffer's destroy")
	}
	if brTarget(t, fb) != fa {
		t.Errorf("Second clause failure should chain to the first buffer's destroy")
	}

	// The chain tail exits into a destroy-free continuation.
	tail := brTarget(t, fa)
	if len(tail.Instrs) != 0 {
		t.Errorf("Chain tail should fall into a pure continuation:\n%s", tail.String())
	}
}

func TestLowerIfElseBothReturn(t *testing.T) {
	fn, _ := lowerSource(t, `
function flag(): boolean {
	return true;
}

function pick(): int {
	if (flag()) {
		return 1;
	} else {
		return 2;
	}
}
`, "pick")

	// The merge block is never referenced and must be pruned; both arms
	// branch straight to the shared return block.
	for _, b := range fn.Blocks {
		if _, ok := b.Term.(*ir.Ret); ok {
			if b.NumPreds() != 2 {
				t.Errorf("Return block should merge both arms, got %d preds", b.NumPreds())
			}
			return
		}
	}
	t.Fatalf("No return block found:\n%s", fn.String())
}

// ---------------------------------------------------------------------------
// Loops

func TestLowerWhileBreakTarget(t *testing.T) {
	fn, _ := lowerSource(t, `
function running(): boolean {
	return true;
}

function skip(): boolean {
	return true;
}

function f(): void {
	while (running()) {
		if (skip()) {
			break;
		}
		tick();
	}
}
`, "f")

	cbs := condBrs(fn)
	if len(cbs) != 2 {
		t.Fatalf("Expected 2 conditional branches, got %d", len(cbs))
	}
	whileTest, inner := cbs[0], cbs[1]

	// Break leaves through the same block the condition's false edge uses.
	if brTarget(t, inner.True) != whileTest.False {
		t.Errorf("Break should exit to the loop's false destination:\n%s", fn.String())
	}
}

func TestLowerWhileContinueTarget(t *testing.T) {
	fn, _ := lowerSource(t, `
function running(): boolean {
	return true;
}

function skip(): boolean {
	return true;
}

function f(): void {
	while (running()) {
		if (skip()) {
			continue;
		}
		tick();
	}
}
`, "f")

	header := brTarget(t, fn.Entry())
	cbs := condBrs(fn)
	inner := cbs[1]
	if brTarget(t, inner.True) != header {
		t.Errorf("Continue should re-enter the loop header:\n%s", fn.String())
	}
}

func TestLowerBindingWhileContinueRestartsCondition(t *testing.T) {
	fn, _ := lowerSource(t, `
function getName(): string | null {
	return null;
}

function skip(): boolean {
	return true;
}

function f(): void {
	while (n = getName()) {
		if (skip()) {
			continue;
		}
		log(n);
	}
}
`, "f")

	// The loop header refills the binding buffer, and continue targets the
	// header: every continue re-runs the fetch. Kept as-is for compatibility.
	header := brTarget(t, fn.Entry())
	if findBlockContaining(fn, "call @getName") != header {
		t.Errorf("Header should refill the binding buffer:\n%s", fn.String())
	}

	cbs := condBrs(fn)
	inner := cbs[1]
	if brTarget(t, inner.True) != header {
		t.Errorf("Continue in a binding while should restart the whole condition:\n%s", fn.String())
	}

	// The bound variable's slot is unwound on the continue path.
	destroyed := false
	for _, in := range inner.True.Instrs {
		if _, ok := in.(*ir.DestroyAddr); ok {
			destroyed = true
		}
	}
	if !destroyed {
		t.Errorf("Continue should destroy the per-iteration binding slot:\n%s", fn.String())
	}
}

func TestLowerForContinueTargetsIncrement(t *testing.T) {
	fn, _ := lowerSource(t, `
function skip(): boolean {
	return true;
}

function f(): void {
	for (let i = 0; i < 10; i = i + 1) {
		if (skip()) {
			continue;
		}
		tick();
	}
}
`, "f")

	cbs := condBrs(fn)
	if len(cbs) != 2 {
		t.Fatalf("Expected 2 conditional branches, got %d", len(cbs))
	}
	inner := cbs[1]

	inc := brTarget(t, inner.True)
	if findBlockContaining(fn, "binop +") != inc {
		t.Errorf("Continue should enter the increment block:\n%s", fn.String())
	}

	// The increment loops back to the condition header.
	header := brTarget(t, fn.Entry())
	if brTarget(t, inc) != header {
		t.Errorf("Increment should re-test the condition:\n%s", fn.String())
	}
}

func TestLowerForInfiniteWithBreak(t *testing.T) {
	fn, _ := lowerSource(t, `
function f(): void {
	for (;;) {
		break;
	}
}
`, "f")

	// No condition means no test: entry, body, end, return.
	if got := countInstr[*ir.Cmp](fn); got != 0 {
		t.Errorf("Infinite loop should emit no comparison, got %d", got)
	}
	if len(fn.Blocks) != 4 {
		t.Errorf("Expected 4 blocks, got %d:\n%s", len(fn.Blocks), fn.String())
	}
}

func TestLowerForInfiniteNoExit(t *testing.T) {
	fn, _ := lowerSource(t, `
function spin(): void {
	for (;;) {
		tick();
	}
}
`, "spin")

	// Nothing ever leaves the loop: the shared return block is pruned and the
	// function has no ret at all.
	for _, b := range fn.Blocks {
		if _, ok := b.Term.(*ir.Ret); ok {
			t.Errorf("Unexitable loop should leave no return block:\n%s", fn.String())
		}
	}
	if len(fn.Blocks) != 2 {
		t.Errorf("Expected entry and self-looping body, got %d blocks:\n%s", len(fn.Blocks), fn.String())
	}
}

func TestLowerDoWhileInlineCondition(t *testing.T) {
	fn, _ := lowerSource(t, `
function more(): boolean {
	return true;
}

function f(): void {
	do {
		tick();
	} while (more());
}
`, "f")

	// Without a continue the dedicated condition block is never referenced;
	// the test is emitted straight after the body.
	body := findBlockContaining(fn, "call @tick")
	if findBlockContaining(fn, "call @more") != body {
		t.Errorf("Condition should be inlined into the body block:\n%s", fn.String())
	}

	cbs := condBrs(fn)
	if len(cbs) != 1 {
		t.Fatalf("Expected 1 conditional branch, got %d", len(cbs))
	}
	if brTarget(t, cbs[0].True) != body {
		t.Errorf("True edge should loop back to the body:\n%s", fn.String())
	}
}

func TestLowerDoWhileContinueTargetsCondition(t *testing.T) {
	fn, _ := lowerSource(t, `
function more(): boolean {
	return true;
}

function skip(): boolean {
	return true;
}

function f(): void {
	do {
		if (skip()) {
			continue;
		}
		tick();
	} while (more());
}
`, "f")

	// Continue re-evaluates the controlling expression, which now needs its
	// own block.
	condBlk := findBlockContaining(fn, "call @more")
	if condBlk == findBlockContaining(fn, "call @tick") {
		t.Fatalf("Condition should get a dedicated block when continue targets it:\n%s", fn.String())
	}

	skipTest := findBlockContaining(fn, "call @skip")
	inner, ok := skipTest.Term.(*ir.CondBr)
	if !ok {
		t.Fatalf("Skip test should end in cond_br, got %v", skipTest.Term)
	}
	if brTarget(t, inner.True) != condBlk {
		t.Errorf("Continue in do-while should enter the condition block:\n%s", fn.String())
	}
}

func TestLowerForEach(t *testing.T) {
	fn, _ := lowerSource(t, `
function seq(): object {
	return make();
}

function f(): void {
	for (const item of seq()) {
		log(item);
	}
}
`, "f")

	text := fn.String()

	// One reusable fetch buffer for the whole loop.
	if strings.Count(text, "alloc_stack $optional") != 1 {
		t.Errorf("Expected one shared fetch buffer:\n%s", text)
	}

	// The header advances the sequence and tests for a value.
	header := brTarget(t, fn.Entry())
	if findBlockContaining(fn, "call @next") != header {
		t.Errorf("Header should fetch the next element:\n%s", text)
	}

	// The body consumes the buffer, destroys the per-iteration slot, and
	// loops back to the fetch.
	body := findBlockContaining(fn, "extract_value")
	if body == nil {
		t.Fatalf("No block consumes the fetch buffer:\n%s", text)
	}
	if brTarget(t, body) != header {
		t.Errorf("Body should loop back to the fetch:\n%s", text)
	}
	destroyed := false
	for _, in := range body.Instrs {
		if _, ok := in.(*ir.DestroyAddr); ok {
			destroyed = true
		}
	}
	if !destroyed {
		t.Errorf("Per-iteration slot should be destroyed before the next fetch:\n%s", text)
	}
}

func TestLowerForEachBreak(t *testing.T) {
	fn, _ := lowerSource(t, `
function seq(): object {
	return make();
}

function f(): void {
	for (const item of seq()) {
		break;
	}
}
`, "f")

	// Break consumes the already-extracted element and leaves; the sequence
	// itself is destroyed after the loop.
	if fn == nil {
		t.Fatal("Lowering failed")
	}
}

// ---------------------------------------------------------------------------
// Switch

func TestLowerSwitchDispatchAndFallthrough(t *testing.T) {
	fn, _ := lowerSource(t, `
function f(x: int): int {
	switch (x) {
	case 1:
		return 10;
	case 2:
		tick();
	case 3:
		return 30;
	default:
		return 0;
	}
}
`, "f")

	// One equality test per non-default case.
	if got := countInstr[*ir.Cmp](fn); got != 3 {
		t.Errorf("Expected 3 equality tests, got %d:\n%s", got, fn.String())
	}

	// Case 2 does not end its flow; it falls through into case 3's body.
	case2 := findBlockContaining(fn, "call @tick")
	if case2 == nil {
		t.Fatalf("Case 2 body not found:\n%s", fn.String())
	}
	case3 := brTarget(t, case2)
	br, ok := case3.Term.(*ir.Br)
	if !ok || len(br.Args) != 1 {
		t.Fatalf("Case 3 should return a value, got %v", case3.Term)
	}
	if br.Args[0].Kind != ir.ValConstInt || br.Args[0].Int != 30 {
		t.Errorf("Fallthrough should land in case 3, got arg %s", br.Args[0])
	}
}

func TestLowerSwitchBreakExits(t *testing.T) {
	fn, _ := lowerSource(t, `
function f(x: int): void {
	switch (x) {
	case 1:
		tock();
		break;
	default:
		break;
	}
	tick();
}
`, "f")

	// Both breaks land in the switch end block, which carries the trailing
	// statement.
	after := findBlockContaining(fn, "call @tick")
	if after == nil {
		t.Fatalf("Code after the switch not found:\n%s", fn.String())
	}
	if after.NumPreds() != 2 {
		t.Errorf("End block should merge both breaks, got %d preds", after.NumPreds())
	}
}

// ---------------------------------------------------------------------------
// Constructors and indirect results

func TestLowerConstructorFail(t *testing.T) {
	fn, _ := lowerSource(t, `
function initThing(ok: boolean): void {
	if (!ok) {
		throw 1;
	}
}
`, "initThing")

	// Params: self plus the declared parameter.
	if len(fn.Params) != 2 {
		t.Fatalf("Constructor should take self plus its parameters, got %d", len(fn.Params))
	}
	self := fn.Params[0]

	var sawSelfRet, sawNullRet bool
	for _, b := range fn.Blocks {
		ret, ok := b.Term.(*ir.Ret)
		if !ok {
			continue
		}
		switch {
		case ret.Value == self:
			sawSelfRet = true
		case ret.Value.Kind == ir.ValConstNull:
			sawNullRet = true
		}
	}
	if !sawSelfRet {
		t.Errorf("Successful construction should return self:\n%s", fn.String())
	}
	if !sawNullRet {
		t.Errorf("Failed construction should return null:\n%s", fn.String())
	}

	// Self is released before entering the failure path.
	released := false
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if rel, ok := in.(*ir.Release); ok && rel.X == self {
				released = true
			}
		}
	}
	if !released {
		t.Errorf("Fail should release self:\n%s", fn.String())
	}
}

func TestLowerIndirectResult(t *testing.T) {
	fn, _ := lowerSource(t, `
function build(): object {
	return make();
}
`, "build")

	if !fn.IndirectResult {
		t.Fatal("Object-returning function should use an indirect result")
	}
	if len(fn.Params) == 0 || fn.Params[0].Class != ir.ClassAddress {
		t.Fatalf("First parameter should be the result address, got %v", fn.Params)
	}

	// The result is written through the address; the ret itself is bare.
	stored := false
	for _, b := range fn.Blocks {
		for _, in := range b.Instrs {
			if st, ok := in.(*ir.Store); ok && st.Addr == fn.Params[0] {
				stored = true
			}
		}
		if ret, ok := b.Term.(*ir.Ret); ok && ret.Value.IsValid() {
			t.Errorf("Indirect-result ret should carry no value, got %s", ret.Value)
		}
	}
	if !stored {
		t.Errorf("Result should be stored through the caller's address:\n%s", fn.String())
	}
}

// ---------------------------------------------------------------------------
// Unreachable-code diagnostics

func TestLowerUnreachableDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		source string
		fn     string
		kind   diag.Kind
	}{
		{
			name: "after return",
			source: `
function f(): void {
	return;
	tick();
	tock();
}
`,
			fn:   "f",
			kind: diag.KindUnreachableAfterReturn,
		},
		{
			name: "after break",
			source: `
function f(): void {
	while (true) {
		break;
		tick();
	}
}
`,
			fn:   "f",
			kind: diag.KindUnreachableAfterBreak,
		},
		{
			name: "after continue",
			source: `
function running(): boolean {
	return true;
}

function f(): void {
	while (running()) {
		continue;
		tick();
	}
}
`,
			fn:   "f",
			kind: diag.KindUnreachableAfterContinue,
		},
		{
			name: "after exhaustive if",
			source: `
function flag(): boolean {
	return true;
}

function f(): int {
	if (flag()) {
		return 1;
	} else {
		return 2;
	}
	tick();
}
`,
			fn:   "f",
			kind: diag.KindUnreachable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, bag := lowerSource(t, tt.source, tt.fn)
			if bag.Count() != 1 {
				t.Fatalf("Expected exactly one diagnostic per brace, got %d", bag.Count())
			}
			if got := bag.All()[0].Kind; got != tt.kind {
				t.Errorf("Expected kind %s, got %s", tt.kind, got)
			}
		})
	}
}

func TestLowerExhaustiveCaseBodyNoDiagnostic(t *testing.T) {
	// A case whose every path returns still gets a trailing fallthrough
	// from the parser. That statement is synthesized, not user code, so it
	// must not surface as unreachable.
	fn, bag := lowerSource(t, `
function flag(): boolean {
	return true;
}

function f(x: int): int {
	switch (x) {
	case 1:
		if (flag()) {
			return 1;
		} else {
			return 2;
		}
	default:
		return 0;
	}
}
`, "f")

	if bag.Count() != 0 {
		t.Errorf("Expected no diagnostics for an exhaustive case body, got %d: %v\n%s",
			bag.Count(), bag.All(), fn.String())
	}
}

func TestLowerUnreachableCaseStatementStillReported(t *testing.T) {
	_, bag := lowerSource(t, `
function f(x: int): void {
	switch (x) {
	case 1:
		break;
		tick();
	default:
		break;
	}
}
`, "f")

	if bag.Count() != 1 {
		t.Fatalf("Dead statement written in a case body should be reported, got %d", bag.Count())
	}
	if bag.All()[0].Kind != diag.KindUnreachableAfterBreak {
		t.Errorf("Expected after-break kind, got %s", bag.All()[0].Kind)
	}
}

func TestLowerUnreachableNestedBracesReportSeparately(t *testing.T) {
	_, bag := lowerSource(t, `
function f(): void {
	while (true) {
		break;
		tick();
	}
	return;
	tock();
}
`, "f")

	if bag.Count() != 2 {
		t.Fatalf("Each brace reports its own finding, got %d", bag.Count())
	}
	if bag.All()[0].Kind != diag.KindUnreachableAfterBreak {
		t.Errorf("First finding should be after break, got %s", bag.All()[0].Kind)
	}
	if bag.All()[1].Kind != diag.KindUnreachableAfterReturn {
		t.Errorf("Second finding should be after return, got %s", bag.All()[1].Kind)
	}
}
